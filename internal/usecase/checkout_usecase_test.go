package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/LavaJover/shvark-market-service/internal/domain"
	checkoutdto "github.com/LavaJover/shvark-market-service/internal/usecase/dto/checkout"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newCheckoutFixture(t *testing.T) (*orderFixture, *fakeSessionRepo, *DefaultCheckoutUsecase) {
	t.Helper()
	f := newOrderFixture(t)
	sessions := newFakeSessionRepo()
	uc, err := NewDefaultCheckoutUsecase(sessions, f.uc, 30*time.Minute, testLogger())
	require.NoError(t, err)
	uc.now = func() time.Time { return f.clock }
	return f, sessions, uc
}

func createSession(t *testing.T, uc *DefaultCheckoutUsecase, listingIDs ...string) *checkoutdto.SessionOutput {
	t.Helper()
	input := &checkoutdto.CreateSessionInput{BuyerID: "buyer-1", ShippingAddress: buyerAddress}
	for _, id := range listingIDs {
		input.Items = append(input.Items, checkoutdto.CheckoutItem{ListingID: id, Quantity: 1})
	}
	s, err := uc.CreateSession(context.Background(), input)
	require.NoError(t, err)
	return s
}

func TestCheckoutSession_CreateAndComplete(t *testing.T) {
	f, sessions, uc := newCheckoutFixture(t)

	s := createSession(t, uc, "l1")
	assert.Len(t, s.ID, len("cs_")+24)
	assert.Equal(t, string(domain.CheckoutOpen), s.Status)
	assert.Equal(t, "seller-1", s.SellerID)
	assert.Equal(t, s.Fees.BuyerTotal.StringFixed(2), s.Total)
	// priced only, nothing reserved yet
	assert.Equal(t, domain.ListingActive, f.listings.status("l1"))

	done, err := uc.CompleteSession(context.Background(), "buyer-1", s.ID)
	require.NoError(t, err)

	assert.Equal(t, string(domain.CheckoutCompleted), done.Status)
	require.NotEmpty(t, done.OrderID)
	assert.NotEmpty(t, done.ClientSecret)
	assert.Equal(t, done.OrderID, sessions.sessions[s.ID].OrderID)

	order, err := f.uc.GetOrderByID(context.Background(), done.OrderID)
	require.NoError(t, err)
	assert.Equal(t, domain.ChannelACP, order.Channel)
	assert.True(t, order.Fees.BuyerTotal.Equal(s.Fees.BuyerTotal))
	assert.Equal(t, domain.ListingReserved, f.listings.status("l1"))

	_, err = uc.CompleteSession(context.Background(), "buyer-1", s.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestCheckoutSession_Expired(t *testing.T) {
	f, _, uc := newCheckoutFixture(t)
	s := createSession(t, uc, "l1")

	f.clock = f.clock.Add(31 * time.Minute)

	got, err := uc.GetSession(context.Background(), "buyer-1", s.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.CheckoutExpired), got.Status)

	_, err = uc.CompleteSession(context.Background(), "buyer-1", s.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Zero(t, f.payments.intents)
}

func TestCheckoutSession_PriceChanged(t *testing.T) {
	f, _, uc := newCheckoutFixture(t)
	s := createSession(t, uc, "l1")

	f.listings.listings["l1"].Price = dec("120.00")

	_, err := uc.CompleteSession(context.Background(), "buyer-1", s.ID)
	assert.ErrorIs(t, err, domain.ErrConflict)
	assert.Zero(t, f.payments.intents)
}

func TestCheckoutSession_CancelAndOwnership(t *testing.T) {
	_, _, uc := newCheckoutFixture(t)
	s := createSession(t, uc, "l1")

	_, err := uc.GetSession(context.Background(), "someone-else", s.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	cancelled, err := uc.CancelSession(context.Background(), "buyer-1", s.ID)
	require.NoError(t, err)
	assert.Equal(t, string(domain.CheckoutCancelled), cancelled.Status)

	_, err = uc.CancelSession(context.Background(), "buyer-1", s.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestIdempotency_ReplaysStoredResponse(t *testing.T) {
	idem := NewIdempotency(newFakeIdempotencyStore(), time.Hour)
	calls := 0
	fn := func() (interface{}, error) {
		calls++
		return map[string]int{"call": calls}, nil
	}

	first, err := idem.Do(context.Background(), "key-1", fn)
	require.NoError(t, err)
	second, err := idem.Do(context.Background(), "key-1", fn)
	require.NoError(t, err)

	assert.Equal(t, 1, calls)
	assert.JSONEq(t, string(first), string(second))

	var body map[string]int
	require.NoError(t, json.Unmarshal(second, &body))
	assert.Equal(t, 1, body["call"])
}

func TestIdempotency_FailureReleasesKey(t *testing.T) {
	store := newFakeIdempotencyStore()
	idem := NewIdempotency(store, time.Hour)
	boom := errors.New("boom")

	_, err := idem.Do(context.Background(), "key-1", func() (interface{}, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)

	raw, err := idem.Do(context.Background(), "key-1", func() (interface{}, error) { return "ok", nil })
	require.NoError(t, err)
	assert.Equal(t, `"ok"`, string(raw))
}

func TestIdempotency_InFlightKeyConflicts(t *testing.T) {
	store := newFakeIdempotencyStore()
	_, err := store.Reserve(context.Background(), "key-1", time.Hour)
	require.NoError(t, err)

	idem := NewIdempotency(store, time.Hour)
	_, err = idem.Do(context.Background(), "key-1", func() (interface{}, error) { return "ok", nil })
	assert.ErrorIs(t, err, domain.ErrConflict)
}

func TestIdempotency_NoKeyRunsDirectly(t *testing.T) {
	var idem *Idempotency
	calls := 0
	for i := 0; i < 2; i++ {
		_, err := idem.Do(context.Background(), "", func() (interface{}, error) {
			calls++
			return nil, nil
		})
		require.NoError(t, err)
	}
	assert.Equal(t, 2, calls)
}
