package usecase

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/LavaJover/shvark-market-service/internal/domain"
	"github.com/LavaJover/shvark-market-service/internal/usecase/fees"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWalletCache struct {
	balances    map[string]*domain.WalletBalance
	invalidated int
}

func newFakeWalletCache() *fakeWalletCache {
	return &fakeWalletCache{balances: map[string]*domain.WalletBalance{}}
}

func (c *fakeWalletCache) Get(_ context.Context, sellerID string) (*domain.WalletBalance, bool, error) {
	b, ok := c.balances[sellerID]
	return b, ok, nil
}

func (c *fakeWalletCache) Set(_ context.Context, b *domain.WalletBalance) error {
	c.balances[b.SellerID] = b
	return nil
}

func (c *fakeWalletCache) Invalidate(_ context.Context, sellerID string) error {
	c.invalidated++
	delete(c.balances, sellerID)
	return nil
}

type payoutFixture struct {
	orders   *fakeOrderRepo
	payouts  *fakePayoutRepo
	payments *fakePayments
	cache    *fakeWalletCache
	wallet   *DefaultWalletUsecase
	uc       *DefaultPayoutUsecase
}

func newPayoutFixture() *payoutFixture {
	f := &payoutFixture{
		orders:   newFakeOrderRepo(),
		payouts:  newFakePayoutRepo(),
		payments: &fakePayments{},
		cache:    newFakeWalletCache(),
	}
	f.orders.pending = dec("50.00")
	f.orders.completed = dec("200.00")
	f.payouts.payouts["old"] = &domain.Payout{ID: "old", SellerID: "seller-1", Amount: dec("80.00"), Status: domain.PayoutCompleted}

	profiles := newFakeProfileRepo(
		&domain.Profile{ID: "seller-1", MembershipTier: domain.MembershipFree, StripeAccountID: "acct_1"},
		&domain.Profile{ID: "seller-2", MembershipTier: domain.MembershipFree},
	)
	f.wallet = NewDefaultWalletUsecase(f.orders, f.payouts, f.cache, "EUR", testLogger())
	f.uc = NewDefaultPayoutUsecase(f.payouts, profiles, f.payments, f.wallet, fees.NewCalculator(fees.DefaultSchedule()), nil, testLogger())
	return f
}

func TestWalletBalance(t *testing.T) {
	f := newPayoutFixture()

	b, err := f.wallet.GetBalance(context.Background(), "seller-1")
	require.NoError(t, err)

	assert.Equal(t, "50", b.Pending.String())
	assert.Equal(t, "120", b.Available.String())
	assert.Equal(t, "80", b.PaidOut.String())
	assert.Equal(t, "EUR", b.Currency)

	// served from cache until invalidated
	f.orders.completed = dec("500.00")
	cached, err := f.wallet.GetBalance(context.Background(), "seller-1")
	require.NoError(t, err)
	assert.Equal(t, "120", cached.Available.String())

	f.wallet.Invalidate(context.Background(), "seller-1")
	fresh, err := f.wallet.GetBalance(context.Background(), "seller-1")
	require.NoError(t, err)
	assert.Equal(t, "420", fresh.Available.String())
}

func TestRequestPayout_StandardWithdrawsAllAvailable(t *testing.T) {
	f := newPayoutFixture()

	p, err := f.uc.RequestPayout(context.Background(), "seller-1", nil, "")
	require.NoError(t, err)

	assert.Equal(t, domain.PayoutStandard, p.Method)
	assert.Equal(t, domain.PayoutPending, p.Status)
	assert.Equal(t, "120", p.Amount.String())
	assert.True(t, p.Fee.IsZero())
	assert.Empty(t, f.payments.transfers)

	b, err := f.wallet.GetBalance(context.Background(), "seller-1")
	require.NoError(t, err)
	assert.True(t, b.Available.IsZero())
}

func TestRequestPayout_Rejections(t *testing.T) {
	f := newPayoutFixture()
	ctx := context.Background()
	tooMuch := dec("120.01")
	negative := dec("-1")

	_, err := f.uc.RequestPayout(ctx, "seller-1", &tooMuch, domain.PayoutStandard)
	assert.ErrorIs(t, err, domain.ErrInsufficientFunds)

	_, err = f.uc.RequestPayout(ctx, "seller-1", &negative, domain.PayoutStandard)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.uc.RequestPayout(ctx, "seller-2", nil, domain.PayoutStandard)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = f.uc.RequestPayout(ctx, "seller-1", nil, "wire")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRequestPayout_InstantIsTransferredImmediately(t *testing.T) {
	f := newPayoutFixture()
	amount := dec("100.00")

	p, err := f.uc.RequestPayout(context.Background(), "seller-1", &amount, domain.PayoutInstant)
	require.NoError(t, err)

	expectedFee := fees.NewCalculator(fees.DefaultSchedule()).InstantPayoutFee(domain.MembershipFree, amount)
	assert.Equal(t, domain.PayoutCompleted, p.Status)
	assert.True(t, expectedFee.Equal(p.Fee), "fee %s, want %s", p.Fee, expectedFee)
	assert.True(t, amount.Sub(expectedFee).Equal(p.NetAmount))
	assert.Equal(t, []string{"payout-" + p.ID}, f.payments.transfers)
	assert.Equal(t, "tr_payout-"+p.ID, p.TransferID)
	assert.NotNil(t, p.CompletedAt)
}

func TestProcessPayout_IsIdempotent(t *testing.T) {
	f := newPayoutFixture()
	p, err := f.uc.RequestPayout(context.Background(), "seller-1", nil, domain.PayoutStandard)
	require.NoError(t, err)

	first, err := f.uc.ProcessPayout(context.Background(), p.ID)
	require.NoError(t, err)
	second, err := f.uc.ProcessPayout(context.Background(), p.ID)
	require.NoError(t, err)

	assert.Equal(t, domain.PayoutCompleted, first.Status)
	assert.Equal(t, domain.PayoutCompleted, second.Status)
	assert.Len(t, f.payments.transfers, 1)
}

func TestProcessPayout_ClaimedElsewhere(t *testing.T) {
	f := newPayoutFixture()
	p, err := f.uc.RequestPayout(context.Background(), "seller-1", nil, domain.PayoutStandard)
	require.NoError(t, err)
	f.payouts.claimed = true

	got, err := f.uc.ProcessPayout(context.Background(), p.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.PayoutPending, got.Status)
	assert.Empty(t, f.payments.transfers)
}

func TestProcessPayout_TransferFailureReturnsFunds(t *testing.T) {
	f := newPayoutFixture()
	p, err := f.uc.RequestPayout(context.Background(), "seller-1", nil, domain.PayoutStandard)
	require.NoError(t, err)
	f.payments.failTransfer = errors.New("account_closed")

	got, err := f.uc.ProcessPayout(context.Background(), p.ID)
	assert.ErrorIs(t, err, domain.ErrPayoutFailed)
	require.NotNil(t, got)
	assert.Equal(t, domain.PayoutFailed, got.Status)
	assert.Equal(t, "account_closed", got.FailureReason)

	b, err := f.wallet.GetBalance(context.Background(), "seller-1")
	require.NoError(t, err)
	assert.Equal(t, "120", b.Available.String())
}

func TestProcessPendingPayouts(t *testing.T) {
	f := newPayoutFixture()
	half := dec("60.00")
	_, err := f.uc.RequestPayout(context.Background(), "seller-1", &half, domain.PayoutStandard)
	require.NoError(t, err)
	_, err = f.uc.RequestPayout(context.Background(), "seller-1", &half, domain.PayoutStandard)
	require.NoError(t, err)

	n, err := f.uc.ProcessPendingPayouts(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Len(t, f.payments.transfers, 2)
}

func TestProcessPendingPayouts_RetriesStaleProcessing(t *testing.T) {
	f := newPayoutFixture()
	f.payouts.payouts["stuck"] = &domain.Payout{
		ID: "stuck", SellerID: "seller-1", Amount: dec("40.00"), NetAmount: dec("40.00"), Currency: "EUR",
		Method: domain.PayoutStandard, Status: domain.PayoutProcessing, UpdatedAt: time.Now().Add(-time.Hour),
	}
	f.payouts.payouts["in-flight"] = &domain.Payout{
		ID: "in-flight", SellerID: "seller-1", Amount: dec("20.00"), NetAmount: dec("20.00"), Currency: "EUR",
		Method: domain.PayoutStandard, Status: domain.PayoutProcessing, UpdatedAt: time.Now(),
	}

	n, err := f.uc.ProcessPendingPayouts(context.Background(), 10)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"payout-stuck"}, f.payments.transfers)

	stuck, err := f.payouts.GetPayoutByID(context.Background(), "stuck")
	require.NoError(t, err)
	assert.Equal(t, domain.PayoutCompleted, stuck.Status)
	assert.Equal(t, "tr_payout-stuck", stuck.TransferID)

	inFlight, err := f.payouts.GetPayoutByID(context.Background(), "in-flight")
	require.NoError(t, err)
	assert.Equal(t, domain.PayoutProcessing, inFlight.Status)
}
