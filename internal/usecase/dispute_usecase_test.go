package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/LavaJover/shvark-market-service/internal/domain"
	disputedto "github.com/LavaJover/shvark-market-service/internal/usecase/dto/dispute"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newDisputeFixture(t *testing.T) (*orderFixture, *fakeDisputeRepo, *DefaultDisputeUsecase) {
	t.Helper()
	f := newOrderFixture(t)
	disputes := newFakeDisputeRepo()
	uc, err := NewDefaultDisputeUsecase(disputes, f.orders, f.uc, NewEventBus(f.publisher, testLogger()), nil, testLogger(), 72*time.Hour)
	require.NoError(t, err)
	uc.now = func() time.Time { return f.clock }
	return f, disputes, uc
}

func openDispute(t *testing.T, uc *DefaultDisputeUsecase, orderID string) *domain.Dispute {
	t.Helper()
	d, err := uc.OpenDispute(context.Background(), &disputedto.OpenDisputeInput{
		BuyerID:     "buyer-1",
		OrderID:     orderID,
		Reason:      string(domain.ReasonNotAsDescribed),
		Description: "card has a crease",
	})
	require.NoError(t, err)
	return d
}

func TestOpenDispute(t *testing.T) {
	f, _, uc := newDisputeFixture(t)
	order := f.paid(t, "l1")

	d := openDispute(t, uc, order.ID)

	assert.Len(t, d.ID, 15)
	assert.Equal(t, domain.DisputeOpened, d.Status)
	assert.Equal(t, "seller-1", d.SellerID)
	assert.Equal(t, domain.StatusPaid, d.OrderStatusOriginal)
	assert.Equal(t, f.clock.Add(72*time.Hour), d.AutoResolveAt)
	assert.Equal(t, domain.StatusDisputed, f.orders.status(order.ID))
	assert.Contains(t, f.publisher.types(), domain.EventDisputeOpened)
	assert.Contains(t, f.publisher.types(), domain.EventOrderDisputed)
}

func TestOpenDispute_Rejections(t *testing.T) {
	f, _, uc := newDisputeFixture(t)
	pending := f.create(t, "l2")
	order := f.paid(t, "l1")
	ctx := context.Background()

	_, err := uc.OpenDispute(ctx, &disputedto.OpenDisputeInput{BuyerID: "seller-1", OrderID: order.ID, Reason: "other"})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = uc.OpenDispute(ctx, &disputedto.OpenDisputeInput{BuyerID: "buyer-1", OrderID: pending.ID, Reason: "other"})
	assert.ErrorIs(t, err, domain.ErrOpenDisputeFailed)

	openDispute(t, uc, order.ID)
	_, err = uc.OpenDispute(ctx, &disputedto.OpenDisputeInput{BuyerID: "buyer-1", OrderID: order.ID, Reason: "other"})
	assert.Error(t, err)
}

type racingDisputedOrders struct {
	DisputedOrders
}

func (racingDisputedOrders) MarkDisputed(context.Context, *domain.Order) error {
	return domain.ErrInvalidTransition
}

func TestOpenDispute_OrderTransitionFailsLeavesNoDispute(t *testing.T) {
	f, disputes, uc := newDisputeFixture(t)
	order := f.paid(t, "l1")
	ctx := context.Background()

	uc.orders = racingDisputedOrders{DisputedOrders: f.uc}
	_, err := uc.OpenDispute(ctx, &disputedto.OpenDisputeInput{BuyerID: "buyer-1", OrderID: order.ID, Reason: "other"})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
	assert.Empty(t, disputes.disputes)
	assert.Equal(t, domain.StatusPaid, f.orders.status(order.ID))

	n, err := uc.AutoResolveExpired(ctx)
	require.NoError(t, err)
	assert.Zero(t, n)

	// the buyer can still dispute once the order is reachable again
	uc.orders = f.uc
	d := openDispute(t, uc, order.ID)
	assert.Equal(t, domain.DisputeOpened, d.Status)
	assert.Equal(t, domain.StatusDisputed, f.orders.status(order.ID))
}

func TestCompleteOrder_DisputedOrderNeedsResolution(t *testing.T) {
	f, _, uc := newDisputeFixture(t)
	order := f.paid(t, "l1")
	openDispute(t, uc, order.ID)

	_, err := f.uc.CompleteOrder(context.Background(), "buyer-1", order.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestResolveDispute_InFavorOfBuyerRefunds(t *testing.T) {
	f, disputes, uc := newDisputeFixture(t)
	order := f.paid(t, "l1")
	d := openDispute(t, uc, order.ID)

	resolved, err := uc.ResolveDispute(context.Background(), &disputedto.ResolveDisputeInput{
		DisputeID:      d.ID,
		InFavorOfBuyer: true,
		ResolvedBy:     "operator-7",
	})
	require.NoError(t, err)

	assert.Equal(t, domain.DisputeResolvedBuyer, resolved.Status)
	assert.Equal(t, "re_"+order.PaymentIntentID, resolved.RefundID)
	assert.NotNil(t, resolved.ResolvedAt)
	assert.Equal(t, domain.StatusRefunded, f.orders.status(order.ID))
	assert.Equal(t, domain.DisputeResolvedBuyer, disputes.disputes[d.ID].Status)

	_, err = uc.ResolveDispute(context.Background(), &disputedto.ResolveDisputeInput{DisputeID: d.ID, ResolvedBy: "operator-7"})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)
}

func TestResolveDispute_InFavorOfSellerCompletes(t *testing.T) {
	f, _, uc := newDisputeFixture(t)
	order := f.paid(t, "l1")
	d := openDispute(t, uc, order.ID)

	_, err := uc.RespondToDispute(context.Background(), "buyer-1", d.ID, "not mine")
	assert.ErrorIs(t, err, domain.ErrForbidden)
	responded, err := uc.RespondToDispute(context.Background(), "seller-1", d.ID, "photos show it was mint")
	require.NoError(t, err)
	assert.Equal(t, domain.DisputeResponded, responded.Status)

	resolved, err := uc.ResolveDispute(context.Background(), &disputedto.ResolveDisputeInput{DisputeID: d.ID, ResolvedBy: "operator-7"})
	require.NoError(t, err)

	assert.Equal(t, domain.DisputeResolvedSeller, resolved.Status)
	assert.Empty(t, resolved.RefundID)
	assert.Equal(t, domain.StatusCompleted, f.orders.status(order.ID))
	assert.Empty(t, f.payments.refunds)
}

func TestAutoResolveExpired_OnlyUnansweredDisputes(t *testing.T) {
	f, _, uc := newDisputeFixture(t)
	unanswered := f.paid(t, "l1")
	answered := f.paid(t, "l2")
	d1 := openDispute(t, uc, unanswered.ID)
	d2 := openDispute(t, uc, answered.ID)
	_, err := uc.RespondToDispute(context.Background(), "seller-1", d2.ID, "shipped with tracking")
	require.NoError(t, err)

	n, err := uc.AutoResolveExpired(context.Background())
	require.NoError(t, err)
	assert.Zero(t, n)

	f.clock = f.clock.Add(73 * time.Hour)
	n, err = uc.AutoResolveExpired(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, n)
	got, err := uc.GetDisputeByID(context.Background(), d1.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.DisputeResolvedBuyer, got.Status)
	assert.Equal(t, domain.StatusRefunded, f.orders.status(unanswered.ID))
	assert.Equal(t, domain.StatusDisputed, f.orders.status(answered.ID))
}
