package usecase

import (
	"context"
	"fmt"

	"github.com/LavaJover/shvark-market-service/internal/domain"
	"github.com/shopspring/decimal"
)

// CancelOrder lets the buyer or seller cancel before shipping. Paid orders are refunded in full.
func (uc *DefaultOrderUsecase) CancelOrder(ctx context.Context, actorID, orderID string) (*domain.Order, error) {
	order, err := uc.OrderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}

	var cancelledBy string
	switch actorID {
	case order.BuyerID:
		cancelledBy = "buyer"
	case order.SellerID:
		cancelledBy = "seller"
	default:
		return nil, domain.ErrForbidden
	}
	return uc.cancel(ctx, order, cancelledBy)
}

func (uc *DefaultOrderUsecase) cancel(ctx context.Context, order *domain.Order, cancelledBy string) (*domain.Order, error) {
	if !order.Status.CanTransitionTo(domain.StatusCancelled) {
		return nil, fmt.Errorf("%w: %s order cannot be cancelled", domain.ErrCancelOrder, order.Status)
	}
	from := order.Status

	if err := uc.OrderRepo.CancelOrder(ctx, order.ID, from, cancelledBy); err != nil {
		return nil, err
	}
	order.Status = domain.StatusCancelled
	order.CancelledBy = cancelledBy

	if order.PaymentIntentID != "" {
		if from == domain.StatusPaid {
			if _, err := uc.Payments.Refund(ctx, order.PaymentIntentID, decimal.Zero); err != nil {
				// заказ уже отменён, возврат разбирается вручную
				uc.Logger.Error("refund of cancelled order failed", "order_id", order.ID, "payment_intent", order.PaymentIntentID, "error", err)
			}
		} else if err := uc.Payments.CancelPaymentIntent(ctx, order.PaymentIntentID); err != nil {
			uc.Logger.Warn("failed to cancel payment intent", "order_id", order.ID, "error", err)
		}
	}

	listingFrom := domain.ListingReserved
	if from == domain.StatusPaid {
		listingFrom = domain.ListingSold
	}
	uc.releaseListings(ctx, order.ListingIDs(), listingFrom)
	if order.BundleID != "" && from == domain.StatusPaid {
		if err := uc.BundleRepo.UpdateBundleStatus(ctx, order.BundleID, domain.BundleActive); err != nil {
			uc.Logger.Error("failed to reactivate bundle", "bundle_id", order.BundleID, "error", err)
		}
	}

	uc.Metrics.RecordOrderCancelled(cancelledBy)
	uc.announce(ctx, domain.EventOrderCancelled, order)
	return order, nil
}

// CancelStalePendingOrders cancels orders left unpaid past the payment TTL.
func (uc *DefaultOrderUsecase) CancelStalePendingOrders(ctx context.Context) (int, error) {
	stale, err := uc.OrderRepo.FindStalePendingOrders(ctx, uc.now().Add(-uc.PendingPaymentTTL))
	if err != nil {
		return 0, err
	}
	cancelled := 0
	for _, order := range stale {
		if _, err := uc.cancel(ctx, order, "system"); err != nil {
			uc.Logger.Warn("failed to cancel stale order", "order_id", order.ID, "error", err)
			continue
		}
		cancelled++
	}
	if cancelled > 0 {
		uc.Logger.Info("cancelled stale pending orders", "count", cancelled)
	}
	return cancelled, nil
}
