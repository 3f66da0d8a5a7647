package usecase

import (
	"context"
	"errors"

	"github.com/LavaJover/shvark-market-service/internal/domain"
	"github.com/shopspring/decimal"
)

// HandlePaymentSucceeded marks the order paid. Repeated webhooks are no-ops;
// a payment that lands after the order was cancelled is refunded.
func (uc *DefaultOrderUsecase) HandlePaymentSucceeded(ctx context.Context, paymentIntentID string) error {
	order, err := uc.OrderRepo.GetOrderByPaymentIntentID(ctx, paymentIntentID)
	if err != nil {
		return err
	}

	switch order.Status {
	case domain.StatusPendingPayment:
	case domain.StatusCancelled:
		uc.Logger.Warn("payment succeeded for cancelled order, refunding", "order_id", order.ID, "payment_intent", paymentIntentID)
		if _, err := uc.Payments.Refund(ctx, paymentIntentID, decimal.Zero); err != nil {
			return err
		}
		return nil
	default:
		uc.Logger.Info("payment webhook for already paid order", "order_id", order.ID, "status", order.Status)
		return nil
	}

	if err := uc.OrderRepo.UpdateOrderStatus(ctx, order.ID, domain.StatusPendingPayment, domain.StatusPaid); err != nil {
		if errors.Is(err, domain.ErrInvalidTransition) {
			// параллельный вебхук успел раньше
			return nil
		}
		return err
	}
	now := uc.now()
	order.Status = domain.StatusPaid
	order.PaidAt = &now

	if err := uc.ListingRepo.TransitionListings(ctx, order.ListingIDs(), []domain.ListingStatus{domain.ListingReserved}, domain.ListingSold); err != nil {
		uc.Logger.Error("failed to mark listings sold", "order_id", order.ID, "error", err)
	}
	if order.BundleID != "" {
		if err := uc.BundleRepo.UpdateBundleStatus(ctx, order.BundleID, domain.BundleSold); err != nil {
			uc.Logger.Error("failed to mark bundle sold", "order_id", order.ID, "bundle_id", order.BundleID, "error", err)
		}
	}

	uc.announce(ctx, domain.EventOrderPaid, order)
	return nil
}

// HandlePaymentFailed cancels a pending order whose payment was declined or abandoned.
func (uc *DefaultOrderUsecase) HandlePaymentFailed(ctx context.Context, paymentIntentID string) error {
	order, err := uc.OrderRepo.GetOrderByPaymentIntentID(ctx, paymentIntentID)
	if err != nil {
		return err
	}
	if order.Status != domain.StatusPendingPayment {
		return nil
	}
	_, err = uc.cancel(ctx, order, "system")
	if errors.Is(err, domain.ErrInvalidTransition) {
		return nil
	}
	return err
}
