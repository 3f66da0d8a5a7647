package usecase

import (
	"context"
	"fmt"

	"github.com/LavaJover/shvark-market-service/internal/domain"
	"github.com/shopspring/decimal"
)

// DisputedOrders is the part of the order flow driven by disputes.
type DisputedOrders interface {
	MarkDisputed(ctx context.Context, order *domain.Order) error
	ResolveDisputed(ctx context.Context, orderID string, refundBuyer bool) (order *domain.Order, refundID string, err error)
}

func (uc *DefaultOrderUsecase) MarkDisputed(ctx context.Context, order *domain.Order) error {
	if err := uc.transition(ctx, order, domain.StatusDisputed); err != nil {
		return err
	}
	uc.announce(ctx, domain.EventOrderDisputed, order)
	return nil
}

// ResolveDisputed refunds the buyer in full or completes the order for the seller.
func (uc *DefaultOrderUsecase) ResolveDisputed(ctx context.Context, orderID string, refundBuyer bool) (*domain.Order, string, error) {
	order, err := uc.OrderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, "", err
	}
	if order.Status != domain.StatusDisputed {
		return nil, "", fmt.Errorf("%w: order is %s", domain.ErrInvalidTransition, order.Status)
	}

	if !refundBuyer {
		if err := uc.complete(ctx, order); err != nil {
			return nil, "", err
		}
		return order, "", nil
	}

	refundID, err := uc.Payments.Refund(ctx, order.PaymentIntentID, decimal.Zero)
	if err != nil {
		return nil, "", err
	}
	if err := uc.transition(ctx, order, domain.StatusRefunded); err != nil {
		// деньги уже вернули, статус догонит повторный запуск
		uc.Logger.Error("refund issued but order status not updated", "order_id", order.ID, "refund_id", refundID, "error", err)
		return nil, refundID, err
	}
	uc.announce(ctx, domain.EventOrderRefunded, order)
	return order, refundID, nil
}
