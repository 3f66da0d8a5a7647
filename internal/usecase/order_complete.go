package usecase

import (
	"context"

	"github.com/LavaJover/shvark-market-service/internal/domain"
)

// CompleteOrder is the buyer confirming receipt. It releases the seller net
// to the seller's available balance.
func (uc *DefaultOrderUsecase) CompleteOrder(ctx context.Context, buyerID, orderID string) (*domain.Order, error) {
	order, err := uc.OrderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != buyerID {
		return nil, domain.ErrForbidden
	}
	if order.Status == domain.StatusDisputed {
		// закрывается только через решение по диспуту
		return nil, domain.ErrInvalidTransition
	}
	if err := uc.complete(ctx, order); err != nil {
		return nil, err
	}
	return order, nil
}

func (uc *DefaultOrderUsecase) complete(ctx context.Context, order *domain.Order) error {
	if err := uc.transition(ctx, order, domain.StatusCompleted); err != nil {
		return err
	}
	f := order.Fees
	uc.Metrics.RecordOrderCompleted(string(order.Channel), order.Currency, f.ItemPrice, f.SellerCommission, f.BuyerProtectionFee, f.ShippingMargin)
	uc.announce(ctx, domain.EventOrderCompleted, order)
	uc.Logger.Info("order completed", "order_id", order.ID, "seller_id", order.SellerID, "seller_net", f.SellerNet)
	return nil
}
