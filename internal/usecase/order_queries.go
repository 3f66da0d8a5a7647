package usecase

import (
	"context"

	"github.com/LavaJover/shvark-market-service/internal/domain"
)

func (uc *DefaultOrderUsecase) GetOrderByID(ctx context.Context, orderID string) (*domain.Order, error) {
	return uc.OrderRepo.GetOrderByID(ctx, orderID)
}

// GetOrderForUser returns the order only to its buyer or seller.
func (uc *DefaultOrderUsecase) GetOrderForUser(ctx context.Context, userID, orderID string) (*domain.Order, error) {
	order, err := uc.OrderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != userID && order.SellerID != userID {
		// не раскрываем существование чужих заказов
		return nil, domain.ErrNotFound
	}
	return order, nil
}

func (uc *DefaultOrderUsecase) GetOrders(ctx context.Context, filter domain.OrderFilter) ([]*domain.Order, int64, error) {
	return uc.OrderRepo.FindOrders(ctx, filter)
}
