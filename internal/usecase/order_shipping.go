package usecase

import (
	"context"
	"fmt"

	"github.com/LavaJover/shvark-market-service/internal/domain"
)

// ShipOrder buys the shipping label for a paid order and marks it shipped.
func (uc *DefaultOrderUsecase) ShipOrder(ctx context.Context, sellerID, orderID string) (*domain.Order, error) {
	order, err := uc.OrderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.SellerID != sellerID {
		return nil, domain.ErrForbidden
	}
	if !order.Status.CanTransitionTo(domain.StatusShipped) {
		return nil, fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, order.Status, domain.StatusShipped)
	}

	// label already bought by an earlier attempt that failed to flip the status
	if order.Shipment == nil || order.Shipment.TrackingNumber == "" {
		seller, err := uc.ProfileRepo.GetProfileByID(ctx, sellerID)
		if err != nil {
			return nil, err
		}
		if seller.ShipFrom == nil {
			return nil, fmt.Errorf("%w: seller has no ship-from address", domain.ErrInvalidInput)
		}

		shipment, err := uc.Shipping.CreateLabel(ctx, domain.ParcelRequest{
			OrderID:  order.ID,
			From:     *seller.ShipFrom,
			To:       order.ShippingAddress,
			Value:    order.Fees.ItemPrice,
			Currency: order.Currency,
		})
		if err != nil {
			return nil, err
		}
		if err := uc.OrderRepo.SetShipment(ctx, order.ID, shipment); err != nil {
			return nil, err
		}
		order.Shipment = shipment
	}

	if err := uc.transition(ctx, order, domain.StatusShipped); err != nil {
		return nil, err
	}
	uc.announce(ctx, domain.EventOrderShipped, order)
	return order, nil
}

// MarkDelivered records carrier delivery of a shipped order.
func (uc *DefaultOrderUsecase) MarkDelivered(ctx context.Context, orderID string) (*domain.Order, error) {
	order, err := uc.OrderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if err := uc.transition(ctx, order, domain.StatusDelivered); err != nil {
		return nil, err
	}
	uc.announce(ctx, domain.EventOrderDelivered, order)
	return order, nil
}

// transition validates and applies a status change, updating order in place.
func (uc *DefaultOrderUsecase) transition(ctx context.Context, order *domain.Order, to domain.OrderStatus) error {
	if !order.Status.CanTransitionTo(to) {
		return fmt.Errorf("%w: %s -> %s", domain.ErrInvalidTransition, order.Status, to)
	}
	if err := uc.OrderRepo.UpdateOrderStatus(ctx, order.ID, order.Status, to); err != nil {
		return err
	}

	now := uc.now()
	order.Status = to
	order.UpdatedAt = now
	switch to {
	case domain.StatusPaid:
		order.PaidAt = &now
	case domain.StatusShipped:
		order.ShippedAt = &now
	case domain.StatusDelivered:
		order.DeliveredAt = &now
	case domain.StatusCompleted:
		order.CompletedAt = &now
	}
	return nil
}
