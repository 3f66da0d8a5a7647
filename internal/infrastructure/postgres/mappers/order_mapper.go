package mappers

import (
	"github.com/LavaJover/shvark-market-service/internal/domain"
	"github.com/LavaJover/shvark-market-service/internal/infrastructure/postgres/models"
)

func ToDomainOrder(model *models.OrderModel) *domain.Order {
	order := &domain.Order{
		ID:       model.ID,
		BuyerID:  model.BuyerID,
		SellerID: model.SellerID,
		BundleID: model.BundleID,
		Items:    model.Items,
		Channel:  domain.OrderChannel(model.Channel),
		Currency: model.Currency,
		Fees: domain.FeeBreakdown{
			ItemPrice:            model.ItemPrice,
			BuyerProtectionFee:   model.BuyerProtectionFee,
			SellerCommissionRate: model.SellerCommissionRate,
			SellerCommission:     model.SellerCommission,
			InstantPayoutFee:     model.InstantPayoutFee,
			ShippingLabelCost:    model.ShippingLabelCost,
			ShippingMargin:       model.ShippingMargin,
			BuyerTotal:           model.BuyerTotal,
			SellerNet:            model.SellerNet,
			PlatformRevenue:      model.PlatformRevenue,
		},
		Status:          domain.OrderStatus(model.Status),
		CancelledBy:     model.CancelledBy,
		PaymentIntentID: model.PaymentIntentID,
		ClientSecret:    model.ClientSecret,
		ShippingAddress: model.ShippingAddress,
		CallbackURL:     model.CallbackURL,
		PaidAt:          model.PaidAt,
		ShippedAt:       model.ShippedAt,
		DeliveredAt:     model.DeliveredAt,
		CompletedAt:     model.CompletedAt,
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}
	if model.TrackingNumber != "" || model.LabelURL != "" {
		order.Shipment = &domain.Shipment{
			Carrier:        model.Carrier,
			TrackingNumber: model.TrackingNumber,
			TrackingURL:    model.TrackingURL,
			LabelURL:       model.LabelURL,
			Cost:           model.ShippingLabelCost,
		}
	}
	return order
}

func ToGORMOrder(order *domain.Order) *models.OrderModel {
	model := &models.OrderModel{
		ID:                   order.ID,
		BuyerID:              order.BuyerID,
		SellerID:             order.SellerID,
		BundleID:             order.BundleID,
		Items:                order.Items,
		Channel:              string(order.Channel),
		Currency:             order.Currency,
		ItemPrice:            order.Fees.ItemPrice,
		BuyerProtectionFee:   order.Fees.BuyerProtectionFee,
		SellerCommissionRate: order.Fees.SellerCommissionRate,
		SellerCommission:     order.Fees.SellerCommission,
		InstantPayoutFee:     order.Fees.InstantPayoutFee,
		ShippingLabelCost:    order.Fees.ShippingLabelCost,
		ShippingMargin:       order.Fees.ShippingMargin,
		BuyerTotal:           order.Fees.BuyerTotal,
		SellerNet:            order.Fees.SellerNet,
		PlatformRevenue:      order.Fees.PlatformRevenue,
		Status:               string(order.Status),
		CancelledBy:          order.CancelledBy,
		PaymentIntentID:      order.PaymentIntentID,
		ClientSecret:         order.ClientSecret,
		ShippingAddress:      order.ShippingAddress,
		CallbackURL:          order.CallbackURL,
		PaidAt:               order.PaidAt,
		ShippedAt:            order.ShippedAt,
		DeliveredAt:          order.DeliveredAt,
		CompletedAt:          order.CompletedAt,
		CreatedAt:            order.CreatedAt,
		UpdatedAt:            order.UpdatedAt,
	}
	if order.Shipment != nil {
		model.Carrier = order.Shipment.Carrier
		model.TrackingNumber = order.Shipment.TrackingNumber
		model.TrackingURL = order.Shipment.TrackingURL
		model.LabelURL = order.Shipment.LabelURL
	}
	return model
}

func ToDomainPayout(model *models.PayoutModel) *domain.Payout {
	return &domain.Payout{
		ID:            model.ID,
		SellerID:      model.SellerID,
		Amount:        model.Amount,
		Fee:           model.Fee,
		NetAmount:     model.NetAmount,
		Currency:      model.Currency,
		Method:        domain.PayoutMethod(model.Method),
		Status:        domain.PayoutStatus(model.Status),
		TransferID:    model.TransferID,
		FailureReason: model.FailureReason,
		CreatedAt:     model.CreatedAt,
		UpdatedAt:     model.UpdatedAt,
		CompletedAt:   model.CompletedAt,
	}
}

func ToGORMPayout(payout *domain.Payout) *models.PayoutModel {
	return &models.PayoutModel{
		ID:            payout.ID,
		SellerID:      payout.SellerID,
		Amount:        payout.Amount,
		Fee:           payout.Fee,
		NetAmount:     payout.NetAmount,
		Currency:      payout.Currency,
		Method:        string(payout.Method),
		Status:        string(payout.Status),
		TransferID:    payout.TransferID,
		FailureReason: payout.FailureReason,
		CreatedAt:     payout.CreatedAt,
		UpdatedAt:     payout.UpdatedAt,
		CompletedAt:   payout.CompletedAt,
	}
}

func ToDomainCheckoutSession(model *models.CheckoutSessionModel) *domain.CheckoutSession {
	return &domain.CheckoutSession{
		ID:              model.ID,
		BuyerID:         model.BuyerID,
		SellerID:        model.SellerID,
		ListingIDs:      model.ListingIDs,
		BundleID:        model.BundleID,
		Fees:            model.Fees,
		Currency:        model.Currency,
		Status:          domain.CheckoutStatus(model.Status),
		OrderID:         model.OrderID,
		ShippingAddress: model.ShippingAddress,
		CallbackURL:     model.CallbackURL,
		ExpiresAt:       model.ExpiresAt,
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}
}

func ToGORMCheckoutSession(session *domain.CheckoutSession) *models.CheckoutSessionModel {
	return &models.CheckoutSessionModel{
		ID:              session.ID,
		BuyerID:         session.BuyerID,
		SellerID:        session.SellerID,
		ListingIDs:      session.ListingIDs,
		BundleID:        session.BundleID,
		Fees:            session.Fees,
		Currency:        session.Currency,
		Status:          string(session.Status),
		OrderID:         session.OrderID,
		ShippingAddress: session.ShippingAddress,
		CallbackURL:     session.CallbackURL,
		ExpiresAt:       session.ExpiresAt,
		CreatedAt:       session.CreatedAt,
		UpdatedAt:       session.UpdatedAt,
	}
}
