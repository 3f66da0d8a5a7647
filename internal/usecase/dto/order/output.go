package orderdto

import (
	"time"

	"github.com/LavaJover/shvark-market-service/internal/domain"
)

type ShipmentOutput struct {
	Carrier        string `json:"carrier,omitempty"`
	TrackingNumber string `json:"tracking_number,omitempty"`
	TrackingURL    string `json:"tracking_url,omitempty"`
	LabelURL       string `json:"label_url,omitempty"`
}

type OrderOutput struct {
	ID           string              `json:"id"`
	BuyerID      string              `json:"buyer_id"`
	SellerID     string              `json:"seller_id"`
	BundleID     string              `json:"bundle_id,omitempty"`
	Status       string              `json:"status"`
	Channel      string              `json:"channel"`
	Currency     string              `json:"currency"`
	Items        []domain.OrderItem  `json:"items"`
	Fees         domain.FeeBreakdown `json:"fees"`
	ClientSecret string              `json:"client_secret,omitempty"`
	Shipment     *ShipmentOutput     `json:"shipment,omitempty"`
	CreatedAt    time.Time           `json:"created_at"`
	PaidAt       *time.Time          `json:"paid_at,omitempty"`
	ShippedAt    *time.Time          `json:"shipped_at,omitempty"`
	DeliveredAt  *time.Time          `json:"delivered_at,omitempty"`
	CompletedAt  *time.Time          `json:"completed_at,omitempty"`
}

// ToOrderOutput hides payment internals; the client secret is only returned to the buyer.
func ToOrderOutput(o *domain.Order, includeSecret bool) *OrderOutput {
	out := &OrderOutput{
		ID:          o.ID,
		BuyerID:     o.BuyerID,
		SellerID:    o.SellerID,
		BundleID:    o.BundleID,
		Status:      string(o.Status),
		Channel:     string(o.Channel),
		Currency:    o.Currency,
		Items:       o.Items,
		Fees:        o.Fees,
		CreatedAt:   o.CreatedAt,
		PaidAt:      o.PaidAt,
		ShippedAt:   o.ShippedAt,
		DeliveredAt: o.DeliveredAt,
		CompletedAt: o.CompletedAt,
	}
	if includeSecret {
		out.ClientSecret = o.ClientSecret
	}
	if o.Shipment != nil {
		out.Shipment = &ShipmentOutput{
			Carrier:        o.Shipment.Carrier,
			TrackingNumber: o.Shipment.TrackingNumber,
			TrackingURL:    o.Shipment.TrackingURL,
			LabelURL:       o.Shipment.LabelURL,
		}
	}
	return out
}
