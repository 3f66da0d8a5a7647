package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

type Address struct {
	Name        string `json:"name" validate:"required"`
	Street      string `json:"street" validate:"required"`
	HouseNumber string `json:"house_number"`
	City        string `json:"city" validate:"required"`
	PostalCode  string `json:"postal_code" validate:"required"`
	Country     string `json:"country" validate:"required,len=2"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
}

type Shipment struct {
	Carrier        string
	TrackingNumber string
	TrackingURL    string
	LabelURL       string
	Cost           decimal.Decimal
}

type ParcelRequest struct {
	OrderID     string
	From        Address
	To          Address
	WeightGrams int
	Value       decimal.Decimal
	Currency    string
}

// ShippingProvider buys labels from the shipping aggregator.
type ShippingProvider interface {
	QuoteLabel(ctx context.Context, req ParcelRequest) (decimal.Decimal, error)
	CreateLabel(ctx context.Context, req ParcelRequest) (*Shipment, error)
}
