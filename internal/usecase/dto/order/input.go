package orderdto

import "github.com/LavaJover/shvark-market-service/internal/domain"

// CreateOrderInput buys either a set of listings from one seller or a bundle.
type CreateOrderInput struct {
	BuyerID           string              `json:"-" validate:"required"`
	ListingIDs        []string            `json:"listing_ids" validate:"required_without=BundleID,max=50"`
	BundleID          string              `json:"bundle_id"`
	ShippingAddress   domain.Address      `json:"shipping_address" validate:"required"`
	Channel           domain.OrderChannel `json:"-"`
	CallbackURL       string              `json:"callback_url" validate:"omitempty,url"`
	CheckoutSessionID string              `json:"-"`
}
