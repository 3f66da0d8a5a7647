package checkoutdto

import "github.com/LavaJover/shvark-market-service/internal/domain"

type CheckoutItem struct {
	ListingID string `json:"listing_id" validate:"required"`
	Quantity  int    `json:"quantity" validate:"omitempty,eq=1"`
}

type CreateSessionInput struct {
	BuyerID         string         `json:"-" validate:"required"`
	Items           []CheckoutItem `json:"items" validate:"required_without=BundleID,max=50,dive"`
	BundleID        string         `json:"bundle_id"`
	ShippingAddress domain.Address `json:"shipping_address" validate:"required"`
	CallbackURL     string         `json:"callback_url" validate:"omitempty,url"`
}

type SessionOutput struct {
	ID           string              `json:"id"`
	Status       string              `json:"status"`
	SellerID     string              `json:"seller_id"`
	ListingIDs   []string            `json:"listing_ids"`
	BundleID     string              `json:"bundle_id,omitempty"`
	Currency     string              `json:"currency"`
	Fees         domain.FeeBreakdown `json:"fees"`
	Total        string              `json:"total"`
	OrderID      string              `json:"order_id,omitempty"`
	ClientSecret string              `json:"client_secret,omitempty"`
	ExpiresAt    string              `json:"expires_at"`
}
