package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type BundleStatus string

const (
	BundleActive    BundleStatus = "active"
	BundleSold      BundleStatus = "sold"
	BundleWithdrawn BundleStatus = "withdrawn"
)

type Bundle struct {
	ID              string          `json:"id"`
	SellerID        string          `json:"seller_id"`
	Title           string          `json:"title"`
	ListingIDs      []string        `json:"listing_ids"`
	DiscountPercent decimal.Decimal `json:"discount_percent"`
	Status          BundleStatus    `json:"status"`
	CreatedAt       time.Time       `json:"created_at"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// BundlePrice sums listing prices and applies the bundle discount, rounded to cents.
func BundlePrice(listings []*Listing, discountPercent decimal.Decimal) decimal.Decimal {
	total := decimal.Zero
	for _, l := range listings {
		total = total.Add(l.Price)
	}
	factor := decimal.NewFromInt(1).Sub(discountPercent.Div(decimal.NewFromInt(100)))
	return total.Mul(factor).Round(2)
}

type BundleRepository interface {
	CreateBundle(ctx context.Context, bundle *Bundle) error
	GetBundleByID(ctx context.Context, bundleID string) (*Bundle, error)
	UpdateBundleStatus(ctx context.Context, bundleID string, status BundleStatus) error
	GetSellerBundles(ctx context.Context, sellerID string) ([]*Bundle, error)
}
