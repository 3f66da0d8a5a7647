package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/LavaJover/shvark-market-service/internal/domain"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var maxBundleDiscount = decimal.NewFromInt(50)

type BundleUsecase interface {
	CreateBundle(ctx context.Context, sellerID, title string, listingIDs []string, discountPercent decimal.Decimal) (*BundleView, error)
	GetBundle(ctx context.Context, bundleID string) (*BundleView, error)
	GetSellerBundles(ctx context.Context, sellerID string) ([]*domain.Bundle, error)
	WithdrawBundle(ctx context.Context, sellerID, bundleID string) error
}

// BundleView is a bundle with its current listings and discounted price.
type BundleView struct {
	Bundle   *domain.Bundle    `json:"bundle"`
	Listings []*domain.Listing `json:"listings"`
	Subtotal decimal.Decimal   `json:"subtotal"`
	Price    decimal.Decimal   `json:"price"`
}

type DefaultBundleUsecase struct {
	bundleRepo  domain.BundleRepository
	listingRepo domain.ListingRepository
}

func NewDefaultBundleUsecase(bundleRepo domain.BundleRepository, listingRepo domain.ListingRepository) *DefaultBundleUsecase {
	return &DefaultBundleUsecase{bundleRepo: bundleRepo, listingRepo: listingRepo}
}

func (uc *DefaultBundleUsecase) CreateBundle(ctx context.Context, sellerID, title string, listingIDs []string, discountPercent decimal.Decimal) (*BundleView, error) {
	ids := uniqueIDs(listingIDs)
	if len(ids) < 2 {
		return nil, fmt.Errorf("%w: a bundle needs at least two listings", domain.ErrInvalidInput)
	}
	if discountPercent.IsNegative() || discountPercent.GreaterThan(maxBundleDiscount) {
		return nil, fmt.Errorf("%w: discount must be between 0 and 50 percent", domain.ErrInvalidInput)
	}

	listings, err := uc.listingRepo.GetListingsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(listings) != len(ids) {
		return nil, domain.ErrNotFound
	}
	for _, l := range listings {
		if l.SellerID != sellerID {
			return nil, fmt.Errorf("%w: listing %s belongs to another seller", domain.ErrForbidden, l.ID)
		}
		if l.Status != domain.ListingActive {
			return nil, fmt.Errorf("%w: listing %s is %s", domain.ErrListingUnavailable, l.ID, l.Status)
		}
		if l.Currency != listings[0].Currency {
			return nil, fmt.Errorf("%w: listings use different currencies", domain.ErrInvalidInput)
		}
	}

	bundle := &domain.Bundle{
		ID:              uuid.New().String(),
		SellerID:        sellerID,
		Title:           title,
		ListingIDs:      ids,
		DiscountPercent: discountPercent,
		Status:          domain.BundleActive,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	}
	if err := uc.bundleRepo.CreateBundle(ctx, bundle); err != nil {
		return nil, fmt.Errorf("failed to create bundle: %w", err)
	}
	return bundleView(bundle, listings), nil
}

func (uc *DefaultBundleUsecase) GetBundle(ctx context.Context, bundleID string) (*BundleView, error) {
	bundle, err := uc.bundleRepo.GetBundleByID(ctx, bundleID)
	if err != nil {
		return nil, err
	}
	listings, err := uc.listingRepo.GetListingsByIDs(ctx, bundle.ListingIDs)
	if err != nil {
		return nil, err
	}
	return bundleView(bundle, listings), nil
}

func (uc *DefaultBundleUsecase) GetSellerBundles(ctx context.Context, sellerID string) ([]*domain.Bundle, error) {
	return uc.bundleRepo.GetSellerBundles(ctx, sellerID)
}

func (uc *DefaultBundleUsecase) WithdrawBundle(ctx context.Context, sellerID, bundleID string) error {
	bundle, err := uc.bundleRepo.GetBundleByID(ctx, bundleID)
	if err != nil {
		return err
	}
	if bundle.SellerID != sellerID {
		return domain.ErrForbidden
	}
	if bundle.Status != domain.BundleActive {
		return fmt.Errorf("%w: bundle is %s", domain.ErrInvalidTransition, bundle.Status)
	}
	return uc.bundleRepo.UpdateBundleStatus(ctx, bundleID, domain.BundleWithdrawn)
}

func bundleView(bundle *domain.Bundle, listings []*domain.Listing) *BundleView {
	return &BundleView{
		Bundle:   bundle,
		Listings: listings,
		Subtotal: listingsTotal(listings).Round(2),
		Price:    domain.BundlePrice(listings, bundle.DiscountPercent),
	}
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
