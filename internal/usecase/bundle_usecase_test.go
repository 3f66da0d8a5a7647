package usecase

import (
	"context"
	"testing"

	"github.com/LavaJover/shvark-market-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateBundle(t *testing.T) {
	listings := marketListings()
	uc := NewDefaultBundleUsecase(newFakeBundleRepo(), listings)

	view, err := uc.CreateBundle(context.Background(), "s1", "Starter pack", []string{"a", "b", "a"}, dec("10"))
	require.NoError(t, err)

	assert.Equal(t, []string{"a", "b"}, view.Bundle.ListingIDs)
	assert.Equal(t, domain.BundleActive, view.Bundle.Status)
	assert.Equal(t, "262", view.Subtotal.String())
	assert.Equal(t, "235.8", view.Price.String())
}

func TestCreateBundle_Rejections(t *testing.T) {
	uc := NewDefaultBundleUsecase(newFakeBundleRepo(), marketListings())
	ctx := context.Background()

	_, err := uc.CreateBundle(ctx, "s1", "one", []string{"a"}, dec("0"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.CreateBundle(ctx, "s1", "greedy", []string{"a", "b"}, dec("60"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = uc.CreateBundle(ctx, "s1", "mixed", []string{"a", "c"}, dec("5"))
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = uc.CreateBundle(ctx, "s2", "sold", []string{"c", "d"}, dec("5"))
	assert.ErrorIs(t, err, domain.ErrListingUnavailable)
}

func TestWithdrawBundle(t *testing.T) {
	bundles := newFakeBundleRepo()
	uc := NewDefaultBundleUsecase(bundles, marketListings())
	view, err := uc.CreateBundle(context.Background(), "s1", "pack", []string{"a", "b"}, dec("5"))
	require.NoError(t, err)

	assert.ErrorIs(t, uc.WithdrawBundle(context.Background(), "s2", view.Bundle.ID), domain.ErrForbidden)
	require.NoError(t, uc.WithdrawBundle(context.Background(), "s1", view.Bundle.ID))
	assert.ErrorIs(t, uc.WithdrawBundle(context.Background(), "s1", view.Bundle.ID), domain.ErrInvalidTransition)
}

func TestRateOrder(t *testing.T) {
	orders := newFakeOrderRepo()
	orders.orders["o1"] = &domain.Order{ID: "o1", BuyerID: "buyer-1", SellerID: "seller-1", Status: domain.StatusCompleted}
	orders.orders["o2"] = &domain.Order{ID: "o2", BuyerID: "buyer-1", SellerID: "seller-1", Status: domain.StatusShipped}
	ratings := &fakeRatingRepo{}
	uc := NewDefaultRatingUsecase(ratings, orders)
	ctx := context.Background()

	r, err := uc.RateOrder(ctx, "buyer-1", "o1", 5, "fast and well packed")
	require.NoError(t, err)
	assert.Equal(t, "seller-1", r.SellerID)

	_, err = uc.RateOrder(ctx, "buyer-1", "o1", 4, "again")
	assert.ErrorIs(t, err, domain.ErrConflict)

	_, err = uc.RateOrder(ctx, "buyer-1", "o2", 4, "")
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	_, err = uc.RateOrder(ctx, "seller-1", "o1", 4, "")
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = uc.RateOrder(ctx, "buyer-1", "o1", 6, "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	got, total, err := uc.GetSellerRatings(ctx, "seller-1", 1, 20)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	assert.Len(t, got, 1)
}
