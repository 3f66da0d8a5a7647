package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/LavaJover/shvark-market-service/internal/domain"
	listingdto "github.com/LavaJover/shvark-market-service/internal/usecase/dto/listing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func marketListings() *fakeListingRepo {
	return newFakeListingRepo(
		&domain.Listing{ID: "a", SellerID: "s1", CardName: "Charizard", SetName: "Base Set", Price: dec("250"), Currency: "EUR", Status: domain.ListingActive},
		&domain.Listing{ID: "b", SellerID: "s1", CardName: "Pikachu", SetName: "Jungle", Price: dec("12"), Currency: "EUR", Status: domain.ListingActive},
		&domain.Listing{ID: "c", SellerID: "s2", CardName: "Black Lotus", SetName: "Alpha", Price: dec("9000"), Currency: "EUR", Status: domain.ListingActive},
		&domain.Listing{ID: "d", SellerID: "s2", CardName: "Charizard", SetName: "Base Set 2", Price: dec("150"), Currency: "EUR", Status: domain.ListingSold},
	)
}

func TestCreateListing_DefaultsAndClassification(t *testing.T) {
	repo := newFakeListingRepo()
	ai := &fakeAI{enabled: true, class: &domain.ListingClassification{Category: "pokemon", Tags: []string{"holo"}}}
	uc := NewDefaultListingUsecase(repo, ai, testLogger())

	l, err := uc.CreateListing(context.Background(), &listingdto.CreateListingInput{
		SellerID:  "s1",
		CardName:  "  Mewtwo ",
		Condition: "near_mint",
		Price:     dec("19.999"),
		Currency:  "eur",
	})
	require.NoError(t, err)

	assert.Equal(t, "Mewtwo", l.CardName)
	assert.Equal(t, "EUR", l.Currency)
	assert.Equal(t, 1, l.Quantity)
	assert.Equal(t, "20", l.Price.String())
	assert.Equal(t, domain.ListingActive, l.Status)
	assert.Equal(t, "pokemon", l.Category)
	assert.Equal(t, []string{"holo"}, l.Tags)
}

func TestCreateListing_ClassificationFailureIsIgnored(t *testing.T) {
	uc := NewDefaultListingUsecase(newFakeListingRepo(), &fakeAI{enabled: true, err: errors.New("quota")}, testLogger())

	l, err := uc.CreateListing(context.Background(), &listingdto.CreateListingInput{
		SellerID: "s1", CardName: "Mewtwo", Condition: "good", Price: dec("5"), Draft: true,
	})
	require.NoError(t, err)
	assert.Empty(t, l.Category)
	assert.Equal(t, domain.ListingDraft, l.Status)
}

func TestCreateListing_RejectsNonPositivePrice(t *testing.T) {
	uc := NewDefaultListingUsecase(newFakeListingRepo(), nil, testLogger())

	_, err := uc.CreateListing(context.Background(), &listingdto.CreateListingInput{SellerID: "s1", CardName: "x", Condition: "good"})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestUpdateAndWithdrawListing(t *testing.T) {
	repo := marketListings()
	uc := NewDefaultListingUsecase(repo, nil, testLogger())
	ctx := context.Background()
	price := dec("199.5")

	_, err := uc.UpdateListing(ctx, "s2", "a", &listingdto.UpdateListingInput{Price: &price})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	updated, err := uc.UpdateListing(ctx, "s1", "a", &listingdto.UpdateListingInput{Price: &price})
	require.NoError(t, err)
	assert.Equal(t, "199.5", updated.Price.String())

	_, err = uc.UpdateListing(ctx, "s2", "d", &listingdto.UpdateListingInput{Price: &price})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	require.NoError(t, uc.WithdrawListing(ctx, "s1", "a"))
	assert.Equal(t, domain.ListingWithdrawn, repo.status("a"))

	assert.ErrorIs(t, uc.WithdrawListing(ctx, "s2", "d"), domain.ErrInvalidTransition)
}

func TestSearchListings_TextMatch(t *testing.T) {
	uc := NewDefaultListingUsecase(marketListings(), nil, testLogger())

	out, err := uc.SearchListings(context.Background(), &listingdto.SearchListingsInput{Query: "charizard"})
	require.NoError(t, err)

	require.Len(t, out.Listings, 1)
	assert.Equal(t, "a", out.Listings[0].ID)
	assert.EqualValues(t, 1, out.Total)
	assert.Equal(t, 1, out.Page)
	assert.Equal(t, 20, out.Limit)
	assert.Greater(t, out.Listings[0].Score, 0.0)
}

func TestSearchListings_FuzzyFallbackFindsTypos(t *testing.T) {
	repo := marketListings()
	repo.textMisses = true
	uc := NewDefaultListingUsecase(repo, nil, testLogger())

	out, err := uc.SearchListings(context.Background(), &listingdto.SearchListingsInput{Query: "charzard"})
	require.NoError(t, err)

	require.NotEmpty(t, out.Listings)
	assert.Equal(t, "a", out.Listings[0].ID)
	for _, l := range out.Listings {
		assert.NotEqual(t, "d", l.ID, "sold listings stay hidden")
	}
}

func TestSearchListings_PriceFilterWithoutQuery(t *testing.T) {
	uc := NewDefaultListingUsecase(marketListings(), nil, testLogger())
	maxPrice := dec("300")

	out, err := uc.SearchListings(context.Background(), &listingdto.SearchListingsInput{MaxPrice: &maxPrice})
	require.NoError(t, err)

	assert.EqualValues(t, 2, out.Total)
	for _, l := range out.Listings {
		assert.Zero(t, l.Score)
	}
}
