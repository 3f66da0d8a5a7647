package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/LavaJover/shvark-market-service/internal/domain"
	"github.com/LavaJover/shvark-market-service/internal/infrastructure/search"
	listingdto "github.com/LavaJover/shvark-market-service/internal/usecase/dto/listing"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const (
	defaultCurrency = "EUR"
	// candidates pulled for fuzzy matching when the SQL filter finds nothing
	fuzzyCandidateLimit = 100
)

type ListingUsecase interface {
	CreateListing(ctx context.Context, input *listingdto.CreateListingInput) (*domain.Listing, error)
	UpdateListing(ctx context.Context, sellerID, listingID string, input *listingdto.UpdateListingInput) (*domain.Listing, error)
	WithdrawListing(ctx context.Context, sellerID, listingID string) error
	GetListing(ctx context.Context, listingID string) (*domain.Listing, error)
	SearchListings(ctx context.Context, input *listingdto.SearchListingsInput) (*listingdto.SearchListingsOutput, error)
}

type DefaultListingUsecase struct {
	listingRepo domain.ListingRepository
	ai          domain.InferenceGateway
	logger      *slog.Logger
}

func NewDefaultListingUsecase(listingRepo domain.ListingRepository, ai domain.InferenceGateway, logger *slog.Logger) *DefaultListingUsecase {
	return &DefaultListingUsecase{listingRepo: listingRepo, ai: ai, logger: logger}
}

func (uc *DefaultListingUsecase) CreateListing(ctx context.Context, input *listingdto.CreateListingInput) (*domain.Listing, error) {
	if !input.Price.IsPositive() {
		return nil, fmt.Errorf("%w: price must be positive", domain.ErrInvalidInput)
	}
	quantity := input.Quantity
	if quantity == 0 {
		quantity = 1
	}
	currency := strings.ToUpper(input.Currency)
	if currency == "" {
		currency = defaultCurrency
	}
	status := domain.ListingActive
	if input.Draft {
		status = domain.ListingDraft
	}

	listing := &domain.Listing{
		ID:             uuid.New().String(),
		SellerID:       input.SellerID,
		CardName:       strings.TrimSpace(input.CardName),
		SetName:        strings.TrimSpace(input.SetName),
		CardNumber:     strings.TrimSpace(input.CardNumber),
		Condition:      domain.CardCondition(input.Condition),
		Language:       strings.ToLower(input.Language),
		Graded:         input.Graded,
		GradingCompany: input.GradingCompany,
		Grade:          input.Grade,
		Price:          input.Price.Round(2),
		Currency:       currency,
		Quantity:       quantity,
		ImageURLs:      input.ImageURLs,
		Status:         status,
		CreatedAt:      time.Now(),
		UpdatedAt:      time.Now(),
	}

	uc.classify(ctx, listing)

	if err := uc.listingRepo.CreateListing(ctx, listing); err != nil {
		return nil, fmt.Errorf("failed to create listing: %w", err)
	}
	return listing, nil
}

// classify fills category and tags from the AI gateway; failures leave them empty.
func (uc *DefaultListingUsecase) classify(ctx context.Context, listing *domain.Listing) {
	if uc.ai == nil || !uc.ai.Enabled() {
		return
	}
	c, err := uc.ai.ClassifyListing(ctx, listing)
	if err != nil {
		uc.logger.Warn("listing classification failed", "listing_id", listing.ID, "error", err)
		return
	}
	listing.Category = c.Category
	listing.Tags = c.Tags
}

func (uc *DefaultListingUsecase) ownedListing(ctx context.Context, sellerID, listingID string) (*domain.Listing, error) {
	listing, err := uc.listingRepo.GetListingByID(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if listing.SellerID != sellerID {
		return nil, domain.ErrForbidden
	}
	return listing, nil
}

func (uc *DefaultListingUsecase) UpdateListing(ctx context.Context, sellerID, listingID string, input *listingdto.UpdateListingInput) (*domain.Listing, error) {
	listing, err := uc.ownedListing(ctx, sellerID, listingID)
	if err != nil {
		return nil, err
	}
	if listing.Status != domain.ListingDraft && listing.Status != domain.ListingActive {
		return nil, fmt.Errorf("%w: listing is %s", domain.ErrInvalidTransition, listing.Status)
	}

	if input.Price != nil {
		if !input.Price.IsPositive() {
			return nil, fmt.Errorf("%w: price must be positive", domain.ErrInvalidInput)
		}
		listing.Price = input.Price.Round(2)
	}
	if input.Quantity != nil {
		listing.Quantity = *input.Quantity
	}
	if input.Condition != nil {
		listing.Condition = domain.CardCondition(*input.Condition)
	}
	if input.ImageURLs != nil {
		listing.ImageURLs = input.ImageURLs
	}
	if input.Publish && listing.Status == domain.ListingDraft {
		listing.Status = domain.ListingActive
	}
	listing.UpdatedAt = time.Now()

	if err := uc.listingRepo.UpdateListing(ctx, listing); err != nil {
		return nil, fmt.Errorf("failed to update listing: %w", err)
	}
	return listing, nil
}

func (uc *DefaultListingUsecase) WithdrawListing(ctx context.Context, sellerID, listingID string) error {
	if _, err := uc.ownedListing(ctx, sellerID, listingID); err != nil {
		return err
	}
	err := uc.listingRepo.TransitionListings(ctx, []string{listingID},
		[]domain.ListingStatus{domain.ListingDraft, domain.ListingActive}, domain.ListingWithdrawn)
	if errors.Is(err, domain.ErrListingUnavailable) {
		return fmt.Errorf("%w: listing is reserved or sold", domain.ErrInvalidTransition)
	}
	return err
}

func (uc *DefaultListingUsecase) GetListing(ctx context.Context, listingID string) (*domain.Listing, error) {
	return uc.listingRepo.GetListingByID(ctx, listingID)
}

// SearchListings filters in SQL and re-ranks the page by fuzzy similarity.
// When the SQL text match finds nothing, recent listings matching the other
// filters are fuzzy matched instead so typos still find cards.
func (uc *DefaultListingUsecase) SearchListings(ctx context.Context, input *listingdto.SearchListingsInput) (*listingdto.SearchListingsOutput, error) {
	filter := toListingFilter(input)

	listings, total, err := uc.listingRepo.FindListings(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to search listings: %w", err)
	}

	query := strings.TrimSpace(input.Query)
	var ranked []search.Result
	if total == 0 && query != "" {
		fallback := filter
		fallback.Query = ""
		fallback.Page = 1
		fallback.Limit = fuzzyCandidateLimit
		candidates, _, err := uc.listingRepo.FindListings(ctx, fallback)
		if err != nil {
			return nil, fmt.Errorf("failed to search listings: %w", err)
		}
		all := search.Rank(query, candidates)
		total = int64(len(all))
		ranked = pageOf(all, filter.Page, filter.Limit)
	} else {
		ranked = search.Rank(query, listings)
	}

	out := &listingdto.SearchListingsOutput{
		Listings: make([]listingdto.ListingResult, 0, len(ranked)),
		Total:    total,
		Page:     filter.Page,
		Limit:    filter.Limit,
	}
	for _, r := range ranked {
		res := ToListingResult(r.Listing)
		if query != "" {
			res.Score = r.Score
		}
		out.Listings = append(out.Listings, res)
	}
	return out, nil
}

func toListingFilter(input *listingdto.SearchListingsInput) domain.ListingFilter {
	active := domain.ListingActive
	filter := domain.ListingFilter{
		Query:    input.Query,
		MinPrice: input.MinPrice,
		MaxPrice: input.MaxPrice,
		Status:   &active,
		Page:     input.Page,
		Limit:    input.Limit,
	}
	if filter.Page < 1 {
		filter.Page = 1
	}
	if filter.Limit < 1 {
		filter.Limit = 20
	}
	if input.SetName != "" {
		filter.SetName = &input.SetName
	}
	if input.SellerID != "" {
		filter.SellerID = &input.SellerID
	}
	if input.Condition != "" {
		c := domain.CardCondition(input.Condition)
		filter.Condition = &c
	}
	return filter
}

func pageOf(results []search.Result, page, limit int) []search.Result {
	start := (page - 1) * limit
	if start >= len(results) {
		return nil
	}
	end := start + limit
	if end > len(results) {
		end = len(results)
	}
	return results[start:end]
}

func ToListingResult(l *domain.Listing) listingdto.ListingResult {
	images := l.ImageURLs
	if images == nil {
		images = []string{}
	}
	return listingdto.ListingResult{
		ID:             l.ID,
		SellerID:       l.SellerID,
		Title:          l.Title(),
		CardName:       l.CardName,
		SetName:        l.SetName,
		CardNumber:     l.CardNumber,
		Condition:      string(l.Condition),
		Language:       l.Language,
		Graded:         l.Graded,
		GradingCompany: l.GradingCompany,
		Grade:          l.Grade,
		Price:          l.Price,
		Currency:       l.Currency,
		Quantity:       l.Quantity,
		ImageURLs:      images,
		Category:       l.Category,
		Tags:           l.Tags,
		Status:         string(l.Status),
	}
}

// listingsTotal sums listing prices.
func listingsTotal(listings []*domain.Listing) decimal.Decimal {
	total := decimal.Zero
	for _, l := range listings {
		total = total.Add(l.Price)
	}
	return total
}
