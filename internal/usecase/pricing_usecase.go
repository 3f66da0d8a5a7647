package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/LavaJover/shvark-market-service/internal/domain"
	"github.com/shopspring/decimal"
)

const comparablesLimit = 50

var (
	fairBand   = decimal.RequireFromString("0.15")
	decimalTwo = decimal.NewFromInt(2)
)

type EvaluatePriceInput struct {
	ListingID  string          `json:"listing_id"`
	CardName   string          `json:"card_name" validate:"required_without=ListingID"`
	SetName    string          `json:"set_name"`
	Condition  string          `json:"condition" validate:"omitempty,oneof=mint near_mint excellent good light_played played poor"`
	AskedPrice decimal.Decimal `json:"price"`
}

type PricingUsecase interface {
	EvaluatePrice(ctx context.Context, input *EvaluatePriceInput) (*domain.PriceEvaluation, error)
}

type DefaultPricingUsecase struct {
	listingRepo domain.ListingRepository
	ai          domain.InferenceGateway
	logger      *slog.Logger
}

func NewDefaultPricingUsecase(listingRepo domain.ListingRepository, ai domain.InferenceGateway, logger *slog.Logger) *DefaultPricingUsecase {
	return &DefaultPricingUsecase{listingRepo: listingRepo, ai: ai, logger: logger}
}

// EvaluatePrice compares an asking price with the median of comparable
// listings of the same card. Within 15% of the median is fair.
func (uc *DefaultPricingUsecase) EvaluatePrice(ctx context.Context, input *EvaluatePriceInput) (*domain.PriceEvaluation, error) {
	eval := &domain.PriceEvaluation{
		CardName:   strings.TrimSpace(input.CardName),
		SetName:    strings.TrimSpace(input.SetName),
		Condition:  domain.CardCondition(input.Condition),
		AskedPrice: input.AskedPrice.Round(2),
	}

	excludeID := ""
	if input.ListingID != "" {
		listing, err := uc.listingRepo.GetListingByID(ctx, input.ListingID)
		if err != nil {
			return nil, err
		}
		excludeID = listing.ID
		eval.CardName = listing.CardName
		eval.SetName = listing.SetName
		eval.Condition = listing.Condition
		if eval.AskedPrice.IsZero() {
			eval.AskedPrice = listing.Price
		}
	}
	if eval.CardName == "" {
		return nil, fmt.Errorf("%w: card_name or listing_id is required", domain.ErrInvalidInput)
	}
	if eval.AskedPrice.IsNegative() {
		return nil, fmt.Errorf("%w: price must not be negative", domain.ErrInvalidInput)
	}

	comparables, err := uc.listingRepo.FindComparables(ctx, eval.CardName, eval.SetName, eval.Condition, comparablesLimit)
	if err != nil {
		return nil, fmt.Errorf("failed to load comparables: %w", err)
	}
	prices := make([]decimal.Decimal, 0, len(comparables))
	for _, c := range comparables {
		if c.ID == excludeID || !c.Price.IsPositive() {
			continue
		}
		prices = append(prices, c.Price)
	}

	eval.Comparables = len(prices)
	if len(prices) == 0 {
		eval.Verdict = domain.VerdictUnknown
		return eval, nil
	}

	eval.Median, eval.Low, eval.High = priceStats(prices)
	eval.Verdict = verdictFor(eval.AskedPrice, eval.Median)

	if uc.ai != nil && uc.ai.Enabled() {
		commentary, err := uc.ai.PriceCommentary(ctx, eval)
		if err != nil {
			uc.logger.Warn("price commentary failed", "card", eval.CardName, "error", err)
		} else {
			eval.Commentary = commentary
		}
	}
	return eval, nil
}

// priceStats returns median, min and max; prices must be non-empty.
func priceStats(prices []decimal.Decimal) (median, low, high decimal.Decimal) {
	sorted := append([]decimal.Decimal(nil), prices...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].LessThan(sorted[j]) })

	n := len(sorted)
	if n%2 == 1 {
		median = sorted[n/2]
	} else {
		median = sorted[n/2-1].Add(sorted[n/2]).Div(decimalTwo)
	}
	return median.Round(2), sorted[0], sorted[n-1]
}

func verdictFor(asked, median decimal.Decimal) domain.PriceVerdict {
	if !median.IsPositive() {
		return domain.VerdictUnknown
	}
	one := decimal.NewFromInt(1)
	switch {
	case asked.LessThan(median.Mul(one.Sub(fairBand))):
		return domain.VerdictUnder
	case asked.GreaterThan(median.Mul(one.Add(fairBand))):
		return domain.VerdictOver
	default:
		return domain.VerdictFair
	}
}
