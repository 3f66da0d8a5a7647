package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

type PriceVerdict string

const (
	VerdictUnder   PriceVerdict = "under"
	VerdictFair    PriceVerdict = "fair"
	VerdictOver    PriceVerdict = "over"
	VerdictUnknown PriceVerdict = "unknown"
)

type PriceEvaluation struct {
	CardName    string          `json:"card_name"`
	SetName     string          `json:"set_name,omitempty"`
	Condition   CardCondition   `json:"condition,omitempty"`
	AskedPrice  decimal.Decimal `json:"asked_price"`
	Median      decimal.Decimal `json:"median"`
	Low         decimal.Decimal `json:"low"`
	High        decimal.Decimal `json:"high"`
	Comparables int             `json:"comparables"`
	Verdict     PriceVerdict    `json:"verdict"`
	Commentary  string          `json:"commentary,omitempty"`
}

type ListingClassification struct {
	Category string   `json:"category"`
	Tags     []string `json:"tags"`
}

// InferenceGateway is the external AI service used for ranking and classification text.
type InferenceGateway interface {
	Enabled() bool
	ClassifyListing(ctx context.Context, listing *Listing) (*ListingClassification, error)
	PriceCommentary(ctx context.Context, eval *PriceEvaluation) (string, error)
}
