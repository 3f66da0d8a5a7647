package domain

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type ListingStatus string

const (
	ListingDraft     ListingStatus = "draft"
	ListingActive    ListingStatus = "active"
	ListingReserved  ListingStatus = "reserved"
	ListingSold      ListingStatus = "sold"
	ListingWithdrawn ListingStatus = "withdrawn"
)

type CardCondition string

const (
	ConditionMint        CardCondition = "mint"
	ConditionNearMint    CardCondition = "near_mint"
	ConditionExcellent   CardCondition = "excellent"
	ConditionGood        CardCondition = "good"
	ConditionLightPlayed CardCondition = "light_played"
	ConditionPlayed      CardCondition = "played"
	ConditionPoor        CardCondition = "poor"
)

type Listing struct {
	ID             string          `json:"id"`
	SellerID       string          `json:"seller_id"`
	CardName       string          `json:"card_name"`
	SetName        string          `json:"set_name"`
	CardNumber     string          `json:"card_number"`
	Condition      CardCondition   `json:"condition"`
	Language       string          `json:"language"`
	Graded         bool            `json:"graded"`
	GradingCompany string          `json:"grading_company"`
	Grade          float64         `json:"grade"`
	Price          decimal.Decimal `json:"price"`
	Currency       string          `json:"currency"`
	Quantity       int             `json:"quantity"`
	ImageURLs      []string        `json:"image_urls"`
	Category       string          `json:"category,omitempty"`
	Tags           []string        `json:"tags,omitempty"`
	Status         ListingStatus   `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// Title is the human readable line shown in search results.
func (l *Listing) Title() string {
	parts := []string{l.CardName}
	if l.SetName != "" {
		parts = append(parts, l.SetName)
	}
	if l.CardNumber != "" {
		parts = append(parts, "#"+l.CardNumber)
	}
	if l.Graded && l.GradingCompany != "" {
		parts = append(parts, l.GradingCompany)
	}
	return strings.Join(parts, " ")
}

type ListingFilter struct {
	Query     string
	SellerID  *string
	SetName   *string
	Condition *CardCondition
	MinPrice  *decimal.Decimal
	MaxPrice  *decimal.Decimal
	Status    *ListingStatus
	Page      int
	Limit     int
}

type ListingRepository interface {
	CreateListing(ctx context.Context, listing *Listing) error
	UpdateListing(ctx context.Context, listing *Listing) error
	GetListingByID(ctx context.Context, listingID string) (*Listing, error)
	GetListingsByIDs(ctx context.Context, listingIDs []string) ([]*Listing, error)
	FindListings(ctx context.Context, filter ListingFilter) ([]*Listing, int64, error)
	// TransitionListings moves every listing in ids from one of the from
	// statuses to to. It returns ErrListingUnavailable unless all rows moved.
	TransitionListings(ctx context.Context, listingIDs []string, from []ListingStatus, to ListingStatus) error
	FindComparables(ctx context.Context, cardName, setName string, condition CardCondition, limit int) ([]*Listing, error)
}
