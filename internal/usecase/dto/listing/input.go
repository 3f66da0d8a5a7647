package listingdto

import "github.com/shopspring/decimal"

type CreateListingInput struct {
	SellerID       string          `json:"-" validate:"required"`
	CardName       string          `json:"card_name" validate:"required,max=200"`
	SetName        string          `json:"set_name" validate:"max=200"`
	CardNumber     string          `json:"card_number" validate:"max=32"`
	Condition      string          `json:"condition" validate:"required,oneof=mint near_mint excellent good light_played played poor"`
	Language       string          `json:"language" validate:"omitempty,len=2"`
	Graded         bool            `json:"graded"`
	GradingCompany string          `json:"grading_company" validate:"required_if=Graded true,max=16"`
	Grade          float64         `json:"grade" validate:"gte=0,lte=10"`
	Price          decimal.Decimal `json:"price" validate:"gt=0"`
	Currency       string          `json:"currency" validate:"omitempty,len=3"`
	Quantity       int             `json:"quantity" validate:"gte=0,lte=1000"`
	ImageURLs      []string        `json:"image_urls" validate:"max=10,dive,url"`
	Draft          bool            `json:"draft"`
}

// UpdateListingInput carries only the fields being changed.
type UpdateListingInput struct {
	Price     *decimal.Decimal `json:"price" validate:"omitempty,gt=0"`
	Quantity  *int             `json:"quantity" validate:"omitempty,gte=0,lte=1000"`
	Condition *string          `json:"condition" validate:"omitempty,oneof=mint near_mint excellent good light_played played poor"`
	ImageURLs []string         `json:"image_urls" validate:"max=10,dive,url"`
	Publish   bool             `json:"publish"`
}

type SearchListingsInput struct {
	Query     string           `json:"query" validate:"max=200"`
	SetName   string           `json:"set_name"`
	Condition string           `json:"condition" validate:"omitempty,oneof=mint near_mint excellent good light_played played poor"`
	SellerID  string           `json:"seller_id"`
	MinPrice  *decimal.Decimal `json:"min_price"`
	MaxPrice  *decimal.Decimal `json:"max_price"`
	Page      int              `json:"page" validate:"gte=0"`
	Limit     int              `json:"limit" validate:"gte=0,lte=100"`
}

type ListingResult struct {
	ID             string          `json:"id"`
	SellerID       string          `json:"seller_id"`
	Title          string          `json:"title"`
	CardName       string          `json:"card_name"`
	SetName        string          `json:"set_name,omitempty"`
	CardNumber     string          `json:"card_number,omitempty"`
	Condition      string          `json:"condition"`
	Language       string          `json:"language,omitempty"`
	Graded         bool            `json:"graded"`
	GradingCompany string          `json:"grading_company,omitempty"`
	Grade          float64         `json:"grade,omitempty"`
	Price          decimal.Decimal `json:"price"`
	Currency       string          `json:"currency"`
	Quantity       int             `json:"quantity"`
	ImageURLs      []string        `json:"image_urls"`
	Category       string          `json:"category,omitempty"`
	Tags           []string        `json:"tags,omitempty"`
	Status         string          `json:"status"`
	Score          float64         `json:"score,omitempty"`
}

type SearchListingsOutput struct {
	Listings []ListingResult `json:"listings"`
	Total    int64           `json:"total"`
	Page     int             `json:"page"`
	Limit    int             `json:"limit"`
}
