package models

import (
	"time"

	"github.com/shopspring/decimal"
)

type ListingModel struct {
	ID             string `gorm:"primaryKey;type:uuid"`
	SellerID       string `gorm:"type:uuid;index:idx_listings_seller"`
	CardName       string `gorm:"not null;index:idx_listings_card"`
	SetName        string `gorm:"index:idx_listings_card"`
	CardNumber     string
	Condition      string `gorm:"index"`
	Language       string
	Graded         bool
	GradingCompany string
	Grade          float64
	Price          decimal.Decimal `gorm:"type:numeric(12,2);index:idx_listings_price"`
	Currency       string
	Quantity       int
	ImageURLs      []string `gorm:"type:jsonb;serializer:json"`
	Category       string
	Tags           []string  `gorm:"type:jsonb;serializer:json"`
	Status         string    `gorm:"index:idx_listings_status"`
	CreatedAt      time.Time `gorm:"index"`
	UpdatedAt      time.Time
}

func (ListingModel) TableName() string { return "listings" }

type BundleModel struct {
	ID              string `gorm:"primaryKey;type:uuid"`
	SellerID        string `gorm:"type:uuid;index"`
	Title           string
	ListingIDs      []string        `gorm:"type:jsonb;serializer:json"`
	DiscountPercent decimal.Decimal `gorm:"type:numeric(5,2)"`
	Status          string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (BundleModel) TableName() string { return "bundles" }
