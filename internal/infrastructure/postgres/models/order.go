package models

import (
	"time"

	"github.com/LavaJover/shvark-market-service/internal/domain"
	"github.com/shopspring/decimal"
)

type OrderModel struct {
	ID                   string `gorm:"primaryKey;type:uuid"`
	BuyerID              string `gorm:"type:uuid;index:idx_orders_buyer"`
	SellerID             string `gorm:"type:uuid;index:idx_orders_seller"`
	BundleID             string
	Items                []domain.OrderItem `gorm:"type:jsonb;serializer:json"`
	Channel              string
	Currency             string
	ItemPrice            decimal.Decimal `gorm:"type:numeric(12,2)"`
	BuyerProtectionFee   decimal.Decimal `gorm:"type:numeric(12,2)"`
	SellerCommissionRate decimal.Decimal `gorm:"type:numeric(6,4)"`
	SellerCommission     decimal.Decimal `gorm:"type:numeric(12,2)"`
	InstantPayoutFee     decimal.Decimal `gorm:"type:numeric(12,2)"`
	ShippingLabelCost    decimal.Decimal `gorm:"type:numeric(12,2)"`
	ShippingMargin       decimal.Decimal `gorm:"type:numeric(12,2)"`
	BuyerTotal           decimal.Decimal `gorm:"type:numeric(12,2)"`
	SellerNet            decimal.Decimal `gorm:"type:numeric(12,2)"`
	PlatformRevenue      decimal.Decimal `gorm:"type:numeric(12,2)"`
	Status               string          `gorm:"index:idx_orders_status"`
	CancelledBy          string
	PaymentIntentID      string `gorm:"index"`
	ClientSecret         string
	ShippingAddress      domain.Address `gorm:"type:jsonb;serializer:json"`
	Carrier              string
	TrackingNumber       string
	TrackingURL          string
	LabelURL             string
	CallbackURL          string
	PaidAt               *time.Time
	ShippedAt            *time.Time
	DeliveredAt          *time.Time
	CompletedAt          *time.Time
	CreatedAt            time.Time `gorm:"index:idx_orders_created_at"`
	UpdatedAt            time.Time
}

func (OrderModel) TableName() string { return "orders" }

type PayoutModel struct {
	ID            string          `gorm:"primaryKey;type:uuid"`
	SellerID      string          `gorm:"type:uuid;index"`
	Amount        decimal.Decimal `gorm:"type:numeric(12,2)"`
	Fee           decimal.Decimal `gorm:"type:numeric(12,2)"`
	NetAmount     decimal.Decimal `gorm:"type:numeric(12,2)"`
	Currency      string
	Method        string
	Status        string `gorm:"index"`
	TransferID    string
	FailureReason string
	CreatedAt     time.Time
	UpdatedAt     time.Time
	CompletedAt   *time.Time
}

func (PayoutModel) TableName() string { return "payouts" }

type CheckoutSessionModel struct {
	ID              string   `gorm:"primaryKey"`
	BuyerID         string   `gorm:"type:uuid;index"`
	SellerID        string   `gorm:"type:uuid"`
	ListingIDs      []string `gorm:"type:jsonb;serializer:json"`
	BundleID        string
	Fees            domain.FeeBreakdown `gorm:"type:jsonb;serializer:json"`
	Currency        string
	Status          string
	OrderID         string
	ShippingAddress domain.Address `gorm:"type:jsonb;serializer:json"`
	CallbackURL     string
	ExpiresAt       time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (CheckoutSessionModel) TableName() string { return "checkout_sessions" }
