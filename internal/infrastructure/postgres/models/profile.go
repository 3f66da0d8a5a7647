package models

import (
	"time"

	"github.com/LavaJover/shvark-market-service/internal/domain"
)

type ProfileModel struct {
	ID               string `gorm:"primaryKey;type:uuid"`
	DisplayName      string
	Email            string `gorm:"uniqueIndex"`
	MembershipTier   string
	StripeAccountID  string
	ShipFrom         *domain.Address `gorm:"type:jsonb;serializer:json"`
	AvgResponseHours *float64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

func (ProfileModel) TableName() string { return "profiles" }

type RatingModel struct {
	ID        string `gorm:"primaryKey;type:uuid"`
	OrderID   string `gorm:"type:uuid;uniqueIndex"`
	BuyerID   string `gorm:"type:uuid"`
	SellerID  string `gorm:"type:uuid;index"`
	Score     int
	Comment   string
	CreatedAt time.Time
}

func (RatingModel) TableName() string { return "ratings" }

type APIKeyModel struct {
	ID                 string `gorm:"primaryKey;type:uuid"`
	OwnerID            string `gorm:"type:uuid;index"`
	Name               string
	Prefix             string `gorm:"uniqueIndex"`
	SecretHash         string
	Scopes             []string `gorm:"type:jsonb;serializer:json"`
	RateLimitPerMinute int
	LastUsedAt         *time.Time
	RevokedAt          *time.Time
	CreatedAt          time.Time
}

func (APIKeyModel) TableName() string { return "api_keys" }
