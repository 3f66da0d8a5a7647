package models

import "time"

type SellerRiskTierModel struct {
	SellerID         string `gorm:"primaryKey;type:uuid"`
	Score            int
	Tier             string `gorm:"index"`
	CancellationRate float64
	DisputeRatio     float64
	Components       map[string]int `gorm:"type:jsonb;serializer:json"`
	CalculatedAt     time.Time
}

func (SellerRiskTierModel) TableName() string { return "seller_risk_tiers" }

type SellerReputationModel struct {
	SellerID          string `gorm:"primaryKey;type:uuid"`
	Score             int
	VerificationLevel string
	CalculatedAt      time.Time
}

func (SellerReputationModel) TableName() string { return "seller_reputations" }

type SellerBadgeModel struct {
	SellerID  string `gorm:"primaryKey;type:uuid"`
	Badge     string `gorm:"primaryKey"`
	AwardedAt time.Time
}

func (SellerBadgeModel) TableName() string { return "seller_badges" }
