package domain

import (
	"context"
	"time"
)

// ============= Risk tiers =============

// RiskAggregates are a seller's order statistics over the risk window (30 days).
type RiskAggregates struct {
	SellerID             string
	TotalOrders          int64
	SellerCancellations  int64
	AvgShippingDelayDays float64
	DisputesOpened       int64
	AvgRating            float64
	RatingCount          int64
}

type RiskAssessment struct {
	SellerID         string         `json:"seller_id"`
	Score            int            `json:"score"`
	Tier             RiskTier       `json:"tier"`
	CancellationRate float64        `json:"cancellation_rate"`
	DisputeRatio     float64        `json:"dispute_ratio"`
	Components       map[string]int `json:"components"`
	CalculatedAt     time.Time      `json:"calculated_at"`
}

// ============= Reputation =============

type VerificationLevel string

const (
	VerificationUnverified VerificationLevel = "unverified"
	VerificationVerified   VerificationLevel = "verified"
	VerificationTrusted    VerificationLevel = "trusted"
	VerificationElite      VerificationLevel = "elite"
)

var verificationRank = map[VerificationLevel]int{
	VerificationUnverified: 0,
	VerificationVerified:   1,
	VerificationTrusted:    2,
	VerificationElite:      3,
}

// AtLeast reports whether l is the same as or above other.
func (l VerificationLevel) AtLeast(other VerificationLevel) bool {
	return verificationRank[l] >= verificationRank[other]
}

// ReputationAggregates are lifetime seller statistics.
type ReputationAggregates struct {
	SellerID           string
	CompletedOrders    int64
	AvgRating          float64
	RatingCount        int64
	AvgResponseHours   *float64 // nil: нет истории ответов
	DisputesTotal      int64
	DisputesLost       int64
	RecentDisputesLost int64
	AccountAgeDays     float64
}

type Reputation struct {
	SellerID     string            `json:"seller_id"`
	Score        int               `json:"score"`
	Level        VerificationLevel `json:"verification_level"`
	CalculatedAt time.Time         `json:"calculated_at"`
}

// ============= Badges =============

type BadgeType string

const (
	BadgeTopRated       BadgeType = "top_rated"
	BadgeFastShipper    BadgeType = "fast_shipper"
	BadgePowerSeller    BadgeType = "power_seller"
	BadgeTrustedTrader  BadgeType = "trusted_trader"
	BadgeQuickResponder BadgeType = "quick_responder"
	BadgeVeteran        BadgeType = "veteran"
)

type BadgeInput struct {
	SellerID         string
	AvgRating        float64
	RatingCount      int64
	AvgShipDays      float64
	ShippedOrders    int64
	CompletedOrders  int64
	AvgResponseHours *float64
	AccountAgeDays   float64
	Level            VerificationLevel
	RiskTier         RiskTier
}

type SellerBadge struct {
	SellerID  string    `json:"seller_id"`
	Badge     BadgeType `json:"badge"`
	AwardedAt time.Time `json:"awarded_at"`
}

// ============= Storage ports =============

// SellerStatsRepository reads aggregates derived from orders, disputes and ratings.
type SellerStatsRepository interface {
	RiskAggregates(ctx context.Context, sellerID string, since time.Time) (*RiskAggregates, error)
	ReputationAggregates(ctx context.Context, sellerID string, recentSince time.Time) (*ReputationAggregates, error)
	ShippingStats(ctx context.Context, sellerID string) (avgShipDays float64, shipped int64, err error)
	ActiveSellerIDs(ctx context.Context, since time.Time) ([]string, error)
}

type ScoringRepository interface {
	UpsertRiskAssessment(ctx context.Context, a *RiskAssessment) error
	GetRiskAssessment(ctx context.Context, sellerID string) (*RiskAssessment, error)
	UpsertReputation(ctx context.Context, r *Reputation) error
	GetReputation(ctx context.Context, sellerID string) (*Reputation, error)
	ReplaceBadges(ctx context.Context, sellerID string, badges []SellerBadge) error
	GetBadges(ctx context.Context, sellerID string) ([]SellerBadge, error)
}
