package scoring

import (
	"math"
	"time"

	"github.com/LavaJover/shvark-market-service/internal/domain"
)

// RiskWindow is the lookback used for risk aggregates.
const RiskWindow = 30 * 24 * time.Hour

const (
	tierBThreshold = 25
	tierCThreshold = 50
)

type step struct {
	above  float64
	points int
}

// Steps are ordered from the highest threshold down; the first match wins.
var (
	cancellationSteps  = []step{{0.10, 30}, {0.05, 20}, {0.02, 10}}
	shippingDelaySteps = []step{{5, 25}, {3, 15}, {1, 5}}
	disputeSteps       = []step{{0.05, 30}, {0.02, 20}, {0.01, 10}}
)

func points(value float64, steps []step) int {
	for _, s := range steps {
		if value > s.above {
			return s.points
		}
	}
	return 0
}

// TierForScore maps an additive risk score to a tier: 0-24 A, 25-49 B, 50+ C.
func TierForScore(score int) domain.RiskTier {
	switch {
	case score >= tierCThreshold:
		return domain.RiskTierC
	case score >= tierBThreshold:
		return domain.RiskTierB
	default:
		return domain.RiskTierA
	}
}

// CalculateRisk scores a seller from their 30 day aggregates.
func CalculateRisk(agg domain.RiskAggregates, now time.Time) domain.RiskAssessment {
	total := nonNegative(agg.TotalOrders)
	cancellationRate := ratio(nonNegative(agg.SellerCancellations), total)
	disputeRatio := ratio(nonNegative(agg.DisputesOpened), total)
	delay := finite(agg.AvgShippingDelayDays)

	components := map[string]int{
		"cancellation_rate": points(cancellationRate, cancellationSteps),
		"shipping_delay":    points(delay, shippingDelaySteps),
		"dispute_ratio":     points(disputeRatio, disputeSteps),
		"low_rating":        lowRatingPoints(finite(agg.AvgRating), agg.RatingCount),
		"new_seller":        0,
	}
	if total < 5 {
		components["new_seller"] = 10
	}

	score := 0
	for _, p := range components {
		score += p
	}

	return domain.RiskAssessment{
		SellerID:         agg.SellerID,
		Score:            score,
		Tier:             TierForScore(score),
		CancellationRate: cancellationRate,
		DisputeRatio:     disputeRatio,
		Components:       components,
		CalculatedAt:     now,
	}
}

func lowRatingPoints(avg float64, count int64) int {
	if count < 5 {
		return 0
	}
	switch {
	case avg < 3.5:
		return 15
	case avg < 4.2:
		return 5
	default:
		return 0
	}
}

func ratio(part, total int64) float64 {
	if total <= 0 {
		return 0
	}
	return float64(part) / float64(total)
}

func nonNegative(v int64) int64 {
	if v < 0 {
		return 0
	}
	return v
}

// responseHours reports the average response time when the seller has a usable one.
func responseHours(h *float64) (float64, bool) {
	if h == nil || math.IsNaN(*h) || math.IsInf(*h, 0) || *h < 0 {
		return 0, false
	}
	return *h, true
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}
