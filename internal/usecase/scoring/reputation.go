package scoring

import (
	"math"
	"time"

	"github.com/LavaJover/shvark-market-service/internal/domain"
)

const (
	MinReputation  = 0
	MaxReputation  = 1000
	baseReputation = 500
)

// CalculateReputation produces a 0-1000 score and verification level from lifetime aggregates.
func CalculateReputation(agg domain.ReputationAggregates, now time.Time) domain.Reputation {
	score := ReputationScore(agg)
	return domain.Reputation{
		SellerID:     agg.SellerID,
		Score:        score,
		Level:        VerificationFor(score, agg),
		CalculatedAt: now,
	}
}

func ReputationScore(agg domain.ReputationAggregates) int {
	completed := float64(nonNegative(agg.CompletedOrders))

	score := float64(baseReputation)
	score += math.Min(completed, 500) * 0.4

	if agg.RatingCount > 0 {
		avg := clamp(finite(agg.AvgRating), 1, 5)
		score += (avg - 3) * 100
	}

	if hours, ok := responseHours(agg.AvgResponseHours); ok {
		switch {
		case hours <= 2:
			score += 50
		case hours <= 12:
			score += 25
		case hours > 48:
			score -= 50
		}
	}

	lost := float64(nonNegative(agg.DisputesLost))
	if lost > 0 {
		denominator := math.Max(completed, float64(nonNegative(agg.DisputesTotal)))
		lossRate := clamp(lost/math.Max(denominator, 1), 0, 1)
		score -= math.Min(lossRate*1000, 300)
	}

	age := clamp(finite(agg.AccountAgeDays), 0, 365)
	score += age / 365 * 50

	return int(math.Round(clamp(score, MinReputation, MaxReputation)))
}

// VerificationFor derives the four-level verification badge.
func VerificationFor(score int, agg domain.ReputationAggregates) domain.VerificationLevel {
	completed := agg.CompletedOrders
	switch {
	case score >= 850 && completed >= 100 && agg.RecentDisputesLost <= 0:
		return domain.VerificationElite
	case score >= 600 && completed >= 25:
		return domain.VerificationTrusted
	case score >= 300 && completed >= 5:
		return domain.VerificationVerified
	default:
		return domain.VerificationUnverified
	}
}

func clamp(v, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, v))
}
