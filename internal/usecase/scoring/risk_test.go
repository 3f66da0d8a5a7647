package scoring

import (
	"math"
	"testing"
	"time"

	"github.com/LavaJover/shvark-market-service/internal/domain"
	"github.com/stretchr/testify/assert"
)

var now = time.Date(2026, 10, 1, 12, 0, 0, 0, time.UTC)

func TestTierForScore(t *testing.T) {
	for score := 0; score <= 200; score++ {
		tier := TierForScore(score)
		switch {
		case score <= 24:
			assert.Equal(t, domain.RiskTierA, tier, "score %d", score)
		case score <= 49:
			assert.Equal(t, domain.RiskTierB, tier, "score %d", score)
		default:
			assert.Equal(t, domain.RiskTierC, tier, "score %d", score)
		}
	}
}

func TestCalculateRisk_CleanSellerIsTierA(t *testing.T) {
	a := CalculateRisk(domain.RiskAggregates{
		SellerID:    "s1",
		TotalOrders: 120,
		AvgRating:   4.9,
		RatingCount: 80,
	}, now)

	assert.Equal(t, 0, a.Score)
	assert.Equal(t, domain.RiskTierA, a.Tier)
	assert.Equal(t, now, a.CalculatedAt)
}

func TestCalculateRisk_BadSellerIsTierC(t *testing.T) {
	a := CalculateRisk(domain.RiskAggregates{
		SellerID:             "s2",
		TotalOrders:          50,
		SellerCancellations:  8,
		AvgShippingDelayDays: 4,
		DisputesOpened:       3,
		AvgRating:            3.1,
		RatingCount:          20,
	}, now)

	// 30 + 15 + 30 + 15
	assert.Equal(t, 90, a.Score)
	assert.Equal(t, domain.RiskTierC, a.Tier)
	assert.InDelta(t, 0.16, a.CancellationRate, 1e-9)
	assert.InDelta(t, 0.06, a.DisputeRatio, 1e-9)
}

func TestCalculateRisk_NoOrders(t *testing.T) {
	a := CalculateRisk(domain.RiskAggregates{SellerID: "new"}, now)
	assert.Equal(t, 10, a.Score)
	assert.Equal(t, domain.RiskTierA, a.Tier)
	assert.Zero(t, a.CancellationRate)
	assert.Zero(t, a.DisputeRatio)
}

func TestCalculateRisk_Monotonic(t *testing.T) {
	base := domain.RiskAggregates{TotalOrders: 200, AvgRating: 4.5, RatingCount: 30}

	prev := -1
	for c := int64(0); c <= 200; c++ {
		agg := base
		agg.SellerCancellations = c
		score := CalculateRisk(agg, now).Score
		assert.GreaterOrEqual(t, score, prev, "cancellations %d", c)
		prev = score
	}

	prev = -1
	for delay := 0.0; delay <= 15; delay += 0.25 {
		agg := base
		agg.AvgShippingDelayDays = delay
		score := CalculateRisk(agg, now).Score
		assert.GreaterOrEqual(t, score, prev, "delay %.2f", delay)
		prev = score
	}

	prev = -1
	for disputes := int64(0); disputes <= 200; disputes++ {
		agg := base
		agg.DisputesOpened = disputes
		score := CalculateRisk(agg, now).Score
		assert.GreaterOrEqual(t, score, prev, "disputes %d", disputes)
		prev = score
	}
}

func TestCalculateRisk_GarbageInput(t *testing.T) {
	a := CalculateRisk(domain.RiskAggregates{
		TotalOrders:          -5,
		SellerCancellations:  -1,
		AvgShippingDelayDays: math.NaN(),
		DisputesOpened:       -3,
	}, now)
	assert.Equal(t, 10, a.Score)
	assert.Equal(t, domain.RiskTierA, a.Tier)
}
