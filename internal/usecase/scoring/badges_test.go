package scoring

import (
	"testing"

	"github.com/LavaJover/shvark-market-service/internal/domain"
	"github.com/stretchr/testify/assert"
)

func TestAwardBadges_All(t *testing.T) {
	got := AwardBadges(domain.BadgeInput{
		AvgRating:        4.95,
		RatingCount:      120,
		AvgShipDays:      1.0,
		ShippedOrders:    140,
		CompletedOrders:  130,
		AvgResponseHours: hoursOf(0.5),
		AccountAgeDays:   900,
		Level:            domain.VerificationElite,
		RiskTier:         domain.RiskTierA,
	})

	assert.Equal(t, []domain.BadgeType{
		domain.BadgeTopRated,
		domain.BadgeFastShipper,
		domain.BadgePowerSeller,
		domain.BadgeTrustedTrader,
		domain.BadgeQuickResponder,
		domain.BadgeVeteran,
	}, got)
}

func TestAwardBadges_None(t *testing.T) {
	got := AwardBadges(domain.BadgeInput{
		AvgRating:       4.9,
		RatingCount:     3,
		AvgShipDays:     1,
		ShippedOrders:   2,
		CompletedOrders: 2,
		Level:           domain.VerificationTrusted,
		RiskTier:        domain.RiskTierB,
	})
	assert.Empty(t, got)
}

func TestAwardBadges_QuickResponder(t *testing.T) {
	assert.Contains(t, AwardBadges(domain.BadgeInput{AvgResponseHours: hoursOf(0)}), domain.BadgeQuickResponder)
	assert.Contains(t, AwardBadges(domain.BadgeInput{AvgResponseHours: hoursOf(2)}), domain.BadgeQuickResponder)
	assert.NotContains(t, AwardBadges(domain.BadgeInput{AvgResponseHours: hoursOf(2.5)}), domain.BadgeQuickResponder)
	assert.NotContains(t, AwardBadges(domain.BadgeInput{}), domain.BadgeQuickResponder)
}
