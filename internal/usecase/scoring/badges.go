package scoring

import "github.com/LavaJover/shvark-market-service/internal/domain"

// AwardBadges returns the badges a seller currently qualifies for.
func AwardBadges(in domain.BadgeInput) []domain.BadgeType {
	var badges []domain.BadgeType

	if in.RatingCount >= 20 && finite(in.AvgRating) >= 4.8 {
		badges = append(badges, domain.BadgeTopRated)
	}
	if in.ShippedOrders >= 10 && in.AvgShipDays >= 0 && in.AvgShipDays <= 1.5 {
		badges = append(badges, domain.BadgeFastShipper)
	}
	if in.CompletedOrders >= 100 {
		badges = append(badges, domain.BadgePowerSeller)
	}
	if in.Level.AtLeast(domain.VerificationTrusted) && in.RiskTier == domain.RiskTierA {
		badges = append(badges, domain.BadgeTrustedTrader)
	}
	if h, ok := responseHours(in.AvgResponseHours); ok && h <= 2 {
		badges = append(badges, domain.BadgeQuickResponder)
	}
	if finite(in.AccountAgeDays) >= 730 {
		badges = append(badges, domain.BadgeVeteran)
	}
	return badges
}
