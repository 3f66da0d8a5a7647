package fees

import (
	"github.com/LavaJover/shvark-market-service/internal/domain"
	"github.com/shopspring/decimal"
)

// Schedule holds the fee tables. Rates are fractions (0.05 == 5%).
type Schedule struct {
	// Buyer protection for free members: fixed + rate*price.
	FreeProtectionFixed decimal.Decimal
	FreeProtectionRate  decimal.Decimal

	// Pro members pay nothing below ProGMVCap of monthly GMV, reduced fee above it.
	ProGMVCap          decimal.Decimal
	ProProtectionFixed decimal.Decimal
	ProProtectionRate  decimal.Decimal

	Commission map[domain.MembershipTier]map[domain.RiskTier]decimal.Decimal

	InstantPayoutRate map[domain.MembershipTier]decimal.Decimal
	InstantPayoutMin  map[domain.MembershipTier]decimal.Decimal

	ShippingMarginRate decimal.Decimal
	ShippingMarginMin  decimal.Decimal
}

func d(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func DefaultSchedule() Schedule {
	return Schedule{
		FreeProtectionFixed: d("0.30"),
		FreeProtectionRate:  d("0.05"),

		ProGMVCap:          d("1000"),
		ProProtectionFixed: d("0.15"),
		ProProtectionRate:  d("0.025"),

		Commission: map[domain.MembershipTier]map[domain.RiskTier]decimal.Decimal{
			domain.MembershipFree: {
				domain.RiskTierA: d("0.05"),
				domain.RiskTierB: d("0.065"),
				domain.RiskTierC: d("0.08"),
			},
			domain.MembershipPro: {
				domain.RiskTierA: d("0.03"),
				domain.RiskTierB: d("0.045"),
				domain.RiskTierC: d("0.06"),
			},
		},

		InstantPayoutRate: map[domain.MembershipTier]decimal.Decimal{
			domain.MembershipFree: d("0.015"),
			domain.MembershipPro:  d("0.01"),
		},
		InstantPayoutMin: map[domain.MembershipTier]decimal.Decimal{
			domain.MembershipFree: d("0.50"),
			domain.MembershipPro:  d("0.25"),
		},

		ShippingMarginRate: d("0.10"),
		ShippingMarginMin:  d("0.25"),
	}
}

// WithProGMVCap returns a copy of s with a different pro protection cap.
func (s Schedule) WithProGMVCap(limit decimal.Decimal) Schedule {
	if limit.IsPositive() {
		s.ProGMVCap = limit
	}
	return s
}
