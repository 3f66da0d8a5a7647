package domain

import "github.com/shopspring/decimal"

type MembershipTier string

const (
	MembershipFree MembershipTier = "free"
	MembershipPro  MembershipTier = "pro"
)

func (t MembershipTier) Valid() bool {
	return t == MembershipFree || t == MembershipPro
}

type RiskTier string

const (
	RiskTierA RiskTier = "A"
	RiskTierB RiskTier = "B"
	RiskTierC RiskTier = "C"
)

func (t RiskTier) Valid() bool {
	return t == RiskTierA || t == RiskTierB || t == RiskTierC
}

// FeeInput describes a single purchase for fee purposes.
type FeeInput struct {
	BuyerTier         MembershipTier
	SellerTier        MembershipTier
	ItemPrice         decimal.Decimal
	SellerRiskTier    RiskTier
	BuyerMonthlyGMV   decimal.Decimal
	ShippingLabelCost decimal.Decimal
	InstantPayout     bool
}

// FeeBreakdown is the priced result of a FeeInput. All amounts are rounded to cents.
type FeeBreakdown struct {
	ItemPrice            decimal.Decimal `json:"item_price"`
	BuyerProtectionFee   decimal.Decimal `json:"buyer_protection_fee"`
	SellerCommissionRate decimal.Decimal `json:"seller_commission_rate"`
	SellerCommission     decimal.Decimal `json:"seller_commission"`
	InstantPayoutFee     decimal.Decimal `json:"instant_payout_fee"`
	ShippingLabelCost    decimal.Decimal `json:"shipping_label_cost"`
	ShippingMargin       decimal.Decimal `json:"shipping_margin"`
	BuyerTotal           decimal.Decimal `json:"buyer_total"`
	SellerNet            decimal.Decimal `json:"seller_net"`
	PlatformRevenue      decimal.Decimal `json:"platform_revenue"`
}
