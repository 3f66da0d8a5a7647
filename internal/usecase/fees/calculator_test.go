package fees

import (
	"errors"
	"testing"

	"github.com/LavaJover/shvark-market-service/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func baseInput(price string) domain.FeeInput {
	return domain.FeeInput{
		BuyerTier:      domain.MembershipFree,
		SellerTier:     domain.MembershipFree,
		ItemPrice:      decimal.RequireFromString(price),
		SellerRiskTier: domain.RiskTierA,
	}
}

func TestCalculate_FreeBuyerProtection(t *testing.T) {
	fixed := decimal.RequireFromString("0.30")
	rate := decimal.RequireFromString("0.05")

	for cents := int64(0); cents <= 500000; cents += 1337 {
		price := decimal.New(cents, -2)
		in := baseInput("0")
		in.ItemPrice = price

		out, err := Calculate(in)
		require.NoError(t, err)

		want := fixed.Add(rate.Mul(price)).Round(2)
		assert.True(t, want.Equal(out.BuyerProtectionFee), "price %s: want %s got %s", price, want, out.BuyerProtectionFee)
	}
}

func TestCalculate_ProBuyerUnderCapPaysNoProtection(t *testing.T) {
	in := baseInput("250.00")
	in.BuyerTier = domain.MembershipPro
	in.BuyerMonthlyGMV = decimal.RequireFromString("999.99")

	out, err := Calculate(in)
	require.NoError(t, err)
	assert.True(t, out.BuyerProtectionFee.IsZero())
	assert.Equal(t, "250.00", out.BuyerTotal.StringFixed(2))
}

func TestCalculate_ProBuyerOverCap(t *testing.T) {
	in := baseInput("100.00")
	in.BuyerTier = domain.MembershipPro
	in.BuyerMonthlyGMV = decimal.RequireFromString("1000")

	out, err := Calculate(in)
	require.NoError(t, err)
	// 0.15 + 0.025*100
	assert.Equal(t, "2.65", out.BuyerProtectionFee.StringFixed(2))
}

func TestCalculate_CommissionByTier(t *testing.T) {
	cases := []struct {
		seller domain.MembershipTier
		risk   domain.RiskTier
		want   string
	}{
		{domain.MembershipFree, domain.RiskTierA, "5.00"},
		{domain.MembershipFree, domain.RiskTierB, "6.50"},
		{domain.MembershipFree, domain.RiskTierC, "8.00"},
		{domain.MembershipPro, domain.RiskTierA, "3.00"},
		{domain.MembershipPro, domain.RiskTierB, "4.50"},
		{domain.MembershipPro, domain.RiskTierC, "6.00"},
	}
	for _, tc := range cases {
		t.Run(string(tc.seller)+"_"+string(tc.risk), func(t *testing.T) {
			in := baseInput("100")
			in.SellerTier = tc.seller
			in.SellerRiskTier = tc.risk

			out, err := Calculate(in)
			require.NoError(t, err)
			assert.Equal(t, tc.want, out.SellerCommission.StringFixed(2))
			assert.True(t, out.SellerNet.Equal(out.ItemPrice.Sub(out.SellerCommission)))
		})
	}
}

func TestCalculate_InstantPayoutAndShipping(t *testing.T) {
	in := baseInput("20.00")
	in.InstantPayout = true
	in.ShippingLabelCost = decimal.RequireFromString("4.20")

	out, err := Calculate(in)
	require.NoError(t, err)

	// commission 1.00, net before instant 19.00, 1.5% = 0.285 -> 0.29 but min 0.50
	assert.Equal(t, "0.50", out.InstantPayoutFee.StringFixed(2))
	assert.Equal(t, "18.50", out.SellerNet.StringFixed(2))
	// 10% of 4.20 = 0.42
	assert.Equal(t, "0.42", out.ShippingMargin.StringFixed(2))
	// 20 + 1.30 + 4.20 + 0.42
	assert.Equal(t, "25.92", out.BuyerTotal.StringFixed(2))
	// 1.30 + 1.00 + 0.50 + 0.42
	assert.Equal(t, "3.22", out.PlatformRevenue.StringFixed(2))
}

func TestCalculate_InstantPayoutMinimumCappedAtNet(t *testing.T) {
	in := baseInput("0.10")
	in.InstantPayout = true

	out, err := Calculate(in)
	require.NoError(t, err)
	// commission 0.01, the 0.50 minimum would exceed the remaining 0.09
	assert.Equal(t, "0.01", out.SellerCommission.StringFixed(2))
	assert.Equal(t, "0.09", out.InstantPayoutFee.StringFixed(2))
	assert.Equal(t, "0.00", out.SellerNet.StringFixed(2))

	for _, price := range []string{"0", "0.01", "0.10", "0.49", "0.53", "5.00", "40.00"} {
		for _, tier := range []domain.MembershipTier{domain.MembershipFree, domain.MembershipPro} {
			in := baseInput(price)
			in.SellerTier = tier
			in.InstantPayout = true

			out, err := Calculate(in)
			require.NoError(t, err)
			assert.False(t, out.SellerNet.IsNegative(), "price %s tier %s: net %s", price, tier, out.SellerNet)
			sellerFees := out.SellerCommission.Add(out.InstantPayoutFee)
			assert.True(t, sellerFees.LessThanOrEqual(out.ItemPrice), "price %s tier %s: fees %s", price, tier, sellerFees)
		}
	}
}

func TestCalculate_ShippingMarginMinimum(t *testing.T) {
	in := baseInput("10")
	in.ShippingLabelCost = decimal.RequireFromString("1.00")

	out, err := Calculate(in)
	require.NoError(t, err)
	assert.Equal(t, "0.25", out.ShippingMargin.StringFixed(2))
}

func TestCalculate_RejectsBadInput(t *testing.T) {
	neg := baseInput("-1")
	_, err := Calculate(neg)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	tier := baseInput("1")
	tier.BuyerTier = "gold"
	_, err = Calculate(tier)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))

	risk := baseInput("1")
	risk.SellerRiskTier = "D"
	_, err = Calculate(risk)
	assert.True(t, errors.Is(err, domain.ErrInvalidInput))
}

func TestScheduleWithProGMVCap(t *testing.T) {
	calc := NewCalculator(DefaultSchedule().WithProGMVCap(decimal.NewFromInt(500)))
	fee := calc.BuyerProtectionFee(domain.MembershipPro, decimal.NewFromInt(100), decimal.NewFromInt(600))
	assert.Equal(t, "2.65", fee.StringFixed(2))

	unchanged := DefaultSchedule().WithProGMVCap(decimal.Zero)
	assert.True(t, unchanged.ProGMVCap.Equal(decimal.NewFromInt(1000)))
}
