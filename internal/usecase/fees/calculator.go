package fees

import (
	"fmt"

	"github.com/LavaJover/shvark-market-service/internal/domain"
	"github.com/shopspring/decimal"
)

type Calculator struct {
	schedule Schedule
}

func NewCalculator(schedule Schedule) *Calculator {
	return &Calculator{schedule: schedule}
}

var defaultCalculator = NewCalculator(DefaultSchedule())

// Calculate prices in with the default schedule.
func Calculate(in domain.FeeInput) (domain.FeeBreakdown, error) {
	return defaultCalculator.Calculate(in)
}

func (c *Calculator) Schedule() Schedule {
	return c.schedule
}

func (c *Calculator) Calculate(in domain.FeeInput) (domain.FeeBreakdown, error) {
	if err := validate(in); err != nil {
		return domain.FeeBreakdown{}, err
	}

	price := in.ItemPrice
	protection := c.BuyerProtectionFee(in.BuyerTier, price, in.BuyerMonthlyGMV)

	rate := c.schedule.Commission[in.SellerTier][in.SellerRiskTier]
	commission := price.Mul(rate).Round(2)

	instant := decimal.Zero
	if in.InstantPayout {
		// минимальная комиссия не может увести выплату в минус
		net := price.Sub(commission)
		instant = decimal.Min(c.InstantPayoutFee(in.SellerTier, net), net)
	}

	margin := c.ShippingMargin(in.ShippingLabelCost)
	label := in.ShippingLabelCost.Round(2)

	return domain.FeeBreakdown{
		ItemPrice:            price.Round(2),
		BuyerProtectionFee:   protection,
		SellerCommissionRate: rate,
		SellerCommission:     commission,
		InstantPayoutFee:     instant,
		ShippingLabelCost:    label,
		ShippingMargin:       margin,
		BuyerTotal:           price.Add(protection).Add(label).Add(margin).Round(2),
		SellerNet:            price.Sub(commission).Sub(instant).Round(2),
		PlatformRevenue:      protection.Add(commission).Add(instant).Add(margin),
	}, nil
}

// BuyerProtectionFee is charged to the buyer on top of the item price.
func (c *Calculator) BuyerProtectionFee(tier domain.MembershipTier, price, monthlyGMV decimal.Decimal) decimal.Decimal {
	s := c.schedule
	switch tier {
	case domain.MembershipPro:
		if monthlyGMV.LessThan(s.ProGMVCap) {
			return decimal.Zero
		}
		return s.ProProtectionFixed.Add(price.Mul(s.ProProtectionRate)).Round(2)
	default:
		return s.FreeProtectionFixed.Add(price.Mul(s.FreeProtectionRate)).Round(2)
	}
}

// InstantPayoutFee is deducted from a seller payout that skips the standard delay.
func (c *Calculator) InstantPayoutFee(tier domain.MembershipTier, amount decimal.Decimal) decimal.Decimal {
	if !amount.IsPositive() {
		return decimal.Zero
	}
	fee := amount.Mul(c.schedule.InstantPayoutRate[tier]).Round(2)
	return decimal.Max(fee, c.schedule.InstantPayoutMin[tier])
}

// ShippingMargin is the platform markup on a purchased label.
func (c *Calculator) ShippingMargin(labelCost decimal.Decimal) decimal.Decimal {
	if !labelCost.IsPositive() {
		return decimal.Zero
	}
	margin := labelCost.Mul(c.schedule.ShippingMarginRate).Round(2)
	return decimal.Max(margin, c.schedule.ShippingMarginMin)
}

func validate(in domain.FeeInput) error {
	if in.ItemPrice.IsNegative() {
		return fmt.Errorf("%w: item price must not be negative", domain.ErrInvalidInput)
	}
	if in.ShippingLabelCost.IsNegative() {
		return fmt.Errorf("%w: shipping label cost must not be negative", domain.ErrInvalidInput)
	}
	if in.BuyerMonthlyGMV.IsNegative() {
		return fmt.Errorf("%w: monthly gmv must not be negative", domain.ErrInvalidInput)
	}
	if !in.BuyerTier.Valid() {
		return fmt.Errorf("%w: unknown buyer tier %q", domain.ErrInvalidInput, in.BuyerTier)
	}
	if !in.SellerTier.Valid() {
		return fmt.Errorf("%w: unknown seller tier %q", domain.ErrInvalidInput, in.SellerTier)
	}
	if !in.SellerRiskTier.Valid() {
		return fmt.Errorf("%w: unknown risk tier %q", domain.ErrInvalidInput, in.SellerRiskTier)
	}
	return nil
}
