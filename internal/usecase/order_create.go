package usecase

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/LavaJover/shvark-market-service/internal/domain"
	"github.com/LavaJover/shvark-market-service/internal/infrastructure/logger"
	orderdto "github.com/LavaJover/shvark-market-service/internal/usecase/dto/order"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderDraft is a priced purchase that has not been persisted yet.
type OrderDraft struct {
	BuyerID  string
	SellerID string
	BundleID string
	Listings []*domain.Listing
	Items    []domain.OrderItem
	Currency string
	Fees     domain.FeeBreakdown
}

// PriceOrder resolves the listings being bought and prices them for buyer.
func (uc *DefaultOrderUsecase) PriceOrder(ctx context.Context, buyerID string, listingIDs []string, bundleID string, to domain.Address) (*OrderDraft, error) {
	draft := &OrderDraft{BuyerID: buyerID, BundleID: bundleID}

	var itemPrice decimal.Decimal
	if bundleID != "" {
		bundle, err := uc.BundleRepo.GetBundleByID(ctx, bundleID)
		if err != nil {
			return nil, err
		}
		if bundle.Status != domain.BundleActive {
			return nil, fmt.Errorf("%w: bundle is %s", domain.ErrListingUnavailable, bundle.Status)
		}
		listingIDs = bundle.ListingIDs
		listings, err := uc.activeListings(ctx, listingIDs)
		if err != nil {
			return nil, err
		}
		draft.Listings = listings
		itemPrice = domain.BundlePrice(listings, bundle.DiscountPercent)
	} else {
		listings, err := uc.activeListings(ctx, uniqueIDs(listingIDs))
		if err != nil {
			return nil, err
		}
		draft.Listings = listings
		itemPrice = listingsTotal(listings)
	}

	draft.SellerID = draft.Listings[0].SellerID
	draft.Currency = draft.Listings[0].Currency
	for _, l := range draft.Listings {
		if l.SellerID != draft.SellerID {
			return nil, fmt.Errorf("%w: all items must come from one seller", domain.ErrInvalidInput)
		}
		if l.Currency != draft.Currency {
			return nil, fmt.Errorf("%w: items use different currencies", domain.ErrInvalidInput)
		}
		draft.Items = append(draft.Items, domain.OrderItem{ListingID: l.ID, Title: l.Title(), Price: l.Price})
	}
	if draft.SellerID == buyerID {
		return nil, fmt.Errorf("%w: sellers cannot buy their own listings", domain.ErrForbidden)
	}

	buyer, err := uc.ProfileRepo.GetProfileByID(ctx, buyerID)
	if err != nil {
		return nil, fmt.Errorf("buyer profile: %w", err)
	}
	seller, err := uc.ProfileRepo.GetProfileByID(ctx, draft.SellerID)
	if err != nil {
		return nil, fmt.Errorf("seller profile: %w", err)
	}
	if seller.ShipFrom == nil {
		return nil, fmt.Errorf("%w: seller has no ship-from address", domain.ErrInvalidInput)
	}

	riskTier, err := uc.RiskTiers.GetRiskTier(ctx, draft.SellerID)
	if err != nil {
		return nil, err
	}
	gmv, err := uc.OrderRepo.BuyerMonthlyGMV(ctx, buyerID, monthStart(uc.now()))
	if err != nil {
		return nil, err
	}
	labelCost, err := uc.Shipping.QuoteLabel(ctx, domain.ParcelRequest{
		From:     *seller.ShipFrom,
		To:       to,
		Value:    itemPrice,
		Currency: draft.Currency,
	})
	if err != nil {
		return nil, err
	}

	breakdown, err := uc.Calculator.Calculate(domain.FeeInput{
		BuyerTier:         buyer.MembershipTier,
		SellerTier:        seller.MembershipTier,
		ItemPrice:         itemPrice,
		SellerRiskTier:    riskTier,
		BuyerMonthlyGMV:   gmv,
		ShippingLabelCost: labelCost,
	})
	if err != nil {
		return nil, err
	}
	draft.Fees = breakdown
	return draft, nil
}

func (uc *DefaultOrderUsecase) activeListings(ctx context.Context, ids []string) ([]*domain.Listing, error) {
	if len(ids) == 0 {
		return nil, fmt.Errorf("%w: no listings given", domain.ErrInvalidInput)
	}
	listings, err := uc.ListingRepo.GetListingsByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	if len(listings) != len(ids) {
		return nil, domain.ErrNotFound
	}
	for _, l := range listings {
		if l.Status != domain.ListingActive {
			return nil, fmt.Errorf("%w: %s", domain.ErrListingUnavailable, l.ID)
		}
	}
	return listings, nil
}

// CreateOrder reserves the listings, stores the order and opens a payment
// intent for the buyer total. Any failure after the reservation releases it.
func (uc *DefaultOrderUsecase) CreateOrder(ctx context.Context, input *orderdto.CreateOrderInput) (order *domain.Order, err error) {
	defer func() { uc.logPurchaseAttempt(ctx, input, order, err) }()

	if err := uc.checkBuyerFlags(ctx, input.BuyerID); err != nil {
		return nil, err
	}

	draft, err := uc.PriceOrder(ctx, input.BuyerID, input.ListingIDs, input.BundleID, input.ShippingAddress)
	if err != nil {
		return nil, err
	}

	channel := input.Channel
	if channel == "" {
		channel = domain.ChannelWeb
	}
	now := uc.now()
	order = &domain.Order{
		ID:              uuid.New().String(),
		BuyerID:         draft.BuyerID,
		SellerID:        draft.SellerID,
		BundleID:        draft.BundleID,
		Items:           draft.Items,
		Channel:         channel,
		Currency:        draft.Currency,
		Fees:            draft.Fees,
		Status:          domain.StatusPendingPayment,
		ShippingAddress: input.ShippingAddress,
		CallbackURL:     input.CallbackURL,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	listingIDs := order.ListingIDs()
	if err := uc.ListingRepo.TransitionListings(ctx, listingIDs, []domain.ListingStatus{domain.ListingActive}, domain.ListingReserved); err != nil {
		return nil, err
	}

	if err := uc.OrderRepo.CreateOrder(ctx, order); err != nil {
		uc.releaseListings(ctx, listingIDs, domain.ListingReserved)
		return nil, fmt.Errorf("failed to create order: %w", err)
	}

	intent, err := uc.Payments.CreatePaymentIntent(ctx, order.ID, order.Fees.BuyerTotal, order.Currency)
	if err == nil {
		err = uc.OrderRepo.SetPaymentIntent(ctx, order.ID, intent.ID, intent.ClientSecret)
	}
	if err != nil {
		uc.Logger.Error("payment intent failed, cancelling order", "order_id", order.ID, "error", err)
		if cerr := uc.OrderRepo.CancelOrder(ctx, order.ID, domain.StatusPendingPayment, "system"); cerr != nil {
			uc.Logger.Error("failed to cancel order after payment failure", "order_id", order.ID, "error", cerr)
		}
		uc.releaseListings(ctx, listingIDs, domain.ListingReserved)
		if errors.Is(err, domain.ErrPaymentFailed) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %v", domain.ErrPaymentFailed, err)
	}
	order.PaymentIntentID = intent.ID
	order.ClientSecret = intent.ClientSecret

	uc.Metrics.RecordOrderCreated(string(order.Channel), order.Currency)
	uc.announce(ctx, domain.EventOrderCreated, order)
	uc.Logger.Info("order created",
		"order_id", order.ID,
		"buyer_id", order.BuyerID,
		"seller_id", order.SellerID,
		"buyer_total", order.Fees.BuyerTotal,
		"channel", order.Channel)
	return order, nil
}

// checkBuyerFlags blocks buyers with an open high severity fraud flag.
func (uc *DefaultOrderUsecase) checkBuyerFlags(ctx context.Context, buyerID string) error {
	if uc.FlagRepo == nil {
		return nil
	}
	open := domain.FraudFlagOpen
	flags, _, err := uc.FlagRepo.FindFlags(ctx, domain.FraudFlagFilter{UserID: &buyerID, Status: &open, Page: 1, Limit: 50})
	if err != nil {
		return err
	}
	for _, f := range flags {
		if f.Severity == domain.SeverityHigh {
			return fmt.Errorf("%w: account is under fraud review", domain.ErrForbidden)
		}
	}
	return nil
}

// releaseListings puts listings back on sale; errors are logged only.
func (uc *DefaultOrderUsecase) releaseListings(ctx context.Context, ids []string, from domain.ListingStatus) {
	if err := uc.ListingRepo.TransitionListings(ctx, ids, []domain.ListingStatus{from}, domain.ListingActive); err != nil {
		uc.Logger.Error("failed to release listings", "listing_ids", ids, "error", err)
	}
}

func (uc *DefaultOrderUsecase) logPurchaseAttempt(ctx context.Context, input *orderdto.CreateOrderInput, order *domain.Order, err error) {
	if uc.PurchaseLog == nil {
		return
	}
	event := logger.PurchaseAttemptEvent{
		RequestID:  input.CheckoutSessionID,
		Channel:    string(input.Channel),
		BuyerID:    input.BuyerID,
		ListingIDs: strings.Join(input.ListingIDs, ","),
		Success:    err == nil,
		Timestamp:  uc.now(),
	}
	if p, ok := domain.PrincipalFrom(ctx); ok {
		event.APIKeyID = p.KeyID
	}
	if input.BundleID != "" {
		event.ListingIDs = "bundle:" + input.BundleID
	}
	if order != nil {
		event.OrderID = order.ID
		event.Amount = order.Fees.BuyerTotal.InexactFloat64()
		event.Currency = order.Currency
	}
	if err != nil {
		event.Reason = err.Error()
	}
	if lerr := uc.PurchaseLog.LogPurchaseAttempt(ctx, event); lerr != nil {
		uc.Logger.Warn("failed to log purchase attempt", "error", lerr)
	}
}

func monthStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, t.Location())
}
