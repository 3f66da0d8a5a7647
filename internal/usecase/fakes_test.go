package usecase

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/LavaJover/shvark-market-service/internal/domain"
	"github.com/LavaJover/shvark-market-service/internal/infrastructure/notifier"
	"github.com/shopspring/decimal"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

// ============= Listings =============

type fakeListingRepo struct {
	mu       sync.Mutex
	listings map[string]*domain.Listing
	// textMisses makes FindListings ignore Query matches, like a failed full text search.
	textMisses bool
}

func newFakeListingRepo(listings ...*domain.Listing) *fakeListingRepo {
	r := &fakeListingRepo{listings: map[string]*domain.Listing{}}
	for _, l := range listings {
		r.listings[l.ID] = l
	}
	return r
}

func (r *fakeListingRepo) CreateListing(_ context.Context, l *domain.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.listings[l.ID] = l
	return nil
}

func (r *fakeListingRepo) UpdateListing(_ context.Context, l *domain.Listing) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.listings[l.ID]; !ok {
		return domain.ErrNotFound
	}
	r.listings[l.ID] = l
	return nil
}

func (r *fakeListingRepo) GetListingByID(_ context.Context, id string) (*domain.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	l, ok := r.listings[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *l
	return &cp, nil
}

func (r *fakeListingRepo) GetListingsByIDs(_ context.Context, ids []string) ([]*domain.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Listing
	for _, id := range ids {
		if l, ok := r.listings[id]; ok {
			cp := *l
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeListingRepo) sorted() []*domain.Listing {
	out := make([]*domain.Listing, 0, len(r.listings))
	for _, l := range r.listings {
		out = append(out, l)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (r *fakeListingRepo) FindListings(_ context.Context, f domain.ListingFilter) ([]*domain.Listing, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Listing
	for _, l := range r.sorted() {
		if f.Status != nil && l.Status != *f.Status {
			continue
		}
		if f.SellerID != nil && l.SellerID != *f.SellerID {
			continue
		}
		if f.Query != "" {
			if r.textMisses || !strings.Contains(strings.ToLower(l.Title()), strings.ToLower(f.Query)) {
				continue
			}
		}
		if f.MinPrice != nil && l.Price.LessThan(*f.MinPrice) {
			continue
		}
		if f.MaxPrice != nil && l.Price.GreaterThan(*f.MaxPrice) {
			continue
		}
		cp := *l
		out = append(out, &cp)
	}
	total := int64(len(out))
	if f.Limit > 0 {
		start := (f.Page - 1) * f.Limit
		if start < 0 {
			start = 0
		}
		if start > len(out) {
			start = len(out)
		}
		end := start + f.Limit
		if end > len(out) {
			end = len(out)
		}
		out = out[start:end]
	}
	return out, total, nil
}

func (r *fakeListingRepo) TransitionListings(_ context.Context, ids []string, from []domain.ListingStatus, to domain.ListingStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		l, ok := r.listings[id]
		if !ok {
			return domain.ErrListingUnavailable
		}
		allowed := false
		for _, s := range from {
			if l.Status == s {
				allowed = true
			}
		}
		if !allowed {
			return domain.ErrListingUnavailable
		}
	}
	for _, id := range ids {
		r.listings[id].Status = to
	}
	return nil
}

func (r *fakeListingRepo) FindComparables(_ context.Context, cardName, setName string, condition domain.CardCondition, limit int) ([]*domain.Listing, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Listing
	for _, l := range r.sorted() {
		if !strings.EqualFold(l.CardName, cardName) {
			continue
		}
		if setName != "" && !strings.EqualFold(l.SetName, setName) {
			continue
		}
		if condition != "" && l.Condition != condition {
			continue
		}
		if l.Status != domain.ListingActive && l.Status != domain.ListingSold {
			continue
		}
		out = append(out, l)
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *fakeListingRepo) status(id string) domain.ListingStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.listings[id].Status
}

// ============= Bundles =============

type fakeBundleRepo struct {
	bundles map[string]*domain.Bundle
}

func newFakeBundleRepo() *fakeBundleRepo {
	return &fakeBundleRepo{bundles: map[string]*domain.Bundle{}}
}

func (r *fakeBundleRepo) CreateBundle(_ context.Context, b *domain.Bundle) error {
	r.bundles[b.ID] = b
	return nil
}

func (r *fakeBundleRepo) GetBundleByID(_ context.Context, id string) (*domain.Bundle, error) {
	b, ok := r.bundles[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *b
	return &cp, nil
}

func (r *fakeBundleRepo) UpdateBundleStatus(_ context.Context, id string, status domain.BundleStatus) error {
	b, ok := r.bundles[id]
	if !ok {
		return domain.ErrNotFound
	}
	b.Status = status
	return nil
}

func (r *fakeBundleRepo) GetSellerBundles(_ context.Context, sellerID string) ([]*domain.Bundle, error) {
	var out []*domain.Bundle
	for _, b := range r.bundles {
		if b.SellerID == sellerID {
			out = append(out, b)
		}
	}
	return out, nil
}

// ============= Profiles =============

type fakeProfileRepo struct {
	profiles map[string]*domain.Profile
}

func newFakeProfileRepo(profiles ...*domain.Profile) *fakeProfileRepo {
	r := &fakeProfileRepo{profiles: map[string]*domain.Profile{}}
	for _, p := range profiles {
		r.profiles[p.ID] = p
	}
	return r
}

func (r *fakeProfileRepo) CreateProfile(_ context.Context, p *domain.Profile) error {
	r.profiles[p.ID] = p
	return nil
}

func (r *fakeProfileRepo) GetProfileByID(_ context.Context, id string) (*domain.Profile, error) {
	p, ok := r.profiles[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func (r *fakeProfileRepo) UpdateProfile(_ context.Context, p *domain.Profile) error {
	r.profiles[p.ID] = p
	return nil
}

// ============= Orders =============

type fakeOrderRepo struct {
	mu     sync.Mutex
	orders map[string]*domain.Order
	gmv    decimal.Decimal

	pending, completed decimal.Decimal
}

func newFakeOrderRepo() *fakeOrderRepo {
	return &fakeOrderRepo{orders: map[string]*domain.Order{}}
}

func (r *fakeOrderRepo) CreateOrder(_ context.Context, o *domain.Order) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := *o
	r.orders[o.ID] = &cp
	return nil
}

func (r *fakeOrderRepo) GetOrderByID(_ context.Context, id string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (r *fakeOrderRepo) GetOrderByPaymentIntentID(_ context.Context, pi string) (*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, o := range r.orders {
		if o.PaymentIntentID == pi {
			cp := *o
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeOrderRepo) UpdateOrderStatus(_ context.Context, id string, from, to domain.OrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return domain.ErrNotFound
	}
	if o.Status != from {
		return domain.ErrInvalidTransition
	}
	o.Status = to
	return nil
}

func (r *fakeOrderRepo) CancelOrder(ctx context.Context, id string, from domain.OrderStatus, cancelledBy string) error {
	if err := r.UpdateOrderStatus(ctx, id, from, domain.StatusCancelled); err != nil {
		return err
	}
	r.mu.Lock()
	r.orders[id].CancelledBy = cancelledBy
	r.mu.Unlock()
	return nil
}

func (r *fakeOrderRepo) SetPaymentIntent(_ context.Context, id, pi, secret string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return domain.ErrNotFound
	}
	o.PaymentIntentID = pi
	o.ClientSecret = secret
	return nil
}

func (r *fakeOrderRepo) SetShipment(_ context.Context, id string, s *domain.Shipment) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	o, ok := r.orders[id]
	if !ok {
		return domain.ErrNotFound
	}
	o.Shipment = s
	return nil
}

func (r *fakeOrderRepo) FindOrders(_ context.Context, f domain.OrderFilter) ([]*domain.Order, int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Order
	for _, o := range r.orders {
		if f.BuyerID != nil && o.BuyerID != *f.BuyerID {
			continue
		}
		if f.SellerID != nil && o.SellerID != *f.SellerID {
			continue
		}
		if f.Status != nil && o.Status != *f.Status {
			continue
		}
		out = append(out, o)
	}
	return out, int64(len(out)), nil
}

func (r *fakeOrderRepo) FindStalePendingOrders(_ context.Context, olderThan time.Time) ([]*domain.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []*domain.Order
	for _, o := range r.orders {
		if o.Status == domain.StatusPendingPayment && o.CreatedAt.Before(olderThan) {
			cp := *o
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeOrderRepo) BuyerMonthlyGMV(context.Context, string, time.Time) (decimal.Decimal, error) {
	return r.gmv, nil
}

func (r *fakeOrderRepo) SellerBalances(context.Context, string) (decimal.Decimal, decimal.Decimal, error) {
	return r.pending, r.completed, nil
}

func (r *fakeOrderRepo) status(id string) domain.OrderStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.orders[id].Status
}

// ============= Payments and shipping =============

type fakePayments struct {
	mu           sync.Mutex
	intents      int
	cancelled    []string
	refunds      []string
	transfers    []string
	failIntent   error
	failTransfer error
}

func (p *fakePayments) CreatePaymentIntent(_ context.Context, orderID string, _ decimal.Decimal, _ string) (*domain.PaymentIntent, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failIntent != nil {
		return nil, p.failIntent
	}
	p.intents++
	return &domain.PaymentIntent{ID: "pi_" + orderID, ClientSecret: "pi_" + orderID + "_secret", Status: "requires_payment_method"}, nil
}

func (p *fakePayments) CancelPaymentIntent(_ context.Context, pi string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cancelled = append(p.cancelled, pi)
	return nil
}

func (p *fakePayments) Refund(_ context.Context, pi string, _ decimal.Decimal) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.refunds = append(p.refunds, pi)
	return "re_" + pi, nil
}

func (p *fakePayments) Transfer(_ context.Context, _ string, _ decimal.Decimal, _ string, key string) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.failTransfer != nil {
		return "", p.failTransfer
	}
	p.transfers = append(p.transfers, key)
	return "tr_" + key, nil
}

type fakeShipping struct {
	quote  decimal.Decimal
	labels int
}

func (s *fakeShipping) QuoteLabel(context.Context, domain.ParcelRequest) (decimal.Decimal, error) {
	return s.quote, nil
}

func (s *fakeShipping) CreateLabel(_ context.Context, req domain.ParcelRequest) (*domain.Shipment, error) {
	s.labels++
	return &domain.Shipment{
		Carrier:        "postnl",
		TrackingNumber: "3S" + req.OrderID,
		TrackingURL:    "https://track.example/3S" + req.OrderID,
		Cost:           s.quote,
	}, nil
}

// ============= Fraud flags =============

type fakeFlagRepo struct {
	flags []*domain.FraudFlag
}

func (r *fakeFlagRepo) CreateFlag(_ context.Context, f *domain.FraudFlag) error {
	r.flags = append(r.flags, f)
	return nil
}

func (r *fakeFlagRepo) GetFlagByID(_ context.Context, id string) (*domain.FraudFlag, error) {
	for _, f := range r.flags {
		if f.ID == id {
			return f, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeFlagRepo) UpdateFlagStatus(_ context.Context, id string, status domain.FraudFlagStatus, reviewer string) error {
	for _, f := range r.flags {
		if f.ID == id {
			f.Status = status
			f.ReviewedBy = reviewer
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *fakeFlagRepo) FindFlags(_ context.Context, filter domain.FraudFlagFilter) ([]*domain.FraudFlag, int64, error) {
	var out []*domain.FraudFlag
	for _, f := range r.flags {
		if filter.UserID != nil && f.UserID != *filter.UserID {
			continue
		}
		if filter.Status != nil && f.Status != *filter.Status {
			continue
		}
		out = append(out, f)
	}
	return out, int64(len(out)), nil
}

func (r *fakeFlagRepo) HasOpenFlag(_ context.Context, userID, source string) (bool, error) {
	for _, f := range r.flags {
		if f.UserID == userID && f.Source == source && f.Status == domain.FraudFlagOpen {
			return true, nil
		}
	}
	return false, nil
}

// ============= Payouts =============

type fakePayoutRepo struct {
	payouts map[string]*domain.Payout
	// claimed simulates another worker winning ClaimPayout.
	claimed bool
}

func newFakePayoutRepo() *fakePayoutRepo {
	return &fakePayoutRepo{payouts: map[string]*domain.Payout{}}
}

func (r *fakePayoutRepo) CreatePayout(_ context.Context, p *domain.Payout) error {
	cp := *p
	r.payouts[p.ID] = &cp
	return nil
}

func (r *fakePayoutRepo) GetPayoutByID(_ context.Context, id string) (*domain.Payout, error) {
	p, ok := r.payouts[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (r *fakePayoutRepo) UpdatePayout(_ context.Context, p *domain.Payout) error {
	cp := *p
	r.payouts[p.ID] = &cp
	return nil
}

func (r *fakePayoutRepo) ClaimPayout(_ context.Context, id string) (bool, error) {
	if r.claimed {
		return false, nil
	}
	p, ok := r.payouts[id]
	if !ok || p.Status != domain.PayoutPending {
		return false, nil
	}
	p.Status = domain.PayoutProcessing
	p.UpdatedAt = time.Now()
	return true, nil
}

func (r *fakePayoutRepo) SumPayouts(_ context.Context, sellerID string) (decimal.Decimal, error) {
	sum := decimal.Zero
	for _, p := range r.payouts {
		if p.SellerID == sellerID && p.Status != domain.PayoutFailed {
			sum = sum.Add(p.Amount)
		}
	}
	return sum, nil
}

func (r *fakePayoutRepo) GetSellerPayouts(_ context.Context, sellerID string, _, _ int) ([]*domain.Payout, int64, error) {
	var out []*domain.Payout
	for _, p := range r.payouts {
		if p.SellerID == sellerID {
			out = append(out, p)
		}
	}
	return out, int64(len(out)), nil
}

func (r *fakePayoutRepo) FindPendingPayouts(_ context.Context, limit int) ([]*domain.Payout, error) {
	var out []*domain.Payout
	for _, p := range r.payouts {
		if p.Status == domain.PayoutPending {
			out = append(out, p)
		}
		if len(out) == limit {
			break
		}
	}
	return out, nil
}

func (r *fakePayoutRepo) ReleaseStalePayouts(_ context.Context, olderThan time.Time) (int64, error) {
	var n int64
	for _, p := range r.payouts {
		if p.Status == domain.PayoutProcessing && p.UpdatedAt.Before(olderThan) {
			p.Status = domain.PayoutPending
			n++
		}
	}
	return n, nil
}

// ============= Disputes =============

type fakeDisputeRepo struct {
	disputes map[string]*domain.Dispute
}

func newFakeDisputeRepo() *fakeDisputeRepo {
	return &fakeDisputeRepo{disputes: map[string]*domain.Dispute{}}
}

func (r *fakeDisputeRepo) CreateDispute(_ context.Context, d *domain.Dispute) error {
	cp := *d
	r.disputes[d.ID] = &cp
	return nil
}

func (r *fakeDisputeRepo) UpdateDispute(_ context.Context, d *domain.Dispute) error {
	cp := *d
	r.disputes[d.ID] = &cp
	return nil
}

func (r *fakeDisputeRepo) DeleteDispute(_ context.Context, id string) error {
	delete(r.disputes, id)
	return nil
}

func (r *fakeDisputeRepo) GetDisputeByID(_ context.Context, id string) (*domain.Dispute, error) {
	d, ok := r.disputes[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *d
	return &cp, nil
}

func (r *fakeDisputeRepo) GetDisputeByOrderID(_ context.Context, orderID string) (*domain.Dispute, error) {
	for _, d := range r.disputes {
		if d.OrderID == orderID {
			cp := *d
			return &cp, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeDisputeRepo) FindExpiredDisputes(_ context.Context, now time.Time) ([]*domain.Dispute, error) {
	var out []*domain.Dispute
	for _, d := range r.disputes {
		if d.Status == domain.DisputeOpened && d.AutoResolveAt.Before(now) {
			cp := *d
			out = append(out, &cp)
		}
	}
	return out, nil
}

func (r *fakeDisputeRepo) GetDisputes(_ context.Context, _ domain.GetDisputesFilter) ([]*domain.Dispute, int64, error) {
	var out []*domain.Dispute
	for _, d := range r.disputes {
		out = append(out, d)
	}
	return out, int64(len(out)), nil
}

// ============= Ratings and API keys =============

type fakeRatingRepo struct {
	ratings []*domain.Rating
}

func (r *fakeRatingRepo) CreateRating(_ context.Context, rating *domain.Rating) error {
	r.ratings = append(r.ratings, rating)
	return nil
}

func (r *fakeRatingRepo) GetRatingByOrderID(_ context.Context, orderID string) (*domain.Rating, error) {
	for _, rating := range r.ratings {
		if rating.OrderID == orderID {
			return rating, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (r *fakeRatingRepo) GetSellerRatings(_ context.Context, sellerID string, _, _ int) ([]*domain.Rating, int64, error) {
	var out []*domain.Rating
	for _, rating := range r.ratings {
		if rating.SellerID == sellerID {
			out = append(out, rating)
		}
	}
	return out, int64(len(out)), nil
}

type fakeAPIKeyRepo struct {
	keys    map[string]*domain.APIKey
	touched int
}

func newFakeAPIKeyRepo() *fakeAPIKeyRepo {
	return &fakeAPIKeyRepo{keys: map[string]*domain.APIKey{}}
}

func (r *fakeAPIKeyRepo) CreateAPIKey(_ context.Context, k *domain.APIKey) error {
	r.keys[k.Prefix] = k
	return nil
}

func (r *fakeAPIKeyRepo) GetAPIKeyByPrefix(_ context.Context, prefix string) (*domain.APIKey, error) {
	k, ok := r.keys[prefix]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return k, nil
}

func (r *fakeAPIKeyRepo) ListAPIKeys(_ context.Context, ownerID string) ([]*domain.APIKey, error) {
	var out []*domain.APIKey
	for _, k := range r.keys {
		if k.OwnerID == ownerID {
			out = append(out, k)
		}
	}
	return out, nil
}

func (r *fakeAPIKeyRepo) RevokeAPIKey(_ context.Context, ownerID, keyID string) error {
	for _, k := range r.keys {
		if k.ID == keyID && k.OwnerID == ownerID {
			now := time.Now()
			k.RevokedAt = &now
			return nil
		}
	}
	return domain.ErrNotFound
}

func (r *fakeAPIKeyRepo) TouchAPIKey(context.Context, string, time.Time) error {
	r.touched++
	return nil
}

// ============= Scoring =============

type fakeStatsRepo struct {
	risk       map[string]*domain.RiskAggregates
	reputation map[string]*domain.ReputationAggregates
	sellers    []string
}

func (r *fakeStatsRepo) RiskAggregates(_ context.Context, id string, _ time.Time) (*domain.RiskAggregates, error) {
	if a, ok := r.risk[id]; ok {
		return a, nil
	}
	return &domain.RiskAggregates{SellerID: id}, nil
}

func (r *fakeStatsRepo) ReputationAggregates(_ context.Context, id string, _ time.Time) (*domain.ReputationAggregates, error) {
	if a, ok := r.reputation[id]; ok {
		return a, nil
	}
	return &domain.ReputationAggregates{SellerID: id}, nil
}

func (r *fakeStatsRepo) ShippingStats(context.Context, string) (float64, int64, error) {
	return 1.5, 40, nil
}

func (r *fakeStatsRepo) ActiveSellerIDs(context.Context, time.Time) ([]string, error) {
	return r.sellers, nil
}

type fakeScoringRepo struct {
	risk       map[string]*domain.RiskAssessment
	reputation map[string]*domain.Reputation
	badges     map[string][]domain.SellerBadge
}

func newFakeScoringRepo() *fakeScoringRepo {
	return &fakeScoringRepo{
		risk:       map[string]*domain.RiskAssessment{},
		reputation: map[string]*domain.Reputation{},
		badges:     map[string][]domain.SellerBadge{},
	}
}

func (r *fakeScoringRepo) UpsertRiskAssessment(_ context.Context, a *domain.RiskAssessment) error {
	cp := *a
	r.risk[a.SellerID] = &cp
	return nil
}

func (r *fakeScoringRepo) GetRiskAssessment(_ context.Context, id string) (*domain.RiskAssessment, error) {
	a, ok := r.risk[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return a, nil
}

func (r *fakeScoringRepo) UpsertReputation(_ context.Context, rep *domain.Reputation) error {
	cp := *rep
	r.reputation[rep.SellerID] = &cp
	return nil
}

func (r *fakeScoringRepo) GetReputation(_ context.Context, id string) (*domain.Reputation, error) {
	rep, ok := r.reputation[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return rep, nil
}

func (r *fakeScoringRepo) ReplaceBadges(_ context.Context, id string, badges []domain.SellerBadge) error {
	r.badges[id] = badges
	return nil
}

func (r *fakeScoringRepo) GetBadges(_ context.Context, id string) ([]domain.SellerBadge, error) {
	return r.badges[id], nil
}

// ============= Checkout =============

type fakeSessionRepo struct {
	sessions map[string]*domain.CheckoutSession
}

func newFakeSessionRepo() *fakeSessionRepo {
	return &fakeSessionRepo{sessions: map[string]*domain.CheckoutSession{}}
}

func (r *fakeSessionRepo) CreateSession(_ context.Context, s *domain.CheckoutSession) error {
	cp := *s
	r.sessions[s.ID] = &cp
	return nil
}

func (r *fakeSessionRepo) GetSessionByID(_ context.Context, id string) (*domain.CheckoutSession, error) {
	s, ok := r.sessions[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	cp := *s
	return &cp, nil
}

func (r *fakeSessionRepo) UpdateSession(_ context.Context, s *domain.CheckoutSession) error {
	cp := *s
	r.sessions[s.ID] = &cp
	return nil
}

type fakeIdempotencyStore struct {
	mu       sync.Mutex
	values   map[string][]byte
	reserved map[string]bool
}

func newFakeIdempotencyStore() *fakeIdempotencyStore {
	return &fakeIdempotencyStore{values: map[string][]byte{}, reserved: map[string]bool{}}
}

func (s *fakeIdempotencyStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	return v, ok, nil
}

func (s *fakeIdempotencyStore) Reserve(_ context.Context, key string, _ time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.reserved[key] {
		return false, nil
	}
	s.reserved[key] = true
	return true, nil
}

func (s *fakeIdempotencyStore) Save(_ context.Context, key string, value []byte, _ time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *fakeIdempotencyStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.reserved, key)
	return nil
}

// ============= Events and AI =============

type publishedEvent struct {
	topic, key string
	value      interface{}
}

type fakePublisher struct {
	mu     sync.Mutex
	events []publishedEvent
}

func (p *fakePublisher) PublishJSON(topic, key string, v interface{}) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, publishedEvent{topic: topic, key: key, value: v})
	return nil
}

// types returns the event type of every published order or seller event.
func (p *fakePublisher) types() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []string
	for _, e := range p.events {
		switch v := e.value.(type) {
		case domain.OrderEvent:
			out = append(out, v.Type)
		case domain.SellerEvent:
			out = append(out, v.Type)
		case domain.DisputeEvent:
			out = append(out, v.Type)
		}
	}
	return out
}

type fakeCallbacks struct {
	mu       sync.Mutex
	payloads []notifier.CallbackPayload
}

func (c *fakeCallbacks) SendCallback(_ string, payload notifier.CallbackPayload) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.payloads = append(c.payloads, payload)
}

type fakeAI struct {
	enabled    bool
	commentary string
	class      *domain.ListingClassification
	err        error
}

func (a *fakeAI) Enabled() bool { return a.enabled }

func (a *fakeAI) ClassifyListing(context.Context, *domain.Listing) (*domain.ListingClassification, error) {
	if a.err != nil {
		return nil, a.err
	}
	return a.class, nil
}

func (a *fakeAI) PriceCommentary(context.Context, *domain.PriceEvaluation) (string, error) {
	if a.err != nil {
		return "", a.err
	}
	return a.commentary, nil
}
