package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/LavaJover/shvark-market-service/internal/domain"
	"github.com/LavaJover/shvark-market-service/internal/infrastructure/ratelimit"
	"github.com/LavaJover/shvark-market-service/internal/infrastructure/stripe"
	"github.com/LavaJover/shvark-market-service/internal/usecase"
	checkoutdto "github.com/LavaJover/shvark-market-service/internal/usecase/dto/checkout"
	orderdto "github.com/LavaJover/shvark-market-service/internal/usecase/dto/order"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============= Stubs =============

type stubAPIKeys struct {
	usecase.APIKeyUsecase
	keys map[string]*domain.APIKey
}

func (s *stubAPIKeys) Authenticate(_ context.Context, token string) (*domain.Principal, *domain.APIKey, error) {
	key, ok := s.keys[token]
	if !ok {
		return nil, nil, domain.ErrUnauthorized
	}
	return &domain.Principal{UserID: key.OwnerID, KeyID: key.ID, Scopes: key.Scopes}, key, nil
}

func defaultKeys() *stubAPIKeys {
	return &stubAPIKeys{keys: map[string]*domain.APIKey{
		"read-token":  {ID: "k-read", OwnerID: "buyer-1", Scopes: []domain.APIScope{domain.ScopeRead}},
		"trade-token": {ID: "k-trade", OwnerID: "buyer-1", Scopes: []domain.APIScope{domain.ScopeRead, domain.ScopeTrade}},
		"admin-token": {ID: "k-admin", OwnerID: "ops", Scopes: []domain.APIScope{domain.ScopeRead, domain.ScopeTrade, domain.ScopeAdmin}},
		"slow-token":  {ID: "k-slow", OwnerID: "buyer-2", Scopes: []domain.APIScope{domain.ScopeRead}, RateLimitPerMinute: 1},
	}}
}

type stubOrders struct {
	usecase.OrderUsecase
	succeeded []string
	failed    []string
	err       error
	lastInput *orderdto.CreateOrderInput
}

func (s *stubOrders) CreateOrder(_ context.Context, input *orderdto.CreateOrderInput) (*domain.Order, error) {
	s.lastInput = input
	if s.err != nil {
		return nil, s.err
	}
	return &domain.Order{
		ID:           "ord-1",
		BuyerID:      input.BuyerID,
		SellerID:     "seller-1",
		Status:       domain.StatusPendingPayment,
		Channel:      input.Channel,
		Currency:     "EUR",
		ClientSecret: "pi_1_secret",
	}, nil
}

func (s *stubOrders) HandlePaymentSucceeded(_ context.Context, pi string) error {
	s.succeeded = append(s.succeeded, pi)
	return s.err
}

func (s *stubOrders) HandlePaymentFailed(_ context.Context, pi string) error {
	s.failed = append(s.failed, pi)
	return s.err
}

type stubWebhooks struct {
	event *stripe.WebhookEvent
	err   error
}

func (s *stubWebhooks) ParseWebhook(_ []byte, _ string) (*stripe.WebhookEvent, error) {
	return s.event, s.err
}

type stubCheckout struct {
	usecase.CheckoutUsecase
	mu    sync.Mutex
	calls int
}

func (s *stubCheckout) CreateSession(_ context.Context, input *checkoutdto.CreateSessionInput) (*checkoutdto.SessionOutput, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return &checkoutdto.SessionOutput{
		ID:        fmt.Sprintf("cs_%d", s.calls),
		Status:    string(domain.CheckoutOpen),
		BundleID:  input.BundleID,
		Currency:  "EUR",
		ExpiresAt: time.Now().Add(time.Hour).UTC().Format(time.RFC3339),
	}, nil
}

type memIdempotency struct {
	mu       sync.Mutex
	values   map[string][]byte
	reserved map[string]bool
}

func newMemIdempotency() *memIdempotency {
	return &memIdempotency{values: map[string][]byte{}, reserved: map[string]bool{}}
}

func (m *memIdempotency) Get(_ context.Context, key string) ([]byte, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *memIdempotency) Reserve(_ context.Context, key string, _ time.Duration) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.reserved[key] {
		return false, nil
	}
	m.reserved[key] = true
	return true, nil
}

func (m *memIdempotency) Save(_ context.Context, key string, value []byte, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *memIdempotency) Release(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.reserved, key)
	return nil
}

type stubListings struct {
	usecase.ListingUsecase
	listings map[string]*domain.Listing
}

func (s *stubListings) GetListing(_ context.Context, id string) (*domain.Listing, error) {
	l, ok := s.listings[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return l, nil
}

type stubWallet struct {
	usecase.WalletUsecase
}

func (stubWallet) GetBalance(_ context.Context, sellerID string) (*domain.WalletBalance, error) {
	return &domain.WalletBalance{
		SellerID:  sellerID,
		Pending:   decimal.RequireFromString("12.50"),
		Available: decimal.RequireFromString("40"),
		Currency:  "EUR",
	}, nil
}

// ============= Helpers =============

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestServer(t *testing.T, deps Deps) http.Handler {
	t.Helper()
	if deps.APIKeys == nil {
		deps.APIKeys = defaultKeys()
	}
	if deps.Limiter == nil {
		deps.Limiter = ratelimit.NewKeyedLimiter(1)
	}
	deps.Logger = quietLogger()
	return NewHandler(deps).Routes()
}

func doRequest(t *testing.T, srv http.Handler, method, path, token string, body interface{}, headers ...string) *httptest.ResponseRecorder {
	t.Helper()
	var reader io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		reader = bytes.NewBufferString(b)
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewBuffer(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

// ============= Tests =============

func TestHealth(t *testing.T) {
	srv := newTestServer(t, Deps{})
	rec := doRequest(t, srv, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestAuth(t *testing.T) {
	srv := newTestServer(t, Deps{Wallet: stubWallet{}})

	t.Run("missing key", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodGet, "/functions/v1/wallet", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown key", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodGet, "/functions/v1/wallet", "nope", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("read scope cannot trade", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodPost, "/functions/v1/payouts", "read-token", `{"method":"standard"}`)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("trade scope is not admin", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodPost, "/functions/v1/calculate-risk-tiers", "trade-token", nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("read scope reads", func(t *testing.T) {
		rec := doRequest(t, srv, http.MethodGet, "/functions/v1/wallet", "read-token", nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var balance domain.WalletBalance
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &balance))
		assert.Equal(t, "buyer-1", balance.SellerID)
		assert.True(t, balance.Available.Equal(decimal.NewFromInt(40)))
	})
}

func TestAuth_RateLimited(t *testing.T) {
	srv := newTestServer(t, Deps{Wallet: stubWallet{}, Limiter: ratelimit.NewKeyedLimiter(1)})

	rec := doRequest(t, srv, http.MethodGet, "/functions/v1/wallet", "slow-token", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = doRequest(t, srv, http.MethodGet, "/functions/v1/wallet", "slow-token", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "60", rec.Header().Get("Retry-After"))
}

func TestStatusFor(t *testing.T) {
	cases := []struct {
		err  error
		want int
	}{
		{fmt.Errorf("%w: bad", domain.ErrInvalidInput), http.StatusBadRequest},
		{domain.ErrInsufficientFunds, http.StatusBadRequest},
		{stripe.ErrInvalidSignature, http.StatusBadRequest},
		{domain.ErrUnauthorized, http.StatusUnauthorized},
		{domain.ErrForbidden, http.StatusForbidden},
		{fmt.Errorf("listing: %w", domain.ErrNotFound), http.StatusNotFound},
		{domain.ErrRateLimited, http.StatusTooManyRequests},
		{domain.ErrInvalidTransition, http.StatusConflict},
		{domain.ErrListingUnavailable, http.StatusConflict},
		{domain.ErrPaymentFailed, http.StatusBadGateway},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, statusFor(tc.err), tc.err.Error())
	}
}

func TestInternalErrorsAreNotLeaked(t *testing.T) {
	h := NewHandler(Deps{Logger: quietLogger()})
	rec := httptest.NewRecorder()
	h.writeError(rec, httptest.NewRequest(http.MethodGet, "/", nil), errors.New("pq: connection refused"))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.JSONEq(t, `{"error":"internal error"}`, rec.Body.String())
}

func TestCalculateFees(t *testing.T) {
	srv := newTestServer(t, Deps{})

	rec := doRequest(t, srv, http.MethodPost, "/functions/v1/calculate-fees", "read-token",
		`{"item_price":"100.00","buyer_tier":"free","seller_tier":"free","seller_risk_tier":"A"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out domain.FeeBreakdown
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.Equal(t, "5.30", out.BuyerProtectionFee.StringFixed(2))
	assert.Equal(t, "5.00", out.SellerCommission.StringFixed(2))
}

func TestCalculateFees_Validation(t *testing.T) {
	srv := newTestServer(t, Deps{})

	rec := doRequest(t, srv, http.MethodPost, "/functions/v1/calculate-fees", "read-token",
		`{"item_price":"10","seller_risk_tier":"Z"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "seller_risk_tier")

	rec = doRequest(t, srv, http.MethodPost, "/functions/v1/calculate-fees", "read-token", `{"item_price":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStripeWebhook(t *testing.T) {
	t.Run("payment succeeded", func(t *testing.T) {
		orders := &stubOrders{}
		srv := newTestServer(t, Deps{
			Orders:   orders,
			Webhooks: &stubWebhooks{event: &stripe.WebhookEvent{Type: "payment_intent.succeeded", PaymentIntentID: "pi_1"}},
		})

		rec := doRequest(t, srv, http.MethodPost, "/functions/v1/stripe-webhook", "", `{}`, "Stripe-Signature", "t=1,v1=x")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []string{"pi_1"}, orders.succeeded)
		assert.JSONEq(t, `{"received":true}`, rec.Body.String())
	})

	t.Run("payment failed", func(t *testing.T) {
		orders := &stubOrders{}
		srv := newTestServer(t, Deps{
			Orders:   orders,
			Webhooks: &stubWebhooks{event: &stripe.WebhookEvent{Type: "payment_intent.payment_failed", PaymentIntentID: "pi_2"}},
		})

		rec := doRequest(t, srv, http.MethodPost, "/functions/v1/stripe-webhook", "", `{}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []string{"pi_2"}, orders.failed)
	})

	t.Run("unknown order is acknowledged", func(t *testing.T) {
		orders := &stubOrders{err: domain.ErrNotFound}
		srv := newTestServer(t, Deps{
			Orders:   orders,
			Webhooks: &stubWebhooks{event: &stripe.WebhookEvent{Type: "payment_intent.succeeded", PaymentIntentID: "pi_3"}},
		})

		rec := doRequest(t, srv, http.MethodPost, "/functions/v1/stripe-webhook", "", `{}`)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("transient failure asks for retry", func(t *testing.T) {
		orders := &stubOrders{err: errors.New("db down")}
		srv := newTestServer(t, Deps{
			Orders:   orders,
			Webhooks: &stubWebhooks{event: &stripe.WebhookEvent{Type: "payment_intent.succeeded", PaymentIntentID: "pi_4"}},
		})

		rec := doRequest(t, srv, http.MethodPost, "/functions/v1/stripe-webhook", "", `{}`)
		assert.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("bad signature", func(t *testing.T) {
		orders := &stubOrders{}
		srv := newTestServer(t, Deps{Orders: orders, Webhooks: &stubWebhooks{err: stripe.ErrInvalidSignature}})

		rec := doRequest(t, srv, http.MethodPost, "/functions/v1/stripe-webhook", "", `{}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, orders.succeeded)
	})
}

func TestCheckoutSession_Idempotent(t *testing.T) {
	checkout := &stubCheckout{}
	srv := newTestServer(t, Deps{
		Checkout:    checkout,
		Idempotency: usecase.NewIdempotency(newMemIdempotency(), time.Hour),
	})

	body := `{"bundle_id":"b-1","shipping_address":{"name":"Ann","street":"Main","city":"Berlin","postal_code":"10115","country":"DE"}}`

	first := doRequest(t, srv, http.MethodPost, "/functions/v1/acp/checkout_sessions", "trade-token", body, "Idempotency-Key", "abc")
	require.Equal(t, http.StatusCreated, first.Code, first.Body.String())

	second := doRequest(t, srv, http.MethodPost, "/functions/v1/acp/checkout_sessions", "trade-token", body, "Idempotency-Key", "abc")
	require.Equal(t, http.StatusCreated, second.Code)

	assert.Equal(t, 1, checkout.calls)
	assert.Equal(t, first.Body.String(), second.Body.String())

	third := doRequest(t, srv, http.MethodPost, "/functions/v1/acp/checkout_sessions", "trade-token", body, "Idempotency-Key", "other")
	require.Equal(t, http.StatusCreated, third.Code)
	assert.Equal(t, 2, checkout.calls)
}

func TestCheckoutSession_Validation(t *testing.T) {
	checkout := &stubCheckout{}
	srv := newTestServer(t, Deps{Checkout: checkout})

	rec := doRequest(t, srv, http.MethodPost, "/functions/v1/acp/checkout_sessions", "trade-token",
		`{"bundle_id":"b-1","shipping_address":{"name":"Ann","street":"Main","city":"Berlin","postal_code":"10115","country":"Germany"}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Zero(t, checkout.calls)
}

func TestGetListing_NotFound(t *testing.T) {
	srv := newTestServer(t, Deps{Listings: &stubListings{listings: map[string]*domain.Listing{}}})

	rec := doRequest(t, srv, http.MethodGet, "/functions/v1/listings/missing", "read-token", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
