package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/LavaJover/shvark-market-service/internal/domain"
	"github.com/LavaJover/shvark-market-service/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-market-service/internal/infrastructure/ratelimit"
	"github.com/LavaJover/shvark-market-service/internal/infrastructure/stripe"
	"github.com/LavaJover/shvark-market-service/internal/usecase"
	"github.com/LavaJover/shvark-market-service/internal/usecase/fees"
	"github.com/shopspring/decimal"
)

const maxBodyBytes = 1 << 20

// PaymentWebhooks verifies and decodes payment processor callbacks.
type PaymentWebhooks interface {
	ParseWebhook(payload []byte, signatureHeader string) (*stripe.WebhookEvent, error)
}

type Deps struct {
	Listings    usecase.ListingUsecase
	Bundles     usecase.BundleUsecase
	Orders      usecase.OrderUsecase
	Checkout    usecase.CheckoutUsecase
	Idempotency *usecase.Idempotency
	Disputes    usecase.DisputeUsecase
	Payouts     usecase.PayoutUsecase
	Wallet      usecase.WalletUsecase
	Ratings     usecase.RatingUsecase
	Scoring     usecase.SellerScoringUsecase
	Pricing     usecase.PricingUsecase
	AntiFraud   usecase.AntiFraudUseCase
	APIKeys     usecase.APIKeyUsecase
	Fees        *fees.Calculator
	Webhooks    PaymentWebhooks
	Limiter     *ratelimit.KeyedLimiter
	Metrics     *metrics.MarketMetrics
	Logger      *slog.Logger
}

type Handler struct {
	listings    usecase.ListingUsecase
	bundles     usecase.BundleUsecase
	orders      usecase.OrderUsecase
	checkout    usecase.CheckoutUsecase
	idempotency *usecase.Idempotency
	disputes    usecase.DisputeUsecase
	payouts     usecase.PayoutUsecase
	wallet      usecase.WalletUsecase
	ratings     usecase.RatingUsecase
	scoring     usecase.SellerScoringUsecase
	pricing     usecase.PricingUsecase
	antifraud   usecase.AntiFraudUseCase
	apiKeys     usecase.APIKeyUsecase
	fees        *fees.Calculator
	webhooks    PaymentWebhooks
	limiter     *ratelimit.KeyedLimiter
	metrics     *metrics.MarketMetrics
	validator   *Validator
	logger      *slog.Logger

	tools     map[string]*mcpTool
	toolOrder []string
}

func NewHandler(deps Deps) *Handler {
	logger := deps.Logger
	if logger == nil {
		logger = slog.Default()
	}
	calc := deps.Fees
	if calc == nil {
		calc = fees.NewCalculator(fees.DefaultSchedule())
	}

	h := &Handler{
		listings:    deps.Listings,
		bundles:     deps.Bundles,
		orders:      deps.Orders,
		checkout:    deps.Checkout,
		idempotency: deps.Idempotency,
		disputes:    deps.Disputes,
		payouts:     deps.Payouts,
		wallet:      deps.Wallet,
		ratings:     deps.Ratings,
		scoring:     deps.Scoring,
		pricing:     deps.Pricing,
		antifraud:   deps.AntiFraud,
		apiKeys:     deps.APIKeys,
		fees:        calc,
		webhooks:    deps.Webhooks,
		limiter:     deps.Limiter,
		metrics:     deps.Metrics,
		validator:   NewValidator(),
		logger:      logger,
	}
	h.registerTools()
	return h
}

// Routes builds the public HTTP surface under /functions/v1.
func (h *Handler) Routes() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", h.health)
	if h.metrics != nil {
		mux.Handle("GET /metrics", h.metrics.Handler())
	}

	// ============= Payments =============
	mux.HandleFunc("POST /functions/v1/stripe-webhook", h.stripeWebhook)

	// ============= Fees and scoring =============
	mux.Handle("POST /functions/v1/calculate-fees", h.auth(domain.ScopeRead, h.calculateFees))
	mux.Handle("POST /functions/v1/calculate-risk-tiers", h.auth(domain.ScopeAdmin, h.calculateRiskTiers))
	mux.Handle("POST /functions/v1/calculate-seller-reputation", h.auth(domain.ScopeAdmin, h.calculateReputation))
	mux.Handle("POST /functions/v1/calculate-seller-badges", h.auth(domain.ScopeAdmin, h.calculateBadges))
	mux.Handle("GET /functions/v1/sellers/{id}/reputation", h.auth(domain.ScopeRead, h.sellerReputation))
	mux.Handle("GET /functions/v1/sellers/{id}/ratings", h.auth(domain.ScopeRead, h.sellerRatings))
	mux.Handle("POST /functions/v1/evaluate-price", h.auth(domain.ScopeRead, h.evaluatePrice))

	// ============= Listings and bundles =============
	mux.Handle("GET /functions/v1/listings", h.auth(domain.ScopeRead, h.searchListings))
	mux.Handle("POST /functions/v1/listings", h.auth(domain.ScopeTrade, h.createListing))
	mux.Handle("GET /functions/v1/listings/{id}", h.auth(domain.ScopeRead, h.getListing))
	mux.Handle("PATCH /functions/v1/listings/{id}", h.auth(domain.ScopeTrade, h.updateListing))
	mux.Handle("DELETE /functions/v1/listings/{id}", h.auth(domain.ScopeTrade, h.withdrawListing))
	mux.Handle("POST /functions/v1/bundles", h.auth(domain.ScopeTrade, h.createBundle))
	mux.Handle("GET /functions/v1/bundles/{id}", h.auth(domain.ScopeRead, h.getBundle))
	mux.Handle("DELETE /functions/v1/bundles/{id}", h.auth(domain.ScopeTrade, h.withdrawBundle))

	// ============= Orders =============
	mux.Handle("GET /functions/v1/orders", h.auth(domain.ScopeRead, h.listOrders))
	mux.Handle("POST /functions/v1/orders", h.auth(domain.ScopeTrade, h.createOrder))
	mux.Handle("GET /functions/v1/orders/{id}", h.auth(domain.ScopeRead, h.getOrder))
	mux.Handle("POST /functions/v1/orders/{id}/ship", h.auth(domain.ScopeTrade, h.shipOrder))
	mux.Handle("POST /functions/v1/orders/{id}/delivered", h.auth(domain.ScopeAdmin, h.markDelivered))
	mux.Handle("POST /functions/v1/orders/{id}/complete", h.auth(domain.ScopeTrade, h.completeOrder))
	mux.Handle("POST /functions/v1/orders/{id}/cancel", h.auth(domain.ScopeTrade, h.cancelOrder))
	mux.Handle("POST /functions/v1/orders/{id}/rating", h.auth(domain.ScopeTrade, h.rateOrder))

	// ============= Disputes =============
	mux.Handle("POST /functions/v1/disputes", h.auth(domain.ScopeTrade, h.openDispute))
	mux.Handle("GET /functions/v1/disputes", h.auth(domain.ScopeRead, h.listDisputes))
	mux.Handle("GET /functions/v1/disputes/{id}", h.auth(domain.ScopeRead, h.getDispute))
	mux.Handle("POST /functions/v1/disputes/{id}/respond", h.auth(domain.ScopeTrade, h.respondDispute))
	mux.Handle("POST /functions/v1/disputes/{id}/resolve", h.auth(domain.ScopeAdmin, h.resolveDispute))

	// ============= Wallet and payouts =============
	mux.Handle("GET /functions/v1/wallet", h.auth(domain.ScopeRead, h.walletBalance))
	mux.Handle("GET /functions/v1/payouts", h.auth(domain.ScopeRead, h.listPayouts))
	mux.Handle("POST /functions/v1/payouts", h.auth(domain.ScopeTrade, h.requestPayout))

	// ============= Fraud =============
	mux.Handle("GET /functions/v1/fraud/flags", h.auth(domain.ScopeAdmin, h.listFlags))
	mux.Handle("POST /functions/v1/fraud/flags", h.auth(domain.ScopeAdmin, h.raiseFlag))
	mux.Handle("POST /functions/v1/fraud/flags/{id}/review", h.auth(domain.ScopeAdmin, h.reviewFlag))
	mux.Handle("GET /functions/v1/fraud/rules", h.auth(domain.ScopeAdmin, h.listRules))
	mux.Handle("POST /functions/v1/fraud/rules", h.auth(domain.ScopeAdmin, h.createRule))
	mux.Handle("PATCH /functions/v1/fraud/rules/{id}", h.auth(domain.ScopeAdmin, h.updateRule))
	mux.Handle("DELETE /functions/v1/fraud/rules/{id}", h.auth(domain.ScopeAdmin, h.deleteRule))
	mux.Handle("POST /functions/v1/fraud/users/{id}/check", h.auth(domain.ScopeAdmin, h.checkUser))
	mux.Handle("GET /functions/v1/fraud/users/{id}/audit", h.auth(domain.ScopeAdmin, h.userAudit))

	// ============= API keys =============
	mux.Handle("GET /functions/v1/api-keys", h.auth(domain.ScopeRead, h.listAPIKeys))
	mux.Handle("POST /functions/v1/api-keys", h.auth(domain.ScopeRead, h.issueAPIKey))
	mux.Handle("DELETE /functions/v1/api-keys/{id}", h.auth(domain.ScopeRead, h.revokeAPIKey))

	// ============= Agents =============
	mux.HandleFunc("POST /functions/v1/mcp", h.mcp)
	mux.HandleFunc("POST /functions/v1/mcp/{tool}", h.mcpREST)
	mux.Handle("POST /functions/v1/acp/checkout_sessions", h.auth(domain.ScopeTrade, h.createCheckoutSession))
	mux.Handle("GET /functions/v1/acp/checkout_sessions/{id}", h.auth(domain.ScopeRead, h.getCheckoutSession))
	mux.Handle("POST /functions/v1/acp/checkout_sessions/{id}/complete", h.auth(domain.ScopeTrade, h.completeCheckoutSession))
	mux.Handle("POST /functions/v1/acp/checkout_sessions/{id}/cancel", h.auth(domain.ScopeTrade, h.cancelCheckoutSession))

	return h.recoverer(h.accessLog(mux))
}

func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ============= Auth =============

func bearerToken(r *http.Request) string {
	header := r.Header.Get("Authorization")
	if len(header) > 7 && strings.EqualFold(header[:7], "bearer ") {
		return strings.TrimSpace(header[7:])
	}
	return ""
}

// authenticate resolves the API key of r and charges one request to its rate limit.
func (h *Handler) authenticate(r *http.Request) (*domain.Principal, error) {
	token := bearerToken(r)
	if token == "" {
		return nil, fmt.Errorf("%w: missing api key", domain.ErrUnauthorized)
	}
	principal, key, err := h.apiKeys.Authenticate(r.Context(), token)
	if err != nil {
		return nil, err
	}
	if h.limiter != nil && !h.limiter.Allow(key.ID, key.RateLimitPerMinute) {
		return nil, domain.ErrRateLimited
	}
	return principal, nil
}

// allows: read is implied by any scope, trade and admin must be granted explicitly.
func allows(p *domain.Principal, scope domain.APIScope) bool {
	if scope == domain.ScopeRead {
		return len(p.Scopes) > 0
	}
	return p.HasScope(scope)
}

func (h *Handler) auth(scope domain.APIScope, next http.HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		principal, err := h.authenticate(r)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		if !allows(principal, scope) {
			h.writeError(w, r, fmt.Errorf("%w: api key lacks %q scope", domain.ErrForbidden, scope))
			return
		}
		next(w, r.WithContext(domain.WithPrincipal(r.Context(), principal)))
	})
}

func principal(r *http.Request) *domain.Principal {
	p, _ := domain.PrincipalFrom(r.Context())
	return p
}

// ============= Middleware =============

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (s *statusRecorder) WriteHeader(code int) {
	s.status = code
	s.ResponseWriter.WriteHeader(code)
}

func (h *Handler) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)

		level := slog.LevelInfo
		if r.URL.Path == "/health" || r.URL.Path == "/metrics" {
			level = slog.LevelDebug
		}
		h.logger.Log(r.Context(), level, "http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", rec.status,
			"duration_ms", time.Since(start).Milliseconds(),
		)
	})
}

func (h *Handler) recoverer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if rec := recover(); rec != nil {
				h.logger.Error("panic in http handler", "path", r.URL.Path, "panic", rec)
				writeJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error"})
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// ============= Responses =============

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

func writeRaw(w http.ResponseWriter, status int, body []byte) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidInput), errors.Is(err, domain.ErrInsufficientFunds),
		errors.Is(err, stripe.ErrInvalidSignature):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrConflict), errors.Is(err, domain.ErrInvalidTransition),
		errors.Is(err, domain.ErrListingUnavailable), errors.Is(err, domain.ErrCancelOrder),
		errors.Is(err, domain.ErrOpenDisputeFailed), errors.Is(err, domain.ErrResolveDisputeFailed):
		return http.StatusConflict
	case errors.Is(err, domain.ErrPaymentFailed), errors.Is(err, domain.ErrPayoutFailed),
		errors.Is(err, domain.ErrShippingFailed):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.logger.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		msg = "internal error"
	}
	if status == http.StatusTooManyRequests {
		w.Header().Set("Retry-After", "60")
	}
	writeJSON(w, status, errorBody{Error: msg})
}

// ============= Requests =============

// decodeJSON reads a JSON body into dst. An empty body leaves dst untouched.
func decodeJSON(r *http.Request, dst interface{}) error {
	body, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		return fmt.Errorf("%w: failed to read body: %v", domain.ErrInvalidInput, err)
	}
	if len(strings.TrimSpace(string(body))) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("%w: malformed json: %v", domain.ErrInvalidInput, err)
	}
	return nil
}

func queryInt(r *http.Request, name string, def int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < 0 {
		return def
	}
	return v
}

func queryString(r *http.Request, name string) *string {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil
	}
	return &v
}

func queryDecimal(r *http.Request, name string) (*decimal.Decimal, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, nil
	}
	v, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, fmt.Errorf("%w: %s must be a number", domain.ErrInvalidInput, name)
	}
	return &v, nil
}

type page[T any] struct {
	Items []T   `json:"items"`
	Total int64 `json:"total"`
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
}

func newPage[T any](items []T, total int64, pageNum, limit int) page[T] {
	if items == nil {
		items = []T{}
	}
	return page[T]{Items: items, Total: total, Page: pageNum, Limit: limit}
}
