package httpapi

import (
	"net/http"
	"time"

	"github.com/LavaJover/shvark-market-service/internal/domain"
	"github.com/LavaJover/shvark-market-service/internal/usecase"
	disputedto "github.com/LavaJover/shvark-market-service/internal/usecase/dto/dispute"
	listingdto "github.com/LavaJover/shvark-market-service/internal/usecase/dto/listing"
	orderdto "github.com/LavaJover/shvark-market-service/internal/usecase/dto/order"
	"github.com/shopspring/decimal"
)

// ============= Listings =============

func (h *Handler) searchListings(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	input := &listingdto.SearchListingsInput{
		Query:     q.Get("q"),
		SetName:   q.Get("set"),
		Condition: q.Get("condition"),
		SellerID:  q.Get("seller_id"),
		Page:      queryInt(r, "page", 1),
		Limit:     queryInt(r, "limit", 20),
	}
	var err error
	if input.MinPrice, err = queryDecimal(r, "min_price"); err != nil {
		h.writeError(w, r, err)
		return
	}
	if input.MaxPrice, err = queryDecimal(r, "max_price"); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.validator.Validate(input); err != nil {
		h.writeError(w, r, err)
		return
	}

	out, err := h.listings.SearchListings(r.Context(), input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (h *Handler) createListing(w http.ResponseWriter, r *http.Request) {
	var input listingdto.CreateListingInput
	if err := decodeJSON(r, &input); err != nil {
		h.writeError(w, r, err)
		return
	}
	input.SellerID = principal(r).UserID
	if err := h.validator.Validate(&input); err != nil {
		h.writeError(w, r, err)
		return
	}

	listing, err := h.listings.CreateListing(r.Context(), &input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, usecase.ToListingResult(listing))
}

func (h *Handler) getListing(w http.ResponseWriter, r *http.Request) {
	listing, err := h.listings.GetListing(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, usecase.ToListingResult(listing))
}

func (h *Handler) updateListing(w http.ResponseWriter, r *http.Request) {
	var input listingdto.UpdateListingInput
	if err := decodeJSON(r, &input); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.validator.Validate(&input); err != nil {
		h.writeError(w, r, err)
		return
	}

	listing, err := h.listings.UpdateListing(r.Context(), principal(r).UserID, r.PathValue("id"), &input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, usecase.ToListingResult(listing))
}

func (h *Handler) withdrawListing(w http.ResponseWriter, r *http.Request) {
	if err := h.listings.WithdrawListing(r.Context(), principal(r).UserID, r.PathValue("id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ============= Bundles =============

type createBundleRequest struct {
	Title           string          `json:"title" validate:"required,max=200"`
	ListingIDs      []string        `json:"listing_ids" validate:"required,min=2,max=50"`
	DiscountPercent decimal.Decimal `json:"discount_percent" validate:"gte=0,lte=50"`
}

func (h *Handler) createBundle(w http.ResponseWriter, r *http.Request) {
	var req createBundleRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		h.writeError(w, r, err)
		return
	}

	view, err := h.bundles.CreateBundle(r.Context(), principal(r).UserID, req.Title, req.ListingIDs, req.DiscountPercent)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, view)
}

func (h *Handler) getBundle(w http.ResponseWriter, r *http.Request) {
	view, err := h.bundles.GetBundle(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) withdrawBundle(w http.ResponseWriter, r *http.Request) {
	if err := h.bundles.WithdrawBundle(r.Context(), principal(r).UserID, r.PathValue("id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ============= Orders =============

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	userID := principal(r).UserID
	filter := domain.OrderFilter{
		Page:  queryInt(r, "page", 1),
		Limit: queryInt(r, "limit", 20),
	}
	// role=seller lists sales, anything else purchases
	if r.URL.Query().Get("role") == "seller" {
		filter.SellerID = &userID
	} else {
		filter.BuyerID = &userID
	}
	if status := queryString(r, "status"); status != nil {
		s := domain.OrderStatus(*status)
		filter.Status = &s
	}

	orders, total, err := h.orders.GetOrders(r.Context(), filter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]*orderdto.OrderOutput, 0, len(orders))
	for _, o := range orders {
		out = append(out, orderdto.ToOrderOutput(o, false))
	}
	writeJSON(w, http.StatusOK, newPage(out, total, filter.Page, filter.Limit))
}

func (h *Handler) placeOrder(r *http.Request, input *orderdto.CreateOrderInput, channel domain.OrderChannel) (*domain.Order, error) {
	input.BuyerID = principal(r).UserID
	input.Channel = channel
	input.CheckoutSessionID = ""
	if err := h.validator.Validate(input); err != nil {
		return nil, err
	}
	return h.orders.CreateOrder(r.Context(), input)
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	var input orderdto.CreateOrderInput
	if err := decodeJSON(r, &input); err != nil {
		h.writeError(w, r, err)
		return
	}
	order, err := h.placeOrder(r, &input, domain.ChannelWeb)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, orderdto.ToOrderOutput(order, true))
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	p := principal(r)
	order, err := h.orders.GetOrderForUser(r.Context(), p.UserID, r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orderdto.ToOrderOutput(order, order.BuyerID == p.UserID))
}

func (h *Handler) shipOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.ShipOrder(r.Context(), principal(r).UserID, r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orderdto.ToOrderOutput(order, false))
}

func (h *Handler) markDelivered(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.MarkDelivered(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orderdto.ToOrderOutput(order, false))
}

func (h *Handler) completeOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.CompleteOrder(r.Context(), principal(r).UserID, r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orderdto.ToOrderOutput(order, false))
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	order, err := h.orders.CancelOrder(r.Context(), principal(r).UserID, r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orderdto.ToOrderOutput(order, false))
}

type rateOrderRequest struct {
	Score   int    `json:"score" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=1000"`
}

func (h *Handler) rateOrder(w http.ResponseWriter, r *http.Request) {
	var req rateOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		h.writeError(w, r, err)
		return
	}

	rating, err := h.ratings.RateOrder(r.Context(), principal(r).UserID, r.PathValue("id"), req.Score, req.Comment)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rating)
}

// ============= Disputes =============

func (h *Handler) openDispute(w http.ResponseWriter, r *http.Request) {
	var input disputedto.OpenDisputeInput
	if err := decodeJSON(r, &input); err != nil {
		h.writeError(w, r, err)
		return
	}
	input.BuyerID = principal(r).UserID
	if err := h.validator.Validate(&input); err != nil {
		h.writeError(w, r, err)
		return
	}

	dispute, err := h.disputes.OpenDispute(r.Context(), &input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, dispute)
}

// canSeeDispute: the parties and operators.
func canSeeDispute(p *domain.Principal, d *domain.Dispute) bool {
	return p.UserID == d.BuyerID || p.UserID == d.SellerID || p.HasScope(domain.ScopeAdmin)
}

func (h *Handler) getDispute(w http.ResponseWriter, r *http.Request) {
	dispute, err := h.disputes.GetDisputeByID(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if !canSeeDispute(principal(r), dispute) {
		h.writeError(w, r, domain.ErrNotFound)
		return
	}
	writeJSON(w, http.StatusOK, dispute)
}

func (h *Handler) listDisputes(w http.ResponseWriter, r *http.Request) {
	p := principal(r)
	filter := domain.GetDisputesFilter{
		OrderID: queryString(r, "order_id"),
		Page:    queryInt(r, "page", 1),
		Limit:   queryInt(r, "limit", 20),
	}
	if status := queryString(r, "status"); status != nil {
		s := domain.DisputeStatus(*status)
		filter.Status = &s
	}
	if !p.HasScope(domain.ScopeAdmin) {
		if r.URL.Query().Get("role") == "seller" {
			filter.SellerID = &p.UserID
		} else {
			filter.BuyerID = &p.UserID
		}
	}

	disputes, total, err := h.disputes.GetDisputes(r.Context(), filter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPage(disputes, total, filter.Page, filter.Limit))
}

type respondDisputeRequest struct {
	Response string `json:"response" validate:"required,max=2000"`
}

func (h *Handler) respondDispute(w http.ResponseWriter, r *http.Request) {
	var req respondDisputeRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		h.writeError(w, r, err)
		return
	}

	dispute, err := h.disputes.RespondToDispute(r.Context(), principal(r).UserID, r.PathValue("id"), req.Response)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dispute)
}

func (h *Handler) resolveDispute(w http.ResponseWriter, r *http.Request) {
	var input disputedto.ResolveDisputeInput
	if err := decodeJSON(r, &input); err != nil {
		h.writeError(w, r, err)
		return
	}
	input.DisputeID = r.PathValue("id")
	input.ResolvedBy = principal(r).UserID

	dispute, err := h.disputes.ResolveDispute(r.Context(), &input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, dispute)
}

// ============= Wallet and payouts =============

func (h *Handler) walletBalance(w http.ResponseWriter, r *http.Request) {
	balance, err := h.wallet.GetBalance(r.Context(), principal(r).UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, balance)
}

func (h *Handler) listPayouts(w http.ResponseWriter, r *http.Request) {
	pageNum, limit := queryInt(r, "page", 1), queryInt(r, "limit", 20)
	payouts, total, err := h.payouts.GetSellerPayouts(r.Context(), principal(r).UserID, pageNum, limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPage(payouts, total, pageNum, limit))
}

type requestPayoutRequest struct {
	// Amount defaults to the whole available balance.
	Amount *decimal.Decimal `json:"amount" validate:"omitempty,gt=0"`
	Method string           `json:"method" validate:"omitempty,oneof=standard instant"`
}

func (h *Handler) requestPayout(w http.ResponseWriter, r *http.Request) {
	var req requestPayoutRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		h.writeError(w, r, err)
		return
	}
	method := domain.PayoutMethod(req.Method)
	if method == "" {
		method = domain.PayoutStandard
	}

	payout, err := h.payouts.RequestPayout(r.Context(), principal(r).UserID, req.Amount, method)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusAccepted, payout)
}

// ============= Fraud =============

func (h *Handler) listFlags(w http.ResponseWriter, r *http.Request) {
	filter := domain.FraudFlagFilter{
		UserID: queryString(r, "user_id"),
		Page:   queryInt(r, "page", 1),
		Limit:  queryInt(r, "limit", 20),
	}
	if status := queryString(r, "status"); status != nil {
		s := domain.FraudFlagStatus(*status)
		filter.Status = &s
	}

	flags, total, err := h.antifraud.GetFlags(r.Context(), filter)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPage(flags, total, filter.Page, filter.Limit))
}

type raiseFlagRequest struct {
	UserID   string `json:"user_id" validate:"required"`
	Reason   string `json:"reason" validate:"required,max=500"`
	Severity string `json:"severity" validate:"required,oneof=low medium high"`
}

func (h *Handler) raiseFlag(w http.ResponseWriter, r *http.Request) {
	var req raiseFlagRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		h.writeError(w, r, err)
		return
	}

	flag, err := h.antifraud.RaiseFlag(r.Context(), req.UserID, req.Reason, domain.FraudSeverity(req.Severity))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, flag)
}

type reviewFlagRequest struct {
	Dismiss bool `json:"dismiss"`
}

func (h *Handler) reviewFlag(w http.ResponseWriter, r *http.Request) {
	var req reviewFlagRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	flag, err := h.antifraud.ReviewFlag(r.Context(), r.PathValue("id"), principal(r).UserID, req.Dismiss)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, flag)
}

func (h *Handler) listRules(w http.ResponseWriter, r *http.Request) {
	rules, err := h.antifraud.GetRules(r.Context(), r.URL.Query().Get("active") == "true")
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if rules == nil {
		rules = []*domain.FraudRule{}
	}
	writeJSON(w, http.StatusOK, rules)
}

func (h *Handler) createRule(w http.ResponseWriter, r *http.Request) {
	var req usecase.CreateRuleRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		h.writeError(w, r, err)
		return
	}

	rule, err := h.antifraud.CreateRule(r.Context(), &req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, rule)
}

func (h *Handler) updateRule(w http.ResponseWriter, r *http.Request) {
	var req usecase.UpdateRuleRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	req.RuleID = r.PathValue("id")
	if err := h.validator.Validate(&req); err != nil {
		h.writeError(w, r, err)
		return
	}

	if err := h.antifraud.UpdateRule(r.Context(), &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	rule, err := h.antifraud.GetRule(r.Context(), req.RuleID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rule)
}

func (h *Handler) deleteRule(w http.ResponseWriter, r *http.Request) {
	if err := h.antifraud.DeleteRule(r.Context(), r.PathValue("id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) checkUser(w http.ResponseWriter, r *http.Request) {
	report, err := h.antifraud.ProcessUserCheck(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func (h *Handler) userAudit(w http.ResponseWriter, r *http.Request) {
	logs, err := h.antifraud.GetUserAuditHistory(r.Context(), r.PathValue("id"), queryInt(r, "limit", 50))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if logs == nil {
		logs = []*domain.FraudAuditLog{}
	}
	writeJSON(w, http.StatusOK, logs)
}

// ============= API keys =============

type apiKeyView struct {
	ID                 string            `json:"id"`
	Name               string            `json:"name"`
	Prefix             string            `json:"prefix"`
	Scopes             []domain.APIScope `json:"scopes"`
	RateLimitPerMinute int               `json:"rate_limit_per_minute"`
	LastUsedAt         *time.Time        `json:"last_used_at,omitempty"`
	RevokedAt          *time.Time        `json:"revoked_at,omitempty"`
	CreatedAt          time.Time         `json:"created_at"`
	// Token is only present in the issue response.
	Token string `json:"token,omitempty"`
}

func toAPIKeyView(k *domain.APIKey) apiKeyView {
	return apiKeyView{
		ID:                 k.ID,
		Name:               k.Name,
		Prefix:             k.Prefix,
		Scopes:             k.Scopes,
		RateLimitPerMinute: k.RateLimitPerMinute,
		LastUsedAt:         k.LastUsedAt,
		RevokedAt:          k.RevokedAt,
		CreatedAt:          k.CreatedAt,
	}
}

func (h *Handler) listAPIKeys(w http.ResponseWriter, r *http.Request) {
	keys, err := h.apiKeys.ListAPIKeys(r.Context(), principal(r).UserID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	out := make([]apiKeyView, 0, len(keys))
	for _, k := range keys {
		out = append(out, toAPIKeyView(k))
	}
	writeJSON(w, http.StatusOK, out)
}

type issueAPIKeyRequest struct {
	Name               string   `json:"name" validate:"required,max=100"`
	Scopes             []string `json:"scopes" validate:"max=3,dive,scope"`
	RateLimitPerMinute int      `json:"rate_limit_per_minute" validate:"gte=0,lte=10000"`
}

// issueAPIKey never grants a scope the calling key does not hold.
func (h *Handler) issueAPIKey(w http.ResponseWriter, r *http.Request) {
	var req issueAPIKeyRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		h.writeError(w, r, err)
		return
	}

	p := principal(r)
	scopes := make([]domain.APIScope, 0, len(req.Scopes))
	for _, s := range req.Scopes {
		scope := domain.APIScope(s)
		if !p.HasScope(scope) {
			h.writeError(w, r, domain.ErrForbidden)
			return
		}
		scopes = append(scopes, scope)
	}

	key, token, err := h.apiKeys.IssueAPIKey(r.Context(), p.UserID, req.Name, scopes, req.RateLimitPerMinute)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	view := toAPIKeyView(key)
	view.Token = token
	writeJSON(w, http.StatusCreated, view)
}

func (h *Handler) revokeAPIKey(w http.ResponseWriter, r *http.Request) {
	if err := h.apiKeys.RevokeAPIKey(r.Context(), principal(r).UserID, r.PathValue("id")); err != nil {
		h.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
