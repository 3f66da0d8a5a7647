package httpapi

import (
	"context"
	"net/http"

	"github.com/LavaJover/shvark-market-service/internal/domain"
	"github.com/LavaJover/shvark-market-service/internal/usecase"
	"github.com/shopspring/decimal"
)

// ============= Fees =============

type calculateFeesRequest struct {
	BuyerTier         string          `json:"buyer_tier" validate:"omitempty,oneof=free pro"`
	SellerTier        string          `json:"seller_tier" validate:"omitempty,oneof=free pro"`
	ItemPrice         decimal.Decimal `json:"item_price" validate:"gte=0"`
	SellerRiskTier    string          `json:"seller_risk_tier" validate:"omitempty,oneof=A B C"`
	BuyerMonthlyGMV   decimal.Decimal `json:"buyer_monthly_gmv" validate:"gte=0"`
	ShippingLabelCost decimal.Decimal `json:"shipping_label_cost" validate:"gte=0"`
	InstantPayout     bool            `json:"instant_payout"`
}

func (req *calculateFeesRequest) feeInput() domain.FeeInput {
	in := domain.FeeInput{
		BuyerTier:         domain.MembershipTier(req.BuyerTier),
		SellerTier:        domain.MembershipTier(req.SellerTier),
		ItemPrice:         req.ItemPrice,
		SellerRiskTier:    domain.RiskTier(req.SellerRiskTier),
		BuyerMonthlyGMV:   req.BuyerMonthlyGMV,
		ShippingLabelCost: req.ShippingLabelCost,
		InstantPayout:     req.InstantPayout,
	}
	if in.BuyerTier == "" {
		in.BuyerTier = domain.MembershipFree
	}
	if in.SellerTier == "" {
		in.SellerTier = domain.MembershipFree
	}
	if in.SellerRiskTier == "" {
		in.SellerRiskTier = domain.RiskTierA
	}
	return in
}

func (h *Handler) computeFees(req *calculateFeesRequest) (*domain.FeeBreakdown, error) {
	if err := h.validator.Validate(req); err != nil {
		return nil, err
	}
	breakdown, err := h.fees.Calculate(req.feeInput())
	if err != nil {
		return nil, err
	}
	return &breakdown, nil
}

func (h *Handler) calculateFees(w http.ResponseWriter, r *http.Request) {
	var req calculateFeesRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	breakdown, err := h.computeFees(&req)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, breakdown)
}

// ============= Scoring runs =============

// scoringRequest targets one seller; an empty body recalculates every active seller.
type scoringRequest struct {
	SellerID string `json:"seller_id" validate:"max=64"`
}

func (h *Handler) runScoring(
	w http.ResponseWriter,
	r *http.Request,
	one func(ctx context.Context, sellerID string) (interface{}, error),
	all func(ctx context.Context) (*usecase.BatchResult, error),
) {
	var req scoringRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}
	if err := h.validator.Validate(&req); err != nil {
		h.writeError(w, r, err)
		return
	}

	if req.SellerID != "" {
		result, err := one(r.Context(), req.SellerID)
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, result)
		return
	}

	batch, err := all(r.Context())
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, batch)
}

func (h *Handler) calculateRiskTiers(w http.ResponseWriter, r *http.Request) {
	h.runScoring(w, r, func(ctx context.Context, sellerID string) (interface{}, error) {
		return h.scoring.RecalculateRiskTier(ctx, sellerID)
	}, h.scoring.RecalculateAllRiskTiers)
}

func (h *Handler) calculateReputation(w http.ResponseWriter, r *http.Request) {
	h.runScoring(w, r, func(ctx context.Context, sellerID string) (interface{}, error) {
		return h.scoring.RecalculateReputation(ctx, sellerID)
	}, h.scoring.RecalculateAllReputations)
}

func (h *Handler) calculateBadges(w http.ResponseWriter, r *http.Request) {
	h.runScoring(w, r, func(ctx context.Context, sellerID string) (interface{}, error) {
		badges, err := h.scoring.RecalculateBadges(ctx, sellerID)
		if err != nil {
			return nil, err
		}
		if badges == nil {
			badges = []domain.SellerBadge{}
		}
		return map[string]interface{}{"seller_id": sellerID, "badges": badges}, nil
	}, h.scoring.RecalculateAllBadges)
}

func (h *Handler) sellerReputation(w http.ResponseWriter, r *http.Request) {
	view, err := h.scoring.GetSellerReputation(r.Context(), r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, view)
}

func (h *Handler) sellerRatings(w http.ResponseWriter, r *http.Request) {
	pageNum, limit := queryInt(r, "page", 1), queryInt(r, "limit", 20)
	ratings, total, err := h.ratings.GetSellerRatings(r.Context(), r.PathValue("id"), pageNum, limit)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, newPage(ratings, total, pageNum, limit))
}

// ============= Pricing =============

func (h *Handler) evaluate(ctx context.Context, input *usecase.EvaluatePriceInput) (*domain.PriceEvaluation, error) {
	if err := h.validator.Validate(input); err != nil {
		return nil, err
	}
	return h.pricing.EvaluatePrice(ctx, input)
}

func (h *Handler) evaluatePrice(w http.ResponseWriter, r *http.Request) {
	var input usecase.EvaluatePriceInput
	if err := decodeJSON(r, &input); err != nil {
		h.writeError(w, r, err)
		return
	}
	eval, err := h.evaluate(r.Context(), &input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, eval)
}
