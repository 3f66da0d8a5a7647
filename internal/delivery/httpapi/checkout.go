package httpapi

import (
	"errors"
	"io"
	"net/http"

	"github.com/LavaJover/shvark-market-service/internal/domain"
	checkoutdto "github.com/LavaJover/shvark-market-service/internal/usecase/dto/checkout"
)

// ============= ACP checkout sessions =============

// idempotencyKey scopes the Idempotency-Key header to the caller so keys never
// collide between agents.
func idempotencyKey(r *http.Request, op string) string {
	key := r.Header.Get("Idempotency-Key")
	if key == "" {
		return ""
	}
	return principal(r).UserID + ":" + op + ":" + key
}

func (h *Handler) createCheckoutSession(w http.ResponseWriter, r *http.Request) {
	var input checkoutdto.CreateSessionInput
	if err := decodeJSON(r, &input); err != nil {
		h.writeError(w, r, err)
		return
	}
	input.BuyerID = principal(r).UserID
	if err := h.validator.Validate(&input); err != nil {
		h.writeError(w, r, err)
		return
	}

	body, err := h.idempotency.Do(r.Context(), idempotencyKey(r, "create"), func() (interface{}, error) {
		return h.checkout.CreateSession(r.Context(), &input)
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeRaw(w, http.StatusCreated, body)
}

func (h *Handler) getCheckoutSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.checkout.GetSession(r.Context(), principal(r).UserID, r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

func (h *Handler) completeCheckoutSession(w http.ResponseWriter, r *http.Request) {
	sessionID := r.PathValue("id")
	body, err := h.idempotency.Do(r.Context(), idempotencyKey(r, "complete:"+sessionID), func() (interface{}, error) {
		return h.checkout.CompleteSession(r.Context(), principal(r).UserID, sessionID)
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeRaw(w, http.StatusOK, body)
}

func (h *Handler) cancelCheckoutSession(w http.ResponseWriter, r *http.Request) {
	session, err := h.checkout.CancelSession(r.Context(), principal(r).UserID, r.PathValue("id"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, session)
}

// ============= Stripe webhook =============

func (h *Handler) stripeWebhook(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxBodyBytes))
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	event, err := h.webhooks.ParseWebhook(payload, r.Header.Get("Stripe-Signature"))
	if err != nil {
		h.logger.Warn("rejected stripe webhook", "error", err)
		h.writeError(w, r, err)
		return
	}

	switch event.Type {
	case "payment_intent.succeeded":
		err = h.orders.HandlePaymentSucceeded(r.Context(), event.PaymentIntentID)
	case "payment_intent.payment_failed", "payment_intent.canceled":
		err = h.orders.HandlePaymentFailed(r.Context(), event.PaymentIntentID)
	default:
		h.logger.Debug("ignoring stripe event", "type", event.Type)
	}

	// retrying these cannot succeed later, acknowledge them
	if errors.Is(err, domain.ErrNotFound) || errors.Is(err, domain.ErrInvalidTransition) {
		h.logger.Warn("stripe webhook not applied", "type", event.Type, "payment_intent", event.PaymentIntentID, "error", err)
		err = nil
	}
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}
