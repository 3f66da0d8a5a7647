package notifier

import (
	"time"

	"github.com/shopspring/decimal"
)

// CallbackPayload is posted to an agent's callback URL whenever one of its orders changes status.
type CallbackPayload struct {
	Event             string          `json:"event"`
	OrderID           string          `json:"order_id"`
	CheckoutSessionID string          `json:"checkout_session_id,omitempty"`
	Status            string          `json:"status"`
	BuyerTotal        decimal.Decimal `json:"buyer_total"`
	Currency          string          `json:"currency"`
	TrackingNumber    string          `json:"tracking_number,omitempty"`
	TrackingURL       string          `json:"tracking_url,omitempty"`
	OccurredAt        time.Time       `json:"occurred_at"`
}
