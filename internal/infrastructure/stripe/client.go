package stripe

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/LavaJover/shvark-market-service/internal/domain"
	"github.com/shopspring/decimal"
	stripego "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
)

// Client implements domain.PaymentProvider on top of the Stripe API.
type Client struct {
	api           *client.API
	webhookSecret string
}

func NewClient(secretKey, webhookSecret string) *Client {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &Client{api: api, webhookSecret: webhookSecret}
}

// NewClientWithBackends is used to point the client at a test server.
func NewClientWithBackends(secretKey, webhookSecret string, backends *stripego.Backends) *Client {
	api := &client.API{}
	api.Init(secretKey, backends)
	return &Client{api: api, webhookSecret: webhookSecret}
}

// toMinorUnits converts a decimal amount to cents.
func toMinorUnits(amount decimal.Decimal) int64 {
	return amount.Round(2).Shift(2).IntPart()
}

func (c *Client) CreatePaymentIntent(ctx context.Context, orderID string, amount decimal.Decimal, currency string) (*domain.PaymentIntent, error) {
	params := &stripego.PaymentIntentParams{
		Amount:   stripego.Int64(toMinorUnits(amount)),
		Currency: stripego.String(strings.ToLower(currency)),
		AutomaticPaymentMethods: &stripego.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripego.Bool(true),
		},
	}
	params.Context = ctx
	params.AddMetadata("order_id", orderID)
	params.SetIdempotencyKey("pi-" + orderID)

	pi, err := c.api.PaymentIntents.New(params)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrPaymentFailed, err)
	}
	return &domain.PaymentIntent{
		ID:           pi.ID,
		ClientSecret: pi.ClientSecret,
		Status:       string(pi.Status),
	}, nil
}

func (c *Client) CancelPaymentIntent(ctx context.Context, paymentIntentID string) error {
	params := &stripego.PaymentIntentCancelParams{}
	params.Context = ctx
	if _, err := c.api.PaymentIntents.Cancel(paymentIntentID, params); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrPaymentFailed, err)
	}
	return nil
}

// Refund returns the refund id. A zero amount refunds the full charge.
func (c *Client) Refund(ctx context.Context, paymentIntentID string, amount decimal.Decimal) (string, error) {
	params := &stripego.RefundParams{
		PaymentIntent: stripego.String(paymentIntentID),
	}
	if amount.IsPositive() {
		params.Amount = stripego.Int64(toMinorUnits(amount))
	}
	params.Context = ctx
	params.SetIdempotencyKey("refund-" + paymentIntentID)

	refund, err := c.api.Refunds.New(params)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrPaymentFailed, err)
	}
	return refund.ID, nil
}

func (c *Client) Transfer(ctx context.Context, destinationAccount string, amount decimal.Decimal, currency, idempotencyKey string) (string, error) {
	params := &stripego.TransferParams{
		Amount:      stripego.Int64(toMinorUnits(amount)),
		Currency:    stripego.String(strings.ToLower(currency)),
		Destination: stripego.String(destinationAccount),
	}
	params.Context = ctx
	params.SetIdempotencyKey(idempotencyKey)

	transfer, err := c.api.Transfers.New(params)
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrPayoutFailed, err)
	}
	return transfer.ID, nil
}

// ============= Webhooks =============

type WebhookEvent struct {
	Type            string
	PaymentIntentID string
	OrderID         string
}

var ErrInvalidSignature = errors.New("invalid stripe signature")

// ParseWebhook verifies the Stripe-Signature header and extracts the payment intent.
func (c *Client) ParseWebhook(payload []byte, signatureHeader string) (*WebhookEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signatureHeader, c.webhookSecret,
		webhook.ConstructEventOptions{IgnoreAPIVersionMismatch: true})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}

	out := &WebhookEvent{Type: string(event.Type)}
	if !strings.HasPrefix(out.Type, "payment_intent.") {
		return out, nil
	}

	var pi stripego.PaymentIntent
	if err := json.Unmarshal(event.Data.Raw, &pi); err != nil {
		return nil, fmt.Errorf("failed to decode payment intent: %w", err)
	}
	out.PaymentIntentID = pi.ID
	out.OrderID = pi.Metadata["order_id"]
	return out, nil
}
