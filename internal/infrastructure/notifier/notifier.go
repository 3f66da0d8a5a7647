package notifier

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"time"
)

const (
	SignatureHeader = "X-Market-Signature"
	TimestampHeader = "X-Market-Timestamp"
)

// CallbackNotifier delivers signed order status callbacks to agents.
type CallbackNotifier struct {
	client *http.Client
	secret []byte
	logger *slog.Logger
}

func NewCallbackNotifier(secret string, timeout time.Duration, logger *slog.Logger) *CallbackNotifier {
	return &CallbackNotifier{
		client: &http.Client{Timeout: timeout},
		secret: []byte(secret),
		logger: logger,
	}
}

// Sign returns the hex HMAC-SHA256 of "<timestamp>.<body>".
func Sign(secret []byte, timestamp string, body []byte) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(timestamp))
	mac.Write([]byte("."))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks a signature produced by Sign in constant time.
func Verify(secret []byte, timestamp string, body []byte, signature string) bool {
	expected := Sign(secret, timestamp, body)
	return hmac.Equal([]byte(expected), []byte(signature))
}

// Send posts payload synchronously and returns an error for non-2xx responses.
func (n *CallbackNotifier) Send(ctx context.Context, callbackURL string, payload CallbackPayload) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal callback: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, callbackURL, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to create callback request: %w", err)
	}

	timestamp := strconv.FormatInt(time.Now().Unix(), 10)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set(TimestampHeader, timestamp)
	req.Header.Set(SignatureHeader, Sign(n.secret, timestamp, body))

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("callback failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("callback returned status %d", resp.StatusCode)
	}
	return nil
}

// SendCallback fires the callback in the background and only logs the outcome.
func (n *CallbackNotifier) SendCallback(callbackURL string, payload CallbackPayload) {
	if callbackURL == "" {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), n.client.Timeout+time.Second)
		defer cancel()
		if err := n.Send(ctx, callbackURL, payload); err != nil {
			n.logger.Warn("Agent callback failed", "url", callbackURL, "order_id", payload.OrderID, "error", err)
			return
		}
		n.logger.Info("Agent callback sent", "url", callbackURL, "order_id", payload.OrderID, "status", payload.Status)
	}()
}
