package notifier

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendSignsBody(t *testing.T) {
	secret := "whsec_test"
	var gotBody []byte
	var gotSig, gotTs string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotBody, _ = io.ReadAll(r.Body)
		gotSig = r.Header.Get(SignatureHeader)
		gotTs = r.Header.Get(TimestampHeader)
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	n := NewCallbackNotifier(secret, time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
	err := n.Send(context.Background(), srv.URL, CallbackPayload{
		Event:      "order.paid",
		OrderID:    "o-1",
		Status:     "paid",
		BuyerTotal: decimal.RequireFromString("10.80"),
		Currency:   "eur",
	})
	require.NoError(t, err)

	assert.NotEmpty(t, gotTs)
	assert.True(t, Verify([]byte(secret), gotTs, gotBody, gotSig))
	assert.False(t, Verify([]byte("other"), gotTs, gotBody, gotSig))
}

func TestSendNon2xx(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	n := NewCallbackNotifier("s", time.Second, slog.New(slog.NewTextHandler(io.Discard, nil)))
	err := n.Send(context.Background(), srv.URL, CallbackPayload{OrderID: "o-1"})
	assert.ErrorContains(t, err, "502")
}
