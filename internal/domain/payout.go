package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type PayoutStatus string

const (
	PayoutPending    PayoutStatus = "pending"
	PayoutProcessing PayoutStatus = "processing"
	PayoutCompleted  PayoutStatus = "completed"
	PayoutFailed     PayoutStatus = "failed"
)

type PayoutMethod string

const (
	PayoutStandard PayoutMethod = "standard"
	PayoutInstant  PayoutMethod = "instant"
)

type Payout struct {
	ID            string          `json:"id"`
	SellerID      string          `json:"seller_id"`
	Amount        decimal.Decimal `json:"amount"`
	Fee           decimal.Decimal `json:"fee"`
	NetAmount     decimal.Decimal `json:"net_amount"`
	Currency      string          `json:"currency"`
	Method        PayoutMethod    `json:"method"`
	Status        PayoutStatus    `json:"status"`
	TransferID    string          `json:"transfer_id,omitempty"`
	FailureReason string          `json:"failure_reason,omitempty"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	CompletedAt   *time.Time      `json:"completed_at,omitempty"`
}

type PayoutRepository interface {
	CreatePayout(ctx context.Context, payout *Payout) error
	GetPayoutByID(ctx context.Context, payoutID string) (*Payout, error)
	UpdatePayout(ctx context.Context, payout *Payout) error
	// ClaimPayout moves a pending payout to processing; false when another worker holds it.
	ClaimPayout(ctx context.Context, payoutID string) (bool, error)
	SumPayouts(ctx context.Context, sellerID string) (decimal.Decimal, error)
	GetSellerPayouts(ctx context.Context, sellerID string, page, limit int) ([]*Payout, int64, error)
	FindPendingPayouts(ctx context.Context, limit int) ([]*Payout, error)
	// ReleaseStalePayouts returns processing payouts untouched since olderThan to pending.
	ReleaseStalePayouts(ctx context.Context, olderThan time.Time) (int64, error)
}

type WalletBalance struct {
	SellerID  string          `json:"seller_id"`
	Pending   decimal.Decimal `json:"pending"`
	Available decimal.Decimal `json:"available"`
	PaidOut   decimal.Decimal `json:"paid_out"`
	Currency  string          `json:"currency"`
}
