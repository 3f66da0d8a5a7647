package domain

import (
	"context"
	"time"
)

type CheckoutStatus string

const (
	CheckoutOpen      CheckoutStatus = "open"
	CheckoutCompleted CheckoutStatus = "completed"
	CheckoutCancelled CheckoutStatus = "cancelled"
	CheckoutExpired   CheckoutStatus = "expired"
)

// CheckoutSession is an agent-driven purchase that has been priced but not yet paid.
type CheckoutSession struct {
	ID              string
	BuyerID         string
	SellerID        string
	ListingIDs      []string
	BundleID        string
	Fees            FeeBreakdown
	Currency        string
	Status          CheckoutStatus
	OrderID         string
	ShippingAddress Address
	CallbackURL     string
	ExpiresAt       time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

type CheckoutSessionRepository interface {
	CreateSession(ctx context.Context, session *CheckoutSession) error
	GetSessionByID(ctx context.Context, sessionID string) (*CheckoutSession, error)
	UpdateSession(ctx context.Context, session *CheckoutSession) error
}

// IdempotencyStore remembers responses keyed by client supplied idempotency keys.
type IdempotencyStore interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	// Reserve claims key; false when another request already holds it.
	Reserve(ctx context.Context, key string, ttl time.Duration) (bool, error)
	Save(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Release(ctx context.Context, key string) error
}
