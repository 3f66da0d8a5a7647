package domain

import (
	"context"
	"time"
)

type DisputeStatus string

const (
	DisputeOpened         DisputeStatus = "opened"
	DisputeResponded      DisputeStatus = "responded"
	DisputeResolvedBuyer  DisputeStatus = "resolved_buyer"
	DisputeResolvedSeller DisputeStatus = "resolved_seller"
)

func (s DisputeStatus) Resolved() bool {
	return s == DisputeResolvedBuyer || s == DisputeResolvedSeller
}

type DisputeReason string

const (
	ReasonNotReceived    DisputeReason = "not_received"
	ReasonNotAsDescribed DisputeReason = "not_as_described"
	ReasonCounterfeit    DisputeReason = "counterfeit"
	ReasonDamaged        DisputeReason = "damaged"
	ReasonOther          DisputeReason = "other"
)

type Dispute struct {
	ID                  string        `json:"id"`
	OrderID             string        `json:"order_id"`
	BuyerID             string        `json:"buyer_id"`
	SellerID            string        `json:"seller_id"`
	Reason              DisputeReason `json:"reason"`
	Description         string        `json:"description"`
	ProofUrl            string        `json:"proof_url,omitempty"`
	SellerResponse      string        `json:"seller_response,omitempty"`
	OrderStatusOriginal OrderStatus   `json:"order_status_original"`
	Status              DisputeStatus `json:"status"`
	Ttl                 time.Duration `json:"-"`
	AutoResolveAt       time.Time     `json:"auto_resolve_at"`
	ResolvedAt          *time.Time    `json:"resolved_at,omitempty"`
	RefundID            string        `json:"refund_id,omitempty"`
	CreatedAt           time.Time     `json:"created_at"`
	UpdatedAt           time.Time     `json:"updated_at"`
}

type GetDisputesFilter struct {
	DisputeID *string
	OrderID   *string
	SellerID  *string
	BuyerID   *string
	Status    *DisputeStatus
	Page      int
	Limit     int
}

type DisputeRepository interface {
	CreateDispute(ctx context.Context, dispute *Dispute) error
	UpdateDispute(ctx context.Context, dispute *Dispute) error
	DeleteDispute(ctx context.Context, disputeID string) error
	GetDisputeByID(ctx context.Context, disputeID string) (*Dispute, error)
	GetDisputeByOrderID(ctx context.Context, orderID string) (*Dispute, error)
	FindExpiredDisputes(ctx context.Context, now time.Time) ([]*Dispute, error)
	GetDisputes(ctx context.Context, filter GetDisputesFilter) ([]*Dispute, int64, error)
}
