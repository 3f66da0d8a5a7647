package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	EventOrderCreated   = "order.created"
	EventOrderPaid      = "order.paid"
	EventOrderShipped   = "order.shipped"
	EventOrderDelivered = "order.delivered"
	EventOrderCompleted = "order.completed"
	EventOrderCancelled = "order.cancelled"
	EventOrderDisputed  = "order.disputed"
	EventOrderRefunded  = "order.refunded"

	EventDisputeOpened    = "dispute.opened"
	EventDisputeResponded = "dispute.responded"
	EventDisputeResolved  = "dispute.resolved"

	EventSellerRescored        = "seller.rescored"
	EventSellerRiskTierChanged = "seller.risk_tier_changed"
	EventSellerBadgesChanged   = "seller.badges_changed"
	EventSellerFlagged         = "seller.flagged"
)

type OrderEvent struct {
	Type       string          `json:"type"`
	OrderID    string          `json:"order_id"`
	BuyerID    string          `json:"buyer_id"`
	SellerID   string          `json:"seller_id"`
	Status     string          `json:"status"`
	BuyerTotal decimal.Decimal `json:"buyer_total"`
	SellerNet  decimal.Decimal `json:"seller_net"`
	Currency   string          `json:"currency"`
	Channel    string          `json:"channel"`
	OccurredAt time.Time       `json:"occurred_at"`
}

func NewOrderEvent(eventType string, order *Order) OrderEvent {
	return OrderEvent{
		Type:       eventType,
		OrderID:    order.ID,
		BuyerID:    order.BuyerID,
		SellerID:   order.SellerID,
		Status:     string(order.Status),
		BuyerTotal: order.Fees.BuyerTotal,
		SellerNet:  order.Fees.SellerNet,
		Currency:   order.Currency,
		Channel:    string(order.Channel),
		OccurredAt: time.Now(),
	}
}

type DisputeEvent struct {
	Type       string    `json:"type"`
	DisputeID  string    `json:"dispute_id"`
	OrderID    string    `json:"order_id"`
	BuyerID    string    `json:"buyer_id"`
	SellerID   string    `json:"seller_id"`
	ProofUrl   string    `json:"proof_url"`
	Reason     string    `json:"reason"`
	Status     string    `json:"status"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewDisputeEvent(eventType string, d *Dispute) DisputeEvent {
	return DisputeEvent{
		Type:       eventType,
		DisputeID:  d.ID,
		OrderID:    d.OrderID,
		BuyerID:    d.BuyerID,
		SellerID:   d.SellerID,
		ProofUrl:   d.ProofUrl,
		Reason:     string(d.Reason),
		Status:     string(d.Status),
		OccurredAt: time.Now(),
	}
}

type SellerEvent struct {
	Type              string    `json:"type"`
	SellerID          string    `json:"seller_id"`
	RiskTier          string    `json:"risk_tier,omitempty"`
	ReputationScore   int       `json:"reputation_score,omitempty"`
	VerificationLevel string    `json:"verification_level,omitempty"`
	Badges            []string  `json:"badges,omitempty"`
	OccurredAt        time.Time `json:"occurred_at"`
}
