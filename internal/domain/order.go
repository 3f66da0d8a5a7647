package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	StatusPendingPayment OrderStatus = "pending_payment"
	StatusPaid           OrderStatus = "paid"
	StatusShipped        OrderStatus = "shipped"
	StatusDelivered      OrderStatus = "delivered"
	StatusCompleted      OrderStatus = "completed"
	StatusCancelled      OrderStatus = "cancelled"
	StatusDisputed       OrderStatus = "disputed"
	StatusRefunded       OrderStatus = "refunded"
)

var orderTransitions = map[OrderStatus][]OrderStatus{
	StatusPendingPayment: {StatusPaid, StatusCancelled},
	StatusPaid:           {StatusShipped, StatusCancelled, StatusDisputed},
	StatusShipped:        {StatusDelivered, StatusDisputed},
	StatusDelivered:      {StatusCompleted, StatusDisputed},
	StatusDisputed:       {StatusCompleted, StatusRefunded},
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Terminal statuses accept no further transitions.
func (s OrderStatus) Terminal() bool {
	return len(orderTransitions[s]) == 0
}

type OrderChannel string

const (
	ChannelWeb OrderChannel = "web"
	ChannelMCP OrderChannel = "mcp"
	ChannelACP OrderChannel = "acp"
)

type OrderItem struct {
	ListingID string          `json:"listing_id"`
	Title     string          `json:"title"`
	Price     decimal.Decimal `json:"price"`
}

type Order struct {
	ID              string
	BuyerID         string
	SellerID        string
	BundleID        string
	Items           []OrderItem
	Channel         OrderChannel
	Currency        string
	Fees            FeeBreakdown
	Status          OrderStatus
	CancelledBy     string
	PaymentIntentID string
	ClientSecret    string
	ShippingAddress Address
	Shipment        *Shipment
	CallbackURL     string
	PaidAt          *time.Time
	ShippedAt       *time.Time
	DeliveredAt     *time.Time
	CompletedAt     *time.Time
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

func (o *Order) ListingIDs() []string {
	ids := make([]string, 0, len(o.Items))
	for _, item := range o.Items {
		ids = append(ids, item.ListingID)
	}
	return ids
}

type OrderFilter struct {
	BuyerID  *string
	SellerID *string
	Status   *OrderStatus
	Page     int
	Limit    int
}

type OrderRepository interface {
	CreateOrder(ctx context.Context, order *Order) error
	GetOrderByID(ctx context.Context, orderID string) (*Order, error)
	GetOrderByPaymentIntentID(ctx context.Context, paymentIntentID string) (*Order, error)
	// UpdateOrderStatus is a compare-and-set on status. It returns
	// ErrInvalidTransition when the order is no longer in from.
	UpdateOrderStatus(ctx context.Context, orderID string, from, to OrderStatus) error
	CancelOrder(ctx context.Context, orderID string, from OrderStatus, cancelledBy string) error
	SetPaymentIntent(ctx context.Context, orderID, paymentIntentID, clientSecret string) error
	SetShipment(ctx context.Context, orderID string, shipment *Shipment) error
	FindOrders(ctx context.Context, filter OrderFilter) ([]*Order, int64, error)
	FindStalePendingOrders(ctx context.Context, olderThan time.Time) ([]*Order, error)
	BuyerMonthlyGMV(ctx context.Context, buyerID string, since time.Time) (decimal.Decimal, error)
	SellerBalances(ctx context.Context, sellerID string) (pending, completed decimal.Decimal, err error)
}

// ============= Payments =============

type PaymentIntent struct {
	ID           string
	ClientSecret string
	Status       string
}

// PaymentProvider is the card processor used for buyer charges, refunds and seller transfers.
type PaymentProvider interface {
	CreatePaymentIntent(ctx context.Context, orderID string, amount decimal.Decimal, currency string) (*PaymentIntent, error)
	CancelPaymentIntent(ctx context.Context, paymentIntentID string) error
	Refund(ctx context.Context, paymentIntentID string, amount decimal.Decimal) (string, error)
	Transfer(ctx context.Context, destinationAccount string, amount decimal.Decimal, currency, idempotencyKey string) (string, error)
}
