package usecase

import (
	"context"
	"log/slog"
	"time"

	"github.com/LavaJover/shvark-market-service/internal/domain"
	"github.com/LavaJover/shvark-market-service/internal/infrastructure/logger"
	"github.com/LavaJover/shvark-market-service/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-market-service/internal/infrastructure/notifier"
	orderdto "github.com/LavaJover/shvark-market-service/internal/usecase/dto/order"
	"github.com/LavaJover/shvark-market-service/internal/usecase/fees"
)

type OrderUsecase interface {
	PriceOrder(ctx context.Context, buyerID string, listingIDs []string, bundleID string, to domain.Address) (*OrderDraft, error)
	CreateOrder(ctx context.Context, input *orderdto.CreateOrderInput) (*domain.Order, error)

	HandlePaymentSucceeded(ctx context.Context, paymentIntentID string) error
	HandlePaymentFailed(ctx context.Context, paymentIntentID string) error

	ShipOrder(ctx context.Context, sellerID, orderID string) (*domain.Order, error)
	MarkDelivered(ctx context.Context, orderID string) (*domain.Order, error)
	CompleteOrder(ctx context.Context, buyerID, orderID string) (*domain.Order, error)
	CancelOrder(ctx context.Context, actorID, orderID string) (*domain.Order, error)
	CancelStalePendingOrders(ctx context.Context) (int, error)

	GetOrderByID(ctx context.Context, orderID string) (*domain.Order, error)
	GetOrderForUser(ctx context.Context, userID, orderID string) (*domain.Order, error)
	GetOrders(ctx context.Context, filter domain.OrderFilter) ([]*domain.Order, int64, error)
}

// RiskTierSource returns a seller's current risk tier.
type RiskTierSource interface {
	GetRiskTier(ctx context.Context, sellerID string) (domain.RiskTier, error)
}

// OrderUsecaseDeps groups the collaborators of DefaultOrderUsecase.
// Events, Callbacks, PurchaseLog and Metrics may be nil.
type OrderUsecaseDeps struct {
	OrderRepo   domain.OrderRepository
	ListingRepo domain.ListingRepository
	BundleRepo  domain.BundleRepository
	ProfileRepo domain.ProfileRepository
	FlagRepo    domain.FraudFlagRepository
	RiskTiers   RiskTierSource
	Payments    domain.PaymentProvider
	Shipping    domain.ShippingProvider
	Calculator  *fees.Calculator
	Wallet      WalletUsecase
	Events      *EventBus
	Callbacks   CallbackSender
	PurchaseLog logger.PurchaseEventLogger
	Metrics     *metrics.MarketMetrics
	Logger      *slog.Logger

	PendingPaymentTTL time.Duration
}

type DefaultOrderUsecase struct {
	OrderUsecaseDeps
	now func() time.Time
}

func NewDefaultOrderUsecase(deps OrderUsecaseDeps) *DefaultOrderUsecase {
	if deps.Calculator == nil {
		deps.Calculator = fees.NewCalculator(fees.DefaultSchedule())
	}
	if deps.PendingPaymentTTL <= 0 {
		deps.PendingPaymentTTL = 30 * time.Minute
	}
	return &DefaultOrderUsecase{OrderUsecaseDeps: deps, now: time.Now}
}

// notify fires the agent callback for orders created with a callback URL.
func (uc *DefaultOrderUsecase) notify(eventType string, order *domain.Order) {
	if uc.Callbacks == nil || order.CallbackURL == "" {
		return
	}
	payload := notifier.CallbackPayload{
		Event:      eventType,
		OrderID:    order.ID,
		Status:     string(order.Status),
		BuyerTotal: order.Fees.BuyerTotal,
		Currency:   order.Currency,
		OccurredAt: uc.now(),
	}
	if order.Shipment != nil {
		payload.TrackingNumber = order.Shipment.TrackingNumber
		payload.TrackingURL = order.Shipment.TrackingURL
	}
	uc.Callbacks.SendCallback(order.CallbackURL, payload)
}

// announce publishes the event, fires the callback and drops cached balances.
func (uc *DefaultOrderUsecase) announce(ctx context.Context, eventType string, order *domain.Order) {
	uc.Events.Order(eventType, order)
	uc.notify(eventType, order)
	if uc.Wallet != nil {
		uc.Wallet.Invalidate(ctx, order.SellerID)
	}
}
