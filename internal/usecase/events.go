package usecase

import (
	"log/slog"

	"github.com/LavaJover/shvark-market-service/internal/domain"
	"github.com/LavaJover/shvark-market-service/internal/infrastructure/notifier"
)

// JSONPublisher is the slice of the Kafka publisher the usecases need.
type JSONPublisher interface {
	PublishJSON(topic, key string, v interface{}) error
}

// CallbackSender delivers order status callbacks to agents.
type CallbackSender interface {
	SendCallback(callbackURL string, payload notifier.CallbackPayload)
}

// EventBus publishes domain events and never fails the calling operation.
// A nil publisher turns it into a logger.
type EventBus struct {
	publisher JSONPublisher
	logger    *slog.Logger
}

func NewEventBus(publisher JSONPublisher, logger *slog.Logger) *EventBus {
	return &EventBus{publisher: publisher, logger: logger}
}

func (b *EventBus) emit(topic, key, eventType string, v interface{}) {
	if b == nil || b.publisher == nil {
		return
	}
	if err := b.publisher.PublishJSON(topic, key, v); err != nil {
		b.logger.Error("failed to publish kafka event", "topic", topic, "type", eventType, "key", key, "error", err.Error())
	}
}

func (b *EventBus) Order(eventType string, order *domain.Order) {
	b.emit(domain.TopicOrderEvents, order.ID, eventType, domain.NewOrderEvent(eventType, order))
}

func (b *EventBus) Dispute(eventType string, dispute *domain.Dispute) {
	b.emit(domain.TopicDisputeEvents, dispute.ID, eventType, domain.NewDisputeEvent(eventType, dispute))
}

func (b *EventBus) Seller(event domain.SellerEvent) {
	b.emit(domain.TopicSellerEvents, event.SellerID, event.Type, event)
}
