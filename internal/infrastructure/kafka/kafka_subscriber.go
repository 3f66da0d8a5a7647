package publisher

import (
	"context"
	"errors"
	"log/slog"

	"github.com/LavaJover/shvark-market-service/internal/domain"
	"github.com/segmentio/kafka-go"
)

type DefaultKafkaSubscriber struct {
	ctx     context.Context
	brokers []string
	dialer  *kafka.Dialer
	logger  *slog.Logger
}

// NewDefaultKafkaSubscriber ties every reader it starts to ctx
func NewDefaultKafkaSubscriber(ctx context.Context, cfg KafkaConfig, logger *slog.Logger) (*DefaultKafkaSubscriber, error) {
	mechanism, err := cfg.saslMechanism()
	if err != nil {
		return nil, err
	}
	return &DefaultKafkaSubscriber{
		ctx:     ctx,
		brokers: cfg.Brokers,
		dialer: &kafka.Dialer{
			DualStack:     true,
			SASLMechanism: mechanism,
			TLS:           cfg.tlsConfig(),
		},
		logger: logger,
	}, nil
}

func (k *DefaultKafkaSubscriber) Subscribe(topic, groupID string) (<-chan domain.Message, error) {
	reader := kafka.NewReader(kafka.ReaderConfig{
		Brokers: k.brokers,
		Topic:   topic,
		GroupID: groupID,
		Dialer:  k.dialer,
	})
	out := make(chan domain.Message)
	go func() {
		defer close(out)
		defer reader.Close()
		for {
			m, err := reader.ReadMessage(k.ctx)
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					k.logger.Error("Kafka reader stopped", "topic", topic, "error", err)
				}
				return
			}
			select {
			case out <- domain.Message{Key: m.Key, Value: m.Value}:
			case <-k.ctx.Done():
				return
			}
		}
	}()
	return out, nil
}
