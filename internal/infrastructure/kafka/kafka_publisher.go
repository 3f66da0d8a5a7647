package publisher

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/LavaJover/shvark-market-service/internal/domain"
	"github.com/segmentio/kafka-go"
)

type DefaultKafkaPublisher struct {
	writer *kafka.Writer
	logger *slog.Logger
}

func NewDefaultKafkaPublisher(cfg KafkaConfig, logger *slog.Logger) (*DefaultKafkaPublisher, error) {
	mechanism, err := cfg.saslMechanism()
	if err != nil {
		return nil, err
	}
	return &DefaultKafkaPublisher{
		writer: &kafka.Writer{
			Addr:                   kafka.TCP(cfg.Brokers...),
			Balancer:               &kafka.LeastBytes{},
			AllowAutoTopicCreation: true,
			Transport: &kafka.Transport{
				SASL: mechanism,
				TLS:  cfg.tlsConfig(),
			},
		},
		logger: logger,
	}, nil
}

func (k *DefaultKafkaPublisher) Publish(topic string, msgs ...domain.Message) error {
	km := make([]kafka.Message, 0, len(msgs))
	for _, m := range msgs {
		km = append(km, kafka.Message{
			Key:   m.Key,
			Value: m.Value,
			Time:  time.Now(),
			Topic: topic,
		})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return k.writer.WriteMessages(ctx, km...)
}

// PublishJSON marshals v and publishes it under key
func (k *DefaultKafkaPublisher) PublishJSON(topic, key string, v interface{}) error {
	value, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return k.Publish(topic, domain.Message{Key: []byte(key), Value: value})
}

// BatchPublishWithRetry publishes msgs in chunks of batchSize, retrying each chunk up to maxRetries times
func (k *DefaultKafkaPublisher) BatchPublishWithRetry(topic string, msgs []domain.Message, batchSize int, maxRetries int) error {
	if len(msgs) == 0 {
		return nil
	}
	if batchSize <= 0 {
		batchSize = 100
	}
	if maxRetries <= 0 {
		maxRetries = 1
	}

	var allErrors []error
	successfulCount := 0

	for i := 0; i < len(msgs); i += batchSize {
		end := i + batchSize
		if end > len(msgs) {
			end = len(msgs)
		}
		batch := msgs[i:end]

		var err error
		for attempt := 1; attempt <= maxRetries; attempt++ {
			err = k.Publish(topic, batch...)
			if err == nil {
				successfulCount += len(batch)
				break
			}

			k.logger.Warn("Batch publish attempt failed", "topic", topic, "attempt", attempt, "error", err)

			if attempt < maxRetries {
				time.Sleep(time.Duration(attempt) * time.Second)
			}
		}

		if err != nil {
			allErrors = append(allErrors, fmt.Errorf("batch %d-%d failed after %d attempts: %w",
				i, end, maxRetries, err))
		}
	}

	k.logger.Info("Batch publish completed", "topic", topic, "successful", successfulCount, "total", len(msgs))

	if successfulCount == 0 && len(allErrors) > 0 {
		return fmt.Errorf("all batches failed: %v", allErrors)
	}
	return nil
}

func (k *DefaultKafkaPublisher) Close() error {
	return k.writer.Close()
}
