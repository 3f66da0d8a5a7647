package background

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/LavaJover/shvark-market-service/internal/config"
	"github.com/LavaJover/shvark-market-service/internal/domain"
	"github.com/LavaJover/shvark-market-service/internal/usecase"
	"github.com/robfig/cron/v3"
)

const limiterCleanupInterval = 5 * time.Minute

// FraudScheduler periodically re-checks recent buyers; Start blocks until ctx is done.
type FraudScheduler interface {
	Start(ctx context.Context)
}

// LimiterJanitor drops idle per-key rate limit buckets.
type LimiterJanitor interface {
	Cleanup() int
}

type BackgroundTasks struct {
	OrderUsecase   usecase.OrderUsecase
	DisputeUsecase usecase.DisputeUsecase
	PayoutUsecase  usecase.PayoutUsecase
	ScoringUsecase usecase.SellerScoringUsecase
	FraudScheduler FraudScheduler
	Limiter        LimiterJanitor
	Subscriber     domain.SubscriberPort

	cfg    *config.MarketConfig
	logger *slog.Logger
}

func NewBackgroundTasks(cfg *config.MarketConfig, logger *slog.Logger) *BackgroundTasks {
	return &BackgroundTasks{cfg: cfg, logger: logger.With("component", "background")}
}

// StartAll launches every worker; they stop when ctx is cancelled.
func (bt *BackgroundTasks) StartAll(ctx context.Context) error {
	if err := bt.startScoringCron(ctx); err != nil {
		return err
	}
	if err := bt.startOrderEventsConsumer(ctx); err != nil {
		return err
	}

	go bt.every(ctx, "cancel stale orders", bt.cfg.Orders.SweepInterval, bt.cancelStaleOrders)
	go bt.every(ctx, "auto-resolve disputes", bt.cfg.Disputes.CheckInterval, bt.autoResolveDisputes)
	go bt.every(ctx, "process payouts", bt.cfg.Orders.SweepInterval, bt.processPayouts)
	if bt.Limiter != nil {
		go bt.every(ctx, "rate limiter cleanup", limiterCleanupInterval, func(context.Context) error {
			if removed := bt.Limiter.Cleanup(); removed > 0 {
				bt.logger.Debug("dropped idle rate limit buckets", "count", removed)
			}
			return nil
		})
	}
	if bt.FraudScheduler != nil {
		go bt.FraudScheduler.Start(ctx)
	}
	return nil
}

func (bt *BackgroundTasks) every(ctx context.Context, name string, interval time.Duration, fn func(context.Context) error) {
	if interval <= 0 {
		bt.logger.Warn("background task disabled", "task", name)
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := fn(ctx); err != nil {
				bt.logger.Error("background task failed", "task", name, "error", err)
			}
		}
	}
}

func (bt *BackgroundTasks) cancelStaleOrders(ctx context.Context) error {
	n, err := bt.OrderUsecase.CancelStalePendingOrders(ctx)
	if n > 0 {
		bt.logger.Info("cancelled unpaid orders", "count", n)
	}
	return err
}

func (bt *BackgroundTasks) autoResolveDisputes(ctx context.Context) error {
	n, err := bt.DisputeUsecase.AutoResolveExpired(ctx)
	if n > 0 {
		bt.logger.Info("auto-resolved expired disputes", "count", n)
	}
	return err
}

func (bt *BackgroundTasks) processPayouts(ctx context.Context) error {
	n, err := bt.PayoutUsecase.ProcessPendingPayouts(ctx, bt.cfg.Orders.PayoutBatchSize)
	if n > 0 {
		bt.logger.Info("processed payouts", "count", n)
	}
	return err
}

// ============= Ночной пересчёт продавцов =============

func (bt *BackgroundTasks) startScoringCron(ctx context.Context) error {
	c := cron.New(cron.WithLocation(time.UTC))
	_, err := c.AddFunc(bt.cfg.Scoring.Schedule, func() {
		start := time.Now()
		result, err := bt.ScoringUsecase.RecalculateAll(ctx)
		if err != nil {
			bt.logger.Error("seller scoring run failed", "error", err)
			return
		}
		bt.logger.Info("seller scoring run finished",
			"processed", result.Processed,
			"failed", result.Failed,
			"duration", time.Since(start),
		)
	})
	if err != nil {
		return fmt.Errorf("invalid scoring schedule %q: %w", bt.cfg.Scoring.Schedule, err)
	}

	c.Start()
	go func() {
		<-ctx.Done()
		<-c.Stop().Done()
	}()
	return nil
}

// ============= Kafka consumer =============

func (bt *BackgroundTasks) startOrderEventsConsumer(ctx context.Context) error {
	if bt.Subscriber == nil {
		return nil
	}
	messages, err := bt.Subscriber.Subscribe(domain.TopicOrderEvents, bt.cfg.KafkaService.GroupID)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", domain.TopicOrderEvents, err)
	}

	go func() {
		for msg := range messages {
			if err := bt.HandleOrderEvent(ctx, msg); err != nil {
				bt.logger.Error("failed to handle order event", "key", string(msg.Key), "error", err)
			}
		}
	}()
	return nil
}

// HandleOrderEvent refreshes the seller's reputation and badges once an order completes.
func (bt *BackgroundTasks) HandleOrderEvent(ctx context.Context, msg domain.Message) error {
	var event domain.OrderEvent
	if err := json.Unmarshal(msg.Value, &event); err != nil {
		return fmt.Errorf("decode order event: %w", err)
	}
	if event.Type != domain.EventOrderCompleted || event.SellerID == "" {
		return nil
	}

	if _, err := bt.ScoringUsecase.RecalculateReputation(ctx, event.SellerID); err != nil {
		return fmt.Errorf("reputation for %s: %w", event.SellerID, err)
	}
	if _, err := bt.ScoringUsecase.RecalculateBadges(ctx, event.SellerID); err != nil {
		return fmt.Errorf("badges for %s: %w", event.SellerID, err)
	}
	return nil
}
