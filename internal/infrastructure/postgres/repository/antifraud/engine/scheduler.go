package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/LavaJover/shvark-market-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
)

// ============= ПЛАНИРОВЩИК ПРОВЕРОК =============

// Scheduler periodically checks buyers with recent purchase activity
type Scheduler struct {
	engine   *FraudEngine
	db       *gorm.DB
	interval time.Duration
	lookback time.Duration
	logger   *slog.Logger
}

func NewScheduler(engine *FraudEngine, db *gorm.DB, interval time.Duration, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		engine:   engine,
		db:       db,
		interval: interval,
		lookback: 24 * time.Hour,
		logger:   logger,
	}
}

// Start blocks until ctx is cancelled
func (s *Scheduler) Start(ctx context.Context) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info("Starting fraud scheduler", "interval", s.interval)

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("Stopping fraud scheduler")
			return
		case <-ticker.C:
			if err := s.runChecks(ctx); err != nil {
				s.logger.Error("Failed to run scheduled checks", "error", err)
			}
		}
	}
}

func (s *Scheduler) runChecks(ctx context.Context) error {
	var buyerIDs []string
	err := s.db.WithContext(ctx).
		Model(&models.OrderModel{}).
		Where("created_at >= ?", time.Now().Add(-s.lookback)).
		Distinct().
		Pluck("buyer_id", &buyerIDs).Error
	if err != nil {
		return fmt.Errorf("failed to get recent buyers: %w", err)
	}

	s.logger.Info("Running scheduled fraud checks", "buyers_count", len(buyerIDs))

	for _, buyerID := range buyerIDs {
		if _, err := s.engine.ProcessUserCheck(ctx, buyerID); err != nil {
			s.logger.Error("Failed to check buyer", "user_id", buyerID, "error", err)
		}
	}

	return nil
}
