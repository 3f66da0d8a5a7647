package engine

import (
	"context"
	"time"

	"github.com/LavaJover/shvark-market-service/internal/domain"
	"github.com/LavaJover/shvark-market-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
)

// GracePeriod suppresses new flags for a user shortly after a reviewer dismissed one
type GracePeriod struct {
	db       *gorm.DB
	duration time.Duration
}

func NewGracePeriod(db *gorm.DB, duration time.Duration) *GracePeriod {
	return &GracePeriod{db: db, duration: duration}
}

func (g *GracePeriod) IsInGracePeriod(ctx context.Context, userID string) (bool, error) {
	if g.duration <= 0 {
		return false, nil
	}
	var count int64
	err := g.db.WithContext(ctx).
		Model(&models.FraudFlagModel{}).
		Where("user_id = ? AND source = ? AND status = ? AND reviewed_at > ?",
			userID, FlagSource, string(domain.FraudFlagDismissed), time.Now().Add(-g.duration)).
		Count(&count).Error
	if err != nil {
		return false, err
	}
	return count > 0, nil
}
