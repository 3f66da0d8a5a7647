package strategies

import (
	"context"
	"fmt"
	"time"

	"github.com/LavaJover/shvark-market-service/internal/domain"
	"github.com/LavaJover/shvark-market-service/internal/infrastructure/postgres/models"
	"github.com/LavaJover/shvark-market-service/internal/infrastructure/postgres/repository/antifraud/rules"
	"gorm.io/gorm"
)

// PurchaseVelocityStrategy counts how many orders a buyer placed in the window
type PurchaseVelocityStrategy struct {
	db *gorm.DB
}

func NewPurchaseVelocityStrategy(db *gorm.DB) *PurchaseVelocityStrategy {
	return &PurchaseVelocityStrategy{db: db}
}

func (s *PurchaseVelocityStrategy) Name() string {
	return rules.TypePurchaseVelocity
}

func (s *PurchaseVelocityStrategy) GetDescription() string {
	return "Maximum number of purchases per buyer within a time window"
}

func (s *PurchaseVelocityStrategy) Check(ctx context.Context, userID string, rule *rules.FraudRuleModel) (*domain.CheckResult, error) {
	cfg, err := rules.DecodeConfig(rule.Type, rule.Config)
	if err != nil {
		return nil, err
	}
	config := cfg.(*rules.PurchaseVelocityConfig)

	var count int64
	query := s.db.WithContext(ctx).Model(&models.OrderModel{}).
		Where("buyer_id = ?", userID).
		Where("created_at >= ?", time.Now().Add(-config.Window()))
	if len(config.StatusesToCount) > 0 {
		query = query.Where("status IN ?", config.StatusesToCount)
	}
	if err := query.Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to count buyer orders: %w", err)
	}

	return &domain.CheckResult{
		RuleName:     rule.Name,
		Passed:       count <= int64(config.MaxOrders),
		CurrentValue: count,
		Threshold:    config.MaxOrders,
		Message: fmt.Sprintf("Buyer placed %d orders in last %v (limit: %d)",
			count, config.Window(), config.MaxOrders),
		Details: map[string]interface{}{
			"window":            config.Window().String(),
			"statuses_to_count": config.StatusesToCount,
		},
	}, nil
}
