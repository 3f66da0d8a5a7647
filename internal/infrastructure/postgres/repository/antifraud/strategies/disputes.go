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

// RepeatedDisputesStrategy counts disputes a buyer opened in the window
type RepeatedDisputesStrategy struct {
	db *gorm.DB
}

func NewRepeatedDisputesStrategy(db *gorm.DB) *RepeatedDisputesStrategy {
	return &RepeatedDisputesStrategy{db: db}
}

func (s *RepeatedDisputesStrategy) Name() string {
	return rules.TypeRepeatedDisputes
}

func (s *RepeatedDisputesStrategy) GetDescription() string {
	return "Maximum number of disputes a buyer may open within a period"
}

func (s *RepeatedDisputesStrategy) Check(ctx context.Context, userID string, rule *rules.FraudRuleModel) (*domain.CheckResult, error) {
	cfg, err := rules.DecodeConfig(rule.Type, rule.Config)
	if err != nil {
		return nil, err
	}
	config := cfg.(*rules.RepeatedDisputesConfig)

	var count int64
	if err := s.db.WithContext(ctx).Model(&models.DisputeModel{}).
		Where("buyer_id = ?", userID).
		Where("created_at >= ?", time.Now().Add(-config.Window())).
		Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to count buyer disputes: %w", err)
	}

	return &domain.CheckResult{
		RuleName:     rule.Name,
		Passed:       count <= int64(config.MaxDisputes),
		CurrentValue: count,
		Threshold:    config.MaxDisputes,
		Message: fmt.Sprintf("Buyer opened %d disputes in last %d days (limit: %d)",
			count, config.WindowDays, config.MaxDisputes),
		Details: map[string]interface{}{
			"window_days": config.WindowDays,
		},
	}, nil
}
