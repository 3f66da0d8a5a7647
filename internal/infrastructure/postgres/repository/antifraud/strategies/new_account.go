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

// NewAccountHighValueStrategy flags young accounts placing unusually large orders
type NewAccountHighValueStrategy struct {
	db  *gorm.DB
	now func() time.Time
}

func NewNewAccountHighValueStrategy(db *gorm.DB) *NewAccountHighValueStrategy {
	return &NewAccountHighValueStrategy{db: db, now: time.Now}
}

func (s *NewAccountHighValueStrategy) Name() string {
	return rules.TypeNewAccountHighValue
}

func (s *NewAccountHighValueStrategy) GetDescription() string {
	return "Order value cap for recently created buyer accounts"
}

func (s *NewAccountHighValueStrategy) Check(ctx context.Context, userID string, rule *rules.FraudRuleModel) (*domain.CheckResult, error) {
	cfg, err := rules.DecodeConfig(rule.Type, rule.Config)
	if err != nil {
		return nil, err
	}
	config := cfg.(*rules.NewAccountHighValueConfig)

	var profile models.ProfileModel
	if err := s.db.WithContext(ctx).Select("id", "created_at").First(&profile, "id = ?", userID).Error; err != nil {
		return nil, fmt.Errorf("failed to load buyer profile: %w", err)
	}
	now := s.now()
	ageDays := int(now.Sub(profile.CreatedAt).Hours() / 24)

	type maxAgg struct {
		MaxTotal float64
	}
	var agg maxAgg
	if err := s.db.WithContext(ctx).Model(&models.OrderModel{}).
		Select("COALESCE(MAX(buyer_total), 0) AS max_total").
		Where("buyer_id = ? AND created_at >= ?", userID, now.Add(-config.Window())).
		Scan(&agg).Error; err != nil {
		return nil, fmt.Errorf("failed to find largest order: %w", err)
	}

	passed := ageDays >= config.MinAccountAgeDays || agg.MaxTotal <= config.MaxOrderTotal

	return &domain.CheckResult{
		RuleName:     rule.Name,
		Passed:       passed,
		CurrentValue: agg.MaxTotal,
		Threshold:    config.MaxOrderTotal,
		Message: fmt.Sprintf("Account is %d days old, largest order %.2f (cap %.2f under %d days)",
			ageDays, agg.MaxTotal, config.MaxOrderTotal, config.MinAccountAgeDays),
		Details: map[string]interface{}{
			"account_age_days": ageDays,
			"window":           config.Window().String(),
		},
	}, nil
}
