package engine

import (
	"context"
	"fmt"
	"time"

	"github.com/LavaJover/shvark-market-service/internal/domain"
	"github.com/LavaJover/shvark-market-service/internal/infrastructure/postgres/repository/antifraud/rules"
	"gorm.io/gorm"
)

// RuleManager creates and seeds fraud rules
type RuleManager struct {
	db *gorm.DB
}

func NewRuleManager(db *gorm.DB) *RuleManager {
	return &RuleManager{db: db}
}

// CreateRule validates config and stores a new active rule
func (rm *RuleManager) CreateRule(ctx context.Context, name, ruleType string, config rules.RuleConfig, severity domain.FraudSeverity, priority int) (*rules.FraudRuleModel, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	configMap, err := rules.ToMap(config)
	if err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	rule := &rules.FraudRuleModel{
		ID:        GenerateUUID(),
		Name:      name,
		Type:      ruleType,
		Config:    configMap,
		Severity:  string(severity),
		IsActive:  true,
		Priority:  priority,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := rm.db.WithContext(ctx).Create(rule).Error; err != nil {
		return nil, fmt.Errorf("failed to create rule: %w", err)
	}

	return rule, nil
}

type defaultRule struct {
	name     string
	ruleType string
	config   rules.RuleConfig
	severity domain.FraudSeverity
	priority int
}

var defaultRules = []defaultRule{
	{
		name:     "Purchase velocity",
		ruleType: rules.TypePurchaseVelocity,
		config: &rules.PurchaseVelocityConfig{
			MaxOrders:   20,
			WindowHours: 24,
		},
		severity: domain.SeverityMedium,
		priority: 100,
	},
	{
		name:     "High value order from new account",
		ruleType: rules.TypeNewAccountHighValue,
		config: &rules.NewAccountHighValueConfig{
			MinAccountAgeDays: 7,
			MaxOrderTotal:     500,
			WindowHours:       24,
		},
		severity: domain.SeverityHigh,
		priority: 90,
	},
	{
		name:     "Repeated disputes",
		ruleType: rules.TypeRepeatedDisputes,
		config: &rules.RepeatedDisputesConfig{
			MaxDisputes: 3,
			WindowDays:  30,
		},
		severity: domain.SeverityMedium,
		priority: 80,
	},
}

// EnsureDefaultRules seeds the built-in rules when the table is empty
func (rm *RuleManager) EnsureDefaultRules(ctx context.Context) error {
	var count int64
	if err := rm.db.WithContext(ctx).Model(&rules.FraudRuleModel{}).Count(&count).Error; err != nil {
		return err
	}
	if count > 0 {
		return nil
	}
	for _, r := range defaultRules {
		if _, err := rm.CreateRule(ctx, r.name, r.ruleType, r.config, r.severity, r.priority); err != nil {
			return err
		}
	}
	return nil
}
