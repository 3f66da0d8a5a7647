package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/LavaJover/shvark-market-service/internal/domain"
	"github.com/LavaJover/shvark-market-service/internal/infrastructure/postgres/repository/antifraud/engine"
	"github.com/LavaJover/shvark-market-service/internal/infrastructure/postgres/repository/antifraud/rules"
	"gorm.io/gorm"
)

type fraudRuleRepository struct {
	db *gorm.DB
}

func NewFraudRuleRepository(db *gorm.DB) domain.FraudRuleRepository {
	return &fraudRuleRepository{db: db}
}

// ============= Правила =============

func (r *fraudRuleRepository) CreateRule(ctx context.Context, rule *domain.FraudRule) error {
	if _, err := rules.DecodeConfig(rule.Type, rule.Config); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrInvalidInput, err)
	}
	dbRule := &rules.FraudRuleModel{
		ID:       rule.ID,
		Name:     rule.Name,
		Type:     rule.Type,
		Config:   rule.Config,
		Severity: string(rule.Severity),
		IsActive: rule.IsActive,
		Priority: rule.Priority,
	}

	return r.db.WithContext(ctx).Create(dbRule).Error
}

func (r *fraudRuleRepository) UpdateRule(ctx context.Context, ruleID string, updates map[string]interface{}) error {
	updates["updated_at"] = time.Now()

	res := r.db.WithContext(ctx).
		Model(&rules.FraudRuleModel{}).
		Where("id = ?", ruleID).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *fraudRuleRepository) GetRules(ctx context.Context, activeOnly bool) ([]*domain.FraudRule, error) {
	var dbRules []rules.FraudRuleModel
	query := r.db.WithContext(ctx)

	if activeOnly {
		query = query.Where("is_active = ?", true)
	}

	if err := query.Order("priority DESC").Find(&dbRules).Error; err != nil {
		return nil, err
	}

	result := make([]*domain.FraudRule, 0, len(dbRules))
	for i := range dbRules {
		result = append(result, toDomainFraudRule(&dbRules[i]))
	}
	return result, nil
}

func (r *fraudRuleRepository) GetRuleByID(ctx context.Context, ruleID string) (*domain.FraudRule, error) {
	var dbRule rules.FraudRuleModel
	if err := r.db.WithContext(ctx).Where("id = ?", ruleID).First(&dbRule).Error; err != nil {
		return nil, notFound(err)
	}
	return toDomainFraudRule(&dbRule), nil
}

func (r *fraudRuleRepository) DeleteRule(ctx context.Context, ruleID string) error {
	return r.db.WithContext(ctx).Delete(&rules.FraudRuleModel{}, "id = ?", ruleID).Error
}

// ============= Аудит логи =============

func (r *fraudRuleRepository) GetAuditHistory(ctx context.Context, userID string, limit int) ([]*domain.FraudAuditLog, error) {
	if limit <= 0 {
		limit = 10
	}

	var dbLogs []engine.FraudAuditLog
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("checked_at DESC").
		Limit(limit).
		Find(&dbLogs).Error
	if err != nil {
		return nil, err
	}

	result := make([]*domain.FraudAuditLog, 0, len(dbLogs))
	for _, dbLog := range dbLogs {
		result = append(result, &domain.FraudAuditLog{
			ID:        dbLog.ID,
			UserID:    dbLog.UserID,
			CheckedAt: dbLog.CheckedAt,
			AllPassed: dbLog.AllPassed,
			Results:   dbLog.Results,
			CreatedAt: dbLog.CreatedAt,
		})
	}
	return result, nil
}

func toDomainFraudRule(dbRule *rules.FraudRuleModel) *domain.FraudRule {
	return &domain.FraudRule{
		ID:        dbRule.ID,
		Name:      dbRule.Name,
		Type:      dbRule.Type,
		Config:    dbRule.Config,
		Severity:  domain.FraudSeverity(dbRule.Severity),
		IsActive:  dbRule.IsActive,
		Priority:  dbRule.Priority,
		CreatedAt: dbRule.CreatedAt,
		UpdatedAt: dbRule.UpdatedAt,
	}
}
