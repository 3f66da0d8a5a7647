package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/LavaJover/shvark-market-service/internal/domain"
	"github.com/LavaJover/shvark-market-service/internal/infrastructure/metrics"
	"github.com/google/uuid"
)

// ManualFlagSource marks flags raised by an operator.
const ManualFlagSource = "manual"

// FraudChecker runs the configured rules against a user.
type FraudChecker interface {
	CheckUser(ctx context.Context, userID string) (*domain.FraudReport, error)
	ProcessUserCheck(ctx context.Context, userID string) (*domain.FraudReport, error)
}

type AntiFraudUseCase interface {
	// Проверка пользователя
	CheckUser(ctx context.Context, userID string) (*domain.FraudReport, error)
	ProcessUserCheck(ctx context.Context, userID string) (*domain.FraudReport, error)

	// Управление правилами
	CreateRule(ctx context.Context, req *CreateRuleRequest) (*domain.FraudRule, error)
	UpdateRule(ctx context.Context, req *UpdateRuleRequest) error
	GetRules(ctx context.Context, activeOnly bool) ([]*domain.FraudRule, error)
	GetRule(ctx context.Context, ruleID string) (*domain.FraudRule, error)
	DeleteRule(ctx context.Context, ruleID string) error

	// Флаги
	RaiseFlag(ctx context.Context, userID, reason string, severity domain.FraudSeverity) (*domain.FraudFlag, error)
	ReviewFlag(ctx context.Context, flagID, reviewer string, dismiss bool) (*domain.FraudFlag, error)
	GetFlags(ctx context.Context, filter domain.FraudFlagFilter) ([]*domain.FraudFlag, int64, error)

	// Аудит
	GetUserAuditHistory(ctx context.Context, userID string, limit int) ([]*domain.FraudAuditLog, error)
}

type CreateRuleRequest struct {
	Name     string                 `json:"name" validate:"required,max=100"`
	Type     string                 `json:"type" validate:"required"`
	Config   map[string]interface{} `json:"config" validate:"required"`
	Severity domain.FraudSeverity   `json:"severity" validate:"omitempty,oneof=low medium high"`
	Priority int                    `json:"priority" validate:"gte=0"`
}

type UpdateRuleRequest struct {
	RuleID   string                 `json:"-" validate:"required"`
	Config   map[string]interface{} `json:"config"`
	IsActive *bool                  `json:"is_active"`
	Priority *int                   `json:"priority"`
	Severity *domain.FraudSeverity  `json:"severity" validate:"omitempty,oneof=low medium high"`
}

type antiFraudUseCase struct {
	engine  FraudChecker
	rules   domain.FraudRuleRepository
	flags   domain.FraudFlagRepository
	metrics *metrics.MarketMetrics
}

func NewAntiFraudUseCase(
	engine FraudChecker,
	rules domain.FraudRuleRepository,
	flags domain.FraudFlagRepository,
	marketMetrics *metrics.MarketMetrics,
) AntiFraudUseCase {
	return &antiFraudUseCase{
		engine:  engine,
		rules:   rules,
		flags:   flags,
		metrics: marketMetrics,
	}
}

// ============= Проверка пользователей =============

func (uc *antiFraudUseCase) CheckUser(ctx context.Context, userID string) (*domain.FraudReport, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", domain.ErrInvalidInput)
	}

	report, err := uc.engine.CheckUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check user: %w", err)
	}
	return report, nil
}

func (uc *antiFraudUseCase) ProcessUserCheck(ctx context.Context, userID string) (*domain.FraudReport, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", domain.ErrInvalidInput)
	}

	report, err := uc.engine.ProcessUserCheck(ctx, userID)
	if err != nil {
		return nil, err
	}
	if !report.AllPassed {
		uc.metrics.RecordFraudFlag("rule_engine", string(report.Severity))
	}
	return report, nil
}

// ============= Управление правилами =============

func (uc *antiFraudUseCase) CreateRule(ctx context.Context, req *CreateRuleRequest) (*domain.FraudRule, error) {
	severity := req.Severity
	if severity == "" {
		severity = domain.SeverityMedium
	}
	if !severity.Valid() {
		return nil, fmt.Errorf("%w: unknown severity %q", domain.ErrInvalidInput, severity)
	}

	rule := &domain.FraudRule{
		ID:        uuid.New().String(),
		Name:      req.Name,
		Type:      req.Type,
		Config:    req.Config,
		Severity:  severity,
		IsActive:  true,
		Priority:  req.Priority,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}

	if err := uc.rules.CreateRule(ctx, rule); err != nil {
		return nil, fmt.Errorf("failed to create rule: %w", err)
	}
	return rule, nil
}

func (uc *antiFraudUseCase) UpdateRule(ctx context.Context, req *UpdateRuleRequest) error {
	if req.RuleID == "" {
		return fmt.Errorf("%w: rule_id is required", domain.ErrInvalidInput)
	}

	updates := make(map[string]interface{})
	if req.Config != nil {
		updates["config"] = req.Config
	}
	if req.IsActive != nil {
		updates["is_active"] = *req.IsActive
	}
	if req.Priority != nil {
		updates["priority"] = *req.Priority
	}
	if req.Severity != nil {
		if !req.Severity.Valid() {
			return fmt.Errorf("%w: unknown severity %q", domain.ErrInvalidInput, *req.Severity)
		}
		updates["severity"] = string(*req.Severity)
	}
	if len(updates) == 0 {
		return fmt.Errorf("%w: nothing to update", domain.ErrInvalidInput)
	}

	return uc.rules.UpdateRule(ctx, req.RuleID, updates)
}

func (uc *antiFraudUseCase) GetRules(ctx context.Context, activeOnly bool) ([]*domain.FraudRule, error) {
	rules, err := uc.rules.GetRules(ctx, activeOnly)
	if err != nil {
		return nil, fmt.Errorf("failed to get rules: %w", err)
	}
	return rules, nil
}

func (uc *antiFraudUseCase) GetRule(ctx context.Context, ruleID string) (*domain.FraudRule, error) {
	if ruleID == "" {
		return nil, fmt.Errorf("%w: rule_id is required", domain.ErrInvalidInput)
	}
	return uc.rules.GetRuleByID(ctx, ruleID)
}

func (uc *antiFraudUseCase) DeleteRule(ctx context.Context, ruleID string) error {
	if ruleID == "" {
		return fmt.Errorf("%w: rule_id is required", domain.ErrInvalidInput)
	}
	return uc.rules.DeleteRule(ctx, ruleID)
}

// ============= Флаги =============

func (uc *antiFraudUseCase) RaiseFlag(ctx context.Context, userID, reason string, severity domain.FraudSeverity) (*domain.FraudFlag, error) {
	if userID == "" || reason == "" {
		return nil, fmt.Errorf("%w: user_id and reason are required", domain.ErrInvalidInput)
	}
	if !severity.Valid() {
		return nil, fmt.Errorf("%w: unknown severity %q", domain.ErrInvalidInput, severity)
	}

	flag := &domain.FraudFlag{
		ID:        uuid.New().String(),
		UserID:    userID,
		Source:    ManualFlagSource,
		Reason:    reason,
		Severity:  severity,
		Status:    domain.FraudFlagOpen,
		CreatedAt: time.Now(),
	}
	if err := uc.flags.CreateFlag(ctx, flag); err != nil {
		return nil, err
	}
	uc.metrics.RecordFraudFlag(ManualFlagSource, string(severity))
	return flag, nil
}

// ReviewFlag closes an open flag as reviewed (confirmed) or dismissed.
// Dismissed rule engine flags start the user's grace period.
func (uc *antiFraudUseCase) ReviewFlag(ctx context.Context, flagID, reviewer string, dismiss bool) (*domain.FraudFlag, error) {
	if reviewer == "" {
		return nil, fmt.Errorf("%w: reviewer is required", domain.ErrInvalidInput)
	}
	flag, err := uc.flags.GetFlagByID(ctx, flagID)
	if err != nil {
		return nil, err
	}
	if flag.Status != domain.FraudFlagOpen {
		return nil, fmt.Errorf("%w: flag is already %s", domain.ErrInvalidTransition, flag.Status)
	}

	status := domain.FraudFlagReviewed
	if dismiss {
		status = domain.FraudFlagDismissed
	}
	if err := uc.flags.UpdateFlagStatus(ctx, flagID, status, reviewer); err != nil {
		return nil, err
	}

	now := time.Now()
	flag.Status = status
	flag.ReviewedBy = reviewer
	flag.ReviewedAt = &now
	return flag, nil
}

func (uc *antiFraudUseCase) GetFlags(ctx context.Context, filter domain.FraudFlagFilter) ([]*domain.FraudFlag, int64, error) {
	return uc.flags.FindFlags(ctx, filter)
}

// ============= Аудит =============

func (uc *antiFraudUseCase) GetUserAuditHistory(ctx context.Context, userID string, limit int) ([]*domain.FraudAuditLog, error) {
	if userID == "" {
		return nil, fmt.Errorf("%w: user_id is required", domain.ErrInvalidInput)
	}
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	return uc.rules.GetAuditHistory(ctx, userID, limit)
}
