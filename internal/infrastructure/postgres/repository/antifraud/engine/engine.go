package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/LavaJover/shvark-market-service/internal/domain"
	"github.com/LavaJover/shvark-market-service/internal/infrastructure/postgres/repository/antifraud/rules"
	"github.com/LavaJover/shvark-market-service/internal/infrastructure/postgres/repository/antifraud/strategies"
	"gorm.io/gorm"
)

// FlagSource marks fraud flags raised by the rule engine.
const FlagSource = "rule_engine"

// ============= ОСНОВНОЙ ДВИЖОК АНТИФРОДА =============

// FraudEngine runs configured rules against buyers and raises fraud flags
type FraudEngine struct {
	db         *gorm.DB
	strategies map[string]strategies.FraudStrategy
	flags      domain.FraudFlagRepository
	grace      *GracePeriod
	logger     *slog.Logger
}

func NewFraudEngine(db *gorm.DB, flags domain.FraudFlagRepository, grace *GracePeriod, logger *slog.Logger) *FraudEngine {
	return &FraudEngine{
		db:         db,
		strategies: make(map[string]strategies.FraudStrategy),
		flags:      flags,
		grace:      grace,
		logger:     logger,
	}
}

// RegisterStrategy adds a strategy keyed by its rule type
func (e *FraudEngine) RegisterStrategy(strategy strategies.FraudStrategy) {
	e.strategies[strategy.Name()] = strategy
	e.logger.Info("Registered fraud strategy", "name", strategy.Name())
}

// CheckUser evaluates every active rule for the user
func (e *FraudEngine) CheckUser(ctx context.Context, userID string) (*domain.FraudReport, error) {
	var activeRules []rules.FraudRuleModel
	err := e.db.WithContext(ctx).
		Where("is_active = ?", true).
		Order("priority DESC").
		Find(&activeRules).Error
	if err != nil {
		return nil, fmt.Errorf("failed to fetch fraud rules: %w", err)
	}

	report := &domain.FraudReport{
		UserID:    userID,
		CheckedAt: time.Now(),
		Results:   make([]*domain.CheckResult, 0, len(activeRules)),
		AllPassed: true,
	}

	for i := range activeRules {
		rule := &activeRules[i]
		strategy, exists := e.strategies[rule.Type]
		if !exists {
			e.logger.Warn("Strategy not found for rule", "rule_type", rule.Type, "rule_name", rule.Name)
			continue
		}

		result, err := strategy.Check(ctx, userID, rule)
		if err != nil {
			e.logger.Error("Failed to check rule", "rule_name", rule.Name, "error", err)
			continue
		}

		report.Results = append(report.Results, result)

		if !result.Passed {
			report.AllPassed = false
			report.FailedRules = append(report.FailedRules, rule.Name)
			report.Severity = report.Severity.Max(domain.FraudSeverity(rule.Severity))
		}
	}

	return report, nil
}

// ProcessUserCheck checks the user, raises a flag on failure and stores the audit log
func (e *FraudEngine) ProcessUserCheck(ctx context.Context, userID string) (*domain.FraudReport, error) {
	report, err := e.CheckUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to check user: %w", err)
	}

	if !report.AllPassed {
		if err := e.raiseFlag(ctx, report); err != nil {
			return nil, fmt.Errorf("failed to raise fraud flag: %w", err)
		}
	}

	if err := e.saveAuditLog(ctx, report); err != nil {
		e.logger.Error("Failed to save audit log", "error", err)
	}

	return report, nil
}

func (e *FraudEngine) raiseFlag(ctx context.Context, report *domain.FraudReport) error {
	if e.grace != nil {
		inGrace, err := e.grace.IsInGracePeriod(ctx, report.UserID)
		if err != nil {
			return err
		}
		if inGrace {
			e.logger.Info("Fraud check failed during grace period", "user_id", report.UserID, "failed_rules", report.FailedRules)
			return nil
		}
	}

	open, err := e.flags.HasOpenFlag(ctx, report.UserID, FlagSource)
	if err != nil {
		return err
	}
	if open {
		return nil
	}

	severity := report.Severity
	if !severity.Valid() {
		severity = domain.SeverityMedium
	}

	flag := &domain.FraudFlag{
		ID:       GenerateUUID(),
		UserID:   report.UserID,
		Source:   FlagSource,
		Reason:   fmt.Sprintf("Fraud check failed: %v", report.FailedRules),
		Severity: severity,
		Details: map[string]interface{}{
			"failed_rules": report.FailedRules,
			"checked_at":   report.CheckedAt,
		},
		Status:    domain.FraudFlagOpen,
		CreatedAt: time.Now(),
	}
	if err := e.flags.CreateFlag(ctx, flag); err != nil {
		return err
	}

	e.logger.Warn("Buyer flagged by fraud engine",
		"user_id", report.UserID,
		"failed_rules", report.FailedRules,
		"severity", severity)
	return nil
}

func (e *FraudEngine) saveAuditLog(ctx context.Context, report *domain.FraudReport) error {
	auditLog := &FraudAuditLog{
		ID:        GenerateUUID(),
		UserID:    report.UserID,
		CheckedAt: report.CheckedAt,
		AllPassed: report.AllPassed,
		Results:   report.Results,
		CreatedAt: time.Now(),
	}

	return e.db.WithContext(ctx).Create(auditLog).Error
}
