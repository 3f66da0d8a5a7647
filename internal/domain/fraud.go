package domain

import (
	"context"
	"time"
)

type FraudFlagStatus string

const (
	FraudFlagOpen      FraudFlagStatus = "open"
	FraudFlagReviewed  FraudFlagStatus = "reviewed"
	FraudFlagDismissed FraudFlagStatus = "dismissed"
)

type FraudSeverity string

const (
	SeverityLow    FraudSeverity = "low"
	SeverityMedium FraudSeverity = "medium"
	SeverityHigh   FraudSeverity = "high"
)

var severityRank = map[FraudSeverity]int{
	SeverityLow:    1,
	SeverityMedium: 2,
	SeverityHigh:   3,
}

// Max returns the more severe of s and other.
func (s FraudSeverity) Max(other FraudSeverity) FraudSeverity {
	if severityRank[other] > severityRank[s] {
		return other
	}
	return s
}

func (s FraudSeverity) Valid() bool {
	_, ok := severityRank[s]
	return ok
}

type FraudFlag struct {
	ID         string                 `json:"id"`
	UserID     string                 `json:"user_id"`
	Source     string                 `json:"source"`
	Reason     string                 `json:"reason"`
	Severity   FraudSeverity          `json:"severity"`
	Details    map[string]interface{} `json:"details,omitempty"`
	Status     FraudFlagStatus        `json:"status"`
	ReviewedBy string                 `json:"reviewed_by,omitempty"`
	ReviewedAt *time.Time             `json:"reviewed_at,omitempty"`
	CreatedAt  time.Time              `json:"created_at"`
}

type FraudFlagFilter struct {
	UserID *string
	Status *FraudFlagStatus
	Page   int
	Limit  int
}

type FraudFlagRepository interface {
	CreateFlag(ctx context.Context, flag *FraudFlag) error
	GetFlagByID(ctx context.Context, flagID string) (*FraudFlag, error)
	UpdateFlagStatus(ctx context.Context, flagID string, status FraudFlagStatus, reviewer string) error
	FindFlags(ctx context.Context, filter FraudFlagFilter) ([]*FraudFlag, int64, error)
	HasOpenFlag(ctx context.Context, userID, source string) (bool, error)
}

// ============= Rule engine =============

// FraudRule is an operator-configured check run by the fraud engine.
type FraudRule struct {
	ID        string                 `json:"id"`
	Name      string                 `json:"name"`
	Type      string                 `json:"type"`
	Config    map[string]interface{} `json:"config"`
	Severity  FraudSeverity          `json:"severity"`
	IsActive  bool                   `json:"is_active"`
	Priority  int                    `json:"priority"`
	CreatedAt time.Time              `json:"created_at"`
	UpdatedAt time.Time              `json:"updated_at"`
}

type CheckResult struct {
	RuleName     string                 `json:"rule_name"`
	Passed       bool                   `json:"passed"`
	CurrentValue interface{}            `json:"current_value"`
	Threshold    interface{}            `json:"threshold"`
	Message      string                 `json:"message"`
	Details      map[string]interface{} `json:"details,omitempty"`
}

type FraudReport struct {
	UserID      string         `json:"user_id"`
	CheckedAt   time.Time      `json:"checked_at"`
	AllPassed   bool           `json:"all_passed"`
	Results     []*CheckResult `json:"results"`
	FailedRules []string       `json:"failed_rules,omitempty"`
	Severity    FraudSeverity  `json:"severity,omitempty"`
}

type FraudAuditLog struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	CheckedAt time.Time      `json:"checked_at"`
	AllPassed bool           `json:"all_passed"`
	Results   []*CheckResult `json:"results"`
	CreatedAt time.Time      `json:"created_at"`
}

type FraudRuleRepository interface {
	CreateRule(ctx context.Context, rule *FraudRule) error
	UpdateRule(ctx context.Context, ruleID string, updates map[string]interface{}) error
	GetRules(ctx context.Context, activeOnly bool) ([]*FraudRule, error)
	GetRuleByID(ctx context.Context, ruleID string) (*FraudRule, error)
	DeleteRule(ctx context.Context, ruleID string) error
	GetAuditHistory(ctx context.Context, userID string, limit int) ([]*FraudAuditLog, error)
}
