package strategies

import (
	"context"

	"github.com/LavaJover/shvark-market-service/internal/domain"
	"github.com/LavaJover/shvark-market-service/internal/infrastructure/postgres/repository/antifraud/rules"
)

// ============= ИНТЕРФЕЙС СТРАТЕГИИ =============

// FraudStrategy checks one buyer against one configured rule
type FraudStrategy interface {
	Name() string
	Check(ctx context.Context, userID string, rule *rules.FraudRuleModel) (*domain.CheckResult, error)
	GetDescription() string
}
