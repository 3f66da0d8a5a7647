package setup

import (
	"context"
	"fmt"

	"github.com/LavaJover/shvark-market-service/internal/infrastructure/postgres/repository/antifraud/engine"
	"github.com/LavaJover/shvark-market-service/internal/infrastructure/postgres/repository/antifraud/strategies"
	"github.com/LavaJover/shvark-market-service/internal/usecase"
)

type AntiFraudSystem struct {
	Engine      *engine.FraudEngine
	Scheduler   *engine.Scheduler
	RuleManager *engine.RuleManager
	UseCase     usecase.AntiFraudUseCase
}

func InitializeAntiFraud(ctx context.Context, deps *Dependencies) (*AntiFraudSystem, error) {
	antifraudLogger := deps.Logger.With("component", "antifraud")
	cfg := deps.Config.Scoring

	grace := engine.NewGracePeriod(deps.DB, cfg.FraudGracePeriod)
	fraudEngine := engine.NewFraudEngine(deps.DB, deps.Repositories.FlagRepo, grace, antifraudLogger)

	// Регистрируем стратегии
	fraudEngine.RegisterStrategy(strategies.NewPurchaseVelocityStrategy(deps.DB))
	fraudEngine.RegisterStrategy(strategies.NewNewAccountHighValueStrategy(deps.DB))
	fraudEngine.RegisterStrategy(strategies.NewRepeatedDisputesStrategy(deps.DB))

	ruleManager := engine.NewRuleManager(deps.DB)
	if err := ruleManager.EnsureDefaultRules(ctx); err != nil {
		return nil, fmt.Errorf("default fraud rules: %w", err)
	}

	useCase := usecase.NewAntiFraudUseCase(
		fraudEngine,
		deps.Repositories.RuleRepo,
		deps.Repositories.FlagRepo,
		deps.Metrics,
	)

	return &AntiFraudSystem{
		Engine:      fraudEngine,
		Scheduler:   engine.NewScheduler(fraudEngine, deps.DB, cfg.FraudCheckInterval, antifraudLogger),
		RuleManager: ruleManager,
		UseCase:     useCase,
	}, nil
}
