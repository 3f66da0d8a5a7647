package setup

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"github.com/LavaJover/shvark-market-service/internal/config"
	"github.com/LavaJover/shvark-market-service/internal/domain"
	"github.com/LavaJover/shvark-market-service/internal/infrastructure/ai"
	publisher "github.com/LavaJover/shvark-market-service/internal/infrastructure/kafka"
	"github.com/LavaJover/shvark-market-service/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-market-service/internal/infrastructure/migrate"
	"github.com/LavaJover/shvark-market-service/internal/infrastructure/postgres"
	"github.com/LavaJover/shvark-market-service/internal/infrastructure/postgres/repository"
	"github.com/LavaJover/shvark-market-service/internal/infrastructure/redis"
	"github.com/LavaJover/shvark-market-service/internal/infrastructure/sendcloud"
	"github.com/LavaJover/shvark-market-service/internal/infrastructure/stripe"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"
)

type Dependencies struct {
	Config       *config.MarketConfig
	Logger       *slog.Logger
	DB           *gorm.DB
	Redis        *goredis.Client
	Publisher    *publisher.DefaultKafkaPublisher
	Subscriber   *publisher.DefaultKafkaSubscriber
	Payments     *stripe.Client
	Shipping     *sendcloud.Client
	AI           domain.InferenceGateway
	Metrics      *metrics.MarketMetrics
	Repositories *Repositories
}

type Repositories struct {
	ListingRepo     domain.ListingRepository
	BundleRepo      domain.BundleRepository
	OrderRepo       domain.OrderRepository
	PayoutRepo      domain.PayoutRepository
	CheckoutRepo    domain.CheckoutSessionRepository
	DisputeRepo     domain.DisputeRepository
	FlagRepo        domain.FraudFlagRepository
	RuleRepo        domain.FraudRuleRepository
	ProfileRepo     domain.ProfileRepository
	RatingRepo      domain.RatingRepository
	APIKeyRepo      domain.APIKeyRepository
	ScoringRepo     domain.ScoringRepository
	SellerStatsRepo domain.SellerStatsRepository
}

// InitializeDependencies opens every external connection. ctx bounds the
// lifetime of the Kafka readers.
func InitializeDependencies(ctx context.Context, cfg *config.MarketConfig, logger *slog.Logger) (*Dependencies, error) {
	db := postgres.MustInitDB(cfg)

	if !cfg.MarketDB.AutoMigrate {
		if err := migrate.RunMigrations(db, cfg.MarketDB.MigrationsPath, logger); err != nil {
			return nil, fmt.Errorf("migrations: %w", err)
		}
	}

	redisClient, err := redis.NewClient(ctx, cfg.Redis)
	if err != nil {
		return nil, fmt.Errorf("redis: %w", err)
	}

	kcfg := kafkaConfig(cfg)
	pub, err := publisher.NewDefaultKafkaPublisher(kcfg, logger)
	if err != nil {
		return nil, fmt.Errorf("kafka publisher: %w", err)
	}
	sub, err := publisher.NewDefaultKafkaSubscriber(ctx, kcfg, logger)
	if err != nil {
		return nil, fmt.Errorf("kafka subscriber: %w", err)
	}

	gateway, err := ai.New(ctx, cfg.AIGateway, logger)
	if err != nil {
		// Классификация и комментарии к цене не критичны, работаем без них
		logger.Warn("AI gateway unavailable, continuing without it", "error", err)
		gateway = ai.Disabled{}
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	repos := &Repositories{
		ListingRepo:     repository.NewDefaultListingRepository(db),
		BundleRepo:      repository.NewDefaultBundleRepository(db),
		OrderRepo:       repository.NewDefaultOrderRepository(db),
		PayoutRepo:      repository.NewDefaultPayoutRepository(db),
		CheckoutRepo:    repository.NewDefaultCheckoutSessionRepository(db),
		DisputeRepo:     repository.NewDefaultDisputeRepository(db),
		FlagRepo:        repository.NewDefaultFraudFlagRepository(db),
		RuleRepo:        repository.NewFraudRuleRepository(db),
		ProfileRepo:     repository.NewDefaultProfileRepository(db),
		RatingRepo:      repository.NewDefaultRatingRepository(db),
		APIKeyRepo:      repository.NewDefaultAPIKeyRepository(db),
		ScoringRepo:     repository.NewDefaultScoringRepository(db),
		SellerStatsRepo: repository.NewDefaultSellerStatsRepository(db),
	}

	return &Dependencies{
		Config:       cfg,
		Logger:       logger,
		DB:           db,
		Redis:        redisClient,
		Publisher:    pub,
		Subscriber:   sub,
		Payments:     stripe.NewClient(cfg.Stripe.SecretKey, cfg.Stripe.WebhookSecret),
		Shipping:     sendcloud.NewClient(cfg.SendCloud),
		AI:           gateway,
		Metrics:      metrics.NewMarketMetrics(registry),
		Repositories: repos,
	}, nil
}

func kafkaConfig(cfg *config.MarketConfig) publisher.KafkaConfig {
	return publisher.KafkaConfig{
		Brokers:    cfg.KafkaService.Brokers(),
		Username:   cfg.KafkaService.Username,
		Password:   cfg.KafkaService.Password,
		Mechanism:  cfg.KafkaService.Mechanism,
		TLSEnabled: cfg.KafkaService.TLSEnabled,
	}
}

// Close releases connections in reverse order of opening.
func (d *Dependencies) Close() {
	if closer, ok := d.AI.(io.Closer); ok {
		if err := closer.Close(); err != nil {
			d.Logger.Error("failed to close AI gateway", "error", err)
		}
	}
	if err := d.Publisher.Close(); err != nil {
		d.Logger.Error("failed to close kafka publisher", "error", err)
	}
	if err := d.Redis.Close(); err != nil {
		d.Logger.Error("failed to close redis", "error", err)
	}
	if sqlDB, err := d.DB.DB(); err == nil {
		if err := sqlDB.Close(); err != nil {
			d.Logger.Error("failed to close database", "error", err)
		}
	}
}
