package setup

import (
	"fmt"
	"strings"
	"time"

	"github.com/LavaJover/shvark-market-service/internal/infrastructure/logger"
	"github.com/LavaJover/shvark-market-service/internal/infrastructure/notifier"
	"github.com/LavaJover/shvark-market-service/internal/infrastructure/redis"
	"github.com/LavaJover/shvark-market-service/internal/usecase"
	"github.com/LavaJover/shvark-market-service/internal/usecase/fees"
	"github.com/shopspring/decimal"
)

const walletCacheTTL = 30 * time.Second

type UseCases struct {
	Fees        *fees.Calculator
	Events      *usecase.EventBus
	Listings    usecase.ListingUsecase
	Bundles     usecase.BundleUsecase
	Orders      usecase.OrderUsecase
	Checkout    usecase.CheckoutUsecase
	Idempotency *usecase.Idempotency
	Disputes    usecase.DisputeUsecase
	Payouts     usecase.PayoutUsecase
	Wallet      usecase.WalletUsecase
	Ratings     usecase.RatingUsecase
	Scoring     usecase.SellerScoringUsecase
	Pricing     usecase.PricingUsecase
	APIKeys     usecase.APIKeyUsecase
}

func InitializeUseCases(deps *Dependencies) (*UseCases, error) {
	cfg := deps.Config
	repos := deps.Repositories
	log := deps.Logger

	schedule := fees.DefaultSchedule()
	if cfg.Fees.ProGMVCap > 0 {
		schedule.ProGMVCap = decimal.NewFromFloat(cfg.Fees.ProGMVCap)
	}
	calculator := fees.NewCalculator(schedule)

	events := usecase.NewEventBus(deps.Publisher, log)
	currency := strings.ToUpper(cfg.Stripe.Currency)

	walletUsecase := usecase.NewDefaultWalletUsecase(
		repos.OrderRepo,
		repos.PayoutRepo,
		redis.NewWalletCache(deps.Redis, walletCacheTTL),
		currency,
		log,
	)

	scoringUsecase := usecase.NewDefaultSellerScoringUsecase(
		repos.SellerStatsRepo,
		repos.ScoringRepo,
		repos.FlagRepo,
		events,
		deps.Metrics,
		log,
	)

	orderUsecase := usecase.NewDefaultOrderUsecase(usecase.OrderUsecaseDeps{
		OrderRepo:         repos.OrderRepo,
		ListingRepo:       repos.ListingRepo,
		BundleRepo:        repos.BundleRepo,
		ProfileRepo:       repos.ProfileRepo,
		FlagRepo:          repos.FlagRepo,
		RiskTiers:         scoringUsecase,
		Payments:          deps.Payments,
		Shipping:          deps.Shipping,
		Calculator:        calculator,
		Wallet:            walletUsecase,
		Events:            events,
		Callbacks:         notifier.NewCallbackNotifier(cfg.Agents.CallbackSecret, cfg.Agents.CallbackTimeout, log),
		PurchaseLog:       logger.NewPGPurchaseEventLogger(deps.DB),
		Metrics:           deps.Metrics,
		Logger:            log,
		PendingPaymentTTL: cfg.Orders.PendingPaymentTTL,
	})

	checkoutUsecase, err := usecase.NewDefaultCheckoutUsecase(repos.CheckoutRepo, orderUsecase, cfg.Agents.CheckoutSessionTTL, log)
	if err != nil {
		return nil, fmt.Errorf("checkout usecase: %w", err)
	}

	disputeUsecase, err := usecase.NewDefaultDisputeUsecase(
		repos.DisputeRepo,
		repos.OrderRepo,
		orderUsecase,
		events,
		deps.Metrics,
		log,
		cfg.Disputes.ResponseWindow,
	)
	if err != nil {
		return nil, fmt.Errorf("dispute usecase: %w", err)
	}

	apiKeyUsecase, err := usecase.NewDefaultAPIKeyUsecase(repos.APIKeyRepo, cfg.RateLimit.DefaultPerMinute, log)
	if err != nil {
		return nil, fmt.Errorf("api key usecase: %w", err)
	}

	return &UseCases{
		Fees:        calculator,
		Events:      events,
		Listings:    usecase.NewDefaultListingUsecase(repos.ListingRepo, deps.AI, log),
		Bundles:     usecase.NewDefaultBundleUsecase(repos.BundleRepo, repos.ListingRepo),
		Orders:      orderUsecase,
		Checkout:    checkoutUsecase,
		Idempotency: usecase.NewIdempotency(redis.NewIdempotencyStore(deps.Redis), cfg.Agents.IdempotencyTTL),
		Disputes:    disputeUsecase,
		Payouts: usecase.NewDefaultPayoutUsecase(
			repos.PayoutRepo,
			repos.ProfileRepo,
			deps.Payments,
			walletUsecase,
			calculator,
			deps.Metrics,
			log,
		),
		Wallet:  walletUsecase,
		Ratings: usecase.NewDefaultRatingUsecase(repos.RatingRepo, repos.OrderRepo),
		Scoring: scoringUsecase,
		Pricing: usecase.NewDefaultPricingUsecase(repos.ListingRepo, deps.AI, log),
		APIKeys: apiKeyUsecase,
	}, nil
}
