package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/LavaJover/shvark-market-service/internal/app/background"
	"github.com/LavaJover/shvark-market-service/internal/app/setup"
	"github.com/LavaJover/shvark-market-service/internal/config"
	"github.com/LavaJover/shvark-market-service/internal/delivery/grpcapi"
	"github.com/LavaJover/shvark-market-service/internal/delivery/httpapi"
	"github.com/LavaJover/shvark-market-service/internal/domain"
	"github.com/LavaJover/shvark-market-service/internal/infrastructure/logger"
	"github.com/LavaJover/shvark-market-service/internal/infrastructure/ratelimit"
	"github.com/joho/godotenv"
	"google.golang.org/grpc"
)

const shutdownTimeout = 15 * time.Second

func main() {
	issueOwner := flag.String("issue-key", "", "issue an API key for this user id, print it and exit")
	issueScopes := flag.String("scopes", "read,trade", "comma separated scopes for -issue-key")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("failed to load .env")
	}
	// Reading config
	cfg := config.MustLoad()

	appLogger := logger.New(cfg.LogConfig)
	slog.SetDefault(appLogger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	deps, err := setup.InitializeDependencies(ctx, cfg, appLogger)
	if err != nil {
		appLogger.Error("failed to init dependencies", "error", err)
		os.Exit(1)
	}
	defer deps.Close()

	useCases, err := setup.InitializeUseCases(deps)
	if err != nil {
		appLogger.Error("failed to init usecases", "error", err)
		os.Exit(1)
	}

	if *issueOwner != "" {
		if err := issueAPIKey(ctx, useCases, *issueOwner, *issueScopes); err != nil {
			appLogger.Error("failed to issue api key", "error", err)
			os.Exit(1)
		}
		return
	}

	antiFraud, err := setup.InitializeAntiFraud(ctx, deps)
	if err != nil {
		appLogger.Error("failed to init antifraud", "error", err)
		os.Exit(1)
	}

	limiter := ratelimit.NewKeyedLimiter(cfg.RateLimit.Burst)

	// ============= HTTP =============
	handler := httpapi.NewHandler(httpapi.Deps{
		Listings:    useCases.Listings,
		Bundles:     useCases.Bundles,
		Orders:      useCases.Orders,
		Checkout:    useCases.Checkout,
		Idempotency: useCases.Idempotency,
		Disputes:    useCases.Disputes,
		Payouts:     useCases.Payouts,
		Wallet:      useCases.Wallet,
		Ratings:     useCases.Ratings,
		Scoring:     useCases.Scoring,
		Pricing:     useCases.Pricing,
		AntiFraud:   antiFraud.UseCase,
		APIKeys:     useCases.APIKeys,
		Fees:        useCases.Fees,
		Webhooks:    deps.Payments,
		Limiter:     limiter,
		Metrics:     deps.Metrics,
		Logger:      appLogger,
	})
	httpServer := &http.Server{
		Addr:         net.JoinHostPort(cfg.HTTPServer.Host, cfg.HTTPServer.Port),
		Handler:      handler.Routes(),
		ReadTimeout:  cfg.HTTPServer.ReadTimeout,
		WriteTimeout: cfg.HTTPServer.WriteTimeout,
	}

	// ============= gRPC health =============
	grpcServer := grpc.NewServer()
	healthHandler := grpcapi.NewHealthHandler(15*time.Second, appLogger)
	healthHandler.AddProbe("postgres", func(ctx context.Context) error {
		sqlDB, err := deps.DB.DB()
		if err != nil {
			return err
		}
		return sqlDB.PingContext(ctx)
	})
	healthHandler.AddProbe("redis", func(ctx context.Context) error {
		return deps.Redis.Ping(ctx).Err()
	})
	healthHandler.Register(grpcServer)

	lis, err := net.Listen("tcp", net.JoinHostPort(cfg.GRPCServer.Host, cfg.GRPCServer.Port))
	if err != nil {
		appLogger.Error("failed to listen", "error", err)
		os.Exit(1)
	}

	// ============= Background =============
	tasks := background.NewBackgroundTasks(cfg, appLogger)
	tasks.OrderUsecase = useCases.Orders
	tasks.DisputeUsecase = useCases.Disputes
	tasks.PayoutUsecase = useCases.Payouts
	tasks.ScoringUsecase = useCases.Scoring
	tasks.FraudScheduler = antiFraud.Scheduler
	tasks.Limiter = limiter
	tasks.Subscriber = deps.Subscriber
	if err := tasks.StartAll(ctx); err != nil {
		appLogger.Error("failed to start background tasks", "error", err)
		os.Exit(1)
	}
	go healthHandler.Run(ctx)

	errCh := make(chan error, 2)
	go func() {
		appLogger.Info("gRPC server started", "addr", lis.Addr().String())
		if err := grpcServer.Serve(lis); err != nil {
			errCh <- fmt.Errorf("grpc: %w", err)
		}
	}()
	go func() {
		appLogger.Info("HTTP server started", "addr", httpServer.Addr)
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("http: %w", err)
		}
	}()

	select {
	case <-ctx.Done():
		appLogger.Info("shutting down")
	case err := <-errCh:
		appLogger.Error("server failed", "error", err)
		stop()
	}

	healthHandler.Shutdown()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("http shutdown", "error", err)
	}
	grpcServer.GracefulStop()
}

func issueAPIKey(ctx context.Context, useCases *setup.UseCases, ownerID, rawScopes string) error {
	var scopes []domain.APIScope
	for _, s := range strings.Split(rawScopes, ",") {
		scope := domain.APIScope(strings.TrimSpace(s))
		if !scope.Valid() {
			return fmt.Errorf("unknown scope %q", s)
		}
		scopes = append(scopes, scope)
	}

	key, token, err := useCases.APIKeys.IssueAPIKey(ctx, ownerID, "bootstrap", scopes, 0)
	if err != nil {
		return err
	}
	fmt.Printf("key id: %s\ntoken:  %s\n", key.ID, token)
	return nil
}
