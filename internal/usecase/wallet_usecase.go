package usecase

import (
	"context"
	"log/slog"

	"github.com/LavaJover/shvark-market-service/internal/domain"
)

// WalletCache is the short lived balance cache in front of the SQL aggregates.
type WalletCache interface {
	Get(ctx context.Context, sellerID string) (*domain.WalletBalance, bool, error)
	Set(ctx context.Context, balance *domain.WalletBalance) error
	Invalidate(ctx context.Context, sellerID string) error
}

type WalletUsecase interface {
	GetBalance(ctx context.Context, sellerID string) (*domain.WalletBalance, error)
	Invalidate(ctx context.Context, sellerID string)
}

type DefaultWalletUsecase struct {
	orderRepo  domain.OrderRepository
	payoutRepo domain.PayoutRepository
	cache      WalletCache
	currency   string
	logger     *slog.Logger
}

// NewDefaultWalletUsecase accepts a nil cache.
func NewDefaultWalletUsecase(orderRepo domain.OrderRepository, payoutRepo domain.PayoutRepository, cache WalletCache, currency string, logger *slog.Logger) *DefaultWalletUsecase {
	if currency == "" {
		currency = defaultCurrency
	}
	return &DefaultWalletUsecase{
		orderRepo:  orderRepo,
		payoutRepo: payoutRepo,
		cache:      cache,
		currency:   currency,
		logger:     logger,
	}
}

// GetBalance returns pending (paid, not yet completed) and available
// (completed minus payouts) seller funds.
func (uc *DefaultWalletUsecase) GetBalance(ctx context.Context, sellerID string) (*domain.WalletBalance, error) {
	if uc.cache != nil {
		if cached, ok, err := uc.cache.Get(ctx, sellerID); err != nil {
			uc.logger.Warn("wallet cache read failed", "seller_id", sellerID, "error", err)
		} else if ok {
			return cached, nil
		}
	}

	pending, completed, err := uc.orderRepo.SellerBalances(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	paidOut, err := uc.payoutRepo.SumPayouts(ctx, sellerID)
	if err != nil {
		return nil, err
	}

	available := completed.Sub(paidOut)
	if available.IsNegative() {
		uc.logger.Error("seller payouts exceed completed sales", "seller_id", sellerID, "completed", completed, "paid_out", paidOut)
	}

	balance := &domain.WalletBalance{
		SellerID:  sellerID,
		Pending:   pending.Round(2),
		Available: available.Round(2),
		PaidOut:   paidOut.Round(2),
		Currency:  uc.currency,
	}

	if uc.cache != nil {
		if err := uc.cache.Set(ctx, balance); err != nil {
			uc.logger.Warn("wallet cache write failed", "seller_id", sellerID, "error", err)
		}
	}
	return balance, nil
}

func (uc *DefaultWalletUsecase) Invalidate(ctx context.Context, sellerID string) {
	if uc == nil || uc.cache == nil {
		return
	}
	if err := uc.cache.Invalidate(ctx, sellerID); err != nil {
		uc.logger.Warn("wallet cache invalidation failed", "seller_id", sellerID, "error", err)
	}
}
