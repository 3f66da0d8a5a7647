package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/LavaJover/shvark-market-service/internal/domain"
	"github.com/LavaJover/shvark-market-service/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-market-service/internal/usecase/fees"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PayoutUsecase interface {
	// RequestPayout withdraws amount (all available funds when nil).
	RequestPayout(ctx context.Context, sellerID string, amount *decimal.Decimal, method domain.PayoutMethod) (*domain.Payout, error)
	ProcessPayout(ctx context.Context, payoutID string) (*domain.Payout, error)
	ProcessPendingPayouts(ctx context.Context, batchSize int) (int, error)
	GetSellerPayouts(ctx context.Context, sellerID string, page, limit int) ([]*domain.Payout, int64, error)
}

// stalePayoutAfter is how long a payout may sit in processing before the
// worker hands it back to pending.
const stalePayoutAfter = 15 * time.Minute

type DefaultPayoutUsecase struct {
	payoutRepo  domain.PayoutRepository
	profileRepo domain.ProfileRepository
	payments    domain.PaymentProvider
	wallet      WalletUsecase
	calculator  *fees.Calculator
	metrics     *metrics.MarketMetrics
	logger      *slog.Logger
	staleAfter  time.Duration
}

func NewDefaultPayoutUsecase(
	payoutRepo domain.PayoutRepository,
	profileRepo domain.ProfileRepository,
	payments domain.PaymentProvider,
	wallet WalletUsecase,
	calculator *fees.Calculator,
	marketMetrics *metrics.MarketMetrics,
	logger *slog.Logger,
) *DefaultPayoutUsecase {
	return &DefaultPayoutUsecase{
		payoutRepo:  payoutRepo,
		profileRepo: profileRepo,
		payments:    payments,
		wallet:      wallet,
		calculator:  calculator,
		metrics:     marketMetrics,
		logger:      logger,
		staleAfter:  stalePayoutAfter,
	}
}

func (uc *DefaultPayoutUsecase) RequestPayout(ctx context.Context, sellerID string, amount *decimal.Decimal, method domain.PayoutMethod) (*domain.Payout, error) {
	if method == "" {
		method = domain.PayoutStandard
	}
	if method != domain.PayoutStandard && method != domain.PayoutInstant {
		return nil, fmt.Errorf("%w: unknown payout method %q", domain.ErrInvalidInput, method)
	}

	profile, err := uc.profileRepo.GetProfileByID(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	if profile.StripeAccountID == "" {
		return nil, fmt.Errorf("%w: seller has no connected payout account", domain.ErrInvalidInput)
	}

	uc.wallet.Invalidate(ctx, sellerID)
	balance, err := uc.wallet.GetBalance(ctx, sellerID)
	if err != nil {
		return nil, err
	}

	requested := balance.Available
	if amount != nil {
		requested = amount.Round(2)
	}
	if !requested.IsPositive() {
		return nil, fmt.Errorf("%w: payout amount must be positive", domain.ErrInvalidInput)
	}
	if requested.GreaterThan(balance.Available) {
		return nil, domain.ErrInsufficientFunds
	}

	fee := decimal.Zero
	if method == domain.PayoutInstant {
		fee = uc.calculator.InstantPayoutFee(profile.MembershipTier, requested)
	}
	net := requested.Sub(fee)
	if !net.IsPositive() {
		return nil, fmt.Errorf("%w: payout does not cover the instant payout fee", domain.ErrInvalidInput)
	}

	payout := &domain.Payout{
		ID:        uuid.New().String(),
		SellerID:  sellerID,
		Amount:    requested,
		Fee:       fee,
		NetAmount: net,
		Currency:  balance.Currency,
		Method:    method,
		Status:    domain.PayoutPending,
		CreatedAt: time.Now(),
		UpdatedAt: time.Now(),
	}
	if err := uc.payoutRepo.CreatePayout(ctx, payout); err != nil {
		return nil, fmt.Errorf("failed to create payout: %w", err)
	}
	uc.wallet.Invalidate(ctx, sellerID)

	// instant payouts go out right away, standard ones wait for the worker
	if method == domain.PayoutInstant {
		return uc.ProcessPayout(ctx, payout.ID)
	}
	return payout, nil
}

// ProcessPayout transfers a pending payout. A payout already completed, or
// claimed by another worker, is returned unchanged.
func (uc *DefaultPayoutUsecase) ProcessPayout(ctx context.Context, payoutID string) (*domain.Payout, error) {
	payout, err := uc.payoutRepo.GetPayoutByID(ctx, payoutID)
	if err != nil {
		return nil, err
	}
	if payout.Status != domain.PayoutPending {
		uc.logger.Info("payout already processed, skipping", "payout_id", payoutID, "status", payout.Status)
		return payout, nil
	}

	claimed, err := uc.payoutRepo.ClaimPayout(ctx, payoutID)
	if err != nil {
		return nil, err
	}
	if !claimed {
		return uc.payoutRepo.GetPayoutByID(ctx, payoutID)
	}
	payout.Status = domain.PayoutProcessing

	profile, err := uc.profileRepo.GetProfileByID(ctx, payout.SellerID)
	if err != nil {
		return nil, err
	}

	transferID, err := uc.payments.Transfer(ctx, profile.StripeAccountID, payout.NetAmount, payout.Currency, "payout-"+payout.ID)
	now := time.Now()
	payout.UpdatedAt = now
	if err != nil {
		payout.Status = domain.PayoutFailed
		payout.FailureReason = err.Error()
		uc.logger.Error("payout transfer failed", "payout_id", payout.ID, "seller_id", payout.SellerID, "error", err)
	} else {
		payout.Status = domain.PayoutCompleted
		payout.TransferID = transferID
		payout.CompletedAt = &now
	}

	if uerr := uc.payoutRepo.UpdatePayout(ctx, payout); uerr != nil {
		return nil, fmt.Errorf("failed to save payout %s: %w", payout.ID, uerr)
	}
	uc.wallet.Invalidate(ctx, payout.SellerID)
	uc.metrics.RecordPayout(string(payout.Method), string(payout.Status), payout.Currency, payout.NetAmount, payout.Fee)

	if err != nil {
		return payout, fmt.Errorf("%w: %v", domain.ErrPayoutFailed, err)
	}
	return payout, nil
}

func (uc *DefaultPayoutUsecase) ProcessPendingPayouts(ctx context.Context, batchSize int) (int, error) {
	// упавший воркер оставляет выплату в processing; повтор безопасен, ключ идемпотентности payout-<id>
	released, err := uc.payoutRepo.ReleaseStalePayouts(ctx, time.Now().Add(-uc.staleAfter))
	if err != nil {
		uc.logger.Error("failed to release stale payouts", "error", err)
	} else if released > 0 {
		uc.logger.Warn("stale processing payouts returned to pending", "count", released)
	}

	pending, err := uc.payoutRepo.FindPendingPayouts(ctx, batchSize)
	if err != nil {
		return 0, err
	}
	done := 0
	for _, p := range pending {
		if ctx.Err() != nil {
			return done, ctx.Err()
		}
		if _, err := uc.ProcessPayout(ctx, p.ID); err != nil {
			uc.logger.Error("failed to process payout", "payout_id", p.ID, "error", err)
			continue
		}
		done++
	}
	return done, nil
}

func (uc *DefaultPayoutUsecase) GetSellerPayouts(ctx context.Context, sellerID string, page, limit int) ([]*domain.Payout, int64, error) {
	return uc.payoutRepo.GetSellerPayouts(ctx, sellerID, page, limit)
}
