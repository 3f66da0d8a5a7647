package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/LavaJover/shvark-market-service/internal/domain"
	"github.com/LavaJover/shvark-market-service/internal/infrastructure/metrics"
	"github.com/LavaJover/shvark-market-service/internal/usecase/scoring"
	"github.com/google/uuid"
)

const (
	// RiskTierFlagSource marks fraud flags raised when a seller drops to tier C.
	RiskTierFlagSource  = "risk_tier"
	activeSellerWindow  = 90 * 24 * time.Hour
	recentDisputeWindow = 30 * 24 * time.Hour
)

type SellerScoringUsecase interface {
	RecalculateRiskTier(ctx context.Context, sellerID string) (*domain.RiskAssessment, error)
	RecalculateReputation(ctx context.Context, sellerID string) (*domain.Reputation, error)
	RecalculateBadges(ctx context.Context, sellerID string) ([]domain.SellerBadge, error)
	RecalculateSeller(ctx context.Context, sellerID string) error

	RecalculateAllRiskTiers(ctx context.Context) (*BatchResult, error)
	RecalculateAllReputations(ctx context.Context) (*BatchResult, error)
	RecalculateAllBadges(ctx context.Context) (*BatchResult, error)
	RecalculateAll(ctx context.Context) (*BatchResult, error)

	GetRiskTier(ctx context.Context, sellerID string) (domain.RiskTier, error)
	GetSellerReputation(ctx context.Context, sellerID string) (*SellerReputationView, error)
}

// BatchResult summarises a run over every active seller.
type BatchResult struct {
	Processed int      `json:"processed"`
	Failed    int      `json:"failed"`
	FailedIDs []string `json:"failed_ids,omitempty"`
}

type SellerReputationView struct {
	SellerID          string                   `json:"seller_id"`
	Score             int                      `json:"score"`
	VerificationLevel domain.VerificationLevel `json:"verification_level"`
	RiskTier          domain.RiskTier          `json:"risk_tier"`
	Badges            []domain.BadgeType       `json:"badges"`
	CalculatedAt      time.Time                `json:"calculated_at"`
}

type DefaultSellerScoringUsecase struct {
	stats   domain.SellerStatsRepository
	scores  domain.ScoringRepository
	flags   domain.FraudFlagRepository
	events  *EventBus
	metrics *metrics.MarketMetrics
	logger  *slog.Logger
	now     func() time.Time
}

func NewDefaultSellerScoringUsecase(
	stats domain.SellerStatsRepository,
	scores domain.ScoringRepository,
	flags domain.FraudFlagRepository,
	events *EventBus,
	marketMetrics *metrics.MarketMetrics,
	logger *slog.Logger,
) *DefaultSellerScoringUsecase {
	return &DefaultSellerScoringUsecase{
		stats:   stats,
		scores:  scores,
		flags:   flags,
		events:  events,
		metrics: marketMetrics,
		logger:  logger,
		now:     time.Now,
	}
}

// ============= Risk tiers =============

func (uc *DefaultSellerScoringUsecase) RecalculateRiskTier(ctx context.Context, sellerID string) (*domain.RiskAssessment, error) {
	now := uc.now()
	agg, err := uc.stats.RiskAggregates(ctx, sellerID, now.Add(-scoring.RiskWindow))
	if err != nil {
		return nil, fmt.Errorf("failed to load risk aggregates: %w", err)
	}

	previous, err := uc.scores.GetRiskAssessment(ctx, sellerID)
	if err != nil && !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	assessment := scoring.CalculateRisk(*agg, now)
	assessment.SellerID = sellerID
	if err := uc.scores.UpsertRiskAssessment(ctx, &assessment); err != nil {
		return nil, fmt.Errorf("failed to save risk tier: %w", err)
	}
	uc.metrics.RecordRiskTier(string(assessment.Tier))

	if previous == nil || previous.Tier != assessment.Tier {
		uc.events.Seller(domain.SellerEvent{
			Type:       domain.EventSellerRiskTierChanged,
			SellerID:   sellerID,
			RiskTier:   string(assessment.Tier),
			OccurredAt: now,
		})
	}

	if assessment.Tier == domain.RiskTierC {
		if err := uc.flagTierC(ctx, &assessment); err != nil {
			uc.logger.Error("failed to raise risk tier flag", "seller_id", sellerID, "error", err)
		}
	}

	return &assessment, nil
}

// flagTierC raises one open flag per seller while they stay in tier C.
func (uc *DefaultSellerScoringUsecase) flagTierC(ctx context.Context, a *domain.RiskAssessment) error {
	open, err := uc.flags.HasOpenFlag(ctx, a.SellerID, RiskTierFlagSource)
	if err != nil {
		return err
	}
	if open {
		return nil
	}

	details := map[string]interface{}{
		"score":             a.Score,
		"cancellation_rate": a.CancellationRate,
		"dispute_ratio":     a.DisputeRatio,
	}
	for k, v := range a.Components {
		details[k] = v
	}
	flag := &domain.FraudFlag{
		ID:        uuid.New().String(),
		UserID:    a.SellerID,
		Source:    RiskTierFlagSource,
		Reason:    fmt.Sprintf("seller risk score %d reached tier C", a.Score),
		Severity:  domain.SeverityHigh,
		Details:   details,
		Status:    domain.FraudFlagOpen,
		CreatedAt: uc.now(),
	}
	if err := uc.flags.CreateFlag(ctx, flag); err != nil {
		return err
	}
	uc.metrics.RecordFraudFlag(RiskTierFlagSource, string(flag.Severity))
	uc.events.Seller(domain.SellerEvent{
		Type:       domain.EventSellerFlagged,
		SellerID:   a.SellerID,
		RiskTier:   string(a.Tier),
		OccurredAt: flag.CreatedAt,
	})
	return nil
}

// GetRiskTier returns the stored tier; sellers never scored are treated as tier A.
func (uc *DefaultSellerScoringUsecase) GetRiskTier(ctx context.Context, sellerID string) (domain.RiskTier, error) {
	a, err := uc.scores.GetRiskAssessment(ctx, sellerID)
	if errors.Is(err, domain.ErrNotFound) {
		return domain.RiskTierA, nil
	}
	if err != nil {
		return "", err
	}
	return a.Tier, nil
}

// ============= Reputation =============

func (uc *DefaultSellerScoringUsecase) RecalculateReputation(ctx context.Context, sellerID string) (*domain.Reputation, error) {
	now := uc.now()
	agg, err := uc.stats.ReputationAggregates(ctx, sellerID, now.Add(-recentDisputeWindow))
	if err != nil {
		return nil, fmt.Errorf("failed to load reputation aggregates: %w", err)
	}

	rep := scoring.CalculateReputation(*agg, now)
	rep.SellerID = sellerID
	if err := uc.scores.UpsertReputation(ctx, &rep); err != nil {
		return nil, fmt.Errorf("failed to save reputation: %w", err)
	}

	uc.events.Seller(domain.SellerEvent{
		Type:              domain.EventSellerRescored,
		SellerID:          sellerID,
		ReputationScore:   rep.Score,
		VerificationLevel: string(rep.Level),
		OccurredAt:        now,
	})
	return &rep, nil
}

// ============= Badges =============

func (uc *DefaultSellerScoringUsecase) RecalculateBadges(ctx context.Context, sellerID string) ([]domain.SellerBadge, error) {
	now := uc.now()
	agg, err := uc.stats.ReputationAggregates(ctx, sellerID, now.Add(-recentDisputeWindow))
	if err != nil {
		return nil, fmt.Errorf("failed to load reputation aggregates: %w", err)
	}
	avgShip, shipped, err := uc.stats.ShippingStats(ctx, sellerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load shipping stats: %w", err)
	}

	level := scoring.CalculateReputation(*agg, now).Level
	if rep, err := uc.scores.GetReputation(ctx, sellerID); err == nil {
		level = rep.Level
	}
	tier, err := uc.GetRiskTier(ctx, sellerID)
	if err != nil {
		return nil, err
	}

	awarded := scoring.AwardBadges(domain.BadgeInput{
		SellerID:         sellerID,
		AvgRating:        agg.AvgRating,
		RatingCount:      agg.RatingCount,
		AvgShipDays:      avgShip,
		ShippedOrders:    shipped,
		CompletedOrders:  agg.CompletedOrders,
		AvgResponseHours: agg.AvgResponseHours,
		AccountAgeDays:   agg.AccountAgeDays,
		Level:            level,
		RiskTier:         tier,
	})

	existing, err := uc.scores.GetBadges(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	since := make(map[domain.BadgeType]time.Time, len(existing))
	for _, b := range existing {
		since[b.Badge] = b.AwardedAt
	}

	badges := make([]domain.SellerBadge, 0, len(awarded))
	names := make([]string, 0, len(awarded))
	changed := len(existing) != len(awarded)
	for _, b := range awarded {
		at, held := since[b]
		if !held {
			at = now
			changed = true
		}
		badges = append(badges, domain.SellerBadge{SellerID: sellerID, Badge: b, AwardedAt: at})
		names = append(names, string(b))
	}

	if err := uc.scores.ReplaceBadges(ctx, sellerID, badges); err != nil {
		return nil, fmt.Errorf("failed to save badges: %w", err)
	}
	if changed {
		uc.events.Seller(domain.SellerEvent{
			Type:       domain.EventSellerBadgesChanged,
			SellerID:   sellerID,
			Badges:     names,
			OccurredAt: now,
		})
	}
	return badges, nil
}

// RecalculateSeller refreshes risk, reputation and badges in dependency order.
func (uc *DefaultSellerScoringUsecase) RecalculateSeller(ctx context.Context, sellerID string) error {
	if _, err := uc.RecalculateRiskTier(ctx, sellerID); err != nil {
		return err
	}
	if _, err := uc.RecalculateReputation(ctx, sellerID); err != nil {
		return err
	}
	_, err := uc.RecalculateBadges(ctx, sellerID)
	return err
}

// ============= Batch runs =============

func (uc *DefaultSellerScoringUsecase) forEachSeller(ctx context.Context, name string, fn func(ctx context.Context, sellerID string) error) (*BatchResult, error) {
	started := uc.now()
	ids, err := uc.stats.ActiveSellerIDs(ctx, started.Add(-activeSellerWindow))
	if err != nil {
		return nil, fmt.Errorf("failed to list active sellers: %w", err)
	}

	result := &BatchResult{}
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if err := fn(ctx, id); err != nil {
			uc.logger.Error("seller recalculation failed", "run", name, "seller_id", id, "error", err)
			result.Failed++
			result.FailedIDs = append(result.FailedIDs, id)
			continue
		}
		result.Processed++
	}

	elapsed := time.Since(started)
	uc.metrics.RecordScoringRun(elapsed.Seconds())
	uc.logger.Info("seller recalculation finished", "run", name, "processed", result.Processed, "failed", result.Failed, "elapsed", elapsed)
	return result, nil
}

func (uc *DefaultSellerScoringUsecase) RecalculateAllRiskTiers(ctx context.Context) (*BatchResult, error) {
	return uc.forEachSeller(ctx, "risk_tiers", func(ctx context.Context, id string) error {
		_, err := uc.RecalculateRiskTier(ctx, id)
		return err
	})
}

func (uc *DefaultSellerScoringUsecase) RecalculateAllReputations(ctx context.Context) (*BatchResult, error) {
	return uc.forEachSeller(ctx, "reputations", func(ctx context.Context, id string) error {
		_, err := uc.RecalculateReputation(ctx, id)
		return err
	})
}

func (uc *DefaultSellerScoringUsecase) RecalculateAllBadges(ctx context.Context) (*BatchResult, error) {
	return uc.forEachSeller(ctx, "badges", func(ctx context.Context, id string) error {
		_, err := uc.RecalculateBadges(ctx, id)
		return err
	})
}

func (uc *DefaultSellerScoringUsecase) RecalculateAll(ctx context.Context) (*BatchResult, error) {
	return uc.forEachSeller(ctx, "all", uc.RecalculateSeller)
}

// ============= Queries =============

func (uc *DefaultSellerScoringUsecase) GetSellerReputation(ctx context.Context, sellerID string) (*SellerReputationView, error) {
	rep, err := uc.scores.GetReputation(ctx, sellerID)
	if errors.Is(err, domain.ErrNotFound) {
		// ещё не считали - считаем на лету
		rep, err = uc.RecalculateReputation(ctx, sellerID)
	}
	if err != nil {
		return nil, err
	}

	tier, err := uc.GetRiskTier(ctx, sellerID)
	if err != nil {
		return nil, err
	}
	badges, err := uc.scores.GetBadges(ctx, sellerID)
	if err != nil {
		return nil, err
	}

	view := &SellerReputationView{
		SellerID:          sellerID,
		Score:             rep.Score,
		VerificationLevel: rep.Level,
		RiskTier:          tier,
		Badges:            make([]domain.BadgeType, 0, len(badges)),
		CalculatedAt:      rep.CalculatedAt,
	}
	for _, b := range badges {
		view.Badges = append(view.Badges, b.Badge)
	}
	return view, nil
}
