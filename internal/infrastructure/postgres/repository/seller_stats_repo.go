package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/LavaJover/shvark-market-service/internal/domain"
	"gorm.io/gorm"
)

// DefaultSellerStatsRepository computes scoring aggregates straight from orders, disputes and ratings.
type DefaultSellerStatsRepository struct {
	db *gorm.DB
}

func NewDefaultSellerStatsRepository(db *gorm.DB) *DefaultSellerStatsRepository {
	return &DefaultSellerStatsRepository{db: db}
}

// Orders get two days of handling time before shipping counts as delayed.
const shippingGraceDays = 2

func (r *DefaultSellerStatsRepository) RiskAggregates(ctx context.Context, sellerID string, since time.Time) (*domain.RiskAggregates, error) {
	agg := &domain.RiskAggregates{SellerID: sellerID}

	type orderAgg struct {
		Total         int64
		Cancellations int64
		AvgDelay      float64
	}
	var orders orderAgg
	if err := r.db.WithContext(ctx).Raw(`
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE status = ? AND cancelled_by = 'seller') AS cancellations,
			COALESCE(AVG(GREATEST(EXTRACT(EPOCH FROM (shipped_at - paid_at)) / 86400 - ?, 0))
				FILTER (WHERE shipped_at IS NOT NULL AND paid_at IS NOT NULL), 0) AS avg_delay
		FROM orders
		WHERE seller_id = ? AND created_at >= ?`,
		string(domain.StatusCancelled), shippingGraceDays, sellerID, since,
	).Scan(&orders).Error; err != nil {
		return nil, fmt.Errorf("risk order agg: %w", err)
	}
	agg.TotalOrders = orders.Total
	agg.SellerCancellations = orders.Cancellations
	agg.AvgShippingDelayDays = orders.AvgDelay

	if err := r.db.WithContext(ctx).Raw(
		`SELECT COUNT(*) FROM disputes WHERE seller_id = ? AND created_at >= ?`,
		sellerID, since,
	).Scan(&agg.DisputesOpened).Error; err != nil {
		return nil, fmt.Errorf("risk dispute agg: %w", err)
	}

	ratings, err := r.ratingAgg(ctx, sellerID, since)
	if err != nil {
		return nil, err
	}
	agg.AvgRating = ratings.Avg
	agg.RatingCount = ratings.Count

	return agg, nil
}

func (r *DefaultSellerStatsRepository) ReputationAggregates(ctx context.Context, sellerID string, recentSince time.Time) (*domain.ReputationAggregates, error) {
	agg := &domain.ReputationAggregates{SellerID: sellerID}

	if err := r.db.WithContext(ctx).Raw(
		`SELECT COUNT(*) FROM orders WHERE seller_id = ? AND status = ?`,
		sellerID, string(domain.StatusCompleted),
	).Scan(&agg.CompletedOrders).Error; err != nil {
		return nil, fmt.Errorf("completed orders: %w", err)
	}

	ratings, err := r.ratingAgg(ctx, sellerID, time.Time{})
	if err != nil {
		return nil, err
	}
	agg.AvgRating = ratings.Avg
	agg.RatingCount = ratings.Count

	type disputeAgg struct {
		Total      int64
		Lost       int64
		RecentLost int64
	}
	var disputes disputeAgg
	if err := r.db.WithContext(ctx).Raw(`
		SELECT
			COUNT(*) AS total,
			COUNT(*) FILTER (WHERE status = ?) AS lost,
			COUNT(*) FILTER (WHERE status = ? AND resolved_at >= ?) AS recent_lost
		FROM disputes
		WHERE seller_id = ?`,
		string(domain.DisputeResolvedBuyer), string(domain.DisputeResolvedBuyer), recentSince, sellerID,
	).Scan(&disputes).Error; err != nil {
		return nil, fmt.Errorf("reputation dispute agg: %w", err)
	}
	agg.DisputesTotal = disputes.Total
	agg.DisputesLost = disputes.Lost
	agg.RecentDisputesLost = disputes.RecentLost

	type profileAgg struct {
		AvgResponseHours *float64
		AgeDays          float64
	}
	var profile profileAgg
	if err := r.db.WithContext(ctx).Raw(`
		SELECT
			avg_response_hours,
			EXTRACT(EPOCH FROM (NOW() - created_at)) / 86400 AS age_days
		FROM profiles
		WHERE id = ?`,
		sellerID,
	).Scan(&profile).Error; err != nil {
		return nil, fmt.Errorf("profile agg: %w", err)
	}
	agg.AvgResponseHours = profile.AvgResponseHours
	agg.AccountAgeDays = profile.AgeDays

	return agg, nil
}

func (r *DefaultSellerStatsRepository) ShippingStats(ctx context.Context, sellerID string) (float64, int64, error) {
	type shipAgg struct {
		AvgDays float64
		Shipped int64
	}
	var agg shipAgg
	if err := r.db.WithContext(ctx).Raw(`
		SELECT
			COALESCE(AVG(EXTRACT(EPOCH FROM (shipped_at - paid_at)) / 86400), 0) AS avg_days,
			COUNT(*) AS shipped
		FROM orders
		WHERE seller_id = ? AND shipped_at IS NOT NULL AND paid_at IS NOT NULL`,
		sellerID,
	).Scan(&agg).Error; err != nil {
		return 0, 0, fmt.Errorf("shipping stats: %w", err)
	}
	return agg.AvgDays, agg.Shipped, nil
}

// ActiveSellerIDs lists sellers with any order or listing activity since the given time.
func (r *DefaultSellerStatsRepository) ActiveSellerIDs(ctx context.Context, since time.Time) ([]string, error) {
	var ids []string
	if err := r.db.WithContext(ctx).Raw(`
		SELECT seller_id FROM orders WHERE updated_at >= ?
		UNION
		SELECT seller_id FROM listings WHERE updated_at >= ?`,
		since, since,
	).Scan(&ids).Error; err != nil {
		return nil, fmt.Errorf("active sellers: %w", err)
	}
	return ids, nil
}

type ratingAggregate struct {
	Avg   float64
	Count int64
}

func (r *DefaultSellerStatsRepository) ratingAgg(ctx context.Context, sellerID string, since time.Time) (ratingAggregate, error) {
	var agg ratingAggregate
	err := r.db.WithContext(ctx).Raw(`
		SELECT COALESCE(AVG(score), 0) AS avg, COUNT(*) AS count
		FROM ratings
		WHERE seller_id = ? AND created_at >= ?`,
		sellerID, since,
	).Scan(&agg).Error
	if err != nil {
		return agg, fmt.Errorf("rating agg: %w", err)
	}
	return agg, nil
}
