package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/LavaJover/shvark-market-service/internal/domain"
	"github.com/LavaJover/shvark-market-service/internal/infrastructure/postgres/mappers"
	"github.com/LavaJover/shvark-market-service/internal/infrastructure/postgres/models"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type DefaultOrderRepository struct {
	DB *gorm.DB
}

func NewDefaultOrderRepository(db *gorm.DB) *DefaultOrderRepository {
	return &DefaultOrderRepository{DB: db}
}

func (r *DefaultOrderRepository) CreateOrder(ctx context.Context, order *domain.Order) error {
	return r.DB.WithContext(ctx).Create(mappers.ToGORMOrder(order)).Error
}

func (r *DefaultOrderRepository) GetOrderByID(ctx context.Context, orderID string) (*domain.Order, error) {
	var order models.OrderModel
	if err := r.DB.WithContext(ctx).First(&order, "id = ?", orderID).Error; err != nil {
		return nil, notFound(err)
	}
	return mappers.ToDomainOrder(&order), nil
}

func (r *DefaultOrderRepository) GetOrderByPaymentIntentID(ctx context.Context, paymentIntentID string) (*domain.Order, error) {
	var order models.OrderModel
	if err := r.DB.WithContext(ctx).First(&order, "payment_intent_id = ?", paymentIntentID).Error; err != nil {
		return nil, notFound(err)
	}
	return mappers.ToDomainOrder(&order), nil
}

// statusTimestamps maps a target status to the milestone column it stamps.
var statusTimestamps = map[domain.OrderStatus]string{
	domain.StatusPaid:      "paid_at",
	domain.StatusShipped:   "shipped_at",
	domain.StatusDelivered: "delivered_at",
	domain.StatusCompleted: "completed_at",
}

func (r *DefaultOrderRepository) UpdateOrderStatus(ctx context.Context, orderID string, from, to domain.OrderStatus) error {
	updates := map[string]interface{}{"status": string(to)}
	if column, ok := statusTimestamps[to]; ok {
		updates[column] = time.Now()
	}
	return r.compareAndSet(ctx, orderID, from, updates)
}

func (r *DefaultOrderRepository) CancelOrder(ctx context.Context, orderID string, from domain.OrderStatus, cancelledBy string) error {
	return r.compareAndSet(ctx, orderID, from, map[string]interface{}{
		"status":       string(domain.StatusCancelled),
		"cancelled_by": cancelledBy,
	})
}

func (r *DefaultOrderRepository) compareAndSet(ctx context.Context, orderID string, from domain.OrderStatus, updates map[string]interface{}) error {
	res := r.DB.WithContext(ctx).Model(&models.OrderModel{}).
		Where("id = ? AND status = ?", orderID, string(from)).
		Updates(updates)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrInvalidTransition
	}
	return nil
}

func (r *DefaultOrderRepository) SetPaymentIntent(ctx context.Context, orderID, paymentIntentID, clientSecret string) error {
	return r.DB.WithContext(ctx).Model(&models.OrderModel{}).
		Where("id = ?", orderID).
		Updates(map[string]interface{}{
			"payment_intent_id": paymentIntentID,
			"client_secret":     clientSecret,
		}).Error
}

func (r *DefaultOrderRepository) SetShipment(ctx context.Context, orderID string, shipment *domain.Shipment) error {
	return r.DB.WithContext(ctx).Model(&models.OrderModel{}).
		Where("id = ?", orderID).
		Updates(map[string]interface{}{
			"carrier":         shipment.Carrier,
			"tracking_number": shipment.TrackingNumber,
			"tracking_url":    shipment.TrackingURL,
			"label_url":       shipment.LabelURL,
		}).Error
}

func (r *DefaultOrderRepository) FindOrders(ctx context.Context, filter domain.OrderFilter) ([]*domain.Order, int64, error) {
	query := r.DB.WithContext(ctx).Model(&models.OrderModel{})

	if filter.BuyerID != nil {
		query = query.Where("buyer_id = ?", *filter.BuyerID)
	}
	if filter.SellerID != nil {
		query = query.Where("seller_id = ?", *filter.SellerID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count failed: %w", err)
	}

	offset, size := paginate(filter.Page, filter.Limit)
	var orderModels []models.OrderModel
	if err := query.Order("created_at DESC").Offset(offset).Limit(size).Find(&orderModels).Error; err != nil {
		return nil, 0, fmt.Errorf("find failed: %w", err)
	}

	orders := make([]*domain.Order, len(orderModels))
	for i := range orderModels {
		orders[i] = mappers.ToDomainOrder(&orderModels[i])
	}
	return orders, total, nil
}

func (r *DefaultOrderRepository) FindStalePendingOrders(ctx context.Context, olderThan time.Time) ([]*domain.Order, error) {
	var orderModels []models.OrderModel
	if err := r.DB.WithContext(ctx).
		Where("status = ? AND created_at < ?", string(domain.StatusPendingPayment), olderThan).
		Find(&orderModels).Error; err != nil {
		return nil, err
	}
	orders := make([]*domain.Order, len(orderModels))
	for i := range orderModels {
		orders[i] = mappers.ToDomainOrder(&orderModels[i])
	}
	return orders, nil
}

type sumAgg struct {
	Total decimal.NullDecimal
}

func (a sumAgg) value() decimal.Decimal {
	if !a.Total.Valid {
		return decimal.Zero
	}
	return a.Total.Decimal
}

// gmvStatuses are the statuses in which a purchase counts toward buyer GMV.
var gmvStatuses = []string{
	string(domain.StatusPaid),
	string(domain.StatusShipped),
	string(domain.StatusDelivered),
	string(domain.StatusCompleted),
}

func (r *DefaultOrderRepository) BuyerMonthlyGMV(ctx context.Context, buyerID string, since time.Time) (decimal.Decimal, error) {
	var agg sumAgg
	if err := r.DB.WithContext(ctx).Model(&models.OrderModel{}).
		Select("SUM(item_price) AS total").
		Where("buyer_id = ? AND status IN ? AND created_at >= ?", buyerID, gmvStatuses, since).
		Scan(&agg).Error; err != nil {
		return decimal.Zero, fmt.Errorf("buyer gmv: %w", err)
	}
	return agg.value(), nil
}

func (r *DefaultOrderRepository) SellerBalances(ctx context.Context, sellerID string) (pending, completed decimal.Decimal, err error) {
	type balanceAgg struct {
		Pending   decimal.NullDecimal
		Completed decimal.NullDecimal
	}
	var agg balanceAgg
	err = r.DB.WithContext(ctx).Model(&models.OrderModel{}).
		Select(`SUM(CASE WHEN status IN ? THEN seller_net END) AS pending,
			SUM(CASE WHEN status = ? THEN seller_net END) AS completed`,
			[]string{
				string(domain.StatusPaid),
				string(domain.StatusShipped),
				string(domain.StatusDelivered),
				string(domain.StatusDisputed),
			},
			string(domain.StatusCompleted)).
		Where("seller_id = ?", sellerID).
		Scan(&agg).Error
	if err != nil {
		return decimal.Zero, decimal.Zero, fmt.Errorf("seller balances: %w", err)
	}
	if agg.Pending.Valid {
		pending = agg.Pending.Decimal
	}
	if agg.Completed.Valid {
		completed = agg.Completed.Decimal
	}
	return pending, completed, nil
}

// ============= Payouts =============

type DefaultPayoutRepository struct {
	db *gorm.DB
}

func NewDefaultPayoutRepository(db *gorm.DB) *DefaultPayoutRepository {
	return &DefaultPayoutRepository{db: db}
}

func (r *DefaultPayoutRepository) CreatePayout(ctx context.Context, payout *domain.Payout) error {
	return r.db.WithContext(ctx).Create(mappers.ToGORMPayout(payout)).Error
}

func (r *DefaultPayoutRepository) GetPayoutByID(ctx context.Context, payoutID string) (*domain.Payout, error) {
	var model models.PayoutModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", payoutID).Error; err != nil {
		return nil, notFound(err)
	}
	return mappers.ToDomainPayout(&model), nil
}

func (r *DefaultPayoutRepository) UpdatePayout(ctx context.Context, payout *domain.Payout) error {
	return r.db.WithContext(ctx).Save(mappers.ToGORMPayout(payout)).Error
}

func (r *DefaultPayoutRepository) ClaimPayout(ctx context.Context, payoutID string) (bool, error) {
	res := r.db.WithContext(ctx).Model(&models.PayoutModel{}).
		Where("id = ? AND status = ?", payoutID, string(domain.PayoutPending)).
		Update("status", string(domain.PayoutProcessing))
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// SumPayouts totals every payout that has not failed, so in-flight transfers already reduce the available balance.
func (r *DefaultPayoutRepository) SumPayouts(ctx context.Context, sellerID string) (decimal.Decimal, error) {
	var agg sumAgg
	if err := r.db.WithContext(ctx).Model(&models.PayoutModel{}).
		Select("SUM(amount) AS total").
		Where("seller_id = ? AND status <> ?", sellerID, string(domain.PayoutFailed)).
		Scan(&agg).Error; err != nil {
		return decimal.Zero, fmt.Errorf("sum payouts: %w", err)
	}
	return agg.value(), nil
}

func (r *DefaultPayoutRepository) GetSellerPayouts(ctx context.Context, sellerID string, page, limit int) ([]*domain.Payout, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.PayoutModel{}).Where("seller_id = ?", sellerID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count failed: %w", err)
	}

	offset, size := paginate(page, limit)
	var payoutModels []models.PayoutModel
	if err := query.Order("created_at DESC").Offset(offset).Limit(size).Find(&payoutModels).Error; err != nil {
		return nil, 0, err
	}
	payouts := make([]*domain.Payout, len(payoutModels))
	for i := range payoutModels {
		payouts[i] = mappers.ToDomainPayout(&payoutModels[i])
	}
	return payouts, total, nil
}

func (r *DefaultPayoutRepository) FindPendingPayouts(ctx context.Context, limit int) ([]*domain.Payout, error) {
	var payoutModels []models.PayoutModel
	if err := r.db.WithContext(ctx).
		Where("status = ?", string(domain.PayoutPending)).
		Order("created_at ASC").
		Limit(limit).
		Find(&payoutModels).Error; err != nil {
		return nil, err
	}
	payouts := make([]*domain.Payout, len(payoutModels))
	for i := range payoutModels {
		payouts[i] = mappers.ToDomainPayout(&payoutModels[i])
	}
	return payouts, nil
}

func (r *DefaultPayoutRepository) ReleaseStalePayouts(ctx context.Context, olderThan time.Time) (int64, error) {
	res := r.db.WithContext(ctx).Model(&models.PayoutModel{}).
		Where("status = ? AND updated_at < ?", string(domain.PayoutProcessing), olderThan).
		Update("status", string(domain.PayoutPending))
	if res.Error != nil {
		return 0, fmt.Errorf("release stale payouts: %w", res.Error)
	}
	return res.RowsAffected, nil
}

// ============= Checkout sessions =============

type DefaultCheckoutSessionRepository struct {
	db *gorm.DB
}

func NewDefaultCheckoutSessionRepository(db *gorm.DB) *DefaultCheckoutSessionRepository {
	return &DefaultCheckoutSessionRepository{db: db}
}

func (r *DefaultCheckoutSessionRepository) CreateSession(ctx context.Context, session *domain.CheckoutSession) error {
	return r.db.WithContext(ctx).Create(mappers.ToGORMCheckoutSession(session)).Error
}

func (r *DefaultCheckoutSessionRepository) GetSessionByID(ctx context.Context, sessionID string) (*domain.CheckoutSession, error) {
	var model models.CheckoutSessionModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", sessionID).Error; err != nil {
		return nil, notFound(err)
	}
	return mappers.ToDomainCheckoutSession(&model), nil
}

func (r *DefaultCheckoutSessionRepository) UpdateSession(ctx context.Context, session *domain.CheckoutSession) error {
	return r.db.WithContext(ctx).Save(mappers.ToGORMCheckoutSession(session)).Error
}
