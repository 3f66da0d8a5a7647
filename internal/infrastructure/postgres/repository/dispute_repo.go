package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/LavaJover/shvark-market-service/internal/domain"
	"github.com/LavaJover/shvark-market-service/internal/infrastructure/postgres/mappers"
	"github.com/LavaJover/shvark-market-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
)

type DefaultDisputeRepository struct {
	db *gorm.DB
}

func NewDefaultDisputeRepository(db *gorm.DB) *DefaultDisputeRepository {
	return &DefaultDisputeRepository{db: db}
}

func (r *DefaultDisputeRepository) CreateDispute(ctx context.Context, dispute *domain.Dispute) error {
	disputeModel := mappers.ToGORMDispute(dispute)
	if err := r.db.WithContext(ctx).Omit("Order").Create(disputeModel).Error; err != nil {
		return err
	}
	dispute.ID = disputeModel.ID
	return nil
}

func (r *DefaultDisputeRepository) UpdateDispute(ctx context.Context, dispute *domain.Dispute) error {
	return r.db.WithContext(ctx).Omit("Order").Save(mappers.ToGORMDispute(dispute)).Error
}

func (r *DefaultDisputeRepository) DeleteDispute(ctx context.Context, disputeID string) error {
	return r.db.WithContext(ctx).Delete(&models.DisputeModel{}, "id = ?", disputeID).Error
}

func (r *DefaultDisputeRepository) GetDisputeByID(ctx context.Context, disputeID string) (*domain.Dispute, error) {
	var disputeModel models.DisputeModel
	if err := r.db.WithContext(ctx).Where("id = ?", disputeID).First(&disputeModel).Error; err != nil {
		return nil, notFound(err)
	}
	return mappers.ToDomainDispute(&disputeModel), nil
}

func (r *DefaultDisputeRepository) GetDisputeByOrderID(ctx context.Context, orderID string) (*domain.Dispute, error) {
	var disputeModel models.DisputeModel
	if err := r.db.WithContext(ctx).Where("order_id = ?", orderID).First(&disputeModel).Error; err != nil {
		return nil, notFound(err)
	}
	return mappers.ToDomainDispute(&disputeModel), nil
}

// FindExpiredDisputes returns disputes the seller never answered within the response window.
func (r *DefaultDisputeRepository) FindExpiredDisputes(ctx context.Context, now time.Time) ([]*domain.Dispute, error) {
	var disputeModels []models.DisputeModel
	if err := r.db.WithContext(ctx).
		Where("status = ? AND auto_resolve_at < ?", domain.DisputeOpened, now).
		Find(&disputeModels).Error; err != nil {
		return nil, err
	}
	disputes := make([]*domain.Dispute, len(disputeModels))
	for i := range disputeModels {
		disputes[i] = mappers.ToDomainDispute(&disputeModels[i])
	}
	return disputes, nil
}

func (r *DefaultDisputeRepository) GetDisputes(ctx context.Context, filter domain.GetDisputesFilter) ([]*domain.Dispute, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.DisputeModel{})

	if filter.DisputeID != nil {
		query = query.Where("id = ?", *filter.DisputeID)
	}
	if filter.OrderID != nil {
		query = query.Where("order_id = ?", *filter.OrderID)
	}
	if filter.SellerID != nil {
		query = query.Where("seller_id = ?", *filter.SellerID)
	}
	if filter.BuyerID != nil {
		query = query.Where("buyer_id = ?", *filter.BuyerID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count failed: %w", err)
	}

	offset, size := paginate(filter.Page, filter.Limit)
	var disputeModels []models.DisputeModel
	if err := query.Order("created_at DESC").Offset(offset).Limit(size).Find(&disputeModels).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to find dispute models: %w", err)
	}

	disputes := make([]*domain.Dispute, len(disputeModels))
	for i := range disputeModels {
		disputes[i] = mappers.ToDomainDispute(&disputeModels[i])
	}
	return disputes, total, nil
}

// ============= Fraud flags =============

type DefaultFraudFlagRepository struct {
	db *gorm.DB
}

func NewDefaultFraudFlagRepository(db *gorm.DB) *DefaultFraudFlagRepository {
	return &DefaultFraudFlagRepository{db: db}
}

func (r *DefaultFraudFlagRepository) CreateFlag(ctx context.Context, flag *domain.FraudFlag) error {
	return r.db.WithContext(ctx).Create(mappers.ToGORMFraudFlag(flag)).Error
}

func (r *DefaultFraudFlagRepository) GetFlagByID(ctx context.Context, flagID string) (*domain.FraudFlag, error) {
	var model models.FraudFlagModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", flagID).Error; err != nil {
		return nil, notFound(err)
	}
	return mappers.ToDomainFraudFlag(&model), nil
}

func (r *DefaultFraudFlagRepository) UpdateFlagStatus(ctx context.Context, flagID string, status domain.FraudFlagStatus, reviewer string) error {
	res := r.db.WithContext(ctx).Model(&models.FraudFlagModel{}).
		Where("id = ?", flagID).
		Updates(map[string]interface{}{
			"status":      string(status),
			"reviewed_by": reviewer,
			"reviewed_at": time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *DefaultFraudFlagRepository) FindFlags(ctx context.Context, filter domain.FraudFlagFilter) ([]*domain.FraudFlag, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.FraudFlagModel{})
	if filter.UserID != nil {
		query = query.Where("user_id = ?", *filter.UserID)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count failed: %w", err)
	}

	offset, size := paginate(filter.Page, filter.Limit)
	var flagModels []models.FraudFlagModel
	if err := query.Order("created_at DESC").Offset(offset).Limit(size).Find(&flagModels).Error; err != nil {
		return nil, 0, err
	}
	flags := make([]*domain.FraudFlag, len(flagModels))
	for i := range flagModels {
		flags[i] = mappers.ToDomainFraudFlag(&flagModels[i])
	}
	return flags, total, nil
}

func (r *DefaultFraudFlagRepository) HasOpenFlag(ctx context.Context, userID, source string) (bool, error) {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.FraudFlagModel{}).
		Where("user_id = ? AND source = ? AND status = ?", userID, source, string(domain.FraudFlagOpen)).
		Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}
