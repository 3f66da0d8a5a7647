package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/LavaJover/shvark-market-service/internal/domain"
	"github.com/LavaJover/shvark-market-service/internal/infrastructure/postgres/mappers"
	"github.com/LavaJover/shvark-market-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
)

type DefaultProfileRepository struct {
	db *gorm.DB
}

func NewDefaultProfileRepository(db *gorm.DB) *DefaultProfileRepository {
	return &DefaultProfileRepository{db: db}
}

func (r *DefaultProfileRepository) CreateProfile(ctx context.Context, profile *domain.Profile) error {
	return r.db.WithContext(ctx).Create(mappers.ToGORMProfile(profile)).Error
}

func (r *DefaultProfileRepository) GetProfileByID(ctx context.Context, userID string) (*domain.Profile, error) {
	var model models.ProfileModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", userID).Error; err != nil {
		return nil, notFound(err)
	}
	return mappers.ToDomainProfile(&model), nil
}

func (r *DefaultProfileRepository) UpdateProfile(ctx context.Context, profile *domain.Profile) error {
	return r.db.WithContext(ctx).Save(mappers.ToGORMProfile(profile)).Error
}

// ============= Ratings =============

type DefaultRatingRepository struct {
	db *gorm.DB
}

func NewDefaultRatingRepository(db *gorm.DB) *DefaultRatingRepository {
	return &DefaultRatingRepository{db: db}
}

func (r *DefaultRatingRepository) CreateRating(ctx context.Context, rating *domain.Rating) error {
	err := r.db.WithContext(ctx).Create(mappers.ToGORMRating(rating)).Error
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return domain.ErrConflict
	}
	return err
}

func (r *DefaultRatingRepository) GetRatingByOrderID(ctx context.Context, orderID string) (*domain.Rating, error) {
	var model models.RatingModel
	if err := r.db.WithContext(ctx).First(&model, "order_id = ?", orderID).Error; err != nil {
		return nil, notFound(err)
	}
	return mappers.ToDomainRating(&model), nil
}

func (r *DefaultRatingRepository) GetSellerRatings(ctx context.Context, sellerID string, page, limit int) ([]*domain.Rating, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.RatingModel{}).Where("seller_id = ?", sellerID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count failed: %w", err)
	}

	offset, size := paginate(page, limit)
	var ratingModels []models.RatingModel
	if err := query.Order("created_at DESC").Offset(offset).Limit(size).Find(&ratingModels).Error; err != nil {
		return nil, 0, err
	}
	ratings := make([]*domain.Rating, len(ratingModels))
	for i := range ratingModels {
		ratings[i] = mappers.ToDomainRating(&ratingModels[i])
	}
	return ratings, total, nil
}

// ============= API keys =============

type DefaultAPIKeyRepository struct {
	db *gorm.DB
}

func NewDefaultAPIKeyRepository(db *gorm.DB) *DefaultAPIKeyRepository {
	return &DefaultAPIKeyRepository{db: db}
}

func (r *DefaultAPIKeyRepository) CreateAPIKey(ctx context.Context, key *domain.APIKey) error {
	return r.db.WithContext(ctx).Create(mappers.ToGORMAPIKey(key)).Error
}

func (r *DefaultAPIKeyRepository) GetAPIKeyByPrefix(ctx context.Context, prefix string) (*domain.APIKey, error) {
	var model models.APIKeyModel
	if err := r.db.WithContext(ctx).First(&model, "prefix = ?", prefix).Error; err != nil {
		return nil, notFound(err)
	}
	return mappers.ToDomainAPIKey(&model), nil
}

func (r *DefaultAPIKeyRepository) ListAPIKeys(ctx context.Context, ownerID string) ([]*domain.APIKey, error) {
	var keyModels []models.APIKeyModel
	if err := r.db.WithContext(ctx).Where("owner_id = ?", ownerID).Order("created_at DESC").Find(&keyModels).Error; err != nil {
		return nil, err
	}
	keys := make([]*domain.APIKey, len(keyModels))
	for i := range keyModels {
		keys[i] = mappers.ToDomainAPIKey(&keyModels[i])
	}
	return keys, nil
}

func (r *DefaultAPIKeyRepository) RevokeAPIKey(ctx context.Context, ownerID, keyID string) error {
	res := r.db.WithContext(ctx).Model(&models.APIKeyModel{}).
		Where("id = ? AND owner_id = ? AND revoked_at IS NULL", keyID, ownerID).
		Update("revoked_at", time.Now())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *DefaultAPIKeyRepository) TouchAPIKey(ctx context.Context, keyID string, at time.Time) error {
	return r.db.WithContext(ctx).Model(&models.APIKeyModel{}).
		Where("id = ?", keyID).
		UpdateColumn("last_used_at", at).Error
}
