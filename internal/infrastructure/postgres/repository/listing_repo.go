package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/LavaJover/shvark-market-service/internal/domain"
	"github.com/LavaJover/shvark-market-service/internal/infrastructure/postgres/mappers"
	"github.com/LavaJover/shvark-market-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
)

type DefaultListingRepository struct {
	db *gorm.DB
}

func NewDefaultListingRepository(db *gorm.DB) *DefaultListingRepository {
	return &DefaultListingRepository{db: db}
}

func (r *DefaultListingRepository) CreateListing(ctx context.Context, listing *domain.Listing) error {
	return r.db.WithContext(ctx).Create(mappers.ToGORMListing(listing)).Error
}

func (r *DefaultListingRepository) UpdateListing(ctx context.Context, listing *domain.Listing) error {
	res := r.db.WithContext(ctx).Save(mappers.ToGORMListing(listing))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *DefaultListingRepository) GetListingByID(ctx context.Context, listingID string) (*domain.Listing, error) {
	var model models.ListingModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", listingID).Error; err != nil {
		return nil, notFound(err)
	}
	return mappers.ToDomainListing(&model), nil
}

func (r *DefaultListingRepository) GetListingsByIDs(ctx context.Context, listingIDs []string) ([]*domain.Listing, error) {
	if len(listingIDs) == 0 {
		return nil, nil
	}
	var listingModels []models.ListingModel
	if err := r.db.WithContext(ctx).Where("id IN ?", listingIDs).Find(&listingModels).Error; err != nil {
		return nil, err
	}
	listings := make([]*domain.Listing, len(listingModels))
	for i := range listingModels {
		listings[i] = mappers.ToDomainListing(&listingModels[i])
	}
	return listings, nil
}

// FindListings prefilters with ILIKE on every query word; fuzzy ranking happens above the repository.
func (r *DefaultListingRepository) FindListings(ctx context.Context, filter domain.ListingFilter) ([]*domain.Listing, int64, error) {
	query := r.db.WithContext(ctx).Model(&models.ListingModel{})

	for _, word := range strings.Fields(filter.Query) {
		pattern := "%" + escapeLike(word) + "%"
		query = query.Where("(card_name ILIKE ? OR set_name ILIKE ? OR card_number ILIKE ?)", pattern, pattern, pattern)
	}
	if filter.SellerID != nil {
		query = query.Where("seller_id = ?", *filter.SellerID)
	}
	if filter.SetName != nil {
		query = query.Where("set_name = ?", *filter.SetName)
	}
	if filter.Condition != nil {
		query = query.Where("condition = ?", string(*filter.Condition))
	}
	if filter.MinPrice != nil {
		query = query.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("price <= ?", *filter.MaxPrice)
	}
	if filter.Status != nil {
		query = query.Where("status = ?", string(*filter.Status))
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("count failed: %w", err)
	}

	offset, size := paginate(filter.Page, filter.Limit)
	var listingModels []models.ListingModel
	if err := query.Order("created_at DESC").Offset(offset).Limit(size).Find(&listingModels).Error; err != nil {
		return nil, 0, fmt.Errorf("find failed: %w", err)
	}

	listings := make([]*domain.Listing, len(listingModels))
	for i := range listingModels {
		listings[i] = mappers.ToDomainListing(&listingModels[i])
	}
	return listings, total, nil
}

func (r *DefaultListingRepository) TransitionListings(ctx context.Context, listingIDs []string, from []domain.ListingStatus, to domain.ListingStatus) error {
	if len(listingIDs) == 0 {
		return nil
	}
	fromStatuses := make([]string, len(from))
	for i, s := range from {
		fromStatuses[i] = string(s)
	}

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.ListingModel{}).
			Where("id IN ? AND status IN ?", listingIDs, fromStatuses).
			Update("status", string(to))
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != int64(len(listingIDs)) {
			return domain.ErrListingUnavailable
		}
		return nil
	})
}

func (r *DefaultListingRepository) FindComparables(ctx context.Context, cardName, setName string, condition domain.CardCondition, limit int) ([]*domain.Listing, error) {
	query := r.db.WithContext(ctx).Model(&models.ListingModel{}).
		Where("LOWER(card_name) = LOWER(?)", cardName).
		Where("status IN ?", []string{string(domain.ListingActive), string(domain.ListingSold)})
	if setName != "" {
		query = query.Where("LOWER(set_name) = LOWER(?)", setName)
	}
	if condition != "" {
		query = query.Where("condition = ?", string(condition))
	}
	if limit <= 0 {
		limit = 50
	}

	var listingModels []models.ListingModel
	if err := query.Order("updated_at DESC").Limit(limit).Find(&listingModels).Error; err != nil {
		return nil, err
	}
	listings := make([]*domain.Listing, len(listingModels))
	for i := range listingModels {
		listings[i] = mappers.ToDomainListing(&listingModels[i])
	}
	return listings, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// ============= Bundles =============

type DefaultBundleRepository struct {
	db *gorm.DB
}

func NewDefaultBundleRepository(db *gorm.DB) *DefaultBundleRepository {
	return &DefaultBundleRepository{db: db}
}

func (r *DefaultBundleRepository) CreateBundle(ctx context.Context, bundle *domain.Bundle) error {
	return r.db.WithContext(ctx).Create(mappers.ToGORMBundle(bundle)).Error
}

func (r *DefaultBundleRepository) GetBundleByID(ctx context.Context, bundleID string) (*domain.Bundle, error) {
	var model models.BundleModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", bundleID).Error; err != nil {
		return nil, notFound(err)
	}
	return mappers.ToDomainBundle(&model), nil
}

func (r *DefaultBundleRepository) UpdateBundleStatus(ctx context.Context, bundleID string, status domain.BundleStatus) error {
	res := r.db.WithContext(ctx).Model(&models.BundleModel{}).Where("id = ?", bundleID).Update("status", string(status))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

func (r *DefaultBundleRepository) GetSellerBundles(ctx context.Context, sellerID string) ([]*domain.Bundle, error) {
	var bundleModels []models.BundleModel
	if err := r.db.WithContext(ctx).Where("seller_id = ?", sellerID).Order("created_at DESC").Find(&bundleModels).Error; err != nil {
		return nil, err
	}
	bundles := make([]*domain.Bundle, len(bundleModels))
	for i := range bundleModels {
		bundles[i] = mappers.ToDomainBundle(&bundleModels[i])
	}
	return bundles, nil
}
