package repository

import (
	"context"

	"github.com/LavaJover/shvark-market-service/internal/domain"
	"github.com/LavaJover/shvark-market-service/internal/infrastructure/postgres/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type DefaultScoringRepository struct {
	db *gorm.DB
}

func NewDefaultScoringRepository(db *gorm.DB) *DefaultScoringRepository {
	return &DefaultScoringRepository{db: db}
}

func (r *DefaultScoringRepository) UpsertRiskAssessment(ctx context.Context, a *domain.RiskAssessment) error {
	model := &models.SellerRiskTierModel{
		SellerID:         a.SellerID,
		Score:            a.Score,
		Tier:             string(a.Tier),
		CancellationRate: a.CancellationRate,
		DisputeRatio:     a.DisputeRatio,
		Components:       a.Components,
		CalculatedAt:     a.CalculatedAt,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "seller_id"}},
		UpdateAll: true,
	}).Create(model).Error
}

func (r *DefaultScoringRepository) GetRiskAssessment(ctx context.Context, sellerID string) (*domain.RiskAssessment, error) {
	var model models.SellerRiskTierModel
	if err := r.db.WithContext(ctx).First(&model, "seller_id = ?", sellerID).Error; err != nil {
		return nil, notFound(err)
	}
	return &domain.RiskAssessment{
		SellerID:         model.SellerID,
		Score:            model.Score,
		Tier:             domain.RiskTier(model.Tier),
		CancellationRate: model.CancellationRate,
		DisputeRatio:     model.DisputeRatio,
		Components:       model.Components,
		CalculatedAt:     model.CalculatedAt,
	}, nil
}

func (r *DefaultScoringRepository) UpsertReputation(ctx context.Context, rep *domain.Reputation) error {
	model := &models.SellerReputationModel{
		SellerID:          rep.SellerID,
		Score:             rep.Score,
		VerificationLevel: string(rep.Level),
		CalculatedAt:      rep.CalculatedAt,
	}
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "seller_id"}},
		UpdateAll: true,
	}).Create(model).Error
}

func (r *DefaultScoringRepository) GetReputation(ctx context.Context, sellerID string) (*domain.Reputation, error) {
	var model models.SellerReputationModel
	if err := r.db.WithContext(ctx).First(&model, "seller_id = ?", sellerID).Error; err != nil {
		return nil, notFound(err)
	}
	return &domain.Reputation{
		SellerID:     model.SellerID,
		Score:        model.Score,
		Level:        domain.VerificationLevel(model.VerificationLevel),
		CalculatedAt: model.CalculatedAt,
	}, nil
}

// ReplaceBadges swaps the seller's badge set atomically.
func (r *DefaultScoringRepository) ReplaceBadges(ctx context.Context, sellerID string, badges []domain.SellerBadge) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("seller_id = ?", sellerID).Delete(&models.SellerBadgeModel{}).Error; err != nil {
			return err
		}
		if len(badges) == 0 {
			return nil
		}
		badgeModels := make([]models.SellerBadgeModel, len(badges))
		for i, b := range badges {
			badgeModels[i] = models.SellerBadgeModel{
				SellerID:  sellerID,
				Badge:     string(b.Badge),
				AwardedAt: b.AwardedAt,
			}
		}
		return tx.Create(&badgeModels).Error
	})
}

func (r *DefaultScoringRepository) GetBadges(ctx context.Context, sellerID string) ([]domain.SellerBadge, error) {
	var badgeModels []models.SellerBadgeModel
	if err := r.db.WithContext(ctx).Where("seller_id = ?", sellerID).Order("badge").Find(&badgeModels).Error; err != nil {
		return nil, err
	}
	badges := make([]domain.SellerBadge, len(badgeModels))
	for i, m := range badgeModels {
		badges[i] = domain.SellerBadge{
			SellerID:  m.SellerID,
			Badge:     domain.BadgeType(m.Badge),
			AwardedAt: m.AwardedAt,
		}
	}
	return badges, nil
}
