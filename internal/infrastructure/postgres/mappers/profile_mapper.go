package mappers

import (
	"github.com/LavaJover/shvark-market-service/internal/domain"
	"github.com/LavaJover/shvark-market-service/internal/infrastructure/postgres/models"
)

func ToDomainProfile(model *models.ProfileModel) *domain.Profile {
	return &domain.Profile{
		ID:               model.ID,
		DisplayName:      model.DisplayName,
		Email:            model.Email,
		MembershipTier:   domain.MembershipTier(model.MembershipTier),
		StripeAccountID:  model.StripeAccountID,
		ShipFrom:         model.ShipFrom,
		AvgResponseHours: model.AvgResponseHours,
		CreatedAt:        model.CreatedAt,
		UpdatedAt:        model.UpdatedAt,
	}
}

func ToGORMProfile(profile *domain.Profile) *models.ProfileModel {
	return &models.ProfileModel{
		ID:               profile.ID,
		DisplayName:      profile.DisplayName,
		Email:            profile.Email,
		MembershipTier:   string(profile.MembershipTier),
		StripeAccountID:  profile.StripeAccountID,
		ShipFrom:         profile.ShipFrom,
		AvgResponseHours: profile.AvgResponseHours,
		CreatedAt:        profile.CreatedAt,
		UpdatedAt:        profile.UpdatedAt,
	}
}

func ToDomainRating(model *models.RatingModel) *domain.Rating {
	return &domain.Rating{
		ID:        model.ID,
		OrderID:   model.OrderID,
		BuyerID:   model.BuyerID,
		SellerID:  model.SellerID,
		Score:     model.Score,
		Comment:   model.Comment,
		CreatedAt: model.CreatedAt,
	}
}

func ToGORMRating(rating *domain.Rating) *models.RatingModel {
	return &models.RatingModel{
		ID:        rating.ID,
		OrderID:   rating.OrderID,
		BuyerID:   rating.BuyerID,
		SellerID:  rating.SellerID,
		Score:     rating.Score,
		Comment:   rating.Comment,
		CreatedAt: rating.CreatedAt,
	}
}

func ToDomainAPIKey(model *models.APIKeyModel) *domain.APIKey {
	scopes := make([]domain.APIScope, 0, len(model.Scopes))
	for _, s := range model.Scopes {
		scopes = append(scopes, domain.APIScope(s))
	}
	return &domain.APIKey{
		ID:                 model.ID,
		OwnerID:            model.OwnerID,
		Name:               model.Name,
		Prefix:             model.Prefix,
		SecretHash:         model.SecretHash,
		Scopes:             scopes,
		RateLimitPerMinute: model.RateLimitPerMinute,
		LastUsedAt:         model.LastUsedAt,
		RevokedAt:          model.RevokedAt,
		CreatedAt:          model.CreatedAt,
	}
}

func ToGORMAPIKey(key *domain.APIKey) *models.APIKeyModel {
	scopes := make([]string, 0, len(key.Scopes))
	for _, s := range key.Scopes {
		scopes = append(scopes, string(s))
	}
	return &models.APIKeyModel{
		ID:                 key.ID,
		OwnerID:            key.OwnerID,
		Name:               key.Name,
		Prefix:             key.Prefix,
		SecretHash:         key.SecretHash,
		Scopes:             scopes,
		RateLimitPerMinute: key.RateLimitPerMinute,
		LastUsedAt:         key.LastUsedAt,
		RevokedAt:          key.RevokedAt,
		CreatedAt:          key.CreatedAt,
	}
}
