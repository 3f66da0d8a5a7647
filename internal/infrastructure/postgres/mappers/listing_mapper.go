package mappers

import (
	"github.com/LavaJover/shvark-market-service/internal/domain"
	"github.com/LavaJover/shvark-market-service/internal/infrastructure/postgres/models"
)

func ToDomainListing(model *models.ListingModel) *domain.Listing {
	return &domain.Listing{
		ID:             model.ID,
		SellerID:       model.SellerID,
		CardName:       model.CardName,
		SetName:        model.SetName,
		CardNumber:     model.CardNumber,
		Condition:      domain.CardCondition(model.Condition),
		Language:       model.Language,
		Graded:         model.Graded,
		GradingCompany: model.GradingCompany,
		Grade:          model.Grade,
		Price:          model.Price,
		Currency:       model.Currency,
		Quantity:       model.Quantity,
		ImageURLs:      model.ImageURLs,
		Category:       model.Category,
		Tags:           model.Tags,
		Status:         domain.ListingStatus(model.Status),
		CreatedAt:      model.CreatedAt,
		UpdatedAt:      model.UpdatedAt,
	}
}

func ToGORMListing(listing *domain.Listing) *models.ListingModel {
	return &models.ListingModel{
		ID:             listing.ID,
		SellerID:       listing.SellerID,
		CardName:       listing.CardName,
		SetName:        listing.SetName,
		CardNumber:     listing.CardNumber,
		Condition:      string(listing.Condition),
		Language:       listing.Language,
		Graded:         listing.Graded,
		GradingCompany: listing.GradingCompany,
		Grade:          listing.Grade,
		Price:          listing.Price,
		Currency:       listing.Currency,
		Quantity:       listing.Quantity,
		ImageURLs:      listing.ImageURLs,
		Category:       listing.Category,
		Tags:           listing.Tags,
		Status:         string(listing.Status),
		CreatedAt:      listing.CreatedAt,
		UpdatedAt:      listing.UpdatedAt,
	}
}

func ToDomainBundle(model *models.BundleModel) *domain.Bundle {
	return &domain.Bundle{
		ID:              model.ID,
		SellerID:        model.SellerID,
		Title:           model.Title,
		ListingIDs:      model.ListingIDs,
		DiscountPercent: model.DiscountPercent,
		Status:          domain.BundleStatus(model.Status),
		CreatedAt:       model.CreatedAt,
		UpdatedAt:       model.UpdatedAt,
	}
}

func ToGORMBundle(bundle *domain.Bundle) *models.BundleModel {
	return &models.BundleModel{
		ID:              bundle.ID,
		SellerID:        bundle.SellerID,
		Title:           bundle.Title,
		ListingIDs:      bundle.ListingIDs,
		DiscountPercent: bundle.DiscountPercent,
		Status:          string(bundle.Status),
		CreatedAt:       bundle.CreatedAt,
		UpdatedAt:       bundle.UpdatedAt,
	}
}
