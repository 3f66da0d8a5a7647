package mappers

import (
	"github.com/LavaJover/shvark-market-service/internal/domain"
	"github.com/LavaJover/shvark-market-service/internal/infrastructure/postgres/models"
)

func ToDomainDispute(model *models.DisputeModel) *domain.Dispute {
	return &domain.Dispute{
		ID:                  model.ID,
		OrderID:             model.OrderID,
		BuyerID:             model.BuyerID,
		SellerID:            model.SellerID,
		Reason:              domain.DisputeReason(model.Reason),
		Description:         model.Description,
		ProofUrl:            model.ProofUrl,
		SellerResponse:      model.SellerResponse,
		OrderStatusOriginal: domain.OrderStatus(model.OrderStatusOriginal),
		Status:              domain.DisputeStatus(model.Status),
		Ttl:                 model.Ttl,
		AutoResolveAt:       model.AutoResolveAt,
		ResolvedAt:          model.ResolvedAt,
		RefundID:            model.RefundID,
		CreatedAt:           model.CreatedAt,
		UpdatedAt:           model.UpdatedAt,
	}
}

func ToGORMDispute(dispute *domain.Dispute) *models.DisputeModel {
	return &models.DisputeModel{
		ID:                  dispute.ID,
		OrderID:             dispute.OrderID,
		BuyerID:             dispute.BuyerID,
		SellerID:            dispute.SellerID,
		Reason:              string(dispute.Reason),
		Description:         dispute.Description,
		ProofUrl:            dispute.ProofUrl,
		SellerResponse:      dispute.SellerResponse,
		OrderStatusOriginal: string(dispute.OrderStatusOriginal),
		Status:              string(dispute.Status),
		Ttl:                 dispute.Ttl,
		AutoResolveAt:       dispute.AutoResolveAt,
		ResolvedAt:          dispute.ResolvedAt,
		RefundID:            dispute.RefundID,
		CreatedAt:           dispute.CreatedAt,
		UpdatedAt:           dispute.UpdatedAt,
	}
}

func ToDomainFraudFlag(model *models.FraudFlagModel) *domain.FraudFlag {
	return &domain.FraudFlag{
		ID:         model.ID,
		UserID:     model.UserID,
		Source:     model.Source,
		Reason:     model.Reason,
		Severity:   domain.FraudSeverity(model.Severity),
		Details:    model.Details,
		Status:     domain.FraudFlagStatus(model.Status),
		ReviewedBy: model.ReviewedBy,
		ReviewedAt: model.ReviewedAt,
		CreatedAt:  model.CreatedAt,
	}
}

func ToGORMFraudFlag(flag *domain.FraudFlag) *models.FraudFlagModel {
	return &models.FraudFlagModel{
		ID:         flag.ID,
		UserID:     flag.UserID,
		Source:     flag.Source,
		Reason:     flag.Reason,
		Severity:   string(flag.Severity),
		Details:    flag.Details,
		Status:     string(flag.Status),
		ReviewedBy: flag.ReviewedBy,
		ReviewedAt: flag.ReviewedAt,
		CreatedAt:  flag.CreatedAt,
	}
}
