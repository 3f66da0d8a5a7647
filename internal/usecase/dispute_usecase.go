package usecase

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/LavaJover/shvark-market-service/internal/domain"
	"github.com/LavaJover/shvark-market-service/internal/infrastructure/metrics"
	disputedto "github.com/LavaJover/shvark-market-service/internal/usecase/dto/dispute"
	"github.com/jaevor/go-nanoid"
)

type DisputeUsecase interface {
	OpenDispute(ctx context.Context, input *disputedto.OpenDisputeInput) (*domain.Dispute, error)
	RespondToDispute(ctx context.Context, sellerID, disputeID, response string) (*domain.Dispute, error)
	ResolveDispute(ctx context.Context, input *disputedto.ResolveDisputeInput) (*domain.Dispute, error)
	AutoResolveExpired(ctx context.Context) (int, error)

	GetDisputeByID(ctx context.Context, disputeID string) (*domain.Dispute, error)
	GetDisputeByOrderID(ctx context.Context, orderID string) (*domain.Dispute, error)
	GetDisputes(ctx context.Context, filter domain.GetDisputesFilter) ([]*domain.Dispute, int64, error)
}

type DefaultDisputeUsecase struct {
	disputeRepo    domain.DisputeRepository
	orderRepo      domain.OrderRepository
	orders         DisputedOrders
	events         *EventBus
	metrics        *metrics.MarketMetrics
	logger         *slog.Logger
	responseWindow time.Duration
	idGenerator    func() string
	now            func() time.Time
}

func NewDefaultDisputeUsecase(
	disputeRepo domain.DisputeRepository,
	orderRepo domain.OrderRepository,
	orders DisputedOrders,
	events *EventBus,
	marketMetrics *metrics.MarketMetrics,
	logger *slog.Logger,
	responseWindow time.Duration,
) (*DefaultDisputeUsecase, error) {
	idGenerator, err := nanoid.Standard(15)
	if err != nil {
		return nil, err
	}
	if responseWindow <= 0 {
		responseWindow = 72 * time.Hour
	}
	return &DefaultDisputeUsecase{
		disputeRepo:    disputeRepo,
		orderRepo:      orderRepo,
		orders:         orders,
		events:         events,
		metrics:        marketMetrics,
		logger:         logger,
		responseWindow: responseWindow,
		idGenerator:    idGenerator,
		now:            time.Now,
	}, nil
}

// Диспут открыт -> запись в БД со статусом opened
// AutoResolveAt -> если продавец не ответит, система решит спор в пользу покупателя
func (uc *DefaultDisputeUsecase) OpenDispute(ctx context.Context, input *disputedto.OpenDisputeInput) (*domain.Dispute, error) {
	order, err := uc.orderRepo.GetOrderByID(ctx, input.OrderID)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != input.BuyerID {
		return nil, domain.ErrForbidden
	}
	if !order.Status.CanTransitionTo(domain.StatusDisputed) {
		return nil, fmt.Errorf("%w: cannot dispute a %s order", domain.ErrOpenDisputeFailed, order.Status)
	}
	if _, err := uc.disputeRepo.GetDisputeByOrderID(ctx, order.ID); err == nil {
		return nil, fmt.Errorf("%w: order already has a dispute", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	now := uc.now()
	dispute := &domain.Dispute{
		ID:                  uc.idGenerator(),
		OrderID:             order.ID,
		BuyerID:             order.BuyerID,
		SellerID:            order.SellerID,
		Reason:              domain.DisputeReason(input.Reason),
		Description:         input.Description,
		ProofUrl:            input.ProofUrl,
		OrderStatusOriginal: order.Status,
		Status:              domain.DisputeOpened,
		Ttl:                 uc.responseWindow,
		AutoResolveAt:       now.Add(uc.responseWindow),
		CreatedAt:           now,
		UpdatedAt:           now,
	}
	if err := uc.disputeRepo.CreateDispute(ctx, dispute); err != nil {
		return nil, err
	}
	if err := uc.orders.MarkDisputed(ctx, order); err != nil {
		// заказ ушёл из статуса, спор без заказа не нужен
		if delErr := uc.disputeRepo.DeleteDispute(ctx, dispute.ID); delErr != nil {
			uc.logger.Error("failed to remove dispute after order transition failed", "dispute_id", dispute.ID, "order_id", order.ID, "error", delErr)
		}
		return nil, err
	}

	uc.events.Dispute(domain.EventDisputeOpened, dispute)
	uc.metrics.RecordDispute("opened", string(dispute.Reason))
	uc.logger.Info("dispute opened", "dispute_id", dispute.ID, "order_id", order.ID, "reason", dispute.Reason)
	return dispute, nil
}

// RespondToDispute records the seller's answer; answered disputes wait for an operator.
func (uc *DefaultDisputeUsecase) RespondToDispute(ctx context.Context, sellerID, disputeID, response string) (*domain.Dispute, error) {
	if response == "" {
		return nil, fmt.Errorf("%w: response is required", domain.ErrInvalidInput)
	}
	dispute, err := uc.disputeRepo.GetDisputeByID(ctx, disputeID)
	if err != nil {
		return nil, err
	}
	if dispute.SellerID != sellerID {
		return nil, domain.ErrForbidden
	}
	if dispute.Status != domain.DisputeOpened {
		return nil, fmt.Errorf("%w: dispute is %s", domain.ErrInvalidTransition, dispute.Status)
	}

	dispute.SellerResponse = response
	dispute.Status = domain.DisputeResponded
	dispute.UpdatedAt = uc.now()
	if err := uc.disputeRepo.UpdateDispute(ctx, dispute); err != nil {
		return nil, err
	}
	uc.events.Dispute(domain.EventDisputeResponded, dispute)
	uc.metrics.RecordDispute("responded", string(dispute.Reason))
	return dispute, nil
}

func (uc *DefaultDisputeUsecase) ResolveDispute(ctx context.Context, input *disputedto.ResolveDisputeInput) (*domain.Dispute, error) {
	dispute, err := uc.disputeRepo.GetDisputeByID(ctx, input.DisputeID)
	if err != nil {
		return nil, err
	}
	if dispute.Status.Resolved() {
		return nil, fmt.Errorf("%w: dispute is already %s", domain.ErrInvalidTransition, dispute.Status)
	}

	_, refundID, err := uc.orders.ResolveDisputed(ctx, dispute.OrderID, input.InFavorOfBuyer)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrResolveDisputeFailed, err)
	}

	now := uc.now()
	dispute.Status = domain.DisputeResolvedSeller
	if input.InFavorOfBuyer {
		dispute.Status = domain.DisputeResolvedBuyer
	}
	dispute.RefundID = refundID
	dispute.ResolvedAt = &now
	dispute.UpdatedAt = now
	if err := uc.disputeRepo.UpdateDispute(ctx, dispute); err != nil {
		return nil, err
	}

	uc.events.Dispute(domain.EventDisputeResolved, dispute)
	uc.metrics.RecordDispute(string(dispute.Status), string(dispute.Reason))
	uc.logger.Info("dispute resolved", "dispute_id", dispute.ID, "status", dispute.Status, "resolved_by", input.ResolvedBy)
	return dispute, nil
}

// AutoResolveExpired resolves unanswered disputes in the buyer's favour.
// One failing dispute does not stop the rest.
func (uc *DefaultDisputeUsecase) AutoResolveExpired(ctx context.Context) (int, error) {
	disputes, err := uc.disputeRepo.FindExpiredDisputes(ctx, uc.now())
	if err != nil {
		return 0, err
	}
	resolved := 0
	for _, dispute := range disputes {
		_, err := uc.ResolveDispute(ctx, &disputedto.ResolveDisputeInput{
			DisputeID:      dispute.ID,
			InFavorOfBuyer: true,
			ResolvedBy:     "system",
		})
		if err != nil {
			uc.logger.Error("failed to auto-resolve dispute", "dispute_id", dispute.ID, "error", err)
			continue
		}
		resolved++
	}
	return resolved, nil
}

func (uc *DefaultDisputeUsecase) GetDisputeByID(ctx context.Context, disputeID string) (*domain.Dispute, error) {
	return uc.disputeRepo.GetDisputeByID(ctx, disputeID)
}

func (uc *DefaultDisputeUsecase) GetDisputeByOrderID(ctx context.Context, orderID string) (*domain.Dispute, error) {
	return uc.disputeRepo.GetDisputeByOrderID(ctx, orderID)
}

func (uc *DefaultDisputeUsecase) GetDisputes(ctx context.Context, filter domain.GetDisputesFilter) ([]*domain.Dispute, int64, error) {
	return uc.disputeRepo.GetDisputes(ctx, filter)
}
