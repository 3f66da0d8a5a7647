package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/LavaJover/shvark-market-service/internal/domain"
	"github.com/google/uuid"
)

type RatingUsecase interface {
	RateOrder(ctx context.Context, buyerID, orderID string, score int, comment string) (*domain.Rating, error)
	GetSellerRatings(ctx context.Context, sellerID string, page, limit int) ([]*domain.Rating, int64, error)
}

type DefaultRatingUsecase struct {
	ratingRepo domain.RatingRepository
	orderRepo  domain.OrderRepository
}

func NewDefaultRatingUsecase(ratingRepo domain.RatingRepository, orderRepo domain.OrderRepository) *DefaultRatingUsecase {
	return &DefaultRatingUsecase{ratingRepo: ratingRepo, orderRepo: orderRepo}
}

// RateOrder stores the buyer's one rating for a completed order.
func (uc *DefaultRatingUsecase) RateOrder(ctx context.Context, buyerID, orderID string, score int, comment string) (*domain.Rating, error) {
	if score < 1 || score > 5 {
		return nil, fmt.Errorf("%w: score must be between 1 and 5", domain.ErrInvalidInput)
	}
	order, err := uc.orderRepo.GetOrderByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.BuyerID != buyerID {
		return nil, domain.ErrForbidden
	}
	if order.Status != domain.StatusCompleted {
		return nil, fmt.Errorf("%w: only completed orders can be rated", domain.ErrInvalidTransition)
	}

	if _, err := uc.ratingRepo.GetRatingByOrderID(ctx, orderID); err == nil {
		return nil, fmt.Errorf("%w: order already rated", domain.ErrConflict)
	} else if !errors.Is(err, domain.ErrNotFound) {
		return nil, err
	}

	rating := &domain.Rating{
		ID:        uuid.New().String(),
		OrderID:   orderID,
		BuyerID:   buyerID,
		SellerID:  order.SellerID,
		Score:     score,
		Comment:   comment,
		CreatedAt: time.Now(),
	}
	if err := uc.ratingRepo.CreateRating(ctx, rating); err != nil {
		return nil, err
	}
	return rating, nil
}

func (uc *DefaultRatingUsecase) GetSellerRatings(ctx context.Context, sellerID string, page, limit int) ([]*domain.Rating, int64, error) {
	return uc.ratingRepo.GetSellerRatings(ctx, sellerID, page, limit)
}
