package domain

import (
	"context"
	"time"
)

type Rating struct {
	ID        string    `json:"id"`
	OrderID   string    `json:"order_id"`
	BuyerID   string    `json:"buyer_id"`
	SellerID  string    `json:"seller_id"`
	Score     int       `json:"score"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

type RatingRepository interface {
	CreateRating(ctx context.Context, rating *Rating) error
	GetRatingByOrderID(ctx context.Context, orderID string) (*Rating, error)
	GetSellerRatings(ctx context.Context, sellerID string, page, limit int) ([]*Rating, int64, error)
}
