package domain

import (
	"context"
	"time"
)

type Profile struct {
	ID               string
	DisplayName      string
	Email            string
	MembershipTier   MembershipTier
	StripeAccountID  string
	ShipFrom         *Address
	AvgResponseHours *float64
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

type ProfileRepository interface {
	CreateProfile(ctx context.Context, profile *Profile) error
	GetProfileByID(ctx context.Context, userID string) (*Profile, error)
	UpdateProfile(ctx context.Context, profile *Profile) error
}
