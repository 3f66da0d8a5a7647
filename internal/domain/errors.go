package domain

import "errors"

var (
	ErrNotFound             = errors.New("not found")
	ErrInvalidInput         = errors.New("invalid input")
	ErrUnauthorized         = errors.New("unauthorized")
	ErrForbidden            = errors.New("forbidden")
	ErrRateLimited          = errors.New("rate limit exceeded")
	ErrConflict             = errors.New("conflict")
	ErrInvalidTransition    = errors.New("invalid status transition")
	ErrListingUnavailable   = errors.New("listing is not available")
	ErrPaymentFailed        = errors.New("payment failed")
	ErrPayoutFailed         = errors.New("payout failed")
	ErrShippingFailed       = errors.New("shipping label purchase failed")
	ErrInsufficientFunds    = errors.New("insufficient available balance")
	ErrOpenDisputeFailed    = errors.New("failed to open dispute")
	ErrResolveDisputeFailed = errors.New("failed to resolve dispute")
	ErrCancelOrder          = errors.New("failed to cancel order")
)
