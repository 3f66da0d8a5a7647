package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/LavaJover/shvark-market-service/internal/domain"
	checkoutdto "github.com/LavaJover/shvark-market-service/internal/usecase/dto/checkout"
	orderdto "github.com/LavaJover/shvark-market-service/internal/usecase/dto/order"
	"github.com/jaevor/go-nanoid"
)

type CheckoutUsecase interface {
	CreateSession(ctx context.Context, input *checkoutdto.CreateSessionInput) (*checkoutdto.SessionOutput, error)
	GetSession(ctx context.Context, buyerID, sessionID string) (*checkoutdto.SessionOutput, error)
	CompleteSession(ctx context.Context, buyerID, sessionID string) (*checkoutdto.SessionOutput, error)
	CancelSession(ctx context.Context, buyerID, sessionID string) (*checkoutdto.SessionOutput, error)
}

type DefaultCheckoutUsecase struct {
	sessions domain.CheckoutSessionRepository
	orders   OrderUsecase
	ttl      time.Duration
	logger   *slog.Logger
	newID    func() string
	now      func() time.Time
}

func NewDefaultCheckoutUsecase(sessions domain.CheckoutSessionRepository, orders OrderUsecase, ttl time.Duration, logger *slog.Logger) (*DefaultCheckoutUsecase, error) {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	idGenerator, err := nanoid.Standard(24)
	if err != nil {
		return nil, fmt.Errorf("failed to init session id generator: %w", err)
	}
	return &DefaultCheckoutUsecase{
		sessions: sessions,
		orders:   orders,
		ttl:      ttl,
		logger:   logger,
		newID:    idGenerator,
		now:      time.Now,
	}, nil
}

func (uc *DefaultCheckoutUsecase) CreateSession(ctx context.Context, input *checkoutdto.CreateSessionInput) (*checkoutdto.SessionOutput, error) {
	listingIDs := make([]string, 0, len(input.Items))
	for _, item := range input.Items {
		listingIDs = append(listingIDs, item.ListingID)
	}

	draft, err := uc.orders.PriceOrder(ctx, input.BuyerID, listingIDs, input.BundleID, input.ShippingAddress)
	if err != nil {
		return nil, err
	}

	now := uc.now()
	session := &domain.CheckoutSession{
		ID:              "cs_" + uc.newID(),
		BuyerID:         input.BuyerID,
		SellerID:        draft.SellerID,
		BundleID:        draft.BundleID,
		Fees:            draft.Fees,
		Currency:        draft.Currency,
		Status:          domain.CheckoutOpen,
		ShippingAddress: input.ShippingAddress,
		CallbackURL:     input.CallbackURL,
		ExpiresAt:       now.Add(uc.ttl),
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	for _, l := range draft.Listings {
		session.ListingIDs = append(session.ListingIDs, l.ID)
	}

	if err := uc.sessions.CreateSession(ctx, session); err != nil {
		return nil, fmt.Errorf("failed to create checkout session: %w", err)
	}
	return toSessionOutput(session, ""), nil
}

func (uc *DefaultCheckoutUsecase) buyerSession(ctx context.Context, buyerID, sessionID string) (*domain.CheckoutSession, error) {
	session, err := uc.sessions.GetSessionByID(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if session.BuyerID != buyerID {
		return nil, domain.ErrNotFound
	}
	if session.Status == domain.CheckoutOpen && uc.now().After(session.ExpiresAt) {
		session.Status = domain.CheckoutExpired
		session.UpdatedAt = uc.now()
		if err := uc.sessions.UpdateSession(ctx, session); err != nil {
			return nil, err
		}
	}
	return session, nil
}

func (uc *DefaultCheckoutUsecase) GetSession(ctx context.Context, buyerID, sessionID string) (*checkoutdto.SessionOutput, error) {
	session, err := uc.buyerSession(ctx, buyerID, sessionID)
	if err != nil {
		return nil, err
	}
	return toSessionOutput(session, ""), nil
}

// CompleteSession turns an open session into an order with a payment intent.
// The buyer total must still match the quoted one.
func (uc *DefaultCheckoutUsecase) CompleteSession(ctx context.Context, buyerID, sessionID string) (*checkoutdto.SessionOutput, error) {
	session, err := uc.buyerSession(ctx, buyerID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != domain.CheckoutOpen {
		return nil, fmt.Errorf("%w: session is %s", domain.ErrInvalidTransition, session.Status)
	}

	listingIDs := session.ListingIDs
	if session.BundleID != "" {
		listingIDs = nil
	}
	draft, err := uc.orders.PriceOrder(ctx, buyerID, listingIDs, session.BundleID, session.ShippingAddress)
	if err != nil {
		return nil, err
	}
	if !draft.Fees.BuyerTotal.Equal(session.Fees.BuyerTotal) {
		return nil, fmt.Errorf("%w: price changed from %s to %s, open a new session",
			domain.ErrConflict, session.Fees.BuyerTotal.StringFixed(2), draft.Fees.BuyerTotal.StringFixed(2))
	}

	order, err := uc.orders.CreateOrder(ctx, &orderdto.CreateOrderInput{
		BuyerID:           buyerID,
		ListingIDs:        listingIDs,
		BundleID:          session.BundleID,
		ShippingAddress:   session.ShippingAddress,
		Channel:           domain.ChannelACP,
		CallbackURL:       session.CallbackURL,
		CheckoutSessionID: session.ID,
	})
	if err != nil {
		return nil, err
	}

	session.Status = domain.CheckoutCompleted
	session.OrderID = order.ID
	session.UpdatedAt = uc.now()
	if err := uc.sessions.UpdateSession(ctx, session); err != nil {
		uc.logger.Error("order created but checkout session not updated", "session_id", session.ID, "order_id", order.ID, "error", err)
		return nil, err
	}
	return toSessionOutput(session, order.ClientSecret), nil
}

func (uc *DefaultCheckoutUsecase) CancelSession(ctx context.Context, buyerID, sessionID string) (*checkoutdto.SessionOutput, error) {
	session, err := uc.buyerSession(ctx, buyerID, sessionID)
	if err != nil {
		return nil, err
	}
	if session.Status != domain.CheckoutOpen {
		return nil, fmt.Errorf("%w: session is %s", domain.ErrInvalidTransition, session.Status)
	}
	session.Status = domain.CheckoutCancelled
	session.UpdatedAt = uc.now()
	if err := uc.sessions.UpdateSession(ctx, session); err != nil {
		return nil, err
	}
	return toSessionOutput(session, ""), nil
}

func toSessionOutput(s *domain.CheckoutSession, clientSecret string) *checkoutdto.SessionOutput {
	return &checkoutdto.SessionOutput{
		ID:           s.ID,
		Status:       string(s.Status),
		SellerID:     s.SellerID,
		ListingIDs:   s.ListingIDs,
		BundleID:     s.BundleID,
		Currency:     s.Currency,
		Fees:         s.Fees,
		Total:        s.Fees.BuyerTotal.StringFixed(2),
		OrderID:      s.OrderID,
		ClientSecret: clientSecret,
		ExpiresAt:    s.ExpiresAt.UTC().Format(time.RFC3339),
	}
}

// ============= Idempotency =============

// Idempotency replays stored responses for repeated client keys.
type Idempotency struct {
	store domain.IdempotencyStore
	ttl   time.Duration
}

func NewIdempotency(store domain.IdempotencyStore, ttl time.Duration) *Idempotency {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Idempotency{store: store, ttl: ttl}
}

// Do runs fn once per key and returns its JSON encoded result. A key still
// being processed by another request yields ErrConflict. Failed calls
// release the key so the client can retry. An empty key or nil receiver
// runs fn directly.
func (i *Idempotency) Do(ctx context.Context, key string, fn func() (interface{}, error)) ([]byte, error) {
	if i == nil || i.store == nil || key == "" {
		v, err := fn()
		if err != nil {
			return nil, err
		}
		return json.Marshal(v)
	}

	if saved, ok, err := i.store.Get(ctx, key); err != nil {
		return nil, err
	} else if ok {
		return saved, nil
	}

	reserved, err := i.store.Reserve(ctx, key, i.ttl)
	if err != nil {
		return nil, err
	}
	if !reserved {
		return nil, fmt.Errorf("%w: request with this idempotency key is in progress", domain.ErrConflict)
	}

	v, err := fn()
	if err != nil {
		if rerr := i.store.Release(ctx, key); rerr != nil {
			return nil, fmt.Errorf("%v (release idempotency key: %v)", err, rerr)
		}
		return nil, err
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	if err := i.store.Save(ctx, key, raw, i.ttl); err != nil {
		return nil, err
	}
	return raw, nil
}
