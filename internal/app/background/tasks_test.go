package background

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/LavaJover/shvark-market-service/internal/config"
	"github.com/LavaJover/shvark-market-service/internal/domain"
	"github.com/LavaJover/shvark-market-service/internal/usecase"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubScoring struct {
	usecase.SellerScoringUsecase
	mu         sync.Mutex
	reputation []string
	badges     []string
	err        error
}

func (s *stubScoring) RecalculateReputation(_ context.Context, sellerID string) (*domain.Reputation, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reputation = append(s.reputation, sellerID)
	return &domain.Reputation{}, s.err
}

func (s *stubScoring) RecalculateBadges(_ context.Context, sellerID string) ([]domain.SellerBadge, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.badges = append(s.badges, sellerID)
	return nil, nil
}

func (s *stubScoring) badgeRuns() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.badges)
}

type stubSubscriber struct {
	ch    chan domain.Message
	topic string
	group string
}

func (s *stubSubscriber) Subscribe(topic, groupID string) (<-chan domain.Message, error) {
	s.topic, s.group = topic, groupID
	return s.ch, nil
}

type stubOrders struct {
	usecase.OrderUsecase
	calls chan struct{}
}

func (s *stubOrders) CancelStalePendingOrders(context.Context) (int, error) {
	select {
	case s.calls <- struct{}{}:
	default:
	}
	return 1, nil
}

func testConfig() *config.MarketConfig {
	cfg := &config.MarketConfig{}
	cfg.Scoring.Schedule = "0 3 * * *"
	cfg.KafkaService.GroupID = "market-test"
	return cfg
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func orderEvent(t *testing.T, eventType, sellerID string) domain.Message {
	raw, err := json.Marshal(domain.OrderEvent{Type: eventType, OrderID: "o-1", SellerID: sellerID})
	require.NoError(t, err)
	return domain.Message{Key: []byte("o-1"), Value: raw}
}

func TestHandleOrderEvent_CompletedOrderRescoresSeller(t *testing.T) {
	scoring := &stubScoring{}
	bt := NewBackgroundTasks(testConfig(), quietLogger())
	bt.ScoringUsecase = scoring

	require.NoError(t, bt.HandleOrderEvent(context.Background(), orderEvent(t, domain.EventOrderCompleted, "s-1")))
	assert.Equal(t, []string{"s-1"}, scoring.reputation)
	assert.Equal(t, []string{"s-1"}, scoring.badges)
}

func TestHandleOrderEvent_IgnoresOtherEvents(t *testing.T) {
	scoring := &stubScoring{}
	bt := NewBackgroundTasks(testConfig(), quietLogger())
	bt.ScoringUsecase = scoring

	require.NoError(t, bt.HandleOrderEvent(context.Background(), orderEvent(t, domain.EventOrderPaid, "s-1")))
	assert.Empty(t, scoring.reputation)
}

func TestHandleOrderEvent_Errors(t *testing.T) {
	scoring := &stubScoring{err: errors.New("db down")}
	bt := NewBackgroundTasks(testConfig(), quietLogger())
	bt.ScoringUsecase = scoring

	assert.Error(t, bt.HandleOrderEvent(context.Background(), domain.Message{Value: []byte("{")}))

	err := bt.HandleOrderEvent(context.Background(), orderEvent(t, domain.EventOrderCompleted, "s-2"))
	assert.ErrorContains(t, err, "s-2")
	assert.Empty(t, scoring.badges)
}

func TestStartAll_ConsumesOrderEvents(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scoring := &stubScoring{}
	sub := &stubSubscriber{ch: make(chan domain.Message, 1)}
	bt := NewBackgroundTasks(testConfig(), quietLogger())
	bt.ScoringUsecase = scoring
	bt.Subscriber = sub

	require.NoError(t, bt.StartAll(ctx))
	assert.Equal(t, domain.TopicOrderEvents, sub.topic)
	assert.Equal(t, "market-test", sub.group)

	sub.ch <- orderEvent(t, domain.EventOrderCompleted, "s-3")
	close(sub.ch)

	assert.Eventually(t, func() bool { return scoring.badgeRuns() == 1 }, time.Second, 10*time.Millisecond)
}

func TestStartAll_RejectsBadSchedule(t *testing.T) {
	cfg := testConfig()
	cfg.Scoring.Schedule = "every tuesday"
	bt := NewBackgroundTasks(cfg, quietLogger())

	assert.Error(t, bt.StartAll(context.Background()))
}

func TestTickerRunsTask(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	cfg := testConfig()
	cfg.Orders.SweepInterval = 10 * time.Millisecond
	orders := &stubOrders{calls: make(chan struct{}, 1)}
	bt := NewBackgroundTasks(cfg, quietLogger())
	bt.OrderUsecase = orders

	go bt.every(ctx, "cancel stale orders", cfg.Orders.SweepInterval, bt.cancelStaleOrders)

	select {
	case <-orders.calls:
	case <-time.After(time.Second):
		t.Fatal("stale order sweep did not run")
	}
}
