package usecase

import (
	"context"
	"testing"

	"github.com/LavaJover/shvark-market-service/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRuleRepo struct {
	rules   map[string]*domain.FraudRule
	updates map[string]interface{}
}

func (r *fakeRuleRepo) CreateRule(_ context.Context, rule *domain.FraudRule) error {
	r.rules[rule.ID] = rule
	return nil
}

func (r *fakeRuleRepo) UpdateRule(_ context.Context, _ string, updates map[string]interface{}) error {
	r.updates = updates
	return nil
}

func (r *fakeRuleRepo) GetRules(context.Context, bool) ([]*domain.FraudRule, error) {
	var out []*domain.FraudRule
	for _, rule := range r.rules {
		out = append(out, rule)
	}
	return out, nil
}

func (r *fakeRuleRepo) GetRuleByID(_ context.Context, id string) (*domain.FraudRule, error) {
	rule, ok := r.rules[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return rule, nil
}

func (r *fakeRuleRepo) DeleteRule(_ context.Context, id string) error {
	delete(r.rules, id)
	return nil
}

func (r *fakeRuleRepo) GetAuditHistory(context.Context, string, int) ([]*domain.FraudAuditLog, error) {
	return nil, nil
}

type fakeFraudEngine struct {
	report *domain.FraudReport
}

func (e *fakeFraudEngine) CheckUser(context.Context, string) (*domain.FraudReport, error) {
	return e.report, nil
}

func (e *fakeFraudEngine) ProcessUserCheck(context.Context, string) (*domain.FraudReport, error) {
	return e.report, nil
}

func TestAntiFraud_RaiseAndReviewFlag(t *testing.T) {
	flags := &fakeFlagRepo{}
	uc := NewAntiFraudUseCase(&fakeFraudEngine{}, &fakeRuleRepo{rules: map[string]*domain.FraudRule{}}, flags, nil)
	ctx := context.Background()

	_, err := uc.RaiseFlag(ctx, "buyer-1", "chargeback pattern", "extreme")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	flag, err := uc.RaiseFlag(ctx, "buyer-1", "chargeback pattern", domain.SeverityHigh)
	require.NoError(t, err)
	assert.Equal(t, ManualFlagSource, flag.Source)
	assert.Equal(t, domain.FraudFlagOpen, flag.Status)

	_, err = uc.ReviewFlag(ctx, flag.ID, "", true)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	reviewed, err := uc.ReviewFlag(ctx, flag.ID, "operator-1", true)
	require.NoError(t, err)
	assert.Equal(t, domain.FraudFlagDismissed, reviewed.Status)
	assert.Equal(t, "operator-1", reviewed.ReviewedBy)
	assert.NotNil(t, reviewed.ReviewedAt)

	_, err = uc.ReviewFlag(ctx, flag.ID, "operator-1", false)
	assert.ErrorIs(t, err, domain.ErrInvalidTransition)

	open := domain.FraudFlagOpen
	got, total, err := uc.GetFlags(ctx, domain.FraudFlagFilter{Status: &open})
	require.NoError(t, err)
	assert.Zero(t, total)
	assert.Empty(t, got)
}

func TestAntiFraud_Rules(t *testing.T) {
	rules := &fakeRuleRepo{rules: map[string]*domain.FraudRule{}}
	uc := NewAntiFraudUseCase(&fakeFraudEngine{}, rules, &fakeFlagRepo{}, nil)
	ctx := context.Background()

	rule, err := uc.CreateRule(ctx, &CreateRuleRequest{
		Name:   "cancellations",
		Type:   "cancellation_rate",
		Config: map[string]interface{}{"max_rate": 0.2},
	})
	require.NoError(t, err)
	assert.Equal(t, domain.SeverityMedium, rule.Severity)
	assert.True(t, rule.IsActive)

	assert.ErrorIs(t, uc.UpdateRule(ctx, &UpdateRuleRequest{RuleID: rule.ID}), domain.ErrInvalidInput)

	active := false
	require.NoError(t, uc.UpdateRule(ctx, &UpdateRuleRequest{RuleID: rule.ID, IsActive: &active}))
	assert.Equal(t, map[string]interface{}{"is_active": false}, rules.updates)
}

func TestAntiFraud_CheckUserRequiresID(t *testing.T) {
	report := &domain.FraudReport{UserID: "u1", AllPassed: true}
	uc := NewAntiFraudUseCase(&fakeFraudEngine{report: report}, &fakeRuleRepo{}, &fakeFlagRepo{}, nil)

	_, err := uc.CheckUser(context.Background(), "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	got, err := uc.ProcessUserCheck(context.Background(), "u1")
	require.NoError(t, err)
	assert.True(t, got.AllPassed)
}
