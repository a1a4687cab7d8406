package payment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"classbook/internal/domain/entitlement"
	"classbook/internal/domain/reservation"
)

type MockLedger struct {
	mock.Mock
}

func (m *MockLedger) ApplyRenewal(ctx context.Context, userID, companyID int64, planID string, paidAt time.Time) (*entitlement.Subscription, error) {
	args := m.Called(ctx, userID, companyID, planID, paidAt)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*entitlement.Subscription), args.Error(1)
}

func (m *MockLedger) RecordPayment(ctx context.Context, p *entitlement.Payment) error {
	args := m.Called(ctx, p)
	return args.Error(0)
}

type MockExpander struct {
	mock.Mock
}

func (m *MockExpander) ActiveRules(ctx context.Context, userID, companyID int64) ([]reservation.RecurringReservation, error) {
	args := m.Called(ctx, userID, companyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]reservation.RecurringReservation), args.Error(1)
}

func (m *MockExpander) Expand(ctx context.Context, ruleID int64) (*reservation.ExpansionSummary, error) {
	args := m.Called(ctx, ruleID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*reservation.ExpansionSummary), args.Error(1)
}

func renewedSub() *entitlement.Subscription {
	monday := time.Date(2026, time.January, 5, 0, 0, 0, 0, time.UTC)
	return &entitlement.Subscription{
		ID:              uuid.New(),
		UserID:          10,
		CompanyID:       1,
		PlanID:          "standard-8",
		Status:          entitlement.StatusActive,
		PeriodStartDate: monday,
		PeriodEndDate:   monday.Add(entitlement.PeriodLength),
		WeekStartDate:   monday,
	}
}

func newMocked(t *testing.T) (*Service, *MockLedger, *MockExpander) {
	t.Helper()
	ledger := new(MockLedger)
	rules := new(MockExpander)
	svc := NewService(ledger, rules)
	svc.logf = func(string, ...any) {}
	return svc, ledger, rules
}

func TestOnPaymentCompleted_RenewsRecordsAndExpands(t *testing.T) {
	svc, ledger, rules := newMocked(t)
	sub := renewedSub()
	paidAt := time.Now().UTC()

	ledger.On("ApplyRenewal", mock.Anything, int64(10), int64(1), "standard-8", paidAt).Return(sub, nil)
	ledger.On("RecordPayment", mock.Anything, mock.AnythingOfType("*entitlement.Payment")).Return(nil)
	rules.On("ActiveRules", mock.Anything, int64(10), int64(1)).Return([]reservation.RecurringReservation{
		{ID: 5}, {ID: 6},
	}, nil)
	rules.On("Expand", mock.Anything, int64(5)).Return(&reservation.ExpansionSummary{Created: 2}, nil)
	rules.On("Expand", mock.Anything, int64(6)).Return(&reservation.ExpansionSummary{Created: 1}, nil)

	result, err := svc.OnPaymentCompleted(context.Background(), 10, 1, "standard-8", 32000, paidAt)
	require.NoError(t, err)

	assert.Equal(t, sub, result.Subscription)
	require.Len(t, result.Expansions, 2)
	assert.Equal(t, 2, result.Expansions[0].Summary.Created)
	assert.Empty(t, result.Expansions[0].Error)

	// The recorded payment carries the new period and the paid status.
	assert.Equal(t, entitlement.PaymentPaid, result.Payment.Status)
	assert.Equal(t, sub.PeriodStartDate, result.Payment.PeriodStart)
	assert.Equal(t, sub.PeriodEndDate, result.Payment.PeriodEnd)
	assert.Equal(t, 32000.0, result.Payment.Amount)

	ledger.AssertExpectations(t)
	rules.AssertExpectations(t)
}

func TestOnPaymentCompleted_DefaultsPaidAtToNow(t *testing.T) {
	svc, ledger, rules := newMocked(t)
	sub := renewedSub()

	ledger.On("ApplyRenewal", mock.Anything, int64(10), int64(1), "standard-8",
		mock.MatchedBy(func(ts time.Time) bool { return time.Since(ts) < time.Minute })).Return(sub, nil)
	ledger.On("RecordPayment", mock.Anything, mock.Anything).Return(nil)
	rules.On("ActiveRules", mock.Anything, int64(10), int64(1)).Return([]reservation.RecurringReservation{}, nil)

	_, err := svc.OnPaymentCompleted(context.Background(), 10, 1, "standard-8", 32000, time.Time{})
	require.NoError(t, err)
	ledger.AssertExpectations(t)
}

func TestOnPaymentCompleted_RenewalFailureAborts(t *testing.T) {
	svc, ledger, rules := newMocked(t)

	ledger.On("ApplyRenewal", mock.Anything, int64(10), int64(1), "ghost", mock.Anything).
		Return(nil, entitlement.ErrPlanNotFound)

	_, err := svc.OnPaymentCompleted(context.Background(), 10, 1, "ghost", 100, time.Now().UTC())
	assert.ErrorIs(t, err, entitlement.ErrPlanNotFound)
	ledger.AssertNotCalled(t, "RecordPayment", mock.Anything, mock.Anything)
	rules.AssertNotCalled(t, "ActiveRules", mock.Anything, mock.Anything, mock.Anything)
}

func TestOnPaymentCompleted_ExpansionFailureIsIsolated(t *testing.T) {
	svc, ledger, rules := newMocked(t)
	sub := renewedSub()

	ledger.On("ApplyRenewal", mock.Anything, int64(10), int64(1), "standard-8", mock.Anything).Return(sub, nil)
	ledger.On("RecordPayment", mock.Anything, mock.Anything).Return(nil)
	rules.On("ActiveRules", mock.Anything, int64(10), int64(1)).Return([]reservation.RecurringReservation{
		{ID: 5}, {ID: 6},
	}, nil)
	rules.On("Expand", mock.Anything, int64(5)).Return(nil, errors.New("boom"))
	rules.On("Expand", mock.Anything, int64(6)).Return(&reservation.ExpansionSummary{Created: 1}, nil)

	result, err := svc.OnPaymentCompleted(context.Background(), 10, 1, "standard-8", 32000, time.Now().UTC())
	require.NoError(t, err)

	require.Len(t, result.Expansions, 2)
	assert.Equal(t, "boom", result.Expansions[0].Error)
	assert.Equal(t, 1, result.Expansions[1].Summary.Created)
}

func TestOnPaymentCompleted_RuleListingFailureKeepsRenewal(t *testing.T) {
	svc, ledger, rules := newMocked(t)
	sub := renewedSub()

	ledger.On("ApplyRenewal", mock.Anything, int64(10), int64(1), "standard-8", mock.Anything).Return(sub, nil)
	ledger.On("RecordPayment", mock.Anything, mock.Anything).Return(nil)
	rules.On("ActiveRules", mock.Anything, int64(10), int64(1)).Return(nil, errors.New("db down"))

	result, err := svc.OnPaymentCompleted(context.Background(), 10, 1, "standard-8", 32000, time.Now().UTC())
	require.NoError(t, err)
	assert.Equal(t, sub, result.Subscription)
	assert.Empty(t, result.Expansions)
}
