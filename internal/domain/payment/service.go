package payment

import (
	"context"
	"log"
	"time"

	"classbook/internal/domain/entitlement"
	"classbook/internal/domain/reservation"
)

// Ledger is the slice of the entitlement service the renewal trigger needs.
// Satisfied by entitlement.Service.
type Ledger interface {
	ApplyRenewal(ctx context.Context, userID, companyID int64, planID string, paidAt time.Time) (*entitlement.Subscription, error)
	RecordPayment(ctx context.Context, p *entitlement.Payment) error
}

// RuleExpander re-materializes recurring rules after a renewal extends the
// period. Satisfied by reservation.Service.
type RuleExpander interface {
	ActiveRules(ctx context.Context, userID, companyID int64) ([]reservation.RecurringReservation, error)
	Expand(ctx context.Context, ruleID int64) (*reservation.ExpansionSummary, error)
}

// RuleExpansion is the per-rule outcome of the post-renewal expansion pass.
type RuleExpansion struct {
	RuleID  int64                         `json:"rule_id"`
	Summary *reservation.ExpansionSummary `json:"summary,omitempty"`
	Error   string                        `json:"error,omitempty"`
}

// RenewalResult is what one completed payment produced.
type RenewalResult struct {
	Subscription *entitlement.Subscription `json:"subscription"`
	Payment      *entitlement.Payment      `json:"payment"`
	Expansions   []RuleExpansion           `json:"expansions"`
}

type Service struct {
	ledger Ledger
	rules  RuleExpander
	logf   func(format string, args ...any)
}

func NewService(ledger Ledger, rules RuleExpander) *Service {
	return &Service{ledger: ledger, rules: rules, logf: log.Printf}
}

// OnPaymentCompleted runs the renewal trigger: advance the ledger, record
// the paid payment for the new period, then re-expand every active
// recurring rule the user has at the company. Expansion failures are
// reported and logged but never undo the renewal itself.
func (s *Service) OnPaymentCompleted(ctx context.Context, userID, companyID int64, planID string, amount float64, paidAt time.Time) (*RenewalResult, error) {
	if paidAt.IsZero() {
		paidAt = time.Now().UTC()
	}

	sub, err := s.ledger.ApplyRenewal(ctx, userID, companyID, planID, paidAt)
	if err != nil {
		return nil, err
	}

	pay := &entitlement.Payment{
		SubscriptionID: sub.ID,
		UserID:         userID,
		CompanyID:      companyID,
		PlanID:         planID,
		Amount:         amount,
		Status:         entitlement.PaymentPaid,
		PaidAt:         paidAt,
		PeriodStart:    sub.PeriodStartDate,
		PeriodEnd:      sub.PeriodEndDate,
	}
	if err := s.ledger.RecordPayment(ctx, pay); err != nil {
		return nil, err
	}

	result := &RenewalResult{Subscription: sub, Payment: pay}

	rules, err := s.rules.ActiveRules(ctx, userID, companyID)
	if err != nil {
		s.logf("renewal: listing rules for user %d company %d: %v", userID, companyID, err)
		return result, nil
	}

	for _, rule := range rules {
		summary, err := s.rules.Expand(ctx, rule.ID)
		exp := RuleExpansion{RuleID: rule.ID, Summary: summary}
		if err != nil {
			exp.Error = err.Error()
			s.logf("renewal: expanding rule %d: %v", rule.ID, err)
		}
		result.Expansions = append(result.Expansions, exp)
	}

	return result, nil
}
