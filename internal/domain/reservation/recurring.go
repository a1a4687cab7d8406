package reservation

import (
	"context"
	"errors"
	"time"

	"classbook/internal/domain/entitlement"
	"classbook/internal/domain/schedule"
)

// maxGeneratedPerRun bounds one expansion call. It is the engine's only
// self-imposed cancellation bound and protects against runaway loops on
// misconfigured rules. Variable so tests can shrink the run.
var maxGeneratedPerRun = 50

// ExpansionSummary reports what one expansion run did, with every skipped
// date categorized so callers can explain why occurrences were not booked.
type ExpansionSummary struct {
	Created          int      `json:"created"`
	PastDates        []string `json:"past_dates,omitempty"`
	CannotBook       []string `json:"cannot_book,omitempty"`
	MissingTimeSlots []string `json:"missing_time_slots,omitempty"`
	Duplicates       []string `json:"duplicates,omitempty"`
	NoCapacity       []string `json:"no_capacity,omitempty"`
	LimitReached     []string `json:"limit_reached,omitempty"`
}

// CreateRule stores the template and immediately expands it.
func (s *Service) CreateRule(ctx context.Context, rule *RecurringReservation) (*ExpansionSummary, error) {
	if err := validateRule(rule); err != nil {
		return nil, err
	}
	rule.Status = RuleActive
	rule.StartDate = schedule.DateOnly(rule.StartDate)
	if rule.EndDate != nil {
		d := schedule.DateOnly(*rule.EndDate)
		rule.EndDate = &d
	}
	if err := s.repo.CreateRule(ctx, rule); err != nil {
		return nil, err
	}
	return s.Expand(ctx, rule.ID)
}

// Expand materializes reservations for every matching date inside the
// bounding window: [max(today, rule start, period start), min(period end,
// rule end)]. Per-date problems become summary categories, never errors;
// only ledger corruption (QuotaViolation) aborts the run.
func (s *Service) Expand(ctx context.Context, ruleID int64) (*ExpansionSummary, error) {
	rule, err := s.repo.GetRuleByID(ctx, ruleID)
	if err != nil {
		return nil, err
	}
	if rule.Status != RuleActive {
		return nil, ErrRuleNotActive
	}

	summary := &ExpansionSummary{}

	sub, err := s.ledger.ActiveSubscription(ctx, rule.UserID, rule.CompanyID)
	if err != nil {
		if errors.Is(err, entitlement.ErrSubscriptionNotFound) {
			return summary, nil
		}
		return nil, err
	}

	if rule.RemainingOccurrences() == 0 {
		return summary, nil
	}

	now := time.Now().UTC()
	windowStart := maxDate(schedule.DateOnly(now), rule.StartDate, schedule.DateOnly(sub.PeriodStartDate))
	windowEnd := schedule.DateOnly(sub.PeriodEndDate)
	if rule.EndType == EndByDate && rule.EndDate != nil && rule.EndDate.Before(windowEnd) {
		windowEnd = *rule.EndDate
	}
	if windowEnd.Before(windowStart) {
		return summary, nil
	}

	occurrences := rule.CurrentOccurrences
	lastGenerated := rule.LastGeneratedDate

	for _, date := range schedule.DatesBetween(windowStart, windowEnd) {
		if !rule.DayEnabled(date.Weekday()) {
			continue
		}

		iso := date.Format("2006-01-02")

		if summary.Created >= maxGeneratedPerRun {
			summary.LimitReached = append(summary.LimitReached, iso)
			continue
		}
		if rule.EndType == EndByCount && occurrences >= rule.MaxOccurrences {
			summary.LimitReached = append(summary.LimitReached, iso)
			continue
		}

		slotStart, ok1 := combineClock(date, rule.StartTime)
		slotEnd, ok2 := combineClock(date, rule.EndTime)
		if !ok1 || !ok2 {
			summary.MissingTimeSlots = append(summary.MissingTimeSlots, iso)
			continue
		}

		if !slotStart.After(now) {
			summary.PastDates = append(summary.PastDates, iso)
			continue
		}

		allowed, err := s.ledger.CanBook(ctx, sub.ID, date)
		if err != nil {
			return nil, err
		}
		if !allowed {
			summary.CannotBook = append(summary.CannotBook, iso)
			continue
		}

		slot, err := s.slots.FindSlotByTime(ctx, rule.CompanyID, slotStart, slotEnd)
		if err != nil {
			if errors.Is(err, schedule.ErrSlotNotFound) {
				summary.MissingTimeSlots = append(summary.MissingTimeSlots, iso)
				continue
			}
			return nil, err
		}

		exists, err := s.repo.ExistsForSlot(ctx, rule.UserID, slot.ID)
		if err != nil {
			return nil, err
		}
		if exists {
			summary.Duplicates = append(summary.Duplicates, iso)
			continue
		}

		if err := s.slots.Reserve(ctx, slot.ID); err != nil {
			if errors.Is(err, schedule.ErrSlotFull) {
				summary.NoCapacity = append(summary.NoCapacity, iso)
				continue
			}
			return nil, err
		}

		res := &Reservation{UserID: rule.UserID, CompanyID: rule.CompanyID, SlotID: slot.ID}
		if err := s.repo.Create(ctx, res); err != nil {
			_ = s.slots.Release(ctx, slot.ID)
			if errors.Is(err, ErrDuplicate) {
				summary.Duplicates = append(summary.Duplicates, iso)
				continue
			}
			return nil, err
		}

		if _, err := s.ledger.Debit(ctx, sub.ID, date, &res.ID, entitlement.UsageReservation); err != nil {
			_ = s.repo.Delete(ctx, res.ID)
			_ = s.slots.Release(ctx, slot.ID)
			if errors.Is(err, entitlement.ErrQuotaViolation) {
				return nil, err
			}
			summary.CannotBook = append(summary.CannotBook, iso)
			continue
		}

		summary.Created++
		occurrences++
		d := date
		lastGenerated = &d
	}

	if err := s.repo.SaveRuleProgress(ctx, rule.ID, occurrences, lastGenerated); err != nil {
		return nil, err
	}

	return summary, nil
}

// PauseRule suspends expansion; existing reservations stay.
func (s *Service) PauseRule(ctx context.Context, ruleID, userID int64) error {
	rule, err := s.repo.GetRuleByID(ctx, ruleID)
	if err != nil {
		return err
	}
	if rule.UserID != userID {
		return ErrForbidden
	}
	if rule.Status != RuleActive {
		return ErrRuleNotActive
	}
	return s.repo.UpdateRuleStatus(ctx, ruleID, RulePaused)
}

// ResumeRule reactivates a paused rule and re-expands it.
func (s *Service) ResumeRule(ctx context.Context, ruleID, userID int64) (*ExpansionSummary, error) {
	rule, err := s.repo.GetRuleByID(ctx, ruleID)
	if err != nil {
		return nil, err
	}
	if rule.UserID != userID {
		return nil, ErrForbidden
	}
	if rule.Status != RulePaused {
		return nil, ErrRuleNotActive
	}
	if err := s.repo.UpdateRuleStatus(ctx, ruleID, RuleActive); err != nil {
		return nil, err
	}
	return s.Expand(ctx, ruleID)
}

// CancelRule terminates the rule. With deleteReservations it also tears
// down everything the rule generated: usage entries are removed, the
// entitlement is credited back (bounded by the plan's nominal allowances),
// capacity is released and slots the rule created are deleted when empty.
// Slots predating the rule are never deleted.
func (s *Service) CancelRule(ctx context.Context, ruleID, userID int64, deleteReservations bool) error {
	rule, err := s.repo.GetRuleByID(ctx, ruleID)
	if err != nil {
		return err
	}
	if rule.UserID != userID {
		return ErrForbidden
	}

	if err := s.repo.UpdateRuleStatus(ctx, ruleID, RuleCancelled); err != nil {
		return err
	}
	if !deleteReservations {
		return nil
	}
	return s.teardown(ctx, rule)
}

func (s *Service) teardown(ctx context.Context, rule *RecurringReservation) error {
	reservations, err := s.repo.ListByUserCompanySince(ctx, rule.UserID, rule.CompanyID, rule.StartDate)
	if err != nil {
		return err
	}

	for _, res := range reservations {
		slot, err := s.slots.GetSlotByID(ctx, res.SlotID)
		if err != nil {
			if errors.Is(err, schedule.ErrSlotNotFound) {
				continue
			}
			return err
		}
		if !s.slotMatchesRule(rule, slot) {
			continue
		}

		if err := s.ledger.CreditReservation(ctx, res.ID); err != nil {
			if !errors.Is(err, entitlement.ErrUsageNotFound) {
				return err
			}
		}
		if err := s.repo.Delete(ctx, res.ID); err != nil {
			return err
		}
		if err := s.slots.Release(ctx, slot.ID); err != nil {
			return err
		}
		if _, err := s.slots.DeleteIfEmptyCreatedSince(ctx, slot.ID, rule.StartDate); err != nil {
			return err
		}
	}
	return nil
}

func (s *Service) slotMatchesRule(rule *RecurringReservation, slot *schedule.Slot) bool {
	if !rule.DayEnabled(slot.Date.Weekday()) {
		return false
	}
	start, ok1 := combineClock(slot.Date, rule.StartTime)
	end, ok2 := combineClock(slot.Date, rule.EndTime)
	if !ok1 || !ok2 {
		return false
	}
	return slot.StartTime.Equal(start) && slot.EndTime.Equal(end)
}

func validateRule(rule *RecurringReservation) error {
	if rule.UserID == 0 || rule.CompanyID == 0 || rule.DaysOfWeek == "" {
		return ErrValidation
	}
	start, ok1 := combineClock(rule.StartDate, rule.StartTime)
	end, ok2 := combineClock(rule.StartDate, rule.EndTime)
	if !ok1 || !ok2 || !end.After(start) {
		return ErrValidation
	}
	switch rule.EndType {
	case EndByDate:
		if rule.EndDate == nil || rule.EndDate.Before(rule.StartDate) {
			return ErrValidation
		}
	case EndByCount:
		if rule.MaxOccurrences <= 0 {
			return ErrValidation
		}
	case EndNever:
	default:
		return ErrValidation
	}
	return nil
}

func combineClock(date time.Time, clock string) (time.Time, bool) {
	parsed, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, false
	}
	date = schedule.DateOnly(date)
	return time.Date(date.Year(), date.Month(), date.Day(), parsed.Hour(), parsed.Minute(), 0, 0, time.UTC), true
}

func maxDate(dates ...time.Time) time.Time {
	out := dates[0]
	for _, d := range dates[1:] {
		if d.After(out) {
			out = d
		}
	}
	return out
}
