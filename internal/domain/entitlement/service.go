package entitlement

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Service owns the entitlement ledger: weekly/period counters, usage
// entries, payment validity and suspensions. Counter mutations run inside a
// locked transaction so concurrent bookings against the same subscription
// serialize.
type Service struct {
	db *gorm.DB
}

func NewService(db *gorm.DB) *Service {
	return &Service{db: db}
}

func (s *Service) GetPlan(ctx context.Context, planID string) (*Plan, error) {
	var plan Plan
	err := s.db.WithContext(ctx).Where("id = ? AND is_active = ?", planID, true).First(&plan).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return &plan, nil
}

func (s *Service) ListPlans(ctx context.Context) ([]Plan, error) {
	var plans []Plan
	err := s.db.WithContext(ctx).Where("is_active = ?", true).Order("price_monthly ASC").Find(&plans).Error
	return plans, err
}

func (s *Service) SavePlan(ctx context.Context, plan *Plan) error {
	if plan.ID == "" || plan.ClassesPerWeek <= 0 || plan.MaxClassesPerPeriod <= 0 {
		return ErrValidation
	}
	return s.db.WithContext(ctx).Save(plan).Error
}

// ActiveSubscription returns the active subscription for (user, company),
// with the lazy weekly reset already applied.
func (s *Service) ActiveSubscription(ctx context.Context, userID, companyID int64) (*Subscription, error) {
	var sub Subscription
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := lockActiveSubscription(tx, userID, companyID, &sub); err != nil {
			return err
		}
		plan, err := planForUpdate(tx, sub.PlanID)
		if err != nil {
			return err
		}
		return ensureWeeklyWindow(tx, &sub, plan, time.Now().UTC())
	})
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// CanBook reports whether the subscription may book a class on targetDate:
// active status, a paid payment whose 30-day window covers the date, no
// pending payment, no suspension on the date, and weekly quota left after
// the lazy weekly reset.
func (s *Service) CanBook(ctx context.Context, subscriptionID uuid.UUID, targetDate time.Time) (bool, error) {
	targetDate = dateOnly(targetDate)

	allowed := false
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sub Subscription
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", subscriptionID).First(&sub).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSubscriptionNotFound
			}
			return err
		}

		if sub.Status != StatusActive {
			return nil
		}

		plan, err := planForUpdate(tx, sub.PlanID)
		if err != nil {
			return err
		}
		if err := ensureWeeklyWindow(tx, &sub, plan, time.Now().UTC()); err != nil {
			return err
		}

		covered, pending, err := paymentState(tx, sub.ID, targetDate)
		if err != nil {
			return err
		}
		if !covered || pending {
			return nil
		}

		suspended, err := isSuspended(tx, sub.UserID, sub.CompanyID, targetDate)
		if err != nil {
			return err
		}
		if suspended {
			return nil
		}

		allowed = sub.ClassesRemainingThisWeek > 0 && sub.ClassesRemainingThisPeriod > 0
		return nil
	})
	if err != nil {
		return false, err
	}
	return allowed, nil
}

// Debit burns one class from both the weekly and period counters and writes
// the matching ClassUsage entry, all in one transaction. A counter that
// would go negative aborts with ErrQuotaViolation.
func (s *Service) Debit(ctx context.Context, subscriptionID uuid.UUID, usageDate time.Time, reservationID *int64, usageType UsageType) (*ClassUsage, error) {
	usageDate = dateOnly(usageDate)

	var usage ClassUsage
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var sub Subscription
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", subscriptionID).First(&sub).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrSubscriptionNotFound
			}
			return err
		}

		plan, err := planForUpdate(tx, sub.PlanID)
		if err != nil {
			return err
		}
		if err := ensureWeeklyWindow(tx, &sub, plan, time.Now().UTC()); err != nil {
			return err
		}

		if sub.ClassesRemainingThisWeek <= 0 || sub.ClassesRemainingThisPeriod <= 0 {
			return ErrQuotaViolation
		}

		sub.ClassesUsedThisWeek++
		sub.ClassesRemainingThisWeek--
		sub.ClassesUsedThisPeriod++
		sub.ClassesRemainingThisPeriod--
		if err := saveCounters(tx, &sub); err != nil {
			return err
		}

		usage = ClassUsage{
			SubscriptionID: sub.ID,
			ReservationID:  reservationID,
			UsageType:      usageType,
			UsageDate:      usageDate,
		}
		return tx.Create(&usage).Error
	})
	if err != nil {
		return nil, err
	}
	return &usage, nil
}

// CreditReservation compensates the debit that a reservation produced:
// deletes the usage entry and restores counters, bounded by the plan's
// nominal allowances so teardown can never mint extra quota. Weekly counters
// are only restored when the usage falls inside the current week window.
func (s *Service) CreditReservation(ctx context.Context, reservationID int64) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var usage ClassUsage
		if err := tx.Where("reservation_id = ?", reservationID).First(&usage).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrUsageNotFound
			}
			return err
		}

		var sub Subscription
		if err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("id = ?", usage.SubscriptionID).First(&sub).Error; err != nil {
			return err
		}

		plan, err := planForUpdate(tx, sub.PlanID)
		if err != nil {
			return err
		}

		sub.ClassesUsedThisPeriod = maxInt(sub.ClassesUsedThisPeriod-1, 0)
		sub.ClassesRemainingThisPeriod = minInt(sub.ClassesRemainingThisPeriod+1, plan.MaxClassesPerPeriod+plan.MaxRolloverClasses)

		if inWeekWindow(sub.WeekStartDate, usage.UsageDate) {
			sub.ClassesUsedThisWeek = maxInt(sub.ClassesUsedThisWeek-1, 0)
			sub.ClassesRemainingThisWeek = minInt(sub.ClassesRemainingThisWeek+1, plan.ClassesPerWeek)
		}

		if err := saveCounters(tx, &sub); err != nil {
			return err
		}
		return tx.Delete(&ClassUsage{}, "id = ?", usage.ID).Error
	})
}

// ApplyRenewal advances the ledger for a completed payment: creates the
// subscription on first payment, swaps the plan (fresh counters) when the
// plan changed, or resets the period with rollover when unchanged. The new
// period start stays Monday-aligned with the subscriber's week even when
// the payment is late.
func (s *Service) ApplyRenewal(ctx context.Context, userID, companyID int64, planID string, paidAt time.Time) (*Subscription, error) {
	var out Subscription
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		plan, err := planForUpdate(tx, planID)
		if err != nil {
			return err
		}

		now := time.Now().UTC()

		var sub Subscription
		err = tx.Clauses(clause.Locking{Strength: "UPDATE"}).
			Where("user_id = ? AND company_id = ? AND status = ?", userID, companyID, StatusActive).
			Order("created_at DESC").
			First(&sub).Error
		if err != nil {
			if !errors.Is(err, gorm.ErrRecordNotFound) {
				return err
			}

			weekStart := MondayOf(paidAt)
			out = Subscription{
				UserID:                     userID,
				CompanyID:                  companyID,
				PlanID:                     planID,
				Status:                     StatusActive,
				WeekStartDate:              weekStart,
				PeriodStartDate:            weekStart,
				PeriodEndDate:              weekStart.Add(PeriodLength),
				ClassesUsedThisWeek:        0,
				ClassesRemainingThisWeek:   minInt(plan.ClassesPerWeek, plan.MaxClassesPerPeriod),
				ClassesUsedThisPeriod:      0,
				ClassesRemainingThisPeriod: plan.MaxClassesPerPeriod,
			}
			return tx.Create(&out).Error
		}

		if err := ensureWeeklyWindow(tx, &sub, plan, now); err != nil {
			return err
		}

		if sub.PlanID != planID {
			// Plan change: counters start fresh on the new plan, no
			// rollover across plans.
			sub.PlanID = planID
			sub.ClassesUsedThisPeriod = 0
			sub.ClassesRemainingThisPeriod = plan.MaxClassesPerPeriod
			sub.ClassesUsedThisWeek = 0
		} else {
			carried := 0
			if plan.AllowClassRollover {
				carried = minInt(sub.ClassesRemainingThisPeriod, plan.MaxRolloverClasses)
			}
			sub.ClassesUsedThisPeriod = 0
			sub.ClassesRemainingThisPeriod = plan.MaxClassesPerPeriod + carried
		}

		// The fresh period lifts any clamp the exhausted one put on the
		// weekly counter; classes already used this week still count.
		sub.ClassesRemainingThisWeek = minInt(
			maxInt(plan.ClassesPerWeek-sub.ClassesUsedThisWeek, 0),
			sub.ClassesRemainingThisPeriod,
		)

		sub.PeriodStartDate = sub.WeekStartDate
		sub.PeriodEndDate = sub.WeekStartDate.Add(PeriodLength)

		if err := tx.Model(&Subscription{}).Where("id = ?", sub.ID).Updates(map[string]any{
			"plan_id":                       sub.PlanID,
			"period_start_date":             sub.PeriodStartDate,
			"period_end_date":               sub.PeriodEndDate,
			"classes_used_this_period":      sub.ClassesUsedThisPeriod,
			"classes_remaining_this_period": sub.ClassesRemainingThisPeriod,
			"classes_used_this_week":        sub.ClassesUsedThisWeek,
			"classes_remaining_this_week":   sub.ClassesRemainingThisWeek,
			"updated_at":                    now,
		}).Error; err != nil {
			return err
		}

		out = sub
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

// RecordPayment stores a payment row for the subscription.
func (s *Service) RecordPayment(ctx context.Context, p *Payment) error {
	return s.db.WithContext(ctx).Create(p).Error
}

// CreateSuspension rejects ranges overlapping an existing suspension for the
// same user and company.
func (s *Service) CreateSuspension(ctx context.Context, susp *Suspension) error {
	if susp.EndDate.Before(susp.StartDate) {
		return ErrValidation
	}
	susp.StartDate = dateOnly(susp.StartDate)
	susp.EndDate = dateOnly(susp.EndDate)

	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		err := tx.Model(&Suspension{}).
			Where("user_id = ? AND company_id = ? AND start_date <= ? AND end_date >= ?",
				susp.UserID, susp.CompanyID, susp.EndDate, susp.StartDate).
			Count(&count).Error
		if err != nil {
			return err
		}
		if count > 0 {
			return ErrSuspensionOverlap
		}
		return tx.Create(susp).Error
	})
}

// Status builds the entitlement read model for the API.
func (s *Service) Status(ctx context.Context, userID, companyID int64) (*StatusResponse, error) {
	sub, err := s.ActiveSubscription(ctx, userID, companyID)
	if err != nil {
		return nil, err
	}
	plan, err := s.GetPlan(ctx, sub.PlanID)
	if err != nil {
		return nil, err
	}
	return buildStatusResponse(sub, plan), nil
}

// ---- internal helpers ----

func lockActiveSubscription(tx *gorm.DB, userID, companyID int64, sub *Subscription) error {
	err := tx.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("user_id = ? AND company_id = ? AND status = ?", userID, companyID, StatusActive).
		Order("created_at DESC").
		First(sub).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrSubscriptionNotFound
	}
	return err
}

func planForUpdate(tx *gorm.DB, planID string) (*Plan, error) {
	var plan Plan
	if err := tx.Where("id = ?", planID).First(&plan).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}
	return &plan, nil
}

// ensureWeeklyWindow applies the lazy weekly reset: whenever now falls
// outside the stored Monday–Sunday window, realign week_start_date to the
// current week's Monday and restore the weekly allowance. The refill is
// clamped to the period remainder so the weekly counter never promises
// classes the period no longer holds. Calling it twice in the same week is
// a no-op.
func ensureWeeklyWindow(tx *gorm.DB, sub *Subscription, plan *Plan, now time.Time) error {
	if inWeekWindow(sub.WeekStartDate, now) {
		return nil
	}

	sub.WeekStartDate = MondayOf(now)
	sub.ClassesUsedThisWeek = 0
	sub.ClassesRemainingThisWeek = minInt(plan.ClassesPerWeek, sub.ClassesRemainingThisPeriod)

	return tx.Model(&Subscription{}).Where("id = ?", sub.ID).Updates(map[string]any{
		"week_start_date":             sub.WeekStartDate,
		"classes_used_this_week":      0,
		"classes_remaining_this_week": sub.ClassesRemainingThisWeek,
		"updated_at":                  now,
	}).Error
}

func paymentState(tx *gorm.DB, subscriptionID uuid.UUID, targetDate time.Time) (covered, pending bool, err error) {
	var payments []Payment
	if err := tx.Where("subscription_id = ?", subscriptionID).Find(&payments).Error; err != nil {
		return false, false, err
	}
	for _, p := range payments {
		switch p.Status {
		case PaymentPending:
			pending = true
		case PaymentPaid:
			windowEnd := p.PaidAt.Add(PeriodLength)
			if !targetDate.Before(dateOnly(p.PaidAt)) && targetDate.Before(windowEnd) {
				covered = true
			}
		}
	}
	return covered, pending, nil
}

func isSuspended(tx *gorm.DB, userID, companyID int64, date time.Time) (bool, error) {
	var count int64
	err := tx.Model(&Suspension{}).
		Where("user_id = ? AND company_id = ? AND start_date <= ? AND end_date >= ?", userID, companyID, date, date).
		Count(&count).Error
	return count > 0, err
}

func saveCounters(tx *gorm.DB, sub *Subscription) error {
	return tx.Model(&Subscription{}).Where("id = ?", sub.ID).Updates(map[string]any{
		"classes_used_this_week":        sub.ClassesUsedThisWeek,
		"classes_remaining_this_week":   sub.ClassesRemainingThisWeek,
		"classes_used_this_period":      sub.ClassesUsedThisPeriod,
		"classes_remaining_this_period": sub.ClassesRemainingThisPeriod,
		"updated_at":                    time.Now().UTC(),
	}).Error
}

// MondayOf returns the Monday of t's ISO week, truncated to the date.
func MondayOf(t time.Time) time.Time {
	t = dateOnly(t)
	offset := (int(t.Weekday()) + 6) % 7
	return t.AddDate(0, 0, -offset)
}

func inWeekWindow(weekStart, t time.Time) bool {
	if weekStart.IsZero() {
		return false
	}
	return !t.Before(weekStart) && t.Before(weekStart.AddDate(0, 0, 7))
}

func dateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func maxInt(a, b int) int {
	if a > b {
		return a
	}
	return b
}
