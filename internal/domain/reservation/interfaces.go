package reservation

import (
	"context"
	"time"

	"github.com/google/uuid"

	"classbook/internal/domain/entitlement"
	"classbook/internal/domain/schedule"
)

// SlotStore is the slice of the slot capacity manager this package needs.
// Satisfied by schedule.Repository.
type SlotStore interface {
	GetSlotByID(ctx context.Context, id int64) (*schedule.Slot, error)
	FindSlotByTime(ctx context.Context, companyID int64, start, end time.Time) (*schedule.Slot, error)
	Reserve(ctx context.Context, slotID int64) error
	Release(ctx context.Context, slotID int64) error
	DeleteIfEmptyCreatedSince(ctx context.Context, slotID int64, since time.Time) (bool, error)
}

// EntitlementLedger is the slice of the entitlement service this package
// needs. Satisfied by entitlement.Service.
type EntitlementLedger interface {
	ActiveSubscription(ctx context.Context, userID, companyID int64) (*entitlement.Subscription, error)
	CanBook(ctx context.Context, subscriptionID uuid.UUID, targetDate time.Time) (bool, error)
	Debit(ctx context.Context, subscriptionID uuid.UUID, usageDate time.Time, reservationID *int64, usageType entitlement.UsageType) (*entitlement.ClassUsage, error)
	CreditReservation(ctx context.Context, reservationID int64) error
}

// Repository persists reservations and recurring rules.
type Repository interface {
	Create(ctx context.Context, r *Reservation) error
	GetByID(ctx context.Context, id int64) (*Reservation, error)
	Delete(ctx context.Context, id int64) error
	ExistsForSlot(ctx context.Context, userID, slotID int64) (bool, error)
	ListByUserCompanySince(ctx context.Context, userID, companyID int64, since time.Time) ([]Reservation, error)
	ListByUser(ctx context.Context, userID int64, limit, offset int) ([]Reservation, error)

	CreateRule(ctx context.Context, rule *RecurringReservation) error
	GetRuleByID(ctx context.Context, id int64) (*RecurringReservation, error)
	UpdateRuleStatus(ctx context.Context, id int64, status RuleStatus) error
	SaveRuleProgress(ctx context.Context, id int64, occurrences int, lastGenerated *time.Time) error
	ListActiveRules(ctx context.Context, userID, companyID int64) ([]RecurringReservation, error)
}
