package entitlement

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type Status string

const (
	StatusActive    Status = "active"
	StatusPaused    Status = "paused"
	StatusCancelled Status = "cancelled"
	StatusExpired   Status = "expired"
)

type UsageType string

const (
	UsageReservation UsageType = "reservation"
	UsageWalkIn      UsageType = "walk_in"
	UsageSpecial     UsageType = "special"
)

type PaymentStatus string

const (
	PaymentPaid    PaymentStatus = "paid"
	PaymentPending PaymentStatus = "pending"
)

// PeriodLength is the billing cycle anchored to a payment.
const PeriodLength = 30 * 24 * time.Hour

// Plan defines the class allowances a subscription grants.
type Plan struct {
	ID                  string    `gorm:"column:id;primaryKey" json:"id"`
	Name                string    `gorm:"column:name" json:"name"`
	PriceMonthly        float64   `gorm:"column:price_monthly" json:"price_monthly"`
	ClassesPerWeek      int       `gorm:"column:classes_per_week" json:"classes_per_week"`
	MaxClassesPerPeriod int       `gorm:"column:max_classes_per_period" json:"max_classes_per_period"`
	AllowClassRollover  bool      `gorm:"column:allow_class_rollover;default:false" json:"allow_class_rollover"`
	MaxRolloverClasses  int       `gorm:"column:max_rollover_classes;default:0" json:"max_rollover_classes"`
	IsActive            bool      `gorm:"column:is_active;default:true" json:"is_active"`
	CreatedAt           time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Plan) TableName() string { return "plans" }

// Subscription is the entitlement ledger for one (user, company, plan):
// weekly and period counters, period boundaries and week alignment.
type Subscription struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	UserID    int64     `gorm:"column:user_id;index:idx_sub_user_company" json:"user_id"`
	CompanyID int64     `gorm:"column:company_id;index:idx_sub_user_company" json:"company_id"`
	PlanID    string    `gorm:"column:plan_id" json:"plan_id"`
	Status    Status    `gorm:"column:status" json:"status"`

	PeriodStartDate time.Time `gorm:"column:period_start_date" json:"period_start_date"`
	PeriodEndDate   time.Time `gorm:"column:period_end_date" json:"period_end_date"`
	WeekStartDate   time.Time `gorm:"column:week_start_date" json:"week_start_date"` // always a Monday

	ClassesUsedThisPeriod      int `gorm:"column:classes_used_this_period;default:0" json:"classes_used_this_period"`
	ClassesRemainingThisPeriod int `gorm:"column:classes_remaining_this_period;default:0" json:"classes_remaining_this_period"`
	ClassesUsedThisWeek        int `gorm:"column:classes_used_this_week;default:0" json:"classes_used_this_week"`
	ClassesRemainingThisWeek   int `gorm:"column:classes_remaining_this_week;default:0" json:"classes_remaining_this_week"`

	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Subscription) TableName() string { return "subscriptions" }

func (s *Subscription) BeforeCreate(_ *gorm.DB) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}
	return nil
}

// ClassUsage is an immutable ledger entry for one quota debit. A
// reservation-typed entry corresponds to exactly one reservation and is
// removed only as compensation when that reservation is torn down.
type ClassUsage struct {
	ID             uuid.UUID `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	SubscriptionID uuid.UUID `gorm:"column:subscription_id;type:uuid;index" json:"subscription_id"`
	ReservationID  *int64    `gorm:"column:reservation_id;uniqueIndex" json:"reservation_id,omitempty"`
	UsageType      UsageType `gorm:"column:usage_type" json:"usage_type"`
	UsageDate      time.Time `gorm:"column:usage_date" json:"usage_date"`
	CreatedAt      time.Time `gorm:"column:created_at" json:"created_at"`
}

func (ClassUsage) TableName() string { return "class_usages" }

func (u *ClassUsage) BeforeCreate(_ *gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// Payment records one billing event. Booking validity requires a paid
// payment whose 30-day window covers the target date; a pending payment
// blocks booking until resolved.
type Payment struct {
	ID             uuid.UUID     `gorm:"column:id;type:uuid;primaryKey" json:"id"`
	SubscriptionID uuid.UUID     `gorm:"column:subscription_id;type:uuid;index" json:"subscription_id"`
	UserID         int64         `gorm:"column:user_id;index" json:"user_id"`
	CompanyID      int64         `gorm:"column:company_id" json:"company_id"`
	PlanID         string        `gorm:"column:plan_id" json:"plan_id"`
	Amount         float64       `gorm:"column:amount" json:"amount"`
	Status         PaymentStatus `gorm:"column:status" json:"status"`
	PaidAt         time.Time     `gorm:"column:paid_at" json:"paid_at"`
	PeriodStart    time.Time     `gorm:"column:period_start" json:"period_start"`
	PeriodEnd      time.Time     `gorm:"column:period_end" json:"period_end"`
	CreatedAt      time.Time     `gorm:"column:created_at" json:"created_at"`
}

func (Payment) TableName() string { return "payments" }

func (p *Payment) BeforeCreate(_ *gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}

// Suspension freezes a user's entitlement at a company for a date range.
type Suspension struct {
	ID        int64     `gorm:"column:id;primaryKey" json:"id"`
	UserID    int64     `gorm:"column:user_id;index" json:"user_id"`
	CompanyID int64     `gorm:"column:company_id" json:"company_id"`
	StartDate time.Time `gorm:"column:start_date" json:"start_date"`
	EndDate   time.Time `gorm:"column:end_date" json:"end_date"`
	Reason    string    `gorm:"column:reason" json:"reason"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Suspension) TableName() string { return "suspensions" }

// Covers reports whether the suspension range includes the given date
// (inclusive bounds).
func (s *Suspension) Covers(date time.Time) bool {
	return !date.Before(s.StartDate) && !date.After(s.EndDate)
}
