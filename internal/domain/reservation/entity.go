package reservation

import (
	"strconv"
	"strings"
	"time"
)

// Reservation links a user to a slot. It exists only while both the
// capacity increment and the entitlement debit succeeded.
type Reservation struct {
	ID        int64     `gorm:"column:id;primaryKey" json:"id"`
	UserID    int64     `gorm:"column:user_id;uniqueIndex:idx_user_slot" json:"user_id"`
	CompanyID int64     `gorm:"column:company_id;index" json:"company_id"`
	SlotID    int64     `gorm:"column:slot_id;uniqueIndex:idx_user_slot" json:"slot_id"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
}

func (Reservation) TableName() string { return "reservations" }

type RuleStatus string

const (
	RuleActive    RuleStatus = "active"
	RulePaused    RuleStatus = "paused"
	RuleCancelled RuleStatus = "cancelled"
)

type EndType string

const (
	EndByDate  EndType = "date"
	EndByCount EndType = "count"
	EndNever   EndType = "never"
)

// RecurringReservation is a booking template, never a reservation itself.
// DaysOfWeek is a CSV of weekday numbers (0 = Sunday).
type RecurringReservation struct {
	ID                 int64      `gorm:"column:id;primaryKey" json:"id"`
	UserID             int64      `gorm:"column:user_id;index" json:"user_id"`
	CompanyID          int64      `gorm:"column:company_id" json:"company_id"`
	DaysOfWeek         string     `gorm:"column:days_of_week" json:"days_of_week"`
	StartTime          string     `gorm:"column:start_time" json:"start_time"` // "15:04"
	EndTime            string     `gorm:"column:end_time" json:"end_time"`
	StartDate          time.Time  `gorm:"column:start_date" json:"start_date"`
	EndType            EndType    `gorm:"column:end_type" json:"end_type"`
	EndDate            *time.Time `gorm:"column:end_date" json:"end_date,omitempty"`
	MaxOccurrences     int        `gorm:"column:max_occurrences;default:0" json:"max_occurrences"`
	CurrentOccurrences int        `gorm:"column:current_occurrences;default:0" json:"current_occurrences"`
	LastGeneratedDate  *time.Time `gorm:"column:last_generated_date" json:"last_generated_date,omitempty"`
	Status             RuleStatus `gorm:"column:status" json:"status"`
	CreatedAt          time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt          time.Time  `gorm:"column:updated_at" json:"updated_at"`
}

func (RecurringReservation) TableName() string { return "recurring_reservations" }

// DayEnabled reports whether the rule covers the given weekday.
func (r *RecurringReservation) DayEnabled(w time.Weekday) bool {
	for _, part := range strings.Split(r.DaysOfWeek, ",") {
		d, err := strconv.Atoi(strings.TrimSpace(part))
		if err != nil {
			continue
		}
		if d == int(w) {
			return true
		}
	}
	return false
}

// RemainingOccurrences returns how many reservations a count-bound rule may
// still generate; unbounded rule kinds return -1.
func (r *RecurringReservation) RemainingOccurrences() int {
	if r.EndType != EndByCount {
		return -1
	}
	rem := r.MaxOccurrences - r.CurrentOccurrences
	if rem < 0 {
		return 0
	}
	return rem
}

// DaysCSV joins weekday numbers into the stored CSV form.
func DaysCSV(days []int) string {
	parts := make([]string, 0, len(days))
	for _, d := range days {
		parts = append(parts, strconv.Itoa(d))
	}
	return strings.Join(parts, ",")
}
