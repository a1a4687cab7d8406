package schedule

import "time"

// Slot is a bookable interval with fixed capacity. reserved_count is mutated
// only through the atomic Reserve/Release repository operations.
type Slot struct {
	ID             int64     `gorm:"column:id;primaryKey" json:"id"`
	CompanyID      int64     `gorm:"column:company_id;index;uniqueIndex:idx_slot_identity" json:"company_id"`
	Date           time.Time `gorm:"column:date;uniqueIndex:idx_slot_identity" json:"date"`
	StartTime      time.Time `gorm:"column:start_time;uniqueIndex:idx_slot_identity" json:"start_time"`
	EndTime        time.Time `gorm:"column:end_time;uniqueIndex:idx_slot_identity" json:"end_time"`
	Capacity       int       `gorm:"column:capacity" json:"capacity"`
	ReservedCount  int       `gorm:"column:reserved_count;default:0" json:"reserved_count"`
	IsIntermediate bool      `gorm:"column:is_intermediate;default:false;uniqueIndex:idx_slot_identity" json:"is_intermediate"`
	CreatedAt      time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt      time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (Slot) TableName() string { return "slots" }

// HasCapacity reports whether another reservation fits. Advisory only — the
// authoritative check happens inside the conditional reserve update.
func (s *Slot) HasCapacity() bool {
	return s.ReservedCount < s.Capacity
}

// ScheduleConfig is the per-weekday source of truth for regular slot
// generation. Times are wall-clock "HH:MM" strings; dates are resolved at
// generation time.
type ScheduleConfig struct {
	ID                     int64     `gorm:"column:id;primaryKey" json:"id"`
	CompanyID              int64     `gorm:"column:company_id;index" json:"company_id"`
	DayOfWeek              int       `gorm:"column:day_of_week" json:"day_of_week"` // 0 = Sunday
	OpenTime               string    `gorm:"column:open_time" json:"open_time"`
	CloseTime              string    `gorm:"column:close_time" json:"close_time"`
	Capacity               int       `gorm:"column:capacity" json:"capacity"`
	SlotDurationMinutes    int       `gorm:"column:slot_duration_minutes;default:60" json:"slot_duration_minutes"`
	AllowIntermediateSlots bool      `gorm:"column:allow_intermediate_slots;default:false" json:"allow_intermediate_slots"`
	IntermediateCapacity   int       `gorm:"column:intermediate_capacity;default:0" json:"intermediate_capacity"`
	IsActive               bool      `gorm:"column:is_active;default:true" json:"is_active"`
	CreatedAt              time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt              time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (ScheduleConfig) TableName() string { return "schedule_configs" }

// ScheduleException overrides the weekday config for one specific date:
// fully closed, reduced hours, reduced capacity, or a combination.
type ScheduleException struct {
	ID        int64     `gorm:"column:id;primaryKey" json:"id"`
	CompanyID int64     `gorm:"column:company_id;index" json:"company_id"`
	Date      time.Time `gorm:"column:date;index" json:"date"`
	Closed    bool      `gorm:"column:closed;default:false" json:"closed"`
	OpenTime  string    `gorm:"column:open_time" json:"open_time"`
	CloseTime string    `gorm:"column:close_time" json:"close_time"`
	Capacity  int       `gorm:"column:capacity;default:0" json:"capacity"` // 0 keeps config capacity
	Reason    string    `gorm:"column:reason" json:"reason"`
	IsActive  bool      `gorm:"column:is_active;default:true" json:"is_active"`
	CreatedAt time.Time `gorm:"column:created_at" json:"created_at"`
	UpdatedAt time.Time `gorm:"column:updated_at" json:"updated_at"`
}

func (ScheduleException) TableName() string { return "schedule_exceptions" }
