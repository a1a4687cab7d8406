package schedule

// SaveConfigRequest creates or replaces the weekday schedule configuration.
// Every mutable field is explicit — no free-form patch payloads.
type SaveConfigRequest struct {
	DayOfWeek              int    `json:"day_of_week" binding:"min=0,max=6"`
	OpenTime               string `json:"open_time" binding:"required"`
	CloseTime              string `json:"close_time" binding:"required"`
	Capacity               int    `json:"capacity" binding:"required,min=1"`
	SlotDurationMinutes    int    `json:"slot_duration_minutes" binding:"omitempty,min=1"`
	AllowIntermediateSlots bool   `json:"allow_intermediate_slots"`
	IntermediateCapacity   int    `json:"intermediate_capacity" binding:"omitempty,min=1"`
	IsActive               *bool  `json:"is_active"`
}

// CreateExceptionRequest overrides one date: fully closed, reduced hours
// and/or reduced capacity.
type CreateExceptionRequest struct {
	Date      string `json:"date" binding:"required"` // 2006-01-02
	Closed    bool   `json:"closed"`
	OpenTime  string `json:"open_time"`
	CloseTime string `json:"close_time"`
	Capacity  int    `json:"capacity" binding:"omitempty,min=1"`
	Reason    string `json:"reason" binding:"required"`
}

type GenerateSlotsRequest struct {
	From string `json:"from" binding:"required"` // 2006-01-02
	To   string `json:"to" binding:"required"`
}
