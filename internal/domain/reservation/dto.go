package reservation

type BookRequest struct {
	SlotID int64 `json:"slot_id" binding:"required"`
}

type CreateRuleRequest struct {
	DaysOfWeek     []int  `json:"days_of_week" binding:"required,min=1"`
	StartTime      string `json:"start_time" binding:"required"`
	EndTime        string `json:"end_time" binding:"required"`
	StartDate      string `json:"start_date" binding:"required"`
	EndType        string `json:"end_type" binding:"required,oneof=date count never"`
	EndDate        string `json:"end_date,omitempty"`
	MaxOccurrences int    `json:"max_occurrences,omitempty"`
}

type RuleResponse struct {
	Rule    *RecurringReservation `json:"rule"`
	Summary *ExpansionSummary     `json:"summary,omitempty"`
}
