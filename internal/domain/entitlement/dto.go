package entitlement

// StatusResponse is the entitlement read model exposed to members.
type StatusResponse struct {
	SubscriptionID string `json:"subscription_id"`
	PlanID         string `json:"plan_id"`
	PlanName       string `json:"plan_name"`
	Status         string `json:"status"`

	PeriodStartDate string `json:"period_start_date"`
	PeriodEndDate   string `json:"period_end_date"`
	WeekStartDate   string `json:"week_start_date"`

	ClassesUsedThisPeriod      int `json:"classes_used_this_period"`
	ClassesRemainingThisPeriod int `json:"classes_remaining_this_period"`
	ClassesUsedThisWeek        int `json:"classes_used_this_week"`
	ClassesRemainingThisWeek   int `json:"classes_remaining_this_week"`
}

type CreateSuspensionRequest struct {
	StartDate string `json:"start_date" binding:"required"` // 2006-01-02
	EndDate   string `json:"end_date" binding:"required"`
	Reason    string `json:"reason"`
}

type SavePlanRequest struct {
	ID                  string  `json:"id" binding:"required"`
	Name                string  `json:"name" binding:"required"`
	PriceMonthly        float64 `json:"price_monthly" binding:"min=0"`
	ClassesPerWeek      int     `json:"classes_per_week" binding:"required,min=1"`
	MaxClassesPerPeriod int     `json:"max_classes_per_period" binding:"required,min=1"`
	AllowClassRollover  bool    `json:"allow_class_rollover"`
	MaxRolloverClasses  int     `json:"max_rollover_classes" binding:"omitempty,min=0"`
}

// RecordUsageRequest lets staff debit a walk-in or special class against a
// member's entitlement without a reservation.
type RecordUsageRequest struct {
	UserID    int64  `json:"user_id" binding:"required"`
	UsageDate string `json:"usage_date" binding:"required"`
	UsageType string `json:"usage_type" binding:"required,oneof=walk_in special"`
}

func buildStatusResponse(sub *Subscription, plan *Plan) *StatusResponse {
	return &StatusResponse{
		SubscriptionID:             sub.ID.String(),
		PlanID:                     plan.ID,
		PlanName:                   plan.Name,
		Status:                     string(sub.Status),
		PeriodStartDate:            sub.PeriodStartDate.Format("2006-01-02"),
		PeriodEndDate:              sub.PeriodEndDate.Format("2006-01-02"),
		WeekStartDate:              sub.WeekStartDate.Format("2006-01-02"),
		ClassesUsedThisPeriod:      sub.ClassesUsedThisPeriod,
		ClassesRemainingThisPeriod: sub.ClassesRemainingThisPeriod,
		ClassesUsedThisWeek:        sub.ClassesUsedThisWeek,
		ClassesRemainingThisWeek:   sub.ClassesRemainingThisWeek,
	}
}
