package payment

type PaymentCompletedRequest struct {
	UserID int64   `json:"user_id" binding:"required"`
	PlanID string  `json:"plan_id" binding:"required"`
	Amount float64 `json:"amount" binding:"required,gt=0"`
	PaidAt string  `json:"paid_at,omitempty"` // RFC 3339, defaults to now
}
