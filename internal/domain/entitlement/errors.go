package entitlement

import "errors"

var (
	ErrSubscriptionNotFound = errors.New("no active subscription")
	ErrPlanNotFound         = errors.New("plan not found")
	ErrUsageNotFound        = errors.New("class usage entry not found")
	ErrSuspensionOverlap    = errors.New("suspension overlaps an existing suspension")
	ErrValidation           = errors.New("validation error")

	// ErrQuotaViolation means a counter would have gone negative or past its
	// allowance. It signals ledger corruption, never user error.
	ErrQuotaViolation = errors.New("entitlement counter inconsistency")
)
