package reservation

import "errors"

var (
	ErrReservationNotFound = errors.New("reservation not found")
	ErrPastSlot            = errors.New("slot start time has already passed")
	ErrCannotBook          = errors.New("entitlement does not allow booking")
	ErrDuplicate           = errors.New("already booked on this slot")
	ErrCutoffExceeded      = errors.New("cancellation cutoff exceeded")
	ErrForbidden           = errors.New("not the owner of this reservation")
	ErrRuleNotFound        = errors.New("recurring rule not found")
	ErrRuleNotActive       = errors.New("recurring rule is not active")
	ErrValidation          = errors.New("validation error")
)
