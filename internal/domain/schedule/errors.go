package schedule

import "errors"

var (
	ErrConfigurationMissing  = errors.New("no active schedule configuration for company")
	ErrSlotNotFound          = errors.New("slot not found")
	ErrSlotFull              = errors.New("slot is at capacity")
	ErrExceptionNotFound     = errors.New("schedule exception not found")
	ErrHasActiveReservations = errors.New("slot mutation blocked by existing reservations")
	ErrValidation            = errors.New("validation error")
)
