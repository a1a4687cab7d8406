package schedule

import (
	"context"
	"time"
)

// ExceptionReport tells the caller exactly what applying an exception did to
// the date's already-generated slots, including which slots were left alone
// because they carry reservations.
type ExceptionReport struct {
	Date           string  `json:"date"`
	DeletedSlots   int     `json:"deleted_slots"`
	UpdatedSlots   int     `json:"updated_slots"`
	SkippedSlots   int     `json:"skipped_slots"`
	SkippedSlotIDs []int64 `json:"skipped_slot_ids,omitempty"`
}

// GenerateReport summarizes a slot generation run.
type GenerateReport struct {
	From         string `json:"from"`
	To           string `json:"to"`
	CreatedSlots int    `json:"created_slots"`
}

type Service struct {
	repo Repository
}

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// GenerateSlots materializes slots for every date in [from, to]. Per date the
// active exception wins over the weekday config; days without either produce
// nothing. Existing slots are left untouched, so the operation is idempotent.
func (s *Service) GenerateSlots(ctx context.Context, companyID int64, from, to time.Time) (*GenerateReport, error) {
	if to.Before(from) {
		return nil, ErrValidation
	}

	configs, err := s.repo.ActiveConfigs(ctx, companyID)
	if err != nil {
		return nil, err
	}
	if len(configs) == 0 {
		return nil, ErrConfigurationMissing
	}

	byWeekday := make(map[int]*ScheduleConfig, len(configs))
	for i := range configs {
		cfg := &configs[i]
		byWeekday[cfg.DayOfWeek] = cfg
	}

	var pending []Slot
	for _, date := range DatesBetween(from, to) {
		window, ok, err := s.resolveWindow(ctx, companyID, byWeekday, date)
		if err != nil {
			return nil, err
		}
		if !ok {
			continue
		}
		for _, def := range BuildDaySlots(window) {
			pending = append(pending, Slot{
				CompanyID:      companyID,
				Date:           date,
				StartTime:      def.Start,
				EndTime:        def.End,
				Capacity:       def.Capacity,
				IsIntermediate: def.IsIntermediate,
			})
		}
	}

	created, err := s.repo.InsertMissingSlots(ctx, pending)
	if err != nil {
		return nil, err
	}

	return &GenerateReport{
		From:         DateOnly(from).Format("2006-01-02"),
		To:           DateOnly(to).Format("2006-01-02"),
		CreatedSlots: created,
	}, nil
}

func (s *Service) resolveWindow(ctx context.Context, companyID int64, byWeekday map[int]*ScheduleConfig, date time.Time) (DayWindow, bool, error) {
	cfg := byWeekday[int(date.Weekday())]

	exc, err := s.repo.ActiveExceptionForDate(ctx, companyID, date)
	if err != nil {
		return DayWindow{}, false, err
	}

	if exc == nil {
		if cfg == nil {
			return DayWindow{}, false, nil
		}
		window, ok := cfg.WindowForDate(date)
		return window, ok, nil
	}

	var base DayWindow
	if cfg != nil {
		if w, ok := cfg.WindowForDate(date); ok {
			base = w
		}
	}
	window, ok := exc.WindowForDate(base)
	return window, ok, nil
}

// CreateException stores the exception and immediately applies it to the
// date's existing slots, returning the mutation report.
func (s *Service) CreateException(ctx context.Context, exc *ScheduleException) (*ExceptionReport, error) {
	if exc.CompanyID == 0 || exc.Date.IsZero() {
		return nil, ErrValidation
	}
	exc.IsActive = true
	if err := s.repo.CreateException(ctx, exc); err != nil {
		return nil, err
	}
	return s.ApplyException(ctx, exc.CompanyID, exc)
}

// ApplyException mutates the date's already-generated slots to match the
// exception. Slots carrying reservations are never deleted or shrunk below
// their reserved count; they are reported as skipped instead.
func (s *Service) ApplyException(ctx context.Context, companyID int64, exc *ScheduleException) (*ExceptionReport, error) {
	slots, err := s.repo.SlotsForDate(ctx, companyID, exc.Date)
	if err != nil {
		return nil, err
	}

	report := &ExceptionReport{Date: DateOnly(exc.Date).Format("2006-01-02")}

	if exc.Closed {
		for _, slot := range slots {
			if slot.ReservedCount > 0 {
				report.SkippedSlots++
				report.SkippedSlotIDs = append(report.SkippedSlotIDs, slot.ID)
				continue
			}
			if err := s.repo.DeleteSlot(ctx, slot.ID); err != nil {
				return nil, err
			}
			report.DeletedSlots++
		}
		return report, nil
	}

	windowOpen, windowClose, hasWindow := exc.allowedWindow()

	for _, slot := range slots {
		newStart, newEnd := slot.StartTime, slot.EndTime

		if hasWindow {
			start := maxTime(slot.StartTime, windowOpen)
			end := minTime(slot.EndTime, windowClose)

			// A degenerate intersection means the slot lies entirely
			// outside the allowed window.
			if !end.After(start) {
				if slot.ReservedCount > 0 {
					report.SkippedSlots++
					report.SkippedSlotIDs = append(report.SkippedSlotIDs, slot.ID)
					continue
				}
				if err := s.repo.DeleteSlot(ctx, slot.ID); err != nil {
					return nil, err
				}
				report.DeletedSlots++
				continue
			}
			newStart, newEnd = start, end
		}

		resize := exc.Capacity > 0 && exc.Capacity != slot.Capacity

		// Feasibility first: an infeasible capacity skips the slot before
		// any of its fields are touched.
		if resize && slot.ReservedCount > exc.Capacity {
			report.SkippedSlots++
			report.SkippedSlotIDs = append(report.SkippedSlotIDs, slot.ID)
			continue
		}

		updated := false
		if !newStart.Equal(slot.StartTime) || !newEnd.Equal(slot.EndTime) {
			if err := s.repo.UpdateSlotWindow(ctx, slot.ID, newStart, newEnd); err != nil {
				return nil, err
			}
			updated = true
		}
		if resize {
			if err := s.repo.UpdateSlotCapacity(ctx, slot.ID, exc.Capacity); err != nil {
				return nil, err
			}
			updated = true
		}

		if updated {
			report.UpdatedSlots++
		}
	}

	return report, nil
}

// RemoveException deletes the exception and regenerates the date's slots from
// the base weekday config. The regeneration is destructive, so any
// reservation on the date blocks the whole operation.
func (s *Service) RemoveException(ctx context.Context, companyID, exceptionID int64) error {
	exc, err := s.repo.GetExceptionByID(ctx, exceptionID)
	if err != nil {
		return err
	}
	if exc.CompanyID != companyID {
		return ErrExceptionNotFound
	}

	slots, err := s.repo.SlotsForDate(ctx, companyID, exc.Date)
	if err != nil {
		return err
	}
	for _, slot := range slots {
		if slot.ReservedCount > 0 {
			return ErrHasActiveReservations
		}
	}

	for _, slot := range slots {
		if err := s.repo.DeleteSlot(ctx, slot.ID); err != nil {
			return err
		}
	}
	if err := s.repo.DeleteException(ctx, exceptionID); err != nil {
		return err
	}

	configs, err := s.repo.ActiveConfigs(ctx, companyID)
	if err != nil {
		return err
	}
	for i := range configs {
		cfg := &configs[i]
		if cfg.DayOfWeek != int(exc.Date.Weekday()) {
			continue
		}
		window, ok := cfg.WindowForDate(exc.Date)
		if !ok {
			return nil
		}
		var pending []Slot
		for _, def := range BuildDaySlots(window) {
			pending = append(pending, Slot{
				CompanyID:      companyID,
				Date:           DateOnly(exc.Date),
				StartTime:      def.Start,
				EndTime:        def.End,
				Capacity:       def.Capacity,
				IsIntermediate: def.IsIntermediate,
			})
		}
		_, err = s.repo.InsertMissingSlots(ctx, pending)
		return err
	}
	return nil
}

// SaveConfig creates or updates the weekday configuration row.
func (s *Service) SaveConfig(ctx context.Context, cfg *ScheduleConfig) error {
	if cfg.CompanyID == 0 || cfg.DayOfWeek < 0 || cfg.DayOfWeek > 6 || cfg.Capacity <= 0 {
		return ErrValidation
	}
	if _, ok := atClock(time.Now(), cfg.OpenTime); !ok {
		return ErrValidation
	}
	if _, ok := atClock(time.Now(), cfg.CloseTime); !ok {
		return ErrValidation
	}
	if cfg.SlotDurationMinutes <= 0 {
		cfg.SlotDurationMinutes = defaultSlotDurationMinutes
	}
	return s.repo.SaveConfig(ctx, cfg)
}

func (s *Service) ListConfigs(ctx context.Context, companyID int64) ([]ScheduleConfig, error) {
	return s.repo.ListConfigs(ctx, companyID)
}

func (s *Service) ListSlots(ctx context.Context, companyID int64, from, to time.Time) ([]Slot, error) {
	if to.Before(from) {
		return nil, ErrValidation
	}
	return s.repo.SlotsInRange(ctx, companyID, from, to)
}

func (e *ScheduleException) allowedWindow() (time.Time, time.Time, bool) {
	if e.OpenTime == "" || e.CloseTime == "" {
		return time.Time{}, time.Time{}, false
	}
	open, okOpen := atClock(e.Date, e.OpenTime)
	close, okClose := atClock(e.Date, e.CloseTime)
	if !okOpen || !okClose {
		return time.Time{}, time.Time{}, false
	}
	return open, close, true
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
