package schedule

import (
	"time"
)

const defaultSlotDurationMinutes = 60

// SlotDef is one generated slot definition. Generation is pure: the same
// window always yields the same definitions, and nothing is written here.
type SlotDef struct {
	Start          time.Time
	End            time.Time
	Capacity       int
	IsIntermediate bool
}

// DayWindow is the resolved bookable window for one concrete date, derived
// either from the weekday config or from an exception that overrides it.
type DayWindow struct {
	Open                 time.Time
	Close                time.Time
	Capacity             int
	DurationMinutes      int
	AllowIntermediate    bool
	IntermediateCapacity int
}

// WindowForDate resolves the config's wall-clock times against a concrete
// date. ok is false when the window is empty or malformed.
func (c *ScheduleConfig) WindowForDate(date time.Time) (DayWindow, bool) {
	open, okOpen := atClock(date, c.OpenTime)
	close, okClose := atClock(date, c.CloseTime)
	if !okOpen || !okClose || !close.After(open) {
		return DayWindow{}, false
	}

	duration := c.SlotDurationMinutes
	if duration <= 0 {
		duration = defaultSlotDurationMinutes
	}

	return DayWindow{
		Open:                 open,
		Close:                close,
		Capacity:             c.Capacity,
		DurationMinutes:      duration,
		AllowIntermediate:    c.AllowIntermediateSlots,
		IntermediateCapacity: c.IntermediateCapacity,
	}, true
}

// WindowForDate resolves an exception to a window on its date, using the base
// config for anything the exception does not override. ok is false for
// closed days and degenerate windows.
func (e *ScheduleException) WindowForDate(base DayWindow) (DayWindow, bool) {
	if e.Closed {
		return DayWindow{}, false
	}

	w := base
	if e.OpenTime != "" {
		if open, ok := atClock(e.Date, e.OpenTime); ok {
			w.Open = open
		}
	}
	if e.CloseTime != "" {
		if close, ok := atClock(e.Date, e.CloseTime); ok {
			w.Close = close
		}
	}
	if e.Capacity > 0 {
		w.Capacity = e.Capacity
	}
	if !w.Close.After(w.Open) {
		return DayWindow{}, false
	}
	return w, true
}

// BuildDaySlots steps a cursor from window open to close in fixed-duration
// increments, clipping the final slot to the close boundary. When
// intermediate slots are enabled a second pass emits overlapping slots
// offset by half the primary duration.
func BuildDaySlots(w DayWindow) []SlotDef {
	step := time.Duration(w.DurationMinutes) * time.Minute
	defs := buildSeries(w.Open, w.Close, step, w.Capacity, false)

	if w.AllowIntermediate {
		capacity := w.IntermediateCapacity
		if capacity <= 0 {
			capacity = w.Capacity
		}
		offset := step / 2
		defs = append(defs, buildSeries(w.Open.Add(offset), w.Close, step, capacity, true)...)
	}

	return defs
}

func buildSeries(open, close time.Time, step time.Duration, capacity int, intermediate bool) []SlotDef {
	var defs []SlotDef
	for cursor := open; cursor.Before(close); cursor = cursor.Add(step) {
		end := cursor.Add(step)
		if end.After(close) {
			end = close
		}
		if !end.After(cursor) {
			break
		}
		defs = append(defs, SlotDef{
			Start:          cursor,
			End:            end,
			Capacity:       capacity,
			IsIntermediate: intermediate,
		})
	}
	return defs
}

// DatesBetween yields every calendar date in [from, to] normalized to
// midnight UTC. The write side iterates this sequence instead of stepping
// its own mutable cursor.
func DatesBetween(from, to time.Time) []time.Time {
	start := DateOnly(from)
	end := DateOnly(to)

	var dates []time.Time
	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		dates = append(dates, d)
	}
	return dates
}

// DateOnly truncates a timestamp to its UTC calendar date.
func DateOnly(t time.Time) time.Time {
	t = t.UTC()
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// atClock combines a date with a "15:04" wall-clock string.
func atClock(date time.Time, clock string) (time.Time, bool) {
	parsed, err := time.Parse("15:04", clock)
	if err != nil {
		return time.Time{}, false
	}
	date = DateOnly(date)
	return time.Date(date.Year(), date.Month(), date.Day(), parsed.Hour(), parsed.Minute(), 0, 0, time.UTC), true
}
