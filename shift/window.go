// Package shift computes the wall-clock windows of attendant shifts.
package shift

import (
	"errors"
	"strings"
	"time"
)

type TimeOfDay string

const (
	Morning TimeOfDay = "morning"
	Evening TimeOfDay = "evening"
)

// Both shifts turn over at 06:30 and 18:30.
const (
	turnoverHour   = 6
	turnoverMinute = 30
	eveningHour    = 18
)

var ErrInvalidShiftTimeOfDay = errors.New("invalid shift time of day")

// Window is the half-open interval [Start, End).
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

func (w Window) Duration() time.Duration { return w.End.Sub(w.Start) }

func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && t.Before(w.End)
}

// ComputeWindow returns the shift window anchored on the calendar date of ref,
// read in ref's location. The clock part of ref is ignored.
func ComputeWindow(tod TimeOfDay, ref time.Time) (Window, error) {
	y, m, d := ref.Date()
	loc := ref.Location()

	switch tod {
	case Morning:
		return Window{
			Start: time.Date(y, m, d, turnoverHour, turnoverMinute, 0, 0, loc),
			End:   time.Date(y, m, d, eveningHour, turnoverMinute, 0, 0, loc),
		}, nil
	case Evening:
		// time.Date normalises d+1 across month and year ends.
		return Window{
			Start: time.Date(y, m, d, eveningHour, turnoverMinute, 0, 0, loc),
			End:   time.Date(y, m, d+1, turnoverHour, turnoverMinute, 0, 0, loc),
		}, nil
	default:
		return Window{}, ErrInvalidShiftTimeOfDay
	}
}

// ParseTimeOfDay accepts "morning"/"evening" in any case. An empty string is
// invalid; callers that want the morning fallback apply it themselves.
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	switch tod := TimeOfDay(strings.ToLower(strings.TrimSpace(s))); tod {
	case Morning, Evening:
		return tod, nil
	default:
		return "", ErrInvalidShiftTimeOfDay
	}
}

// Label is the human readable form used on reports.
func (t TimeOfDay) Label() string {
	switch t {
	case Morning:
		return "Morning (6:30am-18:30pm)"
	case Evening:
		return "Evening (18:30pm-6:30am)"
	default:
		return string(t)
	}
}
