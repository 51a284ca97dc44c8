package ledger

import (
	"time"

	"utang-ledger/internal/domain"
)

// Window is an inclusive calendar-date range. A nil bound is open.
type Window struct {
	From *time.Time
	To   *time.Time
}

// Unbounded is the window that contains every date.
var Unbounded = Window{}

// NewWindow builds a window from optional YYYY-MM-DD strings. Empty strings leave the bound open.
func NewWindow(from, to string) (Window, error) {
	var w Window
	if from != "" {
		t, err := time.Parse(domain.DateLayout, from)
		if err != nil {
			return Window{}, err
		}
		w.From = &t
	}
	if to != "" {
		t, err := time.Parse(domain.DateLayout, to)
		if err != nil {
			return Window{}, err
		}
		w.To = &t
	}
	return w, nil
}

func (w Window) IsUnbounded() bool {
	return w.From == nil && w.To == nil
}

// Contains reports whether the stored date falls inside the window.
// A date that does not parse is treated as unbounded and is always contained;
// the second result is false in that case so callers can report it.
func (w Window) Contains(date string) (in bool, parsed bool) {
	t, ok := domain.ParseDate(date)
	if !ok {
		return true, false
	}
	return w.containsTime(t), true
}

func (w Window) containsTime(t time.Time) bool {
	if w.From != nil && t.Before(dateOnly(*w.From)) {
		return false
	}
	if w.To != nil && t.After(dateOnly(*w.To)) {
		return false
	}
	return true
}

func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
