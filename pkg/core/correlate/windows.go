// Package correlate selects, across a company's filing history, the set of
// documents that together represent one point-in-time snapshot without
// leaking future information.
package correlate

import (
	"errors"
	"fmt"
	"time"
)

// ErrOrderingViolation reports a window whose start falls after its end. This
// is a hard stop, not a reversal: a backwards window means the caller's date
// math is wrong.
var ErrOrderingViolation = errors.New("window start after end")

// WindowDirection orients a FilingWindow relative to its anchor date.
type WindowDirection string

const (
	DirectionLookback  WindowDirection = "lookback"  // [anchor-N, anchor]
	DirectionLookahead WindowDirection = "lookahead" // [anchor, anchor+N]
	DirectionAround    WindowDirection = "around"    // [anchor-N, anchor+N]
)

// FilingWindow is a time interval with an explicit anchor date, direction,
// length, and inclusivity. Callers must never default any of these
// implicitly; every window in the system is constructed through NewWindow so
// the boundary semantics are visible at the call site.
type FilingWindow struct {
	Anchor    time.Time
	Direction WindowDirection
	Days      int
	Inclusive bool // Both boundary days count as inside the window
}

// NewWindow builds a window and validates its geometry.
func NewWindow(anchor time.Time, direction WindowDirection, days int, inclusive bool) (FilingWindow, error) {
	if days < 0 {
		return FilingWindow{}, fmt.Errorf("%w: negative window length %d", ErrOrderingViolation, days)
	}
	if anchor.IsZero() {
		return FilingWindow{}, fmt.Errorf("window anchor date is zero")
	}
	return FilingWindow{Anchor: anchor, Direction: direction, Days: days, Inclusive: inclusive}, nil
}

// Bounds returns the window's start and end instants.
func (w FilingWindow) Bounds() (time.Time, time.Time) {
	span := time.Duration(w.Days) * 24 * time.Hour
	switch w.Direction {
	case DirectionLookback:
		return w.Anchor.Add(-span), w.Anchor
	case DirectionLookahead:
		return w.Anchor, w.Anchor.Add(span)
	default:
		return w.Anchor.Add(-span), w.Anchor.Add(span)
	}
}

// Contains reports whether t falls inside the window under its declared
// inclusivity.
func (w FilingWindow) Contains(t time.Time) bool {
	start, end := w.Bounds()
	if w.Inclusive {
		return !t.Before(start) && !t.After(end)
	}
	return t.After(start) && t.Before(end)
}
