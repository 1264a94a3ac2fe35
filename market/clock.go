package market

import (
	"fmt"
	"time"
)

// Clock supplies the current time. The engine never calls time.Now directly
// so tests can drive the trading window and cache expiry deterministically.
type Clock interface {
	Now() time.Time
}

// SystemClock reports wall-clock time in a fixed location.
type SystemClock struct {
	Loc *time.Location
}

func (c SystemClock) Now() time.Time {
	loc := c.Loc
	if loc == nil {
		loc = time.UTC
	}
	return time.Now().In(loc)
}

// FixedClock always reports the same instant. Test helper.
type FixedClock struct {
	T time.Time
}

func (c FixedClock) Now() time.Time { return c.T }

// Window is the intraday span during which new trades may be gated through.
// The NSE session runs 9:15-15:30; the active window defaults to 9:30-15:15
// to sit out the volatile first and last fifteen minutes.
type Window struct {
	OpenHour, OpenMinute   int
	CloseHour, CloseMinute int
	Loc                    *time.Location
}

// DefaultWindow returns the 9:30-15:15 IST active window.
func DefaultWindow() Window {
	return Window{
		OpenHour: 9, OpenMinute: 30,
		CloseHour: 15, CloseMinute: 15,
		Loc: IST(),
	}
}

// IST returns the Asia/Kolkata location, falling back to a fixed +05:30 zone
// when the tz database is unavailable.
func IST() *time.Location {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		return time.FixedZone("IST", (5*60+30)*60)
	}
	return loc
}

// Active reports whether t falls inside the window, bounds inclusive.
func (w Window) Active(t time.Time) bool {
	loc := w.Loc
	if loc == nil {
		loc = time.UTC
	}
	lt := t.In(loc)
	minutes := lt.Hour()*60 + lt.Minute()
	return minutes >= w.OpenHour*60+w.OpenMinute && minutes <= w.CloseHour*60+w.CloseMinute
}

func (w Window) String() string {
	return fmt.Sprintf("%02d:%02d-%02d:%02d", w.OpenHour, w.OpenMinute, w.CloseHour, w.CloseMinute)
}

// ParseWindow builds a Window from "HH:MM" open/close strings and a tz name.
// Empty tz means Asia/Kolkata.
func ParseWindow(open, close, tz string) (Window, error) {
	w := Window{}

	var err error
	if w.OpenHour, w.OpenMinute, err = parseHHMM(open); err != nil {
		return Window{}, fmt.Errorf("window open: %w", err)
	}
	if w.CloseHour, w.CloseMinute, err = parseHHMM(close); err != nil {
		return Window{}, fmt.Errorf("window close: %w", err)
	}
	if w.OpenHour*60+w.OpenMinute >= w.CloseHour*60+w.CloseMinute {
		return Window{}, fmt.Errorf("window open %s must precede close %s", open, close)
	}

	if tz == "" {
		w.Loc = IST()
		return w, nil
	}
	loc, err := time.LoadLocation(tz)
	if err != nil {
		return Window{}, fmt.Errorf("window timezone: %w", err)
	}
	w.Loc = loc
	return w, nil
}

func parseHHMM(s string) (int, int, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, 0, fmt.Errorf("%q is not HH:MM", s)
	}
	return t.Hour(), t.Minute(), nil
}
