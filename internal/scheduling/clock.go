package scheduling

import (
	"strconv"
	"strings"
	"time"
)

// parseClock parses an "HH:MM" wall-clock string into minutes since midnight.
func parseClock(s string) (int, bool) {
	parts := strings.Split(strings.TrimSpace(s), ":")
	if len(parts) != 2 {
		return 0, false
	}
	h, err := strconv.Atoi(parts[0])
	if err != nil || h < 0 || h > 23 {
		return 0, false
	}
	m, err := strconv.Atoi(parts[1])
	if err != nil || m < 0 || m > 59 {
		return 0, false
	}
	return h*60 + m, true
}

func minutesOfDay(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}

// atClock returns the same calendar day as t with the wall clock set to the
// given minutes since midnight.
func atClock(t time.Time, minutes int, loc *time.Location) time.Time {
	y, mo, d := t.In(loc).Date()
	return time.Date(y, mo, d, minutes/60, minutes%60, 0, 0, loc)
}

// clockWindow is a wall-clock interval that may wrap midnight. Zero value
// means "no window".
type clockWindow struct {
	start int
	end   int
	set   bool
}

func newClockWindow(start, end string) clockWindow {
	s, okS := parseClock(start)
	e, okE := parseClock(end)
	if !okS || !okE {
		return clockWindow{}
	}
	return clockWindow{start: s, end: e, set: true}
}

// contains reports whether the wall-clock minute m falls inside the window.
// A window whose end precedes its start wraps past midnight. start == end is
// treated as all-day.
func (w clockWindow) contains(m int) bool {
	if !w.set {
		return false
	}
	if w.start == w.end {
		return true
	}
	if w.start < w.end {
		return m >= w.start && m < w.end
	}
	return m >= w.start || m < w.end
}

// endAfter returns the instant the window releases t: the window end on the
// same day, or the next day when the window wraps past midnight.
func (w clockWindow) endAfter(t time.Time, loc *time.Location) time.Time {
	end := atClock(t, w.end, loc)
	if !end.After(t) {
		end = end.Add(24 * time.Hour)
	}
	return end
}
