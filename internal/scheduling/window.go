package scheduling

import (
	"time"

	"github.com/yungbote/plantpal-backend/internal/types"
)

// Placement is the WindowPlanner outcome: either a concrete delivery time or a
// skip with reason, deferring re-evaluation to the next cadence cycle.
type Placement struct {
	Time    time.Time
	Skipped bool
	Reason  types.SkipReason
}

// Place maps a due timestamp onto an allowed delivery window: shift out of any
// active DND window (plant DND narrows the global allowance), snap to the
// nearest preferred slot, and never schedule before now+advanceNoticeHours.
// Urgent priority (and achievements, when allowed) bypasses suppression.
func Place(dueAt time.Time, pol EffectivePolicy, priority types.Priority, now time.Time, loc *time.Location) Placement {
	if loc == nil {
		loc = time.UTC
	}
	minLead := now.Add(time.Duration(pol.AdvanceNoticeHours) * time.Hour)

	t := dueAt.In(loc)
	if t.Before(minLead) {
		t = minLead.In(loc)
	}

	windows := suppressionWindows(pol)
	bypass := bypassesSuppression(pol, priority)

	if !bypass {
		shifted, ok := shiftOut(t, windows, loc, now)
		if !ok {
			return Placement{Skipped: true, Reason: types.SkipDND}
		}
		t = shifted
	}

	t = snapToPreferred(t, pol, loc)

	// Snapping may have landed back inside a suppression window.
	if !bypass {
		shifted, ok := shiftOut(t, windows, loc, now)
		if !ok {
			return Placement{Skipped: true, Reason: types.SkipDND}
		}
		t = shifted
	}

	if t.Before(minLead) {
		t = minLead.In(loc)
		if !bypass {
			shifted, ok := shiftOut(t, windows, loc, now)
			if !ok {
				return Placement{Skipped: true, Reason: types.SkipDND}
			}
			t = shifted
		}
	}

	return Placement{Time: t}
}

func bypassesSuppression(pol EffectivePolicy, priority types.Priority) bool {
	if priority == types.PriorityUrgent && pol.DNDAllowUrgent {
		return true
	}
	if pol.Category == types.CategoryAchievement && pol.DNDAllowAchievements {
		return true
	}
	return false
}

// suppressionWindows collects every configured quiet/DND interval. The plant
// window is applied alongside the global ones, so it can only narrow the
// allowed hours, never widen them.
func suppressionWindows(pol EffectivePolicy) []clockWindow {
	var out []clockWindow
	for _, w := range []clockWindow{
		newClockWindow(pol.QuietStart, pol.QuietEnd),
		newClockWindow(pol.DNDStart, pol.DNDEnd),
		newClockWindow(pol.PlantDNDStart, pol.PlantDNDEnd),
	} {
		if w.set {
			out = append(out, w)
		}
	}
	return out
}

// shiftOut moves t forward past every suppression window. Returns false when
// no slot opens within the current day and the next (a pathological all-day
// configuration).
func shiftOut(t time.Time, windows []clockWindow, loc *time.Location, now time.Time) (time.Time, bool) {
	horizon := now.Add(48 * time.Hour)
	for i := 0; i < 8; i++ {
		w, inside := containing(windows, t)
		if !inside {
			return t, true
		}
		t = w.endAfter(t, loc)
		if t.After(horizon) {
			return time.Time{}, false
		}
	}
	return time.Time{}, false
}

func containing(windows []clockWindow, t time.Time) (clockWindow, bool) {
	m := minutesOfDay(t)
	for _, w := range windows {
		if w.contains(m) {
			return w, true
		}
	}
	return clockWindow{}, false
}

// snapToPreferred aligns t with the plant's preferred slots: before the
// morning time, move up to it; between morning and evening, move to the
// evening slot when it is the closer of the two; after the evening slot,
// leave as-is.
func snapToPreferred(t time.Time, pol EffectivePolicy, loc *time.Location) time.Time {
	morning, mOK := parseClock(pol.MorningTime)
	evening, eOK := parseClock(pol.EveningTime)
	if !mOK {
		return t
	}
	m := minutesOfDay(t)
	if m < morning {
		return atClock(t, morning, loc)
	}
	if eOK && m > morning && m < evening {
		if evening-m < m-morning {
			return atClock(t, evening, loc)
		}
	}
	return t
}
