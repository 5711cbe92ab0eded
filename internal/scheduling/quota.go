package scheduling

import (
	"time"

	"github.com/yungbote/plantpal-backend/internal/types"
)

// DeliveryStats are the trailing delivery counters the QuotaGuard judges
// against. The caller loads them once per evaluation pass and keeps them
// current as candidates are admitted, under a single serialization point.
type DeliveryStats struct {
	GlobalHour int
	GlobalDay  int
	PlantDay   int
	// Most recent sent/delivered time of the same category for the same
	// plant; nil when there was none.
	LastSameCategory *time.Time
}

type AdmitStatus string

const (
	AdmitAdmitted AdmitStatus = "admitted"
	AdmitDeferred AdmitStatus = "deferred"
	AdmitSkipped  AdmitStatus = "skipped"
)

type AdmitResult struct {
	Status   AdmitStatus
	NextSlot time.Time
	Reason   types.SkipReason
}

// Admit enforces per-hour/per-day delivery limits and the same-category
// cooldown. Urgent candidates bypass the caps but never the cooldown, so one
// misbehaving source can't produce a notification storm.
func Admit(c Candidate, stats DeliveryStats, now time.Time) AdmitResult {
	pol := c.Policy

	if pol.CooldownMinutes > 0 && stats.LastSameCategory != nil {
		readyAt := stats.LastSameCategory.Add(time.Duration(pol.CooldownMinutes) * time.Minute)
		if c.ScheduledFor.Before(readyAt) {
			deadline := c.recurrenceDeadline()
			if !deadline.IsZero() && readyAt.After(deadline) {
				return AdmitResult{Status: AdmitSkipped, Reason: types.SkipLimitReached}
			}
			return AdmitResult{Status: AdmitDeferred, NextSlot: readyAt}
		}
	}

	urgent := c.Priority == types.PriorityUrgent && pol.PriorityDelivery
	if !urgent {
		if pol.MaxPerHour > 0 && stats.GlobalHour >= pol.MaxPerHour {
			return AdmitResult{Status: AdmitSkipped, Reason: types.SkipLimitReached}
		}
		if pol.MaxPerDay > 0 && stats.GlobalDay >= pol.MaxPerDay {
			return AdmitResult{Status: AdmitSkipped, Reason: types.SkipLimitReached}
		}
		if pol.PlantMaxPerDay > 0 && stats.PlantDay >= pol.PlantMaxPerDay {
			return AdmitResult{Status: AdmitSkipped, Reason: types.SkipLimitReached}
		}
	}

	return AdmitResult{Status: AdmitAdmitted}
}
