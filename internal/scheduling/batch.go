package scheduling

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/yungbote/plantpal-backend/internal/types"
)

// CandidateBatch is an ephemeral grouping of ≥2 candidates sharing a category
// and time bucket, delivered as one combined notification whose outcome is
// applied uniformly to every member.
type CandidateBatch struct {
	Category     types.Category
	ScheduledFor time.Time
	Title        string
	Body         string
	Members      []Candidate
}

// Emission is either a single candidate or a batch, never both.
type Emission struct {
	Single *Candidate
	Batch  *CandidateBatch
}

// Aggregate groups batchable candidates whose scheduled times fall within the
// same rolling windowMinutes bucket and share a category. Urgent items and
// candidates from plants with batching off are never batched.
func Aggregate(candidates []Candidate, windowMinutes int) []Emission {
	if windowMinutes <= 0 {
		windowMinutes = 10
	}
	window := time.Duration(windowMinutes) * time.Minute

	var out []Emission
	byCategory := map[types.Category][]Candidate{}

	sorted := make([]Candidate, len(candidates))
	copy(sorted, candidates)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].ScheduledFor.Before(sorted[j].ScheduledFor)
	})

	for i := range sorted {
		c := sorted[i]
		if c.Priority == types.PriorityUrgent || !c.Category.Batchable() || !c.Policy.BatchSimilar {
			single := c
			out = append(out, Emission{Single: &single})
			continue
		}
		byCategory[c.Category] = append(byCategory[c.Category], c)
	}

	for _, group := range byCategory {
		i := 0
		for i < len(group) {
			bucketStart := group[i].ScheduledFor
			j := i + 1
			for j < len(group) && group[j].ScheduledFor.Sub(bucketStart) <= window {
				j++
			}
			members := group[i:j]
			if len(members) < 2 {
				single := members[0]
				out = append(out, Emission{Single: &single})
			} else {
				batch := buildBatch(members)
				out = append(out, Emission{Batch: &batch})
			}
			i = j
		}
	}

	sort.Slice(out, func(i, j int) bool {
		return emissionTime(out[i]).Before(emissionTime(out[j]))
	})
	return out
}

func emissionTime(e Emission) time.Time {
	if e.Batch != nil {
		return e.Batch.ScheduledFor
	}
	return e.Single.ScheduledFor
}

func buildBatch(members []Candidate) CandidateBatch {
	names := make([]string, 0, len(members))
	for _, m := range members {
		name := m.PlantName
		if name == "" {
			name = "a plant"
		}
		names = append(names, name)
	}
	category := members[0].Category
	return CandidateBatch{
		Category:     category,
		ScheduledFor: members[0].ScheduledFor,
		Title:        fmt.Sprintf("%s due for %d plants", categoryLabel(category), len(members)),
		Body:         strings.Join(names, ", "),
		Members:      members,
	}
}

func categoryLabel(c types.Category) string {
	switch c {
	case types.CategoryWatering:
		return "Watering"
	case types.CategoryFertilizer:
		return "Fertilizing"
	case types.CategoryHealthCheck:
		return "Health check"
	}
	return "Care"
}
