// Package plant derives watering schedules.
package plant

import (
	"time"

	"sampleapps/internal/model"
)

// Status computes when p should next be watered, relative to now in loc.
// A plant that was never watered counts from its creation date.
func Status(p model.Plant, now time.Time, loc *time.Location) model.PlantStatus {
	base := p.CreatedAt
	if p.LastWateredAt != nil {
		base = *p.LastWateredAt
	}
	interval := max(p.WateringIntervalDays, 1)
	next := model.Day(base, loc).AddDate(0, 0, interval)
	today := model.Day(now, loc)

	st := model.PlantStatus{
		NextWateringOn: next,
		NeedsWater:     !next.After(today),
	}
	if today.After(next) {
		st.DaysOverdue = int(today.Sub(next).Hours() / 24)
	}
	return st
}

// WithStatus attaches Status to every plant.
func WithStatus(plants []model.Plant, now time.Time, loc *time.Location) []model.PlantWithStatus {
	out := make([]model.PlantWithStatus, 0, len(plants))
	for _, p := range plants {
		out = append(out, model.PlantWithStatus{Plant: p, Status: Status(p, now, loc)})
	}
	return out
}

// Thirsty keeps plants that need water, most overdue first.
func Thirsty(plants []model.Plant, now time.Time, loc *time.Location) []model.PlantWithStatus {
	var out []model.PlantWithStatus
	for _, p := range WithStatus(plants, now, loc) {
		if p.Status.NeedsWater {
			out = append(out, p)
		}
	}
	sortByOverdue(out)
	return out
}
