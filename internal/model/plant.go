package model

import "time"

type Plant struct {
	ID                   int        `json:"id"`
	UserID               int        `json:"user_id"`
	Name                 string     `json:"name"`
	Species              string     `json:"species"`
	Location             string     `json:"location"`
	WateringIntervalDays int        `json:"watering_interval_days"`
	LastWateredAt        *time.Time `json:"last_watered_at,omitempty"`
	Notes                string     `json:"notes"`
	CreatedAt            time.Time  `json:"created_at"`
	UpdatedAt            time.Time  `json:"updated_at"`
}

type PlantPatch struct {
	Name                 *string `json:"name" binding:"omitnil,notblank,max=100"`
	Species              *string `json:"species" binding:"omitempty,max=100"`
	Location             *string `json:"location" binding:"omitempty,max=100"`
	WateringIntervalDays *int    `json:"watering_interval_days" binding:"omitnil,min=1,max=365"`
	Notes                *string `json:"notes" binding:"omitempty,max=1000"`
}

type PlantStatus struct {
	NextWateringOn time.Time `json:"next_watering_on"`
	NeedsWater     bool      `json:"needs_water"`
	DaysOverdue    int       `json:"days_overdue"`
}

type PlantWithStatus struct {
	Plant
	Status PlantStatus `json:"status"`
}
