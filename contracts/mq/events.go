package mq

import (
	"context"
	"time"

	"github.com/google/uuid"

	"sampleapps/pkg/trace"
)

// Routing keys published through the outbox.
const (
	RoutingHabitCheckedIn      = "habit.checked_in"
	RoutingHabitCheckInRemoved = "habit.check_in_removed"
	RoutingCardReviewed        = "card.reviewed"
	RoutingExpenseCreated      = "expense.created"
	RoutingPlantWatered        = "plant.watered"
)

// EventMeta is embedded in every payload.
type EventMeta struct {
	EventID    string    `json:"event_id"`
	TraceID    string    `json:"trace_id,omitempty"`
	UserID     int       `json:"user_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

func NewEventMeta(ctx context.Context, userID int, at time.Time) EventMeta {
	return EventMeta{
		EventID:    uuid.NewString(),
		TraceID:    trace.FromContext(ctx),
		UserID:     userID,
		OccurredAt: at.UTC(),
	}
}

type HabitCheckInPayload struct {
	EventMeta
	HabitID   int    `json:"habit_id"`
	HabitName string `json:"habit_name"`
	CheckedOn string `json:"checked_on"` // YYYY-MM-DD
}

type CardReviewedPayload struct {
	EventMeta
	CardID       int     `json:"card_id"`
	Character    string  `json:"character"`
	Quality      int     `json:"quality"`
	IntervalDays int     `json:"interval_days"`
	EaseFactor   float64 `json:"ease_factor"`
}

type ExpenseCreatedPayload struct {
	EventMeta
	ExpenseID   int    `json:"expense_id"`
	Category    string `json:"category"`
	AmountCents int64  `json:"amount_cents"`
	Month       string `json:"month"` // YYYY-MM
}

type PlantWateredPayload struct {
	EventMeta
	PlantID int    `json:"plant_id"`
	Name    string `json:"name"`
}
