package model

import "time"

type Habit struct {
	ID            int       `json:"id"`
	UserID        int       `json:"user_id"`
	Name          string    `json:"name"`
	Description   string    `json:"description"`
	Color         string    `json:"color"`
	TargetPerWeek int       `json:"target_per_week"`
	IsActive      bool      `json:"is_active"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// HabitPatch carries the fields of a partial update; nil means "leave unchanged".
type HabitPatch struct {
	Name          *string `json:"name" binding:"omitnil,notblank,max=100"`
	Description   *string `json:"description" binding:"omitempty,max=500"`
	Color         *string `json:"color" binding:"omitempty,hexcolor,len=7"`
	TargetPerWeek *int    `json:"target_per_week" binding:"omitnil,min=1,max=7"`
	IsActive      *bool   `json:"is_active"`
}

type CheckIn struct {
	ID        int       `json:"id"`
	HabitID   int       `json:"habit_id"`
	CheckedOn time.Time `json:"checked_on"`
	Note      string    `json:"note"`
	CreatedAt time.Time `json:"created_at"`
}

type HabitStats struct {
	HabitID       int        `json:"habit_id"`
	CurrentStreak int        `json:"current_streak"`
	LongestStreak int        `json:"longest_streak"`
	TotalCheckIns int        `json:"total_check_ins"`
	LastCheckedOn *time.Time `json:"last_checked_on,omitempty"`
	CheckedToday  bool       `json:"checked_today"`
}

type HabitWithStats struct {
	Habit
	Stats HabitStats `json:"stats"`
}
