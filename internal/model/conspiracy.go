package model

import "time"

type Assessment struct {
	ID        int       `json:"id"`
	UserID    int       `json:"user_id"`
	Answers   []int     `json:"answers"`
	Total     int       `json:"total"`
	Score     int       `json:"score"`
	Level     string    `json:"level"`
	CreatedAt time.Time `json:"created_at"`
}
