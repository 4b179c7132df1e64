package model

import "time"

// Card is a kanji flashcard with its SM-2 scheduling state.
type Card struct {
	ID           int       `json:"id"`
	UserID       int       `json:"user_id"`
	Character    string    `json:"character"`
	Meaning      string    `json:"meaning"`
	Onyomi       string    `json:"onyomi"`
	Kunyomi      string    `json:"kunyomi"`
	JLPTLevel    *int      `json:"jlpt_level,omitempty"`
	EaseFactor   float64   `json:"ease_factor"`
	IntervalDays int       `json:"interval_days"`
	Repetitions  int       `json:"repetitions"`
	NextReviewAt time.Time `json:"next_review_at"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// CardPatch only touches content; scheduling fields change through reviews.
type CardPatch struct {
	Character *string `json:"character" binding:"omitnil,notblank,max=8"`
	Meaning   *string `json:"meaning" binding:"omitnil,notblank,max=200"`
	Onyomi    *string `json:"onyomi" binding:"omitempty,max=100"`
	Kunyomi   *string `json:"kunyomi" binding:"omitempty,max=100"`
	JLPTLevel *int    `json:"jlpt_level" binding:"omitnil,min=1,max=5"`
}

type Review struct {
	ID           int       `json:"id"`
	CardID       int       `json:"card_id"`
	Quality      int       `json:"quality"`
	IntervalDays int       `json:"interval_days"`
	EaseFactor   float64   `json:"ease_factor"`
	ReviewedAt   time.Time `json:"reviewed_at"`
}
