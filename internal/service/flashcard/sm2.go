// Package flashcard implements SM-2 spaced-repetition scheduling for kanji cards.
package flashcard

import (
	"errors"
	"math"
	"time"
)

const (
	DefaultEaseFactor = 2.5
	MinEaseFactor     = 1.3
	MaxQuality        = 5
)

var ErrInvalidQuality = errors.New("quality must be between 0 and 5")

// Schedule is the SM-2 state stored on a card.
type Schedule struct {
	EaseFactor   float64
	IntervalDays int
	Repetitions  int
}

// Initial is the state of a card that was never reviewed.
func Initial() Schedule {
	return Schedule{EaseFactor: DefaultEaseFactor}
}

// Next applies one review of the given quality.
func Next(s Schedule, quality int) (Schedule, error) {
	if quality < 0 || quality > MaxQuality {
		return s, ErrInvalidQuality
	}
	ef := s.EaseFactor
	if ef < MinEaseFactor {
		ef = DefaultEaseFactor
	}

	next := Schedule{}
	if quality < 3 {
		next.Repetitions = 0
		next.IntervalDays = 1
	} else {
		switch s.Repetitions {
		case 0:
			next.IntervalDays = 1
		case 1:
			next.IntervalDays = 6
		default:
			next.IntervalDays = int(math.Round(float64(s.IntervalDays) * ef))
		}
		next.Repetitions = s.Repetitions + 1
	}

	// EF' = EF + (0.1 - (5-q)*(0.08 + (5-q)*0.02))
	d := float64(MaxQuality - quality)
	ef += 0.1 - d*(0.08+d*0.02)
	// 保留两位小数，避免浮点误差累积
	ef = math.Round(ef*100) / 100
	next.EaseFactor = max(ef, MinEaseFactor)
	return next, nil
}

// DueAt is the next review time after a review at reviewedAt.
func DueAt(reviewedAt time.Time, s Schedule) time.Time {
	return reviewedAt.AddDate(0, 0, s.IntervalDays)
}
