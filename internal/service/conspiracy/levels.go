// Package conspiracy buckets questionnaire scores into named levels.
package conspiracy

import (
	"errors"
	"fmt"
)

const (
	MaxAnswerPoints = 10
	MaxAnswers      = 20
	MaxScore        = 100
)

var (
	ErrNegativeScore  = errors.New("score must not be negative")
	ErrNoAnswers      = errors.New("at least one answer is required")
	ErrTooManyAnswers = fmt.Errorf("at most %d answers are allowed", MaxAnswers)
	ErrAnswerRange    = fmt.Errorf("each answer must be between 0 and %d", MaxAnswerPoints)
)

type Level struct {
	Min         int    `json:"min"`
	Max         int    `json:"max"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// levels 按分数升序排列，区间连续不重叠
var levels = []Level{
	{0, 20, "Skeptic", "Demands evidence for everything."},
	{21, 40, "Curious Observer", "Reads the threads, rarely posts."},
	{41, 60, "Questioner", "Suspects the official story is incomplete."},
	{61, 80, "True Believer", "Connects dots others cannot see."},
	{81, 100, "Tinfoil Hat", "Has already lined the hat."},
}

// Levels returns a copy of the level table.
func Levels() []Level {
	out := make([]Level, len(levels))
	copy(out, levels)
	return out
}

// Classify scans the table for the level containing score.
// Anything above the last range is clamped to the top level.
func Classify(score int) (Level, error) {
	if score < 0 {
		return Level{}, ErrNegativeScore
	}
	for _, l := range levels {
		if score >= l.Min && score <= l.Max {
			return l, nil
		}
	}
	return levels[len(levels)-1], nil
}

// Score sums the answers and normalizes the total to 0..100.
func Score(answers []int) (total, score int, err error) {
	if len(answers) == 0 {
		return 0, 0, ErrNoAnswers
	}
	if len(answers) > MaxAnswers {
		return 0, 0, ErrTooManyAnswers
	}
	for _, a := range answers {
		if a < 0 || a > MaxAnswerPoints {
			return 0, 0, ErrAnswerRange
		}
		total += a
	}
	score = total * MaxScore / (MaxAnswerPoints * len(answers))
	return total, score, nil
}
