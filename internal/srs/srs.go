package srs

import (
	"math"
	"time"
)

// Default and bound values for a schedule. Ease factors are tracked in
// hundredths, the precision the store keeps them at.
const (
	DefaultEaseFactor   = 2.50
	DefaultIntervalDays = 1
	MinEaseFactor       = 1.3

	minEaseCents     = 130
	correctBonus     = 10 // +0.1
	incorrectPenalty = 20 // -0.2
)

// Schedule is the review state of a single flashcard.
type Schedule struct {
	LastReviewedAt  time.Time
	NextReviewAt    time.Time
	EaseFactor      float64
	IntervalDays    int
	RepetitionCount int
}

// NewSchedule returns the state of a flashcard that has never been reviewed.
func NewSchedule() Schedule {
	return Schedule{
		EaseFactor:   DefaultEaseFactor,
		IntervalDays: DefaultIntervalDays,
	}
}

// IsDue reports whether the card should be reviewed at now.
// A card that was never scheduled is always due.
func (s Schedule) IsDue(now time.Time) bool {
	return s.NextReviewAt.IsZero() || !now.Before(s.NextReviewAt)
}

// Apply updates the schedule with the outcome of one review.
func Apply(prior Schedule, correct bool, now time.Time) Schedule {
	if correct {
		return ApplyCorrect(prior, now)
	}
	return ApplyIncorrect(prior, now)
}

// ApplyCorrect grows the ease factor by 0.1 and multiplies the interval by it,
// rounding up to whole days.
func ApplyCorrect(prior Schedule, now time.Time) Schedule {
	cents := max(minEaseCents, easeCents(prior.EaseFactor)+correctBonus)
	interval := ceilDiv(max(prior.IntervalDays, DefaultIntervalDays)*cents, 100)

	return Schedule{
		LastReviewedAt:  now,
		NextReviewAt:    now.AddDate(0, 0, interval),
		EaseFactor:      float64(cents) / 100,
		IntervalDays:    interval,
		RepetitionCount: prior.RepetitionCount + 1,
	}
}

// ApplyIncorrect lowers the ease factor by 0.2 and resets the interval to one day.
func ApplyIncorrect(prior Schedule, now time.Time) Schedule {
	cents := max(minEaseCents, easeCents(prior.EaseFactor)-incorrectPenalty)

	return Schedule{
		LastReviewedAt:  now,
		NextReviewAt:    now.AddDate(0, 0, DefaultIntervalDays),
		EaseFactor:      float64(cents) / 100,
		IntervalDays:    DefaultIntervalDays,
		RepetitionCount: prior.RepetitionCount + 1,
	}
}

func easeCents(ease float64) int {
	return int(math.Round(ease * 100))
}

func ceilDiv(a, b int) int {
	return (a + b - 1) / b
}
