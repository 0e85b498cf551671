// Package srs implements the SM-2 spaced repetition algorithm: given a
// recall-quality rating 1..5 and the card's current interval and ease
// factor, it computes the next review interval and ease factor.
//
// The function is pure and deterministic; callers depend on the exact
// classic interval sequence (1 → 6 → 16 → interval×ease).
package srs

import (
	"fmt"
	"math"

	"github.com/mkdmitry/flashka/internal/domain"
)

// Defaults for a card's first review (no prior session).
const (
	DefaultIntervalDays = 1
	DefaultEaseFactor   = 2.5
)

// MinEaseFactor is the floor enforced by the update formula.
const MinEaseFactor = 1.3

// Schedule is the outcome of one review: the next interval and ease factor.
type Schedule struct {
	IntervalDays int
	EaseFactor   float64
}

// Compute applies SM-2 to one review outcome.
//
// quality < 3 (poor recall) resets the interval to 1 day and leaves the
// ease factor unchanged. Otherwise the first two successful intervals are
// fixed at 6 and 16 days, after which the interval grows by the ease
// factor, and the ease factor is adjusted by the standard SM-2 formula
// with a floor of 1.3.
func Compute(quality, intervalDays int, easeFactor float64) (Schedule, error) {
	if quality < 1 || quality > 5 {
		return Schedule{}, fmt.Errorf("%w: quality %d out of range 1..5", domain.ErrValidation, quality)
	}
	if intervalDays < 1 {
		intervalDays = DefaultIntervalDays
	}
	if easeFactor < MinEaseFactor {
		easeFactor = MinEaseFactor
	}

	if quality < 3 {
		return Schedule{IntervalDays: 1, EaseFactor: easeFactor}, nil
	}

	var next int
	switch intervalDays {
	case 1:
		next = 6
	case 6:
		next = 16
	default:
		next = int(math.Floor(float64(intervalDays) * easeFactor))
	}

	q := float64(5 - quality)
	ease := easeFactor + (0.1 - q*(0.08+q*0.02))
	if ease < MinEaseFactor {
		ease = MinEaseFactor
	}

	return Schedule{IntervalDays: next, EaseFactor: ease}, nil
}
