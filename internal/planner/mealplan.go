package planner

import (
	"fmt"
	"math"
	"time"
)

// DateLayout is how plan dates are written and parsed.
const DateLayout = "2006-01-02"

// Item is one planned meal on one calendar day.
//
// RecipeVersion is pinned when the item is created or regenerated and is not
// touched by later recipe edits.
type Item struct {
	ID            int64     `json:"id"`
	Date          time.Time `json:"date"`
	RecipeID      int64     `json:"recipe_id"`
	RecipeVersion int       `json:"recipe_version"`
	Servings      *int      `json:"servings,omitempty"`
	Rating        *float64  `json:"rating,omitempty"`
	RatingComment string    `json:"rating_comment,omitempty"`
	IsCooked      bool      `json:"is_cooked"`
}

// DateOf returns the calendar day of t, in t's own location, as UTC midnight.
func DateOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// ParseDate reads a YYYY-MM-DD day.
func ParseDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date %q: %w", s, err)
	}
	return t, nil
}

// DateKey formats a day for use as a map key or storage column.
func DateKey(t time.Time) string {
	return t.Format(DateLayout)
}

// DaysBetween counts calendar days from a to b. Both must come from DateOf.
func DaysBetween(a, b time.Time) int {
	return int(math.Round(b.Sub(a).Hours() / 24))
}

// ServingsOr returns the item's servings, or def when none were assigned.
func (it Item) ServingsOr(def int) int {
	if it.Servings != nil {
		return *it.Servings
	}
	return def
}

// Rate records a rating between 1 and 5.
func (it *Item) Rate(rating float64, comment string) error {
	if rating < MinRating || rating > MaxRating {
		return fmt.Errorf("%w: %.1f", ErrInvalidRating, rating)
	}
	it.Rating = &rating
	it.RatingComment = comment
	return nil
}

const (
	MinRating = 1.0
	MaxRating = 5.0
)

// InRange reports whether the item falls on a day within [from, to].
// A zero bound is open.
func (it Item) InRange(from, to time.Time) bool {
	if !from.IsZero() && it.Date.Before(from) {
		return false
	}
	if !to.IsZero() && it.Date.After(to) {
		return false
	}
	return true
}
