// Package tuning holds the scoring constants of the meal plan generator.
// It has no dependencies inside the module so configuration can load it.
package tuning

import (
	"errors"
	"fmt"
	"slices"
)

// ErrInvalid is returned by Validate.
var ErrInvalid = errors.New("invalid planner tuning")

// PenaltyTier subtracts Penalty from a recipe eaten within MaxDays.
type PenaltyTier struct {
	MaxDays int     `mapstructure:"max_days" yaml:"max_days"`
	Penalty float64 `mapstructure:"penalty" yaml:"penalty"`
}

// Tuning holds the scoring constants of the generator.
type Tuning struct {
	WindowDays     int           `mapstructure:"window_days" yaml:"window_days"`
	NeutralRating  float64       `mapstructure:"neutral_rating" yaml:"neutral_rating"`
	NeverEatenDays int           `mapstructure:"never_eaten_days" yaml:"never_eaten_days"`
	RecencyCap     int           `mapstructure:"recency_cap" yaml:"recency_cap"`
	QualityWeight  float64       `mapstructure:"quality_weight" yaml:"quality_weight"`
	RecencyWeight  float64       `mapstructure:"recency_weight" yaml:"recency_weight"`
	MaxJitter      float64       `mapstructure:"max_jitter" yaml:"max_jitter"`
	Penalties      []PenaltyTier `mapstructure:"penalties" yaml:"penalties"`
}

// Default returns the stock rotation constants.
func Default() Tuning {
	return Tuning{
		WindowDays:     7,
		NeutralRating:  3.5,
		NeverEatenDays: 100,
		RecencyCap:     30,
		QualityWeight:  10,
		RecencyWeight:  2,
		MaxJitter:      10,
		Penalties:      DefaultPenalties(),
	}
}

func DefaultPenalties() []PenaltyTier {
	return []PenaltyTier{
		{MaxDays: 1, Penalty: 10000},
		{MaxDays: 2, Penalty: 5000},
		{MaxDays: 5, Penalty: 2000},
		{MaxDays: 7, Penalty: 500},
	}
}

func (t Tuning) Validate() error {
	if t.WindowDays < 1 {
		return fmt.Errorf("%w: window_days must be at least 1", ErrInvalid)
	}
	if t.NeverEatenDays < 0 || t.RecencyCap < 0 {
		return fmt.Errorf("%w: day counts must not be negative", ErrInvalid)
	}
	if t.MaxJitter < 0 {
		return fmt.Errorf("%w: max_jitter must not be negative", ErrInvalid)
	}
	for _, p := range t.Penalties {
		if p.MaxDays < 0 || p.Penalty < 0 {
			return fmt.Errorf("%w: penalty tiers must not be negative", ErrInvalid)
		}
	}
	return nil
}

// Penalty returns the first tier covering days. Tiers must be sorted by MaxDays.
func (t Tuning) Penalty(days int) float64 {
	for _, p := range t.Penalties {
		if days <= p.MaxDays {
			return p.Penalty
		}
	}
	return 0
}

// Sorted returns a copy with the penalty tiers ordered by MaxDays.
func (t Tuning) Sorted() Tuning {
	t.Penalties = slices.Clone(t.Penalties)
	slices.SortStableFunc(t.Penalties, func(a, b PenaltyTier) int {
		return a.MaxDays - b.MaxDays
	})
	return t
}
