package planner

import "meal-rotation/internal/planner/tuning"

// Tuning holds the scoring constants of the generator.
type Tuning = tuning.Tuning

// PenaltyTier subtracts Penalty from a recipe eaten within MaxDays.
type PenaltyTier = tuning.PenaltyTier

// ErrInvalidTuning is returned when the scoring constants do not validate.
var ErrInvalidTuning = tuning.ErrInvalid

// DefaultTuning returns the stock rotation constants.
func DefaultTuning() Tuning {
	return tuning.Default()
}

func DefaultPenalties() []PenaltyTier {
	return tuning.DefaultPenalties()
}
