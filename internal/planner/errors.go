package planner

import "errors"

var (
	ErrItemNotFound   = errors.New("meal plan item not found")
	ErrInvalidRating  = errors.New("rating must be between 1 and 5")
	ErrEmptyCatalog   = errors.New("no recipes to plan with")
	ErrInvalidServing = errors.New("servings must be positive")
)
