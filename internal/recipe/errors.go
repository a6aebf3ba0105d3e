package recipe

import "errors"

var (
	ErrNotFound         = errors.New("recipe not found")
	ErrTitleRequired    = errors.New("recipe title is required")
	ErrInvalidServings  = errors.New("servings must not be negative")
	ErrIngredientName   = errors.New("ingredient name is required")
	ErrNegativeQuantity = errors.New("ingredient quantity must not be negative")
	ErrUnknownFormat    = errors.New("unknown recipe file format")
)
