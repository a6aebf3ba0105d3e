package shopping

import "errors"

var (
	ErrItemNotFound   = errors.New("shopping item not found")
	ErrStapleNotFound = errors.New("pantry staple not found")
	ErrInvalidStaple  = errors.New("invalid pantry staple")
)
