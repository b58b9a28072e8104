package facility

import "errors"

var (
	ErrFacilityNotFound = errors.New("facility not found")
	ErrInvalidName      = errors.New("facility name must be between 1 and 120 characters")
	ErrUnknownOwner     = errors.New("facility owner does not exist")
)
