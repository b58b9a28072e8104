package scheduling

import "errors"

var (
	ErrSlotNotFound      = errors.New("slot not found")
	ErrSlotNotFree       = errors.New("slot is not free")
	ErrOverlappingSlot   = errors.New("slot overlaps with an existing slot")
	ErrInvalidTimeRange  = errors.New("ends_at must be after starts_at")
	ErrInvalidStatus     = errors.New("unknown slot status")
	ErrInvalidTransition = errors.New("slot status transition not allowed")
	ErrFacilityNotFound  = errors.New("facility not found")
	ErrPersistence       = errors.New("slot store unavailable")
	ErrScheduleBusy      = errors.New("facility schedule is being updated, try again")
)
