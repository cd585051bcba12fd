package entities

import "errors"

var (
	ErrCapacityExceeded   = errors.New("not enough capacity for this ticket type")
	ErrEventNotFound      = errors.New("event not found")
	ErrTicketTypeNotFound = errors.New("ticket type not found")
	ErrTicketTypeInactive = errors.New("ticket type is not on sale")
	ErrHoldNotFound       = errors.New("reservation not found")
	ErrHoldNotActive      = errors.New("reservation expired or already used")
	ErrForbidden          = errors.New("reservation does not belong to the caller")
	ErrSeatConflict       = errors.New("seat already taken")
	ErrOrderNotFound      = errors.New("order not found")
	ErrOrderExists        = errors.New("order already exists for this payment intent")
)
