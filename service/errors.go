package service

import "errors"

// Error text for ErrRoomNotFound and ErrInvalidPassword travels verbatim in
// join acks, so clients match on it.
var (
	ErrRoomNotFound       = errors.New("Room not found")
	ErrInvalidPassword    = errors.New("Invalid password")
	ErrValidationRejected = errors.New("validation rejected")
)
