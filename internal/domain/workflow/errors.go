package workflow

import "errors"

var (
	// ErrValidation is returned when request input is missing or malformed
	ErrValidation = errors.New("validation failed")

	// ErrForbidden is returned when the actor's role is not permitted to perform the action
	ErrForbidden = errors.New("action not permitted for role")

	// ErrInvalidTransition is returned when the voucher's current state does not allow the action
	ErrInvalidTransition = errors.New("invalid state transition")

	// ErrNotFound is returned when a voucher or referenced user does not exist
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned when a voucher number or email is already taken
	ErrConflict = errors.New("already exists")
)
