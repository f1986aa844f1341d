package apperrors

import "errors"

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrNotFound        = errors.New("not found")
	ErrNetwork         = errors.New("network error")
	ErrAbandoned       = errors.New("calibration abandoned")
	ErrInvalidPlan     = errors.New("invalid plan")
	ErrSequenceActive  = errors.New("calibration already running")
	ErrNoResponsePhase = errors.New("no response phase active")
	ErrUnknownAnswer   = errors.New("unknown answer")
	ErrNoCollection    = errors.New("no active collection")
)
