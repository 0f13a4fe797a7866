package apperrors

import "errors"

var (
	ErrInvalidInput    = errors.New("invalid input")
	ErrNotFound        = errors.New("not found")
	ErrNoActiveSession = errors.New("no active session")

	// ErrConfiguration rejects settings before they reach the escalation engine.
	ErrConfiguration = errors.New("invalid configuration")
	// ErrPermissionDenied marks a delivery or location channel the host refuses.
	ErrPermissionDenied = errors.New("permission denied")
	// ErrDeliveryFailure marks a message channel rejecting one recipient.
	ErrDeliveryFailure = errors.New("delivery failed")
	// ErrStaleWrite is returned when a compare-and-set loses against a concurrent writer.
	ErrStaleWrite = errors.New("stale write")
)
