package domain

import "fmt"

// DomainError represents a domain-level error
type DomainError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *DomainError) Error() string {
	return e.Message
}

func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

var (
	ErrNotFound            = NewDomainError("NOT_FOUND", "resource not found")
	ErrAlreadyExists       = NewDomainError("ALREADY_EXISTS", "resource already exists")
	ErrRoomUnavailable     = NewDomainError("ROOM_UNAVAILABLE", "room is already booked for the selected dates")
	ErrRoomOutOfService    = NewDomainError("ROOM_OUT_OF_SERVICE", "room is not open for bookings")
	ErrRoomLocked          = NewDomainError("ROOM_LOCKED", "another booking for this room is in progress")
	ErrInvalidTransition   = NewDomainError("INVALID_TRANSITION", "operation not allowed in current state")
	ErrConcurrencyConflict = NewDomainError("CONCURRENCY_CONFLICT", "resource was modified by another process")
)

// ValidationError reports malformed input. Field names the offending input.
type ValidationError struct {
	Field  string `json:"field"`
	Value  string `json:"value"`
	Reason string `json:"reason"`
}

func NewValidationError(field, value, reason string) *ValidationError {
	return &ValidationError{Field: field, Value: value, Reason: reason}
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s %q: %s", e.Field, e.Value, e.Reason)
}
