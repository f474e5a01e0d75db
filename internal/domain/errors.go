package domain

import "fmt"

// ValidationError indicates that input data failed domain validation.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// NewValidationError creates a new ValidationError.
func NewValidationError(message string) *ValidationError {
	return &ValidationError{Message: message}
}

// NotFoundError indicates that a requested entity does not exist.
type NotFoundError struct {
	Entity string
	ID     string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Entity, e.ID)
}

// NewNotFoundError creates a new NotFoundError for the given entity and identifier.
func NewNotFoundError(entity, id string) *NotFoundError {
	return &NotFoundError{Entity: entity, ID: id}
}

// ConflictError indicates that a write collided with concurrent state.
type ConflictError struct {
	Message string
}

func (e *ConflictError) Error() string { return e.Message }

// NewConflictError creates a new ConflictError.
func NewConflictError(message string) *ConflictError {
	return &ConflictError{Message: message}
}

// InvalidStateError indicates a disallowed lifecycle transition.
type InvalidStateError struct {
	From string
	To   string
}

func (e *InvalidStateError) Error() string {
	return fmt.Sprintf("invalid state transition: %s -> %s", e.From, e.To)
}

// NewInvalidStateError creates a new InvalidStateError.
func NewInvalidStateError(from, to string) *InvalidStateError {
	return &InvalidStateError{From: from, To: to}
}

// ForbiddenError indicates the caller is not allowed to act on the resource.
type ForbiddenError struct {
	Message string
}

func (e *ForbiddenError) Error() string { return e.Message }

// NewForbiddenError creates a new ForbiddenError.
func NewForbiddenError(message string) *ForbiddenError {
	return &ForbiddenError{Message: message}
}

// UnavailableReason classifies why a vehicle cannot take a booking window.
type UnavailableReason string

const (
	ReasonBooked           UnavailableReason = "booked"
	ReasonTravelTimeBuffer UnavailableReason = "travel_time_buffer"
)

// UnavailableError is the expected negative outcome of an availability
// check. It is not a system fault: the vehicle exists and the check
// completed, but the requested window cannot be served.
type UnavailableError struct {
	Reason        UnavailableReason
	Message       string
	BookingNumber string
}

func (e *UnavailableError) Error() string { return e.Message }

// NewUnavailableError creates a new UnavailableError carrying the reason
// code and the number of the booking that caused the denial.
func NewUnavailableError(reason UnavailableReason, message, bookingNumber string) *UnavailableError {
	return &UnavailableError{Reason: reason, Message: message, BookingNumber: bookingNumber}
}
