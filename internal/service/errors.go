package service

import "fmt"

// ValidationError is returned when request data fails validation.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error for %q: %s", e.Field, e.Message)
	}
	return e.Message
}

// UnavailableError is returned when the event queue cannot accept work right now.
type UnavailableError struct {
	Err error
}

func (e *UnavailableError) Error() string {
	return fmt.Sprintf("service unavailable: %v", e.Err)
}

func (e *UnavailableError) Unwrap() error { return e.Err }
