package roadmap

import (
	"errors"
	"fmt"
)

// ErrServiceUnavailable means the language model could not be reached or did
// not answer in time. It is surfaced to the caller, never replaced by a template.
var ErrServiceUnavailable = errors.New("roadmap generation service unavailable")

// ParseError represents model output that could not be decoded into a draft
type ParseError struct {
	Message string
	Raw     string
	Cause   error
}

func (e *ParseError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("parse error: %s: %v", e.Message, e.Cause)
	}
	return fmt.Sprintf("parse error: %s", e.Message)
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// UnavailableError wraps the transport failure behind ErrServiceUnavailable
type UnavailableError struct {
	Stage string // "probe", "generate"
	Cause error
}

func (e *UnavailableError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s during %s: %v", ErrServiceUnavailable, e.Stage, e.Cause)
	}
	return fmt.Sprintf("%s during %s", ErrServiceUnavailable, e.Stage)
}

func (e *UnavailableError) Unwrap() error {
	return e.Cause
}

func (e *UnavailableError) Is(target error) bool {
	return target == ErrServiceUnavailable
}
