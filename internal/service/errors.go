package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/jonathan/career-roadmap/internal/db"
	"github.com/jonathan/career-roadmap/internal/embedding"
	"github.com/jonathan/career-roadmap/internal/extraction"
	"github.com/jonathan/career-roadmap/internal/ingestion"
	"github.com/jonathan/career-roadmap/internal/progress"
	"github.com/jonathan/career-roadmap/internal/roadmap"
)

// ValidationError represents input that cannot be processed
type ValidationError struct {
	Field   string
	Message string
	Cause   error
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation error: %s - %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation error: %s", e.Message)
}

func (e *ValidationError) Unwrap() error {
	return e.Cause
}

// NotFoundError represents a missing or foreign resource
type NotFoundError struct {
	Resource string
	ID       string
	Cause    error
}

func (e *NotFoundError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
	}
	return fmt.Sprintf("%s not found", e.Resource)
}

func (e *NotFoundError) Unwrap() error {
	return e.Cause
}

// UpstreamUnavailableError wraps an unreachable embedding or language model service
type UpstreamUnavailableError struct {
	Service string // "embedding", "llm"
	Cause   error
}

func (e *UpstreamUnavailableError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s service unavailable: %v", e.Service, e.Cause)
	}
	return fmt.Sprintf("%s service unavailable", e.Service)
}

func (e *UpstreamUnavailableError) Unwrap() error {
	return e.Cause
}

// TimeoutError is returned when an operation outlives its deadline
type TimeoutError struct {
	Operation string
	Cause     error
}

func (e *TimeoutError) Error() string {
	return fmt.Sprintf("%s timed out", e.Operation)
}

func (e *TimeoutError) Unwrap() error {
	return e.Cause
}

// ConflictError is returned when concurrent updates kept winning the race
type ConflictError struct {
	Message string
	Cause   error
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("conflict: %s", e.Message)
}

func (e *ConflictError) Unwrap() error {
	return e.Cause
}

// classify converts errors from the domain packages into the service taxonomy.
// Errors that are already typed, or unknown, pass through unchanged.
func classify(op string, err error) error {
	if err == nil {
		return nil
	}

	var (
		ve validator.ValidationErrors
		se *ValidationError
		ne *NotFoundError
		ue *UpstreamUnavailableError
		te *TimeoutError
	)
	switch {
	case errors.As(err, &se), errors.As(err, &ne), errors.As(err, &ue), errors.As(err, &te):
		return err
	case errors.As(err, &ve):
		return &ValidationError{Field: ve[0].Field(), Message: ve[0].Tag(), Cause: err}
	case errors.Is(err, extraction.ErrNoRequirements):
		return &ValidationError{Field: "jd_text", Message: "no requirements could be extracted", Cause: err}
	case errors.Is(err, extraction.ErrNoSections):
		return &ValidationError{Field: "cv_text", Message: "no sections could be extracted", Cause: err}
	case errors.Is(err, ingestion.ErrUnsupportedType),
		errors.Is(err, ingestion.ErrEmptyDocument),
		errors.Is(err, ingestion.ErrInvalidURL),
		errors.Is(err, ingestion.ErrContentExtractionFailed):
		return &ValidationError{Message: err.Error(), Cause: err}
	case errors.Is(err, progress.ErrInvalidTransition):
		return &ValidationError{Field: "status", Message: err.Error(), Cause: err}
	case errors.Is(err, progress.ErrModuleNotFound):
		return &NotFoundError{Resource: "module", Cause: err}
	case errors.Is(err, progress.ErrResourceNotFound):
		return &NotFoundError{Resource: "resource", Cause: err}
	case errors.Is(err, db.ErrNotFound):
		return &NotFoundError{Resource: op, Cause: err}
	case errors.Is(err, db.ErrVersionConflict):
		return &ConflictError{Message: "roadmap was modified concurrently, retry the request", Cause: err}
	case errors.Is(err, embedding.ErrUnavailable):
		return &UpstreamUnavailableError{Service: "embedding", Cause: err}
	case errors.Is(err, roadmap.ErrServiceUnavailable):
		return &UpstreamUnavailableError{Service: "llm", Cause: err}
	case errors.Is(err, context.DeadlineExceeded):
		return &TimeoutError{Operation: op, Cause: err}
	}
	return err
}
