// Package server provides the HTTP REST API for CV matching and learning roadmaps.
package server

import (
	"errors"
	"net/http"

	"github.com/jonathan/career-roadmap/internal/extraction"
	"github.com/jonathan/career-roadmap/internal/pipeline"
	"github.com/jonathan/career-roadmap/internal/roadmap"
	"github.com/jonathan/career-roadmap/internal/service"
)

// ErrorBody is the JSON body of every error response
type ErrorBody struct {
	Error   string `json:"error"`
	Message string `json:"message"`
	Field   string `json:"field,omitempty"`
}

// HTTPStatus returns the appropriate HTTP status code for an error
func HTTPStatus(err error) int {
	var (
		ve *service.ValidationError
		ne *service.NotFoundError
		ue *service.UpstreamUnavailableError
		te *service.TimeoutError
		ce *service.ConflictError
		pe *roadmap.ParseError
	)
	switch {
	case err == nil:
		return http.StatusInternalServerError
	case errors.As(err, &ve):
		if errors.Is(err, extraction.ErrNoRequirements) || errors.Is(err, extraction.ErrNoSections) {
			return http.StatusUnprocessableEntity
		}
		return http.StatusBadRequest
	case errors.As(err, &ne), errors.Is(err, pipeline.ErrRunNotFound):
		return http.StatusNotFound
	case errors.As(err, &ue):
		return http.StatusServiceUnavailable
	case errors.As(err, &te):
		return http.StatusGatewayTimeout
	case errors.As(err, &ce), errors.Is(err, pipeline.ErrRunFinished):
		return http.StatusConflict
	case errors.As(err, &pe):
		return http.StatusBadGateway
	case errors.Is(err, pipeline.ErrUnknownCommand):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// errorCode is the machine readable code sent next to the status
func errorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "invalid_request"
	case http.StatusUnprocessableEntity:
		return "unprocessable_input"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusBadGateway:
		return "bad_model_output"
	case http.StatusServiceUnavailable:
		return "upstream_unavailable"
	case http.StatusGatewayTimeout:
		return "timeout"
	default:
		return "internal_error"
	}
}

// errorBody builds the response body for err. Internal errors are not
// echoed to the client.
func errorBody(status int, err error) ErrorBody {
	body := ErrorBody{Error: errorCode(status), Message: "internal server error"}
	if status != http.StatusInternalServerError && err != nil {
		body.Message = err.Error()
	}
	var ve *service.ValidationError
	if errors.As(err, &ve) {
		body.Field = ve.Field
	}
	return body
}
