package embedding

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"syscall"
)

// ErrUnavailable is matched (errors.Is) by every failure that means the
// embedding service could not be reached or did not answer usefully.
var ErrUnavailable = errors.New("embedding service unavailable")

// ErrEmptyInput is returned when asked to embed empty text.
var ErrEmptyInput = errors.New("text to embed is empty")

// FailureKind classifies an unavailability for diagnostics.
type FailureKind string

const (
	KindConnectionRefused FailureKind = "connection_refused"
	KindTimeout           FailureKind = "timeout"
	KindDNS               FailureKind = "dns"
	KindHTTPStatus        FailureKind = "http_status"
	KindDecode            FailureKind = "decode"
	KindUnknown           FailureKind = "unknown"
)

// UnavailableError carries the classified cause of an unavailable service.
type UnavailableError struct {
	Op         string
	Kind       FailureKind
	StatusCode int
	Cause      error
}

func (e *UnavailableError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("%s: %s (%s, status %d)", ErrUnavailable, e.Op, e.Kind, e.StatusCode)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (%s): %v", ErrUnavailable, e.Op, e.Kind, e.Cause)
	}
	return fmt.Sprintf("%s: %s (%s)", ErrUnavailable, e.Op, e.Kind)
}

func (e *UnavailableError) Unwrap() error {
	return e.Cause
}

// Is reports true for ErrUnavailable so callers need not know the concrete type.
func (e *UnavailableError) Is(target error) bool {
	return target == ErrUnavailable
}

// Classify maps a transport error to a FailureKind.
func Classify(err error) FailureKind {
	if err == nil {
		return KindUnknown
	}
	if errors.Is(err, syscall.ECONNREFUSED) {
		return KindConnectionRefused
	}
	var dnsErr *net.DNSError
	if errors.As(err, &dnsErr) {
		return KindDNS
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return KindTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return KindTimeout
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return KindConnectionRefused
	}
	return KindUnknown
}

// StatusError is a non-retryable rejection by the service (4xx).
type StatusError struct {
	StatusCode int
	Detail     string
}

func (e *StatusError) Error() string {
	if e.Detail != "" {
		return fmt.Sprintf("embedding service rejected request: %s: %s", http.StatusText(e.StatusCode), e.Detail)
	}
	return fmt.Sprintf("embedding service rejected request: %s", http.StatusText(e.StatusCode))
}

func retryable(err error) bool {
	var ue *UnavailableError
	if !errors.As(err, &ue) {
		return false
	}
	switch ue.Kind {
	case KindConnectionRefused, KindTimeout, KindDNS:
		return true
	case KindHTTPStatus:
		switch ue.StatusCode {
		case http.StatusTooManyRequests, http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return true
		}
	}
	return false
}
