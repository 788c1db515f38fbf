package server

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/jonathan/career-roadmap/internal/pipeline"
)

// SSEWriter helps write Server-Sent Events
type SSEWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
}

// NewSSEWriter creates a new SSE writer
func NewSSEWriter(w http.ResponseWriter) (*SSEWriter, error) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		return nil, fmt.Errorf("streaming not supported")
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	flusher.Flush()

	return &SSEWriter{w: w, flusher: flusher}, nil
}

// WriteEvent sends an SSE event
func (s *SSEWriter) WriteEvent(event string, data any) error {
	jsonData, err := json.Marshal(data)
	if err != nil {
		return err
	}

	if _, err := fmt.Fprintf(s.w, "event: %s\ndata: %s\n\n", event, jsonData); err != nil {
		return err
	}
	s.flusher.Flush()
	return nil
}

// WriteRunEvent relays a pipeline event under its own type, using the run
// id as the SSE event id.
func (s *SSEWriter) WriteRunEvent(e pipeline.Event) error {
	if _, err := fmt.Fprintf(s.w, "id: %s\n", e.RunID); err != nil {
		return err
	}
	return s.WriteEvent(string(e.Type), e)
}

// WriteError sends an error event
func (s *SSEWriter) WriteError(status int, err error) {
	s.WriteEvent(string(pipeline.EventError), errorBody(status, err)) //nolint:errcheck
}
