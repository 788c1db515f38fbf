package server

import (
	"encoding/base64"
	"encoding/json"
	"net/http"

	"github.com/jonathan/career-roadmap/internal/types"
)

// SourcesHeader carries the base64-encoded JSON list of chat sources
const SourcesHeader = "X-Sources"

// handleChat answers a question from the user's own documents. Sources are
// sent in the X-Sources header before the answer is streamed.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	var req types.ChatRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	turn, err := s.chat.Prepare(r.Context(), userID, &req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	encoded, err := encodeSources(turn.Sources)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err)
		return
	}
	w.Header().Set(SourcesHeader, encoded)

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err)
		return
	}

	answer, err := s.chat.Reply(r.Context(), turn)
	if err != nil {
		status := HTTPStatus(err)
		s.log.Warn("chat failed", "status", status, "user_id", userID.String(), "error", err)
		sse.WriteError(status, err)
		return
	}
	if err := sse.WriteEvent("answer", map[string]string{"content": answer}); err != nil {
		s.log.Info("client disconnected before the answer", "error", err)
		return
	}
	sse.WriteEvent("complete", map[string]any{"sources": turn.Sources}) //nolint:errcheck
}

func encodeSources(sources []types.ChatSource) (string, error) {
	if sources == nil {
		sources = []types.ChatSource{}
	}
	raw, err := json.Marshal(sources)
	if err != nil {
		return "", err
	}
	return base64.StdEncoding.EncodeToString(raw), nil
}
