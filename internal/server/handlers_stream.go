package server

import (
	"context"
	"errors"
	"net/http"

	"github.com/jonathan/career-roadmap/internal/pipeline"
	"github.com/jonathan/career-roadmap/internal/roadmap"
	"github.com/jonathan/career-roadmap/internal/service"
	"github.com/jonathan/career-roadmap/internal/types"
)

// handleGenerateRoadmapStream runs a generation and streams its progress as
// Server-Sent Events. The first event carries the run id used by
// POST /roadmaps/runs/{id}/{command}.
func (s *Server) handleGenerateRoadmapStream(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	var req types.GenerateRoadmapRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	greq, err := s.roadmaps.BuildRequest(r.Context(), userID, &req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	sse, err := NewSSEWriter(w)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, err)
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), s.roadmaps.Timeout())
	defer cancel()

	activate := req.Activate
	save := func(ctx context.Context, rm *types.Roadmap, out *roadmap.Outcome) error {
		return s.roadmaps.Save(ctx, rm, out, activate)
	}
	run := s.runs.Start(ctx, pipeline.Request{UserID: userID, Generation: greq}, save)
	log := s.log.With("run_id", run.ID.String(), "user_id", userID.String())
	log.Info("streaming generation started", "category", req.Category)

	connected := sse.WriteEvent("run", map[string]string{"run_id": run.ID.String()}) == nil
	for e := range run.Events() {
		if !connected || e.Type == pipeline.EventError {
			continue
		}
		if err := sse.WriteRunEvent(e); err != nil {
			log.Info("client disconnected, stopping run", "error", err)
			connected = false
			cancel()
		}
	}

	_, err = run.Result()
	switch {
	case err == nil:
		log.Info("streaming generation finished")
	case errors.Is(err, pipeline.ErrStopped):
		log.Info("streaming generation stopped")
		if connected {
			sse.WriteEvent("stopped", map[string]string{"run_id": run.ID.String()}) //nolint:errcheck
		}
	default:
		err = service.GenerationError(ctx, err)
		status := HTTPStatus(err)
		log.Warn("streaming generation failed", "status", status, "error", err)
		if connected {
			sse.WriteError(status, err)
		}
	}
}

// handleRunCommand pauses, resumes or stops a streaming generation
func (s *Server) handleRunCommand(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	runID, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	cmd, err := pipeline.ParseCommand(r.PathValue("command"))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, &service.ValidationError{Field: "command", Message: err.Error(), Cause: err})
		return
	}
	if err := s.runs.Command(userID, runID, cmd); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusAccepted, map[string]string{"run_id": runID.String(), "command": string(cmd)})
}
