package server

import (
	"net/http"
	"strconv"

	"github.com/jonathan/career-roadmap/internal/enrichment"
	"github.com/jonathan/career-roadmap/internal/roadmap"
	"github.com/jonathan/career-roadmap/internal/service"
	"github.com/jonathan/career-roadmap/internal/types"
)

// GenerateResponse is returned by POST /roadmaps/generate
type GenerateResponse struct {
	Roadmap     *types.Roadmap     `json:"roadmap"`
	Fallback    bool               `json:"fallback"`
	Accepted    bool               `json:"accepted"`
	Refinements int                `json:"refinements"`
	Issues      []string           `json:"issues,omitempty"`
	Trace       []roadmap.State    `json:"trace,omitempty"`
	Enrichment  *enrichment.Report `json:"enrichment,omitempty"`
}

func newGenerateResponse(rm *types.Roadmap, out *roadmap.Outcome) GenerateResponse {
	resp := GenerateResponse{Roadmap: rm}
	if out != nil {
		resp.Fallback = out.Fallback
		resp.Accepted = out.Accepted
		resp.Refinements = out.Refinements
		resp.Issues = out.Verdict.Issues
		resp.Trace = out.Trace
		resp.Enrichment = out.Report
	}
	return resp
}

// handleGenerateRoadmap runs the generate-validate-refine loop synchronously
func (s *Server) handleGenerateRoadmap(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	var req types.GenerateRoadmapRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	rm, out, err := s.roadmaps.Generate(r.Context(), userID, &req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, newGenerateResponse(rm, out))
}

// handleListRoadmaps lists the user's roadmaps, ?active=true keeps the active one
func (s *Server) handleListRoadmaps(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	activeOnly := false
	if v := r.URL.Query().Get("active"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			s.errorResponse(w, http.StatusBadRequest, &service.ValidationError{Field: "active", Message: "must be a boolean"})
			return
		}
		activeOnly = b
	}
	roadmaps, err := s.roadmaps.List(r.Context(), userID, activeOnly)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if roadmaps == nil {
		roadmaps = []types.Roadmap{}
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"roadmaps": roadmaps, "count": len(roadmaps)})
}

func (s *Server) handleGetRoadmap(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	rm, err := s.roadmaps.Get(r.Context(), userID, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, rm)
}

func (s *Server) handleActivateRoadmap(w http.ResponseWriter, r *http.Request) {
	s.setActive(w, r, true)
}

func (s *Server) handleDeactivateRoadmap(w http.ResponseWriter, r *http.Request) {
	s.setActive(w, r, false)
}

func (s *Server) setActive(w http.ResponseWriter, r *http.Request, active bool) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	if err := s.roadmaps.SetActive(r.Context(), userID, id, active); err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"id": id, "is_active": active})
}

func (s *Server) handleDeleteRoadmap(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	if err := s.roadmaps.Delete(r.Context(), userID, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleUpdateModule changes a module's status or manual progress
func (s *Server) handleUpdateModule(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	var req types.UpdateModuleRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	rm, err := s.roadmaps.UpdateModule(r.Context(), userID, id, r.PathValue("module_id"), &req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, rm)
}

// handleUpdateResource marks a resource completed or not
func (s *Server) handleUpdateResource(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	var req types.UpdateResourceRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	rm, err := s.roadmaps.UpdateResource(r.Context(), userID, id, r.PathValue("module_id"), r.PathValue("resource_id"), &req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, rm)
}

func (s *Server) handleGetProgress(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	report, err := s.roadmaps.Progress(r.Context(), userID, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, report)
}
