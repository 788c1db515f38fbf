package server

import (
	"net/http"
	"strconv"

	"github.com/jonathan/career-roadmap/internal/service"
	"github.com/jonathan/career-roadmap/internal/types"
)

// handleCreateMatch scores a CV against a job description
func (s *Server) handleCreateMatch(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	var req types.MatchRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	result, err := s.matches.Match(r.Context(), userID, &req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}

// handleListMatches returns the newest match results, ?limit= caps the count
func (s *Server) handleListMatches(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	limit := service.DefaultMatchListLimit
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.errorResponse(w, http.StatusBadRequest, &service.ValidationError{Field: "limit", Message: "must be a positive integer"})
			return
		}
		limit = n
	}
	results, err := s.matches.List(r.Context(), userID, limit)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if results == nil {
		results = []types.MatchResult{}
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"matches": results, "count": len(results)})
}

func (s *Server) handleGetMatch(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	result, err := s.matches.Get(r.Context(), userID, id)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusOK, result)
}
