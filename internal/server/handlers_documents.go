package server

import (
	"io"
	"net/http"

	"github.com/jonathan/career-roadmap/internal/service"
	"github.com/jonathan/career-roadmap/internal/types"
)

// handleIngestText stores pasted CV, JD or profile text
func (s *Server) handleIngestText(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	var req types.IngestTextRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	meta, err := s.documents.IngestText(r.Context(), userID, &req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, meta)
}

// handleIngestFile stores a multipart upload in the "file" field
func (s *Server) handleIngestFile(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, service.MaxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(service.MaxUploadBytes); err != nil {
		s.errorResponse(w, http.StatusBadRequest, &service.ValidationError{Field: "file", Message: "invalid multipart upload: " + err.Error()})
		return
	}
	file, header, err := r.FormFile("file")
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, &service.ValidationError{Field: "file", Message: "file is required"})
		return
	}
	defer file.Close()

	data, err := io.ReadAll(io.LimitReader(file, service.MaxUploadBytes+1))
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, &service.ValidationError{Field: "file", Message: "failed to read upload"})
		return
	}

	docType := types.DocumentType(r.FormValue("type"))
	meta, err := s.documents.IngestFile(r.Context(), userID, header.Filename, header.Header.Get("Content-Type"), data, docType)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, meta)
}

// handleIngestURL fetches and stores a web page or GitHub profile
func (s *Server) handleIngestURL(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	var req types.IngestURLRequest
	if !s.decodeJSON(w, r, &req) {
		return
	}
	meta, err := s.documents.IngestURL(r.Context(), userID, &req)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	s.jsonResponse(w, http.StatusCreated, meta)
}

func (s *Server) handleListDocuments(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	docs, err := s.documents.List(r.Context(), userID)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	if docs == nil {
		docs = []types.DocumentSummary{}
	}
	s.jsonResponse(w, http.StatusOK, map[string]any{"documents": docs, "count": len(docs)})
}

func (s *Server) handleDeleteDocument(w http.ResponseWriter, r *http.Request) {
	userID, ok := s.userID(w, r)
	if !ok {
		return
	}
	id, ok := s.pathID(w, r, "id")
	if !ok {
		return
	}
	if err := s.documents.Delete(r.Context(), userID, id); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
