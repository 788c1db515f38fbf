package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/jonathan/career-roadmap/internal/db"
	"github.com/jonathan/career-roadmap/internal/ingestion"
	"github.com/jonathan/career-roadmap/internal/logger"
	"github.com/jonathan/career-roadmap/internal/types"
)

// MaxUploadBytes caps the size of an uploaded document
const MaxUploadBytes = 10 << 20

// DocumentService ingests and manages a user's CVs, job descriptions and profiles
type DocumentService struct {
	ingester *ingestion.Ingester
	store    db.Store
	log      *logger.Logger
}

// NewDocumentService creates a DocumentService
func NewDocumentService(ingester *ingestion.Ingester, store db.Store, log *logger.Logger) *DocumentService {
	return &DocumentService{
		ingester: ingester,
		store:    store,
		log:      logger.OrNop(log).With("component", "document_service"),
	}
}

// IngestText stores pasted text
func (s *DocumentService) IngestText(ctx context.Context, userID uuid.UUID, req *types.IngestTextRequest) (*ingestion.Metadata, error) {
	if err := req.Validate(); err != nil {
		return nil, classify("document", err)
	}
	meta, err := s.ingester.IngestText(ctx, userID, req.Text, req.Source, req.Type)
	if err != nil {
		return nil, classify("document", err)
	}
	return meta, nil
}

// IngestFile stores an uploaded PDF, DOCX or plain-text file
func (s *DocumentService) IngestFile(ctx context.Context, userID uuid.UUID, filename, contentType string, data []byte, docType types.DocumentType) (*ingestion.Metadata, error) {
	if len(data) == 0 {
		return nil, &ValidationError{Field: "file", Message: "file is empty"}
	}
	if len(data) > MaxUploadBytes {
		return nil, &ValidationError{Field: "file", Message: "file exceeds the 10 MiB limit"}
	}
	switch docType {
	case "", types.DocumentCV, types.DocumentJD, types.DocumentProfile, types.DocumentRepo, types.DocumentOther:
	default:
		return nil, &ValidationError{Field: "type", Message: "unknown document type " + string(docType)}
	}
	meta, err := s.ingester.IngestFile(ctx, userID, filename, contentType, data, docType)
	if err != nil {
		return nil, classify("document", err)
	}
	return meta, nil
}

// IngestURL stores the text of a web page or a GitHub profile summary
func (s *DocumentService) IngestURL(ctx context.Context, userID uuid.UUID, req *types.IngestURLRequest) (*ingestion.Metadata, error) {
	if err := req.Validate(); err != nil {
		return nil, classify("document", err)
	}
	meta, err := s.ingester.IngestURL(ctx, userID, req.URL, req.Type)
	if err != nil {
		return nil, classify("document", err)
	}
	return meta, nil
}

// List returns the user's ingested documents
func (s *DocumentService) List(ctx context.Context, userID uuid.UUID) ([]types.DocumentSummary, error) {
	docs, err := s.store.ListDocuments(ctx, userID)
	if err != nil {
		return nil, classify("document", err)
	}
	return docs, nil
}

// Delete removes every chunk of a document
func (s *DocumentService) Delete(ctx context.Context, userID, documentID uuid.UUID) error {
	if err := s.store.DeleteDocument(ctx, userID, documentID); err != nil {
		return notFound("document", documentID, err)
	}
	s.log.Info("document deleted", "user_id", userID.String(), "document_id", documentID.String())
	return nil
}
