package types

import (
	"time"

	"github.com/google/uuid"
)

// DocumentType classifies an ingested document
type DocumentType string

// Document types
const (
	DocumentCV      DocumentType = "cv"
	DocumentJD      DocumentType = "jd"
	DocumentProfile DocumentType = "profile"
	DocumentRepo    DocumentType = "repo"
	DocumentOther   DocumentType = "other"
)

// Document is one embedded chunk of an ingested CV, JD or profile.
// Chunks sharing a DocumentID belong to the same upload.
type Document struct {
	ID         uuid.UUID    `json:"id"`
	DocumentID uuid.UUID    `json:"document_id"`
	UserID     uuid.UUID    `json:"user_id"`
	Source     string       `json:"source"`
	Type       DocumentType `json:"type"`
	ChunkIndex int          `json:"chunk_index"`
	Text       string       `json:"text"`
	Embedding  []float32    `json:"embedding,omitempty"`
	CreatedAt  time.Time    `json:"created_at"`
}

// SourceText is the cleaned full text of an ingested document, kept once
// next to its overlapping chunks.
type SourceText struct {
	DocumentID uuid.UUID `json:"document_id"`
	UserID     uuid.UUID `json:"user_id"`
	Text       string    `json:"text"`
	CreatedAt  time.Time `json:"created_at"`
}

// DocumentSummary is a lightweight view of an ingested document for listing
type DocumentSummary struct {
	DocumentID uuid.UUID    `json:"document_id"`
	Source     string       `json:"source"`
	Type       DocumentType `json:"type"`
	Chunks     int          `json:"chunks"`
	CreatedAt  time.Time    `json:"created_at"`
}
