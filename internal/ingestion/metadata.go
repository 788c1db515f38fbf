package ingestion

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/career-roadmap/internal/types"
)

// Metadata describes one ingested document
type Metadata struct {
	DocumentID  uuid.UUID          `json:"document_id"`
	Source      string             `json:"source"`
	Type        types.DocumentType `json:"type"`
	ContentType string             `json:"content_type,omitempty"`
	Chunks      int                `json:"chunks"`
	Characters  int                `json:"characters"`
	Hash        string             `json:"hash"`                  // SHA256 of the cleaned text
	ArchiveKey  string             `json:"archive_key,omitempty"` // set when the raw upload was archived
	Timestamp   string             `json:"timestamp"`             // RFC3339
}

// NewMetadata creates metadata for cleaned content
func NewMetadata(content, source string, docType types.DocumentType, now time.Time) *Metadata {
	return &Metadata{
		DocumentID: uuid.New(),
		Source:     source,
		Type:       docType,
		Characters: len([]rune(content)),
		Hash:       computeHash(content),
		Timestamp:  now.UTC().Format(time.RFC3339),
	}
}

func computeHash(content string) string {
	hash := sha256.Sum256([]byte(content))
	return hex.EncodeToString(hash[:])
}

// ToJSON marshals Metadata to pretty-printed JSON
func (m *Metadata) ToJSON() ([]byte, error) {
	jsonBytes, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to marshal metadata to JSON: %w", err)
	}
	return jsonBytes, nil
}
