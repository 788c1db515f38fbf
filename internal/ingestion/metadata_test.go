package ingestion

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/career-roadmap/internal/types"
)

func TestNewMetadata(t *testing.T) {
	now := time.Date(2026, 1, 2, 3, 4, 5, 0, time.FixedZone("X", 3600))
	m := NewMetadata("héllo", "cv.pdf", types.DocumentCV, now)

	assert.NotEqual(t, uuid.Nil, m.DocumentID)
	assert.Equal(t, "cv.pdf", m.Source)
	assert.Equal(t, types.DocumentCV, m.Type)
	assert.Equal(t, 5, m.Characters)
	assert.Len(t, m.Hash, 64)
	assert.Equal(t, "2026-01-02T02:04:05Z", m.Timestamp)
}

func TestMetadataHashIsContentBased(t *testing.T) {
	now := time.Now()
	a := NewMetadata("same", "a", types.DocumentJD, now)
	b := NewMetadata("same", "b", types.DocumentJD, now)
	c := NewMetadata("other", "a", types.DocumentJD, now)

	assert.Equal(t, a.Hash, b.Hash)
	assert.NotEqual(t, a.Hash, c.Hash)
	assert.NotEqual(t, a.DocumentID, b.DocumentID)
}

func TestMetadataToJSON(t *testing.T) {
	m := NewMetadata("text", "paste", types.DocumentOther, time.Now())
	m.Chunks = 3

	raw, err := m.ToJSON()
	require.NoError(t, err)
	assert.Contains(t, string(raw), "\n  \"document_id\"")
	assert.NotContains(t, string(raw), "archive_key")

	var decoded Metadata
	require.NoError(t, json.Unmarshal(raw, &decoded))
	assert.Equal(t, *m, decoded)
}
