package ingestion

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/career-roadmap/internal/fetch"
	"github.com/jonathan/career-roadmap/internal/types"
)

type fakeEmbedder struct {
	batches [][]string
	err     error
}

func (f *fakeEmbedder) EmbedBatch(_ context.Context, texts []string) ([][]float32, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.batches = append(f.batches, texts)
	out := make([][]float32, len(texts))
	for i, t := range texts {
		out[i] = []float32{float32(len(t)), 1}
	}
	return out, nil
}

type memStore struct {
	texts  []*types.SourceText
	chunks []types.Document
}

func (m *memStore) SaveDocument(_ context.Context, src *types.SourceText, chunks []types.Document) error {
	m.texts = append(m.texts, src)
	m.chunks = append(m.chunks, chunks...)
	return nil
}

type memArchive struct {
	mu      sync.Mutex
	objects map[string][]byte
	err     error
}

func (a *memArchive) Put(_ context.Context, key, _ string, data []byte) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.err != nil {
		return a.err
	}
	a.objects[key] = data
	return nil
}

func (a *memArchive) Get(_ context.Context, key string) ([]byte, error) {
	return a.objects[key], nil
}

func (a *memArchive) Enabled() bool { return true }

func TestIngestTextChunksAndEmbeds(t *testing.T) {
	store := &memStore{}
	emb := &fakeEmbedder{}
	in := New(store, emb, nil, nil, Options{ChunkSize: 100, ChunkOverlap: 20, BatchSize: 2}, nil)
	userID := uuid.New()

	text := strings.Repeat("Built distributed systems in Go. ", 12)
	meta, err := in.IngestText(context.Background(), userID, text, "", types.DocumentCV)
	require.NoError(t, err)

	assert.Equal(t, "user-paste", meta.Source)
	assert.Equal(t, types.DocumentCV, meta.Type)
	assert.Greater(t, meta.Chunks, 2)
	require.Len(t, store.chunks, meta.Chunks)
	for i, c := range store.chunks {
		assert.Equal(t, i, c.ChunkIndex)
		assert.Equal(t, meta.DocumentID, c.DocumentID)
		assert.Equal(t, userID, c.UserID)
		assert.Equal(t, float32(len(c.Text)), c.Embedding[0])
	}
	for _, b := range emb.batches {
		assert.LessOrEqual(t, len(b), 2)
	}

	require.Len(t, store.texts, 1)
	assert.Equal(t, meta.DocumentID, store.texts[0].DocumentID)
	assert.Equal(t, userID, store.texts[0].UserID)
	assert.Equal(t, CleanText(text), store.texts[0].Text, "the source text is kept once, without chunk overlap")
}

func TestIngestTextRejectsEmpty(t *testing.T) {
	in := New(&memStore{}, &fakeEmbedder{}, nil, nil, Options{}, nil)
	_, err := in.IngestText(context.Background(), uuid.New(), " \n ", "", types.DocumentCV)
	assert.ErrorIs(t, err, ErrEmptyDocument)
}

func TestIngestTextEmbeddingFailure(t *testing.T) {
	store := &memStore{}
	boom := errors.New("embedding down")
	in := New(store, &fakeEmbedder{err: boom}, nil, nil, Options{}, nil)

	_, err := in.IngestText(context.Background(), uuid.New(), "Python and SQL", "", types.DocumentCV)
	assert.ErrorIs(t, err, boom)
	assert.Empty(t, store.chunks)
}

func TestIngestFileArchivesUpload(t *testing.T) {
	store := &memStore{}
	archive := &memArchive{objects: map[string][]byte{}}
	in := New(store, &fakeEmbedder{}, archive, nil, Options{}, nil)
	userID := uuid.New()

	meta, err := in.IngestFile(context.Background(), userID, "resume.txt", "", []byte("Skills: Go, SQL"), types.DocumentType("weird"))
	require.NoError(t, err)

	assert.Equal(t, types.DocumentOther, meta.Type)
	assert.Equal(t, ContentTypeText, meta.ContentType)
	assert.Equal(t, "uploads/"+userID.String()+"/"+meta.DocumentID.String()+"/resume.txt", meta.ArchiveKey)
	assert.Equal(t, []byte("Skills: Go, SQL"), archive.objects[meta.ArchiveKey])
	require.Len(t, store.chunks, 1)
	assert.Equal(t, "resume.txt", store.chunks[0].Source)
}

func TestIngestFileArchiveFailureIsNotFatal(t *testing.T) {
	archive := &memArchive{objects: map[string][]byte{}, err: errors.New("s3 down")}
	in := New(&memStore{}, &fakeEmbedder{}, archive, nil, Options{}, nil)

	meta, err := in.IngestFile(context.Background(), uuid.New(), "cv.txt", ContentTypeText, []byte("Go"), types.DocumentCV)
	require.NoError(t, err)
	assert.Empty(t, meta.ArchiveKey)
}

func TestIngestFileUnsupported(t *testing.T) {
	in := New(&memStore{}, &fakeEmbedder{}, nil, nil, Options{}, nil)
	_, err := in.IngestFile(context.Background(), uuid.New(), "photo.png", "image/png", []byte{0x89, 'P', 'N', 'G'}, types.DocumentCV)
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestIngestURLPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`<html><body><nav>Menu</nav><main><h1>Backend Engineer</h1><p>Requires: Go experience.</p></main><footer>Legal</footer></body></html>`))
	}))
	defer srv.Close()

	store := &memStore{}
	in := New(store, &fakeEmbedder{}, nil, fetch.NewClient(nil), Options{}, nil)

	meta, err := in.IngestURL(context.Background(), uuid.New(), srv.URL, types.DocumentJD)
	require.NoError(t, err)
	assert.Equal(t, types.DocumentJD, meta.Type)
	require.Len(t, store.chunks, 1)
	assert.Contains(t, store.chunks[0].Text, "Requires: Go experience.")
	assert.NotContains(t, store.chunks[0].Text, "Menu")
}

func TestIngestURLGitHubProfile(t *testing.T) {
	srv := githubServer(t, true)
	store := &memStore{}
	in := New(store, &fakeEmbedder{}, nil, fetch.NewClient(nil), Options{GitHubBaseURL: srv.URL}, nil)

	meta, err := in.IngestURL(context.Background(), uuid.New(), "https://github.com/octocat", types.DocumentCV)
	require.NoError(t, err)

	assert.Equal(t, types.DocumentProfile, meta.Type)
	require.Len(t, store.chunks, 1)
	assert.Contains(t, store.chunks[0].Text, "Source URL: https://github.com/octocat")
	assert.Contains(t, store.chunks[0].Text, "Total Repositories: 1024")
}

func TestIngestURLInvalid(t *testing.T) {
	in := New(&memStore{}, &fakeEmbedder{}, nil, nil, Options{}, nil)
	_, err := in.IngestURL(context.Background(), uuid.New(), "not-a-url", types.DocumentJD)
	assert.ErrorIs(t, err, ErrInvalidURL)
}
