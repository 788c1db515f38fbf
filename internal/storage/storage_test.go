package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/career-roadmap/internal/config"
)

// fakeS3 serves path-style PUT and GET requests from memory
type fakeS3 struct {
	mu      sync.Mutex
	objects map[string][]byte
	types   map[string]string
}

func (f *fakeS3) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch r.Method {
	case http.MethodPut:
		body, _ := io.ReadAll(r.Body)
		f.objects[r.URL.Path] = body
		f.types[r.URL.Path] = r.Header.Get("Content-Type")
		w.WriteHeader(http.StatusOK)
	case http.MethodGet:
		body, ok := f.objects[r.URL.Path]
		if !ok {
			w.Header().Set("Content-Type", "application/xml")
			w.WriteHeader(http.StatusNotFound)
			_, _ = io.WriteString(w, `<?xml version="1.0" encoding="UTF-8"?><Error><Code>NoSuchKey</Code><Message>missing</Message></Error>`)
			return
		}
		w.Header().Set("Content-Type", f.types[r.URL.Path])
		_, _ = w.Write(body)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func newFakeArchive(t *testing.T) (*S3Archive, *fakeS3) {
	t.Helper()
	fake := &fakeS3{objects: map[string][]byte{}, types: map[string]string{}}
	srv := httptest.NewServer(fake)
	t.Cleanup(srv.Close)

	a, err := NewS3Archive(context.Background(), config.StorageConfig{
		S3Bucket:    "uploads",
		S3Endpoint:  srv.URL,
		S3Region:    "us-east-1",
		S3AccessKey: "test",
		S3SecretKey: "test",
	})
	require.NoError(t, err)
	return a, fake
}

func TestS3ArchiveRoundTrip(t *testing.T) {
	a, fake := newFakeArchive(t)
	ctx := context.Background()

	require.NoError(t, a.Put(ctx, "uploads/u/d/cv.pdf", "application/pdf", []byte("%PDF-1.4")))
	assert.Contains(t, fake.objects, "/uploads/uploads/u/d/cv.pdf")
	assert.Equal(t, "application/pdf", fake.types["/uploads/uploads/u/d/cv.pdf"])

	got, err := a.Get(ctx, "uploads/u/d/cv.pdf")
	require.NoError(t, err)
	assert.Equal(t, []byte("%PDF-1.4"), got)

	_, err = a.Get(ctx, "missing")
	assert.Error(t, err)
}

func TestNewS3ArchiveRequiresBucket(t *testing.T) {
	_, err := NewS3Archive(context.Background(), config.StorageConfig{})
	assert.Error(t, err)
}

func TestFromConfigWithoutBucketIsNoop(t *testing.T) {
	a := FromConfig(context.Background(), config.StorageConfig{}, nil)
	assert.False(t, a.Enabled())
	assert.NoError(t, a.Put(context.Background(), "k", "text/plain", []byte("x")))
	_, err := a.Get(context.Background(), "k")
	assert.ErrorIs(t, err, ErrDisabled)
}

func TestUploadKey(t *testing.T) {
	u := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	d := uuid.MustParse("22222222-2222-2222-2222-222222222222")

	assert.Equal(t, "uploads/"+u.String()+"/"+d.String()+"/cv.pdf", UploadKey(u, d, "../../cv.pdf"))
	assert.Equal(t, "uploads/"+u.String()+"/"+d.String()+"/resume.docx", UploadKey(u, d, `C:\docs\resume.docx`))
	assert.Equal(t, "uploads/"+u.String()+"/"+d.String()+"/upload", UploadKey(u, d, ""))
}
