// Package ingestion turns CVs, job descriptions and profiles into embedded
// document chunks stored per user.
package ingestion

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/career-roadmap/internal/extraction"
	"github.com/jonathan/career-roadmap/internal/fetch"
	"github.com/jonathan/career-roadmap/internal/logger"
	"github.com/jonathan/career-roadmap/internal/storage"
	"github.com/jonathan/career-roadmap/internal/types"
)

// Chunking defaults for stored documents
const (
	DefaultChunkSize    = 1000
	DefaultChunkOverlap = 200
	DefaultBatchSize    = 32
)

var (
	// ErrInvalidURL is returned for URLs that cannot be fetched
	ErrInvalidURL = errors.New("invalid URL")
	// ErrContentExtractionFailed is returned when a page yields no text
	ErrContentExtractionFailed = errors.New("content extraction failed")
)

// Embedder embeds texts in batch
type Embedder interface {
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// ChunkStore persists a document's source text with its chunks
type ChunkStore interface {
	SaveDocument(ctx context.Context, src *types.SourceText, chunks []types.Document) error
}

// Options configures an Ingester
type Options struct {
	ChunkSize     int
	ChunkOverlap  int
	BatchSize     int
	GitHubBaseURL string
}

// Ingester extracts, chunks, embeds and stores documents
type Ingester struct {
	store    ChunkStore
	embedder Embedder
	archive  storage.Archive
	fetcher  *fetch.Client
	opts     Options
	log      *logger.Logger
	now      func() time.Time
}

// New creates an Ingester. A nil archive disables raw upload archiving and a
// nil fetcher gets a default client.
func New(store ChunkStore, embedder Embedder, archive storage.Archive, fetcher *fetch.Client, opts Options, log *logger.Logger) *Ingester {
	if opts.ChunkSize <= 0 {
		opts.ChunkSize = DefaultChunkSize
	}
	if opts.ChunkOverlap <= 0 {
		opts.ChunkOverlap = DefaultChunkOverlap
	}
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if archive == nil {
		archive = storage.Noop{}
	}
	if fetcher == nil {
		fetcher = fetch.NewClient(&fetch.Options{RequestsPerSecond: 2, Burst: 2})
	}
	return &Ingester{
		store:    store,
		embedder: embedder,
		archive:  archive,
		fetcher:  fetcher,
		opts:     opts,
		log:      logger.OrNop(log).With("component", "ingestion"),
		now:      time.Now,
	}
}

// IngestText stores pasted text
func (in *Ingester) IngestText(ctx context.Context, userID uuid.UUID, text, source string, docType types.DocumentType) (*Metadata, error) {
	text = CleanText(text)
	if text == "" {
		return nil, ErrEmptyDocument
	}
	if source == "" {
		source = "user-paste"
	}
	meta := NewMetadata(text, source, normalizeType(docType), in.now())
	meta.ContentType = ContentTypeText
	if err := in.persist(ctx, userID, text, meta); err != nil {
		return nil, err
	}
	return meta, nil
}

// IngestFile extracts and stores an uploaded file. The raw bytes are archived
// first when an archive is configured; archive failures are logged only.
func (in *Ingester) IngestFile(ctx context.Context, userID uuid.UUID, filename, contentType string, data []byte, docType types.DocumentType) (*Metadata, error) {
	contentType = DetectContentType(filename, contentType, data)
	text, err := ExtractText(contentType, data)
	if err != nil {
		return nil, err
	}

	source := filename
	if source == "" {
		source = "upload"
	}
	meta := NewMetadata(text, source, normalizeType(docType), in.now())
	meta.ContentType = contentType

	if in.archive.Enabled() {
		key := storage.UploadKey(userID, meta.DocumentID, filename)
		if err := in.archive.Put(ctx, key, contentType, data); err != nil {
			in.log.Warn("failed to archive upload", "key", key, "error", err)
		} else {
			meta.ArchiveKey = key
		}
	}
	if err := in.persist(ctx, userID, text, meta); err != nil {
		return nil, err
	}
	return meta, nil
}

// IngestURL fetches a page and stores its main text. GitHub profile URLs are
// summarised from the profile and contribution pages instead.
func (in *Ingester) IngestURL(ctx context.Context, userID uuid.UUID, rawURL string, docType types.DocumentType) (*Metadata, error) {
	if username := GitHubUsername(rawURL); username != "" {
		profile, err := ScrapeGitHubProfile(ctx, in.fetcher, in.opts.GitHubBaseURL, username, in.now())
		if err != nil {
			return nil, fmt.Errorf("failed to scrape github profile: %w", err)
		}
		profile.URL = rawURL
		summary := profile.Summary()
		meta := NewMetadata(summary, rawURL, types.DocumentProfile, in.now())
		meta.ContentType = ContentTypeText
		if err := in.persist(ctx, userID, summary, meta); err != nil {
			return nil, err
		}
		return meta, nil
	}

	text, err := in.FetchPageText(ctx, rawURL)
	if err != nil {
		return nil, err
	}
	meta := NewMetadata(text, rawURL, normalizeType(docType), in.now())
	meta.ContentType = ContentTypeText
	if err := in.persist(ctx, userID, text, meta); err != nil {
		return nil, err
	}
	return meta, nil
}

// FetchPageText downloads a page and extracts its main text
func (in *Ingester) FetchPageText(ctx context.Context, rawURL string) (string, error) {
	result, err := in.fetcher.Get(ctx, rawURL)
	if err != nil {
		var fe *fetch.Error
		if errors.As(err, &fe) && fe.StatusCode == 0 && fe.Message == "invalid URL" {
			return "", fmt.Errorf("%w: %s", ErrInvalidURL, rawURL)
		}
		return "", err
	}
	text, err := fetch.ExtractMainText(result.HTML, fetch.DefaultTextSelectors())
	if err != nil {
		return "", fmt.Errorf("%w: %w", ErrContentExtractionFailed, err)
	}
	text = CleanText(text)
	if text == "" {
		return "", ErrContentExtractionFailed
	}
	return text, nil
}

// persist chunks and embeds text, then saves the chunks under meta.DocumentID
func (in *Ingester) persist(ctx context.Context, userID uuid.UUID, text string, meta *Metadata) error {
	pieces := extraction.ChunkText(text, in.opts.ChunkSize, in.opts.ChunkOverlap)
	if len(pieces) == 0 {
		return ErrEmptyDocument
	}

	vectors := make([][]float32, 0, len(pieces))
	for start := 0; start < len(pieces); start += in.opts.BatchSize {
		end := min(start+in.opts.BatchSize, len(pieces))
		batch, err := in.embedder.EmbedBatch(ctx, pieces[start:end])
		if err != nil {
			return fmt.Errorf("failed to embed chunks: %w", err)
		}
		if len(batch) != end-start {
			return fmt.Errorf("embedding service returned %d vectors for %d chunks", len(batch), end-start)
		}
		vectors = append(vectors, batch...)
	}

	created := in.now().UTC()
	chunks := make([]types.Document, len(pieces))
	for i, piece := range pieces {
		chunks[i] = types.Document{
			ID:         uuid.New(),
			DocumentID: meta.DocumentID,
			UserID:     userID,
			Source:     meta.Source,
			Type:       meta.Type,
			ChunkIndex: i,
			Text:       piece,
			Embedding:  vectors[i],
			CreatedAt:  created,
		}
	}
	src := &types.SourceText{DocumentID: meta.DocumentID, UserID: userID, Text: text, CreatedAt: created}
	if err := in.store.SaveDocument(ctx, src, chunks); err != nil {
		return fmt.Errorf("failed to save document: %w", err)
	}
	meta.Chunks = len(chunks)
	in.log.Info("document ingested",
		"document_id", meta.DocumentID.String(),
		"type", string(meta.Type),
		"chunks", meta.Chunks,
		"user_id", userID.String())
	return nil
}

func normalizeType(t types.DocumentType) types.DocumentType {
	switch t {
	case types.DocumentCV, types.DocumentJD, types.DocumentProfile, types.DocumentRepo:
		return t
	}
	return types.DocumentOther
}
