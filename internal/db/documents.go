package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/career-roadmap/internal/types"
)

// SaveDocument stores the source text and the chunks of one upload in a
// transaction. src may be nil.
func (db *DB) SaveDocument(ctx context.Context, src *types.SourceText, chunks []types.Document) error {
	if src == nil && len(chunks) == 0 {
		return nil
	}
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	batch := &pgx.Batch{}
	if src != nil {
		batch.Queue(
			`INSERT INTO document_texts (document_id, user_id, text, created_at) VALUES ($1, $2, $3, $4)`,
			src.DocumentID, src.UserID, src.Text, src.CreatedAt,
		)
	}
	for _, c := range chunks {
		batch.Queue(
			`INSERT INTO documents (id, document_id, user_id, source, doc_type, chunk_index, text, embedding, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
			c.ID, c.DocumentID, c.UserID, c.Source, string(c.Type), c.ChunkIndex, c.Text, c.Embedding, c.CreatedAt,
		)
	}
	br := tx.SendBatch(ctx, batch)
	for i := 0; i < batch.Len(); i++ {
		if _, err := br.Exec(); err != nil {
			_ = br.Close()
			return fmt.Errorf("failed to insert document: %w", err)
		}
	}
	if err := br.Close(); err != nil {
		return fmt.Errorf("failed to insert document: %w", err)
	}
	return tx.Commit(ctx)
}

// GetDocumentText returns the stored source text of a document
func (db *DB) GetDocumentText(ctx context.Context, userID, documentID uuid.UUID) (*types.SourceText, error) {
	src := &types.SourceText{}
	err := db.pool.QueryRow(ctx,
		`SELECT document_id, user_id, text, created_at FROM document_texts WHERE user_id = $1 AND document_id = $2`,
		userID, documentID,
	).Scan(&src.DocumentID, &src.UserID, &src.Text, &src.CreatedAt)
	if err != nil {
		if notFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get document text: %w", err)
	}
	return src, nil
}

// GetDocumentChunks returns the chunks of a document in order
func (db *DB) GetDocumentChunks(ctx context.Context, userID, documentID uuid.UUID) ([]types.Document, error) {
	out, err := db.queryChunks(ctx,
		`SELECT id, document_id, user_id, source, doc_type, chunk_index, text, embedding, created_at
		 FROM documents WHERE user_id = $1 AND document_id = $2 ORDER BY chunk_index`,
		userID, documentID,
	)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNotFound
	}
	return out, nil
}

// ListUserChunks returns every chunk the user owns, oldest document first
func (db *DB) ListUserChunks(ctx context.Context, userID uuid.UUID) ([]types.Document, error) {
	return db.queryChunks(ctx,
		`SELECT id, document_id, user_id, source, doc_type, chunk_index, text, embedding, created_at
		 FROM documents WHERE user_id = $1 ORDER BY created_at, document_id, chunk_index`,
		userID,
	)
}

func (db *DB) queryChunks(ctx context.Context, query string, args ...any) ([]types.Document, error) {
	rows, err := db.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query document chunks: %w", err)
	}
	defer rows.Close()

	var out []types.Document
	for rows.Next() {
		var d types.Document
		var docType string
		if err := rows.Scan(&d.ID, &d.DocumentID, &d.UserID, &d.Source, &docType, &d.ChunkIndex, &d.Text, &d.Embedding, &d.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document chunk: %w", err)
		}
		d.Type = types.DocumentType(docType)
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating document chunks: %w", err)
	}
	return out, nil
}

// ListDocuments summarises the user's uploads, newest first
func (db *DB) ListDocuments(ctx context.Context, userID uuid.UUID) ([]types.DocumentSummary, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT document_id, MIN(source), MIN(doc_type), COUNT(*), MIN(created_at)
		 FROM documents WHERE user_id = $1
		 GROUP BY document_id
		 ORDER BY MIN(created_at) DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer rows.Close()

	out := []types.DocumentSummary{}
	for rows.Next() {
		var s types.DocumentSummary
		var docType string
		if err := rows.Scan(&s.DocumentID, &s.Source, &docType, &s.Chunks, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan document summary: %w", err)
		}
		s.Type = types.DocumentType(docType)
		out = append(out, s)
	}
	return out, rows.Err()
}

// DeleteDocument removes every chunk of a document and its source text
func (db *DB) DeleteDocument(ctx context.Context, userID, documentID uuid.UUID) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	tag, err := tx.Exec(ctx, `DELETE FROM documents WHERE user_id = $1 AND document_id = $2`, userID, documentID)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	if _, err := tx.Exec(ctx, `DELETE FROM document_texts WHERE user_id = $1 AND document_id = $2`, userID, documentID); err != nil {
		return fmt.Errorf("failed to delete document text: %w", err)
	}
	return tx.Commit(ctx)
}
