package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jonathan/career-roadmap/internal/db"
	"github.com/jonathan/career-roadmap/internal/types"
)

// SaveDocument stores the source text and the chunks of one upload in a
// transaction. src may be nil.
func (s *Store) SaveDocument(ctx context.Context, src *types.SourceText, chunks []types.Document) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if src != nil {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO document_texts (document_id, user_id, text, created_at) VALUES (?, ?, ?, ?)`,
			src.DocumentID, src.UserID, src.Text, ts(src.CreatedAt),
		); err != nil {
			return fmt.Errorf("failed to insert document text: %w", err)
		}
	}
	for _, c := range chunks {
		emb, err := json.Marshal(c.Embedding)
		if err != nil {
			return fmt.Errorf("failed to marshal embedding: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO documents (id, document_id, user_id, source, doc_type, chunk_index, text, embedding, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			c.ID, c.DocumentID, c.UserID, c.Source, string(c.Type), c.ChunkIndex, c.Text, string(emb), ts(c.CreatedAt),
		); err != nil {
			return fmt.Errorf("failed to insert document chunk: %w", err)
		}
	}
	return tx.Commit()
}

// GetDocumentText returns the stored source text of a document
func (s *Store) GetDocumentText(ctx context.Context, userID, documentID uuid.UUID) (*types.SourceText, error) {
	src := &types.SourceText{}
	var created string
	err := s.db.QueryRowContext(ctx,
		`SELECT document_id, user_id, text, created_at FROM document_texts WHERE user_id = ? AND document_id = ?`,
		userID, documentID,
	).Scan(&src.DocumentID, &src.UserID, &src.Text, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, db.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get document text: %w", err)
	}
	src.CreatedAt = parseTS(created)
	return src, nil
}

// GetDocumentChunks returns the chunks of a document in order
func (s *Store) GetDocumentChunks(ctx context.Context, userID, documentID uuid.UUID) ([]types.Document, error) {
	out, err := s.queryChunks(ctx,
		`SELECT id, document_id, user_id, source, doc_type, chunk_index, text, embedding, created_at
		 FROM documents WHERE user_id = ? AND document_id = ? ORDER BY chunk_index`,
		userID, documentID,
	)
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, db.ErrNotFound
	}
	return out, nil
}

// ListUserChunks returns every chunk the user owns, oldest document first
func (s *Store) ListUserChunks(ctx context.Context, userID uuid.UUID) ([]types.Document, error) {
	return s.queryChunks(ctx,
		`SELECT id, document_id, user_id, source, doc_type, chunk_index, text, embedding, created_at
		 FROM documents WHERE user_id = ? ORDER BY created_at, document_id, chunk_index`,
		userID,
	)
}

func (s *Store) queryChunks(ctx context.Context, query string, args ...any) ([]types.Document, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query document chunks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var out []types.Document
	for rows.Next() {
		var d types.Document
		var docType, emb, created string
		if err := rows.Scan(&d.ID, &d.DocumentID, &d.UserID, &d.Source, &docType, &d.ChunkIndex, &d.Text, &emb, &created); err != nil {
			return nil, fmt.Errorf("failed to scan document chunk: %w", err)
		}
		if emb != "" && emb != "null" {
			if err := json.Unmarshal([]byte(emb), &d.Embedding); err != nil {
				return nil, fmt.Errorf("failed to unmarshal embedding: %w", err)
			}
		}
		d.Type = types.DocumentType(docType)
		d.CreatedAt = parseTS(created)
		out = append(out, d)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating document chunks: %w", err)
	}
	return out, nil
}

// ListDocuments summarises the user's uploads, newest first
func (s *Store) ListDocuments(ctx context.Context, userID uuid.UUID) ([]types.DocumentSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT document_id, MIN(source), MIN(doc_type), COUNT(*), MIN(created_at)
		 FROM documents WHERE user_id = ?
		 GROUP BY document_id
		 ORDER BY MIN(created_at) DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []types.DocumentSummary{}
	for rows.Next() {
		var sum types.DocumentSummary
		var docType, created string
		if err := rows.Scan(&sum.DocumentID, &sum.Source, &docType, &sum.Chunks, &created); err != nil {
			return nil, fmt.Errorf("failed to scan document summary: %w", err)
		}
		sum.Type = types.DocumentType(docType)
		sum.CreatedAt = parseTS(created)
		out = append(out, sum)
	}
	return out, rows.Err()
}

// DeleteDocument removes every chunk of a document and its source text
func (s *Store) DeleteDocument(ctx context.Context, userID, documentID uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM documents WHERE user_id = ? AND document_id = ?`, userID, documentID)
	if err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return db.ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM document_texts WHERE user_id = ? AND document_id = ?`, userID, documentID); err != nil {
		return fmt.Errorf("failed to delete document text: %w", err)
	}
	return tx.Commit()
}
