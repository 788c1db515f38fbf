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

// SaveMatchResult stores an immutable match result
func (s *Store) SaveMatchResult(ctx context.Context, r *types.MatchResult) error {
	body, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal match result: %w", err)
	}
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO match_results (id, user_id, overall_score, body, created_at) VALUES (?, ?, ?, ?, ?)`,
		r.ID, r.UserID, r.OverallScore, string(body), ts(r.Timestamp),
	); err != nil {
		return fmt.Errorf("failed to save match result: %w", err)
	}
	return nil
}

// GetMatchResult retrieves one of the user's match results
func (s *Store) GetMatchResult(ctx context.Context, userID, id uuid.UUID) (*types.MatchResult, error) {
	var body string
	err := s.db.QueryRowContext(ctx, `SELECT body FROM match_results WHERE id = ? AND user_id = ?`, id, userID).Scan(&body)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, db.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get match result: %w", err)
	}
	var r types.MatchResult
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		return nil, fmt.Errorf("failed to unmarshal match result: %w", err)
	}
	return &r, nil
}

// ListMatchResults returns the user's most recent match results
func (s *Store) ListMatchResults(ctx context.Context, userID uuid.UUID, limit int) ([]types.MatchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT body FROM match_results WHERE user_id = ? ORDER BY created_at DESC LIMIT ?`, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list match results: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []types.MatchResult{}
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("failed to scan match result: %w", err)
		}
		var r types.MatchResult
		if err := json.Unmarshal([]byte(body), &r); err != nil {
			return nil, fmt.Errorf("failed to unmarshal match result: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
