package db

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/jonathan/career-roadmap/internal/types"
)

// SaveMatchResult stores an immutable match result
func (db *DB) SaveMatchResult(ctx context.Context, r *types.MatchResult) error {
	body, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("failed to marshal match result: %w", err)
	}
	_, err = db.pool.Exec(ctx,
		`INSERT INTO match_results (id, user_id, overall_score, body, created_at) VALUES ($1, $2, $3, $4, $5)`,
		r.ID, r.UserID, r.OverallScore, body, r.Timestamp,
	)
	if err != nil {
		return fmt.Errorf("failed to save match result: %w", err)
	}
	return nil
}

// GetMatchResult retrieves one of the user's match results
func (db *DB) GetMatchResult(ctx context.Context, userID, id uuid.UUID) (*types.MatchResult, error) {
	var body []byte
	err := db.pool.QueryRow(ctx,
		`SELECT body FROM match_results WHERE id = $1 AND user_id = $2`, id, userID,
	).Scan(&body)
	if err != nil {
		if notFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get match result: %w", err)
	}
	var r types.MatchResult
	if err := json.Unmarshal(body, &r); err != nil {
		return nil, fmt.Errorf("failed to unmarshal match result: %w", err)
	}
	return &r, nil
}

// ListMatchResults returns the user's most recent match results
func (db *DB) ListMatchResults(ctx context.Context, userID uuid.UUID, limit int) ([]types.MatchResult, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := db.pool.Query(ctx,
		`SELECT body FROM match_results WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2`, userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list match results: %w", err)
	}
	defer rows.Close()

	out := []types.MatchResult{}
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, fmt.Errorf("failed to scan match result: %w", err)
		}
		var r types.MatchResult
		if err := json.Unmarshal(body, &r); err != nil {
			return nil, fmt.Errorf("failed to unmarshal match result: %w", err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
