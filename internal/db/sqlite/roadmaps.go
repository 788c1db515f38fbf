package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/jonathan/career-roadmap/internal/db"
	"github.com/jonathan/career-roadmap/internal/types"
)

const roadmapColumns = `id, user_id, title, description, category, source, source_data, stages,
	overall_progress, estimated_completion_time, is_active, version, created_at, updated_at`

type scanner interface {
	Scan(dest ...any) error
}

func scanRoadmap(row scanner) (*types.Roadmap, error) {
	var rm types.Roadmap
	var source, stages, created, updated string
	var sourceData sql.NullString
	err := row.Scan(&rm.ID, &rm.UserID, &rm.Title, &rm.Description, &rm.Category, &source, &sourceData, &stages,
		&rm.OverallProgress, &rm.EstimatedCompletionTime, &rm.IsActive, &rm.Version, &created, &updated)
	if err != nil {
		return nil, err
	}
	rm.Source = types.RoadmapSource(source)
	rm.CreatedAt, rm.UpdatedAt = parseTS(created), parseTS(updated)
	if err := db.DecodeRoadmap(&rm, []byte(stages), []byte(sourceData.String)); err != nil {
		return nil, err
	}
	return &rm, nil
}

func nullable(b []byte) any {
	if b == nil {
		return nil
	}
	return string(b)
}

// CreateRoadmap inserts a new roadmap, deactivating others when it is active
func (s *Store) CreateRoadmap(ctx context.Context, rm *types.Roadmap) error {
	stages, sourceData, err := db.EncodeRoadmap(rm)
	if err != nil {
		return err
	}
	if rm.Version == 0 {
		rm.Version = 1
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if rm.IsActive {
		if _, err := tx.ExecContext(ctx, `UPDATE roadmaps SET is_active = 0 WHERE user_id = ?`, rm.UserID); err != nil {
			return fmt.Errorf("failed to deactivate roadmaps: %w", err)
		}
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO roadmaps (`+roadmapColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		rm.ID, rm.UserID, rm.Title, rm.Description, rm.Category, string(rm.Source), nullable(sourceData), string(stages),
		rm.OverallProgress, rm.EstimatedCompletionTime, rm.IsActive, rm.Version, ts(rm.CreatedAt), ts(rm.UpdatedAt),
	); err != nil {
		return fmt.Errorf("failed to insert roadmap: %w", err)
	}
	return tx.Commit()
}

// GetRoadmap retrieves one of the user's roadmaps
func (s *Store) GetRoadmap(ctx context.Context, userID, id uuid.UUID) (*types.Roadmap, error) {
	rm, err := scanRoadmap(s.db.QueryRowContext(ctx,
		`SELECT `+roadmapColumns+` FROM roadmaps WHERE id = ? AND user_id = ?`, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, db.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get roadmap: %w", err)
	}
	return rm, nil
}

// ListRoadmaps returns the user's roadmaps, newest first
func (s *Store) ListRoadmaps(ctx context.Context, userID uuid.UUID, activeOnly bool) ([]types.Roadmap, error) {
	query := `SELECT ` + roadmapColumns + ` FROM roadmaps WHERE user_id = ?`
	if activeOnly {
		query += ` AND is_active = 1`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list roadmaps: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []types.Roadmap{}
	for rows.Next() {
		rm, err := scanRoadmap(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan roadmap: %w", err)
		}
		out = append(out, *rm)
	}
	return out, rows.Err()
}

// UpdateRoadmap writes the roadmap if its version is unchanged
func (s *Store) UpdateRoadmap(ctx context.Context, rm *types.Roadmap) error {
	stages, sourceData, err := db.EncodeRoadmap(rm)
	if err != nil {
		return err
	}
	now := s.now()
	res, err := s.db.ExecContext(ctx,
		`UPDATE roadmaps
		 SET title = ?, description = ?, stages = ?, source_data = ?, overall_progress = ?,
		     estimated_completion_time = ?, version = version + 1, updated_at = ?
		 WHERE id = ? AND user_id = ? AND version = ?`,
		rm.Title, rm.Description, string(stages), nullable(sourceData), rm.OverallProgress,
		rm.EstimatedCompletionTime, ts(now), rm.ID, rm.UserID, rm.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update roadmap: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		var count int
		if err := s.db.QueryRowContext(ctx,
			`SELECT COUNT(*) FROM roadmaps WHERE id = ? AND user_id = ?`, rm.ID, rm.UserID,
		).Scan(&count); err != nil {
			return fmt.Errorf("failed to check roadmap: %w", err)
		}
		if count == 0 {
			return db.ErrNotFound
		}
		return db.ErrVersionConflict
	}
	rm.Version++
	rm.UpdatedAt = now
	return nil
}

// SetActive toggles the active flag; activation is exclusive per user
func (s *Store) SetActive(ctx context.Context, userID, id uuid.UUID, active bool) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := ts(s.now())
	if active {
		if _, err := tx.ExecContext(ctx,
			`UPDATE roadmaps SET is_active = 0, updated_at = ? WHERE user_id = ? AND is_active = 1 AND id <> ?`,
			now, userID, id,
		); err != nil {
			return fmt.Errorf("failed to deactivate roadmaps: %w", err)
		}
	}
	res, err := tx.ExecContext(ctx,
		`UPDATE roadmaps SET is_active = ?, updated_at = ? WHERE id = ? AND user_id = ?`, active, now, id, userID)
	if err != nil {
		return fmt.Errorf("failed to set roadmap active: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return db.ErrNotFound
	}
	return tx.Commit()
}

// DeleteRoadmap removes a roadmap and its progress records
func (s *Store) DeleteRoadmap(ctx context.Context, userID, id uuid.UUID) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	res, err := tx.ExecContext(ctx, `DELETE FROM roadmaps WHERE id = ? AND user_id = ?`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete roadmap: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return db.ErrNotFound
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM user_progress WHERE roadmap_id = ? AND user_id = ?`, id, userID); err != nil {
		return fmt.Errorf("failed to delete roadmap progress: %w", err)
	}
	return tx.Commit()
}
