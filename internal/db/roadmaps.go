package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jonathan/career-roadmap/internal/types"
)

const roadmapColumns = `id, user_id, title, description, category, source, source_data, stages,
	overall_progress, estimated_completion_time, is_active, version, created_at, updated_at`

// EncodeRoadmap marshals the JSON columns of a roadmap
func EncodeRoadmap(rm *types.Roadmap) (stages, sourceData []byte, err error) {
	stages, err = json.Marshal(rm.Stages)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to marshal stages: %w", err)
	}
	if rm.SourceData != nil {
		sourceData, err = json.Marshal(rm.SourceData)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to marshal source data: %w", err)
		}
	}
	return stages, sourceData, nil
}

// DecodeRoadmap unmarshals the JSON columns into rm
func DecodeRoadmap(rm *types.Roadmap, stages, sourceData []byte) error {
	if err := json.Unmarshal(stages, &rm.Stages); err != nil {
		return fmt.Errorf("failed to unmarshal stages: %w", err)
	}
	if len(sourceData) > 0 {
		if err := json.Unmarshal(sourceData, &rm.SourceData); err != nil {
			return fmt.Errorf("failed to unmarshal source data: %w", err)
		}
	}
	return nil
}

func scanRoadmap(row pgx.Row) (*types.Roadmap, error) {
	var rm types.Roadmap
	var source string
	var stages, sourceData []byte
	err := row.Scan(&rm.ID, &rm.UserID, &rm.Title, &rm.Description, &rm.Category, &source, &sourceData, &stages,
		&rm.OverallProgress, &rm.EstimatedCompletionTime, &rm.IsActive, &rm.Version, &rm.CreatedAt, &rm.UpdatedAt)
	if err != nil {
		return nil, err
	}
	rm.Source = types.RoadmapSource(source)
	if err := DecodeRoadmap(&rm, stages, sourceData); err != nil {
		return nil, err
	}
	return &rm, nil
}

// CreateRoadmap inserts a new roadmap. An active roadmap deactivates the
// user's other roadmaps in the same transaction.
func (db *DB) CreateRoadmap(ctx context.Context, rm *types.Roadmap) error {
	stages, sourceData, err := EncodeRoadmap(rm)
	if err != nil {
		return err
	}
	if rm.Version == 0 {
		rm.Version = 1
	}

	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if rm.IsActive {
		if _, err := tx.Exec(ctx, `UPDATE roadmaps SET is_active = FALSE WHERE user_id = $1 AND is_active`, rm.UserID); err != nil {
			return fmt.Errorf("failed to deactivate roadmaps: %w", err)
		}
	}
	_, err = tx.Exec(ctx,
		`INSERT INTO roadmaps (`+roadmapColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)`,
		rm.ID, rm.UserID, rm.Title, rm.Description, rm.Category, string(rm.Source), sourceData, stages,
		rm.OverallProgress, rm.EstimatedCompletionTime, rm.IsActive, rm.Version, rm.CreatedAt, rm.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert roadmap: %w", err)
	}
	return tx.Commit(ctx)
}

// GetRoadmap retrieves one of the user's roadmaps
func (db *DB) GetRoadmap(ctx context.Context, userID, id uuid.UUID) (*types.Roadmap, error) {
	rm, err := scanRoadmap(db.pool.QueryRow(ctx,
		`SELECT `+roadmapColumns+` FROM roadmaps WHERE id = $1 AND user_id = $2`, id, userID))
	if err != nil {
		if notFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get roadmap: %w", err)
	}
	return rm, nil
}

// ListRoadmaps returns the user's roadmaps, newest first
func (db *DB) ListRoadmaps(ctx context.Context, userID uuid.UUID, activeOnly bool) ([]types.Roadmap, error) {
	query := `SELECT ` + roadmapColumns + ` FROM roadmaps WHERE user_id = $1`
	if activeOnly {
		query += ` AND is_active`
	}
	query += ` ORDER BY created_at DESC`

	rows, err := db.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to list roadmaps: %w", err)
	}
	defer rows.Close()

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

// UpdateRoadmap writes stages, progress and metadata guarded by the version column
func (db *DB) UpdateRoadmap(ctx context.Context, rm *types.Roadmap) error {
	stages, sourceData, err := EncodeRoadmap(rm)
	if err != nil {
		return err
	}
	now := time.Now().UTC()
	tag, err := db.pool.Exec(ctx,
		`UPDATE roadmaps
		 SET title = $1, description = $2, stages = $3, source_data = $4, overall_progress = $5,
		     estimated_completion_time = $6, version = version + 1, updated_at = $7
		 WHERE id = $8 AND user_id = $9 AND version = $10`,
		rm.Title, rm.Description, stages, sourceData, rm.OverallProgress,
		rm.EstimatedCompletionTime, now, rm.ID, rm.UserID, rm.Version,
	)
	if err != nil {
		return fmt.Errorf("failed to update roadmap: %w", err)
	}
	if tag.RowsAffected() == 0 {
		var exists bool
		if err := db.pool.QueryRow(ctx,
			`SELECT EXISTS (SELECT 1 FROM roadmaps WHERE id = $1 AND user_id = $2)`, rm.ID, rm.UserID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("failed to check roadmap: %w", err)
		}
		if !exists {
			return ErrNotFound
		}
		return ErrVersionConflict
	}
	rm.Version++
	rm.UpdatedAt = now
	return nil
}

// SetActive toggles the active flag; activation is exclusive per user
func (db *DB) SetActive(ctx context.Context, userID, id uuid.UUID, active bool) error {
	tx, err := db.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	if active {
		if _, err := tx.Exec(ctx,
			`UPDATE roadmaps SET is_active = FALSE, updated_at = NOW() WHERE user_id = $1 AND is_active AND id <> $2`,
			userID, id,
		); err != nil {
			return fmt.Errorf("failed to deactivate roadmaps: %w", err)
		}
	}
	tag, err := tx.Exec(ctx,
		`UPDATE roadmaps SET is_active = $1, updated_at = NOW() WHERE id = $2 AND user_id = $3`,
		active, id, userID,
	)
	if err != nil {
		return fmt.Errorf("failed to set roadmap active: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return tx.Commit(ctx)
}

// DeleteRoadmap removes a roadmap; progress rows cascade
func (db *DB) DeleteRoadmap(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := db.pool.Exec(ctx, `DELETE FROM roadmaps WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete roadmap: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
