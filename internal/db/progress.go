package db

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/career-roadmap/internal/types"
)

// UpsertProgress records a user action keyed by (user, roadmap, module, resource)
func (db *DB) UpsertProgress(ctx context.Context, p *types.UserProgress) error {
	now := time.Now().UTC()
	err := db.pool.QueryRow(ctx,
		`INSERT INTO user_progress (user_id, roadmap_id, module_id, resource_id, status, progress, time_spent, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $8)
		 ON CONFLICT (user_id, roadmap_id, module_id, resource_id) DO UPDATE SET
		     status = $5, progress = $6, time_spent = user_progress.time_spent + $7, updated_at = $8
		 RETURNING created_at, updated_at`,
		p.UserID, p.RoadmapID, p.ModuleID, p.ResourceID, string(p.Status), p.Progress, p.TimeSpent, now,
	).Scan(&p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert progress: %w", err)
	}
	return nil
}

// ListProgress returns the user's progress records for a roadmap
func (db *DB) ListProgress(ctx context.Context, userID, roadmapID uuid.UUID) ([]types.UserProgress, error) {
	rows, err := db.pool.Query(ctx,
		`SELECT user_id, roadmap_id, module_id, resource_id, status, progress, time_spent, created_at, updated_at
		 FROM user_progress WHERE user_id = $1 AND roadmap_id = $2
		 ORDER BY module_id, resource_id`,
		userID, roadmapID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list progress: %w", err)
	}
	defer rows.Close()

	out := []types.UserProgress{}
	for rows.Next() {
		var p types.UserProgress
		var status string
		if err := rows.Scan(&p.UserID, &p.RoadmapID, &p.ModuleID, &p.ResourceID, &status, &p.Progress, &p.TimeSpent, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan progress: %w", err)
		}
		p.Status = types.ProgressStatus(status)
		out = append(out, p)
	}
	return out, rows.Err()
}
