package sqlite

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/jonathan/career-roadmap/internal/types"
)

// UpsertProgress records a user action keyed by (user, roadmap, module, resource)
func (s *Store) UpsertProgress(ctx context.Context, p *types.UserProgress) error {
	now := ts(s.now())
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO user_progress (user_id, roadmap_id, module_id, resource_id, status, progress, time_spent, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		 ON CONFLICT (user_id, roadmap_id, module_id, resource_id) DO UPDATE SET
		     status = excluded.status, progress = excluded.progress,
		     time_spent = user_progress.time_spent + excluded.time_spent, updated_at = excluded.updated_at`,
		p.UserID, p.RoadmapID, p.ModuleID, p.ResourceID, string(p.Status), p.Progress, p.TimeSpent, now, now,
	); err != nil {
		return fmt.Errorf("failed to upsert progress: %w", err)
	}
	var created, updated string
	if err := s.db.QueryRowContext(ctx,
		`SELECT created_at, updated_at FROM user_progress
		 WHERE user_id = ? AND roadmap_id = ? AND module_id = ? AND resource_id = ?`,
		p.UserID, p.RoadmapID, p.ModuleID, p.ResourceID,
	).Scan(&created, &updated); err != nil {
		return fmt.Errorf("failed to read progress: %w", err)
	}
	p.CreatedAt, p.UpdatedAt = parseTS(created), parseTS(updated)
	return nil
}

// ListProgress returns the user's progress records for a roadmap
func (s *Store) ListProgress(ctx context.Context, userID, roadmapID uuid.UUID) ([]types.UserProgress, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT user_id, roadmap_id, module_id, resource_id, status, progress, time_spent, created_at, updated_at
		 FROM user_progress WHERE user_id = ? AND roadmap_id = ?
		 ORDER BY module_id, resource_id`,
		userID, roadmapID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list progress: %w", err)
	}
	defer func() { _ = rows.Close() }()

	out := []types.UserProgress{}
	for rows.Next() {
		var p types.UserProgress
		var status, created, updated string
		if err := rows.Scan(&p.UserID, &p.RoadmapID, &p.ModuleID, &p.ResourceID, &status, &p.Progress, &p.TimeSpent, &created, &updated); err != nil {
			return nil, fmt.Errorf("failed to scan progress: %w", err)
		}
		p.Status = types.ProgressStatus(status)
		p.CreatedAt, p.UpdatedAt = parseTS(created), parseTS(updated)
		out = append(out, p)
	}
	return out, rows.Err()
}
