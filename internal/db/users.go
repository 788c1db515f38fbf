package db

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jonathan/career-roadmap/internal/types"
)

// UpsertUser creates the user or updates name, email and profile
func (db *DB) UpsertUser(ctx context.Context, u *types.User) error {
	profile, err := json.Marshal(u.Profile)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	now := time.Now().UTC()
	err = db.pool.QueryRow(ctx,
		`INSERT INTO users (id, email, name, profile, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $5)
		 ON CONFLICT (id) DO UPDATE SET email = $2, name = $3, profile = $4, updated_at = $5
		 RETURNING created_at, updated_at`,
		u.ID, u.Email, u.Name, profile, now,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	return nil
}

// GetUser retrieves a user by id
func (db *DB) GetUser(ctx context.Context, id uuid.UUID) (*types.User, error) {
	var u types.User
	var profile []byte
	err := db.pool.QueryRow(ctx,
		`SELECT id, email, name, profile, created_at, updated_at FROM users WHERE id = $1`,
		id,
	).Scan(&u.ID, &u.Email, &u.Name, &profile, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		if notFound(err) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if err := json.Unmarshal(profile, &u.Profile); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}
	return &u, nil
}
