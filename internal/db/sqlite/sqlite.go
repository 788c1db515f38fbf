// Package sqlite is a single-file SQLite implementation of db.Store for
// local runs and tests.
package sqlite

import (
	"context"
	"database/sql"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/jonathan/career-roadmap/internal/db"
	"github.com/jonathan/career-roadmap/internal/types"
)

//go:embed schema.sql
var schemaSQL string

// Store implements db.Store on SQLite
type Store struct {
	db  *sql.DB
	now func() time.Time
}

var _ db.Store = (*Store)(nil)

// Open opens (or creates) the database at path and applies the schema.
// Use ":memory:" for a throwaway database.
func Open(ctx context.Context, path string) (*Store, error) {
	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}
	conn.SetMaxOpenConns(1) // single writer; keeps :memory: on one connection
	if _, err := conn.ExecContext(ctx, schemaSQL); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("failed to apply sqlite schema: %w", err)
	}
	return &Store{db: conn, now: func() time.Time { return time.Now().UTC() }}, nil
}

// Close closes the database
func (s *Store) Close() {
	_ = s.db.Close()
}

// timeLayout is fixed width so stored timestamps sort lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func ts(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTS(v string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, v)
	if err != nil {
		return time.Time{}
	}
	return t
}

// UpsertUser creates the user or updates name, email and profile
func (s *Store) UpsertUser(ctx context.Context, u *types.User) error {
	profile, err := json.Marshal(u.Profile)
	if err != nil {
		return fmt.Errorf("failed to marshal profile: %w", err)
	}
	now := s.now()
	if _, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, email, name, profile, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT (id) DO UPDATE SET email = excluded.email, name = excluded.name,
		     profile = excluded.profile, updated_at = excluded.updated_at`,
		u.ID, u.Email, u.Name, string(profile), ts(now), ts(now),
	); err != nil {
		return fmt.Errorf("failed to upsert user: %w", err)
	}
	stored, err := s.GetUser(ctx, u.ID)
	if err != nil {
		return err
	}
	u.CreatedAt, u.UpdatedAt = stored.CreatedAt, stored.UpdatedAt
	return nil
}

// GetUser retrieves a user by id
func (s *Store) GetUser(ctx context.Context, id uuid.UUID) (*types.User, error) {
	var u types.User
	var profile, created, updated string
	err := s.db.QueryRowContext(ctx,
		`SELECT id, email, name, profile, created_at, updated_at FROM users WHERE id = ?`, id,
	).Scan(&u.ID, &u.Email, &u.Name, &profile, &created, &updated)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, db.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if err := json.Unmarshal([]byte(profile), &u.Profile); err != nil {
		return nil, fmt.Errorf("failed to unmarshal profile: %w", err)
	}
	u.CreatedAt, u.UpdatedAt = parseTS(created), parseTS(updated)
	return &u, nil
}
