// Package sqlite is the default, file backed store.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/dkeye/VoiceRoom/internal/domain"
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
    id            TEXT PRIMARY KEY,
    username      TEXT NOT NULL UNIQUE,
    email         TEXT NOT NULL DEFAULT '',
    google_id     TEXT UNIQUE,
    password_hash TEXT NOT NULL DEFAULT '',
    created_at    TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS rooms (
    id         TEXT PRIMARY KEY,
    owner_id   TEXT NOT NULL REFERENCES users(id),
    created_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_rooms_owner ON rooms(owner_id);
`

// Store manages users and rooms backed by SQLite.
type Store struct {
	db   *sql.DB
	path string
}

// Open initializes or connects to the database file at path and applies the schema.
func Open(path string) (*Store, error) {
	if path == "" {
		path = "voiceroom.db"
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("ensure db dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA foreign_keys = ON",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, execErr := db.Exec(pragma); execErr != nil {
			_ = db.Close()
			return nil, fmt.Errorf("apply pragma %q: %w", pragma, execErr)
		}
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}

	return &Store{db: db, path: path}, nil
}

// Close closes the underlying database connection.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}

func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	var googleID any
	if u.GoogleID != "" {
		googleID = u.GoogleID
	}
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO users (id, username, email, google_id, password_hash, created_at)
         VALUES (?, ?, ?, ?, ?, ?)`,
		string(u.ID), u.Username, u.Email, googleID, u.PasswordHash,
		time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE constraint failed") {
			return fmt.Errorf("%w: %s", domain.ErrUserExists, u.Username)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *Store) UserByID(ctx context.Context, id domain.UserID) (*domain.User, error) {
	return s.queryUser(ctx, "id", string(id))
}

func (s *Store) UserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.queryUser(ctx, "username", username)
}

func (s *Store) UserByGoogleID(ctx context.Context, googleID string) (*domain.User, error) {
	return s.queryUser(ctx, "google_id", googleID)
}

// queryUser is only called with column names from this file.
func (s *Store) queryUser(ctx context.Context, column, value string) (*domain.User, error) {
	row := s.db.QueryRowContext(
		ctx,
		`SELECT id, username, email, COALESCE(google_id, ''), password_hash FROM users WHERE `+column+` = ?`,
		value,
	)
	var (
		u  domain.User
		id string
	)
	if err := row.Scan(&id, &u.Username, &u.Email, &u.GoogleID, &u.PasswordHash); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("select user by %s: %w", column, err)
	}
	u.ID = domain.UserID(id)
	return &u, nil
}

func (s *Store) CreateRoom(ctx context.Context, r *domain.Room) error {
	_, err := s.db.ExecContext(
		ctx,
		`INSERT INTO rooms (id, owner_id, created_at) VALUES (?, ?, ?)`,
		string(r.ID), string(r.Owner), r.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("insert room: %w", err)
	}
	return nil
}

func (s *Store) RoomByID(ctx context.Context, id domain.RoomID) (*domain.Room, error) {
	row := s.db.QueryRowContext(ctx, `SELECT id, owner_id, created_at FROM rooms WHERE id = ?`, string(id))
	var (
		rid, owner, created string
	)
	if err := row.Scan(&rid, &owner, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrRoomNotFound
		}
		return nil, fmt.Errorf("select room: %w", err)
	}
	at, err := time.Parse(time.RFC3339Nano, created)
	if err != nil {
		return nil, fmt.Errorf("parse room created_at: %w", err)
	}
	return &domain.Room{ID: domain.RoomID(rid), Owner: domain.UserID(owner), CreatedAt: at}, nil
}
