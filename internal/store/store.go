//go:generate go run go.uber.org/mock/mockgen -source=store.go -destination=../mocks/mock_store.go -package=mocks

// Package store persists accounts and room records. Live membership is never stored here.
package store

import (
	"context"
	"fmt"

	"github.com/dkeye/VoiceRoom/internal/domain"
	"github.com/dkeye/VoiceRoom/internal/store/pg"
	"github.com/dkeye/VoiceRoom/internal/store/sqlite"
)

type UserStore interface {
	CreateUser(ctx context.Context, u *domain.User) error
	UserByID(ctx context.Context, id domain.UserID) (*domain.User, error)
	UserByUsername(ctx context.Context, username string) (*domain.User, error)
	UserByGoogleID(ctx context.Context, googleID string) (*domain.User, error)
}

type RoomStore interface {
	CreateRoom(ctx context.Context, r *domain.Room) error
	RoomByID(ctx context.Context, id domain.RoomID) (*domain.Room, error)
}

type Store interface {
	UserStore
	RoomStore
	Close() error
}

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

// Open connects the backend named by driver.
func Open(driver, dsn string) (Store, error) {
	switch driver {
	case DriverSQLite, "":
		return sqlite.Open(dsn)
	case DriverPostgres:
		return pg.Open(dsn)
	default:
		return nil, fmt.Errorf("unknown db driver %q", driver)
	}
}
