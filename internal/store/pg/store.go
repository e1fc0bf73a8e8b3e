// Package pg stores users and rooms in PostgreSQL through gorm.
package pg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"github.com/dkeye/VoiceRoom/internal/domain"
)

type userModel struct {
	ID           string  `gorm:"primaryKey;type:uuid"`
	Username     string  `gorm:"uniqueIndex;not null"`
	Email        string  `gorm:"not null;default:''"`
	GoogleID     *string `gorm:"uniqueIndex"`
	PasswordHash string  `gorm:"not null;default:''"`
	CreatedAt    time.Time
}

func (userModel) TableName() string { return "users" }

type roomModel struct {
	ID        string `gorm:"primaryKey;type:uuid"`
	OwnerID   string `gorm:"type:uuid;index;not null"`
	CreatedAt time.Time
}

func (roomModel) TableName() string { return "rooms" }

type Store struct {
	db *gorm.DB
}

func Open(dsn string) (*Store, error) {
	db, err := gorm.Open(postgres.Open(dsn), &gorm.Config{
		DisableForeignKeyConstraintWhenMigrating: true,
		SkipDefaultTransaction:                   true,
		TranslateError:                           true,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	if err := db.AutoMigrate(&userModel{}, &roomModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

func (s *Store) CreateUser(ctx context.Context, u *domain.User) error {
	m := toUserModel(u)
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return fmt.Errorf("%w: %s", domain.ErrUserExists, u.Username)
		}
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

func (s *Store) UserByID(ctx context.Context, id domain.UserID) (*domain.User, error) {
	return s.firstUser(ctx, "id = ?", string(id))
}

func (s *Store) UserByUsername(ctx context.Context, username string) (*domain.User, error) {
	return s.firstUser(ctx, "username = ?", username)
}

func (s *Store) UserByGoogleID(ctx context.Context, googleID string) (*domain.User, error) {
	return s.firstUser(ctx, "google_id = ?", googleID)
}

func (s *Store) firstUser(ctx context.Context, query string, arg any) (*domain.User, error) {
	var m userModel
	if err := s.db.WithContext(ctx).Where(query, arg).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrUserNotFound
		}
		return nil, fmt.Errorf("select user: %w", err)
	}
	return fromUserModel(m), nil
}

func (s *Store) CreateRoom(ctx context.Context, r *domain.Room) error {
	m := roomModel{ID: string(r.ID), OwnerID: string(r.Owner), CreatedAt: r.CreatedAt}
	if err := s.db.WithContext(ctx).Create(&m).Error; err != nil {
		return fmt.Errorf("insert room: %w", err)
	}
	return nil
}

func (s *Store) RoomByID(ctx context.Context, id domain.RoomID) (*domain.Room, error) {
	var m roomModel
	if err := s.db.WithContext(ctx).Where("id = ?", string(id)).First(&m).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, domain.ErrRoomNotFound
		}
		return nil, fmt.Errorf("select room: %w", err)
	}
	return &domain.Room{ID: domain.RoomID(m.ID), Owner: domain.UserID(m.OwnerID), CreatedAt: m.CreatedAt}, nil
}

func toUserModel(u *domain.User) userModel {
	m := userModel{
		ID:           string(u.ID),
		Username:     u.Username,
		Email:        u.Email,
		PasswordHash: u.PasswordHash,
	}
	if u.GoogleID != "" {
		gid := u.GoogleID
		m.GoogleID = &gid
	}
	return m
}

func fromUserModel(m userModel) *domain.User {
	u := &domain.User{
		ID:           domain.UserID(m.ID),
		Username:     m.Username,
		Email:        m.Email,
		PasswordHash: m.PasswordHash,
	}
	if m.GoogleID != nil {
		u.GoogleID = *m.GoogleID
	}
	return u
}
