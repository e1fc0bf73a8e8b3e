package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/VoiceRoom/internal/domain"
	"github.com/dkeye/VoiceRoom/internal/store"
)

// Accounts registers and authenticates users.
type Accounts struct {
	users store.UserStore
}

func NewAccounts(users store.UserStore) *Accounts {
	return &Accounts{users: users}
}

func (a *Accounts) Register(ctx context.Context, username, password string) (*domain.User, error) {
	if err := ValidateRegistration(username, password); err != nil {
		return nil, err
	}
	u, err := domain.NewUser(username)
	if err != nil {
		return nil, err
	}
	hash, err := HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hashing failed: %w", err)
	}
	u.PasswordHash = hash
	if err := a.users.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	log.Info().Str("module", "auth.accounts").Str("user", string(u.ID)).Msg("registered")
	return u, nil
}

// Login never tells an unknown user apart from a wrong password.
func (a *Accounts) Login(ctx context.Context, username, password string) (*domain.User, error) {
	u, err := a.users.UserByUsername(ctx, username)
	if err != nil {
		return nil, domain.ErrInvalidCredentials
	}
	if u.PasswordHash == "" {
		return nil, domain.ErrInvalidCredentials
	}
	ok, err := ComparePassword(password, u.PasswordHash)
	if err != nil || !ok {
		return nil, domain.ErrInvalidCredentials
	}
	return u, nil
}

// LoginGoogle finds the account linked to the Google subject or creates one.
func (a *Accounts) LoginGoogle(ctx context.Context, p *GoogleProfile) (*domain.User, error) {
	u, err := a.users.UserByGoogleID(ctx, p.Sub)
	if err == nil {
		return u, nil
	}
	if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, err
	}

	name := p.Name
	if domain.ValidateUsername(name) != nil {
		name = "google-" + p.Sub
		if len(name) > domain.MaxUsernameLen {
			name = name[:domain.MaxUsernameLen]
		}
	}
	u = &domain.User{
		ID:       domain.UserID(uuid.NewString()),
		Username: name,
		Email:    p.Email,
		GoogleID: p.Sub,
	}
	if err := a.users.CreateUser(ctx, u); err != nil {
		if !errors.Is(err, domain.ErrUserExists) {
			return nil, err
		}
		// display name taken by another account
		u.Username = u.Username[:min(len(u.Username), domain.MaxUsernameLen-9)] + "-" + string(u.ID)[:8]
		if err := a.users.CreateUser(ctx, u); err != nil {
			return nil, err
		}
	}
	log.Info().Str("module", "auth.accounts").Str("user", string(u.ID)).Msg("registered via google")
	return u, nil
}
