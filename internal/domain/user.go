// Package domain contains entity without logic, just meta-data
package domain

import (
	"github.com/google/uuid"
)

const (
	MaxUserIDLen   = 36
	MaxUsernameLen = 36
	MinPasswordLen = 8
	MaxPasswordLen = 72 // bcrypt ignores anything longer
)

// UserID identifies an account. The zero value is the anonymous identity.
type UserID string

func (id UserID) IsAnonymous() bool { return id == "" }

type User struct {
	ID           UserID `json:"id"`
	Username     string `json:"username"`
	Email        string `json:"email,omitempty"`
	GoogleID     string `json:"-"`
	PasswordHash string `json:"-"`
}

// NewUser is a tiny helper to avoid ad-hoc struct literals in adapters.
func NewUser(username string) (*User, error) {
	if err := ValidateUsername(username); err != nil {
		return nil, err
	}
	id := UserID(uuid.NewString())
	return &User{ID: id, Username: username}, nil
}

func ValidateUsername(username string) error {
	if len(username) == 0 {
		return ErrUsernameEmpty
	}
	if len(username) > MaxUsernameLen {
		return ErrUsernameTooLong
	}
	return nil
}

func (u *User) SetUsername(username string) error {
	if err := ValidateUsername(username); err != nil {
		return err
	}
	u.Username = username
	return nil
}
