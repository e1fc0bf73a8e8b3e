package domain

import "errors"

var (
	ErrUsernameTooLong    = errors.New("username too long")
	ErrUsernameEmpty      = errors.New("username empty")
	ErrPasswordTooShort   = errors.New("password too short")
	ErrPasswordTooLong    = errors.New("password too long")
	ErrUserExists         = errors.New("user already exists")
	ErrUserNotFound       = errors.New("user not found")
	ErrInvalidCredentials = errors.New("invalid credentials")

	ErrInvalidRoomID = errors.New("invalid room id")
	ErrRoomNotFound  = errors.New("room not found")
	ErrCreation      = errors.New("room creation failed")
)
