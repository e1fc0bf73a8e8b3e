package core

import "github.com/dkeye/VoiceRoom/internal/domain"

// SessionID identifies one live connection. It is never reused.
type SessionID string

// MemberSession binds domain.Member and its transport endpoint.
// This is what the relay fans out to.
type MemberSession interface {
	Meta() *domain.Member
	Signal() SignalConnection
}
