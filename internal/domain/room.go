package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RoomID is the canonical (lowercase, hyphenated) UUID form of a room identifier.
type RoomID string

type Room struct {
	ID        RoomID    `json:"id"`
	Owner     UserID    `json:"owner"`
	CreatedAt time.Time `json:"created_at"`
}

// NewRoom allocates a fresh room owned by owner. Anonymous owners are rejected.
func NewRoom(owner UserID) (*Room, error) {
	if owner.IsAnonymous() {
		return nil, fmt.Errorf("%w: owner is anonymous", ErrCreation)
	}
	return &Room{
		ID:        RoomID(uuid.NewString()),
		Owner:     owner,
		CreatedAt: time.Now().UTC(),
	}, nil
}

// ParseRoomID validates raw against the UUID format and returns it canonicalised.
func ParseRoomID(raw string) (RoomID, error) {
	// uuid.Parse also accepts urn and braced forms; rooms only use the 36 char form.
	if len(raw) != 36 {
		return "", fmt.Errorf("%w: %q", ErrInvalidRoomID, raw)
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return "", fmt.Errorf("%w: %q", ErrInvalidRoomID, raw)
	}
	return RoomID(id.String()), nil
}
