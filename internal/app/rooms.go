package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/VoiceRoom/internal/core"
	"github.com/dkeye/VoiceRoom/internal/domain"
	"github.com/dkeye/VoiceRoom/internal/store"
)

// Rooms is the room registry: persisted room records plus the live membership view.
type Rooms struct {
	store    store.RoomStore
	registry *Registry
}

func NewRooms(s store.RoomStore, reg *Registry) *Rooms {
	return &Rooms{store: s, registry: reg}
}

// Create persists a new room owned by owner.
func (r *Rooms) Create(ctx context.Context, owner domain.UserID) (*domain.Room, error) {
	room, err := domain.NewRoom(owner)
	if err != nil {
		return nil, err
	}
	if err := r.store.CreateRoom(ctx, room); err != nil {
		return nil, fmt.Errorf("%w: %w", domain.ErrCreation, err)
	}
	log.Info().Str("module", "app.rooms").Str("room", string(room.ID)).Str("owner", string(owner)).Msg("room created")
	return room, nil
}

// Get validates raw before touching the store; malformed ids never reach a lookup.
func (r *Rooms) Get(ctx context.Context, raw string) (*domain.Room, error) {
	id, err := domain.ParseRoomID(raw)
	if err != nil {
		return nil, err
	}
	return r.store.RoomByID(ctx, id)
}

// Exists reports false with a nil error for a well-formed id that has no record.
func (r *Rooms) Exists(ctx context.Context, raw string) (bool, error) {
	_, err := r.Get(ctx, raw)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, domain.ErrRoomNotFound):
		return false, nil
	default:
		return false, err
	}
}

// Members is derived from the connection table, never stored.
func (r *Rooms) Members(id domain.RoomID) []core.Target {
	return r.registry.MembersOfRoom(id)
}
