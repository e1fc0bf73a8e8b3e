package orch

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/VoiceRoom/internal/core"
	"github.com/dkeye/VoiceRoom/internal/domain"
)

// Connect registers a freshly upgraded connection. It starts Unbound.
func (o *Orchestrator) Connect(sid core.SessionID, sess core.MemberSession, cancel context.CancelFunc) {
	o.Registry.BindSignal(sid, sess, cancel)
}

// Join binds the connection to an existing room. Joining again rebinds; the last join wins.
func (o *Orchestrator) Join(ctx context.Context, sid core.SessionID, rawRoom string) (domain.RoomID, error) {
	sess, ok := o.Registry.GetSession(sid)
	if !ok {
		return "", ErrUnknownSession
	}
	if sess.Meta().Anonymous() && !o.AllowAnonymous {
		return "", ErrAnonymous
	}
	room, err := o.Rooms.Get(ctx, rawRoom)
	if err != nil {
		return "", err
	}

	if prev, _, ok := o.Registry.RoomOf(sid); ok && prev != room.ID {
		log.Info().Str("module", "orch").Str("sid", string(sid)).Str("from_room", string(prev)).Msg("rebinding to another room")
	}
	o.Registry.UpdateRoom(sid, room.ID)
	log.Info().Str("module", "orch").Str("sid", string(sid)).Str("user", string(sess.Meta().UserID())).Str("room", string(room.ID)).Msg("joined room")
	return room.ID, nil
}

// requireJoined resolves the room addressed by an event. An empty raw id means the
// current join target.
func (o *Orchestrator) requireJoined(sid core.SessionID, rawRoom string) (domain.RoomID, core.MemberSession, error) {
	current, sess, ok := o.Registry.RoomOf(sid)
	if !ok {
		return "", nil, ErrNotJoined
	}
	if rawRoom == "" {
		return current, sess, nil
	}
	id, err := domain.ParseRoomID(rawRoom)
	if err != nil {
		return "", nil, err
	}
	if id != current {
		return "", nil, fmt.Errorf("%w: joined %s, addressed %s", ErrNotJoined, current, id)
	}
	return current, sess, nil
}

// OnDisconnect is the only way a connection leaves its room.
func (o *Orchestrator) OnDisconnect(sid core.SessionID) {
	o.Registry.Unbind(sid)
}
