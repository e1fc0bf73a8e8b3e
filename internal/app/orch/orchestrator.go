// Package orch is the relay core: it binds connections to rooms and fans room events out.
package orch

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/dkeye/VoiceRoom/internal/app"
	"github.com/dkeye/VoiceRoom/internal/core"
	"github.com/dkeye/VoiceRoom/internal/protocol"
)

var (
	ErrUnknownSession = errors.New("unknown session")
	ErrNotJoined      = errors.New("sender has not joined the room")
	ErrAnonymous      = errors.New("anonymous connection")
	ErrUnknownEvent   = errors.New("unknown event")
)

// HandlerFunc handles one inbound event of a connection.
type HandlerFunc func(ctx context.Context, sid core.SessionID, data []byte) error

type Orchestrator struct {
	Registry *app.Registry
	Rooms    *app.Rooms
	Policy   app.Policy

	// AllowAnonymous lets connections without a resolved user join rooms.
	AllowAnonymous bool

	handlers map[protocol.EventType]HandlerFunc
}

func New(reg *app.Registry, rooms *app.Rooms, policy app.Policy) *Orchestrator {
	o := &Orchestrator{
		Registry: reg,
		Rooms:    rooms,
		Policy:   policy,
	}
	o.handlers = map[protocol.EventType]HandlerFunc{
		protocol.JoinRoom:       o.handleJoin,
		protocol.SendMessage:    o.handleMessage,
		protocol.SendAudioChunk: o.handleAudioChunk,
		protocol.StartRecording: o.handleStartRecording,
	}
	return o
}

// Dispatch routes one raw inbound frame to its handler.
func (o *Orchestrator) Dispatch(ctx context.Context, sid core.SessionID, data []byte) error {
	typ, err := protocol.TypeOf(data)
	if err != nil {
		return err
	}
	h, ok := o.handlers[typ]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownEvent, typ)
	}
	return h(ctx, sid, data)
}

func (o *Orchestrator) handleJoin(ctx context.Context, sid core.SessionID, data []byte) error {
	p, err := protocol.Decode[protocol.JoinRoomPayload](data)
	if err != nil {
		return err
	}
	room, err := o.Join(ctx, sid, p.RoomID)
	if err != nil {
		return err
	}
	o.sendTo(sid, protocol.JoinedEvent{Type: protocol.Joined, RoomID: string(room)})
	return nil
}

func (o *Orchestrator) handleMessage(_ context.Context, sid core.SessionID, data []byte) error {
	p, err := protocol.Decode[protocol.MessagePayload](data)
	if err != nil {
		return err
	}
	_, err = o.RelayChat(sid, p.RoomID, p.Message)
	return err
}

func (o *Orchestrator) handleAudioChunk(_ context.Context, sid core.SessionID, data []byte) error {
	p, err := protocol.Decode[protocol.AudioChunkPayload](data)
	if err != nil {
		return err
	}
	_, err = o.RelayAudioChunk(sid, p.RoomID, p.Chunk, p.First)
	return err
}

func (o *Orchestrator) handleStartRecording(_ context.Context, sid core.SessionID, data []byte) error {
	p, err := protocol.Decode[protocol.StartRecordingPayload](data)
	if err != nil {
		return err
	}
	_, err = o.NotifyRecordingStart(sid, p.RoomID)
	return err
}

func (o *Orchestrator) sendTo(sid core.SessionID, v any) {
	sess, ok := o.Registry.GetSession(sid)
	if !ok {
		return
	}
	b, err := protocol.Encode(v)
	if err != nil {
		log.Error().Err(err).Str("module", "orch").Msg("sendTo encode")
		return
	}
	if err := sess.Signal().TrySend(b); err != nil {
		log.Warn().Err(err).Str("module", "orch").Str("sid", string(sid)).Msg("sendTo dropped")
	}
}
