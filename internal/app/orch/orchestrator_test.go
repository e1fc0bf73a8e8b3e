package orch

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/VoiceRoom/internal/app"
	"github.com/dkeye/VoiceRoom/internal/core"
	"github.com/dkeye/VoiceRoom/internal/domain"
	"github.com/dkeye/VoiceRoom/internal/protocol"
)

type memRooms struct {
	mu    sync.Mutex
	rooms map[domain.RoomID]*domain.Room
	reads int
}

func (m *memRooms) CreateRoom(_ context.Context, r *domain.Room) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rooms[r.ID] = r
	return nil
}

func (m *memRooms) RoomByID(_ context.Context, id domain.RoomID) (*domain.Room, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reads++
	r, ok := m.rooms[id]
	if !ok {
		return nil, domain.ErrRoomNotFound
	}
	return r, nil
}

type recorder struct {
	mu     sync.Mutex
	frames [][]byte
	full   bool
}

func (r *recorder) TrySend(f core.Frame) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.full {
		return errors.New("backpressure")
	}
	r.frames = append(r.frames, f)
	return nil
}

func (r *recorder) Close() {}

func (r *recorder) events(t *testing.T) []map[string]any {
	t.Helper()
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]map[string]any, 0, len(r.frames))
	for _, f := range r.frames {
		var m map[string]any
		require.NoError(t, json.Unmarshal(f, &m))
		out = append(out, m)
	}
	return out
}

func (r *recorder) ofType(t *testing.T, typ protocol.EventType) []map[string]any {
	var out []map[string]any
	for _, e := range r.events(t) {
		if e["type"] == string(typ) {
			out = append(out, e)
		}
	}
	return out
}

type fixture struct {
	orch  *Orchestrator
	rooms *app.Rooms
	store *memRooms
}

func newFixture() *fixture {
	reg := app.NewRegistry()
	st := &memRooms{rooms: make(map[domain.RoomID]*domain.Room)}
	rooms := app.NewRooms(st, reg)
	return &fixture{orch: New(reg, rooms, app.SimplePolicy{}), rooms: rooms, store: st}
}

func (f *fixture) connect(sid core.SessionID, username string) *recorder {
	rec := &recorder{}
	var user *domain.User
	if username != "" {
		user = &domain.User{ID: domain.UserID("id-" + username), Username: username}
	}
	f.orch.Connect(sid, core.NewMemberSession(domain.NewMember(user), rec), nil)
	return rec
}

func (f *fixture) dispatch(t *testing.T, sid core.SessionID, v any) error {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return f.orch.Dispatch(context.Background(), sid, b)
}

func TestJoin(t *testing.T) {
	ctx := context.Background()

	t.Run("rejects malformed ids before any lookup", func(t *testing.T) {
		req := require.New(t)
		f := newFixture()
		f.connect("a", "alice")

		_, err := f.orch.Join(ctx, "a", "not-a-uuid")
		req.ErrorIs(err, domain.ErrInvalidRoomID)
		req.Zero(f.store.reads)
	})

	t.Run("rejects well-formed unknown rooms", func(t *testing.T) {
		req := require.New(t)
		f := newFixture()
		f.connect("a", "alice")

		_, err := f.orch.Join(ctx, "a", uuid.NewString())
		req.ErrorIs(err, domain.ErrRoomNotFound)
		_, _, ok := f.orch.Registry.RoomOf("a")
		req.False(ok)
	})

	t.Run("anonymous connections cannot join unless allowed", func(t *testing.T) {
		req := require.New(t)
		f := newFixture()
		f.connect("anon", "")
		room, err := f.rooms.Create(ctx, "id-alice")
		req.NoError(err)

		_, err = f.orch.Join(ctx, "anon", string(room.ID))
		req.ErrorIs(err, ErrAnonymous)

		f.orch.AllowAnonymous = true
		_, err = f.orch.Join(ctx, "anon", string(room.ID))
		req.NoError(err)
	})

	t.Run("re-join is idempotent and the last join wins", func(t *testing.T) {
		req := require.New(t)
		f := newFixture()
		rec := f.connect("a", "alice")
		r1, err := f.rooms.Create(ctx, "id-alice")
		req.NoError(err)
		r2, err := f.rooms.Create(ctx, "id-alice")
		req.NoError(err)

		req.NoError(f.dispatch(t, "a", protocol.JoinRoomPayload{Type: protocol.JoinRoom, RoomID: string(r1.ID)}))
		req.NoError(f.dispatch(t, "a", protocol.JoinRoomPayload{Type: protocol.JoinRoom, RoomID: string(r1.ID)}))
		req.Len(f.rooms.Members(r1.ID), 1)

		req.NoError(f.dispatch(t, "a", protocol.JoinRoomPayload{Type: protocol.JoinRoom, RoomID: string(r2.ID)}))
		req.Empty(f.rooms.Members(r1.ID))
		req.Len(f.rooms.Members(r2.ID), 1)

		acks := rec.ofType(t, protocol.Joined)
		req.Len(acks, 3)
		req.Equal(string(r2.ID), acks[2]["roomID"])
	})

	t.Run("unknown sessions are rejected", func(t *testing.T) {
		f := newFixture()
		_, err := f.orch.Join(ctx, "ghost", uuid.NewString())
		require.ErrorIs(t, err, ErrUnknownSession)
	})
}

// Scenario: A creates a room, B checks it exists, both join, A says "hi".
func TestRelayChat_EveryMemberIncludingSenderReceivesOnce(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture()

	a := f.connect("a", "alice")
	b := f.connect("b", "bob")
	outsider := f.connect("c", "carol")

	room, err := f.rooms.Create(ctx, "id-alice")
	req.NoError(err)
	ok, err := f.rooms.Exists(ctx, string(room.ID))
	req.NoError(err)
	req.True(ok)

	other, err := f.rooms.Create(ctx, "id-carol")
	req.NoError(err)

	req.NoError(f.dispatch(t, "a", protocol.JoinRoomPayload{Type: protocol.JoinRoom, RoomID: string(room.ID)}))
	req.NoError(f.dispatch(t, "b", protocol.JoinRoomPayload{Type: protocol.JoinRoom, RoomID: string(room.ID)}))
	req.NoError(f.dispatch(t, "c", protocol.JoinRoomPayload{Type: protocol.JoinRoom, RoomID: string(other.ID)}))

	req.NoError(f.dispatch(t, "a", protocol.MessagePayload{Type: protocol.SendMessage, RoomID: string(room.ID), Message: "hi"}))

	for _, rec := range []*recorder{a, b} {
		msgs := rec.ofType(t, protocol.ReceiveMessage)
		req.Len(msgs, 1)
		req.Equal("hi", msgs[0]["message"])
		req.Equal("alice", msgs[0]["from"])
	}
	req.Empty(outsider.ofType(t, protocol.ReceiveMessage))
}

// Scenario: A streams three chunks; B receives exactly those, in order, only the first flagged.
func TestRelayAudioChunk_ExcludesSender(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture()

	a := f.connect("a", "alice")
	b := f.connect("b", "bob")
	c := f.connect("c", "carol")
	room, err := f.rooms.Create(ctx, "id-alice")
	req.NoError(err)
	for _, sid := range []core.SessionID{"a", "b", "c"} {
		_, err := f.orch.Join(ctx, sid, string(room.ID))
		req.NoError(err)
	}

	chunks := [][]byte{{1, 1}, {2, 2}, {3, 3}}
	for i, chunk := range chunks {
		res, err := f.orch.RelayAudioChunk("a", string(room.ID), chunk, i == 0)
		req.NoError(err)
		req.Equal(2, res.SendTo)
	}

	req.Empty(a.ofType(t, protocol.ReceiveAudioChunk))
	for _, rec := range []*recorder{b, c} {
		got := rec.ofType(t, protocol.ReceiveAudioChunk)
		req.Len(got, 3)
		for i, e := range got {
			p, err := protocol.Decode[protocol.ReceiveAudioChunkEvent](mustJSON(t, e))
			req.NoError(err)
			req.Equal(chunks[i], p.Chunk)
			req.Equal(i == 0, p.First)
		}
	}
}

func TestRelay_DropsEventsFromUnjoinedSenders(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture()

	a := f.connect("a", "alice")
	f.connect("b", "bob")
	room, err := f.rooms.Create(ctx, "id-alice")
	req.NoError(err)
	_, err = f.orch.Join(ctx, "a", string(room.ID))
	req.NoError(err)

	// b never joined
	req.ErrorIs(f.dispatch(t, "b", protocol.MessagePayload{Type: protocol.SendMessage, RoomID: string(room.ID), Message: "sneaky"}), ErrNotJoined)
	req.ErrorIs(f.dispatch(t, "b", protocol.AudioChunkPayload{Type: protocol.SendAudioChunk, RoomID: string(room.ID), Chunk: []byte{1}, First: true}), ErrNotJoined)
	req.ErrorIs(f.dispatch(t, "b", protocol.StartRecordingPayload{Type: protocol.StartRecording}), ErrNotJoined)

	// a addresses a room it is not joined to
	other, err := f.rooms.Create(ctx, "id-alice")
	req.NoError(err)
	req.ErrorIs(f.dispatch(t, "a", protocol.MessagePayload{Type: protocol.SendMessage, RoomID: string(other.ID), Message: "x"}), ErrNotJoined)

	req.Empty(a.ofType(t, protocol.ReceiveMessage))
	req.Empty(a.ofType(t, protocol.ReceiveAudioChunk))
}

func TestNotifyRecordingStart(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture()

	a := f.connect("a", "alice")
	b := f.connect("b", "bob")
	room, err := f.rooms.Create(ctx, "id-alice")
	req.NoError(err)
	for _, sid := range []core.SessionID{"a", "b"} {
		_, err := f.orch.Join(ctx, sid, string(room.ID))
		req.NoError(err)
	}

	// no room id: the sender's current join target is addressed
	req.NoError(f.dispatch(t, "a", protocol.StartRecordingPayload{Type: protocol.StartRecording}))
	req.Len(b.ofType(t, protocol.ClearOldAudio), 1)
	req.Empty(a.ofType(t, protocol.ClearOldAudio))
}

func TestDispatch_RejectsGarbage(t *testing.T) {
	req := require.New(t)
	f := newFixture()
	f.connect("a", "alice")

	req.ErrorIs(f.dispatch(t, "a", map[string]string{"type": "dance"}), ErrUnknownEvent)
	req.Error(f.orch.Dispatch(context.Background(), "a", []byte("{")))
}

func TestBackpressurePolicy(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture()
	f.orch.Policy = app.StrictPolicy{}

	f.connect("a", "alice")
	slowCtx, cancel := context.WithCancel(ctx)
	slow := &recorder{full: true}
	f.orch.Connect("b", core.NewMemberSession(domain.NewMember(&domain.User{ID: "id-bob", Username: "bob"}), slow), cancel)

	room, err := f.rooms.Create(ctx, "id-alice")
	req.NoError(err)
	for _, sid := range []core.SessionID{"a", "b"} {
		_, err := f.orch.Join(ctx, sid, string(room.ID))
		req.NoError(err)
	}

	res, err := f.orch.RelayAudioChunk("a", "", []byte{1}, true)
	req.NoError(err)
	req.Len(res.Dropped, 1)
	req.NoError(slowCtx.Err(), "audio backpressure only drops frames")

	res, err = f.orch.RelayChat("a", "", "hello")
	req.NoError(err)
	req.Len(res.Dropped, 1)
	req.ErrorIs(slowCtx.Err(), context.Canceled)
}

func TestOnDisconnectRevokesMembership(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	f := newFixture()

	f.connect("a", "alice")
	room, err := f.rooms.Create(ctx, "id-alice")
	req.NoError(err)
	_, err = f.orch.Join(ctx, "a", string(room.ID))
	req.NoError(err)
	req.Len(f.rooms.Members(room.ID), 1)

	f.orch.OnDisconnect("a")
	req.Empty(f.rooms.Members(room.ID))

	ok, err := f.rooms.Exists(ctx, string(room.ID))
	req.NoError(err)
	req.True(ok, "rooms outlive their members")
}

func mustJSON(t *testing.T, v any) []byte {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return b
}
