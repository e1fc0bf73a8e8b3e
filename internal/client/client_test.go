package client

import (
	"context"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	router "github.com/dkeye/VoiceRoom/internal/adapters/http"
	"github.com/dkeye/VoiceRoom/internal/adapters/signal"
	"github.com/dkeye/VoiceRoom/internal/app"
	"github.com/dkeye/VoiceRoom/internal/app/orch"
	"github.com/dkeye/VoiceRoom/internal/audio"
	"github.com/dkeye/VoiceRoom/internal/auth"
	"github.com/dkeye/VoiceRoom/internal/config"
	"github.com/dkeye/VoiceRoom/internal/domain"
	"github.com/dkeye/VoiceRoom/internal/protocol"
	"github.com/dkeye/VoiceRoom/internal/store/sqlite"
)

func startServer(t *testing.T) string {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st, err := sqlite.Open(filepath.Join(t.TempDir(), "e2e.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = st.Close() })

	reg := app.NewRegistry()
	rooms := app.NewRooms(st, reg)
	o := orch.New(reg, rooms, app.SimplePolicy{})
	tokens := auth.NewTokens("e2e", time.Hour)
	identity := auth.NewResolver(tokens)
	ctl := signal.NewSignalWSController(o, identity, signal.NewChatRateLimiter(100, time.Second), signal.Options{
		ReadLimit:  1 << 20,
		PingPeriod: 10 * time.Second,
		SendBuffer: 64,
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	cfg := &config.Config{Mode: "test", Secret: "e2e-cookie", StaticPath: t.TempDir()}
	e := router.SetupRouter(ctx, cfg, router.Deps{
		Rooms:    rooms,
		Accounts: auth.NewAccounts(st),
		Identity: identity,
		Tokens:   tokens,
		Google:   auth.NewGoogle("", "", ""),
		Signal:   ctl,
	})
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	return srv.URL
}

func loggedIn(t *testing.T, base, name string) *Client {
	t.Helper()
	c := New(base)
	_, err := c.Register(context.Background(), name, "password1")
	require.NoError(t, err)
	require.NotEmpty(t, c.Token)
	return c
}

type inbox struct {
	mu       sync.Mutex
	messages []protocol.ReceiveMessageEvent
	chunks   int
	errors   []string
}

func (b *inbox) handlers() Handlers {
	return Handlers{
		OnMessage: func(ev protocol.ReceiveMessageEvent) {
			b.mu.Lock()
			defer b.mu.Unlock()
			b.messages = append(b.messages, ev)
		},
		OnAudioChunk: func([]byte, bool) {
			b.mu.Lock()
			defer b.mu.Unlock()
			b.chunks++
		},
		OnError: func(ev protocol.ErrorEvent) {
			b.mu.Lock()
			defer b.mu.Unlock()
			b.errors = append(b.errors, ev.Error)
		},
	}
}

func (b *inbox) count() (int, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.messages), b.chunks
}

func TestRoomLookup(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	base := startServer(t)
	alice := loggedIn(t, base, "alice")

	room, err := alice.CreateRoom(ctx)
	req.NoError(err)

	got, err := New(base).GetRoom(ctx, string(room.ID))
	req.NoError(err)
	req.Equal(room.ID, got.ID)
	req.Equal(room.Owner, got.Owner)

	_, err = New(base).GetRoom(ctx, "not-a-uuid")
	req.ErrorIs(err, domain.ErrInvalidRoomID)

	_, err = New(base).GetRoom(ctx, uuid.NewString())
	req.ErrorIs(err, domain.ErrRoomNotFound)

	_, err = New(base).CreateRoom(ctx)
	req.ErrorIs(err, ErrUnauthorized)
}

func TestAPIErrorsMapOnCode(t *testing.T) {
	gin.SetMode(gin.TestMode)
	e := gin.New()
	e.GET("/api/rooms/:id", func(c *gin.Context) {
		switch c.Param("id") {
		case "coded":
			c.AbortWithStatusJSON(400, protocol.APIError{Code: protocol.CodeInvalidRoomID, Error: "malformed id"})
		case "worded":
			c.AbortWithStatusJSON(400, protocol.APIError{Code: protocol.CodeInvalidRequest, Error: "room name too long"})
		default:
			c.AbortWithStatusJSON(502, gin.H{"error": "upstream"})
		}
	})
	srv := httptest.NewServer(e)
	t.Cleanup(srv.Close)
	ctx := context.Background()

	_, err := New(srv.URL).GetRoom(ctx, "coded")
	require.ErrorIs(t, err, domain.ErrInvalidRoomID)

	_, err = New(srv.URL).GetRoom(ctx, "worded")
	require.Error(t, err)
	require.NotErrorIs(t, err, domain.ErrInvalidRoomID)
	require.Contains(t, err.Error(), protocol.CodeInvalidRequest)

	_, err = New(srv.URL).GetRoom(ctx, "other")
	require.ErrorContains(t, err, "502")
}

func TestAccountErrors(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	base := startServer(t)
	loggedIn(t, base, "alice")

	_, err := New(base).Register(ctx, "alice", "password1")
	req.ErrorIs(err, domain.ErrUserExists)

	c := New(base)
	_, err = c.Login(ctx, "alice", "wrong-pass")
	req.ErrorIs(err, ErrUnauthorized)
	req.Empty(c.Token)
}

func TestChatBetweenMembers(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	base := startServer(t)
	alice, bob := loggedIn(t, base, "alice"), loggedIn(t, base, "bob")
	room, err := alice.CreateRoom(ctx)
	req.NoError(err)

	var aBox, bBox inbox
	a, err := alice.Dial(ctx, aBox.handlers())
	req.NoError(err)
	defer a.Close()
	b, err := bob.Dial(ctx, bBox.handlers())
	req.NoError(err)
	defer b.Close()

	req.NoError(a.Join(ctx, string(room.ID)))
	req.NoError(b.Join(ctx, string(room.ID)))

	req.NoError(a.SendMessage("Hello"))
	req.Eventually(func() bool {
		am, _ := aBox.count()
		bm, _ := bBox.count()
		return am == 1 && bm == 1
	}, 3*time.Second, 10*time.Millisecond)

	bBox.mu.Lock()
	req.Equal("Hello", bBox.messages[0].Message)
	req.Equal("alice", bBox.messages[0].From)
	bBox.mu.Unlock()

	err = b.Join(ctx, uuid.NewString())
	req.Error(err)
	req.Equal(string(room.ID), b.Room(), "a rejected join keeps the current room")
}

func TestStreamedRecordingReachesListener(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	base := startServer(t)
	alice, bob := loggedIn(t, base, "alice"), loggedIn(t, base, "bob")
	room, err := alice.CreateRoom(ctx)
	req.NoError(err)

	var aBox inbox
	a, err := alice.Dial(ctx, aBox.handlers())
	req.NoError(err)
	defer a.Close()

	canvas := audio.NewPNGCanvas(100, 20)
	remote := NewRemoteAudio(audio.NewRenderer(canvas))
	b, err := bob.Dial(ctx, remote.Handlers(Handlers{}))
	req.NoError(err)
	defer b.Close()

	req.NoError(a.Join(ctx, string(room.ID)))
	req.NoError(b.Join(ctx, string(room.ID)))

	f := audio.Format{SampleRate: 8000, Channels: 1, BitDepth: 16}
	pcm := make([]int, 2400)
	for i := range pcm {
		pcm[i] = (i%50 - 25) * 400
	}
	var local [][]byte
	for i := 0; i < 3; i++ {
		chunk := audio.EncodePCM(f, pcm[i*800:(i+1)*800])
		if i == 0 {
			chunk = append(audio.StreamHeader(f), chunk...)
		}
		local = append(local, chunk)
		req.NoError(a.SendAudioChunk(chunk, i == 0))
	}

	req.Eventually(func() bool { return remote.Seq.Len() == 3 }, 3*time.Second, 10*time.Millisecond)
	var all []byte
	for _, c := range local {
		all = append(all, c...)
	}
	req.Equal(all, remote.Seq.Bytes())

	decoded, err := audio.Decode(remote.Seq.Bytes())
	req.NoError(err)
	req.Equal(2400, decoded.Frames())

	_, chunks := aBox.count()
	req.Zero(chunks, "the sender is not echoed its own audio")

	// a new recording clears what the listener holds
	req.NoError(a.StartRecording())
	req.Eventually(func() bool { return remote.Seq.Empty() }, 3*time.Second, 10*time.Millisecond)
	req.NoError(a.SendAudioChunk(local[0], true))
	req.Eventually(func() bool { return remote.Seq.Len() == 1 }, 3*time.Second, 10*time.Millisecond)
}

func TestAnonymousCannotJoin(t *testing.T) {
	ctx := context.Background()
	base := startServer(t)
	alice := loggedIn(t, base, "alice")
	room, err := alice.CreateRoom(ctx)
	require.NoError(t, err)

	var box inbox
	anon, err := New(base).Dial(ctx, box.handlers())
	require.NoError(t, err)
	defer anon.Close()

	require.Error(t, anon.Join(ctx, string(room.ID)))
	require.ErrorIs(t, anon.SendAudioChunk([]byte{1}, true), ErrNotInRoom)
}

func TestJoinAfterAbandonedJoin(t *testing.T) {
	req := require.New(t)
	ctx := context.Background()
	base := startServer(t)
	alice, bob := loggedIn(t, base, "alice"), loggedIn(t, base, "bob")
	room1, err := alice.CreateRoom(ctx)
	req.NoError(err)
	room2, err := alice.CreateRoom(ctx)
	req.NoError(err)

	var aBox, bBox inbox
	a, err := alice.Dial(ctx, aBox.handlers())
	req.NoError(err)
	defer a.Close()
	req.NoError(a.Join(ctx, string(room2.ID)))

	b, err := bob.Dial(ctx, bBox.handlers())
	req.NoError(err)
	defer b.Close()

	gaveUp, cancel := context.WithCancel(ctx)
	cancel()
	req.ErrorIs(b.Join(gaveUp, string(room1.ID)), context.Canceled)
	// the answer still arrives and nobody reads it
	req.Eventually(func() bool { return b.Room() == string(room1.ID) }, 3*time.Second, 10*time.Millisecond)

	req.NoError(b.Join(ctx, string(room2.ID)))
	req.Equal(string(room2.ID), b.Room())

	req.NoError(b.SendMessage("made it"))
	req.Eventually(func() bool {
		am, _ := aBox.count()
		return am == 1
	}, 3*time.Second, 10*time.Millisecond)
}
