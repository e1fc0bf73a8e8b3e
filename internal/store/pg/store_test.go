package pg

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/dkeye/VoiceRoom/internal/domain"
)

func TestUserModelRoundTrip(t *testing.T) {
	req := require.New(t)

	u := &domain.User{ID: "id-1", Username: "alice", GoogleID: "g-1", PasswordHash: "h"}
	req.Equal(u, fromUserModel(toUserModel(u)))

	local := &domain.User{ID: "id-2", Username: "bob"}
	m := toUserModel(local)
	req.Nil(m.GoogleID)
	req.Equal(local, fromUserModel(m))
}

// TestStore_Postgres runs against a live database when VOICEROOM_TEST_PG_DSN is set.
func TestStore_Postgres(t *testing.T) {
	dsn := os.Getenv("VOICEROOM_TEST_PG_DSN")
	if dsn == "" {
		t.Skip("VOICEROOM_TEST_PG_DSN not set")
	}
	req := require.New(t)
	ctx := context.Background()

	s, err := Open(dsn)
	req.NoError(err)
	defer s.Close()

	u, err := domain.NewUser("pg-" + uuid.NewString()[:8])
	req.NoError(err)
	req.NoError(s.CreateUser(ctx, u))
	req.ErrorIs(s.CreateUser(ctx, &domain.User{ID: domain.UserID(uuid.NewString()), Username: u.Username}), domain.ErrUserExists)

	room, err := domain.NewRoom(u.ID)
	req.NoError(err)
	req.NoError(s.CreateRoom(ctx, room))

	got, err := s.RoomByID(ctx, room.ID)
	req.NoError(err)
	req.Equal(u.ID, got.Owner)

	_, err = s.RoomByID(ctx, domain.RoomID(uuid.NewString()))
	req.ErrorIs(err, domain.ErrRoomNotFound)
}
