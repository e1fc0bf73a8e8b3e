package domain

import (
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

func TestParseRoomID(t *testing.T) {
	valid := uuid.NewString()

	tests := []struct {
		name    string
		raw     string
		want    RoomID
		wantErr bool
	}{
		{"canonical uuid", valid, RoomID(valid), false},
		{"uppercase is canonicalised", strings.ToUpper(valid), RoomID(valid), false},
		{"not a uuid", "not-a-uuid", "", true},
		{"empty", "", "", true},
		{"urn form rejected", "urn:uuid:" + valid, "", true},
		{"braced form rejected", "{" + valid[:34] + "}", "", true},
		{"bad hex", "zzzzzzzz-zzzz-zzzz-zzzz-zzzzzzzzzzzz", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := require.New(t)
			got, err := ParseRoomID(tt.raw)
			if tt.wantErr {
				req.ErrorIs(err, ErrInvalidRoomID)
				req.False(errors.Is(err, ErrRoomNotFound))
				return
			}
			req.NoError(err)
			req.Equal(tt.want, got)
		})
	}
}

func TestNewRoom(t *testing.T) {
	req := require.New(t)

	_, err := NewRoom("")
	req.ErrorIs(err, ErrCreation)

	a, err := NewRoom("alice")
	req.NoError(err)
	b, err := NewRoom("alice")
	req.NoError(err)

	req.Equal(UserID("alice"), a.Owner)
	req.NotEqual(a.ID, b.ID)
	_, err = ParseRoomID(string(a.ID))
	req.NoError(err)
}

func TestMemberAnonymous(t *testing.T) {
	req := require.New(t)

	req.True(NewMember(nil).Anonymous())
	var nilMember *Member
	req.True(nilMember.Anonymous())

	u, err := NewUser("bob")
	req.NoError(err)
	m := NewMember(u)
	req.False(m.Anonymous())
	req.Equal(u.ID, m.UserID())

	_, err = NewUser("")
	req.ErrorIs(err, ErrUsernameEmpty)
	_, err = NewUser(strings.Repeat("x", MaxUsernameLen+1))
	req.ErrorIs(err, ErrUsernameTooLong)
}
