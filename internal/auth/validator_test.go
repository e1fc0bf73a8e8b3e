package auth

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dkeye/VoiceRoom/internal/domain"
)

func TestValidateRegistration(t *testing.T) {
	cases := []struct {
		name     string
		username string
		password string
		want     error
	}{
		{"ok", "alice", "password1", nil},
		{"empty username", "", "password1", domain.ErrUsernameEmpty},
		{"long username", strings.Repeat("a", 37), "password1", domain.ErrUsernameTooLong},
		{"short password", "alice", "short", domain.ErrPasswordTooShort},
		{"long password", "alice", strings.Repeat("p", 73), domain.ErrPasswordTooLong},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := ValidateRegistration(tc.username, tc.password)
			if tc.want == nil {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, tc.want)
		})
	}
}
