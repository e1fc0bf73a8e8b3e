package auth

import (
	"strings"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/VoiceRoom/internal/domain"
)

const (
	sessionUserID   = "user_id"
	sessionUsername = "username"
)

// Resolver maps the credentials attached to a request to a user. It reads only the
// cookie session and the bearer token, never the store.
type Resolver struct {
	Tokens *Tokens
}

func NewResolver(tokens *Tokens) *Resolver {
	return &Resolver{Tokens: tokens}
}

// Resolve returns nil for anonymous requests. Missing or invalid credentials are not errors.
func (r *Resolver) Resolve(c *gin.Context) *domain.User {
	if u := fromSession(c); u != nil {
		return u
	}
	raw := bearerToken(c)
	if raw == "" || r.Tokens == nil {
		return nil
	}
	claims, err := r.Tokens.Parse(raw)
	if err != nil {
		log.Debug().Err(err).Str("module", "auth.identity").Msg("rejected bearer token")
		return nil
	}
	return &domain.User{ID: domain.UserID(claims.UserID), Username: claims.Username}
}

// Login stores u in the cookie session.
func Login(c *gin.Context, u *domain.User) error {
	s := sessions.Default(c)
	s.Set(sessionUserID, string(u.ID))
	s.Set(sessionUsername, u.Username)
	return s.Save()
}

func Logout(c *gin.Context) error {
	s := sessions.Default(c)
	s.Clear()
	return s.Save()
}

func fromSession(c *gin.Context) *domain.User {
	if _, ok := c.Get(sessions.DefaultKey); !ok {
		return nil
	}
	s := sessions.Default(c)
	id, _ := s.Get(sessionUserID).(string)
	if id == "" {
		return nil
	}
	name, _ := s.Get(sessionUsername).(string)
	return &domain.User{ID: domain.UserID(id), Username: name}
}

// bearerToken reads the Authorization header, falling back to the token query
// parameter for websocket handshakes.
func bearerToken(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return c.Query("token")
}
