package http

import (
	"errors"
	nethttp "net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/VoiceRoom/internal/auth"
	"github.com/dkeye/VoiceRoom/internal/domain"
	"github.com/dkeye/VoiceRoom/internal/protocol"
)

const sessionOAuthState = "oauth_state"

type credentials struct {
	Username string `json:"username" binding:"required,max=36"`
	Password string `json:"password" binding:"required"`
}

type authResponse struct {
	User  *domain.User `json:"user"`
	Token string       `json:"token,omitempty"`
}

func (h *handlers) register(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, nethttp.StatusBadRequest, protocol.CodeInvalidRequest, "missing or invalid credentials")
		return
	}
	u, err := h.Accounts.Register(c.Request.Context(), req.Username, req.Password)
	switch {
	case err == nil:
	case errors.Is(err, domain.ErrUserExists):
		abortError(c, nethttp.StatusConflict, protocol.CodeUserExists, "username taken")
		return
	case errors.Is(err, domain.ErrUsernameEmpty),
		errors.Is(err, domain.ErrUsernameTooLong),
		errors.Is(err, domain.ErrPasswordTooShort),
		errors.Is(err, domain.ErrPasswordTooLong):
		abortError(c, nethttp.StatusBadRequest, protocol.CodeInvalidRequest, err.Error())
		return
	default:
		log.Error().Err(err).Str("module", "adapters.http").Msg("register")
		abortError(c, nethttp.StatusInternalServerError, protocol.CodeInternal, "registration failed")
		return
	}
	h.startSession(c, nethttp.StatusCreated, u)
}

func (h *handlers) login(c *gin.Context) {
	var req credentials
	if err := c.ShouldBindJSON(&req); err != nil {
		abortError(c, nethttp.StatusBadRequest, protocol.CodeInvalidRequest, "missing or invalid credentials")
		return
	}
	u, err := h.Accounts.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		abortError(c, nethttp.StatusUnauthorized, protocol.CodeInvalidCredentials, "invalid credentials")
		return
	}
	h.startSession(c, nethttp.StatusOK, u)
}

// startSession sets the cookie session and hands out a bearer token for non-browser clients.
func (h *handlers) startSession(c *gin.Context, status int, u *domain.User) {
	resp := authResponse{User: u}
	if h.Tokens != nil {
		tok, err := h.Tokens.Issue(u)
		if err != nil {
			log.Error().Err(err).Str("module", "adapters.http").Msg("issue token")
			abortError(c, nethttp.StatusInternalServerError, protocol.CodeInternal, "token failed")
			return
		}
		resp.Token = tok
	}
	if err := auth.Login(c, u); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("save session")
		abortError(c, nethttp.StatusInternalServerError, protocol.CodeInternal, "session failed")
		return
	}
	log.Info().Str("module", "adapters.http").Str("user", string(u.ID)).Msg("logged in")
	c.JSON(status, resp)
}

func (h *handlers) logout(c *gin.Context) {
	if err := auth.Logout(c); err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("clear session")
	}
	c.Status(nethttp.StatusNoContent)
}

func (h *handlers) me(c *gin.Context) {
	u := h.Identity.Resolve(c)
	if u == nil {
		abortError(c, nethttp.StatusUnauthorized, protocol.CodeUnauthenticated, "not logged in")
		return
	}
	c.JSON(nethttp.StatusOK, u)
}

func (h *handlers) googleStart(c *gin.Context) {
	if !h.Google.Enabled() {
		abortError(c, nethttp.StatusNotFound, protocol.CodeNotConfigured, "google login is not configured")
		return
	}
	state := uuid.NewString()
	s := sessions.Default(c)
	s.Set(sessionOAuthState, state)
	if err := s.Save(); err != nil {
		abortError(c, nethttp.StatusInternalServerError, protocol.CodeInternal, "session failed")
		return
	}
	c.Redirect(nethttp.StatusTemporaryRedirect, h.Google.AuthCodeURL(state))
}

func (h *handlers) googleCallback(c *gin.Context) {
	if !h.Google.Enabled() {
		abortError(c, nethttp.StatusNotFound, protocol.CodeNotConfigured, "google login is not configured")
		return
	}
	s := sessions.Default(c)
	want, _ := s.Get(sessionOAuthState).(string)
	s.Delete(sessionOAuthState)
	if want == "" || c.Query("state") != want {
		abortError(c, nethttp.StatusBadRequest, protocol.CodeInvalidRequest, "state mismatch")
		return
	}
	code := c.Query("code")
	if code == "" {
		abortError(c, nethttp.StatusBadRequest, protocol.CodeInvalidRequest, "missing code")
		return
	}

	profile, err := h.Google.Exchange(c.Request.Context(), code)
	if err != nil {
		log.Warn().Err(err).Str("module", "adapters.http").Msg("google exchange")
		abortError(c, nethttp.StatusUnauthorized, protocol.CodeUnauthenticated, "google login failed")
		return
	}
	u, err := h.Accounts.LoginGoogle(c.Request.Context(), profile)
	if err != nil {
		log.Error().Err(err).Str("module", "adapters.http").Msg("google account")
		abortError(c, nethttp.StatusInternalServerError, protocol.CodeInternal, "google login failed")
		return
	}
	if err := auth.Login(c, u); err != nil {
		abortError(c, nethttp.StatusInternalServerError, protocol.CodeInternal, "session failed")
		return
	}
	log.Info().Str("module", "adapters.http").Str("user", string(u.ID)).Msg("logged in via google")
	c.Redirect(nethttp.StatusFound, h.successURL)
}
