// Package http exposes the REST API, the Google login flow and the signal websocket.
package http

import (
	"context"
	nethttp "net/http"

	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/dkeye/VoiceRoom/internal/adapters/signal"
	"github.com/dkeye/VoiceRoom/internal/app"
	"github.com/dkeye/VoiceRoom/internal/auth"
	"github.com/dkeye/VoiceRoom/internal/config"
	"github.com/dkeye/VoiceRoom/internal/protocol"
)

const sessionName = "VoiceRoomSession"

// Deps are the services the router serves.
type Deps struct {
	Rooms    *app.Rooms
	Accounts *auth.Accounts
	Identity *auth.Resolver
	Tokens   *auth.Tokens
	Google   *auth.Google
	Signal   *signal.SignalWSController
}

type handlers struct {
	Deps
	successURL string
}

func SetupRouter(ctx context.Context, cfg *config.Config, deps Deps) *gin.Engine {
	if cfg.Mode == "release" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	if cfg.Mode == "debug" {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())

	store := cookie.NewStore([]byte(cfg.Secret))
	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   3600 * 24 * 7,
		HttpOnly: true,
		SameSite: nethttp.SameSiteLaxMode,
	})
	r.Use(sessions.Sessions(sessionName, store))

	h := &handlers{Deps: deps, successURL: cfg.Google.SuccessURL}

	r.Static("/static", cfg.StaticPath)
	r.GET("/", func(c *gin.Context) {
		c.File(cfg.StaticPath + "/index.html")
	})

	log.Info().Str("module", "adapters.http").Str("static", cfg.StaticPath).Msg("router setup")

	authGroup := r.Group("/auth")
	authGroup.GET("/google", h.googleStart)
	authGroup.GET("/google/callback", h.googleCallback)

	api := r.Group("/api")
	api.POST("/register", h.register)
	api.POST("/login", h.login)
	api.POST("/logout", h.logout)
	api.GET("/me", h.me)

	api.POST("/rooms", h.createRoom)
	api.GET("/rooms/:id", h.getRoom)

	api.GET("/ws", func(c *gin.Context) {
		if h.Signal == nil {
			c.AbortWithStatus(nethttp.StatusServiceUnavailable)
			return
		}
		h.Signal.HandleSignal(ctx, c)
	})

	return r
}

func abortError(c *gin.Context, status int, code, msg string) {
	c.AbortWithStatusJSON(status, protocol.APIError{Code: code, Error: msg})
}
