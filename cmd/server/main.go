package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	router "github.com/dkeye/VoiceRoom/internal/adapters/http"
	wssignal "github.com/dkeye/VoiceRoom/internal/adapters/signal"
	"github.com/dkeye/VoiceRoom/internal/app"
	"github.com/dkeye/VoiceRoom/internal/app/orch"
	"github.com/dkeye/VoiceRoom/internal/auth"
	"github.com/dkeye/VoiceRoom/internal/config"
	"github.com/dkeye/VoiceRoom/internal/store"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	// Initialize zerolog global logger early so config.Load can use it.
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}
	if lvl, err := zerolog.ParseLevel(cfg.LogLevel); err == nil {
		zerolog.SetGlobalLevel(lvl)
	}

	st, err := store.Open(cfg.DB.Driver, cfg.DB.DSN)
	if err != nil {
		log.Fatal().Err(err).Str("driver", cfg.DB.Driver).Msg("failed to open store")
	}
	defer st.Close()

	reg := app.NewRegistry()
	rooms := app.NewRooms(st, reg)
	o := orch.New(reg, rooms, app.PolicyByName(cfg.Relay.Policy))
	o.AllowAnonymous = cfg.Relay.AllowAnonymous

	tokens := auth.NewTokens(cfg.JWT.Secret, cfg.JWT.TTL)
	identity := auth.NewResolver(tokens)
	ctl := wssignal.NewSignalWSController(o, identity,
		wssignal.NewChatRateLimiter(cfg.ChatRateLimit, cfg.ChatRateInterval),
		wssignal.Options{
			ReadLimit:  cfg.ReadLimit,
			PingPeriod: cfg.PingPeriod,
			SendBuffer: cfg.SendBuffer,
		})

	r := router.SetupRouter(ctx, cfg, router.Deps{
		Rooms:    rooms,
		Accounts: auth.NewAccounts(st),
		Identity: identity,
		Tokens:   tokens,
		Google:   auth.NewGoogle(cfg.Google.ClientID, cfg.Google.ClientSecret, cfg.Google.RedirectURL),
		Signal:   ctl,
	})
	addr := fmt.Sprintf(":%d", cfg.Port)

	srv := &http.Server{
		Addr:    addr,
		Handler: r,
	}

	go func() {
		log.Info().Str("addr", addr).Msg("VoiceRoom server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
			cancel()
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server forced to shutdown")
	}
	log.Info().Int("connections", reg.Count()).Msg("Server exited gracefully")
}
