package app

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-blackjack/internal/auth"
	"github.com/vovakirdan/wirechat-blackjack/internal/config"
	"github.com/vovakirdan/wirechat-blackjack/internal/core"
	"github.com/vovakirdan/wirechat-blackjack/internal/feed"
	applog "github.com/vovakirdan/wirechat-blackjack/internal/log"
	"github.com/vovakirdan/wirechat-blackjack/internal/store"
	"github.com/vovakirdan/wirechat-blackjack/internal/store/sqlite"
	"github.com/vovakirdan/wirechat-blackjack/internal/transport/discord"
	transporthttp "github.com/vovakirdan/wirechat-blackjack/internal/transport/http"
)

// App wires together core and transport layers.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	hub             *core.Hub
	rounds          store.RoundStore
	bot             *discord.Bot
	log             *zerolog.Logger
}

// New constructs the application with provided configuration. With a
// Discord token turn messages go to Discord; otherwise they go to the
// WebSocket feed.
func New(cfg *config.Config, logger *zerolog.Logger) (*App, error) {
	a := &App{
		shutdownTimeout: cfg.ShutdownTimeout,
		log:             logger,
	}

	opts := []core.Option{
		core.WithConfig(cfg.Game.Core()),
		core.WithLogger(applog.Component(logger, "core")),
	}

	if cfg.DatabasePath != "" {
		st, err := sqlite.New(cfg.DatabasePath)
		if err != nil {
			return nil, fmt.Errorf("init store: %w", err)
		}
		logger.Info().Str("db_path", cfg.DatabasePath).Msg("database initialized")
		a.rounds = st
		opts = append(opts, core.WithRecorder(st))
	}

	authService := auth.NewService(&auth.JWTConfig{
		Secret:   []byte(cfg.JWTSecret),
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
		TTL:      cfg.JWTTTL,
	})

	var (
		display core.Display
		fd      *feed.Feed
	)
	if cfg.Discord.Token != "" {
		dg, err := discord.NewSession(cfg.Discord.Token)
		if err != nil {
			a.cleanup()
			return nil, fmt.Errorf("init discord: %w", err)
		}
		emojis := discord.Emojis{
			Hit:    cfg.Discord.HitEmoji,
			Stay:   cfg.Discord.StayEmoji,
			Double: cfg.Discord.DoubleEmoji,
		}
		display = discord.NewDisplay(dg, emojis, applog.Component(logger, "discord"))
		a.hub = core.NewHub(core.NewRegistry(), display, opts...)
		a.bot = discord.NewBot(dg, a.hub, cfg.Discord.Prefix, emojis, applog.Component(logger, "discord"))
	} else {
		fd = feed.New(applog.Component(logger, "feed"))
		display = fd
		a.hub = core.NewHub(core.NewRegistry(), display, opts...)
	}

	a.server = transporthttp.NewServer(transporthttp.Deps{
		Hub:    a.hub,
		Feed:   fd,
		Auth:   authService,
		Rounds: a.rounds,
	}, cfg, applog.Component(logger, "http"))

	return a, nil
}

// Handler exposes the HTTP router, mainly for tests.
func (a *App) Handler() stdhttp.Handler {
	return a.server.Handler
}

// Run starts the HTTP server (and the Discord bot when configured) and
// blocks until context cancellation or fatal error.
func (a *App) Run(ctx context.Context) error {
	if a.bot != nil {
		if err := a.bot.Open(); err != nil {
			a.cleanup()
			return fmt.Errorf("open discord gateway: %w", err)
		}
		a.log.Info().Msg("discord bot connected")
	}

	serverErr := make(chan error, 1)
	go func() {
		a.log.Info().Str("addr", a.server.Addr).Msg("http server listening")
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

// cleanup stops input first, then drains sessions before closing the store
// they record into.
func (a *App) cleanup() {
	if a.bot != nil {
		if err := a.bot.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close discord session")
		}
	}
	if a.hub != nil {
		a.hub.Close()
		a.log.Info().Msg("sessions closed")
	}
	if a.rounds != nil {
		if err := a.rounds.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close store")
		} else {
			a.log.Info().Msg("store closed")
		}
	}
}
