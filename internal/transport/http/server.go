package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-blackjack/internal/auth"
	"github.com/vovakirdan/wirechat-blackjack/internal/config"
	"github.com/vovakirdan/wirechat-blackjack/internal/core"
	"github.com/vovakirdan/wirechat-blackjack/internal/feed"
	"github.com/vovakirdan/wirechat-blackjack/internal/store"
)

// Deps are the collaborators the HTTP layer serves. Feed and Rounds are optional.
type Deps struct {
	Hub    *core.Hub
	Feed   *feed.Feed
	Auth   *auth.Service
	Rounds store.RoundStore
}

// NewServer builds the HTTP server with REST and WebSocket routes.
func NewServer(deps Deps, cfg *config.Config, logger *zerolog.Logger) *stdhttp.Server {
	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           NewRouter(deps, cfg, logger),
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}

// NewRouter registers every route on a fresh gin engine.
func NewRouter(deps Deps, cfg *config.Config, logger *zerolog.Logger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger))

	router.GET("/health", healthHandler)

	api := NewAPIHandlers(deps.Auth, logger)
	tables := NewTableHandlers(deps.Hub, deps.Feed, deps.Rounds, logger)

	public := router.Group("/api")
	public.POST("/guest", api.GuestLogin)
	public.GET("/channels", tables.ListChannels)
	public.GET("/channels/:channel", tables.GetChannel)
	public.GET("/channels/:channel/rounds", tables.ListRounds)
	public.GET("/rounds/:round", tables.GetRound)
	public.GET("/messages/:message", tables.GetMessage)

	protected := router.Group("/api")
	protected.Use(AuthMiddleware(deps.Auth, logger))
	protected.POST("/channels/:channel/join", tables.Join)
	protected.POST("/messages/:message/actions/:action", tables.Act)

	if deps.Feed != nil {
		ws := NewWSHandler(deps.Hub, deps.Feed, deps.Auth, cfg.RateLimitPerMinute, logger)
		router.GET("/ws", gin.WrapH(ws))
	}

	return router
}
