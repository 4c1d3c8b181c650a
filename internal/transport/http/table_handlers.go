package http

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-blackjack/internal/core"
	"github.com/vovakirdan/wirechat-blackjack/internal/feed"
	"github.com/vovakirdan/wirechat-blackjack/internal/store"
)

const maxRoundsLimit = 100

// TableHandlers exposes the command surface and session state over REST.
type TableHandlers struct {
	hub    *core.Hub
	feed   *feed.Feed
	rounds store.RoundStore
	log    *zerolog.Logger
}

// NewTableHandlers creates table handlers. feed and rounds may be nil.
func NewTableHandlers(hub *core.Hub, fd *feed.Feed, rounds store.RoundStore, logger *zerolog.Logger) *TableHandlers {
	return &TableHandlers{hub: hub, feed: fd, rounds: rounds, log: logger}
}

// JoinResponse identifies the participant's turn message.
type JoinResponse struct {
	Channel   string `json:"channel"`
	MessageID string `json:"message_id"`
}

func (h *TableHandlers) fail(c *gin.Context, err error) {
	status := httpStatus(err)
	if status == http.StatusInternalServerError {
		h.log.Error().Err(err).Str("path", c.FullPath()).Msg("request failed")
	}
	c.JSON(status, ErrorResponse{Error: err.Error(), Code: core.CodeOf(err)})
}

// Join seats the caller in the channel's session with the default bet.
// POST /api/channels/:channel/join
func (h *TableHandlers) Join(c *gin.Context) {
	uid, ok := userIDFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Code: core.ErrCodeUnauthorized})
		return
	}
	channel := c.Param("channel")

	handle, err := h.hub.JoinDefault(c.Request.Context(), channel, uid)
	if err != nil {
		h.fail(c, err)
		return
	}

	c.JSON(http.StatusCreated, JoinResponse{Channel: handle.Channel, MessageID: handle.MessageID})
}

// Act applies a reaction to a turn message. Stale reactions are accepted and
// dropped, the way a chat platform would ignore them.
// POST /api/messages/:message/actions/:action
func (h *TableHandlers) Act(c *gin.Context) {
	uid, ok := userIDFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "unauthorized", Code: core.ErrCodeUnauthorized})
		return
	}

	kind, err := core.ParseActionKind(c.Param("action"))
	if err != nil {
		h.fail(c, err)
		return
	}

	err = h.hub.Dispatch(c.Request.Context(), core.ActionEvent{
		MessageID: c.Param("message"),
		UserID:    uid,
		Kind:      kind,
	})
	if err != nil && !errors.Is(err, core.ErrStaleEvent) {
		h.fail(c, err)
		return
	}

	c.Status(http.StatusAccepted)
}

// ListChannels lists channels with a live session.
// GET /api/channels
func (h *TableHandlers) ListChannels(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"channels": h.hub.Channels()})
}

// GetChannel returns a snapshot of the channel's live session.
// GET /api/channels/:channel
func (h *TableHandlers) GetChannel(c *gin.Context) {
	snap, err := h.hub.Snapshot(c.Request.Context(), c.Param("channel"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, sessionResponse(snap))
}

// ListRounds returns recent finished rounds of a channel.
// GET /api/channels/:channel/rounds?limit=N
func (h *TableHandlers) ListRounds(c *gin.Context) {
	if h.rounds == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "round history disabled"})
		return
	}

	limit := store.DefaultListLimit
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			c.JSON(http.StatusBadRequest, ErrorResponse{Error: "invalid limit", Code: core.ErrCodeBadRequest})
			return
		}
		limit = min(n, maxRoundsLimit)
	}

	rounds, err := h.rounds.ListRounds(c.Request.Context(), c.Param("channel"), limit)
	if err != nil {
		h.log.Error().Err(err).Str("channel", c.Param("channel")).Msg("failed to list rounds")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}

	resp := make([]RoundResponse, 0, len(rounds))
	for _, r := range rounds {
		resp = append(resp, roundResponse(r))
	}
	c.JSON(http.StatusOK, resp)
}

// GetRound returns one finished round.
// GET /api/rounds/:round
func (h *TableHandlers) GetRound(c *gin.Context) {
	if h.rounds == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "round history disabled"})
		return
	}
	round, err := h.rounds.GetRound(c.Request.Context(), c.Param("round"))
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "round not found"})
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("round_id", c.Param("round")).Msg("failed to get round")
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error"})
		return
	}
	c.JSON(http.StatusOK, roundResponse(round))
}

// GetMessage returns the current content of a turn message from the feed.
// GET /api/messages/:message
func (h *TableHandlers) GetMessage(c *gin.Context) {
	if h.feed == nil {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "message feed disabled"})
		return
	}
	msg, ok := h.feed.Message(c.Param("message"))
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "message not found"})
		return
	}
	c.JSON(http.StatusOK, turnFromMessage(msg))
}
