package core

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-blackjack/internal/card"
)

// joinAttempts bounds retries when a join races with a session being discarded.
const joinAttempts = 3

// Hub routes inbound action events to live sessions and starts rounds for
// channels. It owns no game state itself; sessions live in the Registry.
type Hub struct {
	registry *Registry
	display  Display
	recorder Recorder
	cfg      Config
	log      *zerolog.Logger
	newDeck  func() (card.Drawer, error)
	sessions sync.WaitGroup
}

// Option configures a Hub.
type Option func(*Hub)

// WithConfig sets the game rules.
func WithConfig(cfg Config) Option {
	return func(h *Hub) { h.cfg = cfg }
}

// WithLogger sets the logger.
func WithLogger(logger *zerolog.Logger) Option {
	return func(h *Hub) {
		if logger != nil {
			h.log = logger
		}
	}
}

// WithRecorder persists every finished round.
func WithRecorder(r Recorder) Option {
	return func(h *Hub) { h.recorder = r }
}

// WithDeckFactory replaces the per-session shoe.
func WithDeckFactory(f func() (card.Drawer, error)) Option {
	return func(h *Hub) { h.newDeck = f }
}

// NewHub creates a hub over registry. A nil display renders nothing but still
// issues message handles.
func NewHub(registry *Registry, display Display, opts ...Option) *Hub {
	if registry == nil {
		registry = NewRegistry()
	}
	if display == nil {
		display = nopDisplay{}
	}
	nop := zerolog.Nop()
	h := &Hub{
		registry: registry,
		display:  display,
		cfg:      DefaultConfig(),
		log:      &nop,
	}
	for _, opt := range opts {
		opt(h)
	}
	if h.newDeck == nil {
		h.newDeck = h.newShoe
	}
	return h
}

func (h *Hub) newShoe() (card.Drawer, error) {
	seed, err := card.NewSeed()
	if err != nil {
		return nil, err
	}
	return card.NewShoe(h.cfg.ShoeDecks, seed)
}

// Config returns the rules the hub was built with.
func (h *Hub) Config() Config {
	return h.cfg
}

// Join seats userID in the channel's session, creating the session when none
// is live, and returns the handle of the participant's turn message.
func (h *Hub) Join(ctx context.Context, channel, userID string, bet int64) (Handle, error) {
	if channel == "" || userID == "" {
		return Handle{}, coreError(ErrCodeBadRequest, "channel and user are required")
	}
	if bet < 1 {
		return Handle{}, coreError(ErrCodeBadRequest, "bet must be positive")
	}

	for range joinAttempts {
		s, err := h.registry.getOrCreate(channel, func() (*Session, error) {
			return newSession(h, channel)
		})
		if err != nil {
			if !errors.Is(err, ErrSessionClosed) {
				h.log.Error().Err(err).Str("channel", channel).Msg("create session")
			}
			return Handle{}, err
		}

		r := s.submit(ctx, sessionEvent{kind: sessionEventJoin, userID: userID, bet: bet})
		if errors.Is(r.err, ErrSessionClosed) {
			continue
		}
		if r.err != nil {
			h.log.Debug().Err(r.err).Str("channel", channel).Str("user_id", userID).Msg("join rejected")
		}
		return r.handle, r.err
	}
	return Handle{}, ErrSessionClosed
}

// JoinDefault is the command surface entry point: it joins with the
// configured default bet.
func (h *Hub) JoinDefault(ctx context.Context, channel, userID string) (Handle, error) {
	return h.Join(ctx, channel, userID, h.cfg.DefaultBet)
}

// Dispatch applies an inbound action event. Events for unknown messages, from
// users other than the message owner, or for finished turns return
// ErrStaleEvent and change nothing.
func (h *Hub) Dispatch(ctx context.Context, ev ActionEvent) error {
	logger := h.log.With().Str("message_id", ev.MessageID).Str("user_id", ev.UserID).Logger()

	if !ev.Kind.Valid() {
		err := configurationError("unmapped action kind %d", int(ev.Kind))
		logger.Error().Err(err).Msg("dispatch")
		return err
	}

	p, ok := h.registry.route(ev.MessageID)
	if !ok {
		logger.Debug().Msg("drop event for unknown message")
		return ErrStaleEvent
	}
	if p.UserID != ev.UserID {
		logger.Debug().Msg("drop event from non-owner")
		return ErrStaleEvent
	}

	r := p.session.submit(ctx, sessionEvent{kind: sessionEventAction, action: ev, player: p})
	switch {
	case r.err == nil:
		return nil
	case errors.Is(r.err, ErrSessionClosed), errors.Is(r.err, ErrStaleEvent):
		logger.Debug().Stringer("action", ev.Kind).Msg("drop stale event")
		return ErrStaleEvent
	case errors.Is(r.err, ErrConfiguration):
		logger.Error().Err(r.err).Stringer("action", ev.Kind).Msg("dispatch")
		return r.err
	default:
		return fmt.Errorf("dispatch %s: %w", ev.Kind, r.err)
	}
}

// Snapshot returns a copy of the live session for channel.
func (h *Hub) Snapshot(ctx context.Context, channel string) (SessionSnapshot, error) {
	s, ok := h.registry.session(channel)
	if !ok {
		return SessionSnapshot{}, ErrSessionClosed
	}
	r := s.submit(ctx, sessionEvent{kind: sessionEventSnapshot})
	return r.snapshot, r.err
}

// Owner returns the user whose live turn message is messageID.
func (h *Hub) Owner(messageID string) (string, bool) {
	p, ok := h.registry.route(messageID)
	if !ok {
		return "", false
	}
	return p.UserID, true
}

// Channels lists channels with a live session.
func (h *Hub) Channels() []string {
	return h.registry.Channels()
}

// Close stops every live session without settling it and waits for all
// session goroutines, including rounds still being recorded, to return.
// Later joins fail with ErrSessionClosed.
func (h *Hub) Close() {
	sessions := h.registry.drain()
	for _, s := range sessions {
		s.stop()
	}
	if len(sessions) > 0 {
		h.log.Info().Int("sessions", len(sessions)).Msg("live sessions abandoned")
	}
	h.sessions.Wait()
}
