package core

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/vovakirdan/wirechat-blackjack/internal/card"
	"github.com/vovakirdan/wirechat-blackjack/internal/rules"
)

const sessionQueueSize = 64

var errNoHandle = errors.New("display returned no message handle")

type sessionEventKind int

const (
	sessionEventJoin sessionEventKind = iota
	sessionEventAction
	sessionEventSnapshot
)

type sessionEvent struct {
	kind   sessionEventKind
	ctx    context.Context
	userID string
	bet    int64
	action ActionEvent
	player *Player
	reply  chan sessionReply
}

type sessionReply struct {
	handle   Handle
	snapshot SessionSnapshot
	err      error
}

// Session is one round of blackjack bound to a channel. Every mutation runs on
// the session's own goroutine, so actions for one channel are applied one at a
// time in arrival order while other channels proceed independently.
type Session struct {
	Channel string
	RoundID string

	hub          *Hub
	log          zerolog.Logger
	deck         card.Drawer
	dealer       []card.Card
	participants map[string]*Player
	order        []string
	results      []Result
	startedAt    time.Time
	dealerPlayed bool
	finished     bool

	events   chan sessionEvent
	done     chan struct{}
	stopOnce sync.Once
}

func newSession(h *Hub, channel string) (*Session, error) {
	deck, err := h.newDeck()
	if err != nil {
		return nil, &ConfigurationError{Err: err}
	}
	dealer, err := deck.Draw(2)
	if err != nil {
		return nil, configurationError("deal dealer hand: %w", err)
	}

	roundID := uuid.NewString()
	s := &Session{
		Channel:      channel,
		RoundID:      roundID,
		hub:          h,
		log:          h.log.With().Str("channel", channel).Str("round_id", roundID).Logger(),
		deck:         deck,
		dealer:       dealer,
		participants: make(map[string]*Player),
		startedAt:    time.Now(),
		events:       make(chan sessionEvent, sessionQueueSize),
		done:         make(chan struct{}),
	}
	h.sessions.Add(1)
	go s.run()

	s.log.Debug().Msg("session created")
	return s, nil
}

func (s *Session) run() {
	defer s.hub.sessions.Done()
	for {
		select {
		case ev := <-s.events:
			ev.reply <- s.handle(ev)
			if s.finished {
				s.stop()
				return
			}
		case <-s.done:
			return
		}
	}
}

func (s *Session) stop() {
	s.stopOnce.Do(func() { close(s.done) })
}

func (s *Session) isStopped() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// submit queues ev and waits for the session goroutine to handle it.
func (s *Session) submit(ctx context.Context, ev sessionEvent) sessionReply {
	ev.ctx = context.WithoutCancel(ctx)
	ev.reply = make(chan sessionReply, 1)

	select {
	case s.events <- ev:
	case <-s.done:
		return sessionReply{err: ErrSessionClosed}
	case <-ctx.Done():
		return sessionReply{err: ctx.Err()}
	}

	select {
	case r := <-ev.reply:
		return r
	case <-s.done:
		// The event that finished the session replies before done closes.
		select {
		case r := <-ev.reply:
			return r
		default:
			return sessionReply{err: ErrSessionClosed}
		}
	case <-ctx.Done():
		return sessionReply{err: ctx.Err()}
	}
}

func (s *Session) handle(ev sessionEvent) sessionReply {
	if s.finished || s.isStopped() {
		return sessionReply{err: ErrSessionClosed}
	}

	switch ev.kind {
	case sessionEventJoin:
		handle, err := s.join(ev.ctx, ev.userID, ev.bet)
		return sessionReply{handle: handle, err: err}
	case sessionEventAction:
		return sessionReply{err: s.apply(ev.ctx, ev.action, ev.player)}
	case sessionEventSnapshot:
		return sessionReply{snapshot: s.snapshot()}
	default:
		return sessionReply{err: configurationError("unknown session event %d", ev.kind)}
	}
}

func (s *Session) join(ctx context.Context, userID string, bet int64) (Handle, error) {
	if len(s.participants) >= s.hub.cfg.Capacity {
		return Handle{}, ErrSessionFull
	}
	if _, exists := s.participants[userID]; exists {
		return Handle{}, ErrAlreadyJoined
	}

	hand, err := s.deck.Draw(2)
	if err != nil {
		return Handle{}, configurationError("deal opening hand: %w", err)
	}

	p := newPlayer(s, userID, bet, hand)
	s.participants[userID] = p
	added := !slices.Contains(s.order, userID)
	if added {
		s.order = append(s.order, userID)
	}

	// A turn nobody can act on would keep the round open forever.
	handle, err := s.hub.display.Render(ctx, s.Channel, s.view(p))
	if err == nil && handle.IsZero() {
		err = errNoHandle
	}
	if err != nil {
		s.unseat(p, added)
		return Handle{}, fmt.Errorf("render turn for %s: %w", userID, err)
	}
	p.Handle = handle
	s.hub.registry.bindRoute(handle.MessageID, p)
	p.routed = true

	s.log.Info().Str("user_id", userID).Int64("bet", bet).Int("value", p.Value()).Msg("player joined")

	s.checkTerminal(ctx, p)
	if err := s.checkRoundComplete(ctx); err != nil {
		return handle, err
	}
	return handle, nil
}

// unseat takes back a join whose turn message could not be shown. A session
// left without participants is dropped unrecorded.
func (s *Session) unseat(p *Player, added bool) {
	delete(s.participants, p.UserID)
	if added {
		s.order = slices.DeleteFunc(s.order, func(id string) bool { return id == p.UserID })
	}
	if len(s.participants) == 0 && len(s.results) == 0 {
		s.hub.registry.removeSession(s)
		s.finished = true
	}
}

// apply runs one action for p. Actions for players whose turn is over, or
// whose route was already torn down, are stale.
func (s *Session) apply(ctx context.Context, ev ActionEvent, p *Player) error {
	if cur, ok := s.participants[p.UserID]; !ok || cur != p || !p.routed || p.Handle.MessageID != ev.MessageID {
		return ErrStaleEvent
	}
	if p.Status != StatusActive {
		return ErrStaleEvent
	}

	var err error
	switch ev.Kind {
	case ActionHit:
		err = s.hit(ctx, p)
	case ActionStay:
		s.stay(ctx, p)
	case ActionDouble:
		err = s.double(ctx, p)
	default:
		return configurationError("unmapped action kind %d", int(ev.Kind))
	}
	if err != nil {
		return err
	}

	s.log.Debug().Str("user_id", p.UserID).Stringer("action", ev.Kind).
		Stringer("status", p.Status).Int("value", p.Value()).Msg("action applied")

	return s.checkRoundComplete(ctx)
}

func (s *Session) deal(p *Player) error {
	cards, err := s.deck.Draw(1)
	if err != nil {
		return configurationError("draw for %s: %w", p.UserID, err)
	}
	p.Hand = append(p.Hand, cards...)
	return nil
}

func (s *Session) hit(ctx context.Context, p *Player) error {
	if err := s.deal(p); err != nil {
		return err
	}
	s.update(ctx, p)
	s.checkTerminal(ctx, p)
	return nil
}

// stay ends the turn. A hand at 21 or over is resolved as blackjack or bust
// before the stay is kept.
func (s *Session) stay(ctx context.Context, p *Player) {
	p.Status = StatusStayed
	if s.checkTerminal(ctx, p) {
		return
	}
	s.revoke(ctx, p)
	s.update(ctx, p)
}

// double takes exactly one card for twice the bet and forces the stay, even
// when the new total is under 21.
func (s *Session) double(ctx context.Context, p *Player) error {
	if err := s.deal(p); err != nil {
		return err
	}
	p.Bet *= 2
	p.Doubled = true
	s.update(ctx, p)
	s.stay(ctx, p)
	return nil
}

// checkTerminal moves p to Busted or Blackjack when its hand calls for it and
// removes it from the session. It reports whether that happened.
func (s *Session) checkTerminal(ctx context.Context, p *Player) bool {
	v := p.Value()
	switch {
	case rules.IsBust(v):
		p.Status = StatusBusted
		p.Outcome = rules.OutcomeLose
	case v == rules.Blackjack:
		p.Status = StatusBlackjack
		p.Outcome = rules.OutcomeWin
	default:
		return false
	}

	s.log.Info().Str("user_id", p.UserID).Stringer("status", p.Status).Int("value", v).Msg("player finished")
	s.update(ctx, p)
	s.remove(ctx, p)
	return true
}

// checkRoundComplete runs the dealer and settles the round once no
// participant is still active. An empty session is discarded without a
// dealer phase. A dealer that cannot finish its hand aborts the round
// unsettled.
func (s *Session) checkRoundComplete(ctx context.Context) error {
	for _, p := range s.participants {
		if p.Status == StatusActive {
			return nil
		}
	}

	if len(s.participants) == 0 {
		s.discard(ctx, false)
		return nil
	}

	dealer, err := rules.DealerPlay(s.dealer, s.deck, s.hub.cfg.DealerStandsOn)
	if err != nil {
		s.abort(ctx)
		return configurationError("dealer play: %w", err)
	}
	s.dealer = dealer
	s.dealerPlayed = true
	s.evaluate(ctx)
	return nil
}

// abort ends the round without outcomes. Nothing is recorded.
func (s *Session) abort(ctx context.Context) {
	for _, p := range s.participants {
		s.revoke(ctx, p)
	}
	s.hub.registry.removeSession(s)
	s.finished = true
	s.log.Error().Int("players", len(s.participants)).Msg("round aborted before settlement")
}

// evaluate settles every remaining participant against the dealer, detaches
// them and discards the session.
func (s *Session) evaluate(ctx context.Context) {
	dealerValue := rules.Value(s.dealer)
	s.log.Info().Int("dealer_value", dealerValue).Int("players", len(s.participants)).Msg("dealer finished")

	for _, userID := range s.order {
		p, ok := s.participants[userID]
		if !ok {
			continue
		}
		p.Outcome = rules.Compare(dealerValue, p.Value())
		s.update(ctx, p)
		s.remove(ctx, p)
	}
	s.discard(ctx, true)
}

// revoke closes the participant's input surface and its route. It runs once
// per turn; a stayed participant is not revoked again at settlement.
func (s *Session) revoke(ctx context.Context, p *Player) {
	if !p.routed {
		return
	}
	s.hub.registry.unbindRoute(p.Handle.MessageID)
	p.routed = false
	if err := s.hub.display.RevokeInput(ctx, p.Handle); err != nil {
		s.log.Warn().Err(err).Str("user_id", p.UserID).Msg("revoke input")
	}
}

// remove detaches p from the session and records its result.
func (s *Session) remove(ctx context.Context, p *Player) {
	s.revoke(ctx, p)
	delete(s.participants, p.UserID)
	s.results = append(s.results, p.result())
}

func (s *Session) update(ctx context.Context, p *Player) {
	if p.Handle.IsZero() {
		return
	}
	if err := s.hub.display.Update(ctx, p.Handle, s.view(p)); err != nil {
		s.log.Warn().Err(err).Str("user_id", p.UserID).Msg("update player turn")
	}
}

func (s *Session) discard(ctx context.Context, dealerPlayed bool) {
	s.hub.registry.removeSession(s)
	s.finished = true

	round := &Round{
		ID:           s.RoundID,
		Channel:      s.Channel,
		DealerCards:  append([]card.Card(nil), s.dealer...),
		DealerValue:  rules.Value(s.dealer),
		DealerPlayed: dealerPlayed,
		Results:      s.results,
		StartedAt:    s.startedAt,
		EndedAt:      time.Now(),
	}
	if s.hub.recorder != nil {
		if err := s.hub.recorder.RecordRound(ctx, round); err != nil {
			s.log.Warn().Err(err).Msg("record round")
		}
	}
	s.log.Info().Bool("dealer_played", dealerPlayed).Int("results", len(s.results)).Msg("session discarded")
}

func (s *Session) view(p *Player) View {
	v := View{
		Channel:     s.Channel,
		UserID:      p.UserID,
		Bet:         p.Bet,
		Cards:       append([]card.Card(nil), p.Hand...),
		Value:       p.Value(),
		Soft:        rules.IsSoft(p.Hand),
		Status:      p.Status,
		Outcome:     p.Outcome,
		Waiting:     p.Status == StatusStayed && p.Outcome == rules.OutcomeNone,
		DealerCards: append([]card.Card(nil), s.dealer...),
	}
	if !s.dealerPlayed && len(s.dealer) > 0 {
		v.DealerHidden = true
		v.DealerCards = v.DealerCards[:1]
	}
	v.DealerValue = rules.Value(v.DealerCards)
	return v
}

// SessionSnapshot is a read-only copy of a live session.
type SessionSnapshot struct {
	Channel      string
	RoundID      string
	DealerUpCard card.Card
	Participants []PlayerSnapshot
	StartedAt    time.Time
}

// PlayerSnapshot is a read-only copy of a participant.
type PlayerSnapshot struct {
	UserID    string
	Bet       int64
	Cards     []card.Card
	Value     int
	Status    Status
	MessageID string
}

func (s *Session) snapshot() SessionSnapshot {
	snap := SessionSnapshot{
		Channel:   s.Channel,
		RoundID:   s.RoundID,
		StartedAt: s.startedAt,
	}
	if len(s.dealer) > 0 {
		snap.DealerUpCard = s.dealer[0]
	}
	for _, userID := range s.order {
		p, ok := s.participants[userID]
		if !ok {
			continue
		}
		snap.Participants = append(snap.Participants, PlayerSnapshot{
			UserID:    p.UserID,
			Bet:       p.Bet,
			Cards:     append([]card.Card(nil), p.Hand...),
			Value:     p.Value(),
			Status:    p.Status,
			MessageID: p.Handle.MessageID,
		})
	}
	return snap
}
