package core

import (
	"context"

	"github.com/google/uuid"

	"github.com/vovakirdan/wirechat-blackjack/internal/card"
	"github.com/vovakirdan/wirechat-blackjack/internal/rules"
)

// Handle identifies the external message that shows one participant's turn.
type Handle struct {
	Channel   string
	MessageID string
}

// IsZero reports whether the handle was never assigned.
func (h Handle) IsZero() bool {
	return h.MessageID == ""
}

// View is the state handed to the display on every transition.
type View struct {
	Channel string
	UserID  string
	Bet     int64
	Cards   []card.Card
	Value   int
	Soft    bool
	Status  Status
	Outcome rules.Outcome
	// Waiting is set once the participant stayed and the round is still open.
	Waiting bool

	// While DealerHidden is set only the dealer's first card is exposed.
	DealerCards  []card.Card
	DealerValue  int
	DealerHidden bool
}

// Display renders participant state into user-facing messages. Failures are
// logged by the caller and never roll back game state.
type Display interface {
	// Render posts a new message for a participant and returns its handle.
	Render(ctx context.Context, channel string, view View) (Handle, error)
	// Update replaces the content of an existing message.
	Update(ctx context.Context, handle Handle, view View) error
	// RevokeInput removes the action surface (reactions, buttons) of a message.
	RevokeInput(ctx context.Context, handle Handle) error
}

type nopDisplay struct{}

func (nopDisplay) Render(_ context.Context, channel string, _ View) (Handle, error) {
	return Handle{Channel: channel, MessageID: uuid.NewString()}, nil
}

func (nopDisplay) Update(context.Context, Handle, View) error { return nil }

func (nopDisplay) RevokeInput(context.Context, Handle) error { return nil }

// Title is the heading shown on a participant's turn message.
func (v View) Title() string {
	switch {
	case v.Status == StatusBusted:
		return "Busted!"
	case v.Status == StatusBlackjack:
		return "Blackjack!"
	case v.Outcome == rules.OutcomeWin:
		return "You win!"
	case v.Outcome == rules.OutcomeLose:
		return "You lose!"
	case v.Outcome == rules.OutcomeTie:
		return "Push"
	case v.Waiting:
		return "Waiting for other players..."
	default:
		return "Blackjack"
	}
}
