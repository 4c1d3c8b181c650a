package core

import (
	"context"
	"time"

	"github.com/vovakirdan/wirechat-blackjack/internal/card"
	"github.com/vovakirdan/wirechat-blackjack/internal/rules"
)

// Result is the final state of one participant in a round.
type Result struct {
	UserID  string
	Bet     int64
	Cards   []card.Card
	Value   int
	Status  Status
	Outcome rules.Outcome
	Doubled bool
}

// Round summarizes a finished session.
type Round struct {
	ID          string
	Channel     string
	DealerCards []card.Card
	DealerValue int
	// DealerPlayed is false when every participant left before the dealer phase.
	DealerPlayed bool
	Results      []Result
	StartedAt    time.Time
	EndedAt      time.Time
}

// Recorder persists finished rounds.
type Recorder interface {
	RecordRound(ctx context.Context, round *Round) error
}
