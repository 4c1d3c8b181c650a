package core

import (
	"fmt"

	"github.com/vovakirdan/wirechat-blackjack/internal/card"
	"github.com/vovakirdan/wirechat-blackjack/internal/rules"
)

// Status is a participant's place in the turn state machine.
type Status int

const (
	StatusActive Status = iota
	StatusStayed
	StatusBusted
	StatusBlackjack
)

func (s Status) String() string {
	switch s {
	case StatusActive:
		return "active"
	case StatusStayed:
		return "stayed"
	case StatusBusted:
		return "busted"
	case StatusBlackjack:
		return "blackjack"
	default:
		return "unknown"
	}
}

// ParseStatus is the inverse of Status.String.
func ParseStatus(s string) (Status, error) {
	for st := StatusActive; st <= StatusBlackjack; st++ {
		if st.String() == s {
			return st, nil
		}
	}
	return StatusActive, fmt.Errorf("invalid status %q", s)
}

// Finished reports whether the participant's turn is over.
func (s Status) Finished() bool {
	return s != StatusActive
}

// Player is one user's state within a session. All fields are owned by the
// session goroutine.
type Player struct {
	UserID  string
	Bet     int64
	Status  Status
	Outcome rules.Outcome
	Hand    []card.Card
	Handle  Handle
	Doubled bool

	session *Session
	routed  bool
}

func newPlayer(s *Session, userID string, bet int64, hand []card.Card) *Player {
	return &Player{
		UserID:  userID,
		Bet:     bet,
		Status:  StatusActive,
		Hand:    hand,
		session: s,
	}
}

// Value returns the best total of the player's hand.
func (p *Player) Value() int {
	return rules.Value(p.Hand)
}

func (p *Player) result() Result {
	return Result{
		UserID:  p.UserID,
		Bet:     p.Bet,
		Cards:   append([]card.Card(nil), p.Hand...),
		Value:   p.Value(),
		Status:  p.Status,
		Outcome: p.Outcome,
		Doubled: p.Doubled,
	}
}
