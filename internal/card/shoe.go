package card

import (
	"errors"
	"math/rand/v2"
)

// ErrEmptyShoe is returned when a shoe is configured with no cards.
var ErrEmptyShoe = errors.New("shoe has no cards")

// Drawer hands out cards. Implementations are not safe for concurrent use;
// each session owns its own.
type Drawer interface {
	Draw(n int) ([]Card, error)
}

// Shoe is a finite population of one or more 52-card decks. Cards are drawn
// uniformly at random without replacement; an exhausted shoe is refilled with
// a fresh population so a draw never fails mid-round.
type Shoe struct {
	decks int
	cards []Card
	rng   *rand.Rand
}

// NewShoe builds a shoe of the given number of decks seeded with seed.
func NewShoe(decks int, seed uint64) (*Shoe, error) {
	if decks < 1 {
		return nil, ErrEmptyShoe
	}
	s := &Shoe{
		decks: decks,
		rng:   rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
	}
	s.refill()
	return s, nil
}

// Remaining returns how many cards are left before the next refill.
func (s *Shoe) Remaining() int {
	return len(s.cards)
}

// Draw removes n random cards from the shoe.
func (s *Shoe) Draw(n int) ([]Card, error) {
	if n < 0 {
		return nil, errors.New("negative draw count")
	}
	out := make([]Card, 0, n)
	for range n {
		if len(s.cards) == 0 {
			s.refill()
		}
		i := s.rng.IntN(len(s.cards))
		out = append(out, s.cards[i])
		last := len(s.cards) - 1
		s.cards[i] = s.cards[last]
		s.cards = s.cards[:last]
	}
	return out, nil
}

func (s *Shoe) refill() {
	s.cards = make([]Card, 0, s.decks*52)
	for range s.decks {
		s.cards = append(s.cards, Deck()...)
	}
}

// Deck returns an ordered 52-card deck.
func Deck() []Card {
	deck := make([]Card, 0, 52)
	for suit := Spades; suit <= Diamonds; suit++ {
		for rank := Ace; rank <= King; rank++ {
			deck = append(deck, Card{Rank: rank, Suit: suit})
		}
	}
	return deck
}
