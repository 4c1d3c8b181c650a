// Package rules implements blackjack hand arithmetic, the dealer policy and
// the final comparison between dealer and player totals.
package rules

import (
	"fmt"

	"github.com/vovakirdan/wirechat-blackjack/internal/card"
)

const (
	// Blackjack is the target total.
	Blackjack = 21
	// DealerStandsOn is the default total at which the dealer stops drawing.
	DealerStandsOn = 17
)

// CardValue returns the hard value of a single card with aces counted as 11.
func CardValue(c card.Card) int {
	switch {
	case c.Rank == card.Ace:
		return 11
	case c.Rank >= card.Ten:
		return 10
	default:
		return int(c.Rank)
	}
}

// Value returns the best total for cards. Aces count 11 and are reduced to 1,
// one at a time, while the total exceeds 21.
func Value(cards []card.Card) int {
	total, _ := value(cards)
	return total
}

// IsSoft reports whether the best total still counts an ace as 11.
func IsSoft(cards []card.Card) bool {
	_, soft := value(cards)
	return soft > 0
}

func value(cards []card.Card) (total, softAces int) {
	for _, c := range cards {
		total += CardValue(c)
		if c.IsAce() {
			softAces++
		}
	}
	for total > Blackjack && softAces > 0 {
		total -= 10
		softAces--
	}
	return total, softAces
}

// IsBust reports whether the total is over 21.
func IsBust(total int) bool {
	return total > Blackjack
}

// DealerPlay draws into hand one card at a time while its value is below
// standOn and returns the final hand. The dealer may bust.
func DealerPlay(hand []card.Card, deck card.Drawer, standOn int) ([]card.Card, error) {
	for Value(hand) < standOn {
		drawn, err := deck.Draw(1)
		if err != nil {
			return hand, fmt.Errorf("dealer draw: %w", err)
		}
		if len(drawn) != 1 {
			return hand, fmt.Errorf("dealer draw: got %d cards", len(drawn))
		}
		hand = append(hand, drawn[0])
	}
	return hand, nil
}
