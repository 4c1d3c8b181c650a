package card

import (
	"fmt"
	"strconv"
	"strings"
)

// Rank is the face value of a card. Ace is 1, King is 13.
type Rank uint8

const (
	Ace Rank = iota + 1
	Two
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
)

// Suit is cosmetic and never affects valuation.
type Suit uint8

const (
	Spades Suit = iota
	Hearts
	Clubs
	Diamonds
)

func (s Suit) String() string {
	switch s {
	case Spades:
		return "♠"
	case Hearts:
		return "♥"
	case Clubs:
		return "♣"
	case Diamonds:
		return "♦"
	default:
		return "?"
	}
}

// Card is an immutable rank/suit pair.
type Card struct {
	Rank Rank
	Suit Suit
}

// New builds a card.
func New(r Rank, s Suit) Card {
	return Card{Rank: r, Suit: s}
}

// IsAce reports whether the card is an ace.
func (c Card) IsAce() bool {
	return c.Rank == Ace
}

// Valid reports whether rank and suit are in range.
func (c Card) Valid() bool {
	return c.Rank >= Ace && c.Rank <= King && c.Suit <= Diamonds
}

func (r Rank) String() string {
	switch r {
	case Ace:
		return "A"
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	default:
		return strconv.Itoa(int(r))
	}
}

func (c Card) String() string {
	if !c.Valid() {
		return "Invalid"
	}
	return c.Rank.String() + c.Suit.String()
}

// Parse converts strings such as "As", "10h", "Td" or "kc" into a Card.
func Parse(s string) (Card, error) {
	if len(s) < 2 {
		return Card{}, fmt.Errorf("invalid card string: %q", s)
	}

	var suit Suit
	switch s[len(s)-1] {
	case 's', 'S':
		suit = Spades
	case 'h', 'H':
		suit = Hearts
	case 'c', 'C':
		suit = Clubs
	case 'd', 'D':
		suit = Diamonds
	default:
		return Card{}, fmt.Errorf("invalid suit in %q", s)
	}

	var rank Rank
	switch strings.ToUpper(s[:len(s)-1]) {
	case "A":
		rank = Ace
	case "2":
		rank = Two
	case "3":
		rank = Three
	case "4":
		rank = Four
	case "5":
		rank = Five
	case "6":
		rank = Six
	case "7":
		rank = Seven
	case "8":
		rank = Eight
	case "9":
		rank = Nine
	case "T", "10":
		rank = Ten
	case "J":
		rank = Jack
	case "Q":
		rank = Queen
	case "K":
		rank = King
	default:
		return Card{}, fmt.Errorf("invalid rank in %q", s)
	}

	return Card{Rank: rank, Suit: suit}, nil
}

// MustParse is Parse for literals; it panics on malformed input.
func MustParse(s string) Card {
	c, err := Parse(s)
	if err != nil {
		panic(err)
	}
	return c
}

// Strings renders each card with String.
func Strings(cards []Card) []string {
	out := make([]string, 0, len(cards))
	for _, c := range cards {
		out = append(out, c.String())
	}
	return out
}

// Code is the ASCII form accepted by Parse, e.g. "As" or "Td".
func (c Card) Code() string {
	if !c.Valid() {
		return "??"
	}
	rank := c.Rank.String()
	if c.Rank == Ten {
		rank = "T"
	}
	return rank + string("shcd"[c.Suit])
}

// Codes renders each card with Code.
func Codes(cards []Card) []string {
	out := make([]string, 0, len(cards))
	for _, c := range cards {
		out = append(out, c.Code())
	}
	return out
}

// ParseCodes is the inverse of Codes.
func ParseCodes(codes []string) ([]Card, error) {
	out := make([]Card, 0, len(codes))
	for _, code := range codes {
		c, err := Parse(code)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
