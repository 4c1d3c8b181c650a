package core

import "github.com/vovakirdan/wirechat-blackjack/internal/rules"

// Config holds the game rules that are fixed per process.
type Config struct {
	// Capacity is the maximum number of concurrent participants per session.
	Capacity int
	// DefaultBet is used by the command surface; bet customization is not offered.
	DefaultBet     int64
	DealerStandsOn int
	ShoeDecks      int
}

// DefaultConfig mirrors the bot's original limits.
func DefaultConfig() Config {
	return Config{
		Capacity:       5,
		DefaultBet:     10,
		DealerStandsOn: rules.DealerStandsOn,
		ShoeDecks:      1,
	}
}

// Validate rejects values that would make every session unusable.
func (c Config) Validate() error {
	switch {
	case c.Capacity < 1:
		return configurationError("capacity must be at least 1, got %d", c.Capacity)
	case c.DefaultBet < 1:
		return configurationError("default bet must be positive, got %d", c.DefaultBet)
	case c.DealerStandsOn < 1:
		return configurationError("dealer stand total must be positive, got %d", c.DealerStandsOn)
	case c.ShoeDecks < 1:
		return configurationError("shoe needs at least one deck, got %d", c.ShoeDecks)
	}
	return nil
}
