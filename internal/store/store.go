package store

import (
	"context"
	"errors"

	"github.com/vovakirdan/wirechat-blackjack/internal/core"
)

// ErrNotFound is returned when a requested record does not exist.
var ErrNotFound = errors.New("not found")

// DefaultListLimit applies when callers pass a non-positive limit.
const DefaultListLimit = 20

// RoundStore persists finished rounds and serves round history.
type RoundStore interface {
	core.Recorder

	// GetRound returns one round with its results.
	GetRound(ctx context.Context, id string) (*core.Round, error)

	// ListRounds returns the most recent rounds of a channel, newest first.
	ListRounds(ctx context.Context, channel string, limit int) ([]*core.Round, error)

	// Close releases the underlying database.
	Close() error
}
