package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	_ "github.com/mattn/go-sqlite3"

	"github.com/vovakirdan/wirechat-blackjack/internal/card"
	"github.com/vovakirdan/wirechat-blackjack/internal/core"
	"github.com/vovakirdan/wirechat-blackjack/internal/rules"
	"github.com/vovakirdan/wirechat-blackjack/internal/store"
)

// SQLiteStore implements store.RoundStore for SQLite.
type SQLiteStore struct {
	db *sql.DB
}

var _ store.RoundStore = (*SQLiteStore)(nil)

// New opens the database at dbPath and applies the schema.
func New(dbPath string) (*SQLiteStore, error) {
	return NewWithSetup(dbPath, Migrate)
}

// NewWithSetup creates a new SQLite store and runs a setup function.
// Useful for tests to seed data on top of the schema.
func NewWithSetup(dbPath string, setup func(*sql.DB) error) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}

	// SQLite works best with a single connection; :memory: requires it.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if setup != nil {
		if err := setup(db); err != nil {
			db.Close()
			return nil, fmt.Errorf("setup: %w", err)
		}
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping sqlite: %w", err)
	}

	return &SQLiteStore{db: db}, nil
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// RecordRound stores a finished round and its results in one transaction.
func (s *SQLiteStore) RecordRound(ctx context.Context, round *core.Round) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO rounds (id, channel, dealer_cards, dealer_value, dealer_played, started_at, ended_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, round.ID, round.Channel, joinCards(round.DealerCards), round.DealerValue, round.DealerPlayed,
		round.StartedAt.UTC(), round.EndedAt.UTC())
	if err != nil {
		return fmt.Errorf("insert round: %w", err)
	}

	for seat, r := range round.Results {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO round_results (round_id, seat, user_id, bet, cards, value, status, outcome, doubled)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, round.ID, seat, r.UserID, r.Bet, joinCards(r.Cards), r.Value, r.Status.String(), r.Outcome.String(), r.Doubled)
		if err != nil {
			return fmt.Errorf("insert result for %s: %w", r.UserID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit round: %w", err)
	}
	return nil
}

// GetRound retrieves a round by ID.
func (s *SQLiteStore) GetRound(ctx context.Context, id string) (*core.Round, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, channel, dealer_cards, dealer_value, dealer_played, started_at, ended_at
		FROM rounds
		WHERE id = ?
	`, id)

	round, err := scanRound(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, store.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if err := s.loadResults(ctx, []*core.Round{round}); err != nil {
		return nil, err
	}
	return round, nil
}

// ListRounds retrieves the latest rounds of a channel, newest first.
func (s *SQLiteStore) ListRounds(ctx context.Context, channel string, limit int) ([]*core.Round, error) {
	if limit <= 0 {
		limit = store.DefaultListLimit
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, channel, dealer_cards, dealer_value, dealer_played, started_at, ended_at
		FROM rounds
		WHERE channel = ?
		ORDER BY ended_at DESC, rowid DESC
		LIMIT ?
	`, channel, limit)
	if err != nil {
		return nil, fmt.Errorf("query rounds: %w", err)
	}
	defer rows.Close()

	var rounds []*core.Round
	for rows.Next() {
		round, err := scanRound(rows)
		if err != nil {
			return nil, err
		}
		rounds = append(rounds, round)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	if err := s.loadResults(ctx, rounds); err != nil {
		return nil, err
	}
	return rounds, nil
}

func (s *SQLiteStore) loadResults(ctx context.Context, rounds []*core.Round) error {
	for _, round := range rounds {
		rows, err := s.db.QueryContext(ctx, `
			SELECT user_id, bet, cards, value, status, outcome, doubled
			FROM round_results
			WHERE round_id = ?
			ORDER BY seat
		`, round.ID)
		if err != nil {
			return fmt.Errorf("query results: %w", err)
		}

		for rows.Next() {
			var (
				r               core.Result
				cards           string
				status, outcome string
			)
			if err := rows.Scan(&r.UserID, &r.Bet, &cards, &r.Value, &status, &outcome, &r.Doubled); err != nil {
				rows.Close()
				return fmt.Errorf("scan result: %w", err)
			}
			if r.Cards, err = splitCards(cards); err != nil {
				rows.Close()
				return err
			}
			if r.Status, err = core.ParseStatus(status); err != nil {
				rows.Close()
				return err
			}
			if r.Outcome, err = rules.ParseOutcome(outcome); err != nil {
				rows.Close()
				return err
			}
			round.Results = append(round.Results, r)
		}
		err = rows.Err()
		rows.Close()
		if err != nil {
			return err
		}
	}
	return nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRound(sc scanner) (*core.Round, error) {
	var (
		round  core.Round
		dealer string
	)
	if err := sc.Scan(&round.ID, &round.Channel, &dealer, &round.DealerValue, &round.DealerPlayed,
		&round.StartedAt, &round.EndedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan round: %w", err)
	}
	cards, err := splitCards(dealer)
	if err != nil {
		return nil, err
	}
	round.DealerCards = cards
	return &round, nil
}

func joinCards(cards []card.Card) string {
	return strings.Join(card.Codes(cards), " ")
}

func splitCards(s string) ([]card.Card, error) {
	cards, err := card.ParseCodes(strings.Fields(s))
	if err != nil {
		return nil, fmt.Errorf("decode cards %q: %w", s, err)
	}
	return cards, nil
}
