package sqlite

import (
	"context"
	"database/sql"
	"fmt"
)

const schema = `
CREATE TABLE IF NOT EXISTS rounds (
	id            TEXT PRIMARY KEY,
	channel       TEXT NOT NULL,
	dealer_cards  TEXT NOT NULL,
	dealer_value  INTEGER NOT NULL,
	dealer_played BOOLEAN NOT NULL DEFAULT 0,
	started_at    DATETIME NOT NULL,
	ended_at      DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS round_results (
	round_id TEXT NOT NULL,
	seat     INTEGER NOT NULL,
	user_id  TEXT NOT NULL,
	bet      INTEGER NOT NULL,
	cards    TEXT NOT NULL,
	value    INTEGER NOT NULL,
	status   TEXT NOT NULL,
	outcome  TEXT NOT NULL,
	doubled  BOOLEAN NOT NULL DEFAULT 0,
	PRIMARY KEY (round_id, seat),
	FOREIGN KEY (round_id) REFERENCES rounds(id) ON DELETE CASCADE
);

CREATE INDEX IF NOT EXISTS idx_rounds_channel ON rounds(channel, ended_at DESC);
`

// Migrate creates the round history tables when they are missing.
func Migrate(db *sql.DB) error {
	if _, err := db.ExecContext(context.Background(), schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}
