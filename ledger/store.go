// Package ledger is the authoritative record of cash, positions, executed
// trades, daily P&L and cached analyses. It is the only component allowed to
// write the persisted rows; every exported mutation runs as a single SQLite
// transaction that commits or rolls back in full.
package ledger

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

// DefaultDailyLossLimitPct is the share of starting capital a day may lose
// before the circuit breaker halts trading.
const DefaultDailyLossLimitPct = 0.02

// Store wraps the SQLite ledger database.
type Store struct {
	db           *sqlx.DB
	lossLimitPct float64
}

// SetDailyLossLimitPct overrides the circuit-breaker threshold. Call before
// serving traffic; it is not safe to change mid-flight.
func (s *Store) SetDailyLossLimitPct(pct float64) {
	if pct > 0 {
		s.lossLimitPct = pct
	}
}

// Open opens (creating if needed) the ledger database at path and ensures the
// schema exists. The busy timeout serializes concurrent writers instead of
// surfacing SQLITE_BUSY to callers.
func Open(path string) (*Store, error) {
	dsn := fmt.Sprintf("file:%s?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on", path)

	db, err := sqlx.Open("sqlite3", dsn)
	if err != nil {
		return nil, fmt.Errorf("open ledger db: %w", err)
	}

	// A single connection keeps SQLite's writer discipline simple: every
	// operation is one transaction on one connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(Schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply ledger schema: %w", err)
	}

	log.Debug().Str("path", path).Msg("ledger store opened")
	return &Store{db: db, lossLimitPct: DefaultDailyLossLimitPct}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// withTx runs fn inside a transaction. Any error rolls back the whole
// operation; no partial state survives.
func (s *Store) withTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}
