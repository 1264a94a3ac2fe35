package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

// InitializePortfolio creates the singleton portfolio row with the given
// starting capital and seeds today's daily P&L row. Idempotent: re-running
// against an initialized ledger changes nothing and reports created=false.
func (s *Store) InitializePortfolio(ctx context.Context, startingCapital float64, now time.Time) (created bool, err error) {
	if startingCapital <= 0 {
		return false, Validationf("starting_capital", "must be positive, got %v", startingCapital)
	}

	err = s.withTx(ctx, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `
			INSERT OR IGNORE INTO portfolio (id, cash, starting_capital, created_at, updated_at)
			VALUES (1, ?, ?, ?, ?)`,
			startingCapital, startingCapital, now, now)
		if err != nil {
			return fmt.Errorf("insert portfolio: %w", err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		created = n > 0

		_, err = tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO daily_pnl (date) VALUES (?)`, DateOf(now))
		if err != nil {
			return fmt.Errorf("seed daily pnl: %w", err)
		}
		return nil
	})
	if err != nil {
		return false, err
	}

	if created {
		log.Info().Float64("starting_capital", startingCapital).Msg("portfolio initialized")
	}
	return created, nil
}

// Portfolio returns the singleton row, or ErrNotInitialized.
func (s *Store) Portfolio(ctx context.Context) (Portfolio, error) {
	var p Portfolio
	err := s.db.GetContext(ctx, &p, `SELECT * FROM portfolio WHERE id = 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return Portfolio{}, ErrNotInitialized
	}
	if err != nil {
		return Portfolio{}, fmt.Errorf("load portfolio: %w", err)
	}
	return p, nil
}

// portfolioTx loads the singleton row inside an open transaction.
func portfolioTx(ctx context.Context, tx *sqlx.Tx) (Portfolio, error) {
	var p Portfolio
	err := tx.GetContext(ctx, &p, `SELECT * FROM portfolio WHERE id = 1`)
	if errors.Is(err, sql.ErrNoRows) {
		return Portfolio{}, ErrNotInitialized
	}
	if err != nil {
		return Portfolio{}, fmt.Errorf("load portfolio: %w", err)
	}
	return p, nil
}
