package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

// applyCloseTx rolls one closed position's P&L into the date's summary and
// trips the circuit breaker once the day's loss reaches limit. The limit is
// derived from the fixed starting capital, not live equity, so it does not
// drift with intraday results. Runs inside the CLOSE transaction; returns
// whether the breaker is set for the date afterwards.
func applyCloseTx(ctx context.Context, tx *sqlx.Tx, date string, pnl, limit float64) (bool, error) {
	var wins, losses int
	if pnl > 0 {
		wins = 1
	}
	if pnl < 0 {
		losses = 1
	}

	_, err := tx.ExecContext(ctx, `
		INSERT INTO daily_pnl (date, realized_pnl, wins, losses)
		VALUES (?, ?, ?, ?)
		ON CONFLICT(date) DO UPDATE SET
			realized_pnl = realized_pnl + excluded.realized_pnl,
			wins = wins + excluded.wins,
			losses = losses + excluded.losses`,
		date, pnl, wins, losses)
	if err != nil {
		return false, fmt.Errorf("upsert daily pnl: %w", err)
	}

	var day DailyPnL
	if err := tx.GetContext(ctx, &day, `SELECT * FROM daily_pnl WHERE date = ?`, date); err != nil {
		return false, fmt.Errorf("reload daily pnl: %w", err)
	}

	if !day.CircuitBreakerHit && day.Loss() >= limit {
		_, err := tx.ExecContext(ctx,
			`UPDATE daily_pnl SET circuit_breaker_hit = 1 WHERE date = ?`, date)
		if err != nil {
			return false, fmt.Errorf("set circuit breaker: %w", err)
		}
		day.CircuitBreakerHit = true
		log.Warn().
			Str("date", date).
			Float64("daily_loss", day.Loss()).
			Float64("limit", limit).
			Msg("circuit breaker hit, trading halted for the day")
	}
	return day.CircuitBreakerHit, nil
}

// bumpTradesCountTx increments the date's journaled-trade counter, creating
// the row lazily.
func bumpTradesCountTx(ctx context.Context, tx *sqlx.Tx, date string) error {
	_, err := tx.ExecContext(ctx, `
		INSERT INTO daily_pnl (date, trades_count)
		VALUES (?, 1)
		ON CONFLICT(date) DO UPDATE SET trades_count = trades_count + 1`, date)
	if err != nil {
		return fmt.Errorf("bump trades count: %w", err)
	}
	return nil
}

// DailyPnL returns the summary row for a date. found is false when no trade
// or close has touched the date yet.
func (s *Store) DailyPnL(ctx context.Context, date string) (DailyPnL, bool, error) {
	var day DailyPnL
	err := s.db.GetContext(ctx, &day, `SELECT * FROM daily_pnl WHERE date = ?`, date)
	if errors.Is(err, sql.ErrNoRows) {
		return DailyPnL{Date: date}, false, nil
	}
	if err != nil {
		return DailyPnL{}, false, fmt.Errorf("load daily pnl: %w", err)
	}
	return day, true, nil
}
