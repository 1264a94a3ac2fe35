package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/mattn/go-sqlite3"
	"github.com/rs/zerolog/log"
)

// OpenParams describes the OPEN transition for a symbol.
type OpenParams struct {
	Symbol     string
	Token      string
	Exchange   string
	Quantity   int64
	EntryPrice float64
	StopLoss   float64
	TradeID    string
}

func (p OpenParams) validate() error {
	if p.Symbol == "" {
		return Validationf("symbol", "must not be empty")
	}
	if p.Quantity <= 0 {
		return Validationf("quantity", "must be positive, got %d", p.Quantity)
	}
	if p.EntryPrice <= 0 {
		return Validationf("entry_price", "must be positive, got %v", p.EntryPrice)
	}
	return nil
}

// OpenPosition applies the OPEN transition: debit cash by entry_price*quantity
// and insert an OPEN row, atomically. A second OPEN for the same symbol loses
// the race on the partial unique index and returns ErrDuplicatePosition with
// the cash debit rolled back.
func (s *Store) OpenPosition(ctx context.Context, p OpenParams, now time.Time) (Position, error) {
	if err := p.validate(); err != nil {
		return Position{}, err
	}
	if p.Exchange == "" {
		p.Exchange = "NSE"
	}

	pos := Position{
		Symbol:     p.Symbol,
		Token:      p.Token,
		Exchange:   p.Exchange,
		Quantity:   p.Quantity,
		EntryPrice: p.EntryPrice,
		StopLoss:   p.StopLoss,
		EntryTime:  now,
		TradeID:    p.TradeID,
		Status:     StatusOpen,
	}

	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := portfolioTx(ctx, tx); err != nil {
			return err
		}

		_, err := tx.ExecContext(ctx,
			`UPDATE portfolio SET cash = cash - ?, updated_at = ? WHERE id = 1`,
			pos.Value(), now)
		if err != nil {
			return fmt.Errorf("debit cash: %w", err)
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO positions (symbol, token, exchange, quantity, entry_price, stop_loss, entry_time, trade_id, status)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, 'OPEN')`,
			pos.Symbol, pos.Token, pos.Exchange, pos.Quantity,
			pos.EntryPrice, pos.StopLoss, pos.EntryTime, pos.TradeID)
		if err != nil {
			if isUniqueViolation(err) {
				return fmt.Errorf("%w for %s", ErrDuplicatePosition, pos.Symbol)
			}
			return fmt.Errorf("insert position: %w", err)
		}
		pos.ID, _ = res.LastInsertId()
		return nil
	})
	if err != nil {
		return Position{}, err
	}

	log.Info().
		Str("symbol", pos.Symbol).
		Int64("quantity", pos.Quantity).
		Float64("entry_price", pos.EntryPrice).
		Msg("position opened")
	return pos, nil
}

// ClosePosition applies the CLOSE transition for the symbol's unique OPEN row:
// credit cash with exit_price*quantity, mark the row CLOSED with its P&L, and
// roll the P&L into the day's summary — one transaction. Returns the closed
// row and whether the day's circuit breaker is (now) tripped.
func (s *Store) ClosePosition(ctx context.Context, symbol string, exitPrice float64, now time.Time) (Position, bool, error) {
	if symbol == "" {
		return Position{}, false, Validationf("symbol", "must not be empty")
	}
	if exitPrice <= 0 {
		return Position{}, false, Validationf("exit_price", "must be positive, got %v", exitPrice)
	}

	var (
		pos     Position
		tripped bool
	)
	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		pf, err := portfolioTx(ctx, tx)
		if err != nil {
			return err
		}

		err = tx.GetContext(ctx, &pos,
			`SELECT * FROM positions WHERE symbol = ? AND status = 'OPEN'`, symbol)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w for %s", ErrPositionNotFound, symbol)
		}
		if err != nil {
			return fmt.Errorf("find open position: %w", err)
		}

		pnl := (exitPrice - pos.EntryPrice) * float64(pos.Quantity)

		_, err = tx.ExecContext(ctx,
			`UPDATE portfolio SET cash = cash + ?, updated_at = ? WHERE id = 1`,
			exitPrice*float64(pos.Quantity), now)
		if err != nil {
			return fmt.Errorf("credit cash: %w", err)
		}

		_, err = tx.ExecContext(ctx, `
			UPDATE positions SET status = 'CLOSED', exit_price = ?, exit_time = ?, pnl = ?
			WHERE id = ?`,
			exitPrice, now, pnl, pos.ID)
		if err != nil {
			return fmt.Errorf("close position: %w", err)
		}

		tripped, err = applyCloseTx(ctx, tx, DateOf(now), pnl, pf.StartingCapital*s.lossLimitPct)
		if err != nil {
			return err
		}

		pos.Status = StatusClosed
		pos.ExitPrice = &exitPrice
		pos.ExitTime = &now
		pos.PnL = &pnl
		return nil
	})
	if err != nil {
		return Position{}, false, err
	}

	log.Info().
		Str("symbol", pos.Symbol).
		Float64("exit_price", exitPrice).
		Float64("pnl", *pos.PnL).
		Bool("circuit_breaker_hit", tripped).
		Msg("position closed")
	return pos, tripped, nil
}

// OpenPositions returns all OPEN rows.
func (s *Store) OpenPositions(ctx context.Context) ([]Position, error) {
	var out []Position
	err := s.db.SelectContext(ctx, &out,
		`SELECT * FROM positions WHERE status = 'OPEN' ORDER BY entry_time`)
	if err != nil {
		return nil, fmt.Errorf("list open positions: %w", err)
	}
	return out, nil
}

// FindOpen returns the unique OPEN row for symbol, or ErrPositionNotFound.
func (s *Store) FindOpen(ctx context.Context, symbol string) (Position, error) {
	var pos Position
	err := s.db.GetContext(ctx, &pos,
		`SELECT * FROM positions WHERE symbol = ? AND status = 'OPEN'`, symbol)
	if errors.Is(err, sql.ErrNoRows) {
		return Position{}, fmt.Errorf("%w for %s", ErrPositionNotFound, symbol)
	}
	if err != nil {
		return Position{}, fmt.Errorf("find open position: %w", err)
	}
	return pos, nil
}

// ClosedPositions returns every CLOSED row, oldest first.
func (s *Store) ClosedPositions(ctx context.Context) ([]Position, error) {
	var out []Position
	err := s.db.SelectContext(ctx, &out,
		`SELECT * FROM positions WHERE status = 'CLOSED' ORDER BY exit_time`)
	if err != nil {
		return nil, fmt.Errorf("list closed positions: %w", err)
	}
	return out, nil
}

func isUniqueViolation(err error) bool {
	var se sqlite3.Error
	return errors.As(err, &se) && se.ExtendedCode == sqlite3.ErrConstraintUnique
}
