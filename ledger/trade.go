package ledger

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"
)

// TradeID derives the journal key from the trade's timestamp and symbol,
// matching the T<yyyymmddhhmmss>_<symbol> convention of the journal files.
func TradeID(now time.Time, symbol string) string {
	return fmt.Sprintf("T%s_%s", now.Format("20060102150405"), strings.ReplaceAll(symbol, "-", ""))
}

// LogTrade appends one immutable journal row and bumps the date's trade
// counter, atomically. The row's TradeID, Timestamp, PositionValue,
// RiskAmount and CapitalAtTrade must already be filled in by the caller.
func (s *Store) LogTrade(ctx context.Context, t Trade) error {
	if t.Symbol == "" {
		return Validationf("symbol", "must not be empty")
	}
	if t.Quantity <= 0 {
		return Validationf("quantity", "must be positive, got %d", t.Quantity)
	}
	if t.Price <= 0 {
		return Validationf("price", "must be positive, got %v", t.Price)
	}
	if t.TransactionType != Buy && t.TransactionType != Sell {
		return Validationf("transaction_type", "%q is not BUY or SELL", t.TransactionType)
	}

	err := s.withTx(ctx, func(tx *sqlx.Tx) error {
		_, err := tx.NamedExecContext(ctx, `
			INSERT INTO trades (
				trade_id, symbol, token, transaction_type, quantity, price,
				order_id, timestamp, technical_score, sentiment_score,
				sentiment_label, confidence, reasoning, indicators_json,
				stop_loss, position_value, risk_amount, capital_at_trade
			) VALUES (
				:trade_id, :symbol, :token, :transaction_type, :quantity, :price,
				:order_id, :timestamp, :technical_score, :sentiment_score,
				:sentiment_label, :confidence, :reasoning, :indicators_json,
				:stop_loss, :position_value, :risk_amount, :capital_at_trade
			)`, t)
		if err != nil {
			return fmt.Errorf("insert trade: %w", err)
		}
		return bumpTradesCountTx(ctx, tx, DateOf(t.Timestamp))
	})
	if err != nil {
		return err
	}

	log.Info().
		Str("trade_id", t.TradeID).
		Str("symbol", t.Symbol).
		Str("side", string(t.TransactionType)).
		Int64("quantity", t.Quantity).
		Float64("price", t.Price).
		Msg("trade journaled")
	return nil
}

// TradeFilter narrows a journal query. Zero values mean "no filter"; Limit
// defaults to 20.
type TradeFilter struct {
	Symbol          string
	TransactionType TransactionType
	Limit           int
}

// Trades returns journal rows newest first.
func (s *Store) Trades(ctx context.Context, f TradeFilter) ([]Trade, error) {
	query := `SELECT * FROM trades WHERE 1=1`
	var args []any

	if f.Symbol != "" {
		query += ` AND symbol = ?`
		args = append(args, f.Symbol)
	}
	if f.TransactionType != "" {
		query += ` AND transaction_type = ?`
		args = append(args, f.TransactionType)
	}

	limit := f.Limit
	if limit <= 0 {
		limit = 20
	}
	query += ` ORDER BY timestamp DESC LIMIT ?`
	args = append(args, limit)

	var out []Trade
	if err := s.db.SelectContext(ctx, &out, query, args...); err != nil {
		return nil, fmt.Errorf("query trades: %w", err)
	}
	return out, nil
}
