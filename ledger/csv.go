package ledger

import (
	"context"
	"encoding/csv"
	"io"
	"strconv"
	"time"
)

// ExportTradesCSV writes the filtered journal to w as CSV, newest first, for
// offline review of decision context.
func (s *Store) ExportTradesCSV(ctx context.Context, w io.Writer, f TradeFilter) error {
	trades, err := s.Trades(ctx, f)
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{
		"trade_id", "symbol", "transaction_type", "quantity", "price",
		"order_id", "timestamp", "technical_score", "sentiment_score",
		"sentiment_label", "confidence", "reasoning",
		"stop_loss", "position_value", "risk_amount", "capital_at_trade",
	}); err != nil {
		return err
	}

	for _, t := range trades {
		if err := cw.Write([]string{
			t.TradeID,
			t.Symbol,
			string(t.TransactionType),
			strconv.FormatInt(t.Quantity, 10),
			f64(t.Price),
			t.OrderID,
			t.Timestamp.Format(time.RFC3339),
			f64(t.TechnicalScore),
			f64(t.SentimentScore),
			t.SentimentLabel,
			string(t.Confidence),
			t.Reasoning,
			f64(t.StopLoss),
			f64(t.PositionValue),
			f64(t.RiskAmount),
			f64(t.CapitalAtTrade),
		}); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

func f64(x float64) string {
	return strconv.FormatFloat(x, 'f', -1, 64)
}
