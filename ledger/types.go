package ledger

import (
	"strings"
	"time"
)

// TransactionType is the journaled trade side.
type TransactionType string

const (
	Buy  TransactionType = "BUY"
	Sell TransactionType = "SELL"
)

// ParseTransactionType normalizes user input to a TransactionType.
func ParseTransactionType(s string) (TransactionType, error) {
	switch TransactionType(strings.ToUpper(s)) {
	case Buy:
		return Buy, nil
	case Sell:
		return Sell, nil
	}
	return "", Validationf("transaction_type", "%q is not BUY or SELL", s)
}

// Status is a position's lifecycle state. OPEN rows become CLOSED exactly
// once; CLOSED is terminal.
type Status string

const (
	StatusOpen   Status = "OPEN"
	StatusClosed Status = "CLOSED"
)

// AnalysisType labels a cached analysis score.
type AnalysisType string

const (
	AnalysisTechnical AnalysisType = "TECHNICAL"
	AnalysisSentiment AnalysisType = "SENTIMENT"
	AnalysisCombined  AnalysisType = "COMBINED"
)

// ParseAnalysisType normalizes user input; empty means "all kinds".
func ParseAnalysisType(s string) (AnalysisType, error) {
	if s == "" {
		return "", nil
	}
	switch AnalysisType(strings.ToUpper(s)) {
	case AnalysisTechnical:
		return AnalysisTechnical, nil
	case AnalysisSentiment:
		return AnalysisSentiment, nil
	case AnalysisCombined:
		return AnalysisCombined, nil
	}
	return "", Validationf("analysis_type", "%q is not TECHNICAL, SENTIMENT or COMBINED", s)
}

// Confidence grades the conviction behind a journaled trade.
type Confidence string

const (
	ConfidenceHigh     Confidence = "HIGH"
	ConfidenceModerate Confidence = "MODERATE"
	ConfidenceLow      Confidence = "LOW"
)

// ParseConfidence normalizes user input; empty defaults to LOW.
func ParseConfidence(s string) (Confidence, error) {
	if s == "" {
		return ConfidenceLow, nil
	}
	switch Confidence(strings.ToUpper(s)) {
	case ConfidenceHigh:
		return ConfidenceHigh, nil
	case ConfidenceModerate:
		return ConfidenceModerate, nil
	case ConfidenceLow:
		return ConfidenceLow, nil
	}
	return "", Validationf("confidence", "%q is not HIGH, MODERATE or LOW", s)
}

// Portfolio is the singleton cash row. starting_capital is immutable after
// initialization; only position transitions move cash.
type Portfolio struct {
	ID              int       `db:"id" json:"-"`
	Cash            float64   `db:"cash" json:"cash"`
	StartingCapital float64   `db:"starting_capital" json:"starting_capital"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
	UpdatedAt       time.Time `db:"updated_at" json:"updated_at"`
}

// Position is one holding of a symbol. Exit fields are nil until CLOSED.
type Position struct {
	ID         int64      `db:"id" json:"id"`
	Symbol     string     `db:"symbol" json:"symbol"`
	Token      string     `db:"token" json:"token"`
	Exchange   string     `db:"exchange" json:"exchange"`
	Quantity   int64      `db:"quantity" json:"quantity"`
	EntryPrice float64    `db:"entry_price" json:"entry_price"`
	StopLoss   float64    `db:"stop_loss" json:"stop_loss"`
	EntryTime  time.Time  `db:"entry_time" json:"entry_time"`
	TradeID    string     `db:"trade_id" json:"trade_id"`
	Status     Status     `db:"status" json:"status"`
	ExitPrice  *float64   `db:"exit_price" json:"exit_price,omitempty"`
	ExitTime   *time.Time `db:"exit_time" json:"exit_time,omitempty"`
	PnL        *float64   `db:"pnl" json:"pnl,omitempty"`
}

// Value is the capital tied up at entry.
func (p Position) Value() float64 {
	return p.EntryPrice * float64(p.Quantity)
}

// AtRisk is the loss if the stop is hit.
func (p Position) AtRisk() float64 {
	return (p.EntryPrice - p.StopLoss) * float64(p.Quantity)
}

// Trade is an immutable journal row carrying the full decision context that
// produced it.
type Trade struct {
	ID              int64           `db:"id" json:"id"`
	TradeID         string          `db:"trade_id" json:"trade_id"`
	Symbol          string          `db:"symbol" json:"symbol"`
	Token           string          `db:"token" json:"token"`
	TransactionType TransactionType `db:"transaction_type" json:"transaction_type"`
	Quantity        int64           `db:"quantity" json:"quantity"`
	Price           float64         `db:"price" json:"price"`
	OrderID         string          `db:"order_id" json:"order_id"`
	Timestamp       time.Time       `db:"timestamp" json:"timestamp"`
	TechnicalScore  float64         `db:"technical_score" json:"technical_score"`
	SentimentScore  float64         `db:"sentiment_score" json:"sentiment_score"`
	SentimentLabel  string          `db:"sentiment_label" json:"sentiment_label"`
	Confidence      Confidence      `db:"confidence" json:"confidence"`
	Reasoning       string          `db:"reasoning" json:"reasoning"`
	IndicatorsJSON  string          `db:"indicators_json" json:"indicators_json"`
	StopLoss        float64         `db:"stop_loss" json:"stop_loss"`
	PositionValue   float64         `db:"position_value" json:"position_value"`
	RiskAmount      float64         `db:"risk_amount" json:"risk_amount"`
	CapitalAtTrade  float64         `db:"capital_at_trade" json:"capital_at_trade"`
}

// DailyPnL is the per-date rollup of closed-position P&L. The circuit-breaker
// flag only ever goes false->true within a day; the date rolling over is the
// sole reset.
type DailyPnL struct {
	Date              string  `db:"date" json:"date"`
	RealizedPnL       float64 `db:"realized_pnl" json:"realized_pnl"`
	UnrealizedPnL     float64 `db:"unrealized_pnl" json:"unrealized_pnl"`
	TradesCount       int64   `db:"trades_count" json:"trades_count"`
	Wins              int64   `db:"wins" json:"wins"`
	Losses            int64   `db:"losses" json:"losses"`
	CircuitBreakerHit bool    `db:"circuit_breaker_hit" json:"circuit_breaker_hit"`
}

// Loss is the magnitude of the day's realized loss, zero when profitable.
func (d DailyPnL) Loss() float64 {
	if d.RealizedPnL < 0 {
		return -d.RealizedPnL
	}
	return 0
}

// Analysis is a cached externally-computed score. Rows are never updated;
// expired rows stay in storage but are excluded from reads.
type Analysis struct {
	ID          int64        `db:"id" json:"id"`
	Symbol      string       `db:"symbol" json:"symbol"`
	Type        AnalysisType `db:"analysis_type" json:"analysis_type"`
	Score       float64      `db:"score" json:"score"`
	Label       string       `db:"label" json:"label"`
	DetailsJSON string       `db:"details_json" json:"details_json"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	ExpiresAt   time.Time    `db:"expires_at" json:"expires_at"`
}

// DateOf renders t as the ledger's calendar-date key.
func DateOf(t time.Time) string {
	return t.Format("2006-01-02")
}
