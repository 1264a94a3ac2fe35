package engine

import (
	"encoding/json"
	"math"
	"time"

	"github.com/rustyeddy/paperledger/ledger"
	"github.com/rustyeddy/paperledger/risk"
)

// Every tool the orchestrating caller can invoke is a typed request/response
// pair; there are no open-ended parameter maps to smuggle values past the
// gate.

type InitializePortfolioRequest struct {
	StartingCapital float64 `json:"starting_capital"`
}

type InitializePortfolioResponse struct {
	Created         bool    `json:"created"`
	Message         string  `json:"message"`
	StartingCapital float64 `json:"starting_capital"`
}

type PortfolioState struct {
	Cash               float64           `json:"cash"`
	StartingCapital    float64           `json:"starting_capital"`
	TotalInvested      float64           `json:"total_invested"`
	TotalEquity        float64           `json:"total_equity"`
	OpenPositionsCount int               `json:"open_positions_count"`
	OpenPositions      []ledger.Position `json:"open_positions"`
	DailyRealizedPnL   float64           `json:"daily_realized_pnl"`
	DailyTrades        int64             `json:"daily_trades"`
	CircuitBreakerHit  bool              `json:"circuit_breaker_hit"`
	MarketActive       bool              `json:"market_active"`
	Timestamp          time.Time         `json:"timestamp"`
}

type CheckRiskLimitsRequest struct {
	Symbol          string  `json:"symbol"`
	Quantity        int64   `json:"quantity"`
	EntryPrice      float64 `json:"entry_price"`
	StopLoss        float64 `json:"stop_loss"`
	TransactionType string  `json:"transaction_type"`
}

type LogTradeRequest struct {
	Symbol          string  `json:"symbol"`
	Token           string  `json:"token"`
	TransactionType string  `json:"transaction_type"`
	Quantity        int64   `json:"quantity"`
	Price           float64 `json:"price"`
	OrderID         string  `json:"order_id"`
	TechnicalScore  float64 `json:"technical_score"`
	SentimentScore  float64 `json:"sentiment_score"`
	SentimentLabel  string  `json:"sentiment_label"`
	Confidence      string  `json:"confidence"`
	Reasoning       string  `json:"reasoning"`
	IndicatorsJSON  string  `json:"indicators_json"`
	StopLoss        float64 `json:"stop_loss"`
}

type LogTradeResponse struct {
	TradeID       string  `json:"trade_id"`
	OrderID       string  `json:"order_id"`
	PositionValue float64 `json:"position_value"`
	RiskAmount    float64 `json:"risk_amount"`
}

// PositionAction selects the lifecycle transition for UpdatePosition.
type PositionAction string

const (
	ActionOpen  PositionAction = "OPEN"
	ActionClose PositionAction = "CLOSE"
)

type UpdatePositionRequest struct {
	Symbol string         `json:"symbol"`
	Action PositionAction `json:"action"`

	// OPEN fields.
	Token      string  `json:"token,omitempty"`
	Quantity   int64   `json:"quantity,omitempty"`
	EntryPrice float64 `json:"entry_price,omitempty"`
	StopLoss   float64 `json:"stop_loss,omitempty"`
	TradeID    string  `json:"trade_id,omitempty"`

	// CLOSE field.
	ExitPrice float64 `json:"exit_price,omitempty"`
}

type UpdatePositionResponse struct {
	Action            PositionAction  `json:"action"`
	Position          ledger.Position `json:"position"`
	PnL               *float64        `json:"pnl,omitempty"`
	CircuitBreakerHit *bool           `json:"circuit_breaker_hit,omitempty"`
}

type DailyPnLReport struct {
	ledger.DailyPnL
	Capital            float64 `json:"capital"`
	LossLimit          float64 `json:"loss_limit"`
	LossLimitRemaining float64 `json:"loss_limit_remaining"`
}

// ProfitFactor is gross profit over gross loss. A history with wins and no
// losses makes it infinite, which encoding/json cannot carry; JSON renders
// that case as null.
type ProfitFactor float64

func (p ProfitFactor) MarshalJSON() ([]byte, error) {
	if math.IsInf(float64(p), 1) {
		return []byte("null"), nil
	}
	return json.Marshal(float64(p))
}

func (p *ProfitFactor) UnmarshalJSON(b []byte) error {
	if string(b) == "null" {
		*p = ProfitFactor(math.Inf(1))
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*p = ProfitFactor(f)
	return nil
}

// IsInfinite reports the no-losses case.
func (p ProfitFactor) IsInfinite() bool {
	return math.IsInf(float64(p), 1)
}

type RiskMetrics struct {
	Capital       float64 `json:"capital"`
	Cash          float64 `json:"cash"`
	TotalInvested float64 `json:"total_invested"`
	Equity        float64 `json:"equity"`
	ReturnPct     float64 `json:"return_pct"`

	OpenPositions int     `json:"open_positions"`
	MaxPositions  int     `json:"max_positions"`
	TotalAtRisk   float64 `json:"total_at_risk"`
	ExposurePct   float64 `json:"exposure_pct"`

	TotalTrades  int          `json:"total_trades"`
	Wins         int          `json:"wins"`
	Losses       int          `json:"losses"`
	WinRate      float64      `json:"win_rate"`
	ProfitFactor ProfitFactor `json:"profit_factor"`

	TodayPnL          float64 `json:"today_pnl"`
	TodayTrades       int64   `json:"today_trades"`
	CircuitBreakerHit bool    `json:"circuit_breaker_hit"`
	DailyLossLimit    float64 `json:"daily_loss_limit"`

	Timestamp time.Time `json:"timestamp"`
}

type TradeHistoryRequest struct {
	Symbol          string `json:"symbol,omitempty"`
	TransactionType string `json:"transaction_type,omitempty"`
	Limit           int    `json:"limit,omitempty"`
}

type SaveAnalysisRequest struct {
	Symbol       string  `json:"symbol"`
	AnalysisType string  `json:"analysis_type"`
	Score        float64 `json:"score"`
	Label        string  `json:"label"`
	DetailsJSON  string  `json:"details_json"`
	TTLMinutes   int     `json:"ttl_minutes"`
}

type SaveAnalysisResponse struct {
	Symbol    string    `json:"symbol"`
	Type      string    `json:"analysis_type"`
	ExpiresAt time.Time `json:"expires_at"`
}

// CheckRiskLimitsResponse is the gate verdict; an alias so api handlers and
// CLI output name the same shape the tool contract does.
type CheckRiskLimitsResponse = risk.Result
