package engine

import (
	"context"
	"io"
	"math"

	"github.com/rustyeddy/paperledger/ledger"
	"github.com/rustyeddy/paperledger/risk"
)

// GetDailyPnL reports one date's summary with the loss budget alongside.
// Empty date means today.
func (e *Engine) GetDailyPnL(ctx context.Context, date string) (DailyPnLReport, error) {
	if date == "" {
		date = ledger.DateOf(e.clock.Now())
	}

	p, err := e.store.Portfolio(ctx)
	if err != nil {
		return DailyPnLReport{}, err
	}

	day, _, err := e.store.DailyPnL(ctx, date)
	if err != nil {
		return DailyPnLReport{}, err
	}

	limit := p.StartingCapital * e.policy.DailyLossLimitPct
	return DailyPnLReport{
		DailyPnL:           day,
		Capital:            p.StartingCapital,
		LossLimit:          limit,
		LossLimitRemaining: math.Max(0, limit-day.Loss()),
	}, nil
}

// GetRiskMetrics is the full dashboard: exposure, win rate, profit factor
// and today's standing relative to the loss budget.
func (e *Engine) GetRiskMetrics(ctx context.Context) (RiskMetrics, error) {
	now := e.clock.Now()

	p, err := e.store.Portfolio(ctx)
	if err != nil {
		return RiskMetrics{}, err
	}

	open, err := e.store.OpenPositions(ctx)
	if err != nil {
		return RiskMetrics{}, err
	}
	var invested, atRisk float64
	for _, pos := range open {
		invested += pos.Value()
		atRisk += pos.AtRisk()
	}

	closed, err := e.store.ClosedPositions(ctx)
	if err != nil {
		return RiskMetrics{}, err
	}
	var wins, losses int
	var grossProfit, grossLoss float64
	for _, pos := range closed {
		if pos.PnL == nil {
			continue
		}
		switch {
		case *pos.PnL > 0:
			wins++
			grossProfit += *pos.PnL
		case *pos.PnL < 0:
			losses++
			grossLoss += -*pos.PnL
		}
	}

	m := RiskMetrics{
		Capital:       p.StartingCapital,
		Cash:          p.Cash,
		TotalInvested: invested,
		Equity:        p.Cash + invested,

		OpenPositions: len(open),
		MaxPositions:  e.policy.MaxOpenPositions,
		TotalAtRisk:   atRisk,

		TotalTrades: len(closed),
		Wins:        wins,
		Losses:      losses,

		DailyLossLimit: p.StartingCapital * e.policy.DailyLossLimitPct,
		Timestamp:      now,
	}

	if p.StartingCapital > 0 {
		m.ReturnPct = (m.Equity - p.StartingCapital) / p.StartingCapital
		m.ExposurePct = invested / p.StartingCapital
	}
	if len(closed) > 0 {
		m.WinRate = float64(wins) / float64(len(closed))
	}
	if grossLoss > 0 {
		m.ProfitFactor = ProfitFactor(grossProfit / grossLoss)
	} else if grossProfit > 0 {
		m.ProfitFactor = ProfitFactor(math.Inf(1))
	}

	day, _, err := e.store.DailyPnL(ctx, ledger.DateOf(now))
	if err != nil {
		return RiskMetrics{}, err
	}
	m.TodayPnL = day.RealizedPnL
	m.TodayTrades = day.TradesCount
	m.CircuitBreakerHit = day.CircuitBreakerHit

	return m, nil
}

// GetTradeHistory returns journal rows, newest first.
func (e *Engine) GetTradeHistory(ctx context.Context, req TradeHistoryRequest) ([]ledger.Trade, error) {
	var side ledger.TransactionType
	if req.TransactionType != "" {
		parsed, err := ledger.ParseTransactionType(req.TransactionType)
		if err != nil {
			return nil, err
		}
		side = parsed
	}
	return e.store.Trades(ctx, ledger.TradeFilter{
		Symbol:          req.Symbol,
		TransactionType: side,
		Limit:           req.Limit,
	})
}

// ExportTradeHistoryCSV streams the filtered journal as CSV.
func (e *Engine) ExportTradeHistoryCSV(ctx context.Context, w io.Writer, req TradeHistoryRequest) error {
	var side ledger.TransactionType
	if req.TransactionType != "" {
		parsed, err := ledger.ParseTransactionType(req.TransactionType)
		if err != nil {
			return err
		}
		side = parsed
	}
	return e.store.ExportTradesCSV(ctx, w, ledger.TradeFilter{
		Symbol:          req.Symbol,
		TransactionType: side,
		Limit:           req.Limit,
	})
}

// CalculatePositionSize sizes an entry against the fixed starting capital
// using the fixed fractional method.
func (e *Engine) CalculatePositionSize(ctx context.Context, entryPrice, stopLoss float64, confidence string) (risk.Sizing, error) {
	p, err := e.store.Portfolio(ctx)
	if err != nil {
		return risk.Sizing{}, err
	}
	return risk.PositionSize(e.policy, p.StartingCapital, entryPrice, stopLoss, confidence)
}
