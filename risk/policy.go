// Package risk is the stateless pre-trade gate. Evaluate combines a proposed
// trade with a ledger snapshot into an approve/reject verdict with every
// check's outcome itemized; it never mutates state, so the same inputs always
// produce the same verdict.
package risk

// Policy holds the capital-preservation limits. These are fixed at startup,
// never per-call inputs.
type Policy struct {
	// MaxPositionPct caps one position's value as a share of starting capital.
	MaxPositionPct float64

	// MaxOpenPositions caps concurrently OPEN positions, BUY-blocking only.
	MaxOpenPositions int

	// DailyLossLimitPct is the share of starting capital a day may lose
	// before both the gate and the circuit breaker refuse further trades.
	DailyLossLimitPct float64

	// MinStopLossPct / MaxStopLossPct bound the stop distance below entry.
	MinStopLossPct float64
	MaxStopLossPct float64

	// RiskPerTradePct is the share of capital risked per trade; drives the
	// recommended quantity and position sizing.
	RiskPerTradePct float64
}

// Default returns the program's standing limits: 10% position cap, 5 open
// positions, 2% daily loss, 1.5-5% stop band, 1% risk per trade.
func Default() Policy {
	return Policy{
		MaxPositionPct:    0.10,
		MaxOpenPositions:  5,
		DailyLossLimitPct: 0.02,
		MinStopLossPct:    0.015,
		MaxStopLossPct:    0.05,
		RiskPerTradePct:   0.01,
	}
}
