package risk

import (
	"fmt"
	"math"
)

// Confidence multipliers for fixed-fractional sizing. Unknown grades size
// like MODERATE.
var multipliers = map[string]float64{
	"HIGH":     1.0,
	"MODERATE": 0.75,
	"LOW":      0.50,
}

// Sizing is the result of fixed-fractional position sizing.
type Sizing struct {
	Quantity      int64   `json:"quantity"`
	EntryPrice    float64 `json:"entry_price"`
	StopLoss      float64 `json:"stop_loss"`
	PositionValue float64 `json:"position_value"`
	PositionPct   float64 `json:"position_pct_of_capital"`
	RiskAmount    float64 `json:"risk_amount"`
	RiskPct       float64 `json:"risk_pct_of_capital"`
	Confidence    string  `json:"confidence"`
	Multiplier    float64 `json:"multiplier_applied"`
}

// PositionSize computes a quantity using the fixed fractional method: risk
// RiskPerTradePct of capital against the stop distance, cap at MaxPositionPct
// of capital, floor the minimum, then scale by confidence. Quantities always
// round down, never up.
func PositionSize(p Policy, capital, entryPrice, stopLoss float64, confidence string) (Sizing, error) {
	if capital <= 0 {
		return Sizing{}, fmt.Errorf("capital must be positive, got %v", capital)
	}
	if entryPrice <= 0 {
		return Sizing{}, fmt.Errorf("entry price must be positive, got %v", entryPrice)
	}

	slDistance := entryPrice - stopLoss
	slPct := slDistance / entryPrice
	if slPct < p.MinStopLossPct || slPct > p.MaxStopLossPct {
		return Sizing{}, fmt.Errorf("stop-loss must be %.1f%%-%.1f%% below entry, got %.1f%%",
			p.MinStopLossPct*100, p.MaxStopLossPct*100, slPct*100)
	}

	riskBasedQty := capital * p.RiskPerTradePct / slDistance
	capBasedQty := capital * p.MaxPositionPct / entryPrice
	baseQty := math.Floor(math.Min(riskBasedQty, capBasedQty))

	mult, ok := multipliers[confidence]
	if !ok {
		mult = multipliers["MODERATE"]
	}
	qty := int64(math.Max(1, math.Floor(baseQty*mult)))

	value := float64(qty) * entryPrice
	riskAmount := float64(qty) * slDistance

	return Sizing{
		Quantity:      qty,
		EntryPrice:    entryPrice,
		StopLoss:      stopLoss,
		PositionValue: value,
		PositionPct:   value / capital * 100,
		RiskAmount:    riskAmount,
		RiskPct:       riskAmount / capital * 100,
		Confidence:    confidence,
		Multiplier:    mult,
	}, nil
}
