package risk

import (
	"fmt"
	"math"
	"time"
)

// Side is the proposed transaction direction.
type Side string

const (
	Buy  Side = "BUY"
	Sell Side = "SELL"
)

// Check names, reported in this fixed order on every evaluation.
const (
	CheckMarketActive        = "market_active"
	CheckDailyLossLimit      = "daily_loss_limit"
	CheckCircuitBreaker      = "circuit_breaker"
	CheckOpenPositions       = "open_positions"
	CheckNoDuplicatePosition = "no_duplicate_position"
	CheckPositionSize        = "position_size"
	CheckStopLossValid       = "stop_loss_valid"
	CheckSufficientCash      = "sufficient_cash"
)

// Proposal is the trade under evaluation.
type Proposal struct {
	Symbol     string
	Quantity   int64
	EntryPrice float64
	StopLoss   float64
	Side       Side
}

// Snapshot is the read-only ledger state the gate evaluates against.
type Snapshot struct {
	Cash            float64
	StartingCapital float64

	// Today's figures.
	DailyLoss         float64 // magnitude of realized loss, >= 0
	CircuitBreakerHit bool

	OpenPositions   int
	HoldingQuantity int64 // open quantity for the proposal's symbol
	Holding         bool

	MarketActive bool
	Now          time.Time
}

// Check is one gate rule's outcome. Every check is always reported; Blocking
// says whether a failure vetoes this particular proposal (several rules are
// informational for SELL).
type Check struct {
	Name     string `json:"name"`
	Passed   bool   `json:"passed"`
	Blocking bool   `json:"blocking"`
	Detail   string `json:"detail"`
}

// Result is the gate's verdict. Approved is true iff every blocking check
// passed. A false Approved is a normal outcome the caller must honor, not an
// error.
type Result struct {
	Approved     bool    `json:"approved"`
	Checks       []Check `json:"checks"`
	ChecksPassed int     `json:"checks_passed"`
	ChecksTotal  int     `json:"checks_total"`

	PositionValue   float64 `json:"position_value"`
	RiskAmount      float64 `json:"risk_amount"`
	MaxRiskPerTrade float64 `json:"max_risk_per_trade"`

	// RecommendedQuantity is the 1%-risk quantity for this entry/stop.
	// Informational only, never auto-applied.
	RecommendedQuantity int64 `json:"recommended_quantity"`
}

func (r *Result) add(name string, passed, blocking bool, detail string) {
	r.Checks = append(r.Checks, Check{Name: name, Passed: passed, Blocking: blocking, Detail: detail})
	if passed {
		r.ChecksPassed++
	} else if blocking {
		r.Approved = false
	}
}

// Evaluate runs the eight checks in fixed order. Exposure rules
// (open_positions, no_duplicate_position, stop_loss_valid, sufficient_cash)
// block only BUY proposals; a SELL reduces exposure and sails past them with
// the outcome still reported.
func Evaluate(p Policy, prop Proposal, snap Snapshot) Result {
	buy := prop.Side == Buy
	r := Result{Approved: true}

	// 1. market_active
	detail := "within trading window"
	if !snap.MarketActive {
		detail = fmt.Sprintf("outside trading window at %s", snap.Now.Format("15:04:05"))
	}
	r.add(CheckMarketActive, snap.MarketActive, true, detail)

	// 2. daily_loss_limit
	lossLimit := snap.StartingCapital * p.DailyLossLimitPct
	lossOK := snap.DailyLoss < lossLimit
	r.add(CheckDailyLossLimit, lossOK, true,
		fmt.Sprintf("daily loss %.2f / limit %.2f", snap.DailyLoss, lossLimit))

	// 3. circuit_breaker
	detail = "not tripped"
	if snap.CircuitBreakerHit {
		detail = "circuit breaker hit, trading halted for the day"
	}
	r.add(CheckCircuitBreaker, !snap.CircuitBreakerHit, true, detail)

	// 4. open_positions
	r.add(CheckOpenPositions, snap.OpenPositions < p.MaxOpenPositions, buy,
		fmt.Sprintf("%d / %d max", snap.OpenPositions, p.MaxOpenPositions))

	// 5. no_duplicate_position
	detail = "no existing position"
	if snap.Holding {
		detail = fmt.Sprintf("already holding %d of %s", snap.HoldingQuantity, prop.Symbol)
	}
	r.add(CheckNoDuplicatePosition, !snap.Holding, buy, detail)

	// 6. position_size
	r.PositionValue = prop.EntryPrice * float64(prop.Quantity)
	maxPosition := snap.StartingCapital * p.MaxPositionPct
	r.add(CheckPositionSize, r.PositionValue <= maxPosition, true,
		fmt.Sprintf("value %.2f / max %.2f", r.PositionValue, maxPosition))

	// 7. stop_loss_valid. Distance is measured below entry; a stop at or
	// above entry, or a non-positive entry, yields distance 0 and fails
	// without ever dividing by zero.
	slDistance := 0.0
	if prop.EntryPrice > 0 && prop.StopLoss > 0 {
		slDistance = (prop.EntryPrice - prop.StopLoss) / prop.EntryPrice
	}
	slOK := prop.StopLoss > 0 && slDistance >= p.MinStopLossPct && slDistance <= p.MaxStopLossPct
	r.add(CheckStopLossValid, slOK, buy,
		fmt.Sprintf("stop %.2f is %.1f%% from entry, required %.1f%%-%.1f%%",
			prop.StopLoss, slDistance*100, p.MinStopLossPct*100, p.MaxStopLossPct*100))

	// 8. sufficient_cash
	r.add(CheckSufficientCash, snap.Cash >= r.PositionValue, buy,
		fmt.Sprintf("cash %.2f / needed %.2f", snap.Cash, r.PositionValue))

	r.ChecksTotal = len(r.Checks)

	if prop.StopLoss > 0 {
		r.RiskAmount = (prop.EntryPrice - prop.StopLoss) * float64(prop.Quantity)
	}
	r.MaxRiskPerTrade = snap.StartingCapital * p.RiskPerTradePct
	if prop.StopLoss > 0 && prop.EntryPrice > prop.StopLoss {
		r.RecommendedQuantity = int64(math.Floor(r.MaxRiskPerTrade / (prop.EntryPrice - prop.StopLoss)))
	}

	return r
}
