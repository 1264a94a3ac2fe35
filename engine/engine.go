// Package engine wires the ledger store, the risk gate, the market clock and
// the analysis cache into the tool surface callers see. Whatever proposes a
// trade — human, rule engine or language model — goes through CheckRiskLimits
// and cannot reach around it: the engine owns the only write path.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rustyeddy/paperledger/cache"
	"github.com/rustyeddy/paperledger/ledger"
	"github.com/rustyeddy/paperledger/market"
	"github.com/rustyeddy/paperledger/pkg/id"
	"github.com/rustyeddy/paperledger/risk"
)

type Engine struct {
	store    *ledger.Store
	analyses cache.Store
	policy   risk.Policy
	window   market.Window
	clock    market.Clock
	ttl      time.Duration
}

// Option tweaks an Engine at construction.
type Option func(*Engine)

// WithClock injects a clock; tests use it to move the trading window and the
// cache TTL around.
func WithClock(c market.Clock) Option {
	return func(e *Engine) { e.clock = c }
}

// WithAnalysisStore swaps the analysis-cache backend.
func WithAnalysisStore(s cache.Store) Option {
	return func(e *Engine) { e.analyses = s }
}

// WithDefaultTTL sets the analysis TTL used when a request leaves it zero.
func WithDefaultTTL(ttl time.Duration) Option {
	return func(e *Engine) {
		if ttl > 0 {
			e.ttl = ttl
		}
	}
}

func New(store *ledger.Store, policy risk.Policy, window market.Window, opts ...Option) *Engine {
	e := &Engine{
		store:    store,
		analyses: cache.NewLedgerStore(store),
		policy:   policy,
		window:   window,
		clock:    market.SystemClock{Loc: window.Loc},
		ttl:      cache.DefaultTTL,
	}
	for _, opt := range opts {
		opt(e)
	}
	e.store.SetDailyLossLimitPct(policy.DailyLossLimitPct)
	return e
}

// InitializePortfolio sets up the singleton portfolio. Safe to re-run: an
// initialized ledger is left untouched.
func (e *Engine) InitializePortfolio(ctx context.Context, req InitializePortfolioRequest) (InitializePortfolioResponse, error) {
	created, err := e.store.InitializePortfolio(ctx, req.StartingCapital, e.clock.Now())
	if err != nil {
		return InitializePortfolioResponse{}, err
	}

	p, err := e.store.Portfolio(ctx)
	if err != nil {
		return InitializePortfolioResponse{}, err
	}

	msg := fmt.Sprintf("portfolio initialized with %.2f", p.StartingCapital)
	if !created {
		msg = fmt.Sprintf("portfolio already initialized with %.2f, left untouched", p.StartingCapital)
	}
	return InitializePortfolioResponse{
		Created:         created,
		Message:         msg,
		StartingCapital: p.StartingCapital,
	}, nil
}

// GetPortfolioState is the dashboard view: cash, open positions, today's
// figures and whether the market window is open right now.
func (e *Engine) GetPortfolioState(ctx context.Context) (PortfolioState, error) {
	now := e.clock.Now()

	p, err := e.store.Portfolio(ctx)
	if err != nil {
		return PortfolioState{}, err
	}

	open, err := e.store.OpenPositions(ctx)
	if err != nil {
		return PortfolioState{}, err
	}
	var invested float64
	for _, pos := range open {
		invested += pos.Value()
	}

	day, _, err := e.store.DailyPnL(ctx, ledger.DateOf(now))
	if err != nil {
		return PortfolioState{}, err
	}

	return PortfolioState{
		Cash:               p.Cash,
		StartingCapital:    p.StartingCapital,
		TotalInvested:      invested,
		TotalEquity:        p.Cash + invested,
		OpenPositionsCount: len(open),
		OpenPositions:      open,
		DailyRealizedPnL:   day.RealizedPnL,
		DailyTrades:        day.TradesCount,
		CircuitBreakerHit:  day.CircuitBreakerHit,
		MarketActive:       e.window.Active(now),
		Timestamp:          now,
	}, nil
}

// CheckRiskLimits runs the eight-point gate over the current ledger snapshot.
// The verdict is advisory in structure but binding in policy: a false
// Approved must never be executed.
func (e *Engine) CheckRiskLimits(ctx context.Context, req CheckRiskLimitsRequest) (CheckRiskLimitsResponse, error) {
	side, err := parseSide(req.TransactionType)
	if err != nil {
		return CheckRiskLimitsResponse{}, err
	}
	if req.Symbol == "" {
		return CheckRiskLimitsResponse{}, ledger.Validationf("symbol", "must not be empty")
	}
	if req.Quantity <= 0 {
		return CheckRiskLimitsResponse{}, ledger.Validationf("quantity", "must be positive, got %d", req.Quantity)
	}

	now := e.clock.Now()

	// Distinct not-initialized failure before any check runs.
	p, err := e.store.Portfolio(ctx)
	if err != nil {
		return CheckRiskLimitsResponse{}, err
	}

	day, _, err := e.store.DailyPnL(ctx, ledger.DateOf(now))
	if err != nil {
		return CheckRiskLimitsResponse{}, err
	}

	open, err := e.store.OpenPositions(ctx)
	if err != nil {
		return CheckRiskLimitsResponse{}, err
	}

	snap := risk.Snapshot{
		Cash:              p.Cash,
		StartingCapital:   p.StartingCapital,
		DailyLoss:         day.Loss(),
		CircuitBreakerHit: day.CircuitBreakerHit,
		OpenPositions:     len(open),
		MarketActive:      e.window.Active(now),
		Now:               now,
	}
	for _, pos := range open {
		if pos.Symbol == req.Symbol {
			snap.Holding = true
			snap.HoldingQuantity = pos.Quantity
		}
	}

	prop := risk.Proposal{
		Symbol:     req.Symbol,
		Quantity:   req.Quantity,
		EntryPrice: req.EntryPrice,
		StopLoss:   req.StopLoss,
		Side:       side,
	}
	return risk.Evaluate(e.policy, prop, snap), nil
}

// LogTrade appends one journal row with its full decision context. The
// journal records attempts as well as fills; it never moves cash.
func (e *Engine) LogTrade(ctx context.Context, req LogTradeRequest) (LogTradeResponse, error) {
	side, err := ledger.ParseTransactionType(req.TransactionType)
	if err != nil {
		return LogTradeResponse{}, err
	}
	confidence, err := ledger.ParseConfidence(req.Confidence)
	if err != nil {
		return LogTradeResponse{}, err
	}

	now := e.clock.Now()

	// capital_at_trade snapshots available cash; an uninitialized ledger
	// journals zero rather than refusing the record.
	var capital float64
	if p, err := e.store.Portfolio(ctx); err == nil {
		capital = p.Cash
	} else if !errors.Is(err, ledger.ErrNotInitialized) {
		return LogTradeResponse{}, err
	}

	orderID := req.OrderID
	if orderID == "" {
		orderID = id.NewOrderID()
	}

	t := ledger.Trade{
		TradeID:         ledger.TradeID(now, req.Symbol),
		Symbol:          req.Symbol,
		Token:           req.Token,
		TransactionType: side,
		Quantity:        req.Quantity,
		Price:           req.Price,
		OrderID:         orderID,
		Timestamp:       now,
		TechnicalScore:  req.TechnicalScore,
		SentimentScore:  req.SentimentScore,
		SentimentLabel:  req.SentimentLabel,
		Confidence:      confidence,
		Reasoning:       req.Reasoning,
		IndicatorsJSON:  req.IndicatorsJSON,
		StopLoss:        req.StopLoss,
		PositionValue:   req.Price * float64(req.Quantity),
		CapitalAtTrade:  capital,
	}
	if req.StopLoss > 0 {
		t.RiskAmount = (req.Price - req.StopLoss) * float64(req.Quantity)
	}

	if err := e.store.LogTrade(ctx, t); err != nil {
		return LogTradeResponse{}, err
	}
	return LogTradeResponse{
		TradeID:       t.TradeID,
		OrderID:       t.OrderID,
		PositionValue: t.PositionValue,
		RiskAmount:    t.RiskAmount,
	}, nil
}

// UpdatePosition applies the OPEN or CLOSE transition after the external fill
// happened. The caller is expected to have cleared CheckRiskLimits first; the
// store still enforces the one-OPEN-per-symbol invariant regardless.
func (e *Engine) UpdatePosition(ctx context.Context, req UpdatePositionRequest) (UpdatePositionResponse, error) {
	now := e.clock.Now()

	switch req.Action {
	case ActionOpen:
		pos, err := e.store.OpenPosition(ctx, ledger.OpenParams{
			Symbol:     req.Symbol,
			Token:      req.Token,
			Quantity:   req.Quantity,
			EntryPrice: req.EntryPrice,
			StopLoss:   req.StopLoss,
			TradeID:    req.TradeID,
		}, now)
		if err != nil {
			return UpdatePositionResponse{}, err
		}
		return UpdatePositionResponse{Action: ActionOpen, Position: pos}, nil

	case ActionClose:
		pos, tripped, err := e.store.ClosePosition(ctx, req.Symbol, req.ExitPrice, now)
		if err != nil {
			return UpdatePositionResponse{}, err
		}
		return UpdatePositionResponse{
			Action:            ActionClose,
			Position:          pos,
			PnL:               pos.PnL,
			CircuitBreakerHit: &tripped,
		}, nil

	default:
		return UpdatePositionResponse{}, ledger.Validationf("action", "%q is not OPEN or CLOSE", req.Action)
	}
}

// SaveAnalysis memoizes an externally computed score for TTL minutes
// (default 30).
func (e *Engine) SaveAnalysis(ctx context.Context, req SaveAnalysisRequest) (SaveAnalysisResponse, error) {
	typ, err := ledger.ParseAnalysisType(req.AnalysisType)
	if err != nil {
		return SaveAnalysisResponse{}, err
	}
	if typ == "" {
		return SaveAnalysisResponse{}, ledger.Validationf("analysis_type", "must not be empty")
	}

	ttl := e.ttl
	if req.TTLMinutes > 0 {
		ttl = time.Duration(req.TTLMinutes) * time.Minute
	}

	now := e.clock.Now()
	a := ledger.Analysis{
		Symbol:      req.Symbol,
		Type:        typ,
		Score:       req.Score,
		Label:       req.Label,
		DetailsJSON: req.DetailsJSON,
		CreatedAt:   now,
		ExpiresAt:   now.Add(ttl),
	}
	if err := e.analyses.Save(ctx, a); err != nil {
		return SaveAnalysisResponse{}, err
	}
	return SaveAnalysisResponse{Symbol: a.Symbol, Type: string(a.Type), ExpiresAt: a.ExpiresAt}, nil
}

// GetPreviousAnalysis returns up to five unexpired cached scores for the
// symbol, newest first. Empty analysisType matches all kinds.
func (e *Engine) GetPreviousAnalysis(ctx context.Context, symbol, analysisType string) ([]ledger.Analysis, error) {
	typ, err := ledger.ParseAnalysisType(analysisType)
	if err != nil {
		return nil, err
	}
	if symbol == "" {
		return nil, ledger.Validationf("symbol", "must not be empty")
	}
	return e.analyses.Recent(ctx, symbol, typ, e.clock.Now())
}

// PruneAnalyses is the maintenance sweep for expired cache entries.
func (e *Engine) PruneAnalyses(ctx context.Context) (int64, error) {
	return e.analyses.Prune(ctx, e.clock.Now())
}

func parseSide(s string) (risk.Side, error) {
	tt, err := ledger.ParseTransactionType(s)
	if err != nil {
		return "", err
	}
	return risk.Side(tt), nil
}
