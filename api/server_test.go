package api

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rustyeddy/paperledger/engine"
	"github.com/rustyeddy/paperledger/ledger"
	"github.com/rustyeddy/paperledger/market"
	"github.com/rustyeddy/paperledger/risk"
)

func newTestServer(t *testing.T, opts Options) *Server {
	t.Helper()

	store, err := ledger.Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	clock := market.FixedClock{T: time.Date(2026, 2, 3, 10, 15, 0, 0, market.IST())}
	e := engine.New(store, risk.Default(), market.DefaultWindow(), engine.WithClock(clock))
	return NewServer(e, opts)
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

func initPortfolio(t *testing.T, s *Server, capital float64) {
	t.Helper()
	w := do(t, s, "POST", "/v1/portfolio/init", map[string]float64{"starting_capital": capital})
	require.Equal(t, http.StatusCreated, w.Code)
}

func TestHealth(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, Options{})

	w := do(t, s, "GET", "/health", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestInitPortfolio(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, Options{})

	w := do(t, s, "POST", "/v1/portfolio/init", map[string]float64{"starting_capital": 100000})
	assert.Equal(t, http.StatusCreated, w.Code)

	// Idempotent re-init is a 200, not a conflict.
	w = do(t, s, "POST", "/v1/portfolio/init", map[string]float64{"starting_capital": 100000})
	assert.Equal(t, http.StatusOK, w.Code)

	var resp engine.InitializePortfolioResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.False(t, resp.Created)
}

func TestPortfolioStateBeforeInit(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, Options{})

	w := do(t, s, "GET", "/v1/portfolio", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
}

func TestCheckRisk(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, Options{})
	initPortfolio(t, s, 100000)

	w := do(t, s, "POST", "/v1/risk/check", map[string]any{
		"symbol": "RELIANCE-EQ", "quantity": 20, "entry_price": 500,
		"stop_loss": 485, "transaction_type": "BUY",
	})
	require.Equal(t, http.StatusOK, w.Code)

	var res engine.CheckRiskLimitsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &res))
	assert.True(t, res.Approved)
	assert.Len(t, res.Checks, 8)
}

func TestCheckRiskValidation(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, Options{})
	initPortfolio(t, s, 100000)

	w := do(t, s, "POST", "/v1/risk/check", map[string]any{
		"symbol": "RELIANCE-EQ", "quantity": 0, "entry_price": 500,
		"stop_loss": 485, "transaction_type": "BUY",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestMalformedBody(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, Options{})

	req := httptest.NewRequest("POST", "/v1/risk/check", bytes.NewBufferString("{not json"))
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestPositionLifecycle(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, Options{})
	initPortfolio(t, s, 100000)

	open := map[string]any{
		"symbol": "INFY-EQ", "action": "OPEN", "quantity": 10,
		"entry_price": 1500, "stop_loss": 1450,
	}
	w := do(t, s, "POST", "/v1/positions", open)
	require.Equal(t, http.StatusOK, w.Code)

	// Second OPEN for the same symbol hits the uniqueness constraint.
	w = do(t, s, "POST", "/v1/positions", open)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(t, s, "POST", "/v1/positions", map[string]any{
		"symbol": "INFY-EQ", "action": "CLOSE", "exit_price": 1550,
	})
	require.Equal(t, http.StatusOK, w.Code)

	var resp engine.UpdatePositionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.NotNil(t, resp.PnL)
	assert.Equal(t, 500.0, *resp.PnL)
}

func TestCloseMissingPosition(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, Options{})
	initPortfolio(t, s, 100000)

	w := do(t, s, "POST", "/v1/positions", map[string]any{
		"symbol": "TCS-EQ", "action": "CLOSE", "exit_price": 4000,
	})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestTradeRoutes(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, Options{})
	initPortfolio(t, s, 100000)

	w := do(t, s, "POST", "/v1/trades", map[string]any{
		"symbol": "INFY-EQ", "transaction_type": "BUY", "quantity": 5, "price": 1500,
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = do(t, s, "GET", "/v1/trades?symbol=INFY-EQ&type=BUY", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var rows []ledger.Trade
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rows))
	assert.Len(t, rows, 1)

	w = do(t, s, "GET", "/v1/trades?limit=abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = do(t, s, "POST", "/v1/trades", map[string]any{
		"symbol": "INFY-EQ", "transaction_type": "SHORT", "quantity": 5, "price": 1500,
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestDailyPnLRoute(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, Options{})
	initPortfolio(t, s, 100000)

	w := do(t, s, "GET", "/v1/pnl/daily", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var rep engine.DailyPnLReport
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rep))
	assert.Equal(t, 2000.0, rep.LossLimit)
}

func TestAnalysisRoutes(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, Options{})
	initPortfolio(t, s, 100000)

	w := do(t, s, "POST", "/v1/analysis", map[string]any{
		"symbol": "RELIANCE-EQ", "analysis_type": "TECHNICAL", "score": 0.8, "label": "bullish",
	})
	assert.Equal(t, http.StatusCreated, w.Code)

	w = do(t, s, "GET", "/v1/analysis/RELIANCE-EQ?type=TECHNICAL", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var rows []ledger.Analysis
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rows))
	assert.Len(t, rows, 1)

	w = do(t, s, "POST", "/v1/analysis/prune", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRiskMetricsAllWinners(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, Options{})
	initPortfolio(t, s, 100000)

	// A history with wins and no losses makes the profit factor infinite;
	// the dashboard must still serialize.
	w := do(t, s, "POST", "/v1/positions", map[string]any{
		"symbol": "INFY-EQ", "action": "OPEN", "quantity": 10,
		"entry_price": 1500, "stop_loss": 1450,
	})
	require.Equal(t, http.StatusOK, w.Code)
	w = do(t, s, "POST", "/v1/positions", map[string]any{
		"symbol": "INFY-EQ", "action": "CLOSE", "exit_price": 1550,
	})
	require.Equal(t, http.StatusOK, w.Code)

	w = do(t, s, "GET", "/v1/risk/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NotZero(t, w.Body.Len())

	var m engine.RiskMetrics
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &m))
	assert.Equal(t, 1, m.Wins)
	assert.True(t, m.ProfitFactor.IsInfinite())
}

func TestMetricsEndpoint(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, Options{})
	initPortfolio(t, s, 100000)

	do(t, s, "POST", "/v1/risk/check", map[string]any{
		"symbol": "RELIANCE-EQ", "quantity": 20, "entry_price": 500,
		"stop_loss": 485, "transaction_type": "BUY",
	})

	w := do(t, s, "GET", "/metrics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "paperledger_gate_evaluations_total")
}

func TestUnknownRoute(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, Options{})

	w := do(t, s, "GET", "/v1/nope", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRateLimit(t *testing.T) {
	t.Parallel()
	s := newTestServer(t, Options{RateLimitRPS: 1})

	codes := []int{
		do(t, s, "GET", "/health", nil).Code,
		do(t, s, "GET", "/health", nil).Code,
	}
	assert.Equal(t, http.StatusOK, codes[0])
	assert.Equal(t, http.StatusTooManyRequests, codes[1])
}
