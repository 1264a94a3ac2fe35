package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/gorilla/mux"
	"github.com/rs/zerolog/log"

	"github.com/rustyeddy/paperledger/engine"
	"github.com/rustyeddy/paperledger/ledger"
)

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.Error().Err(err).Msg("encode response")
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// statusFor maps ledger errors onto HTTP statuses. A rejected gate verdict is
// not an error and never comes through here.
func statusFor(err error) int {
	switch {
	case ledger.IsValidation(err):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrNotInitialized):
		return http.StatusConflict
	case errors.Is(err, ledger.ErrDuplicatePosition):
		return http.StatusConflict
	case errors.Is(err, ledger.ErrPositionNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		log.Error().Err(err).Msg("internal error")
		writeError(w, status, "internal error")
		return
	}
	writeError(w, status, err.Error())
}

func decode(r *http.Request, v any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return ledger.Validationf("body", "malformed JSON: %v", err)
	}
	return nil
}

func (s *Server) handleInitPortfolio(w http.ResponseWriter, r *http.Request) {
	var req engine.InitializePortfolioRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, err)
		return
	}
	resp, err := s.engine.InitializePortfolio(r.Context(), req)
	if err != nil {
		s.fail(w, err)
		return
	}
	status := http.StatusOK
	if resp.Created {
		status = http.StatusCreated
	}
	writeJSON(w, status, resp)
}

func (s *Server) handlePortfolioState(w http.ResponseWriter, r *http.Request) {
	resp, err := s.engine.GetPortfolioState(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCheckRisk(w http.ResponseWriter, r *http.Request) {
	var req engine.CheckRiskLimitsRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, err)
		return
	}
	res, err := s.engine.CheckRiskLimits(r.Context(), req)
	if err != nil {
		s.fail(w, err)
		return
	}

	verdict := "rejected"
	if res.Approved {
		verdict = "approved"
	}
	s.metrics.GateEvaluations.WithLabelValues(verdict).Inc()
	for _, c := range res.Checks {
		if !c.Passed {
			s.metrics.GateCheckFailures.WithLabelValues(c.Name).Inc()
		}
	}

	writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleRiskMetrics(w http.ResponseWriter, r *http.Request) {
	resp, err := s.engine.GetRiskMetrics(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleLogTrade(w http.ResponseWriter, r *http.Request) {
	var req engine.LogTradeRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, err)
		return
	}
	resp, err := s.engine.LogTrade(r.Context(), req)
	if err != nil {
		s.fail(w, err)
		return
	}
	s.metrics.TradesJournaled.WithLabelValues(strings.ToUpper(req.TransactionType)).Inc()
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleTradeHistory(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	req := engine.TradeHistoryRequest{
		Symbol:          q.Get("symbol"),
		TransactionType: q.Get("type"),
	}
	if v := q.Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			s.fail(w, ledger.Validationf("limit", "%q is not a positive integer", v))
			return
		}
		req.Limit = n
	}

	rows, err := s.engine.GetTradeHistory(r.Context(), req)
	if err != nil {
		s.fail(w, err)
		return
	}
	if rows == nil {
		rows = []ledger.Trade{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handleUpdatePosition(w http.ResponseWriter, r *http.Request) {
	var req engine.UpdatePositionRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, err)
		return
	}
	resp, err := s.engine.UpdatePosition(r.Context(), req)
	if err != nil {
		s.fail(w, err)
		return
	}

	s.metrics.PositionChanges.WithLabelValues(string(resp.Action)).Inc()
	if resp.CircuitBreakerHit != nil && *resp.CircuitBreakerHit {
		s.metrics.BreakerTrips.Inc()
	}

	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleDailyPnL(w http.ResponseWriter, r *http.Request) {
	resp, err := s.engine.GetDailyPnL(r.Context(), r.URL.Query().Get("date"))
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleSaveAnalysis(w http.ResponseWriter, r *http.Request) {
	var req engine.SaveAnalysisRequest
	if err := decode(r, &req); err != nil {
		s.fail(w, err)
		return
	}
	resp, err := s.engine.SaveAnalysis(r.Context(), req)
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, resp)
}

func (s *Server) handleGetAnalysis(w http.ResponseWriter, r *http.Request) {
	symbol := mux.Vars(r)["symbol"]
	rows, err := s.engine.GetPreviousAnalysis(r.Context(), symbol, r.URL.Query().Get("type"))
	if err != nil {
		s.fail(w, err)
		return
	}
	if rows == nil {
		rows = []ledger.Analysis{}
	}
	writeJSON(w, http.StatusOK, rows)
}

func (s *Server) handlePruneAnalyses(w http.ResponseWriter, r *http.Request) {
	pruned, err := s.engine.PruneAnalyses(r.Context())
	if err != nil {
		s.fail(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"pruned": pruned})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
