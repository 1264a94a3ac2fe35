// Package api exposes the engine's tool surface over HTTP JSON. The server
// is local-only by default; every route maps one-to-one onto an engine
// operation and carries no semantics of its own.
package api

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/rustyeddy/paperledger/engine"
)

type Server struct {
	router  *mux.Router
	server  *http.Server
	engine  *engine.Engine
	metrics *Metrics
	limiter *rate.Limiter

	timeout time.Duration
}

// Options tunes the listener; zero values fall back to sane defaults.
type Options struct {
	Addr         string
	Timeout      time.Duration
	RateLimitRPS int
}

func NewServer(e *engine.Engine, opts Options) *Server {
	if opts.Addr == "" {
		opts.Addr = "127.0.0.1:8087"
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 10 * time.Second
	}
	if opts.RateLimitRPS <= 0 {
		opts.RateLimitRPS = 50
	}

	s := &Server{
		router:  mux.NewRouter(),
		engine:  e,
		metrics: NewMetrics(),
		limiter: rate.NewLimiter(rate.Limit(opts.RateLimitRPS), opts.RateLimitRPS),
		timeout: opts.Timeout,
	}
	s.routes()

	s.server = &http.Server{
		Addr:         opts.Addr,
		Handler:      s.router,
		ReadTimeout:  opts.Timeout,
		WriteTimeout: opts.Timeout,
		IdleTimeout:  60 * time.Second,
	}
	return s
}

func (s *Server) routes() {
	s.router.Use(s.requestID)
	s.router.Use(s.accessLog)
	s.router.Use(s.rateLimit)
	s.router.Use(s.withTimeout)

	v1 := s.router.PathPrefix("/v1").Subrouter()
	v1.Use(jsonContentType)

	v1.HandleFunc("/portfolio/init", s.handleInitPortfolio).Methods("POST")
	v1.HandleFunc("/portfolio", s.handlePortfolioState).Methods("GET")
	v1.HandleFunc("/risk/check", s.handleCheckRisk).Methods("POST")
	v1.HandleFunc("/risk/metrics", s.handleRiskMetrics).Methods("GET")
	v1.HandleFunc("/trades", s.handleLogTrade).Methods("POST")
	v1.HandleFunc("/trades", s.handleTradeHistory).Methods("GET")
	v1.HandleFunc("/positions", s.handleUpdatePosition).Methods("POST")
	v1.HandleFunc("/pnl/daily", s.handleDailyPnL).Methods("GET")
	v1.HandleFunc("/analysis", s.handleSaveAnalysis).Methods("POST")
	v1.HandleFunc("/analysis/prune", s.handlePruneAnalyses).Methods("POST")
	v1.HandleFunc("/analysis/{symbol}", s.handleGetAnalysis).Methods("GET")

	s.router.HandleFunc("/health", s.handleHealth).Methods("GET")
	s.router.Handle("/metrics", promhttp.HandlerFor(s.metrics.Registry(), promhttp.HandlerOpts{})).Methods("GET")

	s.router.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound, "no such route")
	})
}

// Handler exposes the routed mux, mainly for httptest.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) Start() error {
	log.Info().Str("addr", s.server.Addr).Msg("http server listening")
	return s.server.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	log.Info().Msg("http server shutting down")
	return s.server.Shutdown(ctx)
}

type ctxKey string

const requestIDKey ctxKey = "request_id"

func (s *Server) requestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := uuid.New().String()[:8]
		ctx := context.WithValue(r.Context(), requestIDKey, id)
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(ww, r)

		elapsed := time.Since(start)
		id, _ := r.Context().Value(requestIDKey).(string)
		log.Info().
			Str("request_id", id).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.status).
			Dur("elapsed", elapsed).
			Str("remote", r.RemoteAddr).
			Msg("request")

		route := r.URL.Path
		if cur := mux.CurrentRoute(r); cur != nil {
			if tpl, err := cur.GetPathTemplate(); err == nil {
				route = tpl
			}
		}
		s.metrics.RequestDuration.
			WithLabelValues(route, r.Method, strconv.Itoa(ww.status)).
			Observe(elapsed.Seconds())
	})
}

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !s.limiter.Allow() {
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) withTimeout(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), s.timeout)
		defer cancel()
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func jsonContentType(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		next.ServeHTTP(w, r)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}
