package cache

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/sony/gobreaker"

	"github.com/rustyeddy/paperledger/ledger"
)

// BreakerStore wraps a Store in a circuit breaker. The analysis cache is
// advisory: when the backend misbehaves the trading cycle must keep moving, so
// failures degrade to cache-miss instead of propagating. Meant for the Redis
// backend; the in-ledger backend shares the ledger's fate anyway.
type BreakerStore struct {
	inner Store
	cb    *gobreaker.CircuitBreaker
}

func WithBreaker(inner Store) *BreakerStore {
	settings := gobreaker.Settings{
		Name:    "analysis-cache",
		Timeout: 30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= 5
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("analysis cache breaker state change")
		},
		// Rejected inputs are the caller's fault, not backend health.
		IsSuccessful: func(err error) bool {
			return err == nil || ledger.IsValidation(err)
		},
	}
	return &BreakerStore{inner: inner, cb: gobreaker.NewCircuitBreaker(settings)}
}

func (b *BreakerStore) Save(ctx context.Context, a ledger.Analysis) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.inner.Save(ctx, a)
	})
	if err != nil {
		if ledger.IsValidation(err) {
			return err
		}
		log.Warn().Err(err).Str("symbol", a.Symbol).Msg("analysis cache save degraded")
	}
	return nil
}

func (b *BreakerStore) Recent(ctx context.Context, symbol string, typ ledger.AnalysisType, now time.Time) ([]ledger.Analysis, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.inner.Recent(ctx, symbol, typ, now)
	})
	if err != nil {
		log.Warn().Err(err).Str("symbol", symbol).Msg("analysis cache read degraded to miss")
		return nil, nil
	}
	return out.([]ledger.Analysis), nil
}

func (b *BreakerStore) Prune(ctx context.Context, now time.Time) (int64, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		return b.inner.Prune(ctx, now)
	})
	if err != nil {
		return 0, err
	}
	return out.(int64), nil
}
