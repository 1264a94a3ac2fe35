// Package cache fronts the analysis-score memoization. The default backend is
// the ledger's analysis_cache table; a Redis backend is available for
// deployments that want the scores shared outside the ledger file. The engine
// only ever sees the Store interface.
package cache

import (
	"context"
	"time"

	"github.com/rustyeddy/paperledger/ledger"
)

// DefaultTTL is how long a saved analysis stays readable unless the caller
// asks otherwise.
const DefaultTTL = 30 * time.Minute

// Store is the analysis-cache contract: append-only saves, recency-bounded
// reads that exclude expired entries, and an explicit maintenance prune.
type Store interface {
	Save(ctx context.Context, a ledger.Analysis) error
	Recent(ctx context.Context, symbol string, typ ledger.AnalysisType, now time.Time) ([]ledger.Analysis, error)
	Prune(ctx context.Context, now time.Time) (int64, error)
}

// LedgerStore delegates to the ledger's analysis_cache table.
type LedgerStore struct {
	s *ledger.Store
}

func NewLedgerStore(s *ledger.Store) *LedgerStore {
	return &LedgerStore{s: s}
}

func (l *LedgerStore) Save(ctx context.Context, a ledger.Analysis) error {
	return l.s.SaveAnalysis(ctx, a)
}

func (l *LedgerStore) Recent(ctx context.Context, symbol string, typ ledger.AnalysisType, now time.Time) ([]ledger.Analysis, error) {
	return l.s.RecentAnalyses(ctx, symbol, typ, now)
}

func (l *LedgerStore) Prune(ctx context.Context, now time.Time) (int64, error) {
	return l.s.PruneExpiredAnalyses(ctx, now)
}
