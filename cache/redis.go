package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"

	"github.com/rustyeddy/paperledger/ledger"
)

const (
	symbolsKey  = "analysis:symbols"
	recentLimit = 5
	// indexScan bounds how far back the recency index is read; expired
	// entries past it are only cleaned up by Prune.
	indexScan = 20
)

// RedisStore keeps each analysis under its own TTL'd key plus a per-symbol
// recency index. Entry keys expire on their own; index members for expired
// entries linger until Prune sweeps them.
type RedisStore struct {
	c *redis.Client
}

func NewRedisStore(c *redis.Client) *RedisStore {
	return &RedisStore{c: c}
}

func entryKey(a ledger.Analysis) string {
	return fmt.Sprintf("analysis:%s:%s:%d", a.Symbol, a.Type, a.CreatedAt.UnixNano())
}

func indexKey(symbol string) string {
	return "analysis:index:" + symbol
}

func (r *RedisStore) Save(ctx context.Context, a ledger.Analysis) error {
	if !a.ExpiresAt.After(a.CreatedAt) {
		return ledger.Validationf("expires_at", "must be after created_at")
	}

	payload, err := json.Marshal(a)
	if err != nil {
		return fmt.Errorf("marshal analysis: %w", err)
	}

	key := entryKey(a)
	ttl := a.ExpiresAt.Sub(a.CreatedAt)

	if err := r.c.Set(ctx, key, payload, ttl).Err(); err != nil {
		return fmt.Errorf("set analysis: %w", err)
	}
	if err := r.c.ZAdd(ctx, indexKey(a.Symbol), &redis.Z{
		Score:  float64(a.CreatedAt.UnixNano()),
		Member: key,
	}).Err(); err != nil {
		return fmt.Errorf("index analysis: %w", err)
	}
	if err := r.c.SAdd(ctx, symbolsKey, a.Symbol).Err(); err != nil {
		return fmt.Errorf("register symbol: %w", err)
	}
	return nil
}

func (r *RedisStore) Recent(ctx context.Context, symbol string, typ ledger.AnalysisType, now time.Time) ([]ledger.Analysis, error) {
	keys, err := r.c.ZRevRange(ctx, indexKey(symbol), 0, indexScan-1).Result()
	if err != nil {
		return nil, fmt.Errorf("read analysis index: %w", err)
	}
	if len(keys) == 0 {
		return nil, nil
	}

	vals, err := r.c.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("read analyses: %w", err)
	}

	var out []ledger.Analysis
	for _, v := range vals {
		raw, ok := v.(string)
		if !ok {
			continue // entry key expired; index member swept later by Prune
		}
		var a ledger.Analysis
		if err := json.Unmarshal([]byte(raw), &a); err != nil {
			continue
		}
		if !a.ExpiresAt.After(now) {
			continue
		}
		if typ != "" && a.Type != typ {
			continue
		}
		out = append(out, a)
		if len(out) == recentLimit {
			break
		}
	}
	return out, nil
}

// Prune removes index members whose entry keys have expired. Returns the
// number of members swept.
func (r *RedisStore) Prune(ctx context.Context, _ time.Time) (int64, error) {
	symbols, err := r.c.SMembers(ctx, symbolsKey).Result()
	if err != nil {
		return 0, fmt.Errorf("list symbols: %w", err)
	}

	var swept int64
	for _, symbol := range symbols {
		idx := indexKey(symbol)
		keys, err := r.c.ZRange(ctx, idx, 0, -1).Result()
		if err != nil {
			return swept, fmt.Errorf("read analysis index: %w", err)
		}
		if len(keys) == 0 {
			continue
		}

		vals, err := r.c.MGet(ctx, keys...).Result()
		if err != nil {
			return swept, fmt.Errorf("read analyses: %w", err)
		}

		var stale []interface{}
		for i, v := range vals {
			if v == nil {
				stale = append(stale, keys[i])
			}
		}
		if len(stale) == 0 {
			continue
		}
		n, err := r.c.ZRem(ctx, idx, stale...).Result()
		if err != nil {
			return swept, fmt.Errorf("sweep analysis index: %w", err)
		}
		swept += n
	}
	return swept, nil
}
