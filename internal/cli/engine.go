package cli

import (
	"fmt"

	"github.com/go-redis/redis/v8"
	"github.com/rs/zerolog/log"

	"github.com/rustyeddy/paperledger/cache"
	"github.com/rustyeddy/paperledger/config"
	"github.com/rustyeddy/paperledger/engine"
	"github.com/rustyeddy/paperledger/ledger"
)

// buildEngine opens the ledger and assembles the engine per config. The
// returned closer shuts down whatever backends were opened.
func buildEngine(cfg *config.Config) (*engine.Engine, func(), error) {
	store, err := ledger.Open(cfg.Storage.Path)
	if err != nil {
		return nil, nil, fmt.Errorf("open ledger %s: %w", cfg.Storage.Path, err)
	}
	closer := func() { store.Close() }

	window, err := cfg.Market.Window()
	if err != nil {
		closer()
		return nil, nil, err
	}

	opts := []engine.Option{engine.WithDefaultTTL(cfg.Cache.TTL())}

	if cfg.Cache.Backend == "redis" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Cache.RedisAddr,
			Password: cfg.Cache.RedisPassword,
			DB:       cfg.Cache.RedisDB,
		})
		opts = append(opts, engine.WithAnalysisStore(cache.WithBreaker(cache.NewRedisStore(rdb))))
		prev := closer
		closer = func() {
			if err := rdb.Close(); err != nil {
				log.Warn().Err(err).Msg("close redis client")
			}
			prev()
		}
		log.Info().Str("addr", cfg.Cache.RedisAddr).Msg("analysis cache on redis")
	}

	return engine.New(store, cfg.Risk.Policy(), window, opts...), closer, nil
}
