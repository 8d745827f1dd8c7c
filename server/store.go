package main

import (
	"context"
	"fmt"

	"github.com/charmbracelet/log"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/meikuraledutech/blueprint"
	"github.com/meikuraledutech/blueprint/config"
	"github.com/meikuraledutech/blueprint/memory"
	"github.com/meikuraledutech/blueprint/postgres"
	"github.com/meikuraledutech/blueprint/redisstore"
)

// storeHandle is a Store plus whatever connection backs it.
type storeHandle struct {
	blueprint.Store
	close func()
}

func (h storeHandle) Close() {
	if h.close != nil {
		h.close()
	}
}

// openStore connects the backend named by cfg.Driver.
func openStore(ctx context.Context, cfg config.StoreConf, logger *log.Logger) (storeHandle, error) {
	switch cfg.Driver {
	case config.DriverPostgres:
		pool, err := pgxpool.New(ctx, cfg.Postgres.URL)
		if err != nil {
			return storeHandle{}, fmt.Errorf("connect postgres: %w", err)
		}
		logger.Debug("store opened", "driver", cfg.Driver)
		return storeHandle{Store: postgres.New(pool), close: pool.Close}, nil

	case config.DriverRedis:
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		logger.Debug("store opened", "driver", cfg.Driver, "addr", cfg.Redis.Addr)
		st := redisstore.New(rdb, redisstore.Config{Prefix: cfg.Redis.Prefix, TTL: cfg.Redis.TTL})
		return storeHandle{Store: st, close: func() { _ = rdb.Close() }}, nil

	case config.DriverMemory, "":
		logger.Warn("using in-memory store, graphs are lost on exit")
		return storeHandle{Store: memory.New()}, nil
	}
	return storeHandle{}, fmt.Errorf("unknown store driver %q", cfg.Driver)
}
