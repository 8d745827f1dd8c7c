// Package redisstore implements blueprint.Store on Redis. Each graph is a
// JSON document under its own key; a sorted set indexes graph IDs by the
// time they were first saved.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/meikuraledutech/blueprint"
)

// DefaultPrefix namespaces every key written by the store.
const DefaultPrefix = "blueprint"

// Config configures a Store.
type Config struct {
	// Prefix for keys; DefaultPrefix when empty.
	Prefix string
	// TTL expires graphs that are not saved again in time. Zero keeps
	// them forever.
	TTL time.Duration
}

// Store persists graph snapshots in Redis.
type Store struct {
	rdb    redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// New creates a Store on top of an existing client.
func New(rdb redis.UniversalClient, cfg Config) *Store {
	prefix := cfg.Prefix
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &Store{rdb: rdb, prefix: prefix, ttl: cfg.TTL}
}

func (s *Store) graphKey(id string) string { return s.prefix + ":graph:" + id }
func (s *Store) indexKey() string         { return s.prefix + ":graphs" }

// CreateSchema only checks connectivity; Redis needs no schema.
func (s *Store) CreateSchema(ctx context.Context) error {
	if err := s.rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("blueprint: redis ping: %w", err)
	}
	return nil
}

// DropSchema deletes every indexed graph and the index itself.
func (s *Store) DropSchema(ctx context.Context) error {
	ids, err := s.ListGraphs(ctx)
	if err != nil {
		return err
	}
	keys := []string{s.indexKey()}
	for _, id := range ids {
		keys = append(keys, s.graphKey(id))
	}
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		return fmt.Errorf("blueprint: redis drop: %w", err)
	}
	return nil
}

func (s *Store) SaveGraph(ctx context.Context, g *blueprint.Graph) error {
	if g.ID == "" {
		return fmt.Errorf("blueprint: graph id is required")
	}
	data, err := json.Marshal(g)
	if err != nil {
		return fmt.Errorf("blueprint: encode graph %s: %w", g.ID, err)
	}

	_, err = s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, s.graphKey(g.ID), data, s.ttl)
		pipe.ZAddNX(ctx, s.indexKey(), redis.Z{Score: float64(time.Now().UnixNano()), Member: g.ID})
		return nil
	})
	if err != nil {
		return fmt.Errorf("blueprint: redis save graph %s: %w", g.ID, err)
	}
	return nil
}

// GetGraph returns nil, nil if the graph doesn't exist or has expired.
func (s *Store) GetGraph(ctx context.Context, graphID string) (*blueprint.Graph, error) {
	data, err := s.rdb.Get(ctx, s.graphKey(graphID)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("blueprint: redis get graph %s: %w", graphID, err)
	}
	var g blueprint.Graph
	if err := json.Unmarshal(data, &g); err != nil {
		return nil, fmt.Errorf("blueprint: decode graph %s: %w", graphID, err)
	}
	return &g, nil
}

// DeleteGraph is a no-op for unknown IDs.
func (s *Store) DeleteGraph(ctx context.Context, graphID string) error {
	_, err := s.rdb.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.graphKey(graphID))
		pipe.ZRem(ctx, s.indexKey(), graphID)
		return nil
	})
	if err != nil {
		return fmt.Errorf("blueprint: redis delete graph %s: %w", graphID, err)
	}
	return nil
}

// ListGraphs returns indexed graph IDs, oldest first. IDs whose document
// expired are pruned from the index as they are found.
func (s *Store) ListGraphs(ctx context.Context) ([]string, error) {
	ids, err := s.rdb.ZRange(ctx, s.indexKey(), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("blueprint: redis list graphs: %w", err)
	}
	if s.ttl == 0 || len(ids) == 0 {
		return ids, nil
	}

	live := make([]string, 0, len(ids))
	for _, id := range ids {
		n, err := s.rdb.Exists(ctx, s.graphKey(id)).Result()
		if err != nil {
			return nil, fmt.Errorf("blueprint: redis exists %s: %w", id, err)
		}
		if n == 0 {
			if err := s.rdb.ZRem(ctx, s.indexKey(), id).Err(); err != nil {
				return nil, fmt.Errorf("blueprint: redis prune %s: %w", id, err)
			}
			continue
		}
		live = append(live, id)
	}
	return live, nil
}

var _ blueprint.Store = (*Store)(nil)
