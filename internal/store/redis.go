// internal/store/redis.go
package store

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/kaboom-gg/kaboom-service/internal/game"
)

// RedisStore keeps each room record in a single Redis key and uses
// WATCH/MULTI optimistic transactions for the version check, so two
// racing sessions never both apply against a stale snapshot.
type RedisStore struct {
	rdb *redis.Client
	ttl time.Duration
}

// NewRedisStore builds a store from environment variables:
//   - REDIS_ADDR (default "localhost:6379")
//   - REDIS_DB (optional, default 0)
//   - ROOM_TTL (optional, e.g. "24h"; 0 disables expiry)
func NewRedisStore(ctx context.Context) (*RedisStore, error) {
	addr := getEnv("REDIS_ADDR", "localhost:6379")
	dbIdx := getEnvInt("REDIS_DB", 0)

	ttl := time.Duration(0)
	if raw := os.Getenv("ROOM_TTL"); raw != "" {
		d, err := time.ParseDuration(raw)
		if err != nil {
			return nil, fmt.Errorf("invalid ROOM_TTL %q: %w", raw, err)
		}
		ttl = d
	}

	rdb := redis.NewClient(&redis.Options{Addr: addr, DB: dbIdx})
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := rdb.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis at %s: %w", addr, err)
	}
	return &RedisStore{rdb: rdb, ttl: ttl}, nil
}

func roomKey(code string) string {
	return "kaboom:room:" + code
}

func (s *RedisStore) Create(ctx context.Context, room *game.Room) error {
	data, err := encodeRoom(room)
	if err != nil {
		return err
	}
	ok, err := s.rdb.SetNX(ctx, roomKey(room.Code), data, s.ttl).Result()
	if err != nil {
		return fmt.Errorf("redis create room %s: %w", room.Code, err)
	}
	if !ok {
		return ErrExists
	}
	return nil
}

func (s *RedisStore) Get(ctx context.Context, code string) (*game.Room, error) {
	data, err := s.rdb.Get(ctx, roomKey(code)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("redis get room %s: %w", code, err)
	}
	return decodeRoom(data)
}

func (s *RedisStore) Update(ctx context.Context, room *game.Room, expectedVersion uint64) error {
	data, err := encodeRoom(room)
	if err != nil {
		return err
	}
	key := roomKey(room.Code)

	err = s.rdb.Watch(ctx, func(tx *redis.Tx) error {
		stored, err := tx.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		cur, err := decodeRoom(stored)
		if err != nil {
			return err
		}
		if cur.Version != expectedVersion {
			return game.ErrStaleWrite
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, data, s.ttl)
			return nil
		})
		return err
	}, key)

	if errors.Is(err, redis.TxFailedErr) {
		// Another session touched the key between WATCH and EXEC.
		return game.ErrStaleWrite
	}
	return err
}

func (s *RedisStore) Delete(ctx context.Context, code string) error {
	return s.rdb.Del(ctx, roomKey(code)).Err()
}

// getEnv is a helper to read an environment variable or return a default value.
func getEnv(key, def string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return def
}

// getEnvInt is a helper to parse an environment variable as integer, else a default value.
func getEnvInt(key string, def int) int {
	s := os.Getenv(key)
	if s == "" {
		return def
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return v
}
