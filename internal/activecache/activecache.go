// Package activecache caches the active check-ins of a user in redis.
package activecache

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"slices"
	"time"

	"github.com/redis/go-redis/v9"

	"chargetracker-backend/internal/store"
)

// emptyField marks a cached lookup that found no check-ins, so an idle user
// is still served from the cache.
const emptyField = "-"

// Store holds one redis hash per user: stationID -> JSON check-in. A nil
// *Store, or one without a client, caches nothing.
type Store struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStore returns a redis-backed store, or nil when client is nil.
func NewStore(client *redis.Client, ttl time.Duration) *Store {
	if client == nil {
		return nil
	}
	return &Store{client: client, ttl: ttl}
}

// NewClient dials addr. An empty addr disables the cache and returns nil.
func NewClient(ctx context.Context, addr, password string, db int) (*redis.Client, error) {
	if addr == "" {
		return nil, nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping %s: %w", addr, err)
	}
	return client, nil
}

func (s *Store) enabled() bool {
	return s != nil && s.client != nil
}

func key(userID string) string {
	return fmt.Sprintf("checkins:active:%s", userID)
}

// Get returns the cached check-ins of userID ordered by check-in time, and
// whether the cache held an entry for the user at all.
func (s *Store) Get(ctx context.Context, userID string) ([]store.ActiveCheckIn, bool, error) {
	if !s.enabled() {
		return nil, false, nil
	}
	fields, err := s.client.HGetAll(ctx, key(userID)).Result()
	if err != nil {
		return nil, false, err
	}
	if len(fields) == 0 {
		return nil, false, nil
	}

	out := make([]store.ActiveCheckIn, 0, len(fields))
	for field, raw := range fields {
		if field == emptyField {
			continue
		}
		var a store.ActiveCheckIn
		if err := json.Unmarshal([]byte(raw), &a); err != nil {
			return nil, false, fmt.Errorf("decode cached check-in %s/%s: %w", userID, field, err)
		}
		out = append(out, a)
	}
	slices.SortFunc(out, func(a, b store.ActiveCheckIn) int {
		if c := compareTimes(a.CheckedInAt, b.CheckedInAt); c != 0 {
			return c
		}
		return cmp.Compare(a.StationID, b.StationID)
	})
	return out, true, nil
}

func compareTimes(a, b *time.Time) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return a.Compare(*b)
}

// Set replaces the cached check-ins of userID.
func (s *Store) Set(ctx context.Context, userID string, active []store.ActiveCheckIn) error {
	if !s.enabled() {
		return nil
	}
	values := make(map[string]any, len(active)+1)
	values[emptyField] = ""
	for _, a := range active {
		b, err := json.Marshal(a)
		if err != nil {
			return fmt.Errorf("encode check-in %s/%s: %w", userID, a.StationID, err)
		}
		values[a.StationID] = string(b)
	}

	k := key(userID)
	pipe := s.client.TxPipeline()
	pipe.Del(ctx, k)
	pipe.HSet(ctx, k, values)
	if s.ttl > 0 {
		pipe.Expire(ctx, k, s.ttl)
	}
	_, err := pipe.Exec(ctx)
	return err
}

// Invalidate drops the cached check-ins of userID.
func (s *Store) Invalidate(ctx context.Context, userID string) error {
	if !s.enabled() {
		return nil
	}
	return s.client.Del(ctx, key(userID)).Err()
}
