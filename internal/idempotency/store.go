// Package idempotency remembers which order an Idempotency-Key produced so a
// retried POST /orders does not reserve stock twice.
package idempotency

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

const pending = "pending"

var (
	ErrInProgress  = errors.New("request with this idempotency key is in progress")
	ErrKeyMismatch = errors.New("idempotency key was used for a different request")
)

// Store binds an Idempotency-Key to the fingerprint of the request that
// first used it.
type Store interface {
	// Claim reserves key. When the key already finished it returns the order id
	// with claimed == false. A key seen with another fingerprint yields
	// ErrKeyMismatch.
	Claim(ctx context.Context, key, fingerprint string) (orderID uint, claimed bool, err error)
	Complete(ctx context.Context, key, fingerprint string, orderID uint) error
	Release(ctx context.Context, key string) error
}

// Fingerprint hashes the parts that identify a request.
func Fingerprint(parts ...string) string {
	sum := sha256.Sum256([]byte(strings.Join(parts, "\n")))
	return hex.EncodeToString(sum[:])
}

func encode(state, fingerprint string) string { return state + ":" + fingerprint }

type RedisStore struct {
	Client *redis.Client
	TTL    time.Duration
	Prefix string
}

func NewRedisStore(ctx context.Context, addr, password string, ttl time.Duration) (*RedisStore, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return &RedisStore{Client: client, TTL: ttl, Prefix: "idem:order:"}, nil
}

func (s *RedisStore) key(k string) string { return s.Prefix + k }

func (s *RedisStore) Claim(ctx context.Context, key, fingerprint string) (uint, bool, error) {
	for attempt := 0; attempt < 2; attempt++ {
		ok, err := s.Client.SetNX(ctx, s.key(key), encode(pending, fingerprint), s.TTL).Result()
		if err != nil {
			return 0, false, fmt.Errorf("redis setnx: %w", err)
		}
		if ok {
			return 0, true, nil
		}

		val, err := s.Client.Get(ctx, s.key(key)).Result()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return 0, false, fmt.Errorf("redis get: %w", err)
		}
		return parse(val, fingerprint)
	}
	return 0, false, ErrInProgress
}

func (s *RedisStore) Complete(ctx context.Context, key, fingerprint string, orderID uint) error {
	return s.Client.Set(ctx, s.key(key), encode(strconv.FormatUint(uint64(orderID), 10), fingerprint), s.TTL).Err()
}

func (s *RedisStore) Release(ctx context.Context, key string) error {
	return s.Client.Del(ctx, s.key(key)).Err()
}

func (s *RedisStore) Close() error { return s.Client.Close() }

func parse(val, fingerprint string) (uint, bool, error) {
	state, stored, ok := strings.Cut(val, ":")
	if !ok {
		return 0, false, fmt.Errorf("idempotency: corrupt value %q", val)
	}
	if stored != fingerprint {
		return 0, false, ErrKeyMismatch
	}
	if state == pending {
		return 0, false, ErrInProgress
	}
	id, err := strconv.ParseUint(state, 10, 64)
	if err != nil {
		return 0, false, fmt.Errorf("idempotency: corrupt value %q", val)
	}
	return uint(id), false, nil
}

type memEntry struct {
	value   string
	expires time.Time
}

// MemoryStore is the single-process store used when no Redis is configured.
type MemoryStore struct {
	TTL time.Duration

	mu      sync.Mutex
	entries map[string]memEntry
	now     func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{TTL: ttl, entries: make(map[string]memEntry), now: time.Now}
}

func (s *MemoryStore) Claim(_ context.Context, key, fingerprint string) (uint, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if e, ok := s.entries[key]; ok && now.Before(e.expires) {
		return parse(e.value, fingerprint)
	}
	s.entries[key] = memEntry{value: encode(pending, fingerprint), expires: now.Add(s.TTL)}
	return 0, true, nil
}

func (s *MemoryStore) Complete(_ context.Context, key, fingerprint string, orderID uint) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = memEntry{value: encode(strconv.FormatUint(uint64(orderID), 10), fingerprint), expires: s.now().Add(s.TTL)}
	return nil
}

func (s *MemoryStore) Release(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, key)
	return nil
}
