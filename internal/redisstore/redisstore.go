// Package redisstore keeps reward state and challenges in Redis so several
// API instances can share them. Multi-step updates run as Lua scripts and
// challenge changes are fanned out over pub/sub.
package redisstore

import (
	"context"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

const keyPrefix = "mathquest:"

// Store implements reward.Store and challenge.Store on a Redis client.
type Store struct {
	client *redis.Client
	logger *slog.Logger
	ttl    time.Duration
	sf     singleflight.Group
}

// Option configures a Store.
type Option func(*Store)

// WithChallengeTTL expires challenge keys d after their last change.
// Zero keeps them forever.
func WithChallengeTTL(d time.Duration) Option {
	return func(s *Store) { s.ttl = d }
}

// WithLogger sets the store logger. Nil keeps slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// New wraps client. The caller owns the client and closes it.
func New(client *redis.Client, opts ...Option) *Store {
	s := &Store{client: client, logger: slog.Default()}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ping checks the server is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// The braces are a cluster hash tag: every key of one challenge lands on the
// same slot, which the Lua scripts require.
func challengeKey(code string) string {
	return keyPrefix + "challenge:{" + code + "}"
}

func answersKey(code, role string) string {
	return challengeKey(code) + ":" + role
}

func challengeChannel(code string) string {
	return challengeKey(code) + ":events"
}

func rewardKey(userID string) string {
	return keyPrefix + "reward:" + userID
}
