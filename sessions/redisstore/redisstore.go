// Package redisstore persists sessions in Redis as JSON documents with a sliding TTL.
package redisstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-social-connect/platforms"
	"github.com/jrsteele09/go-social-connect/sessions"
	"github.com/redis/go-redis/v9"
)

const (
	defaultPrefix = "social-connect:session:"

	// maxApplyAttempts bounds optimistic retries when another writer touches the key mid-patch.
	maxApplyAttempts = 10
)

var _ sessions.Store = (*Store)(nil)

// Store implements sessions.Store on Redis. Patches are applied under WATCH/MULTI so concurrent
// requests on one session never lose each other's writes.
type Store struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

// New creates a Redis-backed session store.
func New(client redis.UniversalClient, prefix string, ttl time.Duration) *Store {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Store{client: client, prefix: prefix, ttl: ttl}
}

func (s *Store) key(id string) string {
	return s.prefix + id
}

func (s *Store) Create(ctx context.Context, data *sessions.Session) (string, error) {
	sess := data.Clone()
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = time.Now()
	}

	b, err := json.Marshal(sess)
	if err != nil {
		return "", fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := s.client.Set(ctx, s.key(sess.ID), b, s.ttl).Err(); err != nil {
		return "", fmt.Errorf("failed to store session: %w", err)
	}

	data.ID = sess.ID
	return sess.ID, nil
}

// Get returns the session and restarts its TTL.
func (s *Store) Get(ctx context.Context, id string) (*sessions.Session, error) {
	sess, err := s.get(ctx, s.client, id)
	if err != nil {
		return nil, err
	}
	if err := s.client.Expire(ctx, s.key(id), s.ttl).Err(); err != nil {
		return nil, fmt.Errorf("failed to refresh session ttl: %w", err)
	}
	return sess, nil
}

func (s *Store) Apply(ctx context.Context, id string, patch *sessions.Patch) (*sessions.Session, error) {
	key := s.key(id)
	var result sessions.Session

	txf := func(tx *redis.Tx) error {
		current, err := s.get(ctx, tx, id)
		if err != nil {
			return err
		}
		result = patch.ApplyTo(*current)

		b, err := json.Marshal(result)
		if err != nil {
			return fmt.Errorf("failed to marshal session: %w", err)
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, key, b, s.ttl)
			return nil
		})
		return err
	}

	for attempt := 0; attempt < maxApplyAttempts; attempt++ {
		err := s.client.Watch(ctx, txf, key)
		if err == nil {
			return &result, nil
		}
		if errors.Is(err, redis.TxFailedErr) {
			continue
		}
		if errors.Is(err, sessions.ErrSessionNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to update session: %w", err)
	}
	return nil, fmt.Errorf("failed to update session %s: too much contention", id)
}

func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.client.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("failed to delete session: %w", err)
	}
	return nil
}

func (s *Store) get(ctx context.Context, c redis.Cmdable, id string) (*sessions.Session, error) {
	val, err := c.Get(ctx, s.key(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, sessions.ErrSessionNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}

	var sess sessions.Session
	if err := json.Unmarshal(val, &sess); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	if sess.ConnectedPlatforms == nil {
		sess.ConnectedPlatforms = map[platforms.Platform]sessions.PlatformConnection{}
	}
	return &sess, nil
}
