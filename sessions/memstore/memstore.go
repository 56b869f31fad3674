// Package memstore is an in-process session store backed by go-cache.
package memstore

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jrsteele09/go-social-connect/sessions"
	gocache "github.com/patrickmn/go-cache"
)

var _ sessions.Store = (*Store)(nil)

// Store keeps sessions in memory with a sliding TTL: every read or patch restarts the expiry.
// A single mutex serializes patches so
// read-modify-write cycles never interleave.
type Store struct {
	cache *gocache.Cache
	ttl   time.Duration
	lock  sync.Mutex
	now   func() time.Time
}

// New creates an in-memory store. Expired sessions are purged every cleanupInterval.
func New(ttl, cleanupInterval time.Duration) *Store {
	return &Store{
		cache: gocache.New(ttl, cleanupInterval),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (s *Store) Create(_ context.Context, data *sessions.Session) (string, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	sess := data.Clone()
	if sess.ID == "" {
		sess.ID = uuid.NewString()
	}
	if sess.CreatedAt.IsZero() {
		sess.CreatedAt = s.now()
	}
	s.cache.Set(sess.ID, sess, s.ttl)
	data.ID = sess.ID
	return sess.ID, nil
}

func (s *Store) Get(_ context.Context, id string) (*sessions.Session, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	sess, ok := s.load(id)
	if !ok {
		return nil, sessions.ErrSessionNotFound
	}
	s.cache.Set(id, sess.Clone(), s.ttl)
	return &sess, nil
}

func (s *Store) Apply(_ context.Context, id string, patch *sessions.Patch) (*sessions.Session, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	sess, ok := s.load(id)
	if !ok {
		return nil, sessions.ErrSessionNotFound
	}
	updated := patch.ApplyTo(sess)
	s.cache.Set(id, updated, s.ttl)

	out := updated.Clone()
	return &out, nil
}

func (s *Store) Delete(_ context.Context, id string) error {
	s.cache.Delete(id)
	return nil
}

// Count returns the number of live sessions.
func (s *Store) Count() int {
	return s.cache.ItemCount()
}

func (s *Store) load(id string) (sessions.Session, bool) {
	v, ok := s.cache.Get(id)
	if !ok {
		return sessions.Session{}, false
	}
	sess, ok := v.(sessions.Session)
	if !ok {
		return sessions.Session{}, false
	}
	return sess.Clone(), true
}
