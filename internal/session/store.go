package session

import (
	"context"
	"sync"
	"time"

	"property_service_backend/platform/config"
	"property_service_backend/platform/logger"
	"property_service_backend/platform/metrics"
)

const (
	DefaultTTL           = 30 * time.Minute
	DefaultSweepInterval = 5 * time.Minute
)

type entry struct {
	mu      sync.Mutex
	sess    Session
	removed bool
}

// Store is the process-wide session map. Upserts for one sender key are
// serialized by a per-key lock; distinct keys never block each other.
type Store struct {
	mu      sync.Mutex
	entries map[string]*entry

	ttl      time.Duration
	interval time.Duration
	now      func() time.Time
	log      *logger.Logger

	runMu  sync.Mutex
	cancel context.CancelFunc
	done   chan struct{}
}

// Option configures a Store.
type Option func(*Store)

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) { s.now = now }
}

// NewStore creates an empty store. Zero durations in cfg fall back to the defaults.
func NewStore(cfg config.SessionConfig, log *logger.Logger, opts ...Option) *Store {
	s := &Store{
		entries:  make(map[string]*entry),
		ttl:      DefaultTTL,
		interval: DefaultSweepInterval,
		now:      time.Now,
		log:      log,
	}
	if cfg != nil {
		if ttl := cfg.GetSessionTTL(); ttl > 0 {
			s.ttl = ttl
		}
		if interval := cfg.GetSessionSweepInterval(); interval > 0 {
			s.interval = interval
		}
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns a snapshot of the session for key.
func (s *Store) Get(key string) (Session, bool) {
	s.mu.Lock()
	e, ok := s.entries[key]
	s.mu.Unlock()
	if !ok {
		return Session{}, false
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	if e.removed {
		return Session{}, false
	}
	return e.sess, true
}

// Upsert applies mutate to the session for key, creating it at
// AWAITING_LANGUAGE when absent, and refreshes its last activity. The per-key
// lock is held while mutate runs, so mutate must not call back into the store
// for the same key.
func (s *Store) Upsert(key string, mutate func(*Session)) Session {
	for {
		e := s.acquire(key)

		e.mu.Lock()
		if e.removed {
			// swept between lookup and lock
			e.mu.Unlock()
			continue
		}

		if mutate != nil {
			mutate(&e.sess)
		}
		if !e.sess.State.Valid() {
			e.sess.Reset(StateAwaitingLanguage)
		}
		e.sess.SenderKey = key
		e.sess.LastActivity = s.now()

		result := e.sess
		e.sess.Created = false
		e.mu.Unlock()
		return result
	}
}

func (s *Store) acquire(key string) *entry {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok {
		e = &entry{sess: newSession(key, s.now())}
		s.entries[key] = e
		metrics.Get().ActiveSessions.Set(float64(len(s.entries)))
	}
	return e
}

// Sweep evicts sessions idle longer than the TTL and returns how many were
// removed. Sessions currently being mutated are skipped until the next round.
func (s *Store) Sweep() int {
	now := s.now()

	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := 0
	for key, e := range s.entries {
		if !e.mu.TryLock() {
			continue
		}
		if now.Sub(e.sess.LastActivity) > s.ttl {
			e.removed = true
			delete(s.entries, key)
			evicted++
		}
		e.mu.Unlock()
	}

	metrics.Get().ActiveSessions.Set(float64(len(s.entries)))
	return evicted
}

// Len returns the number of sessions currently held.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}

// Start launches the periodic sweep. It is a no-op when already running.
func (s *Store) Start(ctx context.Context) {
	s.runMu.Lock()
	defer s.runMu.Unlock()
	if s.cancel != nil {
		return
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})

	go s.run(ctx, s.done)
}

func (s *Store) run(ctx context.Context, done chan struct{}) {
	defer close(done)

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if n := s.Sweep(); n > 0 && s.log != nil {
				s.log.Debug("session sweep", "evicted", n, "remaining", s.Len())
			}
		}
	}
}

// Shutdown stops the sweep loop and drops every session.
func (s *Store) Shutdown() {
	s.runMu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.runMu.Unlock()

	if cancel != nil {
		cancel()
		<-done
	}

	s.mu.Lock()
	for key, e := range s.entries {
		e.mu.Lock()
		e.removed = true
		e.mu.Unlock()
		delete(s.entries, key)
	}
	s.mu.Unlock()
	metrics.Get().ActiveSessions.Set(0)
}
