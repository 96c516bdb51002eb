package session

import (
	"context"
	"sync"
	"testing"
	"time"

	"property_service_backend/platform/logger"

	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

func newTestStore(clock *fakeClock) *Store {
	return NewStore(nil, logger.Nop(), WithClock(clock.Now))
}

func TestUpsertCreatesAtAwaitingLanguage(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)}
	store := newTestStore(clock)

	var sawCreated bool
	sess := store.Upsert("0501234567", func(s *Session) {
		sawCreated = s.Created
	})

	require.True(t, sawCreated)
	require.True(t, sess.Created)
	require.Equal(t, StateAwaitingLanguage, sess.State)
	require.Equal(t, "0501234567", sess.SenderKey)

	again := store.Upsert("0501234567", func(s *Session) {
		require.False(t, s.Created)
	})
	require.False(t, again.Created)
}

func TestUpsertRepairsInvalidState(t *testing.T) {
	store := newTestStore(&fakeClock{now: time.Now()})
	sess := store.Upsert("a", func(s *Session) {
		s.State = "BOGUS"
		s.Draft.Category = "plumbing"
	})
	require.Equal(t, StateAwaitingLanguage, sess.State)
	require.True(t, sess.Draft.Empty())
}

func TestSweepEvictsIdleSessionsOnly(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)}
	store := newTestStore(clock)

	store.Upsert("idle", nil)
	clock.Advance(20 * time.Minute)
	store.Upsert("active", nil)
	clock.Advance(11 * time.Minute)

	require.Equal(t, 1, store.Sweep())

	_, ok := store.Get("idle")
	require.False(t, ok)
	_, ok = store.Get("active")
	require.True(t, ok)
}

func TestSweepSkipsLockedSessions(t *testing.T) {
	clock := &fakeClock{now: time.Date(2026, 1, 1, 10, 0, 0, 0, time.UTC)}
	store := newTestStore(clock)

	entered := make(chan struct{})
	release := make(chan struct{})
	go store.Upsert("busy", func(*Session) {
		clock.Advance(time.Hour)
		close(entered)
		<-release
	})
	<-entered

	require.Equal(t, 0, store.Sweep())
	close(release)

	require.Eventually(t, func() bool {
		_, ok := store.Get("busy")
		return ok
	}, time.Second, 5*time.Millisecond)
}

func TestConcurrentUpsertsDoNotLoseWrites(t *testing.T) {
	store := newTestStore(&fakeClock{now: time.Now()})

	const writers = 50
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			store.Upsert("same", func(s *Session) {
				s.Draft.Category += "x"
			})
		}()
	}
	wg.Wait()

	sess, ok := store.Get("same")
	require.True(t, ok)
	require.Len(t, sess.Draft.Category, writers)
}

func TestStartAndShutdown(t *testing.T) {
	clock := &fakeClock{now: time.Now()}
	store := NewStore(testSessionConfig{ttl: time.Minute, interval: 5 * time.Millisecond}, logger.Nop(), WithClock(clock.Now))

	store.Upsert("a", nil)
	store.Start(context.Background())
	store.Start(context.Background())

	clock.Advance(2 * time.Minute)
	require.Eventually(t, func() bool { return store.Len() == 0 }, time.Second, 5*time.Millisecond)

	store.Upsert("b", nil)
	store.Shutdown()
	require.Equal(t, 0, store.Len())
}

type testSessionConfig struct {
	ttl      time.Duration
	interval time.Duration
}

func (c testSessionConfig) GetSessionTTL() time.Duration           { return c.ttl }
func (c testSessionConfig) GetSessionSweepInterval() time.Duration { return c.interval }
