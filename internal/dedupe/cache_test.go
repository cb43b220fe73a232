// ABOUTME: Tests for the idempotency replay cache
// ABOUTME: Covers replay, expiry, eviction, error handling, and concurrent callers

package dedupe

import (
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeClock lets tests move time without sleeping.
type fakeClock struct {
	mu sync.Mutex
	t  time.Time
}

func (f *fakeClock) Now() time.Time {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.t
}

func (f *fakeClock) Advance(d time.Duration) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.t = f.t.Add(d)
}

func newTestCache(t *testing.T, ttl time.Duration, maxSize int) (*Cache, *fakeClock) {
	t.Helper()
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}
	c := New(ttl, maxSize)
	c.now = clock.Now
	t.Cleanup(c.Close)
	return c, clock
}

func value(s string) func() ([]byte, error) {
	return func() ([]byte, error) { return []byte(s), nil }
}

func TestCache_DoRecordsThenReplays(t *testing.T) {
	c, _ := newTestCache(t, time.Minute, 10)

	v, replayed, err := c.Do("key", value("first"))
	require.NoError(t, err)
	assert.False(t, replayed)
	assert.Equal(t, "first", string(v))

	v, replayed, err = c.Do("key", value("second"))
	require.NoError(t, err)
	assert.True(t, replayed)
	assert.Equal(t, "first", string(v))
}

func TestCache_Lookup_NotSeen(t *testing.T) {
	c, _ := newTestCache(t, time.Minute, 10)

	_, ok := c.Lookup("never-seen-key")
	assert.False(t, ok)
}

func TestCache_Expiry(t *testing.T) {
	c, clock := newTestCache(t, time.Minute, 10)

	_, _, err := c.Do("key", value("first"))
	require.NoError(t, err)

	clock.Advance(time.Minute)

	_, ok := c.Lookup("key")
	assert.False(t, ok)

	v, replayed, err := c.Do("key", value("second"))
	require.NoError(t, err)
	assert.False(t, replayed)
	assert.Equal(t, "second", string(v))
}

func TestCache_ErrorsAreNotRecorded(t *testing.T) {
	c, _ := newTestCache(t, time.Minute, 10)
	boom := errors.New("boom")

	_, _, err := c.Do("key", func() ([]byte, error) { return nil, boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Len())

	v, replayed, err := c.Do("key", value("retry"))
	require.NoError(t, err)
	assert.False(t, replayed)
	assert.Equal(t, "retry", string(v))
}

func TestCache_EvictsOldest(t *testing.T) {
	c, _ := newTestCache(t, time.Minute, 2)

	for _, k := range []string{"a", "b", "c"} {
		_, _, err := c.Do(k, value(k))
		require.NoError(t, err)
	}

	assert.Equal(t, 2, c.Len())
	_, ok := c.Lookup("a")
	assert.False(t, ok)
	_, ok = c.Lookup("c")
	assert.True(t, ok)
}

func TestCache_RunCleanup(t *testing.T) {
	c, clock := newTestCache(t, time.Minute, 10)

	_, _, _ = c.Do("old", value("x"))
	clock.Advance(2 * time.Minute)
	_, _, _ = c.Do("new", value("y"))

	c.runCleanup()
	assert.Equal(t, 1, c.Len())
}

func TestCache_ConcurrentCallersShareOneRun(t *testing.T) {
	c, _ := newTestCache(t, time.Minute, 10)

	var calls atomic.Int32
	release := make(chan struct{})
	fn := func() ([]byte, error) {
		calls.Add(1)
		<-release
		return []byte("once"), nil
	}

	const n = 8
	var wg sync.WaitGroup
	var fresh atomic.Int32
	results := make([]string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			v, replayed, err := c.Do("key", fn)
			assert.NoError(t, err)
			if !replayed {
				fresh.Add(1)
			}
			results[i] = string(v)
		}(i)
	}

	time.Sleep(20 * time.Millisecond)
	close(release)
	wg.Wait()

	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, int32(1), fresh.Load())
	for _, r := range results {
		assert.Equal(t, "once", r)
	}
}

func TestCache_CloseTwice(t *testing.T) {
	c := New(time.Minute, 10)
	c.Close()
	c.Close()
}
