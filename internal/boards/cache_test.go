// Copyright (c) 2025 The stm32pio authors.
// SPDX-License-Identifier: Apache-2.0
// no-cloc

package boards

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

type fakeRunner struct {
	mu    sync.Mutex
	calls int32
	argv  [][]string
	out   []byte
	err   error
	// gate, when set, blocks every run until it is closed.
	gate chan struct{}
}

func (r *fakeRunner) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	atomic.AddInt32(&r.calls, 1)
	r.mu.Lock()
	r.argv = append(r.argv, append([]string{name}, args...))
	out, err, gate := r.out, r.err, r.gate
	r.mu.Unlock()

	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return out, err
}

func (r *fakeRunner) set(out string, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.out = []byte(out)
	r.err = err
}

func (r *fakeRunner) Calls() int {
	return int(atomic.LoadInt32(&r.calls))
}

const twoBoards = `[{"id":"nucleo_f031k6","frameworks":["stm32cube"]},{"id":"bluepill_f103c8","frameworks":["stm32cube"]}]`

func newTestCache(r *fakeRunner, clk *fakeClock) *Cache {
	return New(Options{Runner: r, Clock: clk})
}

func TestCache_Defaults(t *testing.T) {
	c := New(Options{})
	assert.Equal(t, DefaultCommand, c.opts.Command)
	assert.Equal(t, DefaultFramework, c.opts.Framework)
	assert.Equal(t, DefaultLifetime, c.Lifetime())
	assert.IsType(t, ExecRunner{}, c.opts.Runner)
	assert.True(t, c.FetchedAt().IsZero())
}

func TestCache_CommandLine(t *testing.T) {
	r := &fakeRunner{}
	r.set(twoBoards, nil)
	c := New(Options{Command: "python3 -m platformio", Framework: "stm32cube", Runner: r, Clock: newFakeClock()})

	_, err := c.Boards(context.Background())
	require.NoError(t, err)
	require.Len(t, r.argv, 1)
	assert.Equal(t, []string{"python3", "-m", "platformio", "boards", "--json-output", "stm32cube"}, r.argv[0])
}

func TestCache_IdempotentWithinWindow(t *testing.T) {
	r := &fakeRunner{}
	r.set(twoBoards, nil)
	clk := newFakeClock()
	c := newTestCache(r, clk)

	first, err := c.Boards(context.Background())
	require.NoError(t, err)

	clk.Advance(2 * time.Second)
	second, err := c.Boards(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, r.Calls())
	assert.Equal(t, []string{"nucleo_f031k6", "bluepill_f103c8"}, first)
	assert.Equal(t, first, second)
	assert.Equal(t, time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC), c.FetchedAt())
}

func TestCache_Expiry(t *testing.T) {
	r := &fakeRunner{}
	r.set(twoBoards, nil)
	clk := newFakeClock()
	c := newTestCache(r, clk)

	_, err := c.Boards(context.Background())
	require.NoError(t, err)

	// Exactly at the window edge the entry is still valid.
	clk.Advance(DefaultLifetime)
	_, err = c.Boards(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, r.Calls())

	clk.Advance(time.Millisecond)
	r.set(`[{"id":"nucleo_f031k6","frameworks":["stm32cube"]}]`, nil)
	got, err := c.Boards(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, r.Calls())
	assert.Equal(t, []string{"nucleo_f031k6"}, got)

	// And the new entry is fresh again.
	_, err = c.Boards(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, r.Calls())
}

func TestCache_EmptyResultIsNotCached(t *testing.T) {
	r := &fakeRunner{}
	r.set(`[]`, nil)
	c := newTestCache(r, newFakeClock())

	got, err := c.Boards(context.Background())
	require.NoError(t, err)
	assert.Empty(t, got)

	_, err = c.Boards(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 2, r.Calls(), "an empty list counts as nothing cached")
}

func TestCache_ReturnsCopy(t *testing.T) {
	r := &fakeRunner{}
	r.set(twoBoards, nil)
	c := newTestCache(r, newFakeClock())

	got, err := c.Boards(context.Background())
	require.NoError(t, err)
	got[0] = "mutated"

	again, err := c.Boards(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "nucleo_f031k6", again[0])
}

func TestCache_StaleServedOnRefreshFailure(t *testing.T) {
	tests := []struct {
		name string
		out  string
		err  error
	}{
		{name: "process failure", err: &ProcessError{Command: "platformio", ExitCode: 1}},
		{name: "parse failure", out: "not json"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := &fakeRunner{}
			r.set(twoBoards, nil)
			clk := newFakeClock()
			c := newTestCache(r, clk)

			_, err := c.Boards(context.Background())
			require.NoError(t, err)
			fetchedAt := c.FetchedAt()

			clk.Advance(10 * time.Second)
			r.set(tt.out, tt.err)

			got, err := c.Boards(context.Background())
			assert.NoError(t, err)
			assert.Equal(t, []string{"nucleo_f031k6", "bluepill_f103c8"}, got)
			assert.Equal(t, 2, r.Calls())
			assert.Error(t, c.LastError())
			assert.Equal(t, fetchedAt, c.FetchedAt(), "failed refresh must not touch the entry")

			// Still stale, so the next call retries.
			_, _ = c.Boards(context.Background())
			assert.Equal(t, 3, r.Calls())
		})
	}
}

func TestCache_ErrorsWithoutCachedData(t *testing.T) {
	t.Run("process error", func(t *testing.T) {
		r := &fakeRunner{}
		r.set("", errors.New("exec: \"platformio\": executable file not found in $PATH"))
		c := newTestCache(r, newFakeClock())

		got, err := c.Boards(context.Background())
		assert.Nil(t, got)
		var pe *ProcessError
		require.True(t, errors.As(err, &pe), "want *ProcessError, got %T", err)
		assert.Equal(t, "platformio boards --json-output stm32cube", pe.Command)
		assert.False(t, pe.Timeout)
		assert.Equal(t, err, c.LastError())
	})

	t.Run("parse error", func(t *testing.T) {
		r := &fakeRunner{}
		r.set(`{"boards":[]}`, nil)
		c := newTestCache(r, newFakeClock())

		_, err := c.Boards(context.Background())
		var pe *ParseError
		require.True(t, errors.As(err, &pe), "want *ParseError, got %T", err)
	})

	t.Run("empty command", func(t *testing.T) {
		r := &fakeRunner{}
		c := New(Options{Command: "   ", Runner: r, Clock: newFakeClock()})

		_, err := c.Boards(context.Background())
		var pe *ProcessError
		require.True(t, errors.As(err, &pe))
		assert.Equal(t, 0, r.Calls())
	})
}

func TestCache_Refresh(t *testing.T) {
	r := &fakeRunner{}
	r.set(twoBoards, nil)
	clk := newFakeClock()
	c := newTestCache(r, clk)

	_, err := c.Boards(context.Background())
	require.NoError(t, err)

	// Forced even though the entry is fresh.
	require.NoError(t, c.Refresh(context.Background()))
	assert.Equal(t, 2, r.Calls())

	r.set("", &ProcessError{Command: "platformio", ExitCode: 2})
	err = c.Refresh(context.Background())
	assert.Error(t, err)

	got, err := c.Boards(context.Background())
	require.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, 3, r.Calls())

	r.set(twoBoards, nil)
	require.NoError(t, c.Refresh(context.Background()))
	assert.NoError(t, c.LastError())
}

func TestCache_Timeout(t *testing.T) {
	r := &fakeRunner{gate: make(chan struct{})}
	defer close(r.gate)
	r.set(twoBoards, nil)
	c := New(Options{Runner: r, Clock: newFakeClock(), Timeout: 20 * time.Millisecond})

	_, err := c.Boards(context.Background())
	var pe *ProcessError
	require.True(t, errors.As(err, &pe), "want *ProcessError, got %T", err)
	assert.True(t, pe.Timeout)
	assert.Contains(t, err.Error(), "timed out")
}

func TestCache_ConcurrentCallersShareOneRun(t *testing.T) {
	r := &fakeRunner{gate: make(chan struct{})}
	r.set(twoBoards, nil)
	c := newTestCache(r, newFakeClock())

	const callers = 16
	var wg sync.WaitGroup
	results := make([][]string, callers)
	errs := make([]error, callers)

	wg.Add(callers)
	for i := 0; i < callers; i++ {
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = c.Boards(context.Background())
		}(i)
	}

	// Let the first run start, give the rest time to pile up, then release.
	require.Eventually(t, func() bool { return r.Calls() == 1 }, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(r.gate)
	wg.Wait()

	assert.Equal(t, 1, r.Calls())
	for i := 0; i < callers; i++ {
		assert.NoError(t, errs[i])
		assert.Equal(t, []string{"nucleo_f031k6", "bluepill_f103c8"}, results[i])
	}
}
