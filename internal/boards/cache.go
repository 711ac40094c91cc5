// Copyright (c) 2025 The stm32pio authors.
// SPDX-License-Identifier: Apache-2.0

package boards

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/apex/log"
	"github.com/dustin/go-humanize"
	"golang.org/x/sync/singleflight"
)

// Defaults applied by New for zero Options fields.
const (
	DefaultCommand   = "platformio"
	DefaultFramework = "stm32cube"
	DefaultLifetime  = 5 * time.Second
)

// Options configure a Cache.
type Options struct {
	// Command is the platformio executable. It may carry leading arguments
	// ("python3 -m platformio"); it is split on whitespace.
	Command string
	// Framework is the family passed to --json-output and used to filter
	// records.
	Framework string
	// Lifetime is the freshness window of a fetched list.
	Lifetime time.Duration
	// Timeout bounds a single platformio run. Zero means no limit.
	Timeout time.Duration

	Runner Runner
	Clock  Clock
}

// Cache memoizes the board list for Lifetime. It is safe for concurrent use;
// concurrent refreshes share one platformio run.
type Cache struct {
	opts Options

	mu        sync.RWMutex
	ids       []string
	fetchedAt time.Time
	lastErr   error

	sf singleflight.Group
}

// New returns an empty Cache.
func New(opts Options) *Cache {
	if opts.Command == "" {
		opts.Command = DefaultCommand
	}
	if opts.Framework == "" {
		opts.Framework = DefaultFramework
	}
	if opts.Lifetime <= 0 {
		opts.Lifetime = DefaultLifetime
	}
	if opts.Runner == nil {
		opts.Runner = ExecRunner{}
	}
	if opts.Clock == nil {
		opts.Clock = systemClock{}
	}
	return &Cache{opts: opts}
}

// Boards returns the board ids, running platformio when nothing is cached or
// the cached list is older than the freshness window.
//
// When a refresh fails but an older list is held, that list is returned with a
// nil error and the failure is logged and kept for LastError. With nothing
// cached the failure is returned.
func (c *Cache) Boards(ctx context.Context) ([]string, error) {
	now := c.opts.Clock.Now()

	c.mu.RLock()
	if c.freshLocked(now) {
		ids := clone(c.ids)
		fetchedAt := c.fetchedAt
		c.mu.RUnlock()
		log.Debugf("board list cache hit (%d boards, fetched %s)", len(ids), humanize.RelTime(fetchedAt, now, "ago", "from now"))
		return ids, nil
	}
	c.mu.RUnlock()

	err := c.refresh(ctx, false)

	c.mu.RLock()
	defer c.mu.RUnlock()
	if err != nil {
		if len(c.ids) > 0 {
			log.WithError(err).Warnf("board list refresh failed, serving %d cached boards", len(c.ids))
			return clone(c.ids), nil
		}
		return nil, err
	}
	return clone(c.ids), nil
}

// Refresh runs platformio regardless of freshness and returns its error, if
// any. The cached list is only replaced on success.
func (c *Cache) Refresh(ctx context.Context) error {
	return c.refresh(ctx, true)
}

// FetchedAt reports when the cached list was fetched. Zero before the first
// successful fetch.
func (c *Cache) FetchedAt() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.fetchedAt
}

// LastError is the error of the most recent refresh, nil if it succeeded.
func (c *Cache) LastError() error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastErr
}

// Lifetime is the configured freshness window.
func (c *Cache) Lifetime() time.Duration {
	return c.opts.Lifetime
}

func (c *Cache) freshLocked(now time.Time) bool {
	return len(c.ids) > 0 && now.Sub(c.fetchedAt) <= c.opts.Lifetime
}

// refresh collapses concurrent callers onto one fetch. A non-forced flight
// re-checks freshness first, so a caller arriving just after another flight
// landed does not spawn a second process.
func (c *Cache) refresh(ctx context.Context, force bool) error {
	_, err, shared := c.sf.Do("boards", func() (any, error) {
		if !force {
			c.mu.RLock()
			fresh := c.freshLocked(c.opts.Clock.Now())
			c.mu.RUnlock()
			if fresh {
				return nil, nil
			}
		}
		return nil, c.fetch(ctx)
	})
	if shared {
		log.Debug("joined in-flight board list refresh")
	}
	return err
}

func (c *Cache) fetch(ctx context.Context) error {
	started := c.opts.Clock.Now()

	ids, err := c.run(ctx)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastErr = err
	if err != nil {
		return err
	}
	c.ids = ids
	c.fetchedAt = started

	log.WithFields(log.Fields{
		"boards":    len(ids),
		"framework": c.opts.Framework,
	}).Debugf("board list refreshed in %s", time.Since(started).Round(time.Millisecond))
	return nil
}

func (c *Cache) run(ctx context.Context) ([]string, error) {
	argv := strings.Fields(c.opts.Command)
	if len(argv) == 0 {
		return nil, &ProcessError{Command: c.opts.Command, ExitCode: -1, Err: errors.New("no command configured")}
	}
	argv = append(argv, "boards", "--json-output", c.opts.Framework)
	cmdline := strings.Join(argv, " ")

	runCtx := ctx
	if c.opts.Timeout > 0 {
		var cancel context.CancelFunc
		runCtx, cancel = context.WithTimeout(ctx, c.opts.Timeout)
		defer cancel()
	}

	log.Debugf("running %s", cmdline)
	out, err := c.opts.Runner.Run(runCtx, argv[0], argv[1:]...)
	if err != nil {
		return nil, asProcessError(runCtx, cmdline, err)
	}

	ids, err := ParseBoards(out, c.opts.Framework)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", cmdline, err)
	}
	return ids, nil
}

func asProcessError(ctx context.Context, cmdline string, err error) error {
	timedOut := errors.Is(ctx.Err(), context.DeadlineExceeded)

	var pe *ProcessError
	if errors.As(err, &pe) {
		if timedOut {
			pe.Timeout = true
		}
		return pe
	}
	return &ProcessError{Command: cmdline, ExitCode: -1, Timeout: timedOut, Err: err}
}

func clone(ids []string) []string {
	if ids == nil {
		return []string{}
	}
	out := make([]string, len(ids))
	copy(out, ids)
	return out
}
