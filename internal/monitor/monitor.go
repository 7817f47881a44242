// Package monitor runs the poll-render loop that turns registry state into
// the refreshing terminal display.
package monitor

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/sync/errgroup"

	"github.com/hpcops/gridtop/internal/model"
	"github.com/hpcops/gridtop/internal/registry"
	"github.com/hpcops/gridtop/internal/render"
	"github.com/hpcops/gridtop/internal/stats"
)

// Options configures a Monitor.
type Options struct {
	Interval time.Duration
	Once     bool

	// User limits the report to one user's groups; Project feeds the
	// utilization summary line.
	User     string
	Project  string
	Prefixes model.QueuePrefixes

	// FixtureDir, when set, is watched with fsnotify; a new or rewritten
	// fixture file triggers a cycle without waiting for the ticker.
	FixtureDir string

	// ClearScreen redraws in place instead of scrolling.
	ClearScreen bool

	Out    io.Writer
	Logger *slog.Logger
	Now    func() time.Time
}

// Monitor couples a registry to the terminal. Each cycle refreshes the
// registry, derives the per-group statistics and rewrites the display.
type Monitor struct {
	reg  *registry.Registry
	opts Options

	// kick wakes the loop between ticks. Buffered so the fsnotify loop
	// never blocks on a cycle already in flight.
	kick chan struct{}
}

// New builds a monitor around the registry.
func New(reg *registry.Registry, opts Options) *Monitor {
	if opts.Out == nil {
		opts.Out = os.Stdout
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Monitor{
		reg:  reg,
		opts: opts,
		kick: make(chan struct{}, 1),
	}
}

// Run blocks until the context is cancelled or a cycle fails. In once mode
// it runs a single cycle and returns. Cycle errors are fatal: a snapshot
// that no longer parses or a running task on an unknown queue means the
// model can no longer be trusted.
func (m *Monitor) Run(ctx context.Context) error {
	if m.opts.Once {
		return m.cycle(ctx)
	}

	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return m.reg.Fetcher().Run(ctx)
	})

	if m.opts.FixtureDir != "" {
		watcher, err := fsnotify.NewWatcher()
		if err != nil {
			return fmt.Errorf("create fixture watcher: %w", err)
		}
		if err := watcher.Add(m.opts.FixtureDir); err != nil {
			watcher.Close()
			return fmt.Errorf("watch %s: %w", m.opts.FixtureDir, err)
		}
		g.Go(func() error {
			defer watcher.Close()
			return m.watchLoop(ctx, watcher)
		})
	}

	g.Go(func() error {
		return m.loop(ctx)
	})

	return g.Wait()
}

// loop runs one cycle immediately, then one per tick or kick.
func (m *Monitor) loop(ctx context.Context) error {
	if err := m.cycle(ctx); err != nil {
		return err
	}

	ticker := time.NewTicker(m.opts.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
			if err := m.cycle(ctx); err != nil {
				return err
			}
		case <-m.kick:
			if err := m.cycle(ctx); err != nil {
				return err
			}
		}
	}
}

// watchLoop forwards fixture-file changes to the poll loop.
func (m *Monitor) watchLoop(ctx context.Context, watcher *fsnotify.Watcher) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Has(fsnotify.Write) || event.Has(fsnotify.Create) {
				m.opts.Logger.Debug("fixture changed", "op", event.Op.String(), "file", event.Name)
				select {
				case m.kick <- struct{}{}:
				default:
				}
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			m.opts.Logger.Error("fixture watcher error", "error", err)
		}
	}
}

// cycle runs one refresh and redraws the display.
func (m *Monitor) cycle(ctx context.Context) error {
	started := m.opts.Now()

	if err := m.reg.Refresh(ctx); err != nil {
		return fmt.Errorf("refresh: %w", err)
	}

	groups, err := stats.Collect(m.reg.Jobs(), m.opts.Prefixes, m.opts.Now())
	if err != nil {
		return fmt.Errorf("collect: %w", err)
	}

	report := render.BuildReport(groups, m.opts.User, m.opts.Project, m.reg.Cycle(), m.opts.Now())
	if m.opts.ClearScreen {
		render.ClearScreen(m.opts.Out)
	}
	if err := report.Write(m.opts.Out); err != nil {
		return fmt.Errorf("render: %w", err)
	}

	m.opts.Logger.Debug("cycle complete",
		"cycle", m.reg.Cycle(),
		"groups", len(groups),
		"elapsed", m.opts.Now().Sub(started))
	return nil
}
