// Package registry owns the job collection and drives the poll cycle that
// reconciles scheduler snapshots into it.
package registry

import (
	"context"
	"log/slog"
	"time"

	"github.com/hpcops/gridtop/internal/parse"
	"github.com/hpcops/gridtop/internal/sched"
)

// DefaultCooldown bounds load on the scheduler's detail-query endpoint: the
// fetcher idles this long after every successful, non-empty fetch.
const DefaultCooldown = 15 * time.Second

// Fetcher is the single background worker that services enrichment
// requests. It pulls job ids from the request queue, fetches extended
// detail one job at a time, and pushes parsed results to the result queue.
// Failures are dropped silently; enrichment is best-effort and never
// required for core correctness.
type Fetcher struct {
	source   sched.Source
	requests <-chan int64
	results  chan<- map[string]string
	cooldown time.Duration
	logger   *slog.Logger
}

// NewFetcher wires a fetcher to its queues. A non-positive cooldown falls
// back to DefaultCooldown.
func NewFetcher(source sched.Source, requests <-chan int64, results chan<- map[string]string, cooldown time.Duration, logger *slog.Logger) *Fetcher {
	if cooldown <= 0 {
		cooldown = DefaultCooldown
	}
	return &Fetcher{
		source:   source,
		requests: requests,
		results:  results,
		cooldown: cooldown,
		logger:   logger,
	}
}

// Run services the request queue until the context is cancelled. Waiting
// for work is a blocking receive raced against cancellation, so idling
// costs nothing and shutdown is prompt; an in-flight fetch runs to
// completion before the next check, keeping exactly one query in flight.
func (f *Fetcher) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case jobID := <-f.requests:
			if !f.fetchOne(ctx, jobID) {
				continue
			}
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(f.cooldown):
			}
		}
	}
}

// fetchOne fetches and parses detail for one job, reporting whether a
// non-empty result was delivered (only those trigger the cooldown).
func (f *Fetcher) fetchOne(ctx context.Context, jobID int64) bool {
	text, err := f.source.JobDetail(ctx, jobID)
	if err != nil {
		f.logger.Debug("detail fetch failed, dropping job", "job", jobID, "error", err)
		return false
	}

	detail := parse.Detail(text)
	if len(detail) == 0 {
		f.logger.Debug("detail fetch produced nothing", "job", jobID)
		return false
	}

	select {
	case f.results <- detail:
		f.logger.Debug("detail fetched", "job", jobID, "keys", len(detail))
		return true
	default:
		f.logger.Warn("result queue full, dropping detail", "job", jobID)
		return false
	}
}
