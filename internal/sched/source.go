// Package sched provides the collaborators that obtain raw scheduler output,
// either by invoking the scheduler's CLI or by replaying canned fixtures.
package sched

import "context"

// Source yields raw scheduler output. Snapshot returns the full cluster
// listing for the given poll cycle (the cycle number only matters to the
// fixture source, which replays numbered files); JobDetail returns the
// extended detail text for one job.
type Source interface {
	Snapshot(ctx context.Context, cycle int) (string, error)
	JobDetail(ctx context.Context, jobID int64) (string, error)
}
