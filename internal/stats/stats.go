// Package stats derives display statistics from the reconciled job model:
// tuple grouping, mean runtimes, completion estimates and cluster
// utilization.
package stats

import (
	"sort"
	"strings"
	"time"

	"github.com/hpcops/gridtop/internal/model"
)

// Tuple is the grouping key that folds array-job siblings and repeated
// submissions of the same logical job into one display row.
type Tuple struct {
	ShortName string
	User      string
}

// Group aggregates every non-finished job sharing one tuple.
type Group struct {
	Tuple    Tuple
	Project  string
	JobCount int
	Counts   model.ClassCounts

	// FullNames are the distinct enriched names observed across the
	// group's jobs, sorted.
	FullNames []string

	meanInactive    time.Duration
	hasMeanInactive bool
	meanActive      time.Duration
	hasMeanActive   bool
}

// Collect groups jobs by tuple and computes per-group aggregates. Finished
// jobs are skipped. Fails when any active running task cannot be classified
// by queue prefix.
func Collect(jobs []*model.Job, prefixes model.QueuePrefixes, now time.Time) ([]*Group, error) {
	groups := make(map[Tuple]*Group)
	inactivePools := make(map[Tuple][]*model.Task)
	activePools := make(map[Tuple][]*model.Task)
	nameSets := make(map[Tuple]map[string]bool)

	for _, job := range jobs {
		if job.Finished {
			continue
		}
		key := Tuple{ShortName: job.ShortName, User: job.User}
		g, ok := groups[key]
		if !ok {
			// A tuple normally stays within one project; when it does
			// not, the first job observed wins the attribution.
			g = &Group{Tuple: key, Project: job.Project, Counts: model.NewClassCounts()}
			groups[key] = g
			nameSets[key] = make(map[string]bool)
		}

		g.JobCount++
		if job.FullName != "" {
			nameSets[key][job.FullName] = true
		}

		counts, err := job.Tasks.CountByQueueClass(prefixes)
		if err != nil {
			return nil, err
		}
		g.Counts.Add(counts)

		inactivePools[key] = append(inactivePools[key], job.Tasks.Inactive()...)
		activePools[key] = append(activePools[key], job.Tasks.ActiveRunning()...)
	}

	out := make([]*Group, 0, len(groups))
	for key, g := range groups {
		for name := range nameSets[key] {
			g.FullNames = append(g.FullNames, name)
		}
		sort.Strings(g.FullNames)
		g.meanInactive, g.hasMeanInactive = model.MeanRuntime(inactivePools[key], now)
		g.meanActive, g.hasMeanActive = model.MeanRuntime(activePools[key], now)
		out = append(out, g)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Tuple.User != out[j].Tuple.User {
			return out[i].Tuple.User < out[j].Tuple.User
		}
		return out[i].Tuple.ShortName < out[j].Tuple.ShortName
	})
	return out, nil
}

// DisplayName synthesizes the group's display name from the observed full
// names, falling back to the short name when enrichment never delivered one.
func (g *Group) DisplayName() string {
	if len(g.FullNames) == 0 {
		return g.Tuple.ShortName
	}
	return CommonFullName(g.FullNames)
}

// MeanInactiveRuntime is the pooled mean runtime of the group's inactive
// tasks.
func (g *Group) MeanInactiveRuntime() (time.Duration, bool) {
	return g.meanInactive, g.hasMeanInactive
}

// MeanActiveRuntime is the pooled mean runtime of the group's active
// running tasks.
func (g *Group) MeanActiveRuntime() (time.Duration, bool) {
	return g.meanActive, g.hasMeanActive
}

// EstimatedTimeLeft estimates the group's remaining runtime:
// max(0, meanInactive − meanActive) covers the in-flight tasks, and
// meanInactive × queued / activeRunning extrapolates the queued backlog from
// already-observed durations. Undefined without both means or with zero
// active running tasks.
func (g *Group) EstimatedTimeLeft() (time.Duration, bool) {
	activeRunning := g.Counts.RunningTasks()
	if !g.hasMeanInactive || !g.hasMeanActive || activeRunning == 0 {
		return 0, false
	}

	remaining := g.meanInactive - g.meanActive
	if remaining < 0 {
		remaining = 0
	}
	queued := g.Counts.Tasks[model.ClassWaiting]
	backlog := g.meanInactive * time.Duration(queued) / time.Duration(activeRunning)
	return remaining + backlog, true
}

// PercentUsedByProject is the share of all running slots held by groups of
// the given project, in percent. Undefined when nothing is running at all.
func PercentUsedByProject(groups []*Group, project string) (float64, bool) {
	var total, used int
	for _, g := range groups {
		slots := g.Counts.RunningSlots()
		total += slots
		if g.Project == project {
			used += slots
		}
	}
	if total == 0 {
		return 0, false
	}
	return 100 * float64(used) / float64(total), true
}

// CommonFullName collapses a set of sibling job names into one pattern: the
// longest name is the base, positions where every name agrees survive, and
// each run of disagreeing positions collapses into a single '*'. Positions
// past the end of a shorter name count as disagreement, so when the
// shortest name is a strict prefix of the others the result is that prefix
// followed by one '*'.
func CommonFullName(names []string) string {
	if len(names) == 0 {
		return ""
	}
	base := names[0]
	for _, name := range names[1:] {
		if len(name) > len(base) {
			base = name
		}
	}

	var b strings.Builder
	wildcard := false
	for i := 0; i < len(base); i++ {
		agree := true
		for _, name := range names {
			if i >= len(name) || name[i] != base[i] {
				agree = false
				break
			}
		}
		if agree {
			b.WriteByte(base[i])
			wildcard = false
			continue
		}
		if !wildcard {
			b.WriteByte('*')
			wildcard = true
		}
	}
	return b.String()
}
