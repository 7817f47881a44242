package sched

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
)

// DetailSubdir is where per-job detail fixtures live inside a fixture
// directory, one "<job id>.txt" per job.
const DetailSubdir = "details"

// FixtureSource replays canned scheduler output from a directory of numbered
// snapshot files, cycling through them in lexical order. It keeps no
// iteration state of its own; the registry owns the cycle counter and passes
// it in.
type FixtureSource struct {
	dir       string
	snapshots []string
}

// NewFixtureSource scans dir for snapshot fixtures (every .txt file at the
// top level) and fails when none exist.
func NewFixtureSource(dir string) (*FixtureSource, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("read fixture dir: %w", err)
	}

	var snapshots []string
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".txt") {
			continue
		}
		snapshots = append(snapshots, e.Name())
	}
	if len(snapshots) == 0 {
		return nil, fmt.Errorf("no snapshot fixtures in %s", dir)
	}
	sort.Strings(snapshots)

	return &FixtureSource{dir: dir, snapshots: snapshots}, nil
}

// Snapshot returns the fixture for the given cycle, wrapping around when the
// cycle count exceeds the number of fixtures.
func (s *FixtureSource) Snapshot(_ context.Context, cycle int) (string, error) {
	if cycle < 0 {
		return "", fmt.Errorf("negative cycle %d", cycle)
	}
	name := s.snapshots[cycle%len(s.snapshots)]
	data, err := os.ReadFile(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("read snapshot fixture %s: %w", name, err)
	}
	return string(data), nil
}

// JobDetail reads the per-job detail fixture. A missing file is an error so
// the fetcher treats it exactly like a failed live query.
func (s *FixtureSource) JobDetail(_ context.Context, jobID int64) (string, error) {
	path := filepath.Join(s.dir, DetailSubdir, strconv.FormatInt(jobID, 10)+".txt")
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read detail fixture for job %d: %w", jobID, err)
	}
	return string(data), nil
}

// SnapshotCount reports how many snapshot fixtures were found.
func (s *FixtureSource) SnapshotCount() int {
	return len(s.snapshots)
}
