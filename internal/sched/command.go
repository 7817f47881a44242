package sched

import (
	"context"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
)

// CommandSource queries the live scheduler through its CLI.
type CommandSource struct {
	binary       string
	snapshotArgs []string
	detailArgs   []string
}

// NewCommandSource builds a live source. snapshotArgs are passed verbatim to
// the binary for the full listing; detailArgs are followed by the job number
// for the per-job detail query.
func NewCommandSource(binary string, snapshotArgs, detailArgs []string) *CommandSource {
	return &CommandSource{
		binary:       binary,
		snapshotArgs: snapshotArgs,
		detailArgs:   detailArgs,
	}
}

// Snapshot runs the full listing query. The cycle counter is irrelevant for
// a live scheduler.
func (s *CommandSource) Snapshot(ctx context.Context, _ int) (string, error) {
	return s.run(ctx, s.snapshotArgs)
}

// JobDetail runs the per-job detail query.
func (s *CommandSource) JobDetail(ctx context.Context, jobID int64) (string, error) {
	args := append(append([]string{}, s.detailArgs...), strconv.FormatInt(jobID, 10))
	return s.run(ctx, args)
}

func (s *CommandSource) run(ctx context.Context, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, s.binary, args...)
	out, err := cmd.CombinedOutput()
	if err != nil {
		// Non-zero exit is an error carrying the captured output.
		return "", fmt.Errorf("%s %s: %w: %s",
			s.binary, strings.Join(args, " "), err, strings.TrimSpace(string(out)))
	}
	return string(out), nil
}
