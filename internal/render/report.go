package render

import (
	"fmt"
	"io"
	"time"

	"github.com/hpcops/gridtop/internal/model"
	"github.com/hpcops/gridtop/internal/stats"
)

// noEstimate is printed where a statistic has insufficient data. Undefined
// is a normal condition, not an error.
const noEstimate = "-"

// Report is the full per-cycle terminal output: the grouped job table and
// free-form status lines below it.
type Report struct {
	Table  Table
	Status []string
}

// BuildReport assembles the display from the collected groups. A non-empty
// user limits the table to that user's groups; the project utilization line
// always covers every group, so the percentage stays cluster-wide.
func BuildReport(groups []*stats.Group, user, project string, cycle int, now time.Time) Report {
	table := Table{
		Header: []string{"JOBS", "LAB", "LONG", "SHORT", "WAIT", "SLOTS", "TIME LEFT", "USER", "NAME"},
	}

	var totalRunningSlots, totalWaiting int
	for _, g := range groups {
		if user != "" && g.Tuple.User != user {
			continue
		}
		eta := noEstimate
		if d, ok := g.EstimatedTimeLeft(); ok {
			eta = FormatDuration(d)
		}
		table.Rows = append(table.Rows, []string{
			fmt.Sprintf("%d", g.JobCount),
			fmt.Sprintf("%d", g.Counts.Tasks[model.ClassLab]),
			fmt.Sprintf("%d", g.Counts.Tasks[model.ClassLong]),
			fmt.Sprintf("%d", g.Counts.Tasks[model.ClassShort]),
			fmt.Sprintf("%d", g.Counts.Tasks[model.ClassWaiting]),
			fmt.Sprintf("%d", g.Counts.RunningSlots()),
			eta,
			g.Tuple.User,
			g.DisplayName(),
		})
		totalRunningSlots += g.Counts.RunningSlots()
		totalWaiting += g.Counts.Tasks[model.ClassWaiting]
	}

	status := []string{
		fmt.Sprintf("cycle %d at %s: %d groups, %d running slots, %d waiting tasks",
			cycle, now.Format("15:04:05"), len(table.Rows), totalRunningSlots, totalWaiting),
	}
	if project != "" {
		if pct, ok := stats.PercentUsedByProject(groups, project); ok {
			status = append(status, fmt.Sprintf("project %s: %.1f%% of running slots", project, pct))
		} else {
			status = append(status, fmt.Sprintf("project %s: no slots running", project))
		}
	}

	return Report{Table: table, Status: status}
}

// Write renders the report.
func (r Report) Write(w io.Writer) error {
	if err := r.Table.Write(w); err != nil {
		return err
	}
	for _, line := range r.Status {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// FormatDuration renders a duration as H:MM:SS, the same shape the
// scheduler uses for its cpu column.
func FormatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Second)
	h := d / time.Hour
	m := (d % time.Hour) / time.Minute
	s := (d % time.Minute) / time.Second
	return fmt.Sprintf("%d:%02d:%02d", int64(h), int64(m), int64(s))
}
