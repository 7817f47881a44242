package render

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpcops/gridtop/internal/model"
	"github.com/hpcops/gridtop/internal/stats"
)

func TestTableAlignment(t *testing.T) {
	table := Table{
		Header: []string{"JOBS", "SLOTS", "USER", "NAME"},
		Rows: [][]string{
			{"1", "128", "alice", "render"},
			{"12", "4", "bob", "sim_long_name"},
		},
	}

	var sb strings.Builder
	require.NoError(t, table.Write(&sb))
	lines := strings.Split(strings.TrimRight(sb.String(), "\n"), "\n")
	require.Len(t, lines, 3)

	// Numeric columns right-justified, the trailing two left-justified.
	assert.Contains(t, lines[1], "   1", "JOBS column pads to header width")
	assert.Contains(t, lines[1], "  128")
	assert.Contains(t, lines[1], "alice  render")
	assert.Contains(t, lines[2], "  12")
	assert.Contains(t, lines[2], "bob    sim_long_name")
	assert.False(t, strings.HasSuffix(lines[2], " "), "trailing padding trimmed")
}

func TestTableRejectsRaggedRows(t *testing.T) {
	table := Table{
		Header: []string{"A", "B"},
		Rows:   [][]string{{"only one"}},
	}
	assert.Error(t, table.Write(&strings.Builder{}))
}

func TestFormatDuration(t *testing.T) {
	tests := []struct {
		d    time.Duration
		want string
	}{
		{0, "0:00:00"},
		{90 * time.Second, "0:01:30"},
		{time.Hour + 2*time.Minute + 3*time.Second, "1:02:03"},
		{26 * time.Hour, "26:00:00"},
		{-time.Minute, "0:00:00"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, FormatDuration(tt.d))
	}
}

func TestBuildReport(t *testing.T) {
	now := time.Now()
	g := &stats.Group{
		Tuple:    stats.Tuple{ShortName: "render", User: "alice"},
		Project:  "vfx",
		JobCount: 2,
		Counts:   model.NewClassCounts(),
	}
	g.Counts.Tasks[model.ClassLab] = 3
	g.Counts.Slots[model.ClassLab] = 12
	g.Counts.Tasks[model.ClassWaiting] = 5

	report := BuildReport([]*stats.Group{g}, "", "vfx", 7, now)

	require.Len(t, report.Table.Rows, 1)
	row := report.Table.Rows[0]
	assert.Equal(t, "2", row[0])   // jobs
	assert.Equal(t, "3", row[1])   // lab tasks
	assert.Equal(t, "5", row[4])   // waiting
	assert.Equal(t, "12", row[5])  // running slots
	assert.Equal(t, noEstimate, row[6], "no runtime samples, no estimate")
	assert.Equal(t, "alice", row[7])
	assert.Equal(t, "render", row[8])

	require.Len(t, report.Status, 2)
	assert.Contains(t, report.Status[0], "cycle 7")
	assert.Contains(t, report.Status[1], "project vfx: 100.0%")
}

func TestBuildReportUndefinedUtilization(t *testing.T) {
	report := BuildReport(nil, "", "vfx", 0, time.Now())
	require.Len(t, report.Status, 2)
	assert.Contains(t, report.Status[1], "no slots running")
}

func TestBuildReportFiltersByUser(t *testing.T) {
	mine := &stats.Group{
		Tuple:    stats.Tuple{ShortName: "render", User: "alice"},
		Project:  "vfx",
		JobCount: 1,
		Counts:   model.NewClassCounts(),
	}
	mine.Counts.Tasks[model.ClassLab] = 1
	mine.Counts.Slots[model.ClassLab] = 4

	theirs := &stats.Group{
		Tuple:    stats.Tuple{ShortName: "sim", User: "bob"},
		Project:  "phys",
		JobCount: 1,
		Counts:   model.NewClassCounts(),
	}
	theirs.Counts.Tasks[model.ClassLong] = 1
	theirs.Counts.Slots[model.ClassLong] = 12

	report := BuildReport([]*stats.Group{mine, theirs}, "alice", "vfx", 1, time.Now())

	require.Len(t, report.Table.Rows, 1, "only the configured user's groups are shown")
	assert.Equal(t, "alice", report.Table.Rows[0][7])

	// Utilization stays cluster-wide: 4 of 16 running slots.
	require.Len(t, report.Status, 2)
	assert.Contains(t, report.Status[1], "project vfx: 25.0%")
}
