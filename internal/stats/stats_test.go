package stats

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hpcops/gridtop/internal/model"
)

func TestCommonFullName(t *testing.T) {
	tests := []struct {
		name  string
		names []string
		want  string
	}{
		{"two_versions", []string{"build_job_v1", "build_job_v2"}, "build_job_v*"},
		{"single", []string{"solo_job"}, "solo_job"},
		{"empty", nil, ""},
		{"identical", []string{"same", "same"}, "same"},
		{"wildcard_run_collapses", []string{"job_aa_x", "job_bb_x"}, "job_*_x"},
		{"prefix_of_longer", []string{"ab", "abc"}, "ab*"},
		{"all_different", []string{"aaa", "bbb"}, "*"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CommonFullName(tt.names))
		})
	}
}

func makeJob(number int64, name, user, project string) *model.Job {
	j := model.NewJob(number)
	j.MergeSnapshot(&model.Job{
		Number:    number,
		Name:      name,
		ShortName: model.StripTaskRange(name),
		User:      user,
		Project:   project,
	})
	return j
}

// addTask inserts one task and ages the set so inactive=true tasks land in
// the inactive pool with the given cpu sample.
func addTask(j *model.Job, id int, state model.StateClass, queue string, slots int, cpu time.Duration, now time.Time, inactive bool) {
	task := &model.Task{ID: id, State: state, Slots: slots, Queue: queue}
	if state.IsRunning() || inactive {
		c := cpu
		task.CPU = &c
	}
	j.Tasks.Merge(task, now)
	if inactive {
		j.AfterCycle() // clears touched
		j.AfterCycle() // ages it out
	}
}

func TestCollectGroupsByTuple(t *testing.T) {
	now := time.Now()
	prefixes := model.DefaultQueuePrefixes()

	a1 := makeJob(1, "render.1-4:1", "alice", "vfx")
	addTask(a1, 1, model.StateRunning, "lab.q@n1", 2, time.Minute, now, false)
	a2 := makeJob(2, "render.5-8:1", "alice", "vfx")
	addTask(a2, 5, model.StateQueued, "", 1, 0, now, false)
	b := makeJob(3, "render.1-4:1", "bob", "vfx")
	addTask(b, 1, model.StateRunning, "long.q@n2", 4, time.Minute, now, false)

	groups, err := Collect([]*model.Job{a1, a2, b}, prefixes, now)
	require.NoError(t, err)
	require.Len(t, groups, 2, "same short name, different users")

	alice := groups[0]
	require.Equal(t, Tuple{ShortName: "render", User: "alice"}, alice.Tuple)
	assert.Equal(t, 2, alice.JobCount)
	assert.Equal(t, 1, alice.Counts.Tasks[model.ClassLab])
	assert.Equal(t, 1, alice.Counts.Tasks[model.ClassWaiting])
	assert.Equal(t, 2, alice.Counts.RunningSlots())

	bob := groups[1]
	assert.Equal(t, "bob", bob.Tuple.User)
	assert.Equal(t, 4, bob.Counts.Slots[model.ClassLong])
}

func TestCollectProjectFromFirstJob(t *testing.T) {
	now := time.Now()
	first := makeJob(1, "render.1-4:1", "alice", "vfx")
	second := makeJob(2, "render.5-8:1", "alice", "phys")

	groups, err := Collect([]*model.Job{first, second}, model.DefaultQueuePrefixes(), now)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "vfx", groups[0].Project, "first observed job pins the project")
	assert.Equal(t, 2, groups[0].JobCount)
}

func TestCollectSkipsFinishedJobs(t *testing.T) {
	now := time.Now()
	j := makeJob(1, "render", "alice", "vfx")
	j.MarkFinished()

	groups, err := Collect([]*model.Job{j}, model.DefaultQueuePrefixes(), now)
	require.NoError(t, err)
	assert.Empty(t, groups)
}

func TestDisplayNameFallsBackToShortName(t *testing.T) {
	now := time.Now()
	j := makeJob(1, "render.1-4:1", "alice", "vfx")

	groups, err := Collect([]*model.Job{j}, model.DefaultQueuePrefixes(), now)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "render", groups[0].DisplayName())
}

func TestDisplayNameSynthesizesFromFullNames(t *testing.T) {
	now := time.Now()
	j1 := makeJob(1, "build_job_.1", "alice", "vfx")
	j1.AttachDetail(map[string]string{model.DetailKeyJobName: "build_job_v1"})
	j2 := makeJob(2, "build_job_.2", "alice", "vfx")
	j2.AttachDetail(map[string]string{model.DetailKeyJobName: "build_job_v2"})

	groups, err := Collect([]*model.Job{j1, j2}, model.DefaultQueuePrefixes(), now)
	require.NoError(t, err)
	require.Len(t, groups, 1)
	assert.Equal(t, "build_job_v*", groups[0].DisplayName())
}

func TestEstimatedTimeLeft(t *testing.T) {
	g := &Group{
		Counts:          model.NewClassCounts(),
		meanInactive:    100 * time.Second,
		hasMeanInactive: true,
		meanActive:      40 * time.Second,
		hasMeanActive:   true,
	}
	g.Counts.Tasks[model.ClassLab] = 2
	g.Counts.Tasks[model.ClassWaiting] = 3

	got, ok := g.EstimatedTimeLeft()
	require.True(t, ok)
	// max(0, 100-40) + 100*3/2 = 210s
	assert.Equal(t, 210*time.Second, got)
}

func TestEstimatedTimeLeftUndefined(t *testing.T) {
	base := func() *Group {
		g := &Group{
			Counts:          model.NewClassCounts(),
			meanInactive:    100 * time.Second,
			hasMeanInactive: true,
			meanActive:      40 * time.Second,
			hasMeanActive:   true,
		}
		g.Counts.Tasks[model.ClassLab] = 2
		return g
	}

	g := base()
	g.hasMeanInactive = false
	_, ok := g.EstimatedTimeLeft()
	assert.False(t, ok, "needs mean inactive")

	g = base()
	g.hasMeanActive = false
	_, ok = g.EstimatedTimeLeft()
	assert.False(t, ok, "needs mean active")

	g = base()
	g.Counts.Tasks[model.ClassLab] = 0
	_, ok = g.EstimatedTimeLeft()
	assert.False(t, ok, "zero active running tasks must not divide")
}

func TestEstimatedTimeLeftClampsNegativeRemaining(t *testing.T) {
	g := &Group{
		Counts:          model.NewClassCounts(),
		meanInactive:    30 * time.Second,
		hasMeanInactive: true,
		meanActive:      90 * time.Second, // in-flight already past the mean
		hasMeanActive:   true,
	}
	g.Counts.Tasks[model.ClassShort] = 1
	g.Counts.Tasks[model.ClassWaiting] = 2

	got, ok := g.EstimatedTimeLeft()
	require.True(t, ok)
	assert.Equal(t, 60*time.Second, got)
}

func TestPercentUsedByProject(t *testing.T) {
	mk := func(project string, slots int) *Group {
		g := &Group{Project: project, Counts: model.NewClassCounts()}
		g.Counts.Slots[model.ClassLab] = slots
		return g
	}

	groups := []*Group{mk("x", 4), mk("y", 6)}
	got, ok := PercentUsedByProject(groups, "x")
	require.True(t, ok)
	assert.InDelta(t, 40.0, got, 1e-9)

	_, ok = PercentUsedByProject(nil, "x")
	assert.False(t, ok, "zero denominator is undefined, not zero")
}
