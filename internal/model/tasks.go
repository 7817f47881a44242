package model

import (
	"sort"
	"time"
)

// TaskSet owns every task of one job. A task id is a member of exactly one
// of active/inactive at any time: active while the latest snapshot reports
// it, inactive once a full cycle passes without it. All mutation goes
// through Merge and AgeInactive so the invariant holds at a single choke
// point.
type TaskSet struct {
	active   map[int]*Task
	inactive map[int]*Task
	seen     map[int]bool
	touched  map[int]bool
}

func NewTaskSet() *TaskSet {
	return &TaskSet{
		active:   make(map[int]*Task),
		inactive: make(map[int]*Task),
		seen:     make(map[int]bool),
		touched:  make(map[int]bool),
	}
}

// Merge folds one freshly parsed task into the set and marks it touched for
// the current cycle. Known active tasks are updated in place, known inactive
// tasks are reactivated first, unknown ids are inserted as new active tasks.
func (s *TaskSet) Merge(n *Task, now time.Time) {
	s.touched[n.ID] = true

	if t, ok := s.active[n.ID]; ok {
		t.update(n, now)
		return
	}
	if t, ok := s.inactive[n.ID]; ok {
		delete(s.inactive, n.ID)
		s.active[n.ID] = t
		t.update(n, now)
		return
	}

	t := &Task{ID: n.ID}
	t.update(n, now)
	s.active[n.ID] = t
	s.seen[n.ID] = true
}

// AgeInactive moves every active task not touched this cycle to inactive and
// clears the touched set. Runs once per poll cycle after all snapshot lines
// have been merged. A further call without intervening merges ages the
// remaining active tasks too (their touch marks are gone); an id already
// inactive is never moved again.
func (s *TaskSet) AgeInactive() {
	for id, t := range s.active {
		if !s.touched[id] {
			delete(s.active, id)
			s.inactive[id] = t
		}
	}
	s.touched = make(map[int]bool)
}

// Active returns the currently reported tasks, ordered by id.
func (s *TaskSet) Active() []*Task {
	return sorted(s.active)
}

// Inactive returns the previously reported tasks, ordered by id.
func (s *TaskSet) Inactive() []*Task {
	return sorted(s.inactive)
}

// ActiveRunning returns the active tasks whose state occupies slots.
func (s *TaskSet) ActiveRunning() []*Task {
	var out []*Task
	for _, t := range s.Active() {
		if t.State.IsRunning() {
			out = append(out, t)
		}
	}
	return out
}

func (s *TaskSet) ActiveCount() int   { return len(s.active) }
func (s *TaskSet) InactiveCount() int { return len(s.inactive) }

// Contains reports whether the id was ever seen, and whether it is
// currently active.
func (s *TaskSet) Contains(id int) (known, active bool) {
	_, active = s.active[id]
	return s.seen[id], active
}

// MeanInactiveRuntime averages the runtime estimates of all inactive tasks.
func (s *TaskSet) MeanInactiveRuntime(now time.Time) (time.Duration, bool) {
	return MeanRuntime(s.Inactive(), now)
}

// MeanActiveRunningRuntime averages the runtime estimates of the active
// running tasks.
func (s *TaskSet) MeanActiveRunningRuntime(now time.Time) (time.Duration, bool) {
	return MeanRuntime(s.ActiveRunning(), now)
}

// ClassCounts tallies active tasks and their slots per queue class.
type ClassCounts struct {
	Tasks map[QueueClass]int
	Slots map[QueueClass]int
}

func NewClassCounts() ClassCounts {
	return ClassCounts{
		Tasks: make(map[QueueClass]int),
		Slots: make(map[QueueClass]int),
	}
}

// Add folds another tally into this one.
func (c ClassCounts) Add(o ClassCounts) {
	for class, n := range o.Tasks {
		c.Tasks[class] += n
	}
	for class, n := range o.Slots {
		c.Slots[class] += n
	}
}

// RunningSlots sums the slots of all running classes.
func (c ClassCounts) RunningSlots() int {
	var n int
	for _, class := range RunningClasses {
		n += c.Slots[class]
	}
	return n
}

// RunningTasks sums the task counts of all running classes.
func (c ClassCounts) RunningTasks() int {
	var n int
	for _, class := range RunningClasses {
		n += c.Tasks[class]
	}
	return n
}

// CountByQueueClass classifies the active tasks into queue-class buckets.
// Fails when a running task sits in a queue matching no configured prefix.
func (s *TaskSet) CountByQueueClass(prefixes QueuePrefixes) (ClassCounts, error) {
	counts := NewClassCounts()
	for _, t := range s.Active() {
		class, err := ClassifyQueue(t.State, t.Queue, prefixes)
		if err != nil {
			return ClassCounts{}, err
		}
		counts.Tasks[class]++
		counts.Slots[class] += t.Slots
	}
	return counts, nil
}

func sorted(m map[int]*Task) []*Task {
	out := make([]*Task, 0, len(m))
	for _, t := range m {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
