package model

import "time"

// Task is one schedulable unit of work inside a job (one array index).
// A Task is created on first appearance in a snapshot and mutated in place
// on every later snapshot that reports it; only its owning TaskSet moves it
// between active and inactive.
type Task struct {
	ID    int
	State StateClass
	Token string // raw scheduler state token, kept for display

	// CPU is the consumed CPU time reported by the scheduler. Present if
	// and only if the task is running; same for Queue.
	CPU   *time.Duration
	Queue string

	Memory string
	IO     string

	// Ticket/share accounting columns, carried verbatim for display.
	Tickets   string
	Overrides string
	OTickets  string
	FTickets  string
	STickets  string
	Share     string

	Slots     int
	UpdatedAt time.Time
}

// update copies the mutable fields from a freshly parsed task and refreshes
// the last-update timestamp. The id is identity and never changes.
func (t *Task) update(n *Task, now time.Time) {
	t.State = n.State
	t.Token = n.Token
	t.CPU = n.CPU
	t.Queue = n.Queue
	t.Memory = n.Memory
	t.IO = n.IO
	t.Tickets = n.Tickets
	t.Overrides = n.Overrides
	t.OTickets = n.OTickets
	t.FTickets = n.FTickets
	t.STickets = n.STickets
	t.Share = n.Share
	t.Slots = n.Slots
	t.UpdatedAt = now
}

// EstimatedRuntime extrapolates elapsed CPU consumption from the last
// confirmed sample plus the wall clock since that sample. Tasks never
// observed running have no sample and report ok=false.
func (t *Task) EstimatedRuntime(now time.Time) (time.Duration, bool) {
	if t.CPU == nil {
		return 0, false
	}
	return now.Sub(t.UpdatedAt) + *t.CPU, true
}

// MeanRuntime is the arithmetic mean of EstimatedRuntime over the tasks in
// the pool that have a defined estimate. ok=false when no task does.
func MeanRuntime(pool []*Task, now time.Time) (time.Duration, bool) {
	var sum time.Duration
	var n int
	for _, t := range pool {
		if d, ok := t.EstimatedRuntime(now); ok {
			sum += d
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return sum / time.Duration(n), true
}
