package registry

import (
	"context"
	"fmt"
	"log/slog"
	"math/rand"
	"sort"
	"strconv"
	"time"

	"github.com/hpcops/gridtop/internal/events"
	"github.com/hpcops/gridtop/internal/model"
	"github.com/hpcops/gridtop/internal/parse"
	"github.com/hpcops/gridtop/internal/sched"
)

// DefaultQueueCapacity sizes the two fetcher queues. Enrichment is
// best-effort, so a full queue drops requests instead of growing without
// bound.
const DefaultQueueCapacity = 512

// DefaultMinNameLen is the display-name length below which a job is not
// worth a detail query (short names are never truncated by the snapshot).
const DefaultMinNameLen = 10

// Options configures a Registry.
type Options struct {
	// Project gates enrichment: only jobs of this project are worth a
	// detail query.
	Project string

	MinNameLen    int
	QueueCapacity int
	Cooldown      time.Duration

	Logger *slog.Logger
	Bus    *events.Bus

	// Now and Seed are injectable for tests.
	Now  func() time.Time
	Seed int64
}

// Registry owns every Job ever seen, keyed by job number, and drives the
// poll cycle: parse snapshot, reconcile against prior state, mark missing
// jobs finished, enqueue newly discovered jobs for enrichment, drain
// enrichment results, age task state. All communication with the fetcher
// goes through the two queues; no other state crosses that boundary.
type Registry struct {
	source  sched.Source
	logger  *slog.Logger
	bus     *events.Bus
	project string

	minNameLen int

	jobs     map[int64]*model.Job
	previous map[int64]bool
	cycle    int

	requests chan int64
	results  chan map[string]string
	fetcher  *Fetcher

	rng *rand.Rand
	now func() time.Time
}

// New builds a registry and its fetcher. The fetcher goroutine is not
// started here; run Fetcher().Run on its own goroutine.
func New(source sched.Source, opts Options) *Registry {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.MinNameLen <= 0 {
		opts.MinNameLen = DefaultMinNameLen
	}
	if opts.QueueCapacity <= 0 {
		opts.QueueCapacity = DefaultQueueCapacity
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Seed == 0 {
		opts.Seed = time.Now().UnixNano()
	}

	r := &Registry{
		source:     source,
		logger:     opts.Logger,
		bus:        opts.Bus,
		project:    opts.Project,
		minNameLen: opts.MinNameLen,
		jobs:       make(map[int64]*model.Job),
		previous:   make(map[int64]bool),
		requests:   make(chan int64, opts.QueueCapacity),
		results:    make(chan map[string]string, opts.QueueCapacity),
		rng:        rand.New(rand.NewSource(opts.Seed)),
		now:        opts.Now,
	}
	r.fetcher = NewFetcher(source, r.requests, r.results, opts.Cooldown, opts.Logger)
	return r
}

// Fetcher returns the enrichment worker bound to this registry's queues.
func (r *Registry) Fetcher() *Fetcher {
	return r.fetcher
}

// Cycle returns the number of completed poll cycles.
func (r *Registry) Cycle() int {
	return r.cycle
}

// Refresh runs one full poll cycle. Errors are fatal for the process: a
// malformed snapshot line means the scheduler output format changed, and an
// unknown missing id breaks the registry's own invariant.
func (r *Registry) Refresh(ctx context.Context) error {
	text, err := r.source.Snapshot(ctx, r.cycle)
	if err != nil {
		return fmt.Errorf("snapshot query: %w", err)
	}
	lines, err := parse.Snapshot(text)
	if err != nil {
		return err
	}

	now := r.now()
	parsed := make(map[int64]bool)
	var discovered []*model.Job

	for _, line := range lines {
		id := line.Job.Number
		job, known := r.jobs[id]
		if !known {
			job = model.NewJob(id)
			r.jobs[id] = job
			discovered = append(discovered, job)
		}
		job.MergeSnapshot(line.Job)
		job.MergeTasks(line.Task, line.TaskIDs, now)
		parsed[id] = true
	}

	// Jobs reported last cycle but absent now are finished. An id in
	// previous that the registry does not know cannot happen by
	// construction; treat it as the invariant violation it is.
	for id := range r.previous {
		if parsed[id] {
			continue
		}
		job, known := r.jobs[id]
		if !known {
			return fmt.Errorf("job %d vanished from snapshot but was never registered", id)
		}
		job.MarkFinished()
		r.logger.Info("job finished", "job", id, "name", job.Name, "user", job.User)
		r.publish(events.JobFinished, job)
	}
	r.previous = parsed

	r.enqueueEnrichment(discovered)
	r.drainResults()

	// Age task state on every known job, finished or not: jobs with no
	// snapshot line this cycle lose their active tasks here.
	for _, job := range r.jobs {
		job.AfterCycle()
	}

	r.cycle++
	r.logger.Debug("cycle complete",
		"cycle", r.cycle, "jobs", len(parsed), "discovered", len(discovered))
	return nil
}

// enqueueEnrichment queues detail fetches for newly discovered jobs of the
// configured project whose names are long enough to be truncated. The order
// is randomized so late-discovered jobs are not systematically starved when
// the fetcher falls behind.
func (r *Registry) enqueueEnrichment(discovered []*model.Job) {
	var wanted []*model.Job
	for _, job := range discovered {
		r.publish(events.JobDiscovered, job)
		if job.Project == r.project && len(job.Name) >= r.minNameLen {
			wanted = append(wanted, job)
		}
	}

	r.rng.Shuffle(len(wanted), func(i, j int) {
		wanted[i], wanted[j] = wanted[j], wanted[i]
	})

	for _, job := range wanted {
		select {
		case r.requests <- job.Number:
		default:
			r.logger.Warn("request queue full, skipping enrichment", "job", job.Number)
		}
	}
}

// drainResults consumes every currently available enrichment result without
// blocking the cycle.
func (r *Registry) drainResults() {
	for {
		select {
		case detail := <-r.results:
			r.attachDetail(detail)
		default:
			return
		}
	}
}

func (r *Registry) attachDetail(detail map[string]string) {
	idStr, ok := detail[model.DetailKeyJobNumber]
	if !ok {
		r.logger.Warn("detail payload without job number, dropping")
		return
	}
	id, err := strconv.ParseInt(idStr, 10, 64)
	if err != nil {
		r.logger.Warn("detail payload with bad job number, dropping", "value", idStr)
		return
	}
	job, known := r.jobs[id]
	if !known {
		r.logger.Warn("detail for unknown job, dropping", "job", id)
		return
	}
	job.AttachDetail(detail)
	r.logger.Debug("detail attached", "job", id, "name", job.Name)
	r.publish(events.DetailAttached, job)
}

func (r *Registry) publish(t events.Type, job *model.Job) {
	if r.bus == nil {
		return
	}
	r.bus.Publish(events.Event{Type: t, JobID: job.Number, Name: job.Name, User: job.User})
}

// Job returns the job with the given number, finished or not.
func (r *Registry) Job(id int64) (*model.Job, bool) {
	job, ok := r.jobs[id]
	return job, ok
}

// Jobs returns every known job ordered by number.
func (r *Registry) Jobs() []*model.Job {
	out := make([]*model.Job, 0, len(r.jobs))
	for _, job := range r.jobs {
		out = append(out, job)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Number < out[j].Number })
	return out
}

// ActiveJobs returns the non-finished jobs ordered by number. Finished jobs
// stay retrievable by id but are excluded from displays and statistics.
func (r *Registry) ActiveJobs() []*model.Job {
	var out []*model.Job
	for _, job := range r.Jobs() {
		if !job.Finished {
			out = append(out, job)
		}
	}
	return out
}
