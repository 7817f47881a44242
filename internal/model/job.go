package model

import (
	"strings"
	"time"
)

// Detail keys the enrichment payload is resolved by.
const (
	DetailKeyJobNumber = "job_number"
	DetailKeyJobName   = "job_name"
)

// Job is one scheduler job. Created on first snapshot appearance, re-merged
// every cycle it still appears, and marked finished the cycle after the
// scheduler stops reporting it. Finished is terminal; the job stays
// retrievable by id but drops out of displays and statistics.
type Job struct {
	Number int64

	Priority   float64
	Tickets    int64
	Name       string
	ShortName  string
	User       string
	Project    string
	Department string

	Finished bool

	// FullName and Detail arrive asynchronously from enrichment and may
	// never be populated.
	FullName string
	Detail   map[string]string

	Tasks *TaskSet
}

// NewJob builds a job shell for the given number with an empty task set.
func NewJob(number int64) *Job {
	return &Job{Number: number, Tasks: NewTaskSet()}
}

// MergeSnapshot copies the mutable scalar fields from a freshly parsed job.
// Task-level merging happens separately through MergeTasks, since one job
// can span several snapshot lines (one per queue instance).
func (j *Job) MergeSnapshot(n *Job) {
	j.Priority = n.Priority
	j.Tickets = n.Tickets
	j.Name = n.Name
	j.ShortName = n.ShortName
	j.User = n.User
	j.Project = n.Project
	j.Department = n.Department
}

// MergeTasks instantiates the parsed task template once per expanded task id
// and folds each into the owned task set.
func (j *Job) MergeTasks(template *Task, ids []int, now time.Time) {
	for _, id := range ids {
		t := *template
		t.ID = id
		j.Tasks.Merge(&t, now)
	}
}

// AttachDetail stores the enrichment payload. A reported job name becomes
// both the display name and the full name; the snapshot column truncates
// long names, the detail query does not.
func (j *Job) AttachDetail(detail map[string]string) {
	if name, ok := detail[DetailKeyJobName]; ok && name != "" {
		j.Name = name
		j.FullName = name
	}
	j.Detail = detail
}

// MarkFinished transitions the job to its terminal state.
func (j *Job) MarkFinished() {
	j.Finished = true
}

// AfterCycle ages the task set. Invoked for every known job exactly once at
// the end of each poll cycle, including jobs that received no snapshot line
// (their active tasks age out because none were touched).
func (j *Job) AfterCycle() {
	j.Tasks.AgeInactive()
}

// StripTaskRange removes a trailing array-task range suffix (".1-100:2",
// ".7") from a job name, yielding the short display name used to group
// sibling submissions.
func StripTaskRange(name string) string {
	dot := strings.LastIndexByte(name, '.')
	if dot < 0 || dot == len(name)-1 {
		return name
	}
	for _, r := range name[dot+1:] {
		switch {
		case r >= '0' && r <= '9':
		case r == '-' || r == ':' || r == ',':
		default:
			return name
		}
	}
	return name[:dot]
}
