// Package parse turns raw scheduler CLI output into typed model values.
package parse

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/hpcops/gridtop/internal/model"
)

// Snapshot line layout. Fields 0-7 are job-level and common to every line;
// the task-level columns that follow depend on whether the state token
// classifies as running (running tasks report cpu/mem/io and a queue
// instance, waiting ones do not).
const (
	fieldJobID = iota
	fieldPriority
	fieldTickets
	fieldName
	fieldUser
	fieldProject
	fieldDepartment
	fieldState
	taskFieldsOffset
)

const (
	runningTaskFields = 11 // cpu mem io tckts ovrts otckt ftckt stckt share queue slots
	waitingTaskFields = 7  // tckts ovrts otckt ftckt stckt share slots
)

// Line is one parsed snapshot data line: the job-level fields, a task
// template (no id yet) and the expanded task ids the line contributes.
type Line struct {
	Job     *model.Job
	Task    *model.Task
	TaskIDs []int
}

// Snapshot parses a full scheduler listing, dropping the header and
// separator lines. Any malformed data line aborts the whole parse; the
// error carries the offending raw line for diagnosis.
func Snapshot(text string) ([]Line, error) {
	var lines []Line
	for _, raw := range strings.Split(text, "\n") {
		if isHeader(raw) {
			continue
		}
		line, err := ParseLine(raw)
		if err != nil {
			return nil, err
		}
		lines = append(lines, line)
	}
	return lines, nil
}

func isHeader(raw string) bool {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return true
	}
	if strings.HasPrefix(trimmed, "job-ID") {
		return true
	}
	return strings.Trim(trimmed, "-") == ""
}

// ParseLine parses one whitespace-delimited snapshot data line.
func ParseLine(raw string) (Line, error) {
	fields := strings.Fields(raw)
	if len(fields) < taskFieldsOffset {
		return Line{}, lineErr(raw, fmt.Errorf("%d fields, need at least %d", len(fields), taskFieldsOffset))
	}

	number, err := strconv.ParseInt(fields[fieldJobID], 10, 64)
	if err != nil {
		return Line{}, lineErr(raw, fmt.Errorf("job id: %w", err))
	}
	priority, err := strconv.ParseFloat(fields[fieldPriority], 64)
	if err != nil {
		return Line{}, lineErr(raw, fmt.Errorf("priority: %w", err))
	}
	tickets, err := strconv.ParseInt(fields[fieldTickets], 10, 64)
	if err != nil {
		return Line{}, lineErr(raw, fmt.Errorf("tickets: %w", err))
	}

	name := fields[fieldName]
	job := &model.Job{
		Number:     number,
		Priority:   priority,
		Tickets:    tickets,
		Name:       name,
		ShortName:  model.StripTaskRange(name),
		User:       fields[fieldUser],
		Project:    fields[fieldProject],
		Department: fields[fieldDepartment],
	}

	token := fields[fieldState]
	task := &model.Task{State: model.ClassifyState(token), Token: token}

	var exprIdx int
	if task.State.IsRunning() {
		exprIdx = taskFieldsOffset + runningTaskFields
		if len(fields) < exprIdx {
			return Line{}, lineErr(raw, fmt.Errorf("running line has %d fields, need %d", len(fields), exprIdx))
		}
		cpu, err := parseCPU(fields[taskFieldsOffset])
		if err != nil {
			return Line{}, lineErr(raw, fmt.Errorf("cpu: %w", err))
		}
		task.CPU = &cpu
		task.Memory = fields[taskFieldsOffset+1]
		task.IO = fields[taskFieldsOffset+2]
		task.Tickets = fields[taskFieldsOffset+3]
		task.Overrides = fields[taskFieldsOffset+4]
		task.OTickets = fields[taskFieldsOffset+5]
		task.FTickets = fields[taskFieldsOffset+6]
		task.STickets = fields[taskFieldsOffset+7]
		task.Share = fields[taskFieldsOffset+8]
		task.Queue = fields[taskFieldsOffset+9]
		task.Slots, err = strconv.Atoi(fields[taskFieldsOffset+10])
		if err != nil {
			return Line{}, lineErr(raw, fmt.Errorf("slots: %w", err))
		}
	} else {
		exprIdx = taskFieldsOffset + waitingTaskFields
		if len(fields) < exprIdx {
			return Line{}, lineErr(raw, fmt.Errorf("waiting line has %d fields, need %d", len(fields), exprIdx))
		}
		task.Tickets = fields[taskFieldsOffset]
		task.Overrides = fields[taskFieldsOffset+1]
		task.OTickets = fields[taskFieldsOffset+2]
		task.FTickets = fields[taskFieldsOffset+3]
		task.STickets = fields[taskFieldsOffset+4]
		task.Share = fields[taskFieldsOffset+5]
		task.Slots, err = strconv.Atoi(fields[taskFieldsOffset+6])
		if err != nil {
			return Line{}, lineErr(raw, fmt.Errorf("slots: %w", err))
		}
	}
	if task.Slots < 0 {
		return Line{}, lineErr(raw, fmt.Errorf("negative slot count %d", task.Slots))
	}

	// Trailing array-task expression is optional; without it the line
	// contributes no tasks.
	var ids []int
	if len(fields) > exprIdx {
		if len(fields) > exprIdx+1 {
			return Line{}, lineErr(raw, fmt.Errorf("%d trailing fields after task expression", len(fields)-exprIdx-1))
		}
		ids, err = model.ExpandTaskIDs(fields[exprIdx])
		if err != nil {
			return Line{}, lineErr(raw, err)
		}
	}

	return Line{Job: job, Task: task, TaskIDs: ids}, nil
}

// parseCPU parses the scheduler's consumed-CPU column, either
// "days:HH:MM:SS" or "HH:MM:SS".
func parseCPU(s string) (time.Duration, error) {
	parts := strings.Split(s, ":")
	var days int64
	switch len(parts) {
	case 4:
		d, err := strconv.ParseInt(parts[0], 10, 64)
		if err != nil {
			return 0, fmt.Errorf("cpu time %q: %w", s, err)
		}
		days = d
		parts = parts[1:]
	case 3:
	default:
		return 0, fmt.Errorf("cpu time %q: want HH:MM:SS or D:HH:MM:SS", s)
	}

	var hms [3]int64
	for i, p := range parts {
		v, err := strconv.ParseInt(p, 10, 64)
		if err != nil {
			return 0, fmt.Errorf("cpu time %q: %w", s, err)
		}
		hms[i] = v
	}
	return time.Duration(days)*24*time.Hour +
		time.Duration(hms[0])*time.Hour +
		time.Duration(hms[1])*time.Minute +
		time.Duration(hms[2])*time.Second, nil
}

func lineErr(raw string, err error) error {
	return fmt.Errorf("parse snapshot line %q: %w", strings.TrimSpace(raw), err)
}
