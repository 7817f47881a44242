// Package model defines the data structures for gridtop's job/task lifecycle
// model and the scheduler state classification.
package model

import "fmt"

// StateClass is the closed classification of scheduler state tokens.
// Tokens are mapped exactly once, at parse time; everything downstream
// switches on the class instead of substring-matching the raw token.
type StateClass string

const (
	StateRunning     StateClass = "running"
	StateRunningHeld StateClass = "running_held"
	StateQueued      StateClass = "queued"
	StateQueuedHeld  StateClass = "queued_held"
	StateOther       StateClass = "other"
)

// stateTokens maps the scheduler's state tokens to their classification.
// The running classes are exactly the tokens containing a lowercase 'r',
// mirroring the scheduler's column layout: only those lines carry the
// cpu/queue task fields. Transferring tokens ("t", "Rt") do not, so they
// classify as other despite occupying a host.
var stateTokens = map[string]StateClass{
	"r":    StateRunning,
	"Rr":   StateRunning,
	"hr":   StateRunningHeld,
	"qw":   StateQueued,
	"Rq":   StateQueued,
	"hqw":  StateQueuedHeld,
	"hRwq": StateQueuedHeld,
}

// ClassifyState maps a raw scheduler state token to its StateClass.
// Unknown tokens classify as StateOther rather than failing: the scheduler
// grows suspended/error variants over time and none of them occupy slots.
func ClassifyState(token string) StateClass {
	if c, ok := stateTokens[token]; ok {
		return c
	}
	return StateOther
}

// IsRunning reports whether the class occupies slots on an execution host.
func (c StateClass) IsRunning() bool {
	return c == StateRunning || c == StateRunningHeld
}

// IsWaiting reports whether the class is some queued variant.
func (c StateClass) IsWaiting() bool {
	return c == StateQueued || c == StateQueuedHeld
}

// QueueClass buckets active tasks for display and statistics.
type QueueClass string

const (
	ClassLab     QueueClass = "lab"
	ClassLong    QueueClass = "long"
	ClassShort   QueueClass = "short"
	ClassWaiting QueueClass = "waiting"
	ClassOther   QueueClass = "other"
)

// RunningClasses are the queue classes an occupying task can land in,
// in display order.
var RunningClasses = []QueueClass{ClassLab, ClassLong, ClassShort}

// AllClasses lists every queue class in display order.
var AllClasses = []QueueClass{ClassLab, ClassLong, ClassShort, ClassWaiting, ClassOther}

// QueuePrefixes maps queue-name prefixes to running queue classes.
// Overridable from config to follow site queue naming.
type QueuePrefixes struct {
	Lab   string
	Long  string
	Short string
}

// DefaultQueuePrefixes matches the cluster's stock queue naming.
func DefaultQueuePrefixes() QueuePrefixes {
	return QueuePrefixes{Lab: "lab", Long: "long", Short: "short"}
}

// ClassifyQueue buckets one task by state class and queue name. A running
// task whose queue matches no known prefix is a configuration mismatch the
// operator has to resolve, so it is an error rather than ClassOther.
func ClassifyQueue(state StateClass, queue string, prefixes QueuePrefixes) (QueueClass, error) {
	switch {
	case state.IsRunning():
		switch {
		case hasPrefix(queue, prefixes.Lab):
			return ClassLab, nil
		case hasPrefix(queue, prefixes.Long):
			return ClassLong, nil
		case hasPrefix(queue, prefixes.Short):
			return ClassShort, nil
		}
		return "", fmt.Errorf("running task in unclassifiable queue %q", queue)
	case state.IsWaiting():
		return ClassWaiting, nil
	default:
		return ClassOther, nil
	}
}

func hasPrefix(s, prefix string) bool {
	return prefix != "" && len(s) >= len(prefix) && s[:len(prefix)] == prefix
}
