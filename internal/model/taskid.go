package model

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

// ExpandTaskIDs expands a scheduler array-task expression into the sorted
// set of task indices it denotes. The grammar is a comma-separated list of
// terms, each either a single integer or "start-end:step" producing
// {start, start+step, ...} ∩ [start, end]. The empty expression expands to
// no ids.
func ExpandTaskIDs(expr string) ([]int, error) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return nil, nil
	}

	set := make(map[int]bool)
	for _, term := range strings.Split(expr, ",") {
		term = strings.TrimSpace(term)
		if term == "" {
			return nil, fmt.Errorf("task id expression %q: empty term", expr)
		}
		if !strings.Contains(term, "-") {
			id, err := strconv.Atoi(term)
			if err != nil {
				return nil, fmt.Errorf("task id expression %q: %w", expr, err)
			}
			set[id] = true
			continue
		}

		rangePart, stepPart, ok := strings.Cut(term, ":")
		if !ok {
			return nil, fmt.Errorf("task id expression %q: range term %q missing step", expr, term)
		}
		startStr, endStr, ok := strings.Cut(rangePart, "-")
		if !ok {
			return nil, fmt.Errorf("task id expression %q: malformed range %q", expr, term)
		}
		start, err := strconv.Atoi(startStr)
		if err != nil {
			return nil, fmt.Errorf("task id expression %q: %w", expr, err)
		}
		end, err := strconv.Atoi(endStr)
		if err != nil {
			return nil, fmt.Errorf("task id expression %q: %w", expr, err)
		}
		step, err := strconv.Atoi(stepPart)
		if err != nil {
			return nil, fmt.Errorf("task id expression %q: %w", expr, err)
		}
		if step <= 0 {
			return nil, fmt.Errorf("task id expression %q: non-positive step %d", expr, step)
		}
		for id := start; id <= end; id += step {
			set[id] = true
		}
	}

	ids := make([]int, 0, len(set))
	for id := range set {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids, nil
}
