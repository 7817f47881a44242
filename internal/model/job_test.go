package model

import (
	"testing"
	"time"
)

func TestStripTaskRange(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"render.1-100:2", "render"},
		{"render.7", "render"},
		{"render.1,5,9", "render"},
		{"render", "render"},
		{"render.v2", "render.v2"},
		{"render.", "render."},
		{"a.b.3-9:3", "a.b"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := StripTaskRange(tt.name); got != tt.want {
				t.Errorf("StripTaskRange(%q) = %q, want %q", tt.name, got, tt.want)
			}
		})
	}
}

func TestMergeSnapshotCopiesScalars(t *testing.T) {
	j := NewJob(1001)
	j.MergeSnapshot(&Job{
		Number:     1001,
		Priority:   0.55,
		Tickets:    120,
		Name:       "render.1-4:1",
		ShortName:  "render",
		User:       "alice",
		Project:    "vfx",
		Department: "lighting",
	})

	if j.Priority != 0.55 || j.Tickets != 120 || j.User != "alice" {
		t.Errorf("scalar fields not merged: %+v", j)
	}
	if j.ShortName != "render" {
		t.Errorf("ShortName = %q, want render", j.ShortName)
	}
}

func TestMergeTasksExpandsTemplate(t *testing.T) {
	now := time.Now()
	j := NewJob(1001)
	cpu := time.Minute
	template := &Task{State: StateRunning, Token: "r", CPU: &cpu, Queue: "lab.q@n1", Slots: 2}

	j.MergeTasks(template, []int{1, 3, 5}, now)

	if j.Tasks.ActiveCount() != 3 {
		t.Fatalf("active = %d, want 3", j.Tasks.ActiveCount())
	}
	for i, task := range j.Tasks.Active() {
		if want := []int{1, 3, 5}[i]; task.ID != want {
			t.Errorf("task id = %d, want %d", task.ID, want)
		}
		if task.Slots != 2 {
			t.Errorf("task %d slots = %d, want 2", task.ID, task.Slots)
		}
	}
}

func TestAttachDetail(t *testing.T) {
	j := NewJob(1001)
	j.Name = "truncated_na"
	j.ShortName = "truncated_na"

	j.AttachDetail(map[string]string{
		DetailKeyJobNumber: "1001",
		DetailKeyJobName:   "truncated_name_in_full",
		"owner":            "alice",
	})

	if j.Name != "truncated_name_in_full" || j.FullName != "truncated_name_in_full" {
		t.Errorf("detail name not adopted: name=%q full=%q", j.Name, j.FullName)
	}
	if j.Detail["owner"] != "alice" {
		t.Error("detail map not stored")
	}
}

func TestAfterCycleAgesUntouchedTasks(t *testing.T) {
	now := time.Now()
	j := NewJob(1001)
	j.MergeTasks(&Task{State: StateQueued, Token: "qw", Slots: 1}, []int{1, 2}, now)

	j.AfterCycle()
	if j.Tasks.ActiveCount() != 2 {
		t.Fatal("tasks touched by the merge should survive their own cycle's aging")
	}

	// Job got no snapshot line the next cycle: nothing touched, all age out.
	j.AfterCycle()
	if j.Tasks.ActiveCount() != 0 || j.Tasks.InactiveCount() != 2 {
		t.Errorf("counts = %d/%d, want 0/2",
			j.Tasks.ActiveCount(), j.Tasks.InactiveCount())
	}
}
