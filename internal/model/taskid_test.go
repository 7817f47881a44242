package model

import (
	"reflect"
	"testing"
)

func TestExpandTaskIDs(t *testing.T) {
	tests := []struct {
		expr string
		want []int
	}{
		{"", nil},
		{"5", []int{5}},
		{"1-5:2", []int{1, 3, 5}},
		{"2,4-8:2", []int{2, 4, 6, 8}},
		{"1-10:3", []int{1, 4, 7, 10}},
		{"3,3,1-3:1", []int{1, 2, 3}},
		{"9-5:1", []int{}},
	}
	for _, tt := range tests {
		t.Run(tt.expr, func(t *testing.T) {
			got, err := ExpandTaskIDs(tt.expr)
			if err != nil {
				t.Fatalf("ExpandTaskIDs(%q) error: %v", tt.expr, err)
			}
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("ExpandTaskIDs(%q) = %v, want %v", tt.expr, got, tt.want)
			}
		})
	}
}

func TestExpandTaskIDsErrors(t *testing.T) {
	for _, expr := range []string{
		"x",
		"1-5",
		"1-5:0",
		"1-5:-2",
		"1,,2",
		"a-b:c",
	} {
		t.Run(expr, func(t *testing.T) {
			if _, err := ExpandTaskIDs(expr); err == nil {
				t.Errorf("expected error for %q", expr)
			}
		})
	}
}
