package models

import "testing"

func TestDeriveStatus(t *testing.T) {
	tests := []struct {
		name      string
		checklist []TodoItem
		prior     TaskStatus
		want      TaskStatus
	}{
		{
			name:      "empty checklist keeps pending",
			checklist: nil,
			prior:     StatusPending,
			want:      StatusPending,
		},
		{
			name:      "empty checklist keeps explicit completed",
			checklist: []TodoItem{},
			prior:     StatusCompleted,
			want:      StatusCompleted,
		},
		{
			name:      "all items done completes the task",
			checklist: []TodoItem{{Text: "a", Completed: true}, {Text: "b", Completed: true}},
			prior:     StatusInProgress,
			want:      StatusCompleted,
		},
		{
			name:      "some items done means in progress",
			checklist: []TodoItem{{Text: "a", Completed: true}, {Text: "b", Completed: false}},
			prior:     StatusPending,
			want:      StatusInProgress,
		},
		{
			name:      "no items done keeps prior status",
			checklist: []TodoItem{{Text: "a", Completed: false}},
			prior:     StatusPending,
			want:      StatusPending,
		},
		{
			name:      "unchecking everything on a completed task reverts to in progress",
			checklist: []TodoItem{{Text: "a", Completed: false}},
			prior:     StatusCompleted,
			want:      StatusInProgress,
		},
		{
			name:      "unchecking one item on a completed task reverts to in progress",
			checklist: []TodoItem{{Text: "a", Completed: true}, {Text: "b", Completed: false}},
			prior:     StatusCompleted,
			want:      StatusInProgress,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DeriveStatus(tt.checklist, tt.prior)
			if got != tt.want {
				t.Errorf("DeriveStatus() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestDeriveStatusNeverCompletesWithOpenItems(t *testing.T) {
	// A non-empty checklist may only report Completed when every item is
	// done.
	checklists := [][]TodoItem{
		{{Text: "a", Completed: false}},
		{{Text: "a", Completed: true}, {Text: "b", Completed: false}},
		{{Text: "a", Completed: false}, {Text: "b", Completed: false}, {Text: "c", Completed: true}},
	}
	priors := []TaskStatus{StatusPending, StatusInProgress, StatusCompleted}

	for _, checklist := range checklists {
		for _, prior := range priors {
			if got := DeriveStatus(checklist, prior); got == StatusCompleted {
				t.Errorf("DeriveStatus(%v, %q) = Completed with open items", checklist, prior)
			}
		}
	}
}

func TestChecklistProgress(t *testing.T) {
	tests := []struct {
		name      string
		checklist []TodoItem
		status    TaskStatus
		want      int
	}{
		{
			name:      "empty checklist pending",
			checklist: nil,
			status:    StatusPending,
			want:      0,
		},
		{
			name:      "empty checklist explicitly completed",
			checklist: nil,
			status:    StatusCompleted,
			want:      100,
		},
		{
			name:      "half done",
			checklist: []TodoItem{{Completed: true}, {Completed: false}},
			status:    StatusInProgress,
			want:      50,
		},
		{
			name:      "one of three rounds down",
			checklist: []TodoItem{{Completed: true}, {Completed: false}, {Completed: false}},
			status:    StatusInProgress,
			want:      33,
		},
		{
			name:      "all done",
			checklist: []TodoItem{{Completed: true}, {Completed: true}},
			status:    StatusCompleted,
			want:      100,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ChecklistProgress(tt.checklist, tt.status)
			if got != tt.want {
				t.Errorf("ChecklistProgress() = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestIsAssignedTo(t *testing.T) {
	task := Task{AssignedTo: nil}
	if task.IsAssignedTo(task.CreatedBy) {
		t.Error("empty assignee set should not match anyone")
	}
}
