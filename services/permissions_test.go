package services

import (
	"testing"
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/KanittaJHA/planahead-task-manager-backend/models"
)

func TestCanAccessTask(t *testing.T) {
	owner := primitive.NewObjectID()
	other := primitive.NewObjectID()
	task := &models.Task{AssignedTo: []primitive.ObjectID{owner}}

	tests := []struct {
		name   string
		caller Caller
		want   bool
	}{
		{
			name:   "admin may access any task",
			caller: Caller{ID: other, Role: models.RoleAdmin},
			want:   true,
		},
		{
			name:   "assigned member may access",
			caller: Caller{ID: owner, Role: models.RoleMember},
			want:   true,
		},
		{
			name:   "unassigned member may not access",
			caller: Caller{ID: other, Role: models.RoleMember},
			want:   false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := CanAccessTask(tt.caller, task); got != tt.want {
				t.Errorf("CanAccessTask() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestDisallowedPatchFields(t *testing.T) {
	title := "new title"
	priority := models.PriorityHigh
	dueDate := time.Now()
	assignees := []primitive.ObjectID{primitive.NewObjectID()}
	attachments := []string{"https://example.com/doc.pdf"}
	checklist := []models.TodoItem{{Text: "x", Completed: true}}
	status := models.StatusCompleted

	tests := []struct {
		name  string
		patch TaskPatch
		role  string
		want  []string
	}{
		{
			name:  "admin may edit everything",
			patch: TaskPatch{Title: &title, Priority: &priority, DueDate: &dueDate, AssignedTo: &assignees, Attachments: &attachments, TodoChecklist: &checklist},
			role:  models.RoleAdmin,
			want:  nil,
		},
		{
			name:  "member may edit checklist",
			patch: TaskPatch{TodoChecklist: &checklist},
			role:  models.RoleMember,
			want:  nil,
		},
		{
			name:  "member may not edit title",
			patch: TaskPatch{Title: &title},
			role:  models.RoleMember,
			want:  []string{"title"},
		},
		{
			name:  "member may not reassign",
			patch: TaskPatch{AssignedTo: &assignees, TodoChecklist: &checklist},
			role:  models.RoleMember,
			want:  []string{"assignedTo"},
		},
		{
			name:  "member mixed patch lists every denied field",
			patch: TaskPatch{Title: &title, Priority: &priority, DueDate: &dueDate, Attachments: &attachments},
			role:  models.RoleMember,
			want:  []string{"title", "priority", "dueDate", "attachments"},
		},
		{
			name:  "member may not set status through a field patch",
			patch: TaskPatch{TodoChecklist: &checklist, Status: &status},
			role:  models.RoleMember,
			want:  []string{"status"},
		},
		{
			name:  "admin may not set status through a field patch either",
			patch: TaskPatch{Title: &title, Status: &status},
			role:  models.RoleAdmin,
			want:  []string{"status"},
		},
		{
			name:  "empty patch is always allowed",
			patch: TaskPatch{},
			role:  models.RoleMember,
			want:  nil,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := DisallowedPatchFields(&tt.patch, tt.role)
			if len(got) != len(tt.want) {
				t.Fatalf("DisallowedPatchFields() = %v, want %v", got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("DisallowedPatchFields()[%d] = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}
