package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

type TaskStatus string

const (
	StatusPending    TaskStatus = "Pending"
	StatusInProgress TaskStatus = "In Progress"
	StatusCompleted  TaskStatus = "Completed"
)

func (s TaskStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

type TaskPriority string

const (
	PriorityLow    TaskPriority = "Low"
	PriorityMedium TaskPriority = "Medium"
	PriorityHigh   TaskPriority = "High"
)

func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// TodoItem is one checklist entry. Items are identified by position;
// checklist updates may only flip Completed.
type TodoItem struct {
	Text      string `bson:"text" json:"text"`
	Completed bool   `bson:"completed" json:"completed"`
}

type Task struct {
	ID            primitive.ObjectID   `bson:"_id,omitempty" json:"id"`
	Title         string               `bson:"title" json:"title"`
	Description   string               `bson:"description" json:"description"`
	Priority      TaskPriority         `bson:"priority" json:"priority"`
	Status        TaskStatus           `bson:"status" json:"status"`
	DueDate       time.Time            `bson:"dueDate" json:"dueDate"`
	AssignedTo    []primitive.ObjectID `bson:"assignedTo" json:"assignedTo"`
	CreatedBy     primitive.ObjectID   `bson:"createdBy" json:"createdBy"`
	Attachments   []string             `bson:"attachments" json:"attachments"`
	TodoChecklist []TodoItem           `bson:"todoChecklist" json:"todoChecklist"`
	Progress      int                  `bson:"progress" json:"progress"`
	CreatedAt     time.Time            `bson:"createdAt" json:"createdAt"`
	UpdatedAt     time.Time            `bson:"updatedAt" json:"updatedAt"`
	CompletedAt   *time.Time           `bson:"completedAt,omitempty" json:"completedAt,omitempty"`
}

// IsAssignedTo reports whether the given user is in the task's assignee set.
func (t *Task) IsAssignedTo(userID primitive.ObjectID) bool {
	for _, id := range t.AssignedTo {
		if id == userID {
			return true
		}
	}
	return false
}

// DeriveStatus computes task status from checklist contents. A non-empty
// checklist is the source of truth: all items completed means Completed,
// some completed means In Progress, none completed keeps the prior status
// unless the task has to leave Completed. An empty checklist never forces
// a transition, so an explicitly set Completed survives.
func DeriveStatus(checklist []TodoItem, prior TaskStatus) TaskStatus {
	if len(checklist) == 0 {
		return prior
	}

	completed := 0
	for _, item := range checklist {
		if item.Completed {
			completed++
		}
	}

	switch {
	case completed == len(checklist):
		return StatusCompleted
	case completed > 0:
		return StatusInProgress
	default:
		if prior == StatusCompleted {
			return StatusInProgress
		}
		return prior
	}
}

// ChecklistProgress returns the percentage of completed checklist items,
// rounded down. An empty checklist reports 100 only when the task itself
// is Completed.
func ChecklistProgress(checklist []TodoItem, status TaskStatus) int {
	if len(checklist) == 0 {
		if status == StatusCompleted {
			return 100
		}
		return 0
	}

	completed := 0
	for _, item := range checklist {
		if item.Completed {
			completed++
		}
	}
	return completed * 100 / len(checklist)
}
