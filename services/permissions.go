package services

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/KanittaJHA/planahead-task-manager-backend/models"
)

// Caller is the resolved identity of the requesting user, extracted from
// the verified token by the auth middleware.
type Caller struct {
	ID   primitive.ObjectID
	Role string
}

func (c Caller) IsAdmin() bool {
	return c.Role == models.RoleAdmin
}

// CanAccessTask is the owner-or-admin gate: admins may touch any task,
// members only tasks they are assigned to.
func CanAccessTask(caller Caller, task *models.Task) bool {
	if caller.IsAdmin() {
		return true
	}
	return task.IsAssignedTo(caller.ID)
}

// TaskPatch carries the fields a PUT /tasks/{id} request wants to change.
// Nil pointers mean "leave as is".
type TaskPatch struct {
	Title         *string
	Description   *string
	Priority      *models.TaskPriority
	DueDate       *time.Time
	AssignedTo    *[]primitive.ObjectID
	Attachments   *[]string
	TodoChecklist *[]models.TodoItem
	Status        *models.TaskStatus
}

// taskFieldPermissions is the per-field permission table for task patches.
// Admins may edit everything except status; members only the checklist.
// Status is derived from the checklist or set through the dedicated
// status endpoint, never through a field patch, so its row allows no one.
var taskFieldPermissions = map[string][]string{
	"title":         {models.RoleAdmin},
	"description":   {models.RoleAdmin},
	"priority":      {models.RoleAdmin},
	"dueDate":       {models.RoleAdmin},
	"assignedTo":    {models.RoleAdmin},
	"attachments":   {models.RoleAdmin},
	"todoChecklist": {models.RoleAdmin, models.RoleMember},
	"status":        {},
}

// fields lists the names of the fields the patch actually sets, using the
// wire names from the permission table.
func (p *TaskPatch) fields() []string {
	var set []string
	if p.Title != nil {
		set = append(set, "title")
	}
	if p.Description != nil {
		set = append(set, "description")
	}
	if p.Priority != nil {
		set = append(set, "priority")
	}
	if p.DueDate != nil {
		set = append(set, "dueDate")
	}
	if p.AssignedTo != nil {
		set = append(set, "assignedTo")
	}
	if p.Attachments != nil {
		set = append(set, "attachments")
	}
	if p.TodoChecklist != nil {
		set = append(set, "todoChecklist")
	}
	if p.Status != nil {
		set = append(set, "status")
	}
	return set
}

// DisallowedPatchFields returns the patched fields the given role may not
// edit. An empty result means the patch passes the permission table.
func DisallowedPatchFields(patch *TaskPatch, role string) []string {
	var denied []string
	for _, field := range patch.fields() {
		allowed := false
		for _, r := range taskFieldPermissions[field] {
			if r == role {
				allowed = true
				break
			}
		}
		if !allowed {
			denied = append(denied, field)
		}
	}
	return denied
}
