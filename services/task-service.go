package services

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/KanittaJHA/planahead-task-manager-backend/models"
)

type TaskService struct {
	tasksCollection *mongo.Collection
	usersCollection *mongo.Collection
}

func NewTaskService(tasksCollection, usersCollection *mongo.Collection) *TaskService {
	return &TaskService{
		tasksCollection: tasksCollection,
		usersCollection: usersCollection,
	}
}

// CreateTaskInput holds the validated fields for a new task.
type CreateTaskInput struct {
	Title         string               `json:"title"`
	Description   string               `json:"description"`
	Priority      models.TaskPriority  `json:"priority"`
	DueDate       time.Time            `json:"dueDate"`
	AssignedTo    []primitive.ObjectID `json:"assignedTo"`
	Attachments   []string             `json:"attachments"`
	TodoChecklist []models.TodoItem    `json:"todoChecklist"`
}

// TaskListFilter narrows List results. Empty values match everything.
type TaskListFilter struct {
	Status   string
	Priority string
	Search   string
}

// CreateTask creates a task on behalf of an admin. Assignees must resolve
// to existing users; their role is not restricted, an admin assignee is
// allowed. Checklist items always start unchecked.
func (s *TaskService) CreateTask(input CreateTaskInput, creator Caller) (*models.Task, error) {
	if input.Title == "" {
		return nil, newValidationError("title is required")
	}
	if input.DueDate.IsZero() {
		return nil, newValidationError("dueDate is required")
	}
	if len(input.AssignedTo) == 0 {
		return nil, newValidationError("assignedTo must contain at least one user")
	}
	if input.Priority == "" {
		input.Priority = models.PriorityMedium
	}
	if !input.Priority.Valid() {
		return nil, newValidationError("invalid priority: %s", input.Priority)
	}

	assignees := uniqueIDs(input.AssignedTo)
	count, err := s.usersCollection.CountDocuments(context.Background(), bson.M{"_id": bson.M{"$in": assignees}})
	if err != nil {
		return nil, fmt.Errorf("failed to resolve assignees: %v", err)
	}
	if int(count) != len(assignees) {
		return nil, fmt.Errorf("%w: one or more assignees do not exist", ErrUserNotFound)
	}

	checklist := make([]models.TodoItem, len(input.TodoChecklist))
	for i, item := range input.TodoChecklist {
		checklist[i] = models.TodoItem{Text: item.Text, Completed: false}
	}

	now := time.Now()
	task := &models.Task{
		ID:            primitive.NewObjectID(),
		Title:         input.Title,
		Description:   input.Description,
		Priority:      input.Priority,
		Status:        models.StatusPending,
		DueDate:       input.DueDate,
		AssignedTo:    assignees,
		CreatedBy:     creator.ID,
		Attachments:   input.Attachments,
		TodoChecklist: checklist,
		Progress:      0,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	result, err := s.tasksCollection.InsertOne(context.Background(), task)
	if err != nil {
		return nil, fmt.Errorf("failed to create task: %v", err)
	}
	task.ID = result.InsertedID.(primitive.ObjectID)

	return task, nil
}

// GetTask returns the task if the caller may see it. A missing task is
// reported as not found before any permission check.
func (s *TaskService) GetTask(taskID primitive.ObjectID, caller Caller) (*models.Task, error) {
	task, err := s.findTask(taskID)
	if err != nil {
		return nil, err
	}
	if !CanAccessTask(caller, task) {
		return nil, ErrForbidden
	}
	return task, nil
}

// ListTasks returns tasks visible to the caller, newest first. Members
// only ever see tasks they are assigned to.
func (s *TaskService) ListTasks(caller Caller, filter TaskListFilter) ([]models.Task, error) {
	query, err := buildTaskListQuery(caller, filter)
	if err != nil {
		return nil, err
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}})
	cursor, err := s.tasksCollection.Find(context.Background(), query, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve tasks: %v", err)
	}
	defer cursor.Close(context.Background())

	tasks := []models.Task{}
	if err := cursor.All(context.Background(), &tasks); err != nil {
		return nil, fmt.Errorf("failed to decode tasks: %v", err)
	}
	return tasks, nil
}

// UpdateTask applies a field patch. The permission table decides which
// fields the caller's role may touch; the whole patch is rejected if any
// field is off limits, and applied in a single write otherwise.
func (s *TaskService) UpdateTask(taskID primitive.ObjectID, patch *TaskPatch, caller Caller) (*models.Task, error) {
	return s.updateWithRetry(taskID, func(task *models.Task) (bson.M, error) {
		if !CanAccessTask(caller, task) {
			return nil, ErrForbidden
		}
		if denied := DisallowedPatchFields(patch, caller.Role); len(denied) > 0 {
			return nil, fmt.Errorf("%w: role %s may not edit %v", ErrForbidden, caller.Role, denied)
		}

		set := bson.M{}

		if patch.Title != nil {
			if *patch.Title == "" {
				return nil, newValidationError("title cannot be empty")
			}
			set["title"] = *patch.Title
		}
		if patch.Description != nil {
			set["description"] = *patch.Description
		}
		if patch.Priority != nil {
			if !patch.Priority.Valid() {
				return nil, newValidationError("invalid priority: %s", *patch.Priority)
			}
			set["priority"] = *patch.Priority
		}
		if patch.DueDate != nil {
			if patch.DueDate.IsZero() {
				return nil, newValidationError("dueDate cannot be empty")
			}
			set["dueDate"] = *patch.DueDate
		}
		if patch.AssignedTo != nil {
			assignees := uniqueIDs(*patch.AssignedTo)
			if len(assignees) == 0 {
				return nil, newValidationError("assignedTo cannot be emptied")
			}
			count, err := s.usersCollection.CountDocuments(context.Background(), bson.M{"_id": bson.M{"$in": assignees}})
			if err != nil {
				return nil, fmt.Errorf("failed to resolve assignees: %v", err)
			}
			if int(count) != len(assignees) {
				return nil, fmt.Errorf("%w: one or more assignees do not exist", ErrUserNotFound)
			}
			set["assignedTo"] = assignees
		}
		if patch.Attachments != nil {
			set["attachments"] = *patch.Attachments
		}

		if patch.TodoChecklist != nil {
			var checklist []models.TodoItem
			if caller.IsAdmin() {
				// Admins may restructure the checklist itself.
				checklist = *patch.TodoChecklist
			} else {
				// Members only flip completion flags on the existing items.
				var err error
				checklist, err = applyChecklistCompletion(task.TodoChecklist, *patch.TodoChecklist)
				if err != nil {
					return nil, err
				}
			}
			status := models.DeriveStatus(checklist, task.Status)
			set["todoChecklist"] = checklist
			set["status"] = status
			set["progress"] = models.ChecklistProgress(checklist, status)
			set["completedAt"] = nextCompletedAt(task.CompletedAt, task.Status, status, time.Now())
		}

		set["updatedAt"] = time.Now()
		return set, nil
	})
}

// UpdateTaskStatus handles direct status transitions. Entering Completed
// is refused while a non-empty checklist still has open items; a task with
// an empty checklist may be completed explicitly.
func (s *TaskService) UpdateTaskStatus(taskID primitive.ObjectID, status models.TaskStatus, caller Caller) (*models.Task, error) {
	if !status.Valid() {
		return nil, newValidationError("invalid status: %s", status)
	}

	return s.updateWithRetry(taskID, func(task *models.Task) (bson.M, error) {
		if !CanAccessTask(caller, task) {
			return nil, ErrForbidden
		}

		if status == models.StatusCompleted && !checklistDone(task.TodoChecklist) {
			return nil, newValidationError("checklist incomplete: all items must be completed first")
		}

		return bson.M{
			"status":      status,
			"progress":    models.ChecklistProgress(task.TodoChecklist, status),
			"completedAt": nextCompletedAt(task.CompletedAt, task.Status, status, time.Now()),
			"updatedAt":   time.Now(),
		}, nil
	})
}

// UpdateTaskChecklist replaces the completion flags of the checklist and
// recomputes the derived status. Item identity is positional; the payload
// must have exactly one entry per stored item.
func (s *TaskService) UpdateTaskChecklist(taskID primitive.ObjectID, items []models.TodoItem, caller Caller) (*models.Task, error) {
	return s.updateWithRetry(taskID, func(task *models.Task) (bson.M, error) {
		if !CanAccessTask(caller, task) {
			return nil, ErrForbidden
		}

		checklist, err := applyChecklistCompletion(task.TodoChecklist, items)
		if err != nil {
			return nil, err
		}

		status := models.DeriveStatus(checklist, task.Status)
		return bson.M{
			"todoChecklist": checklist,
			"status":        status,
			"progress":      models.ChecklistProgress(checklist, status),
			"completedAt":   nextCompletedAt(task.CompletedAt, task.Status, status, time.Now()),
			"updatedAt":     time.Now(),
		}, nil
	})
}

// DeleteTask removes a task. The admin-only gate sits in the middleware.
func (s *TaskService) DeleteTask(taskID primitive.ObjectID) error {
	result, err := s.tasksCollection.DeleteOne(context.Background(), bson.M{"_id": taskID})
	if err != nil {
		return fmt.Errorf("failed to delete task: %v", err)
	}
	if result.DeletedCount == 0 {
		return ErrTaskNotFound
	}
	return nil
}

func (s *TaskService) findTask(taskID primitive.ObjectID) (*models.Task, error) {
	var task models.Task
	err := s.tasksCollection.FindOne(context.Background(), bson.M{"_id": taskID}).Decode(&task)
	if err == mongo.ErrNoDocuments {
		return nil, ErrTaskNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve task: %v", err)
	}
	return &task, nil
}

// updateRetryLimit bounds how often a read-compute-write cycle is retried
// when another writer lands on the same task between the read and the
// write.
const updateRetryLimit = 3

// errStaleRead signals that the document revision read at the start of
// the cycle was gone by the time the write ran.
var errStaleRead = errors.New("task modified concurrently")

// updateWithRetry runs one read-compute-write cycle per attempt. The
// write only matches the exact revision that was read, so computed fields
// (derived status, progress, completedAt) can never clobber a concurrent
// update on the same task; on a miss the whole cycle reruns against the
// fresh state.
func (s *TaskService) updateWithRetry(taskID primitive.ObjectID, compute func(task *models.Task) (bson.M, error)) (*models.Task, error) {
	for attempt := 0; attempt < updateRetryLimit; attempt++ {
		task, err := s.findTask(taskID)
		if err != nil {
			return nil, err
		}

		set, err := compute(task)
		if err != nil {
			return nil, err
		}

		updated, err := s.applyTaskUpdate(taskRevisionFilter(taskID, task.UpdatedAt), set)
		if err == errStaleRead {
			continue
		}
		return updated, err
	}
	return nil, fmt.Errorf("failed to update task %s: too many concurrent modifications", taskID.Hex())
}

// taskRevisionFilter matches one task at the exact revision it was read,
// using updatedAt as the revision marker.
func taskRevisionFilter(taskID primitive.ObjectID, readUpdatedAt time.Time) bson.M {
	return bson.M{"_id": taskID, "updatedAt": readUpdatedAt}
}

// applyTaskUpdate writes all computed fields in one $set so the update is
// atomic at the document level, then returns the new state. A filter miss
// means the read revision no longer exists; the caller decides between
// retrying and reporting not found.
func (s *TaskService) applyTaskUpdate(filter bson.M, set bson.M) (*models.Task, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)
	var updated models.Task
	err := s.tasksCollection.FindOneAndUpdate(
		context.Background(),
		filter,
		bson.M{"$set": set},
		opts,
	).Decode(&updated)
	if err == mongo.ErrNoDocuments {
		return nil, errStaleRead
	}
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %v", err)
	}
	return &updated, nil
}

// buildTaskListQuery translates caller scope and filters into a mongo
// query. Search matches the title, case-insensitively.
func buildTaskListQuery(caller Caller, filter TaskListFilter) (bson.M, error) {
	query := bson.M{}

	if !caller.IsAdmin() {
		query["assignedTo"] = caller.ID
	}
	if filter.Status != "" {
		if !models.TaskStatus(filter.Status).Valid() {
			return nil, newValidationError("invalid status filter: %s", filter.Status)
		}
		query["status"] = filter.Status
	}
	if filter.Priority != "" {
		if !models.TaskPriority(filter.Priority).Valid() {
			return nil, newValidationError("invalid priority filter: %s", filter.Priority)
		}
		query["priority"] = filter.Priority
	}
	if filter.Search != "" {
		query["title"] = bson.M{"$regex": regexp.QuoteMeta(filter.Search), "$options": "i"}
	}

	return query, nil
}

// applyChecklistCompletion copies completion flags from the submitted
// items onto the stored checklist. Texts and ordering stay as stored.
func applyChecklistCompletion(stored, submitted []models.TodoItem) ([]models.TodoItem, error) {
	if len(submitted) != len(stored) {
		return nil, newValidationError("checklist has %d items, got %d", len(stored), len(submitted))
	}
	updated := make([]models.TodoItem, len(stored))
	for i, item := range stored {
		updated[i] = models.TodoItem{Text: item.Text, Completed: submitted[i].Completed}
	}
	return updated, nil
}

// nextCompletedAt maintains the completion timestamp across a status
// change: set once on entering Completed, kept while staying there,
// cleared on leaving.
func nextCompletedAt(prev *time.Time, oldStatus, newStatus models.TaskStatus, now time.Time) *time.Time {
	if newStatus != models.StatusCompleted {
		return nil
	}
	if oldStatus == models.StatusCompleted && prev != nil {
		return prev
	}
	return &now
}

func checklistDone(checklist []models.TodoItem) bool {
	for _, item := range checklist {
		if !item.Completed {
			return false
		}
	}
	return true
}

func uniqueIDs(ids []primitive.ObjectID) []primitive.ObjectID {
	seen := make(map[primitive.ObjectID]bool, len(ids))
	var unique []primitive.ObjectID
	for _, id := range ids {
		if !seen[id] {
			seen[id] = true
			unique = append(unique, id)
		}
	}
	return unique
}
