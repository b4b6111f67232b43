package handlers

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/KanittaJHA/planahead-task-manager-backend/logging"
	"github.com/KanittaJHA/planahead-task-manager-backend/middleware"
	"github.com/KanittaJHA/planahead-task-manager-backend/models"
	"github.com/KanittaJHA/planahead-task-manager-backend/services"
)

type TaskHandler struct {
	service *services.TaskService
}

func NewTaskHandler(service *services.TaskService) *TaskHandler {
	return &TaskHandler{service: service}
}

type createTaskRequest struct {
	Title         string              `json:"title"`
	Description   string              `json:"description"`
	Priority      models.TaskPriority `json:"priority"`
	DueDate       time.Time           `json:"dueDate"`
	AssignedTo    []string            `json:"assignedTo"`
	Attachments   []string            `json:"attachments"`
	TodoChecklist []models.TodoItem   `json:"todoChecklist"`
}

type taskPatchRequest struct {
	Title         *string              `json:"title"`
	Description   *string              `json:"description"`
	Priority      *models.TaskPriority `json:"priority"`
	DueDate       *time.Time           `json:"dueDate"`
	AssignedTo    *[]string            `json:"assignedTo"`
	Attachments   *[]string            `json:"attachments"`
	TodoChecklist *[]models.TodoItem   `json:"todoChecklist"`
	Status        *models.TaskStatus   `json:"status"`
}

// CreateTask handles POST /api/tasks (admin only, enforced in middleware).
func (h *TaskHandler) CreateTask(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Message: "Authorization required"})
		return
	}

	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "Invalid request payload"})
		return
	}

	assignees, err := parseObjectIDs(req.AssignedTo)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "Invalid assignee ID format"})
		return
	}

	task, err := h.service.CreateTask(services.CreateTaskInput{
		Title:         req.Title,
		Description:   req.Description,
		Priority:      req.Priority,
		DueDate:       req.DueDate,
		AssignedTo:    assignees,
		Attachments:   req.Attachments,
		TodoChecklist: req.TodoChecklist,
	}, caller)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	logging.Logger.Infof("Event ID: TASK_CREATED, Description: Task %s created by %s", task.ID.Hex(), caller.ID.Hex())
	writeJSON(w, http.StatusCreated, task)
}

// GetTasks handles GET /api/tasks. Admins see everything, members only
// their assigned tasks; both may filter by status, priority and title
// search.
func (h *TaskHandler) GetTasks(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Message: "Authorization required"})
		return
	}

	filter := services.TaskListFilter{
		Status:   r.URL.Query().Get("status"),
		Priority: r.URL.Query().Get("priority"),
		Search:   r.URL.Query().Get("search"),
	}

	tasks, err := h.service.ListTasks(caller, filter)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, tasks)
}

// GetTaskByID handles GET /api/tasks/{id}.
func (h *TaskHandler) GetTaskByID(w http.ResponseWriter, r *http.Request) {
	caller, taskID, ok := callerAndTaskID(w, r)
	if !ok {
		return
	}

	task, err := h.service.GetTask(taskID, caller)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

// UpdateTask handles PUT /api/tasks/{id}. Which fields may change depends
// on the caller's role; the service checks the permission table.
func (h *TaskHandler) UpdateTask(w http.ResponseWriter, r *http.Request) {
	caller, taskID, ok := callerAndTaskID(w, r)
	if !ok {
		return
	}

	var req taskPatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "Invalid request payload"})
		return
	}

	patch := &services.TaskPatch{
		Title:         req.Title,
		Description:   req.Description,
		Priority:      req.Priority,
		DueDate:       req.DueDate,
		Attachments:   req.Attachments,
		TodoChecklist: req.TodoChecklist,
		Status:        req.Status,
	}
	if req.AssignedTo != nil {
		assignees, err := parseObjectIDs(*req.AssignedTo)
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse{Message: "Invalid assignee ID format"})
			return
		}
		patch.AssignedTo = &assignees
	}

	task, err := h.service.UpdateTask(taskID, patch, caller)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

// UpdateTaskStatus handles PUT /api/tasks/{id}/status.
func (h *TaskHandler) UpdateTaskStatus(w http.ResponseWriter, r *http.Request) {
	caller, taskID, ok := callerAndTaskID(w, r)
	if !ok {
		return
	}

	var req struct {
		Status models.TaskStatus `json:"status"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "Invalid request payload"})
		return
	}

	task, err := h.service.UpdateTaskStatus(taskID, req.Status, caller)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

// UpdateTaskChecklist handles PUT /api/tasks/{id}/todo.
func (h *TaskHandler) UpdateTaskChecklist(w http.ResponseWriter, r *http.Request) {
	caller, taskID, ok := callerAndTaskID(w, r)
	if !ok {
		return
	}

	var req struct {
		TodoChecklist []models.TodoItem `json:"todoChecklist"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "Invalid request payload"})
		return
	}

	task, err := h.service.UpdateTaskChecklist(taskID, req.TodoChecklist, caller)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, task)
}

// DeleteTask handles DELETE /api/tasks/{id} (admin only, enforced in
// middleware).
func (h *TaskHandler) DeleteTask(w http.ResponseWriter, r *http.Request) {
	caller, taskID, ok := callerAndTaskID(w, r)
	if !ok {
		return
	}

	if err := h.service.DeleteTask(taskID); err != nil {
		writeServiceError(w, err)
		return
	}

	logging.Logger.Infof("Event ID: TASK_DELETED, Description: Task %s deleted by %s", taskID.Hex(), caller.ID.Hex())
	writeJSON(w, http.StatusOK, map[string]string{"message": "Task deleted successfully"})
}

func callerAndTaskID(w http.ResponseWriter, r *http.Request) (services.Caller, primitive.ObjectID, bool) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Message: "Authorization required"})
		return services.Caller{}, primitive.NilObjectID, false
	}

	taskID, err := primitive.ObjectIDFromHex(mux.Vars(r)["id"])
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Message: "Invalid task ID format"})
		return services.Caller{}, primitive.NilObjectID, false
	}

	return caller, taskID, true
}

func parseObjectIDs(hexIDs []string) ([]primitive.ObjectID, error) {
	ids := make([]primitive.ObjectID, len(hexIDs))
	for i, hexID := range hexIDs {
		id, err := primitive.ObjectIDFromHex(hexID)
		if err != nil {
			return nil, err
		}
		ids[i] = id
	}
	return ids, nil
}
