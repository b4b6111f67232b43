package handlers

import (
	"net/http"

	"github.com/KanittaJHA/planahead-task-manager-backend/middleware"
	"github.com/KanittaJHA/planahead-task-manager-backend/services"
)

type DashboardHandler struct {
	service *services.DashboardService
}

func NewDashboardHandler(service *services.DashboardService) *DashboardHandler {
	return &DashboardHandler{service: service}
}

// GetDashboardData handles GET /api/tasks/dashboard-data (admin only,
// enforced in middleware).
func (h *DashboardHandler) GetDashboardData(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.GlobalDashboard()
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}

// GetUserDashboardData handles GET /api/tasks/user-dashboard-data, scoped
// to the caller's assigned tasks.
func (h *DashboardHandler) GetUserDashboardData(w http.ResponseWriter, r *http.Request) {
	caller, ok := middleware.CallerFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse{Message: "Authorization required"})
		return
	}

	summary, err := h.service.UserDashboard(caller.ID)
	if err != nil {
		writeServiceError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, summary)
}
