package models

// DashboardSummary is computed on demand from the current task collection;
// it is never persisted. Count maps always carry all three statuses and
// priorities, zero-valued where no tasks match.
type DashboardSummary struct {
	TotalTasks       int                  `json:"totalTasks"`
	CountsByStatus   map[TaskStatus]int   `json:"countsByStatus"`
	CountsByPriority map[TaskPriority]int `json:"countsByPriority"`
	OverdueCount     int                  `json:"overdueCount"`
	RecentTasks      []Task               `json:"recentTasks"`
}
