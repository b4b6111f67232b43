package services

import (
	"testing"

	"github.com/KanittaJHA/planahead-task-manager-backend/models"
)

func TestAssembleSummaryEmptyStore(t *testing.T) {
	summary := assembleSummary(dashboardFacets{})

	if summary.TotalTasks != 0 {
		t.Errorf("TotalTasks = %d, want 0", summary.TotalTasks)
	}
	if summary.OverdueCount != 0 {
		t.Errorf("OverdueCount = %d, want 0", summary.OverdueCount)
	}
	if len(summary.CountsByStatus) != 3 {
		t.Errorf("CountsByStatus has %d entries, want all 3 statuses", len(summary.CountsByStatus))
	}
	if len(summary.CountsByPriority) != 3 {
		t.Errorf("CountsByPriority has %d entries, want all 3 priorities", len(summary.CountsByPriority))
	}
	for status, count := range summary.CountsByStatus {
		if count != 0 {
			t.Errorf("CountsByStatus[%q] = %d, want 0", status, count)
		}
	}
	if summary.RecentTasks == nil {
		t.Error("RecentTasks should be an empty slice, not nil")
	}
}

func TestAssembleSummaryCounts(t *testing.T) {
	facets := dashboardFacets{
		ByStatus: []countBucket{
			{ID: "Pending", Count: 3},
			{ID: "Completed", Count: 2},
		},
		ByPriority: []countBucket{
			{ID: "High", Count: 4},
			{ID: "Low", Count: 1},
		},
		Overdue: []struct {
			Count int `bson:"count"`
		}{{Count: 2}},
		Recent: []models.Task{{Title: "newest"}, {Title: "older"}},
	}

	summary := assembleSummary(facets)

	if summary.TotalTasks != 5 {
		t.Errorf("TotalTasks = %d, want 5", summary.TotalTasks)
	}
	if summary.CountsByStatus[models.StatusPending] != 3 {
		t.Errorf("CountsByStatus[Pending] = %d, want 3", summary.CountsByStatus[models.StatusPending])
	}
	if summary.CountsByStatus[models.StatusInProgress] != 0 {
		t.Errorf("CountsByStatus[In Progress] = %d, want 0", summary.CountsByStatus[models.StatusInProgress])
	}
	if summary.CountsByStatus[models.StatusCompleted] != 2 {
		t.Errorf("CountsByStatus[Completed] = %d, want 2", summary.CountsByStatus[models.StatusCompleted])
	}
	if summary.CountsByPriority[models.PriorityHigh] != 4 {
		t.Errorf("CountsByPriority[High] = %d, want 4", summary.CountsByPriority[models.PriorityHigh])
	}
	if summary.CountsByPriority[models.PriorityMedium] != 0 {
		t.Errorf("CountsByPriority[Medium] = %d, want 0", summary.CountsByPriority[models.PriorityMedium])
	}
	if summary.OverdueCount != 2 {
		t.Errorf("OverdueCount = %d, want 2", summary.OverdueCount)
	}
	if len(summary.RecentTasks) != 2 || summary.RecentTasks[0].Title != "newest" {
		t.Errorf("RecentTasks = %v, want newest first", summary.RecentTasks)
	}
}

func TestAssembleSummaryCountConsistency(t *testing.T) {
	facets := dashboardFacets{
		ByStatus: []countBucket{
			{ID: "Pending", Count: 4},
			{ID: "In Progress", Count: 3},
			{ID: "Completed", Count: 2},
		},
		Overdue: []struct {
			Count int `bson:"count"`
		}{{Count: 5}},
	}

	summary := assembleSummary(facets)

	sum := 0
	for _, count := range summary.CountsByStatus {
		sum += count
	}
	if sum != summary.TotalTasks {
		t.Errorf("status counts sum to %d, want total %d", sum, summary.TotalTasks)
	}

	// Overdue tasks are never Completed, so the overdue count cannot
	// exceed the non-completed population.
	nonCompleted := summary.TotalTasks - summary.CountsByStatus[models.StatusCompleted]
	if summary.OverdueCount > nonCompleted {
		t.Errorf("OverdueCount = %d exceeds non-completed count %d", summary.OverdueCount, nonCompleted)
	}
}
