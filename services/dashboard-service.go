package services

import (
	"context"
	"fmt"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"

	"github.com/KanittaJHA/planahead-task-manager-backend/models"
)

// recentTasksLimit bounds the recentTasks list in dashboard summaries.
const recentTasksLimit = 10

type DashboardService struct {
	tasksCollection *mongo.Collection
}

func NewDashboardService(tasksCollection *mongo.Collection) *DashboardService {
	return &DashboardService{tasksCollection: tasksCollection}
}

// GlobalDashboard summarizes every task in the store. The admin-only gate
// sits in the middleware.
func (s *DashboardService) GlobalDashboard() (*models.DashboardSummary, error) {
	return s.summarize(bson.M{})
}

// UserDashboard summarizes the tasks assigned to one user.
func (s *DashboardService) UserDashboard(userID primitive.ObjectID) (*models.DashboardSummary, error) {
	return s.summarize(bson.M{"assignedTo": userID})
}

type countBucket struct {
	ID    string `bson:"_id"`
	Count int    `bson:"count"`
}

type dashboardFacets struct {
	ByStatus   []countBucket `bson:"byStatus"`
	ByPriority []countBucket `bson:"byPriority"`
	Overdue    []struct {
		Count int `bson:"count"`
	} `bson:"overdue"`
	Recent []models.Task `bson:"recent"`
}

// summarize runs a single $facet aggregation so all counts come from one
// snapshot of the collection instead of per-status count queries.
func (s *DashboardService) summarize(match bson.M) (*models.DashboardSummary, error) {
	now := time.Now()
	pipeline := mongo.Pipeline{
		bson.D{{Key: "$match", Value: match}},
		bson.D{{Key: "$facet", Value: bson.M{
			"byStatus": bson.A{
				bson.M{"$group": bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}},
			},
			"byPriority": bson.A{
				bson.M{"$group": bson.M{"_id": "$priority", "count": bson.M{"$sum": 1}}},
			},
			"overdue": bson.A{
				bson.M{"$match": bson.M{
					"dueDate": bson.M{"$lt": now},
					"status":  bson.M{"$ne": models.StatusCompleted},
				}},
				bson.M{"$count": "count"},
			},
			"recent": bson.A{
				bson.M{"$sort": bson.M{"createdAt": -1}},
				bson.M{"$limit": recentTasksLimit},
			},
		}}},
	}

	cursor, err := s.tasksCollection.Aggregate(context.Background(), pipeline)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate dashboard data: %v", err)
	}
	defer cursor.Close(context.Background())

	var facets []dashboardFacets
	if err := cursor.All(context.Background(), &facets); err != nil {
		return nil, fmt.Errorf("failed to decode dashboard data: %v", err)
	}
	if len(facets) == 0 {
		return assembleSummary(dashboardFacets{}), nil
	}

	return assembleSummary(facets[0]), nil
}

// assembleSummary turns raw facet buckets into the response shape, filling
// zero counts for statuses and priorities with no tasks.
func assembleSummary(facets dashboardFacets) *models.DashboardSummary {
	summary := &models.DashboardSummary{
		CountsByStatus: map[models.TaskStatus]int{
			models.StatusPending:    0,
			models.StatusInProgress: 0,
			models.StatusCompleted:  0,
		},
		CountsByPriority: map[models.TaskPriority]int{
			models.PriorityLow:    0,
			models.PriorityMedium: 0,
			models.PriorityHigh:   0,
		},
		RecentTasks: []models.Task{},
	}

	for _, bucket := range facets.ByStatus {
		status := models.TaskStatus(bucket.ID)
		if status.Valid() {
			summary.CountsByStatus[status] = bucket.Count
		}
		summary.TotalTasks += bucket.Count
	}
	for _, bucket := range facets.ByPriority {
		priority := models.TaskPriority(bucket.ID)
		if priority.Valid() {
			summary.CountsByPriority[priority] = bucket.Count
		}
	}
	if len(facets.Overdue) > 0 {
		summary.OverdueCount = facets.Overdue[0].Count
	}
	if facets.Recent != nil {
		summary.RecentTasks = facets.Recent
	}

	return summary
}
