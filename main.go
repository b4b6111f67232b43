package main

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/KanittaJHA/planahead-task-manager-backend/config"
	"github.com/KanittaJHA/planahead-task-manager-backend/handlers"
	"github.com/KanittaJHA/planahead-task-manager-backend/logging"
	"github.com/KanittaJHA/planahead-task-manager-backend/middleware"
	"github.com/KanittaJHA/planahead-task-manager-backend/services"
)

func enableCORS(next http.Handler, clientURL string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", clientURL)
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func main() {
	logging.InitLogger()
	logging.Logger.Info("Event ID: SERVICE_START, Description: Starting task manager backend...")

	cfg, err := config.Load()
	if err != nil {
		logging.Logger.Fatalf("Event ID: CONFIG_ERROR, Description: Failed to load configuration: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(ctx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		logging.Logger.Fatalf("Event ID: DB_CONNECTION_FAILED, Description: Database connection for MongoDB failed: %v", err)
	}
	defer client.Disconnect(ctx)

	if err := client.Ping(ctx, nil); err != nil {
		logging.Logger.Fatalf("Event ID: DB_PING_FAILED, Description: MongoDB connection ping error: %v", err)
	}
	logging.Logger.Infof("Event ID: DB_CONNECTED, Description: Successfully connected to MongoDB at %s.", cfg.MongoURI)

	db := client.Database(cfg.MongoDBName)
	usersCollection := db.Collection("users")
	tasksCollection := db.Collection("tasks")

	// Email uniqueness is enforced at the store level.
	_, err = usersCollection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "email", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		logging.Logger.Fatalf("Event ID: DB_INDEX_FAILED, Description: Failed to create unique email index: %v", err)
	}

	jwtService := services.NewJWTService(cfg.JWTSecret)
	userService := services.NewUserService(usersCollection, tasksCollection, jwtService, cfg.AdminInviteToken)
	taskService := services.NewTaskService(tasksCollection, usersCollection)
	dashboardService := services.NewDashboardService(tasksCollection)

	authHandler := handlers.NewAuthHandler(userService)
	userHandler := handlers.NewUserHandler(userService)
	taskHandler := handlers.NewTaskHandler(taskService)
	dashboardHandler := handlers.NewDashboardHandler(dashboardService)

	auth := middleware.NewAuthMiddleware(jwtService)
	protected := func(h http.HandlerFunc) http.Handler {
		return auth.RequireAuth(h)
	}
	adminOnly := func(h http.HandlerFunc) http.Handler {
		return auth.RequireAuth(auth.AdminOnly(h))
	}

	r := mux.NewRouter()
	api := r.PathPrefix("/api").Subrouter()

	api.HandleFunc("/auth/register", authHandler.Register).Methods(http.MethodPost)
	api.HandleFunc("/auth/login", authHandler.Login).Methods(http.MethodPost)
	api.Handle("/auth/profile", protected(authHandler.GetProfile)).Methods(http.MethodGet)
	api.Handle("/auth/profile", protected(authHandler.UpdateProfile)).Methods(http.MethodPut)

	api.Handle("/users", adminOnly(userHandler.GetUsers)).Methods(http.MethodGet)
	api.Handle("/users/{id}", protected(userHandler.GetUserByID)).Methods(http.MethodGet)

	// Dashboard routes go first so "dashboard-data" is not captured as a
	// task ID.
	api.Handle("/tasks/dashboard-data", adminOnly(dashboardHandler.GetDashboardData)).Methods(http.MethodGet)
	api.Handle("/tasks/user-dashboard-data", protected(dashboardHandler.GetUserDashboardData)).Methods(http.MethodGet)
	api.Handle("/tasks", protected(taskHandler.GetTasks)).Methods(http.MethodGet)
	api.Handle("/tasks", adminOnly(taskHandler.CreateTask)).Methods(http.MethodPost)
	api.Handle("/tasks/{id}/status", protected(taskHandler.UpdateTaskStatus)).Methods(http.MethodPut)
	api.Handle("/tasks/{id}/todo", protected(taskHandler.UpdateTaskChecklist)).Methods(http.MethodPut)
	api.Handle("/tasks/{id}", protected(taskHandler.GetTaskByID)).Methods(http.MethodGet)
	api.Handle("/tasks/{id}", protected(taskHandler.UpdateTask)).Methods(http.MethodPut)
	api.Handle("/tasks/{id}", adminOnly(taskHandler.DeleteTask)).Methods(http.MethodDelete)

	corsRouter := enableCORS(r, cfg.ClientURL)

	serverAddress := fmt.Sprintf(":%s", cfg.ServerPort)
	srv := &http.Server{
		Addr:         serverAddress,
		Handler:      corsRouter,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}

	logging.Logger.Infof("Event ID: SERVER_START_INFO, Description: Server running on http://localhost%s", serverAddress)
	if err := srv.ListenAndServe(); err != nil {
		logging.Logger.Fatalf("Event ID: SERVER_FATAL_ERROR, Description: Server failed to start: %v", err)
	}
}
