package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/KanittaJHA/planahead-task-manager-backend/models"
	"github.com/KanittaJHA/planahead-task-manager-backend/services"
)

func TestRequireAuth(t *testing.T) {
	jwtService := services.NewJWTService("test-secret")
	auth := NewAuthMiddleware(jwtService)

	userID := primitive.NewObjectID()
	token, err := jwtService.GenerateToken(userID.Hex(), models.RoleMember)
	if err != nil {
		t.Fatalf("GenerateToken() error: %v", err)
	}

	tests := []struct {
		name       string
		authHeader string
		wantStatus int
	}{
		{
			name:       "missing header",
			authHeader: "",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "invalid token",
			authHeader: "Bearer not-a-token",
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "valid token",
			authHeader: "Bearer " + token,
			wantStatus: http.StatusOK,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotCaller services.Caller
			var callerFound bool
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				gotCaller, callerFound = CallerFromContext(r.Context())
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rec := httptest.NewRecorder()

			auth.RequireAuth(next).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Fatalf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if tt.wantStatus == http.StatusOK {
				if !callerFound {
					t.Fatal("caller not found in request context")
				}
				if gotCaller.ID != userID {
					t.Errorf("caller ID = %s, want %s", gotCaller.ID.Hex(), userID.Hex())
				}
				if gotCaller.Role != models.RoleMember {
					t.Errorf("caller role = %q, want %q", gotCaller.Role, models.RoleMember)
				}
			}
		})
	}
}

func TestAdminOnly(t *testing.T) {
	jwtService := services.NewJWTService("test-secret")
	auth := NewAuthMiddleware(jwtService)

	adminToken, err := jwtService.GenerateToken(primitive.NewObjectID().Hex(), models.RoleAdmin)
	if err != nil {
		t.Fatalf("GenerateToken() error: %v", err)
	}
	memberToken, err := jwtService.GenerateToken(primitive.NewObjectID().Hex(), models.RoleMember)
	if err != nil {
		t.Fatalf("GenerateToken() error: %v", err)
	}

	tests := []struct {
		name       string
		token      string
		wantStatus int
	}{
		{
			name:       "admin passes",
			token:      adminToken,
			wantStatus: http.StatusOK,
		},
		{
			name:       "member is forbidden",
			token:      memberToken,
			wantStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodDelete, "/api/tasks/abc", nil)
			req.Header.Set("Authorization", "Bearer "+tt.token)
			rec := httptest.NewRecorder()

			auth.RequireAuth(auth.AdminOnly(next)).ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
		})
	}
}

func TestAdminOnlyWithoutAuthContext(t *testing.T) {
	auth := NewAuthMiddleware(services.NewJWTService("test-secret"))

	next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	rec := httptest.NewRecorder()

	// AdminOnly used without RequireAuth must not pass anyone through.
	auth.AdminOnly(next).ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}
