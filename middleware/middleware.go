package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/KanittaJHA/planahead-task-manager-backend/logging"
	"github.com/KanittaJHA/planahead-task-manager-backend/models"
	"github.com/KanittaJHA/planahead-task-manager-backend/services"
)

type contextKey string

const callerContextKey contextKey = "caller"

// AuthMiddleware verifies bearer tokens and places the resolved caller
// into the request context.
type AuthMiddleware struct {
	jwtService *services.JWTService
}

func NewAuthMiddleware(jwtService *services.JWTService) *AuthMiddleware {
	return &AuthMiddleware{jwtService: jwtService}
}

// RequireAuth rejects requests without a valid bearer token.
func (m *AuthMiddleware) RequireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			logging.Logger.Warnf("Event ID: AUTH_MISSING_HEADER, Description: Authorization header missing for request to %s %s", r.Method, r.URL.Path)
			writeError(w, http.StatusUnauthorized, "Authorization header missing")
			return
		}

		tokenStr := strings.TrimPrefix(authHeader, "Bearer ")
		claims, err := m.jwtService.ValidateToken(tokenStr)
		if err != nil {
			logging.Logger.Warnf("Event ID: AUTH_INVALID_TOKEN, Description: Invalid token for request to %s %s: %v", r.Method, r.URL.Path, err)
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		userID, err := primitive.ObjectIDFromHex(claims.UserID)
		if err != nil {
			logging.Logger.Warnf("Event ID: AUTH_INVALID_CLAIMS, Description: Invalid user id in token claims for request to %s %s", r.Method, r.URL.Path)
			writeError(w, http.StatusUnauthorized, "Invalid token")
			return
		}

		caller := services.Caller{ID: userID, Role: claims.Role}
		ctx := context.WithValue(r.Context(), callerContextKey, caller)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// AdminOnly rejects authenticated callers that are not admins. It must
// run inside RequireAuth.
func (m *AuthMiddleware) AdminOnly(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		caller, ok := CallerFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "Authorization required")
			return
		}
		if caller.Role != models.RoleAdmin {
			logging.Logger.Warnf("Event ID: AUTH_FORBIDDEN, Description: Non-admin caller %s attempted %s %s", caller.ID.Hex(), r.Method, r.URL.Path)
			writeError(w, http.StatusForbidden, "Access forbidden: insufficient permissions")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// CallerFromContext returns the caller stored by RequireAuth.
func CallerFromContext(ctx context.Context) (services.Caller, bool) {
	caller, ok := ctx.Value(callerContextKey).(services.Caller)
	return caller, ok
}

// writeError emits the {message} error body every endpoint uses.
func writeError(w http.ResponseWriter, status int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"message": message})
}
