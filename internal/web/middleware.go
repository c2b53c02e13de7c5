package web

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/notolabs/noto/internal/db"
)

type contextKey string

const userContextKey contextKey = "user"

// requestLogger emits one structured line per request.
func requestLogger(logger *zerolog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			logger.Info().
				Str("method", r.Method).
				Str("path", r.URL.Path).
				Int("status", ww.Status()).
				Dur("duration", time.Since(start)).
				Str("request_id", middleware.GetReqID(r.Context())).
				Msg("request")
		})
	}
}

// requireAuth verifies the bearer token, loads the account, and rejects
// banned or suspended accounts. The loaded user lands in the request context.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			respondError(w, http.StatusUnauthorized, "Access token required")
			return
		}

		claims, err := s.tokens.Verify(token)
		if err != nil {
			respondError(w, http.StatusForbidden, "Invalid or expired token")
			return
		}

		user, err := s.handlers.users.GetByID(r.Context(), claims.UserID)
		if err != nil {
			respondError(w, http.StatusNotFound, "User not found")
			return
		}
		if user.Banned {
			respondError(w, http.StatusForbidden, "User account has been banned")
			return
		}
		if user.Suspended {
			respondError(w, http.StatusForbidden, "User account is suspended")
			return
		}

		ctx := context.WithValue(r.Context(), userContextKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// requireAdmin allows only accounts whose email is on the admin list.
// It must run after requireAuth.
func (s *Server) requireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user := userFrom(r.Context())
		if user == nil {
			respondError(w, http.StatusUnauthorized, "Access token required")
			return
		}
		if _, ok := s.admins[normalizeIdentifier(user.Email)]; !ok {
			respondError(w, http.StatusForbidden, "Admin access required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// userFrom returns the authenticated user stored by requireAuth, or nil.
func userFrom(ctx context.Context) *db.User {
	user, _ := ctx.Value(userContextKey).(*db.User)
	return user
}

func normalizeIdentifier(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}
