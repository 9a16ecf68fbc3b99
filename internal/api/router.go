package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/tasktango/tasktango/internal/auth"
	"github.com/tasktango/tasktango/internal/metrics"
	"github.com/tasktango/tasktango/internal/notification"
	"github.com/tasktango/tasktango/internal/ratelimit"
	"github.com/tasktango/tasktango/internal/task"
	"github.com/tasktango/tasktango/internal/team"
	"github.com/tasktango/tasktango/internal/user"
)

// Pinger is the slice of the connection pool the health check uses.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RouterDeps holds all dependencies for the API router.
type RouterDeps struct {
	Tasks          *task.Service
	Teams          *team.Service
	Users          *user.Store
	Notifications  *notification.Store
	Sessions       auth.SessionLookup
	DBPool         Pinger
	Metrics        *metrics.Metrics
	LoginLimiter   *ratelimit.Limiter
	AllowedOrigins []string
}

// NewRouter builds the chi router with all routes and middleware.
func NewRouter(deps RouterDeps) http.Handler {
	r := chi.NewRouter()

	// Global middleware.
	r.Use(chimw.Recoverer)
	r.Use(requestIDMiddleware)
	r.Use(secureHeaders)
	r.Use(corsMiddleware(deps.AllowedOrigins))
	r.Use(slogRequestLogger)
	if deps.Metrics != nil {
		r.Use(metricsMiddleware(deps.Metrics))
	}

	// Handlers.
	authH := newAuthHandler(deps.Users, deps.Metrics)
	tasks := newTasksHandler(deps.Tasks)
	teams := newTeamsHandler(deps.Teams)
	notifications := newNotificationsHandler(deps.Notifications, deps.Teams)
	users := newUsersHandler(deps.Users)

	// Health check.
	r.Get("/health", healthHandler(deps.DBPool))

	// Metrics summary.
	if deps.Metrics != nil {
		r.Get("/metrics", deps.Metrics.Handler())
	}

	// Authentication.
	r.Route("/api/v1/auth", func(ar chi.Router) {
		ar.Post("/register", authH.Register)
		ar.With(loginRateLimit(deps.LoginLimiter)).Post("/login", authH.Login)
		ar.Post("/logout", authH.Logout)
		ar.With(auth.Middleware(deps.Sessions)).Get("/me", authH.Me)
	})

	// Session-authed routes.
	r.Route("/api/v1", func(ar chi.Router) {
		ar.Use(auth.Middleware(deps.Sessions))

		// Tasks and their audit trail.
		ar.Get("/tasks", tasks.ListTasks)
		ar.Post("/tasks", tasks.CreateTask)
		ar.Get("/tasks/{id}", tasks.GetTask)
		ar.Patch("/tasks/{id}", tasks.UpdateTask)
		ar.Delete("/tasks/{id}", tasks.DeleteTask)
		ar.Post("/tasks/{id}/comments", tasks.AddComment)
		ar.Get("/tasks/{id}/activity", tasks.ListTaskActivity)
		ar.Get("/activity", tasks.ListRecentActivity)

		// Teams and the membership lifecycle.
		ar.Get("/teams", teams.ListTeams)
		ar.Post("/teams", teams.CreateTeam)
		ar.Post("/teams/join", teams.JoinByCode)
		ar.Get("/teams/{id}", teams.GetTeam)
		ar.Put("/teams/{id}", teams.RenameTeam)
		ar.Delete("/teams/{id}", teams.DeleteTeam)
		ar.Post("/teams/{id}/invites", teams.InviteMember)
		ar.Post("/teams/{id}/requests/{userId}", teams.RespondToJoinRequest)
		ar.Delete("/teams/{id}/members/{userId}", teams.RemoveMember)

		// Notifications.
		ar.Get("/notifications", notifications.ListNotifications)
		ar.Post("/notifications/{id}/respond", notifications.Respond)
		ar.Post("/notifications/{id}/read", notifications.MarkRead)
		ar.Post("/notifications/read-all", notifications.MarkAllRead)

		// Profile.
		ar.Get("/users/me", users.GetProfile)
		ar.Patch("/users/me", users.UpdateProfile)
	})

	return r
}

// healthHandler reports liveness and database reachability.
func healthHandler(pool Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if pool != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()
			if err := pool.Ping(ctx); err != nil {
				writeJSON(w, http.StatusServiceUnavailable, map[string]string{
					"status":   "degraded",
					"database": "unreachable",
				})
				return
			}
		}
		writeJSON(w, http.StatusOK, map[string]string{
			"status":   "ok",
			"database": "connected",
		})
	}
}

// metricsMiddleware records request counts and latency per route pattern.
func metricsMiddleware(m *metrics.Metrics) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)

			pattern := chi.RouteContext(r.Context()).RoutePattern()
			if pattern == "" {
				pattern = "unmatched"
			}
			m.ObserveHTTPRequest(r.Method, pattern, ww.Status(), time.Since(start).Seconds())
		})
	}
}

// slogRequestLogger is a simple structured logging middleware using slog.
func slogRequestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		slog.Info("http request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration_ms", time.Since(start).Milliseconds(),
			"bytes", ww.BytesWritten(),
			"request_id", RequestIDFromContext(r.Context()),
		)
	})
}
