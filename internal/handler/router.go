/*
Package handler provides the HTTP handlers and routing setup for the chat server.

This file defines the main Router, applying middleware like logging, CORS,
and IP-based rate limiting before delegating requests to the chat handlers.
*/
package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/rs/cors"
	"golang.org/x/time/rate"

	"minsky/internal/pkg/errs"
	"minsky/internal/pkg/limiter"
	"minsky/internal/pkg/logx"
	"minsky/internal/pkg/metrics"
	"minsky/internal/pkg/resp"
)

const (
	ConnectRate  = 1
	ConnectBurst = 10
	APIRate      = 5
	APIBurst     = 20
)

// Router sets up the main HTTP routing table (chi.Router) for the application.
// The rate limiters' cleanup loops stop when ctx is done.
func Router(ctx context.Context, deps *AppDeps) http.Handler {
	connectLimiter := limiter.NewIPRateLimiter(ctx, rate.Limit(ConnectRate), ConnectBurst)
	apiLimiter := limiter.NewIPRateLimiter(ctx, rate.Limit(APIRate), APIBurst)

	r := chi.NewRouter()

	allowedOrigins := make(map[string]struct{})
	for _, origin := range deps.Config.AllowedOrigins {
		allowedOrigins[origin] = struct{}{}
	}

	wsUpgrader := websocket.Upgrader{
		ReadBufferSize:  4096,
		WriteBufferSize: 4096,
		CheckOrigin: func(r *http.Request) bool {
			if deps.Config.IsDevelopment() {
				return true
			}

			origin := r.Header.Get("Origin")
			if _, ok := allowedOrigins[origin]; ok {
				return true
			}

			logx.Warn("WebSocket connection rejected: Origin not allowed.", "origin", origin)
			return false
		},
	}

	corsAllowedOrigins := deps.Config.AllowedOrigins
	if deps.Config.IsDevelopment() {
		corsAllowedOrigins = []string{"*"}
	}

	c := cors.New(cors.Options{
		AllowedOrigins: corsAllowedOrigins,
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	})
	r.Use(c.Handler)

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(logx.RequestLogger("/health", "/metrics"))
	r.Use(middleware.Recoverer)

	r.Get("/health", HandleHealth(deps))
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/chat", func(chatRouter chi.Router) {
		chatRouter.Get("/ws", HandleWebSocket(wsUpgrader, connectLimiter, deps))

		chatRouter.Group(func(api chi.Router) {
			api.Use(apiLimiter.Middleware)

			api.Get("/users", HandleListUsers(deps))
			api.Get("/users/{username}", HandleGetUser(deps))
			api.Get("/groups", HandleListGroups(deps))
			api.Get("/groups/{name}/members", HandleGroupMembers(deps))
		})
	})

	return r
}

// HandleHealth reports service status, including the database when one is configured.
func HandleHealth(deps *AppDeps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := map[string]any{
			"status":      "ok",
			"service":     "Minsky Chat",
			"online":      deps.Hub.Presence().Len(),
			"connections": deps.Hub.Registry().Len(),
		}

		if deps.DB != nil {
			ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
			defer cancel()

			if err := deps.DB.Ping(ctx); err != nil {
				logx.Error(err, "Health check database ping failed")
				resp.RespondError(w, r, errs.NewError(errs.ErrUnknown))
				return
			}
			data["database"] = "ok"
		}

		resp.RespondSuccess(w, r, data)
	}
}
