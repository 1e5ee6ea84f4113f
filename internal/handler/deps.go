package handler

import (
	"minsky/internal/app/chat"
	"minsky/internal/app/db"
	"minsky/internal/configs"
)

// AppDeps bundles what the HTTP handlers need.
type AppDeps struct {
	Hub    *chat.Hub
	Config *configs.AppConfig

	// DB is nil when no database is configured.
	DB db.Pinger
}
