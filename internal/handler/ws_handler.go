/*
Package handler provides the HTTP handler function for WebSocket connection upgrading and initialization.

This file contains the HandleWebSocket function, which is responsible for rate limiting,
upgrading the HTTP connection to WebSocket, and starting the client's read and write loops.
The client identifies itself over the socket once connected.
*/
package handler

import (
	"net/http"

	"github.com/gorilla/websocket"
	"golang.org/x/time/rate"

	"minsky/internal/app/chat"
	"minsky/internal/pkg/errs"
	"minsky/internal/pkg/limiter"
	"minsky/internal/pkg/logx"
	"minsky/internal/pkg/resp"
)

// HandleWebSocket creates an HTTP HandlerFunc to process WebSocket connection requests.
func HandleWebSocket(upgrader websocket.Upgrader, rateLimiter *limiter.IPRateLimiter, deps *AppDeps) http.HandlerFunc {
	opts := chat.ClientOptions{
		SendQueueSize: deps.Config.SendQueueSize,
		MessageRate:   rate.Limit(deps.Config.MessageRate),
		MessageBurst:  deps.Config.MessageBurst,
	}

	return func(w http.ResponseWriter, r *http.Request) {
		ip := limiter.ClientIP(r)

		if !rateLimiter.Allow(ip) {
			logx.Warn("WebSocket connection rejected: Rate limit exceeded.", "ip", logx.AnonymizeIP(ip))
			resp.RespondError(w, r, errs.NewError(errs.ErrRateLimitExceeded))
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			logx.Error(err, "Failed to upgrade connection to WebSocket")
			return
		}

		client := chat.NewClient(deps.Hub, conn, opts)

		logx.Info("WebSocket connection established", "conn_id", string(client.Session().ID()))

		go client.WritePump()
		client.ReadPump()
	}
}
