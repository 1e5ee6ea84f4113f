/*
Package main is the entry point for the Minsky chat server.

It is responsible for loading configuration, initializing the global logging system,
seeding the chat hub with the bot user, opening the optional database pool,
setting up the HTTP server, and gracefully handling operating system interrupt
signals (SIGINT, SIGTERM) to ensure a smooth server shutdown.
*/
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"minsky/internal/app/chat"
	"minsky/internal/app/db"
	"minsky/internal/app/user"
	"minsky/internal/configs"
	"minsky/internal/handler"
	"minsky/internal/pkg/logx"
)

func main() {
	// A missing .env file is fine; the process environment still applies.
	_ = godotenv.Load(".env")

	cfg, err := configs.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "FATAL: Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	logx.InitGlobalLogger(cfg.IsDevelopment(), cfg.LogLevel)
	logx.Logger().Info().
		Str("environment", cfg.Environment).
		Int("port", cfg.Port).
		Strs("allowed_origins", cfg.AllowedOrigins).
		Float64("message_rate", cfg.MessageRate).
		Int("message_burst", cfg.MessageBurst).
		Int("send_queue", cfg.SendQueueSize).
		Bool("database", cfg.DatabaseDSN != "").
		Msg("Configuration loaded successfully")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	hub := chat.NewHub(user.Record{
		Username: cfg.BotName,
		Profile: user.Profile{
			Signature: cfg.BotSignature,
			Avatar:    cfg.BotAvatar,
		},
	})

	deps := &handler.AppDeps{Hub: hub, Config: cfg}

	if cfg.DatabaseDSN != "" {
		pool, err := db.NewPool(ctx, cfg.DatabaseDSN)
		if err != nil {
			logx.Fatal(err, "Failed to connect to database")
		}
		defer pool.Close()
		deps.DB = pool
	}

	router := handler.Router(ctx, deps)

	serverAddr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{
		Addr:         serverAddr,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	go func() {
		logx.Info(fmt.Sprintf("Minsky chat server starting on http://localhost%s", serverAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logx.Fatal(err, "Server failed to start")
		}
	}()

	<-ctx.Done()
	logx.Info("Received shutdown signal. Starting graceful shutdown...")

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancelShutdown()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logx.Error(err, "Server forced to shutdown")
	}

	hub.Shutdown()
	if err := hub.Drain(shutdownCtx); err != nil {
		logx.Warn("Some connections did not close before the shutdown deadline.")
	}

	logx.Info("Server gracefully stopped.")
}
