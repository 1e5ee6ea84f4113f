/*
Package configs is responsible for loading and parsing the application's configuration settings.

It configures server parameters by reading operating system environment variables,
including the running environment, port, CORS allowed origins, the optional database
DSN, the seeded bot profile and the chat flood-control limits.
*/
package configs

import (
	"fmt"
	"os"
	"strconv"
	"strings"
)

// Default bot profile, seeded into the presence directory at startup.
const (
	DefaultBotName      = "图灵机器人"
	DefaultBotSignature = "图灵机器人聊天API"
	DefaultBotAvatar    = "http://7xnpxz.com1.z0.glb.clouddn.com/robot.png"
)

// AppConfig contains all configuration parameters required for the application to run.
// All configuration values are loaded from environment variables.
type AppConfig struct {
	// General Server Settings
	Environment string
	Port        int
	LogLevel    string

	// Security Settings
	AllowedOrigins []string

	// Database Settings. An empty DSN skips the database bootstrap.
	DatabaseDSN string

	// Bot Settings
	BotName      string
	BotSignature string
	BotAvatar    string

	// Chat Settings
	MessageRate   float64
	MessageBurst  int
	SendQueueSize int
}

// IsDevelopment reports whether the server runs in the development environment.
func (c *AppConfig) IsDevelopment() bool {
	return c.Environment == "development"
}

// LoadConfig reads and parses the application configuration from environment variables.
// It provides default values for each configuration item and performs necessary type conversions and validation.
func LoadConfig() (*AppConfig, error) {
	cfg := &AppConfig{}

	// --- General Server Settings ---
	cfg.Environment = getEnv("ENVIRONMENT", "development")
	cfg.LogLevel = os.Getenv("LOG_LEVEL")

	port, err := getInt("PORT", 3000)
	if err != nil {
		return nil, err
	}
	cfg.Port = port

	if cfg.Port < 1024 || cfg.Port > 65535 {
		return nil, fmt.Errorf("port number %d is outside the recommended range (%d-%d) to avoid privileged ports", cfg.Port, 1024, 65535)
	}

	// --- Security Settings ---
	cfg.AllowedOrigins = splitList(os.Getenv("ALLOWED_ORIGINS"))
	if !cfg.IsDevelopment() && len(cfg.AllowedOrigins) == 0 {
		return nil, fmt.Errorf("ALLOWED_ORIGINS environment variable is required in %s environment", cfg.Environment)
	}

	// --- Database Settings ---
	cfg.DatabaseDSN = os.Getenv("DATABASE_URL")

	// --- Bot Settings ---
	cfg.BotName = getEnv("BOT_NAME", DefaultBotName)
	cfg.BotSignature = getEnv("BOT_SIGNATURE", DefaultBotSignature)
	cfg.BotAvatar = getEnv("BOT_AVATAR", DefaultBotAvatar)

	// --- Chat Settings ---
	rateStr := getEnv("CHAT_MESSAGE_RATE", "5")
	messageRate, err := strconv.ParseFloat(rateStr, 64)
	if err != nil {
		return nil, fmt.Errorf("invalid CHAT_MESSAGE_RATE environment variable: %w", err)
	}
	if messageRate <= 0 {
		return nil, fmt.Errorf("CHAT_MESSAGE_RATE must be positive, got %v", messageRate)
	}
	cfg.MessageRate = messageRate

	if cfg.MessageBurst, err = getInt("CHAT_MESSAGE_BURST", 10); err != nil {
		return nil, err
	}
	if cfg.MessageBurst < 1 {
		return nil, fmt.Errorf("CHAT_MESSAGE_BURST must be at least 1, got %d", cfg.MessageBurst)
	}

	if cfg.SendQueueSize, err = getInt("CHAT_SEND_QUEUE", 256); err != nil {
		return nil, err
	}
	if cfg.SendQueueSize < 1 {
		return nil, fmt.Errorf("CHAT_SEND_QUEUE must be at least 1, got %d", cfg.SendQueueSize)
	}

	return cfg, nil
}

func getEnv(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func getInt(key string, def int) (int, error) {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def, nil
	}

	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s environment variable: %w", key, err)
	}
	return n, nil
}

func splitList(s string) []string {
	items := []string{}
	for _, item := range strings.Split(s, ",") {
		if trimmed := strings.TrimSpace(item); trimmed != "" {
			items = append(items, trimmed)
		}
	}
	return items
}
