package configs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"ENVIRONMENT", "PORT", "LOG_LEVEL", "ALLOWED_ORIGINS", "DATABASE_URL",
		"BOT_NAME", "BOT_SIGNATURE", "BOT_AVATAR",
		"CHAT_MESSAGE_RATE", "CHAT_MESSAGE_BURST", "CHAT_SEND_QUEUE",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.True(t, cfg.IsDevelopment())
	assert.Equal(t, 3000, cfg.Port)
	assert.Empty(t, cfg.AllowedOrigins)
	assert.Empty(t, cfg.DatabaseDSN)
	assert.Equal(t, DefaultBotName, cfg.BotName)
	assert.Equal(t, DefaultBotSignature, cfg.BotSignature)
	assert.Equal(t, DefaultBotAvatar, cfg.BotAvatar)
	assert.Equal(t, 5.0, cfg.MessageRate)
	assert.Equal(t, 10, cfg.MessageBurst)
	assert.Equal(t, 256, cfg.SendQueueSize)
}

func TestLoadConfigOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("ENVIRONMENT", "production")
	t.Setenv("PORT", "8081")
	t.Setenv("ALLOWED_ORIGINS", " https://a.example , ,https://b.example")
	t.Setenv("BOT_NAME", "helper")
	t.Setenv("CHAT_MESSAGE_RATE", "0.5")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.False(t, cfg.IsDevelopment())
	assert.Equal(t, 8081, cfg.Port)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.AllowedOrigins)
	assert.Equal(t, "helper", cfg.BotName)
	assert.Equal(t, 0.5, cfg.MessageRate)
}

func TestLoadConfigRejectsBadValues(t *testing.T) {
	cases := map[string]map[string]string{
		"port not a number":    {"PORT": "abc"},
		"privileged port":      {"PORT": "80"},
		"production no origin": {"ENVIRONMENT": "production"},
		"zero rate":            {"CHAT_MESSAGE_RATE": "0"},
		"bad burst":            {"CHAT_MESSAGE_BURST": "x"},
		"zero queue":           {"CHAT_SEND_QUEUE": "0"},
	}

	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			clearEnv(t)
			for k, v := range env {
				t.Setenv(k, v)
			}

			_, err := LoadConfig()
			assert.Error(t, err)
		})
	}
}
