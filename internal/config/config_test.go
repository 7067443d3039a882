package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	config, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "info", config.Log.Level)
	assert.Equal(t, ":8080", config.Server.Addr)
	assert.Equal(t, "deepseek-chat", config.Parser.Model)
	assert.Equal(t, 30, config.Parser.TimeoutSeconds)
}

func TestLoadSecretBindings(t *testing.T) {
	t.Setenv("DEEPSEEK_API_KEY", "sk-test")
	t.Setenv("TELEGRAM_TOKEN", "12345:abc")
	t.Setenv("CRON_SECRET", "shhh")

	config, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sk-test", config.Parser.APIKey)
	assert.Equal(t, "12345:abc", config.Telegram.Token)
	assert.Equal(t, "shhh", config.Cron.Secret)
}

func TestLoadPrefixedOverrides(t *testing.T) {
	t.Setenv("FINBOT_LOG_LEVEL", "debug")
	t.Setenv("FINBOT_SERVER_ADDR", ":9090")

	config, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "debug", config.Log.Level)
	assert.Equal(t, ":9090", config.Server.Addr)
}

func TestLoadRejectsBadLogLevel(t *testing.T) {
	t.Setenv("FINBOT_LOG_LEVEL", "chatty")

	_, err := Load()
	assert.Error(t, err)
}
