package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	t.Setenv("JWT_SECRET", "0123456789abcdef0123456789abcdef")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("LOG_SQL", "true")
	t.Setenv("SHOP_NAME", "")
	t.Setenv("DAILY_SUMMARY_AT", "22:30")

	cfg := Load()
	require.NotNil(t, cfg)
	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.True(t, cfg.LogSQL)
	assert.Equal(t, "AONE FOOTWEAR", cfg.ShopName)
	assert.Equal(t, "22:30", cfg.DailySummaryAt)
}

func TestGetEnvBool(t *testing.T) {
	t.Setenv("FLAG_ON", "1")
	t.Setenv("FLAG_BAD", "maybe")

	assert.True(t, getEnvBool("FLAG_ON", false))
	assert.True(t, getEnvBool("FLAG_BAD", true))
	assert.False(t, getEnvBool("FLAG_UNSET", false))
}
