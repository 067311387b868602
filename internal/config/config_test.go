package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestSplitList(t *testing.T) {
	assert.Equal(t, []string{"http://a", "http://b"}, splitList(" http://a , ,http://b"))
	assert.Nil(t, splitList(""))
}

func TestLoadReadsEnvironment(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("ORDER_STATUS_POLICY", "STRICT")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")
	t.Setenv("JWT_ACCESS_EXPIRY", "20")

	cfg := Load()

	assert.Equal(t, "9090", cfg.Server.Port)
	assert.Equal(t, "strict", cfg.Orders.StatusPolicy)
	assert.Equal(t, 30*time.Second, cfg.RateLimit.Window)
	assert.Equal(t, 20*time.Minute, cfg.JWT.AccessTTL())
	assert.Equal(t, 10, cfg.Orders.LowStockThreshold)
}
