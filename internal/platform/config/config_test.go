package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestFromEnv_Defaults(t *testing.T) {
	t.Setenv("APLITE_ADDR", "")
	t.Setenv("DRAFT_STORE", "")
	t.Setenv("KAFKA_BROKERS", "")

	cfg := FromEnv()

	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.Equal(t, DraftStoreMemory, cfg.Drafts.Store)
	assert.Equal(t, 3, cfg.Backend.MaxAttempts)
	assert.Equal(t, 200*time.Millisecond, cfg.Backend.BaseDelay)
	assert.Empty(t, cfg.Kafka.Brokers)
	assert.NotEmpty(t, cfg.Server.JWTSigningKey)
	assert.True(t, cfg.Limits.Enabled)
	assert.Equal(t, 10, cfg.Limits.Sensitive)
}

func TestFromEnv_Overrides(t *testing.T) {
	t.Setenv("APLITE_ADDR", ":9090")
	t.Setenv("DRAFT_STORE", "Redis")
	t.Setenv("DRAFT_TTL", "2h")
	t.Setenv("ONBOARDING_API_URL", "https://api.aplite.test/")
	t.Setenv("ONBOARDING_API_MAX_ATTEMPTS", "5")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,")
	t.Setenv("SECURE_COOKIES", "true")
	t.Setenv("RATE_LIMIT_SENSITIVE", "3")
	t.Setenv("RATE_LIMIT_WINDOW", "30s")

	cfg := FromEnv()

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, DraftStoreRedis, cfg.Drafts.Store)
	assert.Equal(t, 2*time.Hour, cfg.Drafts.TTL)
	assert.Equal(t, "https://api.aplite.test", cfg.Backend.BaseURL)
	assert.Equal(t, 5, cfg.Backend.MaxAttempts)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Server.SecureCookies)
	assert.Equal(t, 3, cfg.Limits.Sensitive)
	assert.Equal(t, 30*time.Second, cfg.Limits.Window)
}

func TestFromEnv_IgnoresMalformedNumbers(t *testing.T) {
	t.Setenv("ONBOARDING_API_MAX_ATTEMPTS", "three")
	t.Setenv("ONBOARDING_API_TIMEOUT", "soon")

	cfg := FromEnv()

	assert.Equal(t, 3, cfg.Backend.MaxAttempts)
	assert.Equal(t, 15*time.Second, cfg.Backend.Timeout)
}
