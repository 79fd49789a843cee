package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoadDefaults(t *testing.T) {
	for _, key := range []string{"PORT", "MONGO_URI", "MONGO_DB", "CHECKOUT_TIMEOUT"} {
		t.Setenv(key, "")
	}

	cfg := Load()

	assert.Equal(t, "5016", cfg.Port)
	assert.Equal(t, "style-decor-db", cfg.MongoDB)
	assert.Equal(t, "mongodb://localhost:27017", cfg.MongoURI)
	assert.Equal(t, 10*time.Second, cfg.CheckoutTimeout)
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("CHECKOUT_TIMEOUT", "3s")
	t.Setenv("REDIS_DB", "2")

	cfg := Load()

	assert.Equal(t, "9000", cfg.Port)
	assert.Equal(t, 3*time.Second, cfg.CheckoutTimeout)
	assert.Equal(t, 2, cfg.RedisDB)
}

func TestLoadBadValuesFallBack(t *testing.T) {
	t.Setenv("REDIS_DB", "not-a-number")
	t.Setenv("CHECKOUT_TIMEOUT", "soon")

	cfg := Load()

	assert.Equal(t, 0, cfg.RedisDB)
	assert.Equal(t, 10*time.Second, cfg.CheckoutTimeout)
}
