package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfig(t *testing.T) {
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_USER", "postgres")
	t.Setenv("DB_NAME", "dropmart")
	t.Setenv("DB_PORT", "5432")
	t.Setenv("APP_PORT", "8080")
	t.Setenv("CURRENCY", "IDR")
	t.Setenv("CHECKOUT_SESSION_TTL_MINUTES", "45")

	cfg := LoadConfig()
	require.NotNil(t, cfg)

	assert.Equal(t, "localhost", cfg.DBHost)
	assert.Equal(t, "8080", cfg.AppPort)
	assert.Equal(t, "IDR", cfg.Currency)
	assert.Equal(t, 45*time.Minute, cfg.CheckoutSessionTTL)
}

func TestLoadConfig_Defaults(t *testing.T) {
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("CURRENCY", "")
	t.Setenv("DEFAULT_SHIPPING_METHOD", "")
	t.Setenv("CHECKOUT_SESSION_TTL_MINUTES", "")

	cfg := LoadConfig()

	assert.Equal(t, "USD", cfg.Currency)
	assert.Equal(t, "standard", cfg.DefaultShipMethod)
	assert.Equal(t, 30*time.Minute, cfg.CheckoutSessionTTL)
}
