package config_test

import (
	"encoding/base64"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"paymentswitch/internal/config"
)

var aesKey = base64.StdEncoding.EncodeToString([]byte("0123456789abcdef0123456789abcdef"))

func TestLoad(t *testing.T) {
	t.Setenv("APP_ENV", config.EnvDevelopment)
	t.Setenv("AES_256_KEY_BASE64", aesKey)
	t.Setenv("UCS_ENABLED", "true")
	t.Setenv("UCS_BASE_URL", "http://ucs:8000")
	t.Setenv("UCS_SHADOW_CONNECTORS", "adyen, stripe")
	t.Setenv("WEBHOOK_ACK_ON_NOT_FOUND", "adyen")
	t.Setenv("WEBHOOK_LOCK_WAIT", "2s")

	cfg, err := config.Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.App.Port)
	assert.Len(t, cfg.Sec.AESKey, 32)
	assert.True(t, cfg.UCS.Enabled)
	assert.Equal(t, []string{"adyen", "stripe"}, cfg.UCS.ShadowConnectors)
	assert.Empty(t, cfg.UCS.Connectors)
	assert.Equal(t, []string{"adyen"}, cfg.Webhooks.AckOnNotFound)
	assert.Equal(t, 2*time.Second, cfg.Webhooks.LockWait)
	assert.Equal(t, 30*time.Second, cfg.Webhooks.LockTTL)
	assert.Equal(t, 5*time.Minute, cfg.Webhooks.SecretCacheTTL)
}

func TestValidate(t *testing.T) {
	valid := config.Cfg{
		App: config.AppCfg{Env: "sandbox"},
		DB:  config.DBCfg{DSN: "postgres://localhost/switch"},
		Sec: config.SecurityCfg{AESKey: make([]byte, 32)},
	}
	require.NoError(t, valid.Validate())

	tests := []struct {
		name   string
		mutate func(*config.Cfg)
	}{
		{name: "missing dsn", mutate: func(c *config.Cfg) { c.DB.DSN = "" }},
		{name: "short key", mutate: func(c *config.Cfg) { c.Sec.AESKey = make([]byte, 16) }},
		{name: "ucs without url", mutate: func(c *config.Cfg) { c.UCS.Enabled = true }},
		{name: "kafka without topic", mutate: func(c *config.Cfg) { c.Kafka.Brokers = []string{"localhost:9092"} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := valid
			tt.mutate(&c)
			assert.Error(t, c.Validate())
		})
	}

	dev := valid
	dev.App.Env = config.EnvDevelopment
	dev.DB.DSN = ""
	assert.NoError(t, dev.Validate())
}
