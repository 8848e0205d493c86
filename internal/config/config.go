package config

import (
	"encoding/base64"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

const EnvDevelopment = "development"

type AppCfg struct{ Env, Port string }
type DBCfg struct {
	DSN      string
	MaxConns int32
}
type RedisCfg struct {
	Addr, Password, Prefix string
	DB                     int
}
type KafkaCfg struct {
	Brokers []string
	Topic   string
}

type SecurityCfg struct {
	AESKey     []byte
	AdminToken string // guards /admin
}

// UCSCfg is the unified connector service endpoint and rollout.
type UCSCfg struct {
	Enabled          bool
	BaseURL, APIKey  string
	Connectors       []string
	ShadowConnectors []string
	Merchants        []string
}

type WebhookCfg struct {
	AckOnNotFound        []string
	OutboundVerification []string
	LockTTL, LockWait    time.Duration
	SecretCacheTTL       time.Duration
	PollStatusTTL        time.Duration
}

type ConnectorCfg struct {
	HTTPTimeout     time.Duration
	AdyenCheckout   string
	AdyenPayout     string
	AdyenDispute    string
	StripeBaseURL   string
	StripeTolerance time.Duration
}

type Cfg struct {
	App        AppCfg
	DB         DBCfg
	Redis      RedisCfg
	Kafka      KafkaCfg
	Sec        SecurityCfg
	UCS        UCSCfg
	Webhooks   WebhookCfg
	Connectors ConnectorCfg
}

// Load reads .env (if present) and the process environment.
func Load() (Cfg, error) {
	if err := godotenv.Load(".env"); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("failed to read .env")
	}

	v := viper.New()
	v.AutomaticEnv()
	v.SetDefault("APP_ENV", "sandbox")
	v.SetDefault("APP_PORT", "8080")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("REDIS_PREFIX", "paymentswitch:")
	v.SetDefault("KAFKA_TOPIC", "outgoing-webhooks")
	v.SetDefault("WEBHOOK_LOCK_TTL", "30s")
	v.SetDefault("WEBHOOK_LOCK_WAIT", "5s")
	v.SetDefault("WEBHOOK_SECRET_CACHE_TTL", "5m")
	v.SetDefault("WEBHOOK_POLL_STATUS_TTL", "15m")
	v.SetDefault("CONNECTOR_HTTP_TIMEOUT", "30s")
	v.SetDefault("STRIPE_TOLERANCE", "5m")

	var key []byte
	if s := strings.TrimSpace(v.GetString("AES_256_KEY_BASE64")); s != "" {
		k, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return Cfg{}, fmt.Errorf("AES_256_KEY_BASE64 is not base64: %w", err)
		}
		key = k
	}

	cfg := Cfg{
		App: AppCfg{
			Env:  v.GetString("APP_ENV"),
			Port: v.GetString("APP_PORT"),
		},
		DB: DBCfg{
			DSN:      v.GetString("DB_DSN"),
			MaxConns: v.GetInt32("DB_MAX_CONNS"),
		},
		Redis: RedisCfg{
			Addr:     v.GetString("REDIS_ADDR"),
			Password: v.GetString("REDIS_PASSWORD"),
			DB:       v.GetInt("REDIS_DB"),
			Prefix:   v.GetString("REDIS_PREFIX"),
		},
		Kafka: KafkaCfg{
			Brokers: list(v, "KAFKA_BROKERS"),
			Topic:   v.GetString("KAFKA_TOPIC"),
		},
		Sec: SecurityCfg{
			AESKey:     key,
			AdminToken: strings.TrimSpace(v.GetString("ADMIN_TOKEN")),
		},
		UCS: UCSCfg{
			Enabled:          v.GetBool("UCS_ENABLED"),
			BaseURL:          v.GetString("UCS_BASE_URL"),
			APIKey:           v.GetString("UCS_API_KEY"),
			Connectors:       list(v, "UCS_CONNECTORS"),
			ShadowConnectors: list(v, "UCS_SHADOW_CONNECTORS"),
			Merchants:        list(v, "UCS_MERCHANTS"),
		},
		Webhooks: WebhookCfg{
			AckOnNotFound:        list(v, "WEBHOOK_ACK_ON_NOT_FOUND"),
			OutboundVerification: list(v, "WEBHOOK_OUTBOUND_VERIFICATION"),
			LockTTL:              v.GetDuration("WEBHOOK_LOCK_TTL"),
			LockWait:             v.GetDuration("WEBHOOK_LOCK_WAIT"),
			SecretCacheTTL:       v.GetDuration("WEBHOOK_SECRET_CACHE_TTL"),
			PollStatusTTL:        v.GetDuration("WEBHOOK_POLL_STATUS_TTL"),
		},
		Connectors: ConnectorCfg{
			HTTPTimeout:     v.GetDuration("CONNECTOR_HTTP_TIMEOUT"),
			AdyenCheckout:   v.GetString("ADYEN_CHECKOUT_URL"),
			AdyenPayout:     v.GetString("ADYEN_PAYOUT_URL"),
			AdyenDispute:    v.GetString("ADYEN_DISPUTE_URL"),
			StripeBaseURL:   v.GetString("STRIPE_BASE_URL"),
			StripeTolerance: v.GetDuration("STRIPE_TOLERANCE"),
		},
	}
	return cfg, cfg.Validate()
}

// Validate fails fast on settings the process cannot run without.
func (c Cfg) Validate() error {
	if c.DB.DSN == "" && c.App.Env != EnvDevelopment {
		return errors.New("DB_DSN is required outside development")
	}
	if len(c.Sec.AESKey) != 32 {
		return errors.New("AES_256_KEY_BASE64 must be a valid 32-byte base64 key")
	}
	if c.UCS.Enabled && c.UCS.BaseURL == "" {
		return errors.New("UCS_BASE_URL is required when UCS_ENABLED is set")
	}
	if len(c.Kafka.Brokers) > 0 && c.Kafka.Topic == "" {
		return errors.New("KAFKA_TOPIC is required with KAFKA_BROKERS")
	}
	return nil
}

// list reads a comma separated setting.
func list(v *viper.Viper, key string) []string {
	var out []string
	for _, s := range strings.Split(v.GetString(key), ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}
