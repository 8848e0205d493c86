package webhook

import (
	"slices"
	"time"
)

// UCSConfig is the rollout of the unified connector service.
type UCSConfig struct {
	Enabled bool
	// Connectors whose webhooks go through the service only.
	Connectors []string
	// ShadowConnectors run the service next to the direct path for comparison.
	ShadowConnectors []string
	// Merchants limits the rollout. Empty means every merchant.
	Merchants []string
}

// Config of the webhook pipeline
type Config struct {
	// AckOnNotFound lists connectors whose webhooks are acknowledged when the local
	// resource does not exist.
	AckOnNotFound []string
	// OutboundVerification lists connectors verified by calling the connector back.
	OutboundVerification []string
	SecretCacheTTL       time.Duration
	PollStatusTTL        time.Duration
	UCS                  UCSConfig
}

func (c Config) acksNotFound(connectorName string) bool {
	return slices.Contains(c.AckOnNotFound, connectorName)
}

func (c Config) verifiesOutbound(connectorName string) bool {
	return slices.Contains(c.OutboundVerification, connectorName)
}

func (c Config) withDefaults() Config {
	if c.SecretCacheTTL <= 0 {
		c.SecretCacheTTL = 5 * time.Minute
	}
	if c.PollStatusTTL <= 0 {
		c.PollStatusTTL = 15 * time.Minute
	}
	return c
}
