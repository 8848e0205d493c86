package webhook

import (
	"slices"

	"paymentswitch/internal/ucs"
)

// Path is how a webhook body is turned into an event.
type Path string

const (
	PathDirect    Path = "direct"
	PathUCS       Path = "ucs"
	PathShadowUCS Path = "shadow_ucs"
)

// PathSelector picks the execution path per merchant and connector.
type PathSelector struct {
	cfg       UCSConfig
	available bool
}

// NewPathSelector creates a selector. Without a client every webhook goes Direct.
func NewPathSelector(cfg UCSConfig, client ucs.Client) *PathSelector {
	return &PathSelector{cfg: cfg, available: client != nil}
}

func (s *PathSelector) Select(merchantID, connectorName string) Path {
	if !s.available || !s.cfg.Enabled {
		return PathDirect
	}
	if len(s.cfg.Merchants) > 0 && !slices.Contains(s.cfg.Merchants, merchantID) {
		return PathDirect
	}
	switch {
	case slices.Contains(s.cfg.Connectors, connectorName):
		return PathUCS
	case slices.Contains(s.cfg.ShadowConnectors, connectorName):
		return PathShadowUCS
	}
	return PathDirect
}
