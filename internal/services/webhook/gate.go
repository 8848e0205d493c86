package webhook

import (
	"context"
	"errors"

	"paymentswitch/internal/cache"
	"paymentswitch/internal/domain/event"
)

// Gate holds the events an operator disabled per merchant and connector.
type Gate struct {
	store cache.Store
}

func NewGate(store cache.Store) *Gate {
	return &Gate{store: store}
}

func gateKey(merchantID, connectorName string, t event.Type) string {
	return "webhook:disabled:" + merchantID + ":" + connectorName + ":" + string(t)
}

// Disable stops an event from reaching business logic. It is still acknowledged.
func (g *Gate) Disable(ctx context.Context, merchantID, connectorName string, t event.Type) error {
	return g.store.Set(ctx, gateKey(merchantID, connectorName, t), []byte("1"), 0)
}

func (g *Gate) Enable(ctx context.Context, merchantID, connectorName string, t event.Type) error {
	return g.store.Delete(ctx, gateKey(merchantID, connectorName, t))
}

func (g *Gate) Disabled(ctx context.Context, merchantID, connectorName string, t event.Type) (bool, error) {
	_, err := g.store.Get(ctx, gateKey(merchantID, connectorName, t))
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, cache.ErrMiss):
		return false, nil
	}
	return false, err
}
