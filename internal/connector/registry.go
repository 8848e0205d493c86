package connector

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"paymentswitch/internal/domain/merchant"

	"github.com/rs/zerolog/log"
)

// AccountLookup finds merchant-connector-accounts.
type AccountLookup interface {
	FindConnectorAccount(ctx context.Context, merchantID, mcaID string) (*merchant.ConnectorAccount, error)
	FindConnectorAccountByName(ctx context.Context, merchantID, connector string) (*merchant.ConnectorAccount, error)
}

// Info contains metadata about a registered connector
type Info struct {
	Name                  string            `json:"name"`
	CaptureSyncMethod     CaptureSyncMethod `json:"capture_sync_method"`
	VerificationMandatory bool              `json:"webhook_verification_mandatory"`
	SignatureAlgorithm    string            `json:"webhook_signature_algorithm"`
}

// Registry maps connector names to adapters. It is filled once at startup.
type Registry struct {
	adapters map[string]Adapter
	mu       sync.RWMutex
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{adapters: make(map[string]Adapter)}
}

// Register adds an adapter under its ID.
func (r *Registry) Register(a Adapter) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.adapters[a.ID()] = a
	log.Info().
		Str("connector", a.ID()).
		Str("capture_sync", string(a.CaptureSyncMethod())).
		Bool("verification_mandatory", a.IsWebhookSourceVerificationMandatory()).
		Msg("registered connector")
}

// Get returns an adapter by connector name
func (r *Registry) Get(name string) (Adapter, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.adapters[name]
	if !ok {
		return nil, &Error{
			Code:         CodeConnectorNotFound,
			Message:      "connector not registered",
			ConnectorErr: name,
		}
	}
	return a, nil
}

// Resolve turns a webhook path segment (a connector name, or a merchant-connector-account
// id) into the adapter and the merchant's account for it.
func (r *Registry) Resolve(ctx context.Context, accounts AccountLookup, merchantID, segment string) (Adapter, *merchant.ConnectorAccount, error) {
	var (
		acct *merchant.ConnectorAccount
		err  error
	)
	if merchant.IsAccountID(segment) {
		acct, err = accounts.FindConnectorAccount(ctx, merchantID, segment)
	} else {
		acct, err = accounts.FindConnectorAccountByName(ctx, merchantID, segment)
	}
	if err != nil {
		return nil, nil, fmt.Errorf("resolve connector account %s: %w", segment, err)
	}
	a, err := r.Get(acct.ConnectorName)
	if err != nil {
		return nil, nil, err
	}
	return a, acct, nil
}

// Names returns all registered connector names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.adapters))
	for n := range r.adapters {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Info returns metadata about a connector.
func (r *Registry) Info(name string) (*Info, error) {
	a, err := r.Get(name)
	if err != nil {
		return nil, err
	}
	return infoOf(a), nil
}

// AllInfo returns metadata about all registered connectors.
func (r *Registry) AllInfo() []*Info {
	infos := make([]*Info, 0)
	for _, n := range r.Names() {
		if a, err := r.Get(n); err == nil {
			infos = append(infos, infoOf(a))
		}
	}
	return infos
}

func infoOf(a Adapter) *Info {
	return &Info{
		Name:                  a.ID(),
		CaptureSyncMethod:     a.CaptureSyncMethod(),
		VerificationMandatory: a.IsWebhookSourceVerificationMandatory(),
		SignatureAlgorithm:    string(a.WebhookSignatureAlgorithm()),
	}
}
