// Package lock provides the per-payment mutual exclusion used by webhook processing and
// client-triggered syncs.
package lock

import (
	"context"
	"errors"
	"time"
)

// ErrNotAcquired is returned when the lock stays held by someone else for the whole wait.
var ErrNotAcquired = errors.New("lock not acquired")

// Lease is a held lock. Release is safe to call more than once.
type Lease interface {
	Key() string
	Release(ctx context.Context) error
}

// Locker hands out exclusive leases on keys.
type Locker interface {
	// Acquire blocks until the key is free, ctx is done, or wait elapses.
	// The lease expires on its own after ttl if never released.
	Acquire(ctx context.Context, key string, ttl, wait time.Duration) (Lease, error)
}

// PaymentKey is the one locking key for a payment.
func PaymentKey(merchantID, paymentID string) string {
	return "lock:payment:" + merchantID + ":" + paymentID
}
