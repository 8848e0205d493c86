// Package outgoing hands merchant-facing notifications to the delivery subsystem.
// Delivery and retry to merchant endpoints happen downstream; this package only publishes.
package outgoing

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"paymentswitch/internal/domain/event"
)

// Notifier publishes one outgoing-webhook event per call.
type Notifier interface {
	Notify(ctx context.Context, class event.Class, objectID string, snapshot any, createdAt time.Time) error
}

// Event is the envelope published for every notification.
type Event struct {
	EventID    string          `json:"event_id"`
	MerchantID string          `json:"merchant_id,omitempty"`
	Class      event.Class     `json:"event_class"`
	ObjectID   string          `json:"object_id"`
	Content    json.RawMessage `json:"content"`
	CreatedAt  time.Time       `json:"created_at"`
}

// LogNotifier only logs. It serves local development without a broker.
type LogNotifier struct{}

func (LogNotifier) Notify(_ context.Context, class event.Class, objectID string, _ any, createdAt time.Time) error {
	log.Info().
		Str("event_class", string(class)).
		Str("object_id", objectID).
		Time("created_at", createdAt).
		Msg("outgoing webhook")
	return nil
}

// Recorded is one notification captured by a Recorder.
type Recorded struct {
	Class    event.Class
	ObjectID string
	Snapshot any
}

// Recorder keeps every notification in memory.
type Recorder struct {
	mu     sync.Mutex
	events []Recorded
}

func (r *Recorder) Notify(_ context.Context, class event.Class, objectID string, snapshot any, _ time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, Recorded{Class: class, ObjectID: objectID, Snapshot: snapshot})
	return nil
}

// Events returns a copy of what was recorded so far.
func (r *Recorder) Events() []Recorded {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Recorded(nil), r.events...)
}
