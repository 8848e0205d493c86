package outgoing

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	skafka "github.com/segmentio/kafka-go"

	"paymentswitch/internal/domain/event"
)

// Writer is the subset of kafka.Writer the notifier needs.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...skafka.Message) error
	Close() error
}

// KafkaNotifier publishes notifications as JSON messages keyed by object id,
// so every update of one object lands on the same partition.
type KafkaNotifier struct {
	writer     Writer
	maxElapsed time.Duration
}

func NewKafkaNotifier(brokers []string, topic string) *KafkaNotifier {
	w := &skafka.Writer{
		Addr:         skafka.TCP(brokers...),
		Topic:        topic,
		Balancer:     &skafka.Hash{},
		RequiredAcks: skafka.RequireAll,
	}
	return NewKafkaNotifierWithWriter(w)
}

// NewKafkaNotifierWithWriter allows injecting a test writer.
func NewKafkaNotifierWithWriter(w Writer) *KafkaNotifier {
	return &KafkaNotifier{writer: w, maxElapsed: 5 * time.Second}
}

func (k *KafkaNotifier) Notify(ctx context.Context, class event.Class, objectID string, snapshot any, createdAt time.Time) error {
	content, err := json.Marshal(snapshot)
	if err != nil {
		return fmt.Errorf("failed to encode %s snapshot: %w", class, err)
	}
	ev := Event{
		EventID:   uuid.NewString(),
		Class:     class,
		ObjectID:  objectID,
		Content:   content,
		CreatedAt: createdAt.UTC(),
	}
	var m struct {
		MerchantID string `json:"merchant_id"`
	}
	if json.Unmarshal(content, &m) == nil {
		ev.MerchantID = m.MerchantID
	}
	value, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode outgoing event: %w", err)
	}
	msg := skafka.Message{
		Key:   []byte(objectID),
		Value: value,
		Headers: []skafka.Header{
			{Key: "event_class", Value: []byte(class)},
		},
		Time: ev.CreatedAt,
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxElapsedTime = k.maxElapsed
	op := func() error {
		return k.writer.WriteMessages(ctx, msg)
	}
	notify := func(err error, d time.Duration) {
		log.Warn().Err(err).Str("object_id", objectID).Dur("retry_in", d).Msg("kafka write failed, retrying")
	}
	if err := backoff.RetryNotify(op, backoff.WithContext(b, ctx), notify); err != nil {
		log.Error().Err(err).Str("event_class", string(class)).Str("object_id", objectID).Msg("failed to publish outgoing webhook")
		return fmt.Errorf("failed to publish %s event for %s: %w", class, objectID, err)
	}

	log.Debug().
		Str("event_id", ev.EventID).
		Str("event_class", string(class)).
		Str("object_id", objectID).
		Msg("published outgoing webhook")
	return nil
}

func (k *KafkaNotifier) Close() error {
	return k.writer.Close()
}
