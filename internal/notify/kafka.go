package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/segmentio/kafka-go"
	"github.com/segmentio/kafka-go/compress"
)

const (
	HeaderEventID       = "event-id"
	HeaderEventType     = "event-type"
	HeaderSource        = "source"
	HeaderSchemaVersion = "schema-version"

	schemaVersion = "1"
)

type KafkaConfig struct {
	Brokers      []string
	Topic        string
	Source       string
	MaxAttempts  int
	BatchTimeout time.Duration
}

type messageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
	Close() error
}

// KafkaGateway publishes booking events keyed by slot id, so confirmations
// and cancellations of one slot land on the same partition in order.
type KafkaGateway struct {
	w      messageWriter
	source string
}

func NewKafkaGateway(cfg KafkaConfig) (*KafkaGateway, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("at least one kafka broker is required")
	}
	if cfg.Topic == "" {
		return nil, errors.New("kafka topic is required")
	}
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.BatchTimeout <= 0 {
		cfg.BatchTimeout = 10 * time.Millisecond
	}

	w := &kafka.Writer{
		Addr:         kafka.TCP(cfg.Brokers...),
		Topic:        cfg.Topic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		Compression:  compress.Snappy,
		MaxAttempts:  cfg.MaxAttempts,
		BatchTimeout: cfg.BatchTimeout,
	}
	return newKafkaGateway(w, cfg.Source), nil
}

func newKafkaGateway(w messageWriter, source string) *KafkaGateway {
	if source == "" {
		source = "slotbook"
	}
	return &KafkaGateway{w: w, source: source}
}

func (g *KafkaGateway) BookingConfirmed(ctx context.Context, e Event) error {
	e.Type = EventBookingConfirmed
	return g.publish(ctx, e)
}

func (g *KafkaGateway) BookingCancelled(ctx context.Context, e Event) error {
	e.Type = EventBookingCancelled
	return g.publish(ctx, e)
}

func (g *KafkaGateway) Close() error {
	return g.w.Close()
}

func (g *KafkaGateway) publish(ctx context.Context, e Event) error {
	if e.SlotID == "" {
		return errors.New("event slot id is required")
	}
	value, err := json.Marshal(e)
	if err != nil {
		return fmt.Errorf("encode %s: %w", e.Type, err)
	}

	ts := e.OccurredAt
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	msg := kafka.Message{
		Key:   []byte(e.SlotID),
		Value: value,
		Time:  ts,
		Headers: []kafka.Header{
			{Key: HeaderEventID, Value: []byte(uuid.NewString())},
			{Key: HeaderEventType, Value: []byte(e.Type)},
			{Key: HeaderSource, Value: []byte(g.source)},
			{Key: HeaderSchemaVersion, Value: []byte(schemaVersion)},
		},
	}
	if err := g.w.WriteMessages(ctx, msg); err != nil {
		return fmt.Errorf("publish %s: %w", e.Type, err)
	}
	return nil
}
