// Package kafka builds the writer the storefront publishes order events with.
package kafka

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/segmentio/kafka-go"
)

// HeaderEventType lets consumers route a message without decoding it.
const HeaderEventType = "event-type"

const defaultBatchTimeout = 50 * time.Millisecond

type Producer struct {
	Brokers      []string
	Topic        string
	BatchTimeout time.Duration
}

// ParseBrokers splits a comma separated broker list, dropping blanks.
func ParseBrokers(list string) []string {
	var brokers []string
	for _, b := range strings.Split(list, ",") {
		if b = strings.TrimSpace(b); b != "" {
			brokers = append(brokers, b)
		}
	}
	return brokers
}

// Enabled is false when no broker is configured; the server then skips
// publishing altogether.
func (p Producer) Enabled() bool {
	return len(p.Brokers) > 0 && p.Topic != ""
}

// Writer keys messages onto partitions by hash so one order's events stay
// ordered.
func (p Producer) Writer() *kafka.Writer {
	timeout := p.BatchTimeout
	if timeout <= 0 {
		timeout = defaultBatchTimeout
	}
	return &kafka.Writer{
		Addr:                   kafka.TCP(p.Brokers...),
		Topic:                  p.Topic,
		Balancer:               &kafka.Hash{},
		RequiredAcks:           kafka.RequireAll,
		BatchTimeout:           timeout,
		AllowAutoTopicCreation: true,
	}
}

// MessageWriter is satisfied by *kafka.Writer.
type MessageWriter interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

func PublishJSON(ctx context.Context, w MessageWriter, key, eventType string, payload any) error {
	value, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s: %w", eventType, err)
	}

	return w.WriteMessages(ctx, kafka.Message{
		Key:     []byte(key),
		Value:   value,
		Headers: []kafka.Header{{Key: HeaderEventType, Value: []byte(eventType)}},
		Time:    time.Now().UTC(),
	})
}
