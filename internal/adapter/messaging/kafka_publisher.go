package messaging

import (
	"context"
	"fmt"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/pkg/kafka"
)

// KafkaPublisher announces paid orders on a topic, keyed by order id so all
// events of one order land on the same partition.
type KafkaPublisher struct {
	writer kafka.MessageWriter
}

func NewKafkaPublisher(writer kafka.MessageWriter) *KafkaPublisher {
	return &KafkaPublisher{writer: writer}
}

func (p *KafkaPublisher) PublishOrderPaid(ctx context.Context, event domain.OrderPaidEvent) error {
	if err := kafka.PublishJSON(ctx, p.writer, event.OrderID, event.Type, event); err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	return nil
}
