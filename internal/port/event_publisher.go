package port

import (
	"context"

	"github.com/rl1809/storefront/internal/core/domain"
)

type EventPublisher interface {
	PublishOrderPaid(ctx context.Context, event domain.OrderPaidEvent) error
}
