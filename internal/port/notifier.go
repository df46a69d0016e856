package port

import "github.com/rl1809/storefront/internal/core/domain"

type Notifier interface {
	// Notify hands a notification to the sink, which owns its expiry
	Notify(n domain.Notification)
}
