package port

import (
	"context"

	"github.com/rl1809/storefront/internal/core/domain"
)

type CartStore interface {
	// Snapshot returns the current lines and totals
	Snapshot() domain.Cart

	// Clear empties the cart and returns the resulting snapshot
	Clear(ctx context.Context) domain.Cart
}
