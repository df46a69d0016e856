package port

import (
	"context"

	"github.com/rl1809/storefront/internal/core/domain"
)

type CatalogSource interface {
	// ListProducts returns every product in catalog order
	ListProducts(ctx context.Context) ([]domain.Product, error)

	// ListCategories returns every category in catalog order
	ListCategories(ctx context.Context) ([]domain.Category, error)
}

type OrderRepository interface {
	// SaveOrder archives a paid order together with its line items
	SaveOrder(ctx context.Context, order domain.Order) error

	// GetOrder retrieves an archived order by transaction ID
	GetOrder(ctx context.Context, id string) (*domain.Order, error)

	// UpdateOrderStatus changes the status of an archived order
	UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) error
}
