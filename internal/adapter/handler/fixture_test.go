package handler

import (
	"context"
	"time"

	"github.com/rl1809/storefront/internal/adapter/catalog"
	"github.com/rl1809/storefront/internal/adapter/storage"
	"github.com/rl1809/storefront/internal/core/service"
)

// fixedRandom approves every payment and refund under the default rates.
type fixedRandom struct{}

func (fixedRandom) Float64() float64 { return 0.5 }
func (fixedRandom) IntN(int) int     { return 0 }

type testStack struct {
	store         *storage.MemoryStore
	catalog       *service.CatalogService
	cart          *service.CartService
	checkout      *service.CheckoutService
	notifications *service.NotificationCenter
}

func newTestStack() *testStack {
	store := storage.NewMemoryStore()
	notifications := service.NewNotificationCenter(nil)
	cart := service.NewCartService(store, notifications, nil)
	payments := service.NewPaymentService(service.DefaultPaymentConfig(),
		service.WithRandom(fixedRandom{}),
		service.WithSleeper(func(context.Context, time.Duration) {}),
	)
	checkout := service.NewCheckoutService(cart, payments, notifications,
		service.WithOrderRepository(store),
	)

	return &testStack{
		store:         store,
		catalog:       service.NewCatalogService(catalog.NewStatic()),
		cart:          cart,
		checkout:      checkout,
		notifications: notifications,
	}
}
