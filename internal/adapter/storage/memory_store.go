package storage

import (
	"context"
	"sync"
	"time"

	"github.com/rl1809/storefront/internal/core/domain"
)

// MemoryStore is the single-process fallback used when Redis or MySQL are
// not configured. It covers the cart blob, idempotency keys and the order
// archive.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string
	keys   map[string]time.Time
	orders map[string]domain.Order
	now    func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		values: make(map[string]string),
		keys:   make(map[string]time.Time),
		orders: make(map[string]domain.Order),
		now:    time.Now,
	}
}

func (m *MemoryStore) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.values[key]
	return v, ok, nil
}

func (m *MemoryStore) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.values[key] = value
	return nil
}

func (m *MemoryStore) SetIdempotency(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	if expires, ok := m.keys[key]; ok && now.Before(expires) {
		return false, nil
	}
	m.keys[key] = now.Add(idempotencyKeyTTL)
	return true, nil
}

func (m *MemoryStore) ReleaseIdempotency(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.keys, key)
	return nil
}

func (m *MemoryStore) SaveOrder(ctx context.Context, order domain.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	order.Items = append([]domain.OrderItem(nil), order.Items...)
	m.orders[order.ID] = order
	return nil
}

func (m *MemoryStore) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[id]
	if !ok {
		return nil, domain.ErrOrderNotFound
	}
	return &o, nil
}

func (m *MemoryStore) UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return domain.ErrOrderNotFound
	}
	o.Status = status
	m.orders[id] = o
	return nil
}

func (m *MemoryStore) OrderCount() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.orders)
}
