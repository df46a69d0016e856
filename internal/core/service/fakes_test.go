package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rl1809/storefront/internal/core/domain"
)

type recordingNotifier struct {
	mu   sync.Mutex
	sent []domain.Notification
}

func (r *recordingNotifier) Notify(n domain.Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
}

func (r *recordingNotifier) all() []domain.Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Notification, len(r.sent))
	copy(out, r.sent)
	return out
}

func (r *recordingNotifier) titles() []string {
	var out []string
	for _, n := range r.all() {
		out = append(out, n.Title)
	}
	return out
}

func (r *recordingNotifier) reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = nil
}

// Mock KeyValueStore
type mockKV struct {
	mu     sync.Mutex
	data   map[string]string
	getErr error
	setErr error
	writes int
}

func newMockKV() *mockKV {
	return &mockKV{data: make(map[string]string)}
}

func (m *mockKV) Get(ctx context.Context, key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return "", false, m.getErr
	}
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *mockKV) Set(ctx context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.writes++
	if m.setErr != nil {
		return m.setErr
	}
	m.data[key] = value
	return nil
}

var errStoreDown = errors.New("store down")

// scriptedRandom replays floats in order and answers IntN with a fixed index.
type scriptedRandom struct {
	mu     sync.Mutex
	floats []float64
	index  int
	draws  int
}

func (r *scriptedRandom) Float64() float64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.draws++
	if len(r.floats) == 0 {
		return 0.99
	}
	f := r.floats[0]
	r.floats = r.floats[1:]
	return f
}

func (r *scriptedRandom) IntN(n int) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.index % n
}

type recordingSleeper struct {
	mu    sync.Mutex
	calls []time.Duration
}

func (s *recordingSleeper) sleep(_ context.Context, d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, d)
}

func (s *recordingSleeper) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.calls)
}

// Mock PaymentProcessor
type mockProcessor struct {
	mu       sync.Mutex
	result   domain.PaymentResult
	refund   domain.PaymentResult
	requests []domain.PaymentRequest
	started  chan struct{}
	release  chan struct{}
}

func (m *mockProcessor) ProcessPayment(ctx context.Context, req domain.PaymentRequest) domain.PaymentResult {
	m.mu.Lock()
	m.requests = append(m.requests, req)
	started, release := m.started, m.release
	m.mu.Unlock()

	if started != nil {
		started <- struct{}{}
	}
	if release != nil {
		<-release
	}
	return m.result
}

func (m *mockProcessor) ProcessRefund(ctx context.Context, transactionID string, amount decimal.Decimal) domain.PaymentResult {
	return m.refund
}

func (m *mockProcessor) lastRequest() domain.PaymentRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.requests[len(m.requests)-1]
}

type mockOrders struct {
	mu      sync.Mutex
	saved   []domain.Order
	status  map[string]domain.OrderStatus
	saveErr error
	// onSave runs before the order is stored, without the lock held.
	onSave func(domain.Order)
}

func (m *mockOrders) SaveOrder(ctx context.Context, order domain.Order) error {
	m.mu.Lock()
	onSave := m.onSave
	m.mu.Unlock()
	if onSave != nil {
		onSave(order)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveErr != nil {
		return m.saveErr
	}
	m.saved = append(m.saved, order)
	return nil
}

func (m *mockOrders) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, o := range m.saved {
		if o.ID == id {
			return &o, nil
		}
	}
	return nil, domain.ErrOrderNotFound
}

func (m *mockOrders) UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.status == nil {
		m.status = make(map[string]domain.OrderStatus)
	}
	m.status[id] = status
	return nil
}

type mockPublisher struct {
	mu     sync.Mutex
	events []domain.OrderPaidEvent
	err    error
}

func (m *mockPublisher) PublishOrderPaid(ctx context.Context, event domain.OrderPaidEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.events = append(m.events, event)
	return nil
}

func product(id int64, name, price string, stock int) domain.Product {
	return domain.Product{
		ID:         id,
		Name:       name,
		Price:      decimal.RequireFromString(price),
		Category:   "electronics",
		InStock:    stock > 0,
		StockCount: stock,
	}
}
