package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

const archiveTimeout = 5 * time.Second

var ErrArchiverClosed = errors.New("order archiver closed")

// OrderArchiver queues paid orders and writes them to the repository from a
// pool of workers, so checkout never waits on the database. Orders still in
// the queue are tracked so reads and status changes see them.
type OrderArchiver struct {
	repo  port.OrderRepository
	queue chan domain.Order
	log   *zap.Logger

	mu     sync.RWMutex
	closed bool
	wg     sync.WaitGroup

	pendingMu sync.Mutex
	pending   map[string]domain.Order
}

func NewOrderArchiver(repo port.OrderRepository, queueSize int, log *zap.Logger) *OrderArchiver {
	if log == nil {
		log = zap.NewNop()
	}
	return &OrderArchiver{
		repo:  repo,
		queue:   make(chan domain.Order, queueSize),
		log:     log,
		pending: make(map[string]domain.Order),
	}
}

// Start launches the workers. Close drains the queue and waits for them.
func (a *OrderArchiver) Start(workers int) {
	for i := 0; i < workers; i++ {
		a.wg.Add(1)
		go func(id int) {
			defer a.wg.Done()
			a.workerLoop(id)
		}(i)
	}
	a.log.Info("order archiver started", zap.Int("workers", workers))
}

func (a *OrderArchiver) SaveOrder(ctx context.Context, order domain.Order) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return ErrArchiverClosed
	}

	a.pendingMu.Lock()
	a.pending[order.ID] = order
	a.pendingMu.Unlock()

	select {
	case a.queue <- order:
		return nil
	case <-ctx.Done():
		a.pendingMu.Lock()
		delete(a.pending, order.ID)
		a.pendingMu.Unlock()
		return ctx.Err()
	}
}

func (a *OrderArchiver) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	a.pendingMu.Lock()
	order, ok := a.pending[id]
	a.pendingMu.Unlock()
	if ok {
		return &order, nil
	}
	return a.repo.GetOrder(ctx, id)
}

// UpdateOrderStatus changes a queued order in place; the worker writes the
// latest status when it archives it.
func (a *OrderArchiver) UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	a.pendingMu.Lock()
	if order, ok := a.pending[id]; ok {
		order.Status = status
		a.pending[id] = order
		a.pendingMu.Unlock()
		return nil
	}
	a.pendingMu.Unlock()

	return a.repo.UpdateOrderStatus(ctx, id, status)
}

func (a *OrderArchiver) Close() {
	a.mu.Lock()
	if !a.closed {
		a.closed = true
		close(a.queue)
	}
	a.mu.Unlock()
	a.wg.Wait()
}

func (a *OrderArchiver) workerLoop(id int) {
	for queued := range a.queue {
		ctx, cancel := context.WithTimeout(context.Background(), archiveTimeout)
		a.archive(ctx, id, queued)
		cancel()
	}
}

func (a *OrderArchiver) archive(ctx context.Context, worker int, queued domain.Order) {
	a.pendingMu.Lock()
	order, ok := a.pending[queued.ID]
	a.pendingMu.Unlock()
	if !ok {
		order = queued
	}

	err := a.repo.SaveOrder(ctx, order)

	// A status change may have arrived while the row was being written.
	a.pendingMu.Lock()
	latest, ok := a.pending[order.ID]
	delete(a.pending, order.ID)
	a.pendingMu.Unlock()

	if err != nil {
		a.log.Error("failed to archive order",
			zap.Int("worker", worker),
			zap.String("order_id", order.ID),
			zap.Error(err),
		)
		return
	}

	if ok && latest.Status != order.Status {
		if err := a.repo.UpdateOrderStatus(ctx, order.ID, latest.Status); err != nil {
			a.log.Error("failed to update archived order status",
				zap.Int("worker", worker),
				zap.String("order_id", order.ID),
				zap.Error(err),
			)
			return
		}
	}

	a.log.Debug("order archived", zap.Int("worker", worker), zap.String("order_id", order.ID))
}
