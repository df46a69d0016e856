package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"go.uber.org/zap"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

const cartStorageKey = "cart"

var (
	ErrStockExceeded   = errors.New("quantity exceeds available stock")
	ErrInvalidQuantity = errors.New("quantity must be at least 1")
	ErrLineNotFound    = errors.New("product not in cart")
)

// CartService owns the cart lines. Mutations are serialized and replace the
// line slice wholesale, so snapshots handed out earlier never change.
type CartService struct {
	mu       sync.Mutex
	lines    []domain.CartLine
	store    port.KeyValueStore
	notifier port.Notifier
	log      *zap.Logger
}

// NewCartService returns an empty cart. A nil store keeps the cart in memory only.
func NewCartService(store port.KeyValueStore, notifier port.Notifier, log *zap.Logger) *CartService {
	if log == nil {
		log = zap.NewNop()
	}
	return &CartService{
		lines:    []domain.CartLine{},
		store:    store,
		notifier: notifier,
		log:      log,
	}
}

func (s *CartService) AddItem(ctx context.Context, product domain.Product, quantity int) (domain.Cart, error) {
	if quantity < 1 {
		return s.Snapshot(), ErrInvalidQuantity
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(product.ID)
	candidate := quantity
	if idx >= 0 {
		candidate += s.lines[idx].Quantity
	}

	if candidate > product.StockCount {
		s.notify(stockExceeded(product))
		return domain.Summarize(s.lines), ErrStockExceeded
	}

	next := make([]domain.CartLine, len(s.lines), len(s.lines)+1)
	copy(next, s.lines)

	if idx >= 0 {
		next[idx] = domain.NewCartLine(product, candidate)
		s.commit(ctx, next)
		s.notify(cartUpdated(product.Name, candidate))
	} else {
		next = append(next, domain.NewCartLine(product, quantity))
		s.commit(ctx, next)
		s.notify(cartAdded(product.Name, quantity))
	}

	return domain.Summarize(s.lines), nil
}

// UpdateQuantity sets the quantity of an existing line. A quantity of zero
// or less removes the line.
func (s *CartService) UpdateQuantity(ctx context.Context, productID int64, quantity int) (domain.Cart, error) {
	if quantity <= 0 {
		return s.RemoveItem(ctx, productID), nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(productID)
	if idx < 0 {
		return domain.Summarize(s.lines), ErrLineNotFound
	}

	product := s.lines[idx].Product
	if quantity > product.StockCount {
		s.notify(stockExceeded(product))
		return domain.Summarize(s.lines), ErrStockExceeded
	}

	next := make([]domain.CartLine, len(s.lines))
	copy(next, s.lines)
	next[idx] = domain.NewCartLine(product, quantity)
	s.commit(ctx, next)
	s.notify(cartUpdated(product.Name, quantity))

	return domain.Summarize(s.lines), nil
}

func (s *CartService) RemoveItem(ctx context.Context, productID int64) domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(productID)
	if idx < 0 {
		return domain.Summarize(s.lines)
	}

	removed := s.lines[idx].Product
	next := make([]domain.CartLine, 0, len(s.lines)-1)
	next = append(next, s.lines[:idx]...)
	next = append(next, s.lines[idx+1:]...)
	s.commit(ctx, next)
	s.notify(cartRemoved(removed.Name))

	return domain.Summarize(s.lines)
}

func (s *CartService) Clear(ctx context.Context) domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.lines) == 0 {
		return domain.Summarize(s.lines)
	}

	s.commit(ctx, []domain.CartLine{})
	s.notify(cartCleared())

	return domain.Summarize(s.lines)
}

func (s *CartService) Snapshot() domain.Cart {
	s.mu.Lock()
	defer s.mu.Unlock()
	return domain.Summarize(s.lines)
}

func (s *CartService) Item(productID int64) (domain.CartLine, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(productID)
	if idx < 0 {
		return domain.CartLine{}, false
	}
	return s.lines[idx], true
}

func (s *CartService) Contains(productID int64) bool {
	_, ok := s.Item(productID)
	return ok
}

// LoadFromStorage restores the persisted cart once at startup. Missing data
// is a no-op; unreadable data is dropped in favour of an empty cart.
func (s *CartService) LoadFromStorage(ctx context.Context) {
	if s.store == nil {
		return
	}

	raw, ok, err := s.store.Get(ctx, cartStorageKey)
	if err != nil {
		s.log.Warn("load cart from storage", zap.Error(err))
		s.notify(storageReadFailed())
		return
	}
	if !ok {
		return
	}

	lines, err := decodeLines(raw)
	if err != nil {
		s.log.Warn("discarding unreadable cart", zap.Error(err))
		s.notify(storageReadFailed())
		s.mu.Lock()
		s.lines = []domain.CartLine{}
		s.mu.Unlock()
		return
	}

	s.mu.Lock()
	s.lines = lines
	s.mu.Unlock()
	s.log.Info("cart restored", zap.Int("lines", len(lines)))
}

func decodeLines(raw string) ([]domain.CartLine, error) {
	var stored []domain.CartLine
	if err := json.Unmarshal([]byte(raw), &stored); err != nil {
		return nil, fmt.Errorf("decode cart: %w", err)
	}

	lines := make([]domain.CartLine, 0, len(stored))
	seen := make(map[int64]bool, len(stored))
	for _, l := range stored {
		if l.Quantity < 1 || seen[l.Product.ID] {
			return nil, fmt.Errorf("decode cart: invalid line for product %d", l.Product.ID)
		}
		seen[l.Product.ID] = true
		lines = append(lines, domain.NewCartLine(l.Product, l.Quantity))
	}
	return lines, nil
}

// commit installs the new lines and runs the persistence hook. Expects s.mu held.
func (s *CartService) commit(ctx context.Context, lines []domain.CartLine) {
	s.lines = lines
	s.persist(ctx)
}

func (s *CartService) persist(ctx context.Context) {
	if s.store == nil {
		return
	}

	data, err := json.Marshal(s.lines)
	if err != nil {
		s.log.Error("encode cart", zap.Error(err))
		return
	}

	if err := s.store.Set(ctx, cartStorageKey, string(data)); err != nil {
		s.log.Warn("persist cart", zap.Error(err))
		s.notify(storageWriteFailed())
	}
}

func (s *CartService) indexOf(productID int64) int {
	for i, l := range s.lines {
		if l.Product.ID == productID {
			return i
		}
	}
	return -1
}

func (s *CartService) notify(n domain.Notification) {
	if s.notifier != nil {
		s.notifier.Notify(n)
	}
}
