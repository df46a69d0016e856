package service

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/rl1809/storefront/internal/core/domain"
)

// NotificationCenter keeps the live notifications and removes each one
// once its TTL elapses.
type NotificationCenter struct {
	mu            sync.Mutex
	notifications []domain.Notification
	timers        map[string]*time.Timer
	now           func() time.Time
	log           *zap.Logger
}

func NewNotificationCenter(log *zap.Logger) *NotificationCenter {
	if log == nil {
		log = zap.NewNop()
	}
	return &NotificationCenter{
		timers: make(map[string]*time.Timer),
		now:    time.Now,
		log:    log,
	}
}

func (c *NotificationCenter) Notify(n domain.Notification) {
	if n.ID == "" {
		n.ID = uuid.NewString()
	}
	n.CreatedAt = c.now()

	c.mu.Lock()
	defer c.mu.Unlock()

	c.notifications = append(c.notifications, n)
	if n.TTL > 0 {
		id := n.ID
		c.timers[id] = time.AfterFunc(n.TTL, func() { c.expire(id) })
	}

	c.log.Debug("notification emitted",
		zap.String("id", n.ID),
		zap.String("type", string(n.Type)),
		zap.String("title", n.Title),
	)
}

// Dismiss removes a notification before its TTL elapses.
func (c *NotificationCenter) Dismiss(id string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t, ok := c.timers[id]; ok {
		t.Stop()
		delete(c.timers, id)
	}
	return c.remove(id)
}

func (c *NotificationCenter) List() []domain.Notification {
	c.mu.Lock()
	defer c.mu.Unlock()

	out := make([]domain.Notification, len(c.notifications))
	copy(out, c.notifications)
	return out
}

func (c *NotificationCenter) ClearAll() {
	c.mu.Lock()
	defer c.mu.Unlock()

	for id, t := range c.timers {
		t.Stop()
		delete(c.timers, id)
	}
	c.notifications = nil
}

func (c *NotificationCenter) expire(id string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.timers, id)
	c.remove(id)
}

// remove expects c.mu to be held.
func (c *NotificationCenter) remove(id string) bool {
	for i, n := range c.notifications {
		if n.ID == id {
			next := make([]domain.Notification, 0, len(c.notifications)-1)
			next = append(next, c.notifications[:i]...)
			c.notifications = append(next, c.notifications[i+1:]...)
			return true
		}
	}
	return false
}
