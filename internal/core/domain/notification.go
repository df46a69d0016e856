package domain

import (
	"encoding/json"
	"time"
)

type NotificationType string

const (
	NotificationSuccess NotificationType = "success"
	NotificationError   NotificationType = "error"
	NotificationWarning NotificationType = "warning"
	NotificationInfo    NotificationType = "info"
)

var defaultTTL = map[NotificationType]time.Duration{
	NotificationSuccess: 5 * time.Second,
	NotificationError:   7 * time.Second,
	NotificationWarning: 6 * time.Second,
	NotificationInfo:    5 * time.Second,
}

type Notification struct {
	ID        string           `json:"id"`
	Type      NotificationType `json:"type"`
	Title     string           `json:"title"`
	Message   string           `json:"message"`
	TTL       time.Duration    `json:"-"`
	CreatedAt time.Time        `json:"timestamp"`
}

// NewNotification builds a notification with the default lifetime for its type.
// ID and CreatedAt are assigned by the sink.
func NewNotification(t NotificationType, title, message string) Notification {
	return Notification{Type: t, Title: title, Message: message, TTL: defaultTTL[t]}
}

func (n Notification) WithTTL(ttl time.Duration) Notification {
	n.TTL = ttl
	return n
}

type notificationAlias Notification

// notificationJSON carries the lifetime as whole milliseconds under "duration".
type notificationJSON struct {
	notificationAlias
	DurationMS int64 `json:"duration"`
}

func (n Notification) MarshalJSON() ([]byte, error) {
	return json.Marshal(notificationJSON{
		notificationAlias: notificationAlias(n),
		DurationMS:        n.TTL.Milliseconds(),
	})
}

func (n *Notification) UnmarshalJSON(data []byte) error {
	var v notificationJSON
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*n = Notification(v.notificationAlias)
	n.TTL = time.Duration(v.DurationMS) * time.Millisecond
	return nil
}
