package domain

import (
	"errors"
	"net/url"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusPaid     OrderStatus = "paid"
	OrderStatusRefunded OrderStatus = "refunded"
)

// Order is the archived record of a successful checkout. Its ID is the
// payment transaction id.
type Order struct {
	ID            string
	CustomerEmail string
	CustomerName  string
	Method        PaymentMethod
	Currency      string
	Subtotal      decimal.Decimal
	Tax           decimal.Decimal
	Shipping      decimal.Decimal
	Total         decimal.Decimal
	Items         []OrderItem
	Status        OrderStatus
	CreatedAt     time.Time
}

var (
	ErrInvalidConfirmation = errors.New("invalid order confirmation")
	ErrOrderNotFound       = errors.New("order not found")
)

type OrderConfirmation struct {
	OrderID string          `json:"orderId"`
	Total   decimal.Decimal `json:"total"`
}

func (c OrderConfirmation) QueryParams() url.Values {
	v := url.Values{}
	v.Set("orderId", c.OrderID)
	v.Set("total", c.Total.StringFixed(2))
	return v
}

// ParseConfirmation rebuilds a confirmation from navigation parameters.
// Either parameter missing means the caller reached the results page
// without a completed checkout.
func ParseConfirmation(orderID, total string) (OrderConfirmation, error) {
	orderID = strings.TrimSpace(orderID)
	total = strings.TrimSpace(total)
	if orderID == "" || total == "" {
		return OrderConfirmation{}, ErrInvalidConfirmation
	}

	amount, err := decimal.NewFromString(total)
	if err != nil || amount.IsNegative() {
		return OrderConfirmation{}, ErrInvalidConfirmation
	}

	return OrderConfirmation{OrderID: orderID, Total: amount}, nil
}

const EventOrderPaid = "order.paid"

type OrderPaidEvent struct {
	EventID       string          `json:"event_id"`
	OrderID       string          `json:"order_id"`
	Type          string          `json:"type"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	CustomerEmail string          `json:"customer_email"`
	ItemCount     int             `json:"item_count"`
	OccurredAt    time.Time       `json:"occurred_at"`
}
