package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

const checkoutCurrency = "USD"

const tracerName = "github.com/rl1809/storefront/internal/core/service"

type CheckoutState string

const (
	CheckoutIdle       CheckoutState = "idle"
	CheckoutValidating CheckoutState = "validating"
	CheckoutProcessing CheckoutState = "processing"
	CheckoutSucceeded  CheckoutState = "succeeded"
	CheckoutFailed     CheckoutState = "failed"
)

var (
	ErrCheckoutInProgress = errors.New("checkout already in progress")
	ErrEmptyCart          = errors.New("cart is empty")
	ErrInvalidRefund      = errors.New("refund requires a transaction id and a positive amount")
)

// PaymentError is returned when the processor declines a payment or refund.
type PaymentError struct {
	Code    domain.ErrorCode
	Message string
}

func (e *PaymentError) Error() string {
	return fmt.Sprintf("payment failed: %s: %s", e.Code, e.Message)
}

type CheckoutOption func(*CheckoutService)

func WithOrderRepository(repo port.OrderRepository) CheckoutOption {
	return func(s *CheckoutService) { s.orders = repo }
}

func WithEventPublisher(pub port.EventPublisher) CheckoutOption {
	return func(s *CheckoutService) { s.events = pub }
}

func WithCheckoutLogger(log *zap.Logger) CheckoutOption {
	return func(s *CheckoutService) { s.log = log }
}

func WithCheckoutClock(now func() time.Time) CheckoutOption {
	return func(s *CheckoutService) { s.now = now }
}

// CheckoutService drives one checkout attempt at a time from form
// validation to payment and cart clearing.
type CheckoutService struct {
	cart     port.CartStore
	payments port.PaymentProcessor
	notifier port.Notifier
	orders   port.OrderRepository
	events   port.EventPublisher
	now      func() time.Time
	log      *zap.Logger

	mu    sync.Mutex
	state CheckoutState
}

func NewCheckoutService(cart port.CartStore, payments port.PaymentProcessor, notifier port.Notifier, opts ...CheckoutOption) *CheckoutService {
	s := &CheckoutService{
		cart:     cart,
		payments: payments,
		notifier: notifier,
		now:      time.Now,
		log:      zap.NewNop(),
		state:    CheckoutIdle,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *CheckoutService) State() CheckoutState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *CheckoutService) setState(state CheckoutState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}

// begin moves Idle to Validating, refusing when another attempt is running.
func (s *CheckoutService) begin() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != CheckoutIdle {
		return false
	}
	s.state = CheckoutValidating
	return true
}

func (s *CheckoutService) Checkout(ctx context.Context, form domain.CheckoutForm) (domain.OrderConfirmation, error) {
	if !s.begin() {
		return domain.OrderConfirmation{}, ErrCheckoutInProgress
	}
	defer s.setState(CheckoutIdle)

	ctx, span := otel.Tracer(tracerName).Start(ctx, "checkout",
		trace.WithAttributes(attribute.String("payment.method", string(form.Payment.Method))))
	defer span.End()

	cart := s.cart.Snapshot()
	if cart.IsEmpty() {
		s.notify(checkoutEmptyCart())
		span.SetStatus(codes.Error, ErrEmptyCart.Error())
		return domain.OrderConfirmation{}, ErrEmptyCart
	}

	if err := form.Validate(s.now()); err != nil {
		s.notify(checkoutIncompleteForm())
		span.RecordError(err)
		span.SetStatus(codes.Error, "invalid form")
		return domain.OrderConfirmation{}, err
	}

	s.setState(CheckoutProcessing)
	s.notify(paymentProcessing())

	req := buildPaymentRequest(cart, form)
	span.SetAttributes(
		attribute.String("payment.amount", req.Amount.String()),
		attribute.Int("cart.items", cart.ItemCount),
	)

	result := s.payments.ProcessPayment(ctx, req)
	if !result.Success {
		s.setState(CheckoutFailed)
		s.notify(paymentFailed(result.ErrorMessage))
		s.log.Info("checkout failed",
			zap.String("code", string(result.ErrorCode)),
			zap.String("message", result.ErrorMessage),
		)
		span.SetStatus(codes.Error, string(result.ErrorCode))
		return domain.OrderConfirmation{}, &PaymentError{Code: result.ErrorCode, Message: result.ErrorMessage}
	}

	s.setState(CheckoutSucceeded)
	s.notify(paymentSucceeded(req.Amount))
	s.cart.Clear(ctx)

	span.SetAttributes(attribute.String("payment.transaction_id", result.TransactionID))
	s.log.Info("checkout succeeded",
		zap.String("transaction_id", result.TransactionID),
		zap.String("total", req.Amount.String()),
	)

	s.archive(ctx, result, cart, req)

	return domain.OrderConfirmation{OrderID: result.TransactionID, Total: req.Amount}, nil
}

// archive records the paid order and announces it. Failures here never undo
// the payment.
func (s *CheckoutService) archive(ctx context.Context, result domain.PaymentResult, cart domain.Cart, req domain.PaymentRequest) {
	createdAt := result.ProcessedAt
	if createdAt.IsZero() {
		createdAt = s.now()
	}

	if s.orders != nil {
		order := domain.Order{
			ID:            result.TransactionID,
			CustomerEmail: req.Customer.Email,
			CustomerName:  req.Customer.Name,
			Method:        req.Method,
			Currency:      req.Currency,
			Subtotal:      cart.Subtotal,
			Tax:           cart.Tax,
			Shipping:      cart.Shipping,
			Total:         req.Amount,
			Items:         req.Items,
			Status:        domain.OrderStatusPaid,
			CreatedAt:     createdAt,
		}
		if err := s.orders.SaveOrder(ctx, order); err != nil {
			s.log.Error("archive order", zap.String("order_id", order.ID), zap.Error(err))
		}
	}

	if s.events != nil {
		event := domain.OrderPaidEvent{
			EventID:       uuid.NewString(),
			OrderID:       result.TransactionID,
			Type:          domain.EventOrderPaid,
			Amount:        req.Amount,
			Currency:      req.Currency,
			CustomerEmail: req.Customer.Email,
			ItemCount:     cart.ItemCount,
			OccurredAt:    createdAt,
		}
		if err := s.events.PublishOrderPaid(ctx, event); err != nil {
			s.log.Error("publish order paid", zap.String("order_id", event.OrderID), zap.Error(err))
		}
	}
}

func (s *CheckoutService) Refund(ctx context.Context, transactionID string, amount decimal.Decimal) (domain.PaymentResult, error) {
	transactionID = strings.TrimSpace(transactionID)
	if transactionID == "" || !amount.IsPositive() {
		return domain.PaymentResult{}, ErrInvalidRefund
	}

	ctx, span := otel.Tracer(tracerName).Start(ctx, "refund",
		trace.WithAttributes(attribute.String("payment.transaction_id", transactionID)))
	defer span.End()

	result := s.payments.ProcessRefund(ctx, transactionID, amount)
	if !result.Success {
		s.notify(refundFailed(result.ErrorMessage))
		span.SetStatus(codes.Error, string(result.ErrorCode))
		return result, &PaymentError{Code: result.ErrorCode, Message: result.ErrorMessage}
	}

	s.notify(refundSucceeded(amount))

	if s.orders != nil {
		if err := s.orders.UpdateOrderStatus(ctx, transactionID, domain.OrderStatusRefunded); err != nil && !errors.Is(err, domain.ErrOrderNotFound) {
			s.log.Error("mark order refunded", zap.String("order_id", transactionID), zap.Error(err))
		}
	}

	return result, nil
}

func buildPaymentRequest(cart domain.Cart, form domain.CheckoutForm) domain.PaymentRequest {
	items := make([]domain.OrderItem, len(cart.Lines))
	for i, l := range cart.Lines {
		items[i] = domain.OrderItem{
			ProductID:   l.Product.ID,
			ProductName: l.Product.Name,
			Quantity:    l.Quantity,
			UnitPrice:   l.Product.Price,
			TotalPrice:  l.LineTotal,
		}
	}

	ship := form.Shipping
	return domain.PaymentRequest{
		Amount:   cart.Total,
		Currency: checkoutCurrency,
		Method:   form.Payment.Method,
		Card:     form.Payment.Card(),
		Customer: domain.CustomerInfo{
			Email: ship.Email,
			Name:  strings.TrimSpace(ship.FirstName + " " + ship.LastName),
			Phone: ship.Phone,
		},
		Shipping: ship,
		Items:    items,
	}
}

func (s *CheckoutService) notify(n domain.Notification) {
	if s.notifier != nil {
		s.notifier.Notify(n)
	}
}
