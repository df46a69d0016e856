package service

import (
	"context"
	"math/rand/v2"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/rl1809/storefront/internal/core/domain"
)

// Random is the entropy the simulator draws from. *rand.Rand satisfies it.
type Random interface {
	Float64() float64
	IntN(n int) int
}

// Sleeper blocks for the simulated processing latency.
type Sleeper func(ctx context.Context, d time.Duration)

type globalRandom struct{}

func (globalRandom) Float64() float64 { return rand.Float64() }
func (globalRandom) IntN(n int) int   { return rand.IntN(n) }

func sleep(_ context.Context, d time.Duration) {
	time.Sleep(d)
}

var (
	cardNumberPattern = regexp.MustCompile(`^\d{16}$`)
	cvvPattern        = regexp.MustCompile(`^\d{3,4}$`)
)

// Test card numbers that force a specific outcome.
var cardOutcomes = map[string]domain.ErrorCode{
	"4000000000000002": domain.CodeCardDeclined,
	"4000000000000069": domain.CodeExpiredCard,
	"4000000000000127": domain.CodeInvalidCVV,
	"4000000000000119": domain.CodeProcessingError,
	"4000000000000259": domain.CodeFraudDetected,
}

var randomFailures = []domain.ErrorCode{
	domain.CodeCardDeclined,
	domain.CodeExpiredCard,
	domain.CodeInvalidCVV,
	domain.CodeProcessingError,
	domain.CodeFraudDetected,
}

var (
	insufficientFundsAbove = decimal.RequireFromString("9999.99")
	networkErrorAmount     = decimal.RequireFromString("13.13")
)

const transactionAlphabet = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZ"

type PaymentConfig struct {
	FailureRates      map[domain.PaymentMethod]float64
	Delays            map[domain.PaymentMethod]time.Duration
	RefundDelay       time.Duration
	RefundSuccessRate float64
	MaxAmount         decimal.Decimal
}

func DefaultPaymentConfig() PaymentConfig {
	return PaymentConfig{
		FailureRates: map[domain.PaymentMethod]float64{
			domain.MethodCreditCard:   0.15,
			domain.MethodDebitCard:    0.10,
			domain.MethodPayPal:       0.05,
			domain.MethodBankTransfer: 0.02,
		},
		Delays: map[domain.PaymentMethod]time.Duration{
			domain.MethodCreditCard:   2 * time.Second,
			domain.MethodDebitCard:    1500 * time.Millisecond,
			domain.MethodPayPal:       3 * time.Second,
			domain.MethodBankTransfer: 4 * time.Second,
		},
		RefundDelay:       1500 * time.Millisecond,
		RefundSuccessRate: 0.95,
		MaxAmount:         decimal.NewFromInt(10000),
	}
}

// Scaled returns a copy with every latency multiplied by factor.
func (c PaymentConfig) Scaled(factor float64) PaymentConfig {
	delays := make(map[domain.PaymentMethod]time.Duration, len(c.Delays))
	for m, d := range c.Delays {
		delays[m] = time.Duration(float64(d) * factor)
	}
	c.Delays = delays
	c.RefundDelay = time.Duration(float64(c.RefundDelay) * factor)
	return c
}

type PaymentOption func(*PaymentService)

func WithRandom(r Random) PaymentOption {
	return func(s *PaymentService) { s.rnd = r }
}

func WithSleeper(fn Sleeper) PaymentOption {
	return func(s *PaymentService) { s.sleep = fn }
}

func WithClock(now func() time.Time) PaymentOption {
	return func(s *PaymentService) { s.now = now }
}

func WithPaymentLogger(log *zap.Logger) PaymentOption {
	return func(s *PaymentService) { s.log = log }
}

// PaymentService simulates a payment gateway. It never returns an error:
// every failure is encoded in the PaymentResult.
type PaymentService struct {
	cfg   PaymentConfig
	rnd   Random
	sleep Sleeper
	now   func() time.Time
	log   *zap.Logger
}

func NewPaymentService(cfg PaymentConfig, opts ...PaymentOption) *PaymentService {
	s := &PaymentService{
		cfg:   cfg,
		rnd:   globalRandom{},
		sleep: sleep,
		now:   time.Now,
		log:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *PaymentService) ProcessPayment(ctx context.Context, req domain.PaymentRequest) (result domain.PaymentResult) {
	defer func() {
		if r := recover(); r != nil {
			s.log.Error("payment processing panicked", zap.Any("panic", r))
			result = domain.FailedPayment(domain.CodeInternalError)
		}
	}()

	if violations := s.validate(req); len(violations) > 0 {
		s.log.Info("payment rejected", zap.Strings("violations", violations))
		return domain.PaymentResult{
			ErrorCode:    domain.CodeValidation,
			ErrorMessage: "Datos de pago inválidos: " + strings.Join(violations, ", "),
		}
	}

	s.sleep(ctx, s.cfg.Delays[req.Method])

	if code, failed := s.determineOutcome(req); failed {
		s.log.Info("payment declined",
			zap.String("method", string(req.Method)),
			zap.String("code", string(code)),
		)
		return domain.FailedPayment(code)
	}

	txn := s.transactionID()
	s.log.Info("payment approved",
		zap.String("transaction_id", txn),
		zap.String("method", string(req.Method)),
		zap.String("amount", req.Amount.String()),
	)

	return domain.PaymentResult{
		Success:       true,
		TransactionID: txn,
		ProcessedAt:   s.now(),
		Amount:        req.Amount,
		Currency:      req.Currency,
		Method:        req.Method,
	}
}

func (s *PaymentService) ProcessRefund(ctx context.Context, transactionID string, amount decimal.Decimal) domain.PaymentResult {
	s.sleep(ctx, s.cfg.RefundDelay)

	if s.rnd.Float64() >= s.cfg.RefundSuccessRate {
		s.log.Warn("refund failed", zap.String("transaction_id", transactionID))
		return domain.FailedPayment(domain.CodeRefundError)
	}

	refundID := "REF-" + s.transactionID()
	s.log.Info("refund processed",
		zap.String("transaction_id", transactionID),
		zap.String("refund_id", refundID),
	)

	return domain.PaymentResult{
		Success:       true,
		TransactionID: refundID,
		ProcessedAt:   s.now(),
		Amount:        amount,
		Currency:      "USD",
	}
}

func (s *PaymentService) validate(req domain.PaymentRequest) []string {
	var violations []string

	if !req.Amount.IsPositive() {
		violations = append(violations, "Monto inválido")
	}
	if req.Amount.GreaterThan(s.cfg.MaxAmount) {
		violations = append(violations, "Monto excede el límite permitido")
	}
	if !req.Method.Valid() {
		violations = append(violations, "Método de pago inválido")
	}

	if req.Method.IsCard() && req.Card != nil {
		card := req.Card
		if !cardNumberPattern.MatchString(card.Number) {
			violations = append(violations, "Número de tarjeta inválido")
		}
		if !cvvPattern.MatchString(card.CVV) {
			violations = append(violations, "CVV inválido")
		}

		now := s.now()
		year, month := now.Year(), int(now.Month())
		if card.ExpiryYear < year || (card.ExpiryYear == year && card.ExpiryMonth < month) {
			violations = append(violations, "Tarjeta expirada")
		}
	}

	if !domain.ValidEmail(req.Customer.Email) {
		violations = append(violations, "Email inválido")
	}

	return violations
}

// determineOutcome applies test cards first, then amount triggers, and only
// then draws against the method's failure rate.
func (s *PaymentService) determineOutcome(req domain.PaymentRequest) (domain.ErrorCode, bool) {
	if req.Card != nil {
		if code, ok := cardOutcomes[req.Card.Number]; ok {
			return code, true
		}
	}

	if req.Amount.GreaterThan(insufficientFundsAbove) {
		return domain.CodeInsufficientFunds, true
	}
	if req.Amount.Equal(networkErrorAmount) {
		return domain.CodeNetworkError, true
	}

	if s.rnd.Float64() < s.cfg.FailureRates[req.Method] {
		return randomFailures[s.rnd.IntN(len(randomFailures))], true
	}

	return "", false
}

func (s *PaymentService) transactionID() string {
	var b strings.Builder
	b.WriteString("TXN-")
	b.WriteString(strconv.FormatInt(s.now().UnixMilli(), 10))
	b.WriteByte('-')
	for range 6 {
		b.WriteByte(transactionAlphabet[s.rnd.IntN(len(transactionAlphabet))])
	}
	return b.String()
}
