package service

import (
	"context"
	"math/rand/v2"
	"regexp"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/storefront/internal/core/domain"
)

var fixedNow = time.Date(2026, time.October, 17, 12, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return fixedNow }

func validRequest(amount string) domain.PaymentRequest {
	return domain.PaymentRequest{
		Amount:   decimal.RequireFromString(amount),
		Currency: "USD",
		Method:   domain.MethodCreditCard,
		Card: &domain.CardDetails{
			Number:      "4242424242424242",
			ExpiryMonth: 12,
			ExpiryYear:  2028,
			CVV:         "123",
			HolderName:  "Ana Perez",
			Type:        domain.CardVisa,
		},
		Customer: domain.CustomerInfo{Email: "ana@example.com", Name: "Ana Perez"},
	}
}

func newTestPayments(rnd Random, sleeper *recordingSleeper) *PaymentService {
	return NewPaymentService(DefaultPaymentConfig(),
		WithRandom(rnd),
		WithSleeper(sleeper.sleep),
		WithClock(fixedClock),
	)
}

func TestProcessPayment_Success(t *testing.T) {
	sleeper := &recordingSleeper{}
	svc := newTestPayments(&scriptedRandom{floats: []float64{0.5}}, sleeper)

	res := svc.ProcessPayment(context.Background(), validRequest("59.98"))

	require.True(t, res.Success)
	assert.Equal(t, "TXN-1792238400000-000000", res.TransactionID)
	assert.Equal(t, fixedNow, res.ProcessedAt)
	assertMoney(t, "59.98", res.Amount)
	assert.Equal(t, "USD", res.Currency)
	assert.Equal(t, domain.MethodCreditCard, res.Method)
	assert.Empty(t, res.ErrorCode)
	assert.Equal(t, []time.Duration{2 * time.Second}, sleeper.calls)
}

func TestProcessPayment_TransactionIDFormat(t *testing.T) {
	svc := NewPaymentService(DefaultPaymentConfig(),
		WithRandom(rand.New(rand.NewPCG(1, 2))),
		WithSleeper((&recordingSleeper{}).sleep),
	)
	pattern := regexp.MustCompile(`^TXN-\d+-[0-9A-Z]{6}$`)

	for i := 0; i < 50; i++ {
		res := svc.ProcessPayment(context.Background(), validRequest("20.00"))
		if res.Success {
			assert.Regexp(t, pattern, res.TransactionID)
		}
	}
}

func TestProcessPayment_ValidationShortCircuits(t *testing.T) {
	sleeper := &recordingSleeper{}
	rnd := &scriptedRandom{}
	svc := newTestPayments(rnd, sleeper)

	req := validRequest("0")
	req.Customer.Email = "not-an-email"

	res := svc.ProcessPayment(context.Background(), req)

	assert.False(t, res.Success)
	assert.Equal(t, domain.CodeValidation, res.ErrorCode)
	assert.Equal(t, "Datos de pago inválidos: Monto inválido, Email inválido", res.ErrorMessage)
	assert.Zero(t, sleeper.count())
	assert.Zero(t, rnd.draws)
}

func TestProcessPayment_ValidationRules(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*domain.PaymentRequest)
		message string
	}{
		{"amount over limit", func(r *domain.PaymentRequest) { r.Amount = decimal.RequireFromString("10000.01") }, "Monto excede el límite permitido"},
		{"negative amount", func(r *domain.PaymentRequest) { r.Amount = decimal.RequireFromString("-1") }, "Monto inválido"},
		{"unknown method", func(r *domain.PaymentRequest) { r.Method = "cash"; r.Card = nil }, "Método de pago inválido"},
		{"short card number", func(r *domain.PaymentRequest) { r.Card.Number = "4242" }, "Número de tarjeta inválido"},
		{"bad cvv", func(r *domain.PaymentRequest) { r.Card.CVV = "12" }, "CVV inválido"},
		{"expired last year", func(r *domain.PaymentRequest) { r.Card.ExpiryYear = 2025 }, "Tarjeta expirada"},
		{"expired last month", func(r *domain.PaymentRequest) { r.Card.ExpiryYear = 2026; r.Card.ExpiryMonth = 9 }, "Tarjeta expirada"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sleeper := &recordingSleeper{}
			svc := newTestPayments(&scriptedRandom{}, sleeper)
			req := validRequest("50")
			tt.mutate(&req)

			res := svc.ProcessPayment(context.Background(), req)

			assert.Equal(t, domain.CodeValidation, res.ErrorCode)
			assert.Equal(t, "Datos de pago inválidos: "+tt.message, res.ErrorMessage)
			assert.Zero(t, sleeper.count())
		})
	}
}

func TestProcessPayment_CurrentMonthIsNotExpired(t *testing.T) {
	svc := newTestPayments(&scriptedRandom{floats: []float64{0.9}}, &recordingSleeper{})
	req := validRequest("50")
	req.Card.ExpiryYear = 2026
	req.Card.ExpiryMonth = 10

	assert.True(t, svc.ProcessPayment(context.Background(), req).Success)
}

func TestProcessPayment_DeclinedCardAcrossSeeds(t *testing.T) {
	for seed := uint64(0); seed < 25; seed++ {
		svc := NewPaymentService(DefaultPaymentConfig(),
			WithRandom(rand.New(rand.NewPCG(seed, seed+1))),
			WithSleeper((&recordingSleeper{}).sleep),
		)
		req := validRequest("120")
		req.Card.Number = "4000000000000002"

		res := svc.ProcessPayment(context.Background(), req)
		require.False(t, res.Success)
		assert.Equal(t, domain.CodeCardDeclined, res.ErrorCode)
		assert.Equal(t, "Tarjeta declinada por el banco emisor", res.ErrorMessage)
	}
}

func TestProcessPayment_TestCards(t *testing.T) {
	cards := map[string]domain.ErrorCode{
		"4000000000000069": domain.CodeExpiredCard,
		"4000000000000127": domain.CodeInvalidCVV,
		"4000000000000119": domain.CodeProcessingError,
		"4000000000000259": domain.CodeFraudDetected,
	}
	for number, code := range cards {
		rnd := &scriptedRandom{}
		svc := newTestPayments(rnd, &recordingSleeper{})
		req := validRequest("75")
		req.Card.Number = number

		res := svc.ProcessPayment(context.Background(), req)
		assert.Equal(t, code, res.ErrorCode, number)
		assert.Zero(t, rnd.draws, "test cards resolve before the random draw")
	}
}

func TestProcessPayment_NetworkErrorAmountAcrossSeeds(t *testing.T) {
	for seed := uint64(0); seed < 25; seed++ {
		svc := NewPaymentService(DefaultPaymentConfig(),
			WithRandom(rand.New(rand.NewPCG(seed, 7))),
			WithSleeper((&recordingSleeper{}).sleep),
		)
		req := validRequest("13.13")
		req.Method = domain.MethodPayPal
		req.Card = nil

		res := svc.ProcessPayment(context.Background(), req)
		assert.Equal(t, domain.CodeNetworkError, res.ErrorCode)
	}
}

func TestProcessPayment_InsufficientFunds(t *testing.T) {
	svc := newTestPayments(&scriptedRandom{}, &recordingSleeper{})
	req := validRequest("10000")

	res := svc.ProcessPayment(context.Background(), req)
	assert.Equal(t, domain.CodeInsufficientFunds, res.ErrorCode)
	assert.Equal(t, "Fondos insuficientes en la cuenta", res.ErrorMessage)
}

func TestProcessPayment_RandomFailure(t *testing.T) {
	rnd := &scriptedRandom{floats: []float64{0.14}, index: 2}
	svc := newTestPayments(rnd, &recordingSleeper{})

	res := svc.ProcessPayment(context.Background(), validRequest("80"))
	assert.False(t, res.Success)
	assert.Equal(t, domain.CodeInvalidCVV, res.ErrorCode)
}

func TestProcessPayment_FailureRateIsPerMethod(t *testing.T) {
	// 0.12 fails a credit card draw but passes a debit card one.
	credit := newTestPayments(&scriptedRandom{floats: []float64{0.12}}, &recordingSleeper{})
	assert.False(t, credit.ProcessPayment(context.Background(), validRequest("80")).Success)

	debit := newTestPayments(&scriptedRandom{floats: []float64{0.12}}, &recordingSleeper{})
	req := validRequest("80")
	req.Method = domain.MethodDebitCard
	assert.True(t, debit.ProcessPayment(context.Background(), req).Success)
}

func TestProcessPayment_LatencyPerMethod(t *testing.T) {
	delays := map[domain.PaymentMethod]time.Duration{
		domain.MethodCreditCard:   2 * time.Second,
		domain.MethodDebitCard:    1500 * time.Millisecond,
		domain.MethodPayPal:       3 * time.Second,
		domain.MethodBankTransfer: 4 * time.Second,
	}
	for method, want := range delays {
		sleeper := &recordingSleeper{}
		svc := newTestPayments(&scriptedRandom{}, sleeper)
		req := validRequest("30")
		req.Method = method

		svc.ProcessPayment(context.Background(), req)
		assert.Equal(t, []time.Duration{want}, sleeper.calls, method)
	}
}

type panickingRandom struct{}

func (panickingRandom) Float64() float64 { panic("entropy exhausted") }
func (panickingRandom) IntN(int) int     { panic("entropy exhausted") }

func TestProcessPayment_RecoversFromPanic(t *testing.T) {
	svc := newTestPayments(panickingRandom{}, &recordingSleeper{})

	res := svc.ProcessPayment(context.Background(), validRequest("40"))
	assert.False(t, res.Success)
	assert.Equal(t, domain.CodeInternalError, res.ErrorCode)
	assert.Equal(t, "Error interno del servidor de pagos", res.ErrorMessage)
}

func TestProcessRefund(t *testing.T) {
	sleeper := &recordingSleeper{}
	svc := newTestPayments(&scriptedRandom{floats: []float64{0.5}}, sleeper)

	res := svc.ProcessRefund(context.Background(), "TXN-1-ABCDEF", decimal.RequireFromString("25"))
	require.True(t, res.Success)
	assert.Equal(t, "REF-TXN-1792238400000-000000", res.TransactionID)
	assert.Equal(t, "USD", res.Currency)
	assertMoney(t, "25", res.Amount)
	assert.Equal(t, []time.Duration{1500 * time.Millisecond}, sleeper.calls)

	failing := newTestPayments(&scriptedRandom{floats: []float64{0.97}}, &recordingSleeper{})
	res = failing.ProcessRefund(context.Background(), "TXN-1-ABCDEF", decimal.RequireFromString("25"))
	assert.False(t, res.Success)
	assert.Equal(t, domain.CodeRefundError, res.ErrorCode)
}

func TestPaymentConfig_Scaled(t *testing.T) {
	base := DefaultPaymentConfig()
	scaled := base.Scaled(0.5)

	assert.Equal(t, time.Second, scaled.Delays[domain.MethodCreditCard])
	assert.Equal(t, 750*time.Millisecond, scaled.RefundDelay)
	assert.Equal(t, 2*time.Second, base.Delays[domain.MethodCreditCard], "base config untouched")
}
