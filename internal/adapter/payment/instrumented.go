package payment

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
	"github.com/rl1809/storefront/pkg/metrics"
)

const codeOK = "OK"

// Instrumented records outcome counts and latency for every call to the
// wrapped processor.
type Instrumented struct {
	next    port.PaymentProcessor
	metrics *metrics.PaymentMetrics
}

func NewInstrumented(next port.PaymentProcessor, m *metrics.PaymentMetrics) *Instrumented {
	return &Instrumented{next: next, metrics: m}
}

func (p *Instrumented) ProcessPayment(ctx context.Context, req domain.PaymentRequest) domain.PaymentResult {
	start := time.Now()
	result := p.next.ProcessPayment(ctx, req)
	p.observe("payment", string(req.Method), result, start)
	return result
}

func (p *Instrumented) ProcessRefund(ctx context.Context, transactionID string, amount decimal.Decimal) domain.PaymentResult {
	start := time.Now()
	result := p.next.ProcessRefund(ctx, transactionID, amount)
	p.observe("refund", "", result, start)
	return result
}

func (p *Instrumented) observe(op, method string, result domain.PaymentResult, start time.Time) {
	code := codeOK
	if !result.Success {
		code = string(result.ErrorCode)
	}
	p.metrics.Outcomes.WithLabelValues(op, method, code).Inc()
	p.metrics.LatencyMS.WithLabelValues(op, method).Observe(float64(time.Since(start).Milliseconds()))
}
