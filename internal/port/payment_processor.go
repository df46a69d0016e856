package port

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/rl1809/storefront/internal/core/domain"
)

type PaymentProcessor interface {
	// ProcessPayment always resolves to a result; failures are encoded in it
	ProcessPayment(ctx context.Context, req domain.PaymentRequest) domain.PaymentResult

	// ProcessRefund refunds a previously settled transaction
	ProcessRefund(ctx context.Context, transactionID string, amount decimal.Decimal) domain.PaymentResult
}
