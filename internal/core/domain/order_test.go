package domain

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseConfirmation(t *testing.T) {
	conf, err := ParseConfirmation("TXN-1-ABCDEF", "78.97")
	require.NoError(t, err)
	assert.Equal(t, "TXN-1-ABCDEF", conf.OrderID)
	assert.True(t, decimal.RequireFromString("78.97").Equal(conf.Total))

	for _, tc := range [][2]string{{"", "10"}, {"TXN-1", ""}, {"TXN-1", "abc"}, {"TXN-1", "-3"}} {
		_, err := ParseConfirmation(tc[0], tc[1])
		assert.ErrorIs(t, err, ErrInvalidConfirmation, "%v", tc)
	}
}

func TestOrderConfirmation_QueryParams(t *testing.T) {
	conf := OrderConfirmation{OrderID: "TXN-9", Total: decimal.RequireFromString("78.967")}
	q := conf.QueryParams()

	assert.Equal(t, "TXN-9", q.Get("orderId"))
	assert.Equal(t, "78.97", q.Get("total"))

	back, err := ParseConfirmation(q.Get("orderId"), q.Get("total"))
	require.NoError(t, err)
	assert.Equal(t, "TXN-9", back.OrderID)
}

func TestPaymentMethod(t *testing.T) {
	assert.True(t, MethodCreditCard.IsCard())
	assert.True(t, MethodDebitCard.IsCard())
	assert.False(t, MethodPayPal.IsCard())
	assert.False(t, PaymentMethod("wire").Valid())

	info, ok := MethodBankTransfer.Info()
	require.True(t, ok)
	assert.Equal(t, "Transferencia Bancaria", info.DisplayName)
}
