package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	MethodCreditCard   PaymentMethod = "credit_card"
	MethodDebitCard    PaymentMethod = "debit_card"
	MethodPayPal       PaymentMethod = "paypal"
	MethodBankTransfer PaymentMethod = "bank_transfer"
)

var PaymentMethods = []PaymentMethod{MethodCreditCard, MethodDebitCard, MethodPayPal, MethodBankTransfer}

func (m PaymentMethod) Valid() bool {
	for _, pm := range PaymentMethods {
		if m == pm {
			return true
		}
	}
	return false
}

// IsCard reports whether the method is settled against card details.
func (m PaymentMethod) IsCard() bool {
	return strings.Contains(string(m), "card")
}

type CardType string

const (
	CardVisa       CardType = "visa"
	CardMastercard CardType = "mastercard"
	CardAmex       CardType = "amex"
	CardDiscover   CardType = "discover"
)

type CardDetails struct {
	Number      string   `json:"number"`
	ExpiryMonth int      `json:"expiryMonth"`
	ExpiryYear  int      `json:"expiryYear"`
	CVV         string   `json:"cvv"`
	HolderName  string   `json:"holderName"`
	Type        CardType `json:"type"`
}

type CustomerInfo struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Phone string `json:"phone"`
}

type ShippingAddress struct {
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Email     string `json:"email"`
	Phone     string `json:"phone"`
	Address   string `json:"address"`
	City      string `json:"city"`
	State     string `json:"state"`
	ZipCode   string `json:"zipCode"`
	Country   string `json:"country"`
}

type OrderItem struct {
	ProductID   int64           `json:"productId"`
	ProductName string          `json:"productName"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unitPrice"`
	TotalPrice  decimal.Decimal `json:"totalPrice"`
}

type PaymentRequest struct {
	Amount   decimal.Decimal `json:"amount"`
	Currency string          `json:"currency"`
	Method   PaymentMethod   `json:"paymentMethod"`
	Card     *CardDetails    `json:"cardDetails,omitempty"`
	Customer CustomerInfo    `json:"customerInfo"`
	Shipping ShippingAddress `json:"shippingAddress"`
	Items    []OrderItem     `json:"orderItems"`
}

type ErrorCode string

const (
	CodeValidation        ErrorCode = "VALIDATION_ERROR"
	CodeCardDeclined      ErrorCode = "CARD_DECLINED"
	CodeExpiredCard       ErrorCode = "EXPIRED_CARD"
	CodeInvalidCVV        ErrorCode = "INVALID_CVV"
	CodeInsufficientFunds ErrorCode = "INSUFFICIENT_FUNDS"
	CodeFraudDetected     ErrorCode = "FRAUD_DETECTED"
	CodeNetworkError      ErrorCode = "NETWORK_ERROR"
	CodeProcessingError   ErrorCode = "PROCESSING_ERROR"
	CodeInternalError     ErrorCode = "INTERNAL_ERROR"
	CodeRefundError       ErrorCode = "REFUND_ERROR"
)

var errorMessages = map[ErrorCode]string{
	CodeCardDeclined:      "Tarjeta declinada por el banco emisor",
	CodeExpiredCard:       "La tarjeta ha expirado",
	CodeInvalidCVV:        "CVV inválido",
	CodeInsufficientFunds: "Fondos insuficientes en la cuenta",
	CodeFraudDetected:     "Transacción bloqueada por seguridad. Contacte a su banco.",
	CodeNetworkError:      "Error de conectividad con el banco",
	CodeProcessingError:   "Error en el procesamiento del pago",
	CodeInternalError:     "Error interno del servidor de pagos",
	CodeRefundError:       "No se pudo procesar el reembolso. Intente más tarde.",
}

// Message returns the user-facing text for a failure code.
func (c ErrorCode) Message() string {
	return errorMessages[c]
}

type PaymentResult struct {
	Success       bool            `json:"success"`
	TransactionID string          `json:"transactionId,omitempty"`
	ProcessedAt   time.Time       `json:"processedAt,omitzero"`
	Amount        decimal.Decimal `json:"amount,omitzero"`
	Currency      string          `json:"currency,omitempty"`
	Method        PaymentMethod   `json:"paymentMethod,omitempty"`
	ErrorCode     ErrorCode       `json:"errorCode,omitempty"`
	ErrorMessage  string          `json:"errorMessage,omitempty"`
}

func FailedPayment(code ErrorCode) PaymentResult {
	return PaymentResult{ErrorCode: code, ErrorMessage: code.Message()}
}

type PaymentMethodInfo struct {
	Method         PaymentMethod `json:"method"`
	DisplayName    string        `json:"displayName"`
	ProcessingTime string        `json:"processingTime"`
	Fees           string        `json:"fees"`
}

var methodInfo = map[PaymentMethod]PaymentMethodInfo{
	MethodCreditCard:   {MethodCreditCard, "Tarjeta de Crédito", "1-2 minutos", "Sin costo adicional"},
	MethodDebitCard:    {MethodDebitCard, "Tarjeta de Débito", "30-60 segundos", "Sin costo adicional"},
	MethodPayPal:       {MethodPayPal, "PayPal", "2-3 minutos", "Sin costo adicional"},
	MethodBankTransfer: {MethodBankTransfer, "Transferencia Bancaria", "1-2 días hábiles", "Sin costo adicional"},
}

func (m PaymentMethod) Info() (PaymentMethodInfo, bool) {
	info, ok := methodInfo[m]
	return info, ok
}
