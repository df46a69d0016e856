package domain

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

var (
	emailPattern   = regexp.MustCompile(`^[^\s@]+@[^\s@]+\.[^\s@]+$`)
	phonePattern   = regexp.MustCompile(`^\d{10}$`)
	zipPattern     = regexp.MustCompile(`^\d{5}$`)
	cardPattern    = regexp.MustCompile(`^\d{16}$`)
	cvvFormPattern = regexp.MustCompile(`^\d{3,4}$`)
)

func ValidEmail(email string) bool {
	return emailPattern.MatchString(email)
}

type PaymentForm struct {
	Method         PaymentMethod `json:"method"`
	CardNumber     string        `json:"cardNumber"`
	CardType       CardType      `json:"cardType"`
	ExpiryMonth    int           `json:"expiryMonth"`
	ExpiryYear     int           `json:"expiryYear"`
	CVV            string        `json:"cvv"`
	CardHolderName string        `json:"cardHolderName"`
}

// CheckoutForm is what the customer submits to start a checkout.
type CheckoutForm struct {
	Shipping     ShippingAddress `json:"shipping"`
	Payment      PaymentForm     `json:"payment"`
	AgreeToTerms bool            `json:"agreeToTerms"`
}

type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

type ValidationError struct {
	Fields []FieldError `json:"fields"`
}

func (e *ValidationError) Error() string {
	names := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		names[i] = f.Field
	}
	return "invalid checkout form: " + strings.Join(names, ", ")
}

type formChecker struct {
	errs []FieldError
}

func (c *formChecker) fail(field, msg string) {
	c.errs = append(c.errs, FieldError{Field: field, Message: msg})
}

// text checks a required string with an optional minimum length and pattern.
// Only the first failing rule is reported for a field.
func (c *formChecker) text(field, value string, minLen int, pattern *regexp.Regexp, patternMsg string) {
	value = strings.TrimSpace(value)
	switch {
	case value == "":
		c.fail(field, "Este campo es requerido")
	case minLen > 0 && len([]rune(value)) < minLen:
		c.fail(field, fmt.Sprintf("Mínimo %d caracteres", minLen))
	case pattern != nil && !pattern.MatchString(value):
		c.fail(field, patternMsg)
	}
}

// Validate reports every invalid field, or nil when the form can be submitted.
// Card fields are only required for card methods.
func (f CheckoutForm) Validate(now time.Time) error {
	var c formChecker

	s := f.Shipping
	c.text("shipping.firstName", s.FirstName, 2, nil, "")
	c.text("shipping.lastName", s.LastName, 2, nil, "")
	c.text("shipping.email", s.Email, 0, emailPattern, "Ingrese un email válido")
	c.text("shipping.phone", s.Phone, 0, phonePattern, "Ingrese un teléfono válido (10 dígitos)")
	c.text("shipping.address", s.Address, 10, nil, "")
	c.text("shipping.city", s.City, 2, nil, "")
	c.text("shipping.state", s.State, 0, nil, "")
	c.text("shipping.zipCode", s.ZipCode, 0, zipPattern, "Ingrese un código postal válido (5 dígitos)")
	c.text("shipping.country", s.Country, 0, nil, "")

	p := f.Payment
	if !p.Method.Valid() {
		c.fail("payment.method", "Este campo es requerido")
	}

	if p.Method.IsCard() {
		c.text("payment.cardNumber", p.CardNumber, 0, cardPattern, "Ingrese un número de tarjeta válido (16 dígitos)")
		c.text("payment.cardType", string(p.CardType), 0, nil, "")
		c.text("payment.cvv", p.CVV, 0, cvvFormPattern, "Ingrese un CVV válido (3-4 dígitos)")
		c.text("payment.cardHolderName", p.CardHolderName, 2, nil, "")

		switch {
		case p.ExpiryMonth == 0:
			c.fail("payment.expiryMonth", "Este campo es requerido")
		case p.ExpiryMonth < 1 || p.ExpiryMonth > 12:
			c.fail("payment.expiryMonth", "Mes inválido")
		}
		switch {
		case p.ExpiryYear == 0:
			c.fail("payment.expiryYear", "Este campo es requerido")
		case p.ExpiryYear < now.Year():
			c.fail("payment.expiryYear", "Año inválido")
		}
	}

	if !f.AgreeToTerms {
		c.fail("agreeToTerms", "Debe aceptar los términos y condiciones")
	}

	if len(c.errs) > 0 {
		return &ValidationError{Fields: c.errs}
	}
	return nil
}

// Card returns the card details carried by the payment request, nil for
// non-card methods.
func (p PaymentForm) Card() *CardDetails {
	if !p.Method.IsCard() {
		return nil
	}
	return &CardDetails{
		Number:      strings.TrimSpace(p.CardNumber),
		ExpiryMonth: p.ExpiryMonth,
		ExpiryYear:  p.ExpiryYear,
		CVV:         strings.TrimSpace(p.CVV),
		HolderName:  strings.TrimSpace(p.CardHolderName),
		Type:        p.CardType,
	}
}
