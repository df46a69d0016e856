package domain

import "github.com/shopspring/decimal"

var (
	TaxRate               = decimal.RequireFromString("0.15")
	FreeShippingThreshold = decimal.NewFromInt(100)
	ShippingFee           = decimal.RequireFromString("9.99")
)

// CartLine is one product's quantity within the cart. The product is
// embedded so stock limits can be enforced on later updates without a
// catalog lookup.
type CartLine struct {
	Product   Product         `json:"product"`
	Quantity  int             `json:"quantity"`
	LineTotal decimal.Decimal `json:"total"`
}

func NewCartLine(p Product, quantity int) CartLine {
	return CartLine{
		Product:   p,
		Quantity:  quantity,
		LineTotal: p.Price.Mul(decimal.NewFromInt(int64(quantity))),
	}
}

// Cart is an immutable view of the cart lines with their derived totals.
type Cart struct {
	Lines     []CartLine      `json:"items"`
	ItemCount int             `json:"itemCount"`
	Subtotal  decimal.Decimal `json:"subtotal"`
	Tax       decimal.Decimal `json:"tax"`
	Shipping  decimal.Decimal `json:"shipping"`
	Total     decimal.Decimal `json:"total"`
}

func (c Cart) IsEmpty() bool {
	return len(c.Lines) == 0
}

// Summarize copies lines and derives the aggregates from them.
func Summarize(lines []CartLine) Cart {
	out := make([]CartLine, len(lines))
	copy(out, lines)

	subtotal := decimal.Zero
	count := 0
	for _, l := range out {
		subtotal = subtotal.Add(l.LineTotal)
		count += l.Quantity
	}

	tax := subtotal.Mul(TaxRate)
	shipping := ShippingFor(subtotal)

	return Cart{
		Lines:     out,
		ItemCount: count,
		Subtotal:  subtotal,
		Tax:       tax,
		Shipping:  shipping,
		Total:     subtotal.Add(tax).Add(shipping),
	}
}

func ShippingFor(subtotal decimal.Decimal) decimal.Decimal {
	if subtotal.GreaterThan(FreeShippingThreshold) {
		return decimal.Zero
	}
	return ShippingFee
}
