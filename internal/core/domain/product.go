package domain

import "github.com/shopspring/decimal"

type Product struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	Price       decimal.Decimal `json:"price"`
	Category    string          `json:"category"`
	Image       string          `json:"image,omitempty"`
	Description string          `json:"description,omitempty"`
	Rating      float64         `json:"rating,omitempty"`
	Reviews     int             `json:"reviews,omitempty"`
	InStock     bool            `json:"inStock"`
	StockCount  int             `json:"stockCount"`
}

type Category struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Icon  string `json:"icon,omitempty"`
	Image string `json:"image,omitempty"`
}
