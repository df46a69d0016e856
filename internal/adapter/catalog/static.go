package catalog

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/rl1809/storefront/internal/core/domain"
)

var seedProducts = []domain.Product{
	{
		ID:          1,
		Name:        "Smartphone Pro Max",
		Price:       decimal.RequireFromString("999.99"),
		Category:    "electronics",
		Image:       "https://images.unsplash.com/photo-1511707171634-5f897ff02aa9?w=500&h=500&fit=crop",
		Description: "El smartphone más avanzado con tecnología de punta, diseño elegante y rendimiento excepcional.",
		Rating:      4.5,
		Reviews:     128,
		InStock:     true,
		StockCount:  15,
	},
	{
		ID:          2,
		Name:        "Laptop Gaming",
		Price:       decimal.RequireFromString("1299.99"),
		Category:    "electronics",
		Image:       "https://images.unsplash.com/photo-1496181133206-80ce9b88a853?w=500&h=500&fit=crop",
		Description: "Laptop para gaming de alto rendimiento con las mejores especificaciones.",
		Rating:      4.8,
		Reviews:     89,
		InStock:     true,
		StockCount:  8,
	},
	{
		ID:          3,
		Name:        "Auriculares Inalámbricos",
		Price:       decimal.RequireFromString("29.99"),
		Category:    "electronics",
		Description: "Auriculares bluetooth con cancelación de ruido y 30 horas de batería.",
		Rating:      4.3,
		Reviews:     212,
		InStock:     true,
		StockCount:  40,
	},
	{
		ID:          4,
		Name:        "Chaqueta Impermeable",
		Price:       decimal.RequireFromString("89.50"),
		Category:    "clothing",
		Description: "Chaqueta ligera y transpirable para lluvia y viento.",
		Rating:      4.1,
		Reviews:     54,
		InStock:     true,
		StockCount:  20,
	},
	{
		ID:          5,
		Name:        "Lámpara de Escritorio",
		Price:       decimal.RequireFromString("40.00"),
		Category:    "home",
		Description: "Lámpara LED regulable con puerto de carga USB.",
		Rating:      4.6,
		Reviews:     73,
		InStock:     true,
		StockCount:  12,
	},
	{
		ID:          6,
		Name:        "Balón de Fútbol",
		Price:       decimal.RequireFromString("13.13"),
		Category:    "sports",
		Description: "Balón oficial tamaño 5 cosido a máquina.",
		Rating:      4.4,
		Reviews:     31,
		InStock:     true,
		StockCount:  3,
	},
}

var seedCategories = []domain.Category{
	{ID: "electronics", Name: "Electrónicos", Icon: "devices", Image: "https://images.unsplash.com/photo-1498049794561-7780e7231661?w=300&h=200&fit=crop"},
	{ID: "clothing", Name: "Ropa", Icon: "checkroom", Image: "https://images.unsplash.com/photo-1441986300917-64674bd600d8?w=300&h=200&fit=crop"},
	{ID: "home", Name: "Hogar", Icon: "home", Image: "https://images.unsplash.com/photo-1586023492125-27b2c045efd7?w=300&h=200&fit=crop"},
	{ID: "sports", Name: "Deportes", Icon: "sports_soccer", Image: "https://images.unsplash.com/photo-1571019613454-1cb2f99b2d8b?w=300&h=200&fit=crop"},
}

// Static is the built-in catalog, also used to seed MySQL.
type Static struct{}

func NewStatic() Static {
	return Static{}
}

func (Static) ListProducts(ctx context.Context) ([]domain.Product, error) {
	out := make([]domain.Product, len(seedProducts))
	copy(out, seedProducts)
	return out, nil
}

func (Static) ListCategories(ctx context.Context) ([]domain.Category, error) {
	out := make([]domain.Category, len(seedCategories))
	copy(out, seedCategories)
	return out, nil
}
