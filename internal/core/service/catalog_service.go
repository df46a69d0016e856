package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rl1809/storefront/internal/core/domain"
	"github.com/rl1809/storefront/internal/port"
)

const featuredCount = 4

var ErrProductNotFound = errors.New("product not found")

type CatalogService struct {
	source port.CatalogSource
}

func NewCatalogService(source port.CatalogSource) *CatalogService {
	return &CatalogService{source: source}
}

func (s *CatalogService) ListProducts(ctx context.Context) ([]domain.Product, error) {
	products, err := s.source.ListProducts(ctx)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	return products, nil
}

func (s *CatalogService) ListCategories(ctx context.Context) ([]domain.Category, error) {
	categories, err := s.source.ListCategories(ctx)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	return categories, nil
}

func (s *CatalogService) GetProduct(ctx context.Context, id int64) (domain.Product, error) {
	products, err := s.ListProducts(ctx)
	if err != nil {
		return domain.Product{}, err
	}
	for _, p := range products {
		if p.ID == id {
			return p, nil
		}
	}
	return domain.Product{}, ErrProductNotFound
}

func (s *CatalogService) ProductsByCategory(ctx context.Context, categoryID string) ([]domain.Product, error) {
	return s.filter(ctx, func(p domain.Product) bool {
		return p.Category == categoryID
	})
}

// Featured returns the first few products in catalog order.
func (s *CatalogService) Featured(ctx context.Context) ([]domain.Product, error) {
	products, err := s.ListProducts(ctx)
	if err != nil {
		return nil, err
	}
	if len(products) > featuredCount {
		products = products[:featuredCount]
	}
	return products, nil
}

// Search matches the query case-insensitively against name and description.
func (s *CatalogService) Search(ctx context.Context, query string) ([]domain.Product, error) {
	q := strings.ToLower(query)
	return s.filter(ctx, func(p domain.Product) bool {
		return strings.Contains(strings.ToLower(p.Name), q) ||
			strings.Contains(strings.ToLower(p.Description), q)
	})
}

func (s *CatalogService) filter(ctx context.Context, keep func(domain.Product) bool) ([]domain.Product, error) {
	products, err := s.ListProducts(ctx)
	if err != nil {
		return nil, err
	}

	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if keep(p) {
			out = append(out, p)
		}
	}
	return out, nil
}
