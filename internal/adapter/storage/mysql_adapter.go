package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/rl1809/storefront/internal/core/domain"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS categories (
		id VARCHAR(64) PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		icon VARCHAR(64) NOT NULL DEFAULT '',
		image VARCHAR(512) NOT NULL DEFAULT '',
		position INT NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS products (
		id BIGINT PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		price DECIMAL(12,2) NOT NULL,
		category VARCHAR(64) NOT NULL,
		image VARCHAR(512) NOT NULL DEFAULT '',
		description TEXT,
		rating DOUBLE NOT NULL DEFAULT 0,
		reviews INT NOT NULL DEFAULT 0,
		in_stock BOOLEAN NOT NULL DEFAULT TRUE,
		stock_count INT NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS orders (
		id VARCHAR(64) PRIMARY KEY,
		customer_email VARCHAR(255) NOT NULL,
		customer_name VARCHAR(255) NOT NULL,
		payment_method VARCHAR(32) NOT NULL,
		currency CHAR(3) NOT NULL,
		subtotal DECIMAL(12,4) NOT NULL,
		tax DECIMAL(12,4) NOT NULL,
		shipping DECIMAL(12,4) NOT NULL,
		total DECIMAL(12,4) NOT NULL,
		status VARCHAR(16) NOT NULL,
		created_at DATETIME(3) NOT NULL
	)`,
	`CREATE TABLE IF NOT EXISTS order_items (
		order_id VARCHAR(64) NOT NULL,
		line_no INT NOT NULL,
		product_id BIGINT NOT NULL,
		product_name VARCHAR(255) NOT NULL,
		quantity INT NOT NULL,
		unit_price DECIMAL(12,2) NOT NULL,
		total_price DECIMAL(12,4) NOT NULL,
		PRIMARY KEY (order_id, line_no)
	)`,
}

// MySQLAdapter serves the catalog and archives paid orders.
type MySQLAdapter struct {
	db *sql.DB
}

func NewMySQLAdapter(db *sql.DB) *MySQLAdapter {
	return &MySQLAdapter{db: db}
}

func (m *MySQLAdapter) EnsureSchema(ctx context.Context) error {
	for _, stmt := range schema {
		if _, err := m.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema: %w", err)
		}
	}
	return nil
}

func (m *MySQLAdapter) ListProducts(ctx context.Context) ([]domain.Product, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, name, price, category, image, COALESCE(description, ''),
			rating, reviews, in_stock, stock_count
		FROM products ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf("query products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Category, &p.Image, &p.Description,
			&p.Rating, &p.Reviews, &p.InStock, &p.StockCount); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}

	return products, rows.Err()
}

func (m *MySQLAdapter) ListCategories(ctx context.Context) ([]domain.Category, error) {
	rows, err := m.db.QueryContext(ctx, `
		SELECT id, name, icon, image FROM categories ORDER BY position, id`)
	if err != nil {
		return nil, fmt.Errorf("query categories: %w", err)
	}
	defer rows.Close()

	var categories []domain.Category
	for rows.Next() {
		var c domain.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.Icon, &c.Image); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, c)
	}

	return categories, rows.Err()
}

// SeedCatalog inserts products and categories that are not present yet.
func (m *MySQLAdapter) SeedCatalog(ctx context.Context, products []domain.Product, categories []domain.Category) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	for i, c := range categories {
		if _, err := tx.ExecContext(ctx, `
			INSERT IGNORE INTO categories (id, name, icon, image, position)
			VALUES (?, ?, ?, ?, ?)`,
			c.ID, c.Name, c.Icon, c.Image, i,
		); err != nil {
			return fmt.Errorf("insert category: %w", err)
		}
	}

	for _, p := range products {
		if _, err := tx.ExecContext(ctx, `
			INSERT IGNORE INTO products
				(id, name, price, category, image, description, rating, reviews, in_stock, stock_count)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			p.ID, p.Name, p.Price, p.Category, p.Image, p.Description,
			p.Rating, p.Reviews, p.InStock, p.StockCount,
		); err != nil {
			return fmt.Errorf("insert product: %w", err)
		}
	}

	return tx.Commit()
}

func (m *MySQLAdapter) SaveOrder(ctx context.Context, order domain.Order) error {
	tx, err := m.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO orders (id, customer_email, customer_name, payment_method, currency,
			subtotal, tax, shipping, total, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		order.ID, order.CustomerEmail, order.CustomerName, order.Method, order.Currency,
		order.Subtotal, order.Tax, order.Shipping, order.Total, order.Status, order.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i, item := range order.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (order_id, line_no, product_id, product_name, quantity, unit_price, total_price)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			order.ID, i, item.ProductID, item.ProductName, item.Quantity, item.UnitPrice, item.TotalPrice,
		)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	return tx.Commit()
}

func (m *MySQLAdapter) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	var o domain.Order
	err := m.db.QueryRowContext(ctx, `
		SELECT id, customer_email, customer_name, payment_method, currency,
			subtotal, tax, shipping, total, status, created_at
		FROM orders WHERE id = ?`, id,
	).Scan(&o.ID, &o.CustomerEmail, &o.CustomerName, &o.Method, &o.Currency,
		&o.Subtotal, &o.Tax, &o.Shipping, &o.Total, &o.Status, &o.CreatedAt)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, domain.ErrOrderNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("query order: %w", err)
	}

	rows, err := m.db.QueryContext(ctx, `
		SELECT product_id, product_name, quantity, unit_price, total_price
		FROM order_items WHERE order_id = ? ORDER BY line_no`, id)
	if err != nil {
		return nil, fmt.Errorf("query order items: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ProductID, &item.ProductName, &item.Quantity, &item.UnitPrice, &item.TotalPrice); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		o.Items = append(o.Items, item)
	}

	return &o, rows.Err()
}

func (m *MySQLAdapter) UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	result, err := m.db.ExecContext(ctx, `UPDATE orders SET status = ? WHERE id = ?`, status, id)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	if rows > 0 {
		return nil
	}

	// MySQL reports changed rows, not matched ones, so an unchanged status
	// also yields zero.
	var exists int
	err = m.db.QueryRowContext(ctx, `SELECT 1 FROM orders WHERE id = ?`, id).Scan(&exists)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.ErrOrderNotFound
	}
	if err != nil {
		return fmt.Errorf("check order exists: %w", err)
	}

	return nil
}
