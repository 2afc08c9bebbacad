// Package testutil provides an in-memory database with the CRM schema and
// seed helpers for package tests.
package testutil

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

var schema = []string{
	`CREATE TABLE customers (
		id BIGINT PRIMARY KEY,
		name VARCHAR(100) NOT NULL,
		email VARCHAR(254) NOT NULL,
		phone VARCHAR(20),
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE UNIQUE INDEX ux_customers_email ON customers(email)`,
	`CREATE TABLE products (
		id BIGINT PRIMARY KEY,
		name VARCHAR(255) NOT NULL,
		price NUMERIC(10,2) NOT NULL,
		stock INTEGER NOT NULL DEFAULT 0,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE orders (
		id BIGINT PRIMARY KEY,
		customer_id BIGINT NOT NULL REFERENCES customers(id) ON DELETE CASCADE,
		total_amount NUMERIC(10,2) NOT NULL DEFAULT 0,
		order_date DATETIME NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	)`,
	`CREATE TABLE order_items (
		id BIGINT PRIMARY KEY,
		order_id BIGINT NOT NULL REFERENCES orders(id) ON DELETE CASCADE,
		product_id BIGINT NOT NULL REFERENCES products(id),
		quantity INTEGER NOT NULL DEFAULT 1,
		unit_price NUMERIC(10,2) NOT NULL,
		total_price NUMERIC(10,2) NOT NULL,
		created_at DATETIME NOT NULL,
		UNIQUE (order_id, product_id)
	)`,
	`CREATE TABLE crm_reports (
		id BIGINT PRIMARY KEY,
		period_start DATETIME NOT NULL,
		period_end DATETIME NOT NULL,
		total_customers BIGINT NOT NULL DEFAULT 0,
		total_orders BIGINT NOT NULL DEFAULT 0,
		total_revenue NUMERIC(12,2) NOT NULL DEFAULT 0,
		average_order_value NUMERIC(12,2) NOT NULL DEFAULT 0,
		top_customers TEXT NOT NULL DEFAULT '[]',
		created_at DATETIME NOT NULL
	)`,
}

// NewDB opens a private in-memory sqlite database with the CRM tables.
func NewDB(t testing.TB) *gorm.DB {
	t.Helper()

	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	dsn := fmt.Sprintf("file:%s_%d?mode=memory&cache=shared&_pragma=foreign_keys(1)", name, time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		t.Fatalf("sql db: %v", err)
	}
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}

// NewNode returns a snowflake node for tests.
func NewNode(t testing.TB) *snowflake.Node {
	t.Helper()
	node, err := snowflake.NewNode(1)
	if err != nil {
		t.Fatalf("snowflake node: %v", err)
	}
	return node
}

// Seeder inserts rows directly, bypassing service validation.
type Seeder struct {
	db    *gorm.DB
	node  *snowflake.Node
	clock func() time.Time
}

func NewSeeder(db *gorm.DB, node *snowflake.Node) *Seeder {
	return &Seeder{db: db, node: node, clock: func() time.Time { return time.Now().UTC() }}
}

// WithClock makes seeded rows use now for their timestamps.
func (s *Seeder) WithClock(now func() time.Time) *Seeder {
	s.clock = now
	return s
}

func (s *Seeder) Customer(t testing.TB, name, email string) snowflake.ID {
	t.Helper()
	id := s.node.Generate()
	now := s.clock()
	if err := s.db.Exec(
		`INSERT INTO customers (id, name, email, created_at, updated_at) VALUES (?, ?, ?, ?, ?)`,
		id, name, email, now, now,
	).Error; err != nil {
		t.Fatalf("seed customer: %v", err)
	}
	return id
}

func (s *Seeder) Product(t testing.TB, name, price string, stock int) snowflake.ID {
	t.Helper()
	id := s.node.Generate()
	now := s.clock()
	if err := s.db.Exec(
		`INSERT INTO products (id, name, price, stock, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
		id, name, decimal.RequireFromString(price), stock, now, now,
	).Error; err != nil {
		t.Fatalf("seed product: %v", err)
	}
	return id
}

// Order inserts an order with one quantity-1 item per product id, using the
// products' current prices.
func (s *Seeder) Order(t testing.TB, customerID snowflake.ID, orderDate time.Time, productIDs ...snowflake.ID) snowflake.ID {
	t.Helper()
	ctx := context.Background()
	orderID := s.node.Generate()
	now := s.clock()

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Exec(
			`INSERT INTO orders (id, customer_id, total_amount, order_date, created_at, updated_at) VALUES (?, ?, ?, ?, ?, ?)`,
			orderID, customerID, decimal.Zero, orderDate, now, now,
		).Error; err != nil {
			return err
		}
		total := decimal.Zero
		for _, productID := range productIDs {
			var price decimal.Decimal
			if err := tx.Raw(`SELECT price FROM products WHERE id = ?`, productID).Row().Scan(&price); err != nil {
				return err
			}
			if err := tx.Exec(
				`INSERT INTO order_items (id, order_id, product_id, quantity, unit_price, total_price, created_at) VALUES (?, ?, ?, 1, ?, ?, ?)`,
				s.node.Generate(), orderID, productID, price, price, now,
			).Error; err != nil {
				return err
			}
			total = total.Add(price)
		}
		return tx.Exec(`UPDATE orders SET total_amount = ? WHERE id = ?`, total, orderID).Error
	})
	if err != nil {
		t.Fatalf("seed order: %v", err)
	}
	return orderID
}

// Count returns the row count of table.
func Count(t testing.TB, db *gorm.DB, table string) int64 {
	t.Helper()
	var n int64
	if err := db.Raw(fmt.Sprintf("SELECT COUNT(*) FROM %s", table)).Scan(&n).Error; err != nil {
		t.Fatalf("count %s: %v", table, err)
	}
	return n
}
