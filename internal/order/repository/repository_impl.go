package repository

import (
	"context"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/crm/internal/order/domain"
	"github.com/smallbiznis/crm/pkg/db/option"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, order *domain.Order) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO orders (id, customer_id, total_amount, order_date, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		order.ID,
		order.CustomerID,
		order.TotalAmount,
		order.OrderDate,
		order.CreatedAt,
		order.UpdatedAt,
	).Error
}

func (r *repo) InsertItems(ctx context.Context, db *gorm.DB, items []domain.OrderItem) error {
	for _, item := range items {
		err := db.WithContext(ctx).Exec(
			`INSERT INTO order_items (id, order_id, product_id, quantity, unit_price, total_price, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			item.ID,
			item.OrderID,
			item.ProductID,
			item.Quantity,
			item.UnitPrice,
			item.TotalPrice,
			item.CreatedAt,
		).Error
		if err != nil {
			return &domain.ItemError{ProductID: item.ProductID, Err: err}
		}
	}
	return nil
}

func (r *repo) UpdateTotal(ctx context.Context, db *gorm.DB, id snowflake.ID, total decimal.Decimal, updatedAt time.Time) error {
	return db.WithContext(ctx).Exec(
		`UPDATE orders SET total_amount = ?, updated_at = ? WHERE id = ?`,
		total,
		updatedAt,
		id,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Order, error) {
	var order domain.Order
	err := db.WithContext(ctx).Raw(
		`SELECT id, customer_id, total_amount, order_date, created_at, updated_at
		 FROM orders WHERE id = ?`,
		id,
	).Scan(&order).Error
	if err != nil {
		return nil, err
	}
	if order.ID == 0 {
		return nil, nil
	}
	return &order, nil
}

func (r *repo) FindItems(ctx context.Context, db *gorm.DB, orderIDs []snowflake.ID) ([]domain.OrderItem, error) {
	if len(orderIDs) == 0 {
		return nil, nil
	}
	var items []domain.OrderItem
	err := db.WithContext(ctx).Raw(
		`SELECT id, order_id, product_id, quantity, unit_price, total_price, created_at
		 FROM order_items WHERE order_id IN ? ORDER BY order_id ASC, id ASC`,
		orderIDs,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

// List filters on customer and product attributes through subqueries so the
// outer query stays on orders alone and never repeats a row.
func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListOrderFilter, opts ...option.QueryOption) ([]*domain.Order, error) {
	var items []*domain.Order
	stmt := db.WithContext(ctx).Model(&domain.Order{})

	if filter.TotalMin != nil {
		stmt = option.ApplyOperator(option.Condition{Field: "total_amount", Operator: option.GTE, Value: *filter.TotalMin}).Apply(stmt)
	}
	if filter.TotalMax != nil {
		stmt = option.ApplyOperator(option.Condition{Field: "total_amount", Operator: option.LTE, Value: *filter.TotalMax}).Apply(stmt)
	}
	if filter.HighValue {
		stmt = option.ApplyOperator(option.Condition{Field: "total_amount", Operator: option.GT, Value: domain.HighValueThreshold}).Apply(stmt)
	}
	if filter.OrderDateFrom != nil {
		stmt = stmt.Where("order_date >= ?", filter.OrderDateFrom.UTC())
	}
	if filter.OrderDateTo != nil {
		stmt = stmt.Where("order_date <= ?", filter.OrderDateTo.UTC())
	}
	if v := like(filter.CustomerName); v != "" {
		stmt = stmt.Where("customer_id IN (SELECT id FROM customers WHERE LOWER(name) LIKE ?)", v)
	}
	if v := like(filter.CustomerEmail); v != "" {
		stmt = stmt.Where("customer_id IN (SELECT id FROM customers WHERE LOWER(email) LIKE ?)", v)
	}
	if v := like(filter.ProductName); v != "" {
		stmt = stmt.Where(
			`id IN (SELECT oi.order_id FROM order_items oi
			 JOIN products p ON p.id = oi.product_id WHERE LOWER(p.name) LIKE ?)`, v)
	}
	if filter.ProductID != 0 {
		stmt = stmt.Where("id IN (SELECT order_id FROM order_items WHERE product_id = ?)", filter.ProductID)
	}
	if v := like(filter.Search); v != "" {
		stmt = stmt.Where(
			`(customer_id IN (SELECT id FROM customers WHERE LOWER(name) LIKE ? OR LOWER(email) LIKE ?)
			 OR id IN (SELECT oi.order_id FROM order_items oi
			 JOIN products p ON p.id = oi.product_id WHERE LOWER(p.name) LIKE ?))`,
			v, v, v,
		)
	}

	for _, opt := range opts {
		stmt = opt.Apply(stmt)
	}

	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func like(value string) string {
	value = strings.ToLower(strings.TrimSpace(value))
	if value == "" {
		return ""
	}
	return "%" + value + "%"
}
