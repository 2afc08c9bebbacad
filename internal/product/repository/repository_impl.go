package repository

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/crm/internal/product/domain"
	"github.com/smallbiznis/crm/pkg/db/option"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Create(ctx context.Context, db *gorm.DB, product *domain.Product) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO products (id, name, price, stock, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		product.ID,
		product.Name,
		product.Price,
		product.Stock,
		product.CreatedAt,
		product.UpdatedAt,
	).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Product, error) {
	var p domain.Product
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, price, stock, created_at, updated_at
		 FROM products WHERE id = ?`,
		id,
	).Scan(&p).Error
	if err != nil {
		return nil, err
	}
	if p.ID == 0 {
		return nil, nil
	}
	return &p, nil
}

func (r *repo) FindByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]domain.Product, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var items []domain.Product
	err := db.WithContext(ctx).Raw(
		`SELECT id, name, price, stock, created_at, updated_at
		 FROM products WHERE id IN ? ORDER BY name ASC, id ASC`,
		ids,
	).Scan(&items).Error
	if err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB, filter domain.ListFilter, opts ...option.QueryOption) ([]*domain.Product, error) {
	var items []*domain.Product
	stmt := db.WithContext(ctx).Model(&domain.Product{})

	stmt = option.Contains("name", filter.Name).Apply(stmt)
	stmt = option.Contains("name", filter.Search).Apply(stmt)
	if filter.PriceMin != nil {
		stmt = option.ApplyOperator(option.Condition{Field: "price", Operator: option.GTE, Value: *filter.PriceMin}).Apply(stmt)
	}
	if filter.PriceMax != nil {
		stmt = option.ApplyOperator(option.Condition{Field: "price", Operator: option.LTE, Value: *filter.PriceMax}).Apply(stmt)
	}
	if filter.StockMin != nil {
		stmt = stmt.Where("stock >= ?", *filter.StockMin)
	}
	if filter.StockMax != nil {
		stmt = stmt.Where("stock <= ?", *filter.StockMax)
	}
	if filter.LowStock {
		stmt = stmt.Where("stock > 0 AND stock < ?", domain.LowStockThreshold)
	}
	if filter.OutOfStock {
		stmt = stmt.Where("stock = 0")
	}
	switch filter.PriceCategory {
	case domain.PriceCategoryBudget:
		stmt = stmt.Where("price < ?", domain.BudgetCeiling)
	case domain.PriceCategoryMid:
		stmt = stmt.Where("price >= ? AND price <= ?", domain.BudgetCeiling, domain.PremiumFloor)
	case domain.PriceCategoryPremium:
		stmt = stmt.Where("price > ?", domain.PremiumFloor)
	}

	for _, opt := range opts {
		stmt = opt.Apply(stmt)
	}

	if err := stmt.Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *repo) FindIDsBelowStock(ctx context.Context, db *gorm.DB, threshold int) ([]snowflake.ID, error) {
	var ids []snowflake.ID
	err := db.WithContext(ctx).Raw(
		`SELECT id FROM products WHERE stock < ? ORDER BY name ASC, id ASC`,
		threshold,
	).Scan(&ids).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repo) IncrementStock(ctx context.Context, db *gorm.DB, ids []snowflake.ID, increment int, updatedAt time.Time) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	result := db.WithContext(ctx).Exec(
		`UPDATE products SET stock = stock + ?, updated_at = ? WHERE id IN ?`,
		increment,
		updatedAt,
		ids,
	)
	return result.RowsAffected, result.Error
}
