package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/crm/pkg/db/option"
	"gorm.io/gorm"
)

type Repository interface {
	Create(ctx context.Context, db *gorm.DB, product *Product) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Product, error)
	FindByIDs(ctx context.Context, db *gorm.DB, ids []snowflake.ID) ([]Product, error)
	List(ctx context.Context, db *gorm.DB, filter ListFilter, opts ...option.QueryOption) ([]*Product, error)
	FindIDsBelowStock(ctx context.Context, db *gorm.DB, threshold int) ([]snowflake.ID, error)
	IncrementStock(ctx context.Context, db *gorm.DB, ids []snowflake.ID, increment int, updatedAt time.Time) (int64, error)
}
