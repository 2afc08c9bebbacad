package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

type Repository interface {
	CountCustomers(ctx context.Context, db *gorm.DB) (int64, error)
	OrderStats(ctx context.Context, db *gorm.DB, from, to time.Time) (OrderStats, error)
	TopCustomers(ctx context.Context, db *gorm.DB, from, to time.Time, limit int) ([]TopCustomer, error)
	Insert(ctx context.Context, db *gorm.DB, report *Report) error
	Latest(ctx context.Context, db *gorm.DB) (*Report, error)
}
