package repository

import (
	"context"
	"time"

	"github.com/smallbiznis/crm/internal/report/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) CountCustomers(ctx context.Context, db *gorm.DB) (int64, error) {
	var total int64
	err := db.WithContext(ctx).Raw(`SELECT COUNT(*) FROM customers`).Scan(&total).Error
	return total, err
}

func (r *repo) OrderStats(ctx context.Context, db *gorm.DB, from, to time.Time) (domain.OrderStats, error) {
	var stats domain.OrderStats
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(*) AS total_orders, COALESCE(SUM(total_amount), 0) AS total_revenue
		 FROM orders WHERE order_date >= ? AND order_date <= ?`,
		from.UTC(), to.UTC(),
	).Scan(&stats).Error
	return stats, err
}

func (r *repo) TopCustomers(ctx context.Context, db *gorm.DB, from, to time.Time, limit int) ([]domain.TopCustomer, error) {
	var rows []domain.TopCustomer
	err := db.WithContext(ctx).Raw(
		`SELECT c.id AS customer_id, c.name AS name, c.email AS email,
		        COUNT(o.id) AS order_count, SUM(o.total_amount) AS total_spent
		 FROM orders o
		 JOIN customers c ON c.id = o.customer_id
		 WHERE o.order_date >= ? AND o.order_date <= ?
		 GROUP BY c.id, c.name, c.email
		 ORDER BY total_spent DESC, c.id ASC
		 LIMIT ?`,
		from.UTC(), to.UTC(), limit,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, report *domain.Report) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO crm_reports (id, period_start, period_end, total_customers, total_orders,
		   total_revenue, average_order_value, top_customers, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		report.ID,
		report.PeriodStart,
		report.PeriodEnd,
		report.TotalCustomers,
		report.TotalOrders,
		report.TotalRevenue,
		report.AverageOrderValue,
		report.TopCustomers,
		report.CreatedAt,
	).Error
}

func (r *repo) Latest(ctx context.Context, db *gorm.DB) (*domain.Report, error) {
	var report domain.Report
	err := db.WithContext(ctx).Raw(
		`SELECT id, period_start, period_end, total_customers, total_orders,
		        total_revenue, average_order_value, top_customers, created_at
		 FROM crm_reports ORDER BY period_end DESC, id DESC LIMIT 1`,
	).Scan(&report).Error
	if err != nil {
		return nil, err
	}
	if report.ID == 0 {
		return nil, nil
	}
	return &report, nil
}
