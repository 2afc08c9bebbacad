package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Report is a persisted CRM summary for one period.
type Report struct {
	ID                snowflake.ID    `json:"id" gorm:"primaryKey"`
	PeriodStart       time.Time       `json:"period_start" gorm:"not null"`
	PeriodEnd         time.Time       `json:"period_end" gorm:"not null;index"`
	TotalCustomers    int64           `json:"total_customers" gorm:"not null;default:0"`
	TotalOrders       int64           `json:"total_orders" gorm:"not null;default:0"`
	TotalRevenue      decimal.Decimal `json:"total_revenue" gorm:"type:decimal(12,2);not null;default:0"`
	AverageOrderValue decimal.Decimal `json:"average_order_value" gorm:"type:decimal(12,2);not null;default:0"`
	TopCustomers      datatypes.JSON  `json:"top_customers" gorm:"not null"`
	CreatedAt         time.Time       `json:"created_at" gorm:"not null"`
}

func (Report) TableName() string { return "crm_reports" }

type TopCustomer struct {
	CustomerID snowflake.ID    `json:"customer_id"`
	Name       string          `json:"name"`
	Email      string          `json:"email"`
	OrderCount int64           `json:"order_count"`
	TotalSpent decimal.Decimal `json:"total_spent"`
}

// Summary is the computed view of a period before it is persisted.
type Summary struct {
	PeriodStart       time.Time       `json:"period_start"`
	PeriodEnd         time.Time       `json:"period_end"`
	TotalCustomers    int64           `json:"total_customers"`
	TotalOrders       int64           `json:"total_orders"`
	TotalRevenue      decimal.Decimal `json:"total_revenue"`
	AverageOrderValue decimal.Decimal `json:"average_order_value"`
	TopCustomers      []TopCustomer   `json:"top_customers"`
}

type OrderStats struct {
	TotalOrders  int64
	TotalRevenue decimal.Decimal
}
