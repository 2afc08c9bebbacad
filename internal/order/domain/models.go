package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

type Order struct {
	ID          snowflake.ID    `json:"id" gorm:"primaryKey"`
	CustomerID  snowflake.ID    `json:"customer_id" gorm:"not null;index"`
	TotalAmount decimal.Decimal `json:"total_amount" gorm:"type:decimal(10,2);not null;default:0"`
	OrderDate   time.Time       `json:"order_date" gorm:"not null;index"`
	CreatedAt   time.Time       `json:"created_at" gorm:"not null"`
	UpdatedAt   time.Time       `json:"updated_at" gorm:"not null"`
	Items       []OrderItem     `json:"items" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

func (Order) TableName() string { return "orders" }

// OrderItem snapshots the product price at the time the order was placed.
type OrderItem struct {
	ID         snowflake.ID    `json:"id" gorm:"primaryKey"`
	OrderID    snowflake.ID    `json:"order_id" gorm:"not null;uniqueIndex:ux_order_items_order_product"`
	ProductID  snowflake.ID    `json:"product_id" gorm:"not null;uniqueIndex:ux_order_items_order_product"`
	Quantity   int             `json:"quantity" gorm:"not null;default:1"`
	UnitPrice  decimal.Decimal `json:"unit_price" gorm:"type:decimal(10,2);not null"`
	TotalPrice decimal.Decimal `json:"total_price" gorm:"type:decimal(10,2);not null"`
	CreatedAt  time.Time       `json:"created_at" gorm:"not null"`
}

func (OrderItem) TableName() string { return "order_items" }
