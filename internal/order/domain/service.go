package domain

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/crm/pkg/db/pagination"
)

type Service interface {
	Create(ctx context.Context, req CreateOrderRequest) (Order, error)
	GetByID(ctx context.Context, id string) (Order, error)
	List(ctx context.Context, req ListOrderRequest) (ListOrderResponse, error)
}

var (
	HighValueThreshold = decimal.NewFromInt(500)
	RecentWindow       = 7 * 24 * time.Hour
)

type CreateOrderRequest struct {
	CustomerID string     `json:"customer_id"`
	ProductIDs []string   `json:"product_ids"`
	OrderDate  *time.Time `json:"order_date,omitempty"`
}

type ListOrderRequest struct {
	PageToken     string
	PageSize      int32
	TotalMin      *decimal.Decimal
	TotalMax      *decimal.Decimal
	OrderDateFrom *time.Time
	OrderDateTo   *time.Time
	CustomerName  string
	CustomerEmail string
	ProductName   string
	ProductID     string
	HighValue     bool
	Recent        bool
	Search        string
	SortBy        string
	OrderBy       string
}

type ListOrderFilter struct {
	TotalMin      *decimal.Decimal
	TotalMax      *decimal.Decimal
	OrderDateFrom *time.Time
	OrderDateTo   *time.Time
	CustomerName  string
	CustomerEmail string
	ProductName   string
	ProductID     int64
	HighValue     bool
	Search        string
}

type ListOrderResponse struct {
	pagination.PageInfo
	Orders []Order `json:"orders"`
}

var (
	ErrCustomerNotFound = errors.New("customer_not_found")
	ErrProductNotFound  = errors.New("product_not_found")
	ErrEmptyProducts    = errors.New("empty_products")
	ErrDuplicateProduct = errors.New("duplicate_product")
	ErrTotalTooLarge    = errors.New("total_too_large")
	ErrInvalidID        = errors.New("invalid_id")
	ErrNotFound         = errors.New("not_found")
)

// NotFoundError names the referenced record that does not exist. It matches
// its Kind with errors.Is.
type NotFoundError struct {
	Kind     error
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with ID '%s' not found", e.Resource, e.ID)
}

func (e *NotFoundError) Unwrap() error {
	return e.Kind
}

func CustomerNotFound(id string) error {
	return &NotFoundError{Kind: ErrCustomerNotFound, Resource: "Customer", ID: id}
}

func ProductNotFound(id string) error {
	return &NotFoundError{Kind: ErrProductNotFound, Resource: "Product", ID: id}
}

// ItemError ties a failed order item write to its product.
type ItemError struct {
	ProductID snowflake.ID
	Err       error
}

func (e *ItemError) Error() string {
	return fmt.Sprintf("order item for product %s: %v", e.ProductID, e.Err)
}

func (e *ItemError) Unwrap() error {
	return e.Err
}
