package domain

import (
	"context"
	"errors"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/crm/internal/validator"
	"github.com/smallbiznis/crm/pkg/db/pagination"
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	List(ctx context.Context, req ListRequest) (ListResponse, error)
	Get(ctx context.Context, id string) (*Response, error)
	RestockLowStock(ctx context.Context, threshold, increment int) ([]Response, error)
}

const (
	LowStockThreshold = 10

	PriceCategoryBudget  = "budget"
	PriceCategoryMid     = "mid"
	PriceCategoryPremium = "premium"
)

var (
	BudgetCeiling = decimal.NewFromInt(50)
	PremiumFloor  = decimal.NewFromInt(200)
)

type ListRequest struct {
	PageToken     string
	PageSize      int32
	Name          string
	PriceMin      *decimal.Decimal
	PriceMax      *decimal.Decimal
	StockMin      *int
	StockMax      *int
	LowStock      bool
	OutOfStock    bool
	PriceCategory string
	Search        string
	SortBy        string
	OrderBy       string
}

type ListFilter struct {
	Name          string
	PriceMin      *decimal.Decimal
	PriceMax      *decimal.Decimal
	StockMin      *int
	StockMax      *int
	LowStock      bool
	OutOfStock    bool
	PriceCategory string
	Search        string
}

type ListResponse struct {
	pagination.PageInfo
	Products []Response `json:"products"`
}

type CreateRequest struct {
	Name  string          `json:"name"`
	Price decimal.Decimal `json:"price"`
	Stock *int            `json:"stock"`
}

type Response struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Price     decimal.Decimal `json:"price"`
	Stock     int             `json:"stock"`
	CreatedAt time.Time       `json:"created_at"`
	UpdatedAt time.Time       `json:"updated_at"`
}

var (
	ErrInvalidName          = validator.ErrInvalidName
	ErrInvalidPrice         = validator.ErrInvalidPrice
	ErrInvalidStock         = validator.ErrInvalidStock
	ErrInvalidPriceCategory = errors.New("invalid_price_category")
	ErrInvalidRestock       = errors.New("invalid_restock")
	ErrNotFound             = errors.New("not_found")
	ErrInvalidID            = errors.New("invalid_id")
)
