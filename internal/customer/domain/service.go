package domain

import (
	"context"
	"errors"
	"time"

	"github.com/smallbiznis/crm/internal/validator"
	"github.com/smallbiznis/crm/pkg/db/pagination"
)

type ListCustomerRequest struct {
	PageToken   string
	PageSize    int32
	Name        string
	Email       string
	Phone       string
	PhonePrefix string
	Search      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
	SortBy      string
	OrderBy     string
}

type ListCustomerFilter struct {
	Name        string
	Email       string
	Phone       string
	PhonePrefix string
	Search      string
	CreatedFrom *time.Time
	CreatedTo   *time.Time
}

type ListCustomerResponse struct {
	pagination.PageInfo
	Customers []Customer `json:"customers"`
}

type CreateCustomerRequest struct {
	Name  string  `json:"name"`
	Email string  `json:"email"`
	Phone *string `json:"phone,omitempty"`
}

type GetCustomerRequest struct {
	ID string
}

// BulkCreateResult reports per-row outcomes of BulkCreate. Errors are
// formatted as "Row N: <message>" with N starting at 1.
type BulkCreateResult struct {
	Customers []Customer `json:"customers"`
	Errors    []string   `json:"errors"`
}

func (r BulkCreateResult) SuccessCount() int {
	return len(r.Customers)
}

func (r BulkCreateResult) ErrorCount() int {
	return len(r.Errors)
}

type Service interface {
	Create(context.Context, CreateCustomerRequest) (Customer, error)
	BulkCreate(context.Context, []CreateCustomerRequest) (BulkCreateResult, error)
	List(context.Context, ListCustomerRequest) (ListCustomerResponse, error)
	GetByID(context.Context, GetCustomerRequest) (Customer, error)
}

var (
	ErrInvalidName    = validator.ErrInvalidName
	ErrInvalidEmail   = validator.ErrInvalidEmail
	ErrInvalidPhone   = validator.ErrInvalidPhone
	ErrDuplicateEmail = validator.ErrDuplicateEmail
	ErrInvalidID      = errors.New("invalid_id")
	ErrNotFound       = errors.New("not_found")
)
