package option

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/smallbiznis/crm/pkg/db/pagination"
	"gorm.io/gorm"
)

// QueryOption mutates a gorm statement before it is executed.
type QueryOption interface {
	Apply(*gorm.DB) *gorm.DB
}

type queryOptionFunc func(*gorm.DB) *gorm.DB

func (f queryOptionFunc) Apply(db *gorm.DB) *gorm.DB {
	return f(db)
}

type Operator string

const (
	EQ   Operator = "="
	NEQ  Operator = "<>"
	GT   Operator = ">"
	GTE  Operator = ">="
	LT   Operator = "<"
	LTE  Operator = "<="
	LIKE Operator = "LIKE"
)

type Condition struct {
	Field    string
	Operator Operator
	Value    any
}

// ApplyOperator adds a single "field op value" predicate.
func ApplyOperator(cond Condition) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		field := strings.TrimSpace(cond.Field)
		if field == "" || !isIdentifier(field) {
			return db
		}
		switch cond.Operator {
		case EQ, NEQ, GT, GTE, LT, LTE, LIKE:
		default:
			return db
		}
		return db.Where(fmt.Sprintf("%s %s ?", field, cond.Operator), cond.Value)
	})
}

// Contains adds a case-insensitive substring match on field.
func Contains(field, value string) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		value = strings.TrimSpace(value)
		if value == "" || !isIdentifier(field) {
			return db
		}
		return db.Where(fmt.Sprintf("LOWER(%s) LIKE ?", field), "%"+strings.ToLower(value)+"%")
	})
}

type QuerySortBy struct {
	SortBy  string
	OrderBy string
	Allow   map[string]bool
}

func WithQuerySortBy(sortBy, orderBy string, allow map[string]bool) QuerySortBy {
	return QuerySortBy{
		SortBy:  strings.ToLower(strings.TrimSpace(sortBy)),
		OrderBy: strings.ToLower(strings.TrimSpace(orderBy)),
		Allow:   allow,
	}
}

// Valid reports whether the requested column is on the allow list.
func (s QuerySortBy) Valid() bool {
	return s.SortBy != "" && s.Allow[s.SortBy]
}

// WithSortBy orders by the requested column, falling back to "created_at desc"
// when it is allowed and nothing valid was requested. The id column is always
// appended as a tie breaker.
func WithSortBy(sort QuerySortBy) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		column := sort.SortBy
		if !sort.Valid() {
			if !sort.Allow["created_at"] {
				return db
			}
			column = "created_at"
		}
		direction := "asc"
		if sort.OrderBy == "desc" || (!sort.Valid() && column == "created_at") {
			direction = "desc"
		}
		return db.Order(fmt.Sprintf("%s %s, id %s", column, direction, direction))
	})
}

// ApplyPagination applies a "created_at desc" keyset cursor and limit.
func ApplyPagination(page pagination.Pagination) QueryOption {
	return ApplyKeysetPagination(page, "created_at")
}

// ApplyKeysetPagination reads page.PageToken as a cursor on (column, id),
// both descending, and limits the result to PageSize+1 rows so callers can
// detect a following page.
func ApplyKeysetPagination(page pagination.Pagination, column string) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		db = db.Limit(limitFor(page))
		if page.PageToken == "" || !isIdentifier(column) {
			return db
		}
		cursor, err := pagination.DecodeCursor(page.PageToken)
		if err != nil || cursor == nil {
			return db
		}
		if cursor.Offset > 0 {
			return db.Offset(cursor.Offset)
		}
		at, err := time.Parse(time.RFC3339Nano, cursor.CreatedAt)
		if err != nil {
			return db
		}
		id, err := strconv.ParseInt(cursor.ID, 10, 64)
		if err != nil {
			return db
		}
		return db.Where(
			fmt.Sprintf("(%s < ? OR (%s = ? AND id < ?))", column, column),
			at.UTC(), at.UTC(), id,
		)
	})
}

// ApplyOffsetPagination reads page.PageToken as an offset cursor. Used when the
// caller sorts on a column that a keyset cursor cannot follow.
func ApplyOffsetPagination(page pagination.Pagination) QueryOption {
	return queryOptionFunc(func(db *gorm.DB) *gorm.DB {
		db = db.Limit(limitFor(page))
		if page.PageToken == "" {
			return db
		}
		cursor, err := pagination.DecodeCursor(page.PageToken)
		if err != nil || cursor == nil || cursor.Offset <= 0 {
			return db
		}
		return db.Offset(cursor.Offset)
	})
}

func limitFor(page pagination.Pagination) int {
	size := page.PageSize
	if size <= 0 {
		size = pagination.DefaultPageSize
	}
	if size > pagination.MaxPageSize {
		size = pagination.MaxPageSize
	}
	return size + 1
}

func isIdentifier(value string) bool {
	if value == "" {
		return false
	}
	for _, r := range value {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '_', r == '.':
		default:
			return false
		}
	}
	return true
}
