package graphql

import (
	"errors"
	"fmt"

	customerdomain "github.com/smallbiznis/crm/internal/customer/domain"
	orderdomain "github.com/smallbiznis/crm/internal/order/domain"
	productdomain "github.com/smallbiznis/crm/internal/product/domain"
	reportdomain "github.com/smallbiznis/crm/internal/report/domain"
	"github.com/smallbiznis/crm/internal/validator"
	"go.uber.org/zap"
)

const (
	CodeValidation     = "VALIDATION_ERROR"
	CodeDuplicateEmail = "DUPLICATE_EMAIL"
	CodeInvalidPhone   = "INVALID_PHONE"
	CodeNotFound       = "RESOURCE_NOT_FOUND"
	CodeInternal       = "INTERNAL_ERROR"
)

// Error is returned from resolvers; its code is exposed under
// extensions.code in the response.
type Error struct {
	Message string
	Code    string
}

func (e *Error) Error() string {
	return e.Message
}

func (e *Error) Extensions() map[string]interface{} {
	return map[string]interface{}{"code": e.Code}
}

func newError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

func notFound(resource, id string) *Error {
	return newError(CodeNotFound, fmt.Sprintf("%s with ID '%s' not found", resource, id))
}

var inputMessages = map[error]string{
	orderdomain.ErrEmptyProducts:          "At least one product is required",
	orderdomain.ErrDuplicateProduct:       "Each product may appear only once per order",
	orderdomain.ErrTotalTooLarge:          "Order total exceeds 99999999.99",
	productdomain.ErrInvalidPriceCategory: "Price category must be one of: budget, mid, premium",
	productdomain.ErrInvalidRestock:       "Restock increment must be positive and threshold non-negative",
	reportdomain.ErrInvalidWindow:         "Report window is out of range",
	customerdomain.ErrInvalidID:           "Invalid ID",
	productdomain.ErrInvalidID:            "Invalid ID",
	orderdomain.ErrInvalidID:              "Invalid ID",
}

// toError converts a service error into a GraphQL error. Errors it does not
// recognise are logged and reported with the fallback prefix.
func toError(log *zap.Logger, err error, fallback string) error {
	if err == nil {
		return nil
	}

	var dup *validator.DuplicateEmailError
	if errors.As(err, &dup) {
		return newError(CodeDuplicateEmail, dup.Error())
	}
	if errors.Is(err, validator.ErrInvalidPhone) {
		msg, _ := validator.Describe(err)
		return newError(CodeInvalidPhone, msg)
	}
	if msg, ok := validator.Describe(err); ok {
		return newError(CodeValidation, msg)
	}

	var nf *orderdomain.NotFoundError
	if errors.As(err, &nf) {
		return newError(CodeNotFound, nf.Error())
	}

	for sentinel, msg := range inputMessages {
		if errors.Is(err, sentinel) {
			return newError(CodeValidation, msg)
		}
	}

	log.Error("graphql resolver failed", zap.String("operation", fallback), zap.Error(err))
	return newError(CodeInternal, fallback+": internal error")
}
