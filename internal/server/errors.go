package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	customerdomain "github.com/smallbiznis/crm/internal/customer/domain"
	orderdomain "github.com/smallbiznis/crm/internal/order/domain"
	productdomain "github.com/smallbiznis/crm/internal/product/domain"
	reportdomain "github.com/smallbiznis/crm/internal/report/domain"
	"github.com/smallbiznis/crm/internal/validator"
	"gorm.io/gorm"
)

type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type ValidationErrors struct {
	Errors []ValidationError `json:"errors"`
}

func (v ValidationErrors) Error() string {
	return "validation error"
}

type errorPayload struct {
	Type    string            `json:"type"`
	Message string            `json:"message"`
	Errors  []ValidationError `json:"errors,omitempty"`
}

type errorResponse struct {
	Error errorPayload `json:"error"`
}

var (
	ErrInternal       = errors.New("internal_error")
	ErrNotFound       = errors.New("not_found")
	ErrInvalidRequest = errors.New("invalid_request")
)

// validationSentinels lists domain errors reported as 400s, with the field
// they refer to.
var validationSentinels = []struct {
	err   error
	field string
}{
	{validator.ErrInvalidName, "name"},
	{validator.ErrInvalidEmail, "email"},
	{validator.ErrInvalidPhone, "phone"},
	{validator.ErrInvalidPrice, "price"},
	{validator.ErrInvalidStock, "stock"},
	{customerdomain.ErrInvalidID, "id"},
	{productdomain.ErrInvalidID, "id"},
	{orderdomain.ErrInvalidID, "id"},
	{productdomain.ErrInvalidPriceCategory, "price_category"},
	{productdomain.ErrInvalidRestock, "increment"},
	{orderdomain.ErrEmptyProducts, "product_ids"},
	{orderdomain.ErrDuplicateProduct, "product_ids"},
	{orderdomain.ErrTotalTooLarge, "product_ids"},
	{reportdomain.ErrInvalidWindow, "days"},
	{ErrInvalidRequest, "request"},
}

func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if c.Writer.Written() {
			return
		}

		lastErr := c.Errors.Last()
		if lastErr == nil {
			return
		}

		status, payload := mapError(lastErr.Err)
		c.Header("Content-Type", "application/json")
		c.AbortWithStatusJSON(status, errorResponse{Error: payload})
	}
}

func AbortWithError(c *gin.Context, err error) {
	if err == nil {
		return
	}
	_ = c.Error(err)
	c.Abort()
}

func invalidRequestError() error {
	return newValidationError("request", "invalid_request", "invalid request")
}

func newValidationError(field, code, message string) error {
	return &ValidationErrors{
		Errors: []ValidationError{
			{
				Field:   field,
				Code:    code,
				Message: message,
			},
		},
	}
}

func mapError(err error) (int, errorPayload) {
	if err == nil {
		return http.StatusInternalServerError, errorPayload{
			Type:    "internal_error",
			Message: "internal server error",
		}
	}

	if vErr := asValidationErrors(err); vErr != nil {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors:  vErr.Errors,
		}
	}

	var dup *validator.DuplicateEmailError
	if errors.As(err, &dup) || errors.Is(err, validator.ErrDuplicateEmail) {
		message, _ := validator.Describe(err)
		return http.StatusConflict, errorPayload{
			Type:    "duplicate_email",
			Message: message,
		}
	}

	var missing *orderdomain.NotFoundError
	if errors.As(err, &missing) {
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: missing.Error(),
		}
	}

	if field, code, ok := validationDetail(err); ok {
		return http.StatusBadRequest, errorPayload{
			Type:    "validation_error",
			Message: "validation error",
			Errors: []ValidationError{
				{
					Field:   field,
					Code:    code,
					Message: validationErrorMessage(err),
				},
			},
		}
	}

	if isNotFoundError(err) {
		return http.StatusNotFound, errorPayload{
			Type:    "not_found",
			Message: "not found",
		}
	}

	return http.StatusInternalServerError, errorPayload{
		Type:    "internal_error",
		Message: "internal server error",
	}
}

// classifyErrorForLog reports the error type and code for request logs.
func classifyErrorForLog(err error) (string, string) {
	status, payload := mapError(err)
	code := payload.Type
	if len(payload.Errors) > 0 {
		code = payload.Errors[0].Code
	}
	if status >= http.StatusInternalServerError {
		return "internal_error", strings.TrimSpace(err.Error())
	}
	return payload.Type, code
}

func asValidationErrors(err error) *ValidationErrors {
	var vErr *ValidationErrors
	if errors.As(err, &vErr) && vErr != nil {
		return vErr
	}
	return nil
}

func validationDetail(err error) (string, string, bool) {
	for _, candidate := range validationSentinels {
		if errors.Is(err, candidate.err) {
			return candidate.field, candidate.err.Error(), true
		}
	}
	return "", "", false
}

func validationErrorMessage(err error) string {
	if msg, ok := validator.Describe(err); ok {
		return msg
	}
	switch {
	case errors.Is(err, orderdomain.ErrEmptyProducts):
		return "at least one product is required"
	case errors.Is(err, orderdomain.ErrDuplicateProduct):
		return "each product may appear only once per order"
	case errors.Is(err, orderdomain.ErrTotalTooLarge):
		return "order total exceeds 99999999.99"
	case errors.Is(err, productdomain.ErrInvalidPriceCategory):
		return "price_category must be one of budget, mid, premium"
	case errors.Is(err, reportdomain.ErrInvalidWindow):
		return "days is out of range"
	default:
		return "invalid value"
	}
}

func isNotFoundError(err error) bool {
	switch {
	case errors.Is(err, ErrNotFound),
		errors.Is(err, customerdomain.ErrNotFound),
		errors.Is(err, productdomain.ErrNotFound),
		errors.Is(err, orderdomain.ErrNotFound),
		errors.Is(err, reportdomain.ErrNotFound),
		errors.Is(err, gorm.ErrRecordNotFound):
		return true
	default:
		return false
	}
}
