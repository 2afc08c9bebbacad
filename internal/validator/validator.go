// Package validator holds field rules shared by the customer, product and
// order services.
package validator

import (
	"context"
	"errors"
	"net/mail"
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidPhone   = errors.New("invalid_phone")
	ErrInvalidEmail   = errors.New("invalid_email")
	ErrDuplicateEmail = errors.New("duplicate_email")
	ErrInvalidPrice   = errors.New("invalid_price")
	ErrInvalidStock   = errors.New("invalid_stock")
	ErrInvalidName    = errors.New("invalid_name")
)

const (
	CustomerNameMaxLength = 100
	ProductNameMaxLength  = 255
	EmailMaxLength        = 254
)

var (
	// +1-555-123-4567, (555) 123-4567, 555.123.4567
	formattedPhonePattern = regexp.MustCompile(`^(\+\d{1,3}[-.\s]?)?\(?\d{3}\)?[-.\s]?\d{3}[-.\s]?\d{4}$`)
	// +15551234567, +1 5551234567
	compactPhonePattern = regexp.MustCompile(`^(\+\d{1,3}[- ]?)?\d{10}$`)

	minPrice = decimal.New(1, -2)
	// NUMERIC(10,2)
	MaxAmount = decimal.RequireFromString("99999999.99")
)

// EmailLookup finds a customer id by normalized email. A zero id means no match.
type EmailLookup interface {
	FindIDByEmail(ctx context.Context, email string) (snowflake.ID, error)
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// ValidatePhone accepts an empty value or one of the supported phone formats.
func ValidatePhone(phone string) error {
	phone = strings.TrimSpace(phone)
	if phone == "" {
		return nil
	}
	if formattedPhonePattern.MatchString(phone) || compactPhonePattern.MatchString(phone) {
		return nil
	}
	return ErrInvalidPhone
}

func ValidateEmail(email string) error {
	email = NormalizeEmail(email)
	if email == "" || len(email) > EmailMaxLength {
		return ErrInvalidEmail
	}
	addr, err := mail.ParseAddress(email)
	if err != nil || addr.Address != email {
		return ErrInvalidEmail
	}
	at := strings.LastIndex(email, "@")
	if at <= 0 || !strings.Contains(email[at+1:], ".") {
		return ErrInvalidEmail
	}
	return nil
}

// ValidateUniqueEmail fails with ErrDuplicateEmail when another customer
// (other than excludeID) already owns email.
func ValidateUniqueEmail(ctx context.Context, lookup EmailLookup, email string, excludeID snowflake.ID) error {
	if lookup == nil {
		return errors.New("validator: email lookup is required")
	}
	id, err := lookup.FindIDByEmail(ctx, NormalizeEmail(email))
	if err != nil {
		return err
	}
	if id != 0 && id != excludeID {
		return &DuplicateEmailError{Email: NormalizeEmail(email)}
	}
	return nil
}

// ValidatePrice requires a value between 0.01 and MaxAmount.
func ValidatePrice(price decimal.Decimal) error {
	if price.LessThan(minPrice) || price.GreaterThan(MaxAmount) {
		return ErrInvalidPrice
	}
	return nil
}

func ValidateStock(stock int) error {
	if stock < 0 {
		return ErrInvalidStock
	}
	return nil
}

// ValidateName requires a non-blank name of at most max characters.
func ValidateName(name string, max int) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return ErrInvalidName
	}
	if max > 0 && utf8.RuneCountInString(name) > max {
		return ErrInvalidName
	}
	return nil
}
