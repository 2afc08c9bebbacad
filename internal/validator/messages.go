package validator

import (
	"errors"
	"fmt"
)

// DuplicateEmailError names the address that is already taken. It matches
// ErrDuplicateEmail under errors.Is.
type DuplicateEmailError struct {
	Email string
}

func (e *DuplicateEmailError) Error() string {
	return fmt.Sprintf("Email '%s' already exists", e.Email)
}

func (e *DuplicateEmailError) Is(target error) bool {
	return target == ErrDuplicateEmail
}

var messages = map[error]string{
	ErrInvalidPhone:   "Phone number must be in format: +1234567890 or 123-456-7890",
	ErrInvalidEmail:   "Enter a valid email address",
	ErrDuplicateEmail: "Email already exists",
	ErrInvalidPrice:   "Price must be positive and at most 99999999.99",
	ErrInvalidStock:   "Stock cannot be negative",
	ErrInvalidName:    "Name is required",
}

// Describe returns a user-facing message for validation errors and false for
// anything it does not recognise.
func Describe(err error) (string, bool) {
	if err == nil {
		return "", false
	}
	var dup *DuplicateEmailError
	if errors.As(err, &dup) {
		return dup.Error(), true
	}
	for sentinel, msg := range messages {
		if errors.Is(err, sentinel) {
			return msg, true
		}
	}
	return "", false
}
