package validator

import (
	"context"
	"errors"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeLookup map[string]snowflake.ID

func (f fakeLookup) FindIDByEmail(_ context.Context, email string) (snowflake.ID, error) {
	return f[email], nil
}

type failingLookup struct{}

func (failingLookup) FindIDByEmail(context.Context, string) (snowflake.ID, error) {
	return 0, errors.New("db down")
}

func TestValidatePhone(t *testing.T) {
	valid := []string{
		"",
		"+1-555-123-4567",
		"(555) 123-4567",
		"555.123.4567",
		"5551234567",
		"+15551234567",
		"+44 2079460958",
	}
	for _, phone := range valid {
		assert.NoError(t, ValidatePhone(phone), phone)
	}

	invalid := []string{"123", "abc-def-ghij", "+1-555-123-45678", "555_123_4567"}
	for _, phone := range invalid {
		assert.ErrorIs(t, ValidatePhone(phone), ErrInvalidPhone, phone)
	}
}

func TestValidateEmail(t *testing.T) {
	assert.NoError(t, ValidateEmail("alice@example.com"))
	assert.NoError(t, ValidateEmail("  Alice@Example.COM "))
	assert.ErrorIs(t, ValidateEmail(""), ErrInvalidEmail)
	assert.ErrorIs(t, ValidateEmail("not-an-email"), ErrInvalidEmail)
	assert.ErrorIs(t, ValidateEmail("Alice <alice@example.com>"), ErrInvalidEmail)
	assert.ErrorIs(t, ValidateEmail("alice@localhost"), ErrInvalidEmail)
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "a@b.com", NormalizeEmail("  A@B.com "))
}

func TestValidateUniqueEmail(t *testing.T) {
	ctx := context.Background()
	lookup := fakeLookup{"a@b.com": 7}

	assert.ErrorIs(t, ValidateUniqueEmail(ctx, lookup, "A@B.com", 0), ErrDuplicateEmail)
	assert.NoError(t, ValidateUniqueEmail(ctx, lookup, "a@b.com", 7))
	assert.NoError(t, ValidateUniqueEmail(ctx, lookup, "c@d.com", 0))

	err := ValidateUniqueEmail(ctx, failingLookup{}, "a@b.com", 0)
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrDuplicateEmail)
}

func TestValidatePrice(t *testing.T) {
	assert.ErrorIs(t, ValidatePrice(decimal.Zero), ErrInvalidPrice)
	assert.ErrorIs(t, ValidatePrice(decimal.RequireFromString("-1")), ErrInvalidPrice)
	assert.ErrorIs(t, ValidatePrice(decimal.RequireFromString("0.009")), ErrInvalidPrice)
	assert.NoError(t, ValidatePrice(decimal.RequireFromString("0.01")))
	assert.NoError(t, ValidatePrice(MaxAmount))
	assert.ErrorIs(t, ValidatePrice(decimal.RequireFromString("100000000")), ErrInvalidPrice)
}

func TestValidateStock(t *testing.T) {
	assert.NoError(t, ValidateStock(0))
	assert.ErrorIs(t, ValidateStock(-1), ErrInvalidStock)
}

func TestValidateName(t *testing.T) {
	assert.NoError(t, ValidateName("Alice", CustomerNameMaxLength))
	assert.ErrorIs(t, ValidateName("   ", CustomerNameMaxLength), ErrInvalidName)

	long := make([]rune, CustomerNameMaxLength+1)
	for i := range long {
		long[i] = 'a'
	}
	assert.ErrorIs(t, ValidateName(string(long), CustomerNameMaxLength), ErrInvalidName)
}
