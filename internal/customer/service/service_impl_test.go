package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/crm/internal/clock"
	"github.com/smallbiznis/crm/internal/customer/domain"
	"github.com/smallbiznis/crm/internal/customer/repository"
	"github.com/smallbiznis/crm/internal/customer/service"
	"github.com/smallbiznis/crm/internal/testutil"
	"github.com/smallbiznis/crm/internal/validator"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

func newService(t *testing.T) (domain.Service, *gorm.DB, *clock.FakeClock) {
	t.Helper()
	db := testutil.NewDB(t)
	clk := clock.NewFakeClock(time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC))
	svc := service.New(service.Params{
		DB:    db,
		Log:   zaptest.NewLogger(t),
		GenID: testutil.NewNode(t),
		Repo:  repository.Provide(),
		Clock: clk,
	})
	return svc, db, clk
}

func strPtr(v string) *string { return &v }

func TestCreateNormalizesEmailAndRejectsDuplicate(t *testing.T) {
	ctx := context.Background()
	svc, db, _ := newService(t)

	created, err := svc.Create(ctx, domain.CreateCustomerRequest{Name: "  Alice ", Email: "A@B.com"})
	require.NoError(t, err)
	assert.Equal(t, "a@b.com", created.Email)
	assert.Equal(t, "Alice", created.Name)
	assert.Nil(t, created.Phone)

	_, err = svc.Create(ctx, domain.CreateCustomerRequest{Name: "Alice Again", Email: "a@b.com"})
	require.ErrorIs(t, err, domain.ErrDuplicateEmail)
	assert.Equal(t, "Email 'a@b.com' already exists", err.Error())

	assert.Equal(t, int64(1), testutil.Count(t, db, "customers"))
}

func TestCreateValidation(t *testing.T) {
	ctx := context.Background()
	svc, db, _ := newService(t)

	_, err := svc.Create(ctx, domain.CreateCustomerRequest{Name: " ", Email: "x@y.com"})
	assert.ErrorIs(t, err, domain.ErrInvalidName)

	_, err = svc.Create(ctx, domain.CreateCustomerRequest{Name: "Bob", Email: "nope"})
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)

	_, err = svc.Create(ctx, domain.CreateCustomerRequest{Name: "Bob", Email: "bob@example.com", Phone: strPtr("12-34")})
	assert.ErrorIs(t, err, domain.ErrInvalidPhone)

	assert.Equal(t, int64(0), testutil.Count(t, db, "customers"))

	created, err := svc.Create(ctx, domain.CreateCustomerRequest{Name: "Bob", Email: "bob@example.com", Phone: strPtr(" +1-555-123-4567 ")})
	require.NoError(t, err)
	require.NotNil(t, created.Phone)
	assert.Equal(t, "+1-555-123-4567", *created.Phone)
}

func TestBulkCreateReportsFailedRows(t *testing.T) {
	ctx := context.Background()
	svc, db, _ := newService(t)

	result, err := svc.BulkCreate(ctx, []domain.CreateCustomerRequest{
		{Name: "Alice", Email: "alice@example.com"},
		{Name: "Alice Copy", Email: "ALICE@example.com"},
		{Name: "Carol", Email: "carol@example.com", Phone: strPtr("5551234567")},
	})
	require.NoError(t, err)

	assert.Equal(t, 2, result.SuccessCount())
	assert.Equal(t, 1, result.ErrorCount())
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "Row 2: Email 'alice@example.com' already exists", result.Errors[0])
	assert.Equal(t, "alice@example.com", result.Customers[0].Email)
	assert.Equal(t, "carol@example.com", result.Customers[1].Email)

	assert.Equal(t, int64(2), testutil.Count(t, db, "customers"))
}

func TestBulkCreateRowMessages(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t)

	result, err := svc.BulkCreate(ctx, []domain.CreateCustomerRequest{
		{Name: "", Email: "a@example.com"},
		{Name: "Dan", Email: "dan@example.com", Phone: strPtr("bad")},
	})
	require.NoError(t, err)
	assert.Empty(t, result.Customers)
	assert.Equal(t, []string{
		"Row 1: " + mustDescribe(t, validator.ErrInvalidName),
		"Row 2: " + mustDescribe(t, validator.ErrInvalidPhone),
	}, result.Errors)
}

func mustDescribe(t *testing.T, err error) string {
	t.Helper()
	msg, ok := validator.Describe(err)
	require.True(t, ok)
	return msg
}

func TestGetByID(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t)

	created, err := svc.Create(ctx, domain.CreateCustomerRequest{Name: "Eve", Email: "eve@example.com"})
	require.NoError(t, err)

	got, err := svc.GetByID(ctx, domain.GetCustomerRequest{ID: created.ID.String()})
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
	assert.Equal(t, "eve@example.com", got.Email)

	_, err = svc.GetByID(ctx, domain.GetCustomerRequest{ID: "abc"})
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	_, err = svc.GetByID(ctx, domain.GetCustomerRequest{ID: "12345"})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestListNewestFirstWithPagination(t *testing.T) {
	ctx := context.Background()
	svc, _, clk := newService(t)

	for _, email := range []string{"a@example.com", "b@example.com", "c@example.com"} {
		_, err := svc.Create(ctx, domain.CreateCustomerRequest{Name: "User " + email[:1], Email: email})
		require.NoError(t, err)
		clk.Advance(time.Minute)
	}

	first, err := svc.List(ctx, domain.ListCustomerRequest{PageSize: 2})
	require.NoError(t, err)
	require.Len(t, first.Customers, 2)
	assert.Equal(t, "c@example.com", first.Customers[0].Email)
	assert.Equal(t, "b@example.com", first.Customers[1].Email)
	assert.True(t, first.HasMore)
	require.NotEmpty(t, first.NextPageToken)

	second, err := svc.List(ctx, domain.ListCustomerRequest{PageSize: 2, PageToken: first.NextPageToken})
	require.NoError(t, err)
	require.Len(t, second.Customers, 1)
	assert.Equal(t, "a@example.com", second.Customers[0].Email)
	assert.False(t, second.HasMore)
}

func TestListFilters(t *testing.T) {
	ctx := context.Background()
	svc, _, _ := newService(t)

	_, err := svc.Create(ctx, domain.CreateCustomerRequest{Name: "Alice Smith", Email: "alice@example.com", Phone: strPtr("+15551234567")})
	require.NoError(t, err)
	_, err = svc.Create(ctx, domain.CreateCustomerRequest{Name: "Bob Jones", Email: "bob@corp.io", Phone: strPtr("555-123-4567")})
	require.NoError(t, err)

	resp, err := svc.List(ctx, domain.ListCustomerRequest{Name: "smith"})
	require.NoError(t, err)
	require.Len(t, resp.Customers, 1)
	assert.Equal(t, "alice@example.com", resp.Customers[0].Email)

	resp, err = svc.List(ctx, domain.ListCustomerRequest{PhonePrefix: "+1"})
	require.NoError(t, err)
	require.Len(t, resp.Customers, 1)
	assert.Equal(t, "alice@example.com", resp.Customers[0].Email)

	resp, err = svc.List(ctx, domain.ListCustomerRequest{Search: "CORP"})
	require.NoError(t, err)
	require.Len(t, resp.Customers, 1)
	assert.Equal(t, "bob@corp.io", resp.Customers[0].Email)

	resp, err = svc.List(ctx, domain.ListCustomerRequest{SortBy: "name", OrderBy: "asc"})
	require.NoError(t, err)
	require.Len(t, resp.Customers, 2)
	assert.Equal(t, "Alice Smith", resp.Customers[0].Name)
}
