package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/crm/internal/clock"
	customerrepo "github.com/smallbiznis/crm/internal/customer/repository"
	"github.com/smallbiznis/crm/internal/order/domain"
	"github.com/smallbiznis/crm/internal/order/mocks"
	"github.com/smallbiznis/crm/internal/order/repository"
	"github.com/smallbiznis/crm/internal/order/service"
	productrepo "github.com/smallbiznis/crm/internal/product/repository"
	"github.com/smallbiznis/crm/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

type fixture struct {
	svc  domain.Service
	db   *gorm.DB
	node *snowflake.Node
	seed *testutil.Seeder
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	return newFixtureWithRepo(t, repository.Provide())
}

func newFixtureWithRepo(t *testing.T, repo domain.Repository) fixture {
	t.Helper()
	db := testutil.NewDB(t)
	node := testutil.NewNode(t)
	svc := service.New(service.Params{
		DB:           db,
		Log:          zaptest.NewLogger(t),
		GenID:        node,
		Repo:         repo,
		CustomerRepo: customerrepo.Provide(),
		ProductRepo:  productrepo.Provide(),
		Clock:        clock.NewFakeClock(now),
	})
	seed := testutil.NewSeeder(db, node).WithClock(func() time.Time { return now })
	return fixture{svc: svc, db: db, node: node, seed: seed}
}

func (f fixture) assertNoOrders(t *testing.T) {
	t.Helper()
	assert.Equal(t, int64(0), testutil.Count(t, f.db, "orders"))
	assert.Equal(t, int64(0), testutil.Count(t, f.db, "order_items"))
}

func TestCreateSumsItemTotals(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	customerID := f.seed.Customer(t, "Alice", "alice@example.com")
	laptop := f.seed.Product(t, "Laptop", "999.99", 5)
	mouse := f.seed.Product(t, "Mouse", "25.50", 5)

	order, err := f.svc.Create(ctx, domain.CreateOrderRequest{
		CustomerID: customerID.String(),
		ProductIDs: []string{laptop.String(), mouse.String()},
	})
	require.NoError(t, err)
	assert.Equal(t, "1025.49", order.TotalAmount.StringFixed(2))
	assert.True(t, order.OrderDate.Equal(now))
	require.Len(t, order.Items, 2)

	sum := decimal.Zero
	for _, item := range order.Items {
		assert.Equal(t, 1, item.Quantity)
		assert.True(t, item.TotalPrice.Equal(item.UnitPrice))
		sum = sum.Add(item.TotalPrice)
	}
	assert.True(t, sum.Equal(order.TotalAmount))

	stored, err := f.svc.GetByID(ctx, order.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "1025.49", stored.TotalAmount.StringFixed(2))
	assert.Len(t, stored.Items, 2)
	assert.Equal(t, customerID, stored.CustomerID)
}

func TestCreateUsesSuppliedOrderDate(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	customerID := f.seed.Customer(t, "Alice", "alice@example.com")
	product := f.seed.Product(t, "Desk", "150.00", 1)

	placed := now.Add(-48 * time.Hour)
	order, err := f.svc.Create(ctx, domain.CreateOrderRequest{
		CustomerID: customerID.String(),
		ProductIDs: []string{product.String()},
		OrderDate:  &placed,
	})
	require.NoError(t, err)
	assert.True(t, order.OrderDate.Equal(placed))
}

func TestCreateUnknownCustomerWritesNothing(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	product := f.seed.Product(t, "Desk", "150.00", 1)

	_, err := f.svc.Create(ctx, domain.CreateOrderRequest{
		CustomerID: f.node.Generate().String(),
		ProductIDs: []string{product.String()},
	})
	require.ErrorIs(t, err, domain.ErrCustomerNotFound)
	f.assertNoOrders(t)

	_, err = f.svc.Create(ctx, domain.CreateOrderRequest{
		CustomerID: "nope",
		ProductIDs: []string{product.String()},
	})
	require.ErrorIs(t, err, domain.ErrCustomerNotFound)
	assert.EqualError(t, err, "Customer with ID 'nope' not found")
	f.assertNoOrders(t)
}

func TestCreateRejectsEmptyAndDuplicateProducts(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	customerID := f.seed.Customer(t, "Alice", "alice@example.com")
	product := f.seed.Product(t, "Desk", "150.00", 1)

	_, err := f.svc.Create(ctx, domain.CreateOrderRequest{CustomerID: customerID.String()})
	require.ErrorIs(t, err, domain.ErrEmptyProducts)

	_, err = f.svc.Create(ctx, domain.CreateOrderRequest{
		CustomerID: customerID.String(),
		ProductIDs: []string{product.String(), product.String()},
	})
	require.ErrorIs(t, err, domain.ErrDuplicateProduct)
	f.assertNoOrders(t)

	// same id spelled differently
	_, err = f.svc.Create(ctx, domain.CreateOrderRequest{
		CustomerID: customerID.String(),
		ProductIDs: []string{product.String(), "0" + product.String()},
	})
	require.ErrorIs(t, err, domain.ErrDuplicateProduct)

	_, err = f.svc.Create(ctx, domain.CreateOrderRequest{
		CustomerID: customerID.String(),
		ProductIDs: []string{" " + product.String(), product.String()},
	})
	require.ErrorIs(t, err, domain.ErrDuplicateProduct)
	f.assertNoOrders(t)
}

func TestCreateRollsBackWhenItemInsertFails(t *testing.T) {
	ctx := context.Background()
	errInsert := errors.New("insert order items: disk full")

	ctrl := gomock.NewController(t)
	base := repository.Provide()
	repo := mocks.NewMockRepository(ctrl)
	f := newFixtureWithRepo(t, repo)
	customerID := f.seed.Customer(t, "Alice", "alice@example.com")
	desk := f.seed.Product(t, "Desk", "150.00", 1)
	chair := f.seed.Product(t, "Chair", "75.25", 1)

	repo.EXPECT().Insert(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(base.Insert)
	repo.EXPECT().InsertItems(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, tx *gorm.DB, items []domain.OrderItem) error {
			// the order row is already written inside the transaction
			assert.Equal(t, int64(1), testutil.Count(t, tx, "orders"))
			assert.Len(t, items, 2)
			return errInsert
		},
	)

	_, err := f.svc.Create(ctx, domain.CreateOrderRequest{
		CustomerID: customerID.String(),
		ProductIDs: []string{desk.String(), chair.String()},
	})
	require.ErrorIs(t, err, errInsert)
	f.assertNoOrders(t)
}

func TestCreateMapsForeignKeyFailureToProductNotFound(t *testing.T) {
	ctx := context.Background()

	ctrl := gomock.NewController(t)
	base := repository.Provide()
	repo := mocks.NewMockRepository(ctrl)
	f := newFixtureWithRepo(t, repo)
	customerID := f.seed.Customer(t, "Alice", "alice@example.com")
	desk := f.seed.Product(t, "Desk", "150.00", 1)
	chair := f.seed.Product(t, "Chair", "75.25", 1)

	repo.EXPECT().Insert(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(base.Insert)
	repo.EXPECT().InsertItems(gomock.Any(), gomock.Any(), gomock.Any()).DoAndReturn(
		func(_ context.Context, _ *gorm.DB, items []domain.OrderItem) error {
			return &domain.ItemError{ProductID: items[1].ProductID, Err: gorm.ErrForeignKeyViolated}
		},
	)

	_, err := f.svc.Create(ctx, domain.CreateOrderRequest{
		CustomerID: customerID.String(),
		ProductIDs: []string{desk.String(), chair.String()},
	})
	require.ErrorIs(t, err, domain.ErrProductNotFound)
	assert.EqualError(t, err, "Product with ID '"+chair.String()+"' not found")
	f.assertNoOrders(t)
}

func TestCreateRejectsTotalAboveColumnLimit(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	customerID := f.seed.Customer(t, "Alice", "alice@example.com")
	first := f.seed.Product(t, "Island", "60000000.00", 1)
	second := f.seed.Product(t, "Jet", "60000000.00", 1)

	_, err := f.svc.Create(ctx, domain.CreateOrderRequest{
		CustomerID: customerID.String(),
		ProductIDs: []string{first.String(), second.String()},
	})
	require.ErrorIs(t, err, domain.ErrTotalTooLarge)
	f.assertNoOrders(t)
}

func TestCreateKeepsUnitPriceSnapshot(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	customerID := f.seed.Customer(t, "Alice", "alice@example.com")
	laptop := f.seed.Product(t, "Laptop", "999.99", 5)

	order, err := f.svc.Create(ctx, domain.CreateOrderRequest{
		CustomerID: customerID.String(),
		ProductIDs: []string{laptop.String()},
	})
	require.NoError(t, err)

	require.NoError(t, f.db.Exec(
		`UPDATE products SET price = ? WHERE id = ?`,
		decimal.RequireFromString("1299.00"), laptop,
	).Error)

	stored, err := f.svc.GetByID(ctx, order.ID.String())
	require.NoError(t, err)
	require.Len(t, stored.Items, 1)
	assert.Equal(t, "999.99", stored.Items[0].UnitPrice.StringFixed(2))
	assert.Equal(t, "999.99", stored.Items[0].TotalPrice.StringFixed(2))
	assert.Equal(t, "999.99", stored.TotalAmount.StringFixed(2))
}

func TestCreateRollsBackOnMissingProductThenRetrySucceeds(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	customerID := f.seed.Customer(t, "Alice", "alice@example.com")
	first := f.seed.Product(t, "Desk", "150.00", 1)
	second := f.seed.Product(t, "Chair", "75.25", 1)
	missing := f.node.Generate()

	_, err := f.svc.Create(ctx, domain.CreateOrderRequest{
		CustomerID: customerID.String(),
		ProductIDs: []string{first.String(), missing.String(), second.String()},
	})
	require.ErrorIs(t, err, domain.ErrProductNotFound)
	assert.Contains(t, err.Error(), missing.String())
	f.assertNoOrders(t)

	order, err := f.svc.Create(ctx, domain.CreateOrderRequest{
		CustomerID: customerID.String(),
		ProductIDs: []string{first.String(), second.String()},
	})
	require.NoError(t, err)
	assert.Equal(t, "225.25", order.TotalAmount.StringFixed(2))
	assert.Equal(t, int64(1), testutil.Count(t, f.db, "orders"))
	assert.Equal(t, int64(2), testutil.Count(t, f.db, "order_items"))
}

func TestGetByIDErrors(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)

	_, err := f.svc.GetByID(ctx, "abc")
	assert.ErrorIs(t, err, domain.ErrInvalidID)

	_, err = f.svc.GetByID(ctx, f.node.Generate().String())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func orderIDs(resp domain.ListOrderResponse) []snowflake.ID {
	out := make([]snowflake.ID, 0, len(resp.Orders))
	for _, o := range resp.Orders {
		out = append(out, o.ID)
	}
	return out
}

func TestListFilters(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	alice := f.seed.Customer(t, "Alice Smith", "alice@example.com")
	bob := f.seed.Customer(t, "Bob Jones", "bob@corp.io")
	laptop := f.seed.Product(t, "Laptop", "999.99", 5)
	cable := f.seed.Product(t, "Cable", "9.99", 5)

	recentBig := f.seed.Order(t, alice, now.Add(-24*time.Hour), laptop)
	oldSmall := f.seed.Order(t, bob, now.Add(-30*24*time.Hour), cable)
	middle := f.seed.Order(t, bob, now.Add(-3*24*time.Hour), cable, laptop)

	resp, err := f.svc.List(ctx, domain.ListOrderRequest{})
	require.NoError(t, err)
	assert.Equal(t, []snowflake.ID{recentBig, middle, oldSmall}, orderIDs(resp))
	for _, o := range resp.Orders {
		assert.NotEmpty(t, o.Items)
	}

	resp, err = f.svc.List(ctx, domain.ListOrderRequest{Recent: true})
	require.NoError(t, err)
	assert.Equal(t, []snowflake.ID{recentBig, middle}, orderIDs(resp))

	resp, err = f.svc.List(ctx, domain.ListOrderRequest{HighValue: true})
	require.NoError(t, err)
	assert.Equal(t, []snowflake.ID{recentBig, middle}, orderIDs(resp))

	resp, err = f.svc.List(ctx, domain.ListOrderRequest{CustomerName: "bob"})
	require.NoError(t, err)
	assert.Equal(t, []snowflake.ID{middle, oldSmall}, orderIDs(resp))

	resp, err = f.svc.List(ctx, domain.ListOrderRequest{ProductName: "cab"})
	require.NoError(t, err)
	assert.Equal(t, []snowflake.ID{middle, oldSmall}, orderIDs(resp))

	resp, err = f.svc.List(ctx, domain.ListOrderRequest{ProductID: laptop.String()})
	require.NoError(t, err)
	assert.Equal(t, []snowflake.ID{recentBig, middle}, orderIDs(resp))

	resp, err = f.svc.List(ctx, domain.ListOrderRequest{Search: "alice"})
	require.NoError(t, err)
	assert.Equal(t, []snowflake.ID{recentBig}, orderIDs(resp))

	resp, err = f.svc.List(ctx, domain.ListOrderRequest{SortBy: "total_amount", OrderBy: "asc"})
	require.NoError(t, err)
	assert.Equal(t, []snowflake.ID{oldSmall, recentBig, middle}, orderIDs(resp))
}

func TestListKeysetPagination(t *testing.T) {
	ctx := context.Background()
	f := newFixture(t)
	customer := f.seed.Customer(t, "Alice", "alice@example.com")
	product := f.seed.Product(t, "Desk", "150.00", 1)

	var want []snowflake.ID
	for day := 1; day <= 3; day++ {
		want = append(want, f.seed.Order(t, customer, now.Add(-time.Duration(day)*24*time.Hour), product))
	}

	first, err := f.svc.List(ctx, domain.ListOrderRequest{PageSize: 2})
	require.NoError(t, err)
	require.True(t, first.HasMore)
	assert.Equal(t, want[:2], orderIDs(first))

	second, err := f.svc.List(ctx, domain.ListOrderRequest{PageSize: 2, PageToken: first.NextPageToken})
	require.NoError(t, err)
	assert.False(t, second.HasMore)
	assert.Equal(t, want[2:], orderIDs(second))
}
