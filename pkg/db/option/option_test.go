package option

import (
	"fmt"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/smallbiznis/crm/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type item struct {
	ID        int64
	Name      string
	Price     int
	CreatedAt time.Time
}

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Exec(`CREATE TABLE items (id INTEGER PRIMARY KEY, name TEXT, price INTEGER, created_at DATETIME)`).Error)
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 1; i <= 5; i++ {
		require.NoError(t, db.Exec(`INSERT INTO items (id, name, price, created_at) VALUES (?, ?, ?, ?)`,
			i, fmt.Sprintf("Item %d", 6-i), i*10, base.Add(time.Duration(i)*time.Second)).Error)
	}
	return db
}

func find(t *testing.T, db *gorm.DB, opts ...QueryOption) []item {
	t.Helper()
	stmt := db.Model(&item{})
	for _, opt := range opts {
		stmt = opt.Apply(stmt)
	}
	var out []item
	require.NoError(t, stmt.Find(&out).Error)
	return out
}

func ids(items []item) []int64 {
	out := make([]int64, 0, len(items))
	for _, it := range items {
		out = append(out, it.ID)
	}
	return out
}

func TestApplyOperator(t *testing.T) {
	db := setupDB(t)

	got := find(t, db,
		ApplyOperator(Condition{Field: "price", Operator: GTE, Value: 20}),
		ApplyOperator(Condition{Field: "price", Operator: LTE, Value: 40}),
		WithSortBy(WithQuerySortBy("price", "asc", map[string]bool{"price": true})),
	)
	assert.Equal(t, []int64{2, 3, 4}, ids(got))

	// unknown operators and unsafe fields are ignored
	got = find(t, db,
		ApplyOperator(Condition{Field: "price; DROP TABLE items", Operator: EQ, Value: 1}),
		ApplyOperator(Condition{Field: "price", Operator: "~", Value: 1}),
	)
	assert.Len(t, got, 5)
}

func TestContains(t *testing.T) {
	db := setupDB(t)
	got := find(t, db, Contains("name", "ITEM 3"))
	require.Len(t, got, 1)
	assert.Equal(t, int64(3), got[0].ID)
}

func TestWithSortByFallsBackToCreatedAtDesc(t *testing.T) {
	db := setupDB(t)
	got := find(t, db, WithSortBy(WithQuerySortBy("password", "asc", map[string]bool{"created_at": true, "name": true})))
	assert.Equal(t, []int64{5, 4, 3, 2, 1}, ids(got))

	got = find(t, db, WithSortBy(WithQuerySortBy("name", "", map[string]bool{"created_at": true, "name": true})))
	assert.Equal(t, []int64{5, 4, 3, 2, 1}, ids(got))
}

func TestApplyPaginationKeyset(t *testing.T) {
	db := setupDB(t)
	sort := WithSortBy(QuerySortBy{Allow: map[string]bool{"created_at": true}})

	first := find(t, db, ApplyPagination(pagination.Pagination{PageSize: 2}), sort)
	require.Equal(t, []int64{5, 4, 3}, ids(first))

	token, err := pagination.EncodeCursor(pagination.Cursor{
		ID:        "4",
		CreatedAt: first[1].CreatedAt.UTC().Format(time.RFC3339Nano),
	})
	require.NoError(t, err)

	second := find(t, db, ApplyPagination(pagination.Pagination{PageSize: 2, PageToken: token}), sort)
	assert.Equal(t, []int64{3, 2, 1}, ids(second))
}

func TestApplyOffsetPagination(t *testing.T) {
	db := setupDB(t)
	sort := WithSortBy(WithQuerySortBy("price", "asc", map[string]bool{"price": true}))

	got := find(t, db, ApplyOffsetPagination(pagination.Pagination{PageSize: 2, PageToken: pagination.OffsetToken(0, 2)}), sort)
	assert.Equal(t, []int64{3, 4, 5}, ids(got))
}
