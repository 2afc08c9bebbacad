package service_test

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/smallbiznis/crm/internal/clock"
	"github.com/smallbiznis/crm/internal/config"
	"github.com/smallbiznis/crm/internal/report/domain"
	"github.com/smallbiznis/crm/internal/report/render"
	"github.com/smallbiznis/crm/internal/report/repository"
	"github.com/smallbiznis/crm/internal/report/service"
	"github.com/smallbiznis/crm/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

var now = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func TestSummarizeWindow(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	node := testutil.NewNode(t)
	seed := testutil.NewSeeder(db, node).WithClock(func() time.Time { return now })

	alice := seed.Customer(t, "Alice", "alice@example.com")
	bob := seed.Customer(t, "Bob", "bob@example.com")
	seed.Customer(t, "Carol", "carol@example.com")
	desk := seed.Product(t, "Desk", "150.00", 5)
	cable := seed.Product(t, "Cable", "10.00", 5)

	seed.Order(t, alice, now.Add(-24*time.Hour), desk)
	seed.Order(t, alice, now.Add(-48*time.Hour), cable)
	seed.Order(t, bob, now.Add(-72*time.Hour), cable)
	seed.Order(t, bob, now.AddDate(0, 0, -30), desk)

	svc := service.New(service.Params{
		DB:    db,
		Log:   zaptest.NewLogger(t),
		GenID: node,
		Repo:  repository.Provide(),
		Clock: clock.NewFakeClock(now),
	})

	summary, err := svc.Summarize(ctx, domain.SummaryRequest{})
	require.NoError(t, err)
	assert.Equal(t, int64(3), summary.TotalCustomers)
	assert.Equal(t, int64(3), summary.TotalOrders)
	assert.Equal(t, "170.00", summary.TotalRevenue.StringFixed(2))
	assert.Equal(t, "56.67", summary.AverageOrderValue.StringFixed(2))
	require.Len(t, summary.TopCustomers, 2)
	assert.Equal(t, alice, summary.TopCustomers[0].CustomerID)
	assert.Equal(t, int64(2), summary.TopCustomers[0].OrderCount)
	assert.Equal(t, "160.00", summary.TopCustomers[0].TotalSpent.StringFixed(2))

	_, err = svc.Summarize(ctx, domain.SummaryRequest{WindowDays: -1})
	assert.ErrorIs(t, err, domain.ErrInvalidWindow)
}

func TestGeneratePersistsAndWritesPDF(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	node := testutil.NewNode(t)
	seed := testutil.NewSeeder(db, node).WithClock(func() time.Time { return now })
	alice := seed.Customer(t, "Alice", "alice@example.com")
	seed.Order(t, alice, now.Add(-time.Hour), seed.Product(t, "Desk", "150.00", 5))

	dir := t.TempDir()
	svc := service.New(service.Params{
		DB:       db,
		Log:      zaptest.NewLogger(t),
		GenID:    node,
		Repo:     repository.Provide(),
		Config:   config.Config{ReportDir: dir},
		Renderer: render.NewPDFRenderer(),
		Clock:    clock.NewFakeClock(now),
	})

	_, err := svc.Latest(ctx)
	require.ErrorIs(t, err, domain.ErrNotFound)

	result, err := svc.Generate(ctx, domain.SummaryRequest{WindowDays: 7, TopCustomers: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(1), testutil.Count(t, db, "crm_reports"))
	assert.Equal(t, filepath.Join(dir, "crm-report-2026-03-01-120000.pdf"), result.FilePath)

	body, err := os.ReadFile(result.FilePath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(body), "%PDF"))

	latest, err := svc.Latest(ctx)
	require.NoError(t, err)
	assert.Equal(t, result.Report.ID, latest.ID)
	assert.Equal(t, int64(1), latest.TotalOrders)

	var top []domain.TopCustomer
	require.NoError(t, json.Unmarshal(latest.TopCustomers, &top))
	require.Len(t, top, 1)
	assert.Equal(t, "Alice", top[0].Name)
}
