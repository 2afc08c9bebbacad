package render

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/smallbiznis/crm/internal/report/domain"
	"github.com/stretchr/testify/require"
)

func TestRenderProducesPDF(t *testing.T) {
	end := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	summary := domain.Summary{
		PeriodStart:       end.AddDate(0, 0, -7),
		PeriodEnd:         end,
		TotalCustomers:    3,
		TotalOrders:       2,
		TotalRevenue:      decimal.RequireFromString("150.00"),
		AverageOrderValue: decimal.RequireFromString("75.00"),
		TopCustomers: []domain.TopCustomer{
			{Name: "Alice", Email: "alice@example.com", OrderCount: 2, TotalSpent: decimal.RequireFromString("150.00")},
		},
	}

	reader, err := NewPDFRenderer().Render(context.Background(), summary)
	require.NoError(t, err)

	body, err := io.ReadAll(reader)
	require.NoError(t, err)
	require.True(t, bytes.HasPrefix(body, []byte("%PDF")))
}

func TestRenderHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewPDFRenderer().Render(ctx, domain.Summary{})
	require.ErrorIs(t, err, context.Canceled)
}
