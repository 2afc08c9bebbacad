// Package render draws CRM report summaries as PDF documents.
package render

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strconv"

	"github.com/johnfercher/maroto/v2"
	"github.com/johnfercher/maroto/v2/pkg/components/col"
	"github.com/johnfercher/maroto/v2/pkg/components/text"
	"github.com/johnfercher/maroto/v2/pkg/config"
	"github.com/johnfercher/maroto/v2/pkg/consts/align"
	"github.com/johnfercher/maroto/v2/pkg/consts/fontstyle"
	"github.com/johnfercher/maroto/v2/pkg/props"
	"github.com/smallbiznis/crm/internal/report/domain"
)

const dateLayout = "2006-01-02"

type PDFRenderer struct {
	title string
}

func NewPDFRenderer() domain.Renderer {
	return &PDFRenderer{title: "CRM Report"}
}

func (r *PDFRenderer) Render(ctx context.Context, summary domain.Summary) (io.Reader, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	cfg := config.NewBuilder().
		WithPageNumber(props.PageNumber{
			Pattern: "Page {current} of {total}",
			Place:   props.RightBottom,
		}).
		Build()

	m := maroto.New(cfg)

	m.AddRow(20,
		text.NewCol(12, r.title, props.Text{
			Size:  20,
			Style: fontstyle.Bold,
			Align: align.Left,
		}),
	)

	m.AddRow(12,
		text.NewCol(12, fmt.Sprintf("Period: %s to %s",
			summary.PeriodStart.Format(dateLayout),
			summary.PeriodEnd.Format(dateLayout),
		), props.Text{Size: 10}),
	)

	m.AddRow(30,
		col.New(6).Add(
			text.New("Total customers: "+strconv.FormatInt(summary.TotalCustomers, 10), props.Text{Top: 0}),
			text.New("Total orders: "+strconv.FormatInt(summary.TotalOrders, 10), props.Text{Top: 6}),
		),
		col.New(6).Add(
			text.New("Total revenue: "+summary.TotalRevenue.StringFixed(2), props.Text{Top: 0, Align: align.Right}),
			text.New("Average order value: "+summary.AverageOrderValue.StringFixed(2), props.Text{Top: 6, Align: align.Right}),
		),
	)

	m.AddRow(10,
		text.NewCol(12, "Top customers", props.Text{Size: 12, Style: fontstyle.Bold}),
	)
	m.AddRow(8,
		text.NewCol(5, "Customer", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(3, "Email", props.Text{Style: fontstyle.Bold, Size: 9}),
		text.NewCol(2, "Orders", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
		text.NewCol(2, "Spent", props.Text{Style: fontstyle.Bold, Size: 9, Align: align.Right}),
	)

	if len(summary.TopCustomers) == 0 {
		m.AddRow(8, text.NewCol(12, "No orders in this period.", props.Text{Size: 9}))
	}
	for _, c := range summary.TopCustomers {
		m.AddRow(8,
			text.NewCol(5, c.Name, props.Text{Size: 9}),
			text.NewCol(3, c.Email, props.Text{Size: 9}),
			text.NewCol(2, strconv.FormatInt(c.OrderCount, 10), props.Text{Size: 9, Align: align.Right}),
			text.NewCol(2, c.TotalSpent.StringFixed(2), props.Text{Size: 9, Align: align.Right}),
		)
	}

	doc, err := m.Generate()
	if err != nil {
		return nil, err
	}

	return bytes.NewReader(doc.GetBytes()), nil
}
