package service

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/shopspring/decimal"
	"github.com/smallbiznis/crm/internal/clock"
	"github.com/smallbiznis/crm/internal/config"
	"github.com/smallbiznis/crm/internal/report/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	GenID    *snowflake.Node
	Repo     domain.Repository
	Config   config.Config
	Renderer domain.Renderer `optional:"true"`
	Clock    clock.Clock     `optional:"true"`
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	genID     *snowflake.Node
	repo      domain.Repository
	renderer  domain.Renderer
	reportDir string
	clock     clock.Clock
}

func New(p Params) domain.Service {
	clk := p.Clock
	if clk == nil {
		clk = clock.NewSystemClock()
	}
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("report.service"),
		genID:     p.GenID,
		repo:      p.Repo,
		renderer:  p.Renderer,
		reportDir: strings.TrimSpace(p.Config.ReportDir),
		clock:     clk,
	}
}

// Summarize computes totals for the last WindowDays days ending now.
// Customer count covers all customers; order figures cover the window.
func (s *Service) Summarize(ctx context.Context, req domain.SummaryRequest) (domain.Summary, error) {
	window, top, err := normalize(req)
	if err != nil {
		return domain.Summary{}, err
	}

	end := s.clock.Now()
	start := end.AddDate(0, 0, -window)

	customers, err := s.repo.CountCustomers(ctx, s.db)
	if err != nil {
		return domain.Summary{}, err
	}
	stats, err := s.repo.OrderStats(ctx, s.db, start, end)
	if err != nil {
		return domain.Summary{}, err
	}
	topCustomers, err := s.repo.TopCustomers(ctx, s.db, start, end, top)
	if err != nil {
		return domain.Summary{}, err
	}
	if topCustomers == nil {
		topCustomers = []domain.TopCustomer{}
	}

	average := decimal.Zero
	if stats.TotalOrders > 0 {
		average = stats.TotalRevenue.Div(decimal.NewFromInt(stats.TotalOrders)).Round(2)
	}

	return domain.Summary{
		PeriodStart:       start,
		PeriodEnd:         end,
		TotalCustomers:    customers,
		TotalOrders:       stats.TotalOrders,
		TotalRevenue:      stats.TotalRevenue.Round(2),
		AverageOrderValue: average,
		TopCustomers:      topCustomers,
	}, nil
}

// Generate summarizes, stores the report row and, when a report directory is
// configured, writes the rendered document there.
func (s *Service) Generate(ctx context.Context, req domain.SummaryRequest) (domain.GenerateResult, error) {
	summary, err := s.Summarize(ctx, req)
	if err != nil {
		return domain.GenerateResult{}, err
	}

	top, err := json.Marshal(summary.TopCustomers)
	if err != nil {
		return domain.GenerateResult{}, fmt.Errorf("encode top customers: %w", err)
	}

	report := domain.Report{
		ID:                s.genID.Generate(),
		PeriodStart:       summary.PeriodStart,
		PeriodEnd:         summary.PeriodEnd,
		TotalCustomers:    summary.TotalCustomers,
		TotalOrders:       summary.TotalOrders,
		TotalRevenue:      summary.TotalRevenue,
		AverageOrderValue: summary.AverageOrderValue,
		TopCustomers:      datatypes.JSON(top),
		CreatedAt:         s.clock.Now(),
	}
	if err := s.repo.Insert(ctx, s.db, &report); err != nil {
		return domain.GenerateResult{}, err
	}

	result := domain.GenerateResult{Report: report, Summary: summary}
	if s.reportDir != "" && s.renderer != nil {
		path, err := s.writeDocument(ctx, summary)
		if err != nil {
			return result, err
		}
		result.FilePath = path
	}

	s.log.Info("report.generated",
		zap.String("report_id", report.ID.String()),
		zap.Int64("total_customers", summary.TotalCustomers),
		zap.Int64("total_orders", summary.TotalOrders),
		zap.String("total_revenue", summary.TotalRevenue.StringFixed(2)),
		zap.String("file_path", result.FilePath),
	)
	return result, nil
}

func (s *Service) Latest(ctx context.Context) (domain.Report, error) {
	report, err := s.repo.Latest(ctx, s.db)
	if err != nil {
		return domain.Report{}, err
	}
	if report == nil {
		return domain.Report{}, domain.ErrNotFound
	}
	return *report, nil
}

func (s *Service) writeDocument(ctx context.Context, summary domain.Summary) (string, error) {
	doc, err := s.renderer.Render(ctx, summary)
	if err != nil {
		return "", fmt.Errorf("render report: %w", err)
	}

	if err := os.MkdirAll(s.reportDir, 0o755); err != nil {
		return "", fmt.Errorf("create report dir: %w", err)
	}

	name := slug.Make(fmt.Sprintf("crm report %s", summary.PeriodEnd.Format("2006-01-02 150405"))) + ".pdf"
	path := filepath.Join(s.reportDir, name)

	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("create report file: %w", err)
	}
	if _, err := io.Copy(f, doc); err != nil {
		_ = f.Close()
		return "", fmt.Errorf("write report file: %w", err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("close report file: %w", err)
	}
	return path, nil
}

func normalize(req domain.SummaryRequest) (int, int, error) {
	window := req.WindowDays
	if window == 0 {
		window = domain.DefaultWindowDays
	}
	if window < 0 || window > domain.MaxWindowDays {
		return 0, 0, domain.ErrInvalidWindow
	}
	top := req.TopCustomers
	if top <= 0 {
		top = domain.DefaultTopCustomers
	}
	if top > domain.MaxTopCustomers {
		top = domain.MaxTopCustomers
	}
	return window, top, nil
}
