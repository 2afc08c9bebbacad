package scheduler

import (
	"context"
	"fmt"
	"time"

	customerdomain "github.com/smallbiznis/crm/internal/customer/domain"
	orderdomain "github.com/smallbiznis/crm/internal/order/domain"
	reportdomain "github.com/smallbiznis/crm/internal/report/domain"
	"github.com/smallbiznis/crm/pkg/db/pagination"
	"go.uber.org/zap"
)

const heartbeatLayout = "02/01/2006-15:04:05"

// HeartbeatJob checks the database and logs that the service is alive.
func (s *Scheduler) HeartbeatJob(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	if err := sqlDB.PingContext(ctx); err != nil {
		s.logJobError(ctx, "crm.heartbeat.db_unreachable", err)
		return err
	}

	s.logger(ctx).Info("crm.heartbeat",
		zap.String("message", "CRM is alive"),
		zap.String("timestamp", s.clock.Now().Format(heartbeatLayout)),
	)
	jobRunFromContext(ctx).AddProcessed(1)
	return nil
}

func (s *Scheduler) LowStockRestockJob(ctx context.Context) error {
	cfg := s.jobs.Get().LowStock

	updated, err := s.productSvc.RestockLowStock(ctx, cfg.Threshold, cfg.Increment)
	if err != nil {
		s.logJobError(ctx, "low stock restock failed", err)
		return err
	}

	log := s.logger(ctx)
	for _, product := range updated {
		log.Info("product.restocked",
			zap.String("product_id", product.ID),
			zap.String("name", product.Name),
			zap.Int("stock", product.Stock),
		)
	}
	jobRunFromContext(ctx).AddProcessed(len(updated))
	s.metrics.AddItemsProcessed(JobLowStockRestock, "products", len(updated))
	return nil
}

func (s *Scheduler) CRMReportJob(ctx context.Context) error {
	cfg := s.jobs.Get().Report

	result, err := s.reportSvc.Generate(ctx, reportdomain.SummaryRequest{
		WindowDays:   cfg.WindowDays,
		TopCustomers: cfg.TopCustomers,
	})
	if err != nil {
		s.logJobError(ctx, "crm report failed", err)
		return err
	}

	summary := result.Summary
	s.logger(ctx).Info("crm.report",
		zap.String("message", fmt.Sprintf("Report: %d customers, %d orders, %s revenue",
			summary.TotalCustomers,
			summary.TotalOrders,
			summary.TotalRevenue.StringFixed(2),
		)),
		zap.String("report_id", result.Report.ID.String()),
		zap.String("average_order_value", summary.AverageOrderValue.StringFixed(2)),
		zap.Int("top_customers", len(summary.TopCustomers)),
		zap.String("file_path", result.FilePath),
	)
	jobRunFromContext(ctx).AddProcessed(1)
	s.metrics.AddItemsProcessed(JobCRMReport, "reports", 1)
	return nil
}

// OrderRemindersJob logs a reminder for every order placed inside the
// reminder window, walking all pages.
func (s *Scheduler) OrderRemindersJob(ctx context.Context) error {
	cfg := s.jobs.Get().Reminders
	since := s.clock.Now().Add(-time.Duration(cfg.WindowDays) * 24 * time.Hour)

	emails := make(map[string]string)
	log := s.logger(ctx)
	count := 0
	token := ""
	for {
		page, err := s.orderSvc.List(ctx, orderdomain.ListOrderRequest{
			PageToken:     token,
			PageSize:      pagination.MaxPageSize,
			OrderDateFrom: &since,
		})
		if err != nil {
			s.logJobError(ctx, "order reminders failed", err)
			return err
		}

		for _, order := range page.Orders {
			customerID := order.CustomerID.String()
			email, ok := emails[customerID]
			if !ok {
				customer, err := s.customerSvc.GetByID(ctx, customerdomain.GetCustomerRequest{ID: customerID})
				if err != nil {
					s.logJobError(ctx, "order reminder customer lookup failed", err,
						zap.String("order_id", order.ID.String()),
					)
					continue
				}
				email = customer.Email
				emails[customerID] = email
			}
			log.Info("order.reminder",
				zap.String("order_id", order.ID.String()),
				zap.String("customer_email", email),
				zap.Time("order_date", order.OrderDate),
			)
			count++
		}

		if !page.HasMore || page.NextPageToken == "" {
			break
		}
		token = page.NextPageToken
	}

	log.Info("order reminders processed", zap.Int("count", count))
	jobRunFromContext(ctx).AddProcessed(count)
	s.metrics.AddItemsProcessed(JobOrderReminders, "orders", count)
	return nil
}
