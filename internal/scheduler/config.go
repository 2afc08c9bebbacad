package scheduler

import (
	"time"

	"github.com/smallbiznis/crm/internal/config"
)

const (
	JobHeartbeat       = "heartbeat"
	JobLowStockRestock = "low_stock_restock"
	JobCRMReport       = "crm_report"
	JobOrderReminders  = "order_reminders"
)

// Timeouts bound a single run of each job.
type Timeouts struct {
	Heartbeat time.Duration
	Restock   time.Duration
	Report    time.Duration
	Reminders time.Duration
}

func DefaultTimeouts() Timeouts {
	return Timeouts{
		Heartbeat: 5 * time.Second,
		Restock:   30 * time.Second,
		Report:    2 * time.Minute,
		Reminders: 30 * time.Second,
	}
}

func (t Timeouts) withDefaults() Timeouts {
	defaults := DefaultTimeouts()
	if t.Heartbeat <= 0 {
		t.Heartbeat = defaults.Heartbeat
	}
	if t.Restock <= 0 {
		t.Restock = defaults.Restock
	}
	if t.Report <= 0 {
		t.Report = defaults.Report
	}
	if t.Reminders <= 0 {
		t.Reminders = defaults.Reminders
	}
	return t
}

// every returns how often job should run under cfg. Zero means every tick.
func every(cfg config.JobsConfig, job string) time.Duration {
	switch job {
	case JobHeartbeat:
		return cfg.HeartbeatEvery
	case JobLowStockRestock:
		return cfg.LowStock.Every
	case JobCRMReport:
		return cfg.Report.Every
	case JobOrderReminders:
		return cfg.Reminders.Every
	default:
		return 0
	}
}
