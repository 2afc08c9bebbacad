package scheduler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/crm/internal/clock"
	"github.com/smallbiznis/crm/internal/config"
	customerdomain "github.com/smallbiznis/crm/internal/customer/domain"
	obsmetrics "github.com/smallbiznis/crm/internal/observability/metrics"
	orderdomain "github.com/smallbiznis/crm/internal/order/domain"
	productdomain "github.com/smallbiznis/crm/internal/product/domain"
	reportdomain "github.com/smallbiznis/crm/internal/report/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var ErrInvalidConfig = errors.New("scheduler: invalid configuration")

// lockGrace keeps a job lock alive slightly past the job timeout.
const lockGrace = 5 * time.Second

type Params struct {
	fx.In

	DB          *gorm.DB
	Log         *zap.Logger
	GenID       *snowflake.Node
	Clock       clock.Clock
	Jobs        *config.JobsConfigHolder
	CustomerSvc customerdomain.Service
	ProductSvc  productdomain.Service
	OrderSvc    orderdomain.Service
	ReportSvc   reportdomain.Service
	Locker      Locker                 `optional:"true"`
	Metrics     *obsmetrics.JobMetrics `optional:"true"`
	Timeouts    Timeouts               `optional:"true"`
}

type Scheduler struct {
	db          *gorm.DB
	log         *zap.Logger
	genID       *snowflake.Node
	clock       clock.Clock
	jobs        *config.JobsConfigHolder
	customerSvc customerdomain.Service
	productSvc  productdomain.Service
	orderSvc    orderdomain.Service
	reportSvc   reportdomain.Service
	locker      Locker
	metrics     *obsmetrics.JobMetrics
	timeouts    Timeouts

	mu      sync.Mutex
	lastRun map[string]time.Time
}

func New(p Params) (*Scheduler, error) {
	if p.DB == nil || p.Log == nil || p.GenID == nil || p.Clock == nil || p.Jobs == nil ||
		p.CustomerSvc == nil || p.ProductSvc == nil || p.OrderSvc == nil || p.ReportSvc == nil {
		return nil, ErrInvalidConfig
	}
	metrics := p.Metrics
	if metrics == nil {
		metrics = obsmetrics.Jobs()
	}
	return &Scheduler{
		db:          p.DB,
		log:         p.Log.Named("scheduler").With(zap.String("component", "scheduler")),
		genID:       p.GenID,
		clock:       p.Clock,
		jobs:        p.Jobs,
		customerSvc: p.CustomerSvc,
		productSvc:  p.ProductSvc,
		orderSvc:    p.OrderSvc,
		reportSvc:   p.ReportSvc,
		locker:      p.Locker,
		metrics:     metrics,
		timeouts:    p.Timeouts.withDefaults(),
		lastRun:     make(map[string]time.Time),
	}, nil
}

func (s *Scheduler) runJob(
	parent context.Context,
	name string,
	timeout time.Duration,
	fn func(ctx context.Context) error,
) error {
	start := s.clock.Now()
	ctx, cancel := context.WithTimeout(parent, timeout)
	defer cancel()

	ctx, run, owner := s.ensureJobRun(ctx, name)
	if owner {
		s.logJobStart(ctx, run)
	}
	s.metrics.IncJobRun(name)

	err := fn(ctx)
	s.metrics.ObserveJobDuration(name, s.clock.Now().Sub(start))
	if owner {
		if err != nil && run != nil && run.errorCount == 0 {
			run.IncError()
		}
		s.logJobFinish(ctx, run)
	}
	if err == nil {
		return nil
	}

	// a deadline is a soft timeout; the next due tick tries again
	isTimeout := errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled)
	if isTimeout {
		s.metrics.IncJobTimeout(name)
	}
	s.metrics.IncJobError(name, err)
	if isTimeout {
		s.logger(ctx).Warn("job timed out",
			zap.Duration("timeout", timeout),
			zap.Error(err),
		)
		return nil
	}

	return fmt.Errorf("%s: %w", name, err)
}

// runExclusive runs the job while holding its cluster lock, when a locker is
// configured. A job held by another replica is skipped.
func (s *Scheduler) runExclusive(
	parent context.Context,
	name string,
	timeout time.Duration,
	fn func(ctx context.Context) error,
) error {
	if s.locker == nil {
		return s.runJob(parent, name, timeout, fn)
	}

	key := lockKey(name)
	token, ok, err := s.locker.TryLock(parent, key, timeout+lockGrace)
	if err != nil {
		s.metrics.IncJobSkipped(name, "lock_error")
		s.log.Warn("scheduler lock failed", zap.String("job", name), zap.Error(err))
		return nil
	}
	if !ok {
		s.metrics.IncJobSkipped(name, "locked")
		s.log.Debug("scheduler job held by another replica", zap.String("job", name))
		return nil
	}
	defer func() {
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := s.locker.Release(releaseCtx, key, token); err != nil {
			s.log.Warn("scheduler lock release failed", zap.String("job", name), zap.Error(err))
		}
	}()

	return s.runJob(parent, name, timeout, fn)
}

// RunOnce runs every enabled job that is due and joins their errors.
func (s *Scheduler) RunOnce(parent context.Context) error {
	var err error
	cfg := s.jobs.Get()
	now := s.clock.Now()

	jobs := []struct {
		Name    string
		Timeout time.Duration
		Run     func(context.Context) error
	}{
		{JobHeartbeat, s.timeouts.Heartbeat, s.HeartbeatJob},
		{JobLowStockRestock, s.timeouts.Restock, s.LowStockRestockJob},
		{JobCRMReport, s.timeouts.Report, s.CRMReportJob},
		{JobOrderReminders, s.timeouts.Reminders, s.OrderRemindersJob},
	}

	for _, job := range jobs {
		if !isJobEnabled(cfg, job.Name) {
			continue
		}
		if !s.claimDue(job.Name, every(cfg, job.Name), now) {
			continue
		}
		err = errors.Join(err, s.runExclusive(parent, job.Name, job.Timeout, job.Run))
	}

	return err
}

func (s *Scheduler) RunForever(ctx context.Context) {
	interval := s.jobs.Get().RunInterval
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	nextRun := s.clock.Now().Add(interval)

	for {
		runLag := s.clock.Now().Sub(nextRun)
		if runLag > 0 {
			s.metrics.ObserveRunLoopLag(runLag)
		}
		if err := s.RunOnce(ctx); err != nil {
			s.log.Warn("scheduler run failed", zap.Error(err))
		}

		// pick up a reloaded interval
		if current := s.jobs.Get().RunInterval; current > 0 && current != interval {
			interval = current
			ticker.Reset(interval)
		}
		nextRun = nextRun.Add(interval)

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// claimDue records now as the job's last run and reports true when the job
// has never run or its interval has elapsed.
func (s *Scheduler) claimDue(job string, interval time.Duration, now time.Time) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	last, ok := s.lastRun[job]
	if ok && interval > 0 && now.Sub(last) < interval {
		return false
	}
	s.lastRun[job] = now
	return true
}

func isJobEnabled(cfg config.JobsConfig, jobName string) bool {
	// an empty list enables every job
	if len(cfg.EnabledJobs) == 0 {
		return true
	}
	for _, enabled := range cfg.EnabledJobs {
		if strings.EqualFold(strings.TrimSpace(enabled), jobName) {
			return true
		}
	}
	return false
}
