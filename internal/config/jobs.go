package config

import (
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// JobsConfig controls the periodic CRM maintenance and report jobs.
type JobsConfig struct {
	RunInterval    time.Duration   `mapstructure:"runInterval"`
	EnabledJobs    []string        `mapstructure:"enabledJobs"`
	HeartbeatEvery time.Duration   `mapstructure:"heartbeatEvery"`
	LowStock       LowStockConfig  `mapstructure:"lowStock"`
	Report         ReportConfig    `mapstructure:"report"`
	Reminders      RemindersConfig `mapstructure:"reminders"`
}

type LowStockConfig struct {
	Every     time.Duration `mapstructure:"every"`
	Threshold int           `mapstructure:"threshold"`
	Increment int           `mapstructure:"increment"`
}

type ReportConfig struct {
	Every        time.Duration `mapstructure:"every"`
	WindowDays   int           `mapstructure:"windowDays"`
	TopCustomers int           `mapstructure:"topCustomers"`
}

type RemindersConfig struct {
	Every      time.Duration `mapstructure:"every"`
	WindowDays int           `mapstructure:"windowDays"`
}

func DefaultJobsConfig() JobsConfig {
	return JobsConfig{
		RunInterval:    time.Minute,
		HeartbeatEvery: 5 * time.Minute,
		LowStock: LowStockConfig{
			Every:     12 * time.Hour,
			Threshold: 10,
			Increment: 10,
		},
		Report: ReportConfig{
			Every:        7 * 24 * time.Hour,
			WindowDays:   7,
			TopCustomers: 5,
		},
		Reminders: RemindersConfig{
			Every:      24 * time.Hour,
			WindowDays: 7,
		},
	}
}

type JobsConfigHolder struct {
	current atomic.Value // holds JobsConfig
}

// NewJobsConfigHolder reads crm.yml (if any) and keeps it hot-reloaded.
func NewJobsConfigHolder(log *zap.Logger) (*JobsConfigHolder, error) {
	if log == nil {
		log = zap.NewNop()
	}
	log = log.Named("config.jobs")

	v := viper.New()

	v.SetConfigName("crm")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/crm")
	v.AddConfigPath(".")

	v.SetEnvPrefix("CRM")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setJobsDefaults(v, DefaultJobsConfig())

	fileLoaded := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileLoaded = false
	}

	cfg, err := decodeJobs(v)
	if err != nil {
		return nil, err
	}
	if err := validateJobsConfig(cfg); err != nil {
		return nil, err
	}

	holder := NewStaticJobsConfigHolder(cfg)
	if !fileLoaded {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		updated, err := decodeJobs(v)
		if err != nil {
			log.Warn("jobs config reload failed", zap.Error(err))
			return
		}
		if err := validateJobsConfig(updated); err != nil {
			log.Warn("invalid jobs config ignored", zap.Error(err))
			return
		}
		holder.current.Store(updated)
		log.Info("jobs config reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

// NewStaticJobsConfigHolder wraps a fixed config without file watching.
func NewStaticJobsConfigHolder(cfg JobsConfig) *JobsConfigHolder {
	holder := &JobsConfigHolder{}
	holder.current.Store(cfg)
	return holder
}

func (h *JobsConfigHolder) Get() JobsConfig {
	if h == nil {
		return DefaultJobsConfig()
	}
	cfg, ok := h.current.Load().(JobsConfig)
	if !ok {
		return DefaultJobsConfig()
	}
	return cfg
}

// decodeJobs unmarshals the full settings tree so nested defaults are merged
// with partially specified files.
func decodeJobs(v *viper.Viper) (JobsConfig, error) {
	var root struct {
		Jobs JobsConfig `mapstructure:"jobs"`
	}
	if err := v.Unmarshal(&root); err != nil {
		return JobsConfig{}, err
	}
	return root.Jobs, nil
}

func setJobsDefaults(v *viper.Viper, defaults JobsConfig) {
	v.SetDefault("jobs.runInterval", defaults.RunInterval)
	v.SetDefault("jobs.enabledJobs", []string{})
	v.SetDefault("jobs.heartbeatEvery", defaults.HeartbeatEvery)
	v.SetDefault("jobs.lowStock.every", defaults.LowStock.Every)
	v.SetDefault("jobs.lowStock.threshold", defaults.LowStock.Threshold)
	v.SetDefault("jobs.lowStock.increment", defaults.LowStock.Increment)
	v.SetDefault("jobs.report.every", defaults.Report.Every)
	v.SetDefault("jobs.report.windowDays", defaults.Report.WindowDays)
	v.SetDefault("jobs.report.topCustomers", defaults.Report.TopCustomers)
	v.SetDefault("jobs.reminders.every", defaults.Reminders.Every)
	v.SetDefault("jobs.reminders.windowDays", defaults.Reminders.WindowDays)
}

func validateJobsConfig(cfg JobsConfig) error {
	if cfg.RunInterval <= 0 {
		return errors.New("jobs.runInterval must be positive")
	}
	if cfg.LowStock.Threshold < 0 {
		return errors.New("jobs.lowStock.threshold cannot be negative")
	}
	if cfg.LowStock.Increment <= 0 {
		return errors.New("jobs.lowStock.increment must be positive")
	}
	if cfg.Report.WindowDays <= 0 {
		return errors.New("jobs.report.windowDays must be positive")
	}
	if cfg.Reminders.WindowDays <= 0 {
		return errors.New("jobs.reminders.windowDays must be positive")
	}
	return nil
}
