package migration

import (
	"fmt"

	"github.com/smallbiznis/crm/internal/config"
	customerdomain "github.com/smallbiznis/crm/internal/customer/domain"
	orderdomain "github.com/smallbiznis/crm/internal/order/domain"
	productdomain "github.com/smallbiznis/crm/internal/product/domain"
	reportdomain "github.com/smallbiznis/crm/internal/report/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(Apply),
)

// Apply brings the schema up to date. Postgres uses the versioned SQL
// migrations; mysql and sqlite fall back to gorm AutoMigrate.
func Apply(conn *gorm.DB, cfg config.Config, log *zap.Logger) error {
	if cfg.DBType == "postgres" {
		sqlDB, err := conn.DB()
		if err != nil {
			return err
		}
		if err := RunMigrations(sqlDB); err != nil {
			return err
		}
		log.Info("migrations applied", zap.String("driver", cfg.DBType))
		return nil
	}

	if err := AutoMigrate(conn); err != nil {
		return fmt.Errorf("auto migrate %s: %w", cfg.DBType, err)
	}
	log.Info("schema auto-migrated", zap.String("driver", cfg.DBType))
	return nil
}

func AutoMigrate(conn *gorm.DB) error {
	return conn.AutoMigrate(
		&customerdomain.Customer{},
		&productdomain.Product{},
		&orderdomain.Order{},
		&orderdomain.OrderItem{},
		&reportdomain.Report{},
	)
}
