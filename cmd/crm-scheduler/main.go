package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/crm/internal/clock"
	"github.com/smallbiznis/crm/internal/config"
	"github.com/smallbiznis/crm/internal/customer"
	"github.com/smallbiznis/crm/internal/observability"
	"github.com/smallbiznis/crm/internal/order"
	"github.com/smallbiznis/crm/internal/product"
	"github.com/smallbiznis/crm/internal/report"
	"github.com/smallbiznis/crm/internal/scheduler"
	"github.com/smallbiznis/crm/pkg/db"
	"go.uber.org/fx"
)

// Runs the maintenance jobs without the HTTP surface. Set SCHEDULER_ENABLED=false
// on the API deployment when this binary runs alongside it.
func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,

		// Domain services required by scheduler
		customer.Module,
		product.Module,
		order.Module,
		report.Module,

		// No server module!
		scheduler.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.NodeID)
}
