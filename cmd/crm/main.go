package main

import (
	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/crm/internal/clock"
	"github.com/smallbiznis/crm/internal/config"
	"github.com/smallbiznis/crm/internal/customer"
	"github.com/smallbiznis/crm/internal/graphql"
	"github.com/smallbiznis/crm/internal/migration"
	"github.com/smallbiznis/crm/internal/observability"
	"github.com/smallbiznis/crm/internal/order"
	"github.com/smallbiznis/crm/internal/product"
	"github.com/smallbiznis/crm/internal/report"
	"github.com/smallbiznis/crm/internal/scheduler"
	"github.com/smallbiznis/crm/internal/server"
	"github.com/smallbiznis/crm/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		fx.Provide(RegisterSnowflake),
		db.Module,
		clock.Module,
		migration.Module,

		// Functional Domains
		customer.Module,
		product.Module,
		order.Module,
		report.Module,

		// Surfaces
		graphql.Module,
		server.Module,
		scheduler.Module,
	)
	app.Run()
}

func RegisterSnowflake(cfg config.Config) (*snowflake.Node, error) {
	return snowflake.NewNode(cfg.NodeID)
}
