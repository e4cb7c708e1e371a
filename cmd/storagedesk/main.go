package main

import (
	"github.com/smallbiznis/storagedesk/internal/building"
	"github.com/smallbiznis/storagedesk/internal/clock"
	"github.com/smallbiznis/storagedesk/internal/config"
	"github.com/smallbiznis/storagedesk/internal/customer"
	"github.com/smallbiznis/storagedesk/internal/idgen"
	"github.com/smallbiznis/storagedesk/internal/ledger"
	"github.com/smallbiznis/storagedesk/internal/migration"
	"github.com/smallbiznis/storagedesk/internal/observability"
	"github.com/smallbiznis/storagedesk/internal/payment"
	"github.com/smallbiznis/storagedesk/internal/providers"
	"github.com/smallbiznis/storagedesk/internal/ratelimit"
	"github.com/smallbiznis/storagedesk/internal/rental"
	"github.com/smallbiznis/storagedesk/internal/report"
	"github.com/smallbiznis/storagedesk/internal/scheduler"
	"github.com/smallbiznis/storagedesk/internal/server"
	"github.com/smallbiznis/storagedesk/internal/unit"
	"github.com/smallbiznis/storagedesk/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		// Core Infrastructure
		config.Module,
		observability.Module,
		idgen.Module,
		db.Module,
		clock.Module,
		migration.Module,

		// Facility domains
		building.Module,
		unit.Module,
		customer.Module,
		rental.Module,
		payment.Module,
		ledger.Module,
		report.Module,
		providers.Module,
		ratelimit.Module,

		server.Module,
		scheduler.Module,
	)
	app.Run()
}
