package main

import (
	"github.com/smallbiznis/storagedesk/internal/clock"
	"github.com/smallbiznis/storagedesk/internal/config"
	"github.com/smallbiznis/storagedesk/internal/idgen"
	"github.com/smallbiznis/storagedesk/internal/ledger"
	"github.com/smallbiznis/storagedesk/internal/observability"
	"github.com/smallbiznis/storagedesk/internal/scheduler"
	"github.com/smallbiznis/storagedesk/pkg/db"
	"go.uber.org/fx"
)

func main() {
	app := fx.New(
		config.Module,
		observability.Module,
		idgen.Module,
		db.Module,
		clock.Module,

		ledger.Module,
		scheduler.Module,
	)
	app.Run()
}
