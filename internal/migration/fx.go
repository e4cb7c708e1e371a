package migration

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/storagedesk/internal/clock"
	"github.com/smallbiznis/storagedesk/internal/config"
	"github.com/smallbiznis/storagedesk/internal/seed"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var Module = fx.Module("migrations",
	fx.Invoke(func(conn *gorm.DB, cfg config.Config, node *snowflake.Node, clk clock.Clock, log *zap.Logger) error {
		if err := Apply(conn, cfg.DBType); err != nil {
			return err
		}

		if !cfg.SeedSampleData {
			return nil
		}
		created, err := seed.EnsureSampleData(context.Background(), conn, node, clk.Now())
		if err != nil {
			return err
		}
		if created {
			log.Info("seeded sample facility data")
		}
		return nil
	}),
)
