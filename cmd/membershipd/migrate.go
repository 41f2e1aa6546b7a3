package main

import (
	"context"
	"errors"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/membership/pkg/pg"
	mongostore "github.com/dmitrymomot/membership/storage/mongo"
	"github.com/dmitrymomot/membership/storage/postgres/migrations"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply Postgres migrations or create Mongo indexes",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			ctx, stop := signalContext(cmd.Context())
			defer stop()

			d := newDependencies(cfg, log)
			defer d.close(context.WithoutCancel(ctx))
			if err := d.initStorage(ctx); err != nil {
				return err
			}

			switch cfg.StorageDriver {
			case driverPostgres:
				err = pg.Migrate(ctx, d.pool, migrations.FS, ".", d.pgCfg, log)
			case driverMongo:
				err = mongostore.EnsureIndexes(ctx, d.mongoDB)
			default:
				err = errors.New("migrate: the memory driver has no schema")
			}
			if err != nil {
				return err
			}
			log.InfoContext(ctx, "storage schema is up to date")
			return nil
		},
	}
}
