package main

import (
	"context"
	"errors"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/membership/svc/membership"
)

func newSweepCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sweep",
		Short: "Downgrade every membership past its expiry once and exit",
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
			if d.lister == nil {
				return errors.New("sweep: STORAGE_DRIVER must be postgres or mongo")
			}
			if err := d.initCache(ctx); err != nil {
				return err
			}
			if err := d.initMemberships(ctx); err != nil {
				return err
			}

			n, err := membership.NewSweeper(d.members, d.lister, d.mcfg.SweepBatchSize, log).Run(ctx)
			log.InfoContext(ctx, "sweep finished", slog.Int("downgraded", n))
			return err
		},
	}
}
