package main

import (
	"context"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/membership/pkg/async"
	"github.com/dmitrymomot/membership/pkg/config"
	"github.com/dmitrymomot/membership/pkg/httpserver"
	"github.com/dmitrymomot/membership/pkg/logger"
	"github.com/dmitrymomot/membership/svc/membership"
)

func newServeCmd() *cobra.Command {
	var sweepEvery time.Duration

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := bootstrap()
			if err != nil {
				return err
			}
			var hcfg httpserver.Config
			if err := config.Load(&hcfg); err != nil {
				return err
			}

			ctx, stop := signalContext(cmd.Context())
			defer stop()

			d := newDependencies(cfg, log)
			defer d.close(context.WithoutCancel(ctx))

			for _, step := range []func(context.Context) error{
				d.initStorage, d.initCache, d.initMemberships, d.initPayments,
			} {
				if err := step(ctx); err != nil {
					return err
				}
			}

			router, err := d.router(hcfg.ReadinessTimeout)
			if err != nil {
				return err
			}

			var sweeping *async.Future[struct{}]
			if sweepEvery > 0 && d.lister != nil {
				sweeping = async.Run(ctx, sweepEvery, d.sweepLoop)
			}

			err = httpserver.New(hcfg, router, log).Run(ctx)
			if sweeping != nil {
				stop()
				if _, werr := sweeping.AwaitWithTimeout(hcfg.ShutdownTimeout); werr != nil {
					log.Warn("expiry sweeper did not stop cleanly", logger.Error(werr))
				}
			}
			return err
		},
	}
	cmd.Flags().DurationVar(&sweepEvery, "sweep-every", 0, "also downgrade expired memberships at this interval (0 disables)")
	return cmd
}

// sweepLoop runs the expiry sweeper every interval until ctx is done.
func (d *dependencies) sweepLoop(ctx context.Context, every time.Duration) error {
	sweeper := membership.NewSweeper(d.members, d.lister, d.mcfg.SweepBatchSize, d.log)
	ticker := time.NewTicker(every)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
		n, err := sweeper.Run(ctx)
		if err != nil {
			d.log.ErrorContext(ctx, "expiry sweep failed", logger.Error(err))
			continue
		}
		if n > 0 {
			d.log.InfoContext(ctx, "expired memberships downgraded", slog.Int("count", n))
		}
	}
}
