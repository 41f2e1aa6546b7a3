// Command membershipd serves the membership entitlement and payment API.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	_ "time/tzdata"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/membership/pkg/config"
	"github.com/dmitrymomot/membership/pkg/logger"
	"github.com/dmitrymomot/membership/pkg/requestid"
)

// Version is set at build time with -ldflags.
var Version = "dev"

var envFiles []string

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "membershipd",
		Short:         "Membership entitlements and payment sessions",
		Version:       Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(*cobra.Command, []string) error {
			return config.LoadEnv(envFiles...)
		},
	}
	root.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "dotenv files to load (default: .env if present)")

	root.AddCommand(newServeCmd(), newMigrateCmd(), newSweepCmd(), newKeygenCmd())
	return root
}

// bootstrap loads AppConfig and builds the process logger.
func bootstrap() (AppConfig, *slog.Logger, error) {
	var cfg AppConfig
	if err := config.Load(&cfg); err != nil {
		return cfg, nil, err
	}

	opts := []logger.Option{
		logger.WithEnvironment(cfg.Env, cfg.Service),
		logger.WithContextExtractors(requestid.LogAttr),
	}
	if cfg.LogLevel != "" {
		opts = append(opts, logger.WithLevelName(cfg.LogLevel))
	}
	log := logger.New(opts...)
	slog.SetDefault(log)
	return cfg, log, nil
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}
