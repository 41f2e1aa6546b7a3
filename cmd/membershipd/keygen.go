package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrymomot/membership/pkg/config"
	"github.com/dmitrymomot/membership/pkg/secrets"
)

func newKeygenCmd() *cobra.Command {
	var webhook bool

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Print a new APP_SECRET, or with --webhook the signing secret derived from the current one",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !webhook {
				key, err := secrets.GenerateKey()
				if err != nil {
					return err
				}
				_, err = fmt.Fprintln(cmd.OutOrStdout(), key)
				return err
			}

			var cfg AppConfig
			if err := config.Load(&cfg); err != nil {
				return err
			}
			secret, err := derivedWebhookSecret(cfg.AppSecret)
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), secret)
			return err
		},
	}
	cmd.Flags().BoolVar(&webhook, "webhook", false, "print the webhook signing secret derived from APP_SECRET")
	return cmd
}
