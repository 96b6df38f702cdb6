package main

import (
	"context"
	"fmt"

	"github.com/oukeidos/potrans/internal/i18n"
	"github.com/oukeidos/potrans/internal/provider"
	"github.com/spf13/cobra"
)

type checkOptions struct {
	connectionOptions
}

func newCheckCmd() *cobra.Command {
	opts := checkOptions{}
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Validate the API key of a provider",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, &opts)
		},
		SilenceUsage: true,
	}
	addConnectionFlags(cmd, &opts.connectionOptions)
	return cmd
}

func runCheck(cmd *cobra.Command, opts *checkOptions) error {
	opts.applySettings(cmd, commandSettings())
	client, err := connect(opts.connectionOptions, provider.DefaultParams(), nil)
	if err != nil {
		return err
	}
	valid, msg := client.ValidateCredentials(context.Background())
	name := displayName(opts.provider)
	if !valid {
		return fmt.Errorf("%s", i18n.T("%s API key check failed: %s", name, msg))
	}
	fmt.Fprintln(cmd.OutOrStdout(), i18n.T("%s API key is valid.", name))
	return nil
}
