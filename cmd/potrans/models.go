package main

import (
	"fmt"

	"github.com/oukeidos/potrans/internal/metadata"
	"github.com/oukeidos/potrans/internal/provider"
	"github.com/spf13/cobra"
)

type modelsOptions struct {
	connectionOptions
	remote bool
}

func newModelsCmd() *cobra.Command {
	opts := modelsOptions{}
	cmd := &cobra.Command{
		Use:   "models",
		Short: "List models of a provider",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runModels(cmd, &opts)
		},
		SilenceUsage: true,
	}
	addConnectionFlags(cmd, &opts.connectionOptions)
	cmd.Flags().BoolVar(&opts.remote, "remote", false, "Ask the provider which models the API key can use")
	return cmd
}

func runModels(cmd *cobra.Command, opts *modelsOptions) error {
	opts.applySettings(cmd, commandSettings())
	service, err := normalizeService(opts.provider)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	if !opts.remote {
		models, err := metadata.Models(service)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "%s models:\n", displayName(service))
		for _, m := range models {
			marker := " "
			if m.ID == metadata.DefaultModel(service) {
				marker = "*"
			}
			free := ""
			if m.Free {
				free = " (free)"
			}
			fmt.Fprintf(out, " %s %-45s %s%s\n", marker, m.ID, m.Label, free)
		}
		return nil
	}

	client, err := connect(opts.connectionOptions, provider.DefaultParams(), nil)
	if err != nil {
		return err
	}
	ctx, stop := signalContext()
	defer stop()
	models, err := client.ListRemoteModels(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return err
	}
	fmt.Fprintf(out, "%s models available to this key (%d):\n", displayName(service), len(models))
	for _, m := range models {
		fmt.Fprintf(out, "  %-45s %s\n", m.ID, m.Name)
	}
	return nil
}
