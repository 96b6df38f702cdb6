package main

import (
	"fmt"

	"github.com/oukeidos/potrans/internal/i18n"
	"github.com/oukeidos/potrans/internal/settings"
	"github.com/spf13/cobra"
)

var settingsPath = settings.Path

func newConfigCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change saved preferences",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConfigShow(cmd)
		},
	}
	cmd.AddCommand(
		&cobra.Command{
			Use:   "show",
			Short: "Print saved preferences (default if no action given)",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				return runConfigShow(cmd)
			},
		},
		&cobra.Command{
			Use:   "set <key> <value>",
			Short: "Save a preference",
			Args:  cobra.ExactArgs(2),
			RunE: func(cmd *cobra.Command, args []string) error {
				return runConfigSet(cmd, args[0], args[1])
			},
		},
		&cobra.Command{
			Use:   "path",
			Short: "Print the config file location",
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, args []string) error {
				path, err := settingsPath()
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), path)
				return nil
			},
		},
	)
	return cmd
}

func runConfigShow(cmd *cobra.Command) error {
	path, err := settingsPath()
	if err != nil {
		return err
	}
	s, err := settings.Load(path)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()
	for _, key := range settings.Keys() {
		value, _ := s.Get(key)
		fmt.Fprintf(out, "%-24s %s\n", key, value)
	}
	return nil
}

func runConfigSet(cmd *cobra.Command, key, value string) error {
	path, err := settingsPath()
	if err != nil {
		return err
	}
	s, err := settings.Load(path)
	if err != nil {
		return err
	}
	if key == "target_lang" && value != "" {
		code, err := resolveLanguageCode(value)
		if err != nil {
			return err
		}
		value = code
	}
	if key == "provider" && value != "" {
		if value, err = normalizeService(value); err != nil {
			return err
		}
	}
	if err := s.Set(key, value); err != nil {
		return err
	}
	if err := settings.Save(path, s); err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), i18n.T("Saved %s = %s", key, value))
	return nil
}
