package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/oukeidos/potrans/internal/auth"
	"github.com/oukeidos/potrans/internal/i18n"
	"github.com/spf13/cobra"
)

var (
	saveKey   = auth.SaveKey
	deleteKey = auth.DeleteKey
)

// newEnvCmd manages the keychain entries potrans reads API keys from.
// Bare "env" behaves like "env status".
func newEnvCmd() *cobra.Command {
	var service string
	cmd := &cobra.Command{
		Use:   "env",
		Short: "Manage API keys in OS Keychain",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runEnvStatus(cmd, service)
		},
	}
	cmd.PersistentFlags().StringVar(&service, "service", auth.ServiceOpenRouter,
		"Service to manage ("+strings.Join(auth.Services(), " or ")+")")

	for _, action := range []struct {
		use, short string
		run        func(*cobra.Command, string) error
	}{
		{"setup", "Save API key to keychain (prompt only)", runEnvSetup},
		{"delete", "Delete key from keychain", runEnvDelete},
		{"status", "Show key status (all services unless --service is given)", runEnvStatus},
	} {
		run := action.run
		cmd.AddCommand(&cobra.Command{
			Use:   action.use,
			Short: action.short,
			Args:  cobra.NoArgs,
			RunE: func(cmd *cobra.Command, _ []string) error {
				return run(cmd, service)
			},
		})
	}
	return cmd
}

func runEnvSetup(cmd *cobra.Command, service string) error {
	svc, err := normalizeService(service)
	if err != nil {
		return err
	}
	entered, err := promptForKey(displayName(svc) + " API Key: ")
	if err != nil {
		return fmt.Errorf("error reading key: %w", err)
	}
	key := strings.TrimSpace(entered)
	if key == "" {
		return fmt.Errorf("API key is required for setup")
	}
	if err := saveKey(svc, key); err != nil {
		return fmt.Errorf("error saving key: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), i18n.T("Saved %s API key to keychain.", svc))
	return nil
}

func runEnvDelete(cmd *cobra.Command, service string) error {
	svc, err := normalizeService(service)
	if err != nil {
		return err
	}
	if err := deleteKey(svc); err != nil {
		return fmt.Errorf("error deleting key: %w", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), i18n.T("Deleted %s API key from keychain.", svc))
	return nil
}

// runEnvStatus reports where each key would come from without printing
// it. Environment keys are mentioned but flagged as opt-in.
func runEnvStatus(cmd *cobra.Command, service string) error {
	services := auth.Services()
	if cmd.Flags().Changed("service") {
		svc, err := normalizeService(service)
		if err != nil {
			return err
		}
		services = []string{svc}
	}
	for _, svc := range services {
		printKeyStatus(cmd.OutOrStdout(), svc)
	}
	return nil
}

func printKeyStatus(w io.Writer, svc string) {
	env := auth.EnvVar(svc)
	status := fmt.Sprintf("Not Found (keychain empty, %s not set)", env)
	if getStatus(svc) {
		status = "Found (source=" + auth.SourceKeychain + ")"
	} else if key, ok := getEnvKey(svc); ok && key != "" {
		status = fmt.Sprintf("Found (source=%s %s; disabled by default, use --allow-env)", auth.SourceEnv, env)
	}
	fmt.Fprintf(w, "%s API Key: %s\n", svc, status)
}
