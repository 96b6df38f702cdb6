package main

import (
	"fmt"
	"strings"

	"github.com/oukeidos/potrans/internal/metadata"
	"github.com/oukeidos/potrans/internal/version"
	"github.com/spf13/cobra"
)

const projectURL = "https://github.com/oukeidos/potrans"

func newAboutCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "about",
		Short: "Show what potrans is and where it lives",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			w := cmd.OutOrStdout()
			fmt.Fprintf(w, "potrans %s: translates gettext PO catalogs with LLM APIs.\n", version.Version)
			fmt.Fprintf(w, "Providers: %s\n", strings.Join(metadata.Providers(), ", "))
			fmt.Fprintln(w, projectURL)
			return nil
		},
	}
}
