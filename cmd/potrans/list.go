package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/oukeidos/potrans/internal/language"
	"github.com/spf13/cobra"
)

func newListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List target languages with their plural rules",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "CODE\tLANGUAGE\tLOCALE\tPLURALS")
			for _, l := range language.GetSupportedLanguages() {
				dir := ""
				if l.RTL {
					dir = " (rtl)"
				}
				fmt.Fprintf(tw, "[%s]\t%s%s\t%s\tplurals=%d\n", l.Code, l.Name, dir, l.Locale, l.Plurals)
			}
			return tw.Flush()
		},
	}
}
