package main

import (
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// usageTemplate is set on the root and inherited by every subcommand.
// Local flags are printed in the sections named by their flagGroup.
const usageTemplate = `Usage:{{if .HasParent}}{{if .Runnable}}
  {{.UseLine}}{{end}}{{else}}
  potrans <input.po> [flags]{{end}}{{if .HasAvailableSubCommands}}
  {{.CommandPath}} [command]{{end}}{{if .HasExample}}

Examples:
{{.Example}}{{end}}{{if .HasAvailableSubCommands}}

Commands:{{range .Commands}}{{if (or .IsAvailableCommand (eq .Name "help"))}}
  {{rpad .Name .NamePadding }} {{.Short}}{{end}}{{end}}{{end}}{{if .HasAvailableLocalFlags}}

{{groupedFlagUsages .LocalFlags}}{{end}}{{if .HasAvailableInheritedFlags}}

Global Flags:
{{.InheritedFlags.FlagUsages | trimTrailingWhitespaces}}{{end}}{{if .HasAvailableSubCommands}}

Use "{{.CommandPath}} [command] --help" for more information about a command.{{end}}
`

const flagGroupAnnotation = "potrans_flag_group"

var flagGroupOrder = []string{"Translation", "Model", "Connection", "Run", "Output"}

func init() {
	cobra.AddTemplateFunc("groupedFlagUsages", groupedFlagUsages)
}

// flagGroup files the named flags under group in help output.
func flagGroup(fs *pflag.FlagSet, group string, names ...string) {
	for _, name := range names {
		_ = fs.SetAnnotation(name, flagGroupAnnotation, []string{group})
	}
}

// groupedFlagUsages renders fs one section per group, in flagGroupOrder,
// with ungrouped flags (help, version) last under plain "Flags:".
func groupedFlagUsages(fs *pflag.FlagSet) string {
	sets := map[string]*pflag.FlagSet{}
	fs.VisitAll(func(f *pflag.Flag) {
		if f.Hidden {
			return
		}
		group := ""
		if g := f.Annotations[flagGroupAnnotation]; len(g) > 0 {
			group = g[0]
		}
		if sets[group] == nil {
			sets[group] = pflag.NewFlagSet(group, pflag.ContinueOnError)
			sets[group].SortFlags = fs.SortFlags
		}
		sets[group].AddFlag(f)
	})

	var sections []string
	for _, group := range append(flagGroupOrder, "") {
		set := sets[group]
		if set == nil {
			continue
		}
		title := "Flags:"
		if group != "" {
			title = group + " Flags:"
		}
		sections = append(sections, title+"\n"+strings.TrimRight(set.FlagUsages(), " \n"))
	}
	return strings.Join(sections, "\n\n")
}
