// Package version reports what build of potrans is running. Release builds
// set the variables with -ldflags "-X"; other builds fall back to the VCS
// stamp the Go toolchain embeds.
package version

import (
	"fmt"
	"runtime/debug"
	"sync"
)

var (
	Version   = "0.1.0"
	Commit    = ""
	BuildDate = ""
)

var stamp = sync.OnceValues(func() (string, string) {
	commit, date := Commit, BuildDate
	info, ok := debug.ReadBuildInfo()
	if !ok {
		return commit, date
	}
	for _, s := range info.Settings {
		switch {
		case s.Key == "vcs.revision" && commit == "":
			commit = s.Value
			if len(commit) > 12 {
				commit = commit[:12]
			}
		case s.Key == "vcs.time" && date == "":
			date = s.Value
		}
	}
	return commit, date
})

// Info is the --version text.
func Info() string {
	commit, date := stamp()
	if commit == "" {
		commit = "unknown"
	}
	if date == "" {
		date = "unknown"
	}
	return fmt.Sprintf("potrans %s\ncommit: %s\nbuild: %s", Version, commit, date)
}
