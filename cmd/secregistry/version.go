package main

import (
	"fmt"
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

// Version information set at build time via ldflags.
var (
	version = ""
	commit  = ""
	date    = ""
)

// getVersion returns version string.
// Priority: ldflags > debug.ReadBuildInfo > "(devel)"
func getVersion() string {
	if version != "" {
		return version
	}
	if buildInfo, ok := debug.ReadBuildInfo(); ok {
		if buildInfo.Main.Version != "" {
			return buildInfo.Main.Version
		}
	}
	return "(devel)"
}

// getCommit returns the short commit hash.
func getCommit() string {
	if commit != "" {
		return commit
	}
	rev := buildSetting("vcs.revision")
	if len(rev) > 7 {
		return rev[:7]
	}
	return rev
}

// getDate returns the build date.
func getDate() string {
	if date != "" {
		return date
	}
	return buildSetting("vcs.time")
}

// buildSetting returns a VCS setting recorded by the Go toolchain,
// or "unknown".
func buildSetting(key string) string {
	if buildInfo, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range buildInfo.Settings {
			if setting.Key == key && setting.Value != "" {
				return setting.Value
			}
		}
	}
	return "unknown"
}

// NewVersionCmd creates the version command.
func NewVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Long:  `Print the version, commit hash, build date and Go version of secregistry.`,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "secregistry version %s\n", getVersion())
			fmt.Fprintf(out, "  commit: %s\n", getCommit())
			fmt.Fprintf(out, "  built:  %s\n", getDate())
			fmt.Fprintf(out, "  go:     %s\n", runtime.Version())
		},
	}
}
