package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/mod/semver"
)

// Version information set by build flags.
var (
	version   = "dev"
	commit    = "none"
	buildDate = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, _ []string) {
		out := cmd.OutOrStdout()
		_, _ = fmt.Fprintf(out, "bikereg %s\n", displayVersion(version))
		_, _ = fmt.Fprintf(out, "  commit: %s\n", commit)
		_, _ = fmt.Fprintf(out, "  built:  %s\n", buildDate)
		_, _ = fmt.Fprintf(out, "  channel: %s\n", channel(version))
	},
}

// displayVersion returns the canonical semantic version ("v1.2.0") for
// release builds and the raw value for anything else, such as "dev".
func displayVersion(v string) string {
	candidate := v
	if !strings.HasPrefix(candidate, "v") {
		candidate = "v" + candidate
	}
	if !semver.IsValid(candidate) {
		return v
	}
	canonical := semver.Canonical(candidate)
	if build := semver.Build(candidate); build != "" {
		canonical += build
	}
	return canonical
}

// channel names the release channel of v: "stable" for plain semantic
// versions, "prerelease" for tagged ones and "development" otherwise.
func channel(v string) string {
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	switch {
	case !semver.IsValid(v):
		return "development"
	case semver.Prerelease(v) != "":
		return "prerelease"
	default:
		return "stable"
	}
}
