package cmd

import (
	"fmt"
	"runtime"

	"github.com/spf13/cobra"
)

var (
	version   = "dev"
	commit    = ""
	buildDate = ""
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show gfr version and build information",
	// Skips root setup so a broken config never hides the version.
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	RunE:              runVersion,
}

func init() {
	rootCmd.AddCommand(versionCmd)
}

func runVersion(cmd *cobra.Command, _ []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Version:    %s\n", version)
	fmt.Fprintf(out, "Commit:     %s\n", emptyAsNA(commit))
	fmt.Fprintf(out, "Build Date: %s\n", emptyAsNA(buildDate))
	fmt.Fprintf(out, "Go Version: %s\n", runtime.Version())
	fmt.Fprintf(out, "OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
	return nil
}

func emptyAsNA(s string) string {
	if s == "" {
		return "n/a"
	}
	return s
}

func userAgent() string {
	return "gfr/" + version
}
