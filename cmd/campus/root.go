package main

import (
	"github.com/spf13/cobra"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

// newRootCmd creates the root campus command with all subcommands attached.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:           "campus",
		Short:         "Campus multi-agent orchestration engine",
		Long:          "campus runs five specialist agents around one demo student.\nConfiguration is read from the environment (APP_*, CAMPUS_*, HTTP_*, REDIS_*, DB_*).",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	cmd.SetVersionTemplate("campus {{.Version}}\n")

	cmd.AddCommand(
		newServeCmd(),
		newDemoCmd(),
		newCatalogCmd(),
		newWatchCmd(),
	)

	return cmd
}
