// Package main provides the entry point for the docharvest CLI.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// NewRootCmd creates the root command for docharvest.
func NewRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "docharvest",
		Short: "Autonomous document harvester for the open web",
		Long: `Docharvest crawls a site with a headless browser and downloads the
documents it finds. An external decision service inspects each page's HTML
and proposes CSS selectors worth clicking, so content hidden behind
expanders, tabs, and "load more" buttons is uncovered too.

Every visited page is archived as an HTML snapshot, and a durable download
log makes repeated runs resumable without refetching.`,
		Version:       getVersion(),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags that apply to all commands
	cmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose logging")

	// Add subcommands
	cmd.AddCommand(NewCrawlCmd())
	cmd.AddCommand(NewInitCmd())
	cmd.AddCommand(NewVersionCmd())

	return cmd
}

// Execute runs the root command.
func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
