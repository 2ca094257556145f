// Copyright © 2020 Skyline Tools

package cmd

import (
	"github.com/spf13/cobra"
)

// workspaceCmd represents the working directory related commands
var workspaceCmd = &cobra.Command{
	Use:   "workspace",
	Short: "Commands to manage working directories",
	Long: `Commands to manage the working directories modules are checked out into.
Workspaces are materialized on demand by merge runs and kept between runs, so
conflict resolutions survive; clean them when disk space matters more.`,
}

func init() {
	rootCmd.AddCommand(workspaceCmd)
}
