// Copyright © 2020 Skyline Tools

package cmd

import (
	"github.com/spf13/cobra"
)

// refsCmd represents the reference graph related commands
var refsCmd = &cobra.Command{
	Use:   "refs",
	Short: "Commands to inspect reference graphs",
	Long: `Commands to inspect the reference graph of module versions: the effective
topology is discovered by checking out module sources and reading their
reference declarations.`,
}

func init() {
	rootCmd.AddCommand(refsCmd)
}
