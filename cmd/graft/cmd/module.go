// Copyright © 2020 Skyline Tools

package cmd

import (
	"github.com/spf13/cobra"
)

// moduleCmd represents the module catalog related commands
var moduleCmd = &cobra.Command{
	Use:   "module",
	Short: "Commands to inspect the module catalog",
	Long:  `Commands to inspect the modules of the estate and the capabilities each one exposes.`,
}

func init() {
	rootCmd.AddCommand(moduleCmd)
}
