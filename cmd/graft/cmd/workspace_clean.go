// Copyright © 2020 Skyline Tools

package cmd

import (
	"context"

	"github.com/spf13/cobra"
)

var workspaceClean = &cobra.Command{
	Use:   "clean",
	Short: "Remove unreserved working directories",
	Long: `Remove every working directory not currently reserved by a running job.
Uncommitted changes in removed directories are lost.`,
	Run: func(cmd *cobra.Command, args []string) {
		estate, err := newEstate(&graftFlags)
		if err != nil {
			wrapFatalln("configure estate", err)
			return
		}
		if !graftFlags.workspace.force {
			proceed, err := estate.interactor.Ask("", "workspace.clean",
				"remove all working directories, losing any uncommitted changes?")
			if err != nil {
				wrapFatalln("confirm", err)
				return
			}
			if !proceed {
				infoLogger.Println("aborted")
				return
			}
		}
		if err = estate.workspaces.CleanAll(context.Background()); err != nil {
			wrapFatalln("clean workspaces", err)
			return
		}
	},
}

func init() {
	addForceFlag(workspaceClean)
	workspaceCmd.AddCommand(workspaceClean)
}
