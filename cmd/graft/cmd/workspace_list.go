// Copyright © 2020 Skyline Tools

package cmd

import (
	"github.com/docker/go-units"
	"github.com/spf13/cobra"
)

var workspaceList = &cobra.Command{
	Use:   "list",
	Short: "List materialized working directories",
	Long:  `List every materialized working directory with its size.`,
	Example: `% graft workspace list
platform_app-alpha/branch/main , 12.4MB , /home/me/.graft/workspaces/platform_app-alpha/branch/main`,
	Run: func(cmd *cobra.Command, args []string) {
		estate, err := newEstate(&graftFlags)
		if err != nil {
			wrapFatalln("configure estate", err)
			return
		}
		list, err := estate.workspaces.List()
		if err != nil {
			wrapFatalln("list workspaces", err)
			return
		}
		for _, info := range list {
			infoLogger.Printf("%s , %s , %s", info.Path, units.HumanSize(float64(info.Size)), info.Dir)
		}
	},
}

func init() {
	workspaceCmd.AddCommand(workspaceList)
}
