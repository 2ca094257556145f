// Copyright © 2020 Skyline Tools

package cmd

import (
	"strings"

	"github.com/spf13/cobra"
)

var moduleList = &cobra.Command{
	Use:   "list",
	Short: "List the modules of the estate",
	Long:  `List every module of the registry with its capabilities.`,
	Example: `% graft module list
platform/app-alpha (source control, references)
platform/libs/core (source control, references, artifact com.acme:core)`,
	Run: func(cmd *cobra.Command, args []string) {
		estate, err := newEstate(&graftFlags)
		if err != nil {
			wrapFatalln("configure estate", err)
			return
		}
		for _, m := range estate.registry.List() {
			var capabilities []string
			if _, err := m.SCM(); err == nil {
				capabilities = append(capabilities, "source control")
			}
			if _, err := m.References(); err == nil {
				capabilities = append(capabilities, "references")
			}
			if artifact, err := m.Artifact(); err == nil {
				capabilities = append(capabilities, "artifact "+artifact)
			}
			if len(capabilities) == 0 {
				infoLogger.Println(m.Path())
				continue
			}
			infoLogger.Printf("%s (%s)", m.Path(), strings.Join(capabilities, ", "))
		}
	},
}

func init() {
	moduleCmd.AddCommand(moduleList)
}
