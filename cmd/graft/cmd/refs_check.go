// Copyright © 2020 Skyline Tools

package cmd

import (
	"context"

	"github.com/skylinetools/graft/pkg/core"
	"github.com/skylinetools/graft/pkg/model"
	"github.com/spf13/cobra"
)

var refsCheck = &cobra.Command{
	Use:   "check <module-path> <version-a> <version-b>",
	Short: "Check two versions of a module for divergence",
	Long: `Check whether each of two versions of a module holds content the other
lacks. Divergence is structural: a version also diverges when any module its
reference graph pins differs and is itself found divergent. Mechanical
version bump commits never count as divergence.

Exits with code 2 when both sides diverge.`,
	Example: `% graft refs check platform/libs/core tag/v1.4 branch/main`,
	Args:    cobra.ExactArgs(3),
	Run: func(cmd *cobra.Command, args []string) {
		module := args[0]
		a, err := model.ParseVersion(args[1])
		if err != nil {
			wrapFatalln("parse version", err)
			return
		}
		b, err := model.ParseVersion(args[2])
		if err != nil {
			wrapFatalln("parse version", err)
			return
		}
		estate, err := newEstate(&graftFlags)
		if err != nil {
			wrapFatalln("configure estate", err)
			return
		}

		verifier := core.NewVerifier(estate.registry, estate.logger)
		aDiverges, bDiverges, err := verifier.Verify(context.Background(), module, a, b)
		if err != nil {
			wrapFatalln("verify divergence", err)
			return
		}

		describe := func(v model.Version, diverges bool) {
			if diverges {
				infoLogger.Printf("%s@%s holds content the other side lacks", module, v)
				return
			}
			infoLogger.Printf("%s@%s holds nothing of its own", module, v)
		}
		describe(a, aDiverges)
		describe(b, bDiverges)
		if aDiverges && bDiverges {
			wrapFatalWithCodef(2, "%s: %s and %s diverge both ways", module, a, b)
		}
	},
}

func init() {
	refsCmd.AddCommand(refsCheck)
}
