// Copyright © 2020 Skyline Tools

package cmd

import (
	"context"
	"strings"

	"github.com/skylinetools/graft/pkg/core"
	"github.com/skylinetools/graft/pkg/model"
	"github.com/spf13/cobra"
)

var refsList = &cobra.Command{
	Use:   "list <module-path>@<version> [...]",
	Short: "List the reference graph below the given roots",
	Long: `List every module version reachable from the given roots, indented by
depth. A module reachable through several paths is listed once, at its first
position.`,
	Example: `% graft refs list platform/app-alpha@branch/main
platform/app-alpha@branch/main
  platform/libs/core@branch/main
  platform/libs/ui@tag/v2.1`,
	Args: cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		roots, err := parseRoots(args)
		if err != nil {
			wrapFatalln("parse roots", err)
			return
		}
		estate, err := newEstate(&graftFlags)
		if err != nil {
			wrapFatalln("configure estate", err)
			return
		}

		opts := []core.WalkOption{
			core.WithMatcher(estate.rootMatcher(cmd, &graftFlags)),
			core.IncludeStatic(!graftFlags.refs.excludeStatic),
			core.IncludeDynamic(!graftFlags.refs.excludeDynamic),
			core.ContinueOnError(graftFlags.refs.continueOnError),
			core.WithLogger(estate.logger),
		}
		if graftFlags.refs.childrenFirst {
			opts = append(opts, core.WithOrder(core.ChildrenFirst))
		}

		walker := core.NewWalker(estate.registry, opts...)
		err = walker.Walk(context.Background(), roots,
			core.VisitorFunc(func(_ context.Context, walk *core.Walk, ref model.Reference) (bool, error) {
				indent := strings.Repeat("  ", walk.Path.Len()-1)
				infoLogger.Println(indent + ref.String())
				return true, nil
			}))
		if err != nil {
			wrapFatalln("list references", err)
			return
		}
	},
}

func init() {
	addChildrenFirstFlag(refsList)
	addKindFlags(refsList.Flags())
	addContinueOnErrorFlag(refsList)
	addAttributeFlag(refsList)
	refsCmd.AddCommand(refsList)
}
