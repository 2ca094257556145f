// Copyright © 2020 Skyline Tools

package cmd

import (
	"context"

	"github.com/skylinetools/graft/pkg/core"
	"github.com/skylinetools/graft/pkg/model"
	"github.com/skylinetools/graft/pkg/scm"
	"github.com/spf13/cobra"
)

var refsStatus = &cobra.Command{
	Use:   "status <module-path>@<version> [...]",
	Short: "Report workspace synchronization over the reference graph",
	Long: `Report, for every module version reachable from the given roots, whether a
working directory is materialized and whether it is synchronized with its
version line.`,
	Example: `% graft refs status platform/app-alpha@branch/main
platform/app-alpha@branch/main: synchronized
platform/libs/core@branch/main: local or remote changes pending
platform/libs/ui@tag/v2.1: no working directory`,
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

		walker := core.NewWalker(estate.registry,
			core.WithMatcher(estate.rootMatcher(cmd, &graftFlags)),
			core.IncludeStatic(!graftFlags.refs.excludeStatic),
			core.IncludeDynamic(!graftFlags.refs.excludeDynamic),
			core.ContinueOnError(graftFlags.refs.continueOnError),
			core.WithLogger(estate.logger),
		)
		err = walker.Walk(context.Background(), roots,
			core.VisitorFunc(func(ctx context.Context, walk *core.Walk, ref model.Reference) (bool, error) {
				mv := ref.ModuleVersion()
				if !estate.workspaces.Exists(mv) {
					infoLogger.Printf("%s: no working directory", mv)
					return true, nil
				}
				module, err := walk.Registry().Module(mv.Module)
				if err != nil {
					return false, err
				}
				handler, err := module.SCM()
				if err != nil {
					return false, err
				}
				synced, err := handler.IsSynchronized(ctx, estate.workspaces.Dir(mv), scm.SyncAll)
				if err != nil {
					return false, err
				}
				if synced {
					infoLogger.Printf("%s: synchronized", mv)
				} else {
					infoLogger.Printf("%s: local or remote changes pending", mv)
				}
				return true, nil
			}))
		if err != nil {
			wrapFatalln("check workspace status", err)
			return
		}
	},
}

func init() {
	addKindFlags(refsStatus.Flags())
	addContinueOnErrorFlag(refsStatus)
	addAttributeFlag(refsStatus)
	refsCmd.AddCommand(refsStatus)
}
