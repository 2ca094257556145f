// Copyright © 2020 Skyline Tools

package cmd

import (
	"context"

	"github.com/docker/go-units"
	"github.com/skylinetools/graft/pkg/core"
	"github.com/skylinetools/graft/pkg/model"
	"github.com/spf13/cobra"
)

var mergeCmd = &cobra.Command{
	Use:   "merge <module-path>@<version> [...]",
	Short: "Merge a source version into destination module graphs",
	Long: `Merge reconciles each destination root against a source version of the same
module: module content is merged pairwise down the reference graph, reference
declarations pinning diverged static versions are adopted or promoted, and
every outcome is reported.

Merging only ever writes to dynamic (branch) versions. Conflicts are left as
marker blocks in the user workspace of the affected module for a human to
resolve; by default the first conflict aborts the rest of the run.`,
	Example: `% graft merge platform/app-alpha@branch/main --source-version branch/develop`,
	Args:    cobra.MinimumNArgs(1),
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

		opts := []core.MergeOption{
			core.Workspaces(estate.workspaces),
			core.Properties(estate.properties),
			core.Interactor(estate.interactor),
			core.MergeLogger(estate.logger),
		}
		if graftFlags.merge.source != "" {
			v, err := model.ParseVersion(graftFlags.merge.source)
			if err != nil {
				wrapFatalln("parse source version", err)
				return
			}
			opts = append(opts, core.SourceVersion(v))
		}
		if graftFlags.merge.continueOnConflict {
			opts = append(opts, core.WithConflictPolicy(core.ContinueOnConflict))
		}
		switch {
		case graftFlags.merge.ignoreSync:
			opts = append(opts, core.MergeSyncPolicy(core.SyncIgnore))
		case graftFlags.merge.interactiveSync:
			opts = append(opts, core.MergeSyncPolicy(core.SyncInteractive))
		}

		job := core.NewMergeJob(estate.registry, opts...)
		walker := core.NewWalker(estate.registry,
			core.WithMatcher(estate.rootMatcher(cmd, &graftFlags)),
			core.WithInteractor(estate.interactor),
			core.WithLogger(estate.logger),
		)

		err = walker.Walk(context.Background(), roots, job)
		printMergeReport(job.Report())
		if err != nil {
			wrapFatalln("merge", err)
			return
		}
		if job.Report().HasConflicts() {
			wrapFatalWithCodef(2, "merge left conflicts to resolve")
		}
	},
}

func printMergeReport(report *core.MergeReport) {
	for _, entry := range report.Entries {
		infoLogger.Println(entry.String())
	}
	for _, warning := range report.Warnings {
		infoLogger.Println("warning:", warning)
	}
	if report.AbortReason != "" {
		infoLogger.Println("aborted:", report.AbortReason)
	}
	infoLogger.Printf("%d outcomes in %s", len(report.Entries), units.HumanDuration(report.Elapsed()))
}

func init() {
	addSourceVersionFlag(mergeCmd)
	addContinueOnConflictFlag(mergeCmd)
	addSyncFlags(mergeCmd.Flags())
	addAttributeFlag(mergeCmd)
	rootCmd.AddCommand(mergeCmd)
}
