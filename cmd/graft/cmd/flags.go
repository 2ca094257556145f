// Copyright © 2020 Skyline Tools

package cmd

import (
	"github.com/skylinetools/graft/pkg/glogger"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

type flagsT struct {
	root struct {
		logLevel string
		noInput  bool
	}
	core struct {
		registry   string
		store      string
		workspaces string
		properties string
	}
	merge struct {
		source             string
		continueOnConflict bool
		ignoreSync         bool
		interactiveSync    bool
	}
	refs struct {
		childrenFirst   bool
		excludeStatic   bool
		excludeDynamic  bool
		continueOnError bool
		attribute       string
	}
	workspace struct {
		force bool
	}
	doc struct {
		target string
	}
}

var graftFlags = flagsT{}

func addLogLevelFlag(cmd *cobra.Command) string {
	const logLevel = "loglevel"
	cmd.PersistentFlags().StringVar(&graftFlags.root.logLevel, logLevel, glogger.LogLevelInfo,
		"The logging level. Levels by increasing order of verbosity: none, error, warn, info, debug")
	return logLevel
}

func addNoInputFlag(cmd *cobra.Command) string {
	const noInput = "no-input"
	cmd.PersistentFlags().BoolVar(&graftFlags.root.noInput, noInput, false,
		"Never prompt: answer prompts from remembered properties and defaults, fail when neither exists")
	return noInput
}

func addRegistryFlag(cmd *cobra.Command) string {
	const registry = "registry"
	cmd.PersistentFlags().StringVar(&graftFlags.core.registry, registry, "",
		"Path to the module registry configuration file")
	return registry
}

func addStoreFlag(cmd *cobra.Command) string {
	const store = "store"
	cmd.PersistentFlags().StringVar(&graftFlags.core.store, store, "",
		"Root directory of the local version store. Defaults to $HOME/.graft/store")
	return store
}

func addSourceVersionFlag(cmd *cobra.Command) string {
	const source = "source-version"
	cmd.Flags().StringVar(&graftFlags.merge.source, source, "",
		"The source version merged into every matched destination root, e.g. branch/develop. Prompted for when absent")
	return source
}

func addContinueOnConflictFlag(cmd *cobra.Command) string {
	const continueOnConflict = "continue-on-conflict"
	cmd.Flags().BoolVar(&graftFlags.merge.continueOnConflict, continueOnConflict, false,
		"Record conflicts and keep reconciling the rest of the graph instead of aborting on the first one")
	return continueOnConflict
}

func addSyncFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&graftFlags.merge.ignoreSync, "ignore-sync", false,
		"Proceed without checking working directories for unsynchronized changes")
	fs.BoolVar(&graftFlags.merge.interactiveSync, "interactive-sync", false,
		"Offer to refresh unsynchronized working directories instead of failing")
}

func addChildrenFirstFlag(cmd *cobra.Command) string {
	const childrenFirst = "children-first"
	cmd.Flags().BoolVar(&graftFlags.refs.childrenFirst, childrenFirst, false,
		"Visit the references of a module before the module itself")
	return childrenFirst
}

func addKindFlags(fs *pflag.FlagSet) {
	fs.BoolVar(&graftFlags.refs.excludeStatic, "exclude-static", false,
		"Skip static (tag) versions, and everything below them")
	fs.BoolVar(&graftFlags.refs.excludeDynamic, "exclude-dynamic", false,
		"Skip dynamic (branch) versions")
}

func addContinueOnErrorFlag(cmd *cobra.Command) string {
	const continueOnError = "continue-on-error"
	cmd.Flags().BoolVar(&graftFlags.refs.continueOnError, continueOnError, false,
		"Log a failing module with its full path context and continue with its siblings")
	return continueOnError
}

func addAttributeFlag(cmd *cobra.Command) string {
	const attribute = "attribute"
	cmd.Flags().StringVar(&graftFlags.refs.attribute, attribute, "",
		"Only process versions carrying this attribute, as name=value (e.g. project=apollo)")
	return attribute
}

func addForceFlag(cmd *cobra.Command) string {
	const force = "force"
	cmd.Flags().BoolVar(&graftFlags.workspace.force, force, false,
		"Do not prompt for confirmation")
	return force
}

func addTargetFlag(cmd *cobra.Command) string {
	const target = "target-dir"
	cmd.Flags().StringVar(&graftFlags.doc.target, target, ".",
		"The target directory where to generate the markdown documentation")
	return target
}
