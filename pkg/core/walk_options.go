// Copyright © 2020 Skyline Tools

package core

import (
	"github.com/skylinetools/graft/pkg/interact"
	"github.com/skylinetools/graft/pkg/workspace"
	"go.uber.org/zap"
)

// Order selects when a matched node is dispatched relative to its children.
type Order int

const (
	// ParentFirst dispatches the matched node before expanding children;
	// the visitor decides whether children are expanded at all.
	ParentFirst Order = iota

	// ChildrenFirst expands and visits children before dispatching the
	// matched node.
	ChildrenFirst
)

// SyncPolicy decides what to do about a user working directory with
// unsynchronized local or remote changes.
type SyncPolicy int

const (
	// SyncIgnore proceeds without looking at the directory's state.
	SyncIgnore SyncPolicy = iota

	// SyncFail fails the node with a user error.
	SyncFail

	// SyncInteractive offers to refresh the directory before proceeding.
	SyncInteractive
)

// WalkOption alters the build of a walker.
type WalkOption func(*Walker)

// WithMatcher sets the path matcher scoping the walk. Defaults to MatchAll.
func WithMatcher(matcher PathMatcher) WalkOption {
	return func(w *Walker) {
		w.matcher = matcher
	}
}

// WithOrder sets the traversal order. Defaults to ParentFirst.
func WithOrder(order Order) WalkOption {
	return func(w *Walker) {
		w.order = order
	}
}

// IncludeDynamic includes or excludes dynamic versions from the walk.
func IncludeDynamic(include bool) WalkOption {
	return func(w *Walker) {
		w.includeDynamic = include
	}
}

// IncludeStatic includes or excludes static versions from the walk. When
// statics are excluded the engine does not expand children of a static node:
// everything under a static revision is static by construction.
func IncludeStatic(include bool) WalkOption {
	return func(w *Walker) {
		w.includeStatic = include
	}
}

// WithSyncPolicy sets the unsynchronized-changes policy. Defaults to
// SyncIgnore.
func WithSyncPolicy(policy SyncPolicy) WalkOption {
	return func(w *Walker) {
		w.syncPolicy = policy
	}
}

// ContinueOnError makes the walk log a failed node with its full path
// context and continue with the next sibling, instead of unwinding.
func ContinueOnError(continueOnError bool) WalkOption {
	return func(w *Walker) {
		w.continueOnError = continueOnError
	}
}

// WithAbort sets the cooperative abort flag shared with the visitor.
func WithAbort(abort *AbortFlag) WalkOption {
	return func(w *Walker) {
		w.abort = abort
	}
}

// WithWorkspaces sets the workspace manager, enabling sync verification of
// user working directories.
func WithWorkspaces(workspaces *workspace.Manager) WalkOption {
	return func(w *Walker) {
		w.workspaces = workspaces
	}
}

// WithInteractor sets the interactive capability used by the SyncInteractive
// policy.
func WithInteractor(interactor interact.Interactor) WalkOption {
	return func(w *Walker) {
		w.interactor = interactor
	}
}

// WithLogger sets a logger on the walker.
func WithLogger(l *zap.Logger) WalkOption {
	return func(w *Walker) {
		w.l = l
	}
}
