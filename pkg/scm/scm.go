// Copyright © 2020 Skyline Tools

// Package scm defines the source-control capability consumed by the
// reference-graph engine.
//
// The engine does not own any VCS protocol: backends implement Handler for
// one module and are plugged in through the registry. The localscm
// sub-package provides a self-contained backend good enough to run a whole
// estate without any external VCS.
package scm

import (
	"context"

	"github.com/skylinetools/graft/pkg/model"
)

// SyncScope selects which kinds of pending changes IsSynchronized looks at.
type SyncScope int

const (
	// SyncLocal considers uncommitted changes in the working directory.
	SyncLocal SyncScope = iota

	// SyncRemote considers commits on the version line not yet present in
	// the working directory.
	SyncRemote

	// SyncAll considers both local and remote changes.
	SyncAll
)

func (s SyncScope) String() string {
	switch s {
	case SyncLocal:
		return "local"
	case SyncRemote:
		return "remote"
	case SyncAll:
		return "all"
	default:
		return "unknown"
	}
}

// MergeOutcome is the result of replaying a source version into a working
// directory.
type MergeOutcome int

const (
	// MergeNone means there was nothing to replay.
	MergeNone MergeOutcome = iota

	// MergeMerged means source changes were replayed and committed cleanly.
	MergeMerged

	// MergeConflicts means both sides changed the same content: conflict
	// markers were left in the working directory for a human to resolve.
	MergeConflicts
)

func (o MergeOutcome) String() string {
	switch o {
	case MergeNone:
		return "no changes"
	case MergeMerged:
		return "merged"
	case MergeConflicts:
		return "conflicts"
	default:
		return "unknown"
	}
}

// Handler is the source-control capability for one module.
//
// All blocking operations take a context; latency of the backend is accepted
// as-is, no timeouts are modeled at this layer.
type Handler interface {
	// VersionExists tells whether the version is known to the backend.
	VersionExists(ctx context.Context, v model.Version) (bool, error)

	// Checkout materializes the version's content into dir, along with the
	// backend's bookkeeping state for that directory.
	Checkout(ctx context.Context, v model.Version, dir string) error

	// CheckoutSystem yields a read-only, internally managed checkout of the
	// version. The returned directory is owned by the backend and must not
	// be written to; it may be recycled between calls.
	CheckoutSystem(ctx context.Context, v model.Version) (string, error)

	// IsSynchronized tells whether dir is in sync with its version line,
	// within the given scope.
	IsSynchronized(ctx context.Context, dir string, scope SyncScope) (bool, error)

	// Update brings dir up to date with its version line. It reports
	// conflicts=true, leaving the directory untouched, when local changes
	// overlap with incoming ones.
	Update(ctx context.Context, dir string) (conflicts bool, err error)

	// ListDivergingCommits yields the commits reachable from one version and
	// not from the other, oldest first. No filtering is applied: mechanical
	// version-change commits are included and are the caller's to remove.
	ListDivergingCommits(ctx context.Context, from, to model.Version) ([]model.Commit, error)

	// Merge replays the source version into dir, excluding the given
	// commits. A clean merge is committed; conflicts are left as marker
	// blocks in the working directory and nothing is committed.
	Merge(ctx context.Context, dir string, source model.Version, exclude []model.Commit) (MergeOutcome, error)

	// CommitWorkdir records the pending changes of dir as a new commit
	// carrying the given attributes. Committing on a static version or on a
	// directory with no pending changes is an error.
	CommitWorkdir(ctx context.Context, dir string, message string, attrs map[string]string) (model.Commit, error)

	// CreateVersion creates a new version rooted at base's current content.
	// A zero base creates an empty version.
	CreateVersion(ctx context.Context, base, v model.Version) error

	// VersionAttributes yields the attributes attached to a version, e.g. a
	// project code. Unknown versions yield an error; versions without
	// attributes yield an empty map.
	VersionAttributes(ctx context.Context, v model.Version) (map[string]string, error)
}
