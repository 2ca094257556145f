// Copyright © 2020 Skyline Tools

package core

import (
	"github.com/skylinetools/graft/pkg/interact"
	"github.com/skylinetools/graft/pkg/model"
	"github.com/skylinetools/graft/pkg/props"
	"github.com/skylinetools/graft/pkg/workspace"
	"go.uber.org/zap"
)

// ConflictPolicy decides what a merge or reference conflict does to the rest
// of the job.
type ConflictPolicy int

const (
	// AbortOnConflict raises the job-wide abort flag on the first conflict.
	AbortOnConflict ConflictPolicy = iota

	// ContinueOnConflict records the conflict and lets the operator resolve
	// it later, while the rest of the graph proceeds.
	ContinueOnConflict
)

// MergeOption alters the build of a merge job.
type MergeOption func(*MergeJob)

// Workspaces sets the workspace manager destination checkouts go through.
func Workspaces(workspaces *workspace.Manager) MergeOption {
	return func(j *MergeJob) {
		j.workspaces = workspaces
	}
}

// Interactor sets the interactive capability of the job.
func Interactor(interactor interact.Interactor) MergeOption {
	return func(j *MergeJob) {
		j.interactor = interactor
	}
}

// Properties sets the persisted property store caching operator choices.
func Properties(properties *props.Store) MergeOption {
	return func(j *MergeJob) {
		j.properties = properties
	}
}

// WithConflictPolicy sets the conflict policy. Defaults to AbortOnConflict.
func WithConflictPolicy(policy ConflictPolicy) MergeOption {
	return func(j *MergeJob) {
		j.conflictPolicy = policy
	}
}

// SourceVersion pins the source version for every matched root, bypassing
// prompts and cached choices.
func SourceVersion(v model.Version) MergeOption {
	return func(j *MergeJob) {
		j.sourceOverride = &v
	}
}

// MergeSyncPolicy sets the unsynchronized-changes policy applied to
// destination working directories. Defaults to SyncFail.
func MergeSyncPolicy(policy SyncPolicy) MergeOption {
	return func(j *MergeJob) {
		j.syncPolicy = policy
	}
}

// MergeLogger sets a logger on the job.
func MergeLogger(l *zap.Logger) MergeOption {
	return func(j *MergeJob) {
		j.l = l
	}
}
