// Copyright © 2020 Skyline Tools

package core

import (
	"context"
	"time"

	"github.com/skylinetools/graft/pkg/core/status"
	"github.com/skylinetools/graft/pkg/interact"
	"github.com/skylinetools/graft/pkg/model"
	"github.com/skylinetools/graft/pkg/props"
	"github.com/skylinetools/graft/pkg/registry"
	"github.com/skylinetools/graft/pkg/workspace"
	"go.uber.org/zap"
)

// Property and prompt keys caching merge choices between runs.
const (
	propSourceVersion = "merge.source-version"
	keyReuseSource    = "merge.reuse-source-version"
	keyCreatePromoted = "merge.create-promoted-version"
)

// MergeJob is the merge reconciliation visitor: for each matched destination
// root it binds a corresponding source version, then recursively integrates
// source content into the destination graph.
//
// The job maintains two parallel reference paths: the destination one held
// by the traversal engine, and the source one held here. At every matched
// position both denote the same module, possibly at different versions.
type MergeJob struct {
	registry   *registry.Registry
	workspaces *workspace.Manager
	interactor interact.Interactor
	properties *props.Store
	verifier   *Verifier

	conflictPolicy ConflictPolicy
	syncPolicy     SyncPolicy
	sourceOverride *model.Version

	merged map[model.MergeKey]struct{}
	report *MergeReport

	l *zap.Logger
	_ struct{}
}

func defaultMergeJob(r *registry.Registry) *MergeJob {
	return &MergeJob{
		registry:       r,
		interactor:     interact.NewNoInput(),
		conflictPolicy: AbortOnConflict,
		syncPolicy:     SyncFail,
		merged:         make(map[model.MergeKey]struct{}),
		report:         newMergeReport(),
		l:              zap.NewNop(),
	}
}

// NewMergeJob builds a merge reconciliation job.
func NewMergeJob(r *registry.Registry, opts ...MergeOption) *MergeJob {
	j := defaultMergeJob(r)
	for _, apply := range opts {
		apply(j)
	}
	if j.workspaces == nil {
		j.workspaces = workspace.New()
	}
	j.verifier = NewVerifier(r, j.l)
	return j
}

// Report yields the accumulated outcomes of the run, stamping the finish
// time on first call after the run.
func (j *MergeJob) Report() *MergeReport {
	if j.report.Finished.IsZero() {
		j.report.Finished = time.Now()
	}
	return j.report
}

// VisitMatched reconciles the matched destination root against its source
// graph. The engine never descends below a merge root: the reconciliation
// walks the subtree itself, and its dedup keys make overlapping roots
// no-ops.
func (j *MergeJob) VisitMatched(ctx context.Context, walk *Walk, ref model.Reference) (bool, error) {
	mv := ref.ModuleVersion()
	done := j.interactor.Bracket("merge " + mv.String())
	defer done()

	source, err := j.bindSourceVersion(ctx, mv)
	if err != nil {
		return false, err
	}
	if source == mv.Version {
		j.interactor.Info("%s: source and destination versions are identical, nothing to reconcile", mv.Module)
		return false, nil
	}

	srcPath := model.NewReferencePath()
	srcPath.Push(model.NewReference(model.NewModuleVersion(mv.Module, source)))
	defer srcPath.Pop()

	return false, j.reconcile(ctx, walk, srcPath, ref)
}

// bindSourceVersion obtains the source version for a matched destination
// root: a pinned override, a cached previous choice (behind a remembered
// reuse answer), or an interactive prompt. The choice is validated against
// the backend before any mutation, and cached for the next run.
func (j *MergeJob) bindSourceVersion(ctx context.Context, dest model.ModuleVersion) (model.Version, error) {
	if j.sourceOverride != nil {
		return *j.sourceOverride, j.validateSource(ctx, dest.Module, *j.sourceOverride)
	}

	var cached *model.Version
	if j.properties != nil {
		if literal, ok := j.properties.Get(dest.Module, propSourceVersion); ok {
			if v, err := model.ParseVersion(literal); err == nil {
				cached = &v
			}
		}
	}

	if cached != nil {
		reuse, err := j.interactor.Ask(dest.Module, keyReuseSource,
			"reuse source version "+cached.String()+" for "+dest.Module+"?")
		if err != nil {
			return model.Version{}, err
		}
		if reuse {
			return *cached, j.validateSource(ctx, dest.Module, *cached)
		}
	}

	v, err := j.interactor.PromptVersion("source version for "+dest.Module, cached)
	if err != nil {
		return model.Version{}, err
	}
	if err = j.validateSource(ctx, dest.Module, v); err != nil {
		return model.Version{}, err
	}
	if j.properties != nil {
		if err = j.properties.Set(dest.Module, propSourceVersion, v.String()); err != nil {
			return model.Version{}, err
		}
	}
	return v, nil
}

func (j *MergeJob) validateSource(ctx context.Context, module string, v model.Version) error {
	m, err := j.registry.Module(module)
	if err != nil {
		return err
	}
	handler, err := m.SCM()
	if err != nil {
		return status.ErrCapabilityRequired.Wrap(err)
	}
	ok, err := handler.VersionExists(ctx, v)
	if err != nil {
		return err
	}
	if !ok {
		return status.ErrUnknownRoot.WrapMessage("source version %s does not exist on module %s", v, module)
	}
	return nil
}
