// Copyright © 2020 Skyline Tools

package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/skylinetools/graft/pkg/errors"
	"github.com/skylinetools/graft/pkg/model"
	"github.com/skylinetools/graft/pkg/registry"
	"github.com/skylinetools/graft/pkg/scm"
	scmstatus "github.com/skylinetools/graft/pkg/scm/status"
	"github.com/skylinetools/graft/pkg/workspace"
	"go.uber.org/zap"
)

// reconcile integrates one (source, destination) pair of module versions and
// recurses through their reference graphs.
//
// On entry, walk.Path's leaf is the destination reference and srcPath's leaf
// is the corresponding source position; both paths are extended in lockstep
// when recursing into children.
func (j *MergeJob) reconcile(ctx context.Context, walk *Walk, srcPath *model.ReferencePath, destRef model.Reference) error {
	destMV := destRef.ModuleVersion()
	srcLeaf, ok := srcPath.Leaf()
	if !ok {
		return errors.New("reconcile called with an empty source path")
	}
	source := srcLeaf.Version

	// dedup: reconciling the same pair twice in one run is a no-op
	key := model.NewMergeKey(destMV, source)
	if _, done := j.merged[key]; done {
		j.l.Info("pair already reconciled this run", zap.Stringer("key", key))
		j.report.add(ReportEntry{
			Destination: destMV, Source: source, Outcome: OutcomeSkipped,
			SourcePath: srcPath.String(), DestinationPath: walk.Path.String(),
		})
		return nil
	}
	j.merged[key] = struct{}{}

	if destMV.Version.IsStatic() {
		// only a root can get here: recursion below never enters a static
		// destination without promoting it first
		j.report.add(ReportEntry{
			Destination: destMV, Source: source, Outcome: OutcomeAbandoned,
			Detail:     "destination version is static",
			SourcePath: srcPath.String(), DestinationPath: walk.Path.String(),
		})
		j.interactor.Info("%s: cannot reconcile into static destination %s", destMV.Module, destMV.Version)
		return nil
	}

	m, err := j.registry.Module(destMV.Module)
	if err != nil {
		return err
	}
	handler, err := m.SCM()
	if err != nil {
		return err
	}
	lister, err := m.References()
	if err != nil {
		return err
	}

	// the destination lives in a user-writable workspace: merge conflicts,
	// if any, are resolved by a human in this directory
	dir, release, err := j.ensureUserCheckout(ctx, handler, destMV)
	if err != nil {
		return err
	}
	defer release()

	outcome, err := j.mergePair(ctx, handler, dir, destMV, source, srcPath, walk)
	if err != nil {
		return err
	}
	if outcome == scm.MergeConflicts {
		// terminal for this branch either way
		return nil
	}

	return j.reconcileChildren(ctx, walk, srcPath, m, handler, lister, dir, destMV)
}

// ensureUserCheckout reserves the destination workspace, materializing the
// checkout on first use and applying the sync policy to existing ones.
func (j *MergeJob) ensureUserCheckout(ctx context.Context, handler scm.Handler, mv model.ModuleVersion) (string, func(), error) {
	dir, release, err := j.workspaces.Reserve(mv, workspace.ModeUser)
	if err != nil {
		return "", nil, err
	}

	_, err = handler.IsSynchronized(ctx, dir, scm.SyncAll)
	switch {
	case errors.Is(err, scmstatus.ErrNotCheckedOut):
		if err = handler.Checkout(ctx, mv.Version, dir); err != nil {
			release()
			return "", nil, err
		}
	case err != nil:
		release()
		return "", nil, err
	default:
		if err = VerifySync(ctx, handler, dir, j.syncPolicy, j.interactor, j.l); err != nil {
			release()
			return "", nil, err
		}
	}
	return dir, release, nil
}

// mergePair replays the source version into the destination workspace,
// excluding mechanical version-change commits.
func (j *MergeJob) mergePair(ctx context.Context, handler scm.Handler, dir string, destMV model.ModuleVersion, source model.Version, srcPath *model.ReferencePath, walk *Walk) (scm.MergeOutcome, error) {
	commits, err := handler.ListDivergingCommits(ctx, source, destMV.Version)
	if err != nil {
		return scm.MergeNone, err
	}
	real := model.FilterMechanicalCommits(commits)
	var mechanical []model.Commit
	for _, c := range commits {
		if c.IsMechanical() {
			mechanical = append(mechanical, c)
		}
	}

	outcome := scm.MergeNone
	if len(real) > 0 {
		outcome, err = handler.Merge(ctx, dir, source, mechanical)
		if err != nil {
			return outcome, err
		}
	}

	entry := ReportEntry{
		Destination: destMV, Source: source,
		SourcePath: srcPath.String(), DestinationPath: walk.Path.String(),
	}
	switch outcome {
	case scm.MergeNone:
		entry.Outcome = OutcomeNoChanges
		j.l.Debug("nothing to merge", zap.Stringer("destination", destMV), zap.Stringer("source", source))
	case scm.MergeMerged:
		entry.Outcome = OutcomeMerged
		entry.Detail = fmt.Sprintf("%d commits", len(real))
		j.interactor.Info("%s: merged %s cleanly", destMV.Module, source)
	case scm.MergeConflicts:
		entry.Outcome = OutcomeConflicts
		entry.Detail = "resolve in " + dir
		j.conflict(walk, srcPath, fmt.Sprintf(
			"merge of %s into %s left conflicts in %s", source, destMV, dir))
	}
	j.report.add(entry)
	return outcome, nil
}

// reconcileChildren pairs the destination's child references with their
// module-matching source siblings and applies the per-case rules. Reference
// rewrites are staged in the workspace and committed in one
// reference-version-change commit, even when the abort flag was raised
// mid-loop: staged work is never lost.
func (j *MergeJob) reconcileChildren(ctx context.Context, walk *Walk, srcPath *model.ReferencePath, m *registry.Module, handler scm.Handler, lister registry.RefLister, dir string, destMV model.ModuleVersion) error {
	srcLeaf, _ := srcPath.Leaf()

	srcRefs, err := j.listSourceReferences(ctx, srcLeaf.ModuleVersion())
	if err != nil {
		return err
	}
	destRefs, err := lister.ListReferences(dir)
	if err != nil {
		return err
	}

	var staged []string
	defer func() {
		if err := j.flushReferenceUpdates(ctx, handler, dir, staged); err != nil {
			j.l.Error("could not commit staged reference updates", zap.String("dir", dir), zap.Error(err))
		}
	}()

	for _, destChild := range destRefs {
		if walk.Abort.IsSet() || ctx.Err() != nil {
			return nil
		}
		if !destChild.IsResolved() {
			j.l.Debug("skipping unresolved destination reference", zap.String("reference", destChild.String()))
			continue
		}

		srcChild, found := findByModule(srcRefs, destChild.Module)
		if !found || !srcChild.IsResolved() {
			// not an error: the reference may simply not exist upstream
			j.interactor.Info("%s: reference %s has no counterpart in source %s, branch abandoned",
				destMV.Module, destChild.Module, srcLeaf.Version)
			j.report.add(ReportEntry{
				Destination: destChild.ModuleVersion(), Source: srcLeaf.Version,
				Outcome: OutcomeAbandoned, Detail: "no matching source reference",
				SourcePath: srcPath.String(), DestinationPath: walk.Path.String(),
			})
			continue
		}
		if srcChild.Version == destChild.Version {
			j.l.Debug("reference versions identical", zap.String("module", destChild.Module))
			continue
		}

		update, err := j.reconcileChildReference(ctx, walk, srcPath, srcChild, destChild)
		if err != nil {
			return err
		}
		if update != nil {
			changed, err := lister.UpdateReferenceVersion(dir, destChild.Module, *update)
			if err != nil {
				return err
			}
			if changed {
				staged = append(staged, destChild.Module+" -> "+update.String())
				j.report.add(ReportEntry{
					Destination: destChild.ModuleVersion(), Source: *update,
					Outcome:    OutcomeReferenceUpdate,
					Detail:     "was " + destChild.Version.String(),
					SourcePath: srcPath.String(), DestinationPath: walk.Path.String(),
				})
			}
			destChild.Version = *update
		}

		if destChild.Version.IsDynamic() {
			err = func() error {
				walk.Path.Push(destChild)
				defer walk.Path.Pop()
				srcPath.Push(srcChild)
				defer srcPath.Pop()
				return j.reconcile(ctx, walk, srcPath, destChild)
			}()
			if err != nil {
				return err
			}
		}
	}
	return nil
}

// reconcileChildReference classifies one (source, destination) child pair
// with differing versions and yields the version the destination reference
// must be rewritten to, if any.
func (j *MergeJob) reconcileChildReference(ctx context.Context, walk *Walk, srcPath *model.ReferencePath, srcChild, destChild model.Reference) (*model.Version, error) {
	switch {
	case destChild.Version.IsDynamic():
		// recursion handles the content; the reference itself stays
		return nil, nil

	case srcChild.Version.IsStatic():
		// both static, different versions
		srcDiverges, destDiverges, err := j.verifier.Verify(ctx, destChild.Module, srcChild.Version, destChild.Version)
		if err != nil {
			return nil, err
		}
		switch {
		case srcDiverges && destDiverges:
			j.report.add(ReportEntry{
				Destination: destChild.ModuleVersion(), Source: srcChild.Version,
				Outcome:    OutcomeReferenceConflict,
				SourcePath: srcPath.String(), DestinationPath: walk.Path.String(),
			})
			j.conflict(walk, srcPath, fmt.Sprintf(
				"reference to %s diverges on both sides (%s vs %s)",
				destChild.Module, srcChild.Version, destChild.Version))
			return nil, nil
		case srcDiverges:
			// destination has nothing of its own: adopt the source version.
			// Legal: the enclosing revision is dynamic by construction here.
			return &srcChild.Version, nil
		default:
			// destination already a superset, or nothing to merge
			j.l.Debug("no reference action required",
				zap.String("module", destChild.Module),
				zap.Bool("destDiverges", destDiverges))
			return nil, nil
		}

	default:
		// source dynamic, destination static: promote when needed
		return j.promoteStaticReference(ctx, walk, srcPath, srcChild, destChild)
	}
}

// promoteStaticReference handles a dynamic source feeding a static
// destination reference: when the source has diverged, the destination
// reference must move to a dynamic version so the content can flow.
func (j *MergeJob) promoteStaticReference(ctx context.Context, walk *Walk, srcPath *model.ReferencePath, srcChild, destChild model.Reference) (*model.Version, error) {
	srcDiverges, _, err := j.verifier.Verify(ctx, destChild.Module, srcChild.Version, destChild.Version)
	if err != nil {
		return nil, err
	}
	if !srcDiverges {
		return nil, nil
	}

	promoted, err := j.selectDynamicVersion(ctx, destChild.Module, destChild.Version)
	if err != nil {
		j.report.add(ReportEntry{
			Destination: destChild.ModuleVersion(), Source: srcChild.Version,
			Outcome: OutcomeAbandoned, Detail: err.Error(),
			SourcePath: srcPath.String(), DestinationPath: walk.Path.String(),
		})
		j.conflict(walk, srcPath, fmt.Sprintf(
			"static reference to %s needs promotion but none was selected: %v", destChild.Module, err))
		return nil, nil
	}

	// re-verify against the OLD static version: commit loss is surfaced,
	// never silent
	oldDiverges, _, err := j.verifier.Verify(ctx, destChild.Module, destChild.Version, promoted)
	if err != nil {
		return nil, err
	}
	if oldDiverges {
		j.report.warn("content of %s@%s is not included in promoted version %s and may be lost",
			destChild.Module, destChild.Version, promoted)
		j.interactor.Info("warning: content of %s@%s is not included in %s",
			destChild.Module, destChild.Version, promoted)
	}

	j.report.add(ReportEntry{
		Destination: destChild.ModuleVersion(), Source: srcChild.Version,
		Outcome:    OutcomePromotion,
		Detail:     "promoted to " + promoted.String(),
		SourcePath: srcPath.String(), DestinationPath: walk.Path.String(),
	})
	return &promoted, nil
}

// listSourceReferences reads the source side's declared references through a
// read-only system checkout.
func (j *MergeJob) listSourceReferences(ctx context.Context, src model.ModuleVersion) ([]model.Reference, error) {
	m, err := j.registry.Module(src.Module)
	if err != nil {
		return nil, err
	}
	handler, err := m.SCM()
	if err != nil {
		return nil, err
	}
	lister, err := m.References()
	if err != nil {
		return nil, err
	}
	dir, err := handler.CheckoutSystem(ctx, src.Version)
	if err != nil {
		return nil, err
	}
	return lister.ListReferences(dir)
}

// flushReferenceUpdates commits staged reference rewrites as one mechanical
// commit tagged reference-version-change.
func (j *MergeJob) flushReferenceUpdates(ctx context.Context, handler scm.Handler, dir string, staged []string) error {
	if len(staged) == 0 {
		return nil
	}
	_, err := handler.CommitWorkdir(ctx, dir,
		"update reference versions: "+strings.Join(staged, ", "),
		map[string]string{model.AttrReferenceVersionChange: strings.Join(staged, ", ")})
	if err != nil && !errors.Is(err, scmstatus.ErrNoChanges) {
		return err
	}
	return nil
}

// conflict records a conflict with full path context on both sides and
// applies the conflict policy.
func (j *MergeJob) conflict(walk *Walk, srcPath *model.ReferencePath, msg string) {
	full := fmt.Sprintf("%s\n  source:      %s\n  destination: %s", msg, srcPath, walk.Path)
	j.interactor.Info("conflict: %s", full)
	if j.conflictPolicy == AbortOnConflict {
		walk.Abort.Set(msg)
		j.report.AbortReason = msg
		return
	}
	j.l.Warn("continuing past conflict", zap.String("conflict", msg))
}
