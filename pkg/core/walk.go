// Copyright © 2020 Skyline Tools

package core

import (
	"context"

	"github.com/skylinetools/graft/pkg/core/status"
	"github.com/skylinetools/graft/pkg/errors"
	"github.com/skylinetools/graft/pkg/interact"
	"github.com/skylinetools/graft/pkg/model"
	"github.com/skylinetools/graft/pkg/registry"
	"github.com/skylinetools/graft/pkg/scm"
	scmstatus "github.com/skylinetools/graft/pkg/scm/status"
	"github.com/skylinetools/graft/pkg/workspace"
	"go.uber.org/zap"
)

// Visitor is the extension point of the traversal engine: merge
// reconciliation is one visitor, graph listing and sync checking are others,
// all reusing the identical walk.
type Visitor interface {
	// VisitMatched is dispatched at every matched node. Under ParentFirst
	// order its result decides whether the node's children are expanded;
	// under ChildrenFirst the result is ignored.
	VisitMatched(ctx context.Context, walk *Walk, ref model.Reference) (descend bool, err error)
}

// VisitorFunc adapts a function to the Visitor interface.
type VisitorFunc func(ctx context.Context, walk *Walk, ref model.Reference) (bool, error)

// VisitMatched dispatches to the function.
func (f VisitorFunc) VisitMatched(ctx context.Context, walk *Walk, ref model.Reference) (bool, error) {
	return f(ctx, walk, ref)
}

// Walk is the state of one traversal run, visible to visitors.
type Walk struct {
	// Path is the route from the traversal root to the current node. Frames
	// are pushed and popped by the engine; visitors may read and extend it
	// when they recurse on their own.
	Path *model.ReferencePath

	// Guard is the run-scoped reentry guard.
	Guard *ReentryGuard

	// Abort is the cooperative abort flag shared by engine and visitor.
	Abort *AbortFlag

	walker *Walker
	_      struct{}
}

// Registry exposes the module catalog backing the walk.
func (w *Walk) Registry() *registry.Registry {
	return w.walker.registry
}

// Walker is the reference-graph traversal engine.
//
// The effective topology is discovered lazily: children of a node are found
// by checking out its sources and reading its reference declarations. The
// reentry guard makes the walk safe on DAGs with shared dependencies.
type Walker struct {
	registry   *registry.Registry
	workspaces *workspace.Manager
	interactor interact.Interactor

	matcher         PathMatcher
	order           Order
	includeDynamic  bool
	includeStatic   bool
	syncPolicy      SyncPolicy
	continueOnError bool
	abort           *AbortFlag

	l *zap.Logger
	_ struct{}
}

func defaultWalker(r *registry.Registry) *Walker {
	return &Walker{
		registry:       r,
		matcher:        MatchAll(),
		order:          ParentFirst,
		includeDynamic: true,
		includeStatic:  true,
		syncPolicy:     SyncIgnore,
		l:              zap.NewNop(),
	}
}

// NewWalker builds a traversal engine over a module registry.
func NewWalker(r *registry.Registry, opts ...WalkOption) *Walker {
	w := defaultWalker(r)
	for _, apply := range opts {
		apply(w)
	}
	if w.abort == nil {
		w.abort = NewAbortFlag()
	}
	return w
}

// Walk traverses the graph from the given roots, dispatching the visitor at
// matched nodes. Roots are validated before any node is visited: an unknown
// module or nonexistent version fails fast, before any mutation.
func (w *Walker) Walk(ctx context.Context, roots []model.ModuleVersion, visitor Visitor) error {
	for _, root := range roots {
		if err := w.validateRoot(ctx, root); err != nil {
			return err
		}
	}

	walk := &Walk{
		Path:   model.NewReferencePath(),
		Guard:  NewReentryGuard(),
		Abort:  w.abort,
		walker: w,
	}

	for _, root := range roots {
		if err := w.visitReference(ctx, walk, model.NewReference(root), visitor); err != nil {
			return err
		}
		if walk.Abort.IsSet() || ctx.Err() != nil {
			break
		}
	}
	return nil
}

func (w *Walker) validateRoot(ctx context.Context, root model.ModuleVersion) error {
	m, err := w.registry.Module(root.Module)
	if err != nil {
		return status.ErrUnknownRoot.Wrap(err)
	}
	handler, err := m.SCM()
	if err != nil {
		return status.ErrCapabilityRequired.Wrap(err)
	}
	ok, err := handler.VersionExists(ctx, root.Version)
	if err != nil {
		return err
	}
	if !ok {
		return status.ErrUnknownRoot.WrapMessage("version %s does not exist on module %s", root.Version, root.Module)
	}
	return nil
}

// visitReference runs the per-reference visit algorithm. The reference is
// pushed on the path for the whole visit and popped on every exit path.
func (w *Walker) visitReference(ctx context.Context, walk *Walk, ref model.Reference, visitor Visitor) error {
	if !ref.IsResolved() {
		w.l.Debug("skipping unresolved reference", zap.String("reference", ref.String()), zap.String("path", walk.Path.String()))
		return nil
	}
	if walk.Abort.IsSet() || ctx.Err() != nil {
		return nil
	}

	walk.Path.Push(ref)
	defer walk.Path.Pop()

	mv := ref.ModuleVersion()
	if mv.Version.IsDynamic() && !w.includeDynamic {
		return nil
	}
	if mv.Version.IsStatic() && !w.includeStatic {
		// nothing under a static revision can be dynamic either
		return nil
	}

	if walk.Guard.IsAcquired(mv) {
		w.l.Debug("already processed", zap.Stringer("module", mv), zap.String("path", walk.Path.String()))
		return nil
	}

	m, err := w.registry.Module(mv.Module)
	if err != nil {
		return w.nodeError(walk, mv, err)
	}
	handler, err := m.SCM()
	if err != nil {
		return w.nodeError(walk, mv, status.ErrCapabilityRequired.Wrap(err))
	}
	if err = w.verifyUserSync(ctx, handler, mv); err != nil {
		return w.nodeError(walk, mv, err)
	}

	switch w.order {
	case ParentFirst:
		descend := true
		if w.matcher.Matches(walk.Path) && walk.Guard.TryAcquire(mv) {
			descend, err = visitor.VisitMatched(ctx, walk, ref)
			if err != nil {
				return w.nodeError(walk, mv, err)
			}
		}
		if descend && w.matcher.CanMatchChildren(walk.Path) {
			if err = w.visitChildren(ctx, walk, m, handler, mv, visitor); err != nil {
				return err
			}
		}

	case ChildrenFirst:
		if w.matcher.CanMatchChildren(walk.Path) {
			if err = w.visitChildren(ctx, walk, m, handler, mv, visitor); err != nil {
				return err
			}
		}
		if walk.Abort.IsSet() {
			return nil
		}
		if w.matcher.Matches(walk.Path) && walk.Guard.TryAcquire(mv) {
			if _, err = visitor.VisitMatched(ctx, walk, ref); err != nil {
				return w.nodeError(walk, mv, err)
			}
		}
	}
	return nil
}

// visitChildren expands the node by checking out its sources and reading its
// declared references, then recurses. The abort flag is checked after every
// child.
func (w *Walker) visitChildren(ctx context.Context, walk *Walk, m *registry.Module, handler scm.Handler, mv model.ModuleVersion, visitor Visitor) error {
	children, err := w.ListChildren(ctx, m, handler, mv)
	if err != nil {
		return w.nodeError(walk, mv, err)
	}
	for _, child := range children {
		if err := w.visitReference(ctx, walk, child, visitor); err != nil {
			return err
		}
		if walk.Abort.IsSet() || ctx.Err() != nil {
			w.l.Debug("unwinding", zap.String("path", walk.Path.String()))
			return nil
		}
	}
	return nil
}

// ListChildren yields the references declared by a module version, using a
// read-only system checkout.
func (w *Walker) ListChildren(ctx context.Context, m *registry.Module, handler scm.Handler, mv model.ModuleVersion) ([]model.Reference, error) {
	lister, err := m.References()
	if err != nil {
		return nil, status.ErrCapabilityRequired.Wrap(err)
	}
	dir, err := handler.CheckoutSystem(ctx, mv.Version)
	if err != nil {
		return nil, err
	}
	return lister.ListReferences(dir)
}

// verifyUserSync applies the unsynchronized-changes policy to the user
// working directory of the node, when one exists. System checkouts are never
// subject to it.
func (w *Walker) verifyUserSync(ctx context.Context, handler scm.Handler, mv model.ModuleVersion) error {
	if w.workspaces == nil || w.syncPolicy == SyncIgnore || !w.workspaces.Exists(mv) {
		return nil
	}
	dir, release, err := w.workspaces.Reserve(mv, workspace.ModeUser)
	if err != nil {
		return err
	}
	defer release()
	return VerifySync(ctx, handler, dir, w.syncPolicy, w.interactor, w.l)
}

// VerifySync verifies a user working directory against the sync policy,
// offering a refresh under the interactive policy. Shared by the engine and
// the merge job.
func VerifySync(ctx context.Context, handler scm.Handler, dir string, policy SyncPolicy, interactor interact.Interactor, l *zap.Logger) error {
	if policy == SyncIgnore {
		return nil
	}
	ok, err := handler.IsSynchronized(ctx, dir, scm.SyncAll)
	if err != nil {
		if errors.Is(err, scmstatus.ErrNotCheckedOut) {
			return nil
		}
		return err
	}
	if ok {
		return nil
	}

	if policy == SyncFail {
		return status.ErrUnsynchronized.WrapMessage("dir: %s", dir)
	}

	refresh := false
	if interactor != nil {
		refresh, err = interactor.Ask("", "walk.refresh-workspace", "working directory "+dir+" is out of sync, refresh it?")
		if err != nil {
			return err
		}
	}
	if !refresh {
		l.Info("proceeding with unsynchronized working directory", zap.String("dir", dir))
		return nil
	}
	conflicts, err := handler.Update(ctx, dir)
	if err != nil {
		return err
	}
	if conflicts {
		return status.ErrUpdateConflicts.WrapMessage("dir: %s", dir)
	}
	return nil
}

// nodeError applies the error policy: either propagate, or log with full
// path context and continue with the next sibling.
func (w *Walker) nodeError(walk *Walk, mv model.ModuleVersion, err error) error {
	if !w.continueOnError {
		return err
	}
	w.l.Error("error visiting module version, continuing",
		zap.Stringer("module", mv),
		zap.String("path", walk.Path.String()),
		zap.Error(err))
	return nil
}
