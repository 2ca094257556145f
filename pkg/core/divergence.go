// Copyright © 2020 Skyline Tools

package core

import (
	"context"

	"github.com/skylinetools/graft/pkg/model"
	"github.com/skylinetools/graft/pkg/registry"
	"github.com/skylinetools/graft/pkg/scm"
	"go.uber.org/zap"
)

// Verifier decides, for two revisions of the same module, whether each side
// has content the other lacks.
//
// Divergence is structural: a revision diverges not only when its own
// commit history differs (mechanical version bumps excluded), but when any
// transitively referenced module differs and is itself found divergent.
type Verifier struct {
	registry *registry.Registry
	l        *zap.Logger
	_        struct{}
}

// NewVerifier builds a divergence verifier over a module registry.
func NewVerifier(r *registry.Registry, l *zap.Logger) *Verifier {
	if l == nil {
		l = zap.NewNop()
	}
	return &Verifier{registry: r, l: l}
}

// Verify reports (aDiverges, bDiverges) for two versions of the module.
//
// Each call carries its own visited set over (module, a, b) triples, so
// reference graphs with true cycles terminate: a revisited triple
// contributes no additional divergence.
func (v *Verifier) Verify(ctx context.Context, module string, a, b model.Version) (bool, bool, error) {
	return v.verify(ctx, module, a, b, make(map[verifyKey]struct{}))
}

type verifyKey struct {
	module string
	a      model.Version
	b      model.Version
}

func (v *Verifier) verify(ctx context.Context, module string, a, b model.Version, visited map[verifyKey]struct{}) (bool, bool, error) {
	key := verifyKey{module: module, a: a, b: b}
	if _, ok := visited[key]; ok {
		v.l.Debug("divergence pair already verified",
			zap.String("module", module), zap.Stringer("a", a), zap.Stringer("b", b))
		return false, false, nil
	}
	visited[key] = struct{}{}

	m, err := v.registry.Module(module)
	if err != nil {
		return false, false, err
	}
	handler, err := m.SCM()
	if err != nil {
		return false, false, err
	}

	aDiverges, err := v.commitsDiverge(ctx, handler, a, b)
	if err != nil {
		return false, false, err
	}
	bDiverges, err := v.commitsDiverge(ctx, handler, b, a)
	if err != nil {
		return false, false, err
	}
	if aDiverges && bDiverges {
		// nothing more to learn
		return true, true, nil
	}

	// structural recursion: any divergent referenced module makes the
	// referencing side divergent too
	aRefs, err := v.listReferences(ctx, m, a)
	if err != nil {
		return false, false, err
	}
	bRefs, err := v.listReferences(ctx, m, b)
	if err != nil {
		return false, false, err
	}

	for _, aRef := range aRefs {
		if aDiverges && bDiverges {
			break
		}
		if !aRef.IsResolved() {
			continue
		}
		bRef, ok := findByModule(bRefs, aRef.Module)
		if !ok || !bRef.IsResolved() {
			continue
		}
		if aRef.Version == bRef.Version {
			continue
		}
		childA, childB, err := v.verify(ctx, aRef.Module, aRef.Version, bRef.Version, visited)
		if err != nil {
			return false, false, err
		}
		aDiverges = aDiverges || childA
		bDiverges = bDiverges || childB
	}

	return aDiverges, bDiverges, nil
}

// commitsDiverge tells whether from has real (non-mechanical) commits to
// offer over to.
func (v *Verifier) commitsDiverge(ctx context.Context, handler scm.Handler, from, to model.Version) (bool, error) {
	commits, err := handler.ListDivergingCommits(ctx, from, to)
	if err != nil {
		return false, err
	}
	return len(model.FilterMechanicalCommits(commits)) > 0, nil
}

func (v *Verifier) listReferences(ctx context.Context, m *registry.Module, version model.Version) ([]model.Reference, error) {
	handler, err := m.SCM()
	if err != nil {
		return nil, err
	}
	lister, err := m.References()
	if err != nil {
		return nil, err
	}
	dir, err := handler.CheckoutSystem(ctx, version)
	if err != nil {
		return nil, err
	}
	return lister.ListReferences(dir)
}

func findByModule(refs []model.Reference, module string) (model.Reference, bool) {
	for _, ref := range refs {
		if ref.Module == module {
			return ref, true
		}
	}
	return model.Reference{}, false
}
