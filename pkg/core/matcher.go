// Copyright © 2020 Skyline Tools

package core

import (
	"context"

	"github.com/skylinetools/graft/pkg/model"
	"github.com/skylinetools/graft/pkg/registry"
	"go.uber.org/zap"
)

// PathMatcher decides, from the current reference path, whether the node
// qualifies for visitor dispatch and whether descending into its children
// could ever match.
//
// Matchers are pure predicates: no side effects, no errors.
type PathMatcher interface {
	// Matches tells whether the current node qualifies for dispatch.
	Matches(path *model.ReferencePath) bool

	// CanMatchChildren is the pruning hint: whether any descendant of the
	// current node could still match. Independent of Matches.
	CanMatchChildren(path *model.ReferencePath) bool
}

type matchAll struct{}

func (matchAll) Matches(_ *model.ReferencePath) bool { return true }

func (matchAll) CanMatchChildren(_ *model.ReferencePath) bool { return true }

// MatchAll matches every node.
func MatchAll() PathMatcher {
	return matchAll{}
}

type matchAnd struct {
	matchers []PathMatcher
}

// MatchAnd matches when every given matcher matches, short-circuiting on the
// first negative for both predicates.
func MatchAnd(matchers ...PathMatcher) PathMatcher {
	return matchAnd{matchers: matchers}
}

func (m matchAnd) Matches(path *model.ReferencePath) bool {
	for _, matcher := range m.matchers {
		if !matcher.Matches(path) {
			return false
		}
	}
	return true
}

func (m matchAnd) CanMatchChildren(path *model.ReferencePath) bool {
	for _, matcher := range m.matchers {
		if !matcher.CanMatchChildren(path) {
			return false
		}
	}
	return true
}

// AttributeLookup yields the attributes of a module version. Lookup failures
// are the adapter's to log: a matcher only sees the resulting map, possibly
// empty.
type AttributeLookup func(mv model.ModuleVersion) map[string]string

type matchVersionAttribute struct {
	lookup AttributeLookup
	name   string
	value  string
}

// MatchVersionAttribute matches nodes whose version carries the named
// attribute with exactly the given value, e.g. scoping a run to one project
// code. Descent is never pruned: the attribute may appear anywhere deeper.
func MatchVersionAttribute(lookup AttributeLookup, name, value string) PathMatcher {
	return matchVersionAttribute{lookup: lookup, name: name, value: value}
}

func (m matchVersionAttribute) Matches(path *model.ReferencePath) bool {
	leaf, ok := path.Leaf()
	if !ok || !leaf.IsResolved() {
		return false
	}
	attrs := m.lookup(leaf.ModuleVersion())
	return attrs[m.name] == m.value
}

func (m matchVersionAttribute) CanMatchChildren(_ *model.ReferencePath) bool {
	return true
}

// SCMAttributeLookup builds an attribute lookup backed by each module's
// source-control capability. Modules without the capability and lookup
// failures count as having no attributes.
func SCMAttributeLookup(ctx context.Context, r *registry.Registry, l *zap.Logger) AttributeLookup {
	return func(mv model.ModuleVersion) map[string]string {
		m, err := r.Module(mv.Module)
		if err != nil {
			l.Debug("attribute lookup on unknown module", zap.Stringer("module", mv), zap.Error(err))
			return nil
		}
		handler, err := m.SCM()
		if err != nil {
			l.Debug("attribute lookup without source control", zap.Stringer("module", mv), zap.Error(err))
			return nil
		}
		attrs, err := handler.VersionAttributes(ctx, mv.Version)
		if err != nil {
			l.Debug("attribute lookup failed", zap.Stringer("module", mv), zap.Error(err))
			return nil
		}
		return attrs
	}
}
