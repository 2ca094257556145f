// Copyright © 2020 Skyline Tools

package core_test

import (
	"testing"

	"github.com/skylinetools/graft/pkg/core"
	"github.com/skylinetools/graft/pkg/model"
	"github.com/stretchr/testify/assert"
)

func pathTo(mvs ...model.ModuleVersion) *model.ReferencePath {
	p := model.NewReferencePath()
	for _, mv := range mvs {
		p.Push(model.NewReference(mv))
	}
	return p
}

func TestMatchAll(t *testing.T) {
	m := core.MatchAll()
	p := pathTo(model.NewModuleVersion("app", model.NewDynamic("main")))
	assert.True(t, m.Matches(p))
	assert.True(t, m.CanMatchChildren(p))
}

type boolMatcher struct {
	matches  bool
	children bool
	calls    int
}

func (m *boolMatcher) Matches(_ *model.ReferencePath) bool {
	m.calls++
	return m.matches
}

func (m *boolMatcher) CanMatchChildren(_ *model.ReferencePath) bool {
	return m.children
}

func TestMatchAnd(t *testing.T) {
	p := pathTo(model.NewModuleVersion("app", model.NewDynamic("main")))

	yes := &boolMatcher{matches: true, children: true}
	no := &boolMatcher{matches: false, children: false}
	unreached := &boolMatcher{matches: true, children: true}

	and := core.MatchAnd(yes, no, unreached)
	assert.False(t, and.Matches(p))
	assert.False(t, and.CanMatchChildren(p))
	// short-circuits after the first negative
	assert.Zero(t, unreached.calls)

	assert.True(t, core.MatchAnd(yes, yes).Matches(p))
}

func TestMatchVersionAttribute(t *testing.T) {
	attrs := map[model.ModuleVersion]map[string]string{
		model.NewModuleVersion("liba", model.NewDynamic("main")): {"project": "apollo"},
		model.NewModuleVersion("libb", model.NewDynamic("main")): {"project": "gemini"},
	}
	lookup := func(mv model.ModuleVersion) map[string]string { return attrs[mv] }

	m := core.MatchVersionAttribute(lookup, "project", "apollo")

	matching := pathTo(model.NewModuleVersion("liba", model.NewDynamic("main")))
	assert.True(t, m.Matches(matching))

	differing := pathTo(model.NewModuleVersion("libb", model.NewDynamic("main")))
	assert.False(t, m.Matches(differing))

	missing := pathTo(model.NewModuleVersion("app", model.NewDynamic("main")))
	assert.False(t, m.Matches(missing))

	// the attribute may appear anywhere deeper: descent is never pruned
	assert.True(t, m.CanMatchChildren(differing))

	empty := model.NewReferencePath()
	assert.False(t, m.Matches(empty))
}
