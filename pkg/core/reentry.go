// Copyright © 2020 Skyline Tools

package core

import (
	"sync"

	"github.com/skylinetools/graft/pkg/model"
)

// ReentryGuard records the module versions already processed within one job
// run, guaranteeing at-most-once processing on graphs with diamond
// dependencies: a module reachable via two paths is processed once, and the
// second path observes it as already done.
//
// One guard is created per job invocation; nothing persists across runs. The
// guard is internally locked so two jobs sharing one by accident cannot
// corrupt it.
type ReentryGuard struct {
	mu   sync.Mutex
	seen map[model.ModuleVersion]struct{}
}

// NewReentryGuard builds an empty guard.
func NewReentryGuard() *ReentryGuard {
	return &ReentryGuard{seen: make(map[model.ModuleVersion]struct{})}
}

// TryAcquire records the module version and reports true the first time it
// is offered, false on every subsequent offer.
func (g *ReentryGuard) TryAcquire(mv model.ModuleVersion) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.seen[mv]; ok {
		return false
	}
	g.seen[mv] = struct{}{}
	return true
}

// IsAcquired reports whether the module version has already been recorded,
// without recording it. Used as a pre-flight check before expensive work
// such as a checkout.
func (g *ReentryGuard) IsAcquired(mv model.ModuleVersion) bool {
	g.mu.Lock()
	defer g.mu.Unlock()

	_, ok := g.seen[mv]
	return ok
}
