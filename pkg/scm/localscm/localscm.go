// Copyright © 2020 Skyline Tools

// Package localscm implements the source-control capability on a local
// store, without any external VCS.
//
// The store keeps, per module:
//
//	<module>/versions/<kind>/<name...>/version.yaml
//	<module>/commits/<id>.yaml
//	<module>/blobs/<hash>
//
// Commits record a full snapshot of the module tree as a map from path to
// content-addressed blob hash. Working directories are materialized on a
// separate filesystem and carry their bookkeeping in .graft/state.yaml.
//
// The backend is deterministic and filesystem-agnostic (afero), which makes
// it the fixture engine for the whole test suite as well as a usable
// backend for small estates.
package localscm

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/skylinetools/graft/pkg/scm"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

const defaultSystemCheckouts = 32

// SCM is a local source-control backend covering any number of modules.
//
// A single SCM instance may serve concurrent jobs: all store mutations are
// serialized on an internal lock.
type SCM struct {
	metaFs  afero.Fs // the store: descriptors and blobs
	workFs  afero.Fs // working directories and system checkouts
	sysRoot string
	sysMax  int

	sysCheckouts *lru.Cache[string, systemCheckout]

	mu sync.Mutex
	l  *zap.Logger

	_ struct{}
}

type systemCheckout struct {
	dir  string
	head string
}

// Option alters the build of a local SCM instance.
type Option func(*SCM)

// MetaFs sets the filesystem holding the store.
func MetaFs(fs afero.Fs) Option {
	return func(s *SCM) {
		s.metaFs = fs
	}
}

// WorkFs sets the filesystem working directories are materialized on.
func WorkFs(fs afero.Fs) Option {
	return func(s *SCM) {
		s.workFs = fs
	}
}

// SystemRoot sets the directory system checkouts live under.
func SystemRoot(dir string) Option {
	return func(s *SCM) {
		s.sysRoot = dir
	}
}

// SystemCheckouts caps the number of cached system checkouts.
func SystemCheckouts(n int) Option {
	return func(s *SCM) {
		s.sysMax = n
	}
}

// Logger sets a logger on the backend.
func Logger(l *zap.Logger) Option {
	return func(s *SCM) {
		s.l = l
	}
}

func defaultSCM() *SCM {
	return &SCM{
		metaFs:  afero.NewBasePathFs(afero.NewOsFs(), ".graft/store"),
		workFs:  afero.NewOsFs(),
		sysRoot: ".graft/system",
		sysMax:  defaultSystemCheckouts,
		l:       zap.NewNop(),
	}
}

// New builds a local SCM instance.
func New(opts ...Option) *SCM {
	s := defaultSCM()
	for _, apply := range opts {
		apply(s)
	}
	cache, err := lru.NewWithEvict[string, systemCheckout](s.sysMax, func(_ string, co systemCheckout) {
		// best effort: a stale system checkout left behind is harmless
		if e := s.workFs.RemoveAll(co.dir); e != nil {
			s.l.Debug("could not remove evicted system checkout", zap.String("dir", co.dir), zap.Error(e))
		}
	})
	if err != nil {
		// only fails on a non-positive size
		panic(err)
	}
	s.sysCheckouts = cache
	return s
}

// WorkFs exposes the filesystem working directories live on, so that
// collaborators (manifest listing, workspace management) operate on the same
// view as the backend.
func (s *SCM) WorkFs() afero.Fs {
	return s.workFs
}

// Handler yields the source-control capability scoped to one module.
func (s *SCM) Handler(module string) scm.Handler {
	return &handler{
		s:      s,
		module: module,
		l:      s.l.With(zap.String("module", module)),
	}
}

type handler struct {
	s      *SCM
	module string
	l      *zap.Logger
}
