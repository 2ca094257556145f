// Copyright © 2020 Skyline Tools

// Package registry catalogs the modules of the estate and the capabilities
// each one exposes.
//
// A module carries a typed, possibly-absent handle per capability: source
// control, reference listing, artifact mapping. Querying an absent
// capability yields the typed sentinel status.ErrNotSupported rather than a
// panic, so callers decide whether the capability is required to proceed.
package registry

import (
	"sort"

	"github.com/skylinetools/graft/pkg/model"
	"github.com/skylinetools/graft/pkg/registry/artifactmap"
	"github.com/skylinetools/graft/pkg/registry/status"
	"github.com/skylinetools/graft/pkg/scm"
	"github.com/spf13/afero"
	"go.uber.org/zap"
	"gopkg.in/yaml.v2"
)

// ModuleConfig declares one module of the estate.
type ModuleConfig struct {
	Path string `yaml:"path"`

	// SCM names the source-control backend serving the module. Empty means
	// the default backend; "none" declares a module without source control
	// (catalog-only).
	SCM string `yaml:"scm,omitempty"`

	// Artifact is the coordinate the module publishes under, if any.
	Artifact string `yaml:"artifact,omitempty"`

	_ struct{}
}

// Config is the registry configuration, usually loaded from yaml.
type Config struct {
	Modules   []ModuleConfig     `yaml:"modules"`
	Artifacts []artifactmap.Rule `yaml:"artifacts,omitempty"`
	_         struct{}
}

// ParseConfig deserializes a registry configuration.
func ParseConfig(buffer []byte) (Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(buffer, &cfg); err != nil {
		return cfg, err
	}
	for _, m := range cfg.Modules {
		if err := model.ValidateModulePath(m.Path); err != nil {
			return cfg, err
		}
	}
	return cfg, nil
}

// RefLister is the reference-listing capability of a module: reading and
// rewriting the declarations found in a checkout.
type RefLister interface {
	// ListReferences yields the resolved references declared by the module
	// checked out in dir. Declarations the registry cannot resolve come back
	// as unresolved references, not errors.
	ListReferences(dir string) ([]model.Reference, error)

	// UpdateReferenceVersion rewrites the declared version of the reference
	// to the given module and reports whether anything changed.
	UpdateReferenceVersion(dir string, module string, v model.Version) (bool, error)
}

// SCMProvider yields the source-control handler serving one module.
type SCMProvider func(module string) scm.Handler

// Registry is the module catalog.
type Registry struct {
	modules map[string]*Module
	mapper  *artifactmap.Mapper
	l       *zap.Logger
	_       struct{}
}

// Option alters the build of a registry.
type Option func(*options)

type options struct {
	provider SCMProvider
	fs       afero.Fs
	l        *zap.Logger
}

// SCMBackend sets the default source-control backend provider.
func SCMBackend(provider SCMProvider) Option {
	return func(o *options) {
		o.provider = provider
	}
}

// SourceFs sets the filesystem checkouts live on, used by the reference
// listing capability.
func SourceFs(fs afero.Fs) Option {
	return func(o *options) {
		o.fs = fs
	}
}

// Logger sets a logger on the registry.
func Logger(l *zap.Logger) Option {
	return func(o *options) {
		o.l = l
	}
}

// New builds a registry from its configuration.
func New(cfg Config, opts ...Option) *Registry {
	o := &options{
		fs: afero.NewOsFs(),
		l:  zap.NewNop(),
	}
	for _, apply := range opts {
		apply(o)
	}

	r := &Registry{
		modules: make(map[string]*Module, len(cfg.Modules)),
		mapper:  artifactmap.New(cfg.Artifacts),
		l:       o.l,
	}
	for _, mc := range cfg.Modules {
		m := &Module{
			path:     mc.Path,
			artifact: mc.Artifact,
		}
		if mc.SCM != "none" && o.provider != nil {
			m.scm = o.provider(mc.Path)
			m.refs = &manifestLister{fs: o.fs, registry: r}
		}
		r.modules[mc.Path] = m
	}
	return r
}

// Module yields the catalog entry for a module path.
func (r *Registry) Module(path string) (*Module, error) {
	m, ok := r.modules[path]
	if !ok {
		return nil, status.ErrModuleNotFound.WrapMessage("module: %s", path)
	}
	return m, nil
}

// Has tells whether a module path is known to the registry.
func (r *Registry) Has(path string) bool {
	_, ok := r.modules[path]
	return ok
}

// List yields every module of the catalog, sorted by path.
func (r *Registry) List() []*Module {
	list := make([]*Module, 0, len(r.modules))
	for _, m := range r.modules {
		list = append(list, m)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].path < list[j].path })
	return list
}

// Resolve turns a manifest declaration into a reference. Unknown modules and
// unmapped artifacts yield an unresolved reference.
func (r *Registry) Resolve(entry manifestEntry) model.Reference {
	target := entry.module
	if target == "" {
		mapped, ok := r.mapper.Map(entry.artifact)
		if !ok {
			r.l.Debug("unmapped artifact coordinate", zap.String("artifact", entry.artifact))
			return model.NewUnresolvedReference(entry.raw)
		}
		target = mapped
	}
	if !r.Has(target) {
		r.l.Debug("reference to unknown module", zap.String("module", target))
		return model.NewUnresolvedReference(entry.raw)
	}
	return model.NewReference(model.NewModuleVersion(target, entry.version))
}

type manifestEntry struct {
	module   string
	artifact string
	version  model.Version
	raw      string
}

// Module is one catalog entry with its capability set.
type Module struct {
	path     string
	artifact string
	scm      scm.Handler
	refs     RefLister
	_        struct{}
}

// Path yields the module path.
func (m *Module) Path() string {
	return m.path
}

// SCM yields the source-control capability, or ErrNotSupported.
func (m *Module) SCM() (scm.Handler, error) {
	if m.scm == nil {
		return nil, status.ErrNotSupported.WrapMessage("module %s: source control", m.path)
	}
	return m.scm, nil
}

// References yields the reference-listing capability, or ErrNotSupported.
func (m *Module) References() (RefLister, error) {
	if m.refs == nil {
		return nil, status.ErrNotSupported.WrapMessage("module %s: reference listing", m.path)
	}
	return m.refs, nil
}

// Artifact yields the artifact coordinate the module publishes under, or
// ErrNotSupported when it publishes none.
func (m *Module) Artifact() (string, error) {
	if m.artifact == "" {
		return "", status.ErrNotSupported.WrapMessage("module %s: artifact mapping", m.path)
	}
	return m.artifact, nil
}
