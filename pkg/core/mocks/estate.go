// Copyright © 2020 Skyline Tools

// Package mocks provides fixture builders for engine tests: complete
// in-memory estates with modules, versions, commits and reference
// manifests, plus a scripted interactor.
package mocks

import (
	"context"
	"fmt"
	"os"
	"path"
	"testing"

	"github.com/skylinetools/graft/pkg/manifest"
	"github.com/skylinetools/graft/pkg/model"
	"github.com/skylinetools/graft/pkg/props"
	"github.com/skylinetools/graft/pkg/registry"
	"github.com/skylinetools/graft/pkg/scm/localscm"
	"github.com/skylinetools/graft/pkg/workspace"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// TestLogger yields a zap logger for testing, essentially muting logs to
// avoid too much output on CI. Set the DEBUG_TEST environment variable to
// get debug logs when testing interactively.
func TestLogger() *zap.Logger {
	if os.Getenv("DEBUG_TEST") != "" {
		l, _ := zap.NewDevelopment()
		return l
	}
	return zap.NewNop()
}

// Estate is a complete in-memory test environment: a local SCM, a registry
// over it, a workspace manager and a property store, all sharing one
// filesystem.
type Estate struct {
	T          *testing.T
	SCM        *localscm.SCM
	Registry   *registry.Registry
	Workspaces *workspace.Manager
	Props      *props.Store
	WorkFs     afero.Fs
}

// NewEstate builds an estate with the given modules, each with an empty
// branch/main.
func NewEstate(t *testing.T, modules ...string) *Estate {
	t.Helper()

	workFs := afero.NewMemMapFs()
	backend := localscm.New(
		localscm.MetaFs(afero.NewMemMapFs()),
		localscm.WorkFs(workFs),
		localscm.SystemRoot("system"),
		localscm.Logger(TestLogger()),
	)

	cfg := registry.Config{}
	for _, module := range modules {
		cfg.Modules = append(cfg.Modules, registry.ModuleConfig{Path: module})
	}
	r := registry.New(cfg,
		registry.SCMBackend(backend.Handler),
		registry.SourceFs(workFs),
		registry.Logger(TestLogger()),
	)

	properties, err := props.New(props.Fs(afero.NewMemMapFs()), props.File("properties.yaml"))
	require.NoError(t, err)

	e := &Estate{
		T:          t,
		SCM:        backend,
		Registry:   r,
		Workspaces: workspace.New(workspace.Fs(workFs), workspace.Root("workspaces"), workspace.Logger(TestLogger())),
		Props:      properties,
		WorkFs:     workFs,
	}
	for _, module := range modules {
		e.CreateVersion(module, "", "branch/main")
	}
	return e
}

// MV builds a module version value from literals.
func (e *Estate) MV(module, version string) model.ModuleVersion {
	return model.NewModuleVersion(module, model.MustParseVersion(version))
}

// CreateVersion creates a version on a module, rooted at base when given.
func (e *Estate) CreateVersion(module, base, version string) {
	e.T.Helper()
	var baseVersion model.Version
	if base != "" {
		baseVersion = model.MustParseVersion(base)
	}
	handler := e.SCM.Handler(module)
	require.NoError(e.T, handler.CreateVersion(context.Background(), baseVersion, model.MustParseVersion(version)))
}

// Commit writes one file on a version line and commits it.
func (e *Estate) Commit(module, version, file, content, message string, attrs map[string]string) model.Commit {
	e.T.Helper()
	dir := e.scratch(module, version)
	require.NoError(e.T, afero.WriteFile(e.WorkFs, path.Join(dir, file), []byte(content), 0644))
	handler := e.SCM.Handler(module)
	commit, err := handler.CommitWorkdir(context.Background(), dir, message, attrs)
	require.NoError(e.T, err)
	return commit
}

// SetReferences replaces the reference declarations of a version line and
// commits the manifest.
func (e *Estate) SetReferences(module, version string, entries ...manifest.Entry) model.Commit {
	e.T.Helper()
	dir := e.scratch(module, version)
	require.NoError(e.T, manifest.Write(e.WorkFs, dir, entries))
	handler := e.SCM.Handler(module)
	commit, err := handler.CommitWorkdir(context.Background(), dir, "declare references", nil)
	require.NoError(e.T, err)
	return commit
}

// UpdateReference rewrites one declared reference version and commits it as
// a mechanical reference-version-change commit.
func (e *Estate) UpdateReference(module, version, refModule, refVersion string) model.Commit {
	e.T.Helper()
	dir := e.scratch(module, version)
	changed, err := manifest.UpdateReferenceVersion(e.WorkFs, dir, refModule, model.MustParseVersion(refVersion))
	require.NoError(e.T, err)
	require.True(e.T, changed)
	handler := e.SCM.Handler(module)
	commit, err := handler.CommitWorkdir(context.Background(), dir,
		"update reference "+refModule,
		map[string]string{model.AttrReferenceVersionChange: refModule + " -> " + refVersion})
	require.NoError(e.T, err)
	return commit
}

// Entry builds one manifest declaration from literals.
func Entry(module, version string) manifest.Entry {
	return manifest.Entry{Module: module, Version: model.MustParseVersion(version)}
}

// scratch yields a fresh checkout of the version line, under a directory
// distinct from any reserved workspace.
func (e *Estate) scratch(module, version string) string {
	e.T.Helper()
	dir := path.Join("scratch", module, model.MustParseVersion(version).Name)
	handler := e.SCM.Handler(module)
	require.NoError(e.T, handler.Checkout(context.Background(), model.MustParseVersion(version), dir))
	return dir
}

// ScriptedInteractor answers prompts from canned values and records what it
// was shown.
type ScriptedInteractor struct {
	// Versions are successive answers to PromptVersion; when exhausted, the
	// prompt default is used.
	Versions []model.Version

	// Answers maps Ask keys to canned answers; missing keys answer false.
	Answers map[string]bool

	// Infos collects every informational message displayed.
	Infos []string
}

// PromptVersion answers from the script, falling back to the default.
func (s *ScriptedInteractor) PromptVersion(prompt string, def *model.Version) (model.Version, error) {
	if len(s.Versions) > 0 {
		v := s.Versions[0]
		s.Versions = s.Versions[1:]
		return v, nil
	}
	if def != nil {
		return *def, nil
	}
	return model.Version{}, fmt.Errorf("scripted interactor: no answer for prompt %q", prompt)
}

// Ask answers from the script.
func (s *ScriptedInteractor) Ask(_, key, _ string) (bool, error) {
	return s.Answers[key], nil
}

// Info records the message.
func (s *ScriptedInteractor) Info(format string, args ...interface{}) {
	s.Infos = append(s.Infos, fmt.Sprintf(format, args...))
}

// Bracket records the opening marker and yields a closing no-op.
func (s *ScriptedInteractor) Bracket(label string) func() {
	s.Infos = append(s.Infos, "[ "+label+" ]")
	return func() {}
}
