// Copyright © 2020 Skyline Tools

package registry

import (
	"github.com/skylinetools/graft/pkg/manifest"
	"github.com/skylinetools/graft/pkg/model"
	"github.com/spf13/afero"
)

// manifestLister implements the reference-listing capability on top of the
// graftrefs.yaml manifest, resolving declarations through the registry.
type manifestLister struct {
	fs       afero.Fs
	registry *Registry
}

func (m *manifestLister) ListReferences(dir string) ([]model.Reference, error) {
	entries, err := manifest.List(m.fs, dir)
	if err != nil {
		return nil, err
	}
	refs := make([]model.Reference, 0, len(entries))
	for _, entry := range entries {
		refs = append(refs, m.registry.Resolve(manifestEntry{
			module:   entry.Module,
			artifact: entry.Artifact,
			version:  entry.Version,
			raw:      entry.Raw(),
		}))
	}
	return refs, nil
}

func (m *manifestLister) UpdateReferenceVersion(dir string, module string, v model.Version) (bool, error) {
	return manifest.UpdateReferenceVersion(m.fs, dir, module, v)
}
