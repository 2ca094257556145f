// Copyright © 2020 Skyline Tools

// Package manifest reads and rewrites the reference declarations a module
// carries in its sources.
//
// Declarations live in a graftrefs.yaml file at the module source root. Each
// entry names either a module of the estate or an external artifact
// coordinate, at a version:
//
//	references:
//	  - module: platform/libs/core
//	    version: tag/v1.2.0
//	  - artifact: com.acme:widget
//	    version: tag/1.4
package manifest

import (
	"os"
	"path"

	"github.com/skylinetools/graft/pkg/model"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v2"
)

// FileName is the manifest file expected at a module source root.
const FileName = "graftrefs.yaml"

// Entry is one reference declaration, before resolution against the
// registry. Exactly one of Module and Artifact is set.
type Entry struct {
	Module   string        `yaml:"module,omitempty"`
	Artifact string        `yaml:"artifact,omitempty"`
	Version  model.Version `yaml:"version"`
	_        struct{}
}

// Raw renders the declaration as found in the file, for diagnostics.
func (e Entry) Raw() string {
	target := e.Module
	if target == "" {
		target = e.Artifact
	}
	return target + "@" + e.Version.String()
}

type manifestFile struct {
	References []Entry `yaml:"references"`
	_          struct{}
}

// List yields the declarations of the module checked out in dir, in file
// order. A module without a manifest has no references.
func List(fs afero.Fs, dir string) ([]Entry, error) {
	buffer, err := afero.ReadFile(fs, path.Join(dir, FileName))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	var file manifestFile
	if err = yaml.Unmarshal(buffer, &file); err != nil {
		return nil, err
	}
	return file.References, nil
}

// UpdateReferenceVersion rewrites the version of the declaration naming the
// given module, leaving every other entry untouched. It reports whether the
// file changed.
func UpdateReferenceVersion(fs afero.Fs, dir string, module string, newVersion model.Version) (bool, error) {
	buffer, err := afero.ReadFile(fs, path.Join(dir, FileName))
	if err != nil {
		return false, err
	}
	var file manifestFile
	if err = yaml.Unmarshal(buffer, &file); err != nil {
		return false, err
	}

	changed := false
	for i, entry := range file.References {
		if entry.Module != module {
			continue
		}
		if entry.Version == newVersion {
			continue
		}
		file.References[i].Version = newVersion
		changed = true
	}
	if !changed {
		return false, nil
	}

	buffer, err = yaml.Marshal(file)
	if err != nil {
		return false, err
	}
	return true, afero.WriteFile(fs, path.Join(dir, FileName), buffer, 0644)
}

// Write serializes declarations to the manifest of the module checked out in
// dir. Used by fixtures and estate seeding.
func Write(fs afero.Fs, dir string, entries []Entry) error {
	buffer, err := yaml.Marshal(manifestFile{References: entries})
	if err != nil {
		return err
	}
	return afero.WriteFile(fs, path.Join(dir, FileName), buffer, 0644)
}
