// Copyright © 2020 Skyline Tools

package localscm

import (
	"os"
	"path"
	"sort"
	"strings"

	"github.com/skylinetools/graft/pkg/model"
	"github.com/skylinetools/graft/pkg/scm/status"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v2"
)

const stateDir = ".graft"

type workdirState struct {
	Module  string        `yaml:"module"`
	Version model.Version `yaml:"version"`
	Head    string        `yaml:"head,omitempty"`
	_       struct{}
}

func getPathToState(dir string) string {
	return path.Join(dir, stateDir, "state.yaml")
}

func (s *SCM) readState(dir string) (workdirState, error) {
	var state workdirState
	buffer, err := afero.ReadFile(s.workFs, getPathToState(dir))
	if err != nil {
		if os.IsNotExist(err) {
			return state, status.ErrNotCheckedOut.WrapMessage("dir: %s", dir)
		}
		return state, err
	}
	if err = yaml.Unmarshal(buffer, &state); err != nil {
		return state, err
	}
	return state, nil
}

func (s *SCM) writeState(dir string, state workdirState) error {
	buffer, err := yaml.Marshal(state)
	if err != nil {
		return err
	}
	return s.writeFile(s.workFs, getPathToState(dir), buffer)
}

// materialize replaces the content of dir with the given tree, leaving the
// bookkeeping state directory alone.
func (s *SCM) materialize(module, dir string, entries map[string]string) error {
	if err := s.clearWorkdir(dir); err != nil {
		return err
	}
	for file, hash := range entries {
		content, err := s.readBlob(module, hash)
		if err != nil {
			return err
		}
		if err = s.writeFile(s.workFs, path.Join(dir, file), content); err != nil {
			return err
		}
	}
	return nil
}

func (s *SCM) clearWorkdir(dir string) error {
	infos, err := afero.ReadDir(s.workFs, dir)
	if err != nil {
		if os.IsNotExist(err) {
			return s.workFs.MkdirAll(dir, 0755)
		}
		return err
	}
	for _, info := range infos {
		// bookkeeping entries: the state dir and any lock files
		if strings.HasPrefix(info.Name(), stateDir) {
			continue
		}
		if err = s.workFs.RemoveAll(path.Join(dir, info.Name())); err != nil {
			return err
		}
	}
	return nil
}

// snapshot walks the working directory and yields its current tree as a map
// from path to blob hash, without writing any blob.
func (s *SCM) snapshot(dir string) (map[string]string, error) {
	entries := make(map[string]string)
	err := s.walkWorkdir(dir, "", func(file string, content []byte) error {
		entries[file] = blobHash(content)
		return nil
	})
	return entries, err
}

func (s *SCM) walkWorkdir(dir, sub string, apply func(file string, content []byte) error) error {
	infos, err := afero.ReadDir(s.workFs, path.Join(dir, sub))
	if err != nil {
		if os.IsNotExist(err) && sub == "" {
			return nil
		}
		return err
	}
	// stable order for reproducible traversals
	sort.Slice(infos, func(i, j int) bool { return infos[i].Name() < infos[j].Name() })
	for _, info := range infos {
		name := path.Join(sub, info.Name())
		if sub == "" && strings.HasPrefix(info.Name(), stateDir) {
			continue
		}
		if info.IsDir() {
			if err = s.walkWorkdir(dir, name, apply); err != nil {
				return err
			}
			continue
		}
		content, err := afero.ReadFile(s.workFs, path.Join(dir, name))
		if err != nil {
			return err
		}
		if err = apply(name, content); err != nil {
			return err
		}
	}
	return nil
}

// flushWorkdir writes every file of the working directory to the blob store
// and yields the resulting tree.
func (s *SCM) flushWorkdir(module, dir string) (map[string]string, error) {
	entries := make(map[string]string)
	err := s.walkWorkdir(dir, "", func(file string, content []byte) error {
		hash, e := s.writeBlob(module, content)
		if e != nil {
			return e
		}
		entries[file] = hash
		return nil
	})
	return entries, err
}

func sameTree(a, b map[string]string) bool {
	if len(a) != len(b) {
		return false
	}
	for file, hash := range a {
		if b[file] != hash {
			return false
		}
	}
	return true
}

// changedPaths yields the union of paths whose content differs between two
// trees, sorted.
func changedPaths(a, b map[string]string) []string {
	seen := make(map[string]struct{})
	var changed []string
	for file, hash := range a {
		if b[file] != hash {
			changed = append(changed, file)
			seen[file] = struct{}{}
		}
	}
	for file, hash := range b {
		if _, ok := seen[file]; ok {
			continue
		}
		if a[file] != hash {
			changed = append(changed, file)
		}
	}
	sort.Strings(changed)
	return changed
}
