// Copyright © 2020 Skyline Tools

// Package props persists named runtime properties, scoped to a module or
// global.
//
// Properties cache choices made during interactive runs (e.g. the source
// version picked for a merge root, remembered yes/no answers) so repeated
// runs need not re-prompt. Module-scoped values override global ones.
package props

import (
	"os"
	"path"
	"sync"

	"github.com/spf13/afero"
	"github.com/spf13/cast"
	"gopkg.in/yaml.v2"
)

// GlobalScope addresses properties not attached to any module.
const GlobalScope = ""

type fileFormat struct {
	Global  map[string]string            `yaml:"global,omitempty"`
	Modules map[string]map[string]string `yaml:"modules,omitempty"`
	_       struct{}
}

// Store is a file-backed property store, saved on every mutation.
type Store struct {
	fs     afero.Fs
	target string

	mu   sync.Mutex
	data fileFormat

	_ struct{}
}

// Option alters the build of a property store.
type Option func(*Store)

// Fs sets the filesystem the store is persisted on.
func Fs(fs afero.Fs) Option {
	return func(s *Store) {
		s.fs = fs
	}
}

// File sets the file the store is persisted to.
func File(target string) Option {
	return func(s *Store) {
		s.target = target
	}
}

// New builds a property store, loading the backing file when present.
func New(opts ...Option) (*Store, error) {
	s := &Store{
		fs:     afero.NewOsFs(),
		target: ".graft/properties.yaml",
	}
	for _, apply := range opts {
		apply(s)
	}

	buffer, err := afero.ReadFile(s.fs, s.target)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, err
	}
	if err = yaml.Unmarshal(buffer, &s.data); err != nil {
		return nil, err
	}
	return s, nil
}

// Get yields a property value. A module scope falls back to the global scope
// when the module carries no override.
func (s *Store) Get(scope, name string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if scope != GlobalScope {
		if values, ok := s.data.Modules[scope]; ok {
			if value, ok := values[name]; ok {
				return value, true
			}
		}
	}
	value, ok := s.data.Global[name]
	return value, ok
}

// GetBool yields a property coerced to a boolean.
func (s *Store) GetBool(scope, name string) (bool, bool) {
	value, ok := s.Get(scope, name)
	if !ok {
		return false, false
	}
	b, err := cast.ToBoolE(value)
	if err != nil {
		return false, false
	}
	return b, true
}

// GetInt yields a property coerced to an integer.
func (s *Store) GetInt(scope, name string) (int, bool) {
	value, ok := s.Get(scope, name)
	if !ok {
		return 0, false
	}
	i, err := cast.ToIntE(value)
	if err != nil {
		return 0, false
	}
	return i, true
}

// Set records a property value and saves the store.
func (s *Store) Set(scope, name, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if scope == GlobalScope {
		if s.data.Global == nil {
			s.data.Global = make(map[string]string)
		}
		s.data.Global[name] = value
	} else {
		if s.data.Modules == nil {
			s.data.Modules = make(map[string]map[string]string)
		}
		if s.data.Modules[scope] == nil {
			s.data.Modules[scope] = make(map[string]string)
		}
		s.data.Modules[scope][name] = value
	}
	return s.save()
}

// Delete removes a property and saves the store.
func (s *Store) Delete(scope, name string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if scope == GlobalScope {
		delete(s.data.Global, name)
	} else {
		delete(s.data.Modules[scope], name)
	}
	return s.save()
}

func (s *Store) save() error {
	buffer, err := yaml.Marshal(s.data)
	if err != nil {
		return err
	}
	if err = s.fs.MkdirAll(path.Dir(s.target), 0755); err != nil {
		return err
	}
	return afero.WriteFile(s.fs, s.target, buffer, 0644)
}
