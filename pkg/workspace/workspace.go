// Copyright © 2020 Skyline Tools

// Package workspace allocates and guards the working directories modules are
// checked out into.
//
// Two disciplines combine on every directory:
//
//   - an in-process read/write lock, so many readers may share a cached view
//     while a single writer has exclusive access and waits for all readers;
//   - an inter-process lock file, so two jobs running against the same
//     workspace root never both mutate one directory.
//
// Reservations follow a strict acquire/use/release pattern: Reserve hands
// back a release function the caller must invoke on every exit path.
package workspace

import (
	"os"
	"path"
	"strings"
	"sync"
	"time"

	"github.com/skylinetools/graft/pkg/errors"
	"github.com/skylinetools/graft/pkg/model"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// ErrLocked indicates a directory already reserved by another job.
var ErrLocked = errors.New("workspace directory locked by another job")

const lockFile = ".graft.lock"

// Mode distinguishes writable user reservations from shared read-only ones.
type Mode int

const (
	// ModeUser reserves a directory for exclusive, writable use. Merge
	// conflicts are resolved by a human in such a directory.
	ModeUser Mode = iota

	// ModeSystem reserves a directory for shared read-only use.
	ModeSystem
)

func (m Mode) String() string {
	if m == ModeUser {
		return "user"
	}
	return "system"
}

// Manager hands out working directories under one workspace root.
type Manager struct {
	fs         afero.Fs
	root       string
	staleAfter time.Duration
	l          *zap.Logger

	mu    sync.Mutex
	locks map[string]*sync.RWMutex

	_ struct{}
}

// Option alters the build of a workspace manager.
type Option func(*Manager)

// Fs sets the filesystem the workspace root lives on.
func Fs(fs afero.Fs) Option {
	return func(m *Manager) {
		m.fs = fs
	}
}

// Root sets the workspace root directory.
func Root(dir string) Option {
	return func(m *Manager) {
		m.root = dir
	}
}

// StaleAfter sets the age after which a leftover lock file from a dead job
// is stolen.
func StaleAfter(d time.Duration) Option {
	return func(m *Manager) {
		m.staleAfter = d
	}
}

// Logger sets a logger on the manager.
func Logger(l *zap.Logger) Option {
	return func(m *Manager) {
		m.l = l
	}
}

// New builds a workspace manager.
func New(opts ...Option) *Manager {
	m := &Manager{
		fs:         afero.NewOsFs(),
		root:       ".graft/workspaces",
		staleAfter: 24 * time.Hour,
		l:          zap.NewNop(),
		locks:      make(map[string]*sync.RWMutex),
	}
	for _, apply := range opts {
		apply(m)
	}
	return m
}

// Dir yields the directory a module version is assigned, whether or not it
// has been reserved yet.
func (m *Manager) Dir(mv model.ModuleVersion) string {
	return path.Join(m.root,
		strings.ReplaceAll(mv.Module, "/", "_"),
		mv.Version.Kind.String(),
		strings.ReplaceAll(mv.Version.Name, "/", "_"))
}

// Exists tells whether the module version already has a materialized
// directory.
func (m *Manager) Exists(mv model.ModuleVersion) bool {
	ok, err := afero.DirExists(m.fs, m.Dir(mv))
	return err == nil && ok
}

// Reserve acquires the directory for a module version, creating it when
// absent, and yields the directory with its release function.
//
// User reservations are exclusive: concurrent ones fail with ErrLocked.
// System reservations share the directory among readers but wait for no one:
// a concurrent user reservation also fails them with ErrLocked.
func (m *Manager) Reserve(mv model.ModuleVersion, mode Mode) (string, func(), error) {
	dir := m.Dir(mv)
	if err := m.fs.MkdirAll(dir, 0755); err != nil {
		return "", nil, err
	}

	rw := m.lockFor(dir)
	if mode == ModeUser {
		rw.Lock()
		if err := m.acquireFileLock(dir); err != nil {
			rw.Unlock()
			return "", nil, err
		}
		m.l.Debug("reserved workspace", zap.Stringer("module", mv), zap.Stringer("mode", mode), zap.String("dir", dir))
		var once sync.Once
		return dir, func() {
			once.Do(func() {
				m.releaseFileLock(dir)
				rw.Unlock()
			})
		}, nil
	}

	rw.RLock()
	if held, err := m.fileLockHeld(dir); err != nil {
		rw.RUnlock()
		return "", nil, err
	} else if held {
		rw.RUnlock()
		return "", nil, ErrLocked.WrapMessage("dir: %s", dir)
	}
	var once sync.Once
	return dir, func() {
		once.Do(rw.RUnlock)
	}, nil
}

func (m *Manager) lockFor(dir string) *sync.RWMutex {
	m.mu.Lock()
	defer m.mu.Unlock()
	rw, ok := m.locks[dir]
	if !ok {
		rw = &sync.RWMutex{}
		m.locks[dir] = rw
	}
	return rw
}

func (m *Manager) acquireFileLock(dir string) error {
	target := path.Join(dir, lockFile)
	f, err := m.fs.OpenFile(target, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0644)
	if err == nil {
		_, _ = f.WriteString(time.Now().UTC().Format(time.RFC3339))
		return f.Close()
	}
	if !os.IsExist(err) {
		return err
	}

	info, statErr := m.fs.Stat(target)
	if statErr == nil && time.Since(info.ModTime()) > m.staleAfter {
		m.l.Warn("stealing stale workspace lock", zap.String("dir", dir), zap.Time("since", info.ModTime()))
		if rmErr := m.fs.Remove(target); rmErr != nil {
			return rmErr
		}
		return m.acquireFileLock(dir)
	}
	return ErrLocked.WrapMessage("dir: %s", dir)
}

func (m *Manager) releaseFileLock(dir string) {
	if err := m.fs.Remove(path.Join(dir, lockFile)); err != nil {
		m.l.Warn("could not release workspace lock", zap.String("dir", dir), zap.Error(err))
	}
}

func (m *Manager) fileLockHeld(dir string) (bool, error) {
	ok, err := afero.Exists(m.fs, path.Join(dir, lockFile))
	if err != nil {
		return false, err
	}
	return ok, nil
}
