// Copyright © 2020 Skyline Tools

package workspace

import (
	"context"
	"os"
	"path"
	"sort"

	"github.com/spf13/afero"
	"golang.org/x/sync/errgroup"
)

// Info describes one materialized working directory.
type Info struct {
	// Path is the workspace-relative identification, e.g.
	// "platform_app/branch/main".
	Path string

	// Dir is the directory on the workspace filesystem.
	Dir string

	// Size is the cumulated size of the directory content, in bytes.
	Size int64

	_ struct{}
}

// List yields every materialized working directory with its size, sorted by
// path.
func (m *Manager) List() ([]Info, error) {
	var list []Info

	modules, err := afero.ReadDir(m.fs, m.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	for _, module := range modules {
		if !module.IsDir() {
			continue
		}
		kinds, err := afero.ReadDir(m.fs, path.Join(m.root, module.Name()))
		if err != nil {
			return nil, err
		}
		for _, kind := range kinds {
			if !kind.IsDir() {
				continue
			}
			names, err := afero.ReadDir(m.fs, path.Join(m.root, module.Name(), kind.Name()))
			if err != nil {
				return nil, err
			}
			for _, name := range names {
				if !name.IsDir() {
					continue
				}
				rel := path.Join(module.Name(), kind.Name(), name.Name())
				dir := path.Join(m.root, rel)
				size, err := m.dirSize(dir)
				if err != nil {
					return nil, err
				}
				list = append(list, Info{Path: rel, Dir: dir, Size: size})
			}
		}
	}

	sort.Slice(list, func(i, j int) bool { return list[i].Path < list[j].Path })
	return list, nil
}

func (m *Manager) dirSize(dir string) (int64, error) {
	var size int64
	err := afero.Walk(m.fs, dir, func(_ string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.IsDir() {
			size += info.Size()
		}
		return nil
	})
	return size, err
}

// CleanAll removes every unreserved working directory. Directories holding a
// live lock are left alone.
func (m *Manager) CleanAll(ctx context.Context) error {
	list, err := m.List()
	if err != nil {
		return err
	}

	g, _ := errgroup.WithContext(ctx)
	for _, info := range list {
		info := info
		g.Go(func() error {
			if held, err := m.fileLockHeld(info.Dir); err != nil {
				return err
			} else if held {
				return ErrLocked.WrapMessage("dir: %s", info.Dir)
			}
			return m.fs.RemoveAll(info.Dir)
		})
	}
	return g.Wait()
}
