// Copyright © 2020 Skyline Tools

package localscm

import (
	"context"
	"path"
	"strings"
	"time"

	"github.com/segmentio/ksuid"
	"github.com/skylinetools/graft/pkg/model"
	"github.com/skylinetools/graft/pkg/scm"
	"github.com/skylinetools/graft/pkg/scm/status"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

func (h *handler) VersionExists(_ context.Context, v model.Version) (bool, error) {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()

	return afero.Exists(h.s.metaFs, getPathToVersion(h.module, v))
}

func (h *handler) Checkout(_ context.Context, v model.Version, dir string) error {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()

	desc, err := h.s.readVersion(h.module, v)
	if err != nil {
		return err
	}
	entries, err := h.s.tree(h.module, desc.Head)
	if err != nil {
		return err
	}
	if err = h.s.materialize(h.module, dir, entries); err != nil {
		return err
	}
	h.l.Debug("checked out", zap.Stringer("version", v), zap.String("dir", dir), zap.String("head", desc.Head))
	return h.s.writeState(dir, workdirState{Module: h.module, Version: v, Head: desc.Head})
}

func (h *handler) CheckoutSystem(ctx context.Context, v model.Version) (string, error) {
	h.s.mu.Lock()
	desc, err := h.s.readVersion(h.module, v)
	h.s.mu.Unlock()
	if err != nil {
		return "", err
	}

	key := model.NewModuleVersion(h.module, v).String()
	if co, ok := h.s.sysCheckouts.Get(key); ok && co.head == desc.Head {
		return co.dir, nil
	}

	dir := path.Join(h.s.sysRoot, strings.ReplaceAll(h.module, "/", "_"), v.Kind.String(), strings.ReplaceAll(v.Name, "/", "_"))
	if err = h.Checkout(ctx, v, dir); err != nil {
		return "", err
	}
	h.s.sysCheckouts.Add(key, systemCheckout{dir: dir, head: desc.Head})
	return dir, nil
}

func (h *handler) IsSynchronized(_ context.Context, dir string, scope scm.SyncScope) (bool, error) {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()

	state, err := h.s.readState(dir)
	if err != nil {
		return false, err
	}

	if scope == scm.SyncLocal || scope == scm.SyncAll {
		recorded, err := h.s.tree(h.module, state.Head)
		if err != nil {
			return false, err
		}
		current, err := h.s.snapshot(dir)
		if err != nil {
			return false, err
		}
		if !sameTree(recorded, current) {
			return false, nil
		}
	}

	if scope == scm.SyncRemote || scope == scm.SyncAll {
		desc, err := h.s.readVersion(h.module, state.Version)
		if err != nil {
			return false, err
		}
		if state.Head != desc.Head {
			return false, nil
		}
	}

	return true, nil
}

func (h *handler) Update(_ context.Context, dir string) (bool, error) {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()

	state, err := h.s.readState(dir)
	if err != nil {
		return false, err
	}
	desc, err := h.s.readVersion(h.module, state.Version)
	if err != nil {
		return false, err
	}
	if state.Head == desc.Head {
		return false, nil
	}

	recorded, err := h.s.tree(h.module, state.Head)
	if err != nil {
		return false, err
	}
	upstream, err := h.s.tree(h.module, desc.Head)
	if err != nil {
		return false, err
	}
	current, err := h.s.snapshot(dir)
	if err != nil {
		return false, err
	}

	local := make(map[string]struct{})
	for _, file := range changedPaths(recorded, current) {
		local[file] = struct{}{}
	}
	for _, file := range changedPaths(recorded, upstream) {
		if _, ok := local[file]; ok {
			// overlapping local and incoming change: leave the directory as is
			return true, nil
		}
	}

	for _, file := range changedPaths(recorded, upstream) {
		hash, ok := upstream[file]
		if !ok {
			if err = h.s.workFs.Remove(path.Join(dir, file)); err != nil {
				return false, err
			}
			continue
		}
		content, err := h.s.readBlob(h.module, hash)
		if err != nil {
			return false, err
		}
		if err = h.s.writeFile(h.s.workFs, path.Join(dir, file), content); err != nil {
			return false, err
		}
	}

	state.Head = desc.Head
	return false, h.s.writeState(dir, state)
}

func (h *handler) CommitWorkdir(_ context.Context, dir string, message string, attrs map[string]string) (model.Commit, error) {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()

	return h.commitWorkdir(dir, message, attrs, nil)
}

// commitWorkdir is the locked implementation, shared with Merge which passes
// extra parents for the merge commit.
func (h *handler) commitWorkdir(dir, message string, attrs map[string]string, extraParents []string) (model.Commit, error) {
	var none model.Commit

	state, err := h.s.readState(dir)
	if err != nil {
		return none, err
	}
	if state.Version.IsStatic() {
		return none, status.ErrStaticImmutable.WrapMessage("%s@%s", h.module, state.Version)
	}
	desc, err := h.s.readVersion(h.module, state.Version)
	if err != nil {
		return none, err
	}
	if state.Head != desc.Head {
		return none, status.ErrOutOfSync.WrapMessage("dir %s at %s, version at %s", dir, state.Head, desc.Head)
	}

	recorded, err := h.s.tree(h.module, state.Head)
	if err != nil {
		return none, err
	}
	entries, err := h.s.flushWorkdir(h.module, dir)
	if err != nil {
		return none, err
	}
	if sameTree(recorded, entries) && len(extraParents) == 0 {
		return none, status.ErrNoChanges.WrapMessage("dir: %s", dir)
	}

	var parents []string
	if state.Head != "" {
		parents = append(parents, state.Head)
	}
	parents = append(parents, extraParents...)

	commit := CommitDescriptor{
		ID:         ksuid.New().String(),
		Parents:    parents,
		Message:    message,
		Attributes: attrs,
		Timestamp:  time.Now().UTC(),
		Entries:    entries,
	}
	if err = h.s.writeCommit(h.module, commit); err != nil {
		return none, err
	}

	desc.Head = commit.ID
	if err = h.s.writeVersion(h.module, desc); err != nil {
		return none, err
	}
	state.Head = commit.ID
	if err = h.s.writeState(dir, state); err != nil {
		return none, err
	}

	h.l.Debug("committed", zap.Stringer("version", state.Version), zap.String("commit", commit.ID), zap.String("message", message))
	return commit.Commit(), nil
}

func (h *handler) CreateVersion(_ context.Context, base, v model.Version) error {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()

	if v.IsZero() {
		return status.ErrVersionNotFound.WrapMessage("cannot create the nil version on %s", h.module)
	}
	if ok, err := afero.Exists(h.s.metaFs, getPathToVersion(h.module, v)); err != nil {
		return err
	} else if ok {
		return status.ErrVersionExists.WrapMessage("%s@%s", h.module, v)
	}

	desc := VersionDescriptor{Version: v}
	if !base.IsZero() {
		baseDesc, err := h.s.readVersion(h.module, base)
		if err != nil {
			return err
		}
		desc.Head = baseDesc.Head
		desc.Base = baseDesc.Head
	}
	h.l.Info("created version", zap.Stringer("version", v), zap.Stringer("base", base))
	return h.s.writeVersion(h.module, desc)
}

func (h *handler) VersionAttributes(_ context.Context, v model.Version) (map[string]string, error) {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()

	desc, err := h.s.readVersion(h.module, v)
	if err != nil {
		return nil, err
	}
	if desc.Attributes == nil {
		return map[string]string{}, nil
	}
	return desc.Attributes, nil
}

// SetVersionAttributes attaches attributes to an existing version, e.g. a
// project code used to scope traversals.
func (s *SCM) SetVersionAttributes(module string, v model.Version, attrs map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	desc, err := s.readVersion(module, v)
	if err != nil {
		return err
	}
	if desc.Attributes == nil {
		desc.Attributes = make(map[string]string, len(attrs))
	}
	for name, value := range attrs {
		desc.Attributes[name] = value
	}
	return s.writeVersion(module, desc)
}
