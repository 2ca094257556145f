// Copyright © 2020 Skyline Tools

package localscm

import (
	"bytes"
	"context"
	"path"
	"sort"

	"github.com/skylinetools/graft/pkg/model"
	"github.com/skylinetools/graft/pkg/scm"
	"github.com/skylinetools/graft/pkg/scm/status"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

func (h *handler) ListDivergingCommits(_ context.Context, from, to model.Version) ([]model.Commit, error) {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()

	fromDesc, err := h.s.readVersion(h.module, from)
	if err != nil {
		return nil, err
	}
	toDesc, err := h.s.readVersion(h.module, to)
	if err != nil {
		return nil, err
	}
	diverging, err := h.listDiverging(fromDesc.Head, toDesc.Head)
	if err != nil {
		return nil, err
	}
	commits := make([]model.Commit, 0, len(diverging))
	for _, desc := range diverging {
		commits = append(commits, desc.Commit())
	}
	return commits, nil
}

// reachable yields the set of commit IDs reachable from head, head included.
func (h *handler) reachable(head string) (map[string]struct{}, error) {
	seen := make(map[string]struct{})
	queue := []string{}
	if head != "" {
		queue = append(queue, head)
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		desc, err := h.s.readCommit(h.module, id)
		if err != nil {
			return nil, err
		}
		queue = append(queue, desc.Parents...)
	}
	return seen, nil
}

// listDiverging yields the commits reachable from fromHead and not from
// toHead, oldest first. KSUIDs sort by creation time, which gives a stable
// replay order.
func (h *handler) listDiverging(fromHead, toHead string) ([]CommitDescriptor, error) {
	excluded, err := h.reachable(toHead)
	if err != nil {
		return nil, err
	}

	var diverging []CommitDescriptor
	seen := make(map[string]struct{})
	queue := []string{}
	if fromHead != "" {
		queue = append(queue, fromHead)
	}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := excluded[id]; ok {
			continue
		}
		desc, err := h.s.readCommit(h.module, id)
		if err != nil {
			return nil, err
		}
		diverging = append(diverging, desc)
		queue = append(queue, desc.Parents...)
	}

	sort.Slice(diverging, func(i, j int) bool { return diverging[i].ID < diverging[j].ID })
	return diverging, nil
}

// mergeBase yields the nearest commit reachable from both heads, or the
// empty commit when the histories are unrelated.
func (h *handler) mergeBase(aHead, bHead string) (string, error) {
	fromA, err := h.reachable(aHead)
	if err != nil {
		return "", err
	}
	queue := []string{}
	if bHead != "" {
		queue = append(queue, bHead)
	}
	seen := make(map[string]struct{})
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		if _, ok := fromA[id]; ok {
			return id, nil
		}
		desc, err := h.s.readCommit(h.module, id)
		if err != nil {
			return "", err
		}
		queue = append(queue, desc.Parents...)
	}
	return "", nil
}

func (h *handler) Merge(_ context.Context, dir string, source model.Version, exclude []model.Commit) (scm.MergeOutcome, error) {
	h.s.mu.Lock()
	defer h.s.mu.Unlock()

	state, err := h.s.readState(dir)
	if err != nil {
		return scm.MergeNone, err
	}
	destDesc, err := h.s.readVersion(h.module, state.Version)
	if err != nil {
		return scm.MergeNone, err
	}
	if state.Head != destDesc.Head {
		return scm.MergeNone, status.ErrOutOfSync.WrapMessage("dir %s at %s, version at %s", dir, state.Head, destDesc.Head)
	}
	srcDesc, err := h.s.readVersion(h.module, source)
	if err != nil {
		return scm.MergeNone, err
	}

	diverging, err := h.listDiverging(srcDesc.Head, destDesc.Head)
	if err != nil {
		return scm.MergeNone, err
	}
	excluded := make(map[string]struct{}, len(exclude))
	for _, c := range exclude {
		excluded[c.ID] = struct{}{}
	}
	replay := make([]CommitDescriptor, 0, len(diverging))
	for _, c := range diverging {
		if _, ok := excluded[c.ID]; ok {
			continue
		}
		replay = append(replay, c)
	}
	if len(replay) == 0 {
		return scm.MergeNone, nil
	}

	base, err := h.mergeBase(destDesc.Head, srcDesc.Head)
	if err != nil {
		return scm.MergeNone, err
	}
	baseTree, err := h.s.tree(h.module, base)
	if err != nil {
		return scm.MergeNone, err
	}

	// effective source tree: the base with only the replayed deltas applied,
	// so that excluded mechanical commits never land in the destination
	effective := make(map[string]string, len(baseTree))
	for file, hash := range baseTree {
		effective[file] = hash
	}
	for _, c := range replay {
		parent := ""
		if len(c.Parents) > 0 {
			parent = c.Parents[0]
		}
		parentTree, err := h.s.tree(h.module, parent)
		if err != nil {
			return scm.MergeNone, err
		}
		for _, file := range changedPaths(parentTree, c.Entries) {
			if hash, ok := c.Entries[file]; ok {
				effective[file] = hash
			} else {
				delete(effective, file)
			}
		}
	}

	destTree, err := h.s.snapshot(dir)
	if err != nil {
		return scm.MergeNone, err
	}

	var conflicting []string
	incoming := changedPaths(baseTree, effective)
	for _, file := range incoming {
		destHash, inDest := destTree[file]
		baseHash, inBase := baseTree[file]
		destChanged := destHash != baseHash || inDest != inBase
		if destChanged && destTree[file] != effective[file] {
			conflicting = append(conflicting, file)
		}
	}
	if len(conflicting) > 0 {
		for _, file := range conflicting {
			if err = h.writeConflictMarkers(dir, file, effective[file], source); err != nil {
				return scm.MergeConflicts, err
			}
		}
		h.l.Info("merge left conflicts",
			zap.Stringer("source", source),
			zap.Stringer("destination", state.Version),
			zap.Strings("files", conflicting))
		return scm.MergeConflicts, nil
	}

	for _, file := range incoming {
		hash, ok := effective[file]
		if !ok {
			if _, inDest := destTree[file]; inDest {
				if err = h.s.workFs.Remove(path.Join(dir, file)); err != nil {
					return scm.MergeNone, err
				}
			}
			continue
		}
		if destTree[file] == hash {
			continue
		}
		content, err := h.s.readBlob(h.module, hash)
		if err != nil {
			return scm.MergeNone, err
		}
		if err = h.s.writeFile(h.s.workFs, path.Join(dir, file), content); err != nil {
			return scm.MergeNone, err
		}
	}

	// the merge commit records the source head as a parent even when
	// excluded commits were not replayed: they must not come back on the
	// next run
	if _, err = h.commitWorkdir(dir, "merge "+source.String(), nil, []string{srcDesc.Head}); err != nil {
		return scm.MergeNone, err
	}
	return scm.MergeMerged, nil
}

func (h *handler) writeConflictMarkers(dir, file, srcHash string, source model.Version) error {
	var destContent, srcContent []byte
	var err error
	if ok, _ := afero.Exists(h.s.workFs, path.Join(dir, file)); ok {
		if destContent, err = afero.ReadFile(h.s.workFs, path.Join(dir, file)); err != nil {
			return err
		}
	}
	if srcHash != "" {
		if srcContent, err = h.s.readBlob(h.module, srcHash); err != nil {
			return err
		}
	}
	var buffer bytes.Buffer
	buffer.WriteString("<<<<<<< destination\n")
	buffer.Write(destContent)
	if len(destContent) > 0 && destContent[len(destContent)-1] != '\n' {
		buffer.WriteByte('\n')
	}
	buffer.WriteString("=======\n")
	buffer.Write(srcContent)
	if len(srcContent) > 0 && srcContent[len(srcContent)-1] != '\n' {
		buffer.WriteByte('\n')
	}
	buffer.WriteString(">>>>>>> source (" + source.String() + ")\n")
	return h.s.writeFile(h.s.workFs, path.Join(dir, file), buffer.Bytes())
}
