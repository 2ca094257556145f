// Copyright © 2020 Skyline Tools

package localscm

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path"
	"time"

	"github.com/skylinetools/graft/pkg/model"
	"github.com/skylinetools/graft/pkg/scm/status"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v2"
)

// VersionDescriptor records one version line of a module.
type VersionDescriptor struct {
	Version    model.Version     `yaml:"version"`
	Head       string            `yaml:"head,omitempty"`
	Base       string            `yaml:"base,omitempty"`
	Attributes map[string]string `yaml:"attributes,omitempty"`
	_          struct{}
}

// CommitDescriptor records one commit. Entries are a full snapshot of the
// module tree, path to blob hash.
type CommitDescriptor struct {
	ID         string            `yaml:"id"`
	Parents    []string          `yaml:"parents,omitempty"`
	Message    string            `yaml:"message,omitempty"`
	Attributes map[string]string `yaml:"attributes,omitempty"`
	Timestamp  time.Time         `yaml:"timestamp"`
	Entries    map[string]string `yaml:"entries,omitempty"`
	_          struct{}
}

// Commit converts the stored descriptor to the model commit.
func (c CommitDescriptor) Commit() model.Commit {
	return model.Commit{ID: c.ID, Message: c.Message, Attributes: c.Attributes}
}

func getPathToVersion(module string, v model.Version) string {
	return path.Join(module, "versions", v.Kind.String(), v.Name, "version.yaml")
}

func getPathToCommit(module, commitID string) string {
	return path.Join(module, "commits", commitID+".yaml")
}

func getPathToBlob(module, hash string) string {
	return path.Join(module, "blobs", hash)
}

func blobHash(content []byte) string {
	sum := sha256.Sum256(content)
	return hex.EncodeToString(sum[:])[:16]
}

func (s *SCM) readVersion(module string, v model.Version) (VersionDescriptor, error) {
	var desc VersionDescriptor
	buffer, err := afero.ReadFile(s.metaFs, getPathToVersion(module, v))
	if err != nil {
		if os.IsNotExist(err) {
			return desc, status.ErrVersionNotFound.WrapMessage("%s@%s", module, v)
		}
		return desc, err
	}
	if err = yaml.Unmarshal(buffer, &desc); err != nil {
		return desc, err
	}
	return desc, nil
}

func (s *SCM) writeVersion(module string, desc VersionDescriptor) error {
	buffer, err := yaml.Marshal(desc)
	if err != nil {
		return err
	}
	return s.writeFile(s.metaFs, getPathToVersion(module, desc.Version), buffer)
}

func (s *SCM) readCommit(module, commitID string) (CommitDescriptor, error) {
	var desc CommitDescriptor
	buffer, err := afero.ReadFile(s.metaFs, getPathToCommit(module, commitID))
	if err != nil {
		return desc, err
	}
	if err = yaml.Unmarshal(buffer, &desc); err != nil {
		return desc, err
	}
	return desc, nil
}

func (s *SCM) writeCommit(module string, desc CommitDescriptor) error {
	buffer, err := yaml.Marshal(desc)
	if err != nil {
		return err
	}
	return s.writeFile(s.metaFs, getPathToCommit(module, desc.ID), buffer)
}

func (s *SCM) writeBlob(module string, content []byte) (string, error) {
	hash := blobHash(content)
	target := getPathToBlob(module, hash)
	if ok, _ := afero.Exists(s.metaFs, target); ok {
		return hash, nil
	}
	return hash, s.writeFile(s.metaFs, target, content)
}

func (s *SCM) readBlob(module, hash string) ([]byte, error) {
	return afero.ReadFile(s.metaFs, getPathToBlob(module, hash))
}

func (s *SCM) writeFile(fs afero.Fs, target string, content []byte) error {
	if err := fs.MkdirAll(path.Dir(target), 0755); err != nil {
		return err
	}
	return afero.WriteFile(fs, target, content, 0644)
}

// tree yields the entries of a commit, with the empty commit ID denoting the
// empty tree.
func (s *SCM) tree(module, commitID string) (map[string]string, error) {
	if commitID == "" {
		return map[string]string{}, nil
	}
	desc, err := s.readCommit(module, commitID)
	if err != nil {
		return nil, err
	}
	if desc.Entries == nil {
		return map[string]string{}, nil
	}
	return desc.Entries, nil
}
