// Copyright © 2020 Skyline Tools

package model

const (
	// AttrVersionChange tags commits that only bump a module's own version
	// metadata. Such commits are mechanical bookkeeping, not real divergence.
	AttrVersionChange = "version-change"

	// AttrReferenceVersionChange tags commits that only rewrite the version
	// of a declared reference. Mechanical as well.
	AttrReferenceVersionChange = "reference-version-change"
)

// Commit is one unit of change as reported by a source-control backend.
//
// Attributes are an opaque string-keyed map; the only contractually
// significant keys are AttrVersionChange and AttrReferenceVersionChange.
type Commit struct {
	ID         string            `yaml:"id"`
	Message    string            `yaml:"message,omitempty"`
	Attributes map[string]string `yaml:"attributes,omitempty"`
}

// HasAttribute tells whether the commit carries the named attribute,
// whatever its value.
func (c Commit) HasAttribute(name string) bool {
	_, ok := c.Attributes[name]
	return ok
}

// IsMechanical tells whether the commit is a mechanical version bump, i.e.
// carries either of the two version-change attributes.
func (c Commit) IsMechanical() bool {
	return c.HasAttribute(AttrVersionChange) || c.HasAttribute(AttrReferenceVersionChange)
}

// FilterMechanicalCommits removes mechanical version bumps from a commit
// list. Mechanical commits must be excluded from divergence computation and
// from merge replay.
func FilterMechanicalCommits(commits []Commit) []Commit {
	filtered := make([]Commit, 0, len(commits))
	for _, c := range commits {
		if c.IsMechanical() {
			continue
		}
		filtered = append(filtered, c)
	}
	return filtered
}
