package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testRef(module, version string) Reference {
	return NewReference(ModuleVersion{Module: module, Version: MustParseVersion(version)})
}

func TestReferencePathStackDiscipline(t *testing.T) {
	path := NewReferencePath()
	require.Equal(t, 0, path.Len())

	path.Push(testRef("a", "branch/main"))
	path.Push(testRef("a/b", "tag/v1.2.0"))
	require.Equal(t, 2, path.Len())

	leaf, ok := path.Leaf()
	require.True(t, ok)
	assert.Equal(t, "a/b", leaf.Module)

	assert.Equal(t, "a@branch/main > a/b@tag/v1.2.0", path.String())

	// a clone survives the original unwinding
	snapshot := path.Clone()
	path.Pop()
	path.Pop()
	assert.Equal(t, 0, path.Len())
	assert.Equal(t, 2, snapshot.Len())

	_, ok = path.Leaf()
	assert.False(t, ok)

	assert.Panics(t, func() { path.Pop() })
}

func TestUnresolvedReference(t *testing.T) {
	ref := NewUnresolvedReference("com.acme:widget:1.4")
	assert.False(t, ref.IsResolved())
	assert.Equal(t, "?com.acme:widget:1.4", ref.String())

	resolved := testRef("acme/widget", "tag/1.4")
	assert.True(t, resolved.IsResolved())
}

func TestFilterMechanicalCommits(t *testing.T) {
	commits := []Commit{
		{ID: "c1", Message: "real work"},
		{ID: "c2", Message: "bump", Attributes: map[string]string{AttrVersionChange: "true"}},
		{ID: "c3", Message: "more work", Attributes: map[string]string{"author": "jo"}},
		{ID: "c4", Message: "ref bump", Attributes: map[string]string{AttrReferenceVersionChange: "a/b"}},
	}

	filtered := FilterMechanicalCommits(commits)
	require.Len(t, filtered, 2)
	assert.Equal(t, "c1", filtered[0].ID)
	assert.Equal(t, "c3", filtered[1].ID)

	assert.Empty(t, FilterMechanicalCommits(nil))
}
