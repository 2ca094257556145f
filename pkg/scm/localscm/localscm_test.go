package localscm

import (
	"context"
	"testing"

	"github.com/skylinetools/graft/internal/rand"
	"github.com/skylinetools/graft/pkg/model"
	"github.com/skylinetools/graft/pkg/scm"
	"github.com/skylinetools/graft/pkg/scm/status"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testModule = "platform/app-alpha"

var (
	mainLine    = model.NewDynamic("main")
	releaseLine = model.NewDynamic("release")
)

func testSCM(t *testing.T) (*SCM, scm.Handler) {
	t.Helper()
	s := New(
		MetaFs(afero.NewMemMapFs()),
		WorkFs(afero.NewMemMapFs()),
		SystemRoot("system"),
	)
	return s, s.Handler(testModule)
}

func mustCommit(t *testing.T, h scm.Handler, s *SCM, dir, file, content, message string, attrs map[string]string) model.Commit {
	t.Helper()
	require.NoError(t, afero.WriteFile(s.WorkFs(), dir+"/"+file, []byte(content), 0644))
	c, err := h.CommitWorkdir(context.Background(), dir, message, attrs)
	require.NoError(t, err)
	return c
}

func TestVersionLifecycle(t *testing.T) {
	ctx := context.Background()
	s, h := testSCM(t)

	ok, err := h.VersionExists(ctx, mainLine)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, h.CreateVersion(ctx, model.Version{}, mainLine))
	ok, err = h.VersionExists(ctx, mainLine)
	require.NoError(t, err)
	require.True(t, ok)

	err = h.CreateVersion(ctx, model.Version{}, mainLine)
	assert.ErrorIs(t, err, status.ErrVersionExists)

	require.NoError(t, h.Checkout(ctx, mainLine, "wd/main"))
	mustCommit(t, h, s, "wd/main", "readme.txt", "hello", "initial", nil)

	// a tag created from main freezes its current head
	tag := model.NewStatic("v1.0.0")
	require.NoError(t, h.CreateVersion(ctx, mainLine, tag))
	require.NoError(t, h.Checkout(ctx, tag, "wd/tag"))
	content, err := afero.ReadFile(s.WorkFs(), "wd/tag/readme.txt")
	require.NoError(t, err)
	assert.Equal(t, "hello", string(content))

	_, err = h.CommitWorkdir(ctx, "wd/tag", "nope", nil)
	assert.ErrorIs(t, err, status.ErrStaticImmutable)
}

func TestSynchronizedAndUpdate(t *testing.T) {
	ctx := context.Background()
	s, h := testSCM(t)

	require.NoError(t, h.CreateVersion(ctx, model.Version{}, mainLine))
	require.NoError(t, h.Checkout(ctx, mainLine, "wd/a"))
	mustCommit(t, h, s, "wd/a", "a.txt", "one", "c1", nil)

	// a second checkout that will lag behind
	require.NoError(t, h.Checkout(ctx, mainLine, "wd/b"))

	ok, err := h.IsSynchronized(ctx, "wd/b", scm.SyncAll)
	require.NoError(t, err)
	assert.True(t, ok)

	mustCommit(t, h, s, "wd/a", "a.txt", "two", "c2", nil)

	ok, err = h.IsSynchronized(ctx, "wd/b", scm.SyncRemote)
	require.NoError(t, err)
	assert.False(t, ok)
	ok, err = h.IsSynchronized(ctx, "wd/b", scm.SyncLocal)
	require.NoError(t, err)
	assert.True(t, ok)

	conflicts, err := h.Update(ctx, "wd/b")
	require.NoError(t, err)
	assert.False(t, conflicts)
	content, err := afero.ReadFile(s.WorkFs(), "wd/b/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "two", string(content))

	// overlapping local and incoming edits refuse to update
	mustCommit(t, h, s, "wd/a", "a.txt", "three", "c3", nil)
	require.NoError(t, afero.WriteFile(s.WorkFs(), "wd/b/a.txt", []byte("local"), 0644))
	conflicts, err = h.Update(ctx, "wd/b")
	require.NoError(t, err)
	assert.True(t, conflicts)
}

func TestListDivergingCommits(t *testing.T) {
	ctx := context.Background()
	s, h := testSCM(t)

	require.NoError(t, h.CreateVersion(ctx, model.Version{}, mainLine))
	require.NoError(t, h.Checkout(ctx, mainLine, "wd/main"))
	mustCommit(t, h, s, "wd/main", "a.txt", "base", "base", nil)

	require.NoError(t, h.CreateVersion(ctx, mainLine, releaseLine))
	c2 := mustCommit(t, h, s, "wd/main", "a.txt", "main work", "real work", nil)
	c3 := mustCommit(t, h, s, "wd/main", "version.txt", "1.1", "bump",
		map[string]string{model.AttrVersionChange: "true"})

	diverging, err := h.ListDivergingCommits(ctx, mainLine, releaseLine)
	require.NoError(t, err)
	require.Len(t, diverging, 2)
	// oldest first
	assert.Equal(t, c2.ID, diverging[0].ID)
	assert.Equal(t, c3.ID, diverging[1].ID)

	filtered := model.FilterMechanicalCommits(diverging)
	require.Len(t, filtered, 1)
	assert.Equal(t, c2.ID, filtered[0].ID)

	// nothing flows the other way
	diverging, err = h.ListDivergingCommits(ctx, releaseLine, mainLine)
	require.NoError(t, err)
	assert.Empty(t, diverging)
}

func TestMergeClean(t *testing.T) {
	ctx := context.Background()
	s, h := testSCM(t)

	require.NoError(t, h.CreateVersion(ctx, model.Version{}, mainLine))
	require.NoError(t, h.Checkout(ctx, mainLine, "wd/main"))
	mustCommit(t, h, s, "wd/main", "a.txt", "base", "base", nil)

	require.NoError(t, h.CreateVersion(ctx, mainLine, releaseLine))
	mustCommit(t, h, s, "wd/main", "b.txt", "feature", "feature", nil)

	require.NoError(t, h.Checkout(ctx, releaseLine, "wd/release"))
	outcome, err := h.Merge(ctx, "wd/release", mainLine, nil)
	require.NoError(t, err)
	assert.Equal(t, scm.MergeMerged, outcome)

	content, err := afero.ReadFile(s.WorkFs(), "wd/release/b.txt")
	require.NoError(t, err)
	assert.Equal(t, "feature", string(content))

	// idempotence: the merge recorded the source head as a parent
	outcome, err = h.Merge(ctx, "wd/release", mainLine, nil)
	require.NoError(t, err)
	assert.Equal(t, scm.MergeNone, outcome)
}

func TestMergeExcludesMechanicalCommits(t *testing.T) {
	ctx := context.Background()
	s, h := testSCM(t)

	require.NoError(t, h.CreateVersion(ctx, model.Version{}, mainLine))
	require.NoError(t, h.Checkout(ctx, mainLine, "wd/main"))
	mustCommit(t, h, s, "wd/main", "a.txt", "base", "base", nil)

	require.NoError(t, h.CreateVersion(ctx, mainLine, releaseLine))
	mustCommit(t, h, s, "wd/main", "b.txt", "feature", "feature", nil)
	bump := mustCommit(t, h, s, "wd/main", "version.txt", "1.1", "bump",
		map[string]string{model.AttrVersionChange: "true"})

	require.NoError(t, h.Checkout(ctx, releaseLine, "wd/release"))
	outcome, err := h.Merge(ctx, "wd/release", mainLine, []model.Commit{bump})
	require.NoError(t, err)
	assert.Equal(t, scm.MergeMerged, outcome)

	// the excluded bump never landed
	ok, err := afero.Exists(s.WorkFs(), "wd/release/version.txt")
	require.NoError(t, err)
	assert.False(t, ok)

	// and it does not come back on the next run either
	outcome, err = h.Merge(ctx, "wd/release", mainLine, nil)
	require.NoError(t, err)
	assert.Equal(t, scm.MergeNone, outcome)
}

func TestMergeConflicts(t *testing.T) {
	ctx := context.Background()
	s, h := testSCM(t)

	require.NoError(t, h.CreateVersion(ctx, model.Version{}, mainLine))
	require.NoError(t, h.Checkout(ctx, mainLine, "wd/main"))
	mustCommit(t, h, s, "wd/main", "a.txt", "base", "base", nil)

	require.NoError(t, h.CreateVersion(ctx, mainLine, releaseLine))
	mustCommit(t, h, s, "wd/main", "a.txt", "from source", "source edit", nil)

	require.NoError(t, h.Checkout(ctx, releaseLine, "wd/release"))
	mustCommit(t, h, s, "wd/release", "a.txt", "from destination", "dest edit", nil)

	outcome, err := h.Merge(ctx, "wd/release", mainLine, nil)
	require.NoError(t, err)
	assert.Equal(t, scm.MergeConflicts, outcome)

	content, err := afero.ReadFile(s.WorkFs(), "wd/release/a.txt")
	require.NoError(t, err)
	assert.Contains(t, string(content), "<<<<<<< destination")
	assert.Contains(t, string(content), "from destination")
	assert.Contains(t, string(content), "from source")
	assert.Contains(t, string(content), ">>>>>>> source (branch/main)")
}

func TestCheckoutSystem(t *testing.T) {
	ctx := context.Background()
	s, h := testSCM(t)

	require.NoError(t, h.CreateVersion(ctx, model.Version{}, mainLine))
	require.NoError(t, h.Checkout(ctx, mainLine, "wd/main"))
	mustCommit(t, h, s, "wd/main", "a.txt", "one", "c1", nil)

	dir1, err := h.CheckoutSystem(ctx, mainLine)
	require.NoError(t, err)
	dir2, err := h.CheckoutSystem(ctx, mainLine)
	require.NoError(t, err)
	assert.Equal(t, dir1, dir2)

	// a moved head invalidates the cached checkout
	mustCommit(t, h, s, "wd/main", "a.txt", "two", "c2", nil)
	dir3, err := h.CheckoutSystem(ctx, mainLine)
	require.NoError(t, err)
	content, err := afero.ReadFile(s.WorkFs(), dir3+"/a.txt")
	require.NoError(t, err)
	assert.Equal(t, "two", string(content))
}

func TestLargePayloadRoundTrip(t *testing.T) {
	ctx := context.Background()
	s, h := testSCM(t)

	require.NoError(t, h.CreateVersion(ctx, model.Version{}, mainLine))
	require.NoError(t, h.Checkout(ctx, mainLine, "wd/main"))

	payload := rand.LetterString(64 * 1024)
	mustCommit(t, h, s, "wd/main", "blob.dat", payload, "big payload", nil)

	tag := model.NewStatic("v1.0.0")
	require.NoError(t, h.CreateVersion(ctx, mainLine, tag))
	require.NoError(t, h.Checkout(ctx, tag, "wd/tag"))
	content, err := afero.ReadFile(s.WorkFs(), "wd/tag/blob.dat")
	require.NoError(t, err)
	assert.Equal(t, payload, string(content))
}

func TestVersionAttributes(t *testing.T) {
	ctx := context.Background()
	s, h := testSCM(t)

	require.NoError(t, h.CreateVersion(ctx, model.Version{}, mainLine))
	attrs, err := h.VersionAttributes(ctx, mainLine)
	require.NoError(t, err)
	assert.Empty(t, attrs)

	require.NoError(t, s.SetVersionAttributes(testModule, mainLine, map[string]string{"project-code": "atlas"}))
	attrs, err = h.VersionAttributes(ctx, mainLine)
	require.NoError(t, err)
	assert.Equal(t, "atlas", attrs["project-code"])

	_, err = h.VersionAttributes(ctx, model.NewStatic("ghost"))
	assert.ErrorIs(t, err, status.ErrVersionNotFound)
}
