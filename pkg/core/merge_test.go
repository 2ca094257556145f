// Copyright © 2020 Skyline Tools

package core_test

import (
	"context"
	"path"
	"testing"

	"github.com/skylinetools/graft/pkg/core"
	"github.com/skylinetools/graft/pkg/core/mocks"
	"github.com/skylinetools/graft/pkg/core/status"
	"github.com/skylinetools/graft/pkg/model"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMergeJob(e *mocks.Estate, opts ...core.MergeOption) *core.MergeJob {
	base := []core.MergeOption{
		core.Workspaces(e.Workspaces),
		core.Properties(e.Props),
		core.MergeLogger(mocks.TestLogger()),
	}
	return core.NewMergeJob(e.Registry, append(base, opts...)...)
}

func runMerge(t *testing.T, e *mocks.Estate, job *core.MergeJob, root model.ModuleVersion, walkOpts ...core.WalkOption) error {
	t.Helper()
	w := core.NewWalker(e.Registry, append(walkOpts, core.WithLogger(mocks.TestLogger()))...)
	return w.Walk(context.Background(), []model.ModuleVersion{root}, job)
}

func headFile(t *testing.T, e *mocks.Estate, module, version, file string) (string, bool) {
	t.Helper()
	dir, err := e.SCM.Handler(module).CheckoutSystem(context.Background(), model.MustParseVersion(version))
	require.NoError(t, err)
	exists, err := afero.Exists(e.WorkFs, path.Join(dir, file))
	require.NoError(t, err)
	if !exists {
		return "", false
	}
	content, err := afero.ReadFile(e.WorkFs, path.Join(dir, file))
	require.NoError(t, err)
	return string(content), true
}

func TestMergeSingleModule(t *testing.T) {
	e := mocks.NewEstate(t, "app")
	e.Commit("app", "branch/main", "app.txt", "base", "seed", nil)
	e.CreateVersion("app", "branch/main", "branch/feature")
	e.Commit("app", "branch/feature", "feat.txt", "feature work", "feature", nil)

	job := newMergeJob(e, core.SourceVersion(model.NewDynamic("feature")))
	require.NoError(t, runMerge(t, e, job, e.MV("app", "branch/main")))

	report := job.Report()
	assert.Equal(t, 1, report.Count(core.OutcomeMerged))
	assert.False(t, report.HasConflicts())
	assert.False(t, report.Finished.IsZero())

	content, ok := headFile(t, e, "app", "branch/main", "feat.txt")
	require.True(t, ok)
	assert.Equal(t, "feature work", content)

	// second run: the merge commit recorded the source head, nothing left
	job = newMergeJob(e, core.SourceVersion(model.NewDynamic("feature")))
	require.NoError(t, runMerge(t, e, job, e.MV("app", "branch/main")))
	report = job.Report()
	assert.Zero(t, report.Count(core.OutcomeMerged))
	assert.Equal(t, 1, report.Count(core.OutcomeNoChanges))
}

func TestMergeIdenticalVersions(t *testing.T) {
	e := mocks.NewEstate(t, "app")
	e.Commit("app", "branch/main", "app.txt", "base", "seed", nil)

	job := newMergeJob(e, core.SourceVersion(model.NewDynamic("main")))
	require.NoError(t, runMerge(t, e, job, e.MV("app", "branch/main")))
	assert.Empty(t, job.Report().Entries)
}

func TestMergeMechanicalCommitsExcluded(t *testing.T) {
	e := mocks.NewEstate(t, "app")
	e.Commit("app", "branch/main", "app.txt", "base", "seed", nil)
	e.CreateVersion("app", "branch/main", "branch/feature")
	e.Commit("app", "branch/feature", "pinned.txt", "tag/v9", "bump",
		map[string]string{model.AttrVersionChange: "tag/v9"})

	job := newMergeJob(e, core.SourceVersion(model.NewDynamic("feature")))
	require.NoError(t, runMerge(t, e, job, e.MV("app", "branch/main")))

	assert.Equal(t, 1, job.Report().Count(core.OutcomeNoChanges))
	_, ok := headFile(t, e, "app", "branch/main", "pinned.txt")
	assert.False(t, ok)
}

func TestMergeConflicts(t *testing.T) {
	e := mocks.NewEstate(t, "app")
	e.Commit("app", "branch/main", "app.txt", "base", "seed", nil)
	e.CreateVersion("app", "branch/main", "branch/feature")
	e.Commit("app", "branch/feature", "app.txt", "source edit", "feature", nil)
	e.Commit("app", "branch/main", "app.txt", "destination edit", "main", nil)

	abort := core.NewAbortFlag()
	job := newMergeJob(e, core.SourceVersion(model.NewDynamic("feature")))
	require.NoError(t, runMerge(t, e, job, e.MV("app", "branch/main"), core.WithAbort(abort)))

	report := job.Report()
	assert.Equal(t, 1, report.Count(core.OutcomeConflicts))
	assert.True(t, report.HasConflicts())
	assert.NotEmpty(t, report.AbortReason)
	assert.True(t, abort.IsSet())

	// markers left in the user workspace, destination head untouched
	dir := e.Workspaces.Dir(e.MV("app", "branch/main"))
	content, err := afero.ReadFile(e.WorkFs, path.Join(dir, "app.txt"))
	require.NoError(t, err)
	assert.Contains(t, string(content), "<<<<<<< destination")
	assert.Contains(t, string(content), ">>>>>>> source (branch/feature)")

	head, ok := headFile(t, e, "app", "branch/main", "app.txt")
	require.True(t, ok)
	assert.Equal(t, "destination edit", head)
}

func TestMergeReferenceChain(t *testing.T) {
	e := mocks.NewEstate(t, "app", "lib")

	e.Commit("lib", "branch/main", "lib.txt", "base", "seed", nil)
	e.CreateVersion("lib", "branch/main", "branch/int")
	e.CreateVersion("lib", "branch/main", "branch/dev")
	e.Commit("lib", "branch/dev", "feature.txt", "lib feature", "dev", nil)

	e.SetReferences("app", "branch/main", mocks.Entry("lib", "branch/int"))
	e.CreateVersion("app", "branch/main", "branch/feature")
	e.UpdateReference("app", "branch/feature", "lib", "branch/dev")
	e.Commit("app", "branch/feature", "app.txt", "app feature", "feature", nil)

	job := newMergeJob(e, core.SourceVersion(model.NewDynamic("feature")))
	require.NoError(t, runMerge(t, e, job, e.MV("app", "branch/main")))

	report := job.Report()
	assert.Equal(t, 2, report.Count(core.OutcomeMerged))
	assert.False(t, report.HasConflicts())

	// lib content flowed dev -> int through the reference graph
	content, ok := headFile(t, e, "lib", "branch/int", "feature.txt")
	require.True(t, ok)
	assert.Equal(t, "lib feature", content)

	// the mechanical reference bump on the source side was not replayed: the
	// destination still references its own integration branch
	manifest, ok := headFile(t, e, "app", "branch/main", "graftrefs.yaml")
	require.True(t, ok)
	assert.Contains(t, manifest, "branch/int")
	assert.NotContains(t, manifest, "branch/dev")
}

func TestMergeStaticReferenceAdoption(t *testing.T) {
	e := mocks.NewEstate(t, "app", "lib")

	e.Commit("lib", "branch/main", "lib.txt", "v1", "seed", nil)
	e.CreateVersion("lib", "branch/main", "tag/v1")
	e.Commit("lib", "branch/main", "lib.txt", "v2", "more", nil)
	e.CreateVersion("lib", "branch/main", "tag/v2")

	e.SetReferences("app", "branch/main", mocks.Entry("lib", "tag/v1"))
	e.CreateVersion("app", "branch/main", "branch/feature")
	e.UpdateReference("app", "branch/feature", "lib", "tag/v2")

	job := newMergeJob(e, core.SourceVersion(model.NewDynamic("feature")))
	require.NoError(t, runMerge(t, e, job, e.MV("app", "branch/main")))

	report := job.Report()
	assert.Equal(t, 1, report.Count(core.OutcomeReferenceUpdate))
	assert.False(t, report.HasConflicts())

	// tag/v2 is a superset of tag/v1: the destination adopts it
	manifest, ok := headFile(t, e, "app", "branch/main", "graftrefs.yaml")
	require.True(t, ok)
	assert.Contains(t, manifest, "tag/v2")
}

func TestMergeStaticReferenceConflict(t *testing.T) {
	e := mocks.NewEstate(t, "app", "lib")

	e.Commit("lib", "branch/main", "lib.txt", "base", "seed", nil)
	e.CreateVersion("lib", "branch/main", "branch/ba")
	e.Commit("lib", "branch/ba", "a.txt", "a", "a work", nil)
	e.CreateVersion("lib", "branch/ba", "tag/v1")
	e.CreateVersion("lib", "branch/main", "branch/bb")
	e.Commit("lib", "branch/bb", "b.txt", "b", "b work", nil)
	e.CreateVersion("lib", "branch/bb", "tag/v2")

	e.SetReferences("app", "branch/main", mocks.Entry("lib", "tag/v1"))
	e.CreateVersion("app", "branch/main", "branch/feature")
	e.UpdateReference("app", "branch/feature", "lib", "tag/v2")

	abort := core.NewAbortFlag()
	job := newMergeJob(e, core.SourceVersion(model.NewDynamic("feature")))
	require.NoError(t, runMerge(t, e, job, e.MV("app", "branch/main"), core.WithAbort(abort)))

	report := job.Report()
	assert.Equal(t, 1, report.Count(core.OutcomeReferenceConflict))
	assert.True(t, report.HasConflicts())
	assert.True(t, abort.IsSet())

	// neither tag contains the other: the reference stays as it was
	manifest, ok := headFile(t, e, "app", "branch/main", "graftrefs.yaml")
	require.True(t, ok)
	assert.Contains(t, manifest, "tag/v1")
}

func TestMergeAbortStillCommitsStagedReferenceUpdates(t *testing.T) {
	e := mocks.NewEstate(t, "app", "liba", "libb")

	// liba: tag/v2 strictly extends tag/v1, adoption material
	e.Commit("liba", "branch/main", "a.txt", "v1", "seed", nil)
	e.CreateVersion("liba", "branch/main", "tag/v1")
	e.Commit("liba", "branch/main", "a.txt", "v2", "more", nil)
	e.CreateVersion("liba", "branch/main", "tag/v2")

	// libb: two tags diverging both ways
	e.Commit("libb", "branch/main", "b.txt", "base", "seed", nil)
	e.CreateVersion("libb", "branch/main", "branch/ba")
	e.Commit("libb", "branch/ba", "ba.txt", "a", "a work", nil)
	e.CreateVersion("libb", "branch/ba", "tag/v1")
	e.CreateVersion("libb", "branch/main", "branch/bb")
	e.Commit("libb", "branch/bb", "bb.txt", "b", "b work", nil)
	e.CreateVersion("libb", "branch/bb", "tag/v2")

	e.SetReferences("app", "branch/main",
		mocks.Entry("liba", "tag/v1"),
		mocks.Entry("libb", "tag/v1"),
	)
	e.CreateVersion("app", "branch/main", "branch/feature")
	e.UpdateReference("app", "branch/feature", "liba", "tag/v2")
	e.UpdateReference("app", "branch/feature", "libb", "tag/v2")

	abort := core.NewAbortFlag()
	job := newMergeJob(e, core.SourceVersion(model.NewDynamic("feature")))
	require.NoError(t, runMerge(t, e, job, e.MV("app", "branch/main"), core.WithAbort(abort)))

	report := job.Report()
	assert.Equal(t, 1, report.Count(core.OutcomeReferenceUpdate))
	assert.Equal(t, 1, report.Count(core.OutcomeReferenceConflict))
	assert.True(t, abort.IsSet())
	assert.NotEmpty(t, report.AbortReason)

	// the adoption staged before the conflict raised the abort flag was still
	// committed at the destination head; the conflicting reference was not
	manifest, ok := headFile(t, e, "app", "branch/main", "graftrefs.yaml")
	require.True(t, ok)
	assert.Contains(t, manifest, "module: liba\n  version: tag/v2")
	assert.Contains(t, manifest, "module: libb\n  version: tag/v1")
}

func TestMergePromotion(t *testing.T) {
	e := mocks.NewEstate(t, "app", "lib")

	e.Commit("lib", "branch/main", "lib.txt", "v1", "seed", nil)
	e.CreateVersion("lib", "branch/main", "tag/v1")
	e.CreateVersion("lib", "branch/main", "branch/dev")
	e.Commit("lib", "branch/dev", "feature.txt", "lib feature", "dev", nil)

	e.SetReferences("app", "branch/main", mocks.Entry("lib", "tag/v1"))
	e.CreateVersion("app", "branch/main", "branch/feature")
	e.UpdateReference("app", "branch/feature", "lib", "branch/dev")

	interactor := &mocks.ScriptedInteractor{
		Answers: map[string]bool{"merge.create-promoted-version": true},
	}
	job := newMergeJob(e,
		core.SourceVersion(model.NewDynamic("feature")),
		core.Interactor(interactor),
	)
	require.NoError(t, runMerge(t, e, job, e.MV("app", "branch/main")))

	report := job.Report()
	assert.Equal(t, 1, report.Count(core.OutcomePromotion))
	assert.Equal(t, 1, report.Count(core.OutcomeMerged))
	assert.False(t, report.HasConflicts())
	assert.Empty(t, report.Warnings)

	// the static reference moved to the proposed maintenance branch
	manifest, ok := headFile(t, e, "app", "branch/main", "graftrefs.yaml")
	require.True(t, ok)
	assert.Contains(t, manifest, "branch/v1.0")

	// and the source content flowed into the promoted version
	content, ok := headFile(t, e, "lib", "branch/v1.0", "feature.txt")
	require.True(t, ok)
	assert.Equal(t, "lib feature", content)
}

func TestMergePromotionDeclined(t *testing.T) {
	e := mocks.NewEstate(t, "app", "lib")

	e.Commit("lib", "branch/main", "lib.txt", "v1", "seed", nil)
	e.CreateVersion("lib", "branch/main", "tag/v1")
	e.CreateVersion("lib", "branch/main", "branch/dev")
	e.Commit("lib", "branch/dev", "feature.txt", "lib feature", "dev", nil)

	e.SetReferences("app", "branch/main", mocks.Entry("lib", "tag/v1"))
	e.CreateVersion("app", "branch/main", "branch/feature")
	e.UpdateReference("app", "branch/feature", "lib", "branch/dev")

	abort := core.NewAbortFlag()
	job := newMergeJob(e,
		core.SourceVersion(model.NewDynamic("feature")),
		core.Interactor(&mocks.ScriptedInteractor{}),
	)
	require.NoError(t, runMerge(t, e, job, e.MV("app", "branch/main"), core.WithAbort(abort)))

	report := job.Report()
	assert.Equal(t, 1, report.Count(core.OutcomeAbandoned))
	assert.Zero(t, report.Count(core.OutcomePromotion))
	assert.True(t, abort.IsSet())

	manifest, ok := headFile(t, e, "app", "branch/main", "graftrefs.yaml")
	require.True(t, ok)
	assert.Contains(t, manifest, "tag/v1")
}

func TestMergeDedupAcrossWalks(t *testing.T) {
	e := mocks.NewEstate(t, "app")
	e.Commit("app", "branch/main", "app.txt", "base", "seed", nil)
	e.CreateVersion("app", "branch/main", "branch/feature")
	e.Commit("app", "branch/feature", "feat.txt", "feature work", "feature", nil)

	job := newMergeJob(e, core.SourceVersion(model.NewDynamic("feature")))
	require.NoError(t, runMerge(t, e, job, e.MV("app", "branch/main")))
	require.NoError(t, runMerge(t, e, job, e.MV("app", "branch/main")))

	report := job.Report()
	assert.Equal(t, 1, report.Count(core.OutcomeMerged))
	assert.Equal(t, 1, report.Count(core.OutcomeSkipped))
}

func TestMergeSourceBindingCached(t *testing.T) {
	e := mocks.NewEstate(t, "app")
	e.Commit("app", "branch/main", "app.txt", "base", "seed", nil)
	e.CreateVersion("app", "branch/main", "branch/feature")
	e.Commit("app", "branch/feature", "feat.txt", "feature work", "feature", nil)

	// first run: prompted choice, cached in the property store
	job := newMergeJob(e, core.Interactor(&mocks.ScriptedInteractor{
		Versions: []model.Version{model.NewDynamic("feature")},
	}))
	require.NoError(t, runMerge(t, e, job, e.MV("app", "branch/main")))
	assert.Equal(t, 1, job.Report().Count(core.OutcomeMerged))

	cached, ok := e.Props.Get("app", "merge.source-version")
	require.True(t, ok)
	assert.Equal(t, "branch/feature", cached)

	// second run: reuse answered yes, no version prompt consumed
	job = newMergeJob(e, core.Interactor(&mocks.ScriptedInteractor{
		Answers: map[string]bool{"merge.reuse-source-version": true},
	}))
	require.NoError(t, runMerge(t, e, job, e.MV("app", "branch/main")))
	assert.Equal(t, 1, job.Report().Count(core.OutcomeNoChanges))
}

func TestMergeUnsynchronizedDestination(t *testing.T) {
	e := mocks.NewEstate(t, "app")
	e.Commit("app", "branch/main", "app.txt", "base", "seed", nil)
	e.CreateVersion("app", "branch/main", "branch/feature")
	e.Commit("app", "branch/feature", "feat.txt", "feature work", "feature", nil)

	job := newMergeJob(e, core.SourceVersion(model.NewDynamic("feature")))
	require.NoError(t, runMerge(t, e, job, e.MV("app", "branch/main")))

	// an uncommitted local edit in the destination workspace
	dir := e.Workspaces.Dir(e.MV("app", "branch/main"))
	require.NoError(t, afero.WriteFile(e.WorkFs, path.Join(dir, "dirty.txt"), []byte("dirty"), 0644))

	job = newMergeJob(e, core.SourceVersion(model.NewDynamic("feature")))
	err := runMerge(t, e, job, e.MV("app", "branch/main"))
	require.ErrorIs(t, err, status.ErrUnsynchronized)
}

func TestMergeAbandonedWithoutCounterpart(t *testing.T) {
	e := mocks.NewEstate(t, "app", "lib", "extra")
	e.Commit("lib", "branch/main", "lib.txt", "base", "seed", nil)

	e.SetReferences("app", "branch/main", mocks.Entry("lib", "branch/main"))
	e.CreateVersion("app", "branch/main", "branch/feature")
	// the destination grows a reference the source graph never had
	e.SetReferences("app", "branch/main",
		mocks.Entry("lib", "branch/main"),
		mocks.Entry("extra", "branch/main"),
	)
	e.Commit("app", "branch/feature", "app.txt", "feature work", "feature", nil)

	job := newMergeJob(e, core.SourceVersion(model.NewDynamic("feature")))
	require.NoError(t, runMerge(t, e, job, e.MV("app", "branch/main")))

	report := job.Report()
	assert.Equal(t, 1, report.Count(core.OutcomeAbandoned))
	assert.False(t, report.HasConflicts())
}
