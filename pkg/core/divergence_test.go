// Copyright © 2020 Skyline Tools

package core_test

import (
	"context"
	"testing"

	"github.com/skylinetools/graft/pkg/core"
	"github.com/skylinetools/graft/pkg/core/mocks"
	"github.com/skylinetools/graft/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifyCommitDivergence(t *testing.T) {
	e := mocks.NewEstate(t, "lib")
	e.Commit("lib", "branch/main", "lib.txt", "v1", "seed", nil)
	e.CreateVersion("lib", "branch/main", "branch/dev")

	v := core.NewVerifier(e.Registry, mocks.TestLogger())

	// identical histories
	a, b, err := v.Verify(context.Background(), "lib", model.NewDynamic("main"), model.NewDynamic("dev"))
	require.NoError(t, err)
	assert.False(t, a)
	assert.False(t, b)

	// one-sided
	e.Commit("lib", "branch/dev", "lib.txt", "v2", "dev work", nil)
	a, b, err = v.Verify(context.Background(), "lib", model.NewDynamic("dev"), model.NewDynamic("main"))
	require.NoError(t, err)
	assert.True(t, a)
	assert.False(t, b)

	// both sides
	e.Commit("lib", "branch/main", "other.txt", "x", "main work", nil)
	a, b, err = v.Verify(context.Background(), "lib", model.NewDynamic("dev"), model.NewDynamic("main"))
	require.NoError(t, err)
	assert.True(t, a)
	assert.True(t, b)
}

func TestVerifyIgnoresMechanicalCommits(t *testing.T) {
	e := mocks.NewEstate(t, "lib")
	e.Commit("lib", "branch/main", "lib.txt", "v1", "seed", nil)
	e.CreateVersion("lib", "branch/main", "branch/dev")
	e.Commit("lib", "branch/dev", "pinned.txt", "tag/v2", "bump",
		map[string]string{model.AttrVersionChange: "tag/v2"})

	v := core.NewVerifier(e.Registry, mocks.TestLogger())
	a, b, err := v.Verify(context.Background(), "lib", model.NewDynamic("dev"), model.NewDynamic("main"))
	require.NoError(t, err)
	assert.False(t, a)
	assert.False(t, b)
}

func TestVerifyStructural(t *testing.T) {
	e := mocks.NewEstate(t, "parent", "lib")

	e.Commit("lib", "branch/main", "lib.txt", "v1", "seed", nil)
	e.CreateVersion("lib", "branch/main", "branch/a")
	e.CreateVersion("lib", "branch/main", "branch/b")
	e.Commit("lib", "branch/b", "lib.txt", "v2", "b work", nil)

	e.SetReferences("parent", "branch/main", mocks.Entry("lib", "branch/a"))
	e.CreateVersion("parent", "branch/main", "branch/pa")
	e.CreateVersion("parent", "branch/main", "branch/pb")
	e.UpdateReference("parent", "branch/pb", "lib", "branch/b")

	// pa and pb hold identical real commits, but pb references the divergent
	// lib branch: the divergence is structural
	v := core.NewVerifier(e.Registry, mocks.TestLogger())
	a, b, err := v.Verify(context.Background(), "parent", model.NewDynamic("pa"), model.NewDynamic("pb"))
	require.NoError(t, err)
	assert.False(t, a)
	assert.True(t, b)
}

func TestVerifyErrorReportsNoDivergence(t *testing.T) {
	e := mocks.NewEstate(t, "lib")
	e.Commit("lib", "branch/main", "lib.txt", "v1", "seed", nil)

	v := core.NewVerifier(e.Registry, mocks.TestLogger())

	a, b, err := v.Verify(context.Background(), "ghost", model.NewDynamic("main"), model.NewDynamic("dev"))
	require.Error(t, err)
	assert.False(t, a)
	assert.False(t, b)

	a, b, err = v.Verify(context.Background(), "lib", model.NewDynamic("main"), model.NewDynamic("ghost"))
	require.Error(t, err)
	assert.False(t, a)
	assert.False(t, b)
}

func TestVerifyCyclicGraphTerminates(t *testing.T) {
	e := mocks.NewEstate(t, "x", "y")

	e.SetReferences("x", "branch/main", mocks.Entry("y", "branch/a"))
	e.SetReferences("y", "branch/main", mocks.Entry("x", "branch/a"))
	for _, module := range []string{"x", "y"} {
		e.CreateVersion(module, "branch/main", "branch/a")
		e.CreateVersion(module, "branch/main", "branch/b")
	}
	e.UpdateReference("x", "branch/b", "y", "branch/b")
	e.UpdateReference("y", "branch/b", "x", "branch/b")

	// x@a <-> y@a and x@b <-> y@b reference each other: verification must
	// terminate without reporting divergence
	v := core.NewVerifier(e.Registry, mocks.TestLogger())
	a, b, err := v.Verify(context.Background(), "x", model.NewDynamic("a"), model.NewDynamic("b"))
	require.NoError(t, err)
	assert.False(t, a)
	assert.False(t, b)
}
