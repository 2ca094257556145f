package workspace

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/skylinetools/graft/pkg/model"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func testManager(t *testing.T, opts ...Option) *Manager {
	t.Helper()
	return New(append([]Option{
		Fs(afero.NewMemMapFs()),
		Root("workspaces"),
	}, opts...)...)
}

func testMV(module, version string) model.ModuleVersion {
	return model.NewModuleVersion(module, model.MustParseVersion(version))
}

func TestReserveUserExclusive(t *testing.T) {
	m := testManager(t)
	mv := testMV("platform/app", "branch/main")

	require.False(t, m.Exists(mv))

	dir, release, err := m.Reserve(mv, ModeUser)
	require.NoError(t, err)
	require.NotEmpty(t, dir)
	assert.True(t, m.Exists(mv))

	// a second manager over the same filesystem stands for another process
	other := New(Fs(m.fs), Root("workspaces"))
	_, _, err = other.Reserve(mv, ModeUser)
	assert.ErrorIs(t, err, ErrLocked)
	_, _, err = other.Reserve(mv, ModeSystem)
	assert.ErrorIs(t, err, ErrLocked)

	release()
	release() // releasing twice is harmless

	dir2, release2, err := other.Reserve(mv, ModeUser)
	require.NoError(t, err)
	assert.Equal(t, dir, dir2)
	release2()
}

func TestReserveSystemShared(t *testing.T) {
	m := testManager(t)
	mv := testMV("platform/app", "tag/v1.0.0")

	_, release1, err := m.Reserve(mv, ModeSystem)
	require.NoError(t, err)
	_, release2, err := m.Reserve(mv, ModeSystem)
	require.NoError(t, err)

	// a writer waits for all readers to finish
	acquired := make(chan struct{})
	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		_, release, err := m.Reserve(mv, ModeUser)
		assert.NoError(t, err)
		close(acquired)
		release()
	}()

	select {
	case <-acquired:
		t.Fatal("writer acquired the directory while readers were active")
	case <-time.After(50 * time.Millisecond):
	}

	release1()
	release2()
	wg.Wait()
	<-acquired
}

func TestStaleLockStolen(t *testing.T) {
	m := testManager(t, StaleAfter(time.Nanosecond))
	mv := testMV("platform/app", "branch/dev")

	_, _, err := m.Reserve(mv, ModeUser)
	require.NoError(t, err)
	// the first reservation is never released: its lock file goes stale

	time.Sleep(2 * time.Millisecond)
	other := New(Fs(m.fs), Root("workspaces"), StaleAfter(time.Nanosecond))
	_, release, err := other.Reserve(mv, ModeUser)
	require.NoError(t, err)
	release()
}

func TestListAndCleanAll(t *testing.T) {
	m := testManager(t)

	for _, mv := range []model.ModuleVersion{
		testMV("platform/app", "branch/main"),
		testMV("platform/libs/core", "tag/v1.0.0"),
	} {
		dir, release, err := m.Reserve(mv, ModeUser)
		require.NoError(t, err)
		require.NoError(t, afero.WriteFile(m.fs, dir+"/file.txt", []byte("0123456789"), 0644))
		release()
	}

	list, err := m.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "platform_app/branch/main", list[0].Path)
	assert.EqualValues(t, 10, list[0].Size)

	require.NoError(t, m.CleanAll(context.Background()))
	list, err = m.List()
	require.NoError(t, err)
	assert.Empty(t, list)
}
