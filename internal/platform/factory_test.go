package platform_test

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/quill/internal/platform"
	"github.com/aretw0/quill/pkg/core"
	"github.com/aretw0/quill/pkg/sections"
)

func TestNew_AutoInit(t *testing.T) {
	root := filepath.Join(t.TempDir(), "store")

	svc, err := platform.New(root, platform.WithAutoInit(true))
	require.NoError(t, err)

	assert.DirExists(t, filepath.Join(root, platform.DefaultSystemDir))
	assert.FileExists(t, platform.MarkerPath(root))

	cfg, err := platform.LoadConfig(platform.MarkerPath(root))
	require.NoError(t, err)
	assert.True(t, cfg.Locks)
	assert.Empty(t, cfg.Root)

	state := svc.State().(core.ServiceState)
	assert.True(t, state.SharedLocks)
	assert.Equal(t, []string{"files", "metadata", "thumbnails", "blog"}, state.Sections)
}

func TestNew_MustExist(t *testing.T) {
	// Test binaries count as dev runs, which relax the existence check.
	_, err := platform.New(filepath.Join(t.TempDir(), "missing"), platform.WithDevSafety(false))
	assert.Error(t, err, "without auto init the root must exist")

	_, err = platform.New(filepath.Join(t.TempDir(), "missing"), platform.WithAutoInit(true), platform.WithMustExist(true))
	assert.Error(t, err)
}

func TestNew_ReadOnly(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "acme"), 0755))

	svc, err := platform.New(root, platform.WithReadOnly(true))
	require.NoError(t, err)

	_, err = svc.GetRecord(ctx, "acme")
	require.NoError(t, err)

	_, err = svc.SetAttribute(ctx, "acme", core.AttrTitle, "x")
	assert.ErrorIs(t, err, core.ErrReadOnly)

	assert.NoDirExists(t, filepath.Join(root, platform.DefaultSystemDir))
	assert.NoFileExists(t, platform.MarkerPath(root))
	assert.False(t, svc.State().(core.ServiceState).SharedLocks)
}

func TestNew_LocksDisabled(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "acme"), 0755))

	svc, err := platform.New(root, platform.WithAutoInit(true), platform.WithEntityLocks(false), platform.WithSystemDir(".state"))
	require.NoError(t, err)

	_, err = svc.SetAttribute(ctx, "acme", core.AttrTitle, "x")
	require.NoError(t, err)
	assert.NoDirExists(t, filepath.Join(root, ".state", "locks"))
	assert.False(t, svc.State().(core.ServiceState).SharedLocks)
}

func TestNew_EntityLockFiles(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "acme"), 0755))

	svc, err := platform.New(root, platform.WithAutoInit(true))
	require.NoError(t, err)

	_, err = svc.SetAttribute(ctx, "acme", core.AttrTitle, "x")
	require.NoError(t, err)

	// The lock file is gone once the write returns.
	assert.DirExists(t, filepath.Join(root, platform.DefaultSystemDir, "locks"))
	assert.NoFileExists(t, filepath.Join(root, platform.DefaultSystemDir, "locks", "acme.lock"))

	names, err := svc.ListEntities(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"acme"}, names)
}

func TestNew_CustomSections(t *testing.T) {
	root := t.TempDir()

	svc, err := platform.New(root, platform.WithAutoInit(true), platform.WithSections(func(repo core.Repository) []core.Section {
		return []core.Section{sections.NewBlog(repo)}
	}))
	require.NoError(t, err)
	assert.Equal(t, []string{"blog"}, svc.State().(core.ServiceState).Sections)
}

func TestInit_InjectedRepository(t *testing.T) {
	root := t.TempDir()
	injected, err := platform.Init(root, platform.WithAutoInit(true))
	require.NoError(t, err)

	repo, err := platform.Init("ignored", platform.WithRepository(injected))
	require.NoError(t, err)
	assert.Same(t, injected, repo)
}

func TestNew_VisibleSystemDirIsNotAnEntity(t *testing.T) {
	ctx := context.Background()
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "acme"), 0755))

	svc, err := platform.New(root, platform.WithAutoInit(true), platform.WithSystemDir("sys"))
	require.NoError(t, err)
	require.DirExists(t, filepath.Join(root, "sys"))

	names, err := svc.ListEntities(ctx, "")
	require.NoError(t, err)
	assert.Equal(t, []string{"acme"}, names)

	_, err = svc.GetRecord(ctx, "sys")
	assert.ErrorIs(t, err, core.ErrEntityNotFound)
}

func TestNew_AbandonedLockIsReclaimed(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("owner liveness is not probed on windows")
	}
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "acme"), 0755))

	svc, err := platform.New(root, platform.WithAutoInit(true))
	require.NoError(t, err)

	// A writer that exited while holding the lock.
	gone := exec.Command(os.Args[0], "-test.run=^$")
	require.NoError(t, gone.Run())
	lockPath := filepath.Join(root, platform.DefaultSystemDir, "locks", "acme.lock")
	require.NoError(t, os.MkdirAll(filepath.Dir(lockPath), 0755))
	require.NoError(t, os.WriteFile(lockPath, []byte(strconv.Itoa(gone.Process.Pid)), 0644))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	version, err := svc.SetAttribute(ctx, "acme", core.AttrTitle, "Draft A")
	require.NoError(t, err)
	assert.Equal(t, 1, version)
	assert.NoFileExists(t, lockPath)
}

func TestNew_LockStaleAfter(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "acme"), 0755))

	svc, err := platform.New(root, platform.WithAutoInit(true), platform.WithLockStaleAfter(time.Minute))
	require.NoError(t, err)

	// Held by a live process, but long expired.
	lockPath := filepath.Join(root, platform.DefaultSystemDir, "locks", "acme.lock")
	require.NoError(t, os.MkdirAll(filepath.Dir(lockPath), 0755))
	require.NoError(t, os.WriteFile(lockPath, []byte(strconv.Itoa(os.Getpid())), 0644))
	past := time.Now().Add(-time.Hour)
	require.NoError(t, os.Chtimes(lockPath, past, past))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	_, err = svc.SetAttribute(ctx, "acme", core.AttrTitle, "Draft A")
	require.NoError(t, err)
}
