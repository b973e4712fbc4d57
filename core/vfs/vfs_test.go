package vfs_test

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/nholloway/viewmill/core/vfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, root, rel, content string) {
	t.Helper()
	full := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
	require.NoError(t, os.WriteFile(full, []byte(content), 0644))
}

func TestOSStat(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "views/home/index.tmpl", "hello")

	provider := vfs.NewOS(root)

	desc, err := provider.Stat("views/home/index.tmpl")
	require.NoError(t, err)
	assert.Equal(t, "views/home/index.tmpl", desc.Path)
	assert.Equal(t, int64(5), desc.Size)
	assert.False(t, desc.ModTime.IsZero())
}

func TestOSStat_Missing(t *testing.T) {
	provider := vfs.NewOS(t.TempDir())

	_, err := provider.Stat("views/missing.tmpl")
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestOSStat_DirectoryIsNotAView(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "views"), 0755))

	provider := vfs.NewOS(root)

	_, err := provider.Stat("views")
	require.Error(t, err)
	assert.True(t, errors.Is(err, fs.ErrNotExist))
}

func TestChecksum(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.tmpl", "same content")
	writeFile(t, root, "b.tmpl", "same content")
	writeFile(t, root, "c.tmpl", "different content")

	provider := vfs.NewOS(root)

	sumA, err := vfs.Checksum(provider, "a.tmpl")
	require.NoError(t, err)
	sumB, err := vfs.Checksum(provider, "b.tmpl")
	require.NoError(t, err)
	sumC, err := vfs.Checksum(provider, "c.tmpl")
	require.NoError(t, err)

	assert.Equal(t, sumA, sumB)
	assert.NotEqual(t, sumA, sumC)

	_, err = vfs.Checksum(provider, "missing.tmpl")
	require.Error(t, err)
}

func waitExpired(t *testing.T, trigger vfs.Trigger) {
	t.Helper()
	require.Eventually(t, trigger.Expired, 3*time.Second, 10*time.Millisecond)
}

func TestWatch_ExpiresOnWrite(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "views/index.tmpl", "v1")

	provider := vfs.NewOS(root)
	defer provider.Close()
	trigger, err := provider.Watch([]string{"views/index.tmpl"})
	require.NoError(t, err)
	assert.False(t, trigger.Expired())

	writeFile(t, root, "views/index.tmpl", "v2")
	waitExpired(t, trigger)

	// One-shot: the flag never resets.
	assert.True(t, trigger.Expired())
}

func TestWatch_ExpiresOnRemove(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "views/index.tmpl", "v1")

	provider := vfs.NewOS(root)
	defer provider.Close()
	trigger, err := provider.Watch([]string{"views/index.tmpl"})
	require.NoError(t, err)

	require.NoError(t, os.Remove(filepath.Join(root, "views", "index.tmpl")))
	waitExpired(t, trigger)
}

func TestWatch_ExpiresOnCreateOfMissingFile(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "views"), 0755))

	provider := vfs.NewOS(root)
	defer provider.Close()
	trigger, err := provider.Watch([]string{"views/_imports.tmpl"})
	require.NoError(t, err)
	assert.False(t, trigger.Expired())

	writeFile(t, root, "views/_imports.tmpl", "{{define \"x\"}}{{end}}")
	waitExpired(t, trigger)
}

func TestWatch_ExpiresOnIntermediateDirectoryCreation(t *testing.T) {
	// The watched file's directory does not exist yet; creating it is
	// already an invalidation, the next compile watches deeper.
	root := t.TempDir()

	provider := vfs.NewOS(root)
	defer provider.Close()
	trigger, err := provider.Watch([]string{"views/home/_imports.tmpl"})
	require.NoError(t, err)

	require.NoError(t, os.MkdirAll(filepath.Join(root, "views", "home"), 0755))
	waitExpired(t, trigger)
}

func TestWatch_IgnoresUnrelatedFiles(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "views/index.tmpl", "v1")
	writeFile(t, root, "views/other.tmpl", "v1")

	provider := vfs.NewOS(root)
	defer provider.Close()
	trigger, err := provider.Watch([]string{"views/index.tmpl"})
	require.NoError(t, err)

	writeFile(t, root, "views/other.tmpl", "v2")
	time.Sleep(300 * time.Millisecond)
	assert.False(t, trigger.Expired())
}

func TestWatch_CompositeSet(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "views/home/index.tmpl", "view")
	writeFile(t, root, "views/_imports.tmpl", "imports")

	provider := vfs.NewOS(root)
	defer provider.Close()
	trigger, err := provider.Watch([]string{
		"views/home/index.tmpl",
		"views/home/_imports.tmpl",
		"views/_imports.tmpl",
		"_imports.tmpl",
	})
	require.NoError(t, err)
	assert.False(t, trigger.Expired())

	// A change to any member of the set expires the one shared flag.
	writeFile(t, root, "views/_imports.tmpl", "imports v2")
	waitExpired(t, trigger)
}

func TestWatch_ManyTriggersShareOneWatcher(t *testing.T) {
	// Triggers are subscriptions on one shared fsnotify watcher, so a
	// provider can cover far more views than the kernel allows inotify
	// instances per user (128 by default on Linux).
	root := t.TempDir()
	provider := vfs.NewOS(root)
	defer provider.Close()

	const views = 200
	triggers := make([]vfs.Trigger, views)
	for i := range views {
		rel := fmt.Sprintf("views/v%03d.tmpl", i)
		writeFile(t, root, rel, "v1")
		trigger, err := provider.Watch([]string{rel, "views/_imports.tmpl", "_imports.tmpl"})
		require.NoError(t, err, "watch %d", i)
		triggers[i] = trigger
	}

	// Touching one view expires exactly that view's trigger.
	writeFile(t, root, "views/v042.tmpl", "v2")
	waitExpired(t, triggers[42])
	assert.False(t, triggers[41].Expired())
	assert.False(t, triggers[43].Expired())
}

func TestWatch_ReleaseStopsObserving(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "views/index.tmpl", "v1")

	provider := vfs.NewOS(root)
	defer provider.Close()
	trigger, err := provider.Watch([]string{"views/index.tmpl"})
	require.NoError(t, err)

	trigger.Release()
	writeFile(t, root, "views/index.tmpl", "v2")
	time.Sleep(300 * time.Millisecond)
	assert.False(t, trigger.Expired())

	// Release is idempotent, also after expiry.
	trigger.Release()

	fresh, err := provider.Watch([]string{"views/index.tmpl"})
	require.NoError(t, err)
	writeFile(t, root, "views/index.tmpl", "v3")
	waitExpired(t, fresh)
	fresh.Release()
	fresh.Release()
}

func TestWatch_ReleaseKeepsSiblingSubscriptionsLive(t *testing.T) {
	// Two subscriptions share a watched directory; releasing one must not
	// tear down the other's coverage.
	root := t.TempDir()
	writeFile(t, root, "views/a.tmpl", "v1")
	writeFile(t, root, "views/b.tmpl", "v1")

	provider := vfs.NewOS(root)
	defer provider.Close()

	a, err := provider.Watch([]string{"views/a.tmpl"})
	require.NoError(t, err)
	b, err := provider.Watch([]string{"views/b.tmpl"})
	require.NoError(t, err)

	a.Release()
	writeFile(t, root, "views/b.tmpl", "v2")
	waitExpired(t, b)
	assert.False(t, a.Expired())
}
