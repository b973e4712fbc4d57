package cache_test

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nholloway/viewmill/core/cache"
	"github.com/nholloway/viewmill/core/compiler"
	"github.com/nholloway/viewmill/core/models"
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

func renderResult(t *testing.T, result *cache.Result) string {
	t.Helper()
	var sb strings.Builder
	require.NoError(t, compiler.Render(&sb, result.Artifact, nil))
	return sb.String()
}

// Exercises the whole stack on disk: compile through the cache, hit from
// memory, then invalidate by editing an ancestor import file.
func TestCacheOverOSProvider(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "_imports.tmpl", `{{define "greeting"}}Hello{{end}}`)
	writeFile(t, root, "home/index.tmpl", `{{template "greeting"}}, world`)

	provider := vfs.NewOS(root)
	defer provider.Close()
	vc := compiler.NewViewCompiler(provider, "_imports.tmpl")
	cc := cache.New(provider, nil, nil)

	result, err := cc.GetOrAdd("home/index.tmpl", vc.Compile)
	require.NoError(t, err)
	require.True(t, result.Found())
	assert.False(t, result.FromCache)
	assert.Equal(t, "Hello, world", renderResult(t, result))

	first := result.Artifact

	result, err = cc.GetOrAdd("home/index.tmpl", vc.Compile)
	require.NoError(t, err)
	assert.True(t, result.FromCache)
	assert.Same(t, first, result.Artifact)

	// Editing the root import file invalidates the view even though the
	// view itself did not change.
	writeFile(t, root, "_imports.tmpl", `{{define "greeting"}}Howdy{{end}}`)

	require.Eventually(t, func() bool {
		result, err := cc.GetOrAdd("home/index.tmpl", vc.Compile)
		if err != nil || !result.Found() {
			return false
		}
		return renderResult(t, result) == "Howdy, world"
	}, 3*time.Second, 20*time.Millisecond)
}

func TestCacheOverOSProvider_MissingThenCreated(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "home"), 0755))

	provider := vfs.NewOS(root)
	defer provider.Close()
	vc := compiler.NewViewCompiler(provider, "_imports.tmpl")
	cc := cache.New(provider, nil, nil)

	result, err := cc.GetOrAdd("home/index.tmpl", vc.Compile)
	require.NoError(t, err)
	assert.Same(t, cache.NotFound, result)

	writeFile(t, root, "home/index.tmpl", "now I exist")

	require.Eventually(t, func() bool {
		result, err := cc.GetOrAdd("home/index.tmpl", vc.Compile)
		if err != nil {
			return false
		}
		return result.Found() && renderResult(t, result) == "now I exist"
	}, 3*time.Second, 20*time.Millisecond)
}

func TestCacheOverOSProvider_ManyViews(t *testing.T) {
	// Every entry holds a composite trigger, yet the provider runs them
	// all over one fsnotify watcher: caching well past the kernel's
	// per-user inotify instance limit (128) must keep working.
	root := t.TempDir()
	provider := vfs.NewOS(root)
	defer provider.Close()
	vc := compiler.NewViewCompiler(provider, "_imports.tmpl")
	cc := cache.New(provider, nil, nil)

	const views = 150
	for i := range views {
		rel := fmt.Sprintf("v%03d.tmpl", i)
		writeFile(t, root, rel, fmt.Sprintf("view %03d", i))
		result, err := cc.GetOrAdd(rel, vc.Compile)
		require.NoError(t, err, "view %d", i)
		require.True(t, result.Found())
		assert.Equal(t, fmt.Sprintf("view %03d", i), renderResult(t, result))
	}

	// A second cache in the same process still gets watch capacity after
	// the first lets its entries go.
	cc.Clear()
	other := vfs.NewOS(root)
	defer other.Close()
	cc2 := cache.New(other, nil, nil)
	result, err := cc2.GetOrAdd("v000.tmpl", compiler.NewViewCompiler(other, "_imports.tmpl").Compile)
	require.NoError(t, err)
	require.True(t, result.Found())
}

func TestCacheOverOSProvider_PinnedSurvivesEdits(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "landing.tmpl", "pinned v1")

	provider := vfs.NewOS(root)
	defer provider.Close()
	vc := compiler.NewViewCompiler(provider, "_imports.tmpl")

	desc, err := provider.Stat("landing.tmpl")
	require.NoError(t, err)
	pinned, err := vc.Compile(desc)
	require.NoError(t, err)

	set, err := cache.NewPrecompiledSet(map[string]*models.Artifact{"landing.tmpl": pinned})
	require.NoError(t, err)
	cc := cache.New(provider, set, nil)

	result, err := cc.GetOrAdd("landing.tmpl", vc.Compile)
	require.NoError(t, err)
	assert.Same(t, pinned, result.Artifact)

	// Rewriting the backing file must not dislodge a pinned view.
	writeFile(t, root, "landing.tmpl", "pinned v2")
	time.Sleep(300 * time.Millisecond)

	result, err = cc.GetOrAdd("landing.tmpl", vc.Compile)
	require.NoError(t, err)
	assert.Same(t, pinned, result.Artifact)
	assert.Equal(t, "pinned v1", renderResult(t, result))
}
