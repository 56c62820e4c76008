package watch

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitEvent(t *testing.T, w *Watcher, timeout time.Duration) (string, bool) {
	t.Helper()
	select {
	case name := <-w.Events:
		return name, true
	case <-time.After(timeout):
		return "", false
	}
}

func TestWatcher_ReportsSceneChanges(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir)
	require.NoError(t, err)
	defer w.Close()

	path := filepath.Join(dir, "room.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: room\n"), 0o644))

	name, ok := waitEvent(t, w, 2*time.Second)
	require.True(t, ok, "no event for scene file")
	assert.Equal(t, path, name)
}

func TestWatcher_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	w, err := New(dir)
	require.NoError(t, err)
	defer w.Close()

	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644))

	_, ok := waitEvent(t, w, 300*time.Millisecond)
	assert.False(t, ok)
}

func TestWatcher_Debounce(t *testing.T) {
	dir := t.TempDir()
	// Every write lands inside the window
	w, err := newWatcher(time.Hour, dir)
	require.NoError(t, err)
	defer w.Close()

	path := filepath.Join(dir, "fly.tengo")
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte("commands = []\n"), 0o644))
	}

	_, ok := waitEvent(t, w, 2*time.Second)
	require.True(t, ok)

	// Writes inside the debounce window collapse into the first event
	_, ok = waitEvent(t, w, 200*time.Millisecond)
	assert.False(t, ok)

	// Other files have their own window
	other := filepath.Join(dir, "orbit.tengo")
	require.NoError(t, os.WriteFile(other, []byte("commands = []\n"), 0o644))
	name, ok := waitEvent(t, w, 2*time.Second)
	require.True(t, ok)
	assert.Equal(t, other, name)
}

func TestWatcher_NoDebounce(t *testing.T) {
	dir := t.TempDir()
	w, err := newWatcher(0, dir)
	require.NoError(t, err)
	defer w.Close()

	path := filepath.Join(dir, "fly.tengo")
	require.NoError(t, os.WriteFile(path, []byte("commands = []\n"), 0o644))
	_, ok := waitEvent(t, w, 2*time.Second)
	require.True(t, ok)

	// Wait for the first write's events to drain before writing again
	for ok {
		_, ok = waitEvent(t, w, 200*time.Millisecond)
	}
	require.NoError(t, os.WriteFile(path, []byte("commands = [\"forward\"]\n"), 0o644))
	name, ok := waitEvent(t, w, 2*time.Second)
	require.True(t, ok, "second write was swallowed")
	assert.Equal(t, path, name)
}

func TestWatcher_CloseTwice(t *testing.T) {
	w, err := New(t.TempDir())
	require.NoError(t, err)

	require.NoError(t, w.Close())
	assert.NoError(t, w.Close())

	_, open := <-w.Events
	assert.False(t, open)
	_, open = <-w.Errors
	assert.False(t, open)
}

func TestNew_MissingPath(t *testing.T) {
	_, err := New(filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestFileKinds(t *testing.T) {
	assert.True(t, IsSceneFile("a/b.YAML"))
	assert.True(t, IsSceneFile("b.yml"))
	assert.False(t, IsSceneFile("b.tengo"))
	assert.True(t, IsScriptFile("fly.tengo"))
	assert.False(t, IsScriptFile("fly.lua"))
}
