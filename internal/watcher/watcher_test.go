package watcher

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	opCreate = fsnotify.Create
	opRemove = fsnotify.Remove
	opWrite  = fsnotify.Write
)

func fakeEvent(name string, op fsnotify.Op) fsnotify.Event {
	return fsnotify.Event{Name: name, Op: op}
}

func collectBatch(t *testing.T, batches <-chan Batch, timeout time.Duration) Batch {
	t.Helper()
	select {
	case b := <-batches:
		return b
	case <-time.After(timeout):
		t.Fatal("timed out waiting for batch")
		return Batch{}
	}
}

func TestWatchCreateAndModify(t *testing.T) {
	dir := t.TempDir()

	w, err := New(dir, WithDebounce(30*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	batches, fatal := w.Run(ctx)

	target := filepath.Join(dir, "index.norg")
	require.NoError(t, os.WriteFile(target, []byte("* hi"), 0o644))

	select {
	case b := <-batches:
		require.Len(t, b.Events, 1)
		assert.Equal(t, "index.norg", b.Events[0].Path)
		assert.Equal(t, KindCreate, b.Events[0].Kind)
	case err := <-fatal:
		t.Fatalf("unexpected fatal error: %v", err)
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for create batch")
	}
}

func TestIgnoredDirNeverReported(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, ".git"), 0o755))

	w, err := New(dir, WithDebounce(30*time.Millisecond))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	batches, _ := w.Run(ctx)

	require.NoError(t, os.WriteFile(filepath.Join(dir, ".git", "HEAD"), []byte("ref: x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "real.norg"), []byte("* hi"), 0o644))

	b := collectBatch(t, batches, 2*time.Second)
	for _, e := range b.Events {
		assert.NotContains(t, e.Path, ".git")
	}
}

func TestHandleFSEventCreateDeleteAnnihilates(t *testing.T) {
	w := &Watcher{root: "/root", ignoreDir: func(string) bool { return false }}
	pending := map[string]Event{}

	w.handleFSEvent(fakeEvent("/root/a.norg", opCreate), pending)
	require.Contains(t, pending, "a.norg")

	w.handleFSEvent(fakeEvent("/root/a.norg", opRemove), pending)
	assert.NotContains(t, pending, "a.norg")
}

func TestHandleFSEventModifyCollapses(t *testing.T) {
	w := &Watcher{root: "/root", ignoreDir: func(string) bool { return false }}
	pending := map[string]Event{}

	w.handleFSEvent(fakeEvent("/root/a.norg", opWrite), pending)
	w.handleFSEvent(fakeEvent("/root/a.norg", opWrite), pending)

	require.Len(t, pending, 1)
	assert.Equal(t, KindModify, pending["a.norg"].Kind)
}

func TestHandleFSEventDeleteThenCreateBecomesModify(t *testing.T) {
	w := &Watcher{root: "/root", ignoreDir: func(string) bool { return false }}
	pending := map[string]Event{}

	w.handleFSEvent(fakeEvent("/root/a.norg", opRemove), pending)
	w.handleFSEvent(fakeEvent("/root/a.norg", opCreate), pending)

	require.Contains(t, pending, "a.norg")
	assert.Equal(t, KindModify, pending["a.norg"].Kind)
}
