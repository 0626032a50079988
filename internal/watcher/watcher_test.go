package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelevant(t *testing.T) {
	tests := []struct {
		name  string
		event fsnotify.Event
		want  bool
	}{
		{"task write", fsnotify.Event{Name: "plan/tasks/001-design.md", Op: fsnotify.Write}, true},
		{"config create", fsnotify.Event{Name: "plan/config.yml", Op: fsnotify.Create}, true},
		{"task removed", fsnotify.Event{Name: "plan/tasks/002-build.md", Op: fsnotify.Remove}, true},
		{"chmod only", fsnotify.Event{Name: "plan/config.yml", Op: fsnotify.Chmod}, false},
		{"temp file", fsnotify.Event{Name: "plan/tasks/.task-123.tmp", Op: fsnotify.Create}, false},
		{"lock file", fsnotify.Event{Name: "plan/.backplan.lock", Op: fsnotify.Write}, false},
		{"activity log", fsnotify.Event{Name: "plan/activity.jsonl", Op: fsnotify.Write}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Relevant(tt.event))
		})
	}
}

func TestWatcherDebounces(t *testing.T) {
	dir := t.TempDir()
	var calls atomic.Int32
	w, err := New([]string{dir}, func() { calls.Add(1) })
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.Close() })

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go w.Run(ctx, nil)

	for i := range 3 {
		name := filepath.Join(dir, "00"+string(rune('1'+i))+"-task.md")
		require.NoError(t, os.WriteFile(name, []byte("---\nid: 1\n---\n"), 0o600))
	}
	require.NoError(t, os.WriteFile(filepath.Join(dir, "activity.jsonl"), []byte("{}\n"), 0o600))

	assert.Eventually(t, func() bool { return calls.Load() >= 1 }, 2*time.Second, 20*time.Millisecond)
	time.Sleep(3 * debounceDelay)
	assert.Equal(t, int32(1), calls.Load())
}

func TestNewMissingDir(t *testing.T) {
	_, err := New([]string{filepath.Join(t.TempDir(), "missing")}, func() {})
	assert.Error(t, err)
}
