package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/stretchr/testify/require"
)

func TestStartRunsOnceThenOnChanges(t *testing.T) {
	dir := t.TempDir()
	runs := make(chan struct{}, 16)
	run := func(context.Context) int {
		runs <- struct{}{}
		return 0
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	done := make(chan int, 1)
	go func() {
		code, err := New([]string{dir}, run).WithDebounce(50 * time.Millisecond).Start(ctx)
		require.NoError(t, err)
		done <- code
	}()

	// Initial run fires before any change.
	select {
	case <-runs:
	case <-time.After(5 * time.Second):
		t.Fatal("initial run never happened")
	}

	// A burst of writes collapses into one debounced run.
	for i := 0; i < 3; i++ {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "page.rst"), []byte("x"), 0o644))
		time.Sleep(10 * time.Millisecond)
	}

	select {
	case <-runs:
	case <-time.After(5 * time.Second):
		t.Fatal("debounced run never happened")
	}

	// No further runs pending after the debounce window.
	select {
	case <-runs:
		t.Fatal("burst produced more than one run")
	case <-time.After(300 * time.Millisecond):
	}

	cancel()
	select {
	case code := <-done:
		require.Equal(t, 0, code)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop on cancel")
	}
}

func TestRelevantFiltersHiddenFiles(t *testing.T) {
	// Events for editor swap files must not trigger runs.
	require.False(t, relevant(fsnotify.Event{Name: ".page.rst.swp", Op: fsnotify.Write}))
	require.True(t, relevant(fsnotify.Event{Name: "page.rst", Op: fsnotify.Write}))
	require.False(t, relevant(fsnotify.Event{Name: "page.rst", Op: fsnotify.Chmod}))
}
