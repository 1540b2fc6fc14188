package knowledge

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestWatcherTriggersRebuild(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kb.json")
	require.NoError(t, os.WriteFile(path, []byte("[]"), 0644))

	rebuilt := make(chan struct{}, 1)

	w, err := NewWatcher(path, func(ctx context.Context) error {
		select {
		case rebuilt <- struct{}{}:
		default:
		}
		return nil
	})
	require.NoError(t, err)
	w.debounce = 50 * time.Millisecond
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Watch(ctx))

	// Give the watch registration a moment before mutating the file.
	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(path, []byte(`[{"question":"q","answer":"a"}]`), 0644))

	select {
	case <-rebuilt:
	case <-time.After(3 * time.Second):
		t.Fatal("rebuild was not triggered")
	}
}

func TestWatcherIgnoresSiblingFiles(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "kb.json")
	require.NoError(t, os.WriteFile(path, []byte("[]"), 0644))

	rebuilt := make(chan struct{}, 1)

	w, err := NewWatcher(path, func(ctx context.Context) error {
		rebuilt <- struct{}{}
		return nil
	})
	require.NoError(t, err)
	w.debounce = 50 * time.Millisecond
	defer w.Stop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, w.Watch(ctx))

	time.Sleep(100 * time.Millisecond)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "unrelated.txt"), []byte("x"), 0644))

	select {
	case <-rebuilt:
		t.Fatal("sibling file must not trigger a rebuild")
	case <-time.After(300 * time.Millisecond):
	}
}
