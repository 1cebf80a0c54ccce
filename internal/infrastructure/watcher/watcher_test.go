package watcher

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWatcher_Relevant(t *testing.T) {
	root := t.TempDir()
	vault := filepath.Join(root, "vault")

	w, err := New(root, Config{
		Exclude: []string{vault},
		Accept:  func(p string) bool { return strings.HasSuffix(p, ".md") },
	}, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = w.fsw.Close() })

	assert.True(t, w.Relevant(filepath.Join(root, "notes", "a.md")))
	assert.False(t, w.Relevant(filepath.Join(root, "notes", "a.png")))
	assert.False(t, w.Relevant(filepath.Join(root, "notes", ".a.md.swp")))
	assert.False(t, w.Relevant(filepath.Join(vault, "People", "Shawn.md")))
	assert.True(t, w.Relevant(filepath.Join(root, "vaultish", "b.md")))
	assert.Equal(t, DefaultDebounce, w.cfg.Debounce)
}

func TestWatcher_Run(t *testing.T) {
	root := t.TempDir()
	sub := filepath.Join(root, "sub")
	require.NoError(t, os.MkdirAll(sub, 0o755))

	w, err := New(root, Config{Debounce: 50 * time.Millisecond}, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(t.Context())
	defer cancel()

	batches := make(chan []string, 4)
	done := make(chan error, 1)
	go func() {
		done <- w.Run(ctx, func(_ context.Context, paths []string) {
			batches <- paths
		})
	}()

	// Give the watcher time to register its watches.
	time.Sleep(100 * time.Millisecond)

	a := filepath.Join(root, "a.md")
	b := filepath.Join(sub, "b.md")
	require.NoError(t, os.WriteFile(a, []byte("one"), 0o644))
	require.NoError(t, os.WriteFile(b, []byte("two"), 0o644))
	require.NoError(t, os.WriteFile(a, []byte("one again"), 0o644))

	select {
	case got := <-batches:
		assert.Equal(t, []string{a, b}, got)
	case <-time.After(5 * time.Second):
		t.Fatal("no batch delivered")
	}

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not stop")
	}
}
