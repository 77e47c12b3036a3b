package ingest

import (
	"context"
	"os"
	"path/filepath"
	"sort"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
}

func TestScanDirectory(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.pdf"), "%PDF-1 a")
	writeFile(t, filepath.Join(root, "nested", "b.PDF"), "%PDF-1 b")
	writeFile(t, filepath.Join(root, "nested", "copy-of-a.pdf"), "%PDF-1 a")
	writeFile(t, filepath.Join(root, "notes.txt"), "ignored")
	writeFile(t, filepath.Join(root, ".hidden.pdf"), "%PDF-1 hidden")
	writeFile(t, filepath.Join(root, ".cache", "c.pdf"), "%PDF-1 c")

	results, stats, err := ScanDirectory(context.Background(), root, Options{SkipHidden: true}, nil)
	require.NoError(t, err)

	var names []string
	dups := 0
	for _, r := range results {
		assert.Empty(t, r.Err)
		assert.Len(t, r.HashHex, 64)
		names = append(names, filepath.Base(r.Path))
		if r.Deduplicated {
			dups++
		}
	}
	sort.Strings(names)
	assert.Equal(t, []string{"a.pdf", "b.PDF", "copy-of-a.pdf"}, names)
	assert.Equal(t, 1, dups)
	assert.Equal(t, uint32(3), stats.Matched)
	assert.Equal(t, uint32(3), stats.Succeeded)
	assert.Equal(t, uint32(1), stats.Deduplicated)
	assert.Zero(t, stats.Failed)
}

func TestScanDirectoryIncludesHiddenWhenAsked(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ".hidden.pdf"), "x")

	results, _, err := ScanDirectory(context.Background(), root, Options{}, nil)
	require.NoError(t, err)
	require.Len(t, results, 1)
}

func TestScanDirectoryCustomExtsAndSharedDedup(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), "same")
	dedup := NewDedup()
	dedup.Observe(mustHash(t, filepath.Join(root, "a.txt")), "/elsewhere/a.txt")

	results, stats, err := ScanDirectory(context.Background(), root, Options{Exts: []string{".TXT"}}, dedup)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Deduplicated)
	assert.Equal(t, uint32(1), stats.Deduplicated)
}

func TestScanDirectoryErrors(t *testing.T) {
	_, _, err := ScanDirectory(context.Background(), " ", Options{}, nil)
	require.Error(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, _, err = ScanDirectory(ctx, t.TempDir(), Options{}, nil)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestIsHidden(t *testing.T) {
	assert.True(t, IsHidden("/x/.git"))
	assert.False(t, IsHidden("."))
	assert.False(t, IsHidden("/x/bol.pdf"))
}

func TestWatcherEmitsNewPDFs(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "existing.pdf"), "old")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	events, _, err := StartWatcher(ctx, WatchConfig{
		Roots:       []string{root},
		Options:     Options{SkipHidden: true},
		InitialScan: true,
		Debounce:    20 * time.Millisecond,
	})
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "existing.pdf"), next(t, events))

	writeFile(t, filepath.Join(root, "ignored.txt"), "x")
	writeFile(t, filepath.Join(root, "new.pdf"), "%PDF-1 new")
	assert.Equal(t, filepath.Join(root, "new.pdf"), next(t, events))

	cancel()
	for range events {
	}
}

func TestWatcherRequiresRoots(t *testing.T) {
	_, _, err := StartWatcher(context.Background(), WatchConfig{})
	require.Error(t, err)
}

func next(t *testing.T, ch <-chan string) string {
	t.Helper()
	select {
	case p := <-ch:
		return p
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for watcher event")
		return ""
	}
}

func mustHash(t *testing.T, path string) string {
	t.Helper()
	h, _, err := HashFile(path)
	require.NoError(t, err)
	return h
}
