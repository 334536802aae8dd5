package watcher

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"
)

type ingestRecorder struct {
	mu    sync.Mutex
	paths []string
}

func (r *ingestRecorder) record(path string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.paths = append(r.paths, path)
}

func (r *ingestRecorder) snapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.paths...)
}

func (r *ingestRecorder) waitFor(t *testing.T, n int, timeout time.Duration) []string {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if paths := r.snapshot(); len(paths) >= n {
			return paths
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d ingestions, got %v", n, r.snapshot())
	return nil
}

func TestWatcher_IngestsNewFile(t *testing.T) {
	dir := t.TempDir()
	rec := &ingestRecorder{}
	w := NewWatcher([]string{dir}, []string{".md"}, true, rec.record, WithDebounce(50*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	path := filepath.Join(dir, "report.md")
	if err := os.WriteFile(path, []byte("# Report\ncontent"), 0o644); err != nil {
		t.Fatal(err)
	}

	paths := rec.waitFor(t, 1, 3*time.Second)
	if paths[0] != path {
		t.Errorf("ingested path: got %s, want %s", paths[0], path)
	}
}

func TestWatcher_FiltersExtensions(t *testing.T) {
	dir := t.TempDir()
	rec := &ingestRecorder{}
	w := NewWatcher([]string{dir}, []string{".md", ".txt"}, true, rec.record, WithDebounce(50*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	if err := os.WriteFile(filepath.Join(dir, "skip.bin"), []byte("blob"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "keep.txt"), []byte("text"), 0o644); err != nil {
		t.Fatal(err)
	}

	paths := rec.waitFor(t, 1, 3*time.Second)
	for _, p := range paths {
		if filepath.Ext(p) == ".bin" {
			t.Errorf("binary file was ingested: %s", p)
		}
	}
}

func TestWatcher_DebouncesRapidWrites(t *testing.T) {
	dir := t.TempDir()
	rec := &ingestRecorder{}
	w := NewWatcher([]string{dir}, nil, false, rec.record, WithDebounce(150*time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	path := filepath.Join(dir, "doc.md")
	for i := 0; i < 5; i++ {
		if err := os.WriteFile(path, []byte("revision"), 0o644); err != nil {
			t.Fatal(err)
		}
		time.Sleep(10 * time.Millisecond)
	}

	rec.waitFor(t, 1, 3*time.Second)
	time.Sleep(300 * time.Millisecond)
	if paths := rec.snapshot(); len(paths) != 1 {
		t.Errorf("ingestions: got %d, want 1 (debounced)", len(paths))
	}
}

func TestWatcher_CreatesMissingRoot(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "not-yet")
	w := NewWatcher([]string{dir}, nil, false, func(string) {})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()
	if _, err := os.Stat(dir); err != nil {
		t.Errorf("root was not created: %v", err)
	}
}

func TestWatcher_StopIsIdempotent(t *testing.T) {
	dir := t.TempDir()
	w := NewWatcher([]string{dir}, nil, false, func(string) {})
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	w.Stop()
	w.Stop()
}
