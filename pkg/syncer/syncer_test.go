package syncer

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/packsync/packsync/pkg/classify"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", filepath.Dir(path), err)
	}
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func setMtime(t *testing.T, path string, mtime time.Time) {
	t.Helper()
	if err := os.Chtimes(path, mtime, mtime); err != nil {
		t.Fatalf("chtimes %s: %v", path, err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read %s: %v", path, err)
	}
	return string(data)
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}

func TestSyncCopiesNewTree(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeFile(t, filepath.Join(src, "manifest.json"), "{}")
	writeFile(t, filepath.Join(src, "entities", "cow.json"), `{"id":"cow"}`)

	s := New(zerolog.Nop())
	stats, err := s.Sync(src, dst, nil, nil)
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if stats.Copied != 2 {
		t.Errorf("Copied = %d, want 2", stats.Copied)
	}
	if got := readFile(t, filepath.Join(dst, "entities", "cow.json")); got != `{"id":"cow"}` {
		t.Errorf("dest content = %q", got)
	}
}

func TestSyncIsIdempotent(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeFile(t, filepath.Join(src, "a.json"), "aaa")
	writeFile(t, filepath.Join(src, "sub", "b.json"), "bbb")

	s := New(zerolog.Nop())
	if _, err := s.Sync(src, dst, nil, nil); err != nil {
		t.Fatalf("first Sync() error = %v", err)
	}
	stats, err := s.Sync(src, dst, nil, nil)
	if err != nil {
		t.Fatalf("second Sync() error = %v", err)
	}
	if stats.Copied != 0 || stats.Deleted != 0 {
		t.Errorf("second pass stats = %+v, want no work", stats)
	}
}

func TestSyncCopiesSameSizeNewerFile(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeFile(t, filepath.Join(src, "a.json"), "new!")
	writeFile(t, filepath.Join(dst, "a.json"), "old!")

	// Same size, source two seconds newer.
	base := time.Now().Truncate(time.Second)
	setMtime(t, filepath.Join(dst, "a.json"), base.Add(-2*time.Second))
	setMtime(t, filepath.Join(src, "a.json"), base)

	s := New(zerolog.Nop())
	stats, err := s.Sync(src, dst, nil, nil)
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if stats.Copied != 1 {
		t.Errorf("Copied = %d, want 1", stats.Copied)
	}
	if got := readFile(t, filepath.Join(dst, "a.json")); got != "new!" {
		t.Errorf("dest content = %q, want %q", got, "new!")
	}
}

func TestSyncSkipsSameSizeOlderOrEqualFile(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeFile(t, filepath.Join(src, "a.json"), "src!")
	writeFile(t, filepath.Join(dst, "a.json"), "dst!")

	base := time.Now().Truncate(time.Second)
	setMtime(t, filepath.Join(src, "a.json"), base.Add(-5*time.Second))
	setMtime(t, filepath.Join(dst, "a.json"), base)

	s := New(zerolog.Nop())
	stats, err := s.Sync(src, dst, nil, nil)
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if stats.Copied != 0 {
		t.Errorf("Copied = %d, want 0", stats.Copied)
	}
	if got := readFile(t, filepath.Join(dst, "a.json")); got != "dst!" {
		t.Errorf("dest content = %q, want untouched %q", got, "dst!")
	}
}

func TestSyncDeletesStrayEntries(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeFile(t, filepath.Join(src, "keep.json"), "k")
	writeFile(t, filepath.Join(dst, "keep.json"), "k")
	writeFile(t, filepath.Join(dst, "stray.json"), "s")
	writeFile(t, filepath.Join(dst, "straydir", "x.json"), "x")

	s := New(zerolog.Nop())
	stats, err := s.Sync(src, dst, nil, nil)
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if stats.Deleted != 2 {
		t.Errorf("Deleted = %d, want 2", stats.Deleted)
	}
	if exists(filepath.Join(dst, "stray.json")) || exists(filepath.Join(dst, "straydir")) {
		t.Error("stray entries still present after sync")
	}
}

func TestSyncPreservesOnlyAtTopLevel(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeFile(t, filepath.Join(src, "sub", "a.json"), "a")
	writeFile(t, filepath.Join(dst, "libraries", "maths", "vec.js"), "v")
	writeFile(t, filepath.Join(dst, "sub", "libraries", "old.js"), "o")

	preserves := classify.NewDirSet("libraries")

	s := New(zerolog.Nop())
	if _, err := s.Sync(src, dst, nil, preserves); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if !exists(filepath.Join(dst, "libraries", "maths", "vec.js")) {
		t.Error("top-level preserved directory was removed")
	}
	if exists(filepath.Join(dst, "sub", "libraries")) {
		t.Error("nested directory matching preserve name survived mirroring")
	}
}

func TestSyncSkipsExcludedDirectories(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeFile(t, filepath.Join(src, "scripts", "main.js"), "m")
	writeFile(t, filepath.Join(src, "tscripts", "main.ts"), "t")

	exclusions := classify.NewDirSet("tscripts")

	s := New(zerolog.Nop())
	if _, err := s.Sync(src, dst, exclusions, nil); err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if !exists(filepath.Join(dst, "scripts", "main.js")) {
		t.Error("non-excluded directory was not copied")
	}
	if exists(filepath.Join(dst, "tscripts")) {
		t.Error("excluded directory appeared in destination")
	}
}

func TestSyncSkipsIgnorableFiles(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeFile(t, filepath.Join(src, "main.js"), "m")
	writeFile(t, filepath.Join(src, "main.js.map"), "{}")
	writeFile(t, filepath.Join(src, ".DS_Store"), "junk")
	writeFile(t, filepath.Join(src, "config.json.tmp"), "partial")

	s := New(zerolog.Nop())
	stats, err := s.Sync(src, dst, nil, nil)
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if stats.Copied != 1 {
		t.Errorf("Copied = %d, want 1", stats.Copied)
	}
	for _, name := range []string{"main.js.map", ".DS_Store", "config.json.tmp"} {
		if exists(filepath.Join(dst, name)) {
			t.Errorf("ignorable file %s was copied", name)
		}
	}
}

func TestSyncReplacesDirectoryWithFile(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeFile(t, filepath.Join(src, "entities"), "now a file")
	writeFile(t, filepath.Join(dst, "entities", "cow.json"), `{"id":"cow"}`)

	s := New(zerolog.Nop())
	stats, err := s.Sync(src, dst, nil, nil)
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if stats.Deleted != 1 || stats.Copied != 1 {
		t.Errorf("stats = %+v, want one delete and one copy", stats)
	}
	if got := readFile(t, filepath.Join(dst, "entities")); got != "now a file" {
		t.Errorf("dest content = %q, want %q", got, "now a file")
	}
}

func TestSyncReplacesFileWithDirectory(t *testing.T) {
	src := t.TempDir()
	dst := t.TempDir()
	writeFile(t, filepath.Join(src, "entities", "cow.json"), `{"id":"cow"}`)
	writeFile(t, filepath.Join(dst, "entities"), "was a file")

	s := New(zerolog.Nop())
	stats, err := s.Sync(src, dst, nil, nil)
	if err != nil {
		t.Fatalf("Sync() error = %v", err)
	}
	if stats.Deleted != 1 || stats.Copied != 1 {
		t.Errorf("stats = %+v, want one delete and one copy", stats)
	}
	if got := readFile(t, filepath.Join(dst, "entities", "cow.json")); got != `{"id":"cow"}` {
		t.Errorf("dest content = %q", got)
	}
}

func TestSyncMissingSourceFails(t *testing.T) {
	s := New(zerolog.Nop())
	if _, err := s.Sync(filepath.Join(t.TempDir(), "absent"), t.TempDir(), nil, nil); err == nil {
		t.Error("Sync() with missing source returned nil error")
	}
}
