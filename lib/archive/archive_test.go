// Copyright 2026 The GLifzip Authors
// SPDX-License-Identifier: Apache-2.0

package archive

import (
	"bytes"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"
	"time"

	"golang.org/x/sys/unix"

	"github.com/glyphos/glifzip/lib/glif"
	"github.com/glyphos/glifzip/lib/pool"
)

var treeStamp = time.Date(2024, 6, 15, 12, 0, 0, 0, time.UTC)

func testPool(t *testing.T, workers int) *pool.Pool {
	t.Helper()
	p, err := pool.New(workers)
	if err != nil {
		t.Fatalf("pool.New(%d): %v", workers, err)
	}
	return p
}

// buildTestTree lays out a small tree with nested directories, mixed
// permissions, and a relative symlink.
func buildTestTree(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()

	mustMkdir := func(rel string) {
		t.Helper()
		if err := os.MkdirAll(filepath.Join(dir, rel), 0o755); err != nil {
			t.Fatal(err)
		}
	}
	mustWrite := func(rel string, content []byte, mode os.FileMode) {
		t.Helper()
		if err := os.WriteFile(filepath.Join(dir, rel), content, mode); err != nil {
			t.Fatal(err)
		}
	}

	mustMkdir("docs/nested")
	mustMkdir("skip")
	mustWrite("README.md", []byte("# glifzip test tree\n"), 0o644)
	mustWrite("build.log", []byte("noise\n"), 0o644)
	mustWrite("docs/guide.txt", bytes.Repeat([]byte("guide "), 512), 0o640)
	mustWrite("docs/nested/data.bin", bytes.Repeat([]byte{0xAB, 0xCD}, 4096), 0o600)
	mustWrite("skip/inner.txt", []byte("inside skip\n"), 0o644)
	if err := os.Symlink("../README.md", filepath.Join(dir, "docs", "link.md")); err != nil {
		t.Fatal(err)
	}
	if err := os.Chmod(filepath.Join(dir, "skip"), 0o700); err != nil {
		t.Fatal(err)
	}
	return dir
}

// setTreeTimes pins every timestamp in the tree, symlinks included.
// Paths are collected first and stamped afterwards: stamping during
// the walk would let the walk's own directory reads disturb atimes
// again. Payload bytes depend on these values, so determinism tests
// re-pin before every build.
func setTreeTimes(t *testing.T, dir string) {
	t.Helper()
	var paths []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		paths = append(paths, p)
		return nil
	})
	if err != nil {
		t.Fatalf("collecting tree paths: %v", err)
	}
	ts := []unix.Timespec{
		unix.NsecToTimespec(treeStamp.UnixNano()),
		unix.NsecToTimespec(treeStamp.UnixNano()),
	}
	for _, p := range paths {
		if err := unix.UtimesNanoAt(unix.AT_FDCWD, p, ts, unix.AT_SYMLINK_NOFOLLOW); err != nil {
			t.Fatalf("stamping %s: %v", p, err)
		}
	}
}

func TestTreeRoundtrip(t *testing.T) {
	src := buildTestTree(t)
	setTreeTimes(t, src)

	out := filepath.Join(t.TempDir(), "tree.glif")
	sidecar, err := CreateTree(src, out, glif.DefaultConfig(), Options{})
	if err != nil {
		t.Fatalf("CreateTree: %v", err)
	}
	if sidecar.Payload.Files == nil || *sidecar.Payload.Files != 5 {
		t.Errorf("sidecar files = %v, want 5", sidecar.Payload.Files)
	}
	if sidecar.Payload.Directories == nil || *sidecar.Payload.Directories != 3 {
		t.Errorf("sidecar directories = %v, want 3", sidecar.Payload.Directories)
	}

	dest := filepath.Join(t.TempDir(), "restored")
	if err := Extract(out, dest, testPool(t, 4), Options{}); err != nil {
		t.Fatalf("Extract: %v", err)
	}

	files := []struct {
		rel     string
		content []byte
		mode    uint32
	}{
		{"README.md", []byte("# glifzip test tree\n"), 0o644},
		{"build.log", []byte("noise\n"), 0o644},
		{"docs/guide.txt", bytes.Repeat([]byte("guide "), 512), 0o640},
		{"docs/nested/data.bin", bytes.Repeat([]byte{0xAB, 0xCD}, 4096), 0o600},
		{"skip/inner.txt", []byte("inside skip\n"), 0o644},
	}
	for _, f := range files {
		p := filepath.Join(dest, filepath.FromSlash(f.rel))

		// Stat before reading: the read itself would disturb atime.
		var st unix.Stat_t
		if err := unix.Lstat(p, &st); err != nil {
			t.Fatalf("stating %s: %v", f.rel, err)
		}
		atime, mtime := statTimes(&st)
		if mtime != treeStamp.UnixNano() {
			t.Errorf("%s: mtime = %d, want %d", f.rel, mtime, treeStamp.UnixNano())
		}
		if atime != treeStamp.UnixNano() {
			t.Errorf("%s: atime = %d, want %d", f.rel, atime, treeStamp.UnixNano())
		}
		if got := uint32(st.Mode) & 0o7777; got != f.mode {
			t.Errorf("%s: mode = %04o, want %04o", f.rel, got, f.mode)
		}

		got, err := os.ReadFile(p)
		if err != nil {
			t.Fatalf("reading %s: %v", f.rel, err)
		}
		if !bytes.Equal(got, f.content) {
			t.Errorf("%s: content mismatch", f.rel)
		}
	}

	target, err := os.Readlink(filepath.Join(dest, "docs", "link.md"))
	if err != nil {
		t.Fatalf("reading restored symlink: %v", err)
	}
	if target != "../README.md" {
		t.Errorf("symlink target = %q, want %q", target, "../README.md")
	}

	// Directory metadata must survive having children written into it
	// after creation.
	var st unix.Stat_t
	if err := unix.Lstat(filepath.Join(dest, "docs"), &st); err != nil {
		t.Fatal(err)
	}
	if _, mtime := statTimes(&st); mtime != treeStamp.UnixNano() {
		t.Errorf("docs: dir mtime = %d, want %d", mtime, treeStamp.UnixNano())
	}
	if err := unix.Lstat(filepath.Join(dest, "skip"), &st); err != nil {
		t.Fatal(err)
	}
	if got := uint32(st.Mode) & 0o7777; got != 0o700 {
		t.Errorf("skip: dir mode = %04o, want 0700", got)
	}
}

func TestBuildTreePayloadDeterministic(t *testing.T) {
	src := buildTestTree(t)

	setTreeTimes(t, src)
	first, m, err := BuildTreePayload(src, true, Options{})
	if err != nil {
		t.Fatalf("BuildTreePayload: %v", err)
	}
	setTreeTimes(t, src)
	second, _, err := BuildTreePayload(src, true, Options{})
	if err != nil {
		t.Fatalf("BuildTreePayload: %v", err)
	}

	if !bytes.Equal(first, second) {
		t.Error("two walks of the same tree produced different payloads")
	}
	if m.Creator != "glifzip" {
		t.Errorf("deterministic creator = %q, want %q", m.Creator, "glifzip")
	}
	if m.Created != "2025-01-01T00:00:00Z" {
		t.Errorf("deterministic created = %q", m.Created)
	}
	if m.BaseDir != filepath.Base(src) {
		t.Errorf("base dir = %q, want %q", m.BaseDir, filepath.Base(src))
	}
}

func TestCreateTreeDeterministicArchives(t *testing.T) {
	src := buildTestTree(t)
	outDir := t.TempDir()

	archives := make([][]byte, 2)
	for i := range archives {
		setTreeTimes(t, src)
		out := filepath.Join(outDir, "tree.glif")
		if _, err := CreateTree(src, out, glif.DefaultConfig(), Options{}); err != nil {
			t.Fatalf("CreateTree %d: %v", i, err)
		}
		data, err := os.ReadFile(out)
		if err != nil {
			t.Fatal(err)
		}
		archives[i] = data
	}

	if !bytes.Equal(archives[0], archives[1]) {
		t.Error("deterministic tree archives differ between runs")
	}
}

func TestBuildTreePayloadWalkOrder(t *testing.T) {
	src := buildTestTree(t)
	setTreeTimes(t, src)

	_, m, err := BuildTreePayload(src, true, Options{})
	if err != nil {
		t.Fatalf("BuildTreePayload: %v", err)
	}

	want := []string{
		"README.md",
		"build.log",
		"docs",
		"docs/guide.txt",
		"docs/link.md",
		"docs/nested",
		"docs/nested/data.bin",
		"skip",
		"skip/inner.txt",
	}
	if len(m.Entries) != len(want) {
		t.Fatalf("got %d entries, want %d", len(m.Entries), len(want))
	}
	for i, path := range want {
		if m.Entries[i].Path != path {
			t.Errorf("entry %d = %q, want %q", i, m.Entries[i].Path, path)
		}
	}
}

func TestExcludePatterns(t *testing.T) {
	src := buildTestTree(t)
	setTreeTimes(t, src)

	opts := Options{Exclude: []string{"*.log", "skip"}}
	_, m, err := BuildTreePayload(src, true, opts)
	if err != nil {
		t.Fatalf("BuildTreePayload: %v", err)
	}

	for _, gone := range []string{"build.log", "skip", "skip/inner.txt"} {
		if _, ok := m.Find(gone); ok {
			t.Errorf("%q should have been excluded", gone)
		}
	}
	for _, kept := range []string{"README.md", "docs/guide.txt", "docs/link.md"} {
		if _, ok := m.Find(kept); !ok {
			t.Errorf("%q should have been kept", kept)
		}
	}
}

func TestExcludePathPattern(t *testing.T) {
	src := buildTestTree(t)
	setTreeTimes(t, src)

	// A slash pattern matches against the relative path; * does not
	// cross separators, so the nested file stays.
	opts := Options{Exclude: []string{"docs/*.txt"}}
	_, m, err := BuildTreePayload(src, true, opts)
	if err != nil {
		t.Fatalf("BuildTreePayload: %v", err)
	}

	if _, ok := m.Find("docs/guide.txt"); ok {
		t.Error("docs/guide.txt should have been excluded")
	}
	if _, ok := m.Find("docs/nested/data.bin"); !ok {
		t.Error("docs/nested/data.bin should have been kept")
	}
}

func TestExcludeInvalidPattern(t *testing.T) {
	src := buildTestTree(t)

	_, _, err := BuildTreePayload(src, true, Options{Exclude: []string{"["}})
	if err == nil {
		t.Fatal("BuildTreePayload accepted a malformed pattern")
	}
}

func TestBuildTreePayloadRejectsFile(t *testing.T) {
	src := buildTestTree(t)

	_, _, err := BuildTreePayload(filepath.Join(src, "README.md"), true, Options{})
	if err == nil {
		t.Fatal("BuildTreePayload accepted a non-directory")
	}
}

func TestExtractRejectsTamperedFileContent(t *testing.T) {
	src := buildTestTree(t)
	setTreeTimes(t, src)

	payload, _, err := BuildTreePayload(src, true, Options{})
	if err != nil {
		t.Fatalf("BuildTreePayload: %v", err)
	}

	// The payload tail is file content; the per-file digest must catch
	// the flip even though no archive-level digest is in play here.
	payload[len(payload)-1] ^= 0xFF

	_, err = ExtractTree(payload, t.TempDir(), Options{})
	if !errors.Is(err, glif.ErrHashMismatch) {
		t.Errorf("got %v, want ErrHashMismatch", err)
	}
}

func TestFlatRoundtrip(t *testing.T) {
	dir := t.TempDir()
	content := bytes.Repeat([]byte("flat archive payload "), 4096)
	input := filepath.Join(dir, "payload.bin")
	if err := os.WriteFile(input, content, 0o644); err != nil {
		t.Fatal(err)
	}

	out := filepath.Join(dir, "payload.bin.glif")
	sidecar, err := CreateFile(input, out, glif.DefaultConfig(), Options{})
	if err != nil {
		t.Fatalf("CreateFile: %v", err)
	}
	if sidecar.Payload.Files != nil {
		t.Error("flat archive should not carry a content summary")
	}
	if sidecar.Payload.Size != uint64(len(content)) {
		t.Errorf("sidecar payload size = %d, want %d", sidecar.Payload.Size, len(content))
	}

	dest := filepath.Join(dir, "restored.bin")
	if err := Extract(out, dest, nil, Options{}); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	got, err := os.ReadFile(dest)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, content) {
		t.Error("flat roundtrip mismatch")
	}
}

func TestReadManifest(t *testing.T) {
	src := buildTestTree(t)
	setTreeTimes(t, src)
	dir := t.TempDir()

	treeOut := filepath.Join(dir, "tree.glif")
	if _, err := CreateTree(src, treeOut, glif.DefaultConfig(), Options{}); err != nil {
		t.Fatalf("CreateTree: %v", err)
	}

	m, sidecar, err := ReadManifest(treeOut, testPool(t, 2))
	if err != nil {
		t.Fatalf("ReadManifest: %v", err)
	}
	if m == nil {
		t.Fatal("tree archive returned no manifest")
	}
	if m.Files != 5 || m.Dirs != 3 || m.Symlinks != 1 {
		t.Errorf("manifest counts = %d/%d/%d, want 5/3/1", m.Files, m.Dirs, m.Symlinks)
	}
	if sidecar == nil {
		t.Fatal("tree archive returned no sidecar")
	}

	flatOut := filepath.Join(dir, "flat.glif")
	input := filepath.Join(dir, "input.txt")
	if err := os.WriteFile(input, []byte("flat"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := CreateFile(input, flatOut, glif.DefaultConfig(), Options{}); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}

	m, sidecar, err = ReadManifest(flatOut, nil)
	if err != nil {
		t.Fatalf("ReadManifest on flat archive: %v", err)
	}
	if m != nil {
		t.Error("flat archive returned a manifest")
	}
	if sidecar == nil {
		t.Error("flat archive returned no sidecar")
	}
}

func TestVerifyFile(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "input.txt")
	if err := os.WriteFile(input, []byte("verify me"), 0o644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "input.glif")
	if _, err := CreateFile(input, out, glif.DefaultConfig(), Options{}); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}

	if _, err := VerifyFile(out); err != nil {
		t.Fatalf("VerifyFile on intact archive: %v", err)
	}

	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatal(err)
	}
	data[len(data)-1] ^= 0xFF
	if err := os.WriteFile(out, data, 0o644); err != nil {
		t.Fatal(err)
	}

	if _, err := VerifyFile(out); !errors.Is(err, glif.ErrHashMismatch) {
		t.Errorf("got %v, want ErrHashMismatch", err)
	}
}

func TestAtomicWriteLeavesNoTemp(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "input.txt")
	if err := os.WriteFile(input, []byte("tidy"), 0o644); err != nil {
		t.Fatal(err)
	}
	out := filepath.Join(dir, "out.glif")
	if _, err := CreateFile(input, out, glif.DefaultConfig(), Options{}); err != nil {
		t.Fatalf("CreateFile: %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	for _, entry := range entries {
		if name := entry.Name(); name != "input.txt" && name != "out.glif" {
			t.Errorf("unexpected leftover %q", name)
		}
	}
}

func TestExtractIntoExistingTree(t *testing.T) {
	src := buildTestTree(t)
	setTreeTimes(t, src)
	dir := t.TempDir()

	out := filepath.Join(dir, "tree.glif")
	if _, err := CreateTree(src, out, glif.DefaultConfig(), Options{}); err != nil {
		t.Fatalf("CreateTree: %v", err)
	}

	dest := filepath.Join(dir, "restored")
	for i := 0; i < 2; i++ {
		if err := Extract(out, dest, testPool(t, 2), Options{}); err != nil {
			t.Fatalf("Extract pass %d: %v", i, err)
		}
	}

	got, err := os.ReadFile(filepath.Join(dest, "README.md"))
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, []byte("# glifzip test tree\n")) {
		t.Error("double extraction corrupted content")
	}
}

func TestEmptyTree(t *testing.T) {
	src := t.TempDir()
	dir := t.TempDir()

	out := filepath.Join(dir, "empty.glif")
	sidecar, err := CreateTree(src, out, glif.DefaultConfig(), Options{})
	if err != nil {
		t.Fatalf("CreateTree on empty directory: %v", err)
	}
	if sidecar.Payload.Files == nil || *sidecar.Payload.Files != 0 {
		t.Errorf("files = %v, want 0", sidecar.Payload.Files)
	}

	dest := filepath.Join(dir, "restored")
	if err := Extract(out, dest, nil, Options{}); err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if _, err := os.Stat(dest); err != nil {
		t.Errorf("destination directory missing: %v", err)
	}
}
