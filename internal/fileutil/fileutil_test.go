package fileutil_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"cadence/internal/fileutil"
)

func TestCopyFileVerified(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.bin")
	dst := filepath.Join(dir, "dst.bin")
	data := bytes.Repeat([]byte{0x5A}, 8192)
	if err := os.WriteFile(src, data, 0o644); err != nil {
		t.Fatalf("write src: %v", err)
	}

	if err := fileutil.CopyFileVerified(src, dst); err != nil {
		t.Fatalf("copy: %v", err)
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatalf("read dst: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatal("copied bytes differ from source")
	}
}

func TestMoveFileCreatesDestinationDir(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "song.flac")
	dst := filepath.Join(dir, "artist", "album", "song.flac")
	if err := os.WriteFile(src, []byte("audio-bytes-here"), 0o644); err != nil {
		t.Fatalf("write src: %v", err)
	}

	if err := fileutil.MoveFile(src, dst); err != nil {
		t.Fatalf("move: %v", err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatal("source should be gone after move")
	}
	if _, err := os.Stat(dst); err != nil {
		t.Fatalf("destination missing: %v", err)
	}
}

func TestRemoveDirIfEmpty(t *testing.T) {
	dir := t.TempDir()
	empty := filepath.Join(dir, "empty")
	full := filepath.Join(dir, "full")
	if err := os.MkdirAll(empty, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.MkdirAll(full, 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(full, "keep.txt"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}

	removed, err := fileutil.RemoveDirIfEmpty(empty)
	if err != nil || !removed {
		t.Fatalf("empty dir should be removed (removed=%v err=%v)", removed, err)
	}
	removed, err = fileutil.RemoveDirIfEmpty(full)
	if err != nil || removed {
		t.Fatalf("non-empty dir must survive (removed=%v err=%v)", removed, err)
	}
	removed, err = fileutil.RemoveDirIfEmpty(filepath.Join(dir, "missing"))
	if err != nil || removed {
		t.Fatalf("missing dir is a no-op (removed=%v err=%v)", removed, err)
	}
}
