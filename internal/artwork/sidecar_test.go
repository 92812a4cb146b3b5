package artwork_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"cadence/internal/artwork"
)

func writeBytes(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestSidecarCopiesCoverNextToAudio(t *testing.T) {
	staged := t.TempDir()
	albumDir := t.TempDir()
	writeBytes(t, filepath.Join(staged, "01 - Track.flac"), []byte("audio"))
	writeBytes(t, filepath.Join(staged, "cover.jpg"), []byte("jpegbytes"))

	extractor := artwork.NewSidecarExtractor()
	path, err := extractor.ExtractEmbedded(context.Background(), filepath.Join(staged, "01 - Track.flac"), albumDir)
	if err != nil {
		t.Fatalf("ExtractEmbedded: %v", err)
	}
	want := filepath.Join(albumDir, "cover.jpg")
	if path != want {
		t.Fatalf("artwork path = %q, want %q", path, want)
	}
	data, err := os.ReadFile(want)
	if err != nil || string(data) != "jpegbytes" {
		t.Fatalf("copied cover = %q, %v", data, err)
	}
}

func TestSidecarPrefersCoverOverFolder(t *testing.T) {
	staged := t.TempDir()
	albumDir := t.TempDir()
	audio := filepath.Join(staged, "track.flac")
	writeBytes(t, audio, []byte("audio"))
	writeBytes(t, filepath.Join(staged, "folder.png"), []byte("folder"))
	writeBytes(t, filepath.Join(staged, "Cover.PNG"), []byte("cover"))

	path, err := artwork.NewSidecarExtractor().ExtractEmbedded(context.Background(), audio, albumDir)
	if err != nil {
		t.Fatalf("ExtractEmbedded: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "cover" {
		t.Fatalf("copied cover = %q, %v", data, err)
	}
}

func TestSidecarReturnsEmptyWithoutCover(t *testing.T) {
	staged := t.TempDir()
	audio := filepath.Join(staged, "track.flac")
	writeBytes(t, audio, []byte("audio"))

	path, err := artwork.NewSidecarExtractor().ExtractEmbedded(context.Background(), audio, t.TempDir())
	if err != nil {
		t.Fatalf("ExtractEmbedded: %v", err)
	}
	if path != "" {
		t.Fatalf("expected no artwork, got %q", path)
	}
}
