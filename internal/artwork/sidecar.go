package artwork

import (
	"context"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"cadence/internal/fileutil"
)

// sidecarNames are the cover file names sources commonly ship alongside the
// audio, in preference order.
var sidecarNames = []string{"cover", "folder", "front", "album"}

var sidecarExtensions = []string{".jpg", ".jpeg", ".png"}

// SidecarExtractor satisfies Extractor by picking up a cover image sitting
// next to the audio files instead of decoding anything out of them.
type SidecarExtractor struct{}

// NewSidecarExtractor returns an extractor that copies sidecar cover files.
func NewSidecarExtractor() *SidecarExtractor {
	return &SidecarExtractor{}
}

// ExtractEmbedded copies the best sidecar cover from the audio file's
// directory into albumDir and returns its new path, or "" when the
// directory carries none.
func (SidecarExtractor) ExtractEmbedded(_ context.Context, audioPath, albumDir string) (string, error) {
	source := findSidecar(filepath.Dir(audioPath))
	if source == "" {
		return "", nil
	}
	dst := filepath.Join(albumDir, "cover"+strings.ToLower(filepath.Ext(source)))
	if err := fileutil.CopyFile(source, dst); err != nil {
		return "", err
	}
	return dst, nil
}

func findSidecar(dir string) string {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return ""
	}
	best := ""
	bestRank := len(sidecarNames)
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if !slices.Contains(sidecarExtensions, ext) {
			continue
		}
		base := strings.ToLower(strings.TrimSuffix(name, filepath.Ext(name)))
		for rank, candidate := range sidecarNames {
			if base == candidate && rank < bestRank {
				best = filepath.Join(dir, name)
				bestRank = rank
			}
		}
	}
	return best
}
