package importer

import (
	"fmt"
	"path/filepath"
	"strings"

	"cadence/internal/textutil"
)

// albumDir returns the canonical album directory for display names.
func albumDir(libraryDir, artist, album string) string {
	return filepath.Join(libraryDir,
		textutil.SanitizePathComponent(artist),
		textutil.SanitizePathComponent(album))
}

// trackFileName renders the canonical file name for a committed track. Disc
// numbers appear only on multi-disc albums.
func trackFileName(discNumber, trackNumber int, title, ext string, multiDisc bool) string {
	title = textutil.SanitizeFileName(title)
	if title == "" {
		title = fmt.Sprintf("Track %02d", trackNumber)
	}
	ext = strings.ToLower(ext)
	if multiDisc && discNumber > 0 {
		return fmt.Sprintf("%d-%02d %s%s", discNumber, trackNumber, title, ext)
	}
	return fmt.Sprintf("%02d %s%s", trackNumber, title, ext)
}

// positionKey names an album slot for the missing-tracks list.
func positionKey(discNumber, trackNumber int) string {
	if discNumber <= 0 {
		discNumber = 1
	}
	return fmt.Sprintf("%d-%02d", discNumber, trackNumber)
}
