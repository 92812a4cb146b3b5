package metadata

import (
	"context"

	"cadence/internal/quality"
)

// TrackMeta describes one audio file's metadata from a single origin. Zero
// values mean "this origin does not know", so merging can fill them from a
// lower-trust origin.
type TrackMeta struct {
	Title       string
	Artist      string
	AlbumArtist string
	Album       string
	TrackNumber int
	// TotalTracks is the album's declared track count, as carried by
	// "track N/M" style tags. Zero when the origin does not declare one.
	TotalTracks int
	DiscNumber  int
	Duration    int
	Year        int
	Quality     quality.Descriptor
	Composer    string
	ISRC        string
	Lyrics      string
	Explicit    bool
	CatalogIDs  map[string]string
}

// AlbumMeta describes the album-level view assembled from per-file metadata
// and identification results.
type AlbumMeta struct {
	Artist      string
	Title       string
	Year        int
	TotalTracks int
	CatalogIDs  map[string]string
}

// Extractor reads metadata for a single audio file. Implementations wrap
// embedded-tag readers and external tooling.
type Extractor interface {
	Extract(ctx context.Context, filePath string) (*TrackMeta, error)
}
