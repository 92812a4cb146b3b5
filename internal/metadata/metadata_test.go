package metadata_test

import (
	"testing"

	"cadence/internal/metadata"
	"cadence/internal/quality"
)

func TestMergeRespectsTrustOrder(t *testing.T) {
	merged := metadata.Merge(
		metadata.Layer{Origin: metadata.OriginFilename, Meta: metadata.TrackMeta{
			Title:       "02 Something",
			TrackNumber: 2,
		}},
		metadata.Layer{Origin: metadata.OriginEmbedded, Meta: metadata.TrackMeta{
			Title:  "Something",
			Artist: "Tag Artist",
			Album:  "Tag Album",
			Quality: quality.Descriptor{
				SampleRate: 44100,
				BitDepth:   16,
				FileSize:   900,
				Format:     "flac",
			},
		}},
		metadata.Layer{Origin: metadata.OriginIdentification, Meta: metadata.TrackMeta{
			Artist:     "Canonical Artist",
			Album:      "Canonical Album",
			Year:       1997,
			CatalogIDs: map[string]string{"musicbrainz": "mbid-1"},
		}},
	)

	if merged.Artist != "Canonical Artist" {
		t.Fatalf("expected identification artist to win, got %q", merged.Artist)
	}
	if merged.Album != "Canonical Album" {
		t.Fatalf("expected identification album to win, got %q", merged.Album)
	}
	if merged.Title != "Something" {
		t.Fatalf("expected embedded title to fill the gap, got %q", merged.Title)
	}
	if merged.TrackNumber != 2 {
		t.Fatalf("expected filename track number to fill the gap, got %d", merged.TrackNumber)
	}
	if merged.Year != 1997 {
		t.Fatalf("expected year from identification, got %d", merged.Year)
	}
	if merged.Quality.SampleRate != 44100 {
		t.Fatalf("expected embedded quality descriptor, got %+v", merged.Quality)
	}
	if merged.CatalogIDs["musicbrainz"] != "mbid-1" {
		t.Fatalf("expected catalog ids preserved, got %v", merged.CatalogIDs)
	}
}

func TestMergeHigherTrustNeverOverwritten(t *testing.T) {
	merged := metadata.Merge(
		metadata.Layer{Origin: metadata.OriginIdentification, Meta: metadata.TrackMeta{Artist: "Right"}},
		metadata.Layer{Origin: metadata.OriginFilename, Meta: metadata.TrackMeta{Artist: "Wrong"}},
	)
	if merged.Artist != "Right" {
		t.Fatalf("lower-trust layer overwrote artist: %q", merged.Artist)
	}
}

func TestMergeAdoptsQualityWithoutFileSize(t *testing.T) {
	merged := metadata.Merge(
		metadata.Layer{Origin: metadata.OriginSourceAPI, Meta: metadata.TrackMeta{
			Quality: quality.Descriptor{Bitrate: 320000, Format: "mp3", Lossy: true},
		}},
		metadata.Layer{Origin: metadata.OriginEmbedded, Meta: metadata.TrackMeta{
			Quality: quality.Descriptor{SampleRate: 44100, BitDepth: 16, FileSize: 900, Format: "flac"},
		}},
	)
	if merged.Quality.Format != "mp3" || !merged.Quality.Lossy {
		t.Fatalf("expected the more trusted lossy descriptor adopted whole, got %+v", merged.Quality)
	}
	if merged.Quality.Bitrate != 320000 {
		t.Fatalf("expected bitrate carried over, got %d", merged.Quality.Bitrate)
	}
}

func TestMergeFillsDeclaredTotal(t *testing.T) {
	merged := metadata.Merge(
		metadata.Layer{Origin: metadata.OriginIdentification, Meta: metadata.TrackMeta{Artist: "A"}},
		metadata.Layer{Origin: metadata.OriginEmbedded, Meta: metadata.TrackMeta{TotalTracks: 12}},
	)
	if merged.TotalTracks != 12 {
		t.Fatalf("expected declared total filled from embedded tags, got %d", merged.TotalTracks)
	}
}

func TestParseFilename(t *testing.T) {
	tests := []struct {
		path  string
		title string
		track int
		disc  int
	}{
		{"/staging/01 Opening Theme.flac", "Opening Theme", 1, 0},
		{"/staging/1-02 Second Movement.flac", "Second Movement", 2, 1},
		{"/staging/03 - Dashed Title.mp3", "Dashed Title", 3, 0},
		{"/staging/No Numbers Here.ogg", "No Numbers Here", 0, 0},
	}
	for _, tc := range tests {
		meta := metadata.ParseFilename(tc.path)
		if meta.Title != tc.title || meta.TrackNumber != tc.track || meta.DiscNumber != tc.disc {
			t.Errorf("ParseFilename(%q) = %+v, want title=%q track=%d disc=%d",
				tc.path, meta, tc.title, tc.track, tc.disc)
		}
	}
}

func TestValidatorDetectsPlaceholders(t *testing.T) {
	v := metadata.NewValidator(nil)
	placeholders := []string{
		"", "  ", "01", "Track 05", "track_3", "Untitled", "Unknown Artist",
		"unknown", "Various Artists", "VA", "N/A", "audio 2",
	}
	for _, value := range placeholders {
		if !v.IsPlaceholder(value) {
			t.Errorf("expected %q detected as placeholder", value)
		}
	}
	real := []string{"Abbey Road", "Blackstar", "4'33\"", "1999"}
	for _, value := range real[:3] {
		if v.IsPlaceholder(value) {
			t.Errorf("expected %q accepted", value)
		}
	}
	// Purely numeric titles are indistinguishable from track-number dumps.
	if !v.IsPlaceholder("1999") {
		t.Error("expected bare numeric value treated as placeholder")
	}
}

func TestValidatorExtraPatterns(t *testing.T) {
	v := metadata.NewValidator([]string{`^ripped by .*$`})
	if !v.IsPlaceholder("Ripped By SceneGroup") {
		t.Error("expected extra pattern to match case-insensitively")
	}
}

func TestValidateTrackReasons(t *testing.T) {
	v := metadata.NewValidator(nil)
	if reason := v.ValidateTrack(metadata.TrackMeta{Artist: "A", Album: "B", Title: "C"}); reason != "" {
		t.Fatalf("expected valid track, got %q", reason)
	}
	if reason := v.ValidateTrack(metadata.TrackMeta{Artist: "Unknown Artist", Album: "B", Title: "C"}); reason == "" {
		t.Fatal("expected placeholder artist rejected")
	}
	// Album artist rescues a per-track placeholder artist.
	meta := metadata.TrackMeta{Artist: "unknown", AlbumArtist: "Real Band", Album: "B", Title: "C"}
	if reason := v.ValidateTrack(meta); reason != "" {
		t.Fatalf("expected album artist to satisfy validation, got %q", reason)
	}
}
