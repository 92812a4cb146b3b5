package metadata

import "sort"

// Origin names a metadata source. Lower values are trusted more: a field
// present in a higher-trust layer is never overwritten by a lower one.
type Origin int

const (
	OriginIdentification Origin = iota
	OriginSourceAPI
	OriginEmbedded
	OriginFilename
)

// String returns the origin's display name.
func (o Origin) String() string {
	switch o {
	case OriginIdentification:
		return "identification"
	case OriginSourceAPI:
		return "source_api"
	case OriginEmbedded:
		return "embedded"
	case OriginFilename:
		return "filename"
	default:
		return "unknown"
	}
}

// Layer pairs track metadata with the origin that produced it.
type Layer struct {
	Origin Origin
	Meta   TrackMeta
}

// Merge combines layers field by field, most trusted origin first. Layers may
// arrive in any order; ties on origin keep the earlier layer. The quality
// descriptor is taken whole from the most trusted layer that reports one at
// all, since mixing numeric fields across origins would fabricate a
// descriptor no source ever reported.
func Merge(layers ...Layer) TrackMeta {
	sorted := make([]Layer, len(layers))
	copy(sorted, layers)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Origin < sorted[j].Origin })

	var merged TrackMeta
	qualitySet := false
	for _, layer := range sorted {
		m := layer.Meta
		if merged.Title == "" {
			merged.Title = m.Title
		}
		if merged.Artist == "" {
			merged.Artist = m.Artist
		}
		if merged.AlbumArtist == "" {
			merged.AlbumArtist = m.AlbumArtist
		}
		if merged.Album == "" {
			merged.Album = m.Album
		}
		if merged.TrackNumber == 0 {
			merged.TrackNumber = m.TrackNumber
		}
		if merged.TotalTracks == 0 {
			merged.TotalTracks = m.TotalTracks
		}
		if merged.DiscNumber == 0 {
			merged.DiscNumber = m.DiscNumber
		}
		if merged.Duration == 0 {
			merged.Duration = m.Duration
		}
		if merged.Year == 0 {
			merged.Year = m.Year
		}
		if !qualitySet && !m.Quality.IsZero() {
			merged.Quality = m.Quality
			qualitySet = true
		}
		if merged.Composer == "" {
			merged.Composer = m.Composer
		}
		if merged.ISRC == "" {
			merged.ISRC = m.ISRC
		}
		if merged.Lyrics == "" {
			merged.Lyrics = m.Lyrics
		}
		if !merged.Explicit && m.Explicit {
			merged.Explicit = true
		}
		for key, value := range m.CatalogIDs {
			if merged.CatalogIDs == nil {
				merged.CatalogIDs = make(map[string]string)
			}
			if _, exists := merged.CatalogIDs[key]; !exists {
				merged.CatalogIDs[key] = value
			}
		}
	}
	return merged
}
