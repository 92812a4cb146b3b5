package catalog

import (
	"time"

	"cadence/internal/quality"
)

// AlbumStatus tracks whether every declared position of an album is filled.
type AlbumStatus string

const (
	// AlbumPending has no committed tracks yet.
	AlbumPending AlbumStatus = "pending"
	// AlbumIncomplete has committed tracks but unfilled declared positions.
	AlbumIncomplete AlbumStatus = "incomplete"
	// AlbumComplete has every declared position filled.
	AlbumComplete AlbumStatus = "complete"
)

// Provenance records where a track came from.
type Provenance struct {
	Source    string
	SourceURL string
}

// Artist is a catalog artist. NormName is the dedup key derived from Name.
type Artist struct {
	ID       int64
	Name     string
	NormName string
	Path     string
}

// Album is a catalog album. AvailableTracks never exceeds TotalTracks, and
// the incomplete status holds exactly when MissingTracks is non-empty.
type Album struct {
	ID              int64
	ArtistID        int64
	Title           string
	NormTitle       string
	Year            int
	Path            string
	ArtworkPath     string
	TotalTracks     int
	AvailableTracks int
	Status          AlbumStatus
	MissingTracks   []string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Track is a committed catalog track. Checksum is the content identity key,
// computed from file bytes before any catalog write and never recomputed.
type Track struct {
	ID           int64
	AlbumID      int64
	Title        string
	TrackNumber  int
	DiscNumber   int
	DurationSecs int
	Path         string
	Quality      quality.Descriptor
	Provenance   Provenance
	Checksum     string
	Composer     string
	ISRC         string
	Lyrics       string
	Explicit     bool
	CatalogIDs   map[string]string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// DuplicateRecord is the audit entry written when an incoming file resolves to
// keep-existing against a committed track.
type DuplicateRecord struct {
	ID              int64
	Checksum        string
	ExistingTrackID int64
	Decision        string
	Source          string
	SourceURL       string
	CreatedAt       time.Time
}

// Membership records a consumer's hearted state for one album or one track.
// Filesystem links are a projection of membership, rebuildable from it at any
// time; membership never claims a link that is not present.
type Membership struct {
	Consumer  string
	AlbumID   int64
	TrackID   int64
	CreatedAt time.Time
}
