package catalog_test

import (
	"context"
	"testing"

	"cadence/internal/catalog"
	"cadence/internal/quality"
	"cadence/internal/testsupport"
)

func newStore(t *testing.T) *catalog.Store {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	return testsupport.MustOpenCatalog(t, cfg)
}

func seedAlbum(t *testing.T, store *catalog.Store, artist, title string) *catalog.Album {
	t.Helper()
	ctx := context.Background()
	a, err := store.GetOrCreateArtist(ctx, artist, "/lib/"+artist)
	if err != nil {
		t.Fatalf("get or create artist: %v", err)
	}
	album := &catalog.Album{
		ArtistID:    a.ID,
		Title:       title,
		Year:        2021,
		Path:        "/lib/" + artist + "/" + title,
		TotalTracks: 2,
		Status:      catalog.AlbumPending,
	}
	if err := store.CreateAlbum(ctx, album); err != nil {
		t.Fatalf("create album: %v", err)
	}
	return album
}

func seedTrack(t *testing.T, store *catalog.Store, albumID int64, num int, sum string) *catalog.Track {
	t.Helper()
	track := &catalog.Track{
		AlbumID:     albumID,
		Title:       "Track",
		TrackNumber: num,
		DiscNumber:  1,
		Path:        "/lib/track",
		Checksum:    sum,
		Quality: quality.Descriptor{
			SampleRate: 44100,
			BitDepth:   16,
			FileSize:   1024,
			Format:     "flac",
		},
	}
	if err := store.InsertTrack(context.Background(), track); err != nil {
		t.Fatalf("insert track: %v", err)
	}
	return track
}

func TestGetOrCreateArtistReusesNormalizedName(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	first, err := store.GetOrCreateArtist(ctx, "The Beatles", "/lib/The Beatles")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	second, err := store.GetOrCreateArtist(ctx, "the beatles", "/lib/the beatles")
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected case-folded lookup to reuse artist %d, got %d", first.ID, second.ID)
	}
	if second.Name != "The Beatles" {
		t.Fatalf("expected original display name preserved, got %q", second.Name)
	}
}

func TestCreateAlbumRejectsDuplicateKey(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()

	album := seedAlbum(t, store, "Artist", "Blue Album")
	clash := &catalog.Album{
		ArtistID: album.ArtistID,
		Title:    "Blue Album (Deluxe Edition)",
		Path:     "/lib/other",
	}
	err := store.CreateAlbum(ctx, clash)
	if err == nil {
		t.Fatal("expected constraint violation for same normalized title")
	}
	if !catalog.IsConstraintViolation(err) {
		t.Fatalf("expected constraint violation, got %v", err)
	}
}

func TestInsertTrackEnforcesChecksumUniqueness(t *testing.T) {
	store := newStore(t)
	album := seedAlbum(t, store, "Artist", "Album")

	seedTrack(t, store, album.ID, 1, "aaaa")
	clash := &catalog.Track{
		AlbumID:     album.ID,
		Title:       "Other",
		TrackNumber: 2,
		DiscNumber:  1,
		Path:        "/lib/other",
		Checksum:    "aaaa",
	}
	err := store.InsertTrack(context.Background(), clash)
	if !catalog.IsConstraintViolation(err) {
		t.Fatalf("expected constraint violation on checksum reuse, got %v", err)
	}
}

func TestInsertTrackEnforcesPositionUniqueness(t *testing.T) {
	store := newStore(t)
	album := seedAlbum(t, store, "Artist", "Album")

	seedTrack(t, store, album.ID, 1, "aaaa")
	clash := &catalog.Track{
		AlbumID:     album.ID,
		Title:       "Other",
		TrackNumber: 1,
		DiscNumber:  1,
		Path:        "/lib/other",
		Checksum:    "bbbb",
	}
	err := store.InsertTrack(context.Background(), clash)
	if !catalog.IsConstraintViolation(err) {
		t.Fatalf("expected constraint violation on position reuse, got %v", err)
	}
}

func TestFindTrackByChecksum(t *testing.T) {
	store := newStore(t)
	album := seedAlbum(t, store, "Artist", "Album")
	inserted := seedTrack(t, store, album.ID, 1, "cafe01")

	found, err := store.FindTrackByChecksum(context.Background(), "cafe01")
	if err != nil {
		t.Fatalf("find by checksum: %v", err)
	}
	if found == nil || found.ID != inserted.ID {
		t.Fatalf("expected track %d, got %+v", inserted.ID, found)
	}
	missing, err := store.FindTrackByChecksum(context.Background(), "ffff")
	if err != nil {
		t.Fatalf("find missing: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for unknown checksum, got %+v", missing)
	}
}

func TestMembershipsRoundTrip(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	album := seedAlbum(t, store, "Artist", "Album")
	track := seedTrack(t, store, album.ID, 1, "aaaa")

	if err := store.AddAlbumMembership(ctx, "alice", album.ID); err != nil {
		t.Fatalf("add album membership: %v", err)
	}
	// Adding twice is a no-op, not an error.
	if err := store.AddAlbumMembership(ctx, "alice", album.ID); err != nil {
		t.Fatalf("re-add album membership: %v", err)
	}
	has, err := store.HasAlbumMembership(ctx, "alice", album.ID)
	if err != nil || !has {
		t.Fatalf("expected membership, got has=%v err=%v", has, err)
	}

	if err := store.AddTrackMembership(ctx, "alice", track.ID); err != nil {
		t.Fatalf("add track membership: %v", err)
	}
	count, err := store.CountHeartedTracksForAlbum(ctx, "alice", album.ID)
	if err != nil {
		t.Fatalf("count hearted tracks: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 hearted track, got %d", count)
	}

	if err := store.RemoveAlbumMembership(ctx, "alice", album.ID); err != nil {
		t.Fatalf("remove album membership: %v", err)
	}
	has, err = store.HasAlbumMembership(ctx, "alice", album.ID)
	if err != nil || has {
		t.Fatalf("expected membership gone, got has=%v err=%v", has, err)
	}

	consumers, err := store.Consumers(ctx)
	if err != nil {
		t.Fatalf("consumers: %v", err)
	}
	if len(consumers) != 1 || consumers[0] != "alice" {
		t.Fatalf("expected [alice], got %v", consumers)
	}
}

func TestDeleteAlbumRemovesTracksAndMemberships(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	album := seedAlbum(t, store, "Artist", "Album")
	track := seedTrack(t, store, album.ID, 1, "aaaa")
	if err := store.AddAlbumMembership(ctx, "alice", album.ID); err != nil {
		t.Fatalf("add membership: %v", err)
	}
	if err := store.AddTrackMembership(ctx, "alice", track.ID); err != nil {
		t.Fatalf("add track membership: %v", err)
	}

	if err := store.DeleteAlbum(ctx, album.ID); err != nil {
		t.Fatalf("delete album: %v", err)
	}
	if got, err := store.GetTrack(ctx, track.ID); err != nil {
		t.Fatalf("get track: %v", err)
	} else if got != nil {
		t.Fatalf("expected track deleted, got %+v", got)
	}
	consumers, err := store.Consumers(ctx)
	if err != nil {
		t.Fatalf("consumers: %v", err)
	}
	if len(consumers) != 0 {
		t.Fatalf("expected memberships removed with album, got %v", consumers)
	}
}

func TestDuplicateLogRoundTrip(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	album := seedAlbum(t, store, "Artist", "Album")
	track := seedTrack(t, store, album.ID, 1, "aaaa")

	record := &catalog.DuplicateRecord{
		Checksum:        "aaaa",
		ExistingTrackID: track.ID,
		Decision:        "keep_existing",
		Source:          "local",
		SourceURL:       "file:///downloads/dup.flac",
	}
	if err := store.LogDuplicate(ctx, record); err != nil {
		t.Fatalf("log duplicate: %v", err)
	}
	records, err := store.DuplicatesByChecksum(ctx, "aaaa")
	if err != nil {
		t.Fatalf("duplicates by checksum: %v", err)
	}
	if len(records) != 1 || records[0].Decision != "keep_existing" {
		t.Fatalf("unexpected duplicate records: %+v", records)
	}
}

func TestAlbumStatusAndMissingTracksRoundTrip(t *testing.T) {
	store := newStore(t)
	ctx := context.Background()
	album := seedAlbum(t, store, "Artist", "Album")

	album.Status = catalog.AlbumIncomplete
	album.AvailableTracks = 1
	album.MissingTracks = []string{"1-02"}
	if err := store.UpdateAlbum(ctx, album); err != nil {
		t.Fatalf("update album: %v", err)
	}
	got, err := store.GetAlbum(ctx, album.ID)
	if err != nil {
		t.Fatalf("get album: %v", err)
	}
	if got.Status != catalog.AlbumIncomplete {
		t.Fatalf("expected incomplete status, got %q", got.Status)
	}
	if len(got.MissingTracks) != 1 || got.MissingTracks[0] != "1-02" {
		t.Fatalf("unexpected missing tracks: %v", got.MissingTracks)
	}
}
