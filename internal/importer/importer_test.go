package importer_test

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"cadence/internal/catalog"
	"cadence/internal/config"
	"cadence/internal/identify"
	"cadence/internal/importer"
	"cadence/internal/metadata"
	"cadence/internal/quality"
	"cadence/internal/review"
	"cadence/internal/services"
	"cadence/internal/testsupport"
)

// tagExtractor fakes embedded-tag reading keyed by file base name.
type tagExtractor struct {
	tags map[string]metadata.TrackMeta
}

func (e *tagExtractor) Extract(_ context.Context, filePath string) (*metadata.TrackMeta, error) {
	meta, ok := e.tags[filepath.Base(filePath)]
	if !ok {
		return &metadata.TrackMeta{}, nil
	}
	return &meta, nil
}

type fixedIdentifier struct {
	result *identify.Result
	err    error
}

func (f *fixedIdentifier) Identify(context.Context, string) (*identify.Result, error) {
	return f.result, f.err
}

type env struct {
	cfg     *config.Config
	store   *catalog.Store
	reviews *review.Store
	orch    *importer.Orchestrator
}

func newEnv(t *testing.T, deps importer.Deps) *env {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenCatalog(t, cfg)
	reviews := testsupport.MustOpenReviews(t, cfg)
	return &env{
		cfg:     cfg,
		store:   store,
		reviews: reviews,
		orch:    importer.New(cfg, store, reviews, deps),
	}
}

func stageAlbum(t *testing.T, cfg *config.Config, files map[string]byte) string {
	t.Helper()
	dir := filepath.Join(cfg.Paths.StagingDir, t.Name()+"-item")
	for name, seed := range files {
		testsupport.WriteAudio(t, filepath.Join(dir, name), 4096, seed)
	}
	return dir
}

func flacMeta(artist, album, title string, num int) metadata.TrackMeta {
	return metadata.TrackMeta{
		Artist:      artist,
		Album:       album,
		Title:       title,
		TrackNumber: num,
		Quality: quality.Descriptor{
			SampleRate: 44100,
			BitDepth:   16,
			FileSize:   4096,
			Format:     "flac",
		},
	}
}

func filesUnder(t *testing.T, root string) []string {
	t.Helper()
	var found []string
	err := filepath.WalkDir(root, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if os.IsNotExist(walkErr) {
				return nil
			}
			return walkErr
		}
		if !entry.IsDir() {
			found = append(found, path)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("walk %s: %v", root, err)
	}
	return found
}

func TestImportCommitsNewAlbum(t *testing.T) {
	extractor := &tagExtractor{tags: map[string]metadata.TrackMeta{
		"01 First.flac":  flacMeta("The Band", "Debut", "First", 1),
		"02 Second.flac": flacMeta("The Band", "Debut", "Second", 2),
	}}
	e := newEnv(t, importer.Deps{Extractor: extractor})
	staged := stageAlbum(t, e.cfg, map[string]byte{"01 First.flac": 1, "02 Second.flac": 2})
	ctx := context.Background()

	result, err := e.orch.Import(ctx, staged, catalog.Provenance{Source: "local"})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.Disposition != importer.Committed {
		t.Fatalf("expected committed, got %s (%s)", result.Disposition, result.Reason)
	}
	if result.Imported != 2 {
		t.Fatalf("expected 2 imported, got %d", result.Imported)
	}

	album := result.Album
	if album.Status != catalog.AlbumComplete {
		t.Fatalf("expected complete album, got %s (missing %v)", album.Status, album.MissingTracks)
	}
	tracks, err := e.store.TracksByAlbum(ctx, album.ID)
	if err != nil {
		t.Fatalf("tracks: %v", err)
	}
	if len(tracks) != 2 {
		t.Fatalf("expected 2 tracks, got %d", len(tracks))
	}
	for _, track := range tracks {
		if !strings.HasPrefix(track.Path, e.cfg.Paths.LibraryDir) {
			t.Fatalf("track path %s not under library", track.Path)
		}
		if _, err := os.Stat(track.Path); err != nil {
			t.Fatalf("committed track file missing: %v", err)
		}
		if track.Checksum == "" {
			t.Fatal("committed track without checksum")
		}
	}
	if _, err := os.Stat(staged); !os.IsNotExist(err) {
		t.Fatalf("staged dir should be removed after commit, stat err: %v", err)
	}
}

func TestChecksumIdentityImportingTwiceYieldsOneTrack(t *testing.T) {
	extractor := &tagExtractor{tags: map[string]metadata.TrackMeta{
		"01 Only.flac": flacMeta("Solo", "Single", "Only", 1),
	}}
	e := newEnv(t, importer.Deps{Extractor: extractor})
	ctx := context.Background()

	first := stageAlbum(t, e.cfg, map[string]byte{"01 Only.flac": 7})
	if _, err := e.orch.Import(ctx, first, catalog.Provenance{Source: "a"}); err != nil {
		t.Fatalf("first import: %v", err)
	}

	// Same bytes staged again from another source.
	second := stageAlbum(t, e.cfg, map[string]byte{"01 Only.flac": 7})
	result, err := e.orch.Import(ctx, second, catalog.Provenance{Source: "b", SourceURL: "b://again"})
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if result.Disposition != importer.DuplicateOnly {
		t.Fatalf("expected duplicate outcome, got %s", result.Disposition)
	}

	albums, err := e.store.ListAlbums(ctx)
	if err != nil {
		t.Fatalf("list albums: %v", err)
	}
	if len(albums) != 1 {
		t.Fatalf("expected 1 album, got %d", len(albums))
	}
	tracks, err := e.store.TracksByAlbum(ctx, albums[0].ID)
	if err != nil {
		t.Fatalf("tracks: %v", err)
	}
	if len(tracks) != 1 {
		t.Fatalf("expected exactly one track row, got %d", len(tracks))
	}
	dupes, err := e.store.DuplicatesByChecksum(ctx, tracks[0].Checksum)
	if err != nil {
		t.Fatalf("duplicates: %v", err)
	}
	if len(dupes) != 1 || dupes[0].Source != "b" {
		t.Fatalf("expected audit record from second source, got %+v", dupes)
	}
}

func TestPlaceholderMetadataRoutedToReview(t *testing.T) {
	extractor := &tagExtractor{tags: map[string]metadata.TrackMeta{
		"01 Track 01.flac": flacMeta("Unknown Artist", "Untitled", "Track 01", 1),
	}}
	e := newEnv(t, importer.Deps{Extractor: extractor})
	staged := stageAlbum(t, e.cfg, map[string]byte{"01 Track 01.flac": 3})
	ctx := context.Background()

	result, err := e.orch.Import(ctx, staged, catalog.Provenance{Source: "local"})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.Disposition != importer.RoutedToReview {
		t.Fatalf("expected review routing, got %s", result.Disposition)
	}
	item, err := e.reviews.Get(ctx, result.ReviewID)
	if err != nil {
		t.Fatalf("review item: %v", err)
	}
	if item.Status != review.StatusPending {
		t.Fatalf("expected pending review item, got %s", item.Status)
	}
	// No file moves happen before routing.
	if _, err := os.Stat(filepath.Join(staged, "01 Track 01.flac")); err != nil {
		t.Fatalf("staged file must remain for review: %v", err)
	}
	if got := filesUnder(t, e.cfg.Paths.LibraryDir); len(got) != 0 {
		t.Fatalf("library must stay untouched, found %v", got)
	}
}

func TestLowConfidenceRoutedToReview(t *testing.T) {
	extractor := &tagExtractor{tags: map[string]metadata.TrackMeta{
		"01 Song.flac": flacMeta("Maybe Artist", "Maybe Album", "Song", 1),
	}}
	identifier := &fixedIdentifier{result: &identify.Result{
		Artist: "Maybe Artist", Album: "Maybe Album", Confidence: 0.41,
	}}
	e := newEnv(t, importer.Deps{Extractor: extractor, Identifier: identifier})
	staged := stageAlbum(t, e.cfg, map[string]byte{"01 Song.flac": 4})

	result, err := e.orch.Import(context.Background(), staged, catalog.Provenance{Source: "local"})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.Disposition != importer.RoutedToReview {
		t.Fatalf("expected review routing, got %s", result.Disposition)
	}
	item, err := e.reviews.Get(context.Background(), result.ReviewID)
	if err != nil {
		t.Fatalf("review item: %v", err)
	}
	if item.SuggestedArtist != "Maybe Artist" || item.Confidence != 0.41 {
		t.Fatalf("expected suggestion carried to review, got %+v", item)
	}
}

func TestTruncatedFileRoutedToReview(t *testing.T) {
	extractor := &tagExtractor{tags: map[string]metadata.TrackMeta{
		"01 Short.flac": flacMeta("Artist", "Album", "Short", 1),
	}}
	e := newEnv(t, importer.Deps{Extractor: extractor})
	staged := filepath.Join(e.cfg.Paths.StagingDir, "truncated-item")
	// Below the minimum plausible audio stream size.
	testsupport.WriteFile(t, filepath.Join(staged, "01 Short.flac"), []byte("too short"))

	result, err := e.orch.Import(context.Background(), staged, catalog.Provenance{Source: "local"})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.Disposition != importer.RoutedToReview {
		t.Fatalf("expected integrity routing, got %s", result.Disposition)
	}
	if !strings.Contains(result.Reason, "integrity") {
		t.Fatalf("expected integrity reason, got %q", result.Reason)
	}
}

func TestNoOrphanOnFailureAfterMove(t *testing.T) {
	extractor := &tagExtractor{tags: map[string]metadata.TrackMeta{
		"01 First.flac":  flacMeta("The Band", "Debut", "First", 1),
		"02 Second.flac": flacMeta("The Band", "Debut", "Second", 2),
	}}
	e := newEnv(t, importer.Deps{Extractor: extractor})
	staged := stageAlbum(t, e.cfg, map[string]byte{"01 First.flac": 1, "02 Second.flac": 2})
	ctx := context.Background()

	// Block the second track's destination so its move fails after the first
	// file has already been relocated.
	blocked := filepath.Join(e.cfg.Paths.LibraryDir, "The Band", "Debut", "02 Second.flac")
	if err := os.MkdirAll(filepath.Join(blocked, "inner"), 0o755); err != nil {
		t.Fatalf("block destination: %v", err)
	}

	_, err := e.orch.Import(ctx, staged, catalog.Provenance{Source: "local"})
	if !errors.Is(err, services.ErrCommitFailed) {
		t.Fatalf("expected commit failure, got %v", err)
	}

	// The already-moved first file must be in quarantine, not stranded in the
	// library without a row.
	quarantined := filesUnder(t, e.cfg.Paths.QuarantineDir)
	if len(quarantined) != 1 || filepath.Base(quarantined[0]) != "01 First.flac" {
		t.Fatalf("expected first file quarantined, got %v", quarantined)
	}
	albums, err := e.store.ListAlbums(ctx)
	if err != nil {
		t.Fatalf("list albums: %v", err)
	}
	for _, album := range albums {
		tracks, err := e.store.TracksByAlbum(ctx, album.ID)
		if err != nil {
			t.Fatalf("tracks: %v", err)
		}
		if len(tracks) != 0 {
			t.Fatalf("expected no committed tracks, got %d", len(tracks))
		}
	}
	// The unmoved second file stays in staging for a retry.
	if _, err := os.Stat(filepath.Join(staged, "02 Second.flac")); err != nil {
		t.Fatalf("unmoved file must remain staged: %v", err)
	}
}

func TestIncompleteAlbumConvergesAcrossProvenances(t *testing.T) {
	extractor := &tagExtractor{tags: map[string]metadata.TrackMeta{
		"01 One.flac":   flacMeta("Duo", "Triptych", "One", 1),
		"03 Three.flac": flacMeta("Duo", "Triptych", "Three", 3),
		"02 Two.flac":   flacMeta("Duo", "Triptych", "Two", 2),
	}}
	e := newEnv(t, importer.Deps{Extractor: extractor})
	ctx := context.Background()

	first := stageAlbum(t, e.cfg, map[string]byte{"01 One.flac": 1, "03 Three.flac": 3})
	result, err := e.orch.Import(ctx, first, catalog.Provenance{Source: "alpha"})
	if err != nil {
		t.Fatalf("first import: %v", err)
	}
	album := result.Album
	if album.Status != catalog.AlbumIncomplete {
		t.Fatalf("expected incomplete album, got %s", album.Status)
	}
	if len(album.MissingTracks) != 1 || album.MissingTracks[0] != "1-02" {
		t.Fatalf("expected missing position 1-02, got %v", album.MissingTracks)
	}

	missing, err := e.orch.MissingPositions(ctx, album.ID)
	if err != nil {
		t.Fatalf("missing positions: %v", err)
	}
	if len(missing) != 1 {
		t.Fatalf("expected one missing position for supplementary acquisition, got %v", missing)
	}

	// Supplementary acquisition from a second source supplies the gap.
	second := stageAlbum(t, e.cfg, map[string]byte{"02 Two.flac": 2})
	result, err = e.orch.Import(ctx, second, catalog.Provenance{Source: "beta"})
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	album = result.Album
	if album.Status != catalog.AlbumComplete {
		t.Fatalf("expected complete album, got %s (missing %v)", album.Status, album.MissingTracks)
	}
	if album.AvailableTracks != 3 || album.TotalTracks != 3 {
		t.Fatalf("unexpected counts: %d/%d", album.AvailableTracks, album.TotalTracks)
	}

	tracks, err := e.store.TracksByAlbum(ctx, album.ID)
	if err != nil {
		t.Fatalf("tracks: %v", err)
	}
	sources := make(map[string]int)
	for _, track := range tracks {
		sources[track.Provenance.Source]++
	}
	if sources["alpha"] != 2 || sources["beta"] != 1 {
		t.Fatalf("expected mixed provenance preserved, got %v", sources)
	}
}

func TestHigherQualityReplacesExistingTrack(t *testing.T) {
	lossy := flacMeta("The Band", "Debut", "First", 1)
	lossy.Quality = quality.Descriptor{SampleRate: 44100, Bitrate: 320000, FileSize: 4096, Format: "mp3", Lossy: true}
	extractor := &tagExtractor{tags: map[string]metadata.TrackMeta{
		"01 First.mp3":  lossy,
		"01 First.flac": flacMeta("The Band", "Debut", "First", 1),
	}}
	e := newEnv(t, importer.Deps{Extractor: extractor})
	ctx := context.Background()

	first := stageAlbum(t, e.cfg, map[string]byte{"01 First.mp3": 1})
	if _, err := e.orch.Import(ctx, first, catalog.Provenance{Source: "lossy-source"}); err != nil {
		t.Fatalf("first import: %v", err)
	}

	second := stageAlbum(t, e.cfg, map[string]byte{"01 First.flac": 9})
	result, err := e.orch.Import(ctx, second, catalog.Provenance{Source: "lossless-source"})
	if err != nil {
		t.Fatalf("second import: %v", err)
	}
	if result.Replaced != 1 || result.Imported != 0 {
		t.Fatalf("expected one replacement, got %+v", result)
	}

	tracks, err := e.store.TracksByAlbum(ctx, result.Album.ID)
	if err != nil {
		t.Fatalf("tracks: %v", err)
	}
	if len(tracks) != 1 {
		t.Fatalf("expected a single row after replacement, got %d", len(tracks))
	}
	track := tracks[0]
	if track.Quality.Lossy {
		t.Fatal("expected lossless descriptor after replacement")
	}
	if track.Provenance.Source != "lossless-source" {
		t.Fatalf("expected provenance updated, got %s", track.Provenance.Source)
	}
	if _, err := os.Stat(track.Path); err != nil {
		t.Fatalf("replaced file missing: %v", err)
	}
}

func TestCommitReviewedRefusesPlaceholderCorrection(t *testing.T) {
	extractor := &tagExtractor{tags: map[string]metadata.TrackMeta{
		"01 Track 01.flac": flacMeta("Unknown Artist", "Untitled", "Track 01", 1),
	}}
	e := newEnv(t, importer.Deps{Extractor: extractor})
	staged := stageAlbum(t, e.cfg, map[string]byte{"01 Track 01.flac": 5})

	err := e.orch.CommitReviewed(context.Background(), staged, review.Correction{
		Artist: "unknown", Album: "untitled",
	})
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestRemoveAlbumDeletesFilesBeforeRows(t *testing.T) {
	extractor := &tagExtractor{tags: map[string]metadata.TrackMeta{
		"01 First.flac":  flacMeta("The Band", "Debut", "First", 1),
		"02 Second.flac": flacMeta("The Band", "Debut", "Second", 2),
	}}
	e := newEnv(t, importer.Deps{Extractor: extractor})
	ctx := context.Background()
	staged := stageAlbum(t, e.cfg, map[string]byte{"01 First.flac": 1, "02 Second.flac": 2})
	result, err := e.orch.Import(ctx, staged, catalog.Provenance{Source: "local"})
	if err != nil {
		t.Fatalf("import: %v", err)
	}

	if err := e.orch.RemoveAlbum(ctx, result.Album.ID); err != nil {
		t.Fatalf("remove album: %v", err)
	}
	if album, err := e.store.GetAlbum(ctx, result.Album.ID); err != nil || album != nil {
		t.Fatalf("expected album row gone, got %v err=%v", album, err)
	}
	if got := filesUnder(t, e.cfg.Paths.LibraryDir); len(got) != 0 {
		t.Fatalf("expected library files gone, found %v", got)
	}
}

func TestRemoveAlbumKeepsRowsWhenFileRemovalFails(t *testing.T) {
	extractor := &tagExtractor{tags: map[string]metadata.TrackMeta{
		"01 First.flac": flacMeta("The Band", "Debut", "First", 1),
	}}
	e := newEnv(t, importer.Deps{Extractor: extractor})
	ctx := context.Background()
	staged := stageAlbum(t, e.cfg, map[string]byte{"01 First.flac": 1})
	result, err := e.orch.Import(ctx, staged, catalog.Provenance{Source: "local"})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	tracks, err := e.store.TracksByAlbum(ctx, result.Album.ID)
	if err != nil || len(tracks) != 1 {
		t.Fatalf("tracks: %v %v", tracks, err)
	}

	// Swap the committed file for a non-empty directory so os.Remove fails.
	if err := os.Remove(tracks[0].Path); err != nil {
		t.Fatalf("clear path: %v", err)
	}
	if err := os.MkdirAll(filepath.Join(tracks[0].Path, "inner"), 0o755); err != nil {
		t.Fatalf("block path: %v", err)
	}

	err = e.orch.RemoveAlbum(ctx, result.Album.ID)
	if !errors.Is(err, services.ErrCommitFailed) {
		t.Fatalf("expected deletion failure, got %v", err)
	}
	if album, err := e.store.GetAlbum(ctx, result.Album.ID); err != nil || album == nil {
		t.Fatalf("album row must survive failed deletion, got %v err=%v", album, err)
	}
	if remaining, err := e.store.TracksByAlbum(ctx, result.Album.ID); err != nil || len(remaining) != 1 {
		t.Fatalf("track row must survive failed deletion, got %v err=%v", remaining, err)
	}
}

func TestCommitReviewedCommitsWithCorrection(t *testing.T) {
	extractor := &tagExtractor{tags: map[string]metadata.TrackMeta{
		"01 Track 01.flac": flacMeta("Unknown Artist", "Untitled", "Opener", 1),
	}}
	e := newEnv(t, importer.Deps{Extractor: extractor})
	staged := stageAlbum(t, e.cfg, map[string]byte{"01 Track 01.flac": 5})
	ctx := context.Background()

	err := e.orch.CommitReviewed(ctx, staged, review.Correction{
		Artist: "Real Artist", Album: "Real Album",
	})
	if err != nil {
		t.Fatalf("commit reviewed: %v", err)
	}

	artist, err := e.store.FindArtistByName(ctx, "Real Artist")
	if err != nil || artist == nil {
		t.Fatalf("expected corrected artist committed, got %v err=%v", artist, err)
	}
	album, err := e.store.FindAlbumByKey(ctx, artist.ID, "Real Album")
	if err != nil || album == nil {
		t.Fatalf("expected corrected album committed, got %v err=%v", album, err)
	}
}

func TestIdenticalBytesWithinOneBatchCommitOnce(t *testing.T) {
	extractor := &tagExtractor{tags: map[string]metadata.TrackMeta{
		"01 First.flac":  flacMeta("The Band", "Debut", "First", 1),
		"02 Second.flac": flacMeta("The Band", "Debut", "Second", 2),
	}}
	e := newEnv(t, importer.Deps{Extractor: extractor})
	ctx := context.Background()

	// Same seed, so both staged files carry identical bytes.
	staged := stageAlbum(t, e.cfg, map[string]byte{"01 First.flac": 4, "02 Second.flac": 4})
	result, err := e.orch.Import(ctx, staged, catalog.Provenance{Source: "local"})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	if result.Disposition != importer.Committed {
		t.Fatalf("expected committed, got %s (%s)", result.Disposition, result.Reason)
	}
	if result.Imported != 1 || result.Duplicates != 1 {
		t.Fatalf("expected one import and one duplicate, got %+v", result)
	}

	tracks, err := e.store.TracksByAlbum(ctx, result.Album.ID)
	if err != nil {
		t.Fatalf("tracks: %v", err)
	}
	if len(tracks) != 1 {
		t.Fatalf("expected one track row, got %d", len(tracks))
	}
	if leftovers := filesUnder(t, e.cfg.Paths.QuarantineDir); len(leftovers) != 0 {
		t.Fatalf("expected empty quarantine, found %v", leftovers)
	}
	if _, err := os.Stat(staged); !os.IsNotExist(err) {
		t.Fatalf("staged dir should be removed after commit, stat err: %v", err)
	}
}

func TestDeclaredTotalMarksTrailingShortfallIncomplete(t *testing.T) {
	one := flacMeta("Duo", "Triptych", "One", 1)
	one.TotalTracks = 3
	two := flacMeta("Duo", "Triptych", "Two", 2)
	two.TotalTracks = 3
	extractor := &tagExtractor{tags: map[string]metadata.TrackMeta{
		"01 One.flac": one,
		"02 Two.flac": two,
	}}
	e := newEnv(t, importer.Deps{Extractor: extractor})
	ctx := context.Background()

	staged := stageAlbum(t, e.cfg, map[string]byte{"01 One.flac": 1, "02 Two.flac": 2})
	result, err := e.orch.Import(ctx, staged, catalog.Provenance{Source: "local"})
	if err != nil {
		t.Fatalf("import: %v", err)
	}
	album := result.Album
	if album.Status != catalog.AlbumIncomplete {
		t.Fatalf("expected incomplete album, got %s", album.Status)
	}
	if album.TotalTracks != 3 {
		t.Fatalf("expected declared total 3, got %d", album.TotalTracks)
	}
	if len(album.MissingTracks) != 1 || album.MissingTracks[0] != "1-03" {
		t.Fatalf("expected missing position 1-03, got %v", album.MissingTracks)
	}
}

func TestReplacementFailureKeepsCommittedFilesInPlace(t *testing.T) {
	lossyOne := flacMeta("The Band", "Debut", "First", 1)
	lossyOne.Quality = quality.Descriptor{SampleRate: 44100, Bitrate: 320000, FileSize: 4096, Format: "mp3", Lossy: true}
	lossyTwo := flacMeta("The Band", "Debut", "Second", 2)
	lossyTwo.Quality = quality.Descriptor{SampleRate: 44100, Bitrate: 320000, FileSize: 4096, Format: "mp3", Lossy: true}
	extractor := &tagExtractor{tags: map[string]metadata.TrackMeta{
		"01 First.mp3":   lossyOne,
		"02 Second.mp3":  lossyTwo,
		"01 First.flac":  flacMeta("The Band", "Debut", "First", 1),
		"02 Second.flac": flacMeta("The Band", "Debut", "Second", 2),
	}}
	e := newEnv(t, importer.Deps{Extractor: extractor})
	ctx := context.Background()

	first := stageAlbum(t, e.cfg, map[string]byte{"01 First.mp3": 1, "02 Second.mp3": 2})
	if _, err := e.orch.Import(ctx, first, catalog.Provenance{Source: "lossy-source"}); err != nil {
		t.Fatalf("first import: %v", err)
	}
	committed, err := e.store.ListAlbums(ctx)
	if err != nil || len(committed) != 1 {
		t.Fatalf("albums: %v err=%v", committed, err)
	}
	before, err := e.store.TracksByAlbum(ctx, committed[0].ID)
	if err != nil || len(before) != 2 {
		t.Fatalf("tracks: %v err=%v", before, err)
	}

	// Make the second track's swap fail: a directory now sits where the
	// replacement file would land.
	var blocked string
	for _, track := range before {
		if track.DiscNumber == 1 && track.TrackNumber == 2 {
			blocked = track.Path
		}
	}
	if blocked == "" {
		t.Fatal("no committed row for track 2")
	}
	if err := os.Remove(blocked); err != nil {
		t.Fatalf("remove: %v", err)
	}
	if err := os.MkdirAll(blocked, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	second := stageAlbum(t, e.cfg, map[string]byte{"01 First.flac": 8, "02 Second.flac": 9})
	_, err = e.orch.Import(ctx, second, catalog.Provenance{Source: "lossless-source"})
	if !errors.Is(err, services.ErrCommitFailed) {
		t.Fatalf("expected commit failure, got %v", err)
	}

	// Track 1's replacement row committed and its swap succeeded before the
	// failure; its path must still resolve to a file.
	after, err := e.store.TracksByAlbum(ctx, committed[0].ID)
	if err != nil {
		t.Fatalf("tracks: %v", err)
	}
	for _, track := range after {
		if track.DiscNumber == 1 && track.TrackNumber == 1 {
			info, statErr := os.Stat(track.Path)
			if statErr != nil {
				t.Fatalf("committed row points at a missing file: %v", statErr)
			}
			if info.IsDir() {
				t.Fatalf("committed row points at a directory: %s", track.Path)
			}
		}
	}
}
