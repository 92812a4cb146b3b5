package importer

import (
	"context"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/google/uuid"

	"cadence/internal/catalog"
	"cadence/internal/checksum"
	"cadence/internal/config"
	"cadence/internal/fileutil"
	"cadence/internal/identify"
	"cadence/internal/logging"
	"cadence/internal/metadata"
	"cadence/internal/notifications"
	"cadence/internal/quality"
	"cadence/internal/review"
	"cadence/internal/services"
	"cadence/internal/textutil"
)

// Rescanner asks a remote catalog server to rescan after a commit. Calls are
// fire-and-forget; failures are logged, never propagated.
type Rescanner interface {
	TriggerScan(ctx context.Context, artistPath string) error
}

// Deps collects the optional collaborators around the orchestrator. Any of
// them may be nil; the corresponding step is skipped.
type Deps struct {
	Extractor  metadata.Extractor
	Identifier identify.Identifier
	Artwork    ArtworkResolver
	Publisher  notifications.Publisher
	Rescanner  Rescanner
	Logger     *slog.Logger
}

// ArtworkResolver runs the artwork chain for a committed album.
type ArtworkResolver interface {
	Resolve(ctx context.Context, audioPath, albumDir, artist, album string, catalogIDs map[string]string) string
}

// Disposition classifies the outcome of one import run.
type Disposition string

const (
	// Committed means at least one track was written to the catalog.
	Committed Disposition = "committed"
	// RoutedToReview means the staged item was handed to the review queue.
	RoutedToReview Disposition = "routed_to_review"
	// DuplicateOnly means every staged file resolved to keep-existing.
	DuplicateOnly Disposition = "duplicate"
)

// Result reports what one import run did.
type Result struct {
	Disposition Disposition
	Album       *catalog.Album
	Artist      *catalog.Artist
	ReviewID    int64
	Reason      string
	Imported    int
	Replaced    int
	Duplicates  int
}

// Orchestrator drives one staged directory through validation, checksumming,
// dedup, quality resolution, the reversible move, and the catalog commit. It
// is the only writer of Track and Album rows during ingestion.
type Orchestrator struct {
	cfg       *config.Config
	store     *catalog.Store
	reviews   *review.Store
	deps      Deps
	validator *metadata.Validator
	policy    identify.Policy
	inflight  *inflightGuard
	logger    *slog.Logger
}

// New wires an orchestrator over its stores and collaborators.
func New(cfg *config.Config, store *catalog.Store, reviews *review.Store, deps Deps) *Orchestrator {
	logger := deps.Logger
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Orchestrator{
		cfg:       cfg,
		store:     store,
		reviews:   reviews,
		deps:      deps,
		validator: metadata.NewValidator(cfg.Importer.ExtraPlaceholders),
		policy:    identify.Policy{MinConfidence: cfg.Importer.MinConfidence},
		inflight:  newInflightGuard(cfg.Importer.InFlightLimit),
		logger:    logger,
	}
}

// stagedFile is one audio file being imported, with its merged metadata and
// the checksum computed before any mutation.
type stagedFile struct {
	path string
	meta metadata.TrackMeta
	sum  string
	size int64
}

// Import runs the full pipeline for a staged directory. Ambiguous items are
// routed to the review queue and reported in the result, not raised.
func (o *Orchestrator) Import(ctx context.Context, stagedPath string, prov catalog.Provenance) (*Result, error) {
	return o.run(ctx, stagedPath, prov, nil)
}

// CommitReviewed re-runs the pipeline for an approved review item with
// operator-corrected metadata. Conditions that would normally route to review
// are errors here: the item is already in the review queue and a second
// routing would loop.
func (o *Orchestrator) CommitReviewed(ctx context.Context, stagedPath string, correction review.Correction) error {
	prov := catalog.Provenance{Source: "review", SourceURL: stagedPath}
	result, err := o.run(ctx, stagedPath, prov, &correction)
	if err != nil {
		return err
	}
	if result.Disposition == RoutedToReview {
		return services.Wrap(services.ErrValidation, "import", "commit reviewed", result.Reason, nil)
	}
	return nil
}

func (o *Orchestrator) run(ctx context.Context, stagedPath string, prov catalog.Provenance, correction *review.Correction) (*Result, error) {
	ctx = services.WithRequestID(ctx, uuid.NewString())
	logger := logging.WithContext(ctx, o.logger).With(logging.String("staged_path", stagedPath))

	paths, err := o.scanStaged(stagedPath)
	if err != nil {
		return nil, services.Wrap(services.ErrValidation, "import", "scan staged directory", "", err)
	}
	if len(paths) == 0 {
		return o.routeOrFail(ctx, logger, stagedPath, nil, 0, "no audio files in staged directory", correction)
	}

	ident, err := o.identify(ctx, stagedPath, correction)
	if err != nil {
		return nil, err
	}

	files, err := o.assemble(ctx, logger, paths, ident)
	if err != nil {
		return nil, err
	}

	if correction == nil && o.deps.Identifier != nil && !o.policy.Confident(ident) {
		reason := fmt.Sprintf("identification confidence %.2f below threshold %.2f",
			confidenceOf(ident), o.policy.MinConfidence)
		return o.routeOrFail(ctx, logger, stagedPath, ident, len(files), reason, correction)
	}
	for _, f := range files {
		if reason := o.validator.ValidateTrack(f.meta); reason != "" {
			reason = fmt.Sprintf("%s: %s", filepath.Base(f.path), reason)
			return o.routeOrFail(ctx, logger, stagedPath, ident, len(files), reason, correction)
		}
	}

	// Checksum every file before any mutation. A corrupt stream blocks the
	// whole item.
	sums := make([]string, 0, len(files))
	for _, f := range files {
		sum, size, err := checksum.VerifyReadable(f.path)
		if err != nil {
			reason := fmt.Sprintf("integrity check failed: %v", err)
			return o.routeOrFail(ctx, logger, stagedPath, ident, len(files), reason, correction)
		}
		f.sum = sum
		f.size = size
		if f.meta.Quality.FileSize == 0 {
			f.meta.Quality.FileSize = size
		}
		sums = append(sums, sum)
	}

	if err := o.inflight.acquire(sums); err != nil {
		return nil, services.Wrap(services.ErrTransient, "import", "in-flight guard", "", err)
	}
	defer o.inflight.release(sums)

	return o.commit(ctx, logger, stagedPath, files, ident, prov)
}

// commit resolves duplicates, moves files, and persists rows. files have
// checksums and merged metadata by the time it runs.
func (o *Orchestrator) commit(ctx context.Context, logger *slog.Logger, stagedPath string, files []*stagedFile, ident *identify.Result, prov catalog.Provenance) (*Result, error) {
	result := &Result{}

	albumMeta := o.albumIdentity(files, ident)
	artistName, albumTitle, year := albumMeta.Artist, albumMeta.Title, albumMeta.Year
	artistPath := filepath.Join(o.cfg.Paths.LibraryDir, textutil.SanitizePathComponent(artistName))
	artist, err := o.store.GetOrCreateArtist(ctx, artistName, artistPath)
	if err != nil {
		return nil, services.Wrap(services.ErrCommitFailed, "import", "get or create artist", "", err)
	}
	result.Artist = artist

	album, err := o.store.FindAlbumByKey(ctx, artist.ID, albumTitle)
	if err != nil {
		return nil, services.Wrap(services.ErrCommitFailed, "import", "find album", "", err)
	}
	if album == nil {
		album = &catalog.Album{
			ArtistID:    artist.ID,
			Title:       albumTitle,
			Year:        year,
			Path:        albumDir(o.cfg.Paths.LibraryDir, artistName, albumTitle),
			TotalTracks: declaredTotal(files, albumMeta.TotalTracks),
			Status:      catalog.AlbumPending,
		}
		if err := o.store.CreateAlbum(ctx, album); err != nil {
			if catalog.IsConstraintViolation(err) {
				// Lost the race; the winner's row serves.
				album, err = o.store.FindAlbumByKey(ctx, artist.ID, albumTitle)
				if err != nil || album == nil {
					return nil, services.Wrap(services.ErrCommitFailed, "import", "find album after race", "", err)
				}
			} else {
				return nil, services.Wrap(services.ErrCommitFailed, "import", "create album", "", err)
			}
		}
	}
	result.Album = album

	var toInsert []*stagedFile
	type replacement struct {
		file     *stagedFile
		existing *catalog.Track
	}
	var toReplace []replacement
	claimed := make(map[string]*stagedFile)
	batchSums := make(map[string]struct{})

	for _, f := range files {
		// Identical bytes within the same staged item. The first occurrence
		// wins; the copy never reaches the move phase, where its row would
		// trip the checksum constraint mid-commit.
		if _, ok := batchSums[f.sum]; ok {
			logger.Info("discarded identical-content duplicate within staged item",
				logging.String("checksum", f.sum),
				logging.String("file", filepath.Base(f.path)))
			result.Duplicates++
			continue
		}
		batchSums[f.sum] = struct{}{}

		existing, err := o.store.FindTrackByChecksum(ctx, f.sum)
		if err != nil {
			return nil, services.Wrap(services.ErrCommitFailed, "import", "content duplicate check", "", err)
		}
		if existing != nil {
			// Identical bytes. Quality resolution over equal descriptors
			// keeps the existing entry; log the audit record and discard.
			o.logDuplicate(ctx, logger, f, existing, prov)
			result.Duplicates++
			continue
		}

		// Two staged files can claim the same position within one batch.
		// Resolve in memory so only the winner reaches the move phase; the
		// loser would otherwise trip the position constraint mid-commit.
		key := positionKey(f.meta.DiscNumber, f.meta.TrackNumber)
		if rival, ok := claimed[key]; ok {
			if quality.Resolve(rival.meta.Quality, f.meta.Quality) == quality.Replace {
				rival.meta, rival.path, rival.sum, rival.size = f.meta, f.path, f.sum, f.size
			}
			logger.Info("discarded lower-quality duplicate position within staged item",
				logging.String("position", key))
			result.Duplicates++
			continue
		}

		occupant, err := o.store.FindTrackByPosition(ctx, album.ID, f.meta.DiscNumber, f.meta.TrackNumber)
		if err != nil {
			return nil, services.Wrap(services.ErrCommitFailed, "import", "metadata duplicate check", "", err)
		}
		if occupant != nil {
			switch quality.Resolve(occupant.Quality, f.meta.Quality) {
			case quality.Replace:
				toReplace = append(toReplace, replacement{file: f, existing: occupant})
			default:
				o.logDuplicate(ctx, logger, f, occupant, prov)
				result.Duplicates++
			}
			claimed[key] = f
			continue
		}
		claimed[key] = f
		toInsert = append(toInsert, f)
	}

	if len(toInsert) == 0 && len(toReplace) == 0 {
		result.Disposition = DuplicateOnly
		o.cleanupStaged(logger, stagedPath)
		logger.Info("import resolved entirely to existing catalog entries",
			logging.Int("duplicates", result.Duplicates))
		return result, nil
	}

	multiDisc := maxDisc(files) > 1

	// The move is the only filesystem mutation before the catalog commit.
	// Every destination is recorded so a persistence failure can quarantine
	// exactly the moved files that never got a row. Files whose row committed
	// stay where they are.
	var moved []string
	persisted := make(map[string]struct{})
	quarantineAndFail := func(stage string, cause error) (*Result, error) {
		var unreferenced []string
		for _, path := range moved {
			if _, ok := persisted[path]; !ok {
				unreferenced = append(unreferenced, path)
			}
		}
		o.quarantine(logger, unreferenced)
		return nil, services.Wrap(services.ErrCommitFailed, "import", stage, "", cause)
	}

	for _, f := range toInsert {
		dst := filepath.Join(album.Path,
			trackFileName(f.meta.DiscNumber, f.meta.TrackNumber, f.meta.Title, filepath.Ext(f.path), multiDisc))
		if err := fileutil.MoveFile(f.path, dst); err != nil {
			o.quarantine(logger, moved)
			return nil, services.Wrap(services.ErrCommitFailed, "import", "move staged file", f.path, err)
		}
		f.path = dst
		moved = append(moved, dst)
	}
	for _, r := range toReplace {
		// The new file takes over the occupant's path and identity, but the
		// occupant's bytes must survive any failure before the row update.
		// Park the replacement under a temp name; the swap happens after its
		// row persists.
		tmp := r.existing.Path + ".incoming"
		if err := fileutil.MoveFile(r.file.path, tmp); err != nil {
			o.quarantine(logger, moved)
			return nil, services.Wrap(services.ErrCommitFailed, "import", "stage replacement file", r.file.path, err)
		}
		r.file.path = tmp
		moved = append(moved, tmp)
	}

	for _, f := range toInsert {
		track := trackFromFile(f, album.ID, prov)
		if err := o.store.InsertTrack(ctx, track); err != nil {
			if catalog.IsConstraintViolation(err) {
				logger.Warn("lost import race to concurrent writer",
					logging.String("checksum", f.sum), logging.Error(err))
			}
			return quarantineAndFail("persist track", err)
		}
		persisted[f.path] = struct{}{}
		result.Imported++
	}
	for _, r := range toReplace {
		track := trackFromFile(r.file, album.ID, prov)
		track.ID = r.existing.ID
		track.Path = r.existing.Path
		if err := o.store.UpdateTrack(ctx, track); err != nil {
			return quarantineAndFail("persist replacement track", err)
		}
		tmp := r.file.path
		if err := os.Rename(tmp, r.existing.Path); err != nil {
			logger.Error("replacement row committed but file swap failed",
				logging.Int64("track_id", r.existing.ID),
				logging.String(logging.FieldErrorHint, "move the .incoming file into place by hand"),
				logging.Error(err))
			return quarantineAndFail("swap replacement file", err)
		}
		r.file.path = r.existing.Path
		// moved records the temp name; the swap consumed it.
		persisted[tmp] = struct{}{}
		logger.Info("replaced existing track with higher quality",
			logging.Int64("track_id", r.existing.ID),
			logging.String("old_quality", r.existing.Quality.Label()),
			logging.String("new_quality", r.file.meta.Quality.Label()))
		result.Replaced++
	}

	if err := o.reconcileAlbum(ctx, album, files, albumMeta.TotalTracks); err != nil {
		return nil, err
	}

	var artworkSample string
	if len(toInsert) > 0 {
		artworkSample = toInsert[0].path
	} else if len(toReplace) > 0 {
		artworkSample = toReplace[0].file.path
	}
	o.resolveArtwork(ctx, album, artistName, albumTitle, ident, artworkSample)

	result.Disposition = Committed
	o.cleanupStaged(logger, stagedPath)
	logger.Info("import committed",
		logging.Int64("album_id", album.ID),
		logging.String("album_status", string(album.Status)),
		logging.Int("imported", result.Imported),
		logging.Int("replaced", result.Replaced),
		logging.Int("duplicates", result.Duplicates))

	o.notifyCommitted(ctx, logger, artist, album, result)
	return result, nil
}

// reconcileAlbum recomputes the album's completeness from committed rows.
// Incomplete albums carry an explicit list of unfilled positions; complete
// needs every declared position filled, and the track set may span several
// provenances.
func (o *Orchestrator) reconcileAlbum(ctx context.Context, album *catalog.Album, files []*stagedFile, declared int) error {
	tracks, err := o.store.TracksByAlbum(ctx, album.ID)
	if err != nil {
		return services.Wrap(services.ErrCommitFailed, "import", "load album tracks", "", err)
	}

	total := album.TotalTracks
	if implied := declaredTotal(files, declared); implied > total {
		total = implied
	}
	if len(tracks) > total {
		total = len(tracks)
	}

	filled := make(map[string]struct{}, len(tracks))
	maxDiscSeen := 1
	for _, t := range tracks {
		filled[positionKey(t.DiscNumber, t.TrackNumber)] = struct{}{}
		if t.DiscNumber > maxDiscSeen {
			maxDiscSeen = t.DiscNumber
		}
	}

	var missing []string
	if maxDiscSeen == 1 {
		for n := 1; n <= total; n++ {
			if _, ok := filled[positionKey(1, n)]; !ok {
				missing = append(missing, positionKey(1, n))
			}
		}
	} else if len(tracks) < total {
		// Multi-disc layouts do not declare per-disc totals; the shortfall
		// count is known, the exact positions are not.
		missing = append(missing, fmt.Sprintf("%d tracks unaccounted for", total-len(tracks)))
	}

	album.TotalTracks = total
	album.AvailableTracks = len(tracks)
	switch {
	case len(tracks) == 0:
		album.Status = catalog.AlbumPending
		album.MissingTracks = nil
	case len(missing) > 0:
		album.Status = catalog.AlbumIncomplete
		album.MissingTracks = missing
	default:
		album.Status = catalog.AlbumComplete
		album.MissingTracks = nil
	}

	if err := o.store.UpdateAlbum(ctx, album); err != nil {
		return services.Wrap(services.ErrCommitFailed, "import", "update album", "", err)
	}
	return nil
}

// MissingPositions reports the unfilled positions of an incomplete album so a
// supplementary acquisition can be scoped to exactly those.
func (o *Orchestrator) MissingPositions(ctx context.Context, albumID int64) ([]string, error) {
	album, err := o.store.GetAlbum(ctx, albumID)
	if err != nil {
		return nil, err
	}
	if album == nil {
		return nil, services.Wrap(services.ErrNotFound, "import", "missing positions", fmt.Sprintf("album %d", albumID), nil)
	}
	if album.Status != catalog.AlbumIncomplete {
		return nil, nil
	}
	return album.MissingTracks, nil
}

func (o *Orchestrator) identify(ctx context.Context, stagedPath string, correction *review.Correction) (*identify.Result, error) {
	if correction != nil {
		return &identify.Result{
			Artist:     correction.Artist,
			Album:      correction.Album,
			Confidence: 1,
		}, nil
	}
	if o.deps.Identifier == nil {
		return nil, nil
	}
	ident, err := o.deps.Identifier.Identify(ctx, stagedPath)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "import", "identification", "", err)
	}
	return ident, nil
}

// assemble merges the metadata layers for each staged file in trust order.
func (o *Orchestrator) assemble(ctx context.Context, logger *slog.Logger, paths []string, ident *identify.Result) ([]*stagedFile, error) {
	files := make([]*stagedFile, 0, len(paths))
	for i, path := range paths {
		layers := []metadata.Layer{metadata.FilenameLayer(path)}
		if o.deps.Extractor != nil {
			embedded, err := o.deps.Extractor.Extract(ctx, path)
			if err != nil {
				logger.Warn("embedded tag extraction failed",
					logging.String("file", filepath.Base(path)), logging.Error(err))
			} else if embedded != nil {
				layers = append(layers, metadata.Layer{Origin: metadata.OriginEmbedded, Meta: *embedded})
			}
		}
		if ident != nil {
			layers = append(layers, metadata.Layer{Origin: metadata.OriginIdentification, Meta: metadata.TrackMeta{
				Artist:     ident.Artist,
				Album:      ident.Album,
				Year:       ident.Year,
				CatalogIDs: ident.CatalogIDs,
			}})
		}

		meta := metadata.Merge(layers...)
		if meta.DiscNumber == 0 {
			meta.DiscNumber = 1
		}
		if meta.TrackNumber == 0 {
			meta.TrackNumber = i + 1
		}
		files = append(files, &stagedFile{path: path, meta: meta})
	}
	return files, nil
}

// routeOrFail sends the staged item to the review queue, or returns an error
// when the run is itself a review approval.
func (o *Orchestrator) routeOrFail(ctx context.Context, logger *slog.Logger, stagedPath string, ident *identify.Result, trackCount int, reason string, correction *review.Correction) (*Result, error) {
	if correction != nil {
		return nil, services.Wrap(services.ErrValidation, "import", "commit reviewed", reason, nil)
	}

	item := &review.Item{
		StagedPath: stagedPath,
		Confidence: confidenceOf(ident),
		TrackCount: trackCount,
		Reason:     reason,
	}
	if ident != nil {
		item.SuggestedArtist = ident.Artist
		item.SuggestedAlbum = ident.Album
	}
	if err := o.reviews.Create(ctx, item); err != nil {
		return nil, services.Wrap(services.ErrCommitFailed, "import", "create review item", "", err)
	}

	logger.Info("import routed to review",
		logging.Int64("review_id", item.ID),
		logging.String("reason", reason))
	o.publish(ctx, logger, notifications.EventImportReview, notifications.Payload{
		Message: "Review needed: " + reason,
		Detail:  stagedPath,
	})
	return &Result{Disposition: RoutedToReview, ReviewID: item.ID, Reason: reason}, nil
}

func (o *Orchestrator) logDuplicate(ctx context.Context, logger *slog.Logger, f *stagedFile, existing *catalog.Track, prov catalog.Provenance) {
	record := &catalog.DuplicateRecord{
		Checksum:        f.sum,
		ExistingTrackID: existing.ID,
		Decision:        string(quality.KeepExisting),
		Source:          prov.Source,
		SourceURL:       prov.SourceURL,
	}
	if record.Checksum == "" {
		record.Checksum = existing.Checksum
	}
	if err := o.store.LogDuplicate(ctx, record); err != nil {
		logger.Warn("failed to log duplicate record",
			logging.Int64("track_id", existing.ID), logging.Error(err))
	}
}

// quarantine relocates already-moved files after a failed commit. Files never
// go back into staging, which the acquirer may already have cleaned up. A
// file that cannot be quarantined is a true orphan and is logged at the
// highest severity.
func (o *Orchestrator) quarantine(logger *slog.Logger, moved []string) {
	if len(moved) == 0 {
		return
	}
	dir := filepath.Join(o.cfg.Paths.QuarantineDir, uuid.NewString())
	for _, path := range moved {
		dst := filepath.Join(dir, filepath.Base(path))
		if err := fileutil.MoveFile(path, dst); err != nil {
			logger.Error("ORPHANED FILE: moved file is neither in catalog nor quarantine",
				logging.String("path", path),
				logging.String(logging.FieldErrorHint, "move the file to quarantine by hand and re-import"),
				logging.Error(err))
			continue
		}
		logger.Warn("quarantined file after failed commit",
			logging.String("from", path), logging.String("to", dst))
	}
}

func (o *Orchestrator) resolveArtwork(ctx context.Context, album *catalog.Album, artistName, albumTitle string, ident *identify.Result, sample string) {
	if o.deps.Artwork == nil || album.ArtworkPath != "" || sample == "" {
		return
	}
	var ids map[string]string
	if ident != nil {
		ids = ident.CatalogIDs
	}
	if path := o.deps.Artwork.Resolve(ctx, sample, album.Path, artistName, albumTitle, ids); path != "" {
		album.ArtworkPath = path
		_ = o.store.UpdateAlbum(ctx, album)
	}
}

func (o *Orchestrator) notifyCommitted(ctx context.Context, logger *slog.Logger, artist *catalog.Artist, album *catalog.Album, result *Result) {
	o.publish(ctx, logger, notifications.EventImportComplete, notifications.Payload{
		Message: fmt.Sprintf("Imported: %s - %s", artist.Name, album.Title),
		Detail:  fmt.Sprintf("%d new, %d replaced, %d duplicates", result.Imported, result.Replaced, result.Duplicates),
	})
	o.publish(ctx, logger, notifications.EventLibraryUpdated, notifications.Payload{
		Message: fmt.Sprintf("Library updated: %s", artist.Name),
	})
	if o.deps.Rescanner != nil {
		if err := o.deps.Rescanner.TriggerScan(ctx, artist.Path); err != nil {
			logger.Warn("rescan trigger failed", logging.Error(err))
		}
	}
}

func (o *Orchestrator) publish(ctx context.Context, logger *slog.Logger, event notifications.Event, payload notifications.Payload) {
	if o.deps.Publisher == nil {
		return
	}
	if err := o.deps.Publisher.Publish(ctx, event, payload); err != nil {
		logger.Warn("notification publish failed",
			logging.String(logging.FieldEventType, string(event)), logging.Error(err))
	}
}

func (o *Orchestrator) cleanupStaged(logger *slog.Logger, stagedPath string) {
	if err := os.RemoveAll(stagedPath); err != nil {
		logger.Warn("failed to remove staged directory",
			logging.String("staged_path", stagedPath), logging.Error(err))
	}
}

// scanStaged collects the audio files under a staged directory in name order.
func (o *Orchestrator) scanStaged(stagedPath string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(stagedPath, func(path string, entry fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if entry.IsDir() {
			return nil
		}
		if o.cfg.IsAudioPath(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}

// albumIdentity assembles the album-level view, identification result first,
// then per-file metadata in trust order.
func (o *Orchestrator) albumIdentity(files []*stagedFile, ident *identify.Result) metadata.AlbumMeta {
	var meta metadata.AlbumMeta
	if ident != nil {
		meta.Artist = strings.TrimSpace(ident.Artist)
		meta.Title = strings.TrimSpace(ident.Album)
		meta.Year = ident.Year
		meta.TotalTracks = ident.TotalTracks
		meta.CatalogIDs = ident.CatalogIDs
	}
	for _, f := range files {
		if meta.Artist == "" {
			if f.meta.AlbumArtist != "" {
				meta.Artist = f.meta.AlbumArtist
			} else {
				meta.Artist = f.meta.Artist
			}
		}
		if meta.Title == "" {
			meta.Title = f.meta.Album
		}
		if meta.Year == 0 {
			meta.Year = f.meta.Year
		}
		if meta.TotalTracks == 0 {
			meta.TotalTracks = f.meta.TotalTracks
		}
	}
	return meta
}

func trackFromFile(f *stagedFile, albumID int64, prov catalog.Provenance) *catalog.Track {
	return &catalog.Track{
		AlbumID:      albumID,
		Title:        f.meta.Title,
		TrackNumber:  f.meta.TrackNumber,
		DiscNumber:   f.meta.DiscNumber,
		DurationSecs: f.meta.Duration,
		Path:         f.path,
		Quality:      f.meta.Quality,
		Provenance:   prov,
		Checksum:     f.sum,
		Composer:     f.meta.Composer,
		ISRC:         f.meta.ISRC,
		Lyrics:       f.meta.Lyrics,
		Explicit:     f.meta.Explicit,
		CatalogIDs:   f.meta.CatalogIDs,
	}
}

// declaredTotal reconciles the album's declared track count with what the
// staged files themselves imply. The declared count wins when larger: a
// trailing shortfall (declared 12, supplied 10) must not collapse to the
// supplied count.
func declaredTotal(files []*stagedFile, declared int) int {
	total := declared
	if len(files) > total {
		total = len(files)
	}
	for _, f := range files {
		if f.meta.TrackNumber > total {
			total = f.meta.TrackNumber
		}
	}
	return total
}

func maxDisc(files []*stagedFile) int {
	max := 1
	for _, f := range files {
		if f.meta.DiscNumber > max {
			max = f.meta.DiscNumber
		}
	}
	return max
}

func confidenceOf(ident *identify.Result) float64 {
	if ident == nil {
		return 0
	}
	return ident.Confidence
}
