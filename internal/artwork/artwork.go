// Package artwork resolves album artwork through an ordered chain of
// collaborators: embedded extraction first, external lookup second, unset
// last. Embedded wins because external lookups are slower and sometimes
// keyed by identifiers the source never provided.
package artwork

import (
	"context"
	"log/slog"

	"cadence/internal/logging"
)

// Extractor pulls embedded artwork out of an audio file and writes it next
// to the album. It returns "" when the file carries no artwork.
type Extractor interface {
	ExtractEmbedded(ctx context.Context, audioPath, albumDir string) (string, error)
}

// Fetcher looks artwork up from an external service keyed by artist, album,
// and any known catalog ids. It returns "" when nothing was found.
type Fetcher interface {
	Fetch(ctx context.Context, artist, album string, catalogIDs map[string]string, albumDir string) (string, error)
}

// Resolver runs the artwork chain. Either collaborator may be nil, which
// skips that step; failures are logged and treated as "not found" because a
// missing cover never blocks a commit.
type Resolver struct {
	extractor Extractor
	fetcher   Fetcher
	logger    *slog.Logger
}

// NewResolver wires the artwork chain.
func NewResolver(extractor Extractor, fetcher Fetcher, logger *slog.Logger) *Resolver {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Resolver{extractor: extractor, fetcher: fetcher, logger: logger}
}

// Resolve returns a path to the album's artwork, or "" when the chain is
// exhausted. audioPath should be any committed track of the album.
func (r *Resolver) Resolve(ctx context.Context, audioPath, albumDir, artist, album string, catalogIDs map[string]string) string {
	if r.extractor != nil {
		path, err := r.extractor.ExtractEmbedded(ctx, audioPath, albumDir)
		if err != nil {
			r.logger.Warn("embedded artwork extraction failed",
				logging.String("audio_path", audioPath), logging.Error(err))
		} else if path != "" {
			return path
		}
	}
	if r.fetcher != nil {
		path, err := r.fetcher.Fetch(ctx, artist, album, catalogIDs, albumDir)
		if err != nil {
			r.logger.Warn("artwork lookup failed",
				logging.String("artist", artist), logging.String("album", album), logging.Error(err))
		} else if path != "" {
			return path
		}
	}
	return ""
}
