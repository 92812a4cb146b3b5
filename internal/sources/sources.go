// Package sources defines the acquisition collaborator surface and the
// local-directory acquirer used for manual ingestion.
package sources

import "context"

// Progress reports advisory acquisition progress back to the download state
// machine. Implementations must tolerate a nil callback.
type Progress func(percent float64, speed, eta string)

// Request describes one acquisition.
type Request struct {
	Consumer    string
	Source      string
	SourceURL   string
	SearchQuery string
}

// Acquirer stages the files for a request and returns the staged directory.
// Acquisition runs on its own worker context; cancellation arrives through
// ctx.
type Acquirer interface {
	// Name identifies the source type this acquirer serves.
	Name() string
	Acquire(ctx context.Context, req Request, progress Progress) (stagedPath string, err error)
}
