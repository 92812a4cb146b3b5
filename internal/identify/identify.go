// Package identify defines the identification collaborator and the policy
// that decides when its answer is trustworthy enough to commit.
package identify

import "context"

// Result is an identification answer for a staged directory.
type Result struct {
	Artist string
	Album  string
	Year   int
	// TotalTracks is the album's declared track count per the identification
	// service, zero when unknown.
	TotalTracks int
	Confidence  float64
	CatalogIDs  map[string]string
}

// Identifier resolves a staged directory to a canonical artist and album.
// Implementations wrap external lookup services.
type Identifier interface {
	Identify(ctx context.Context, stagedPath string) (*Result, error)
}

// Policy decides whether an identification result may be committed without
// operator review. The threshold is configuration, not structure.
type Policy struct {
	MinConfidence float64
}

// Confident reports whether the result clears the configured threshold.
// A nil result is never confident.
func (p Policy) Confident(result *Result) bool {
	if result == nil {
		return false
	}
	return result.Confidence >= p.MinConfidence
}
