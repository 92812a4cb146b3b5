package review

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a review item.
type Status string

const (
	StatusPending  Status = "pending"
	StatusApproved Status = "approved"
	StatusRejected Status = "rejected"
	// StatusFailed marks an item whose approval failed after its files were
	// already relocated. It is terminal; the item needs a fresh acquisition
	// or manual re-staging, never an in-place retry.
	StatusFailed Status = "failed"
)

var allStatuses = []Status{StatusPending, StatusApproved, StatusRejected, StatusFailed}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// IsTerminal reports whether a review status admits no further changes.
func IsTerminal(status Status) bool {
	return status != StatusPending
}

// Item is one staged import awaiting an operator decision.
type Item struct {
	ID              int64
	StagedPath      string
	SuggestedArtist string
	SuggestedAlbum  string
	Confidence      float64
	TrackCount      int
	Reason          string
	Status          Status
	ErrorMessage    string
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
