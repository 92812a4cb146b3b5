package downloads

import (
	"strings"
	"time"
)

// Status represents the lifecycle of a download.
type Status string

const (
	StatusPending       Status = "pending"
	StatusDownloading   Status = "downloading"
	StatusImporting     Status = "importing"
	StatusComplete      Status = "complete"
	StatusDuplicate     Status = "duplicate"
	StatusPendingReview Status = "pending_review"
	StatusFailed        Status = "failed"
	StatusCancelled     Status = "cancelled"
	StatusDismissed     Status = "dismissed"
)

var allStatuses = []Status{
	StatusPending,
	StatusDownloading,
	StatusImporting,
	StatusComplete,
	StatusDuplicate,
	StatusPendingReview,
	StatusFailed,
	StatusCancelled,
	StatusDismissed,
}

var statusSet = func() map[Status]struct{} {
	set := make(map[Status]struct{}, len(allStatuses))
	for _, status := range allStatuses {
		set[status] = struct{}{}
	}
	return set
}()

// allowedTransitions is the authoritative transition table. Anything not
// listed is refused at the store level. pending_review leaves this machine
// entirely; it is resolved by the review queue, never by retry.
var allowedTransitions = map[Status][]Status{
	StatusPending:     {StatusDownloading, StatusCancelled},
	StatusDownloading: {StatusImporting, StatusFailed, StatusCancelled},
	StatusImporting:   {StatusComplete, StatusDuplicate, StatusPendingReview, StatusFailed},
	StatusFailed:      {StatusPending, StatusDismissed},
}

// cancellableStatuses are the only states in which cancellation is honored.
// Once importing has begun the operation must reach a terminal state so
// in-flight file moves are never abandoned halfway.
var cancellableStatuses = map[Status]struct{}{
	StatusPending:     {},
	StatusDownloading: {},
}

var processingStatuses = map[Status]struct{}{
	StatusDownloading: {},
	StatusImporting:   {},
}

// AllStatuses returns the ordered list of known statuses.
func AllStatuses() []Status {
	cp := make([]Status, len(allStatuses))
	copy(cp, allStatuses)
	return cp
}

// ParseStatus converts a string into a known Status.
func ParseStatus(value string) (Status, bool) {
	normalized := Status(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return "", false
	}
	_, ok := statusSet[normalized]
	return normalized, ok
}

// CanTransition reports whether moving from one status to another is legal.
func CanTransition(from, to Status) bool {
	for _, candidate := range allowedTransitions[from] {
		if candidate == to {
			return true
		}
	}
	return false
}

// IsCancellable reports whether a download in the given status may be cancelled.
func IsCancellable(status Status) bool {
	_, ok := cancellableStatuses[status]
	return ok
}

// IsProcessingStatus reports whether a status reflects an in-flight operation.
func IsProcessingStatus(status Status) bool {
	_, ok := processingStatuses[status]
	return ok
}

// IsTerminal reports whether a status has no outgoing transitions.
func IsTerminal(status Status) bool {
	return len(allowedTransitions[status]) == 0
}

// Download represents one acquisition request persisted in SQLite. Progress,
// Speed, and Eta are advisory display fields and never drive transitions.
type Download struct {
	ID            int64
	Consumer      string
	Source        string
	SourceURL     string
	SearchQuery   string
	Status        Status
	Progress      float64
	Speed         string
	Eta           string
	ErrorMessage  string
	StagedPath    string
	LastHeartbeat *time.Time
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsProcessing returns true when the download reflects an in-flight operation.
func (d Download) IsProcessing() bool {
	return IsProcessingStatus(d.Status)
}
