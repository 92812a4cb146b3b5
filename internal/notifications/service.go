package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cadence/internal/config"
)

const userAgent = "Cadence/0.1.0"

// Event identifies a notification category. Delivery is fire-and-forget;
// callers log failures but never propagate them into the pipeline.
type Event string

const (
	EventDownloadProgress Event = "download:progress"
	EventDownloadComplete Event = "download:complete"
	EventDownloadError    Event = "download:error"
	EventImportComplete   Event = "import:complete"
	EventImportReview     Event = "import:review"
	EventLibraryUpdated   Event = "library:updated"
)

// Payload carries the display fields for one notification.
type Payload struct {
	Title   string
	Message string
	Detail  string
}

// Publisher is the notification surface exposed to pipeline components.
type Publisher interface {
	Publish(ctx context.Context, event Event, payload Payload) error
}

// NewPublisher builds a publisher backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewPublisher(cfg *config.Config) Publisher {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return NoopPublisher{}
	}

	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyPublisher{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
		enabled:  eventToggles(cfg),
	}
}

func eventToggles(cfg *config.Config) map[Event]bool {
	n := cfg.Notifications
	return map[Event]bool{
		EventDownloadProgress: n.Downloads,
		EventDownloadComplete: n.Downloads,
		EventDownloadError:    n.Errors,
		EventImportComplete:   n.Imports,
		EventImportReview:     n.Imports,
		EventLibraryUpdated:   n.Library,
	}
}

type ntfyPublisher struct {
	endpoint string
	client   *http.Client
	enabled  map[Event]bool
}

func (n *ntfyPublisher) Publish(ctx context.Context, event Event, payload Payload) error {
	if n == nil || n.client == nil {
		return nil
	}
	if enabled, known := n.enabled[event]; known && !enabled {
		return nil
	}

	title := strings.TrimSpace(payload.Title)
	if title == "" {
		title = defaultTitle(event)
	}
	message := strings.TrimSpace(payload.Message)
	if message == "" {
		message = string(event)
	}
	if detail := strings.TrimSpace(payload.Detail); detail != "" {
		message = message + "\n" + detail
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	req.Header.Set("Title", title)
	req.Header.Set("Tags", eventTags(event))
	if priority := eventPriority(event); priority != "" {
		req.Header.Set("Priority", priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

func defaultTitle(event Event) string {
	switch event {
	case EventDownloadProgress:
		return "Cadence - Downloading"
	case EventDownloadComplete:
		return "Cadence - Download Complete"
	case EventDownloadError:
		return "Cadence - Download Error"
	case EventImportComplete:
		return "Cadence - Imported"
	case EventImportReview:
		return "Cadence - Review Needed"
	case EventLibraryUpdated:
		return "Cadence - Library Updated"
	default:
		return "Cadence"
	}
}

func eventTags(event Event) string {
	parts := strings.SplitN(string(event), ":", 2)
	tags := append([]string{"cadence"}, parts...)
	return strings.Join(tags, ",")
}

func eventPriority(event Event) string {
	switch event {
	case EventDownloadError:
		return "high"
	case EventDownloadProgress:
		return "low"
	default:
		return ""
	}
}

// NoopPublisher discards every notification. Used when no topic is configured
// and as the default collaborator in tests.
type NoopPublisher struct{}

// Publish implements Publisher.
func (NoopPublisher) Publish(context.Context, Event, Payload) error { return nil }
