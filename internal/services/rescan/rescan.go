package rescan

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"cadence/internal/config"
)

// HTTPDoer describes the HTTP client used by the rescan trigger.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// Client triggers a library scan on a Subsonic-compatible server after
// commits. Subsonic's startScan has no path scoping, so the artist path is
// accepted for interface compatibility and ignored.
type Client struct {
	baseURL  string
	username string
	password string
	client   HTTPDoer
}

// NewConfiguredClient returns a scan trigger when the rescan section is
// enabled and complete, nil otherwise. A nil *Client is a valid no-op trigger.
func NewConfiguredClient(cfg *config.Config) *Client {
	if cfg == nil || !cfg.Rescan.Enabled {
		return nil
	}
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.Rescan.URL), "/")
	if baseURL == "" {
		return nil
	}
	timeout := time.Duration(cfg.Rescan.TimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL:  baseURL,
		username: strings.TrimSpace(cfg.Rescan.Username),
		password: cfg.Rescan.Password,
		client:   &http.Client{Timeout: timeout},
	}
}

// NewClient constructs a scan trigger with an explicit HTTP client.
func NewClient(baseURL, username, password string, client HTTPDoer) *Client {
	return &Client{
		baseURL:  strings.TrimRight(strings.TrimSpace(baseURL), "/"),
		username: strings.TrimSpace(username),
		password: password,
		client:   client,
	}
}

// TriggerScan asks the server to rescan its library.
func (c *Client) TriggerScan(ctx context.Context, _ string) error {
	if c == nil || c.client == nil || c.baseURL == "" {
		return nil
	}
	query := url.Values{}
	query.Set("u", c.username)
	query.Set("p", c.password)
	query.Set("v", "1.16.1")
	query.Set("c", "cadence")
	query.Set("f", "json")
	scanURL := fmt.Sprintf("%s/rest/startScan?%s", c.baseURL, query.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, scanURL, nil)
	if err != nil {
		return fmt.Errorf("build rescan request: %w", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("trigger library scan: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("library scan returned %d", resp.StatusCode)
	}
	return nil
}
