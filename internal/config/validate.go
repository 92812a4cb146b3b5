package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateImporter(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	if err := c.validateRescan(); err != nil {
		return err
	}
	return c.validateLogging()
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.Paths.LibraryDir) == "" {
		return errors.New("paths.library_dir must be set")
	}
	if strings.TrimSpace(c.Paths.ConsumersDir) == "" {
		return errors.New("paths.consumers_dir must be set")
	}
	if strings.TrimSpace(c.Paths.StagingDir) == "" {
		return errors.New("paths.staging_dir must be set")
	}
	if strings.TrimSpace(c.Paths.QuarantineDir) == "" {
		return errors.New("paths.quarantine_dir must be set")
	}
	if c.Paths.QuarantineDir == c.Paths.StagingDir {
		return errors.New("paths.quarantine_dir must differ from paths.staging_dir")
	}
	if c.Paths.ConsumersDir == c.Paths.LibraryDir {
		return errors.New("paths.consumers_dir must differ from paths.library_dir")
	}
	return nil
}

func (c *Config) validateImporter() error {
	if c.Importer.MinConfidence < 0 || c.Importer.MinConfidence > 1 {
		return errors.New("importer.min_confidence must be between 0 and 1")
	}
	if len(c.Importer.AudioExtensions) == 0 {
		return errors.New("importer.audio_extensions must not be empty")
	}
	if c.Importer.InFlightLimit <= 0 {
		return errors.New("importer.in_flight_limit must be positive")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.Workflow.QueuePollInterval <= 0 {
		return errors.New("workflow.queue_poll_interval must be positive")
	}
	if c.Workflow.ErrorRetryInterval <= 0 {
		return errors.New("workflow.error_retry_interval must be positive")
	}
	if c.Workflow.HeartbeatInterval <= 0 {
		return errors.New("workflow.heartbeat_interval must be positive")
	}
	if c.Workflow.HeartbeatTimeout <= c.Workflow.HeartbeatInterval {
		return fmt.Errorf(
			"workflow.heartbeat_timeout (%d) must exceed workflow.heartbeat_interval (%d)",
			c.Workflow.HeartbeatTimeout, c.Workflow.HeartbeatInterval,
		)
	}
	return nil
}

func (c *Config) validateRescan() error {
	if !c.Rescan.Enabled {
		return nil
	}
	if strings.TrimSpace(c.Rescan.URL) == "" {
		return errors.New("rescan.url must be set when rescan.enabled is true")
	}
	if c.Rescan.TimeoutSeconds <= 0 {
		return errors.New("rescan.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch strings.ToLower(strings.TrimSpace(c.Logging.Format)) {
	case "", "console", "json":
	default:
		return fmt.Errorf("logging.format: unsupported value %q", c.Logging.Format)
	}
	return nil
}
