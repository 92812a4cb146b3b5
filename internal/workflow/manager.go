package workflow

import (
	"context"
	"sync"
	"time"

	"log/slog"

	"cadence/internal/config"
	"cadence/internal/downloads"
	"cadence/internal/logging"
	"cadence/internal/notifications"
	"cadence/internal/stage"
)

// StageSet bundles the concrete pipeline handlers the manager orchestrates.
type StageSet struct {
	Acquire stage.Handler
	Import  stage.Handler
}

type pipelineStage struct {
	name             string
	handler          stage.Handler
	startStatus      downloads.Status
	processingStatus downloads.Status
	doneStatus       downloads.Status
}

// Manager polls the downloads store and drives each item through the
// acquisition and import stages. One item is processed at a time per manager;
// the store's guarded transitions keep concurrent managers safe.
type Manager struct {
	cfg          *config.Config
	store        *downloads.Store
	logger       *slog.Logger
	publisher    notifications.Publisher
	pollInterval time.Duration
	heartbeat    *HeartbeatMonitor

	stages       []pipelineStage
	stageByStart map[downloads.Status]pipelineStage
	statusOrder  []downloads.Status

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	lastErr error
}

// NewManager constructs a workflow manager with the default ntfy publisher.
func NewManager(cfg *config.Config, store *downloads.Store, logger *slog.Logger, set StageSet) *Manager {
	return NewManagerWithPublisher(cfg, store, logger, notifications.NewPublisher(cfg), set)
}

// NewManagerWithPublisher constructs a workflow manager with a custom
// publisher (used in tests).
func NewManagerWithPublisher(cfg *config.Config, store *downloads.Store, logger *slog.Logger, publisher notifications.Publisher, set StageSet) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	if publisher == nil {
		publisher = notifications.NoopPublisher{}
	}
	m := &Manager{
		cfg:          cfg,
		store:        store,
		logger:       logging.NewComponentLogger(logger, "workflow"),
		publisher:    publisher,
		pollInterval: time.Duration(cfg.Workflow.QueuePollInterval) * time.Second,
		heartbeat: NewHeartbeatMonitor(
			store,
			logger,
			time.Duration(cfg.Workflow.HeartbeatInterval)*time.Second,
			time.Duration(cfg.Workflow.HeartbeatTimeout)*time.Second,
		),
		stageByStart: make(map[downloads.Status]pipelineStage),
	}
	m.stages = []pipelineStage{
		{
			name:             "acquire",
			handler:          set.Acquire,
			startStatus:      downloads.StatusPending,
			processingStatus: downloads.StatusDownloading,
			doneStatus:       downloads.StatusImporting,
		},
		{
			name:             "import",
			handler:          set.Import,
			startStatus:      downloads.StatusImporting,
			processingStatus: downloads.StatusImporting,
			doneStatus:       downloads.StatusComplete,
		},
	}
	// Imports go first so an item staged before a restart finishes ahead of
	// new acquisitions.
	m.statusOrder = []downloads.Status{downloads.StatusImporting, downloads.StatusPending}
	for _, stg := range m.stages {
		m.stageByStart[stg.startStatus] = stg
	}
	return m
}

// LastError reports the most recent processing error, for status surfaces.
func (m *Manager) LastError() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastErr
}

func (m *Manager) setLastError(err error) {
	m.mu.Lock()
	m.lastErr = err
	m.mu.Unlock()
}
