package sources

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"log/slog"

	"cadence/internal/downloads"
	"cadence/internal/logging"
	"cadence/internal/notifications"
	"cadence/internal/services"
	"cadence/internal/stage"
)

// AcquireStage drives a registry of Acquirers as the first pipeline stage.
// Progress callbacks are persisted advisorily; a lost progress write never
// fails the acquisition.
type AcquireStage struct {
	store     *downloads.Store
	acquirers map[string]Acquirer
	publisher notifications.Publisher
	logger    *slog.Logger
}

func NewAcquireStage(store *downloads.Store, logger *slog.Logger, acquirers ...Acquirer) *AcquireStage {
	byName := make(map[string]Acquirer, len(acquirers))
	for _, a := range acquirers {
		byName[a.Name()] = a
	}
	return &AcquireStage{
		store:     store,
		acquirers: byName,
		logger:    logging.NewComponentLogger(logger, "acquire"),
	}
}

// WithPublisher enables download:progress notifications at quarter milestones.
func (s *AcquireStage) WithPublisher(publisher notifications.Publisher) *AcquireStage {
	s.publisher = publisher
	return s
}

// SetLogger swaps in a request-scoped logger for the current item.
func (s *AcquireStage) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

func (s *AcquireStage) Prepare(_ context.Context, d *downloads.Download) error {
	if strings.TrimSpace(d.Consumer) == "" {
		return services.Wrap(services.ErrValidation, "acquire", "validate request",
			"download has no owning consumer", nil)
	}
	if _, ok := s.acquirers[d.Source]; !ok {
		return services.Wrap(services.ErrConfiguration, "acquire", "resolve source",
			fmt.Sprintf("no acquirer registered for source %q", d.Source), nil)
	}
	return nil
}

func (s *AcquireStage) Execute(ctx context.Context, d *downloads.Download) error {
	acquirer := s.acquirers[d.Source]
	if acquirer == nil {
		return services.Wrap(services.ErrConfiguration, "acquire", "resolve source",
			fmt.Sprintf("no acquirer registered for source %q", d.Source), nil)
	}

	lastMilestone := -1
	progress := func(percent float64, speed, eta string) {
		if err := s.store.UpdateProgress(ctx, d.ID, percent, speed, eta); err != nil {
			s.logger.Debug("progress update dropped", logging.Error(err))
		}
		// Quarter milestones keep the push channel quiet; the store row
		// carries the fine-grained numbers.
		if s.publisher == nil {
			return
		}
		milestone := int(percent) / 25 * 25
		if milestone <= lastMilestone || milestone == 0 {
			return
		}
		lastMilestone = milestone
		if err := s.publisher.Publish(ctx, notifications.EventDownloadProgress, notifications.Payload{
			Title:   "Download progress",
			Message: fmt.Sprintf("%s: %d%%", d.Source, milestone),
			Detail:  d.SourceURL,
		}); err != nil {
			s.logger.Debug("progress notification dropped", logging.Error(err))
		}
	}
	staged, err := acquirer.Acquire(ctx, Request{
		Consumer:    d.Consumer,
		Source:      d.Source,
		SourceURL:   d.SourceURL,
		SearchQuery: d.SearchQuery,
	}, progress)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "acquire", d.Source, "", err)
	}

	if err := s.store.SetStagedPath(ctx, d.ID, staged); err != nil {
		return services.Wrap(services.ErrTransient, "acquire", "persist staged path", "", err)
	}
	d.StagedPath = staged
	s.logger.Info("acquisition staged",
		logging.Int64(logging.FieldDownloadID, d.ID),
		logging.String("staged_path", staged))
	return nil
}

func (s *AcquireStage) HealthCheck(context.Context) stage.Health {
	if len(s.acquirers) == 0 {
		return stage.Unhealthy("acquire", "no source acquirers registered")
	}
	names := make([]string, 0, len(s.acquirers))
	for name := range s.acquirers {
		names = append(names, name)
	}
	sort.Strings(names)
	health := stage.Healthy("acquire")
	health.Detail = strings.Join(names, ", ")
	return health
}
