package main

import (
	"log/slog"

	"cadence/internal/artwork"
	"cadence/internal/catalog"
	"cadence/internal/config"
	"cadence/internal/daemon"
	"cadence/internal/downloads"
	"cadence/internal/importer"
	"cadence/internal/notifications"
	"cadence/internal/review"
	"cadence/internal/services/rescan"
	"cadence/internal/sources"
	"cadence/internal/workflow"
)

// bootstrap opens the stores and wires the pipeline together. The returned
// cleanup closes the catalog and review stores; the daemon owns the downloads
// store.
func bootstrap(cfg *config.Config, logger *slog.Logger) (*daemon.Daemon, func(), error) {
	downloadStore, err := downloads.Open(cfg)
	if err != nil {
		return nil, nil, err
	}
	catalogStore, err := catalog.Open(cfg)
	if err != nil {
		_ = downloadStore.Close()
		return nil, nil, err
	}
	reviewStore, err := review.Open(cfg)
	if err != nil {
		_ = downloadStore.Close()
		_ = catalogStore.Close()
		return nil, nil, err
	}
	cleanup := func() {
		_ = reviewStore.Close()
		_ = catalogStore.Close()
	}

	publisher := notifications.NewPublisher(cfg)
	deps := importer.Deps{
		Artwork:   artwork.NewResolver(artwork.NewSidecarExtractor(), nil, logger),
		Publisher: publisher,
		Logger:    logger,
	}
	if rescanner := rescan.NewConfiguredClient(cfg); rescanner != nil {
		deps.Rescanner = rescanner
	}
	orch := importer.New(cfg, catalogStore, reviewStore, deps)

	set := workflow.StageSet{
		Acquire: sources.NewAcquireStage(downloadStore, logger, sources.NewLocalAcquirer(cfg)).WithPublisher(publisher),
		Import:  importer.NewStage(orch, downloadStore),
	}
	manager := workflow.NewManagerWithPublisher(cfg, downloadStore, logger, publisher, set)

	d, err := daemon.New(cfg, downloadStore, logger, manager)
	if err != nil {
		cleanup()
		_ = downloadStore.Close()
		return nil, nil, err
	}
	return d, cleanup, nil
}
