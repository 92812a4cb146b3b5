package stage

import (
	"context"

	"log/slog"

	"cadence/internal/downloads"
)

// Handler describes the contract the workflow manager needs from each stage.
type Handler interface {
	Prepare(context.Context, *downloads.Download) error
	Execute(context.Context, *downloads.Download) error
	HealthCheck(context.Context) Health
}

// LoggerAware lets the manager hand a stage a request-scoped logger before
// execution.
type LoggerAware interface {
	SetLogger(*slog.Logger)
}
