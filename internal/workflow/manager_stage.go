package workflow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"log/slog"

	"github.com/google/uuid"

	"cadence/internal/downloads"
	"cadence/internal/logging"
	"cadence/internal/notifications"
	"cadence/internal/services"
	"cadence/internal/stage"
)

func (m *Manager) processItem(ctx context.Context, item *downloads.Download) error {
	stg, ok := m.stageByStart[item.Status]
	if !ok {
		m.logger.Warn("no stage configured for status", logging.String("status", string(item.Status)))
		m.sleep(ctx, m.pollInterval)
		return nil
	}

	stageCtx := services.WithRequestID(ctx, uuid.NewString())
	stageCtx = services.WithDownloadID(stageCtx, item.ID)
	stageCtx = services.WithStage(stageCtx, stg.name)
	stageCtx = services.WithConsumer(stageCtx, item.Consumer)
	stageLogger := logging.WithContext(stageCtx, m.logger)
	if aware, ok := stg.handler.(stage.LoggerAware); ok {
		aware.SetLogger(stageLogger)
	}

	if item.Status != stg.processingStatus {
		if err := m.store.Transition(stageCtx, item.ID, item.Status, stg.processingStatus); err != nil {
			// Another worker claimed it; nothing to do.
			if errors.Is(err, downloads.ErrIllegalTransition) {
				stageLogger.Debug("item claimed elsewhere", logging.Error(err))
				return nil
			}
			m.setLastError(err)
			return err
		}
		item.Status = stg.processingStatus
	}
	if err := m.store.UpdateHeartbeat(stageCtx, item.ID); err != nil {
		stageLogger.Warn("initial heartbeat failed", logging.Error(err))
	}

	return m.executeStage(stageCtx, stageLogger, stg, item)
}

func (m *Manager) executeStage(ctx context.Context, stageLogger *slog.Logger, stg pipelineStage, item *downloads.Download) error {
	stageStart := time.Now()
	stageLogger.Info("stage started",
		logging.String(logging.FieldEventType, "stage_start"),
		logging.String("processing_status", string(stg.processingStatus)),
		logging.String("source", item.Source),
	)

	if err := stg.handler.Prepare(ctx, item); err != nil {
		m.handleStageFailure(ctx, stageLogger, stg, item, err)
		return err
	}

	execErr := m.executeWithHeartbeat(ctx, stg.handler, item)
	if execErr != nil {
		if errors.Is(execErr, context.Canceled) {
			stageLogger.Debug("stage interrupted by shutdown")
			return execErr
		}
		m.handleStageFailure(ctx, stageLogger, stg, item, execErr)
		return execErr
	}

	final := item.Status
	if final == stg.processingStatus || final == "" {
		final = stg.doneStatus
	}
	if final != stg.processingStatus {
		if err := m.store.Transition(ctx, item.ID, stg.processingStatus, final); err != nil {
			wrapped := fmt.Errorf("persist stage result: %w", err)
			stageLogger.Error("failed to persist stage result", logging.Error(wrapped))
			m.setLastError(wrapped)
			return wrapped
		}
	}
	item.Status = final

	stageLogger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.String("next_status", string(final)),
		logging.Duration("stage_duration", time.Since(stageStart)),
	)
	m.notifyOutcome(ctx, stageLogger, item)
	return nil
}

// executeWithHeartbeat runs the handler while a companion goroutine refreshes
// the item's heartbeat so a crashed worker is distinguishable from a slow one.
func (m *Manager) executeWithHeartbeat(ctx context.Context, handler stage.Handler, item *downloads.Download) error {
	hbCtx, hbCancel := context.WithCancel(ctx)
	var hbWG sync.WaitGroup
	hbWG.Add(1)
	go m.heartbeat.StartLoop(hbCtx, &hbWG, item.ID)

	execErr := handler.Execute(ctx, item)
	hbCancel()
	hbWG.Wait()
	return execErr
}

func (m *Manager) handleStageFailure(ctx context.Context, stageLogger *slog.Logger, stg pipelineStage, item *downloads.Download, stageErr error) {
	m.setLastError(stageErr)
	failStatus := services.FailureStatus(stageErr)
	// Only the import stage can route to review; the state machine admits
	// pending_review solely from importing. An acquire-side validation
	// failure is an ordinary failure.
	if failStatus == downloads.StatusPendingReview && stg.processingStatus != downloads.StatusImporting {
		failStatus = downloads.StatusFailed
	}
	message := strings.TrimSpace(stageErr.Error())

	stageLogger.Error("stage failed",
		logging.String(logging.FieldEventType, "stage_failure"),
		logging.String("resolved_status", string(failStatus)),
		logging.Error(stageErr),
	)
	if err := m.store.Fail(ctx, item.ID, stg.processingStatus, failStatus, message); err != nil {
		stageLogger.Error("failed to persist stage failure", logging.Error(err))
	}
	item.Status = failStatus
	item.ErrorMessage = message

	if err := m.publisher.Publish(ctx, notifications.EventDownloadError, notifications.Payload{
		Title:   fmt.Sprintf("Download #%d failed", item.ID),
		Message: message,
		Detail:  stg.name,
	}); err != nil {
		stageLogger.Debug("error notification failed", logging.Error(err))
	}
}

func (m *Manager) notifyOutcome(ctx context.Context, stageLogger *slog.Logger, item *downloads.Download) {
	var event notifications.Event
	var payload notifications.Payload
	switch item.Status {
	case downloads.StatusComplete:
		event = notifications.EventDownloadComplete
		payload = notifications.Payload{
			Title:   fmt.Sprintf("Download #%d complete", item.ID),
			Message: "imported into the library",
		}
	case downloads.StatusDuplicate:
		event = notifications.EventDownloadComplete
		payload = notifications.Payload{
			Title:   fmt.Sprintf("Download #%d complete", item.ID),
			Message: "already in the library; duplicate recorded",
		}
	case downloads.StatusPendingReview:
		event = notifications.EventImportReview
		payload = notifications.Payload{
			Title:   fmt.Sprintf("Download #%d needs review", item.ID),
			Message: item.ErrorMessage,
		}
	default:
		return
	}
	if err := m.publisher.Publish(ctx, event, payload); err != nil {
		stageLogger.Debug("outcome notification failed", logging.Error(err))
	}
}
