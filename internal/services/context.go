package services

import "context"

type contextKey string

const (
	downloadIDKey contextKey = "download_id"
	stageKey      contextKey = "stage"
	requestIDKey  contextKey = "request_id"
	consumerKey   contextKey = "consumer"
)

// WithDownloadID attaches a download identifier to the context.
func WithDownloadID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, downloadIDKey, id)
}

// DownloadIDFromContext extracts a download identifier from the context.
func DownloadIDFromContext(ctx context.Context) (int64, bool) {
	id, ok := ctx.Value(downloadIDKey).(int64)
	return id, ok
}

// WithStage attaches a workflow stage name to the context.
func WithStage(ctx context.Context, stage string) context.Context {
	return context.WithValue(ctx, stageKey, stage)
}

// StageFromContext extracts a workflow stage name from the context.
func StageFromContext(ctx context.Context) (string, bool) {
	stage, ok := ctx.Value(stageKey).(string)
	return stage, ok
}

// WithRequestID attaches a correlation identifier to the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// RequestIDFromContext extracts a correlation identifier from the context.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(requestIDKey).(string)
	return id, ok
}

// WithConsumer attaches a consumer name to the context.
func WithConsumer(ctx context.Context, consumer string) context.Context {
	return context.WithValue(ctx, consumerKey, consumer)
}

// ConsumerFromContext extracts a consumer name from the context.
func ConsumerFromContext(ctx context.Context) (string, bool) {
	consumer, ok := ctx.Value(consumerKey).(string)
	return consumer, ok
}
