// Package notifications delivers pipeline events via pluggable publishers.
//
// The default implementation publishes to ntfy using the topic configured in
// config.toml and gracefully degrades to a no-op when no topic is set.
// Delivery is fire-and-forget: callers log a failed publish and move on, a
// notification error never rolls back or blocks the pipeline.
//
// Extend this package if you need alternative transports; all pipeline code
// depends only on the Publisher interface.
package notifications
