// Package logging wraps log/slog with console and JSON handlers, standardized
// field names, and context-derived attributes shared across components.
package logging
