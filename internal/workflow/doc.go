// Package workflow advances downloads through the configured pipeline stages.
//
// The Manager polls the downloads store, reclaims stale work via heartbeats,
// and feeds each item into its stage handler: acquisition stages files from a
// source, import commits them to the catalog. Stage failures are classified
// through the services error taxonomy, so validation and integrity problems
// land in pending_review while everything else becomes a retryable failure.
//
// Add new lifecycle stages by extending StageSet and teaching the manager the
// matching status edges; this package is the authoritative home for that
// coordination logic.
package workflow
