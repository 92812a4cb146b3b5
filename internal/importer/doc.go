// Package importer commits staged audio into the canonical catalog.
//
// The pipeline is strictly ordered: validate metadata, checksum every file
// before any mutation, check for content and metadata duplicates, move files
// into the canonical layout, persist rows, resolve artwork, notify. The move
// is the only filesystem mutation before the catalog commit; a persistence
// failure afterwards quarantines the moved files rather than leaving orphans.
// Ambiguous items (placeholder metadata, low identification confidence,
// integrity failures) are routed to the review queue, never force-committed.
package importer
