// Package library projects per-consumer membership sets onto the filesystem.
//
// Each consumer gets a mirror tree under the consumers directory, structurally
// identical to the hearted subset of the canonical library. Files are never
// copied: tracks are hard-linked when both trees share a filesystem and
// symlinked otherwise. Membership rows are the source of truth and links are a
// derived projection, so Repair can rebuild a consumer tree from the catalog
// alone.
package library
