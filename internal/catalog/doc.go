// Package catalog persists the canonical content-addressed music catalog:
// artists, albums, tracks, per-consumer memberships, and the duplicate audit
// log. Uniqueness constraints on track checksum, track position, and album
// key are the authoritative backstop for concurrent import races.
package catalog
