// Package metadata models per-file audio metadata and the trust hierarchy
// that merges it across origins. Identification results outrank source API
// data, which outranks embedded tags, which outrank filename parsing; the
// precedence is a single ordered merge rather than scattered fallbacks.
package metadata
