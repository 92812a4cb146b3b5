// Package quality implements the pure ordering decision between two quality
// descriptors of the same logical content.
package quality
