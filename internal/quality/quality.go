package quality

import "fmt"

// Descriptor captures the audio quality attributes of one committed or
// incoming file. Quality itself is a black box; only these fields order
// candidates.
type Descriptor struct {
	SampleRate int
	BitDepth   int
	Bitrate    int
	FileSize   int64
	Format     string
	Lossy      bool
}

// IsZero reports whether no origin filled in any field of the descriptor.
func (d Descriptor) IsZero() bool {
	return d == Descriptor{}
}

// Outcome is the decision for a candidate against an existing entry of the
// same logical content.
type Outcome string

const (
	// Replace retires the existing file and row; the candidate takes over
	// its identity and path.
	Replace Outcome = "replace"
	// KeepExisting discards the candidate; a duplicate-history record is
	// still logged for audit.
	KeepExisting Outcome = "keep_existing"
	// MergeIncomplete applies only at album granularity: the candidate fills
	// positions the existing album is missing.
	MergeIncomplete Outcome = "merge_incomplete"
)

// Compare orders two descriptors. It returns a negative value when existing
// outranks candidate, positive when candidate outranks existing, and zero on
// a full tie. The order is total: lossless beats lossy unconditionally, then
// sample rate, bit depth, and file size decide, in that order.
func Compare(existing, candidate Descriptor) int {
	if existing.Lossy != candidate.Lossy {
		if candidate.Lossy {
			return -1
		}
		return 1
	}
	if existing.SampleRate != candidate.SampleRate {
		return sign(candidate.SampleRate - existing.SampleRate)
	}
	if existing.BitDepth != candidate.BitDepth {
		return sign(candidate.BitDepth - existing.BitDepth)
	}
	if existing.FileSize != candidate.FileSize {
		if candidate.FileSize > existing.FileSize {
			return 1
		}
		return -1
	}
	return 0
}

// Resolve decides what to do with a candidate for content already in the
// catalog. Ties keep the existing entry: source priority is preserved by
// insertion order, never re-evaluated.
func Resolve(existing, candidate Descriptor) Outcome {
	if Compare(existing, candidate) > 0 {
		return Replace
	}
	return KeepExisting
}

// Label renders a short human-readable description for logs and review UIs.
func (d Descriptor) Label() string {
	kind := "lossless"
	if d.Lossy {
		kind = "lossy"
	}
	if d.BitDepth > 0 {
		return fmt.Sprintf("%s %s %d-bit/%dHz", d.Format, kind, d.BitDepth, d.SampleRate)
	}
	return fmt.Sprintf("%s %s %dkbps", d.Format, kind, d.Bitrate/1000)
}

func sign(v int) int {
	switch {
	case v > 0:
		return 1
	case v < 0:
		return -1
	default:
		return 0
	}
}
