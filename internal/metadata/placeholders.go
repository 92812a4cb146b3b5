package metadata

import (
	"regexp"
	"strings"
)

// Built-in placeholder patterns. Metadata matching any of these is a symptom
// of a source that never knew the real names, and committing it would poison
// the dedup keys for every later import.
var placeholderPatterns = []*regexp.Regexp{
	regexp.MustCompile(`^\d+$`),
	regexp.MustCompile(`^track[\s_-]*\d*$`),
	regexp.MustCompile(`^audio[\s_-]*\d*$`),
	regexp.MustCompile(`^untitled(\s*\(\d+\))?$`),
	regexp.MustCompile(`^unknown([\s_-]*(artist|album|title|track))?$`),
	regexp.MustCompile(`^various([\s_-]*artists?)?$`),
	regexp.MustCompile(`^va$`),
	regexp.MustCompile(`^n/?a$`),
	regexp.MustCompile(`^none$`),
	regexp.MustCompile(`^new\s+(artist|album|track)$`),
}

// Validator checks metadata fields against the placeholder pattern set.
type Validator struct {
	extra []*regexp.Regexp
}

// NewValidator builds a validator extending the built-in patterns with
// configured extras. Invalid extra patterns are skipped.
func NewValidator(extraPatterns []string) *Validator {
	v := &Validator{}
	for _, raw := range extraPatterns {
		raw = strings.TrimSpace(raw)
		if raw == "" {
			continue
		}
		if re, err := regexp.Compile(`(?i)` + raw); err == nil {
			v.extra = append(v.extra, re)
		}
	}
	return v
}

// IsPlaceholder reports whether a single value is empty or placeholder-like.
func (v *Validator) IsPlaceholder(value string) bool {
	normalized := strings.ToLower(strings.TrimSpace(value))
	if normalized == "" {
		return true
	}
	for _, re := range placeholderPatterns {
		if re.MatchString(normalized) {
			return true
		}
	}
	for _, re := range v.extra {
		if re.MatchString(normalized) {
			return true
		}
	}
	return false
}

// ValidateTrack returns a reason string when a track's identifying fields are
// missing or placeholder-like, or "" when the track is acceptable.
func (v *Validator) ValidateTrack(meta TrackMeta) string {
	switch {
	case v.IsPlaceholder(meta.Artist) && v.IsPlaceholder(meta.AlbumArtist):
		return "artist is missing or a placeholder"
	case v.IsPlaceholder(meta.Album):
		return "album is missing or a placeholder"
	case v.IsPlaceholder(meta.Title):
		return "track title is missing or a placeholder"
	default:
		return ""
	}
}
