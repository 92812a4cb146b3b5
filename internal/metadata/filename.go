package metadata

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"cadence/internal/textutil"
)

// filenamePattern matches common staged naming such as "01 Title.flac",
// "1-02 Title.flac", and "01 - Title.flac".
var filenamePattern = regexp.MustCompile(`^(?:(\d+)-)?(\d+)\s*(?:-\s*)?(.+)$`)

// ParseFilename derives the lowest-trust metadata layer from a file name.
// It never fails; unknown parts stay zero-valued.
func ParseFilename(path string) TrackMeta {
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	name = strings.TrimSpace(name)

	var meta TrackMeta
	matches := filenamePattern.FindStringSubmatch(name)
	if matches == nil {
		meta.Title = textutil.TitleCase(name)
		return meta
	}
	if matches[1] != "" {
		if disc, err := strconv.Atoi(matches[1]); err == nil {
			meta.DiscNumber = disc
		}
	}
	if num, err := strconv.Atoi(matches[2]); err == nil {
		meta.TrackNumber = num
	}
	title := strings.TrimSpace(matches[3])
	if title != "" {
		meta.Title = textutil.TitleCase(title)
	}
	return meta
}

// FilenameLayer wraps ParseFilename as a merge layer.
func FilenameLayer(path string) Layer {
	return Layer{Origin: OriginFilename, Meta: ParseFilename(path)}
}
