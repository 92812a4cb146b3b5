package textutil

import "strings"

// fileNameReplacer replaces filesystem-unsafe characters with safe alternatives.
var fileNameReplacer = strings.NewReplacer(
	"/", "-",
	"\\", "-",
	":", "-",
	"*", "-",
	"?", "",
	"\"", "",
	"<", "",
	">", "",
	"|", "",
)

// SanitizeFileName replaces filesystem-unsafe characters in a filename.
// Slashes, backslashes, colons, and asterisks become dashes; other unsafe
// characters are removed. The result is trimmed of leading/trailing whitespace.
func SanitizeFileName(name string) string {
	name = strings.TrimSpace(name)
	if name == "" {
		return ""
	}
	return strings.TrimSpace(fileNameReplacer.Replace(name))
}

// SanitizePathComponent sanitizes a string for use as a single directory name
// in the catalog tree. Empty results fall back to "Unknown".
func SanitizePathComponent(name string) string {
	cleaned := SanitizeFileName(name)
	cleaned = strings.Trim(cleaned, ". ")
	if cleaned == "" {
		return "Unknown"
	}
	return cleaned
}
