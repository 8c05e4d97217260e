package parser

import (
	"path/filepath"
	"strings"
	"unicode"
)

const filenameNoiseCharacters = "-_. "

var placeholderReasons = map[string]struct{}{
	"short reason":     {},
	"brief reason":     {},
	"reason":           {},
	"your reason":      {},
	"your reason here": {},
	"reason here":      {},
	"n/a":              {},
	"na":               {},
	"none":             {},
	"null":             {},
	"tbd":              {},
	"...":              {},
	"…":                {},
	"-":                {},
}

// NormalizeReason collapses whitespace and maps template placeholders such
// as "short reason" or "N/A" to the empty string. A reason is either
// informative or blank.
func NormalizeReason(reason string) string {
	collapsed := strings.Join(strings.Fields(reason), " ")
	lowered := strings.ToLower(collapsed)
	if _, placeholder := placeholderReasons[lowered]; placeholder {
		return ""
	}
	if _, placeholder := placeholderReasons[strings.TrimRight(lowered, ".!")]; placeholder {
		return ""
	}
	return collapsed
}

// SanitizeFilename makes a model-proposed name filesystem safe: characters
// other than letters, digits, '.', '-' and '_' become hyphens, hyphen runs
// collapse, and leading or trailing noise is trimmed. The extension is kept.
func SanitizeFilename(name string) string {
	var builder strings.Builder
	previousHyphen := false
	for _, character := range strings.TrimSpace(name) {
		if unicode.IsLetter(character) || unicode.IsDigit(character) || character == '.' || character == '_' {
			builder.WriteRune(character)
			previousHyphen = false
			continue
		}
		if previousHyphen {
			continue
		}
		builder.WriteRune('-')
		previousHyphen = true
	}
	return strings.Trim(builder.String(), filenameNoiseCharacters)
}

// EnsureExtension appends extension when name has none.
func EnsureExtension(name string, extension string) string {
	trimmedExtension := strings.TrimPrefix(strings.TrimSpace(extension), ".")
	if name == "" || trimmedExtension == "" {
		return name
	}
	if strings.EqualFold(strings.TrimPrefix(filepath.Ext(name), "."), trimmedExtension) {
		return name
	}
	return name + "." + trimmedExtension
}
