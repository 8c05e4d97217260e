package prompts

import (
	"regexp"
	"strings"
	"unicode"
)

var (
	stemDatePattern  = regexp.MustCompile(`(19|20)\d{2}[-_.]?(0[1-9]|1[0-2])[-_.]?(0[1-9]|[12]\d|3[01])`)
	stemTokenPattern = regexp.MustCompile(`[^\pL\pN]+`)
)

var generatedStemPrefixes = []string{"img", "dsc", "dcim", "pxl", "scan", "screenshot", "screen shot", "document", "untitled", "file", "download"}

// sanitizePromptText removes code fences and collapses runs of whitespace so
// metadata cannot smuggle formatting into the prompt.
func sanitizePromptText(text string) string {
	withoutFences := strings.ReplaceAll(text, "```", " ")
	return strings.Join(strings.Fields(withoutFences), " ")
}

func sanitizePromptList(values []string) []string {
	cleaned := make([]string, 0, len(values))
	for _, value := range values {
		if sanitized := sanitizePromptText(value); sanitized != "" {
			cleaned = append(cleaned, sanitized)
		}
	}
	return cleaned
}

// promptExcerpt prefers the summary over the longer description.
func promptExcerpt(metadata FileMetadata) string {
	excerpt := sanitizePromptText(metadata.Summary)
	if excerpt == "" {
		excerpt = sanitizePromptText(metadata.Description)
	}
	return truncate(excerpt, excerptCharacterLimit)
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "…"
}

// ComputeStemFeatures describes an original file stem for keep prompts.
func ComputeStemFeatures(stem string, suggestedName string) map[string]any {
	hasLetter := false
	hasDigit := false
	for _, character := range stem {
		switch {
		case unicode.IsDigit(character):
			hasDigit = true
		case unicode.IsLetter(character):
			hasLetter = true
		}
	}

	tokens := stemTokens(stem)
	loweredStem := strings.ToLower(stem)
	looksGenerated := false
	for _, prefix := range generatedStemPrefixes {
		if strings.HasPrefix(loweredStem, prefix) {
			looksGenerated = true
			break
		}
	}

	suggestedLowered := strings.ToLower(suggestedName)
	sharedTokens := 0
	for _, token := range tokens {
		if len([]rune(token)) >= 3 && strings.Contains(suggestedLowered, token) {
			sharedTokens++
		}
	}

	return map[string]any{
		"has_letter":      hasLetter,
		"has_digit":       hasDigit,
		"is_numeric_only": hasDigit && !hasLetter,
		"length":          len([]rune(stem)),
		"word_count":      len(tokens),
		"has_date":        stemDatePattern.MatchString(stem),
		"looks_generated": looksGenerated,
		"shared_tokens":   sharedTokens,
	}
}

func stemTokens(stem string) []string {
	var tokens []string
	for _, token := range stemTokenPattern.Split(strings.ToLower(stem), -1) {
		if token != "" {
			tokens = append(tokens, token)
		}
	}
	return tokens
}
