// Package parser turns tagged model replies into typed results.
//
// Tags are matched as <tag>...</tag>. When a tag occurs more than once the
// last occurrence wins: models that think aloud tend to restate their final
// answer at the end.
package parser

import (
	"fmt"
	"regexp"
	"strings"
	"sync"

	"github.com/temirov/llm-wrapper/internal/llm"
)

const missingTagErrorFormat = "missing <%s> tag"

// ErrParse is the sentinel for malformed or incomplete model output.
var ErrParse = llm.ErrParseFailure

var tagPatterns sync.Map

type tagMatch struct {
	tag     string
	content string
	offset  int
}

func tagPattern(tag string) *regexp.Regexp {
	if cached, ok := tagPatterns.Load(tag); ok {
		return cached.(*regexp.Regexp)
	}
	quoted := regexp.QuoteMeta(tag)
	compiled := regexp.MustCompile(`(?s)<` + quoted + `>(.*?)</` + quoted + `>`)
	actual, _ := tagPatterns.LoadOrStore(tag, compiled)
	return actual.(*regexp.Regexp)
}

func findTags(text string, tag string) []tagMatch {
	indexes := tagPattern(tag).FindAllStringSubmatchIndex(text, -1)
	matches := make([]tagMatch, 0, len(indexes))
	for _, index := range indexes {
		matches = append(matches, tagMatch{
			tag:     tag,
			content: strings.TrimSpace(text[index[2]:index[3]]),
			offset:  index[0],
		})
	}
	return matches
}

// ExtractTag returns the trimmed content of the last <tag> in text.
func ExtractTag(text string, tag string) (string, bool) {
	matches := findTags(text, tag)
	if len(matches) == 0 {
		return "", false
	}
	return matches[len(matches)-1].content, true
}

// ParseTag is ExtractTag with a parse error when the tag is absent.
func ParseTag(text string, tag string) (string, error) {
	content, found := ExtractTag(text, tag)
	if !found {
		return "", parseError(missingTagErrorFormat, tag)
	}
	return content, nil
}

func parseError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrParse, fmt.Sprintf(format, args...))
}
