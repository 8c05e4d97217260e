package parser

import (
	"sort"
	"strings"
)

const (
	NewNameTag      = "new_name"
	ReasonTag       = "reason"
	CategoryTag     = "category"
	StemActionTag   = "stem_action"
	KeepOriginalTag = "keep_original"

	StemActionKeep   = "keep"
	StemActionRename = "rename"

	emptyNewNameErrorFormat        = "<%s> is empty"
	categoryCountErrorFormat       = "expected %d <%s> tags, found %d"
	emptyCategoryErrorFormat       = "<%s> for %s is empty"
	invalidStemActionErrorFormat   = "invalid <%s> value %q for stem %q"
	invalidKeepOriginalFormat      = "invalid <%s> value %q for stem %q"
	missingKeepDecisionErrorFormat = "missing <%s> or <%s> for stem %q"
)

type RenameResult struct {
	NewName string
	Reason  string
}

type SortResult struct {
	Assignments map[string]string
	Reasons     map[string]string
	RawText     string
}

type KeepResult struct {
	StemAction string
	Reason     string
}

// ParseRename requires a non-empty <new_name>; <reason> is optional.
func ParseRename(text string) (RenameResult, error) {
	newName, err := ParseTag(text, NewNameTag)
	if err != nil {
		return RenameResult{}, err
	}
	if newName == "" {
		return RenameResult{}, parseError(emptyNewNameErrorFormat, NewNameTag)
	}
	reason, _ := ExtractTag(text, ReasonTag)
	return RenameResult{NewName: newName, Reason: NormalizeReason(reason)}, nil
}

// ParseSort pairs the n-th <category> tag with the n-th expected path. A
// <reason> belongs to the closest <category> before it; items without one
// are left out of Reasons.
func ParseSort(text string, expectedPaths []string) (SortResult, error) {
	categories := findTags(text, CategoryTag)
	if len(categories) != len(expectedPaths) {
		return SortResult{}, parseError(categoryCountErrorFormat, len(expectedPaths), CategoryTag, len(categories))
	}

	result := SortResult{
		Assignments: make(map[string]string, len(expectedPaths)),
		Reasons:     make(map[string]string),
		RawText:     text,
	}
	for index, category := range categories {
		if category.content == "" {
			return SortResult{}, parseError(emptyCategoryErrorFormat, CategoryTag, expectedPaths[index])
		}
		result.Assignments[expectedPaths[index]] = category.content
	}

	for _, reason := range findTags(text, ReasonTag) {
		owner := sort.Search(len(categories), func(index int) bool {
			return categories[index].offset > reason.offset
		}) - 1
		if owner < 0 {
			continue
		}
		result.Reasons[expectedPaths[owner]] = NormalizeReason(reason.content)
	}
	return result, nil
}

// ParseKeep accepts <stem_action>keep|rename</stem_action> or
// <keep_original>true|false</keep_original>, case-insensitively.
func ParseKeep(text string, originalStem string) (KeepResult, error) {
	reason, _ := ExtractTag(text, ReasonTag)
	normalizedReason := NormalizeReason(reason)

	if action, found := ExtractTag(text, StemActionTag); found {
		switch strings.ToLower(action) {
		case StemActionKeep:
			return KeepResult{StemAction: StemActionKeep, Reason: normalizedReason}, nil
		case StemActionRename:
			return KeepResult{StemAction: StemActionRename, Reason: normalizedReason}, nil
		default:
			return KeepResult{}, parseError(invalidStemActionErrorFormat, StemActionTag, action, originalStem)
		}
	}

	if keepOriginal, found := ExtractTag(text, KeepOriginalTag); found {
		switch strings.ToLower(keepOriginal) {
		case "true":
			return KeepResult{StemAction: StemActionKeep, Reason: normalizedReason}, nil
		case "false":
			return KeepResult{StemAction: StemActionRename, Reason: normalizedReason}, nil
		default:
			return KeepResult{}, parseError(invalidKeepOriginalFormat, KeepOriginalTag, keepOriginal, originalStem)
		}
	}

	return KeepResult{}, parseError(missingKeepDecisionErrorFormat, StemActionTag, KeepOriginalTag, originalStem)
}
