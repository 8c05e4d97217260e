package prompts

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const (
	RenameExampleOutput = "<new_name>Quarterly-Sales-Report.pdf</new_name>\n<reason>title and summary describe the quarterly sales report</reason>"
	SortExampleOutput   = "<category>Document</category>\n<reason>meeting notes in plain text</reason>"
	KeepExampleOutput   = "<stem_action>rename</stem_action>\n<reason>the original stem is a camera counter</reason>"

	formatFixHeader       = "Reply with tags only."
	formatFixInstruction  = "Your previous reply did not use the required tags. Answer the request below again and output only the tags shown above."
	excerptCharacterLimit = 600
	minimalTitleLimit     = 80
)

// DefaultCategories is the fixed category list offered by sort prompts.
var DefaultCategories = []string{
	"Document",
	"Spreadsheet",
	"Presentation",
	"Image",
	"Audio",
	"Video",
	"Code",
	"Data",
	"Archive",
	"Other",
}

// Builder renders prompts. The zero value uses DefaultCategories.
type Builder struct {
	Categories []string
}

func (builder Builder) categories() []string {
	if len(builder.Categories) == 0 {
		return DefaultCategories
	}
	return builder.Categories
}

func (builder Builder) RenamePrompt(request RenameRequest) string {
	metadata := request.Metadata
	lines := []string{
		"You rename files using only the metadata below.",
		"Choose a short, descriptive file name. Separate words with hyphens and keep the extension.",
		"Return only these tags:",
		"<new_name>Descriptive-Name.ext</new_name>",
		"<reason>one short sentence</reason>",
		"",
		"current_name: " + sanitizePromptText(request.CurrentName),
	}
	lines = appendField(lines, "extension", strings.TrimPrefix(metadata.Extension, "."))
	lines = appendField(lines, "title", metadata.Title)
	if len(metadata.Keywords) > 0 {
		lines = append(lines, "keywords: "+strings.Join(sanitizePromptList(metadata.Keywords), ", "))
	}
	lines = appendField(lines, "excerpt", promptExcerpt(metadata))
	lines = appendField(lines, "mime", metadata.MIMEType)
	if metadata.SizeBytes > 0 {
		lines = append(lines, "size_bytes: "+strconv.FormatInt(metadata.SizeBytes, 10))
	}
	for _, key := range sortedKeys(metadata.Extra) {
		lines = appendField(lines, key, metadata.Extra[key])
	}
	lines = appendField(lines, "context", request.Context)
	return strings.Join(lines, "\n")
}

// RenamePromptMinimal keeps only the fields a model needs to propose a name.
// It is sent after a guardrail refusal or a context-window overflow.
func (builder Builder) RenamePromptMinimal(request RenameRequest) string {
	lines := []string{
		"Suggest a descriptive file name. Keep the extension.",
		"<new_name>Descriptive-Name.ext</new_name>",
		"<reason>one short sentence</reason>",
		"current_name: " + sanitizePromptText(request.CurrentName),
	}
	lines = appendField(lines, "extension", strings.TrimPrefix(request.Metadata.Extension, "."))
	lines = appendField(lines, "title", truncate(request.Metadata.Title, minimalTitleLimit))
	return strings.Join(lines, "\n")
}

// FormatFixPrompt asks the model to answer originalPrompt again using the
// tag layout shown in exampleOutput.
func (builder Builder) FormatFixPrompt(originalPrompt string, exampleOutput string) string {
	lines := []string{
		formatFixHeader,
		exampleOutput,
		"",
		formatFixInstruction,
		"",
		originalPrompt,
	}
	return strings.Join(lines, "\n")
}

func (builder Builder) SortPrompt(request SortRequest) string {
	lines := []string{
		"Sort each file into exactly one category.",
		"Allowed categories:",
	}
	for _, category := range builder.categories() {
		lines = append(lines, "- "+category)
	}
	lines = append(lines,
		"",
		"Return one <category> tag per file, in the same order as the list below.",
		"Each <category> may be followed by a <reason> tag.",
		"",
		"Files:",
	)
	for index, item := range request.Files {
		lines = append(lines, fmt.Sprintf("%d. path=%s name=%s ext=%s description=%s",
			index+1,
			sanitizePromptText(item.Path),
			sanitizePromptText(item.Name),
			strings.TrimPrefix(item.Ext, "."),
			truncate(sanitizePromptText(item.Description), excerptCharacterLimit),
		))
	}
	lines = appendField(lines, "context", request.Context)
	return strings.Join(lines, "\n")
}

func (builder Builder) KeepPrompt(request KeepRequest) string {
	lines := []string{
		"Decide whether the original file stem carries meaning worth keeping instead of the suggested name.",
		"Keep it when it holds identifiers such as model numbers, invoice ids or names.",
		"Return only these tags:",
		"<stem_action>keep or rename</stem_action>",
		"<reason>one short sentence</reason>",
		"",
		"original_stem: " + sanitizePromptText(request.OriginalStem),
		"suggested_name: " + sanitizePromptText(request.SuggestedName),
	}
	lines = appendField(lines, "extension", strings.TrimPrefix(request.Extension, "."))
	if len(request.Features) > 0 {
		lines = append(lines, "features:")
		for _, key := range sortedKeys(request.Features) {
			lines = append(lines, fmt.Sprintf("- %s: %v", key, request.Features[key]))
		}
	}
	lines = appendField(lines, "context", request.Context)
	return strings.Join(lines, "\n")
}

func (builder Builder) KeepPromptMinimal(request KeepRequest) string {
	lines := []string{
		"Keep the original file stem or use the suggested name?",
		"<stem_action>keep or rename</stem_action>",
		"<reason>one short sentence</reason>",
		"original_stem: " + sanitizePromptText(request.OriginalStem),
		"suggested_name: " + sanitizePromptText(request.SuggestedName),
	}
	return strings.Join(lines, "\n")
}

func appendField(lines []string, key string, value string) []string {
	cleaned := sanitizePromptText(value)
	if cleaned == "" {
		return lines
	}
	return append(lines, key+": "+cleaned)
}

func sortedKeys[V any](values map[string]V) []string {
	keys := make([]string, 0, len(values))
	for key := range values {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}
