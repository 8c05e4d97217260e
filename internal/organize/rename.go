package organize

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/llm-wrapper/internal/fsops"
	"github.com/temirov/llm-wrapper/internal/metadata"
	"github.com/temirov/llm-wrapper/internal/parser"
	"github.com/temirov/llm-wrapper/internal/prompts"
)

const (
	keptStemSeparator = "-"

	statErrorFormat           = "stat %s: %w"
	suggestNameErrorFormat    = "suggest name for %s: %w"
	keepDecisionErrorFormat   = "keep check for %s: %w"
	notRegularFileErrorFormat = "%s is a directory"
)

type Renamer interface {
	Rename(ctx context.Context, currentName string, metadata prompts.FileMetadata) (parser.RenameResult, error)
	Keep(ctx context.Context, request prompts.KeepRequest) (parser.KeepResult, error)
}

type RenameAction struct {
	FromPath   string
	NewName    string
	Reason     string
	StemAction string
}

// Unchanged reports whether the action leaves the file name as it is.
func (action RenameAction) Unchanged() bool {
	return filepath.Base(action.FromPath) == action.NewName
}

type RenamePlanner struct {
	FS          fsops.Ops
	Collector   metadata.Collector
	Renamer     Renamer
	KeepCheck   bool
	Concurrency int
	Logger      *zap.Logger
}

// Plan suggests a new name for every path. With KeepCheck set, a second
// decision may append the original stem to the suggestion.
func (planner RenamePlanner) Plan(ctx context.Context, paths []string) ([]RenameAction, error) {
	logger := planner.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	files := make([]fsops.FileInfo, 0, len(paths))
	for _, path := range paths {
		stat, err := planner.FS.FS.Stat(path)
		if err != nil {
			return nil, fmt.Errorf(statErrorFormat, path, err)
		}
		if stat.IsDir() {
			return nil, fmt.Errorf(notRegularFileErrorFormat, path)
		}
		files = append(files, fsops.Describe(path, stat.Size()))
	}
	collected, err := planner.Collector.CollectAll(ctx, files, planner.Concurrency)
	if err != nil {
		return nil, fmt.Errorf(collectErrorFormat, err)
	}

	actions := make([]RenameAction, 0, len(files))
	for index, file := range files {
		suggestion, renameErr := planner.Renamer.Rename(ctx, file.Name(), collected[index])
		if renameErr != nil {
			return nil, fmt.Errorf(suggestNameErrorFormat, file.AbsolutePath, renameErr)
		}
		action := RenameAction{FromPath: file.AbsolutePath, NewName: suggestion.NewName, Reason: suggestion.Reason}
		if planner.KeepCheck {
			decision, keepErr := planner.Renamer.Keep(ctx, prompts.KeepRequest{
				OriginalStem:  file.BaseName,
				SuggestedName: suggestion.NewName,
				Extension:     strings.TrimPrefix(file.Extension, "."),
			})
			if keepErr != nil {
				return nil, fmt.Errorf(keepDecisionErrorFormat, file.AbsolutePath, keepErr)
			}
			action.StemAction = decision.StemAction
			if decision.StemAction == parser.StemActionKeep {
				action.NewName = withOriginalStem(suggestion.NewName, file.BaseName)
			}
		}
		logger.Debug("planned rename",
			zap.String("path", file.AbsolutePath),
			zap.String("new_name", action.NewName),
			zap.String("stem_action", action.StemAction))
		actions = append(actions, action)
	}
	return actions, nil
}

// withOriginalStem appends the original stem to the suggested stem unless
// the suggestion already contains it.
func withOriginalStem(suggestedName string, originalStem string) string {
	extension := filepath.Ext(suggestedName)
	suggestedStem := strings.TrimSuffix(suggestedName, extension)
	if originalStem == "" || strings.Contains(strings.ToLower(suggestedStem), strings.ToLower(originalStem)) {
		return suggestedName
	}
	combined := parser.SanitizeFilename(suggestedStem + keptStemSeparator + originalStem)
	return parser.EnsureExtension(combined, extension)
}
