// Package organize turns engine decisions into file operations: sort plans
// that move files into category folders and rename plans that give files
// descriptive names. Plans are printed in dry-run mode and executed otherwise.
package organize

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/llm-wrapper/internal/fsops"
	"github.com/temirov/llm-wrapper/internal/metadata"
	"github.com/temirov/llm-wrapper/internal/parser"
	"github.com/temirov/llm-wrapper/internal/prompts"
)

const (
	DefaultBatchSize = 20
	unsortedCategory = "Other"

	inventoryErrorFormat = "inventory %s: %w"
	batchErrorFormat     = "batch %d: %w"
	collectErrorFormat   = "collect metadata: %w"
)

var unsafeSegmentPattern = regexp.MustCompile(`[^a-zA-Z0-9 _\-]`)

type Sorter interface {
	Sort(ctx context.Context, items []prompts.SortItem) (parser.SortResult, error)
}

type MoveAction struct {
	FromPath string
	ToPath   string
	Category string
	Reason   string
}

type MovePlan struct {
	Root    string
	Actions []MoveAction
}

type SortPlanner struct {
	FS          fsops.Ops
	Collector   metadata.Collector
	Sorter      Sorter
	BatchSize   int
	Concurrency int
	Logger      *zap.Logger
}

// Plan inventories root, collects metadata for every file and asks the
// sorter for categories one batch at a time. A failing batch aborts the plan.
func (planner SortPlanner) Plan(ctx context.Context, root string, recursive bool) (MovePlan, error) {
	logger := planner.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	files, err := planner.FS.Inventory(root, recursive)
	if err != nil {
		return MovePlan{}, fmt.Errorf(inventoryErrorFormat, root, err)
	}
	collected, err := planner.Collector.CollectAll(ctx, files, planner.Concurrency)
	if err != nil {
		return MovePlan{}, fmt.Errorf(collectErrorFormat, err)
	}

	items := make([]prompts.SortItem, len(files))
	for index, file := range files {
		items[index] = prompts.SortItem{
			Path:        file.AbsolutePath,
			Name:        file.Name(),
			Ext:         strings.TrimPrefix(file.Extension, "."),
			Description: metadata.Describe(collected[index]),
		}
	}

	plan := MovePlan{Root: root}
	for index, batch := range chunkItems(items, planner.BatchSize) {
		result, sortErr := planner.Sorter.Sort(ctx, batch)
		if sortErr != nil {
			return MovePlan{}, fmt.Errorf(batchErrorFormat, index+1, sortErr)
		}
		logger.Debug("sorted batch", zap.Int("batch", index+1), zap.Int("files", len(batch)))
		for _, item := range batch {
			category := safeSegment(result.Assignments[item.Path])
			plan.Actions = append(plan.Actions, MoveAction{
				FromPath: item.Path,
				ToPath:   fsops.SortedPath(root, category, item.Name),
				Category: category,
				Reason:   result.Reasons[item.Path],
			})
		}
	}
	return plan, nil
}

func chunkItems(items []prompts.SortItem, size int) [][]prompts.SortItem {
	if len(items) == 0 {
		return nil
	}
	if size <= 0 {
		size = DefaultBatchSize
	}
	var batches [][]prompts.SortItem
	for start := 0; start < len(items); start += size {
		end := min(start+size, len(items))
		batches = append(batches, append([]prompts.SortItem(nil), items[start:end]...))
	}
	return batches
}

// safeSegment keeps category names usable as a single directory name.
func safeSegment(category string) string {
	cleaned := unsafeSegmentPattern.ReplaceAllString(strings.TrimSpace(category), "_")
	cleaned = strings.Trim(cleaned, " _-")
	if cleaned == "" {
		return unsortedCategory
	}
	return cleaned
}
