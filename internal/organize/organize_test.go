package organize_test

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temirov/llm-wrapper/internal/fsops"
	"github.com/temirov/llm-wrapper/internal/metadata"
	"github.com/temirov/llm-wrapper/internal/organize"
	"github.com/temirov/llm-wrapper/internal/parser"
	"github.com/temirov/llm-wrapper/internal/prompts"
)

type fakeSorter struct {
	categories map[string]string
	batches    [][]prompts.SortItem
	err        error
}

func (sorter *fakeSorter) Sort(ctx context.Context, items []prompts.SortItem) (parser.SortResult, error) {
	sorter.batches = append(sorter.batches, items)
	if sorter.err != nil {
		return parser.SortResult{}, sorter.err
	}
	result := parser.SortResult{Assignments: map[string]string{}, Reasons: map[string]string{}}
	for _, item := range items {
		result.Assignments[item.Path] = sorter.categories[item.Name]
		result.Reasons[item.Path] = "because " + item.Name
	}
	return result, nil
}

type fakeRenamer struct {
	names      map[string]string
	stemAction string
	keepCalls  []prompts.KeepRequest
}

func (renamer *fakeRenamer) Rename(ctx context.Context, currentName string, metadata prompts.FileMetadata) (parser.RenameResult, error) {
	name, found := renamer.names[currentName]
	if !found {
		return parser.RenameResult{}, errors.New("no suggestion")
	}
	return parser.RenameResult{NewName: name, Reason: metadata.Summary}, nil
}

func (renamer *fakeRenamer) Keep(ctx context.Context, request prompts.KeepRequest) (parser.KeepResult, error) {
	renamer.keepCalls = append(renamer.keepCalls, request)
	return parser.KeepResult{StemAction: renamer.stemAction}, nil
}

func seed(t *testing.T, mem fsops.Mem, files map[string]string) {
	t.Helper()
	for path, content := range files {
		require.NoError(t, mem.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, mem.WriteFile(path, []byte(content), 0o644))
	}
}

func TestSortPlanBatchesAndSanitizesCategories(t *testing.T) {
	mem := fsops.NewMem()
	seed(t, mem, map[string]string{
		"/inbox/a.txt":        "alpha",
		"/inbox/b.md":         "# Beta",
		"/inbox/c.csv":        "x,y",
		"/inbox/nested/d.txt": "delta",
	})
	sorter := &fakeSorter{categories: map[string]string{"a.txt": "Document", "b.md": "Notes/Old", "c.csv": ""}}
	planner := organize.SortPlanner{
		FS:        fsops.NewOps(mem),
		Collector: metadata.NewCollector(mem),
		Sorter:    sorter,
		BatchSize: 2,
	}

	plan, err := planner.Plan(context.Background(), "/inbox", false)
	require.NoError(t, err)
	require.Len(t, sorter.batches, 2)
	assert.Len(t, sorter.batches[0], 2)
	assert.Len(t, sorter.batches[1], 1)
	assert.Equal(t, "b.md", sorter.batches[0][1].Name)
	assert.Equal(t, "Beta; # Beta", sorter.batches[0][1].Description)

	require.Len(t, plan.Actions, 3)
	targets := map[string]string{}
	for _, action := range plan.Actions {
		targets[filepath.Base(action.FromPath)] = action.ToPath
	}
	assert.Equal(t, filepath.Join("/inbox", fsops.SortedDirectoryName, "Document", "a.txt"), targets["a.txt"])
	assert.Equal(t, filepath.Join("/inbox", fsops.SortedDirectoryName, "Notes_Old", "b.md"), targets["b.md"])
	assert.Equal(t, filepath.Join("/inbox", fsops.SortedDirectoryName, "Other", "c.csv"), targets["c.csv"])
}

func TestSortPlanPropagatesBatchFailure(t *testing.T) {
	mem := fsops.NewMem()
	seed(t, mem, map[string]string{"/inbox/a.txt": "alpha"})
	planner := organize.SortPlanner{
		FS:        fsops.NewOps(mem),
		Collector: metadata.NewCollector(mem),
		Sorter:    &fakeSorter{err: parser.ErrParse},
	}
	_, err := planner.Plan(context.Background(), "/inbox", true)
	require.ErrorIs(t, err, parser.ErrParse)
	assert.Contains(t, err.Error(), "batch 1")
}

func TestSortPlanEmptyDirectory(t *testing.T) {
	mem := fsops.NewMem()
	require.NoError(t, mem.MkdirAll("/empty", 0o755))
	sorter := &fakeSorter{}
	planner := organize.SortPlanner{FS: fsops.NewOps(mem), Collector: metadata.NewCollector(mem), Sorter: sorter}

	plan, err := planner.Plan(context.Background(), "/empty", true)
	require.NoError(t, err)
	assert.Empty(t, plan.Actions)
	assert.Empty(t, sorter.batches)
}

func TestApplyMovesDryRunLeavesFiles(t *testing.T) {
	mem := fsops.NewMem()
	seed(t, mem, map[string]string{"/inbox/a.txt": "alpha"})
	plan := organize.MovePlan{Root: "/inbox", Actions: []organize.MoveAction{
		{FromPath: "/inbox/a.txt", ToPath: "/inbox/_sorted/Document/a.txt", Category: "Document"},
	}}

	var out bytes.Buffer
	report, err := organize.ApplyMoves(fsops.NewOps(mem), plan, true, &out)
	require.NoError(t, err)
	assert.True(t, report.DryRun)
	assert.Equal(t, 1, report.NumActions)
	assert.Contains(t, out.String(), "[DRY] /inbox/a.txt -> /inbox/_sorted/Document/a.txt")
	assert.True(t, fsops.NewOps(mem).FileExists("/inbox/a.txt"))
}

func TestApplyMovesAvoidsCollisions(t *testing.T) {
	mem := fsops.NewMem()
	seed(t, mem, map[string]string{
		"/inbox/a.txt":                  "alpha",
		"/inbox/_sorted/Document/a.txt": "older",
	})
	plan := organize.MovePlan{Root: "/inbox", Actions: []organize.MoveAction{
		{FromPath: "/inbox/a.txt", ToPath: "/inbox/_sorted/Document/a.txt", Category: "Document"},
	}}

	var out bytes.Buffer
	report, err := organize.ApplyMoves(fsops.NewOps(mem), plan, false, &out)
	require.NoError(t, err)
	assert.Equal(t, "sort: 1 actions (applied)", report.Summary)
	content, readErr := mem.ReadFile("/inbox/_sorted/Document/a-1.txt")
	require.NoError(t, readErr)
	assert.Equal(t, "alpha", string(content))
}

func TestRenamePlanWithKeepCheck(t *testing.T) {
	mem := fsops.NewMem()
	seed(t, mem, map[string]string{
		"/photos/DSC_0042.txt": "Beach sunset",
		"/photos/notes.txt":    "Meeting notes",
	})
	renamer := &fakeRenamer{
		names:      map[string]string{"DSC_0042.txt": "Beach-Sunset.txt", "notes.txt": "Meeting-Notes.txt"},
		stemAction: parser.StemActionKeep,
	}
	planner := organize.RenamePlanner{
		FS:        fsops.NewOps(mem),
		Collector: metadata.NewCollector(mem),
		Renamer:   renamer,
		KeepCheck: true,
	}

	actions, err := planner.Plan(context.Background(), []string{"/photos/DSC_0042.txt", "/photos/notes.txt"})
	require.NoError(t, err)
	require.Len(t, actions, 2)
	assert.Equal(t, "Beach-Sunset-DSC_0042.txt", actions[0].NewName)
	assert.Equal(t, "Beach sunset", actions[0].Reason)
	assert.Equal(t, "Meeting-Notes.txt", actions[1].NewName)
	require.Len(t, renamer.keepCalls, 2)
	assert.Equal(t, "DSC_0042", renamer.keepCalls[0].OriginalStem)
	assert.Equal(t, "txt", renamer.keepCalls[0].Extension)
}

func TestRenamePlanWithoutKeepCheck(t *testing.T) {
	mem := fsops.NewMem()
	seed(t, mem, map[string]string{"/docs/scan.txt": "Invoice 42"})
	renamer := &fakeRenamer{names: map[string]string{"scan.txt": "Invoice-42.txt"}, stemAction: parser.StemActionKeep}
	planner := organize.RenamePlanner{FS: fsops.NewOps(mem), Collector: metadata.NewCollector(mem), Renamer: renamer}

	actions, err := planner.Plan(context.Background(), []string{"/docs/scan.txt"})
	require.NoError(t, err)
	assert.Equal(t, "Invoice-42.txt", actions[0].NewName)
	assert.Empty(t, renamer.keepCalls)
}

func TestRenamePlanErrors(t *testing.T) {
	mem := fsops.NewMem()
	seed(t, mem, map[string]string{"/docs/scan.txt": "Invoice 42"})
	planner := organize.RenamePlanner{FS: fsops.NewOps(mem), Collector: metadata.NewCollector(mem), Renamer: &fakeRenamer{}}

	_, err := planner.Plan(context.Background(), []string{"/docs/missing.txt"})
	require.Error(t, err)
	assert.True(t, fsops.IsNotExist(err))

	_, err = planner.Plan(context.Background(), []string{"/docs"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is a directory")

	_, err = planner.Plan(context.Background(), []string{"/docs/scan.txt"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "suggest name for /docs/scan.txt")
}

func TestApplyRenames(t *testing.T) {
	mem := fsops.NewMem()
	seed(t, mem, map[string]string{
		"/docs/scan.txt":  "Invoice 42",
		"/docs/Ready.txt": "done",
	})
	actions := []organize.RenameAction{
		{FromPath: "/docs/scan.txt", NewName: "Invoice-42.txt"},
		{FromPath: "/docs/Ready.txt", NewName: "Ready.txt"},
	}

	var out bytes.Buffer
	report, err := organize.ApplyRenames(fsops.NewOps(mem), actions, false, &out)
	require.NoError(t, err)
	assert.Equal(t, 1, report.NumActions)
	assert.Contains(t, out.String(), "[KEEP] /docs/Ready.txt")
	assert.True(t, fsops.NewOps(mem).FileExists("/docs/Invoice-42.txt"))
	assert.False(t, fsops.NewOps(mem).FileExists("/docs/scan.txt"))
}
