package organize

import (
	"fmt"
	"io"

	"github.com/temirov/llm-wrapper/internal/fsops"
)

const (
	dryRunLabel  = "dry-run"
	appliedLabel = "applied"

	moveErrorFormat   = "move %s: %w"
	renameErrorFormat = "rename %s: %w"
)

type Report struct {
	DryRun     bool
	NumActions int
	Summary    string
}

// ApplyMoves prints every action when dryRun is set and moves the files
// otherwise. Taken destinations get a numeric suffix.
func ApplyMoves(ops fsops.Ops, plan MovePlan, dryRun bool, out io.Writer) (Report, error) {
	count := 0
	for _, action := range plan.Actions {
		if dryRun {
			fmt.Fprintf(out, "[DRY] %s -> %s (%s) %s\n", action.FromPath, action.ToPath, action.Category, action.Reason)
			count++
			continue
		}
		destination, err := ops.MoveUnique(action.FromPath, action.ToPath)
		if err != nil {
			return Report{DryRun: dryRun, NumActions: count}, fmt.Errorf(moveErrorFormat, action.FromPath, err)
		}
		fmt.Fprintf(out, "[MOVE] %s -> %s (%s)\n", action.FromPath, destination, action.Category)
		count++
	}
	return Report{
		DryRun:     dryRun,
		NumActions: count,
		Summary:    fmt.Sprintf("sort: %d actions (%s)", count, label(dryRun)),
	}, nil
}

// ApplyRenames renames files in place. Unchanged names are reported and
// skipped.
func ApplyRenames(ops fsops.Ops, actions []RenameAction, dryRun bool, out io.Writer) (Report, error) {
	count := 0
	for _, action := range actions {
		if action.Unchanged() {
			fmt.Fprintf(out, "[KEEP] %s\n", action.FromPath)
			continue
		}
		if dryRun {
			fmt.Fprintf(out, "[DRY] %s -> %s %s\n", action.FromPath, action.NewName, action.Reason)
			count++
			continue
		}
		destination, err := ops.RenameInPlace(action.FromPath, action.NewName)
		if err != nil {
			return Report{DryRun: dryRun, NumActions: count}, fmt.Errorf(renameErrorFormat, action.FromPath, err)
		}
		fmt.Fprintf(out, "[RENAME] %s -> %s\n", action.FromPath, destination)
		count++
	}
	return Report{
		DryRun:     dryRun,
		NumActions: count,
		Summary:    fmt.Sprintf("rename: %d actions (%s)", count, label(dryRun)),
	}, nil
}

func label(dryRun bool) string {
	if dryRun {
		return dryRunLabel
	}
	return appliedLabel
}
