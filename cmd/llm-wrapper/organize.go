package llmwrapper

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/temirov/llm-wrapper/internal/fsops"
	"github.com/temirov/llm-wrapper/internal/metadata"
	"github.com/temirov/llm-wrapper/internal/organize"
)

type renameCommandOptions struct {
	apply         bool
	keepCheck     bool
	concurrency   int
	promptContext string
}

func newRenameCommand(app *application) *cobra.Command {
	options := &renameCommandOptions{concurrency: metadata.DefaultConcurrency}
	command := &cobra.Command{
		Use:   renameCommandUse,
		Short: renameCommandShort,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (runErr error) {
			current, err := app.openSession(cmd, sessionOptions{contextOverride: options.promptContext})
			if err != nil {
				return err
			}
			defer func() { runErr = errors.Join(runErr, current.Close()) }()

			ops := fsops.NewOps(app.dependencies.FS)
			planner := organize.RenamePlanner{
				FS:          ops,
				Collector:   metadata.NewCollector(app.dependencies.FS),
				Renamer:     current.engine,
				KeepCheck:   options.keepCheck,
				Concurrency: options.concurrency,
				Logger:      current.logger,
			}
			actions, err := planner.Plan(cmd.Context(), args)
			if err != nil {
				return err
			}
			report, err := organize.ApplyRenames(ops, actions, !options.apply, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			_, writeErr := fmt.Fprintln(cmd.OutOrStdout(), report.Summary)
			return writeErr
		},
	}
	addBoolChoiceFlag(command.Flags(), &options.apply, applyFlagName, applyFlagUsage)
	addBoolChoiceFlag(command.Flags(), &options.keepCheck, keepCheckFlagName, keepCheckFlagUsage)
	command.Flags().IntVar(&options.concurrency, concurrencyFlagName, metadata.DefaultConcurrency, concurrencyFlagUsage)
	command.Flags().StringVar(&options.promptContext, contextFlagName, "", contextFlagUsage)
	return command
}

type sortCommandOptions struct {
	apply         bool
	recursive     bool
	batchSize     int
	concurrency   int
	promptContext string
}

func newSortCommand(app *application) *cobra.Command {
	options := &sortCommandOptions{batchSize: organize.DefaultBatchSize, concurrency: metadata.DefaultConcurrency}
	command := &cobra.Command{
		Use:   sortCommandUse,
		Short: sortCommandShort,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) (runErr error) {
			root := args[0]
			info, err := app.dependencies.FS.Stat(root)
			if err != nil {
				return fmt.Errorf(statDirectoryErrorFormat, root, err)
			}
			if !info.IsDir() {
				return fmt.Errorf(notDirectoryErrorFormat, root)
			}

			current, err := app.openSession(cmd, sessionOptions{contextOverride: options.promptContext})
			if err != nil {
				return err
			}
			defer func() { runErr = errors.Join(runErr, current.Close()) }()

			ops := fsops.NewOps(app.dependencies.FS)
			planner := organize.SortPlanner{
				FS:          ops,
				Collector:   metadata.NewCollector(app.dependencies.FS),
				Sorter:      current.engine,
				BatchSize:   options.batchSize,
				Concurrency: options.concurrency,
				Logger:      current.logger,
			}
			plan, err := planner.Plan(cmd.Context(), root, options.recursive)
			if err != nil {
				return err
			}
			report, err := organize.ApplyMoves(ops, plan, !options.apply, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			_, writeErr := fmt.Fprintln(cmd.OutOrStdout(), report.Summary)
			return writeErr
		},
	}
	addBoolChoiceFlag(command.Flags(), &options.apply, applyFlagName, applyFlagUsage)
	addBoolChoiceFlag(command.Flags(), &options.recursive, recursiveFlagName, recursiveFlagUsage)
	command.Flags().IntVar(&options.batchSize, batchSizeFlagName, organize.DefaultBatchSize, batchSizeFlagUsage)
	command.Flags().IntVar(&options.concurrency, concurrencyFlagName, metadata.DefaultConcurrency, concurrencyFlagUsage)
	command.Flags().StringVar(&options.promptContext, contextFlagName, "", contextFlagUsage)
	return command
}
