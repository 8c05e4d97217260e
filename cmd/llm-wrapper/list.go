package llmwrapper

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/temirov/llm-wrapper/internal/models"
)

func newTransportsCommand(app *application) *cobra.Command {
	var includeDisabled bool
	command := &cobra.Command{
		Use:   transportsCommandUse,
		Short: transportsCommandShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rootConfiguration, err := app.loadConfiguration()
			if err != nil {
				return err
			}
			for _, configured := range rootConfiguration.Transports {
				if !includeDisabled && !configured.Enabled {
					continue
				}
				stateLabel := enabledStateLabel
				if !configured.Enabled {
					stateLabel = disabledStateLabel
				}
				location := configured.Endpoint
				if location == "" {
					location = strings.TrimSpace(configured.Command + " " + strings.Join(configured.Args, " "))
				}
				if _, writeErr := fmt.Fprintf(cmd.OutOrStdout(), "%s\t(%s, %s, model=%s, %s)\n",
					configured.Name, configured.Type, stateLabel, dashIfEmpty(configured.Model), dashIfEmpty(location)); writeErr != nil {
					return fmt.Errorf("write transport listing: %w", writeErr)
				}
			}
			return nil
		},
	}
	command.Flags().BoolVar(&includeDisabled, allFlagName, false, allFlagUsage)
	return command
}

func newModelsCommand(app *application) *cobra.Command {
	return &cobra.Command{
		Use:   modelsCommandUse,
		Short: modelsCommandShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			rootConfiguration, err := app.loadConfiguration()
			if err != nil {
				return err
			}
			capabilities := app.dependencies.Detector.Detect()
			chosen, err := models.Choose(app.settings.GetString(modelFlagName), rootConfiguration.Models, app.dependencies.Detector)
			if err != nil {
				return fmt.Errorf(modelSelectionErrorFormat, err)
			}

			output := cmd.OutOrStdout()
			fmt.Fprintf(output, "vram_gb\t%s\n", formatGigabytes(capabilities.VRAMGigabytes, capabilities.HasVRAM))
			fmt.Fprintf(output, "ram_gb\t%s\n", formatGigabytes(capabilities.RAMGigabytes, capabilities.HasRAM))
			for _, tier := range rootConfiguration.Models {
				marker := " "
				if tier.Name == chosen {
					marker = chosenModelMarker
				}
				fmt.Fprintf(output, "%s %s\t(min_vram_gb=%s, min_ram_gb=%s, default=%t)\n",
					marker, tier.Name, formatMinimum(tier.MinVRAMGB), formatMinimum(tier.MinRAMGB), tier.Default)
			}
			_, writeErr := fmt.Fprintf(output, "chosen\t%s\n", chosen)
			return writeErr
		},
	}
}

func formatGigabytes(value float64, found bool) string {
	if !found {
		return dashPlaceholder
	}
	return fmt.Sprintf("%.1f", value)
}

func formatMinimum(value float64) string {
	if value <= 0 {
		return dashPlaceholder
	}
	return fmt.Sprintf("%g", value)
}

func dashIfEmpty(value string) string {
	if value == "" {
		return dashPlaceholder
	}
	return value
}
