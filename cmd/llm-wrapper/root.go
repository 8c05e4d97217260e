// Package llmwrapper is the llm-wrapper command line: one-shot generation,
// interactive chat, tag extraction, and file rename and sort workflows on
// top of the transport engine.
package llmwrapper

import (
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/temirov/llm-wrapper/internal/fsops"
	"github.com/temirov/llm-wrapper/internal/models"
	"github.com/temirov/llm-wrapper/internal/transport"
)

// Dependencies are the process-level collaborators of every command.
type Dependencies struct {
	Registry  *transport.Registry
	Detector  models.Detector
	FS        fsops.FS
	LookupEnv func(string) string
}

func DefaultDependencies() Dependencies {
	return Dependencies{
		Registry:  transport.DefaultRegistry(),
		Detector:  models.NewHostProbe().Detector(),
		FS:        fsops.NewOS(),
		LookupEnv: os.Getenv,
	}
}

func (dependencies Dependencies) withDefaults() Dependencies {
	if dependencies.Registry == nil {
		dependencies.Registry = transport.DefaultRegistry()
	}
	if dependencies.FS == nil {
		dependencies.FS = fsops.NewOS()
	}
	if dependencies.LookupEnv == nil {
		dependencies.LookupEnv = os.Getenv
	}
	return dependencies
}

type application struct {
	dependencies Dependencies
	settings     *viper.Viper
	quiet        bool
	verbose      bool
}

// NewRootCommand wires every subcommand. Persistent flags bind to
// LLM_WRAPPER_* environment variables; a set flag wins over the environment.
func NewRootCommand(dependencies Dependencies) *cobra.Command {
	app := &application{dependencies: dependencies.withDefaults(), settings: viper.New()}

	command := &cobra.Command{
		Use:           applicationName,
		Short:         rootCommandShort,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	flags := command.PersistentFlags()
	flags.String(configFlagName, "", configFlagUsage)
	flags.String(modelFlagName, "", modelFlagUsage)
	flags.Int(maxTokensFlagName, 0, maxTokensFlagUsage)
	flags.BoolVarP(&app.quiet, quietFlagName, "q", false, quietFlagUsage)
	flags.BoolVarP(&app.verbose, verboseFlagName, "v", false, verboseFlagUsage)
	command.MarkFlagsMutuallyExclusive(quietFlagName, verboseFlagName)

	app.settings.SetEnvPrefix(environmentPrefix)
	app.settings.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	app.settings.AutomaticEnv()
	for _, name := range []string{configFlagName, modelFlagName, maxTokensFlagName} {
		_ = app.settings.BindPFlag(name, flags.Lookup(name))
	}

	command.AddCommand(
		newGenerateCommand(app),
		newChatCommand(app),
		newAskCommand(app),
		newRenameCommand(app),
		newSortCommand(app),
		newModelsCommand(app),
		newTransportsCommand(app),
	)
	return command
}

func Execute() error {
	return NewRootCommand(DefaultDependencies()).Execute()
}
