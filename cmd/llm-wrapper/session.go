package llmwrapper

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/llm-wrapper/internal/config"
	"github.com/temirov/llm-wrapper/internal/engine"
	"github.com/temirov/llm-wrapper/internal/models"
	"github.com/temirov/llm-wrapper/internal/prompts"
	"github.com/temirov/llm-wrapper/internal/transport"
)

type sessionOptions struct {
	contextOverride string
}

// session is everything one command invocation needs: the resolved
// configuration, the logger, the chosen model and the engine over the
// enabled transports.
type session struct {
	root      config.Root
	logger    *zap.Logger
	model     string
	maxTokens int
	engine    *engine.Engine
	closers   []func() error
}

func (app *application) loadConfiguration() (config.Root, error) {
	return loadRootConfiguration(strings.TrimSpace(app.settings.GetString(configFlagName)))
}

func (app *application) openSession(cmd *cobra.Command, options sessionOptions) (*session, error) {
	rootConfiguration, err := app.loadConfiguration()
	if err != nil {
		return nil, err
	}
	logging := rootConfiguration.Common.Logging
	logger, err := newLogger(app.loggingSettings(logging.Level, logging.Format), cmd.ErrOrStderr())
	if err != nil {
		return nil, fmt.Errorf(loggerBuildErrorFormat, err)
	}

	model, err := models.Choose(app.settings.GetString(modelFlagName), rootConfiguration.Models, app.dependencies.Detector)
	if err != nil && !errors.Is(err, models.ErrNoModels) {
		return nil, fmt.Errorf(modelSelectionErrorFormat, err)
	}
	logger.Debug("model selected", zap.String("model", model))

	maxTokens := app.settings.GetInt(maxTokensFlagName)
	if maxTokens <= 0 {
		maxTokens = rootConfiguration.Common.Defaults.MaxTokens
	}

	transports, err := app.dependencies.Registry.BuildAll(rootConfiguration.Transports, transport.Options{
		Model:     model,
		Timeout:   time.Duration(rootConfiguration.Common.Defaults.TimeoutSeconds) * time.Second,
		Logger:    logger,
		LookupEnv: app.dependencies.LookupEnv,
	})
	if err != nil {
		return nil, fmt.Errorf(transportBuildErrorFormat, err)
	}

	promptContext := rootConfiguration.Common.Context
	if trimmed := strings.TrimSpace(options.contextOverride); trimmed != "" {
		promptContext = trimmed
	}
	engineOptions := []engine.Option{
		engine.WithLogger(logger),
		engine.WithPrompter(prompts.Builder{Categories: rootConfiguration.Common.Categories}),
		engine.WithContext(promptContext),
		engine.WithTokenLimits(engine.TokenLimits{Generate: maxTokens}),
	}
	current := &session{root: rootConfiguration, logger: logger, model: model, maxTokens: maxTokens}
	if path := strings.TrimSpace(rootConfiguration.Common.ParseFailureLog); path != "" {
		sink := engine.NewFileParseFailureSink(path)
		engineOptions = append(engineOptions, engine.WithParseFailureSink(sink))
		current.closers = append(current.closers, sink.Close)
	}
	current.engine = engine.New(transports, engineOptions...)
	logger.Debug("engine ready", zap.Strings("transports", current.engine.TransportNames()))
	return current, nil
}

// Close flushes the parse failure log. Logger sync errors on terminals are
// ignored.
func (current *session) Close() error {
	var closeErr error
	for _, closer := range current.closers {
		closeErr = errors.Join(closeErr, closer())
	}
	_ = current.logger.Sync()
	return closeErr
}
