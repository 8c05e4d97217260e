package llmwrapper

import (
	"fmt"
	"io"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type loggingSettings struct {
	Level  string
	Format string
}

// newLogger writes to output with the zap development encoder for console
// logs and the production encoder for JSON logs.
func newLogger(settings loggingSettings, output io.Writer) (*zap.Logger, error) {
	levelText := strings.TrimSpace(settings.Level)
	if levelText == "" {
		levelText = defaultLoggingLevel
	}
	level, levelErr := zapcore.ParseLevel(levelText)
	if levelErr != nil {
		return nil, fmt.Errorf(invalidLoggingLevelErrorFormat, levelText, levelErr)
	}

	var encoder zapcore.Encoder
	switch strings.ToLower(strings.TrimSpace(settings.Format)) {
	case "", consoleLoggingFormat, "text":
		encoder = zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig())
	case jsonLoggingFormat:
		encoder = zapcore.NewJSONEncoder(zap.NewProductionEncoderConfig())
	default:
		return nil, fmt.Errorf(unknownLoggingFormatErrorFormat, settings.Format)
	}

	core := zapcore.NewCore(encoder, zapcore.AddSync(output), zap.NewAtomicLevelAt(level))
	return zap.New(core), nil
}

// loggingSettings applies --quiet and --verbose on top of the configured level.
func (app *application) loggingSettings(level string, format string) loggingSettings {
	settings := loggingSettings{Level: level, Format: format}
	switch {
	case app.quiet:
		settings.Level = quietLoggingLevel
	case app.verbose:
		settings.Level = verboseLoggingLevel
	}
	return settings
}
