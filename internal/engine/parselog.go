package engine

import (
	"sync"
	"time"

	"go.uber.org/zap"
)

const (
	// ParseFailureTextLimit bounds the raw reply and prompt stored per record.
	ParseFailureTextLimit = 8000

	parseFailureMessage = "structured output parse failure"
)

// ParseFailure is one diagnostic record written when a reply cannot be
// parsed.
type ParseFailure struct {
	Time      time.Time
	Purpose   string
	Stage     string
	Transport string
	Error     string
	RawText   string
	Prompt    string
}

// ParseFailureSink receives parse-failure records. Implementations must not
// block for long and report nothing back; the engine ignores sink failures.
type ParseFailureSink interface {
	Record(failure ParseFailure)
}

type NopParseFailureSink struct{}

func (NopParseFailureSink) Record(ParseFailure) {}

// MemoryParseFailureSink keeps records in memory.
type MemoryParseFailureSink struct {
	mutex    sync.Mutex
	failures []ParseFailure
}

func (sink *MemoryParseFailureSink) Record(failure ParseFailure) {
	sink.mutex.Lock()
	defer sink.mutex.Unlock()
	sink.failures = append(sink.failures, failure)
}

func (sink *MemoryParseFailureSink) Failures() []ParseFailure {
	sink.mutex.Lock()
	defer sink.mutex.Unlock()
	return append([]ParseFailure(nil), sink.failures...)
}

// FileParseFailureSink appends JSON lines to a file. The file is opened on
// the first record; if it cannot be opened, records are dropped.
type FileParseFailureSink struct {
	path      string
	openOnce  sync.Once
	logger    *zap.Logger
	openError error
}

func NewFileParseFailureSink(path string) *FileParseFailureSink {
	return &FileParseFailureSink{path: path}
}

func (sink *FileParseFailureSink) open() *zap.Logger {
	sink.openOnce.Do(func() {
		configuration := zap.NewProductionConfig()
		configuration.Encoding = "json"
		configuration.OutputPaths = []string{sink.path}
		configuration.ErrorOutputPaths = []string{}
		configuration.Sampling = nil
		configuration.DisableCaller = true
		configuration.DisableStacktrace = true
		logger, buildErr := configuration.Build()
		if buildErr != nil {
			sink.openError = buildErr
			return
		}
		sink.logger = logger
	})
	return sink.logger
}

func (sink *FileParseFailureSink) Record(failure ParseFailure) {
	logger := sink.open()
	if logger == nil {
		return
	}
	fields := []zap.Field{
		zap.String("purpose", failure.Purpose),
		zap.String("stage", failure.Stage),
		zap.String("transport", failure.Transport),
		zap.String("error", failure.Error),
		zap.String("raw_text", failure.RawText),
	}
	if failure.Prompt != "" {
		fields = append(fields, zap.String("prompt", failure.Prompt))
	}
	logger.Warn(parseFailureMessage, fields...)
	_ = logger.Sync()
}

// Err reports why the log file could not be opened, if it could not.
func (sink *FileParseFailureSink) Err() error { return sink.openError }

func (sink *FileParseFailureSink) Close() error {
	if sink.logger == nil {
		return nil
	}
	return sink.logger.Sync()
}

// recordParseFailure never lets a sink failure reach the caller.
func (engine *Engine) recordParseFailure(failure ParseFailure) {
	defer func() {
		if recovered := recover(); recovered != nil {
			engine.logger.Warn("parse failure sink panicked", zap.Any("panic", recovered))
		}
	}()
	if failure.Time.IsZero() {
		failure.Time = time.Now().UTC()
	}
	failure.RawText = truncateText(failure.RawText, ParseFailureTextLimit)
	failure.Prompt = truncateText(failure.Prompt, ParseFailureTextLimit)
	engine.sink.Record(failure)
}

func truncateText(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "…"
}
