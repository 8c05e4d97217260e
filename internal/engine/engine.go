// Package engine drives prompts through an ordered list of transports and
// turns the replies into validated results.
//
// Transports are tried strictly one at a time in the order given. Structured
// operations (Rename, Sort, Keep) recover from a guardrail refusal or a
// context-window overflow with a minimal prompt, and from malformed output
// with a single format-fix reprompt, before moving to the next transport.
package engine

import (
	"errors"

	"go.uber.org/zap"

	"github.com/temirov/llm-wrapper/internal/llm"
	"github.com/temirov/llm-wrapper/internal/prompts"
)

const (
	PurposeGenerate = "generate"
	PurposeChat     = "chat"
	PurposeRename   = "rename"
	PurposeSort     = "sort"
	PurposeKeep     = "keep"

	minimalVariantSuffix   = "_minimal"
	formatFixVariantSuffix = "_format_fix"

	defaultGenerateTokens = 1200
	defaultRenameTokens   = 256
	defaultSortTokens     = 1200
	defaultKeepTokens     = 160
)

var errNoTransports = errors.New("no transports configured")

// Prompter renders the prompts the engine sends. prompts.Builder is the
// default implementation.
type Prompter interface {
	RenamePrompt(request prompts.RenameRequest) string
	RenamePromptMinimal(request prompts.RenameRequest) string
	FormatFixPrompt(originalPrompt string, exampleOutput string) string
	SortPrompt(request prompts.SortRequest) string
	KeepPrompt(request prompts.KeepRequest) string
	KeepPromptMinimal(request prompts.KeepRequest) string
}

// TokenLimits sets the max_tokens budget per operation. Zero fields fall back
// to defaults.
type TokenLimits struct {
	Generate int
	Rename   int
	Sort     int
	Keep     int
}

func (limits TokenLimits) withDefaults() TokenLimits {
	resolved := limits
	if resolved.Generate <= 0 {
		resolved.Generate = defaultGenerateTokens
	}
	if resolved.Rename <= 0 {
		resolved.Rename = defaultRenameTokens
	}
	if resolved.Sort <= 0 {
		resolved.Sort = defaultSortTokens
	}
	if resolved.Keep <= 0 {
		resolved.Keep = defaultKeepTokens
	}
	return resolved
}

// Engine is safe for concurrent use when its transports are. It keeps no
// state between calls.
type Engine struct {
	transports []llm.Transport
	prompter   Prompter
	sink       ParseFailureSink
	logger     *zap.Logger
	context    string
	limits     TokenLimits
}

type Option func(*Engine)

func WithLogger(logger *zap.Logger) Option {
	return func(engine *Engine) {
		if logger != nil {
			engine.logger = logger
		}
	}
}

func WithPrompter(prompter Prompter) Option {
	return func(engine *Engine) {
		if prompter != nil {
			engine.prompter = prompter
		}
	}
}

func WithParseFailureSink(sink ParseFailureSink) Option {
	return func(engine *Engine) {
		if sink != nil {
			engine.sink = sink
		}
	}
}

// WithContext adds free-text context to every rename, sort and keep prompt.
func WithContext(context string) Option {
	return func(engine *Engine) { engine.context = context }
}

func WithTokenLimits(limits TokenLimits) Option {
	return func(engine *Engine) { engine.limits = limits.withDefaults() }
}

// New snapshots transports; later changes to the caller's slice do not
// affect the engine.
func New(transports []llm.Transport, options ...Option) *Engine {
	engine := &Engine{
		transports: append([]llm.Transport(nil), transports...),
		prompter:   prompts.Builder{},
		sink:       NopParseFailureSink{},
		logger:     zap.NewNop(),
		limits:     TokenLimits{}.withDefaults(),
	}
	for _, option := range options {
		option(engine)
	}
	return engine
}

// TransportNames lists the transports in the order they are tried.
func (engine *Engine) TransportNames() []string {
	names := make([]string, 0, len(engine.transports))
	for _, transport := range engine.transports {
		names = append(names, transport.Name())
	}
	return names
}

func exhaustedError(lastErr error) error {
	if lastErr != nil {
		return lastErr
	}
	return llm.NewError(llm.KindTransportUnavailable, "", errNoTransports)
}
