package engine

import (
	"context"
	"fmt"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/temirov/llm-wrapper/internal/llm"
	"github.com/temirov/llm-wrapper/internal/parser"
	"github.com/temirov/llm-wrapper/internal/prompts"
)

const unusableNameErrorFormat = "%w: <new_name> %q has no usable characters"

// structuredCall describes one structured operation. An empty minimalPrompt
// disables the minimal retry.
type structuredCall[T any] struct {
	purpose       string
	fullPrompt    string
	minimalPrompt string
	exampleOutput string
	maxTokens     int
	parse         func(text string) (T, error)
	// advanceOnParseFailure moves to the next transport when the format-fix
	// reply is still malformed; otherwise the parse error is returned.
	advanceOnParseFailure bool
}

// Rename asks for a new file name. The returned name is filesystem safe and
// keeps the original extension.
func (engine *Engine) Rename(ctx context.Context, currentName string, metadata prompts.FileMetadata) (parser.RenameResult, error) {
	request := prompts.RenameRequest{CurrentName: currentName, Metadata: metadata, Context: engine.context}
	extension := metadata.Extension
	if extension == "" {
		extension = filepath.Ext(currentName)
	}
	return runStructured(ctx, engine, structuredCall[parser.RenameResult]{
		purpose:               PurposeRename,
		fullPrompt:            engine.prompter.RenamePrompt(request),
		minimalPrompt:         engine.prompter.RenamePromptMinimal(request),
		exampleOutput:         prompts.RenameExampleOutput,
		maxTokens:             engine.limits.Rename,
		advanceOnParseFailure: true,
		parse: func(text string) (parser.RenameResult, error) {
			result, err := parser.ParseRename(text)
			if err != nil {
				return parser.RenameResult{}, err
			}
			sanitized := parser.EnsureExtension(parser.SanitizeFilename(result.NewName), extension)
			if sanitized == "" {
				return parser.RenameResult{}, fmt.Errorf(unusableNameErrorFormat, parser.ErrParse, result.NewName)
			}
			result.NewName = sanitized
			return result, nil
		},
	})
}

// Sort assigns one category per item. An empty item list returns an empty
// result without contacting any transport.
func (engine *Engine) Sort(ctx context.Context, items []prompts.SortItem) (parser.SortResult, error) {
	if len(items) == 0 {
		return parser.SortResult{Assignments: map[string]string{}, Reasons: map[string]string{}}, nil
	}
	request := prompts.SortRequest{Files: items, Context: engine.context}
	paths := request.Paths()
	return runStructured(ctx, engine, structuredCall[parser.SortResult]{
		purpose:       PurposeSort,
		fullPrompt:    engine.prompter.SortPrompt(request),
		exampleOutput: prompts.SortExampleOutput,
		maxTokens:     engine.limits.Sort,
		parse: func(text string) (parser.SortResult, error) {
			return parser.ParseSort(text, paths)
		},
	})
}

// Keep decides whether the original stem should survive a rename. Missing
// features are computed from the stem and the suggested name.
func (engine *Engine) Keep(ctx context.Context, request prompts.KeepRequest) (parser.KeepResult, error) {
	if request.Context == "" {
		request.Context = engine.context
	}
	if request.Features == nil {
		request.Features = prompts.ComputeStemFeatures(request.OriginalStem, request.SuggestedName)
	}
	return runStructured(ctx, engine, structuredCall[parser.KeepResult]{
		purpose:               PurposeKeep,
		fullPrompt:            engine.prompter.KeepPrompt(request),
		minimalPrompt:         engine.prompter.KeepPromptMinimal(request),
		exampleOutput:         prompts.KeepExampleOutput,
		maxTokens:             engine.limits.Keep,
		advanceOnParseFailure: true,
		parse: func(text string) (parser.KeepResult, error) {
			return parser.ParseKeep(text, request.OriginalStem)
		},
	})
}

func runStructured[T any](ctx context.Context, engine *Engine, call structuredCall[T]) (T, error) {
	var zero T
	var lastErr error
	for _, transport := range engine.transports {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return zero, ctxErr
		}
		value, advance, err := attemptStructured(ctx, engine, transport, call)
		if err == nil {
			return value, nil
		}
		if !advance {
			return zero, err
		}
		lastErr = err
	}
	return zero, exhaustedError(lastErr)
}

// attemptStructured runs the recovery policy against a single transport:
//
//	full prompt -> (guardrail | context window) -> minimal prompt
//	reply       -> (malformed)                  -> format-fix prompt
//
// Each recovery happens at most once. advance reports whether the caller
// should try the next transport after a failure.
func attemptStructured[T any](ctx context.Context, engine *Engine, transport llm.Transport, call structuredCall[T]) (value T, advance bool, err error) {
	var zero T
	name := transport.Name()
	logger := engine.logger.With(zap.String("transport", name), zap.String("purpose", call.purpose))

	prompt, variant := call.fullPrompt, call.purpose
	text, generateErr := transport.Generate(ctx, prompt, variant, call.maxTokens)
	if generateErr != nil {
		kind := llm.Classify(generateErr)
		recoverable := kind == llm.KindGuardrailRefusal || kind == llm.KindContextWindowExceeded
		switch {
		case kind == llm.KindTransportUnavailable:
			logger.Info("transport unavailable, trying next", zap.Error(generateErr))
			return zero, true, llm.Annotate(generateErr, name, variant)
		case recoverable && call.minimalPrompt != "":
			logger.Info("retrying with minimal prompt", zap.Stringer("kind", kind), zap.Error(generateErr))
			prompt, variant = call.minimalPrompt, call.purpose+minimalVariantSuffix
			text, generateErr = transport.Generate(ctx, prompt, variant, call.maxTokens)
			if generateErr != nil {
				minimalKind := llm.Classify(generateErr)
				logger.Info("minimal prompt failed", zap.Stringer("kind", minimalKind), zap.Error(generateErr))
				return zero, minimalKind != llm.KindUnclassified, llm.Annotate(generateErr, name, variant)
			}
		case recoverable:
			return zero, true, llm.Annotate(generateErr, name, variant)
		default:
			return zero, false, llm.Annotate(generateErr, name, variant)
		}
	}

	parsed, parseErr := call.parse(text)
	if parseErr == nil {
		return parsed, false, nil
	}
	engine.recordParseFailure(ParseFailure{
		Purpose:   call.purpose,
		Stage:     variant,
		Transport: name,
		Error:     parseErr.Error(),
		RawText:   text,
		Prompt:    prompt,
	})

	fixPrompt := engine.prompter.FormatFixPrompt(prompt, call.exampleOutput)
	fixVariant := call.purpose + formatFixVariantSuffix
	logger.Info("retrying with format-fix prompt", zap.String("variant", variant), zap.Error(parseErr))
	text, generateErr = transport.Generate(ctx, fixPrompt, fixVariant, call.maxTokens)
	if generateErr != nil {
		annotated := llm.Annotate(generateErr, name, fixVariant)
		switch llm.Classify(generateErr) {
		case llm.KindGuardrailRefusal:
			// The format-fix prompt only changes formatting. A refusal here
			// means the content itself is blocked, so it propagates without
			// trying a smaller prompt or another transport.
			return zero, false, annotated
		case llm.KindTransportUnavailable, llm.KindContextWindowExceeded:
			return zero, true, annotated
		default:
			return zero, false, annotated
		}
	}

	parsed, parseErr = call.parse(text)
	if parseErr != nil {
		engine.recordParseFailure(ParseFailure{
			Purpose:   call.purpose,
			Stage:     fixVariant,
			Transport: name,
			Error:     parseErr.Error(),
			RawText:   text,
			Prompt:    fixPrompt,
		})
		return zero, call.advanceOnParseFailure, llm.Annotate(parseErr, name, fixVariant)
	}
	return parsed, false, nil
}
