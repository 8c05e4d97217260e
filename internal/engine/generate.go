package engine

import (
	"context"
	"errors"
	"fmt"
	"slices"

	"go.uber.org/zap"

	"github.com/temirov/llm-wrapper/internal/llm"
)

// ErrInvalidRequest reports a caller error detected before any transport is
// contacted.
var ErrInvalidRequest = errors.New("invalid generate request")

const (
	missingInputErrorFormat     = "%w: either a prompt or messages are required"
	conflictingInputErrorFormat = "%w: prompt and messages are mutually exclusive"
	invalidMessagesErrorFormat  = "%w: %v"
)

// GenerateRequest carries exactly one of Prompt or Messages.
type GenerateRequest struct {
	Prompt    string
	Messages  []llm.Message
	Purpose   string
	MaxTokens int
}

func (request GenerateRequest) validate() error {
	hasPrompt := request.Prompt != ""
	hasMessages := len(request.Messages) > 0
	switch {
	case hasPrompt && hasMessages:
		return fmt.Errorf(conflictingInputErrorFormat, ErrInvalidRequest)
	case !hasPrompt && !hasMessages:
		return fmt.Errorf(missingInputErrorFormat, ErrInvalidRequest)
	case hasMessages:
		if err := llm.ValidateConversation(request.Messages); err != nil {
			return fmt.Errorf(invalidMessagesErrorFormat, ErrInvalidRequest, err)
		}
	}
	return nil
}

// Generate sends free text or a conversation to the first transport that can
// run. Unavailable transports are skipped; any other failure is returned as
// is, since free text has no structure to recover against.
func (engine *Engine) Generate(ctx context.Context, request GenerateRequest) (string, error) {
	if err := request.validate(); err != nil {
		return "", err
	}
	purpose := request.Purpose
	if purpose == "" {
		purpose = PurposeGenerate
		if len(request.Messages) > 0 {
			purpose = PurposeChat
		}
	}
	maxTokens := request.MaxTokens
	if maxTokens <= 0 {
		maxTokens = engine.limits.Generate
	}

	var lastUnavailable error
	for _, transport := range engine.transports {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", ctxErr
		}
		text, err := engine.dispatch(ctx, transport, request, purpose, maxTokens)
		if err == nil {
			engine.logger.Debug("generate succeeded", zap.String("transport", transport.Name()), zap.String("purpose", purpose))
			return text, nil
		}
		annotated := llm.Annotate(err, transport.Name(), purpose)
		if llm.Classify(err) != llm.KindTransportUnavailable {
			return "", annotated
		}
		engine.logger.Info("transport unavailable, trying next", zap.String("transport", transport.Name()), zap.Error(err))
		lastUnavailable = annotated
	}
	return "", exhaustedError(lastUnavailable)
}

// GenerateText is Generate for a single prompt.
func (engine *Engine) GenerateText(ctx context.Context, prompt string, maxTokens int) (string, error) {
	return engine.Generate(ctx, GenerateRequest{Prompt: prompt, MaxTokens: maxTokens})
}

// Chat is Generate for a conversation.
func (engine *Engine) Chat(ctx context.Context, messages []llm.Message, maxTokens int) (string, error) {
	return engine.Generate(ctx, GenerateRequest{Messages: messages, MaxTokens: maxTokens})
}

// dispatch prefers native chat support and otherwise flattens the
// conversation into a single prompt.
func (engine *Engine) dispatch(ctx context.Context, transport llm.Transport, request GenerateRequest, purpose string, maxTokens int) (string, error) {
	if len(request.Messages) == 0 {
		return transport.Generate(ctx, request.Prompt, purpose, maxTokens)
	}
	if chatTransport, ok := transport.(llm.ChatTransport); ok {
		return chatTransport.GenerateChat(ctx, slices.Clone(request.Messages), purpose, maxTokens)
	}
	return transport.Generate(ctx, llm.FlattenConversation(request.Messages), purpose, maxTokens)
}
