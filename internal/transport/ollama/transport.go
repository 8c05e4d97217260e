// Package ollama sends prompts to a local Ollama daemon through its chat API.
//
// A transport may keep a private conversation history. When enabled, every
// successful exchange is appended and the oldest turns are dropped once the
// history exceeds MaxTurns user/assistant pairs.
package ollama

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"github.com/ollama/ollama/api"
	"go.uber.org/zap"

	"github.com/temirov/llm-wrapper/internal/llm"
)

const (
	defaultTransportName = "Ollama"
	DefaultEndpoint      = "http://localhost:11434"
	DefaultMaxTurns      = 6

	numPredictOption = "num_predict"

	invalidEndpointErrorFormat = "parse ollama endpoint %q: %w"
	missingModelErrorMessage   = "ollama transport requires a model"
	unreachableErrorFormat     = "ollama at %s is unreachable: %w"
	modelNotFoundErrorFormat   = "ollama model %s is not available: %w"
	contextWindowErrorFormat   = "ollama prompt exceeds the model context: %w"
	emptyReplyErrorMessage     = "ollama chat returned empty content"
)

var errEmptyReply = errors.New(emptyReplyErrorMessage)

type Settings struct {
	Name          string
	Endpoint      string
	Model         string
	SystemMessage string
	UseHistory    bool
	MaxTurns      int
	HTTPClient    *http.Client
	Logger        *zap.Logger
}

type Transport struct {
	name          string
	endpoint      string
	model         string
	systemMessage string
	useHistory    bool
	maxTurns      int
	client        *api.Client
	logger        *zap.Logger

	historyMutex sync.Mutex
	history      []api.Message
}

func New(settings Settings) (*Transport, error) {
	model := strings.TrimSpace(settings.Model)
	if model == "" {
		return nil, errors.New(missingModelErrorMessage)
	}
	endpoint := strings.TrimRight(strings.TrimSpace(settings.Endpoint), "/")
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	baseURL, parseErr := url.Parse(endpoint)
	if parseErr != nil {
		return nil, fmt.Errorf(invalidEndpointErrorFormat, endpoint, parseErr)
	}
	httpClient := settings.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	name := strings.TrimSpace(settings.Name)
	if name == "" {
		name = defaultTransportName
	}
	logger := settings.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Transport{
		name:          name,
		endpoint:      endpoint,
		model:         model,
		systemMessage: strings.TrimSpace(settings.SystemMessage),
		useHistory:    settings.UseHistory,
		maxTurns:      settings.MaxTurns,
		client:        api.NewClient(baseURL, httpClient),
		logger:        logger,
	}, nil
}

func (transport *Transport) Name() string { return transport.name }

func (transport *Transport) Model() string { return transport.model }

// Generate sends prompt as a single user message, preceded by the system
// message and any recorded history.
func (transport *Transport) Generate(ctx context.Context, prompt string, purpose string, maxTokens int) (string, error) {
	reply, err := transport.chat(ctx, []api.Message{{Role: string(llm.RoleUser), Content: prompt}}, purpose, maxTokens)
	if err != nil {
		return "", err
	}
	transport.recordExchange(prompt, reply)
	return reply, nil
}

// GenerateChat sends the conversation after the system message and history.
// Only the last user message of the conversation is recorded.
func (transport *Transport) GenerateChat(ctx context.Context, messages []llm.Message, purpose string, maxTokens int) (string, error) {
	converted := make([]api.Message, 0, len(messages))
	lastUserMessage := ""
	for _, message := range messages {
		converted = append(converted, api.Message{Role: string(message.Role), Content: message.Content})
		if message.Role == llm.RoleUser && message.Content != "" {
			lastUserMessage = message.Content
		}
	}
	reply, err := transport.chat(ctx, converted, purpose, maxTokens)
	if err != nil {
		return "", err
	}
	if lastUserMessage != "" {
		transport.recordExchange(lastUserMessage, reply)
	}
	return reply, nil
}

// History returns a copy of the recorded exchanges.
func (transport *Transport) History() []llm.Message {
	transport.historyMutex.Lock()
	defer transport.historyMutex.Unlock()
	history := make([]llm.Message, 0, len(transport.history))
	for _, message := range transport.history {
		history = append(history, llm.Message{Role: llm.Role(message.Role), Content: message.Content})
	}
	return history
}

func (transport *Transport) ResetHistory() {
	transport.historyMutex.Lock()
	defer transport.historyMutex.Unlock()
	transport.history = nil
}

func (transport *Transport) chat(ctx context.Context, messages []api.Message, purpose string, maxTokens int) (string, error) {
	request := &api.ChatRequest{
		Model:    transport.model,
		Messages: transport.composeMessages(messages),
		Stream:   new(bool),
	}
	if maxTokens > 0 {
		request.Options = map[string]any{numPredictOption: maxTokens}
	}
	transport.logger.Debug("ollama chat request",
		zap.String("transport", transport.name),
		zap.String("purpose", purpose),
		zap.String("model", transport.model),
		zap.Int("messages", len(request.Messages)),
		zap.Int("max_tokens", maxTokens),
	)

	var reply strings.Builder
	chatErr := transport.client.Chat(ctx, request, func(response api.ChatResponse) error {
		reply.WriteString(response.Message.Content)
		return nil
	})
	if chatErr != nil {
		return "", llm.Annotate(transport.classify(chatErr), transport.name, purpose)
	}
	text := strings.TrimSpace(reply.String())
	if text == "" {
		return "", llm.Annotate(errEmptyReply, transport.name, purpose)
	}
	return text, nil
}

func (transport *Transport) composeMessages(messages []api.Message) []api.Message {
	transport.historyMutex.Lock()
	defer transport.historyMutex.Unlock()
	composed := make([]api.Message, 0, len(transport.history)+len(messages)+1)
	if transport.systemMessage != "" {
		composed = append(composed, api.Message{Role: string(llm.RoleSystem), Content: transport.systemMessage})
	}
	if transport.useHistory {
		composed = append(composed, transport.history...)
	}
	return append(composed, messages...)
}

func (transport *Transport) recordExchange(userMessage string, assistantMessage string) {
	if !transport.useHistory {
		return
	}
	transport.historyMutex.Lock()
	defer transport.historyMutex.Unlock()
	transport.history = append(transport.history,
		api.Message{Role: string(llm.RoleUser), Content: userMessage},
		api.Message{Role: string(llm.RoleAssistant), Content: assistantMessage},
	)
	transport.history = trimHistory(transport.history, transport.maxTurns)
}

// trimHistory keeps at most maxTurns user/assistant pairs, dropping whole
// pairs from the front.
func trimHistory(history []api.Message, maxTurns int) []api.Message {
	if maxTurns < 1 {
		return nil
	}
	maxMessages := maxTurns * 2
	for len(history) > maxMessages {
		if len(history) < 2 {
			return nil
		}
		history = history[2:]
	}
	return append([]api.Message(nil), history...)
}

func (transport *Transport) classify(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	if llm.IsConnectionFailure(err) {
		return llm.NewError(llm.KindTransportUnavailable, transport.name, fmt.Errorf(unreachableErrorFormat, transport.endpoint, err))
	}
	var statusError api.StatusError
	if errors.As(err, &statusError) && statusError.StatusCode == http.StatusNotFound {
		return llm.NewError(llm.KindTransportUnavailable, transport.name, fmt.Errorf(modelNotFoundErrorFormat, transport.model, err))
	}
	message := strings.ToLower(err.Error())
	if strings.Contains(message, "model") && strings.Contains(message, "not found") {
		return llm.NewError(llm.KindTransportUnavailable, transport.name, fmt.Errorf(modelNotFoundErrorFormat, transport.model, err))
	}
	if llm.MentionsContextWindow(message) {
		return llm.NewError(llm.KindContextWindowExceeded, transport.name, fmt.Errorf(contextWindowErrorFormat, err))
	}
	return err
}
