package openai

import (
	"context"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/llm-wrapper/internal/llm"
)

const defaultTransportName = "OpenAI"

type Settings struct {
	Name          string
	Endpoint      string
	APIKey        string
	Model         string
	SystemMessage string
	HTTPClient    *http.Client
	Logger        *zap.Logger
}

// Transport adapts Client to llm.ChatTransport.
type Transport struct {
	name          string
	client        Client
	model         string
	systemMessage string
	logger        *zap.Logger
}

func New(settings Settings) *Transport {
	name := strings.TrimSpace(settings.Name)
	if name == "" {
		name = defaultTransportName
	}
	logger := settings.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Transport{
		name: name,
		client: Client{
			HTTPBaseURL: settings.Endpoint,
			APIKey:      settings.APIKey,
			HTTPClient:  settings.HTTPClient,
		},
		model:         strings.TrimSpace(settings.Model),
		systemMessage: strings.TrimSpace(settings.SystemMessage),
		logger:        logger,
	}
}

func (transport *Transport) Name() string { return transport.name }

func (transport *Transport) Generate(ctx context.Context, prompt string, purpose string, maxTokens int) (string, error) {
	return transport.complete(ctx, []llm.Message{{Role: llm.RoleUser, Content: prompt}}, purpose, maxTokens)
}

func (transport *Transport) GenerateChat(ctx context.Context, messages []llm.Message, purpose string, maxTokens int) (string, error) {
	return transport.complete(ctx, messages, purpose, maxTokens)
}

func (transport *Transport) complete(ctx context.Context, messages []llm.Message, purpose string, maxTokens int) (string, error) {
	request := ChatCompletionRequest{
		Model:     transport.model,
		Messages:  make([]ChatMessage, 0, len(messages)+1),
		MaxTokens: maxTokens,
	}
	if transport.systemMessage != "" {
		request.Messages = append(request.Messages, ChatMessage{Role: string(llm.RoleSystem), Content: transport.systemMessage})
	}
	for _, message := range messages {
		request.Messages = append(request.Messages, ChatMessage{Role: string(message.Role), Content: message.Content})
	}

	transport.logger.Debug("chat completion request",
		zap.String("transport", transport.name),
		zap.String("purpose", purpose),
		zap.String("model", transport.model),
		zap.Int("messages", len(request.Messages)),
		zap.Int("max_tokens", maxTokens),
	)
	text, err := transport.client.CreateChatCompletion(ctx, request)
	if err != nil {
		return "", llm.Annotate(err, transport.name, purpose)
	}
	return text, nil
}
