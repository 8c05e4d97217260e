// Package openai talks to OpenAI-compatible chat completion servers such as
// LM Studio or the llama.cpp server.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/temirov/llm-wrapper/internal/llm"
)

const (
	chatCompletionsPath      = "/chat/completions"
	bodyPreviewLimit         = 512
	fragmentPreviewLimit     = 240
	refusalPreviewLimit      = 200
	finishReasonContentGuard = "content_filter"

	httpStatusErrorFormat    = "llm http error %d: %s"
	unreachableErrorFormat   = "server at %s is unreachable: %w"
	notFoundErrorFormat      = "endpoint or model not found (status=%d body=%s)"
	contextWindowErrorFormat = "prompt exceeds the model context (status=%d body=%s)"
	decodeErrorFormat        = "decode chat completion: %w (body=%s)"
	noChoicesErrorFormat     = "chat completion returned no choices (status=%d body=%s)"
	parseErrorFormat         = "chat completion parse error: %w (body=%s)"
	refusalErrorFormat       = "chat completion refusal: %s (status=%d body=%s)"
	contentFilterErrorFormat = "chat completion stopped by content filter (status=%d body=%s)"
	emptyMessageErrorFormat  = "chat completion returned empty message (status=%d finish_reason=%s body=%s)"
	toolCallsErrorFormat     = "chat completion produced tool_calls: %s"
	unsupportedContentFormat = "unsupported message content: %s"
	refusalCauseFormat       = "%w: %s"
)

// Client is a minimal chat completions client. Failures are returned as
// classified llm errors without a transport name.
type Client struct {
	HTTPBaseURL string
	APIKey      string
	HTTPClient  *http.Client
}

type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatCompletionRequest struct {
	Model     string        `json:"model,omitempty"`
	Messages  []ChatMessage `json:"messages"`
	MaxTokens int           `json:"max_tokens,omitempty"`
	Stream    bool          `json:"stream"`
}

type chatMessageResponse struct {
	Role      string          `json:"role"`
	Content   json.RawMessage `json:"content"`
	Refusal   json.RawMessage `json:"refusal,omitempty"`
	ToolCalls json.RawMessage `json:"tool_calls,omitempty"`
}

type chatCompletionChoice struct {
	Message      chatMessageResponse `json:"message"`
	FinishReason string              `json:"finish_reason"`
}

type ChatCompletionResponse struct {
	Choices []chatCompletionChoice `json:"choices"`
}

// errRefusal marks a refusal found while decoding message content.
var errRefusal = errors.New("refusal")

func truncateForLog(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit]) + "…"
}

func (c Client) httpClient() *http.Client {
	if c.HTTPClient != nil {
		return c.HTTPClient
	}
	return http.DefaultClient
}

func (c Client) CreateChatCompletion(ctx context.Context, requestPayload ChatCompletionRequest) (string, error) {
	requestBytes, marshalErr := json.Marshal(requestPayload)
	if marshalErr != nil {
		return "", marshalErr
	}
	endpoint := strings.TrimRight(c.HTTPBaseURL, "/") + chatCompletionsPath
	httpRequest, buildErr := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(requestBytes))
	if buildErr != nil {
		return "", buildErr
	}
	httpRequest.Header.Set("Content-Type", "application/json")
	if c.APIKey != "" {
		httpRequest.Header.Set("Authorization", "Bearer "+c.APIKey)
	}

	httpResponse, httpErr := c.httpClient().Do(httpRequest)
	if httpErr != nil {
		if llm.IsConnectionFailure(httpErr) {
			return "", llm.Unavailable("", unreachableErrorFormat, c.HTTPBaseURL, httpErr)
		}
		return "", httpErr
	}
	defer func(closer io.ReadCloser) { _ = closer.Close() }(httpResponse.Body)

	bodyBytes, readErr := io.ReadAll(httpResponse.Body)
	if readErr != nil {
		return "", readErr
	}
	bodyPreview := truncateForLog(string(bodyBytes), bodyPreviewLimit)
	statusCode := httpResponse.StatusCode

	if statusCode < 200 || statusCode >= 300 {
		return "", classifyStatus(statusCode, string(bodyBytes), bodyPreview)
	}

	var completion ChatCompletionResponse
	if decodeErr := json.Unmarshal(bodyBytes, &completion); decodeErr != nil {
		return "", fmt.Errorf(decodeErrorFormat, decodeErr, bodyPreview)
	}
	if len(completion.Choices) == 0 {
		return "", fmt.Errorf(noChoicesErrorFormat, statusCode, bodyPreview)
	}

	choice := completion.Choices[0]
	content, extractErr := extractMessageContent(choice.Message)
	if extractErr != nil {
		if errors.Is(extractErr, errRefusal) {
			return "", llm.NewError(llm.KindGuardrailRefusal, "", fmt.Errorf(parseErrorFormat, extractErr, bodyPreview))
		}
		return "", fmt.Errorf(parseErrorFormat, extractErr, bodyPreview)
	}

	trimmed := strings.TrimSpace(content)
	if trimmed != "" {
		return trimmed, nil
	}
	if refusal := decodeRefusal(choice.Message.Refusal); refusal != "" {
		return "", llm.Refusal("", refusalErrorFormat, refusal, statusCode, bodyPreview)
	}
	if strings.EqualFold(strings.TrimSpace(choice.FinishReason), finishReasonContentGuard) {
		return "", llm.Refusal("", contentFilterErrorFormat, statusCode, bodyPreview)
	}
	return "", fmt.Errorf(emptyMessageErrorFormat, statusCode, choice.FinishReason, bodyPreview)
}

// classifyStatus maps a non-2xx reply onto the error taxonomy. A missing
// endpoint or model means the backend cannot serve the request at all.
func classifyStatus(statusCode int, body string, bodyPreview string) error {
	switch {
	case statusCode == http.StatusNotFound:
		return llm.Unavailable("", notFoundErrorFormat, statusCode, bodyPreview)
	case llm.MentionsContextWindow(body):
		return llm.ContextWindow("", contextWindowErrorFormat, statusCode, bodyPreview)
	default:
		return fmt.Errorf(httpStatusErrorFormat, statusCode, bodyPreview)
	}
}

func extractMessageContent(message chatMessageResponse) (string, error) {
	if len(message.Content) == 0 || string(message.Content) == "null" {
		if refusal := decodeRefusal(message.Refusal); refusal != "" {
			return "", fmt.Errorf(refusalCauseFormat, errRefusal, refusal)
		}
		return "", nil
	}

	var asString string
	if err := json.Unmarshal(message.Content, &asString); err == nil {
		return asString, nil
	}

	if text, ok := extractRichText(message.Content); ok {
		return text, nil
	}

	if refusal := decodeRefusal(message.Refusal); refusal != "" {
		return "", fmt.Errorf(refusalCauseFormat, errRefusal, refusal)
	}

	if len(message.ToolCalls) > 0 && string(message.ToolCalls) != "null" {
		return "", fmt.Errorf(toolCallsErrorFormat, truncateForLog(string(message.ToolCalls), fragmentPreviewLimit))
	}

	return "", fmt.Errorf(unsupportedContentFormat, truncateForLog(string(message.Content), fragmentPreviewLimit))
}

func extractRichText(raw json.RawMessage) (string, bool) {
	fragments := gatherTextFragments(raw)
	if len(fragments) == 0 {
		return "", false
	}
	combined := strings.TrimSpace(strings.Join(fragments, "\n"))
	if combined == "" {
		return "", false
	}
	return combined, true
}

func gatherTextFragments(raw json.RawMessage) []string {
	var data any
	if err := json.Unmarshal(raw, &data); err != nil {
		return nil
	}
	return flattenText(data)
}

func flattenText(value any) []string {
	switch v := value.(type) {
	case string:
		trimmed := strings.TrimSpace(v)
		if trimmed == "" {
			return nil
		}
		return []string{trimmed}
	case []any:
		var collected []string
		for _, item := range v {
			collected = append(collected, flattenText(item)...)
		}
		return collected
	case map[string]any:
		for _, key := range []string{"text", "content", "value"} {
			if nested, ok := v[key]; ok {
				return flattenText(nested)
			}
		}
		return nil
	default:
		return nil
	}
}

func decodeRefusal(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var refusalString string
	if err := json.Unmarshal(raw, &refusalString); err == nil {
		return strings.TrimSpace(refusalString)
	}
	if text, ok := extractRichText(raw); ok {
		return text
	}
	return strings.TrimSpace(truncateForLog(string(raw), refusalPreviewLimit))
}
