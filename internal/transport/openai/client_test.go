package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/temirov/llm-wrapper/internal/llm"
)

func serveCompletion(t *testing.T, statusCode int, payload any) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(writer http.ResponseWriter, request *http.Request) {
		writer.Header().Set("Content-Type", "application/json")
		writer.WriteHeader(statusCode)
		if err := json.NewEncoder(writer).Encode(payload); err != nil {
			t.Errorf("encode: %v", err)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func singleChoice(message map[string]any, finishReason string) map[string]any {
	return map[string]any{
		"choices": []any{
			map[string]any{
				"message":       message,
				"finish_reason": finishReason,
			},
		},
	}
}

func TestCreateChatCompletionSuccess(t *testing.T) {
	server := serveCompletion(t, http.StatusOK, singleChoice(map[string]any{"content": "  result  ", "role": "assistant"}, "stop"))

	client := Client{HTTPBaseURL: server.URL, APIKey: "test"}
	result, err := client.CreateChatCompletion(context.Background(), ChatCompletionRequest{Model: "m"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "result" {
		t.Fatalf("expected result trimmed, got %q", result)
	}
}

func TestCreateChatCompletionStructuredContent(t *testing.T) {
	message := map[string]any{
		"content": []any{
			map[string]any{
				"type": "output_text",
				"text": []any{
					map[string]any{"type": "text", "text": "alpha"},
				},
			},
			map[string]any{"type": "output_text", "text": "beta"},
		},
		"role": "assistant",
	}
	server := serveCompletion(t, http.StatusOK, singleChoice(message, "length"))

	client := Client{HTTPBaseURL: server.URL}
	result, err := client.CreateChatCompletion(context.Background(), ChatCompletionRequest{Model: "m"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result != "alpha\nbeta" {
		t.Fatalf("expected flattened text, got %q", result)
	}
}

func TestCreateChatCompletionClassifiesFailures(t *testing.T) {
	testCases := []struct {
		name         string
		statusCode   int
		payload      any
		expectedKind llm.Kind
	}{
		{
			name:         "refusal field",
			statusCode:   http.StatusOK,
			payload:      singleChoice(map[string]any{"content": nil, "refusal": "I can't help with that."}, "stop"),
			expectedKind: llm.KindGuardrailRefusal,
		},
		{
			name:         "content filter finish",
			statusCode:   http.StatusOK,
			payload:      singleChoice(map[string]any{"content": ""}, "content_filter"),
			expectedKind: llm.KindGuardrailRefusal,
		},
		{
			name:         "context length",
			statusCode:   http.StatusBadRequest,
			payload:      map[string]any{"error": map[string]any{"code": "context_length_exceeded", "message": "too long"}},
			expectedKind: llm.KindContextWindowExceeded,
		},
		{
			name:         "model not found",
			statusCode:   http.StatusNotFound,
			payload:      map[string]any{"error": "model not loaded"},
			expectedKind: llm.KindTransportUnavailable,
		},
		{
			name:         "server error",
			statusCode:   http.StatusInternalServerError,
			payload:      map[string]any{"error": "boom"},
			expectedKind: llm.KindUnclassified,
		},
		{
			name:         "empty message",
			statusCode:   http.StatusOK,
			payload:      singleChoice(map[string]any{"content": ""}, "length"),
			expectedKind: llm.KindUnclassified,
		},
		{
			name:         "no choices",
			statusCode:   http.StatusOK,
			payload:      map[string]any{"choices": []any{}},
			expectedKind: llm.KindUnclassified,
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			server := serveCompletion(t, testCase.statusCode, testCase.payload)
			client := Client{HTTPBaseURL: server.URL}
			_, err := client.CreateChatCompletion(context.Background(), ChatCompletionRequest{Model: "m"})
			if err == nil {
				t.Fatalf("expected error")
			}
			if kind := llm.Classify(err); kind != testCase.expectedKind {
				t.Fatalf("expected kind %s, got %s (%v)", testCase.expectedKind, kind, err)
			}
		})
	}
}

func TestCreateChatCompletionUnreachableServer(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	unreachableURL := server.URL
	server.Close()

	client := Client{HTTPBaseURL: unreachableURL}
	_, err := client.CreateChatCompletion(context.Background(), ChatCompletionRequest{Model: "m"})
	if !errors.Is(err, llm.ErrTransportUnavailable) {
		t.Fatalf("expected transport unavailable, got %v", err)
	}
}
