package transport_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temirov/llm-wrapper/internal/config"
	"github.com/temirov/llm-wrapper/internal/llm"
	"github.com/temirov/llm-wrapper/internal/transport"
)

func TestBuildAllKeepsConfigurationOrder(t *testing.T) {
	configurations := []config.Transport{
		{Name: "CLI", Type: config.TransportTypeCommand, Enabled: true, Command: "cat"},
		{Name: "Disabled", Type: config.TransportTypeOpenAI, Enabled: false, Endpoint: "http://localhost:1234/v1"},
		{Name: "Local", Type: config.TransportTypeOllama, Enabled: true, Endpoint: "http://localhost:11434"},
		{Name: "Studio", Type: config.TransportTypeOpenAI, Enabled: true, Endpoint: "http://localhost:1234/v1", APIKeyEnv: "STUDIO_KEY"},
	}

	var requestedVariables []string
	transports, err := transport.DefaultRegistry().BuildAll(configurations, transport.Options{
		Model: "llama3.2:3b",
		LookupEnv: func(name string) string {
			requestedVariables = append(requestedVariables, name)
			return "secret"
		},
	})
	require.NoError(t, err)

	names := make([]string, 0, len(transports))
	for _, built := range transports {
		names = append(names, built.Name())
	}
	assert.Equal(t, []string{"CLI", "Local", "Studio"}, names)
	assert.Equal(t, []string{"STUDIO_KEY"}, requestedVariables)

	_, localIsChat := transports[1].(llm.ChatTransport)
	assert.True(t, localIsChat)
	_, cliIsChat := transports[0].(llm.ChatTransport)
	assert.False(t, cliIsChat)
}

func TestBuildRejectsUnknownType(t *testing.T) {
	_, err := transport.DefaultRegistry().Build(config.Transport{Name: "Remote", Type: "grpc"}, transport.Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "command, ollama, openai")
}

func TestBuildOllamaWithoutModelFails(t *testing.T) {
	_, err := transport.DefaultRegistry().Build(config.Transport{Name: "Local", Type: config.TransportTypeOllama, Endpoint: "http://localhost:11434"}, transport.Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "transport Local")
}

func TestBuildAllWithNothingEnabled(t *testing.T) {
	_, err := transport.DefaultRegistry().BuildAll([]config.Transport{{Name: "A", Type: config.TransportTypeCommand, Command: "cat"}}, transport.Options{})
	require.ErrorIs(t, err, transport.ErrNoEnabledTransports)
}
