// Package transport builds configured transports by type name.
package transport

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/temirov/llm-wrapper/internal/config"
	"github.com/temirov/llm-wrapper/internal/llm"
	"github.com/temirov/llm-wrapper/internal/transport/command"
	"github.com/temirov/llm-wrapper/internal/transport/ollama"
	"github.com/temirov/llm-wrapper/internal/transport/openai"
)

const (
	unknownTypeErrorFormat = "transport %s: unknown type %q (known: %s)"
	buildErrorFormat       = "transport %s: %w"
)

// ErrNoEnabledTransports is returned by BuildAll when nothing is enabled.
var ErrNoEnabledTransports = errors.New("no enabled transports")

// Options carries settings shared by every transport built in one run.
type Options struct {
	// Model is used when a transport does not name its own model.
	Model     string
	Timeout   time.Duration
	Logger    *zap.Logger
	LookupEnv func(string) string
}

func (options Options) logger() *zap.Logger {
	if options.Logger == nil {
		return zap.NewNop()
	}
	return options.Logger
}

func (options Options) lookupEnv(name string) string {
	if name == "" {
		return ""
	}
	if options.LookupEnv != nil {
		return options.LookupEnv(name)
	}
	return os.Getenv(name)
}

func (options Options) model(transportConfiguration config.Transport) string {
	if model := strings.TrimSpace(transportConfiguration.Model); model != "" {
		return model
	}
	return options.Model
}

type Factory func(transportConfiguration config.Transport, options Options) (llm.Transport, error)

type Registry struct{ factories map[string]Factory }

func NewRegistry() *Registry { return &Registry{factories: map[string]Factory{}} }

// DefaultRegistry knows the ollama, openai and command transport types.
func DefaultRegistry() *Registry {
	registry := NewRegistry()
	registry.Register(config.TransportTypeOllama, newOllama)
	registry.Register(config.TransportTypeOpenAI, newOpenAI)
	registry.Register(config.TransportTypeCommand, newCommand)
	return registry
}

func (r *Registry) Register(typeName string, factory Factory) { r.factories[typeName] = factory }

func (r *Registry) Types() []string {
	out := make([]string, 0, len(r.factories))
	for k := range r.factories {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func (r *Registry) Build(transportConfiguration config.Transport, options Options) (llm.Transport, error) {
	factory, ok := r.factories[transportConfiguration.Type]
	if !ok {
		return nil, fmt.Errorf(unknownTypeErrorFormat, transportConfiguration.Name, transportConfiguration.Type, strings.Join(r.Types(), ", "))
	}
	built, err := factory(transportConfiguration, options)
	if err != nil {
		return nil, fmt.Errorf(buildErrorFormat, transportConfiguration.Name, err)
	}
	return built, nil
}

// BuildAll builds every enabled transport in configuration order.
func (r *Registry) BuildAll(transportConfigurations []config.Transport, options Options) ([]llm.Transport, error) {
	transports := make([]llm.Transport, 0, len(transportConfigurations))
	for _, transportConfiguration := range transportConfigurations {
		if !transportConfiguration.Enabled {
			continue
		}
		built, err := r.Build(transportConfiguration, options)
		if err != nil {
			return nil, err
		}
		transports = append(transports, built)
	}
	if len(transports) == 0 {
		return nil, ErrNoEnabledTransports
	}
	return transports, nil
}

func httpClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

func newOllama(transportConfiguration config.Transport, options Options) (llm.Transport, error) {
	return ollama.New(ollama.Settings{
		Name:          transportConfiguration.Name,
		Endpoint:      transportConfiguration.Endpoint,
		Model:         options.model(transportConfiguration),
		SystemMessage: transportConfiguration.SystemMessage,
		UseHistory:    transportConfiguration.UseHistory,
		MaxTurns:      transportConfiguration.HistoryTurns(),
		HTTPClient:    httpClient(options.Timeout),
		Logger:        options.logger(),
	})
}

func newOpenAI(transportConfiguration config.Transport, options Options) (llm.Transport, error) {
	return openai.New(openai.Settings{
		Name:          transportConfiguration.Name,
		Endpoint:      transportConfiguration.Endpoint,
		APIKey:        options.lookupEnv(transportConfiguration.APIKeyEnv),
		Model:         transportConfiguration.Model,
		SystemMessage: transportConfiguration.SystemMessage,
		HTTPClient:    httpClient(options.Timeout),
		Logger:        options.logger(),
	}), nil
}

func newCommand(transportConfiguration config.Transport, options Options) (llm.Transport, error) {
	return command.New(command.Settings{
		Name:           transportConfiguration.Name,
		Command:        transportConfiguration.Command,
		Args:           transportConfiguration.Args,
		Model:          options.model(transportConfiguration),
		RefusalMarkers: transportConfiguration.RefusalMarkers,
		Timeout:        options.Timeout,
		Logger:         options.logger(),
	})
}
