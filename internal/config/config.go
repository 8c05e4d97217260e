package config

import (
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

const (
	TransportTypeOllama  = "ollama"
	TransportTypeOpenAI  = "openai"
	TransportTypeCommand = "command"

	defaultMaxTurns = 6

	emptyTransportsErrorMessage              = "config.transports is empty"
	noEnabledTransportErrorMessage           = "no enabled transport (set transports[].enabled: true)"
	missingDefaultModelErrorMessage          = "no default model found (set models[].default: true)"
	rootConfigurationEmptyContentErrorFormat = "root configuration %s is empty"
	rootConfigurationUnmarshalErrorFormat    = "unmarshal root configuration %s: %w"
	transportMissingNameErrorFormat          = "transports[%d]: name is required"
	transportDuplicateNameErrorFormat        = "transports[%d]: duplicate name %q"
	transportUnknownTypeErrorFormat          = "transport %s: unknown type %q"
	transportMissingEndpointErrorFormat      = "transport %s: endpoint is required"
	transportMissingCommandErrorFormat       = "transport %s: command is required"
)

type Root struct {
	Common     Common      `yaml:"common"`
	Transports []Transport `yaml:"transports"`
	Models     []Model     `yaml:"models"`
}

type Common struct {
	Logging struct {
		Level  string `yaml:"level"`
		Format string `yaml:"format"`
	} `yaml:"logging"`
	Defaults struct {
		MaxTokens      int `yaml:"max_tokens"`
		TimeoutSeconds int `yaml:"timeout_seconds"`
	} `yaml:"defaults"`
	// ParseFailureLog is the JSON-lines file receiving malformed replies. An
	// empty value disables the log.
	ParseFailureLog string   `yaml:"parse_failure_log"`
	Context         string   `yaml:"context"`
	Categories      []string `yaml:"categories"`
}

// Transport describes one backend. Transports are tried in file order.
type Transport struct {
	Name           string   `yaml:"name"`
	Type           string   `yaml:"type"`
	Enabled        bool     `yaml:"enabled"`
	Endpoint       string   `yaml:"endpoint"`
	Model          string   `yaml:"model"`
	APIKeyEnv      string   `yaml:"api_key_env"`
	SystemMessage  string   `yaml:"system_message"`
	UseHistory     bool     `yaml:"use_history"`
	MaxTurns       *int     `yaml:"max_turns"`
	Command        string   `yaml:"command"`
	Args           []string `yaml:"args"`
	RefusalMarkers []string `yaml:"refusal_markers"`
}

// HistoryTurns returns the configured history depth, defaulting to six turns
// when the key is absent.
func (transport Transport) HistoryTurns() int {
	if transport.MaxTurns == nil {
		return defaultMaxTurns
	}
	return *transport.MaxTurns
}

// Model is one auto-selection tier. A tier matches when the detected VRAM or
// RAM meets its minimum; zero minimums never match.
type Model struct {
	Name      string  `yaml:"name"`
	MinVRAMGB float64 `yaml:"min_vram_gb"`
	MinRAMGB  float64 `yaml:"min_ram_gb"`
	Default   bool    `yaml:"default"`
}

// LoadRoot parses the provided configuration source and validates required fields.
func LoadRoot(source RootConfigurationSource) (Root, error) {
	if len(source.Content) == 0 {
		return Root{}, fmt.Errorf(rootConfigurationEmptyContentErrorFormat, source.Reference)
	}

	var rootConfiguration Root
	if err := yaml.Unmarshal(source.Content, &rootConfiguration); err != nil {
		return Root{}, fmt.Errorf(rootConfigurationUnmarshalErrorFormat, source.Reference, err)
	}

	if err := rootConfiguration.validateTransports(); err != nil {
		return Root{}, err
	}
	if len(rootConfiguration.Models) > 0 {
		if _, ok := rootConfiguration.DefaultModel(); !ok {
			return Root{}, errors.New(missingDefaultModelErrorMessage)
		}
	}
	return rootConfiguration, nil
}

func (root Root) validateTransports() error {
	if len(root.Transports) == 0 {
		return errors.New(emptyTransportsErrorMessage)
	}
	seenNames := make(map[string]struct{}, len(root.Transports))
	for index, transport := range root.Transports {
		if transport.Name == "" {
			return fmt.Errorf(transportMissingNameErrorFormat, index)
		}
		if _, duplicate := seenNames[transport.Name]; duplicate {
			return fmt.Errorf(transportDuplicateNameErrorFormat, index, transport.Name)
		}
		seenNames[transport.Name] = struct{}{}
		switch transport.Type {
		case TransportTypeOllama, TransportTypeOpenAI:
			if transport.Endpoint == "" {
				return fmt.Errorf(transportMissingEndpointErrorFormat, transport.Name)
			}
		case TransportTypeCommand:
			if transport.Command == "" {
				return fmt.Errorf(transportMissingCommandErrorFormat, transport.Name)
			}
		default:
			return fmt.Errorf(transportUnknownTypeErrorFormat, transport.Name, transport.Type)
		}
	}
	if len(root.EnabledTransports()) == 0 {
		return errors.New(noEnabledTransportErrorMessage)
	}
	return nil
}

// EnabledTransports returns enabled transports in file order.
func (root Root) EnabledTransports() []Transport {
	enabled := make([]Transport, 0, len(root.Transports))
	for _, transport := range root.Transports {
		if transport.Enabled {
			enabled = append(enabled, transport)
		}
	}
	return enabled
}

func (root Root) FindTransport(name string) (Transport, bool) {
	for _, transport := range root.Transports {
		if transport.Name == name {
			return transport, true
		}
	}
	return Transport{}, false
}

func (root Root) DefaultModel() (Model, bool) {
	for _, modelConfiguration := range root.Models {
		if modelConfiguration.Default {
			return modelConfiguration, true
		}
	}
	return Model{}, false
}

func (root Root) FindModel(name string) (Model, bool) {
	for _, modelConfiguration := range root.Models {
		if modelConfiguration.Name == name {
			return modelConfiguration, true
		}
	}
	return Model{}, false
}
