package llmwrapper_test

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	llmwrapper "github.com/temirov/llm-wrapper/cmd/llm-wrapper"
	"github.com/temirov/llm-wrapper/internal/config"
	"github.com/temirov/llm-wrapper/internal/llm"
	"github.com/temirov/llm-wrapper/internal/models"
	"github.com/temirov/llm-wrapper/internal/transport"
)

const testConfiguration = `common:
  logging:
    level: info
    format: console
  defaults:
    max_tokens: 64
    timeout_seconds: 2
  context: from-config
  categories: [Document, Image]
transports:
  - name: Fake
    type: ollama
    enabled: true
    endpoint: http://127.0.0.1:1
  - name: Spare
    type: openai
    enabled: false
    endpoint: http://127.0.0.1:2/v1
models:
  - name: big
    min_vram_gb: 24
  - name: small
    default: true
`

type recordedCall struct {
	purpose   string
	prompt    string
	messages  []llm.Message
	maxTokens int
}

type fakeTransport struct {
	mutex     sync.Mutex
	responses map[string]string
	calls     []recordedCall
	model     string
}

func (transport *fakeTransport) Name() string { return "Fake" }

func (transport *fakeTransport) Generate(ctx context.Context, prompt string, purpose string, maxTokens int) (string, error) {
	transport.mutex.Lock()
	defer transport.mutex.Unlock()
	transport.calls = append(transport.calls, recordedCall{purpose: purpose, prompt: prompt, maxTokens: maxTokens})
	return transport.responses[purpose], nil
}

func (transport *fakeTransport) GenerateChat(ctx context.Context, messages []llm.Message, purpose string, maxTokens int) (string, error) {
	transport.mutex.Lock()
	defer transport.mutex.Unlock()
	transport.calls = append(transport.calls, recordedCall{purpose: purpose, messages: messages, maxTokens: maxTokens})
	return "reply " + messages[len(messages)-1].Content, nil
}

type harness struct {
	transport    *fakeTransport
	dependencies llmwrapper.Dependencies
	configPath   string
}

func newHarness(t *testing.T, responses map[string]string) *harness {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(testConfiguration), 0o600))

	fake := &fakeTransport{responses: responses}
	registry := transport.NewRegistry()
	registry.Register(config.TransportTypeOllama, func(configured config.Transport, options transport.Options) (llm.Transport, error) {
		fake.model = options.Model
		return fake, nil
	})
	return &harness{
		transport:    fake,
		dependencies: llmwrapper.Dependencies{Registry: registry, Detector: models.Detector{}},
		configPath:   configPath,
	}
}

func (h *harness) run(t *testing.T, input string, args ...string) (string, error) {
	t.Helper()
	command := llmwrapper.NewRootCommand(h.dependencies)
	var output bytes.Buffer
	var diagnostics bytes.Buffer
	command.SetOut(&output)
	command.SetErr(&diagnostics)
	command.SetIn(strings.NewReader(input))
	command.SetArgs(append(args, "--config", h.configPath))
	err := command.Execute()
	return output.String(), err
}

func TestGenerateUsesArgumentsAndDefaultModel(t *testing.T) {
	h := newHarness(t, map[string]string{"generate": "Hello there"})

	output, err := h.run(t, "", "generate", "say", "hello")
	require.NoError(t, err)
	assert.Equal(t, "Hello there\n", output)
	require.Len(t, h.transport.calls, 1)
	assert.Equal(t, "say hello", h.transport.calls[0].prompt)
	assert.Equal(t, 64, h.transport.calls[0].maxTokens)
	assert.Equal(t, "small", h.transport.model)
}

func TestGenerateReadsStandardInput(t *testing.T) {
	h := newHarness(t, map[string]string{"generate": "ok\n"})

	output, err := h.run(t, "piped prompt\n", "generate", "-")
	require.NoError(t, err)
	assert.Equal(t, "ok\n", output)
	assert.Equal(t, "piped prompt\n", h.transport.calls[0].prompt)
}

func TestGenerateRejectsEmptyPrompt(t *testing.T) {
	h := newHarness(t, nil)

	_, err := h.run(t, "   ", "generate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "prompt is empty")
	assert.Empty(t, h.transport.calls)
}

func TestModelAndTokenOverrides(t *testing.T) {
	h := newHarness(t, map[string]string{"generate": "x"})

	_, err := h.run(t, "", "generate", "hi", "--model", "custom:1b", "--max-tokens", "9")
	require.NoError(t, err)
	assert.Equal(t, "custom:1b", h.transport.model)
	assert.Equal(t, 9, h.transport.calls[0].maxTokens)
}

func TestEnvironmentOverrides(t *testing.T) {
	h := newHarness(t, map[string]string{"generate": "x"})
	t.Setenv("LLM_WRAPPER_MODEL", "env-model")
	t.Setenv("LLM_WRAPPER_MAX_TOKENS", "17")

	_, err := h.run(t, "", "generate", "hi")
	require.NoError(t, err)
	assert.Equal(t, "env-model", h.transport.model)
	assert.Equal(t, 17, h.transport.calls[0].maxTokens)

	_, err = h.run(t, "", "generate", "hi", "--model", "flag-model")
	require.NoError(t, err)
	assert.Equal(t, "flag-model", h.transport.model)
}

func TestAskExtractsAnswerTag(t *testing.T) {
	h := newHarness(t, map[string]string{"generate": "Sure! <answer>Hello, world.</answer>"})

	output, err := h.run(t, "", "ask", "greet me")
	require.NoError(t, err)
	assert.Equal(t, "Hello, world.\n", output)
	assert.Contains(t, h.transport.calls[0].prompt, "Question: greet me")
}

func TestAskFailsWithoutAnswerTag(t *testing.T) {
	h := newHarness(t, map[string]string{"generate": "no tags here"})

	_, err := h.run(t, "", "ask")
	require.Error(t, err)
	assert.ErrorIs(t, err, llm.ErrParseFailure)
	assert.Contains(t, h.transport.calls[0].prompt, "Say hello in one sentence.")
}

func TestChatKeepsHistoryUntilExitWord(t *testing.T) {
	h := newHarness(t, nil)

	output, err := h.run(t, "hello\nagain\nQuit\nignored\n", "chat", "--system", "be brief")
	require.NoError(t, err)
	assert.Contains(t, output, "Chat ready.")
	assert.Contains(t, output, "Assistant: reply hello\n")
	assert.Contains(t, output, "Assistant: reply again\n")

	require.Len(t, h.transport.calls, 2)
	second := h.transport.calls[1]
	assert.Equal(t, "chat", second.purpose)
	assert.Equal(t, []llm.Message{
		{Role: llm.RoleSystem, Content: "be brief"},
		{Role: llm.RoleUser, Content: "hello"},
		{Role: llm.RoleAssistant, Content: "reply hello"},
		{Role: llm.RoleUser, Content: "again"},
	}, second.messages)
}

func TestChatEndsOnEndOfInput(t *testing.T) {
	h := newHarness(t, nil)

	_, err := h.run(t, "only line", "chat")
	require.NoError(t, err)
	assert.Len(t, h.transport.calls, 1)
}

func TestRenameDryRunThenApply(t *testing.T) {
	h := newHarness(t, map[string]string{"rename": "<new_name>Invoice 42</new_name>\n<reason>invoice scan</reason>"})
	directory := t.TempDir()
	source := filepath.Join(directory, "scan.txt")
	require.NoError(t, os.WriteFile(source, []byte("Invoice 42 from ACME"), 0o600))

	output, err := h.run(t, "", "rename", source)
	require.NoError(t, err)
	assert.Contains(t, output, "[DRY] "+source+" -> Invoice-42.txt invoice scan")
	assert.Contains(t, output, "rename: 1 actions (dry-run)")
	assert.FileExists(t, source)
	assert.Contains(t, h.transport.calls[0].prompt, "from-config")

	output, err = h.run(t, "", "rename", source, "--apply")
	require.NoError(t, err)
	assert.Contains(t, output, "rename: 1 actions (applied)")
	assert.NoFileExists(t, source)
	assert.FileExists(t, filepath.Join(directory, "Invoice-42.txt"))
}

func TestRenameKeepCheckAppendsStem(t *testing.T) {
	h := newHarness(t, map[string]string{
		"rename": "<new_name>Beach-Sunset.txt</new_name>",
		"keep":   "<stem_action>keep</stem_action><reason>camera counter</reason>",
	})
	source := filepath.Join(t.TempDir(), "DSC_0042.txt")
	require.NoError(t, os.WriteFile(source, []byte("sunset at the beach"), 0o600))

	output, err := h.run(t, "", "rename", source, "--keep-check", "--context", "holiday photos")
	require.NoError(t, err)
	assert.Contains(t, output, "Beach-Sunset-DSC_0042.txt")
	require.Len(t, h.transport.calls, 2)
	assert.Contains(t, h.transport.calls[0].prompt, "holiday photos")
	assert.Equal(t, "keep", h.transport.calls[1].purpose)
}

func TestSortApplyMovesFiles(t *testing.T) {
	h := newHarness(t, map[string]string{
		"sort": "<category>Document</category><reason>text</reason>\n<category>Image</category>",
	})
	directory := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(directory, "a.txt"), []byte("alpha"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(directory, "b.txt"), []byte("beta"), 0o600))

	output, err := h.run(t, "", "sort", directory, "--apply")
	require.NoError(t, err)
	assert.Contains(t, output, "sort: 2 actions (applied)")
	assert.FileExists(t, filepath.Join(directory, "_sorted", "Document", "a.txt"))
	assert.FileExists(t, filepath.Join(directory, "_sorted", "Image", "b.txt"))
	assert.Contains(t, h.transport.calls[0].prompt, "- Image")
}

func TestSortRejectsFiles(t *testing.T) {
	h := newHarness(t, nil)
	file := filepath.Join(t.TempDir(), "a.txt")
	require.NoError(t, os.WriteFile(file, []byte("alpha"), 0o600))

	_, err := h.run(t, "", "sort", file)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "is not a directory")
	assert.Empty(t, h.transport.calls)
}

func TestModelsListsTiers(t *testing.T) {
	h := newHarness(t, nil)
	h.dependencies.Detector = models.Detector{
		VRAMGigabytes: func() (float64, bool) { return 32, true },
		TotalRAMBytes: func() (uint64, bool) { return 0, false },
	}

	output, err := h.run(t, "", "models")
	require.NoError(t, err)
	assert.Contains(t, output, "vram_gb\t32.0\n")
	assert.Contains(t, output, "ram_gb\t-\n")
	assert.Contains(t, output, "* big\t(min_vram_gb=24, min_ram_gb=-, default=false)")
	assert.Contains(t, output, "chosen\tbig\n")
}

func TestTransportsListing(t *testing.T) {
	h := newHarness(t, nil)

	output, err := h.run(t, "", "transports")
	require.NoError(t, err)
	assert.Equal(t, "Fake\t(ollama, enabled, model=-, http://127.0.0.1:1)\n", output)

	output, err = h.run(t, "", "transports", "--all")
	require.NoError(t, err)
	assert.Contains(t, output, "Spare\t(openai, disabled, model=-, http://127.0.0.1:2/v1)\n")
}

func TestQuietAndVerboseAreExclusive(t *testing.T) {
	h := newHarness(t, map[string]string{"generate": "x"})

	_, err := h.run(t, "", "generate", "hi", "--quiet", "--verbose")
	require.Error(t, err)
}
