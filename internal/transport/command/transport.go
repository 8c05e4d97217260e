// Package command runs a local command-line model runner as a transport. The
// prompt is written to the process stdin and stdout is the reply.
package command

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/temirov/llm-wrapper/internal/llm"
)

const (
	defaultTransportName = "Command"

	// ModelPlaceholder and MaxTokensPlaceholder are replaced inside Args.
	ModelPlaceholder     = "{model}"
	MaxTokensPlaceholder = "{max_tokens}"

	stderrPreviewLimit = 500
	pipeWaitDelay      = 2 * time.Second

	missingCommandErrorMessage = "command transport requires a command"
	notInstalledErrorFormat    = "%s is not installed: %w"
	timeoutErrorFormat         = "%s timed out after %v: %w"
	canceledErrorFormat        = "%s canceled: %w"
	executionErrorFormat       = "%s failed: %w (stderr: %s)"
	contextWindowErrorFormat   = "%s rejected the prompt size: %w (stderr: %s)"
	refusalErrorFormat         = "%s refused: %s"
	emptyOutputErrorFormat     = "%s returned empty output"
)

type Settings struct {
	Name           string
	Command        string
	Args           []string
	Model          string
	RefusalMarkers []string
	Timeout        time.Duration
	Logger         *zap.Logger
}

// Transport supports plain generation only; the engine flattens
// conversations before calling it.
type Transport struct {
	name           string
	command        string
	args           []string
	model          string
	refusalMarkers []string
	timeout        time.Duration
	logger         *zap.Logger
}

func New(settings Settings) (*Transport, error) {
	command := strings.TrimSpace(settings.Command)
	if command == "" {
		return nil, errors.New(missingCommandErrorMessage)
	}
	name := strings.TrimSpace(settings.Name)
	if name == "" {
		name = defaultTransportName
	}
	logger := settings.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	markers := make([]string, 0, len(settings.RefusalMarkers))
	for _, marker := range settings.RefusalMarkers {
		if trimmed := strings.ToLower(strings.TrimSpace(marker)); trimmed != "" {
			markers = append(markers, trimmed)
		}
	}
	return &Transport{
		name:           name,
		command:        command,
		args:           append([]string(nil), settings.Args...),
		model:          strings.TrimSpace(settings.Model),
		refusalMarkers: markers,
		timeout:        settings.Timeout,
		logger:         logger,
	}, nil
}

func (transport *Transport) Name() string { return transport.name }

func (transport *Transport) Generate(ctx context.Context, prompt string, purpose string, maxTokens int) (string, error) {
	if _, lookErr := exec.LookPath(transport.command); lookErr != nil {
		return "", llm.Unavailable(transport.name, notInstalledErrorFormat, transport.command, lookErr)
	}
	if transport.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, transport.timeout)
		defer cancel()
	}

	arguments := transport.expandArgs(maxTokens)
	transport.logger.Debug("command request",
		zap.String("transport", transport.name),
		zap.String("purpose", purpose),
		zap.String("command", transport.command),
		zap.Strings("args", arguments),
	)

	process := exec.CommandContext(ctx, transport.command, arguments...)
	process.Stdin = strings.NewReader(prompt)
	var stdout, stderr bytes.Buffer
	process.Stdout = &stdout
	process.Stderr = &stderr
	process.WaitDelay = pipeWaitDelay

	if runErr := process.Run(); runErr != nil {
		return "", llm.Annotate(transport.classifyRunError(ctx, runErr, stderr.String()), transport.name, purpose)
	}

	reply := strings.TrimSpace(stdout.String())
	if reply == "" {
		return "", llm.Annotate(fmt.Errorf(emptyOutputErrorFormat, transport.command), transport.name, purpose)
	}
	if marker, refused := transport.matchRefusal(reply); refused {
		return "", llm.NewError(llm.KindGuardrailRefusal, transport.name, fmt.Errorf(refusalErrorFormat, transport.command, marker))
	}
	return reply, nil
}

func (transport *Transport) expandArgs(maxTokens int) []string {
	replacer := strings.NewReplacer(
		ModelPlaceholder, transport.model,
		MaxTokensPlaceholder, strconv.Itoa(maxTokens),
	)
	expanded := make([]string, 0, len(transport.args))
	for _, argument := range transport.args {
		expanded = append(expanded, replacer.Replace(argument))
	}
	return expanded
}

func (transport *Transport) classifyRunError(ctx context.Context, runErr error, stderrText string) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return fmt.Errorf(timeoutErrorFormat, transport.command, transport.timeout, ctx.Err())
	}
	if errors.Is(ctx.Err(), context.Canceled) {
		return fmt.Errorf(canceledErrorFormat, transport.command, ctx.Err())
	}
	if errors.Is(runErr, exec.ErrNotFound) {
		return llm.NewError(llm.KindTransportUnavailable, transport.name, fmt.Errorf(notInstalledErrorFormat, transport.command, runErr))
	}
	preview := truncate(strings.TrimSpace(stderrText), stderrPreviewLimit)
	if llm.MentionsContextWindow(stderrText) {
		return llm.NewError(llm.KindContextWindowExceeded, transport.name, fmt.Errorf(contextWindowErrorFormat, transport.command, runErr, preview))
	}
	if marker, refused := transport.matchRefusal(stderrText); refused {
		return llm.NewError(llm.KindGuardrailRefusal, transport.name, fmt.Errorf(refusalErrorFormat, transport.command, marker))
	}
	return fmt.Errorf(executionErrorFormat, transport.command, runErr, preview)
}

func (transport *Transport) matchRefusal(text string) (string, bool) {
	lowered := strings.ToLower(text)
	for _, marker := range transport.refusalMarkers {
		if strings.Contains(lowered, marker) {
			return marker, true
		}
	}
	return "", false
}

func truncate(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "…"
}
