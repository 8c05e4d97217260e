package command_test

import (
	"context"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/temirov/llm-wrapper/internal/llm"
	"github.com/temirov/llm-wrapper/internal/transport/command"
)

func requirePOSIXShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
}

func TestNewRequiresCommand(t *testing.T) {
	_, err := command.New(command.Settings{Name: "Empty"})
	require.Error(t, err)
}

func TestGenerateWritesPromptToStdin(t *testing.T) {
	requirePOSIXShell(t)
	transport, err := command.New(command.Settings{Name: "Echo", Command: "cat"})
	require.NoError(t, err)

	reply, err := transport.Generate(context.Background(), "  <new_name>a.txt</new_name>\n", "rename", 32)
	require.NoError(t, err)
	assert.Equal(t, "<new_name>a.txt</new_name>", reply)
	assert.Equal(t, "Echo", transport.Name())

	var asTransport llm.Transport = transport
	_, isChat := asTransport.(llm.ChatTransport)
	assert.False(t, isChat)
}

func TestGenerateExpandsPlaceholders(t *testing.T) {
	requirePOSIXShell(t)
	transport, err := command.New(command.Settings{
		Command: "sh",
		Args:    []string{"-c", `echo "$0 $1"`, command.ModelPlaceholder, command.MaxTokensPlaceholder},
		Model:   "llama3.2:3b",
	})
	require.NoError(t, err)

	reply, err := transport.Generate(context.Background(), "ignored", "generate", 77)
	require.NoError(t, err)
	assert.Equal(t, "llama3.2:3b 77", reply)
}

func TestGenerateClassifiesFailures(t *testing.T) {
	requirePOSIXShell(t)
	testCases := []struct {
		name         string
		settings     command.Settings
		expectedKind llm.Kind
	}{
		{
			name:         "missing binary",
			settings:     command.Settings{Command: "llm-wrapper-test-missing-binary"},
			expectedKind: llm.KindTransportUnavailable,
		},
		{
			name: "refusal marker on stdout",
			settings: command.Settings{
				Command:        "sh",
				Args:           []string{"-c", `echo "Sorry, I can't help with that."`},
				RefusalMarkers: []string{"I can't help with that"},
			},
			expectedKind: llm.KindGuardrailRefusal,
		},
		{
			name: "context overflow on stderr",
			settings: command.Settings{
				Command: "sh",
				Args:    []string{"-c", `echo "error: prompt is too long" >&2; exit 1`},
			},
			expectedKind: llm.KindContextWindowExceeded,
		},
		{
			name: "plain failure",
			settings: command.Settings{
				Command: "sh",
				Args:    []string{"-c", `echo "segmentation fault" >&2; exit 2`},
			},
			expectedKind: llm.KindUnclassified,
		},
		{
			name: "empty output",
			settings: command.Settings{
				Command: "sh",
				Args:    []string{"-c", `true`},
			},
			expectedKind: llm.KindUnclassified,
		},
	}

	for _, testCase := range testCases {
		testCase := testCase
		t.Run(testCase.name, func(t *testing.T) {
			transport, err := command.New(testCase.settings)
			require.NoError(t, err)
			_, err = transport.Generate(context.Background(), "prompt", "rename", 16)
			require.Error(t, err)
			assert.Equal(t, testCase.expectedKind, llm.Classify(err), err.Error())
		})
	}
}

func TestGenerateHonoursTimeout(t *testing.T) {
	requirePOSIXShell(t)
	transport, err := command.New(command.Settings{
		Command: "sh",
		Args:    []string{"-c", "exec sleep 5"},
		Timeout: 50 * time.Millisecond,
	})
	require.NoError(t, err)

	_, err = transport.Generate(context.Background(), "prompt", "generate", 16)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
