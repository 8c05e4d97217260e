package llm

import (
	"context"
	"fmt"
	"strings"
)

// Transport sends a single text prompt to a backend.
type Transport interface {
	Name() string
	Generate(ctx context.Context, prompt string, purpose string, maxTokens int) (string, error)
}

// ChatTransport is implemented by transports that accept a role-tagged
// conversation natively.
type ChatTransport interface {
	Transport
	GenerateChat(ctx context.Context, messages []Message, purpose string, maxTokens int) (string, error)
}

type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

const invalidRoleErrorFormat = "message %d: unsupported role %q"

func (role Role) Valid() bool {
	switch role {
	case RoleSystem, RoleUser, RoleAssistant:
		return true
	default:
		return false
	}
}

type Message struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// ValidateConversation checks that every message carries a known role.
func ValidateConversation(messages []Message) error {
	for index, message := range messages {
		if !message.Role.Valid() {
			return fmt.Errorf(invalidRoleErrorFormat, index, message.Role)
		}
	}
	return nil
}

// FlattenConversation renders messages as "{role}: {content}" lines joined by
// newlines. Transports without chat support receive this text verbatim, so
// the format must stay stable.
func FlattenConversation(messages []Message) string {
	lines := make([]string, 0, len(messages))
	for _, message := range messages {
		lines = append(lines, string(message.Role)+": "+message.Content)
	}
	return strings.Join(lines, "\n")
}
