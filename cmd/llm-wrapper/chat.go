package llmwrapper

import (
	"bufio"
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/temirov/llm-wrapper/internal/llm"
)

var chatExitWords = map[string]struct{}{"exit": {}, "quit": {}, "q": {}}

func newChatCommand(app *application) *cobra.Command {
	var systemMessage string
	command := &cobra.Command{
		Use:   chatCommandUse,
		Short: chatCommandShort,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (runErr error) {
			current, err := app.openSession(cmd, sessionOptions{})
			if err != nil {
				return err
			}
			defer func() { runErr = errors.Join(runErr, current.Close()) }()

			var messages []llm.Message
			if trimmed := strings.TrimSpace(systemMessage); trimmed != "" {
				messages = append(messages, llm.Message{Role: llm.RoleSystem, Content: trimmed})
			}

			output := cmd.OutOrStdout()
			scanner := bufio.NewScanner(cmd.InOrStdin())
			fmt.Fprintln(output, chatReadyMessage)
			for {
				fmt.Fprint(output, chatPromptLabel)
				if !scanner.Scan() {
					fmt.Fprintln(output)
					return scanner.Err()
				}
				userText := strings.TrimSpace(scanner.Text())
				if userText == "" {
					fmt.Fprintln(output)
					return nil
				}
				if _, exit := chatExitWords[strings.ToLower(userText)]; exit {
					return nil
				}
				messages = append(messages, llm.Message{Role: llm.RoleUser, Content: userText})
				reply, chatErr := current.engine.Chat(cmd.Context(), messages, 0)
				if chatErr != nil {
					return chatErr
				}
				messages = append(messages, llm.Message{Role: llm.RoleAssistant, Content: reply})
				if writeErr := writeLine(output, chatReplyLabel+reply); writeErr != nil {
					return writeErr
				}
			}
		},
	}
	command.Flags().StringVar(&systemMessage, systemFlagName, "", systemFlagUsage)
	return command
}
