package llmwrapper

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/temirov/llm-wrapper/internal/parser"
)

func newGenerateCommand(app *application) *cobra.Command {
	return &cobra.Command{
		Use:   generateCommandUse,
		Short: generateCommandShort,
		RunE: func(cmd *cobra.Command, args []string) (runErr error) {
			prompt, err := resolvePrompt(cmd.InOrStdin(), args)
			if err != nil {
				return err
			}
			current, err := app.openSession(cmd, sessionOptions{})
			if err != nil {
				return err
			}
			defer func() { runErr = errors.Join(runErr, current.Close()) }()

			reply, err := current.engine.GenerateText(cmd.Context(), prompt, 0)
			if err != nil {
				return err
			}
			return writeLine(cmd.OutOrStdout(), reply)
		},
	}
}

func newAskCommand(app *application) *cobra.Command {
	return &cobra.Command{
		Use:   askCommandUse,
		Short: askCommandShort,
		RunE: func(cmd *cobra.Command, args []string) (runErr error) {
			question := strings.TrimSpace(strings.Join(args, " "))
			if question == "" {
				question = defaultAskQuestion
			}
			current, err := app.openSession(cmd, sessionOptions{})
			if err != nil {
				return err
			}
			defer func() { runErr = errors.Join(runErr, current.Close()) }()

			reply, err := current.engine.GenerateText(cmd.Context(), askPrompt(question), 0)
			if err != nil {
				return err
			}
			answer, err := parser.ParseTag(reply, answerTagName)
			if err != nil {
				return fmt.Errorf(extractAnswerErrorFormat, err)
			}
			return writeLine(cmd.OutOrStdout(), answer)
		},
	}
}

func askPrompt(question string) string {
	return strings.Join([]string{
		"Answer the question in one sentence.",
		"Return only the tag shown below.",
		"<" + answerTagName + ">...</" + answerTagName + ">",
		"Question: " + question,
	}, "\n")
}

// resolvePrompt joins the arguments, or reads stdin when there are none or
// the only argument is "-".
func resolvePrompt(input io.Reader, args []string) (string, error) {
	prompt := strings.Join(args, " ")
	if len(args) == 0 || (len(args) == 1 && args[0] == standardInputArgument) {
		content, err := io.ReadAll(input)
		if err != nil {
			return "", fmt.Errorf(readStandardInputErrorFormat, err)
		}
		prompt = string(content)
	}
	if strings.TrimSpace(prompt) == "" {
		return "", errors.New(emptyPromptErrorMessage)
	}
	return prompt, nil
}

func writeLine(output io.Writer, text string) error {
	if !strings.HasSuffix(text, "\n") {
		text += "\n"
	}
	_, err := io.WriteString(output, text)
	return err
}
