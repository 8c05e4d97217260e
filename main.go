package main

import (
	"os"

	"go.uber.org/zap"

	llmwrapper "github.com/temirov/llm-wrapper/cmd/llm-wrapper"
)

func main() {
	logger := zap.Must(zap.NewProduction())

	executionErr := llmwrapper.Execute()
	if executionErr != nil {
		logger.Error("command execution failed", zap.Error(executionErr))
		_ = logger.Sync()
		os.Exit(1)
	}

	_ = logger.Sync()
}
