package llmwrapper

const (
	applicationName        = "llm-wrapper"
	rootCommandShort       = "Route prompts through local LLM transports with fallback and structured output recovery"
	environmentPrefix      = "LLM_WRAPPER"
	defaultAskQuestion     = "Say hello in one sentence."
	answerTagName          = "answer"
	chatPromptLabel        = "You: "
	chatReplyLabel         = "Assistant: "
	chatReadyMessage       = "Chat ready. Type 'exit' to quit."
	standardInputArgument  = "-"
	boolFlagNoOptionValue  = "true"
	boolFlagDefaultValue   = "false"
	dashPlaceholder        = "-"
	consoleLoggingFormat   = "console"
	jsonLoggingFormat      = "json"
	quietLoggingLevel      = "warn"
	verboseLoggingLevel    = "debug"
	defaultLoggingLevel    = "info"
	generateCommandUse     = "generate [PROMPT...]"
	generateCommandShort   = "Send one prompt and print the reply (reads stdin when PROMPT is empty or -)"
	chatCommandUse         = "chat"
	chatCommandShort       = "Interactive chat that keeps the conversation history"
	askCommandUse          = "ask [QUESTION...]"
	askCommandShort        = "Ask a question and print the <answer> tag from the reply"
	renameCommandUse       = "rename FILE..."
	renameCommandShort     = "Suggest descriptive file names (dry run unless --apply)"
	sortCommandUse         = "sort DIR"
	sortCommandShort       = "Sort files into DIR/_sorted/<Category> (dry run unless --apply)"
	modelsCommandUse       = "models"
	modelsCommandShort     = "Show detected memory, model tiers and the chosen model"
	transportsCommandUse   = "transports"
	transportsCommandShort = "List configured transports in the order they are tried"
	enabledStateLabel      = "enabled"
	disabledStateLabel     = "disabled"
	chosenModelMarker      = "*"

	configFlagName       = "config"
	configFlagUsage      = "Path to config.yaml (env LLM_WRAPPER_CONFIG)"
	modelFlagName        = "model"
	modelFlagUsage       = "Model override; skips auto-selection (env LLM_WRAPPER_MODEL)"
	maxTokensFlagName    = "max-tokens"
	maxTokensFlagUsage   = "Maximum tokens to generate (0 = common.defaults.max_tokens; env LLM_WRAPPER_MAX_TOKENS)"
	quietFlagName        = "quiet"
	quietFlagUsage       = "Only log warnings and errors"
	verboseFlagName      = "verbose"
	verboseFlagUsage     = "Log debug output"
	systemFlagName       = "system"
	systemFlagUsage      = "System message prepended to the conversation"
	applyFlagName        = "apply"
	applyFlagUsage       = "Apply the plan instead of printing it"
	keepCheckFlagName    = "keep-check"
	keepCheckFlagUsage   = "Ask whether the original stem should be kept in the new name"
	recursiveFlagName    = "recursive"
	recursiveFlagUsage   = "Include files in subdirectories"
	batchSizeFlagName    = "batch-size"
	batchSizeFlagUsage   = "Files per sort request"
	concurrencyFlagName  = "concurrency"
	concurrencyFlagUsage = "Parallel metadata readers"
	contextFlagName      = "context"
	contextFlagUsage     = "Extra context for rename and sort prompts (overrides common.context)"
	allFlagName          = "all"
	allFlagUsage         = "Show disabled transports as well"

	configurationLoaderInitializationErrorFormat = "initialize configuration loader: %w"
	configurationSourceResolutionErrorFormat     = "resolve configuration source: %w"
	rootConfigurationLoadErrorFormat             = "load root configuration %s: %w"
	loggerBuildErrorFormat                       = "build logger: %w"
	invalidLoggingLevelErrorFormat               = "invalid logging level %q: %w"
	unknownLoggingFormatErrorFormat              = "unknown logging format %q (expected console or json)"
	modelSelectionErrorFormat                    = "choose model: %w"
	transportBuildErrorFormat                    = "build transports: %w"
	readStandardInputErrorFormat                 = "read prompt from stdin: %w"
	emptyPromptErrorMessage                      = "prompt is empty"
	extractAnswerErrorFormat                     = "extract answer: %w"
	invalidBoolValueErrorFormat                  = "invalid boolean value %q"
	notDirectoryErrorFormat                      = "%s is not a directory"
	statDirectoryErrorFormat                     = "stat %s: %w"
)
