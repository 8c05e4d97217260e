package llm

import (
	"errors"
	"fmt"
	"strings"
)

// Kind classifies a transport or parse failure. The engine decides its
// recovery strategy from the kind alone.
type Kind int

const (
	KindUnclassified Kind = iota
	KindTransportUnavailable
	KindContextWindowExceeded
	KindGuardrailRefusal
	KindParseFailure
)

var (
	ErrTransportUnavailable  = errors.New("transport unavailable")
	ErrContextWindowExceeded = errors.New("context window exceeded")
	ErrGuardrailRefusal      = errors.New("guardrail refusal")
	ErrParseFailure          = errors.New("parse failure")
)

var contextWindowPhrases = []string{
	"context window",
	"context length",
	"context_length_exceeded",
	"maximum context",
	"prompt is too long",
	"too many tokens",
}

func (kind Kind) String() string {
	switch kind {
	case KindTransportUnavailable:
		return "transport_unavailable"
	case KindContextWindowExceeded:
		return "context_window_exceeded"
	case KindGuardrailRefusal:
		return "guardrail_refusal"
	case KindParseFailure:
		return "parse_failure"
	default:
		return "unclassified"
	}
}

func (kind Kind) sentinel() error {
	switch kind {
	case KindTransportUnavailable:
		return ErrTransportUnavailable
	case KindContextWindowExceeded:
		return ErrContextWindowExceeded
	case KindGuardrailRefusal:
		return ErrGuardrailRefusal
	case KindParseFailure:
		return ErrParseFailure
	default:
		return nil
	}
}

// Error is a classified failure carrying the originating transport and the
// prompt variant that was being sent.
type Error struct {
	Kind      Kind
	Transport string
	Variant   string
	Err       error
}

func (e *Error) Error() string {
	var builder strings.Builder
	builder.WriteString(e.Kind.String())
	if e.Transport != "" {
		builder.WriteString(" [transport=")
		builder.WriteString(e.Transport)
		if e.Variant != "" {
			builder.WriteString(" variant=")
			builder.WriteString(e.Variant)
		}
		builder.WriteString("]")
	} else if e.Variant != "" {
		builder.WriteString(" [variant=")
		builder.WriteString(e.Variant)
		builder.WriteString("]")
	}
	if e.Err != nil {
		builder.WriteString(": ")
		builder.WriteString(e.Err.Error())
	}
	return builder.String()
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches the sentinel of the error's kind, so callers can write
// errors.Is(err, llm.ErrGuardrailRefusal) regardless of wrapping.
func (e *Error) Is(target error) bool {
	sentinel := e.Kind.sentinel()
	return sentinel != nil && target == sentinel
}

// NewError builds a classified error.
func NewError(kind Kind, transport string, cause error) *Error {
	return &Error{Kind: kind, Transport: transport, Err: cause}
}

// Unavailable reports that a backend cannot run at all on this host.
func Unavailable(transport string, format string, args ...any) *Error {
	return NewError(KindTransportUnavailable, transport, fmt.Errorf(format, args...))
}

// Refusal reports a content-policy block.
func Refusal(transport string, format string, args ...any) *Error {
	return NewError(KindGuardrailRefusal, transport, fmt.Errorf(format, args...))
}

// ContextWindow reports a prompt that does not fit the model context.
func ContextWindow(transport string, format string, args ...any) *Error {
	return NewError(KindContextWindowExceeded, transport, fmt.Errorf(format, args...))
}

// Classify returns the kind of err. Classified errors and wrapped sentinels
// are honoured first; an otherwise unclassified error whose text mentions the
// context window is treated as KindContextWindowExceeded.
func Classify(err error) Kind {
	if err == nil {
		return KindUnclassified
	}
	var classified *Error
	if errors.As(err, &classified) {
		return classified.Kind
	}
	switch {
	case errors.Is(err, ErrTransportUnavailable):
		return KindTransportUnavailable
	case errors.Is(err, ErrContextWindowExceeded):
		return KindContextWindowExceeded
	case errors.Is(err, ErrGuardrailRefusal):
		return KindGuardrailRefusal
	case errors.Is(err, ErrParseFailure):
		return KindParseFailure
	}
	if MentionsContextWindow(err.Error()) {
		return KindContextWindowExceeded
	}
	return KindUnclassified
}

// MentionsContextWindow reports whether text uses context-window phrasing.
func MentionsContextWindow(text string) bool {
	lowered := strings.ToLower(text)
	for _, phrase := range contextWindowPhrases {
		if strings.Contains(lowered, phrase) {
			return true
		}
	}
	return false
}

// Annotate attaches transport and variant to err, keeping its kind. An error
// that is already classified keeps its own transport when one is set.
func Annotate(err error, transport string, variant string) error {
	if err == nil {
		return nil
	}
	var classified *Error
	if errors.As(err, &classified) {
		annotated := *classified
		if annotated.Transport == "" {
			annotated.Transport = transport
		}
		if annotated.Variant == "" {
			annotated.Variant = variant
		}
		return &annotated
	}
	return &Error{Kind: Classify(err), Transport: transport, Variant: variant, Err: err}
}
