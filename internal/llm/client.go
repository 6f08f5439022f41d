package llm

import (
	"context"
	"fmt"
)

// Client turns a prompt, optionally with an attached image, into generated
// text.  Calls block until the provider answers or fails; there are no
// retries.
type Client interface {
	GenerateText(ctx context.Context, prompt string) (string, error)
	GenerateWithImage(ctx context.Context, prompt string, image []byte, mimeType string) (string, error)
}

// FailureReason classifies a GenerationError.
type FailureReason string

const (
	ReasonTransport FailureReason = "transport"
	ReasonAuth      FailureReason = "auth"
	ReasonQuota     FailureReason = "quota"
	ReasonEmpty     FailureReason = "empty"
)

// GenerationError reports that the generation service could not produce
// text.  Callers that do not care about the reason can treat every
// GenerationError alike.
type GenerationError struct {
	Provider string
	Reason   FailureReason
	Cause    error
}

func (e *GenerationError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s generation failed (%s): %v", e.Provider, e.Reason, e.Cause)
	}
	return fmt.Sprintf("%s generation failed (%s)", e.Provider, e.Reason)
}

func (e *GenerationError) Unwrap() error {
	return e.Cause
}

// MalformedResponseError reports structured output that could not be parsed.
// Raw holds the model's text as received.
type MalformedResponseError struct {
	Raw   string
	Cause error
}

func (e *MalformedResponseError) Error() string {
	return fmt.Sprintf("malformed structured response: %v", e.Cause)
}

func (e *MalformedResponseError) Unwrap() error {
	return e.Cause
}

// reasonForStatus maps an HTTP status returned by a provider to a reason.
func reasonForStatus(status int) FailureReason {
	switch status {
	case 401, 403:
		return ReasonAuth
	case 429:
		return ReasonQuota
	default:
		return ReasonTransport
	}
}
