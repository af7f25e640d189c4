package fallback

import (
	"context"
	"errors"
	"net"
	"strings"
)

// FailureCause classifies why the generative call failed.
type FailureCause string

const (
	CauseTimeout         FailureCause = "timeout"
	CauseAPIError        FailureCause = "api_error"
	CauseContextOverflow FailureCause = "context_overflow"
	CauseUnknown         FailureCause = "unknown"
)

var causeActions = map[FailureCause]Action{
	CauseTimeout:         {Type: "retry", Label: "Send your message again"},
	CauseAPIError:        {Type: "wait_and_retry", Label: "Try again in a few minutes"},
	CauseContextOverflow: {Type: "shorten_message", Label: "Send a shorter message or start a new topic"},
	CauseUnknown:         {Type: "contact_support", Label: "Contact our support team"},
}

// Known reports whether c is one of the defined causes.
func (c FailureCause) Known() bool {
	_, ok := causeActions[c]
	return ok
}

var baselineActions = []Action{
	{Type: "contact_directly", Label: "Contact our team directly"},
	{Type: "restart_conversation", Label: "Restart the conversation"},
}

// RecoveryActions returns the cause-specific action followed by the two
// baseline actions.
func RecoveryActions(cause FailureCause) []Action {
	lead, ok := causeActions[cause]
	if !ok {
		lead = causeActions[CauseUnknown]
	}
	actions := make([]Action, 0, len(baselineActions)+1)
	actions = append(actions, lead)
	return append(actions, baselineActions...)
}

var overflowHints = []string{
	"context length",
	"context_length",
	"maximum context",
	"too many tokens",
	"prompt is too long",
	"input is too long",
}

// ClassifyFailure maps a provider error to a FailureCause.
func ClassifyFailure(err error) FailureCause {
	if err == nil {
		return CauseUnknown
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return CauseTimeout
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return CauseTimeout
	}
	msg := strings.ToLower(err.Error())
	for _, hint := range overflowHints {
		if strings.Contains(msg, hint) {
			return CauseContextOverflow
		}
	}
	if strings.Contains(msg, "timeout") || strings.Contains(msg, "timed out") {
		return CauseTimeout
	}
	return CauseAPIError
}
