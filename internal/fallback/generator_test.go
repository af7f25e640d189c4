package fallback

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func firstPick(int) int { return 0 }

func TestDetectContext(t *testing.T) {
	tests := []struct {
		message string
		want    Context
	}{
		{"How much is the pro plan?", ContextPricing},
		{"I have a problem with billing", ContextSupport},
		{"Can I get a free trial", ContextDemo},
		{"What are your office hours", ContextGeneral},
		{"", ContextGeneral},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, DetectContext(tt.message), tt.message)
	}
}

func TestGenerator_Generate(t *testing.T) {
	g := NewGenerator(WithPicker(firstPick))

	tests := []struct {
		name          string
		req           Request
		wantContext   Context
		wantEscalate  bool
		wantFirstType string
	}{
		{
			name:          "pricing stays automated",
			req:           Request{LastMessage: "what does it cost?"},
			wantContext:   ContextPricing,
			wantFirstType: "contact_sales",
		},
		{
			name:          "support always escalates",
			req:           Request{LastMessage: "the app is broken"},
			wantContext:   ContextSupport,
			wantEscalate:  true,
			wantFirstType: "contact_support",
		},
		{
			name:          "negative sentiment escalates",
			req:           Request{LastMessage: "show me a demo", Sentiment: "NEGATIVE"},
			wantContext:   ContextDemo,
			wantEscalate:  true,
			wantFirstType: "schedule_demo",
		},
		{
			name:          "repeated failures escalate",
			req:           Request{LastMessage: "hello", FailureCount: 2},
			wantContext:   ContextGeneral,
			wantEscalate:  true,
			wantFirstType: "talk_to_human",
		},
		{
			name:          "single failure does not escalate",
			req:           Request{LastMessage: "hello", FailureCount: 1},
			wantContext:   ContextGeneral,
			wantFirstType: "leave_email",
		},
		{
			name:          "no message at all",
			req:           Request{},
			wantContext:   ContextGeneral,
			wantFirstType: "leave_email",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := g.Generate(tt.req)
			assert.Equal(t, tt.wantContext, got.Context)
			assert.Equal(t, tt.wantEscalate, got.ShouldEscalate)
			assert.NotEmpty(t, got.Content)
			require.NotEmpty(t, got.AlternativeActions)
			assert.Equal(t, tt.wantFirstType, got.AlternativeActions[0].Type)
		})
	}
}

func TestGenerator_ContentComesFromPool(t *testing.T) {
	g := NewGenerator(WithPicker(func(n int) int { return n - 1 }))

	got := g.Generate(Request{LastMessage: "pricing please"})
	pool := messagePools[ContextPricing]
	assert.Equal(t, pool[len(pool)-1], got.Content)

	got = g.Generate(Request{LastMessage: "tell me something"})
	assert.Equal(t, genericPool[len(genericPool)-1], got.Content)
}

func TestGenerator_OutOfRangePickFallsBackToFirst(t *testing.T) {
	g := NewGenerator(WithPicker(func(int) int { return 99 }))
	got := g.Generate(Request{})
	assert.Equal(t, genericPool[0], got.Content)
}

func TestGenerator_Personalization(t *testing.T) {
	g := NewGenerator(WithPicker(firstPick))

	named := g.Generate(Request{BotName: "Nova"})
	assert.Equal(t, "This is Nova. "+genericPool[0], named.Content)

	def := g.Generate(Request{BotName: DefaultBotName})
	assert.Equal(t, genericPool[0], def.Content)

	blank := g.Generate(Request{BotName: "  "})
	assert.Equal(t, genericPool[0], blank.Content)
}

func TestGenerator_CustomFailureThreshold(t *testing.T) {
	g := NewGenerator(WithPicker(firstPick), WithFailureThreshold(4))
	assert.False(t, g.Generate(Request{FailureCount: 3}).ShouldEscalate)
	assert.True(t, g.Generate(Request{FailureCount: 4}).ShouldEscalate)
}

func TestRecoveryActions(t *testing.T) {
	tests := []struct {
		cause    FailureCause
		wantLead string
	}{
		{CauseTimeout, "retry"},
		{CauseAPIError, "wait_and_retry"},
		{CauseContextOverflow, "shorten_message"},
		{CauseUnknown, "contact_support"},
		{FailureCause("bogus"), "contact_support"},
	}
	for _, tt := range tests {
		t.Run(string(tt.cause), func(t *testing.T) {
			actions := RecoveryActions(tt.cause)
			require.Len(t, actions, 3)
			assert.Equal(t, tt.wantLead, actions[0].Type)
			assert.Equal(t, "contact_directly", actions[1].Type)
			assert.Equal(t, "restart_conversation", actions[2].Type)
		})
	}
}

func TestFailureCause_Known(t *testing.T) {
	for _, c := range []FailureCause{CauseTimeout, CauseAPIError, CauseContextOverflow, CauseUnknown} {
		assert.True(t, c.Known(), c)
	}
	assert.False(t, FailureCause("martian").Known())
	assert.False(t, FailureCause("").Known())
}

func TestClassifyFailure(t *testing.T) {
	assert.Equal(t, CauseUnknown, ClassifyFailure(nil))
	assert.Equal(t, CauseTimeout, ClassifyFailure(fmt.Errorf("llm: %w", context.DeadlineExceeded)))
	assert.Equal(t, CauseTimeout, ClassifyFailure(errors.New("upstream request timed out")))
	assert.Equal(t, CauseContextOverflow, ClassifyFailure(errors.New("This model's maximum context length is 8192 tokens")))
	assert.Equal(t, CauseAPIError, ClassifyFailure(errors.New("status 503: service unavailable")))
}
