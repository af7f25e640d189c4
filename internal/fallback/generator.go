// Package fallback produces safe replies when the generative provider is
// degraded or has failed. It deliberately avoids the intent package so it
// keeps working when intent detection is the failing subsystem.
package fallback

import (
	"math/rand/v2"
	"strings"
)

// Context is the coarse topic of the last visitor message.
type Context string

const (
	ContextPricing Context = "pricing"
	ContextSupport Context = "support"
	ContextDemo    Context = "demo"
	ContextGeneral Context = "general"
)

// Sentiment labels supplied by the session.
const (
	SentimentPositive = "positive"
	SentimentNeutral  = "neutral"
	SentimentNegative = "negative"
)

// DefaultBotName is treated as "not personalized".
const DefaultBotName = "Assistant"

// DefaultFailureThreshold is the prior-failure count that forces escalation.
const DefaultFailureThreshold = 2

// Action is an alternative the presentation layer can offer.
type Action struct {
	Type  string `json:"type"`
	Label string `json:"label"`
}

// Request carries what is known about the conversation at failure time.
type Request struct {
	LastMessage  string `json:"last_message,omitempty"`
	Sentiment    string `json:"sentiment,omitempty"`
	FailureCount int    `json:"failure_count,omitempty"`
	BotName      string `json:"bot_name,omitempty"`
}

// Response is the fallback reply.
type Response struct {
	Content            string   `json:"content"`
	Context            Context  `json:"context"`
	ShouldEscalate     bool     `json:"should_escalate"`
	AlternativeActions []Action `json:"alternative_actions"`
}

// contextKeywords is checked in order; support comes first so a support
// problem that mentions pricing still escalates.
var contextKeywords = []struct {
	context  Context
	keywords []string
}{
	{ContextSupport, []string{"help", "problem", "issue", "error", "not working", "broken", "support", "bug"}},
	{ContextPricing, []string{"price", "pricing", "cost", "how much", "plan", "quote", "billing"}},
	{ContextDemo, []string{"demo", "trial", "show me", "walkthrough"}},
}

var messagePools = map[Context][]string{
	ContextPricing: {
		"I'm having trouble pulling up pricing details right now. Our sales team can share current plans and a custom quote.",
		"Pricing information is temporarily unavailable on my side. Leave your email and our team will send you the latest plans.",
	},
	ContextSupport: {
		"I'm sorry you're running into trouble, and I can't look into it properly at the moment. Let me connect you with our support team.",
		"I'm not able to troubleshoot this right now. Our support team can pick this up with you directly.",
	},
	ContextDemo: {
		"I can't set up a demo from here right now, but our team would be happy to schedule one with you.",
		"Demo booking is temporarily unavailable through me. Our team can arrange a walkthrough at a time that suits you.",
	},
}

var genericPool = []string{
	"I'm having a little trouble responding right now. Please try again in a moment or reach out to our team directly.",
	"Sorry, I can't give you a complete answer at the moment. Our team is available if you need help right away.",
	"I'm experiencing a temporary issue. You can try again shortly or contact us directly.",
}

var contextActions = map[Context]Action{
	ContextPricing: {Type: "contact_sales", Label: "Talk to our sales team about pricing"},
	ContextSupport: {Type: "contact_support", Label: "Open a ticket with our support team"},
	ContextDemo:    {Type: "schedule_demo", Label: "Schedule a demo with our team"},
}

var genericActions = []Action{
	{Type: "leave_email", Label: "Leave your email and we'll follow up"},
	{Type: "browse_help_center", Label: "Browse our help center"},
	{Type: "try_again", Label: "Try again in a few minutes"},
}

// Generator builds fallback responses. It is safe for concurrent use as
// long as the pick function is.
type Generator struct {
	failureThreshold int
	pick             func(n int) int
}

// Option configures a Generator.
type Option func(*Generator)

// WithFailureThreshold overrides the prior-failure escalation threshold.
func WithFailureThreshold(n int) Option {
	return func(g *Generator) {
		if n > 0 {
			g.failureThreshold = n
		}
	}
}

// WithPicker replaces the random pool selection, e.g. for deterministic
// tests.
func WithPicker(pick func(n int) int) Option {
	return func(g *Generator) {
		if pick != nil {
			g.pick = pick
		}
	}
}

// NewGenerator returns a generator with the default policy.
func NewGenerator(opts ...Option) *Generator {
	g := &Generator{
		failureThreshold: DefaultFailureThreshold,
		pick:             rand.IntN,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// DetectContext buckets message by keyword containment.
func DetectContext(message string) Context {
	lower := strings.ToLower(message)
	if strings.TrimSpace(lower) == "" {
		return ContextGeneral
	}
	for _, entry := range contextKeywords {
		for _, kw := range entry.keywords {
			if strings.Contains(lower, kw) {
				return entry.context
			}
		}
	}
	return ContextGeneral
}

// Generate selects a reply, decides on escalation, and lists alternatives.
func (g *Generator) Generate(req Request) Response {
	ctx := DetectContext(req.LastMessage)

	pool, ok := messagePools[ctx]
	if !ok || len(pool) == 0 {
		pool = genericPool
	}
	content := personalize(g.choose(pool), req.BotName)

	escalate := ctx == ContextSupport ||
		strings.EqualFold(req.Sentiment, SentimentNegative) ||
		req.FailureCount >= g.failureThreshold

	return Response{
		Content:            content,
		Context:            ctx,
		ShouldEscalate:     escalate,
		AlternativeActions: alternativeActions(ctx, escalate),
	}
}

func (g *Generator) choose(pool []string) string {
	idx := g.pick(len(pool))
	if idx < 0 || idx >= len(pool) {
		idx = 0
	}
	return pool[idx]
}

func personalize(content, botName string) string {
	name := strings.TrimSpace(botName)
	if name == "" || name == DefaultBotName {
		return content
	}
	return "This is " + name + ". " + content
}

func alternativeActions(ctx Context, escalate bool) []Action {
	actions := make([]Action, 0, len(genericActions)+2)
	if a, ok := contextActions[ctx]; ok {
		actions = append(actions, a)
	}
	if escalate && ctx != ContextSupport {
		actions = append(actions, Action{Type: "talk_to_human", Label: "Talk to a member of our team"})
	}
	return append(actions, genericActions...)
}
