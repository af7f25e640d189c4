// Package decision composes the decision components into the three live
// flows: evaluating an inbound message, answering when the generative
// provider fails, and analyzing an assembled prompt.
package decision

import (
	"context"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"github.com/wolfman30/chatbot-decision-core/internal/escalation"
	"github.com/wolfman30/chatbot-decision-core/internal/fallback"
	"github.com/wolfman30/chatbot-decision-core/internal/intent"
	"github.com/wolfman30/chatbot-decision-core/internal/journey"
	"github.com/wolfman30/chatbot-decision-core/internal/observability/metrics"
	"github.com/wolfman30/chatbot-decision-core/internal/profile"
	"github.com/wolfman30/chatbot-decision-core/internal/session"
	"github.com/wolfman30/chatbot-decision-core/internal/tokenbudget"
	"github.com/wolfman30/chatbot-decision-core/pkg/logging"
)

var tracer = otel.Tracer("chatcore/decision")

// ErrEmptyMessage is returned when an inbound message has no content.
var ErrEmptyMessage = errors.New("decision: message is empty")

// FailureRecorder is implemented by session stores that count provider
// failures.
type FailureRecorder interface {
	RecordFailure(ctx context.Context, sessionID string) (int, error)
}

// Engine is safe for concurrent use; all of its components are immutable.
type Engine struct {
	profile   *profile.Profile
	detector  *intent.Detector
	evaluator *escalation.Evaluator
	mapper    *journey.Mapper
	generator *fallback.Generator
	analyzer  *tokenbudget.Analyzer
	sessions  session.Reader
	failures  FailureRecorder
	metrics   *metrics.DecisionMetrics
	logger    *logging.Logger
}

// Option configures an Engine.
type Option func(*Engine)

func WithSessions(r session.Reader) Option {
	return func(e *Engine) { e.sessions = r }
}

// WithFailureRecorder counts provider failures per session. When unset,
// the session reader is used if it can record failures.
func WithFailureRecorder(r FailureRecorder) Option {
	return func(e *Engine) { e.failures = r }
}

func WithMetrics(m *metrics.DecisionMetrics) Option {
	return func(e *Engine) { e.metrics = m }
}

func WithLogger(l *logging.Logger) Option {
	return func(e *Engine) { e.logger = l }
}

func WithEvaluator(ev *escalation.Evaluator) Option {
	return func(e *Engine) { e.evaluator = ev }
}

func WithGenerator(g *fallback.Generator) Option {
	return func(e *Engine) { e.generator = g }
}

func WithDetector(d *intent.Detector) Option {
	return func(e *Engine) { e.detector = d }
}

// NewEngine builds an engine from a validated profile. Components not set
// through options use their defaults.
func NewEngine(p *profile.Profile, opts ...Option) (*Engine, error) {
	if p == nil {
		return nil, errors.New("decision: profile is required")
	}
	e := &Engine{
		profile:   p,
		mapper:    journey.NewMapperFromProfile(p),
		analyzer:  tokenbudget.NewAnalyzer(p),
		detector:  intent.NewDetector(),
		generator: fallback.NewGenerator(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.evaluator == nil {
		ev, err := escalation.NewEvaluator(nil)
		if err != nil {
			return nil, err
		}
		e.evaluator = ev
	}
	if e.failures == nil {
		if recorder, ok := e.sessions.(FailureRecorder); ok {
			e.failures = recorder
		}
	}
	if e.logger == nil {
		e.logger = logging.Default()
	}
	return e, nil
}

// Profile returns the engine's configuration.
func (e *Engine) Profile() *profile.Profile {
	return e.profile
}

// MessageInput is an inbound visitor message. Explicit LeadScore and
// Signals take precedence over stored session values.
type MessageInput struct {
	SessionID string              `json:"session_id,omitempty"`
	Message   string              `json:"message"`
	LeadScore *float64            `json:"lead_score,omitempty"`
	Signals   *escalation.Signals `json:"signals,omitempty"`
}

// MessageDecision is the combined verdict for an inbound message.
type MessageDecision struct {
	Intent        intent.Result     `json:"intent"`
	LowConfidence bool              `json:"low_confidence"`
	Escalation    escalation.Result `json:"escalation"`
	LeadCapture   bool              `json:"lead_capture"`
	Journey       *journey.State    `json:"journey,omitempty"`
}

// Evaluate runs intent detection and escalation evaluation in parallel and
// maps the lead score onto the journey.
func (e *Engine) Evaluate(ctx context.Context, in MessageInput) (MessageDecision, error) {
	ctx, span := tracer.Start(ctx, "decision.evaluate")
	defer span.End()
	start := time.Now()

	if strings.TrimSpace(in.Message) == "" {
		return MessageDecision{}, ErrEmptyMessage
	}

	snap := e.snapshot(ctx, in.SessionID)
	signals := snap.Signals()
	if in.Signals != nil {
		signals = *in.Signals
	}
	leadScore := snap.LeadScore
	if in.LeadScore != nil {
		leadScore = in.LeadScore
	}

	var (
		decision MessageDecision
		g        errgroup.Group
	)
	g.Go(func() error {
		decision.Intent = e.detector.Detect(in.Message)
		return nil
	})
	g.Go(func() error {
		decision.Escalation = e.evaluator.Evaluate(in.Message, signals)
		return nil
	})
	if err := g.Wait(); err != nil {
		span.RecordError(err)
		return MessageDecision{}, err
	}

	decision.LowConfidence = decision.Intent.Confidence < e.profile.IntentConfidenceThreshold()
	decision.LeadCapture = intent.ShouldTriggerLeadCapture(in.Message)
	decision.Journey = e.mapper.MapOptional(leadScore)

	span.SetAttributes(
		attribute.String("decision.intent", decision.Intent.Intent),
		attribute.Float64("decision.confidence", decision.Intent.Confidence),
		attribute.Bool("decision.escalate", decision.Escalation.ShouldEscalate),
	)
	e.metrics.ObserveIntent(decision.Intent.Intent, string(decision.Intent.Category))
	if decision.Escalation.ShouldEscalate {
		e.metrics.ObserveEscalation(string(decision.Escalation.Trigger.Type))
		e.logger.Info("escalation triggered",
			"session_id", in.SessionID,
			"trigger", decision.Escalation.Trigger.Type,
			"reason", decision.Escalation.Reason,
		)
	}
	e.metrics.ObserveFlowLatency("evaluate", time.Since(start).Seconds())
	return decision, nil
}

// FailureInput describes a failed generative call. Cause is used when Err
// is nil, which is the case for requests arriving over the wire.
type FailureInput struct {
	SessionID    string               `json:"session_id,omitempty"`
	LastMessage  string               `json:"last_message,omitempty"`
	Sentiment    string               `json:"sentiment,omitempty"`
	BotName      string               `json:"bot_name,omitempty"`
	FailureCount *int                 `json:"failure_count,omitempty"`
	Cause        fallback.FailureCause `json:"cause,omitempty"`
	Signals      *escalation.Signals  `json:"signals,omitempty"`
	Err          error                `json:"-"`
}

// FallbackDecision is the response served in place of a generated answer.
type FallbackDecision struct {
	Response        fallback.Response     `json:"response"`
	Cause           fallback.FailureCause `json:"cause"`
	RecoveryActions []fallback.Action     `json:"recovery_actions"`
	Escalation      escalation.Result     `json:"escalation"`
	Escalate        bool                  `json:"escalate"`
}

// Fallback builds the reply for a failed generative call. The escalation
// verdict for the last message is consulted alongside the generator's own
// escalation rule.
func (e *Engine) Fallback(ctx context.Context, in FailureInput) FallbackDecision {
	ctx, span := tracer.Start(ctx, "decision.fallback")
	defer span.End()
	start := time.Now()

	snap := e.snapshot(ctx, in.SessionID)
	failures := snap.FailureCount
	if in.FailureCount != nil {
		failures = *in.FailureCount
	}
	sentiment := snap.SentimentLabel
	if in.Sentiment != "" {
		sentiment = in.Sentiment
	}
	signals := snap.Signals()
	if in.Signals != nil {
		signals = *in.Signals
	}

	cause := in.Cause
	if in.Err != nil || cause == "" {
		cause = fallback.ClassifyFailure(in.Err)
	}
	if !cause.Known() {
		cause = fallback.CauseUnknown
	}

	resp := e.generator.Generate(fallback.Request{
		LastMessage:  in.LastMessage,
		Sentiment:    sentiment,
		FailureCount: failures,
		BotName:      in.BotName,
	})
	verdict := e.evaluator.Evaluate(in.LastMessage, signals)

	out := FallbackDecision{
		Response:        resp,
		Cause:           cause,
		RecoveryActions: fallback.RecoveryActions(cause),
		Escalation:      verdict,
		Escalate:        resp.ShouldEscalate || verdict.ShouldEscalate,
	}
	e.recordFailure(ctx, in.SessionID)

	span.SetAttributes(
		attribute.String("decision.fallback_context", string(resp.Context)),
		attribute.String("decision.failure_cause", string(cause)),
		attribute.Bool("decision.escalate", out.Escalate),
	)
	e.metrics.ObserveFallback(string(resp.Context), string(cause), out.Escalate)
	e.metrics.ObserveFlowLatency("fallback", time.Since(start).Seconds())
	e.logger.Warn("serving fallback response",
		"session_id", in.SessionID,
		"cause", cause,
		"context", resp.Context,
		"prior_failures", failures,
		"escalate", out.Escalate,
	)
	return out
}

// AnalyzePrompt reports token efficiency for an assembled prompt.
func (e *Engine) AnalyzePrompt(ctx context.Context, usage tokenbudget.Usage) tokenbudget.Analysis {
	_, span := tracer.Start(ctx, "decision.analyze_prompt")
	defer span.End()

	analysis := e.analyzer.Analyze(usage)
	span.SetAttributes(
		attribute.Int("prompt.total_tokens", analysis.TotalTokens),
		attribute.Float64("prompt.efficiency", analysis.Efficiency),
	)
	e.metrics.ObservePromptEfficiency(analysis.Efficiency)
	if analysis.ExceedsAvailableContext {
		e.logger.Warn("prompt exceeds available context",
			"total_tokens", analysis.TotalTokens,
			"available_tokens", analysis.AvailableContextTokens,
		)
	}
	return analysis
}

// snapshot loads session state best-effort; a missing or failing store
// yields an empty snapshot.
func (e *Engine) snapshot(ctx context.Context, sessionID string) session.Snapshot {
	if e.sessions == nil || sessionID == "" {
		return session.Snapshot{}
	}
	snap, err := e.sessions.Snapshot(ctx, sessionID)
	if err != nil {
		e.logger.Warn("session snapshot unavailable", "session_id", sessionID, "error", err)
		return session.Snapshot{}
	}
	return snap
}

func (e *Engine) recordFailure(ctx context.Context, sessionID string) {
	if e.failures == nil || sessionID == "" {
		return
	}
	if _, err := e.failures.RecordFailure(ctx, sessionID); err != nil {
		e.logger.Warn("failed to record provider failure", "session_id", sessionID, "error", err)
	}
}
