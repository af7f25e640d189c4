// Package escalation decides whether a conversation should be handed to a
// human operator.
package escalation

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/wolfman30/chatbot-decision-core/internal/validation"
)

// TriggerType identifies what a trigger inspects.
type TriggerType string

const (
	TriggerKeyword     TriggerType = "keyword"
	TriggerSentiment   TriggerType = "sentiment"
	TriggerComplexity  TriggerType = "complexity"
	TriggerFrustration TriggerType = "frustration"
	TriggerRequest     TriggerType = "request"
)

// Trigger is one escalation rule. Keyword and request triggers carry a
// comma-separated term list in Value; the others compare a session signal
// against Threshold.
type Trigger struct {
	Type        TriggerType `yaml:"type" json:"type" validate:"oneof=keyword sentiment complexity frustration request"`
	Value       string      `yaml:"value,omitempty" json:"value,omitempty"`
	Threshold   *float64    `yaml:"threshold,omitempty" json:"threshold,omitempty" validate:"omitempty,gte=0,lte=100"`
	Description string      `yaml:"description,omitempty" json:"description,omitempty"`
}

// Signals are session scores computed upstream, each on a 0-100 scale.
// A nil signal means it is unknown this round.
type Signals struct {
	SentimentScore   *float64 `json:"sentiment_score,omitempty"`
	ComplexityScore  *float64 `json:"complexity_score,omitempty"`
	FrustrationScore *float64 `json:"frustration_score,omitempty"`
}

// Result is the escalation verdict.
type Result struct {
	ShouldEscalate bool     `json:"should_escalate"`
	Trigger        *Trigger `json:"trigger,omitempty"`
	Reason         string   `json:"reason,omitempty"`
}

// Float returns a pointer to v, for building Signals and thresholds.
func Float(v float64) *float64 { return &v }

// DefaultTriggers is used when a tenant has not customized its list.
func DefaultTriggers() []Trigger {
	return []Trigger{
		{
			Type:        TriggerRequest,
			Value:       "speak to a human,talk to a human,real person,human agent,live agent,speak to someone,talk to someone,representative,operator",
			Description: "Visitor asked for a human",
		},
		{
			Type:        TriggerFrustration,
			Threshold:   Float(70),
			Description: "Visitor frustration is high",
		},
		{
			Type:        TriggerComplexity,
			Threshold:   Float(80),
			Description: "Conversation is too complex for automation",
		},
	}
}

// Evaluator walks a trigger list in order; the first trigger that fires
// decides the result.
type Evaluator struct {
	triggers []Trigger
}

var validate = validation.New()

// NewEvaluator validates triggers and returns an evaluator over a copy of
// them. An empty list selects DefaultTriggers.
func NewEvaluator(triggers []Trigger) (*Evaluator, error) {
	if len(triggers) == 0 {
		triggers = DefaultTriggers()
	}
	list := make([]Trigger, len(triggers))
	for i, t := range triggers {
		if err := validateTrigger(t); err != nil {
			return nil, fmt.Errorf("escalation: trigger %d: %w", i, err)
		}
		list[i] = t
		if t.Threshold != nil {
			list[i].Threshold = Float(*t.Threshold)
		}
	}
	return &Evaluator{triggers: list}, nil
}

func validateTrigger(t Trigger) error {
	if err := validate.Struct(t); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return fmt.Errorf("%s %s", validation.FieldPath(verrs[0]), validation.Describe(verrs[0]))
		}
		return err
	}
	switch t.Type {
	case TriggerKeyword, TriggerRequest:
		if len(terms(t.Value)) == 0 {
			return errors.New("value requires at least one term")
		}
	default:
		if t.Threshold == nil {
			return errors.New("threshold is required")
		}
	}
	return nil
}

// Triggers returns a copy of the evaluator's trigger list.
func (e *Evaluator) Triggers() []Trigger {
	out := make([]Trigger, len(e.triggers))
	copy(out, e.triggers)
	return out
}

// Evaluate checks message and signals against every trigger in order.
func (e *Evaluator) Evaluate(message string, signals Signals) Result {
	lower := strings.ToLower(message)

	for i := range e.triggers {
		t := e.triggers[i]
		switch t.Type {
		case TriggerKeyword, TriggerRequest:
			for _, term := range terms(t.Value) {
				if strings.Contains(lower, term) {
					return fired(t, keywordReason(t.Type, term))
				}
			}
		case TriggerSentiment:
			if signals.SentimentScore != nil && *signals.SentimentScore <= *t.Threshold {
				return fired(t, fmt.Sprintf("sentiment score %.0f is at or below %.0f", *signals.SentimentScore, *t.Threshold))
			}
		case TriggerComplexity:
			if signals.ComplexityScore != nil && *signals.ComplexityScore >= *t.Threshold {
				return fired(t, fmt.Sprintf("complexity score %.0f reached %.0f", *signals.ComplexityScore, *t.Threshold))
			}
		case TriggerFrustration:
			if signals.FrustrationScore != nil && *signals.FrustrationScore >= *t.Threshold {
				return fired(t, fmt.Sprintf("frustration score %.0f reached %.0f", *signals.FrustrationScore, *t.Threshold))
			}
		}
	}
	return Result{}
}

func fired(t Trigger, reason string) Result {
	return Result{ShouldEscalate: true, Trigger: &t, Reason: reason}
}

func keywordReason(tt TriggerType, term string) string {
	if tt == TriggerRequest {
		return fmt.Sprintf("visitor requested a human: %q", term)
	}
	return fmt.Sprintf("escalation keyword detected: %q", term)
}

func terms(value string) []string {
	parts := strings.Split(value, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.ToLower(strings.TrimSpace(p)); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// LoadTriggers decodes a YAML list of triggers, e.g. a tenant override.
func LoadTriggers(r io.Reader) ([]Trigger, error) {
	var triggers []Trigger
	if err := yaml.NewDecoder(r).Decode(&triggers); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("escalation: decode triggers: %w", err)
	}
	return triggers, nil
}
