package escalation

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEvaluator_DefaultTriggers(t *testing.T) {
	e, err := NewEvaluator(nil)
	require.NoError(t, err)

	tests := []struct {
		name     string
		message  string
		signals  Signals
		want     bool
		wantType TriggerType
	}{
		{
			name:     "asks for a human",
			message:  "Can I TALK TO A HUMAN please",
			want:     true,
			wantType: TriggerRequest,
		},
		{
			name:     "frustration over threshold",
			message:  "this still does not work",
			signals:  Signals{FrustrationScore: Float(75)},
			want:     true,
			wantType: TriggerFrustration,
		},
		{
			name:     "complexity at threshold",
			message:  "a long multi-part question",
			signals:  Signals{ComplexityScore: Float(80)},
			want:     true,
			wantType: TriggerComplexity,
		},
		{
			name:    "signals below thresholds",
			message: "thanks",
			signals: Signals{FrustrationScore: Float(69), ComplexityScore: Float(79.9)},
			want:    false,
		},
		{
			name:    "no signals at all",
			message: "hello",
			want:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := e.Evaluate(tt.message, tt.signals)
			assert.Equal(t, tt.want, got.ShouldEscalate)
			if !tt.want {
				assert.Nil(t, got.Trigger)
				assert.Empty(t, got.Reason)
				return
			}
			require.NotNil(t, got.Trigger)
			assert.Equal(t, tt.wantType, got.Trigger.Type)
			assert.NotEmpty(t, got.Reason)
		})
	}
}

func TestEvaluator_FrustrationScenario(t *testing.T) {
	e, err := NewEvaluator([]Trigger{{Type: TriggerFrustration, Threshold: Float(70)}})
	require.NoError(t, err)

	got := e.Evaluate("ugh", Signals{FrustrationScore: Float(75)})
	assert.True(t, got.ShouldEscalate)
	assert.Contains(t, got.Reason, "frustration score 75")
}

func TestEvaluator_SentimentFiresAtOrBelowThreshold(t *testing.T) {
	e, err := NewEvaluator([]Trigger{{Type: TriggerSentiment, Threshold: Float(30)}})
	require.NoError(t, err)

	assert.True(t, e.Evaluate("", Signals{SentimentScore: Float(30)}).ShouldEscalate)
	assert.True(t, e.Evaluate("", Signals{SentimentScore: Float(10)}).ShouldEscalate)
	assert.False(t, e.Evaluate("", Signals{SentimentScore: Float(31)}).ShouldEscalate)
	assert.False(t, e.Evaluate("", Signals{}).ShouldEscalate)
}

func TestEvaluator_FirstMatchWins(t *testing.T) {
	keyword := Trigger{Type: TriggerKeyword, Value: "cancel, refund", Description: "billing"}
	frustration := Trigger{Type: TriggerFrustration, Threshold: Float(50)}

	e, err := NewEvaluator([]Trigger{keyword, frustration})
	require.NoError(t, err)

	// first does not fire, second does
	got := e.Evaluate("the page is slow", Signals{FrustrationScore: Float(90)})
	require.True(t, got.ShouldEscalate)
	assert.Equal(t, TriggerFrustration, got.Trigger.Type)

	// both fire: the first one is reported
	got = e.Evaluate("I want a REFUND", Signals{FrustrationScore: Float(90)})
	require.True(t, got.ShouldEscalate)
	assert.Equal(t, TriggerKeyword, got.Trigger.Type)
	assert.Contains(t, got.Reason, `"refund"`)
}

func TestNewEvaluator_Validation(t *testing.T) {
	tests := []struct {
		name    string
		trigger Trigger
	}{
		{"unknown type", Trigger{Type: "mood", Threshold: Float(10)}},
		{"threshold above range", Trigger{Type: TriggerComplexity, Threshold: Float(101)}},
		{"threshold missing", Trigger{Type: TriggerSentiment}},
		{"empty keyword list", Trigger{Type: TriggerKeyword, Value: " , ,"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewEvaluator([]Trigger{tt.trigger})
			require.Error(t, err)
		})
	}
}

func TestEvaluator_CopiesTriggers(t *testing.T) {
	threshold := Float(70)
	input := []Trigger{{Type: TriggerFrustration, Threshold: threshold}}
	e, err := NewEvaluator(input)
	require.NoError(t, err)

	*threshold = 10
	input[0].Type = TriggerComplexity

	assert.False(t, e.Evaluate("", Signals{FrustrationScore: Float(50)}).ShouldEscalate)
	assert.Equal(t, TriggerFrustration, e.Triggers()[0].Type)
}

func TestLoadTriggers(t *testing.T) {
	doc := `
- type: keyword
  value: lawyer, lawsuit
  description: legal threat
- type: sentiment
  threshold: 20
`
	triggers, err := LoadTriggers(strings.NewReader(doc))
	require.NoError(t, err)
	require.Len(t, triggers, 2)
	assert.Equal(t, TriggerKeyword, triggers[0].Type)
	require.NotNil(t, triggers[1].Threshold)
	assert.Equal(t, 20.0, *triggers[1].Threshold)

	e, err := NewEvaluator(triggers)
	require.NoError(t, err)
	assert.True(t, e.Evaluate("I will call my lawyer", Signals{}).ShouldEscalate)
}
