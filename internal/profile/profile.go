// Package profile holds the per-tenant configuration every decision
// component reads. A Profile is validated on construction and never
// mutated afterwards; updates return a new Profile.
package profile

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/wolfman30/chatbot-decision-core/internal/validation"
)

// Entity extraction modes.
const (
	EntityModeStrict   = "strict"
	EntityModeBalanced = "balanced"
	EntityModeLenient  = "lenient"
)

// Prompt module groups used by the token budget distribution.
const (
	GroupCore        = "core"
	GroupContext     = "context"
	GroupEnhancement = "enhancement"
)

// JourneyThresholds are the inclusive lower lead-score bounds of each
// journey stage above "initial".
type JourneyThresholds struct {
	Engaged        float64 `yaml:"engaged" json:"engaged" validate:"gt=0,lte=100"`
	Interested     float64 `yaml:"interested" json:"interested" validate:"gtfield=Engaged,lte=100"`
	Qualified      float64 `yaml:"qualified" json:"qualified" validate:"gtfield=Interested,lte=100"`
	QualifiedReady float64 `yaml:"qualified_ready" json:"qualified_ready" validate:"gtfield=Qualified,lte=100"`
}

// ModuleBudget is the token allowance for one prompt module.
type ModuleBudget struct {
	Optimal int    `yaml:"optimal" json:"optimal" validate:"gte=1"`
	Max     int    `yaml:"max" json:"max" validate:"gtefield=Optimal"`
	Group   string `yaml:"group" json:"group" validate:"oneof=core context enhancement"`
}

// Props is the plain-object form of a Profile.
type Props struct {
	// Generative call settings.
	Model            string  `yaml:"model" json:"model" validate:"required"`
	Temperature      float64 `yaml:"temperature" json:"temperature" validate:"gte=0,lte=2"`
	MaxTokens        int     `yaml:"max_tokens" json:"max_tokens" validate:"gte=1,lte=4000"`
	TopP             float64 `yaml:"top_p" json:"top_p" validate:"gte=0,lte=1"`
	PresencePenalty  float64 `yaml:"presence_penalty" json:"presence_penalty" validate:"gte=-2,lte=2"`
	FrequencyPenalty float64 `yaml:"frequency_penalty" json:"frequency_penalty" validate:"gte=-2,lte=2"`

	// Context window budgets.
	ContextMaxTokens       int `yaml:"context_max_tokens" json:"context_max_tokens" validate:"gte=1000"`
	SystemPromptTokens     int `yaml:"system_prompt_tokens" json:"system_prompt_tokens" validate:"gte=50"`
	ResponseReservedTokens int `yaml:"response_reserved_tokens" json:"response_reserved_tokens" validate:"gte=100"`
	SummaryTokens          int `yaml:"summary_tokens" json:"summary_tokens" validate:"gte=0"`
	MaxHistoryMessages     int `yaml:"max_history_messages" json:"max_history_messages" validate:"gte=1"`

	// Intent detection.
	IntentConfidenceThreshold float64 `yaml:"intent_confidence_threshold" json:"intent_confidence_threshold" validate:"gte=0,lte=1"`
	AmbiguityThreshold        float64 `yaml:"ambiguity_threshold" json:"ambiguity_threshold" validate:"gte=0,lte=1"`
	MultiIntentDetection      bool    `yaml:"multi_intent_detection" json:"multi_intent_detection"`

	// Entity extraction.
	EntityExtractionMode  string `yaml:"entity_extraction_mode" json:"entity_extraction_mode" validate:"oneof=strict balanced lenient"`
	CustomEntitiesEnabled bool   `yaml:"custom_entities_enabled" json:"custom_entities_enabled"`

	// Conversation flow.
	MaxConversationTurns     int  `yaml:"max_conversation_turns" json:"max_conversation_turns" validate:"gte=1"`
	InactivityTimeoutSeconds int  `yaml:"inactivity_timeout_seconds" json:"inactivity_timeout_seconds" validate:"gte=30"`
	TopicSwitchingEnabled    bool `yaml:"topic_switching_enabled" json:"topic_switching_enabled"`
	ClarificationAttempts    int  `yaml:"clarification_attempts" json:"clarification_attempts" validate:"gte=0,lte=5"`

	// Lead scoring weights.
	EngagementWeight    float64 `yaml:"engagement_weight" json:"engagement_weight" validate:"gte=0,lte=1"`
	IntentWeight        float64 `yaml:"intent_weight" json:"intent_weight" validate:"gte=0,lte=1"`
	QualificationWeight float64 `yaml:"qualification_weight" json:"qualification_weight" validate:"gte=0,lte=1"`
	TimingWeight        float64 `yaml:"timing_weight" json:"timing_weight" validate:"gte=0,lte=1"`

	// Performance.
	ResponseTimeThresholdMs int  `yaml:"response_time_threshold_ms" json:"response_time_threshold_ms" validate:"gte=100"`
	CachingEnabled          bool `yaml:"caching_enabled" json:"caching_enabled"`
	CacheTTLSeconds         int  `yaml:"cache_ttl_seconds" json:"cache_ttl_seconds" validate:"gte=0"`

	Journey JourneyThresholds `yaml:"journey_thresholds" json:"journey_thresholds"`

	// Prompt token budgets.
	PromptOptimalTokens int                     `yaml:"prompt_optimal_tokens" json:"prompt_optimal_tokens" validate:"gte=1"`
	PromptMaxTokens     int                     `yaml:"prompt_max_tokens" json:"prompt_max_tokens" validate:"gtefield=PromptOptimalTokens"`
	ModuleBudgets       map[string]ModuleBudget `yaml:"module_budgets" json:"module_budgets" validate:"required,min=1,dive,keys,required,endkeys"`

	// Knowledge ingestion.
	ChunkSize        int     `yaml:"chunk_size" json:"chunk_size" validate:"gte=100"`
	ChunkOverlap     int     `yaml:"chunk_overlap" json:"chunk_overlap" validate:"gte=0,ltfield=ChunkSize"`
	QualityThreshold float64 `yaml:"quality_threshold" json:"quality_threshold" validate:"gte=0,lte=1"`
}

// Profile is an immutable, validated configuration bundle. It is safe to
// share across goroutines.
type Profile struct {
	props Props
}

var validate = validation.New()

// Create validates props and returns a Profile. On failure it returns a
// *ConfigurationInvalidError describing the first violated constraint.
func Create(props Props) (*Profile, error) {
	if err := validate.Struct(props); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			fe := verrs[0]
			return nil, &ConfigurationInvalidError{
				Field:      validation.FieldPath(fe),
				Constraint: validation.Describe(fe),
			}
		}
		return nil, fmt.Errorf("profile: validate: %w", err)
	}
	return &Profile{props: props.clone()}, nil
}

// CreateDefault returns the baseline profile.
func CreateDefault() *Profile {
	p, err := Create(DefaultProps())
	if err != nil {
		panic("profile: default props invalid: " + err.Error())
	}
	return p
}

// DefaultProps returns the baseline parameter set.
func DefaultProps() Props {
	return Props{
		Model:            "gpt-4o-mini",
		Temperature:      0.7,
		MaxTokens:        500,
		TopP:             1,
		PresencePenalty:  0,
		FrequencyPenalty: 0,

		ContextMaxTokens:       8000,
		SystemPromptTokens:     800,
		ResponseReservedTokens: 1000,
		SummaryTokens:          500,
		MaxHistoryMessages:     20,

		IntentConfidenceThreshold: 0.7,
		AmbiguityThreshold:        0.3,

		EntityExtractionMode: EntityModeBalanced,

		MaxConversationTurns:     50,
		InactivityTimeoutSeconds: 1800,
		TopicSwitchingEnabled:    true,
		ClarificationAttempts:    2,

		EngagementWeight:    0.3,
		IntentWeight:        0.3,
		QualificationWeight: 0.25,
		TimingWeight:        0.15,

		ResponseTimeThresholdMs: 3000,
		CachingEnabled:          true,
		CacheTTLSeconds:         300,

		Journey: JourneyThresholds{
			Engaged:        20,
			Interested:     40,
			Qualified:      55,
			QualifiedReady: 80,
		},

		PromptOptimalTokens: 3000,
		PromptMaxTokens:     5000,
		ModuleBudgets: map[string]ModuleBudget{
			"system_instructions":  {Optimal: 400, Max: 800, Group: GroupCore},
			"persona":              {Optimal: 150, Max: 300, Group: GroupCore},
			"conversation_history": {Optimal: 1000, Max: 2000, Group: GroupCore},
			"knowledge_base":       {Optimal: 800, Max: 1500, Group: GroupContext},
			"conversation_summary": {Optimal: 300, Max: 600, Group: GroupContext},
			"user_profile":         {Optimal: 150, Max: 300, Group: GroupContext},
			"intent_guidance":      {Optimal: 100, Max: 200, Group: GroupEnhancement},
			"journey_guidance":     {Optimal: 100, Max: 200, Group: GroupEnhancement},
			"examples":             {Optimal: 200, Max: 400, Group: GroupEnhancement},
		},

		ChunkSize:        1000,
		ChunkOverlap:     200,
		QualityThreshold: 0.7,
	}
}

// Props returns a deep copy of the profile parameters.
func (p *Profile) Props() Props {
	return p.props.clone()
}

// Update applies fn to a copy of the parameters and validates the result.
// The receiver is left untouched.
func (p *Profile) Update(fn func(*Props)) (*Profile, error) {
	next := p.props.clone()
	fn(&next)
	return Create(next)
}

// WithTemperature returns a copy with a new sampling temperature.
func (p *Profile) WithTemperature(t float64) (*Profile, error) {
	return p.Update(func(props *Props) { props.Temperature = t })
}

// WithContextWindow returns a copy with new context budgets.
func (p *Profile) WithContextWindow(maxTokens, systemPrompt, responseReserved, summary int) (*Profile, error) {
	return p.Update(func(props *Props) {
		props.ContextMaxTokens = maxTokens
		props.SystemPromptTokens = systemPrompt
		props.ResponseReservedTokens = responseReserved
		props.SummaryTokens = summary
	})
}

// WithIntentThresholds returns a copy with new intent thresholds.
func (p *Profile) WithIntentThresholds(confidence, ambiguity float64) (*Profile, error) {
	return p.Update(func(props *Props) {
		props.IntentConfidenceThreshold = confidence
		props.AmbiguityThreshold = ambiguity
	})
}

// WithLeadScoringWeights returns a copy with new lead scoring weights.
func (p *Profile) WithLeadScoringWeights(engagement, intent, qualification, timing float64) (*Profile, error) {
	return p.Update(func(props *Props) {
		props.EngagementWeight = engagement
		props.IntentWeight = intent
		props.QualificationWeight = qualification
		props.TimingWeight = timing
	})
}

// WithJourneyThresholds returns a copy with new journey cut points.
func (p *Profile) WithJourneyThresholds(t JourneyThresholds) (*Profile, error) {
	return p.Update(func(props *Props) { props.Journey = t })
}

// AvailableContextTokens is the room left for dynamic context once the
// fixed allocations are subtracted. It can be negative; see Usable.
func (p *Profile) AvailableContextTokens() int {
	return p.props.ContextMaxTokens - p.props.SystemPromptTokens - p.props.ResponseReservedTokens - p.props.SummaryTokens
}

// Usable reports whether the context window leaves non-negative room.
func (p *Profile) Usable() bool {
	return p.AvailableContextTokens() >= 0
}

// Model returns the generative model identifier.
func (p *Profile) Model() string { return p.props.Model }

// Journey returns the journey stage cut points.
func (p *Profile) Journey() JourneyThresholds { return p.props.Journey }

// PromptBudget returns the whole-prompt optimal and max token counts.
func (p *Profile) PromptBudget() (optimal, max int) {
	return p.props.PromptOptimalTokens, p.props.PromptMaxTokens
}

// ChunkSettings returns the chunk size and overlap in characters.
func (p *Profile) ChunkSettings() (size, overlap int) {
	return p.props.ChunkSize, p.props.ChunkOverlap
}

func (p *Profile) QualityThreshold() float64 { return p.props.QualityThreshold }

func (p *Profile) IntentConfidenceThreshold() float64 { return p.props.IntentConfidenceThreshold }

// ModuleBudget returns the budget configured for a prompt module.
func (p *Profile) ModuleBudget(name string) (ModuleBudget, bool) {
	b, ok := p.props.ModuleBudgets[name]
	return b, ok
}

// ModuleBudgets returns a copy of all module budgets.
func (p *Profile) ModuleBudgets() map[string]ModuleBudget {
	return p.props.clone().ModuleBudgets
}

func (p Props) clone() Props {
	out := p
	if p.ModuleBudgets != nil {
		out.ModuleBudgets = make(map[string]ModuleBudget, len(p.ModuleBudgets))
		for k, v := range p.ModuleBudgets {
			out.ModuleBudgets[k] = v
		}
	}
	return out
}
