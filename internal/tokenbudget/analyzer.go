package tokenbudget

import (
	"math"
	"sort"

	"github.com/wolfman30/chatbot-decision-core/internal/profile"
)

// WasteThreshold is the module efficiency below which tokens are reported
// as waste.
const WasteThreshold = 0.7

// Ideal share of prompt tokens per module group.
var idealRatios = map[string]float64{
	profile.GroupCore:        0.50,
	profile.GroupContext:     0.35,
	profile.GroupEnhancement: 0.15,
}

// ModuleUsage is the token cost of one module injected into a prompt.
type ModuleUsage struct {
	Name   string `json:"name"`
	Tokens int    `json:"tokens"`
}

// Usage describes one assembled prompt and its completion.
type Usage struct {
	Modules          []ModuleUsage `json:"modules"`
	PromptTokens     int           `json:"prompt_tokens"`
	CompletionTokens int           `json:"completion_tokens"`
}

// ModuleAnalysis is the per-module breakdown.
type ModuleAnalysis struct {
	Name       string  `json:"name"`
	Group      string  `json:"group"`
	Tokens     int     `json:"tokens"`
	Optimal    int     `json:"optimal"`
	Max        int     `json:"max"`
	Efficiency float64 `json:"efficiency"`
	Share      float64 `json:"share"`
	Budgeted   bool    `json:"budgeted"`
}

// Distribution compares group shares against the ideal split.
type Distribution struct {
	Core         float64 `json:"core"`
	Context      float64 `json:"context"`
	Enhancement  float64 `json:"enhancement"`
	BalanceScore float64 `json:"balance_score"`
}

// Waste is a module whose efficiency fell below WasteThreshold.
type Waste struct {
	Module         string  `json:"module"`
	Tokens         int     `json:"tokens"`
	WastedTokens   int     `json:"wasted_tokens"`
	Efficiency     float64 `json:"efficiency"`
	Recommendation string  `json:"recommendation"`
}

// CompressionAction is a concrete proposal to shrink the prompt.
type CompressionAction struct {
	Module           string `json:"module"`
	Strategy         string `json:"strategy"`
	TargetTokens     int    `json:"target_tokens"`
	EstimatedSavings int    `json:"estimated_savings"`
}

// Analysis is the full token report for a prompt.
type Analysis struct {
	TotalTokens             int                 `json:"total_tokens"`
	PromptTokens            int                 `json:"prompt_tokens"`
	CompletionTokens        int                 `json:"completion_tokens"`
	OptimalTokens           int                 `json:"optimal_tokens"`
	MaxTokens               int                 `json:"max_tokens"`
	Efficiency              float64             `json:"efficiency"`
	ContextTokens           int                 `json:"context_tokens"`
	AvailableContextTokens  int                 `json:"available_context_tokens"`
	ExceedsAvailableContext bool                `json:"exceeds_available_context"`
	Modules                 []ModuleAnalysis    `json:"modules"`
	Distribution            Distribution        `json:"distribution"`
	Waste                   []Waste             `json:"waste"`
	CompressionActions      []CompressionAction `json:"compression_actions"`
}

// remedy holds the module-specific advice for wasteful modules.
type remedy struct {
	strategy       string
	recommendation string
}

var remedies = map[string]remedy{
	"system_instructions":  {"deduplicate_instructions", "Remove repeated or overlapping system instructions and keep only rules the bot actually applies."},
	"persona":              {"condense_persona", "Condense the persona to a few defining traits and drop illustrative prose."},
	"conversation_history": {"truncate_history", "Keep only the most recent turns and fold older ones into the conversation summary."},
	"knowledge_base":       {"rerank_and_trim", "Inject fewer knowledge chunks by raising the relevance cutoff or lowering top-k."},
	"conversation_summary": {"resummarize", "Regenerate the summary with a tighter length limit."},
	"user_profile":         {"drop_stale_fields", "Include only profile fields relevant to the current intent."},
	"intent_guidance":      {"narrow_to_detected_intent", "Send guidance for the detected intent only instead of the full intent catalogue."},
	"journey_guidance":     {"narrow_to_current_stage", "Send guidance for the current and next journey stage only."},
	"examples":             {"reduce_examples", "Cut few-shot examples to the one or two closest to the current message."},
}

var defaultRemedy = remedy{"trim", "Trim this module towards its optimal token allowance."}

// Analyzer scores prompts against a profile's budgets. It is immutable
// and safe for concurrent use.
type Analyzer struct {
	promptOptimal    int
	promptMax        int
	availableContext int
	budgets          map[string]profile.ModuleBudget
	fallbackBudget   profile.ModuleBudget
	promptCurve      Curve
	moduleCurve      Curve
}

// NewAnalyzer reads budgets from p.
func NewAnalyzer(p *profile.Profile) *Analyzer {
	optimal, max := p.PromptBudget()
	return &Analyzer{
		promptOptimal:    optimal,
		promptMax:        max,
		availableContext: p.AvailableContextTokens(),
		budgets:          p.ModuleBudgets(),
		fallbackBudget:   profile.ModuleBudget{Optimal: 200, Max: 400, Group: profile.GroupEnhancement},
		promptCurve:      PromptCurve,
		moduleCurve:      ModuleCurve,
	}
}

// ModuleEfficiency scores a module against its configured budget.
func (a *Analyzer) ModuleEfficiency(name string, tokens int) float64 {
	b, _ := a.budgetFor(name)
	return a.moduleCurve.Efficiency(tokens, b.Optimal, b.Max)
}

// Analyze produces the token report for usage.
func (a *Analyzer) Analyze(usage Usage) Analysis {
	total := 0
	for _, m := range usage.Modules {
		total += max(m.Tokens, 0)
	}

	out := Analysis{
		TotalTokens:            total,
		PromptTokens:           usage.PromptTokens,
		CompletionTokens:       usage.CompletionTokens,
		OptimalTokens:          a.promptOptimal,
		MaxTokens:              a.promptMax,
		Efficiency:             a.promptCurve.Efficiency(total, a.promptOptimal, a.promptMax),
		AvailableContextTokens: a.availableContext,
		Modules:                make([]ModuleAnalysis, 0, len(usage.Modules)),
		Waste:                  []Waste{},
		CompressionActions:     []CompressionAction{},
	}

	groupTokens := map[string]int{}
	for _, m := range usage.Modules {
		tokens := max(m.Tokens, 0)
		b, budgeted := a.budgetFor(m.Name)
		eff := a.moduleCurve.Efficiency(tokens, b.Optimal, b.Max)

		share := 0.0
		if total > 0 {
			share = float64(tokens) / float64(total)
		}
		out.Modules = append(out.Modules, ModuleAnalysis{
			Name:       m.Name,
			Group:      b.Group,
			Tokens:     tokens,
			Optimal:    b.Optimal,
			Max:        b.Max,
			Efficiency: eff,
			Share:      share,
			Budgeted:   budgeted,
		})
		groupTokens[b.Group] += tokens

		if eff < WasteThreshold {
			r, ok := remedies[m.Name]
			if !ok {
				r = defaultRemedy
			}
			out.Waste = append(out.Waste, Waste{
				Module:         m.Name,
				Tokens:         tokens,
				WastedTokens:   tokens - b.Optimal,
				Efficiency:     eff,
				Recommendation: r.recommendation,
			})
		}
	}

	sort.SliceStable(out.Waste, func(i, j int) bool {
		if out.Waste[i].WastedTokens != out.Waste[j].WastedTokens {
			return out.Waste[i].WastedTokens > out.Waste[j].WastedTokens
		}
		return out.Waste[i].Module < out.Waste[j].Module
	})

	out.Distribution = distribution(groupTokens, total)
	out.ContextTokens = groupTokens[profile.GroupContext]
	out.ExceedsAvailableContext = out.ContextTokens > a.availableContext
	out.CompressionActions = a.compressionActions(out)
	return out
}

func (a *Analyzer) budgetFor(name string) (profile.ModuleBudget, bool) {
	if b, ok := a.budgets[name]; ok {
		return b, true
	}
	return a.fallbackBudget, false
}

func distribution(groupTokens map[string]int, total int) Distribution {
	ratio := func(group string) float64 {
		if total == 0 {
			return 0
		}
		return float64(groupTokens[group]) / float64(total)
	}
	d := Distribution{
		Core:        ratio(profile.GroupCore),
		Context:     ratio(profile.GroupContext),
		Enhancement: ratio(profile.GroupEnhancement),
	}
	deviation := (math.Abs(d.Core-idealRatios[profile.GroupCore]) +
		math.Abs(d.Context-idealRatios[profile.GroupContext]) +
		math.Abs(d.Enhancement-idealRatios[profile.GroupEnhancement])) / 3
	d.BalanceScore = math.Max(0, 1-2*deviation)
	return d
}

func (a *Analyzer) compressionActions(analysis Analysis) []CompressionAction {
	actions := make([]CompressionAction, 0, len(analysis.Waste)+1)
	covered := 0
	for _, w := range analysis.Waste {
		r, ok := remedies[w.Module]
		if !ok {
			r = defaultRemedy
		}
		actions = append(actions, CompressionAction{
			Module:           w.Module,
			Strategy:         r.strategy,
			TargetTokens:     w.Tokens - w.WastedTokens,
			EstimatedSavings: w.WastedTokens,
		})
		covered += w.WastedTokens
	}

	if remaining := analysis.TotalTokens - a.promptOptimal - covered; remaining > 0 {
		actions = append(actions, CompressionAction{
			Module:           "prompt",
			Strategy:         "reduce_overall",
			TargetTokens:     a.promptOptimal,
			EstimatedSavings: remaining,
		})
	}
	return actions
}
