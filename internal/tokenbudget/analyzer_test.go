package tokenbudget

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wolfman30/chatbot-decision-core/internal/profile"
)

func TestCurve_Efficiency(t *testing.T) {
	tests := []struct {
		name    string
		curve   Curve
		tokens  int
		optimal int
		max     int
		want    float64
	}{
		{"below optimal", ModuleCurve, 50, 100, 200, 1.0},
		{"at optimal", ModuleCurve, 100, 100, 200, 1.0},
		{"half way to max", ModuleCurve, 150, 100, 200, 0.85},
		{"at max", ModuleCurve, 200, 100, 200, 0.7},
		{"prompt at max", PromptCurve, 5000, 3000, 5000, 0.7},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.InDelta(t, tt.want, tt.curve.Efficiency(tt.tokens, tt.optimal, tt.max), 1e-9)
		})
	}
}

func TestCurve_ExponentialBranch(t *testing.T) {
	eff := ModuleCurve.Efficiency(300, 100, 200)
	assert.Greater(t, eff, 0.1)
	assert.Less(t, eff, 0.3)
}

func TestCurve_BeyondMaxAlwaysBelowDecayCeiling(t *testing.T) {
	for tokens := 201; tokens < 5000; tokens += 7 {
		eff := ModuleCurve.Efficiency(tokens, 100, 200)
		assert.Less(t, eff, 0.3, "tokens %d", tokens)
		assert.GreaterOrEqual(t, eff, ModuleCurve.Floor, "tokens %d", tokens)
	}
	assert.Equal(t, PromptCurve.Floor, PromptCurve.Efficiency(1_000_000, 3000, 5000))
}

func TestCurve_AtOrBelowOptimalIsExactlyOne(t *testing.T) {
	for tokens := 0; tokens <= 100; tokens++ {
		assert.Equal(t, 1.0, ModuleCurve.Efficiency(tokens, 100, 200))
	}
}

func TestCurve_DegenerateBudget(t *testing.T) {
	assert.Equal(t, 1.0, ModuleCurve.Efficiency(100, 100, 100))
	assert.Less(t, ModuleCurve.Efficiency(101, 100, 100), 0.3)
}

func TestEstimateTokens(t *testing.T) {
	assert.Equal(t, 0, EstimateTokens(""))
	assert.Equal(t, 1, EstimateTokens("abc"))
	assert.Equal(t, 3, EstimateTokens("hello world"))
	assert.Equal(t, 1, EstimateTokens("héllo"[:3]))
}

func TestAnalyzer_WithinBudget(t *testing.T) {
	a := NewAnalyzer(profile.CreateDefault())

	got := a.Analyze(Usage{
		Modules: []ModuleUsage{
			{Name: "system_instructions", Tokens: 400},
			{Name: "conversation_history", Tokens: 600},
			{Name: "knowledge_base", Tokens: 700},
			{Name: "intent_guidance", Tokens: 100},
			{Name: "examples", Tokens: 200},
		},
		PromptTokens:     2000,
		CompletionTokens: 150,
	})

	assert.Equal(t, 2000, got.TotalTokens)
	assert.Equal(t, 1.0, got.Efficiency)
	assert.Equal(t, 150, got.CompletionTokens)
	require.Len(t, got.Modules, 5)
	assert.Equal(t, profile.GroupCore, got.Modules[0].Group)
	assert.InDelta(t, 0.2, got.Modules[0].Share, 1e-9)
	assert.Empty(t, got.Waste)
	assert.Empty(t, got.CompressionActions)

	// 1000 core / 700 context / 300 enhancement against 50/35/15
	assert.InDelta(t, 0.5, got.Distribution.Core, 1e-9)
	assert.InDelta(t, 0.35, got.Distribution.Context, 1e-9)
	assert.InDelta(t, 0.15, got.Distribution.Enhancement, 1e-9)
	assert.InDelta(t, 1.0, got.Distribution.BalanceScore, 1e-9)
	assert.False(t, got.ExceedsAvailableContext)
}

func TestAnalyzer_WasteSortedByWastedTokens(t *testing.T) {
	a := NewAnalyzer(profile.CreateDefault())

	got := a.Analyze(Usage{Modules: []ModuleUsage{
		{Name: "persona", Tokens: 700},              // optimal 150, max 300
		{Name: "conversation_history", Tokens: 2600}, // optimal 1000, max 2000
		{Name: "examples", Tokens: 350},              // within linear range, efficiency > 0.7
	}})

	require.Len(t, got.Waste, 2)
	assert.Equal(t, "conversation_history", got.Waste[0].Module)
	assert.Equal(t, 1600, got.Waste[0].WastedTokens)
	assert.Contains(t, got.Waste[0].Recommendation, "recent turns")
	assert.Equal(t, "persona", got.Waste[1].Module)
	assert.Equal(t, 550, got.Waste[1].WastedTokens)

	// module cuts (2150) already cover the 650 tokens over the prompt
	// optimum, so no prompt-level action is added
	require.Len(t, got.CompressionActions, 2)
	assert.Equal(t, "truncate_history", got.CompressionActions[0].Strategy)
	assert.Equal(t, 1000, got.CompressionActions[0].TargetTokens)
	assert.Equal(t, "condense_persona", got.CompressionActions[1].Strategy)
}

func TestAnalyzer_PromptLevelAction(t *testing.T) {
	a := NewAnalyzer(profile.CreateDefault())

	got := a.Analyze(Usage{Modules: []ModuleUsage{
		{Name: "conversation_history", Tokens: 1900},
		{Name: "knowledge_base", Tokens: 1400},
		{Name: "system_instructions", Tokens: 700},
	}})

	assert.Equal(t, 4000, got.TotalTokens)
	assert.InDelta(t, 0.85, got.Efficiency, 1e-9)
	assert.Empty(t, got.Waste)
	require.Len(t, got.CompressionActions, 1)
	assert.Equal(t, "reduce_overall", got.CompressionActions[0].Strategy)
	assert.Equal(t, 1000, got.CompressionActions[0].EstimatedSavings)
}

func TestAnalyzer_UnknownModuleUsesFallbackBudget(t *testing.T) {
	a := NewAnalyzer(profile.CreateDefault())

	got := a.Analyze(Usage{Modules: []ModuleUsage{{Name: "tool_schemas", Tokens: 900}}})
	require.Len(t, got.Modules, 1)
	assert.False(t, got.Modules[0].Budgeted)
	assert.Equal(t, profile.GroupEnhancement, got.Modules[0].Group)
	require.Len(t, got.Waste, 1)
	assert.Equal(t, 700, got.Waste[0].WastedTokens)
	assert.Equal(t, "trim", got.CompressionActions[0].Strategy)
	assert.Less(t, a.ModuleEfficiency("tool_schemas", 900), 0.3)
}

func TestAnalyzer_EmptyUsage(t *testing.T) {
	got := NewAnalyzer(profile.CreateDefault()).Analyze(Usage{})
	assert.Equal(t, 0, got.TotalTokens)
	assert.Equal(t, 1.0, got.Efficiency)
	assert.Equal(t, 0.0, got.Distribution.Core)
	assert.InDelta(t, 1.0/3.0, got.Distribution.BalanceScore, 1e-9)
}

func TestAnalyzer_ExceedsAvailableContext(t *testing.T) {
	p, err := profile.CreateDefault().WithContextWindow(2000, 500, 500, 500)
	require.NoError(t, err)

	got := NewAnalyzer(p).Analyze(Usage{Modules: []ModuleUsage{{Name: "knowledge_base", Tokens: 800}}})
	assert.Equal(t, 500, got.AvailableContextTokens)
	assert.Equal(t, 800, got.ContextTokens)
	assert.True(t, got.ExceedsAvailableContext)
}
