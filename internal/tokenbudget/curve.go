// Package tokenbudget scores how efficiently a prompt uses its token
// budget and proposes where to cut.
package tokenbudget

import (
	"math"
	"unicode/utf8"
)

// Curve maps a token count onto an efficiency in [0,1] given an
// optimal/max pair. Counts up to optimal score 1.0, counts up to max decay
// linearly to LinearFloor, and counts beyond max decay exponentially from
// DecayCeiling towards Floor.
type Curve struct {
	LinearFloor   float64
	DecayCeiling  float64
	DecayConstant float64
	Floor         float64
}

// PromptCurve scores the whole prompt.
var PromptCurve = Curve{LinearFloor: 0.7, DecayCeiling: 0.3, DecayConstant: 1000, Floor: 0.1}

// ModuleCurve scores a single prompt module. Its floor stays below the
// decay ceiling so any overage past max scores under 0.3.
var ModuleCurve = Curve{LinearFloor: 0.7, DecayCeiling: 0.3, DecayConstant: 100, Floor: 0.1}

// Efficiency evaluates the curve.
func (c Curve) Efficiency(tokens, optimal, max int) float64 {
	if tokens <= optimal {
		return 1.0
	}
	if tokens <= max && max > optimal {
		over := float64(tokens-optimal) / float64(max-optimal)
		return 1.0 - (1.0-c.LinearFloor)*over
	}
	if max < optimal {
		max = optimal
	}
	decayed := c.DecayCeiling * math.Exp(-float64(tokens-max)/c.DecayConstant)
	return math.Max(decayed, c.Floor)
}

// EstimateTokens approximates the token count of text at four characters
// per token.
func EstimateTokens(text string) int {
	n := utf8.RuneCountInString(text)
	return (n + 3) / 4
}
