// Package journey maps lead scores onto the ordered visitor lifecycle.
package journey

import (
	"fmt"

	"github.com/wolfman30/chatbot-decision-core/internal/profile"
)

// Stage is a position in the visitor lifecycle.
type Stage string

const (
	StageInitial        Stage = "initial"
	StageEngaged        Stage = "engaged"
	StageInterested     Stage = "interested"
	StageQualified      Stage = "qualified"
	StageQualifiedReady Stage = "qualified-ready"
)

// Stages lists every stage in lifecycle order.
var Stages = []Stage{StageInitial, StageEngaged, StageInterested, StageQualified, StageQualifiedReady}

// State describes where a visitor sits in the journey.
type State struct {
	CurrentStage         Stage   `json:"current_stage"`
	CompletedStages      []Stage `json:"completed_stages"`
	NextRecommendedStage *Stage  `json:"next_recommended_stage,omitempty"`
	ProgressPercentage   float64 `json:"progress_percentage"`
}

// Mapper converts lead scores into journey states using fixed cut points.
type Mapper struct {
	thresholds profile.JourneyThresholds
}

// NewMapper validates that the cut points strictly increase within (0,100].
func NewMapper(t profile.JourneyThresholds) (*Mapper, error) {
	cuts := []float64{0, t.Engaged, t.Interested, t.Qualified, t.QualifiedReady}
	for i := 1; i < len(cuts); i++ {
		if cuts[i] <= cuts[i-1] || cuts[i] > 100 {
			return nil, fmt.Errorf("journey: threshold for %s must be in (%.0f, 100], got %.2f", Stages[i], cuts[i-1], cuts[i])
		}
	}
	return &Mapper{thresholds: t}, nil
}

// NewMapperFromProfile uses the profile's journey thresholds, which the
// profile has already validated.
func NewMapperFromProfile(p *profile.Profile) *Mapper {
	return &Mapper{thresholds: p.Journey()}
}

// Map returns the journey state for score. Scores outside [0,100] are
// clamped.
func (m *Mapper) Map(score float64) State {
	score = max(0, min(score, 100))
	current := m.stageFor(score)
	idx := indexOf(current)

	completed := make([]Stage, idx)
	copy(completed, Stages[:idx])

	state := State{
		CurrentStage:       current,
		CompletedStages:    completed,
		ProgressPercentage: score,
	}
	if idx+1 < len(Stages) {
		next := Stages[idx+1]
		state.NextRecommendedStage = &next
	}
	return state
}

// MapOptional returns nil when no lead score is known.
func (m *Mapper) MapOptional(score *float64) *State {
	if score == nil {
		return nil
	}
	state := m.Map(*score)
	return &state
}

func (m *Mapper) stageFor(score float64) Stage {
	switch {
	case score >= m.thresholds.QualifiedReady:
		return StageQualifiedReady
	case score >= m.thresholds.Qualified:
		return StageQualified
	case score >= m.thresholds.Interested:
		return StageInterested
	case score >= m.thresholds.Engaged:
		return StageEngaged
	default:
		return StageInitial
	}
}

// IsTerminal reports whether s has no next stage.
func IsTerminal(s Stage) bool {
	return s == StageQualifiedReady
}

func indexOf(s Stage) int {
	for i, stage := range Stages {
		if stage == s {
			return i
		}
	}
	return 0
}
