// Package session is the persistence collaborator for per-conversation
// decision inputs: lead score, analyzer signals, sentiment label and
// provider failure count.
package session

import (
	"context"

	"github.com/wolfman30/chatbot-decision-core/internal/escalation"
)

// Snapshot is everything the decision engine reads about a session.
// Missing scores stay nil.
type Snapshot struct {
	LeadScore        *float64 `json:"lead_score,omitempty"`
	SentimentScore   *float64 `json:"sentiment_score,omitempty"`
	ComplexityScore  *float64 `json:"complexity_score,omitempty"`
	FrustrationScore *float64 `json:"frustration_score,omitempty"`
	SentimentLabel   string   `json:"sentiment_label,omitempty"`
	FailureCount     int      `json:"failure_count"`
}

// Signals converts the snapshot into escalation inputs.
func (s Snapshot) Signals() escalation.Signals {
	return escalation.Signals{
		SentimentScore:   s.SentimentScore,
		ComplexityScore:  s.ComplexityScore,
		FrustrationScore: s.FrustrationScore,
	}
}

// Reader loads a session snapshot. Unknown sessions yield an empty snapshot.
type Reader interface {
	Snapshot(ctx context.Context, sessionID string) (Snapshot, error)
}

// LeadScoreReader loads the latest lead score for a session.
type LeadScoreReader interface {
	LeadScore(ctx context.Context, sessionID string) (*float64, error)
}

// CombinedReader reads the session hash and fills a missing lead score from
// the lead score source.
type CombinedReader struct {
	sessions Reader
	scores   LeadScoreReader
}

func NewCombinedReader(sessions Reader, scores LeadScoreReader) *CombinedReader {
	return &CombinedReader{sessions: sessions, scores: scores}
}

func (r *CombinedReader) Snapshot(ctx context.Context, sessionID string) (Snapshot, error) {
	snap, err := r.sessions.Snapshot(ctx, sessionID)
	if err != nil {
		return Snapshot{}, err
	}
	if snap.LeadScore == nil && r.scores != nil {
		score, err := r.scores.LeadScore(ctx, sessionID)
		if err != nil {
			return Snapshot{}, err
		}
		snap.LeadScore = score
	}
	return snap, nil
}
