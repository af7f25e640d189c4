package session

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
)

// Querier is the subset of pgxpool.Pool used here.
type Querier interface {
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresLeadScores reads lead scores produced by the scoring service.
type PostgresLeadScores struct {
	db Querier
}

func NewPostgresLeadScores(db Querier) *PostgresLeadScores {
	if db == nil {
		panic("session: postgres querier required")
	}
	return &PostgresLeadScores{db: db}
}

// LeadScore returns the most recent score, or nil if none has been recorded.
func (p *PostgresLeadScores) LeadScore(ctx context.Context, sessionID string) (*float64, error) {
	query := `
		SELECT score
		FROM lead_scores
		WHERE session_id = $1
		ORDER BY updated_at DESC
		LIMIT 1
	`
	var score float64
	if err := p.db.QueryRow(ctx, query, sessionID).Scan(&score); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("session: lead score query failed: %w", err)
	}
	return &score, nil
}
