package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"arena-ladder/internal/domain"

	"github.com/rs/zerolog"
)

type MatchupRepository struct {
	db     *sql.DB
	q      DBTX
	logger zerolog.Logger
}

func NewMatchupRepository(sqlDB *sql.DB, logger zerolog.Logger) *MatchupRepository {
	return &MatchupRepository{
		db:     sqlDB,
		q:      sqlDB,
		logger: logger,
	}
}

// WithTx returns a copy of the repository that runs every query on tx.
func (r *MatchupRepository) WithTx(tx *sql.Tx) *MatchupRepository {
	return &MatchupRepository{db: r.db, q: tx, logger: r.logger}
}

// Get returns the directed head-to-head row for player over opponent.
func (r *MatchupRepository) Get(ctx context.Context, playerID, opponentID int64) (*domain.Matchup, error) {
	var m domain.Matchup
	err := r.q.QueryRowContext(ctx, `
		SELECT player_id, opponent_id, wins, losses, last_match_date, created_at, updated_at
		FROM matchups WHERE player_id = ? AND opponent_id = ?`,
		playerID, opponentID,
	).Scan(&m.PlayerID, &m.OpponentID, &m.Wins, &m.Losses, &m.LastMatchDate, &m.CreatedAt, &m.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("matchup %d vs %d: %w", playerID, opponentID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get matchup %d vs %d: %w", playerID, opponentID, err)
	}
	return &m, nil
}

// RecordResult bumps both directed rows for one match: the winner's row over
// the loser gains a win, the loser's row over the winner gains a loss.
func (r *MatchupRepository) RecordResult(ctx context.Context, winnerID, loserID int64, playedAt time.Time) error {
	if err := r.upsert(ctx, winnerID, loserID, 1, 0, playedAt); err != nil {
		return err
	}
	return r.upsert(ctx, loserID, winnerID, 0, 1, playedAt)
}

func (r *MatchupRepository) upsert(ctx context.Context, playerID, opponentID int64, wins, losses int, playedAt time.Time) error {
	now := time.Now().UTC()
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO matchups (player_id, opponent_id, wins, losses, last_match_date, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (player_id, opponent_id) DO UPDATE SET
			wins = wins + excluded.wins,
			losses = losses + excluded.losses,
			last_match_date = excluded.last_match_date,
			updated_at = excluded.updated_at`,
		playerID, opponentID, wins, losses, playedAt, now, now,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert matchup %d vs %d: %w", playerID, opponentID, err)
	}
	return nil
}
