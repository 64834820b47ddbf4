package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"arena-ladder/internal/domain"

	gonanoid "github.com/matoous/go-nanoid/v2"
	"github.com/rs/zerolog"
)

type RankHistoryRepository struct {
	db     *sql.DB
	q      DBTX
	logger zerolog.Logger
}

func NewRankHistoryRepository(sqlDB *sql.DB, logger zerolog.Logger) *RankHistoryRepository {
	return &RankHistoryRepository{
		db:     sqlDB,
		q:      sqlDB,
		logger: logger,
	}
}

// WithTx returns a copy of the repository that runs every query on tx.
func (r *RankHistoryRepository) WithTx(tx *sql.Tx) *RankHistoryRepository {
	return &RankHistoryRepository{db: r.db, q: tx, logger: r.logger}
}

func (r *RankHistoryRepository) Insert(ctx context.Context, rec *domain.RankHistory) error {
	if rec.ID == "" {
		id, err := gonanoid.New()
		if err != nil {
			return fmt.Errorf("failed to generate nanoid: %w", err)
		}
		rec.ID = id
	}
	if rec.CreatedAt.IsZero() {
		rec.CreatedAt = time.Now().UTC()
	}

	_, err := r.q.ExecContext(ctx, `
		INSERT INTO rank_history (id, player_id, outcome, points_change, points, rank, date, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.PlayerID, rec.Outcome, rec.PointsChange, rec.Points, rec.Rank, rec.Date, rec.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert rank history: %w", err)
	}
	return nil
}

// ListByPlayer returns the newest records first.
func (r *RankHistoryRepository) ListByPlayer(ctx context.Context, playerID int64, limit int) ([]domain.RankHistory, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT id, player_id, outcome, points_change, points, rank, date, created_at
		FROM rank_history WHERE player_id = ?
		ORDER BY date DESC, created_at DESC LIMIT ?`,
		playerID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list rank history: %w", err)
	}
	defer rows.Close()

	records := []domain.RankHistory{}
	for rows.Next() {
		var rec domain.RankHistory
		if err := rows.Scan(&rec.ID, &rec.PlayerID, &rec.Outcome, &rec.PointsChange,
			&rec.Points, &rec.Rank, &rec.Date, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan rank history: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate rank history: %w", err)
	}
	return records, nil
}
